package blocks

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/cadence/store"
)

// ErrInvalidBlock marks caller errors on block create/update.
var ErrInvalidBlock = errors.New("invalid activity block")

// Catalog manages a user's activity blocks.
type Catalog struct {
	store  *store.Store
	logger *slog.Logger
}

// NewCatalog creates a catalog service over the store.
func NewCatalog(s *store.Store, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{store: s, logger: logger}
}

var weekdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

var everyday = []time.Weekday{
	time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
	time.Thursday, time.Friday, time.Saturday,
}

// defaultTemplates are the six blocks seeded into an empty catalog.
func defaultTemplates(userID string) []*store.ActivityBlock {
	build := func(name, start, end string, days []time.Weekday, profile store.EnergyProfile, categories ...string) *store.ActivityBlock {
		return &store.ActivityBlock{
			ID:             shortuuid.New(),
			UserID:         userID,
			Name:           name,
			StartTime:      start,
			EndTime:        end,
			Days:           days,
			EnergyProfile:  profile,
			TaskCategories: categories,
			FlexLevel:      store.FlexLevelFlexible,
			IsDefault:      true,
			Status:         store.BlockStatusActive,
		}
	}

	return []*store.ActivityBlock{
		build("Morning Routine", "07:00", "09:00", weekdays, store.EnergyProfileLow, "personal", "planning"),
		build("Focus Time", "09:00", "12:00", weekdays, store.EnergyProfileHigh, "work", "creative"),
		build("Midday", "12:00", "14:00", weekdays, store.EnergyProfileMedium, "admin", "errands"),
		build("Afternoon", "14:00", "17:00", weekdays, store.EnergyProfileMedium, "work", "meetings"),
		build("Evening", "17:00", "21:00", everyday, store.EnergyProfileLow, "personal", "relax"),
		build("Weekend", "09:00", "18:00", []time.Weekday{time.Saturday, time.Sunday}, store.EnergyProfileVariable, "personal", "home"),
	}
}

// InitializeDefaults seeds the six default blocks the first time a
// user's catalog is found empty. Idempotent: any existing block makes
// it a no-op.
func (c *Catalog) InitializeDefaults(ctx context.Context, userID string) ([]*store.ActivityBlock, error) {
	existing, err := c.store.ListActivityBlocks(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	defaults := defaultTemplates(userID)
	now := time.Now().Unix()
	for _, block := range defaults {
		block.CreatedTs = now
		block.UpdatedTs = now
	}
	if err := c.store.ReplaceActivityBlocks(ctx, userID, defaults); err != nil {
		return nil, err
	}

	c.logger.Info("seeded default activity blocks", "user_id", userID, "count", len(defaults))
	return defaults, nil
}

// ListAll returns every block, paused included, in creation order.
func (c *Catalog) ListAll(ctx context.Context, userID string) ([]*store.ActivityBlock, error) {
	return c.store.ListActivityBlocks(ctx, userID)
}

// ListActive returns active blocks sorted by start time. Blocks sharing
// a start time keep their creation order.
func (c *Catalog) ListActive(ctx context.Context, userID string) ([]*store.ActivityBlock, error) {
	all, err := c.store.ListActivityBlocks(ctx, userID)
	if err != nil {
		return nil, err
	}

	active := make([]*store.ActivityBlock, 0, len(all))
	for _, block := range all {
		if block.Status == store.BlockStatusActive {
			active = append(active, block)
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		return startMinutes(active[i]) < startMinutes(active[j])
	})
	return active, nil
}

// startMinutes orders blocks by parsed clock so unpadded times like
// "9:00" sort before "10:00".
func startMinutes(block *store.ActivityBlock) int {
	hour, minute, ok := parseClock(block.StartTime)
	if !ok {
		return 0
	}
	return hour*60 + minute
}

// FindByName looks a block up by case-insensitive bidirectional
// substring match. First hit in creation order wins; no hit returns
// (nil, nil).
func (c *Catalog) FindByName(ctx context.Context, userID, name string) (*store.ActivityBlock, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, nil
	}

	all, err := c.store.ListActivityBlocks(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, block := range all {
		candidate := strings.ToLower(block.Name)
		if strings.Contains(candidate, needle) || strings.Contains(needle, candidate) {
			return block, nil
		}
	}
	return nil, nil
}

// Get returns a block by ID, or (nil, nil) when unknown.
func (c *Catalog) Get(ctx context.Context, userID, blockID string) (*store.ActivityBlock, error) {
	all, err := c.store.ListActivityBlocks(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, block := range all {
		if block.ID == blockID {
			return block, nil
		}
	}
	return nil, nil
}

// Create validates and persists a new user block.
func (c *Catalog) Create(ctx context.Context, block *store.ActivityBlock) (*store.ActivityBlock, error) {
	if block == nil {
		return nil, errors.Wrap(ErrInvalidBlock, "nil block")
	}
	if block.ID == "" {
		block.ID = shortuuid.New()
	}
	if block.Status == "" {
		block.Status = store.BlockStatusActive
	}
	if block.FlexLevel == "" {
		block.FlexLevel = store.FlexLevelFlexible
	}
	if err := Validate(block); err != nil {
		return nil, err
	}
	return c.store.UpsertActivityBlock(ctx, block)
}

// Update validates and replaces an existing block. Pausing and
// resuming go through here as status transitions.
func (c *Catalog) Update(ctx context.Context, block *store.ActivityBlock) (*store.ActivityBlock, error) {
	if block == nil || block.ID == "" {
		return nil, errors.Wrap(ErrInvalidBlock, "update requires a block id")
	}
	if err := Validate(block); err != nil {
		return nil, err
	}

	existing, err := c.Get(ctx, block.UserID, block.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, errors.Wrapf(ErrInvalidBlock, "block %s not found", block.ID)
	}
	block.IsDefault = existing.IsDefault
	return c.store.UpsertActivityBlock(ctx, block)
}

// Delete removes a block. The user's learned per-block average keeps
// its stale key; that entry is harmless and needs no cleanup.
func (c *Catalog) Delete(ctx context.Context, userID, blockID string) error {
	return c.store.DeleteActivityBlock(ctx, userID, blockID)
}

// Validate checks the block invariants: HH:MM syntax, start before
// end (overnight windows unsupported), at least one day, a name, and
// known enum values.
func Validate(block *store.ActivityBlock) error {
	if block.UserID == "" {
		return errors.Wrap(ErrInvalidBlock, "missing user id")
	}
	if strings.TrimSpace(block.Name) == "" {
		return errors.Wrap(ErrInvalidBlock, "missing name")
	}

	startH, startM, ok := parseClock(block.StartTime)
	if !ok {
		return errors.Wrapf(ErrInvalidBlock, "bad start time %q", block.StartTime)
	}
	endH, endM, ok := parseClock(block.EndTime)
	if !ok {
		return errors.Wrapf(ErrInvalidBlock, "bad end time %q", block.EndTime)
	}
	if startH*60+startM >= endH*60+endM {
		return errors.Wrapf(ErrInvalidBlock, "start %s must be before end %s", block.StartTime, block.EndTime)
	}

	if len(block.Days) == 0 {
		return errors.Wrap(ErrInvalidBlock, "at least one day required")
	}
	for _, d := range block.Days {
		if d < time.Sunday || d > time.Saturday {
			return errors.Wrapf(ErrInvalidBlock, "bad weekday %d", d)
		}
	}

	switch block.EnergyProfile {
	case store.EnergyProfileHigh, store.EnergyProfileMedium, store.EnergyProfileLow, store.EnergyProfileVariable:
	default:
		return errors.Wrapf(ErrInvalidBlock, "bad energy profile %q", block.EnergyProfile)
	}

	switch block.FlexLevel {
	case store.FlexLevelFixed, store.FlexLevelFlexible, store.FlexLevelSoft:
	default:
		return errors.Wrapf(ErrInvalidBlock, "bad flex level %q", block.FlexLevel)
	}

	return nil
}
