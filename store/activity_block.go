package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// EnergyProfile describes the energy character of an activity block.
type EnergyProfile string

const (
	EnergyProfileHigh     EnergyProfile = "high"
	EnergyProfileMedium   EnergyProfile = "medium"
	EnergyProfileLow      EnergyProfile = "low"
	EnergyProfileVariable EnergyProfile = "variable"
)

// FlexLevel describes how movable a block is.
type FlexLevel string

const (
	FlexLevelFixed    FlexLevel = "fixed"
	FlexLevelFlexible FlexLevel = "flexible"
	FlexLevelSoft     FlexLevel = "soft"
)

// BlockStatus is the lifecycle state of a block.
type BlockStatus string

const (
	BlockStatusActive BlockStatus = "active"
	BlockStatusPaused BlockStatus = "paused"
)

// ActivityBlock is a named recurring time window with an energy profile
// and category affinity. Many per user; user-managed lifecycle.
type ActivityBlock struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	// StartTime and EndTime are local wall-clock "HH:MM" with
	// StartTime < EndTime. Overnight windows are not supported.
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	// Days are the weekdays the block recurs on (Sunday=0).
	Days           []time.Weekday `json:"days"`
	EnergyProfile  EnergyProfile  `json:"energy_profile"`
	TaskCategories []string       `json:"task_categories,omitempty"`
	FlexLevel      FlexLevel      `json:"flex_level"`
	IsDefault      bool           `json:"is_default"`
	Status         BlockStatus    `json:"status"`
	CreatedTs      int64          `json:"created_ts"`
	UpdatedTs      int64          `json:"updated_ts"`
}

// ListActivityBlocks returns the user's whole catalog in creation
// order. An absent record means an empty catalog.
func (s *Store) ListActivityBlocks(ctx context.Context, userID string) ([]*ActivityBlock, error) {
	key := blocksKey(userID)
	if cached, ok := s.blockCache.Get(key); ok {
		return cached, nil
	}

	raw, found, err := s.driver.Get(ctx, key)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get activity blocks for user %s", userID)
	}
	if !found {
		return []*ActivityBlock{}, nil
	}

	var blocks []*ActivityBlock
	if err := json.Unmarshal([]byte(raw), &blocks); err != nil {
		return nil, errors.Wrapf(err, "failed to decode activity blocks for user %s", userID)
	}

	s.blockCache.Set(key, blocks)
	return blocks, nil
}

// UpsertActivityBlock inserts or replaces one block inside the user's
// catalog record.
func (s *Store) UpsertActivityBlock(ctx context.Context, block *ActivityBlock) (*ActivityBlock, error) {
	if block == nil || block.UserID == "" || block.ID == "" {
		return nil, errors.New("activity block requires user id and block id")
	}

	blocks, err := s.ListActivityBlocks(ctx, block.UserID)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	block.UpdatedTs = now
	replaced := false
	for i, existing := range blocks {
		if existing.ID == block.ID {
			block.CreatedTs = existing.CreatedTs
			blocks[i] = block
			replaced = true
			break
		}
	}
	if !replaced {
		if block.CreatedTs == 0 {
			block.CreatedTs = now
		}
		blocks = append(blocks, block)
	}

	if err := s.ReplaceActivityBlocks(ctx, block.UserID, blocks); err != nil {
		return nil, err
	}
	return block, nil
}

// DeleteActivityBlock removes one block from the catalog. Deleting an
// unknown block is a no-op. Any EnergyPattern.BlockAverages entry keyed
// by the deleted ID is left in place.
func (s *Store) DeleteActivityBlock(ctx context.Context, userID, blockID string) error {
	blocks, err := s.ListActivityBlocks(ctx, userID)
	if err != nil {
		return err
	}

	kept := make([]*ActivityBlock, 0, len(blocks))
	for _, block := range blocks {
		if block.ID != blockID {
			kept = append(kept, block)
		}
	}
	if len(kept) == len(blocks) {
		return nil
	}

	return s.ReplaceActivityBlocks(ctx, userID, kept)
}

// ReplaceActivityBlocks writes the whole catalog record in one set.
// Used by single-block mutations and by default seeding.
func (s *Store) ReplaceActivityBlocks(ctx context.Context, userID string, blocks []*ActivityBlock) error {
	raw, err := json.Marshal(blocks)
	if err != nil {
		return errors.Wrap(err, "failed to encode activity blocks")
	}

	key := blocksKey(userID)
	if err := s.driver.Set(ctx, key, string(raw), 0); err != nil {
		// Single-block mutations edit the cached slice in place before
		// writing; drop the entry so readers never observe a write that
		// failed.
		s.blockCache.Remove(key)
		return errors.Wrapf(err, "failed to persist activity blocks for user %s", userID)
	}

	s.blockCache.Set(key, blocks)
	return nil
}
