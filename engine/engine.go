// Package engine exposes the adaptive scheduling and energy-learning
// operations consumed in-process by the upstream orchestrator. The
// engine owns no wire protocol: intent classification and response
// rendering stay with the caller.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/hrygo/cadence/engine/blocks"
	"github.com/hrygo/cadence/engine/config"
	"github.com/hrygo/cadence/engine/energy"
	"github.com/hrygo/cadence/engine/metrics"
	"github.com/hrygo/cadence/engine/scoring"
	"github.com/hrygo/cadence/internal/profile"
	"github.com/hrygo/cadence/internal/timeutil"
	"github.com/hrygo/cadence/store"
)

// Engine wires the catalog, learner, scorer and ranker over one store.
type Engine struct {
	store   *store.Store
	profile *profile.Profile
	cfg     *config.Config
	metrics *metrics.Metrics
	logger  *slog.Logger

	catalog *blocks.Catalog
	learner *energy.Learner
	scorer  *scoring.Scorer
	ranker  *scoring.Ranker
}

// New creates an engine. cfg, m and logger may be nil; defaults apply.
func New(s *store.Store, p *profile.Profile, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	catalog := blocks.NewCatalog(s, logger)
	learner := energy.NewLearner(s, cfg, m, logger)
	scorer := scoring.NewScorer(cfg, m)
	ranker := scoring.NewRanker(catalog, learner, scorer, cfg, m, logger)

	return &Engine{
		store:   s,
		profile: p,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
		catalog: catalog,
		learner: learner,
		scorer:  scorer,
		ranker:  ranker,
	}
}

// RecordLogRequest is one explicit numeric self-report.
type RecordLogRequest struct {
	// Level is the self-reported energy, 1-5.
	Level int
	// At is the observation time; zero means now.
	At time.Time
	// Timezone localizes the observation; empty falls back to the
	// profile default.
	Timezone string
	Context  string
	BlockID  string
}

// RecordExplicitLog persists the report and folds it into the user's
// learned pattern.
func (e *Engine) RecordExplicitLog(ctx context.Context, userID string, req *RecordLogRequest) (*store.EnergyLog, error) {
	tz := req.Timezone
	if tz == "" {
		tz = e.profile.Timezone
	}
	return e.learner.RecordExplicitLog(ctx, userID, req.Level, req.At, tz, req.Context, req.BlockID)
}

// RecordObservedPreference folds an inferred conversational statement
// into the user's learned pattern.
func (e *Engine) RecordObservedPreference(ctx context.Context, userID string, obs energy.Observation) error {
	return e.learner.RecordObservedPreference(ctx, userID, obs)
}

// GetEnergyPattern returns a read-only snapshot of the user's pattern,
// the empty default included. Callers conventionally gate narration on
// DataPoints (energy.MinSamplesBasic / energy.MinSamplesWeekly).
func (e *Engine) GetEnergyPattern(ctx context.Context, userID string) (*store.EnergyPattern, error) {
	return e.learner.Pattern(ctx, userID)
}

// InitializeDefaultBlocks seeds the six default blocks into an empty
// catalog. Idempotent.
func (e *Engine) InitializeDefaultBlocks(ctx context.Context, userID string) ([]*store.ActivityBlock, error) {
	return e.catalog.InitializeDefaults(ctx, userID)
}

// ListActiveBlocks returns active blocks sorted by start time.
func (e *Engine) ListActiveBlocks(ctx context.Context, userID string) ([]*store.ActivityBlock, error) {
	return e.catalog.ListActive(ctx, userID)
}

// ListAllBlocks returns every block, paused included.
func (e *Engine) ListAllBlocks(ctx context.Context, userID string) ([]*store.ActivityBlock, error) {
	return e.catalog.ListAll(ctx, userID)
}

// FindBlockByName resolves a user-spoken block name; (nil, nil) when
// nothing matches.
func (e *Engine) FindBlockByName(ctx context.Context, userID, name string) (*store.ActivityBlock, error) {
	return e.catalog.FindByName(ctx, userID, name)
}

// CreateBlock validates and persists a new block.
func (e *Engine) CreateBlock(ctx context.Context, block *store.ActivityBlock) (*store.ActivityBlock, error) {
	return e.catalog.Create(ctx, block)
}

// UpdateBlock validates and replaces an existing block; pause and
// resume are status updates.
func (e *Engine) UpdateBlock(ctx context.Context, block *store.ActivityBlock) (*store.ActivityBlock, error) {
	return e.catalog.Update(ctx, block)
}

// DeleteBlock removes a block, leaving any learned average for its ID
// as a harmless stale entry.
func (e *Engine) DeleteBlock(ctx context.Context, userID, blockID string) error {
	return e.catalog.Delete(ctx, userID, blockID)
}

// ScoreBlockForTask rates one task against one block on a date. A zero
// date means today. Unknown block IDs rate zero with no reasons.
func (e *Engine) ScoreBlockForTask(ctx context.Context, userID string, task scoring.Task, blockID string, date time.Time, timezone string) (scoring.BlockScore, error) {
	block, err := e.catalog.Get(ctx, userID, blockID)
	if err != nil {
		return scoring.BlockScore{}, err
	}
	if block == nil {
		return scoring.BlockScore{Date: date}, nil
	}

	pattern, err := e.learner.Pattern(ctx, userID)
	if err != nil {
		return scoring.BlockScore{}, err
	}

	if timezone == "" {
		timezone = e.profile.Timezone
	}
	loc := timeutil.Location(timezone)
	now := time.Now()
	if date.IsZero() {
		date = now.In(loc)
	}

	return e.scorer.Score(task, block, pattern, date, loc, now), nil
}

// SuggestBlocksForTask returns the top-scoring (day, block) slots over
// the lookahead window.
func (e *Engine) SuggestBlocksForTask(ctx context.Context, userID string, task scoring.Task, opts scoring.SuggestOptions) ([]scoring.BlockScore, error) {
	if opts.Timezone == "" {
		opts.Timezone = e.profile.Timezone
	}
	return e.ranker.Suggest(ctx, userID, task, opts)
}
