package scoring

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/hrygo/cadence/engine/blocks"
	"github.com/hrygo/cadence/engine/config"
	"github.com/hrygo/cadence/engine/energy"
	"github.com/hrygo/cadence/engine/metrics"
	"github.com/hrygo/cadence/internal/timeutil"
)

// SuggestOptions controls one ranking call. Zero values take the
// configured defaults.
type SuggestOptions struct {
	MaxSuggestions  int
	DaysToCheck     int
	ExcludeBlockIDs []string
	// Timezone is the user's IANA timezone; empty falls back to the
	// engine default.
	Timezone string
	// Now overrides the clock, for tests.
	Now time.Time
}

// Ranker sweeps the lookahead window across active blocks and returns
// the best-scoring slots.
type Ranker struct {
	catalog *blocks.Catalog
	learner *energy.Learner
	scorer  *Scorer
	cfg     *config.Config
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewRanker creates a ranker. metrics may be nil.
func NewRanker(catalog *blocks.Catalog, learner *energy.Learner, scorer *Scorer, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) *Ranker {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ranker{catalog: catalog, learner: learner, scorer: scorer, cfg: cfg, metrics: m, logger: logger}
}

// Suggest scores every (day, active block) pair over the lookahead
// window and returns the top suggestions, scores non-increasing.
// Ties keep sweep order: earlier date first, then the active list's
// start-time order. An empty catalog yields an empty list.
//
// The pattern is fetched once per call and threaded through every
// score, so the whole sweep costs two store round trips.
func (r *Ranker) Suggest(ctx context.Context, userID string, task Task, opts SuggestOptions) ([]BlockScore, error) {
	started := time.Now()

	maxSuggestions := opts.MaxSuggestions
	if maxSuggestions <= 0 {
		maxSuggestions = r.cfg.Ranking.MaxSuggestions
	}
	daysToCheck := opts.DaysToCheck
	if daysToCheck <= 0 {
		daysToCheck = r.cfg.Ranking.DaysToCheck
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	active, err := r.catalog.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	pattern, err := r.learner.Pattern(ctx, userID)
	if err != nil {
		return nil, err
	}

	excluded := make(map[string]bool, len(opts.ExcludeBlockIDs))
	for _, id := range opts.ExcludeBlockIDs {
		excluded[id] = true
	}

	loc := timeutil.Location(opts.Timezone)
	var candidates []BlockScore
	for day := 0; day < daysToCheck; day++ {
		date := now.In(loc).AddDate(0, 0, day)
		for _, block := range active {
			if excluded[block.ID] {
				continue
			}
			scored := r.scorer.Score(task, block, pattern, date, loc, now)
			if scored.Score > 0 {
				candidates = append(candidates, scored)
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > maxSuggestions {
		candidates = candidates[:maxSuggestions]
	}

	r.metrics.RankingDone(time.Since(started), len(candidates))
	r.logger.Debug("ranked block suggestions",
		"user_id", userID, "days", daysToCheck, "active_blocks", len(active), "returned", len(candidates))
	return candidates, nil
}
