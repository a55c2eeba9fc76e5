package energy

import (
	"context"
	"log/slog"
	"time"

	"github.com/hrygo/cadence/engine/config"
	"github.com/hrygo/cadence/engine/metrics"
	"github.com/hrygo/cadence/internal/timeutil"
	"github.com/hrygo/cadence/store"
)

// Observation is one inferred conversational statement about energy,
// e.g. "I'm sharpest in the morning".
type Observation struct {
	// TimeOfDay is a band label ("morning", "afternoon", ...), empty
	// when the statement carried no time component.
	TimeOfDay string
	// DayOfWeek is set when the statement named a weekday.
	DayOfWeek *time.Weekday
	// Level is the qualitative energy: "low", "medium", "high".
	Level string
	// IsPattern marks persisting-pattern language ("I'm always...")
	// versus a one-off statement; patterns learn faster.
	IsPattern bool
}

// Learner mutates per-user energy patterns through EMA updates.
type Learner struct {
	store   *store.Store
	cfg     *config.Config
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewLearner creates a learner. metrics may be nil.
func NewLearner(s *store.Store, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) *Learner {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Learner{store: s, cfg: cfg, metrics: m, logger: logger}
}

// getOrCreate returns the user's pattern, lazily creating the empty
// default record.
func (l *Learner) getOrCreate(ctx context.Context, userID string) (*store.EnergyPattern, error) {
	pattern, err := l.store.GetEnergyPattern(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pattern == nil {
		pattern = store.NewEnergyPattern(userID)
	}
	return pattern, nil
}

// RecordExplicitLog persists a numeric self-report and folds it into
// the user's pattern: the report's hour and weekday always learn, the
// block average only when the report names a block.
//
// Persistence is whole-record: concurrent writes to one user's pattern
// are last-writer-wins, accepted because the front-end processes a
// user's turns sequentially.
func (l *Learner) RecordExplicitLog(ctx context.Context, userID string, level int, at time.Time, timezone, context_, blockID string) (*store.EnergyLog, error) {
	if at.IsZero() {
		at = time.Now()
	}

	log, err := l.store.CreateEnergyLog(ctx, &store.EnergyLog{
		UserID:    userID,
		CreatedTs: at.Unix(),
		Level:     level,
		Context:   context_,
		BlockID:   blockID,
	})
	if err != nil {
		return nil, err
	}

	pattern, err := l.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	local := at.In(timeutil.Location(timezone))
	value := float64(level)
	emaInto(pattern.HourlyAverages, local.Hour(), value, l.cfg.Learning.HourlyAlpha)
	emaInto(pattern.DayOfWeekAverages, local.Weekday(), value, l.cfg.Learning.DayOfWeekAlpha)
	if blockID != "" {
		emaInto(pattern.BlockAverages, blockID, value, l.cfg.Learning.BlockAlpha)
	}
	pattern.DataPoints++

	if err := l.store.UpsertEnergyPattern(ctx, pattern); err != nil {
		return nil, err
	}

	l.metrics.LearningUpdate("explicit")
	l.logger.Debug("recorded explicit energy log",
		"user_id", userID, "level", level, "hour", local.Hour(), "block_id", blockID)
	return log, nil
}

// RecordObservedPreference folds an inferred statement into the
// pattern. The qualitative level maps to its anchor; pattern language
// learns at a higher rate than one-off statements. A time-of-day band
// updates every hour in the band, an unknown band updates none.
func (l *Learner) RecordObservedPreference(ctx context.Context, userID string, obs Observation) error {
	pattern, err := l.getOrCreate(ctx, userID)
	if err != nil {
		return err
	}

	alpha := l.cfg.Learning.ObservedAlpha
	if obs.IsPattern {
		alpha = l.cfg.Learning.ObservedPatternAlpha
	}
	value := Anchor(obs.Level)

	if obs.TimeOfDay != "" {
		for _, hour := range l.cfg.Learning.TimeOfDayBands[obs.TimeOfDay] {
			emaInto(pattern.HourlyAverages, hour, value, alpha)
		}
	}
	if obs.DayOfWeek != nil {
		emaInto(pattern.DayOfWeekAverages, *obs.DayOfWeek, value, alpha)
	}
	pattern.DataPoints++

	if err := l.store.UpsertEnergyPattern(ctx, pattern); err != nil {
		return err
	}

	l.metrics.LearningUpdate("observed")
	l.logger.Debug("recorded observed preference",
		"user_id", userID, "time_of_day", obs.TimeOfDay, "level", obs.Level, "is_pattern", obs.IsPattern)
	return nil
}

// Pattern returns the user's persisted pattern, or the empty default
// when nothing has been learned yet. The snapshot is read-only from
// the caller's point of view.
func (l *Learner) Pattern(ctx context.Context, userID string) (*store.EnergyPattern, error) {
	return l.getOrCreate(ctx, userID)
}
