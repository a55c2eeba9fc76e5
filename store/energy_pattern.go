package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// EnergyPattern holds a user's learned energy aggregates. One record
// per user, lazily created, mutated only through EMA updates.
type EnergyPattern struct {
	UserID string `json:"user_id"`
	// HourlyAverages maps hour of day (0-23) to the running average
	// energy level (1-5) observed at that hour.
	HourlyAverages map[int]float64 `json:"hourly_averages"`
	// DayOfWeekAverages maps weekday (Sunday=0) to the running average.
	DayOfWeekAverages map[time.Weekday]float64 `json:"day_of_week_averages"`
	// BlockAverages maps block ID to the running average. Keys are weak:
	// a deleted block leaves a harmless stale entry behind.
	BlockAverages map[string]float64 `json:"block_averages"`
	// TaskTypeSuccessRates is reserved for a future learning path and is
	// not written by the current one.
	TaskTypeSuccessRates map[string]float64 `json:"task_type_success_rates"`
	// DataPoints counts observations folded into the averages.
	DataPoints int   `json:"data_points"`
	UpdatedTs  int64 `json:"updated_ts"`
}

// NewEnergyPattern returns an empty pattern for a user.
func NewEnergyPattern(userID string) *EnergyPattern {
	return &EnergyPattern{
		UserID:               userID,
		HourlyAverages:       make(map[int]float64),
		DayOfWeekAverages:    make(map[time.Weekday]float64),
		BlockAverages:        make(map[string]float64),
		TaskTypeSuccessRates: make(map[string]float64),
	}
}

// GetEnergyPattern returns the user's pattern, or (nil, nil) when none
// has been persisted yet.
func (s *Store) GetEnergyPattern(ctx context.Context, userID string) (*EnergyPattern, error) {
	key := patternKey(userID)
	if cached, ok := s.patternCache.Get(key); ok {
		return cached, nil
	}

	raw, found, err := s.driver.Get(ctx, key)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get energy pattern for user %s", userID)
	}
	if !found {
		return nil, nil
	}

	pattern := NewEnergyPattern(userID)
	if err := json.Unmarshal([]byte(raw), pattern); err != nil {
		return nil, errors.Wrapf(err, "failed to decode energy pattern for user %s", userID)
	}
	ensurePatternMaps(pattern)

	s.patternCache.Set(key, pattern)
	return pattern, nil
}

// UpsertEnergyPattern persists the whole pattern record.
func (s *Store) UpsertEnergyPattern(ctx context.Context, pattern *EnergyPattern) error {
	if pattern == nil || pattern.UserID == "" {
		return errors.New("energy pattern requires a user id")
	}
	pattern.UpdatedTs = time.Now().Unix()

	raw, err := json.Marshal(pattern)
	if err != nil {
		return errors.Wrap(err, "failed to encode energy pattern")
	}

	key := patternKey(pattern.UserID)
	if err := s.driver.Set(ctx, key, string(raw), 0); err != nil {
		// The caller mutates the cached record in place before writing;
		// drop the entry so readers never observe a write that failed.
		s.patternCache.Remove(key)
		return errors.Wrapf(err, "failed to persist energy pattern for user %s", pattern.UserID)
	}

	s.patternCache.Set(key, pattern)
	return nil
}

// ensurePatternMaps backfills nil maps after JSON decoding so callers
// can index without nil checks.
func ensurePatternMaps(p *EnergyPattern) {
	if p.HourlyAverages == nil {
		p.HourlyAverages = make(map[int]float64)
	}
	if p.DayOfWeekAverages == nil {
		p.DayOfWeekAverages = make(map[time.Weekday]float64)
	}
	if p.BlockAverages == nil {
		p.BlockAverages = make(map[string]float64)
	}
	if p.TaskTypeSuccessRates == nil {
		p.TaskTypeSuccessRates = make(map[string]float64)
	}
}
