package energy

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/cadence/engine/config"
	"github.com/hrygo/cadence/internal/profile"
	"github.com/hrygo/cadence/store"
	"github.com/hrygo/cadence/store/db/memkv"
)

func newTestLearner(t *testing.T) *Learner {
	t.Helper()
	p := &profile.Profile{Mode: "demo", Driver: "memory", LogTTLDays: 90, Timezone: "UTC"}
	s := store.New(memkv.NewDB(), p)
	t.Cleanup(func() { _ = s.Close() })
	return NewLearner(s, config.Default(), nil, nil)
}

// Wednesday 2026-01-07 14:30 UTC.
var wednesdayAfternoon = time.Date(2026, 1, 7, 14, 30, 0, 0, time.UTC)

func TestRecordExplicitLog(t *testing.T) {
	l := newTestLearner(t)
	ctx := context.Background()

	log, err := l.RecordExplicitLog(ctx, "alice", 5, wednesdayAfternoon, "UTC", "post workout", "focus")
	require.NoError(t, err)
	assert.NotEmpty(t, log.ID)

	pattern, err := l.Pattern(ctx, "alice")
	require.NoError(t, err)

	// First observation is adopted as-is.
	assert.InDelta(t, 5.0, pattern.HourlyAverages[14], 1e-9)
	assert.InDelta(t, 5.0, pattern.DayOfWeekAverages[time.Wednesday], 1e-9)
	assert.InDelta(t, 5.0, pattern.BlockAverages["focus"], 1e-9)
	assert.Equal(t, 1, pattern.DataPoints)

	// Second observation blends at the configured alphas.
	_, err = l.RecordExplicitLog(ctx, "alice", 1, wednesdayAfternoon, "UTC", "", "focus")
	require.NoError(t, err)

	pattern, err = l.Pattern(ctx, "alice")
	require.NoError(t, err)
	assert.InDelta(t, 0.1*1+0.9*5, pattern.HourlyAverages[14], 1e-9)
	assert.InDelta(t, 0.1*1+0.9*5, pattern.DayOfWeekAverages[time.Wednesday], 1e-9)
	assert.InDelta(t, 0.15*1+0.85*5, pattern.BlockAverages["focus"], 1e-9)
	assert.Equal(t, 2, pattern.DataPoints)
}

func TestRecordExplicitLog_WithoutBlock(t *testing.T) {
	l := newTestLearner(t)
	ctx := context.Background()

	_, err := l.RecordExplicitLog(ctx, "alice", 3, wednesdayAfternoon, "UTC", "", "")
	require.NoError(t, err)

	pattern, err := l.Pattern(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, pattern.BlockAverages, "no block named, no block average learned")
}

func TestRecordExplicitLog_UsesUserTimezone(t *testing.T) {
	l := newTestLearner(t)
	ctx := context.Background()

	// 23:30 UTC on Tuesday is 07:30 Wednesday in Shanghai.
	at := time.Date(2026, 1, 6, 23, 30, 0, 0, time.UTC)
	_, err := l.RecordExplicitLog(ctx, "alice", 4, at, "Asia/Shanghai", "", "")
	require.NoError(t, err)

	pattern, err := l.Pattern(ctx, "alice")
	require.NoError(t, err)
	assert.InDelta(t, 4.0, pattern.HourlyAverages[7], 1e-9)
	assert.InDelta(t, 4.0, pattern.DayOfWeekAverages[time.Wednesday], 1e-9)
}

func TestRecordObservedPreference_Band(t *testing.T) {
	l := newTestLearner(t)
	ctx := context.Background()

	err := l.RecordObservedPreference(ctx, "alice", Observation{
		TimeOfDay: "morning",
		Level:     "high",
		IsPattern: true,
	})
	require.NoError(t, err)

	pattern, err := l.Pattern(ctx, "alice")
	require.NoError(t, err)

	for hour := 6; hour <= 10; hour++ {
		assert.InDelta(t, 4.0, pattern.HourlyAverages[hour], 1e-9, "hour %d", hour)
	}
	assert.NotContains(t, pattern.HourlyAverages, 11)
	assert.Equal(t, 1, pattern.DataPoints)
}

func TestRecordObservedPreference_AlphaByStatementKind(t *testing.T) {
	l := newTestLearner(t)
	ctx := context.Background()

	// Seed hour 9 with an explicit report at level 5.
	at := time.Date(2026, 1, 7, 9, 0, 0, 0, time.UTC)
	_, err := l.RecordExplicitLog(ctx, "alice", 5, at, "UTC", "", "")
	require.NoError(t, err)

	// One-off low statement: alpha 0.2 toward anchor 2.
	err = l.RecordObservedPreference(ctx, "alice", Observation{TimeOfDay: "morning", Level: "low"})
	require.NoError(t, err)

	pattern, err := l.Pattern(ctx, "alice")
	require.NoError(t, err)
	assert.InDelta(t, 0.2*2+0.8*5, pattern.HourlyAverages[9], 1e-9)

	// Pattern statement learns faster: alpha 0.3.
	prior := pattern.HourlyAverages[9]
	err = l.RecordObservedPreference(ctx, "alice", Observation{TimeOfDay: "morning", Level: "low", IsPattern: true})
	require.NoError(t, err)

	pattern, err = l.Pattern(ctx, "alice")
	require.NoError(t, err)
	assert.InDelta(t, 0.3*2+0.7*prior, pattern.HourlyAverages[9], 1e-9)
}

func TestRecordObservedPreference_ConfiguredBands(t *testing.T) {
	p := &profile.Profile{Mode: "demo", Driver: "memory", LogTTLDays: 90, Timezone: "UTC"}
	s := store.New(memkv.NewDB(), p)
	t.Cleanup(func() { _ = s.Close() })

	cfg := config.Default()
	cfg.Learning.TimeOfDayBands = map[string][]int{"dawn": {4, 5}}
	l := NewLearner(s, cfg, nil, nil)
	ctx := context.Background()

	err := l.RecordObservedPreference(ctx, "alice", Observation{TimeOfDay: "dawn", Level: "high"})
	require.NoError(t, err)

	pattern, err := l.Pattern(ctx, "alice")
	require.NoError(t, err)
	assert.InDelta(t, 4.0, pattern.HourlyAverages[4], 1e-9)
	assert.InDelta(t, 4.0, pattern.HourlyAverages[5], 1e-9)
	assert.Len(t, pattern.HourlyAverages, 2, "only the configured band's hours update")
}

func TestRecordObservedPreference_DayOfWeekOnly(t *testing.T) {
	l := newTestLearner(t)
	ctx := context.Background()

	monday := time.Monday
	err := l.RecordObservedPreference(ctx, "alice", Observation{
		DayOfWeek: &monday,
		Level:     "low",
	})
	require.NoError(t, err)

	pattern, err := l.Pattern(ctx, "alice")
	require.NoError(t, err)
	assert.InDelta(t, 2.0, pattern.DayOfWeekAverages[time.Monday], 1e-9)
	assert.Empty(t, pattern.HourlyAverages)
}

func TestRecordObservedPreference_UnknownBand(t *testing.T) {
	l := newTestLearner(t)
	ctx := context.Background()

	err := l.RecordObservedPreference(ctx, "alice", Observation{TimeOfDay: "brunch", Level: "high"})
	require.NoError(t, err)

	pattern, err := l.Pattern(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, pattern.HourlyAverages, "unknown band updates no hours")
	assert.Equal(t, 1, pattern.DataPoints, "the observation still counts")
}

func TestDataPointsCountAllSources(t *testing.T) {
	l := newTestLearner(t)
	ctx := context.Background()

	_, err := l.RecordExplicitLog(ctx, "alice", 4, wednesdayAfternoon, "UTC", "", "")
	require.NoError(t, err)
	err = l.RecordObservedPreference(ctx, "alice", Observation{TimeOfDay: "evening", Level: "low"})
	require.NoError(t, err)
	_, err = l.RecordExplicitLog(ctx, "alice", 2, wednesdayAfternoon, "UTC", "", "focus")
	require.NoError(t, err)

	pattern, err := l.Pattern(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, pattern.DataPoints, "data points count every record call regardless of mix")
}

// patternFailDriver fails pattern writes on demand while letting log
// writes through, so the upsert error path is reachable in isolation.
type patternFailDriver struct {
	store.Driver
	failPattern bool
}

func (d *patternFailDriver) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if d.failPattern && strings.HasPrefix(key, "energy_pattern:") {
		return assert.AnError
	}
	return d.Driver.Set(ctx, key, value, ttl)
}

func TestRecordExplicitLog_FailedWriteNotObserved(t *testing.T) {
	p := &profile.Profile{Mode: "demo", Driver: "memory", LogTTLDays: 90, Timezone: "UTC"}
	driver := &patternFailDriver{Driver: memkv.NewDB()}
	s := store.New(driver, p)
	t.Cleanup(func() { _ = s.Close() })
	l := NewLearner(s, config.Default(), nil, nil)
	ctx := context.Background()

	_, err := l.RecordExplicitLog(ctx, "alice", 5, wednesdayAfternoon, "UTC", "", "")
	require.NoError(t, err)

	driver.failPattern = true
	_, err = l.RecordExplicitLog(ctx, "alice", 1, wednesdayAfternoon, "UTC", "", "")
	require.Error(t, err)

	// The failed update must be treated as not having happened: readers
	// see the last persisted state, not the discarded mutation.
	driver.failPattern = false
	pattern, err := l.Pattern(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, pattern.DataPoints)
	assert.InDelta(t, 5.0, pattern.HourlyAverages[14], 1e-9)
	assert.InDelta(t, 5.0, pattern.DayOfWeekAverages[time.Wednesday], 1e-9)
}

func TestPattern_LazyDefault(t *testing.T) {
	l := newTestLearner(t)

	pattern, err := l.Pattern(context.Background(), "nobody")
	require.NoError(t, err)
	require.NotNil(t, pattern)
	assert.Equal(t, "nobody", pattern.UserID)
	assert.Zero(t, pattern.DataPoints)
	assert.Empty(t, pattern.HourlyAverages)
}
