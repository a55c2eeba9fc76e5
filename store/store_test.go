package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/cadence/internal/profile"
)

// fakeDriver is an in-memory Driver for store tests.
type fakeDriver struct {
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		values: make(map[string]string),
		ttls:   make(map[string]time.Duration),
	}
}

func (d *fakeDriver) Get(_ context.Context, key string) (string, bool, error) {
	if d.getErr != nil {
		return "", false, d.getErr
	}
	v, ok := d.values[key]
	return v, ok, nil
}

func (d *fakeDriver) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if d.setErr != nil {
		return d.setErr
	}
	d.values[key] = value
	d.ttls[key] = ttl
	return nil
}

func (d *fakeDriver) Close() error { return nil }

func newTestStore(t *testing.T) (*Store, *fakeDriver) {
	t.Helper()
	driver := newFakeDriver()
	p := &profile.Profile{Mode: "demo", Driver: "memory", LogTTLDays: 90}
	return New(driver, p), driver
}

func TestGetEnergyPattern_Absent(t *testing.T) {
	s, _ := newTestStore(t)

	pattern, err := s.GetEnergyPattern(context.Background(), "alice")
	require.NoError(t, err)
	assert.Nil(t, pattern, "absent key means no pattern, not an error")
}

func TestUpsertEnergyPattern_Roundtrip(t *testing.T) {
	s, driver := newTestStore(t)
	ctx := context.Background()

	pattern := NewEnergyPattern("alice")
	pattern.HourlyAverages[9] = 4.2
	pattern.DayOfWeekAverages[time.Wednesday] = 3.5
	pattern.BlockAverages["focus"] = 4.0
	pattern.DataPoints = 7

	require.NoError(t, s.UpsertEnergyPattern(ctx, pattern))
	assert.NotZero(t, pattern.UpdatedTs)

	// Bypass the read cache to prove the record itself roundtrips.
	s.patternCache.Clear()
	got, err := s.GetEnergyPattern(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 4.2, got.HourlyAverages[9], 1e-9)
	assert.InDelta(t, 3.5, got.DayOfWeekAverages[time.Wednesday], 1e-9)
	assert.InDelta(t, 4.0, got.BlockAverages["focus"], 1e-9)
	assert.Equal(t, 7, got.DataPoints)

	// Patterns persist without TTL.
	assert.Equal(t, time.Duration(0), driver.ttls["energy_pattern:alice"])
}

func TestUpsertEnergyPattern_RequiresUserID(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.UpsertEnergyPattern(context.Background(), NewEnergyPattern(""))
	assert.Error(t, err)
}

func TestGetEnergyPattern_BackfillsMaps(t *testing.T) {
	s, driver := newTestStore(t)
	driver.values["energy_pattern:bob"] = `{"user_id":"bob","data_points":2}`

	got, err := s.GetEnergyPattern(context.Background(), "bob")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotNil(t, got.HourlyAverages)
	assert.NotNil(t, got.DayOfWeekAverages)
	assert.NotNil(t, got.BlockAverages)
	assert.NotNil(t, got.TaskTypeSuccessRates)
}

func TestCreateEnergyLog(t *testing.T) {
	s, driver := newTestStore(t)
	ctx := context.Background()

	log, err := s.CreateEnergyLog(ctx, &EnergyLog{UserID: "alice", Level: 4, Context: "after coffee"})
	require.NoError(t, err)
	assert.NotEmpty(t, log.ID)
	assert.NotZero(t, log.CreatedTs)

	key := "energy_log:alice:" + log.ID
	assert.Contains(t, driver.values, key)
	assert.Equal(t, 90*24*time.Hour, driver.ttls[key], "logs carry the retention TTL")

	got, err := s.GetEnergyLog(ctx, "alice", log.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 4, got.Level)
	assert.Equal(t, "after coffee", got.Context)
}

func TestCreateEnergyLog_RejectsBadLevel(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, level := range []int{0, 6, -1} {
		_, err := s.CreateEnergyLog(ctx, &EnergyLog{UserID: "alice", Level: level})
		assert.Error(t, err, "level %d should be rejected", level)
	}
}

func TestActivityBlockCatalog(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	blocks, err := s.ListActivityBlocks(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, blocks)

	focus := &ActivityBlock{
		ID: "focus", UserID: "alice", Name: "Focus Time",
		StartTime: "09:00", EndTime: "12:00",
		Days:          []time.Weekday{time.Monday, time.Tuesday},
		EnergyProfile: EnergyProfileHigh,
		FlexLevel:     FlexLevelFixed,
		Status:        BlockStatusActive,
	}
	_, err = s.UpsertActivityBlock(ctx, focus)
	require.NoError(t, err)
	assert.NotZero(t, focus.CreatedTs)

	// Update keeps creation time and replaces in place.
	created := focus.CreatedTs
	updated := *focus
	updated.Name = "Deep Work"
	_, err = s.UpsertActivityBlock(ctx, &updated)
	require.NoError(t, err)
	assert.Equal(t, created, updated.CreatedTs)

	blocks, err = s.ListActivityBlocks(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "Deep Work", blocks[0].Name)

	require.NoError(t, s.DeleteActivityBlock(ctx, "alice", "focus"))
	blocks, err = s.ListActivityBlocks(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, blocks)

	// Deleting an unknown block is a no-op.
	assert.NoError(t, s.DeleteActivityBlock(ctx, "alice", "nope"))
}

func TestUpsertEnergyPattern_FailedWriteNotObserved(t *testing.T) {
	s, driver := newTestStore(t)
	ctx := context.Background()

	pattern := NewEnergyPattern("alice")
	pattern.HourlyAverages[9] = 5
	pattern.DataPoints = 1
	require.NoError(t, s.UpsertEnergyPattern(ctx, pattern))

	// Mutate the shared cached record the way a learning update does,
	// then fail the write: the mutation must be treated as not having
	// happened.
	cached, err := s.GetEnergyPattern(ctx, "alice")
	require.NoError(t, err)
	cached.HourlyAverages[9] = 4.6
	cached.DataPoints = 2

	driver.setErr = assert.AnError
	require.Error(t, s.UpsertEnergyPattern(ctx, cached))

	driver.setErr = nil
	got, err := s.GetEnergyPattern(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, got.DataPoints, "failed write must not leak through the cache")
	assert.InDelta(t, 5.0, got.HourlyAverages[9], 1e-9)
}

func TestUpsertActivityBlock_FailedWriteNotObserved(t *testing.T) {
	s, driver := newTestStore(t)
	ctx := context.Background()

	focus := &ActivityBlock{
		ID: "focus", UserID: "alice", Name: "Focus Time",
		StartTime: "09:00", EndTime: "12:00",
		Days:          []time.Weekday{time.Monday},
		EnergyProfile: EnergyProfileHigh,
		FlexLevel:     FlexLevelFixed,
		Status:        BlockStatusActive,
	}
	_, err := s.UpsertActivityBlock(ctx, focus)
	require.NoError(t, err)

	driver.setErr = assert.AnError
	update := *focus
	update.Name = "Deep Work"
	_, err = s.UpsertActivityBlock(ctx, &update)
	require.Error(t, err)

	driver.setErr = nil
	blocks, err := s.ListActivityBlocks(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "Focus Time", blocks[0].Name, "failed write must not leak through the cache")
}

func TestStoreFailuresSurface(t *testing.T) {
	s, driver := newTestStore(t)
	ctx := context.Background()

	driver.getErr = assert.AnError
	_, err := s.GetEnergyPattern(ctx, "alice")
	assert.Error(t, err)

	driver.getErr = nil
	driver.setErr = assert.AnError
	err = s.UpsertEnergyPattern(ctx, NewEnergyPattern("alice"))
	assert.Error(t, err)
}
