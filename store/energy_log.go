package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// EnergyLog is an immutable explicit self-report of energy level.
// Logs are retained with a finite TTL and never mutated; the engine
// folds them into the user's EnergyPattern at write time and does not
// read them back.
type EnergyLog struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	// CreatedTs is the observation time, unix seconds.
	CreatedTs int64 `json:"created_ts"`
	// Level is the self-reported energy, 1-5.
	Level   int    `json:"level"`
	Context string `json:"context,omitempty"`
	BlockID string `json:"block_id,omitempty"`
}

// CreateEnergyLog persists a new log with the profile's retention TTL.
// A missing ID is assigned; a zero CreatedTs defaults to now.
func (s *Store) CreateEnergyLog(ctx context.Context, create *EnergyLog) (*EnergyLog, error) {
	if create == nil || create.UserID == "" {
		return nil, errors.New("energy log requires a user id")
	}
	if create.Level < 1 || create.Level > 5 {
		return nil, errors.Errorf("energy level out of range: %d", create.Level)
	}
	if create.ID == "" {
		create.ID = uuid.NewString()
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}

	raw, err := json.Marshal(create)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode energy log")
	}

	ttl := time.Duration(s.profile.LogTTLDays) * 24 * time.Hour
	key := energyLogKey(create.UserID, create.ID)
	if err := s.driver.Set(ctx, key, string(raw), ttl); err != nil {
		return nil, errors.Wrapf(err, "failed to persist energy log %s", create.ID)
	}

	return create, nil
}

// GetEnergyLog returns a log by ID, or (nil, nil) when absent or expired.
func (s *Store) GetEnergyLog(ctx context.Context, userID, logID string) (*EnergyLog, error) {
	raw, found, err := s.driver.Get(ctx, energyLogKey(userID, logID))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get energy log %s", logID)
	}
	if !found {
		return nil, nil
	}

	log := &EnergyLog{}
	if err := json.Unmarshal([]byte(raw), log); err != nil {
		return nil, errors.Wrapf(err, "failed to decode energy log %s", logID)
	}
	return log, nil
}
