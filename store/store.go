// Package store provides persistence for the scheduling engine's records.
//
// All state lives in an external key-value store addressed per user.
// Records are flat JSON documents; an absent key means "default empty
// state", never an error. Mutations follow read-entire-record,
// mutate-in-memory, write-entire-record with no optimistic concurrency:
// the upstream front-end processes a user's turns sequentially, and
// concurrent writes to one user's records are last-writer-wins.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/hrygo/cadence/internal/profile"
	"github.com/hrygo/cadence/store/cache"
)

// Driver is the raw persistence collaborator: a namespaced key-value
// store with optional per-key expiry.
type Driver interface {
	// Get returns the value for key. The second result is false when the
	// key is absent or expired.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key. A positive ttl makes the key expire;
	// zero means no expiry.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	Close() error
}

// Store provides typed access to all engine records.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// Read-through caches for per-user records. Short TTL: a stale read
	// only makes scoring see a slightly older pattern.
	patternCache *cache.LRU[string, *EnergyPattern]
	blockCache   *cache.LRU[string, []*ActivityBlock]
}

// New creates a new instance of Store.
func New(driver Driver, p *profile.Profile) *Store {
	return &Store{
		driver:       driver,
		profile:      p,
		patternCache: cache.New[string, *EnergyPattern](1000, time.Minute),
		blockCache:   cache.New[string, []*ActivityBlock](1000, time.Minute),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	s.patternCache.Clear()
	s.blockCache.Clear()
	return s.driver.Close()
}

// Key layout: one namespace per entity type, one record per user,
// except energy logs which get one key per log.
func patternKey(userID string) string {
	return fmt.Sprintf("energy_pattern:%s", userID)
}

func blocksKey(userID string) string {
	return fmt.Sprintf("activity_blocks:%s", userID)
}

func energyLogKey(userID, logID string) string {
	return fmt.Sprintf("energy_log:%s:%s", userID, logID)
}
