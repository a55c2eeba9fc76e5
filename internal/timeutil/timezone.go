// Package timeutil provides timezone resolution shared across the
// engine.
package timeutil

import (
	"log/slog"
	"sync"
	"time"

	"github.com/hrygo/cadence/internal/profile"
)

// timezoneCache caches parsed timezone locations for performance.
var timezoneCache = struct {
	locations map[string]*time.Location
	mu        sync.RWMutex
}{
	locations: make(map[string]*time.Location),
}

// Location resolves an IANA timezone name, falling back to the fixed
// default when empty and to UTC when the name cannot be loaded.
func Location(timezone string) *time.Location {
	if timezone == "" {
		timezone = profile.DefaultTimezone
	}

	timezoneCache.mu.RLock()
	loc, ok := timezoneCache.locations[timezone]
	timezoneCache.mu.RUnlock()

	if ok {
		return loc
	}

	timezoneCache.mu.Lock()
	defer timezoneCache.mu.Unlock()

	// Double-check after acquiring write lock
	if loc, ok := timezoneCache.locations[timezone]; ok {
		return loc
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		slog.Warn("failed to load timezone, using UTC", "timezone", timezone, "error", err)
		loc = time.UTC
	}

	timezoneCache.locations[timezone] = loc
	return loc
}
