// Package db selects a store driver from the runtime profile.
package db

import (
	"github.com/pkg/errors"

	"github.com/hrygo/cadence/internal/profile"
	"github.com/hrygo/cadence/store"
	"github.com/hrygo/cadence/store/db/memkv"
	"github.com/hrygo/cadence/store/db/redis"
	"github.com/hrygo/cadence/store/db/sqlite"
)

// NewDBDriver creates the driver named by the profile.
func NewDBDriver(p *profile.Profile) (store.Driver, error) {
	switch p.Driver {
	case "sqlite":
		return sqlite.NewDB(p)
	case "redis":
		return redis.NewDB(p)
	case "memory":
		return memkv.NewDB(), nil
	default:
		return nil, errors.Errorf("unknown db driver: %s", p.Driver)
	}
}
