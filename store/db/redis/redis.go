// Package redis implements the store driver on a redis server. The
// engine's get/set-with-expiry contract maps directly onto GET and SET
// with EX, so records live in redis exactly as their JSON documents.
package redis

import (
	"context"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/hrygo/cadence/internal/profile"
	"github.com/hrygo/cadence/store"
)

type DB struct {
	rdb     *goredis.Client
	profile *profile.Profile
}

// NewDB connects to the redis server at the profile's address and
// verifies the connection with a ping.
func NewDB(p *profile.Profile) (store.Driver, error) {
	if p.RedisAddr == "" {
		return nil, errors.New("redis addr required")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        p.RedisAddr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "redis ping")
	}

	return &DB{rdb: rdb, profile: p}, nil
}

func (d *DB) Close() error {
	return d.rdb.Close()
}

func (d *DB) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := d.rdb.Get(ctx, key).Result()
	if err == goredis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to get key %s", key)
	}
	return value, true, nil
}

func (d *DB) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := d.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to set key %s", key)
	}
	return nil
}
