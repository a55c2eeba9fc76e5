// Package memkv implements the store driver in process memory. It
// backs demo mode and tests; nothing survives a restart.
package memkv

import (
	"context"
	"sync"
	"time"

	"github.com/hrygo/cadence/store"
)

type item struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

type DB struct {
	mu    sync.RWMutex
	items map[string]item
}

// NewDB creates an empty in-memory driver.
func NewDB() store.Driver {
	return &DB{items: make(map[string]item)}
}

func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items = make(map[string]item)
	return nil
}

func (d *DB) Get(_ context.Context, key string) (string, bool, error) {
	d.mu.RLock()
	it, ok := d.items[key]
	d.mu.RUnlock()

	if !ok {
		return "", false, nil
	}
	if !it.expiresAt.IsZero() && !time.Now().Before(it.expiresAt) {
		d.mu.Lock()
		delete(d.items, key)
		d.mu.Unlock()
		return "", false, nil
	}
	return it.value, true, nil
}

func (d *DB) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	it := item{value: value}
	if ttl > 0 {
		it.expiresAt = time.Now().Add(ttl)
	}

	d.mu.Lock()
	d.items[key] = it
	d.mu.Unlock()
	return nil
}
