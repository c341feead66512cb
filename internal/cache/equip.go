// Package cache fronts hot durable lookups with Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/singleflight"
)

const equipKeyPrefix = "brawlcore:equip:"

// EquipStore is the durable equipped-passive store.
type EquipStore interface {
	EquippedPassive(ctx context.Context, playerID string) (string, error)
	Equip(ctx context.Context, playerID, passiveID string) error
	Unequip(ctx context.Context, playerID string) error
}

// EquipCache is a cache-aside layer over EquipStore. Concurrent misses for
// one player share a single store read. A nil Redis client disables the
// cache and leaves only the coalescing.
//
// A miss only writes back if no local invalidation happened since its store
// read. Writes made by other processes are bounded by ttl.
type EquipCache struct {
	store EquipStore
	rdb   *redis.Client
	ttl   time.Duration
	group singleflight.Group

	mu       sync.Mutex
	versions map[string]uint64
}

// NewEquipCache creates the cache. rdb may be nil.
func NewEquipCache(store EquipStore, rdb *redis.Client, ttl time.Duration) *EquipCache {
	return &EquipCache{store: store, rdb: rdb, ttl: ttl, versions: make(map[string]uint64)}
}

func (c *EquipCache) version(playerID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[playerID]
}

func equipKey(playerID string) string {
	return equipKeyPrefix + playerID
}

// EquippedPassive returns the passive id equipped by playerID, "" if none.
// Redis errors fall through to the store.
func (c *EquipCache) EquippedPassive(ctx context.Context, playerID string) (string, error) {
	if c.rdb != nil {
		val, err := c.rdb.Get(ctx, equipKey(playerID)).Result()
		switch {
		case err == nil:
			return val, nil
		case errors.Is(err, redis.Nil):
		default:
			slog.Warn("equip cache read failed", "player", playerID, "error", err)
		}
	}

	// The shared load outlives any single caller's cancellation.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(playerID, func() (any, error) {
		ver := c.version(playerID)
		id, err := c.store.EquippedPassive(loadCtx, playerID)
		if err != nil {
			return "", err
		}
		c.writeBack(loadCtx, playerID, id, ver)
		return id, nil
	})
	if err != nil {
		return "", fmt.Errorf("loading equipped passive for %s: %w", playerID, err)
	}
	return v.(string), nil
}

// Equip writes through to the store and drops the cached entry.
func (c *EquipCache) Equip(ctx context.Context, playerID, passiveID string) error {
	if err := c.store.Equip(ctx, playerID, passiveID); err != nil {
		return err
	}
	c.Invalidate(ctx, playerID)
	return nil
}

// Unequip writes through to the store and drops the cached entry.
func (c *EquipCache) Unequip(ctx context.Context, playerID string) error {
	if err := c.store.Unequip(ctx, playerID); err != nil {
		return err
	}
	c.Invalidate(ctx, playerID)
	return nil
}

// writeBack caches id unless playerID was invalidated after version ver was read.
func (c *EquipCache) writeBack(ctx context.Context, playerID, id string, ver uint64) {
	if c.rdb == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[playerID] != ver {
		return
	}
	if err := c.rdb.Set(ctx, equipKey(playerID), id, c.ttl).Err(); err != nil {
		slog.Warn("equip cache write failed", "player", playerID, "error", err)
	}
}

// Invalidate drops playerID's cached entry.
func (c *EquipCache) Invalidate(ctx context.Context, playerID string) {
	c.mu.Lock()
	c.versions[playerID]++
	c.mu.Unlock()

	c.group.Forget(playerID)
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, equipKey(playerID)).Err(); err != nil {
		slog.Warn("equip cache invalidate failed", "player", playerID, "error", err)
	}
}
