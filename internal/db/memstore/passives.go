package memstore

import (
	"context"
	"sync"
	"time"
)

// Equip stores equipped passive ids.
type Equip struct {
	mu       sync.RWMutex
	equipped map[string]string
}

// NewEquip creates an empty equip store.
func NewEquip() *Equip {
	return &Equip{equipped: make(map[string]string)}
}

func (e *Equip) EquippedPassive(_ context.Context, playerID string) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.equipped[playerID], nil
}

func (e *Equip) Equip(_ context.Context, playerID, passiveID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.equipped[playerID] = passiveID
	return nil
}

func (e *Equip) Unequip(_ context.Context, playerID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.equipped, playerID)
	return nil
}

type counterKey struct {
	playerID string
	name     string
}

type counter struct {
	day   string
	count int
}

// Counters stores per-day passive usage counters.
type Counters struct {
	mu   sync.Mutex
	rows map[counterKey]counter
}

// NewCounters creates an empty counter store.
func NewCounters() *Counters {
	return &Counters{rows: make(map[counterKey]counter)}
}

// Consume increments the counter if it is below limit for day. A new day resets it.
func (c *Counters) Consume(_ context.Context, playerID, name string, day time.Time, limit int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := counterKey{playerID: playerID, name: name}
	d := day.Format(time.DateOnly)
	cur, ok := c.rows[k]
	if !ok || cur.day != d {
		c.rows[k] = counter{day: d, count: 1}
		return true, nil
	}
	if cur.count >= limit {
		return false, nil
	}
	cur.count++
	c.rows[k] = cur
	return true, nil
}

// Release returns one use taken for day. A counter for another day is left alone.
func (c *Counters) Release(_ context.Context, playerID, name string, day time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := counterKey{playerID: playerID, name: name}
	cur, ok := c.rows[k]
	if !ok || cur.day != day.Format(time.DateOnly) || cur.count == 0 {
		return nil
	}
	cur.count--
	c.rows[k] = cur
	return nil
}

func (c *Counters) Count(_ context.Context, playerID, name string, day time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.rows[counterKey{playerID: playerID, name: name}]
	if !ok || cur.day != day.Format(time.DateOnly) {
		return 0, nil
	}
	return cur.count, nil
}
