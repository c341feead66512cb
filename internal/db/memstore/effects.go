package memstore

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/udisondev/brawlcore/internal/model"
)

// Effects is an in-memory effect ledger repository.
type Effects struct {
	mu   sync.Mutex
	rows map[model.EffectKey]*model.EffectRecord
}

// NewEffects creates an empty effect repository.
func NewEffects() *Effects {
	return &Effects{rows: make(map[model.EffectKey]*model.EffectRecord)}
}

func (e *Effects) Get(_ context.Context, playerID string, typ model.EffectType) (*model.EffectRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.rows[model.EffectKey{PlayerID: playerID, Type: typ}]
	if !ok {
		return nil, nil
	}
	return rec.Clone(), nil
}

func (e *Effects) ListByPlayer(_ context.Context, playerID string, now time.Time) ([]*model.EffectRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []*model.EffectRecord
	for k, rec := range e.rows {
		if k.PlayerID == playerID && rec.Active(now) {
			out = append(out, rec.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *model.EffectRecord) int {
		if c := a.ExpiresAt.Compare(b.ExpiresAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Type, b.Type)
	})
	return out, nil
}

// Upsert mirrors the PostgreSQL refresh rule: a live ticking record keeps
// the earlier of its current and the new next tick.
func (e *Effects) Upsert(_ context.Context, rec *model.EffectRecord, now time.Time) (*model.EffectRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := rec.Clone()
	if cur, ok := e.rows[rec.Key()]; ok && cur.Active(now) {
		if cur.Interval > 0 && cur.NextTickAt.Before(next.NextTickAt) {
			next.NextTickAt = cur.NextTickAt
		}
		next.CreatedAt = cur.CreatedAt
	}
	e.rows[rec.Key()] = next
	return next.Clone(), nil
}

func (e *Effects) Delete(_ context.Context, playerID string, typ model.EffectType) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	k := model.EffectKey{PlayerID: playerID, Type: typ}
	_, ok := e.rows[k]
	delete(e.rows, k)
	return ok, nil
}

// DeleteTypes removes the listed types (nil means all) and returns what was removed.
func (e *Effects) DeleteTypes(_ context.Context, playerID string, types []model.EffectType) ([]model.EffectType, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var removed []model.EffectType
	for k := range e.rows {
		if k.PlayerID != playerID {
			continue
		}
		if types != nil && !slices.Contains(types, k.Type) {
			continue
		}
		delete(e.rows, k)
		removed = append(removed, k.Type)
	}
	slices.Sort(removed)
	return removed, nil
}

func (e *Effects) Due(_ context.Context, now time.Time) ([]*model.EffectRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []*model.EffectRecord
	for _, rec := range e.rows {
		if rec.Due(now) {
			out = append(out, rec.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *model.EffectRecord) int {
		if c := cmp.Compare(a.PlayerID, b.PlayerID); c != 0 {
			return c
		}
		return cmp.Compare(a.Type, b.Type)
	})
	return out, nil
}

// Advance moves NextTickAt from prev to next; false if someone else already moved it.
func (e *Effects) Advance(_ context.Context, key model.EffectKey, prev, next time.Time) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.rows[key]
	if !ok || !rec.NextTickAt.Equal(prev) {
		return false, nil
	}
	rec.NextTickAt = next
	return true, nil
}

func (e *Effects) PurgeExpired(_ context.Context, now time.Time) ([]model.EffectKey, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var keys []model.EffectKey
	for k, rec := range e.rows {
		if !rec.Active(now) {
			delete(e.rows, k)
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, func(a, b model.EffectKey) int {
		if c := cmp.Compare(a.PlayerID, b.PlayerID); c != 0 {
			return c
		}
		return cmp.Compare(a.Type, b.Type)
	})
	return keys, nil
}
