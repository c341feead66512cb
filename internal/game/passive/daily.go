package passive

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// CounterStore persists per-day usage counters.
// Consume must be atomic: concurrent calls never exceed limit for one day.
type CounterStore interface {
	Consume(ctx context.Context, playerID, name string, day time.Time, limit int) (bool, error)
	Count(ctx context.Context, playerID, name string, day time.Time) (int, error)
	// Release undoes one Consume for day.
	Release(ctx context.Context, playerID, name string, day time.Time) error
}

// DailyCounters implements "N times per local day" limits for passives.
type DailyCounters struct {
	store CounterStore
	loc   *time.Location
	now   func() time.Time
}

// NewDailyCounters creates counters whose day boundary is midnight in loc.
func NewDailyCounters(store CounterStore, loc *time.Location, now func() time.Time) *DailyCounters {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &DailyCounters{store: store, loc: loc, now: now}
}

// Today returns the current local day.
func (d *DailyCounters) Today() time.Time {
	if d == nil {
		return time.Now()
	}
	return d.now().In(d.loc)
}

// Claim consumes one use of name for today and reports whether it was
// still available.
func (d *DailyCounters) Claim(ctx context.Context, playerID, name string, limit int) (bool, error) {
	return d.ClaimOn(ctx, playerID, name, d.Today(), limit)
}

// ClaimOn is Claim for an explicit local day.
func (d *DailyCounters) ClaimOn(ctx context.Context, playerID, name string, day time.Time, limit int) (bool, error) {
	if d == nil || limit <= 0 {
		return false, nil
	}
	ok, err := d.store.Consume(ctx, playerID, name, day, limit)
	if err != nil {
		return false, fmt.Errorf("consuming %s for %s: %w", name, playerID, err)
	}
	return ok, nil
}

// Release gives back a use taken by Claim on day.
func (d *DailyCounters) Release(ctx context.Context, playerID, name string, day time.Time) error {
	if d == nil {
		return nil
	}
	if err := d.store.Release(ctx, playerID, name, day); err != nil {
		return fmt.Errorf("releasing %s for %s: %w", name, playerID, err)
	}
	return nil
}

// TryUse is Claim for hooks: a store failure counts as "limit reached".
func (d *DailyCounters) TryUse(ctx context.Context, playerID, name string, limit int) bool {
	ok, err := d.Claim(ctx, playerID, name, limit)
	if err != nil {
		slog.Warn("daily counter consume failed",
			"player", playerID,
			"counter", name,
			"error", err)
		return false
	}
	return ok
}

// Used returns how many times name was used today.
func (d *DailyCounters) Used(ctx context.Context, playerID, name string) (int, error) {
	if d == nil {
		return 0, nil
	}
	return d.store.Count(ctx, playerID, name, d.Today())
}
