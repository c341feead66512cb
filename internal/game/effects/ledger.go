// Package effects is the effect ledger: at most one timed status per
// (player, effect type), stored durably and refreshed in place.
package effects

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/udisondev/brawlcore/internal/game/passive"
	"github.com/udisondev/brawlcore/internal/model"
)

var (
	ErrInvalidDuration = errors.New("effect duration must be positive")
	ErrInvalidValue    = errors.New("effect value must not be negative")
)

// Repository persists effect records.
//
// Upsert must apply the refresh rule atomically: when a live record with a
// positive interval is replaced, the stored NextTickAt is the earlier of the
// old and new values. Advance must only move NextTickAt if it still equals prev.
type Repository interface {
	Get(ctx context.Context, playerID string, typ model.EffectType) (*model.EffectRecord, error)
	ListByPlayer(ctx context.Context, playerID string, now time.Time) ([]*model.EffectRecord, error)
	Upsert(ctx context.Context, rec *model.EffectRecord, now time.Time) (*model.EffectRecord, error)
	Delete(ctx context.Context, playerID string, typ model.EffectType) (bool, error)
	DeleteTypes(ctx context.Context, playerID string, types []model.EffectType) ([]model.EffectType, error)
	Due(ctx context.Context, now time.Time) ([]*model.EffectRecord, error)
	Advance(ctx context.Context, key model.EffectKey, prev, next time.Time) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) ([]model.EffectKey, error)
}

// HookTrigger is the part of the passive dispatcher the ledger needs.
type HookTrigger interface {
	Trigger(ctx context.Context, event passive.Event, hc passive.HookContext) passive.Result
}

// Application describes one add-or-refresh request.
type Application struct {
	PlayerID string
	Type     model.EffectType
	Value    float64
	Duration time.Duration
	Interval time.Duration // 0 for non-ticking buffs
	SourceID string
	Metadata json.RawMessage
}

// Outcome reports what AddOrRefresh or TransferOnAttack did.
type Outcome struct {
	Applied   bool
	Blocked   bool
	BlockedBy string // passive id, or "immunity"
	Skipped   bool   // nothing to transfer, or the target already carries it
	Message   string
	Record    *model.EffectRecord
}

// Ledger owns every effect mutation outside the tick scheduler.
type Ledger struct {
	repo      Repository
	hooks     HookTrigger
	penalties map[model.EffectType]int
	now       func() time.Time
}

// NewLedger creates a ledger. penalties maps effect type → flat outgoing
// damage penalty suffered by carriers of that effect.
func NewLedger(repo Repository, hooks HookTrigger, penalties map[string]int, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	p := make(map[model.EffectType]int, len(penalties))
	for name, v := range penalties {
		p[model.EffectType(name)] = v
	}
	return &Ledger{repo: repo, hooks: hooks, penalties: p, now: now}
}

// Now returns the ledger clock.
func (l *Ledger) Now() time.Time {
	return l.now()
}

// Get returns the active record or nil.
func (l *Ledger) Get(ctx context.Context, playerID string, typ model.EffectType) (*model.EffectRecord, error) {
	rec, err := l.repo.Get(ctx, playerID, typ)
	if err != nil {
		return nil, fmt.Errorf("getting %s effect for %s: %w", typ, playerID, err)
	}
	if rec == nil || !rec.Active(l.now()) {
		return nil, nil
	}
	return rec, nil
}

// Has reports whether the player carries an active effect of typ.
func (l *Ledger) Has(ctx context.Context, playerID string, typ model.EffectType) (bool, error) {
	rec, err := l.Get(ctx, playerID, typ)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// List returns the player's active effects sorted by expiry.
func (l *Ledger) List(ctx context.Context, playerID string) ([]*model.EffectRecord, error) {
	recs, err := l.repo.ListByPlayer(ctx, playerID, l.now())
	if err != nil {
		return nil, fmt.Errorf("listing effects for %s: %w", playerID, err)
	}
	return recs, nil
}

// AddOrRefresh writes or refreshes an effect. The target's passive may
// block or rescale it; an active immunity blocks every negative effect.
func (l *Ledger) AddOrRefresh(ctx context.Context, app Application) (Outcome, error) {
	if _, err := model.ParseEffectType(string(app.Type)); err != nil {
		return Outcome{}, err
	}
	if app.Duration <= 0 {
		return Outcome{}, ErrInvalidDuration
	}
	if app.Value < 0 {
		return Outcome{}, ErrInvalidValue
	}

	if app.Type.IsNegative() {
		immune, err := l.Has(ctx, app.PlayerID, model.EffectImmunity)
		if err != nil {
			return Outcome{}, err
		}
		if immune {
			return Outcome{Blocked: true, BlockedBy: string(model.EffectImmunity)}, nil
		}
	}

	res := l.hooks.Trigger(ctx, passive.BeforeEffectApply, passive.HookContext{
		ActorID:     app.PlayerID,
		AttackerID:  app.SourceID,
		TargetID:    app.PlayerID,
		EffectType:  app.Type,
		EffectValue: app.Value,
	})
	if res.Block {
		return Outcome{Blocked: true, BlockedBy: res.Source, Message: res.Message}, nil
	}

	now := l.now()
	rec := &model.EffectRecord{
		PlayerID:  app.PlayerID,
		Type:      app.Type,
		Value:     app.Value * res.RescaleFactor(),
		Interval:  app.Interval,
		ExpiresAt: now.Add(app.Duration),
		SourceID:  app.SourceID,
		Metadata:  app.Metadata,
		CreatedAt: now,
	}
	rec.NextTickAt = rec.ExpiresAt
	if app.Interval > 0 {
		rec.NextTickAt = now.Add(app.Interval)
	}

	stored, err := l.repo.Upsert(ctx, rec, now)
	if err != nil {
		return Outcome{}, fmt.Errorf("writing %s effect for %s: %w", app.Type, app.PlayerID, err)
	}

	slog.Debug("effect applied",
		"player", app.PlayerID,
		"effect", app.Type,
		"value", stored.Value,
		"expires_at", stored.ExpiresAt,
		"source", app.SourceID)

	return Outcome{Applied: true, Record: stored, Message: res.Message}, nil
}

// Remove deletes one effect. Returns true if it existed.
func (l *Ledger) Remove(ctx context.Context, playerID string, typ model.EffectType) (bool, error) {
	ok, err := l.repo.Delete(ctx, playerID, typ)
	if err != nil {
		return false, fmt.Errorf("removing %s effect for %s: %w", typ, playerID, err)
	}
	return ok, nil
}

// RemoveTypes deletes the listed effect types and returns those removed.
func (l *Ledger) RemoveTypes(ctx context.Context, playerID string, types ...model.EffectType) ([]model.EffectType, error) {
	if len(types) == 0 {
		return nil, nil
	}
	removed, err := l.repo.DeleteTypes(ctx, playerID, types)
	if err != nil {
		return nil, fmt.Errorf("removing effects for %s: %w", playerID, err)
	}
	return removed, nil
}

// RemoveNegative cleanses every debuff.
func (l *Ledger) RemoveNegative(ctx context.Context, playerID string) ([]model.EffectType, error) {
	return l.RemoveTypes(ctx, playerID, model.NegativeEffectTypes()...)
}

// PurgeAll strips every effect, positive or negative (knockout).
func (l *Ledger) PurgeAll(ctx context.Context, playerID string) ([]model.EffectType, error) {
	removed, err := l.repo.DeleteTypes(ctx, playerID, nil)
	if err != nil {
		return nil, fmt.Errorf("purging effects for %s: %w", playerID, err)
	}
	return removed, nil
}

// TransferOnAttack copies the attacker's active effect of typ onto target
// with the attacker's remaining duration. The attacker keeps it. Skipped
// when the attacker does not carry it or the target already does.
func (l *Ledger) TransferOnAttack(ctx context.Context, attackerID, targetID string, typ model.EffectType) (Outcome, error) {
	src, err := l.Get(ctx, attackerID, typ)
	if err != nil {
		return Outcome{}, err
	}
	if src == nil {
		return Outcome{Skipped: true}, nil
	}
	has, err := l.Has(ctx, targetID, typ)
	if err != nil {
		return Outcome{}, err
	}
	if has {
		return Outcome{Skipped: true}, nil
	}

	remaining := src.Remaining(l.now())
	if remaining <= 0 {
		return Outcome{Skipped: true}, nil
	}

	return l.AddOrRefresh(ctx, Application{
		PlayerID: targetID,
		Type:     typ,
		Value:    src.Value,
		Duration: remaining,
		Interval: src.Interval,
		SourceID: attackerID,
		Metadata: withMeta(src.Metadata, "spread_from", attackerID),
	})
}

// Due returns records whose tick is due at now.
func (l *Ledger) Due(ctx context.Context, now time.Time) ([]*model.EffectRecord, error) {
	recs, err := l.repo.Due(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("selecting due effects: %w", err)
	}
	return recs, nil
}

// Advance moves rec's next tick to next. Returns false if another pass already did.
func (l *Ledger) Advance(ctx context.Context, rec *model.EffectRecord, next time.Time) (bool, error) {
	ok, err := l.repo.Advance(ctx, rec.Key(), rec.NextTickAt, next)
	if err != nil {
		return false, fmt.Errorf("advancing %s effect for %s: %w", rec.Type, rec.PlayerID, err)
	}
	return ok, nil
}

// PurgeExpired deletes every record expired at now.
func (l *Ledger) PurgeExpired(ctx context.Context, now time.Time) ([]model.EffectKey, error) {
	keys, err := l.repo.PurgeExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("purging expired effects: %w", err)
	}
	return keys, nil
}

// withMeta returns raw with key set to value. Invalid or empty metadata
// is replaced by a fresh object.
func withMeta(raw json.RawMessage, key, value string) json.RawMessage {
	m := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &m); err != nil {
			m = map[string]any{}
		}
	}
	m[key] = value
	out, err := json.Marshal(m)
	if err != nil {
		return raw
	}
	return out
}
