package passive

import (
	"context"
	"log/slog"
	"time"
)

// EquipLookup resolves the passive currently equipped by a player.
// An empty id means nothing is equipped.
type EquipLookup interface {
	EquippedPassive(ctx context.Context, playerID string) (string, error)
}

// Dispatcher routes events to the acting player's equipped passive.
// Trigger never fails: every problem degrades to an empty Result.
type Dispatcher struct {
	registry *Registry
	equip    EquipLookup
	env      Env
}

// NewDispatcher creates a dispatcher. A nil env.Now means time.Now.
func NewDispatcher(registry *Registry, equip EquipLookup, env Env) *Dispatcher {
	if env.Now == nil {
		env.Now = time.Now
	}
	return &Dispatcher{registry: registry, equip: equip, env: env}
}

// Env returns the environment passed to hooks.
func (d *Dispatcher) Env() Env {
	return d.env
}

// Trigger runs event for hc.ActorID and returns the hook's modifiers.
func (d *Dispatcher) Trigger(ctx context.Context, event Event, hc HookContext) (res Result) {
	event = NormalizeEvent(event)
	hc.Event = event
	if hc.ActorID == "" || !Known(event) {
		return Result{}
	}

	id, err := d.equip.EquippedPassive(ctx, hc.ActorID)
	if err != nil {
		slog.Warn("equipped passive lookup failed",
			"player", hc.ActorID,
			"event", event,
			"error", err)
		return Result{}
	}
	if id == "" {
		return Result{}
	}

	p, ok := d.registry.Get(id)
	if !ok {
		slog.Debug("unknown passive equipped", "player", hc.ActorID, "passive", id)
		return Result{}
	}
	hook, ok := p.Hooks[event]
	if !ok {
		return Result{}
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("passive hook panicked",
				"passive", id,
				"event", event,
				"player", hc.ActorID,
				"panic", r)
			res = Result{}
		}
	}()

	res = hook(ctx, d.env, hc)
	if res.Empty() {
		return Result{}
	}
	res.Source = p.ID

	slog.Debug("passive hook fired",
		"passive", p.ID,
		"event", event,
		"player", hc.ActorID)
	return res
}
