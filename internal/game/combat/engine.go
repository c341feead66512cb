// Package combat resolves player actions: attacks, heals, status
// applications and item use. Each action runs under the acting player's
// lock and writes through the stat store and effect ledger one atomic call
// at a time.
package combat

import (
	"context"
	"encoding/json"
	"math"
	"math/rand/v2"
	"time"

	"github.com/udisondev/brawlcore/internal/config"
	"github.com/udisondev/brawlcore/internal/data"
	"github.com/udisondev/brawlcore/internal/game/effects"
	"github.com/udisondev/brawlcore/internal/game/inventory"
	"github.com/udisondev/brawlcore/internal/game/passive"
	"github.com/udisondev/brawlcore/internal/model"
)

// Stats is the stat store API the engine writes through.
type Stats interface {
	Get(ctx context.Context, playerID string) (*model.PlayerStats, error)
	DealDamage(ctx context.Context, attackerID, targetID string, amount int) (model.DamageResult, error)
	Heal(ctx context.Context, healerID, targetID string, amount int) (int, error)
	AddShield(ctx context.Context, playerID string, amount int) (int, error)
	ReviveFull(ctx context.Context, playerID string) (*model.PlayerStats, error)
}

// Ledger is the effect ledger API the engine writes through.
type Ledger interface {
	AddOrRefresh(ctx context.Context, app effects.Application) (effects.Outcome, error)
	Has(ctx context.Context, playerID string, typ model.EffectType) (bool, error)
	Modifiers(ctx context.Context, playerID string) (effects.Modifiers, error)
	TransferOnAttack(ctx context.Context, attackerID, targetID string, typ model.EffectType) (effects.Outcome, error)
	RemoveNegative(ctx context.Context, playerID string) ([]model.EffectType, error)
	RemoveTypes(ctx context.Context, playerID string, types ...model.EffectType) ([]model.EffectType, error)
	PurgeAll(ctx context.Context, playerID string) ([]model.EffectType, error)
}

// Hooks is the passive dispatcher.
type Hooks interface {
	Trigger(ctx context.Context, event passive.Event, hc passive.HookContext) passive.Result
}

// Deps wires an Engine. Wallet may be nil (coin rewards are dropped).
type Deps struct {
	Stats     Stats
	Ledger    Ledger
	Hooks     Hooks
	Items     *data.Catalog
	Inventory inventory.Store
	Wallet    inventory.Wallet
	Cooldowns *CooldownTracker
	Locks     *PlayerLocks
	Config    config.Combat
	Now       func() time.Time
	Rand      func() float64
}

// Engine is the combat resolution pipeline.
type Engine struct {
	stats     Stats
	ledger    Ledger
	hooks     Hooks
	items     *data.Catalog
	inv       inventory.Store
	wallet    inventory.Wallet
	cooldowns *CooldownTracker
	locks     *PlayerLocks
	cfg       config.Combat
	now       func() time.Time
	rand      func() float64
}

// NewEngine creates an Engine. Missing clock, rng, cooldown tracker and
// lock table are replaced by defaults.
func NewEngine(d Deps) *Engine {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Rand == nil {
		d.Rand = rand.Float64
	}
	if d.Cooldowns == nil {
		d.Cooldowns = NewCooldownTracker(d.Config.AttackCooldown, d.Now)
	}
	if d.Locks == nil {
		d.Locks = NewPlayerLocks()
	}
	return &Engine{
		stats:     d.Stats,
		ledger:    d.Ledger,
		hooks:     d.Hooks,
		items:     d.Items,
		inv:       d.Inventory,
		wallet:    d.Wallet,
		cooldowns: d.Cooldowns,
		locks:     d.Locks,
		cfg:       d.Config,
		now:       d.Now,
		rand:      d.Rand,
	}
}

// Cooldowns exposes the attack cooldown tracker.
func (e *Engine) Cooldowns() *CooldownTracker {
	return e.cooldowns
}

// Item returns the catalog entry for id, or nil.
func (e *Engine) Item(id string) *data.Item {
	return e.items.Get(id)
}

// roll returns a uniform int in [lo, hi].
func (e *Engine) roll(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return min(lo+int(e.rand()*float64(hi-lo+1)), hi)
}

// chance rolls p. p >= 1 always succeeds without consuming the rng.
func (e *Engine) chance(p float64) bool {
	switch {
	case p <= 0:
		return false
	case p >= 1:
		return true
	default:
		return e.rand() < p
	}
}

func round(v float64) int {
	return int(math.Round(v))
}

func clampChance(v, limit float64) float64 {
	return math.Min(math.Max(v, 0), limit)
}

// lookupItem validates that itemID exists, is of kind and is held by playerID.
func (e *Engine) lookupItem(ctx context.Context, playerID, itemID string, kinds ...data.ItemKind) (*data.Item, error) {
	item := e.items.Get(itemID)
	if item == nil {
		return nil, invalid(ErrUnknownItem, "%q", itemID)
	}
	if len(kinds) > 0 {
		ok := false
		for _, k := range kinds {
			if item.Kind == k {
				ok = true
				break
			}
		}
		if !ok {
			return nil, invalid(ErrWrongItemKind, "%s is a %s item", item.ID, item.Kind)
		}
	}

	qty, err := e.inv.Quantity(ctx, playerID, item.ID)
	if err != nil {
		return nil, storeErr("checking inventory", err)
	}
	if qty < 1 {
		return nil, invalid(ErrInsufficientItems, "%s has no %s", playerID, item.ID)
	}
	return item, nil
}

// consumeItem removes one unit unless the owner's passive preserves it.
// Reports (consumed, preserved).
func (e *Engine) consumeItem(ctx context.Context, playerID string, item *data.Item) (bool, bool, error) {
	if item == nil {
		return false, false, nil
	}
	keep := e.hooks.Trigger(ctx, passive.OnItemConsume, passive.HookContext{
		ActorID: playerID,
		ItemID:  item.ID,
	})
	if keep.PreserveItem {
		return false, true, nil
	}
	if err := e.inv.Consume(ctx, playerID, item.ID, 1); err != nil {
		return false, false, storeErr("consuming item", err)
	}
	return true, false, nil
}

// reviveIfDead is the fail-safe for a target found at 0 HP.
func (e *Engine) reviveIfDead(ctx context.Context, playerID string) (*model.PlayerStats, bool, error) {
	row, err := e.stats.Get(ctx, playerID)
	if err != nil {
		return nil, false, storeErr("loading stats", err)
	}
	if !row.IsDead {
		return row, false, nil
	}
	row, err = e.stats.ReviveFull(ctx, playerID)
	if err != nil {
		return nil, false, storeErr("reviving", err)
	}
	return row, true, nil
}

func channelMeta(channelID string) json.RawMessage {
	if channelID == "" {
		return nil
	}
	raw, err := json.Marshal(map[string]string{"channel_id": channelID})
	if err != nil {
		return nil
	}
	return raw
}
