package passive

import (
	"context"
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
	"time"
)

// Env carries the shared collaborators hook functions may use.
type Env struct {
	Now   func() time.Time
	Rand  func() float64
	Daily *DailyCounters
}

func (e Env) roll() float64 {
	if e.Rand == nil {
		return rand.Float64()
	}
	return e.Rand()
}

// HookFunc computes the modifiers of one passive for one event.
type HookFunc func(ctx context.Context, env Env, hc HookContext) Result

// Passive is one equippable passive ability.
type Passive struct {
	ID          string
	Name        string
	Description string
	Hooks       map[Event]HookFunc
}

// builtinPassives maps passive id → implementation.
// Populated by init() functions in the builtin_*.go files.
var builtinPassives = map[string]Passive{}

// registerBuiltin adds a builtin passive. Called from init().
func registerBuiltin(p Passive) {
	if _, dup := builtinPassives[p.ID]; dup {
		panic(fmt.Sprintf("passive %q registered twice", p.ID))
	}
	builtinPassives[p.ID] = normalize(p)
}

// normalize rekeys hooks by canonical event; hooks given under an alias and
// its canonical name are both run and merged.
func normalize(p Passive) Passive {
	hooks := make(map[Event]HookFunc, len(p.Hooks))
	for e, fn := range p.Hooks {
		e = NormalizeEvent(e)
		if prev, ok := hooks[e]; ok {
			first, second := prev, fn
			fn = func(ctx context.Context, env Env, hc HookContext) Result {
				return first(ctx, env, hc).Merge(second(ctx, env, hc))
			}
		}
		hooks[e] = fn
	}
	p.Hooks = hooks
	return p
}

// Registry is an immutable id → passive table.
type Registry struct {
	passives map[string]Passive
}

// NewRegistry returns a registry with every builtin passive plus extra.
// Extra passives override builtins with the same id.
func NewRegistry(extra ...Passive) *Registry {
	r := &Registry{passives: maps.Clone(builtinPassives)}
	for _, p := range extra {
		r.passives[p.ID] = normalize(p)
	}
	return r
}

// Get returns the passive with the given id.
func (r *Registry) Get(id string) (Passive, bool) {
	p, ok := r.passives[id]
	return p, ok
}

// IDs returns all registered passive ids, sorted.
func (r *Registry) IDs() []string {
	return slices.Sorted(maps.Keys(r.passives))
}
