package passive

import "context"

const (
	aegisFlatReduction    = 5
	aegisHealShieldShare  = 0.20
	phantomDodgeBonus     = 0.15
	thornsCounterFraction = 0.30
	stoneskinHeavyHit     = 40
	stoneskinReduction    = 0.10
	guardianDailyUses     = 1
)

func init() {
	registerBuiltin(Passive{
		ID:          "aegis",
		Name:        "Aegis",
		Description: "Incoming hits lose 5 damage. Your heals also shield the target for 20% of the amount healed.",
		Hooks: map[Event]HookFunc{
			BeforeDamage: func(_ context.Context, _ Env, _ HookContext) Result {
				return Result{FlatReduction: aegisFlatReduction}
			},
			OnHeal: func(_ context.Context, _ Env, hc HookContext) Result {
				return Result{ShieldToTarget: int(float64(hc.Amount) * aegisHealShieldShare)}
			},
		},
	})

	registerBuiltin(Passive{
		ID:          "phantom",
		Name:        "Phantom",
		Description: "+15% dodge chance. Thieves cannot steal from you.",
		Hooks: map[Event]HookFunc{
			OnDefenseStats: func(_ context.Context, _ Env, _ HookContext) Result {
				return Result{DodgeBonus: phantomDodgeBonus}
			},
			OnTheftAttempt: func(_ context.Context, _ Env, _ HookContext) Result {
				return Result{Block: true, Message: "the phantom slips out of reach"}
			},
		},
	})

	registerBuiltin(Passive{
		ID:          "thorns",
		Name:        "Thorns",
		Description: "Attackers take 30% of the damage they deal back.",
		Hooks: map[Event]HookFunc{
			BeforeDamage: func(_ context.Context, _ Env, _ HookContext) Result {
				return Result{CounterFraction: thornsCounterFraction}
			},
		},
	})

	registerBuiltin(Passive{
		ID:          "stoneskin",
		Name:        "Stoneskin",
		Description: "Hits of 40 or more are halved. +10% damage reduction.",
		Hooks: map[Event]HookFunc{
			BeforeDamage: func(_ context.Context, _ Env, hc HookContext) Result {
				if hc.Damage < stoneskinHeavyHit {
					return Result{}
				}
				return Result{Halve: true}
			},
			OnDefenseStats: func(_ context.Context, _ Env, _ HookContext) Result {
				return Result{ReductionBonus: stoneskinReduction}
			},
		},
	})

	registerBuiltin(Passive{
		ID:          "guardian_angel",
		Name:        "Guardian Angel",
		Description: "Once per day, a hit that would knock you out is cancelled.",
		Hooks: map[Event]HookFunc{
			BeforeDamage: func(ctx context.Context, env Env, hc HookContext) Result {
				if hc.Damage < hc.TargetHP+hc.TargetShield {
					return Result{}
				}
				if !env.Daily.TryUse(ctx, hc.ActorID, "guardian_angel", guardianDailyUses) {
					return Result{}
				}
				return Result{Cancel: true, Message: "a guardian angel turns the blow aside"}
			},
		},
	})
}
