package passive

import "context"

const (
	berserkerMultiplier = 1.25
	berserkerKillBounty = 50
	vampireLifesteal    = 0.25
	marksmanCritBonus   = 0.10
)

func init() {
	registerBuiltin(Passive{
		ID:          "berserker",
		Name:        "Berserker",
		Description: "Your attacks deal 25% more damage. Knockouts pay 50 coins.",
		Hooks: map[Event]HookFunc{
			OnAttackPre: func(_ context.Context, _ Env, _ HookContext) Result {
				return Result{Multiplier: berserkerMultiplier}
			},
			OnKill: func(_ context.Context, _ Env, _ HookContext) Result {
				return Result{BonusCoins: berserkerKillBounty}
			},
		},
	})

	registerBuiltin(Passive{
		ID:          "vampire",
		Name:        "Vampire",
		Description: "Heal for 25% of the damage your attacks deal.",
		Hooks: map[Event]HookFunc{
			OnAttack: func(_ context.Context, _ Env, _ HookContext) Result {
				return Result{LifestealFraction: vampireLifesteal}
			},
		},
	})

	registerBuiltin(Passive{
		ID:          "marksman",
		Name:        "Marksman",
		Description: "+10% critical hit chance.",
		Hooks: map[Event]HookFunc{
			OnAttackPre: func(_ context.Context, _ Env, _ HookContext) Result {
				return Result{CritBonus: marksmanCritBonus}
			},
		},
	})
}
