package passive

import "context"

const (
	merchantCoinBonus     = 0.10
	merchantDailyBonus    = 100
	merchantExtraRolls    = 1
	quartermasterPreserve = 0.30
)

func init() {
	registerBuiltin(Passive{
		ID:          "merchant",
		Name:        "Merchant",
		Description: "+10% coins from every source, +100 on daily claims and an extra roll on boxes.",
		Hooks: map[Event]HookFunc{
			OnGainCoins: func(_ context.Context, _ Env, hc HookContext) Result {
				return Result{BonusCoins: int64(float64(hc.Coins) * merchantCoinBonus)}
			},
			OnDaily: func(_ context.Context, _ Env, _ HookContext) Result {
				return Result{BonusCoins: merchantDailyBonus}
			},
			OnBoxOpen: func(_ context.Context, _ Env, _ HookContext) Result {
				return Result{ExtraRolls: merchantExtraRolls}
			},
		},
	})

	registerBuiltin(Passive{
		ID:          "quartermaster",
		Name:        "Quartermaster",
		Description: "30% chance that a used item is not consumed.",
		Hooks: map[Event]HookFunc{
			OnItemConsume: func(_ context.Context, env Env, _ HookContext) Result {
				if env.roll() >= quartermasterPreserve {
					return Result{}
				}
				return Result{PreserveItem: true}
			},
		},
	})
}
