package passive

import (
	"context"

	"github.com/udisondev/brawlcore/internal/model"
)

const (
	medicBonusHeal        = 5
	medicHealerShield     = 5
	plagueDoctorBonusHeal = 10
	antibodyRescale       = 0.5
	alchemistRescale      = 1.5
	phoenixShield         = 25
)

func init() {
	registerBuiltin(Passive{
		ID:          "medic",
		Name:        "Medic",
		Description: "Your heals restore 5 more HP and give you 5 shield.",
		Hooks: map[Event]HookFunc{
			OnHealPre: func(_ context.Context, _ Env, _ HookContext) Result {
				return Result{BonusHeal: medicBonusHeal}
			},
			OnHeal: func(_ context.Context, _ Env, _ HookContext) Result {
				return Result{ShieldToHealer: medicHealerShield}
			},
		},
	})

	registerBuiltin(Passive{
		ID:          "plague_doctor",
		Name:        "Plague Doctor",
		Description: "Immune to poison, virus and infection. Your heals restore 10 more HP.",
		Hooks: map[Event]HookFunc{
			BeforeEffectApply: func(_ context.Context, _ Env, hc HookContext) Result {
				switch hc.EffectType {
				case model.EffectPoison, model.EffectVirus, model.EffectInfection:
					return Result{Block: true, Message: "the plague doctor's mask holds"}
				}
				return Result{}
			},
			OnHealPre: func(_ context.Context, _ Env, _ HookContext) Result {
				return Result{BonusHeal: plagueDoctorBonusHeal}
			},
		},
	})

	registerBuiltin(Passive{
		ID:          "antibody",
		Name:        "Antibody",
		Description: "Infection never ticks on you. Viruses and infections land at half strength.",
		Hooks: map[Event]HookFunc{
			BeforeDotTick: func(_ context.Context, _ Env, hc HookContext) Result {
				if hc.EffectType != model.EffectInfection {
					return Result{}
				}
				return Result{Cancel: true}
			},
			BeforeEffectApply: func(_ context.Context, _ Env, hc HookContext) Result {
				if !hc.EffectType.IsContagious() {
					return Result{}
				}
				return Result{Rescale: antibodyRescale}
			},
		},
	})

	registerBuiltin(Passive{
		ID:          "alchemist",
		Name:        "Alchemist",
		Description: "Buffs and regeneration you receive are 50% stronger.",
		Hooks: map[Event]HookFunc{
			BeforeEffectApply: func(_ context.Context, _ Env, hc HookContext) Result {
				if hc.EffectType.IsNegative() {
					return Result{}
				}
				return Result{Rescale: alchemistRescale}
			},
		},
	})

	registerBuiltin(Passive{
		ID:          "phoenix",
		Name:        "Phoenix",
		Description: "When knocked out you rise with 25 shield.",
		Hooks: map[Event]HookFunc{
			OnDeath: func(_ context.Context, _ Env, _ HookContext) Result {
				return Result{ShieldToTarget: phoenixShield}
			},
		},
	})
}
