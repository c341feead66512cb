package combat

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/udisondev/brawlcore/internal/data"
	"github.com/udisondev/brawlcore/internal/game/effects"
	"github.com/udisondev/brawlcore/internal/game/passive"
)

// HealRequest is one heal. TargetID "" heals the healer.
type HealRequest struct {
	HealerID  string
	TargetID  string
	ItemID    string
	ChannelID string
}

// HealResult is the structured outcome of RunHeal.
type HealResult struct {
	ActionID uuid.UUID
	HealerID string
	TargetID string
	ItemID   string

	Base           int
	Bonus          int
	Healed         int
	Converted      bool // heal went into the target's shield
	ShieldGained   int  // shield from conversion
	ShieldToHealer int
	ShieldToTarget int
	Revived        bool
	Status         *effects.Outcome
	ItemConsumed   bool
	ItemPreserved  bool
	Messages       []string
}

// RunHeal resolves one heal. Heals are not rate-limited.
func (e *Engine) RunHeal(ctx context.Context, req HealRequest) (*HealResult, error) {
	if req.TargetID == "" {
		req.TargetID = req.HealerID
	}

	unlock := e.locks.Lock(req.HealerID)
	defer unlock()

	item, err := e.lookupItem(ctx, req.HealerID, req.ItemID, data.KindHeal)
	if err != nil {
		return nil, err
	}

	res := &HealResult{
		ActionID: uuid.New(),
		HealerID: req.HealerID,
		TargetID: req.TargetID,
		ItemID:   item.ID,
	}

	_, res.Revived, err = e.reviveIfDead(ctx, req.TargetID)
	if err != nil {
		return nil, err
	}

	// 1. Base amount + on_heal_pre
	res.Base = e.roll(item.Heal.Min, item.Heal.Max)
	pre := e.hooks.Trigger(ctx, passive.OnHealPre, passive.HookContext{
		ActorID:  req.HealerID,
		TargetID: req.TargetID,
		Amount:   res.Base,
		ItemID:   item.ID,
	})
	res.addMessage(pre)
	res.Bonus = pre.BonusHeal
	amount := max(res.Base+pre.BonusHeal, 0)

	// 2. Apply
	if pre.ConvertToShield {
		res.Converted = true
		res.ShieldGained, err = e.stats.AddShield(ctx, req.TargetID, amount)
		if err != nil {
			return nil, storeErr("converting heal to shield", err)
		}
	} else {
		res.Healed, err = e.stats.Heal(ctx, req.HealerID, req.TargetID, amount)
		if err != nil {
			return nil, storeErr("healing", err)
		}
	}

	// 3. on_heal side effects
	post := e.hooks.Trigger(ctx, passive.OnHeal, passive.HookContext{
		ActorID:  req.HealerID,
		TargetID: req.TargetID,
		Amount:   res.Healed,
		ItemID:   item.ID,
	})
	res.addMessage(post)
	if post.ShieldToHealer > 0 {
		if res.ShieldToHealer, err = e.stats.AddShield(ctx, req.HealerID, post.ShieldToHealer); err != nil {
			e.warnHeal(res, "granting healer shield failed", err)
		}
	}
	if post.ShieldToTarget > 0 {
		if res.ShieldToTarget, err = e.stats.AddShield(ctx, req.TargetID, post.ShieldToTarget); err != nil {
			e.warnHeal(res, "granting target shield failed", err)
		}
	}

	// 4. Item status (regen and friends)
	if item.Effect != nil {
		target := req.TargetID
		if item.Effect.Self {
			target = req.HealerID
		}
		out, err := e.ledger.AddOrRefresh(ctx, effects.Application{
			PlayerID: target,
			Type:     item.Effect.Type,
			Value:    item.Effect.Value,
			Duration: item.Effect.Duration,
			Interval: item.Effect.Interval,
			SourceID: req.HealerID,
			Metadata: channelMeta(req.ChannelID),
		})
		if err != nil {
			e.warnHeal(res, "applying heal status failed", err)
		} else {
			res.Status = &out
		}
	}

	// 5. Consume
	res.ItemConsumed, res.ItemPreserved, err = e.consumeItem(ctx, req.HealerID, item)
	if err != nil {
		return res, err
	}

	slog.Debug("heal resolved",
		"action", res.ActionID,
		"healer", req.HealerID,
		"target", req.TargetID,
		"healed", res.Healed,
		"converted", res.Converted)

	return res, nil
}

func (r *HealResult) addMessage(h passive.Result) {
	if h.Message != "" {
		r.Messages = append(r.Messages, h.Message)
	}
}

func (e *Engine) warnHeal(res *HealResult, msg string, err error) {
	slog.Warn(msg,
		"action", res.ActionID,
		"healer", res.HealerID,
		"target", res.TargetID,
		"error", err)
}
