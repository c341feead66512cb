package combat

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/brawlcore/internal/data"
	"github.com/udisondev/brawlcore/internal/game/effects"
	"github.com/udisondev/brawlcore/internal/game/passive"
	"github.com/udisondev/brawlcore/internal/model"
)

// FightRequest is one attack. ItemID "" attacks bare-handed.
type FightRequest struct {
	AttackerID   string
	TargetID     string
	ItemID       string
	ExtraTargets []string // chain hits cycle over these; primary target if empty
	ChannelID    string
}

// HitResult is the outcome of one hit on one target.
type HitResult struct {
	TargetID    string
	Raw         int // damage before target-side modifiers
	Final       int // damage routed into the stat store
	Absorbed    int
	Lost        int
	FinalHP     int
	FinalShield int
	Crit        bool
	Dodged      bool
	Cancelled   bool
	CancelledBy string
	KO          bool
	Revived     bool // fail-safe revive of a target found at 0 HP
	Purged      []model.EffectType
	Failed      string // secondary hit store failure; primary failures are returned as errors
}

// FightResult is the structured outcome of RunFight.
type FightResult struct {
	ActionID   uuid.UUID
	AttackerID string
	TargetID   string
	ItemID     string

	Primary   HitResult
	Secondary []HitResult

	Counter         int // damage reflected back onto the attacker
	AttackerKO      bool
	Lifesteal       int
	Contagion       []model.EffectType
	Status          *effects.Outcome // item on-hit status
	KillCoins       int64
	DeathShield     int
	ItemConsumed    bool
	ItemPreserved   bool
	CooldownExpires int64 // unix seconds
	Messages        []string
}

// Landed reports whether the primary hit reached the stat store.
func (r *FightResult) Landed() bool {
	return !r.Primary.Dodged && !r.Primary.Cancelled
}

type strike struct {
	attackerID string
	targetID   string
	itemID     string
	raw        float64
	crit       bool
	attacker   effects.Modifiers
}

// RunFight resolves one attack.
func (e *Engine) RunFight(ctx context.Context, req FightRequest) (*FightResult, error) {
	// 1. Validation (no mutation before this passes)
	if req.AttackerID == req.TargetID {
		return nil, invalid(ErrSelfTarget, "attack")
	}

	unlock := e.locks.Lock(req.AttackerID)
	defer unlock()

	if left := e.cooldowns.Remaining(req.AttackerID); left > 0 {
		return nil, &ValidationError{Err: ErrCooldown, Reason: "wait " + left.Round(100*time.Millisecond).String(), RetryAfter: left}
	}

	var item *data.Item
	if req.ItemID != "" {
		var err error
		item, err = e.lookupItem(ctx, req.AttackerID, req.ItemID, data.KindAttack)
		if err != nil {
			return nil, err
		}
	}

	// 2. Cooldown is recorded whatever happens next
	e.cooldowns.Mark(req.AttackerID)

	res := &FightResult{
		ActionID:        uuid.New(),
		AttackerID:      req.AttackerID,
		TargetID:        req.TargetID,
		ItemID:          req.ItemID,
		CooldownExpires: e.now().Add(e.cooldowns.Window()).Unix(),
	}

	// 3. Base damage + attacker pre-hooks
	var base int
	if item != nil {
		base = e.roll(item.Damage.Min, item.Damage.Max)
	} else {
		base = e.roll(e.cfg.BareDamage.Min, e.cfg.BareDamage.Max)
	}

	pre := e.hooks.Trigger(ctx, passive.OnAttackPre, passive.HookContext{
		ActorID:    req.AttackerID,
		AttackerID: req.AttackerID,
		TargetID:   req.TargetID,
		Damage:     base,
		ItemID:     req.ItemID,
	})
	res.addMessage(pre)
	raw := float64(base+pre.ExtraDamage) * pre.DamageFactor()

	attackerMods, err := e.ledger.Modifiers(ctx, req.AttackerID)
	if err != nil {
		return nil, storeErr("reading attacker effects", err)
	}

	// 4. Critical roll (secondary hits inherit it)
	crit := e.chance(e.cfg.CritChance + pre.CritBonus)

	// 5. Primary hit: reduction → before_damage on the projected hit → dodge → damage → KO
	hit, def, err := e.resolveHit(ctx, res, strike{
		attackerID: req.AttackerID,
		targetID:   req.TargetID,
		itemID:     req.ItemID,
		raw:        raw,
		crit:       crit,
		attacker:   attackerMods,
	})
	if err != nil {
		return nil, err
	}
	res.Primary = hit

	if res.Landed() {
		e.afterPrimaryHit(ctx, req, item, def, res)
	}

	// 6. Item consumption (also on dodge and cancel)
	res.ItemConsumed, res.ItemPreserved, err = e.consumeItem(ctx, req.AttackerID, item)
	if err != nil {
		return res, err
	}

	slog.Debug("fight resolved",
		"action", res.ActionID,
		"attacker", req.AttackerID,
		"target", req.TargetID,
		"item", req.ItemID,
		"damage", res.Primary.Final,
		"crit", res.Primary.Crit,
		"dodged", res.Primary.Dodged,
		"ko", res.Primary.KO)

	return res, nil
}

// afterPrimaryHit runs every stage that follows a landed primary hit.
// Failures are logged and recorded; the committed hit is never rolled back.
func (e *Engine) afterPrimaryHit(ctx context.Context, req FightRequest, item *data.Item, def passive.Result, res *FightResult) {
	hit := res.Primary

	// Counter-attack
	if def.CounterFraction > 0 && hit.Final > 0 {
		counter := round(float64(hit.Final) * def.CounterFraction)
		dr, err := e.stats.DealDamage(ctx, req.TargetID, req.AttackerID, counter)
		if err != nil {
			e.warn(res, "counter-attack failed", err)
		} else {
			res.Counter = dr.Total()
			if dr.Killed {
				res.AttackerKO = true
				e.knockout(ctx, req.TargetID, req.AttackerID, res, nil)
			}
		}
	}

	// Contagion
	spread := []struct {
		typ    model.EffectType
		chance float64
	}{
		{model.EffectVirus, e.cfg.VirusSpreadChance},
		{model.EffectInfection, e.cfg.InfectionSpreadChance},
	}
	for _, s := range spread {
		has, err := e.ledger.Has(ctx, req.AttackerID, s.typ)
		if err != nil {
			e.warn(res, "contagion check failed", err)
			continue
		}
		if !has || !e.chance(s.chance) {
			continue
		}
		out, err := e.ledger.TransferOnAttack(ctx, req.AttackerID, req.TargetID, s.typ)
		if err != nil {
			e.warn(res, "contagion failed", err)
			continue
		}
		if out.Applied {
			res.Contagion = append(res.Contagion, s.typ)
		}
	}

	// Item on-hit status
	if item != nil && item.Effect != nil {
		target := req.TargetID
		if item.Effect.Self {
			target = req.AttackerID
		}
		out, err := e.ledger.AddOrRefresh(ctx, effects.Application{
			PlayerID: target,
			Type:     item.Effect.Type,
			Value:    item.Effect.Value,
			Duration: item.Effect.Duration,
			Interval: item.Effect.Interval,
			SourceID: req.AttackerID,
			Metadata: channelMeta(req.ChannelID),
		})
		if err != nil {
			e.warn(res, "applying item status failed", err)
		} else {
			res.Status = &out
		}
	}

	// on_attack: lifesteal
	post := e.hooks.Trigger(ctx, passive.OnAttack, passive.HookContext{
		ActorID:    req.AttackerID,
		AttackerID: req.AttackerID,
		TargetID:   req.TargetID,
		Damage:     hit.Absorbed + hit.Lost,
		ItemID:     req.ItemID,
	})
	res.addMessage(post)
	if post.LifestealFraction > 0 {
		amount := round(float64(hit.Absorbed+hit.Lost) * post.LifestealFraction)
		healed, err := e.stats.Heal(ctx, req.AttackerID, req.AttackerID, amount)
		if err != nil {
			e.warn(res, "lifesteal failed", err)
		} else {
			res.Lifesteal = healed
		}
	}

	// Chain hits
	if item != nil && item.Chain.Hits > 0 {
		e.chainHits(ctx, req, item, res)
	}

	// on_defense_after
	after := e.hooks.Trigger(ctx, passive.OnDefenseAfter, passive.HookContext{
		ActorID:      req.TargetID,
		AttackerID:   req.AttackerID,
		TargetID:     req.TargetID,
		Damage:       hit.Final,
		TargetHP:     hit.FinalHP,
		TargetShield: hit.FinalShield,
		ItemID:       req.ItemID,
	})
	res.addMessage(after)
}

func (e *Engine) chainHits(ctx context.Context, req FightRequest, item *data.Item, res *FightResult) {
	factor := item.Chain.Factor
	if factor <= 0 {
		factor = e.cfg.ChainFactor
	}

	targets := make([]string, 0, len(req.ExtraTargets))
	for _, t := range req.ExtraTargets {
		if t != "" && t != req.AttackerID {
			targets = append(targets, t)
		}
	}
	if len(targets) == 0 {
		targets = []string{req.TargetID}
	}

	attackerMods, err := e.ledger.Modifiers(ctx, req.AttackerID)
	if err != nil {
		e.warn(res, "reading attacker effects for chain failed", err)
		return
	}

	for i := range item.Chain.Hits {
		target := targets[i%len(targets)]
		hit, _, err := e.resolveHit(ctx, res, strike{
			attackerID: req.AttackerID,
			targetID:   target,
			itemID:     req.ItemID,
			raw:        float64(res.Primary.Raw) * factor,
			crit:       res.Primary.Crit,
			attacker:   attackerMods,
		})
		if err != nil {
			hit = HitResult{TargetID: target, Failed: err.Error()}
			e.warn(res, "chain hit failed", err)
		}
		res.Secondary = append(res.Secondary, hit)
	}
}

// resolveHit runs one hit from target modifiers through knockout handling.
func (e *Engine) resolveHit(ctx context.Context, res *FightResult, s strike) (HitResult, passive.Result, error) {
	hit := HitResult{TargetID: s.targetID, Raw: round(s.raw), Crit: s.crit}

	target, revived, err := e.reviveIfDead(ctx, s.targetID)
	if err != nil {
		return hit, passive.Result{}, err
	}
	hit.Revived = revived

	targetMods, err := e.ledger.Modifiers(ctx, s.targetID)
	if err != nil {
		return hit, passive.Result{}, storeErr("reading target effects", err)
	}
	defStats := e.hooks.Trigger(ctx, passive.OnDefenseStats, passive.HookContext{
		ActorID:    s.targetID,
		AttackerID: s.attackerID,
		TargetID:   s.targetID,
	})
	reduction := clampChance(targetMods.ReductionPercent/100+defStats.ReductionBonus, e.cfg.MaxReduction)

	// Damage is the projected hit: crit, fury, penalties and reduction applied,
	// before_damage modifiers not yet.
	def := e.hooks.Trigger(ctx, passive.BeforeDamage, passive.HookContext{
		ActorID:      s.targetID,
		AttackerID:   s.attackerID,
		TargetID:     s.targetID,
		Damage:       max(round(e.outgoing(s, s.raw)*(1-reduction)), 0),
		TargetHP:     target.HP,
		TargetShield: target.Shield,
		ItemID:       s.itemID,
	})
	res.addMessage(def)
	if def.Cancel {
		hit.Cancelled = true
		hit.CancelledBy = def.Source
		hit.FinalHP, hit.FinalShield = target.HP, target.Shield
		return hit, def, nil
	}

	dmg := e.outgoing(s, s.raw*def.DamageFactor()-float64(def.FlatReduction))
	dmg *= 1 - reduction

	dodge := clampChance(e.cfg.BaseDodge+targetMods.DodgePercent/100+defStats.DodgeBonus, e.cfg.MaxDodge)
	if e.chance(dodge) {
		hit.Dodged = true
		hit.FinalHP, hit.FinalShield = target.HP, target.Shield
		return hit, def, nil
	}

	hit.Final = max(round(dmg), 0)
	dr, err := e.stats.DealDamage(ctx, s.attackerID, s.targetID, hit.Final)
	if err != nil {
		return hit, def, storeErr("dealing damage", err)
	}
	hit.Absorbed, hit.Lost = dr.Absorbed, dr.Lost
	hit.FinalHP, hit.FinalShield = dr.FinalHP, dr.FinalShield
	hit.KO = dr.Killed

	if dr.Killed {
		e.knockout(ctx, s.attackerID, s.targetID, res, &hit)
	}
	return hit, def, nil
}

// knockout revives the victim, strips their effects and fires on_kill / on_death.
// hit is nil for counter-attack knockouts, which skip the hooks.
func (e *Engine) knockout(ctx context.Context, killerID, victimID string, res *FightResult, hit *HitResult) {
	if _, err := e.stats.ReviveFull(ctx, victimID); err != nil {
		e.warn(res, "revive after knockout failed", err)
		return
	}
	purged, err := e.ledger.PurgeAll(ctx, victimID)
	if err != nil {
		e.warn(res, "purging effects after knockout failed", err)
	}
	if hit == nil {
		return
	}
	hit.Purged = purged

	kill := e.hooks.Trigger(ctx, passive.OnKill, passive.HookContext{
		ActorID:    killerID,
		AttackerID: killerID,
		TargetID:   victimID,
	})
	res.addMessage(kill)
	if kill.BonusCoins > 0 && e.wallet != nil {
		if _, err := e.wallet.AddCoins(ctx, killerID, kill.BonusCoins); err != nil {
			e.warn(res, "paying kill bounty failed", err)
		} else {
			res.KillCoins += kill.BonusCoins
		}
	}

	death := e.hooks.Trigger(ctx, passive.OnDeath, passive.HookContext{
		ActorID:    victimID,
		AttackerID: killerID,
		TargetID:   victimID,
	})
	res.addMessage(death)
	if death.ShieldToTarget > 0 {
		gained, err := e.stats.AddShield(ctx, victimID, death.ShieldToTarget)
		if err != nil {
			e.warn(res, "granting death shield failed", err)
		} else {
			res.DeathShield += gained
		}
	}
}

// outgoing applies the attacker side of a strike: crit, then fury and penalties.
func (e *Engine) outgoing(s strike, dmg float64) float64 {
	if s.crit {
		dmg *= e.cfg.CritMultiplier
	}
	return dmg + float64(s.attacker.OutgoingBonus-s.attacker.OutgoingPenalty)
}

func (r *FightResult) addMessage(h passive.Result) {
	if h.Message != "" {
		r.Messages = append(r.Messages, h.Message)
	}
}

func (e *Engine) warn(res *FightResult, msg string, err error) {
	slog.Warn(msg,
		"action", res.ActionID,
		"attacker", res.AttackerID,
		"target", res.TargetID,
		"error", err)
}
