package combat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/brawlcore/internal/data"
	"github.com/udisondev/brawlcore/internal/game/effects"
	"github.com/udisondev/brawlcore/internal/model"
)

// StatusRequest applies a status directly (no item).
type StatusRequest struct {
	SourceID  string
	TargetID  string
	Type      model.EffectType
	Value     float64
	Duration  time.Duration
	Interval  time.Duration
	ChannelID string
}

// ApplyStatus validates and writes one status through the ledger.
func (e *Engine) ApplyStatus(ctx context.Context, req StatusRequest) (effects.Outcome, error) {
	if _, err := model.ParseEffectType(string(req.Type)); err != nil {
		return effects.Outcome{}, invalid(ErrUnknownEffect, "%q", req.Type)
	}
	if req.Duration <= 0 || req.Value < 0 || req.Interval < 0 {
		return effects.Outcome{}, invalid(ErrInvalidEffect, "value=%.2f duration=%s interval=%s",
			req.Value, req.Duration, req.Interval)
	}

	out, err := e.ledger.AddOrRefresh(ctx, effects.Application{
		PlayerID: req.TargetID,
		Type:     req.Type,
		Value:    req.Value,
		Duration: req.Duration,
		Interval: req.Interval,
		SourceID: req.SourceID,
		Metadata: channelMeta(req.ChannelID),
	})
	if err != nil {
		if errors.Is(err, effects.ErrInvalidDuration) || errors.Is(err, effects.ErrInvalidValue) {
			return effects.Outcome{}, invalid(ErrInvalidEffect, "%v", err)
		}
		return effects.Outcome{}, storeErr("applying status", err)
	}
	return out, nil
}

// UseRequest uses one item. TargetID "" targets the user.
type UseRequest struct {
	UserID       string
	TargetID     string
	ItemID       string
	ExtraTargets []string
	ChannelID    string
}

// UseResult is the structured outcome of RunUseItem; exactly one of the
// kind-specific parts is set.
type UseResult struct {
	ActionID uuid.UUID
	Kind     data.ItemKind
	UserID   string
	TargetID string
	ItemID   string

	Fight *FightResult
	Heal  *HealResult

	Status       *effects.Outcome
	Removed      []model.EffectType
	ShieldGained int

	ItemConsumed  bool
	ItemPreserved bool
}

// RunUseItem dispatches an item by kind.
func (e *Engine) RunUseItem(ctx context.Context, req UseRequest) (*UseResult, error) {
	item := e.items.Get(req.ItemID)
	if item == nil {
		return nil, invalid(ErrUnknownItem, "%q", req.ItemID)
	}
	if req.TargetID == "" {
		req.TargetID = req.UserID
	}

	switch item.Kind {
	case data.KindAttack:
		fight, err := e.RunFight(ctx, FightRequest{
			AttackerID:   req.UserID,
			TargetID:     req.TargetID,
			ItemID:       item.ID,
			ExtraTargets: req.ExtraTargets,
			ChannelID:    req.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		return &UseResult{
			ActionID: fight.ActionID, Kind: item.Kind, UserID: req.UserID, TargetID: req.TargetID, ItemID: item.ID,
			Fight: fight, ItemConsumed: fight.ItemConsumed, ItemPreserved: fight.ItemPreserved,
		}, nil

	case data.KindHeal:
		heal, err := e.RunHeal(ctx, HealRequest{
			HealerID:  req.UserID,
			TargetID:  req.TargetID,
			ItemID:    item.ID,
			ChannelID: req.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		return &UseResult{
			ActionID: heal.ActionID, Kind: item.Kind, UserID: req.UserID, TargetID: req.TargetID, ItemID: item.ID,
			Heal: heal, ItemConsumed: heal.ItemConsumed, ItemPreserved: heal.ItemPreserved,
		}, nil
	}

	return e.useUtility(ctx, req, item)
}

// useUtility handles status, cleanse, vaccine and shield items.
func (e *Engine) useUtility(ctx context.Context, req UseRequest, item *data.Item) (*UseResult, error) {
	unlock := e.locks.Lock(req.UserID)
	defer unlock()

	if _, err := e.lookupItem(ctx, req.UserID, item.ID); err != nil {
		return nil, err
	}

	res := &UseResult{
		ActionID: uuid.New(),
		Kind:     item.Kind,
		UserID:   req.UserID,
		TargetID: req.TargetID,
		ItemID:   item.ID,
	}

	target := req.TargetID
	if item.Effect != nil && item.Effect.Self {
		target = req.UserID
	}

	var err error
	switch item.Kind {
	case data.KindStatus:
		if item.Effect == nil {
			return nil, invalid(ErrWrongItemKind, "%s has no status", item.ID)
		}
		out, serr := e.ApplyStatus(ctx, e.itemStatus(req, item, target))
		if serr != nil {
			return nil, serr
		}
		res.Status = &out

	case data.KindCleanse:
		if res.Removed, err = e.ledger.RemoveNegative(ctx, req.TargetID); err != nil {
			return nil, storeErr("cleansing", err)
		}

	case data.KindVaccine:
		if res.Removed, err = e.ledger.RemoveTypes(ctx, req.TargetID, model.EffectVirus, model.EffectInfection); err != nil {
			return nil, storeErr("vaccinating", err)
		}
		if item.Effect != nil {
			out, serr := e.ApplyStatus(ctx, e.itemStatus(req, item, target))
			if serr != nil {
				return nil, serr
			}
			res.Status = &out
		}

	case data.KindShield:
		if res.ShieldGained, err = e.stats.AddShield(ctx, req.TargetID, item.Shield); err != nil {
			return nil, storeErr("adding shield", err)
		}

	default:
		return nil, invalid(ErrWrongItemKind, "%s has kind %s", item.ID, item.Kind)
	}

	res.ItemConsumed, res.ItemPreserved, err = e.consumeItem(ctx, req.UserID, item)
	if err != nil {
		return res, err
	}

	slog.Debug("item used",
		"action", res.ActionID,
		"user", req.UserID,
		"target", req.TargetID,
		"item", item.ID,
		"kind", item.Kind)

	return res, nil
}

func (e *Engine) itemStatus(req UseRequest, item *data.Item, target string) StatusRequest {
	return StatusRequest{
		SourceID:  req.UserID,
		TargetID:  target,
		Type:      item.Effect.Type,
		Value:     item.Effect.Value,
		Duration:  item.Effect.Duration,
		Interval:  item.Effect.Interval,
		ChannelID: req.ChannelID,
	}
}
