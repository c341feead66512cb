// Package economy runs coin, daily-reward, box and theft actions through
// the passive dispatcher.
package economy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/udisondev/brawlcore/internal/config"
	"github.com/udisondev/brawlcore/internal/game/inventory"
	"github.com/udisondev/brawlcore/internal/game/passive"
)

var (
	ErrAlreadyClaimed = errors.New("daily reward already claimed")
	ErrSelfTheft      = errors.New("cannot steal from yourself")
	ErrNothingToSteal = errors.New("target has no such item")
	ErrInvalidAmount  = errors.New("coin amount must be positive")
)

const dailyCounter = "daily_claim"

// Hooks is the passive dispatcher.
type Hooks interface {
	Trigger(ctx context.Context, event passive.Event, hc passive.HookContext) passive.Result
}

// Service bridges economy actions with the wallet, the inventory and the
// equipped passives.
type Service struct {
	hooks  Hooks
	wallet inventory.Wallet
	inv    inventory.Store
	daily  *passive.DailyCounters
	cfg    config.Economy
}

// NewService creates an economy service.
func NewService(cfg config.Economy, hooks Hooks, wallet inventory.Wallet, inv inventory.Store, daily *passive.DailyCounters) *Service {
	return &Service{
		hooks:  hooks,
		wallet: wallet,
		inv:    inv,
		daily:  daily,
		cfg:    cfg,
	}
}

// GainCoins credits amount plus the earner's on_gain_coins bonus.
// Returns the amount actually credited.
func (s *Service) GainCoins(ctx context.Context, playerID string, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	res := s.hooks.Trigger(ctx, passive.OnGainCoins, passive.HookContext{
		ActorID: playerID,
		Coins:   amount,
	})
	total := amount + max(res.BonusCoins, 0)

	if _, err := s.wallet.AddCoins(ctx, playerID, total); err != nil {
		return 0, fmt.Errorf("crediting %d coins to %s: %w", total, playerID, err)
	}

	slog.Debug("coins gained",
		"player", playerID,
		"amount", amount,
		"bonus", total-amount,
		"reason", reason)

	return total, nil
}

// ClaimDaily pays the daily reward once per local day.
//
// Flow:
// 1. Consume today's claim (ErrAlreadyClaimed if taken)
// 2. Base reward + on_daily bonus
// 3. Credit through GainCoins so coin bonuses stack
// 4. A failed credit gives the claim back
func (s *Service) ClaimDaily(ctx context.Context, playerID string) (int64, error) {
	day := s.daily.Today()
	ok, err := s.daily.ClaimOn(ctx, playerID, dailyCounter, day, 1)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrAlreadyClaimed
	}

	res := s.hooks.Trigger(ctx, passive.OnDaily, passive.HookContext{
		ActorID: playerID,
		Coins:   s.cfg.DailyReward,
	})
	reward := s.cfg.DailyReward + max(res.BonusCoins, 0)
	if reward <= 0 {
		return 0, nil
	}

	paid, err := s.GainCoins(ctx, playerID, reward, "daily")
	if err != nil {
		if rerr := s.daily.Release(context.WithoutCancel(ctx), playerID, dailyCounter, day); rerr != nil {
			slog.Error("daily claim release failed",
				"player", playerID,
				"error", rerr)
			return 0, errors.Join(err, rerr)
		}
		return 0, err
	}
	return paid, nil
}

// OpenBoxRolls returns how many rolls playerID gets on a box.
func (s *Service) OpenBoxRolls(ctx context.Context, playerID string) int {
	res := s.hooks.Trigger(ctx, passive.OnBoxOpen, passive.HookContext{ActorID: playerID})
	return max(s.cfg.BoxRolls+res.ExtraRolls, 1)
}

// TheftResult is the outcome of TryTheft.
type TheftResult struct {
	ThiefID   string
	TargetID  string
	ItemID    string
	Stolen    bool
	BlockedBy string
	Message   string
}

// TryTheft moves one unit of itemID from target to thief unless the
// target's passive blocks it. A blocked attempt changes nothing.
func (s *Service) TryTheft(ctx context.Context, thiefID, targetID, itemID string) (*TheftResult, error) {
	if thiefID == targetID {
		return nil, ErrSelfTheft
	}

	qty, err := s.inv.Quantity(ctx, targetID, itemID)
	if err != nil {
		return nil, fmt.Errorf("checking %s inventory: %w", targetID, err)
	}
	if qty < 1 {
		return nil, ErrNothingToSteal
	}

	res := &TheftResult{ThiefID: thiefID, TargetID: targetID, ItemID: itemID}

	guard := s.hooks.Trigger(ctx, passive.OnTheftAttempt, passive.HookContext{
		ActorID:    targetID,
		AttackerID: thiefID,
		TargetID:   targetID,
		ItemID:     itemID,
	})
	if guard.Block {
		res.BlockedBy = guard.Source
		res.Message = guard.Message
		return res, nil
	}

	if err := s.inv.Consume(ctx, targetID, itemID, 1); err != nil {
		if errors.Is(err, inventory.ErrNotEnough) {
			return nil, ErrNothingToSteal
		}
		return nil, fmt.Errorf("taking %s from %s: %w", itemID, targetID, err)
	}
	if err := s.inv.Grant(ctx, thiefID, itemID, 1); err != nil {
		// Give it back so the unit is not lost.
		if rerr := s.inv.Grant(ctx, targetID, itemID, 1); rerr != nil {
			slog.Error("returning stolen item failed",
				"thief", thiefID,
				"target", targetID,
				"item", itemID,
				"error", rerr)
		}
		return nil, fmt.Errorf("granting %s to %s: %w", itemID, thiefID, err)
	}

	res.Stolen = true
	slog.Info("item stolen",
		"thief", thiefID,
		"target", targetID,
		"item", itemID)

	return res, nil
}
