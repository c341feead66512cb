package effects

import (
	"context"

	"github.com/udisondev/brawlcore/internal/model"
)

// Modifiers aggregates the combat-relevant magnitudes of a player's active effects.
type Modifiers struct {
	OutgoingPenalty  int     // flat, subtracted from the player's attacks
	OutgoingBonus    int     // flat, added to the player's attacks (fury)
	ReductionPercent float64 // incoming damage reduction (protection)
	DodgePercent     float64 // dodge chance (evasion)
}

// Modifiers reads all active effects once and sums their combat magnitudes.
func (l *Ledger) Modifiers(ctx context.Context, playerID string) (Modifiers, error) {
	recs, err := l.List(ctx, playerID)
	if err != nil {
		return Modifiers{}, err
	}

	var m Modifiers
	for _, rec := range recs {
		m.OutgoingPenalty += l.penalties[rec.Type]
		switch rec.Type {
		case model.EffectFury:
			m.OutgoingBonus += int(rec.Value)
		case model.EffectProtection:
			m.ReductionPercent += rec.Value
		case model.EffectEvasion:
			m.DodgePercent += rec.Value
		}
	}
	m.OutgoingPenalty = max(m.OutgoingPenalty, 0)
	return m, nil
}

// OutgoingDamagePenalty returns the flat penalty the player's debuffs put on their attacks.
func (l *Ledger) OutgoingDamagePenalty(ctx context.Context, playerID string) (int, error) {
	m, err := l.Modifiers(ctx, playerID)
	return m.OutgoingPenalty, err
}

// OutgoingDamageBonus returns the flat bonus from fury.
func (l *Ledger) OutgoingDamageBonus(ctx context.Context, playerID string) (int, error) {
	m, err := l.Modifiers(ctx, playerID)
	return m.OutgoingBonus, err
}

// ReductionPercent returns the stacked protection percentage (uncapped).
func (l *Ledger) ReductionPercent(ctx context.Context, playerID string) (float64, error) {
	m, err := l.Modifiers(ctx, playerID)
	return m.ReductionPercent, err
}

// DodgePercent returns the stacked evasion percentage (uncapped).
func (l *Ledger) DodgePercent(ctx context.Context, playerID string) (float64, error) {
	m, err := l.Modifiers(ctx, playerID)
	return m.DodgePercent, err
}
