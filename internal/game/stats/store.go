// Package stats owns every mutation of player hit points, shields and
// combat counters.
package stats

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/udisondev/brawlcore/internal/model"
)

// Repository persists PlayerStats rows.
//
// Update must load (creating through create when absent) and lock every
// listed row, call fn once, and persist the rows only if fn returns nil.
type Repository interface {
	Load(ctx context.Context, playerID string) (*model.PlayerStats, error)
	Update(ctx context.Context, playerIDs []string,
		create func(playerID string) *model.PlayerStats,
		fn func(rows map[string]*model.PlayerStats) error) error
}

// Store is the stat store. All methods are safe for concurrent use; each
// call is one atomic unit in the repository.
type Store struct {
	repo      Repository
	maxHP     int
	maxShield int
	now       func() time.Time
}

// NewStore creates a Store. Unknown players start at full maxHP with an
// empty shield capped at maxShield.
func NewStore(repo Repository, maxHP, maxShield int, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{repo: repo, maxHP: maxHP, maxShield: maxShield, now: now}
}

func (s *Store) create(playerID string) *model.PlayerStats {
	return model.NewPlayerStats(playerID, s.maxHP, s.maxShield)
}

// Get returns a snapshot of the player's stats (defaults if never stored).
func (s *Store) Get(ctx context.Context, playerID string) (*model.PlayerStats, error) {
	row, err := s.repo.Load(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("loading stats for %s: %w", playerID, err)
	}
	if row == nil {
		return s.create(playerID), nil
	}
	return row, nil
}

// HP returns current hit points.
func (s *Store) HP(ctx context.Context, playerID string) (int, error) {
	row, err := s.Get(ctx, playerID)
	if err != nil {
		return 0, err
	}
	return row.HP, nil
}

// Shield returns current shield points.
func (s *Store) Shield(ctx context.Context, playerID string) (int, error) {
	row, err := s.Get(ctx, playerID)
	if err != nil {
		return 0, err
	}
	return row.Shield, nil
}

// IsDead reports whether the player is knocked out.
func (s *Store) IsDead(ctx context.Context, playerID string) (bool, error) {
	row, err := s.Get(ctx, playerID)
	if err != nil {
		return false, err
	}
	return row.IsDead, nil
}

func (s *Store) update1(ctx context.Context, op, playerID string, fn func(row *model.PlayerStats)) (*model.PlayerStats, error) {
	var out *model.PlayerStats
	err := s.repo.Update(ctx, []string{playerID}, s.create, func(rows map[string]*model.PlayerStats) error {
		row := rows[playerID]
		fn(row)
		out = row.Clone()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s for %s: %w", op, playerID, err)
	}
	return out, nil
}

// SetHP sets hit points clamped to [0, max_hp]. Zero marks the player dead;
// a positive value on a dead player revives them.
func (s *Store) SetHP(ctx context.Context, playerID string, hp int) error {
	_, err := s.update1(ctx, "setting hp", playerID, func(row *model.PlayerStats) {
		row.HP = hp
		if hp > 0 {
			row.IsDead = false
		}
		row.Clamp()
	})
	return err
}

// SetShield sets shield points clamped to [0, shield cap].
func (s *Store) SetShield(ctx context.Context, playerID string, shield int) error {
	_, err := s.update1(ctx, "setting shield", playerID, func(row *model.PlayerStats) {
		row.Shield = shield
		row.Clamp()
	})
	return err
}

// SetMaxHP changes the hit point cap. With rescale the current HP keeps its
// proportion of the cap; a living player never drops to 0 from rescaling.
func (s *Store) SetMaxHP(ctx context.Context, playerID string, maxHP int, rescale bool) error {
	if maxHP < 1 {
		return fmt.Errorf("setting max hp for %s: max hp must be positive, got %d", playerID, maxHP)
	}
	_, err := s.update1(ctx, "setting max hp", playerID, func(row *model.PlayerStats) {
		if rescale && !row.IsDead {
			scaled := int(math.Round(float64(row.HP) * float64(maxHP) / float64(row.MaxHP)))
			row.HP = max(scaled, 1)
		}
		row.MaxHP = maxHP
		row.Clamp()
	})
	return err
}

// SetMaxShield changes the shield cap, trimming the current shield if needed.
func (s *Store) SetMaxShield(ctx context.Context, playerID string, maxShield int) error {
	if maxShield < 0 {
		return fmt.Errorf("setting max shield for %s: negative cap %d", playerID, maxShield)
	}
	_, err := s.update1(ctx, "setting max shield", playerID, func(row *model.PlayerStats) {
		row.MaxShield = maxShield
		row.Clamp()
	})
	return err
}

// AddShield adds shield points up to the cap and returns how many were gained.
func (s *Store) AddShield(ctx context.Context, playerID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, nil
	}
	var gained int
	_, err := s.update1(ctx, "adding shield", playerID, func(row *model.PlayerStats) {
		before := row.Shield
		row.Shield += amount
		row.Clamp()
		gained = row.Shield - before
	})
	if err != nil {
		return 0, err
	}
	return gained, nil
}

// DealDamage applies amount to target, shield first. A dead target takes
// nothing. Crossing to 0 HP records the KO, the target's death and, unless
// the damage is self-inflicted or unattributed, the attacker's kill.
func (s *Store) DealDamage(ctx context.Context, attackerID, targetID string, amount int) (model.DamageResult, error) {
	amount = max(amount, 0)
	credit := attackerID != "" && attackerID != targetID

	ids := []string{targetID}
	if credit {
		ids = append(ids, attackerID)
	}

	var res model.DamageResult
	err := s.repo.Update(ctx, ids, s.create, func(rows map[string]*model.PlayerStats) error {
		res = model.DamageResult{}
		target := rows[targetID]
		if target.IsDead {
			res.FinalShield = target.Shield
			return nil
		}

		res.Absorbed = min(amount, target.Shield)
		target.Shield -= res.Absorbed
		res.Lost = min(amount-res.Absorbed, target.HP)
		target.HP -= res.Lost
		target.DamageTaken += int64(res.Total())

		if target.HP == 0 {
			now := s.now()
			res.Killed = true
			target.IsDead = true
			target.Deaths++
			target.LastKOAt = &now
		}

		if credit {
			attacker := rows[attackerID]
			attacker.DamageDealt += int64(res.Total())
			if res.Killed {
				attacker.Kills++
			}
		}

		res.FinalHP = target.HP
		res.FinalShield = target.Shield
		return nil
	})
	if err != nil {
		return model.DamageResult{}, fmt.Errorf("dealing damage to %s: %w", targetID, err)
	}
	return res, nil
}

// Heal restores up to amount HP on target, never past max_hp, and credits
// the healed amount to healer. A dead target is not healed.
func (s *Store) Heal(ctx context.Context, healerID, targetID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, nil
	}

	ids := []string{targetID}
	if healerID != "" && healerID != targetID {
		ids = append(ids, healerID)
	}

	var healed int
	err := s.repo.Update(ctx, ids, s.create, func(rows map[string]*model.PlayerStats) error {
		target := rows[targetID]
		healed = min(amount, target.Missing())
		target.HP += healed
		if healerID != "" {
			rows[healerID].HealDone += int64(healed)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("healing %s: %w", targetID, err)
	}
	return healed, nil
}

// ReviveFull restores the player to max_hp and clears the dead flag.
func (s *Store) ReviveFull(ctx context.Context, playerID string) (*model.PlayerStats, error) {
	return s.update1(ctx, "reviving", playerID, func(row *model.PlayerStats) {
		row.HP = row.MaxHP
		row.IsDead = false
	})
}

// ReviveWithHP revives the player with hp clamped to [1, max_hp].
func (s *Store) ReviveWithHP(ctx context.Context, playerID string, hp int) (*model.PlayerStats, error) {
	return s.update1(ctx, "reviving", playerID, func(row *model.PlayerStats) {
		row.HP = min(max(hp, 1), row.MaxHP)
		row.IsDead = false
	})
}
