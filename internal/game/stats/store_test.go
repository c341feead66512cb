package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/brawlcore/internal/db/memstore"
)

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestStore() *Store {
	return NewStore(memstore.NewStats(), 100, 50, func() time.Time { return fixedNow })
}

func TestDealDamage_ShieldFirst(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.SetHP(ctx, "target", 30))
	require.NoError(t, s.SetShield(ctx, "target", 10))

	res, err := s.DealDamage(ctx, "attacker", "target", 25)
	require.NoError(t, err)

	assert.Equal(t, 10, res.Absorbed)
	assert.Equal(t, 15, res.Lost)
	assert.Equal(t, 15, res.FinalHP)
	assert.Equal(t, 0, res.FinalShield)
	assert.False(t, res.Killed)
}

func TestDealDamage_Kill(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.SetHP(ctx, "target", 5))

	res, err := s.DealDamage(ctx, "attacker", "target", 20)
	require.NoError(t, err)
	assert.True(t, res.Killed)
	assert.Equal(t, 0, res.FinalHP)
	assert.Equal(t, 5, res.Lost)

	dead, err := s.IsDead(ctx, "target")
	require.NoError(t, err)
	assert.True(t, dead)

	target, _ := s.Get(ctx, "target")
	attacker, _ := s.Get(ctx, "attacker")
	assert.Equal(t, int64(1), target.Deaths)
	assert.Equal(t, int64(1), attacker.Kills)
	assert.Equal(t, int64(5), attacker.DamageDealt)
	require.NotNil(t, target.LastKOAt)
	assert.Equal(t, fixedNow, *target.LastKOAt)

	// A dead target absorbs nothing further.
	res, err = s.DealDamage(ctx, "attacker", "target", 20)
	require.NoError(t, err)
	assert.Zero(t, res.Total())
	assert.False(t, res.Killed)

	attacker, _ = s.Get(ctx, "attacker")
	assert.Equal(t, int64(1), attacker.Kills)
}

func TestDealDamage_SelfKOCountsDeathOnly(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.SetHP(ctx, "a", 3))
	res, err := s.DealDamage(ctx, "a", "a", 10)
	require.NoError(t, err)
	assert.True(t, res.Killed)

	a, _ := s.Get(ctx, "a")
	assert.Equal(t, int64(1), a.Deaths)
	assert.Zero(t, a.Kills)
}

func TestDealDamage_NeverNegative(t *testing.T) {
	tests := []struct {
		name   string
		hp     int
		shield int
		amount int
	}{
		{"negative amount", 50, 10, -5},
		{"zero", 50, 10, 0},
		{"shield only", 50, 10, 7},
		{"exact shield", 50, 10, 10},
		{"overkill", 50, 10, 500},
		{"no shield", 1, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()
			ctx := context.Background()
			require.NoError(t, s.SetHP(ctx, "t", tt.hp))
			require.NoError(t, s.SetShield(ctx, "t", tt.shield))

			res, err := s.DealDamage(ctx, "a", "t", tt.amount)
			require.NoError(t, err)

			assert.GreaterOrEqual(t, res.FinalHP, 0)
			assert.GreaterOrEqual(t, res.FinalShield, 0)
			amount := max(tt.amount, 0)
			assert.LessOrEqual(t, res.Total(), amount)
			if !res.Killed {
				assert.Equal(t, amount, res.Total())
			}
		})
	}
}

func TestHeal(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.SetHP(ctx, "t", 90))

	healed, err := s.Heal(ctx, "medic", "t", 25)
	require.NoError(t, err)
	assert.Equal(t, 10, healed)

	medic, _ := s.Get(ctx, "medic")
	target, _ := s.Get(ctx, "t")
	assert.Equal(t, int64(10), medic.HealDone)
	assert.Zero(t, target.HealDone)
	assert.Equal(t, 100, target.HP)

	require.NoError(t, s.SetHP(ctx, "t", 0))
	healed, err = s.Heal(ctx, "medic", "t", 25)
	require.NoError(t, err)
	assert.Zero(t, healed, "dead players are revived, not healed")
}

func TestRevive(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	_, err := s.DealDamage(ctx, "a", "t", 1000)
	require.NoError(t, err)

	row, err := s.ReviveFull(ctx, "t")
	require.NoError(t, err)
	assert.False(t, row.IsDead)
	assert.Equal(t, row.MaxHP, row.HP)

	dead, _ := s.IsDead(ctx, "t")
	assert.False(t, dead)

	_, err = s.DealDamage(ctx, "a", "t", 1000)
	require.NoError(t, err)
	row, err = s.ReviveWithHP(ctx, "t", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, row.HP)

	row, err = s.ReviveWithHP(ctx, "t", 1000)
	require.NoError(t, err)
	assert.Equal(t, 100, row.HP)
}

func TestShieldCapAndMaxHP(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	gained, err := s.AddShield(ctx, "t", 40)
	require.NoError(t, err)
	assert.Equal(t, 40, gained)

	gained, err = s.AddShield(ctx, "t", 40)
	require.NoError(t, err)
	assert.Equal(t, 10, gained)

	require.NoError(t, s.SetMaxShield(ctx, "t", 20))
	shield, _ := s.Shield(ctx, "t")
	assert.Equal(t, 20, shield)

	require.NoError(t, s.SetHP(ctx, "t", 50))
	require.NoError(t, s.SetMaxHP(ctx, "t", 200, true))
	hp, _ := s.HP(ctx, "t")
	assert.Equal(t, 100, hp)

	require.NoError(t, s.SetMaxHP(ctx, "t", 80, false))
	hp, _ = s.HP(ctx, "t")
	assert.Equal(t, 80, hp)

	assert.Error(t, s.SetMaxHP(ctx, "t", 0, false))
}
