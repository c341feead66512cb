package combat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/brawlcore/internal/model"
)

func TestRunHeal(t *testing.T) {
	tests := []struct {
		name        string
		passive     string
		wantHealed  int
		wantHealerS int
		wantTargetS int
	}{
		{name: "plain", wantHealed: 20},
		{name: "medic", passive: "medic", wantHealed: 25, wantHealerS: 5},
		{name: "plague doctor", passive: "plague_doctor", wantHealed: 30},
		{name: "aegis shields the target", passive: "aegis", wantHealed: 20, wantTargetS: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.give(t, "healer", "bandage", 1)
			require.NoError(t, f.stats.SetHP(ctx, "target", 50))
			if tt.passive != "" {
				require.NoError(t, f.equip.Equip(ctx, "healer", tt.passive))
			}

			res, err := f.engine.RunHeal(ctx, HealRequest{HealerID: "healer", TargetID: "target", ItemID: "bandage"})
			require.NoError(t, err)

			assert.Equal(t, tt.wantHealed, res.Healed)
			assert.Equal(t, tt.wantHealerS, res.ShieldToHealer)
			assert.Equal(t, tt.wantTargetS, res.ShieldToTarget)
			assert.Equal(t, 50+tt.wantHealed, f.row(t, "target").HP)
			assert.Equal(t, int64(tt.wantHealed), f.row(t, "healer").HealDone)
			assert.Zero(t, f.qty(t, "healer", "bandage"))
		})
	}
}

func TestRunHeal_SelfAndStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.give(t, "a", "elixir", 1)
	require.NoError(t, f.stats.SetHP(ctx, "a", 60))

	res, err := f.engine.RunHeal(ctx, HealRequest{HealerID: "a", ItemID: "elixir"})
	require.NoError(t, err)

	assert.Equal(t, "a", res.TargetID)
	assert.Equal(t, 10, res.Healed)
	require.NotNil(t, res.Status)
	assert.True(t, res.Status.Applied)

	has, err := f.ledger.Has(ctx, "a", model.EffectRegen)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestRunHeal_DeadTargetIsRevived(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.give(t, "a", "bandage", 1)
	require.NoError(t, f.stats.SetHP(ctx, "b", 0))

	res, err := f.engine.RunHeal(ctx, HealRequest{HealerID: "a", TargetID: "b", ItemID: "bandage"})
	require.NoError(t, err)

	assert.True(t, res.Revived)
	assert.Zero(t, res.Healed)
	assert.Equal(t, 100, f.row(t, "b").HP)
}

func TestRunHeal_RejectsAttackItem(t *testing.T) {
	f := newFixture(t)
	f.give(t, "a", "pin", 1)

	_, err := f.engine.RunHeal(context.Background(), HealRequest{HealerID: "a", TargetID: "b", ItemID: "pin"})
	require.ErrorIs(t, err, ErrWrongItemKind)
	assert.Equal(t, 1, f.qty(t, "a", "pin"))
}
