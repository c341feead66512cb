package effects

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/brawlcore/internal/db/memstore"
	"github.com/udisondev/brawlcore/internal/game/passive"
	"github.com/udisondev/brawlcore/internal/model"
)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	ledger *Ledger
	equip  *memstore.Equip
	clock  *testClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &testClock{t: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)}
	equip := memstore.NewEquip()
	disp := passive.NewDispatcher(passive.NewRegistry(), equip, passive.Env{
		Now:   clock.Now,
		Rand:  func() float64 { return 0.99 },
		Daily: passive.NewDailyCounters(memstore.NewCounters(), time.UTC, clock.Now),
	})
	return &fixture{
		ledger: NewLedger(memstore.NewEffects(), disp, map[string]int{"poison": 10}, clock.Now),
		equip:  equip,
		clock:  clock,
	}
}

func poison(player string) Application {
	return Application{
		PlayerID: player,
		Type:     model.EffectPoison,
		Value:    4,
		Duration: 3 * time.Hour,
		Interval: 30 * time.Minute,
		SourceID: "attacker",
	}
}

func TestAddOrRefresh_Basic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.ledger.AddOrRefresh(ctx, poison("alice"))
	require.NoError(t, err)
	require.True(t, out.Applied)
	assert.Equal(t, f.clock.Now().Add(30*time.Minute), out.Record.NextTickAt)

	has, err := f.ledger.Has(ctx, "alice", model.EffectPoison)
	require.NoError(t, err)
	assert.True(t, has)

	_, err = f.ledger.AddOrRefresh(ctx, Application{PlayerID: "alice", Type: "glitter", Duration: time.Hour})
	assert.Error(t, err)

	_, err = f.ledger.AddOrRefresh(ctx, Application{PlayerID: "alice", Type: model.EffectPoison})
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestAddOrRefresh_RefreshNeverDelaysTick(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.ledger.AddOrRefresh(ctx, poison("alice"))
	require.NoError(t, err)
	scheduled := first.Record.NextTickAt

	f.clock.Advance(20 * time.Minute)
	again, err := f.ledger.AddOrRefresh(ctx, poison("alice"))
	require.NoError(t, err)

	assert.False(t, again.Record.NextTickAt.After(scheduled))
	assert.Equal(t, f.clock.Now().Add(3*time.Hour), again.Record.ExpiresAt)
}

func TestAddOrRefresh_ExpiredRecordStartsNewSchedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.AddOrRefresh(ctx, poison("alice"))
	require.NoError(t, err)

	f.clock.Advance(4 * time.Hour)
	out, err := f.ledger.AddOrRefresh(ctx, poison("alice"))
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(30*time.Minute), out.Record.NextTickAt)
}

func TestAddOrRefresh_BlockedWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.equip.Equip(ctx, "alice", "plague_doctor"))

	out, err := f.ledger.AddOrRefresh(ctx, poison("alice"))
	require.NoError(t, err)
	assert.True(t, out.Blocked)
	assert.Equal(t, "plague_doctor", out.BlockedBy)
	assert.False(t, out.Applied)

	list, err := f.ledger.List(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAddOrRefresh_ImmunityBlocksNegatives(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.AddOrRefresh(ctx, Application{
		PlayerID: "alice", Type: model.EffectImmunity, Value: 1, Duration: time.Hour,
	})
	require.NoError(t, err)

	out, err := f.ledger.AddOrRefresh(ctx, poison("alice"))
	require.NoError(t, err)
	assert.True(t, out.Blocked)
	assert.Equal(t, "immunity", out.BlockedBy)

	out, err = f.ledger.AddOrRefresh(ctx, Application{
		PlayerID: "alice", Type: model.EffectFury, Value: 5, Duration: time.Hour,
	})
	require.NoError(t, err)
	assert.True(t, out.Applied)
}

func TestAddOrRefresh_Rescale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.equip.Equip(ctx, "alice", "alchemist"))

	out, err := f.ledger.AddOrRefresh(ctx, Application{
		PlayerID: "alice", Type: model.EffectRegen, Value: 10,
		Duration: time.Hour, Interval: 10 * time.Minute,
	})
	require.NoError(t, err)
	assert.InDelta(t, 15.0, out.Record.Value, 1e-9)
}

func TestExpiryIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.AddOrRefresh(ctx, poison("alice"))
	require.NoError(t, err)

	f.clock.Advance(3 * time.Hour)

	has, err := f.ledger.Has(ctx, "alice", model.EffectPoison)
	require.NoError(t, err)
	assert.False(t, has)

	list, err := f.ledger.List(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, list)

	due, err := f.ledger.Due(ctx, f.clock.Now())
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestTransferOnAttack_KeepsRemainingDuration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.AddOrRefresh(ctx, Application{
		PlayerID: "attacker", Type: model.EffectVirus, Value: 3,
		Duration: 2 * time.Hour, Interval: 30 * time.Minute, SourceID: "patient_zero",
		Metadata: []byte(`{"channel_id":"general"}`),
	})
	require.NoError(t, err)

	// 5400s remain after half an hour.
	f.clock.Advance(30 * time.Minute)

	out, err := f.ledger.TransferOnAttack(ctx, "attacker", "target", model.EffectVirus)
	require.NoError(t, err)
	require.True(t, out.Applied)
	assert.Equal(t, 5400*time.Second, out.Record.Remaining(f.clock.Now()))
	assert.Equal(t, "general", out.Record.ChannelID())
	assert.Equal(t, "attacker", out.Record.MetaString("spread_from"))

	still, err := f.ledger.Has(ctx, "attacker", model.EffectVirus)
	require.NoError(t, err)
	assert.True(t, still, "contagion copies, it does not move")

	out, err = f.ledger.TransferOnAttack(ctx, "attacker", "target", model.EffectVirus)
	require.NoError(t, err)
	assert.True(t, out.Skipped)

	out, err = f.ledger.TransferOnAttack(ctx, "nobody", "target", model.EffectInfection)
	require.NoError(t, err)
	assert.True(t, out.Skipped)
}

func TestModifiersAndCleanse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, app := range []Application{
		poison("alice"),
		{PlayerID: "alice", Type: model.EffectFury, Value: 5, Duration: time.Hour},
		{PlayerID: "alice", Type: model.EffectProtection, Value: 25, Duration: time.Hour},
		{PlayerID: "alice", Type: model.EffectEvasion, Value: 20, Duration: time.Hour},
	} {
		_, err := f.ledger.AddOrRefresh(ctx, app)
		require.NoError(t, err)
	}

	m, err := f.ledger.Modifiers(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, Modifiers{OutgoingPenalty: 10, OutgoingBonus: 5, ReductionPercent: 25, DodgePercent: 20}, m)

	removed, err := f.ledger.RemoveNegative(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []model.EffectType{model.EffectPoison}, removed)

	penalty, err := f.ledger.OutgoingDamagePenalty(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, penalty)

	removed, err = f.ledger.PurgeAll(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, removed, 3)
}
