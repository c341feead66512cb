package combat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/brawlcore/internal/game/effects"
	"github.com/udisondev/brawlcore/internal/model"
)

func TestApplyStatus_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  StatusRequest
		want error
	}{
		{"unknown type", StatusRequest{TargetID: "b", Type: "frostbite", Value: 1, Duration: time.Hour}, ErrUnknownEffect},
		{"zero duration", StatusRequest{TargetID: "b", Type: model.EffectFury, Value: 1}, ErrInvalidEffect},
		{"negative value", StatusRequest{TargetID: "b", Type: model.EffectFury, Value: -1, Duration: time.Hour}, ErrInvalidEffect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.ApplyStatus(ctx, tt.req)
			require.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestRunUseItem_Status(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.give(t, "a", "plague", 1)

	res, err := f.engine.RunUseItem(ctx, UseRequest{UserID: "a", TargetID: "b", ItemID: "plague", ChannelID: "pit"})
	require.NoError(t, err)
	require.NotNil(t, res.Status)
	assert.True(t, res.Status.Applied)
	assert.Equal(t, "a", res.Status.Record.SourceID)
	assert.Equal(t, "pit", res.Status.Record.ChannelID())
	assert.True(t, res.ItemConsumed)
}

func TestRunUseItem_BlockedStatusStillConsumes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.give(t, "a", "plague", 1)
	require.NoError(t, f.equip.Equip(ctx, "b", "plague_doctor"))

	res, err := f.engine.RunUseItem(ctx, UseRequest{UserID: "a", TargetID: "b", ItemID: "plague"})
	require.NoError(t, err)
	require.NotNil(t, res.Status)
	assert.True(t, res.Status.Blocked)
	assert.Equal(t, "plague_doctor", res.Status.BlockedBy)
	assert.Zero(t, f.qty(t, "a", "plague"))

	has, err := f.ledger.Has(ctx, "b", model.EffectVirus)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestRunUseItem_Cleanse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.give(t, "a", "antidote", 1)
	for _, app := range []effects.Application{
		{PlayerID: "b", Type: model.EffectPoison, Value: 2, Duration: time.Hour, Interval: 10 * time.Minute},
		{PlayerID: "b", Type: model.EffectFury, Value: 5, Duration: time.Hour},
	} {
		_, err := f.ledger.AddOrRefresh(ctx, app)
		require.NoError(t, err)
	}

	res, err := f.engine.RunUseItem(ctx, UseRequest{UserID: "a", TargetID: "b", ItemID: "antidote"})
	require.NoError(t, err)
	assert.Equal(t, []model.EffectType{model.EffectPoison}, res.Removed)

	fury, err := f.ledger.Has(ctx, "b", model.EffectFury)
	require.NoError(t, err)
	assert.True(t, fury)
}

func TestRunUseItem_VaccineGrantsImmunity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.give(t, "a", "vaccine", 1)
	_, err := f.ledger.AddOrRefresh(ctx, effects.Application{
		PlayerID: "a", Type: model.EffectVirus, Value: 3, Duration: time.Hour, Interval: 10 * time.Minute,
	})
	require.NoError(t, err)

	res, err := f.engine.RunUseItem(ctx, UseRequest{UserID: "a", ItemID: "vaccine"})
	require.NoError(t, err)
	assert.Equal(t, []model.EffectType{model.EffectVirus}, res.Removed)
	require.NotNil(t, res.Status)
	assert.True(t, res.Status.Applied)

	out, err := f.engine.ApplyStatus(ctx, StatusRequest{
		SourceID: "b", TargetID: "a", Type: model.EffectPoison, Value: 2, Duration: time.Hour, Interval: 10 * time.Minute,
	})
	require.NoError(t, err)
	assert.True(t, out.Blocked)
	assert.Equal(t, string(model.EffectImmunity), out.BlockedBy)
}

func TestRunUseItem_Shield(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.give(t, "a", "buckler", 1)

	res, err := f.engine.RunUseItem(ctx, UseRequest{UserID: "a", ItemID: "buckler"})
	require.NoError(t, err)
	assert.Equal(t, 30, res.ShieldGained)
	assert.Equal(t, 30, f.row(t, "a").Shield)
}

func TestRunUseItem_DispatchesAttack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.give(t, "a", "club", 1)

	res, err := f.engine.RunUseItem(ctx, UseRequest{UserID: "a", TargetID: "b", ItemID: "club"})
	require.NoError(t, err)
	require.NotNil(t, res.Fight)
	assert.Nil(t, res.Heal)
	assert.Equal(t, 75, f.row(t, "b").HP)
	assert.True(t, res.ItemConsumed)
}

func TestRunUseItem_Unknown(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.RunUseItem(context.Background(), UseRequest{UserID: "a", ItemID: "laser"})
	require.ErrorIs(t, err, ErrUnknownItem)
}
