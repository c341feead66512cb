package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/brawlcore/internal/game/inventory"
	"github.com/udisondev/brawlcore/internal/model"
)

func TestStats_UpdateIsolatesUntilCommit(t *testing.T) {
	s := NewStats()
	ctx := context.Background()
	create := func(id string) *model.PlayerStats { return model.NewPlayerStats(id, 100, 50) }

	err := s.Update(ctx, []string{"a"}, create, func(rows map[string]*model.PlayerStats) error {
		rows["a"].HP = 10
		return errors.New("abort")
	})
	require.Error(t, err)

	got, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got, "aborted update must not create the row")

	require.NoError(t, s.Update(ctx, []string{"a"}, create, func(rows map[string]*model.PlayerStats) error {
		rows["a"].HP = 10
		return nil
	}))
	got, err = s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 10, got.HP)

	got.HP = 99
	again, _ := s.Load(ctx, "a")
	assert.Equal(t, 10, again.HP, "Load returns a copy")
}

func TestEffects_UpsertKeepsEarlierTick(t *testing.T) {
	e := NewEffects()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	rec := &model.EffectRecord{
		PlayerID: "a", Type: model.EffectPoison, Value: 4, Interval: 30 * time.Minute,
		NextTickAt: now.Add(30 * time.Minute), ExpiresAt: now.Add(3 * time.Hour), CreatedAt: now,
	}
	_, err := e.Upsert(ctx, rec, now)
	require.NoError(t, err)

	later := now.Add(20 * time.Minute)
	refresh := rec.Clone()
	refresh.NextTickAt = later.Add(30 * time.Minute)
	refresh.ExpiresAt = later.Add(3 * time.Hour)
	got, err := e.Upsert(ctx, refresh, later)
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*time.Minute), got.NextTickAt)
	assert.Equal(t, later.Add(3*time.Hour), got.ExpiresAt)

	// An expired record is replaced wholesale.
	much := now.Add(5 * time.Hour)
	fresh := rec.Clone()
	fresh.NextTickAt = much.Add(30 * time.Minute)
	fresh.ExpiresAt = much.Add(time.Hour)
	got, err = e.Upsert(ctx, fresh, much)
	require.NoError(t, err)
	assert.Equal(t, much.Add(30*time.Minute), got.NextTickAt)
}

func TestCounters_DailyReset(t *testing.T) {
	c := NewCounters()
	ctx := context.Background()
	day := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	ok, _ := c.Consume(ctx, "a", "phoenix", day, 1)
	assert.True(t, ok)
	ok, _ = c.Consume(ctx, "a", "phoenix", day, 1)
	assert.False(t, ok)
	ok, _ = c.Consume(ctx, "a", "phoenix", day.AddDate(0, 0, 1), 1)
	assert.True(t, ok)
}

func TestCounters_Release(t *testing.T) {
	c := NewCounters()
	ctx := context.Background()
	day := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	ok, _ := c.Consume(ctx, "a", "daily_claim", day, 1)
	require.True(t, ok)
	require.NoError(t, c.Release(ctx, "a", "daily_claim", day))

	n, err := c.Count(ctx, "a", "daily_claim", day)
	require.NoError(t, err)
	assert.Zero(t, n)

	ok, _ = c.Consume(ctx, "a", "daily_claim", day, 1)
	assert.True(t, ok)
}

func TestInventory_ConsumeNotEnough(t *testing.T) {
	inv := NewInventory()
	ctx := context.Background()

	require.NoError(t, inv.Grant(ctx, "a", "sword", 1))
	require.NoError(t, inv.Consume(ctx, "a", "sword", 1))
	assert.ErrorIs(t, inv.Consume(ctx, "a", "sword", 1), inventory.ErrNotEnough)
}
