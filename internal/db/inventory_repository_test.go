package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/brawlcore/internal/game/inventory"
)

func TestInventoryRepository_GrantConsume(t *testing.T) {
	repo := NewInventoryRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Grant(ctx, "alice", "sword", 2))
	require.NoError(t, repo.Grant(ctx, "alice", "sword", 1))

	qty, err := repo.Quantity(ctx, "alice", "sword")
	require.NoError(t, err)
	assert.Equal(t, 3, qty)

	require.NoError(t, repo.Consume(ctx, "alice", "sword", 3))
	err = repo.Consume(ctx, "alice", "sword", 1)
	assert.ErrorIs(t, err, inventory.ErrNotEnough)

	err = repo.Consume(ctx, "bob", "sword", 1)
	assert.ErrorIs(t, err, inventory.ErrNotEnough)
}

func TestWalletRepository(t *testing.T) {
	repo := NewWalletRepository(setupTestDB(t))
	ctx := context.Background()

	bal, err := repo.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, bal)

	bal, err = repo.AddCoins(ctx, "alice", 50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), bal)

	bal, err = repo.AddCoins(ctx, "alice", -80)
	require.NoError(t, err)
	assert.Zero(t, bal, "balance never goes negative")
}

func TestEquipRepository(t *testing.T) {
	repo := NewEquipRepository(setupTestDB(t))
	ctx := context.Background()

	id, err := repo.EquippedPassive(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, repo.Equip(ctx, "alice", "aegis"))
	require.NoError(t, repo.Equip(ctx, "alice", "thorns"))

	id, err = repo.EquippedPassive(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "thorns", id)

	require.NoError(t, repo.Unequip(ctx, "alice"))
	id, err = repo.EquippedPassive(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, id)
}
