package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/brawlcore/internal/game/inventory"
)

// InventoryRepository хранит количество предметов игроков.
type InventoryRepository struct {
	db *pgxpool.Pool
}

// NewInventoryRepository создаёт новый InventoryRepository.
func NewInventoryRepository(db *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// Quantity возвращает количество предмета (0 если строки нет).
func (r *InventoryRepository) Quantity(ctx context.Context, playerID, itemID string) (int, error) {
	var qty int
	err := r.db.QueryRow(ctx,
		`SELECT quantity FROM inventory_items WHERE player_id = $1 AND item_id = $2`,
		playerID, itemID,
	).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying %s quantity for %s: %w", itemID, playerID, err)
	}
	return qty, nil
}

// Consume списывает qty единиц.
// Возвращает inventory.ErrNotEnough если у игрока меньше.
func (r *InventoryRepository) Consume(ctx context.Context, playerID, itemID string, qty int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE inventory_items SET quantity = quantity - $3
		 WHERE player_id = $1 AND item_id = $2 AND quantity >= $3`,
		playerID, itemID, qty)
	if err != nil {
		return fmt.Errorf("consuming %d %s for %s: %w", qty, itemID, playerID, err)
	}
	if tag.RowsAffected() == 0 {
		return inventory.ErrNotEnough
	}
	return nil
}

// Grant начисляет qty единиц.
func (r *InventoryRepository) Grant(ctx context.Context, playerID, itemID string, qty int) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO inventory_items (player_id, item_id, quantity)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (player_id, item_id) DO UPDATE SET
		     quantity = inventory_items.quantity + EXCLUDED.quantity`,
		playerID, itemID, qty)
	if err != nil {
		return fmt.Errorf("granting %d %s to %s: %w", qty, itemID, playerID, err)
	}
	return nil
}

// WalletRepository хранит монеты игроков.
type WalletRepository struct {
	db *pgxpool.Pool
}

// NewWalletRepository создаёт новый WalletRepository.
func NewWalletRepository(db *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{db: db}
}

// AddCoins начисляет amount монет и возвращает новый баланс.
func (r *WalletRepository) AddCoins(ctx context.Context, playerID string, amount int64) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO wallets (player_id, coins)
		 VALUES ($1, GREATEST($2, 0))
		 ON CONFLICT (player_id) DO UPDATE SET
		     coins = GREATEST(wallets.coins + $2, 0)
		 RETURNING coins`,
		playerID, amount,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("adding %d coins to %s: %w", amount, playerID, err)
	}
	return balance, nil
}

// Balance возвращает баланс (0 если кошелька нет).
func (r *WalletRepository) Balance(ctx context.Context, playerID string) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx,
		`SELECT coins FROM wallets WHERE player_id = $1`, playerID,
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying balance for %s: %w", playerID, err)
	}
	return balance, nil
}
