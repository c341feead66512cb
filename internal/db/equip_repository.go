package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EquipRepository хранит экипированную пассивку игрока (не более одной).
type EquipRepository struct {
	db *pgxpool.Pool
}

// NewEquipRepository создаёт новый EquipRepository.
func NewEquipRepository(db *pgxpool.Pool) *EquipRepository {
	return &EquipRepository{db: db}
}

// EquippedPassive возвращает id экипированной пассивки или "" если её нет.
func (r *EquipRepository) EquippedPassive(ctx context.Context, playerID string) (string, error) {
	var passiveID string
	err := r.db.QueryRow(ctx,
		`SELECT passive_id FROM equipped_passives WHERE player_id = $1`, playerID,
	).Scan(&passiveID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying equipped passive for %s: %w", playerID, err)
	}
	return passiveID, nil
}

// Equip заменяет экипированную пассивку.
func (r *EquipRepository) Equip(ctx context.Context, playerID, passiveID string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO equipped_passives (player_id, passive_id, equipped_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (player_id) DO UPDATE SET
		     passive_id = EXCLUDED.passive_id,
		     equipped_at = EXCLUDED.equipped_at`,
		playerID, passiveID)
	if err != nil {
		return fmt.Errorf("equipping passive %s for %s: %w", passiveID, playerID, err)
	}
	return nil
}

// Unequip снимает пассивку. Отсутствие строки не ошибка.
func (r *EquipRepository) Unequip(ctx context.Context, playerID string) error {
	if _, err := r.db.Exec(ctx,
		`DELETE FROM equipped_passives WHERE player_id = $1`, playerID); err != nil {
		return fmt.Errorf("unequipping passive for %s: %w", playerID, err)
	}
	return nil
}
