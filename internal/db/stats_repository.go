package db

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/brawlcore/internal/model"
)

const statsColumns = `player_id, hp, max_hp, shield, max_shield,
	kills, deaths, damage_dealt, damage_taken, heal_done, is_dead, last_ko_at`

// StatsRepository хранит боевые статы игроков (одна строка на игрока).
type StatsRepository struct {
	db *pgxpool.Pool
}

// NewStatsRepository создаёт новый StatsRepository.
func NewStatsRepository(db *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{db: db}
}

// Load загружает статы игрока.
// Возвращает nil, nil если строки нет (не ошибка).
func (r *StatsRepository) Load(ctx context.Context, playerID string) (*model.PlayerStats, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+statsColumns+` FROM player_stats WHERE player_id = $1`, playerID)

	s, err := scanStats(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying stats for %s: %w", playerID, err)
	}
	return s, nil
}

// Update атомарно изменяет строки указанных игроков в одной транзакции.
// Отсутствующие строки создаются через create. Строки блокируются
// SELECT ... FOR UPDATE в порядке player_id, чтобы параллельные апдейты
// одной пары игроков не дедлочились.
// Если fn возвращает ошибку, транзакция откатывается.
func (r *StatsRepository) Update(
	ctx context.Context,
	playerIDs []string,
	create func(playerID string) *model.PlayerStats,
	fn func(rows map[string]*model.PlayerStats) error,
) error {
	ids := uniqueSorted(playerIDs)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // no-op after commit
	}()

	for _, id := range ids {
		s := create(id)
		if _, err := tx.Exec(ctx,
			`INSERT INTO player_stats (player_id, hp, max_hp, shield, max_shield)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (player_id) DO NOTHING`,
			id, s.HP, s.MaxHP, s.Shield, s.MaxShield,
		); err != nil {
			return fmt.Errorf("creating stats row for %s: %w", id, err)
		}
	}

	rows, err := tx.Query(ctx,
		`SELECT `+statsColumns+` FROM player_stats
		 WHERE player_id = ANY($1)
		 ORDER BY player_id
		 FOR UPDATE`, ids)
	if err != nil {
		return fmt.Errorf("locking stats rows: %w", err)
	}

	loaded := make(map[string]*model.PlayerStats, len(ids))
	for rows.Next() {
		s, err := scanStats(rows)
		if err != nil {
			rows.Close()
			return fmt.Errorf("scanning stats row: %w", err)
		}
		loaded[s.PlayerID] = s
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating stats rows: %w", err)
	}

	if err := fn(loaded); err != nil {
		return err
	}

	for _, id := range ids {
		s, ok := loaded[id]
		if !ok {
			continue
		}
		if _, err := tx.Exec(ctx,
			`UPDATE player_stats SET
			     hp = $2, max_hp = $3, shield = $4, max_shield = $5,
			     kills = $6, deaths = $7, damage_dealt = $8, damage_taken = $9, heal_done = $10,
			     is_dead = $11, last_ko_at = $12, updated_at = NOW()
			 WHERE player_id = $1`,
			s.PlayerID, s.HP, s.MaxHP, s.Shield, s.MaxShield,
			s.Kills, s.Deaths, s.DamageDealt, s.DamageTaken, s.HealDone,
			s.IsDead, s.LastKOAt,
		); err != nil {
			return fmt.Errorf("updating stats for %s: %w", id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing stats update: %w", err)
	}
	return nil
}

func scanStats(row pgx.Row) (*model.PlayerStats, error) {
	var s model.PlayerStats
	err := row.Scan(
		&s.PlayerID, &s.HP, &s.MaxHP, &s.Shield, &s.MaxShield,
		&s.Kills, &s.Deaths, &s.DamageDealt, &s.DamageTaken, &s.HealDone,
		&s.IsDead, &s.LastKOAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func uniqueSorted(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
