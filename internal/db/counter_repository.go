package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CounterRepository хранит суточные счётчики пассивок (player, name) -> (дата, count).
type CounterRepository struct {
	db *pgxpool.Pool
}

// NewCounterRepository создаёт новый CounterRepository.
func NewCounterRepository(db *pgxpool.Pool) *CounterRepository {
	return &CounterRepository{db: db}
}

// Consume атомарно увеличивает счётчик, если за день day он меньше limit.
// Смена дня сбрасывает счётчик в 1.
// Возвращает false если лимит исчерпан.
func (r *CounterRepository) Consume(ctx context.Context, playerID, name string, day time.Time, limit int) (bool, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`INSERT INTO passive_counters (player_id, name, reset_date, count)
		 VALUES ($1, $2, $3, 1)
		 ON CONFLICT (player_id, name) DO UPDATE SET
		     count = CASE
		         WHEN passive_counters.reset_date <> EXCLUDED.reset_date THEN 1
		         ELSE passive_counters.count + 1
		     END,
		     reset_date = EXCLUDED.reset_date
		 WHERE passive_counters.reset_date <> EXCLUDED.reset_date
		    OR passive_counters.count < $4
		 RETURNING count`,
		playerID, name, dateOnly(day), limit,
	).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("consuming counter %s for %s: %w", name, playerID, err)
	}
	return true, nil
}

// Release возвращает одно использование за день day.
// Счётчик за другой день не трогается.
func (r *CounterRepository) Release(ctx context.Context, playerID, name string, day time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE passive_counters SET count = count - 1
		 WHERE player_id = $1 AND name = $2 AND reset_date = $3 AND count > 0`,
		playerID, name, dateOnly(day),
	)
	if err != nil {
		return fmt.Errorf("releasing counter %s for %s: %w", name, playerID, err)
	}
	return nil
}

// Count возвращает значение счётчика за день day (0 если счётчик за другой день или его нет).
func (r *CounterRepository) Count(ctx context.Context, playerID, name string, day time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT count FROM passive_counters
		 WHERE player_id = $1 AND name = $2 AND reset_date = $3`,
		playerID, name, dateOnly(day),
	).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying counter %s for %s: %w", name, playerID, err)
	}
	return count, nil
}

// dateOnly отбрасывает время, сохраняя календарную дату в зоне day.
func dateOnly(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
