package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/brawlcore/internal/model"
)

const effectColumns = `player_id, effect_type, value, interval_sec, next_tick_at,
	expires_at, source_id, metadata, created_at`

// EffectRepository хранит активные статусы (одна строка на игрока и тип эффекта).
type EffectRepository struct {
	db *pgxpool.Pool
}

// NewEffectRepository создаёт новый EffectRepository.
func NewEffectRepository(db *pgxpool.Pool) *EffectRepository {
	return &EffectRepository{db: db}
}

// Get возвращает запись эффекта или nil, nil если её нет.
// Истёкшие записи тоже возвращаются, фильтрует вызывающий.
func (r *EffectRepository) Get(ctx context.Context, playerID string, typ model.EffectType) (*model.EffectRecord, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+effectColumns+` FROM player_effects WHERE player_id = $1 AND effect_type = $2`,
		playerID, string(typ))

	rec, err := scanEffect(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying effect %s for %s: %w", typ, playerID, err)
	}
	return rec, nil
}

// ListByPlayer возвращает неистёкшие эффекты игрока, отсортированные по времени истечения.
func (r *EffectRepository) ListByPlayer(ctx context.Context, playerID string, now time.Time) ([]*model.EffectRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+effectColumns+` FROM player_effects
		 WHERE player_id = $1 AND expires_at > $2
		 ORDER BY expires_at, effect_type`, playerID, now)
	if err != nil {
		return nil, fmt.Errorf("querying effects for %s: %w", playerID, err)
	}
	return collectEffects(rows)
}

// Upsert создаёт или обновляет запись.
// При обновлении живой записи next_tick_at берётся ближайший из старого
// и нового, так что рефреш не откладывает скорый тик.
func (r *EffectRepository) Upsert(ctx context.Context, rec *model.EffectRecord, now time.Time) (*model.EffectRecord, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO player_effects (`+effectColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (player_id, effect_type) DO UPDATE SET
		     value        = EXCLUDED.value,
		     interval_sec = EXCLUDED.interval_sec,
		     expires_at   = EXCLUDED.expires_at,
		     source_id    = EXCLUDED.source_id,
		     metadata     = EXCLUDED.metadata,
		     next_tick_at = CASE
		         WHEN player_effects.expires_at > $10 AND player_effects.interval_sec > 0
		         THEN LEAST(player_effects.next_tick_at, EXCLUDED.next_tick_at)
		         ELSE EXCLUDED.next_tick_at
		     END,
		     created_at = CASE
		         WHEN player_effects.expires_at > $10 THEN player_effects.created_at
		         ELSE EXCLUDED.created_at
		     END
		 RETURNING `+effectColumns,
		rec.PlayerID, string(rec.Type), rec.Value, int32(rec.Interval/time.Second),
		rec.NextTickAt, rec.ExpiresAt, rec.SourceID, nullableJSON(rec.Metadata), rec.CreatedAt,
		now,
	)

	stored, err := scanEffect(row)
	if err != nil {
		return nil, fmt.Errorf("upserting effect %s for %s: %w", rec.Type, rec.PlayerID, err)
	}
	return stored, nil
}

// Delete удаляет одну запись. Возвращает true если запись была.
func (r *EffectRepository) Delete(ctx context.Context, playerID string, typ model.EffectType) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM player_effects WHERE player_id = $1 AND effect_type = $2`,
		playerID, string(typ))
	if err != nil {
		return false, fmt.Errorf("deleting effect %s for %s: %w", typ, playerID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteTypes удаляет перечисленные типы эффектов игрока (nil означает все).
// Возвращает удалённые типы.
func (r *EffectRepository) DeleteTypes(ctx context.Context, playerID string, types []model.EffectType) ([]model.EffectType, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if types == nil {
		rows, err = r.db.Query(ctx,
			`DELETE FROM player_effects WHERE player_id = $1 RETURNING effect_type`, playerID)
	} else {
		names := make([]string, len(types))
		for i, t := range types {
			names[i] = string(t)
		}
		rows, err = r.db.Query(ctx,
			`DELETE FROM player_effects WHERE player_id = $1 AND effect_type = ANY($2) RETURNING effect_type`,
			playerID, names)
	}
	if err != nil {
		return nil, fmt.Errorf("deleting effects for %s: %w", playerID, err)
	}
	defer rows.Close()

	var removed []model.EffectType
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning deleted effect: %w", err)
		}
		removed = append(removed, model.EffectType(name))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating deleted effects: %w", err)
	}
	return removed, nil
}

// Due возвращает тикающие записи, у которых наступил next_tick_at и которые ещё не истекли.
func (r *EffectRepository) Due(ctx context.Context, now time.Time) ([]*model.EffectRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+effectColumns+` FROM player_effects
		 WHERE interval_sec > 0 AND next_tick_at <= $1 AND expires_at > $1
		 ORDER BY player_id, effect_type`, now)
	if err != nil {
		return nil, fmt.Errorf("querying due effects: %w", err)
	}
	return collectEffects(rows)
}

// Advance сдвигает next_tick_at с prev на next.
// Возвращает false если запись уже сдвинули (или удалили) параллельно.
func (r *EffectRepository) Advance(ctx context.Context, key model.EffectKey, prev, next time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE player_effects SET next_tick_at = $4
		 WHERE player_id = $1 AND effect_type = $2 AND next_tick_at = $3`,
		key.PlayerID, string(key.Type), prev, next)
	if err != nil {
		return false, fmt.Errorf("advancing effect %s for %s: %w", key.Type, key.PlayerID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// PurgeExpired удаляет все записи с expires_at <= now и возвращает их ключи.
func (r *EffectRepository) PurgeExpired(ctx context.Context, now time.Time) ([]model.EffectKey, error) {
	rows, err := r.db.Query(ctx,
		`DELETE FROM player_effects WHERE expires_at <= $1 RETURNING player_id, effect_type`, now)
	if err != nil {
		return nil, fmt.Errorf("purging expired effects: %w", err)
	}
	defer rows.Close()

	var keys []model.EffectKey
	for rows.Next() {
		var k model.EffectKey
		var typ string
		if err := rows.Scan(&k.PlayerID, &typ); err != nil {
			return nil, fmt.Errorf("scanning purged effect: %w", err)
		}
		k.Type = model.EffectType(typ)
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating purged effects: %w", err)
	}
	return keys, nil
}

func scanEffect(row pgx.Row) (*model.EffectRecord, error) {
	var (
		rec         model.EffectRecord
		typ         string
		intervalSec int32
		meta        []byte
	)
	err := row.Scan(
		&rec.PlayerID, &typ, &rec.Value, &intervalSec, &rec.NextTickAt,
		&rec.ExpiresAt, &rec.SourceID, &meta, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Type = model.EffectType(typ)
	rec.Interval = time.Duration(intervalSec) * time.Second
	if len(meta) > 0 {
		rec.Metadata = meta
	}
	return &rec, nil
}

func collectEffects(rows pgx.Rows) ([]*model.EffectRecord, error) {
	defer rows.Close()

	out := make([]*model.EffectRecord, 0, 8)
	for rows.Next() {
		rec, err := scanEffect(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning effect row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating effect rows: %w", err)
	}
	return out, nil
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
