package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/udisondev/brawlcore/internal/model"
)

// Stats is an in-memory stat repository.
type Stats struct {
	mu   sync.Mutex
	rows map[string]*model.PlayerStats
}

// NewStats creates an empty stat repository.
func NewStats() *Stats {
	return &Stats{rows: make(map[string]*model.PlayerStats)}
}

// Load returns a copy of the player's row, or nil if absent.
func (s *Stats) Load(_ context.Context, playerID string) (*model.PlayerStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[playerID]
	if !ok {
		return nil, nil
	}
	return row.Clone(), nil
}

// Update creates missing rows, passes copies to fn and stores them only if fn succeeds.
func (s *Stats) Update(
	_ context.Context,
	playerIDs []string,
	create func(playerID string) *model.PlayerStats,
	fn func(rows map[string]*model.PlayerStats) error,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := slices.Clone(playerIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	work := make(map[string]*model.PlayerStats, len(ids))
	for _, id := range ids {
		if row, ok := s.rows[id]; ok {
			work[id] = row.Clone()
			continue
		}
		work[id] = create(id)
	}

	if err := fn(work); err != nil {
		return err
	}

	for _, id := range ids {
		if row, ok := work[id]; ok {
			s.rows[id] = row.Clone()
		}
	}
	return nil
}
