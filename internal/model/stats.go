package model

import "time"

// PlayerStats is the durable combat record of one player.
//
// Fields are mutated only through the stat store, which keeps counters and
// HP/shield changes in a single atomic update.
type PlayerStats struct {
	PlayerID string

	HP        int
	MaxHP     int
	Shield    int
	MaxShield int

	Kills       int64
	Deaths      int64
	DamageDealt int64
	DamageTaken int64
	HealDone    int64

	IsDead   bool
	LastKOAt *time.Time
}

// NewPlayerStats returns a full-health record with the given caps.
func NewPlayerStats(playerID string, maxHP, maxShield int) *PlayerStats {
	if maxHP < 1 {
		maxHP = 1
	}
	if maxShield < 0 {
		maxShield = 0
	}
	return &PlayerStats{
		PlayerID:  playerID,
		HP:        maxHP,
		MaxHP:     maxHP,
		MaxShield: maxShield,
	}
}

// Clamp forces HP into [0, MaxHP] and Shield into [0, MaxShield].
// A zero HP marks the record dead.
func (s *PlayerStats) Clamp() {
	if s.MaxHP < 1 {
		s.MaxHP = 1
	}
	if s.HP < 0 {
		s.HP = 0
	}
	if s.HP > s.MaxHP {
		s.HP = s.MaxHP
	}
	if s.Shield < 0 {
		s.Shield = 0
	}
	if s.Shield > s.MaxShield {
		s.Shield = s.MaxShield
	}
	if s.HP == 0 {
		s.IsDead = true
	}
}

// Missing returns how many HP can still be healed.
func (s *PlayerStats) Missing() int {
	if s.IsDead {
		return 0
	}
	return s.MaxHP - s.HP
}

// Clone returns a deep copy.
func (s *PlayerStats) Clone() *PlayerStats {
	c := *s
	if s.LastKOAt != nil {
		ko := *s.LastKOAt
		c.LastKOAt = &ko
	}
	return &c
}

// DamageResult describes the outcome of a single damage application.
type DamageResult struct {
	Absorbed    int  // consumed from shield
	Lost        int  // consumed from HP
	FinalHP     int
	FinalShield int
	Killed      bool // HP crossed from >0 to 0 in this call
}

// Total returns absorbed + lost.
func (r DamageResult) Total() int {
	return r.Absorbed + r.Lost
}
