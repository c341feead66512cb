package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEffectType(t *testing.T) {
	for _, typ := range AllEffectTypes() {
		got, err := ParseEffectType(string(typ))
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}

	_, err := ParseEffectType("frostbite")
	assert.Error(t, err)
}

func TestEffectType_Classes(t *testing.T) {
	tests := []struct {
		typ        EffectType
		class      EffectClass
		negative   bool
		contagious bool
	}{
		{EffectPoison, ClassDOT, true, false},
		{EffectVirus, ClassDOT, true, true},
		{EffectInfection, ClassDOT, true, true},
		{EffectBurn, ClassDOT, true, false},
		{EffectRegen, ClassHOT, false, false},
		{EffectFury, ClassBuff, false, false},
		{EffectImmunity, ClassBuff, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			assert.Equal(t, tt.class, tt.typ.Class())
			assert.Equal(t, tt.negative, tt.typ.IsNegative())
			assert.Equal(t, tt.contagious, tt.typ.IsContagious())
		})
	}

	assert.ElementsMatch(t,
		[]EffectType{EffectPoison, EffectVirus, EffectInfection, EffectBurn},
		NegativeEffectTypes())
}

func TestEffectRecord_Timing(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := &EffectRecord{
		PlayerID:   "a",
		Type:       EffectPoison,
		Interval:   10 * time.Minute,
		NextTickAt: now,
		ExpiresAt:  now.Add(30 * time.Minute),
	}

	assert.True(t, rec.Active(now))
	assert.True(t, rec.Due(now))
	assert.False(t, rec.Due(now.Add(-time.Second)))
	assert.Equal(t, 30*time.Minute, rec.Remaining(now))

	later := now.Add(time.Hour)
	assert.False(t, rec.Active(later))
	assert.False(t, rec.Due(later), "expired records never tick")
	assert.Zero(t, rec.Remaining(later))

	buff := &EffectRecord{Type: EffectFury, NextTickAt: now, ExpiresAt: now.Add(time.Hour)}
	assert.False(t, buff.Due(now), "non-ticking records are never due")
}

func TestEffectRecord_Metadata(t *testing.T) {
	rec := &EffectRecord{Metadata: json.RawMessage(`{"channel_id":"arena","spread_from":"zed"}`)}
	assert.Equal(t, "arena", rec.ChannelID())
	assert.Equal(t, "zed", rec.MetaString("spread_from"))
	assert.Empty(t, rec.MetaString("missing"))

	assert.Empty(t, (&EffectRecord{}).ChannelID())

	c := rec.Clone()
	c.Metadata[2] = 'X'
	assert.Equal(t, "arena", rec.ChannelID(), "clone does not share metadata")
}

func TestPlayerStats_ClampAndMissing(t *testing.T) {
	s := &PlayerStats{HP: 150, MaxHP: 100, Shield: -5, MaxShield: 50}
	s.Clamp()
	assert.Equal(t, 100, s.HP)
	assert.Zero(t, s.Shield)
	assert.Zero(t, s.Missing())

	s.HP = -3
	s.Clamp()
	assert.Zero(t, s.HP)
	assert.True(t, s.IsDead)
	assert.Zero(t, s.Missing(), "the dead cannot be healed")

	assert.Equal(t, 7, DamageResult{Absorbed: 3, Lost: 4}.Total())
}
