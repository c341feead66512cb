package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// EffectType identifies a status effect. At most one record per
// (player, type) is active at a time.
type EffectType string

const (
	EffectPoison     EffectType = "poison"
	EffectVirus      EffectType = "virus"
	EffectInfection  EffectType = "infection"
	EffectBurn       EffectType = "burn"
	EffectRegen      EffectType = "regen"
	EffectProtection EffectType = "protection" // incoming damage reduction, value in %
	EffectEvasion    EffectType = "evasion"    // dodge chance, value in %
	EffectFury       EffectType = "fury"       // flat outgoing damage bonus
	EffectImmunity   EffectType = "immunity"   // blocks negative statuses
)

// EffectClass groups effect types by how the engine treats them.
type EffectClass int8

const (
	ClassDOT  EffectClass = iota // ticking damage
	ClassHOT                     // ticking heal
	ClassBuff                    // non-ticking magnitude
)

var effectClasses = map[EffectType]EffectClass{
	EffectPoison:     ClassDOT,
	EffectVirus:      ClassDOT,
	EffectInfection:  ClassDOT,
	EffectBurn:       ClassDOT,
	EffectRegen:      ClassHOT,
	EffectProtection: ClassBuff,
	EffectEvasion:    ClassBuff,
	EffectFury:       ClassBuff,
	EffectImmunity:   ClassBuff,
}

// AllEffectTypes returns every known effect type.
func AllEffectTypes() []EffectType {
	return []EffectType{
		EffectPoison, EffectVirus, EffectInfection, EffectBurn,
		EffectRegen, EffectProtection, EffectEvasion, EffectFury, EffectImmunity,
	}
}

// ParseEffectType validates a raw effect name.
func ParseEffectType(s string) (EffectType, error) {
	t := EffectType(s)
	if _, ok := effectClasses[t]; !ok {
		return "", fmt.Errorf("unknown effect type %q", s)
	}
	return t, nil
}

// Class returns the effect class. Unknown types are treated as buffs.
func (t EffectType) Class() EffectClass {
	c, ok := effectClasses[t]
	if !ok {
		return ClassBuff
	}
	return c
}

// IsNegative reports whether the effect is a debuff.
func (t EffectType) IsNegative() bool {
	return t.Class() == ClassDOT
}

// IsContagious reports whether the effect spreads on contact.
func (t EffectType) IsContagious() bool {
	return t == EffectVirus || t == EffectInfection
}

// NegativeEffectTypes returns all debuff types.
func NegativeEffectTypes() []EffectType {
	var out []EffectType
	for _, t := range AllEffectTypes() {
		if t.IsNegative() {
			out = append(out, t)
		}
	}
	return out
}

// EffectKey addresses one ledger row.
type EffectKey struct {
	PlayerID string
	Type     EffectType
}

// EffectRecord is one active status on one player.
type EffectRecord struct {
	PlayerID   string
	Type       EffectType
	Value      float64       // per tick for DOT/HOT, magnitude for buffs
	Interval   time.Duration // 0 = non-ticking
	NextTickAt time.Time
	ExpiresAt  time.Time
	SourceID   string
	Metadata   json.RawMessage
	CreatedAt  time.Time
}

// Key returns the (player, type) key.
func (r *EffectRecord) Key() EffectKey {
	return EffectKey{PlayerID: r.PlayerID, Type: r.Type}
}

// Active reports whether the record has not expired at now.
func (r *EffectRecord) Active(now time.Time) bool {
	return r.ExpiresAt.After(now)
}

// Due reports whether the record should tick at now.
func (r *EffectRecord) Due(now time.Time) bool {
	return r.Interval > 0 && r.Active(now) && !r.NextTickAt.After(now)
}

// Remaining returns time left until expiry (never negative).
func (r *EffectRecord) Remaining(now time.Time) time.Duration {
	d := r.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// MetaString reads a string field from the opaque metadata by gjson path.
func (r *EffectRecord) MetaString(path string) string {
	if len(r.Metadata) == 0 {
		return ""
	}
	return gjson.GetBytes(r.Metadata, path).String()
}

// ChannelID returns the chat channel the effect was applied from, if recorded.
func (r *EffectRecord) ChannelID() string {
	return r.MetaString("channel_id")
}

// Clone returns a deep copy.
func (r *EffectRecord) Clone() *EffectRecord {
	c := *r
	if r.Metadata != nil {
		c.Metadata = append(json.RawMessage(nil), r.Metadata...)
	}
	return &c
}
