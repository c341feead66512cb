package passive

import "github.com/udisondev/brawlcore/internal/model"

// HookContext is the input of a single hook call.
type HookContext struct {
	Event   Event
	ActorID string // player whose passive is consulted

	AttackerID string
	TargetID   string

	Damage       int // incoming/outgoing damage at this stage
	Amount       int // heal amount, coins, etc.
	TargetHP     int
	TargetShield int

	EffectType  model.EffectType
	EffectValue float64

	ItemID string
	Coins  int64
}

// Result is the modifier set a hook returns. Zero values mean "no change".
type Result struct {
	// damage
	ExtraDamage     int
	Multiplier      float64 // 0 means 1.0
	FlatReduction   int
	Halve           bool
	Cancel          bool
	CounterFraction float64

	// rolls
	CritBonus      float64
	DodgeBonus     float64
	ReductionBonus float64

	// healing
	BonusHeal         int
	ConvertToShield   bool
	ShieldToHealer    int
	ShieldToTarget    int
	LifestealFraction float64

	// statuses
	Block   bool
	Rescale float64 // 0 means 1.0

	// economy
	BonusCoins   int64
	ExtraRolls   int
	PreserveItem bool

	Message string
	Source  string // passive id that produced the result
}

// Empty reports whether r carries no modifiers and no message.
func (r Result) Empty() bool {
	r.Source = ""
	return r == Result{}
}

// DamageFactor returns the combined multiplicative factor (multiplier and halving).
func (r Result) DamageFactor() float64 {
	f := 1.0
	if r.Multiplier > 0 {
		f = r.Multiplier
	}
	if r.Halve {
		f *= 0.5
	}
	return f
}

// RescaleFactor returns the status value factor.
func (r Result) RescaleFactor() float64 {
	if r.Rescale > 0 {
		return r.Rescale
	}
	return 1
}

// Merge folds o into r: numbers add, flags OR, factors multiply.
func (r Result) Merge(o Result) Result {
	r.ExtraDamage += o.ExtraDamage
	r.Multiplier = mulFactor(r.Multiplier, o.Multiplier)
	r.FlatReduction += o.FlatReduction
	r.Halve = r.Halve || o.Halve
	r.Cancel = r.Cancel || o.Cancel
	r.CounterFraction += o.CounterFraction

	r.CritBonus += o.CritBonus
	r.DodgeBonus += o.DodgeBonus
	r.ReductionBonus += o.ReductionBonus

	r.BonusHeal += o.BonusHeal
	r.ConvertToShield = r.ConvertToShield || o.ConvertToShield
	r.ShieldToHealer += o.ShieldToHealer
	r.ShieldToTarget += o.ShieldToTarget
	r.LifestealFraction += o.LifestealFraction

	r.Block = r.Block || o.Block
	r.Rescale = mulFactor(r.Rescale, o.Rescale)

	r.BonusCoins += o.BonusCoins
	r.ExtraRolls += o.ExtraRolls
	r.PreserveItem = r.PreserveItem || o.PreserveItem

	if r.Message == "" {
		r.Message = o.Message
	}
	if r.Source == "" {
		r.Source = o.Source
	}
	return r
}

func mulFactor(a, b float64) float64 {
	switch {
	case a == 0:
		return b
	case b == 0:
		return a
	default:
		return a * b
	}
}
