// Package passive dispatches named combat and economy events to the
// passive ability equipped by the acting player.
package passive

// Event names an extension point. The actor whose equipped passive is
// consulted is noted per event.
type Event string

const (
	OnGainCoins       Event = "on_gain_coins"       // actor: earner
	OnAttackPre       Event = "on_attack_pre"       // actor: attacker
	OnAttack          Event = "on_attack"           // actor: attacker, after the hit landed
	BeforeDamage      Event = "before_damage"       // actor: target
	OnDefenseAfter    Event = "on_defense_after"    // actor: target
	OnDefenseStats    Event = "on_defense_stats"    // actor: target, dodge/reduction bonuses
	OnHealPre         Event = "on_heal_pre"         // actor: healer
	OnHeal            Event = "on_heal"             // actor: healer
	BeforeEffectApply Event = "before_effect_apply" // actor: effect target
	BeforeDotTick     Event = "before_dot_tick"     // actor: afflicted player
	OnKill            Event = "on_kill"             // actor: killer
	OnDeath           Event = "on_death"            // actor: knocked out player
	OnItemConsume     Event = "on_item_consume"     // actor: item owner
	OnBoxOpen         Event = "on_box_open"         // actor: opener
	OnDaily           Event = "on_daily"            // actor: claimer
	OnTheftAttempt    Event = "on_theft_attempt"    // actor: theft victim
)

// Aliases accepted by NormalizeEvent.
const (
	OnDefensePre  Event = "on_defense_pre"
	OnStatusApply Event = "on_status_apply"
)

var aliases = map[Event]Event{
	OnDefensePre:  BeforeDamage,
	OnStatusApply: BeforeEffectApply,
}

var known = map[Event]struct{}{
	OnGainCoins: {}, OnAttackPre: {}, OnAttack: {}, BeforeDamage: {},
	OnDefenseAfter: {}, OnDefenseStats: {}, OnHealPre: {}, OnHeal: {},
	BeforeEffectApply: {}, BeforeDotTick: {}, OnKill: {}, OnDeath: {},
	OnItemConsume: {}, OnBoxOpen: {}, OnDaily: {}, OnTheftAttempt: {},
}

// NormalizeEvent maps alias names to their canonical event.
func NormalizeEvent(e Event) Event {
	if c, ok := aliases[e]; ok {
		return c
	}
	return e
}

// Known reports whether e (after normalization) is a supported event.
func Known(e Event) bool {
	_, ok := known[NormalizeEvent(e)]
	return ok
}
