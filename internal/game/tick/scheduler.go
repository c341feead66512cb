// Package tick runs the background pass that applies damage-over-time and
// regeneration ticks and sweeps expired effects.
package tick

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/brawlcore/internal/game/passive"
	"github.com/udisondev/brawlcore/internal/model"
)

// StatStore is the part of the stat store the scheduler writes through.
type StatStore interface {
	DealDamage(ctx context.Context, attackerID, targetID string, amount int) (model.DamageResult, error)
	Heal(ctx context.Context, healerID, targetID string, amount int) (int, error)
	ReviveFull(ctx context.Context, playerID string) (*model.PlayerStats, error)
}

// Ledger is the part of the effect ledger the scheduler drives.
type Ledger interface {
	Due(ctx context.Context, now time.Time) ([]*model.EffectRecord, error)
	Advance(ctx context.Context, rec *model.EffectRecord, next time.Time) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) ([]model.EffectKey, error)
	PurgeAll(ctx context.Context, playerID string) ([]model.EffectType, error)
}

// HookTrigger consults passives before DOT ticks.
type HookTrigger interface {
	Trigger(ctx context.Context, event passive.Event, hc passive.HookContext) passive.Result
}

// TickLine is one applied (or vetoed) tick.
type TickLine struct {
	Type     model.EffectType
	Amount   int // damage dealt (absorbed+lost) or HP healed
	SourceID string
	Vetoed   bool
}

// Notification summarizes one pass for one player.
type Notification struct {
	ID        uuid.UUID
	PlayerID  string
	ChannelID string
	Damage    int
	Healed    int
	Ticks     []TickLine
	Expired   []model.EffectType
	Revived   bool
	At        time.Time
}

// Recipient addresses a notification.
type Recipient struct {
	PlayerID  string
	ChannelID string
}

// Broadcaster renders a notification. It is called once per affected player per pass.
type Broadcaster func(ctx context.Context, to Recipient, n Notification)

// Scheduler applies due effect ticks on a fixed poll period.
type Scheduler struct {
	ledger Ledger
	stats  StatStore
	hooks  HookTrigger
	period time.Duration
	now    func() time.Time

	mu        sync.RWMutex
	broadcast Broadcaster

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewScheduler creates a scheduler. Call Start to run it.
func NewScheduler(ledger Ledger, stats StatStore, hooks HookTrigger, period time.Duration, now func() time.Time) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		ledger: ledger,
		stats:  stats,
		hooks:  hooks,
		period: period,
		now:    now,
		stopCh: make(chan struct{}),
	}
}

// SetBroadcaster replaces the notification callback. nil disables notifications.
func (s *Scheduler) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	s.broadcast = b
	s.mu.Unlock()
}

// Start runs passes until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	slog.Info("effect tick scheduler started", "period", s.period)

	for {
		select {
		case <-ctx.Done():
			slog.Info("effect tick scheduler stopping")
			return ctx.Err()

		case <-s.stopCh:
			slog.Info("effect tick scheduler stopped")
			return nil

		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// Stop stops the loop. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

type pass struct {
	notes   map[string]*Notification
	order   []string
	revived map[string]bool
	now     time.Time
}

func (p *pass) note(playerID string) *Notification {
	n, ok := p.notes[playerID]
	if !ok {
		n = &Notification{ID: uuid.New(), PlayerID: playerID, At: p.now}
		p.notes[playerID] = n
		p.order = append(p.order, playerID)
	}
	return n
}

// RunOnce performs a single pass and returns the notifications it emitted.
func (s *Scheduler) RunOnce(ctx context.Context) []Notification {
	now := s.now()
	p := &pass{
		notes:   make(map[string]*Notification),
		revived: make(map[string]bool),
		now:     now,
	}

	due, err := s.ledger.Due(ctx, now)
	if err != nil {
		slog.Warn("selecting due effects failed", "error", err)
	}
	for _, rec := range due {
		if p.revived[rec.PlayerID] {
			continue // purged by the knockout
		}
		s.applyTick(ctx, p, rec)
	}

	expired, err := s.ledger.PurgeExpired(ctx, now)
	if err != nil {
		slog.Warn("purging expired effects failed", "error", err)
	}
	for _, k := range expired {
		n := p.note(k.PlayerID)
		n.Expired = append(n.Expired, k.Type)
	}

	out := make([]Notification, 0, len(p.order))
	for _, id := range p.order {
		n := *p.notes[id]
		out = append(out, n)
		s.emit(ctx, n)
	}

	if len(due) > 0 || len(expired) > 0 {
		slog.Debug("effect tick pass completed",
			"due", len(due),
			"expired", len(expired),
			"players", len(out))
	}
	return out
}

func (s *Scheduler) applyTick(ctx context.Context, p *pass, rec *model.EffectRecord) {
	class := rec.Type.Class()
	if class == model.ClassBuff {
		return
	}

	// Claim the tick before applying it so overlapping passes never apply it twice.
	ok, err := s.ledger.Advance(ctx, rec, rec.NextTickAt.Add(rec.Interval))
	if err != nil {
		slog.Warn("advancing effect failed",
			"player", rec.PlayerID,
			"effect", rec.Type,
			"error", err)
		return
	}
	if !ok {
		return
	}

	n := p.note(rec.PlayerID)
	if n.ChannelID == "" {
		n.ChannelID = rec.ChannelID()
	}
	amount := int(math.Round(rec.Value))

	if class == model.ClassHOT {
		healed, err := s.stats.Heal(ctx, rec.SourceID, rec.PlayerID, amount)
		if err != nil {
			slog.Warn("applying heal tick failed",
				"player", rec.PlayerID,
				"effect", rec.Type,
				"error", err)
			return
		}
		n.Healed += healed
		n.Ticks = append(n.Ticks, TickLine{Type: rec.Type, Amount: healed, SourceID: rec.SourceID})
		slog.Debug("heal tick applied", "player", rec.PlayerID, "effect", rec.Type, "healed", healed)
		return
	}

	res := s.hooks.Trigger(ctx, passive.BeforeDotTick, passive.HookContext{
		ActorID:     rec.PlayerID,
		AttackerID:  rec.SourceID,
		TargetID:    rec.PlayerID,
		Damage:      amount,
		EffectType:  rec.Type,
		EffectValue: rec.Value,
	})
	if res.Cancel && rec.Type == model.EffectInfection {
		n.Ticks = append(n.Ticks, TickLine{Type: rec.Type, SourceID: rec.SourceID, Vetoed: true})
		return
	}

	dmg, err := s.stats.DealDamage(ctx, rec.SourceID, rec.PlayerID, amount)
	if err != nil {
		slog.Warn("applying damage tick failed",
			"player", rec.PlayerID,
			"effect", rec.Type,
			"error", err)
		return
	}
	n.Damage += dmg.Total()
	n.Ticks = append(n.Ticks, TickLine{Type: rec.Type, Amount: dmg.Total(), SourceID: rec.SourceID})
	slog.Debug("damage tick applied",
		"player", rec.PlayerID,
		"effect", rec.Type,
		"damage", dmg.Total(),
		"killed", dmg.Killed)

	// FinalHP 0 without Killed: the player was already down, e.g. an earlier revive failed.
	if !dmg.Killed && dmg.FinalHP > 0 {
		return
	}

	if _, err := s.stats.ReviveFull(ctx, rec.PlayerID); err != nil {
		slog.Warn("reviving after tick knockout failed", "player", rec.PlayerID, "error", err)
		return
	}
	if _, err := s.ledger.PurgeAll(ctx, rec.PlayerID); err != nil {
		slog.Warn("purging effects after tick knockout failed", "player", rec.PlayerID, "error", err)
	}
	n.Revived = true
	p.revived[rec.PlayerID] = true
}

func (s *Scheduler) emit(ctx context.Context, n Notification) {
	s.mu.RLock()
	b := s.broadcast
	s.mu.RUnlock()
	if b == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("tick broadcaster panicked", "player", n.PlayerID, "panic", r)
		}
	}()
	b(ctx, Recipient{PlayerID: n.PlayerID, ChannelID: n.ChannelID}, n)
}
