package combat

import (
	"log/slog"
	"sync"
	"time"
)

// CooldownTracker rate-limits attacks per player.
//
// Reads and writes are not serialized with each other; two racing attacks
// of one player may both pass. The engine checks it under the player lock.
type CooldownTracker struct {
	last     sync.Map // key: player id, value: time.Time (last attack)
	window   time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewCooldownTracker creates a tracker. Call Start to run the sweeper.
func NewCooldownTracker(window time.Duration, now func() time.Time) *CooldownTracker {
	if now == nil {
		now = time.Now
	}
	return &CooldownTracker{
		window: window,
		now:    now,
		stopCh: make(chan struct{}),
	}
}

// Window returns the configured cooldown.
func (c *CooldownTracker) Window() time.Duration {
	return c.window
}

// Mark records an attack by playerID at the current time.
func (c *CooldownTracker) Mark(playerID string) {
	c.last.Store(playerID, c.now())
}

// Remaining returns how long playerID must still wait (0 if free).
func (c *CooldownTracker) Remaining(playerID string) time.Duration {
	v, ok := c.last.Load(playerID)
	if !ok {
		return 0
	}
	left := c.window - c.now().Sub(v.(time.Time))
	if left < 0 {
		return 0
	}
	return left
}

// Clear forgets playerID's last attack.
func (c *CooldownTracker) Clear(playerID string) {
	c.last.Delete(playerID)
}

// Start launches the sweeper goroutine that drops stale entries.
func (c *CooldownTracker) Start() {
	c.wg.Add(1)
	go c.run()
}

// Stop terminates the sweeper and waits for it. Safe to call more than once.
func (c *CooldownTracker) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()
}

func (c *CooldownTracker) run() {
	defer c.wg.Done()

	ticker := time.NewTicker(max(c.window, time.Second))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stopCh:
			return
		}
	}
}

func (c *CooldownTracker) sweep() {
	now := c.now()
	removed := 0

	c.last.Range(func(key, value any) bool {
		if now.Sub(value.(time.Time)) >= c.window {
			c.last.Delete(key)
			removed++
		}
		return true
	})

	if removed > 0 {
		slog.Debug("attack cooldowns expired", "count", removed)
	}
}
