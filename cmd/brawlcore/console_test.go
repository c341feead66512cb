package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/brawlcore/internal/cache"
	"github.com/udisondev/brawlcore/internal/config"
	"github.com/udisondev/brawlcore/internal/data"
	"github.com/udisondev/brawlcore/internal/game/combat"
	"github.com/udisondev/brawlcore/internal/game/economy"
	"github.com/udisondev/brawlcore/internal/game/effects"
	"github.com/udisondev/brawlcore/internal/game/passive"
	"github.com/udisondev/brawlcore/internal/game/stats"
)

func newTestConsole(t *testing.T) *console {
	t.Helper()

	cfg := config.Default()
	cfg.Storage = config.StorageMemory
	store, err := openStorage(context.Background(), cfg)
	require.NoError(t, err)

	items, err := data.LoadItems("")
	require.NoError(t, err)

	equip := cache.NewEquipCache(store.Equip, nil, time.Minute)
	daily := passive.NewDailyCounters(store.Counters, time.UTC, nil)
	disp := passive.NewDispatcher(passive.NewRegistry(), equip, passive.Env{Daily: daily})
	st := stats.NewStore(store.Stats, cfg.Stats.MaxHP, cfg.Stats.MaxShield, nil)
	ledger := effects.NewLedger(store.Effects, disp, cfg.Combat.OutgoingPenalty, nil)

	return &console{
		engine: combat.NewEngine(combat.Deps{
			Stats: st, Ledger: ledger, Hooks: disp, Items: items,
			Inventory: store.Inventory, Wallet: store.Wallet, Config: cfg.Combat,
		}),
		economy: economy.NewService(cfg.Economy, disp, store.Wallet, store.Inventory, daily),
		stats:   st,
		ledger:  ledger,
		equip:   equip,
		inv:     store.Inventory,
	}
}

func (c *console) do(t *testing.T, line string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := c.exec(context.Background(), &out, strings.Fields(line))
	return out.String(), err
}

func TestConsole_ShieldAndShow(t *testing.T) {
	c := newTestConsole(t)

	_, err := c.do(t, "give alice buckler 1")
	require.NoError(t, err)

	out, err := c.do(t, "use alice buckler")
	require.NoError(t, err)
	assert.Contains(t, out, "consumed=true")

	out, err = c.do(t, "show alice")
	require.NoError(t, err)
	assert.Contains(t, out, "hp=100/100 shield=30/100")
}

func TestConsole_StatusAndShow(t *testing.T) {
	c := newTestConsole(t)

	out, err := c.do(t, "status bob alice fury 5 1h")
	require.NoError(t, err)
	assert.Contains(t, out, "fury applied to alice")

	out, err = c.do(t, "show alice")
	require.NoError(t, err)
	assert.Contains(t, out, "fury 5.0")
}

func TestConsole_Economy(t *testing.T) {
	c := newTestConsole(t)

	out, err := c.do(t, "daily alice")
	require.NoError(t, err)
	assert.Contains(t, out, "claimed 100")

	_, err = c.do(t, "daily alice")
	require.ErrorIs(t, err, economy.ErrAlreadyClaimed)

	_, err = c.do(t, "give bob stick 1")
	require.NoError(t, err)
	_, err = c.do(t, "equip bob phantom")
	require.NoError(t, err)

	out, err = c.do(t, "steal alice bob stick")
	require.NoError(t, err)
	assert.Contains(t, out, "blocked by phantom")
}

func TestConsole_Errors(t *testing.T) {
	c := newTestConsole(t)

	_, err := c.do(t, "fight alice")
	require.ErrorIs(t, err, errUsage)

	_, err = c.do(t, "dance")
	require.Error(t, err)

	_, err = c.do(t, "give alice laser 1")
	require.ErrorIs(t, err, combat.ErrUnknownItem)

	_, err = c.do(t, "fight alice alice")
	require.ErrorIs(t, err, combat.ErrSelfTarget)

	out, err := c.do(t, "")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLogLevel("debug").String())
	assert.Equal(t, "INFO", parseLogLevel("nonsense").String())
}
