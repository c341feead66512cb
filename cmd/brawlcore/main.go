package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/brawlcore/internal/cache"
	"github.com/udisondev/brawlcore/internal/config"
	"github.com/udisondev/brawlcore/internal/data"
	"github.com/udisondev/brawlcore/internal/game/combat"
	"github.com/udisondev/brawlcore/internal/game/economy"
	"github.com/udisondev/brawlcore/internal/game/effects"
	"github.com/udisondev/brawlcore/internal/game/passive"
	"github.com/udisondev/brawlcore/internal/game/stats"
	"github.com/udisondev/brawlcore/internal/game/tick"
)

const ConfigPath = "config/brawlcore.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("BRAWLCORE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))

	slog.Info("brawlcore starting",
		"log_level", cfg.LogLevel,
		"storage", cfg.Storage,
		"timezone", cfg.Timezone)

	// Storage
	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	items, err := data.LoadItems(cfg.ItemsPath)
	if err != nil {
		return fmt.Errorf("loading items: %w", err)
	}

	// Equipped passive lookups go through Redis when enabled
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("pinging redis %s: %w", cfg.Redis.Addr, err)
		}
		slog.Info("redis connected", "addr", cfg.Redis.Addr)
	}
	equip := cache.NewEquipCache(store.Equip, rdb, cfg.Redis.EquipTTL)

	// Engine wiring
	daily := passive.NewDailyCounters(store.Counters, cfg.Location(), nil)
	registry := passive.NewRegistry()
	dispatcher := passive.NewDispatcher(registry, equip, passive.Env{Daily: daily})

	statStore := stats.NewStore(store.Stats, cfg.Stats.MaxHP, cfg.Stats.MaxShield, nil)
	ledger := effects.NewLedger(store.Effects, dispatcher, cfg.Combat.OutgoingPenalty, nil)

	engine := combat.NewEngine(combat.Deps{
		Stats:     statStore,
		Ledger:    ledger,
		Hooks:     dispatcher,
		Items:     items,
		Inventory: store.Inventory,
		Wallet:    store.Wallet,
		Config:    cfg.Combat,
	})
	econ := economy.NewService(cfg.Economy, dispatcher, store.Wallet, store.Inventory, daily)

	scheduler := tick.NewScheduler(ledger, statStore, dispatcher, cfg.Scheduler.PollPeriod, nil)
	scheduler.SetBroadcaster(logBroadcaster)

	slog.Info("engine ready",
		"items", items.Len(),
		"passives", len(registry.IDs()),
		"attack_cooldown", cfg.Combat.AttackCooldown,
		"poll_period", cfg.Scheduler.PollPeriod)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := scheduler.Start(gctx); err != nil && gctx.Err() == nil {
			return fmt.Errorf("tick scheduler: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		engine.Cooldowns().Start()
		<-gctx.Done()
		engine.Cooldowns().Stop()
		return nil
	})

	if os.Getenv("BRAWLCORE_CONSOLE") != "" {
		con := &console{engine: engine, economy: econ, stats: statStore, ledger: ledger, equip: equip, inv: store.Inventory}
		g.Go(func() error {
			return con.run(gctx, os.Stdin, os.Stdout)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("engine error: %w", err)
	}
	return nil
}

// logBroadcaster is the default notification sink.
func logBroadcaster(_ context.Context, to tick.Recipient, n tick.Notification) {
	slog.Info("effect ticks",
		"id", n.ID,
		"player", to.PlayerID,
		"channel", to.ChannelID,
		"damage", n.Damage,
		"healed", n.Healed,
		"ticks", len(n.Ticks),
		"expired", n.Expired,
		"revived", n.Revived)
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
