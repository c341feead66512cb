package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/udisondev/brawlcore/internal/cache"
	"github.com/udisondev/brawlcore/internal/config"
	"github.com/udisondev/brawlcore/internal/db"
	"github.com/udisondev/brawlcore/internal/db/memstore"
	"github.com/udisondev/brawlcore/internal/game/effects"
	"github.com/udisondev/brawlcore/internal/game/inventory"
	"github.com/udisondev/brawlcore/internal/game/passive"
	"github.com/udisondev/brawlcore/internal/game/stats"
)

// storage bundles the durable stores behind the engine.
type storage struct {
	Stats     stats.Repository
	Effects   effects.Repository
	Counters  passive.CounterStore
	Equip     cache.EquipStore
	Inventory inventory.Store
	Wallet    inventory.Wallet

	closeFn func()
}

func (s *storage) Close() {
	if s.closeFn != nil {
		s.closeFn()
	}
}

func openStorage(ctx context.Context, cfg config.Engine) (*storage, error) {
	if cfg.Storage == config.StorageMemory {
		slog.Warn("using in-memory storage, state is lost on exit")
		return &storage{
			Stats:     memstore.NewStats(),
			Effects:   memstore.NewEffects(),
			Counters:  memstore.NewCounters(),
			Equip:     memstore.NewEquip(),
			Inventory: memstore.NewInventory(),
			Wallet:    memstore.NewWallet(),
		}, nil
	}

	dsn := cfg.Database.DSN()
	database, err := db.New(ctx, dsn, cfg.Database.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	slog.Info("database connected", "host", cfg.Database.Host, "db", cfg.Database.DBName)

	version, err := db.RunMigrations(ctx, dsn)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database migrations applied", "version", version)

	pool := database.Pool()
	return &storage{
		Stats:     db.NewStatsRepository(pool),
		Effects:   db.NewEffectRepository(pool),
		Counters:  db.NewCounterRepository(pool),
		Equip:     db.NewEquipRepository(pool),
		Inventory: db.NewInventoryRepository(pool),
		Wallet:    db.NewWalletRepository(pool),
		closeFn:   database.Close,
	}, nil
}
