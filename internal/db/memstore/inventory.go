package memstore

import (
	"context"
	"sync"

	"github.com/udisondev/brawlcore/internal/game/inventory"
)

type itemKey struct {
	playerID string
	itemID   string
}

// Inventory is an in-memory inventory.Store.
type Inventory struct {
	mu    sync.Mutex
	items map[itemKey]int
}

// NewInventory creates an empty inventory.
func NewInventory() *Inventory {
	return &Inventory{items: make(map[itemKey]int)}
}

func (i *Inventory) Quantity(_ context.Context, playerID, itemID string) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.items[itemKey{playerID, itemID}], nil
}

func (i *Inventory) Consume(_ context.Context, playerID, itemID string, qty int) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	k := itemKey{playerID, itemID}
	if i.items[k] < qty {
		return inventory.ErrNotEnough
	}
	i.items[k] -= qty
	return nil
}

func (i *Inventory) Grant(_ context.Context, playerID, itemID string, qty int) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.items[itemKey{playerID, itemID}] += qty
	return nil
}

// Wallet is an in-memory inventory.Wallet.
type Wallet struct {
	mu    sync.Mutex
	coins map[string]int64
}

// NewWallet creates an empty wallet store.
func NewWallet() *Wallet {
	return &Wallet{coins: make(map[string]int64)}
}

func (w *Wallet) AddCoins(_ context.Context, playerID string, amount int64) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	bal := max(w.coins[playerID]+amount, 0)
	w.coins[playerID] = bal
	return bal, nil
}

func (w *Wallet) Balance(_ context.Context, playerID string) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.coins[playerID], nil
}
