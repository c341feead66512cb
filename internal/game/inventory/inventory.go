// Package inventory declares the item and currency collaborators the combat
// engine consumes. Bookkeeping itself lives outside the engine.
package inventory

import (
	"context"
	"errors"
)

//go:generate go tool mockgen -destination=./mocks/inventory_mock.go -package=mocks . Store,Wallet

// ErrNotEnough is returned by Consume when the holder has fewer items than requested.
var ErrNotEnough = errors.New("not enough items")

// Store gates item use.
type Store interface {
	// Quantity returns how many units of itemID the player holds.
	Quantity(ctx context.Context, playerID, itemID string) (int, error)
	// Consume removes qty units; returns ErrNotEnough if the player holds fewer.
	Consume(ctx context.Context, playerID, itemID string, qty int) error
	// Grant adds qty units.
	Grant(ctx context.Context, playerID, itemID string, qty int) error
}

// Wallet credits coin-denominated rewards.
type Wallet interface {
	AddCoins(ctx context.Context, playerID string, amount int64) (int64, error)
	Balance(ctx context.Context, playerID string) (int64, error)
}
