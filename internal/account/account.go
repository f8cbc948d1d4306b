// Package account stores the long-lived player data: which characters and
// demons an account owns, and how many lives each has.
package account

import (
	"context"
	"errors"
)

// ErrNoSuchAccount is returned for operations on an unknown account id.
var ErrNoSuchAccount = errors.New("no such account")

// Snapshot captures an account for external use. Maps hold lives by data id.
type Snapshot struct {
	ID         string
	Characters map[string]int
	Demons     map[string]int
}

// Repository persists accounts. Implementations are safe for concurrent use.
type Repository interface {
	CreateAccount(ctx context.Context) (string, error)
	// AddCharacter grants a character, or one more life if already owned,
	// and returns the resulting lives.
	AddCharacter(ctx context.Context, accountID, dataID string) (int, error)
	AddDemon(ctx context.Context, accountID, dataID string) (int, error)
	Exists(ctx context.Context, accountID string) (bool, error)
	HasCharacter(ctx context.Context, accountID, dataID string) (bool, error)
	HasDemon(ctx context.Context, accountID, dataID string) (bool, error)
	Snapshot(ctx context.Context, accountID string) (Snapshot, error)
}
