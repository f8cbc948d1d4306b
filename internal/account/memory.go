package account

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/google/uuid"
)

type storedAccount struct {
	characters map[string]int
	demons     map[string]int
}

// MemoryRepository keeps accounts for the lifetime of the process.
type MemoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]*storedAccount
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{accounts: make(map[string]*storedAccount)}
}

func (r *MemoryRepository) CreateAccount(context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	r.accounts[id] = &storedAccount{
		characters: make(map[string]int),
		demons:     make(map[string]int),
	}
	return id, nil
}

// account must be called with the lock held.
func (r *MemoryRepository) account(accountID string) (*storedAccount, error) {
	acc, ok := r.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchAccount, accountID)
	}
	return acc, nil
}

func (r *MemoryRepository) AddCharacter(_ context.Context, accountID, dataID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, err := r.account(accountID)
	if err != nil {
		return 0, err
	}
	acc.characters[dataID]++
	return acc.characters[dataID], nil
}

func (r *MemoryRepository) AddDemon(_ context.Context, accountID, dataID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, err := r.account(accountID)
	if err != nil {
		return 0, err
	}
	acc.demons[dataID]++
	return acc.demons[dataID], nil
}

func (r *MemoryRepository) Exists(_ context.Context, accountID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.accounts[accountID]
	return ok, nil
}

func (r *MemoryRepository) HasCharacter(_ context.Context, accountID, dataID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acc, err := r.account(accountID)
	if err != nil {
		return false, err
	}
	_, ok := acc.characters[dataID]
	return ok, nil
}

func (r *MemoryRepository) HasDemon(_ context.Context, accountID, dataID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acc, err := r.account(accountID)
	if err != nil {
		return false, err
	}
	_, ok := acc.demons[dataID]
	return ok, nil
}

func (r *MemoryRepository) Snapshot(_ context.Context, accountID string) (Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acc, err := r.account(accountID)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		ID:         accountID,
		Characters: maps.Clone(acc.characters),
		Demons:     maps.Clone(acc.demons),
	}, nil
}
