// Package game runs turn-based combats between a party of characters and an
// enemy on top of the component store and the combat systems.
package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/emberdeck/skirmish/internal/game/cards"
	"github.com/emberdeck/skirmish/internal/game/effects"
	"github.com/emberdeck/skirmish/internal/game/position"
	"github.com/emberdeck/skirmish/internal/game/rules"
	"github.com/emberdeck/skirmish/internal/game/state"
	"github.com/emberdeck/skirmish/internal/game/targeting"
	"github.com/emberdeck/skirmish/internal/gamedata"
	"github.com/emberdeck/skirmish/internal/random"
	"go.uber.org/zap"
)

// DefaultHandSize is the number of cards drawn when combat begins.
const DefaultHandSize = 5

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrAlreadyInCombat   = errors.New("session is already in combat")
	ErrNotInCombat       = errors.New("session is not in combat")
	ErrWrongPhase        = errors.New("action not allowed in this phase")
	ErrCardNotInHand     = errors.New("card is not in hand")
	ErrCardNotOwned      = errors.New("card is not owned by a living character")
	ErrCharacterNotOwned = errors.New("character is not owned by the account")
	ErrDuplicateCard     = errors.New("card listed more than once")
)

// AccountDirectory answers the account questions combat setup needs.
type AccountDirectory interface {
	Exists(ctx context.Context, accountID string) (bool, error)
	OwnsCharacters(ctx context.Context, accountID string, characterIDs []string) (bool, error)
}

// Catalog resolves game data ids to definitions.
type Catalog interface {
	Character(id string) (gamedata.Character, error)
	Enemy(id string) (gamedata.Enemy, error)
	ActionCard(id string) (gamedata.ActionCard, error)
	PositionCard(id string) (gamedata.PositionCard, error)
}

// Engine owns the store and the combat systems for every session.
// Calls for the same session are serialized; different sessions run
// independently.
type Engine struct {
	accounts AccountDirectory
	catalog  Catalog
	logger   *zap.Logger

	store      *state.Store
	walker     *rules.Walker
	dispatcher *rules.Dispatcher
	systems    *effects.Systems
	cards      *cards.Manager
	positions  *position.Manager
	selector   *targeting.Selector
	bus        *rules.EventBus
	rand       random.Source

	handSize   int
	journalDir string

	mu       sync.Mutex
	locks    map[string]*sync.Mutex
	journals map[string]*Journal
}

// Option customizes an Engine.
type Option func(*Engine)

// WithRand sets the random source used for draws, peeks, position picks and
// targeting jitter.
func WithRand(src random.Source) Option {
	return func(e *Engine) { e.rand = src }
}

// WithHandSize sets the starting hand size.
func WithHandSize(n int) Option {
	return func(e *Engine) { e.handSize = n }
}

// WithEventBus publishes combat notifications on bus.
func WithEventBus(bus *rules.EventBus) Option {
	return func(e *Engine) { e.bus = bus }
}

// WithJournal saves each finished combat's journal under directory.
func WithJournal(directory string) Option {
	return func(e *Engine) { e.journalDir = directory }
}

// NewEngine wires the store, the combat systems and their collaborators.
func NewEngine(accounts AccountDirectory, catalog Catalog, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		accounts: accounts,
		catalog:  catalog,
		logger:   logger,
		store:    state.NewStore(),
		handSize: DefaultHandSize,
		locks:    make(map[string]*sync.Mutex),
		journals: make(map[string]*Journal),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rand == nil {
		e.rand = random.New(time.Now().UnixNano())
	}
	if e.bus == nil {
		e.bus = rules.NewEventBus()
	}

	e.walker = rules.NewWalker(e.store, logger.Named("traversal"))
	e.dispatcher = rules.NewDispatcher(logger.Named("dispatcher"))
	e.cards = cards.NewManager(e.walker, e.rand, logger.Named("cards"))
	e.positions = position.NewManager(e.store, e.rand, e.bus, logger.Named("position"))
	e.selector = targeting.NewSelector(e.walker, e.rand, logger.Named("targeting"))
	e.systems = effects.Register(e.dispatcher, effects.Deps{
		Walker:    e.walker,
		Cards:     e.cards,
		Positions: e.positions,
		Rand:      e.rand,
		Bus:       e.bus,
		Logger:    logger,
	})
	return e
}

// Bus returns the bus combat notifications are published on.
func (e *Engine) Bus() *rules.EventBus {
	return e.bus
}

// Journal returns the journal of a session's current or last combat.
func (e *Engine) Journal(sessionID string) (*Journal, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	j, ok := e.journals[sessionID]
	return j, ok
}

// OpenSession opens a session for an existing account.
func (e *Engine) OpenSession(ctx context.Context, accountID string) (string, error) {
	exists, err := e.accounts.Exists(ctx, accountID)
	if err != nil {
		return "", fmt.Errorf("failed to look up account: %w", err)
	}
	if !exists {
		return "", fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	}

	sessionID, err := e.store.CreateSession(accountID)
	if err != nil {
		return "", err
	}

	e.logger.Info("session opened",
		zap.String("session_id", sessionID),
		zap.String("account_id", accountID),
	)
	e.bus.Publish(rules.NewEvent(rules.EventSessionOpened, sessionID, accountID, ""))
	return sessionID, nil
}

// lock serializes work on one session.
func (e *Engine) lock(sessionID string) func() {
	e.mu.Lock()
	l, ok := e.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[sessionID] = l
	}
	e.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// combat returns the combat status of a session.
func (e *Engine) combat(sessionID string) (state.CombatStatus, state.Component, error) {
	if _, err := e.store.AccountFor(sessionID); err != nil {
		return state.CombatStatus{}, state.Component{}, err
	}
	ent, err := e.store.FirstWith(sessionID, state.TypeCombatStatus)
	if errors.Is(err, state.ErrNotFound) {
		return state.CombatStatus{}, state.Component{}, fmt.Errorf("%w: %s", ErrNotInCombat, sessionID)
	}
	if err != nil {
		return state.CombatStatus{}, state.Component{}, err
	}
	status, c, _ := state.First[state.CombatStatus](ent)
	return status, c, nil
}

// Phase returns the combat phase of a session.
func (e *Engine) Phase(sessionID string) (state.CombatPhase, error) {
	unlock := e.lock(sessionID)
	defer unlock()

	status, _, err := e.combat(sessionID)
	if err != nil {
		return "", err
	}
	return status.Phase, nil
}

func (e *Engine) requirePhase(sessionID string, want state.CombatPhase) (state.CombatStatus, state.Component, error) {
	status, c, err := e.combat(sessionID)
	if err != nil {
		return state.CombatStatus{}, state.Component{}, err
	}
	if status.Phase != want {
		return state.CombatStatus{}, state.Component{}, fmt.Errorf("%w: phase is %q, want %q", ErrWrongPhase, status.Phase, want)
	}
	return status, c, nil
}

func (e *Engine) enemy(sessionID string) (state.Entity, state.ComponentRef, error) {
	enemy, err := e.store.FirstWith(sessionID, state.TypeEnemyStatus, state.TypeActionDeck)
	if err != nil {
		return state.Entity{}, state.ComponentRef{}, fmt.Errorf("find enemy: %w", err)
	}
	deck, _ := enemy.Component(state.TypeActionDeck)
	return enemy, deck.Ref(), nil
}

// handCard finds cardID in the party's hand and returns it with the living
// character that owns it.
func (e *Engine) handCard(sessionID string, hand state.ComponentRef, cardID string) (state.ComponentRef, state.Entity, error) {
	ref, ok, err := e.cards.Contains(sessionID, hand, cardID)
	if err != nil {
		return state.ComponentRef{}, state.Entity{}, err
	}
	if !ok {
		return state.ComponentRef{}, state.Entity{}, fmt.Errorf("%w: %s", ErrCardNotInHand, cardID)
	}

	owner, ok, err := e.cards.Owner(sessionID, ref)
	if err != nil {
		return state.ComponentRef{}, state.Entity{}, err
	}
	if !ok {
		return state.ComponentRef{}, state.Entity{}, fmt.Errorf("%w: %s has no owner", ErrCardNotOwned, cardID)
	}
	character, err := e.store.Entity(sessionID, owner.ID)
	if err != nil {
		return state.ComponentRef{}, state.Entity{}, err
	}
	if !character.Has(state.TypeCharacterStatus, state.TypeHealth, state.TypeAttacker) {
		return state.ComponentRef{}, state.Entity{}, fmt.Errorf("%w: %s", ErrCardNotOwned, cardID)
	}
	return ref, character, nil
}

func (e *Engine) cardDataID(sessionID string, card state.ComponentRef) string {
	data, _, err := state.Fetch[state.ActionCard](e.store, sessionID, card)
	if err != nil {
		return ""
	}
	return data.DataID
}
