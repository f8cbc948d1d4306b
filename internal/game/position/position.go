// Package position manages each combatant's three-stage position deck.
package position

import (
	"errors"
	"fmt"

	"github.com/emberdeck/skirmish/internal/game/rules"
	"github.com/emberdeck/skirmish/internal/game/state"
	"github.com/emberdeck/skirmish/internal/random"
	"go.uber.org/zap"
)

// Stages is the number of position stages.
const Stages = 3

// ErrNoPosition is returned when an entity has no position component.
var ErrNoPosition = errors.New("entity has no position")

// Manager creates and advances position decks.
type Manager struct {
	store  *state.Store
	rand   random.Source
	bus    *rules.EventBus
	logger *zap.Logger
}

// NewManager creates a position manager. bus may be nil.
func NewManager(store *state.Store, rand random.Source, bus *rules.EventBus, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, rand: rand, bus: bus, logger: logger}
}

// Create instantiates every stage pool for owner, attaches the position
// component and picks a random stage-0 card.
func (m *Manager) Create(sessionID, owner string, stages [Stages][]state.Prefab) (state.Component, error) {
	var pos state.Position
	for stage, prefabs := range stages {
		for _, prefab := range prefabs {
			root, err := m.store.Instantiate(sessionID, prefab)
			if err != nil {
				return state.Component{}, fmt.Errorf("stage %d: %w", stage, err)
			}
			_, card, ok := state.First[state.PositionCard](root)
			if !ok {
				return state.Component{}, fmt.Errorf("%w: position prefab root has no %q", state.ErrIllegalPrefab, state.TypePositionCard)
			}
			pos.AllCardRefs[stage] = append(pos.AllCardRefs[stage], card.Ref())
		}
	}
	if pick, ok := m.pick(pos.AllCardRefs[0]); ok {
		pos.CurrentCardRef = pick
	}
	return m.store.AddComponent(sessionID, owner, pos)
}

// Current returns the position card an entity currently holds.
func (m *Manager) Current(sessionID, entityID string) (state.PositionCard, state.Component, error) {
	pos, _, err := m.position(sessionID, entityID)
	if err != nil {
		return state.PositionCard{}, state.Component{}, err
	}
	if pos.CurrentCardRef.ID == "" {
		return state.PositionCard{}, state.Component{}, fmt.Errorf("current position card of %s: %w", entityID, state.ErrNotFound)
	}
	return state.Fetch[state.PositionCard](m.store, sessionID, pos.CurrentCardRef)
}

// Enqueue appends a tag filter for a later Advance. It does not change the
// current card.
func (m *Manager) Enqueue(sessionID, entityID string, tags state.Tags) error {
	_, c, err := m.position(sessionID, entityID)
	if err != nil {
		return err
	}
	_, err = state.Update(m.store, sessionID, c, func(p *state.Position) {
		p.NextCardTags = append(p.NextCardTags, append(state.Tags(nil), tags...))
	})
	if err != nil {
		return err
	}

	evt := rules.NewEvent(rules.EventPositionQueued, sessionID, "", entityID)
	evt.Metadata["tags"] = fmt.Sprint(tags)
	m.bus.Publish(evt)
	return nil
}

// Advance moves the entity through its stages and draws the next current card.
// A queued tag filter narrows the pick to cards carrying all of its tags; with
// no filter, or no card matching it, any card of the stage can be picked.
func (m *Manager) Advance(sessionID, entityID string) (state.ComponentRef, error) {
	pos, c, err := m.position(sessionID, entityID)
	if err != nil {
		return state.ComponentRef{}, err
	}

	if pos.Stage < Stages-1 {
		if pos.TurnsInStage >= pos.Stage {
			pos.Stage++
			pos.TurnsInStage = 0
		} else {
			pos.TurnsInStage++
		}
	}

	pool := pos.AllCardRefs[pos.Stage]
	if len(pos.NextCardTags) > 0 {
		filter := pos.NextCardTags[0]
		pos.NextCardTags = pos.NextCardTags[1:]

		matching, err := m.matching(sessionID, pool, filter)
		if err != nil {
			return state.ComponentRef{}, err
		}
		if len(matching) > 0 {
			pool = matching
		} else {
			m.logger.Debug("no position card matches queued tags",
				zap.String("session_id", sessionID),
				zap.String("entity_id", entityID),
				zap.Any("tags", filter),
			)
		}
	}
	if pick, ok := m.pick(pool); ok {
		pos.CurrentCardRef = pick
	}

	if _, err := m.store.UpdateComponent(sessionID, c, pos); err != nil {
		return state.ComponentRef{}, err
	}

	evt := rules.NewEventWithAmount(rules.EventPositionChanged, sessionID, pos.CurrentCardRef.ID, entityID, pos.Stage)
	m.bus.Publish(evt)
	return pos.CurrentCardRef, nil
}

func (m *Manager) matching(sessionID string, pool []state.ComponentRef, filter state.Tags) ([]state.ComponentRef, error) {
	var out []state.ComponentRef
	for _, ref := range pool {
		card, _, err := state.Fetch[state.PositionCard](m.store, sessionID, ref)
		if err != nil {
			return nil, err
		}
		if card.Tags.Includes(filter) {
			out = append(out, ref)
		}
	}
	return out, nil
}

func (m *Manager) pick(pool []state.ComponentRef) (state.ComponentRef, bool) {
	if len(pool) == 0 {
		return state.ComponentRef{}, false
	}
	return pool[m.rand.Intn(len(pool))], true
}

func (m *Manager) position(sessionID, entityID string) (state.Position, state.Component, error) {
	ent, err := m.store.Entity(sessionID, entityID)
	if err != nil {
		return state.Position{}, state.Component{}, err
	}
	pos, c, ok := state.First[state.Position](ent)
	if !ok {
		return state.Position{}, state.Component{}, fmt.Errorf("%w: %s", ErrNoPosition, entityID)
	}
	return pos, c, nil
}
