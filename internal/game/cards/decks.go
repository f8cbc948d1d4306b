// Package cards manages action decks, hands and card ownership.
package cards

import (
	"errors"
	"fmt"
	"slices"

	"github.com/emberdeck/skirmish/internal/game/rules"
	"github.com/emberdeck/skirmish/internal/game/state"
	"github.com/emberdeck/skirmish/internal/random"
	"go.uber.org/zap"
)

// ErrNotInPile is returned when a card is not in the hand or deck it is taken from.
var ErrNotInPile = errors.New("card is not in that pile")

// Manager implements deck, hand and ownership operations over the store.
type Manager struct {
	store  *state.Store
	walker *rules.Walker
	rand   random.Source
	logger *zap.Logger
}

// NewManager creates a card manager.
func NewManager(walker *rules.Walker, rand random.Source, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: walker.Store(), walker: walker, rand: rand, logger: logger}
}

// pile reads the card refs of a hand or deck component.
func (m *Manager) pile(sessionID string, ref state.ComponentRef) ([]state.ComponentRef, state.Component, error) {
	c, err := m.store.ComponentByRef(sessionID, ref)
	if err != nil {
		return nil, state.Component{}, err
	}
	switch v := c.Data.(type) {
	case state.ActionDeck:
		return v.CardRefs, c, nil
	case state.Hand:
		return v.CardRefs, c, nil
	default:
		return nil, state.Component{}, fmt.Errorf("%w: %s is not a card pile", state.ErrRefCorrupted, ref)
	}
}

func (m *Manager) setPile(sessionID string, c state.Component, refs []state.ComponentRef) error {
	var data state.Data
	switch c.Data.(type) {
	case state.ActionDeck:
		data = state.ActionDeck{CardRefs: refs}
	case state.Hand:
		data = state.Hand{CardRefs: refs}
	default:
		return fmt.Errorf("%w: %s is not a card pile", state.ErrRefCorrupted, c.Ref())
	}
	_, err := m.store.UpdateComponent(sessionID, c, data)
	return err
}

// CreateDeck instantiates card prefabs and appends them to the pile at deck.
func (m *Manager) CreateDeck(sessionID string, deck state.ComponentRef, prefabs []state.Prefab) ([]state.ComponentRef, error) {
	added := make([]state.ComponentRef, 0, len(prefabs))
	for _, prefab := range prefabs {
		root, err := m.store.Instantiate(sessionID, prefab)
		if err != nil {
			return nil, err
		}
		_, card, ok := state.First[state.ActionCard](root)
		if !ok {
			return nil, fmt.Errorf("%w: card prefab root has no %q", state.ErrIllegalPrefab, state.TypeActionCard)
		}
		added = append(added, card.Ref())
	}

	refs, c, err := m.pile(sessionID, deck)
	if err != nil {
		return nil, err
	}
	if err := m.setPile(sessionID, c, append(refs, added...)); err != nil {
		return nil, err
	}
	return added, nil
}

// Draw moves up to n uniformly random cards from one pile to another. When
// owner is non-empty only cards owned by that entity are eligible.
func (m *Manager) Draw(sessionID string, from, to state.ComponentRef, n int, owner string) ([]state.ComponentRef, error) {
	source, sourceComponent, err := m.pile(sessionID, from)
	if err != nil {
		return nil, err
	}
	target, targetComponent, err := m.pile(sessionID, to)
	if err != nil {
		return nil, err
	}

	eligible := make([]int, 0, len(source))
	for i, card := range source {
		if owner != "" {
			cardOwner, ok, err := m.Owner(sessionID, card)
			if err != nil {
				return nil, err
			}
			if !ok || cardOwner.ID != owner {
				continue
			}
		}
		eligible = append(eligible, i)
	}

	var drawn []state.ComponentRef
	taken := make(map[int]bool)
	for len(drawn) < n && len(eligible) > 0 {
		pick := m.rand.Intn(len(eligible))
		idx := eligible[pick]
		eligible = slices.Delete(eligible, pick, pick+1)
		taken[idx] = true
		drawn = append(drawn, source[idx])
	}
	if len(drawn) == 0 {
		return nil, nil
	}

	remaining := make([]state.ComponentRef, 0, len(source)-len(drawn))
	for i, card := range source {
		if !taken[i] {
			remaining = append(remaining, card)
		}
	}
	if err := m.setPile(sessionID, sourceComponent, remaining); err != nil {
		return nil, err
	}
	if err := m.setPile(sessionID, targetComponent, append(target, drawn...)); err != nil {
		return nil, err
	}
	return drawn, nil
}

// Peek picks a uniformly random card from a pile without removing it.
func (m *Manager) Peek(sessionID string, from state.ComponentRef) (*state.ComponentRef, error) {
	refs, _, err := m.pile(sessionID, from)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, nil
	}
	card := refs[m.rand.Intn(len(refs))]
	return &card, nil
}

// Discard moves card from hand to the end of deck.
func (m *Manager) Discard(sessionID string, hand, deck, card state.ComponentRef) error {
	handRefs, handComponent, err := m.pile(sessionID, hand)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(handRefs, func(r state.ComponentRef) bool { return r.ID == card.ID })
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotInPile, card)
	}
	deckRefs, deckComponent, err := m.pile(sessionID, deck)
	if err != nil {
		return err
	}
	if err := m.setPile(sessionID, handComponent, slices.Delete(handRefs, idx, idx+1)); err != nil {
		return err
	}
	return m.setPile(sessionID, deckComponent, append(deckRefs, card))
}

// Take removes card from a pile without placing it anywhere. A card in play
// is taken from the hand so that effects resolving meanwhile cannot move it.
func (m *Manager) Take(sessionID string, pile, card state.ComponentRef) error {
	refs, c, err := m.pile(sessionID, pile)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(refs, func(r state.ComponentRef) bool { return r.ID == card.ID })
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotInPile, card)
	}
	return m.setPile(sessionID, c, slices.Delete(refs, idx, idx+1))
}

// PutBottom appends card to the end of a pile.
func (m *Manager) PutBottom(sessionID string, pile, card state.ComponentRef) error {
	refs, c, err := m.pile(sessionID, pile)
	if err != nil {
		return err
	}
	if slices.ContainsFunc(refs, func(r state.ComponentRef) bool { return r.ID == card.ID }) {
		return fmt.Errorf("%w: %s is already in %s", state.ErrRefCorrupted, card, pile)
	}
	return m.setPile(sessionID, c, append(refs, card))
}

// Contains reports whether a pile holds a card with cardID.
func (m *Manager) Contains(sessionID string, pile state.ComponentRef, cardID string) (state.ComponentRef, bool, error) {
	refs, _, err := m.pile(sessionID, pile)
	if err != nil {
		return state.ComponentRef{}, false, err
	}
	for _, ref := range refs {
		if ref.ID == cardID {
			return ref, true, nil
		}
	}
	return state.ComponentRef{}, false, nil
}

// Purge removes every card owned by owner from the given piles and returns
// how many were removed.
func (m *Manager) Purge(sessionID, owner string, piles ...state.ComponentRef) (int, error) {
	removed := 0
	for _, pileRef := range piles {
		refs, c, err := m.pile(sessionID, pileRef)
		if err != nil {
			return removed, err
		}
		kept := make([]state.ComponentRef, 0, len(refs))
		for _, card := range refs {
			cardOwner, ok, err := m.Owner(sessionID, card)
			if err != nil {
				return removed, err
			}
			if ok && cardOwner.ID == owner {
				removed++
				continue
			}
			kept = append(kept, card)
		}
		if len(kept) != len(refs) {
			if err := m.setPile(sessionID, c, kept); err != nil {
				return removed, err
			}
		}
	}
	return removed, nil
}

// CardEntity returns the root entity of an action card.
func (m *Manager) CardEntity(sessionID string, card state.ComponentRef) (state.Entity, error) {
	c, err := m.store.ComponentByRef(sessionID, card)
	if err != nil {
		return state.Entity{}, err
	}
	return m.store.Entity(sessionID, c.EntityID)
}
