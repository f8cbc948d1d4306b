package cards

import (
	"github.com/emberdeck/skirmish/internal/game/state"
	"go.uber.org/zap"
)

// SetOwner sets or replaces the card owner of an entity.
func (m *Manager) SetOwner(sessionID, entityID string, owner state.EntityRef) error {
	ent, err := m.store.Entity(sessionID, entityID)
	if err != nil {
		return err
	}
	if existing, ok := ent.Component(state.TypeCardOwner); ok {
		_, err = m.store.UpdateComponent(sessionID, existing, state.CardOwner{Owner: owner})
		return err
	}
	_, err = m.store.AddComponent(sessionID, entityID, state.CardOwner{Owner: owner})
	return err
}

// ApplyTreeOwnership sets owner on root and every entity linked below it.
func (m *Manager) ApplyTreeOwnership(sessionID string, owner state.EntityRef, root state.EntityRef) error {
	for ent, err := range m.walker.All(sessionID, root) {
		if err != nil {
			return err
		}
		if err := m.SetOwner(sessionID, ent.ID, owner); err != nil {
			return err
		}
	}
	return nil
}

// ApplyCardOwnership gives an action card and its effect tree to owner.
func (m *Manager) ApplyCardOwnership(sessionID string, owner state.EntityRef, card state.ComponentRef) error {
	c, err := m.store.ComponentByRef(sessionID, card)
	if err != nil {
		return err
	}
	return m.ApplyTreeOwnership(sessionID, owner, state.Ref(c.EntityID))
}

// ApplySelfOwnership makes a combatant own itself, everything linked to it,
// its position cards and the given action cards.
func (m *Manager) ApplySelfOwnership(sessionID string, self state.Entity, deck []state.ComponentRef) error {
	owner := OwnerRef(self.ID)
	if err := m.ApplyTreeOwnership(sessionID, owner, self.Ref()); err != nil {
		return err
	}

	fresh, err := m.store.Entity(sessionID, self.ID)
	if err != nil {
		return err
	}
	if pos, _, ok := state.First[state.Position](fresh); ok {
		for _, stage := range pos.AllCardRefs {
			for _, ref := range stage {
				card, _, err := state.Fetch[state.PositionCard](m.store, sessionID, ref)
				if err != nil {
					return err
				}
				if err := m.ApplyTreeOwnership(sessionID, owner, card.EffectRef); err != nil {
					return err
				}
			}
		}
	}

	for _, card := range deck {
		if err := m.ApplyCardOwnership(sessionID, owner, card); err != nil {
			return err
		}
	}

	m.logger.Debug("applied self ownership",
		zap.String("session_id", sessionID),
		zap.String("owner_id", self.ID),
		zap.Int("cards", len(deck)),
	)
	return nil
}

// Owner returns the owner recorded on an action card's root entity.
func (m *Manager) Owner(sessionID string, card state.ComponentRef) (state.EntityRef, bool, error) {
	ent, err := m.CardEntity(sessionID, card)
	if err != nil {
		return state.EntityRef{}, false, err
	}
	owner, _, ok := state.First[state.CardOwner](ent)
	return owner.Owner, ok, nil
}

// OwnerRef is the ref shape stored in card owner components: owners are
// combatants that can both take and deal damage.
func OwnerRef(entityID string) state.EntityRef {
	return state.Ref(entityID, state.TypeHealth, state.TypeAttacker)
}
