package rules

import (
	"iter"
	"slices"

	"github.com/emberdeck/skirmish/internal/game/state"
	"go.uber.org/zap"
)

// Walker enumerates effect entities by following link chains through the store.
// Every node is read fresh when it is reached, so mutations made while a
// sequence is being consumed are visible to the rest of the walk.
type Walker struct {
	store  *state.Store
	logger *zap.Logger
}

// NewWalker creates a walker over store.
func NewWalker(store *state.Store, logger *zap.Logger) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{store: store, logger: logger}
}

// Store returns the store the walker reads from.
func (w *Walker) Store() *state.Store {
	return w.store
}

// Linked walks the link chain below root for event. A node becomes active
// once it or an ancestor carries a combat effect for event; active nodes
// that pass the gates are yielded. Children of nodes that fail the gates
// are not visited.
func (w *Walker) Linked(sessionID string, root state.EntityRef, event state.Event, actors Actors) iter.Seq2[state.Entity, error] {
	return func(yield func(state.Entity, error) bool) {
		w.walk(sessionID, root, event, actors, false, nil, yield)
	}
}

// All walks every node below root without event or gate checks.
func (w *Walker) All(sessionID string, root state.EntityRef) iter.Seq2[state.Entity, error] {
	return func(yield func(state.Entity, error) bool) {
		w.walk(sessionID, root, "", nil, true, nil, yield)
	}
}

func (w *Walker) walk(sessionID string, ref state.EntityRef, event state.Event, actors Actors, active bool, path []string, yield func(state.Entity, error) bool) bool {
	ent, err := w.store.EntityByRef(sessionID, ref)
	if err != nil {
		yield(state.Entity{}, err)
		return false
	}

	if !active {
		for _, effect := range state.All[state.CombatEffect](ent) {
			if effect.On == event {
				active = true
				break
			}
		}
	}

	if actors != nil {
		ok, err := Matches(w.store, sessionID, ent, actors)
		if err != nil {
			yield(state.Entity{}, err)
			return false
		}
		if !ok {
			return true
		}
	}

	if active && !yield(ent, nil) {
		return false
	}

	path = append(path, ent.ID)
	for _, link := range state.All[state.LinkEffect](ent) {
		if slices.Contains(path, link.Ref.ID) {
			w.logger.Debug("skipping link back into its own chain",
				zap.String("session_id", sessionID),
				zap.String("entity_id", link.Ref.ID),
			)
			continue
		}
		if !w.walk(sessionID, link.Ref, event, actors, active, path, yield) {
			return false
		}
	}
	return true
}

// Relevant yields every entity carrying rule components that apply to event
// under actors, in accumulation order:
//
//  1. each character's own chain, then the enemy's;
//  2. the chains of the supplied cards;
//  3. each combatant's current position card chain, once plus once per
//     reapply-position marker yielded for that combatant in step 1.
func (w *Walker) Relevant(sessionID string, event state.Event, actors Actors, cards []state.EntityRef) iter.Seq2[state.Entity, error] {
	return func(yield func(state.Entity, error) bool) {
		combatants, err := w.combatants(sessionID)
		if err != nil {
			yield(state.Entity{}, err)
			return
		}

		multipliers := make(map[string]int, len(combatants))
		for _, combatant := range combatants {
			count := 1
			for ent, err := range w.Linked(sessionID, combatant.Ref(), event, actors) {
				if err != nil {
					yield(state.Entity{}, err)
					return
				}
				count += len(ent.Components(state.TypeReapplyPosition))
				if !yield(ent, nil) {
					return
				}
			}
			multipliers[combatant.ID] = count
		}

		for _, card := range cards {
			for ent, err := range w.Linked(sessionID, card, event, actors) {
				if !yield(ent, err) || err != nil {
					return
				}
			}
		}

		for _, combatant := range combatants {
			for i := 0; i < multipliers[combatant.ID]; i++ {
				effectRef, ok, err := w.currentPositionEffect(sessionID, combatant.ID)
				if err != nil {
					yield(state.Entity{}, err)
					return
				}
				if !ok {
					break
				}
				for ent, err := range w.Linked(sessionID, effectRef, event, actors) {
					if !yield(ent, err) || err != nil {
						return
					}
				}
			}
		}
	}
}

// combatants lists characters first, then enemies, in creation order.
func (w *Walker) combatants(sessionID string) ([]state.Entity, error) {
	characters, err := w.store.EntitiesWith(sessionID, state.TypeCharacterStatus)
	if err != nil {
		return nil, err
	}
	enemies, err := w.store.EntitiesWith(sessionID, state.TypeEnemyStatus)
	if err != nil {
		return nil, err
	}
	return append(characters, enemies...), nil
}

func (w *Walker) currentPositionEffect(sessionID, entityID string) (state.EntityRef, bool, error) {
	fresh, err := w.store.Entity(sessionID, entityID)
	if err != nil {
		return state.EntityRef{}, false, err
	}
	pos, _, ok := state.First[state.Position](fresh)
	if !ok || pos.CurrentCardRef.ID == "" {
		return state.EntityRef{}, false, nil
	}
	card, _, err := state.Fetch[state.PositionCard](w.store, sessionID, pos.CurrentCardRef)
	if err != nil {
		return state.EntityRef{}, false, err
	}
	return card.EffectRef, true, nil
}

// Collect drains a sequence, stopping at the first error.
func Collect(seq iter.Seq2[state.Entity, error]) ([]state.Entity, error) {
	var out []state.Entity
	for ent, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, ent)
	}
	return out, nil
}
