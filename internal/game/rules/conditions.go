package rules

import (
	"github.com/emberdeck/skirmish/internal/game/state"
)

// Matches evaluates the owner, position and team gates of candidate.
// A gate kind that is absent from the candidate passes.
func Matches(store *state.Store, sessionID string, candidate state.Entity, actors Actors) (bool, error) {
	if ok := matchOwner(candidate, actors); !ok {
		return false, nil
	}
	ok, err := matchPosition(store, sessionID, candidate, actors)
	if err != nil || !ok {
		return false, err
	}
	return matchTeam(store, sessionID, candidate, actors)
}

func matchOwner(candidate state.Entity, actors Actors) bool {
	gates := state.All[state.IfOwnerIs](candidate)
	if len(gates) == 0 {
		return true
	}
	owner, _, ok := state.First[state.CardOwner](candidate)
	if !ok {
		return false
	}

	for _, gate := range gates {
		if gate.Owner == state.ActorInactive {
			// Only the active actor is excluded; the reactive actor still counts as inactive.
			if active, bound := actors.Get(state.ActorActive); bound && owner.Owner.ID == active.ID {
				return false
			}
			continue
		}
		bound, ok := actors.Get(gate.Owner)
		if !ok || bound.ID != owner.Owner.ID {
			return false
		}
	}
	return true
}

func matchPosition(store *state.Store, sessionID string, candidate state.Entity, actors Actors) (bool, error) {
	for _, gate := range state.All[state.IfPosition](candidate) {
		actor, ok, err := ResolveActor(store, sessionID, candidate, gate.ApplyTo, actors)
		if err != nil || !ok {
			return false, err
		}
		tags, ok, err := CurrentPositionTags(store, sessionID, actor.ID)
		if err != nil || !ok {
			return false, err
		}
		if !tags.Includes(gate.Tags) {
			return false, nil
		}
	}
	return true, nil
}

func matchTeam(store *state.Store, sessionID string, candidate state.Entity, actors Actors) (bool, error) {
	gates := state.All[state.IfTeamIs](candidate)
	if len(gates) == 0 {
		return true, nil
	}
	owner, _, ok := state.First[state.CardOwner](candidate)
	if !ok {
		return false, nil
	}
	ownerEntity, err := store.Entity(sessionID, owner.Owner.ID)
	if err != nil {
		return false, err
	}
	sameTeam := isCharacter(ownerEntity) == activeIsCharacter(actors)

	for _, gate := range gates {
		switch gate.Team {
		case state.TeamActive:
			if !sameTeam {
				return false, nil
			}
		case state.TeamReactive:
			if sameTeam {
				return false, nil
			}
		default:
			return false, nil
		}
	}
	return true, nil
}

func isCharacter(e state.Entity) bool {
	return e.Has(state.TypeCharacterStatus)
}

func activeIsCharacter(actors Actors) bool {
	if active, ok := actors.Get(state.ActorActive); ok {
		return isCharacter(active)
	}
	if reactive, ok := actors.Get(state.ActorReactive); ok {
		return !isCharacter(reactive)
	}
	return true
}

// ResolveActor returns the entity bound to tag. ActorOwner resolves through
// the card owner of from. The owner ref's required types are not enforced;
// callers check the components they need.
func ResolveActor(store *state.Store, sessionID string, from state.Entity, tag state.ActorTag, actors Actors) (state.Entity, bool, error) {
	if tag != state.ActorOwner {
		e, ok := actors.Get(tag)
		return e, ok, nil
	}
	owner, _, ok := state.First[state.CardOwner](from)
	if !ok {
		return state.Entity{}, false, nil
	}
	e, err := store.Entity(sessionID, owner.Owner.ID)
	if err != nil {
		return state.Entity{}, false, err
	}
	return e, true, nil
}

// CurrentPositionTags reads the tags of the position card an entity currently holds.
func CurrentPositionTags(store *state.Store, sessionID, entityID string) (state.Tags, bool, error) {
	fresh, err := store.Entity(sessionID, entityID)
	if err != nil {
		return nil, false, err
	}
	pos, _, ok := state.First[state.Position](fresh)
	if !ok || pos.CurrentCardRef.ID == "" {
		return nil, false, nil
	}
	card, _, err := state.Fetch[state.PositionCard](store, sessionID, pos.CurrentCardRef)
	if err != nil {
		return nil, false, err
	}
	return card.Tags, true, nil
}
