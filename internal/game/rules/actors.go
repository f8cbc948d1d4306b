package rules

import "github.com/emberdeck/skirmish/internal/game/state"

// Actors binds actor tags to concrete entities for one resolution pass.
// A nil Actors disables conditional matching during traversal.
type Actors map[state.ActorTag]state.Entity

// Bind creates the bindings for one side acting against the other.
func Bind(active, reactive state.Entity) Actors {
	return Actors{
		state.ActorActive:   active,
		state.ActorReactive: reactive,
	}
}

// Get returns the entity bound to tag.
func (a Actors) Get(tag state.ActorTag) (state.Entity, bool) {
	if a == nil {
		return state.Entity{}, false
	}
	e, ok := a[tag]
	return e, ok
}

// With returns a copy of a with tag bound to e.
func (a Actors) With(tag state.ActorTag, e state.Entity) Actors {
	out := make(Actors, len(a)+1)
	for k, v := range a {
		out[k] = v
	}
	out[tag] = e
	return out
}

// Attacking returns a copy of a with attacker and defender bound.
func (a Actors) Attacking(attacker, defender state.Entity) Actors {
	return a.With(state.ActorAttacker, attacker).With(state.ActorDefender, defender)
}

// Swapped exchanges the active and reactive bindings and drops attacker/defender.
func (a Actors) Swapped() Actors {
	out := make(Actors, 2)
	if e, ok := a[state.ActorActive]; ok {
		out[state.ActorReactive] = e
	}
	if e, ok := a[state.ActorReactive]; ok {
		out[state.ActorActive] = e
	}
	return out
}
