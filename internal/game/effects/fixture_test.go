package effects_test

import (
	"iter"
	"testing"

	"github.com/emberdeck/skirmish/internal/game/cards"
	"github.com/emberdeck/skirmish/internal/game/effects"
	"github.com/emberdeck/skirmish/internal/game/position"
	"github.com/emberdeck/skirmish/internal/game/rules"
	"github.com/emberdeck/skirmish/internal/game/state"
	"github.com/emberdeck/skirmish/internal/random"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fixture struct {
	t          *testing.T
	store      *state.Store
	sessionID  string
	walker     *rules.Walker
	cards      *cards.Manager
	positions  *position.Manager
	dispatcher *rules.Dispatcher
	systems    *effects.Systems
	events     []rules.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := state.NewStore()
	sessionID, err := store.CreateSession("account")
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	rand := random.Fixed{}
	bus := rules.NewEventBus()
	walker := rules.NewWalker(store, logger)
	f := &fixture{
		t:          t,
		store:      store,
		sessionID:  sessionID,
		walker:     walker,
		cards:      cards.NewManager(walker, rand, logger),
		positions:  position.NewManager(store, rand, bus, logger),
		dispatcher: rules.NewDispatcher(logger),
	}
	bus.Subscribe(func(e rules.Event) { f.events = append(f.events, e) })
	f.systems = effects.Register(f.dispatcher, effects.Deps{
		Walker:    walker,
		Cards:     f.cards,
		Positions: f.positions,
		Rand:      rand,
		Bus:       bus,
		Logger:    logger,
	})
	return f
}

func (f *fixture) entity(data ...state.Data) string {
	f.t.Helper()
	id, err := f.store.CreateEntity(f.sessionID)
	require.NoError(f.t, err)
	for _, d := range data {
		_, err := f.store.AddComponent(f.sessionID, id, d)
		require.NoError(f.t, err)
	}
	return id
}

func (f *fixture) fresh(id string) state.Entity {
	f.t.Helper()
	e, err := f.store.Entity(f.sessionID, id)
	require.NoError(f.t, err)
	return e
}

func (f *fixture) combatant(status state.Data, hp, armor, damage int) string {
	f.t.Helper()
	id := f.entity(status, state.Health{HP: hp, MaxHP: hp, BaseArmor: armor}, state.Attacker{BaseDamage: damage})
	require.NoError(f.t, f.cards.SetOwner(f.sessionID, id, cards.OwnerRef(id)))
	return id
}

func (f *fixture) hero(hp, armor, damage int) string {
	return f.combatant(state.CharacterStatus{DataID: "hero"}, hp, armor, damage)
}

func (f *fixture) enemy(hp, armor, damage int) string {
	return f.combatant(state.EnemyStatus{DataID: "enemy"}, hp, armor, damage)
}

func (f *fixture) hp(id string) int {
	f.t.Helper()
	h, _, ok := state.First[state.Health](f.fresh(id))
	require.True(f.t, ok)
	return h.HP
}

// card instantiates an action card whose groups are linked from the root and
// gives it to owner.
func (f *fixture) card(owner string, groups ...state.Template) state.Entity {
	f.t.Helper()
	prefab := state.Prefab{state.RootKey: {{ID: "card", Data: state.ActionCard{DataID: "test"}}}}
	for i, group := range groups {
		key := "group" + string(rune('a'+i))
		prefab[key] = group
		prefab[state.RootKey] = append(prefab[state.RootKey], state.Spec{ID: "link-" + key, Data: state.LinkEffect{Ref: state.Ref(key)}})
	}
	root, err := f.store.Instantiate(f.sessionID, prefab)
	require.NoError(f.t, err)
	if owner != "" {
		require.NoError(f.t, f.cards.ApplyTreeOwnership(f.sessionID, cards.OwnerRef(owner), root.Ref()))
	}
	return f.fresh(root.ID)
}

// passive links an effect entity to owner.
func (f *fixture) passive(owner string, data ...state.Data) string {
	f.t.Helper()
	effect := f.entity(append(data, state.CardOwner{Owner: cards.OwnerRef(owner)})...)
	_, err := f.store.AddComponent(f.sessionID, owner, state.LinkEffect{Ref: state.Ref(effect)})
	require.NoError(f.t, err)
	return effect
}

func (f *fixture) emit(event state.Event, actors rules.Actors, cardRoots ...state.Entity) error {
	refs := make([]state.EntityRef, len(cardRoots))
	for i, c := range cardRoots {
		refs[i] = c.Ref()
	}
	return f.dispatcher.Emit(rules.Pass{SessionID: f.sessionID, Event: event, Actors: actors, Cards: refs})
}

func (f *fixture) eventsOf(t rules.EventType) []rules.Event {
	var out []rules.Event
	for _, e := range f.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func stream(ents ...state.Entity) iter.Seq2[state.Entity, error] {
	return func(yield func(state.Entity, error) bool) {
		for _, e := range ents {
			if !yield(e, nil) {
				return
			}
		}
	}
}
