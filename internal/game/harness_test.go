package game

import (
	"context"
	"testing"

	"github.com/emberdeck/skirmish/internal/account"
	"github.com/emberdeck/skirmish/internal/game/cards"
	"github.com/emberdeck/skirmish/internal/game/effects"
	"github.com/emberdeck/skirmish/internal/game/rules"
	"github.com/emberdeck/skirmish/internal/game/state"
	"github.com/emberdeck/skirmish/internal/gamedata"
	"github.com/emberdeck/skirmish/internal/random"
	"go.uber.org/zap/zaptest"
)

// combatHarness drives one session through an engine and gives tests direct
// access to the store behind it.
type combatHarness struct {
	t         *testing.T
	engine    *Engine
	accountID string
	sessionID string
	events    []rules.Event
}

// newEngineHarness opens a session for a starter account without beginning
// combat. Picks are deterministic unless opts override the random source.
func newEngineHarness(t *testing.T, opts ...Option) *combatHarness {
	t.Helper()
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	accounts := account.NewService(account.NewMemoryRepository(), logger.Named("accounts"))
	accountID, err := accounts.CreateAccount(ctx, gamedata.StarterCharacters, gamedata.StarterDemons)
	if err != nil {
		t.Fatalf("failed to create account: %v", err)
	}

	opts = append([]Option{WithRand(random.Fixed{}), WithHandSize(DefaultHandSize)}, opts...)
	engine := NewEngine(accounts, gamedata.MustNew(), logger, opts...)

	h := &combatHarness{t: t, engine: engine, accountID: accountID}
	engine.Bus().Subscribe(func(evt rules.Event) {
		h.events = append(h.events, evt)
	})

	h.sessionID, err = engine.OpenSession(ctx, accountID)
	if err != nil {
		t.Fatalf("failed to open session: %v", err)
	}
	return h
}

// newCombatHarness begins combat between party and the jotun.
func newCombatHarness(t *testing.T, party []string, opts ...Option) *combatHarness {
	t.Helper()
	h := newEngineHarness(t, opts...)
	if err := h.engine.BeginCombat(context.Background(), h.sessionID, party, "jotun"); err != nil {
		t.Fatalf("failed to begin combat: %v", err)
	}
	return h
}

func (h *combatHarness) store() *state.Store {
	return h.engine.store
}

func (h *combatHarness) character(dataID string) state.Entity {
	h.t.Helper()
	list, err := h.store().EntitiesWith(h.sessionID, state.TypeCharacterStatus)
	if err != nil {
		h.t.Fatalf("failed to list characters: %v", err)
	}
	for _, ent := range list {
		if status, _, _ := state.First[state.CharacterStatus](ent); status.DataID == dataID {
			return ent
		}
	}
	h.t.Fatalf("character %s not in combat", dataID)
	return state.Entity{}
}

func (h *combatHarness) enemy() state.Entity {
	h.t.Helper()
	ent, err := h.store().FirstWith(h.sessionID, state.TypeEnemyStatus)
	if err != nil {
		h.t.Fatalf("failed to find enemy: %v", err)
	}
	return ent
}

func (h *combatHarness) entity(id string) state.Entity {
	h.t.Helper()
	ent, err := h.store().Entity(h.sessionID, id)
	if err != nil {
		h.t.Fatalf("failed to read entity %s: %v", id, err)
	}
	return ent
}

func (h *combatHarness) hp(id string) int {
	h.t.Helper()
	health, _, ok := state.First[state.Health](h.entity(id))
	if !ok {
		h.t.Fatalf("entity %s has no health", id)
	}
	return health.HP
}

func (h *combatHarness) setHP(id string, hp int) {
	h.t.Helper()
	_, c, ok := state.First[state.Health](h.entity(id))
	if !ok {
		h.t.Fatalf("entity %s has no health", id)
	}
	if _, err := state.Update(h.store(), h.sessionID, c, func(v *state.Health) { v.HP = hp }); err != nil {
		h.t.Fatalf("failed to set hp: %v", err)
	}
}

func (h *combatHarness) piles() (hand, deck state.ComponentRef) {
	h.t.Helper()
	hand, deck, err := effects.Player(h.store(), h.sessionID)
	if err != nil {
		h.t.Fatalf("failed to find player: %v", err)
	}
	return hand, deck
}

func (h *combatHarness) hand() []state.ComponentRef {
	h.t.Helper()
	ref, _ := h.piles()
	hand, _, err := state.Fetch[state.Hand](h.store(), h.sessionID, ref)
	if err != nil {
		h.t.Fatalf("failed to read hand: %v", err)
	}
	return hand.CardRefs
}

func (h *combatHarness) deck() []state.ComponentRef {
	h.t.Helper()
	_, ref := h.piles()
	deck, _, err := state.Fetch[state.ActionDeck](h.store(), h.sessionID, ref)
	if err != nil {
		h.t.Fatalf("failed to read deck: %v", err)
	}
	return deck.CardRefs
}

// handCard returns the id of the first card in hand with dataID.
func (h *combatHarness) handCard(dataID string) string {
	h.t.Helper()
	for _, ref := range h.hand() {
		if h.dataID(ref) == dataID {
			return ref.ID
		}
	}
	h.t.Fatalf("no %s card in hand", dataID)
	return ""
}

func (h *combatHarness) dataID(card state.ComponentRef) string {
	h.t.Helper()
	data, _, err := state.Fetch[state.ActionCard](h.store(), h.sessionID, card)
	if err != nil {
		h.t.Fatalf("failed to read card %s: %v", card, err)
	}
	return data.DataID
}

func (h *combatHarness) owner(card state.ComponentRef) string {
	h.t.Helper()
	owner, ok, err := h.engine.cards.Owner(h.sessionID, card)
	if err != nil || !ok {
		h.t.Fatalf("card %s has no owner: %v", card, err)
	}
	return owner.ID
}

func (h *combatHarness) status() state.CombatStatus {
	h.t.Helper()
	status, _, err := h.engine.combat(h.sessionID)
	if err != nil {
		h.t.Fatalf("failed to read combat status: %v", err)
	}
	return status
}

func (h *combatHarness) checksum() string {
	h.t.Helper()
	sum, err := h.store().Checksum(h.sessionID)
	if err != nil {
		h.t.Fatalf("failed to compute checksum: %v", err)
	}
	return sum
}

func (h *combatHarness) eventsOf(t rules.EventType) []rules.Event {
	var out []rules.Event
	for _, evt := range h.events {
		if evt.Type == t {
			out = append(out, evt)
		}
	}
	return out
}

// setEnemyDeck replaces the enemy deck with fresh copies of the given cards,
// all owned by the enemy. No ids leaves the deck empty.
func (h *combatHarness) setEnemyDeck(dataIDs ...string) {
	h.t.Helper()
	enemy := h.enemy()
	_, c, ok := state.First[state.ActionDeck](enemy)
	if !ok {
		h.t.Fatalf("enemy has no deck")
	}
	if _, err := state.Update(h.store(), h.sessionID, c, func(d *state.ActionDeck) { d.CardRefs = nil }); err != nil {
		h.t.Fatalf("failed to clear enemy deck: %v", err)
	}

	catalog := gamedata.MustNew()
	prefabs := make([]state.Prefab, 0, len(dataIDs))
	for _, id := range dataIDs {
		card, err := catalog.ActionCard(id)
		if err != nil {
			h.t.Fatalf("unknown card %s: %v", id, err)
		}
		prefabs = append(prefabs, card.Prefab)
	}
	added, err := h.engine.cards.CreateDeck(h.sessionID, c.Ref(), prefabs)
	if err != nil {
		h.t.Fatalf("failed to fill enemy deck: %v", err)
	}
	for _, ref := range added {
		if err := h.engine.cards.ApplyCardOwnership(h.sessionID, cards.OwnerRef(enemy.ID), ref); err != nil {
			h.t.Fatalf("failed to give card to enemy: %v", err)
		}
	}
}
