package cards_test

import (
	"testing"

	"github.com/emberdeck/skirmish/internal/game/cards"
	"github.com/emberdeck/skirmish/internal/game/rules"
	"github.com/emberdeck/skirmish/internal/game/state"
	"github.com/emberdeck/skirmish/internal/random"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type table struct {
	store     *state.Store
	sessionID string
	manager   *cards.Manager
	hand      state.ComponentRef
	deck      state.ComponentRef
}

func newTable(t *testing.T) *table {
	t.Helper()
	store := state.NewStore()
	sessionID, err := store.CreateSession("account")
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	manager := cards.NewManager(rules.NewWalker(store, logger), random.Fixed{}, logger)

	player, err := store.CreateEntity(sessionID)
	require.NoError(t, err)
	hand, err := store.AddComponent(sessionID, player, state.Hand{})
	require.NoError(t, err)
	deck, err := store.AddComponent(sessionID, player, state.ActionDeck{})
	require.NoError(t, err)

	return &table{store: store, sessionID: sessionID, manager: manager, hand: hand.Ref(), deck: deck.Ref()}
}

func cardPrefab(dataID string) state.Prefab {
	return state.Prefab{
		state.RootKey: {
			{ID: "card", Data: state.ActionCard{DataID: dataID}},
			{ID: "link", Data: state.LinkEffect{Ref: state.Ref("effect")}},
		},
		"effect": {
			{ID: "on", Data: state.CombatEffect{On: state.EventBeforeAct}},
		},
	}
}

func (tb *table) combatant(t *testing.T) state.Entity {
	t.Helper()
	id, err := tb.store.CreateEntity(tb.sessionID)
	require.NoError(t, err)
	_, err = tb.store.AddComponent(tb.sessionID, id, state.Health{HP: 5, MaxHP: 5})
	require.NoError(t, err)
	_, err = tb.store.AddComponent(tb.sessionID, id, state.Attacker{BaseDamage: 1})
	require.NoError(t, err)
	e, err := tb.store.Entity(tb.sessionID, id)
	require.NoError(t, err)
	return e
}

func (tb *table) pile(t *testing.T, ref state.ComponentRef) []state.ComponentRef {
	t.Helper()
	c, err := tb.store.ComponentByRef(tb.sessionID, ref)
	require.NoError(t, err)
	switch v := c.Data.(type) {
	case state.Hand:
		return v.CardRefs
	case state.ActionDeck:
		return v.CardRefs
	}
	t.Fatalf("unexpected pile %T", c.Data)
	return nil
}

func TestDrawIsWithoutReplacement(t *testing.T) {
	tb := newTable(t)
	created, err := tb.manager.CreateDeck(tb.sessionID, tb.deck, []state.Prefab{cardPrefab("a"), cardPrefab("b"), cardPrefab("c")})
	require.NoError(t, err)
	require.Len(t, created, 3)

	drawn, err := tb.manager.Draw(tb.sessionID, tb.deck, tb.hand, 2, "")
	require.NoError(t, err)
	assert.Equal(t, created[:2], drawn)
	assert.Equal(t, created[:2], tb.pile(t, tb.hand))
	assert.Equal(t, created[2:], tb.pile(t, tb.deck))

	drawn, err = tb.manager.Draw(tb.sessionID, tb.deck, tb.hand, 5, "")
	require.NoError(t, err)
	assert.Len(t, drawn, 1)
	assert.Empty(t, tb.pile(t, tb.deck))
	assert.Len(t, tb.pile(t, tb.hand), 3)

	drawn, err = tb.manager.Draw(tb.sessionID, tb.deck, tb.hand, 1, "")
	require.NoError(t, err)
	assert.Empty(t, drawn)
}

func TestDrawFiltersByOwner(t *testing.T) {
	tb := newTable(t)
	alice := tb.combatant(t)
	bob := tb.combatant(t)

	created, err := tb.manager.CreateDeck(tb.sessionID, tb.deck, []state.Prefab{cardPrefab("a1"), cardPrefab("b1"), cardPrefab("a2")})
	require.NoError(t, err)
	require.NoError(t, tb.manager.ApplyCardOwnership(tb.sessionID, cards.OwnerRef(alice.ID), created[0]))
	require.NoError(t, tb.manager.ApplyCardOwnership(tb.sessionID, cards.OwnerRef(bob.ID), created[1]))
	require.NoError(t, tb.manager.ApplyCardOwnership(tb.sessionID, cards.OwnerRef(alice.ID), created[2]))

	drawn, err := tb.manager.Draw(tb.sessionID, tb.deck, tb.hand, 5, alice.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []state.ComponentRef{created[0], created[2]}, drawn)
	assert.Equal(t, []state.ComponentRef{created[1]}, tb.pile(t, tb.deck))
}

func TestPeekDoesNotRemove(t *testing.T) {
	tb := newTable(t)

	peeked, err := tb.manager.Peek(tb.sessionID, tb.deck)
	require.NoError(t, err)
	assert.Nil(t, peeked)

	created, err := tb.manager.CreateDeck(tb.sessionID, tb.deck, []state.Prefab{cardPrefab("a")})
	require.NoError(t, err)

	peeked, err = tb.manager.Peek(tb.sessionID, tb.deck)
	require.NoError(t, err)
	require.NotNil(t, peeked)
	assert.Equal(t, created[0], *peeked)
	assert.Len(t, tb.pile(t, tb.deck), 1)
}

func TestDiscardReturnsCardToDeck(t *testing.T) {
	tb := newTable(t)
	created, err := tb.manager.CreateDeck(tb.sessionID, tb.deck, []state.Prefab{cardPrefab("a"), cardPrefab("b")})
	require.NoError(t, err)
	_, err = tb.manager.Draw(tb.sessionID, tb.deck, tb.hand, 1, "")
	require.NoError(t, err)

	err = tb.manager.Discard(tb.sessionID, tb.hand, tb.deck, created[1])
	assert.ErrorIs(t, err, cards.ErrNotInPile)

	require.NoError(t, tb.manager.Discard(tb.sessionID, tb.hand, tb.deck, created[0]))
	assert.Empty(t, tb.pile(t, tb.hand))
	assert.Equal(t, []state.ComponentRef{created[1], created[0]}, tb.pile(t, tb.deck))

	_, found, err := tb.manager.Contains(tb.sessionID, tb.deck, created[0].ID)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestTakeParksCardUntilPutBack(t *testing.T) {
	tb := newTable(t)
	created, err := tb.manager.CreateDeck(tb.sessionID, tb.deck, []state.Prefab{cardPrefab("a"), cardPrefab("b")})
	require.NoError(t, err)
	_, err = tb.manager.Draw(tb.sessionID, tb.deck, tb.hand, 2, "")
	require.NoError(t, err)

	require.NoError(t, tb.manager.Take(tb.sessionID, tb.hand, created[0]))
	assert.Equal(t, []state.ComponentRef{created[1]}, tb.pile(t, tb.hand))
	assert.Empty(t, tb.pile(t, tb.deck))

	// A taken card is out of reach of anything that picks from the hand.
	err = tb.manager.Discard(tb.sessionID, tb.hand, tb.deck, created[0])
	assert.ErrorIs(t, err, cards.ErrNotInPile)
	err = tb.manager.Take(tb.sessionID, tb.hand, created[0])
	assert.ErrorIs(t, err, cards.ErrNotInPile)

	require.NoError(t, tb.manager.Discard(tb.sessionID, tb.hand, tb.deck, created[1]))
	require.NoError(t, tb.manager.PutBottom(tb.sessionID, tb.deck, created[0]))
	assert.Equal(t, []state.ComponentRef{created[1], created[0]}, tb.pile(t, tb.deck))

	err = tb.manager.PutBottom(tb.sessionID, tb.deck, created[0])
	assert.ErrorIs(t, err, state.ErrRefCorrupted)
}

func TestPurgeRemovesOwnedCards(t *testing.T) {
	tb := newTable(t)
	alice := tb.combatant(t)
	bob := tb.combatant(t)
	created, err := tb.manager.CreateDeck(tb.sessionID, tb.deck, []state.Prefab{cardPrefab("a1"), cardPrefab("b1"), cardPrefab("a2")})
	require.NoError(t, err)
	require.NoError(t, tb.manager.ApplyCardOwnership(tb.sessionID, cards.OwnerRef(alice.ID), created[0]))
	require.NoError(t, tb.manager.ApplyCardOwnership(tb.sessionID, cards.OwnerRef(bob.ID), created[1]))
	require.NoError(t, tb.manager.ApplyCardOwnership(tb.sessionID, cards.OwnerRef(alice.ID), created[2]))
	_, err = tb.manager.Draw(tb.sessionID, tb.deck, tb.hand, 1, "")
	require.NoError(t, err)

	removed, err := tb.manager.Purge(tb.sessionID, alice.ID, tb.hand, tb.deck)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Empty(t, tb.pile(t, tb.hand))
	assert.Equal(t, []state.ComponentRef{created[1]}, tb.pile(t, tb.deck))
}

func TestApplySelfOwnershipCoversLinksPositionsAndDeck(t *testing.T) {
	tb := newTable(t)
	hero := tb.combatant(t)

	passive, err := tb.store.Instantiate(tb.sessionID, state.Prefab{
		state.RootKey: {{ID: "bonus", Data: state.BonusDamage{Add: 1}}},
	})
	require.NoError(t, err)
	_, err = tb.store.AddComponent(tb.sessionID, hero.ID, state.LinkEffect{Ref: passive.Ref()})
	require.NoError(t, err)

	positionCard, err := tb.store.Instantiate(tb.sessionID, state.Prefab{
		state.RootKey: {{ID: "card", Data: state.PositionCard{DataID: "p", EffectRef: state.Ref("effect")}}},
		"effect":      {{ID: "threat", Data: state.Threat{Modifier: 1}}},
	})
	require.NoError(t, err)
	positionComponent, ok := positionCard.Component(state.TypePositionCard)
	require.True(t, ok)
	_, err = tb.store.AddComponent(tb.sessionID, hero.ID, state.Position{
		AllCardRefs:    [3][]state.ComponentRef{{positionComponent.Ref()}},
		CurrentCardRef: positionComponent.Ref(),
	})
	require.NoError(t, err)

	deck, err := tb.manager.CreateDeck(tb.sessionID, tb.deck, []state.Prefab{cardPrefab("a")})
	require.NoError(t, err)

	require.NoError(t, tb.manager.ApplySelfOwnership(tb.sessionID, hero, deck))

	ownerOf := func(entityID string) string {
		e, err := tb.store.Entity(tb.sessionID, entityID)
		require.NoError(t, err)
		owner, _, ok := state.First[state.CardOwner](e)
		require.True(t, ok, "entity %s has no owner", entityID)
		return owner.Owner.ID
	}

	assert.Equal(t, hero.ID, ownerOf(hero.ID))
	assert.Equal(t, hero.ID, ownerOf(passive.ID))
	posCard, _, err := state.Fetch[state.PositionCard](tb.store, tb.sessionID, positionComponent.Ref())
	require.NoError(t, err)
	assert.Equal(t, hero.ID, ownerOf(posCard.EffectRef.ID))

	owner, ok, err := tb.manager.Owner(tb.sessionID, deck[0])
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, hero.ID, owner.ID)

	cardRoot, err := tb.manager.CardEntity(tb.sessionID, deck[0])
	require.NoError(t, err)
	link, _, ok := state.First[state.LinkEffect](cardRoot)
	require.True(t, ok)
	assert.Equal(t, hero.ID, ownerOf(link.Ref.ID))

	// Ownership is replaced, not duplicated.
	require.NoError(t, tb.manager.ApplySelfOwnership(tb.sessionID, hero, deck))
	e, err := tb.store.Entity(tb.sessionID, hero.ID)
	require.NoError(t, err)
	assert.Len(t, e.Components(state.TypeCardOwner), 1)
}
