package game

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/emberdeck/skirmish/internal/game/rules"
	"github.com/emberdeck/skirmish/internal/game/state"
	"github.com/emberdeck/skirmish/internal/gamedata"
	"github.com/emberdeck/skirmish/internal/random"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginCombatSetsUpTheTable(t *testing.T) {
	h := newCombatHarness(t, []string{"elf", "jeanne"})

	status := h.status()
	assert.Equal(t, state.PhaseWaitingForAction, status.Phase)
	assert.Equal(t, 1, status.Turn)
	assert.Nil(t, status.PendingEnemyAttack)

	elf := h.character("elf")
	jeanne := h.character("jeanne")
	assert.Equal(t, 30, h.hp(elf.ID))
	assert.Equal(t, 40, h.hp(jeanne.ID))
	assert.True(t, elf.Has(state.TypePosition))
	assert.Len(t, elf.Components(state.TypeLinkEffect), 0)
	assert.Len(t, jeanne.Components(state.TypeLinkEffect), 1, "jeanne's passive is linked")

	enemy := h.enemy()
	assert.Equal(t, 100, h.hp(enemy.ID))
	assert.False(t, enemy.Has(state.TypePosition), "jotun has no position cards")
	enemyDeck, _, ok := state.First[state.ActionDeck](enemy)
	require.True(t, ok)
	assert.Len(t, enemyDeck.CardRefs, 6)

	assert.Len(t, h.hand(), DefaultHandSize)
	assert.Len(t, h.deck(), 7+8-DefaultHandSize)
	for _, card := range append(h.hand(), h.deck()...) {
		assert.Contains(t, []string{elf.ID, jeanne.ID}, h.owner(card))
	}
	for _, card := range enemyDeck.CardRefs {
		assert.Equal(t, enemy.ID, h.owner(card))
	}

	assert.Len(t, h.eventsOf(rules.EventCombatBegan), 1)
	assert.Len(t, h.eventsOf(rules.EventCardDrawn), DefaultHandSize)
}

func TestPlayerAttackDealsTenDamage(t *testing.T) {
	h := newCombatHarness(t, []string{"elf"})
	elf, jotun := h.character("elf"), h.enemy()
	attackID := h.handCard("attack")

	defense, err := h.engine.PlayerAttack(h.sessionID, attackID)
	require.NoError(t, err)
	require.NotNil(t, defense)
	assert.Equal(t, "jotun.attack-a", h.dataID(*defense))

	assert.Equal(t, 90, h.hp(jotun.ID))
	// The jotun answers with its own card once.
	assert.Equal(t, 20, h.hp(elf.ID))

	damage := h.eventsOf(rules.EventDamageDealt)
	require.Len(t, damage, 2)
	assert.Equal(t, elf.ID, damage[0].SourceID)
	assert.Equal(t, jotun.ID, damage[0].TargetID)
	assert.Equal(t, 10, damage[0].Amount)
	assert.Equal(t, jotun.ID, damage[1].SourceID)
	assert.Equal(t, elf.ID, damage[1].TargetID)

	status := h.status()
	assert.Equal(t, state.PhaseWaitingForAction, status.Phase)
	assert.Equal(t, 2, status.Turn)
	assert.Nil(t, status.PendingEnemyAttack)

	assert.Len(t, h.hand(), DefaultHandSize-1)
	deck := h.deck()
	assert.Equal(t, attackID, deck[len(deck)-1].ID, "played card returns to the deck")

	enemyDeck, _, _ := state.First[state.ActionDeck](h.entity(jotun.ID))
	assert.Len(t, enemyDeck.CardRefs, 6, "peeking does not remove the card")
	assert.Len(t, h.eventsOf(rules.EventTurnEnded), 1)
}

func TestPlayedCardSurvivesEnemyDiscards(t *testing.T) {
	h := newCombatHarness(t, []string{"elf"})
	h.setEnemyDeck("jotun.stun-a")
	jotun := h.enemy()
	playedID := h.handCard("attack")

	defense, err := h.engine.PlayerAttack(h.sessionID, playedID)
	require.NoError(t, err)
	require.NotNil(t, defense)
	assert.Equal(t, "jotun.stun-a", h.dataID(*defense))

	assert.Equal(t, 90, h.hp(jotun.ID))
	status := h.status()
	assert.Equal(t, state.PhaseWaitingForAction, status.Phase)
	assert.Equal(t, 2, status.Turn)

	// Shake Off and the Stomp that follows each discard one other card.
	hand := h.hand()
	assert.Len(t, hand, DefaultHandSize-3)
	for _, card := range hand {
		assert.NotEqual(t, playedID, card.ID)
	}
	deck := h.deck()
	assert.Len(t, deck, 7-DefaultHandSize+3)
	assert.Equal(t, playedID, deck[len(deck)-1].ID, "played card returns to the deck")
	assert.Len(t, h.eventsOf(rules.EventCardDiscarded), 3)
	assert.Len(t, h.eventsOf(rules.EventTurnEnded), 1)
}

func TestDefenseCardSurvivesEnemyDiscards(t *testing.T) {
	h := newCombatHarness(t, []string{"elf"})
	h.setEnemyDeck("jotun.stun-a")
	elf := h.character("elf")

	_, err := h.engine.PlayerPrepare(h.sessionID, nil)
	require.NoError(t, err)
	defendID := h.handCard("defend")

	target, err := h.engine.PlayerDefend(h.sessionID, defendID)
	require.NoError(t, err)
	assert.Equal(t, elf.ID, target)

	status := h.status()
	assert.Equal(t, state.PhaseWaitingForAction, status.Phase)
	assert.Equal(t, 2, status.Turn)

	deck := h.deck()
	require.NotEmpty(t, deck)
	assert.Equal(t, defendID, deck[len(deck)-1].ID, "defense card returns to the deck")
	for _, card := range h.hand() {
		assert.NotEqual(t, defendID, card.ID)
	}
}

func TestPlayerAttackWithEmptyEnemyDeck(t *testing.T) {
	h := newCombatHarness(t, []string{"elf"})
	h.setEnemyDeck()
	elf, jotun := h.character("elf"), h.enemy()

	defense, err := h.engine.PlayerAttack(h.sessionID, h.handCard("attack"))
	require.NoError(t, err)
	assert.Nil(t, defense)

	assert.Equal(t, 90, h.hp(jotun.ID))
	assert.Equal(t, 30, h.hp(elf.ID), "no card, no retaliation")
	assert.Len(t, h.eventsOf(rules.EventDamageDealt), 1)

	status := h.status()
	assert.Equal(t, state.PhaseWaitingForAction, status.Phase)
	assert.Equal(t, 2, status.Turn)
}

func TestPlayerPrepareWithEmptyEnemyDeckEndsTheTurn(t *testing.T) {
	h := newCombatHarness(t, []string{"elf"})
	h.setEnemyDeck()

	pending, err := h.engine.PlayerPrepare(h.sessionID, nil)
	require.NoError(t, err)
	assert.Nil(t, pending)

	assert.Len(t, h.hand(), DefaultHandSize+2)
	status := h.status()
	assert.Equal(t, state.PhaseWaitingForAction, status.Phase)
	assert.Nil(t, status.PendingEnemyAttack)
	assert.Equal(t, 2, status.Turn)
	assert.Len(t, h.eventsOf(rules.EventTurnEnded), 1)

	_, err = h.engine.PlayerDefend(h.sessionID, "")
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestPlayerPrepareWithNoCardsDrawsTwo(t *testing.T) {
	h := newCombatHarness(t, []string{"elf"})

	pending, err := h.engine.PlayerPrepare(h.sessionID, nil)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, "jotun.attack-a", h.dataID(*pending))

	assert.Len(t, h.hand(), DefaultHandSize+2)
	assert.Empty(t, h.deck())

	status := h.status()
	assert.Equal(t, state.PhaseWaitingForDefense, status.Phase)
	require.NotNil(t, status.PendingEnemyAttack)
	assert.Equal(t, pending.ID, status.PendingEnemyAttack.ID)
	assert.Equal(t, 1, status.Turn)
}

func TestPlayerPrepareReplacesNamedCards(t *testing.T) {
	h := newCombatHarness(t, []string{"elf"})
	hand := h.hand()

	_, err := h.engine.PlayerPrepare(h.sessionID, []string{hand[0].ID, hand[1].ID})
	require.NoError(t, err)

	assert.Len(t, h.hand(), DefaultHandSize-2+4)
	assert.Empty(t, h.deck())
	assert.Len(t, h.eventsOf(rules.EventCardDiscarded), 2)
}

func TestPlayerDefendWithoutCard(t *testing.T) {
	h := newCombatHarness(t, []string{"elf"})
	elf, jotun := h.character("elf"), h.enemy()

	_, err := h.engine.PlayerPrepare(h.sessionID, nil)
	require.NoError(t, err)

	target, err := h.engine.PlayerDefend(h.sessionID, "")
	require.NoError(t, err)
	assert.Equal(t, elf.ID, target)

	assert.Equal(t, 20, h.hp(elf.ID))
	assert.Equal(t, 100, h.hp(jotun.ID))
	assert.Len(t, h.hand(), DefaultHandSize+2)
	assert.Empty(t, h.eventsOf(rules.EventCardDiscarded))

	status := h.status()
	assert.Equal(t, state.PhaseWaitingForAction, status.Phase)
	assert.Nil(t, status.PendingEnemyAttack)
	assert.Equal(t, 2, status.Turn)
}

func TestPlayerDefendWithCardReducesDamage(t *testing.T) {
	h := newCombatHarness(t, []string{"elf"})
	elf, jotun := h.character("elf"), h.enemy()

	_, err := h.engine.PlayerPrepare(h.sessionID, nil)
	require.NoError(t, err)
	defendID := h.handCard("defend")

	target, err := h.engine.PlayerDefend(h.sessionID, defendID)
	require.NoError(t, err)
	assert.Equal(t, elf.ID, target)

	assert.Equal(t, 25, h.hp(elf.ID))
	assert.Equal(t, 100, h.hp(jotun.ID), "the defend card strikes no blow back")

	damage := h.eventsOf(rules.EventDamageDealt)
	require.Len(t, damage, 1)
	assert.Equal(t, 5, damage[0].Amount)

	assert.Len(t, h.eventsOf(rules.EventPositionQueued), 1, "retaliation plays the card's active half")
	assert.Len(t, h.hand(), DefaultHandSize+1)
	deck := h.deck()
	require.Len(t, deck, 1)
	assert.Equal(t, defendID, deck[0].ID)
}

func TestEnemyAtZeroHPIsVictory(t *testing.T) {
	h := newCombatHarness(t, []string{"elf"})
	elf, jotun := h.character("elf"), h.enemy()
	h.setHP(jotun.ID, 5)

	_, err := h.engine.PlayerAttack(h.sessionID, h.handCard("attack"))
	require.NoError(t, err)

	assert.Equal(t, 0, h.hp(jotun.ID))
	assert.Equal(t, 30, h.hp(elf.ID), "a dead enemy does not retaliate")

	phase, err := h.engine.Phase(h.sessionID)
	require.NoError(t, err)
	assert.Equal(t, state.PhaseVictory, phase)
	assert.True(t, phase.Terminal())

	ended := h.eventsOf(rules.EventCombatEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, "victory", ended[0].Metadata["outcome"])
	assert.Empty(t, h.eventsOf(rules.EventTurnEnded))

	_, err = h.engine.PlayerAttack(h.sessionID, h.handCard("attack"))
	assert.ErrorIs(t, err, ErrWrongPhase)
	_, err = h.engine.PlayerPrepare(h.sessionID, nil)
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestAllCharactersDeadIsDefeat(t *testing.T) {
	h := newCombatHarness(t, []string{"elf"})
	elf := h.character("elf")
	h.setHP(elf.ID, 1)

	_, err := h.engine.PlayerPrepare(h.sessionID, nil)
	require.NoError(t, err)
	_, err = h.engine.PlayerDefend(h.sessionID, "")
	require.NoError(t, err)

	assert.Equal(t, state.PhaseDefeat, h.status().Phase)
	dead := h.entity(elf.ID)
	assert.False(t, dead.Has(state.TypeHealth))
	assert.False(t, dead.Has(state.TypeAttacker))
	assert.False(t, dead.Has(state.TypePosition))
	assert.True(t, dead.Has(state.TypeCharacterStatus))
	assert.Empty(t, h.hand())
	assert.Empty(t, h.deck())

	died := h.eventsOf(rules.EventCharacterDied)
	require.Len(t, died, 1)
	assert.Equal(t, elf.ID, died[0].TargetID)
	assert.Equal(t, 7, died[0].Amount)
}

func TestDeadCharacterLeavesPlay(t *testing.T) {
	h := newCombatHarness(t, []string{"elf", "jeanne"})
	elf, jeanne := h.character("elf"), h.character("jeanne")
	h.setHP(elf.ID, 1)

	_, err := h.engine.PlayerPrepare(h.sessionID, nil)
	require.NoError(t, err)
	target, err := h.engine.PlayerDefend(h.sessionID, "")
	require.NoError(t, err)
	require.Equal(t, elf.ID, target, "jeanne's stance keeps her out of the way")

	assert.Equal(t, state.PhaseWaitingForAction, h.status().Phase)
	assert.False(t, h.entity(elf.ID).Has(state.TypeHealth))
	assert.Equal(t, 40, h.hp(jeanne.ID))
	for _, card := range append(h.hand(), h.deck()...) {
		assert.Equal(t, jeanne.ID, h.owner(card))
	}
	assert.Len(t, h.deck(), 8)

	// The survivor is the only target left.
	_, err = h.engine.PlayerPrepare(h.sessionID, nil)
	require.NoError(t, err)
	target, err = h.engine.PlayerDefend(h.sessionID, "")
	require.NoError(t, err)
	assert.Equal(t, jeanne.ID, target)
}

func TestActionsRejectedInWrongPhase(t *testing.T) {
	h := newCombatHarness(t, []string{"elf"})

	_, err := h.engine.PlayerDefend(h.sessionID, "")
	assert.ErrorIs(t, err, ErrWrongPhase)

	_, err = h.engine.PlayerPrepare(h.sessionID, nil)
	require.NoError(t, err)

	_, err = h.engine.PlayerAttack(h.sessionID, h.handCard("attack"))
	assert.ErrorIs(t, err, ErrWrongPhase)
	_, err = h.engine.PlayerPrepare(h.sessionID, nil)
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestInvalidCardsLeaveStateUntouched(t *testing.T) {
	h := newCombatHarness(t, []string{"elf"})
	valid := h.hand()[0].ID
	before := h.checksum()

	_, err := h.engine.PlayerAttack(h.sessionID, "missing")
	assert.ErrorIs(t, err, ErrCardNotInHand)

	_, err = h.engine.PlayerPrepare(h.sessionID, []string{valid, "missing"})
	assert.ErrorIs(t, err, ErrCardNotInHand)

	_, err = h.engine.PlayerPrepare(h.sessionID, []string{valid, valid})
	assert.ErrorIs(t, err, ErrDuplicateCard)

	assert.Equal(t, before, h.checksum())
	assert.Len(t, h.hand(), DefaultHandSize)
	assert.Equal(t, state.PhaseWaitingForAction, h.status().Phase)
}

func TestPlayerAttackRejectsCardsOfTheEnemy(t *testing.T) {
	h := newCombatHarness(t, []string{"elf"})
	enemyDeck, _, _ := state.First[state.ActionDeck](h.enemy())
	stray := enemyDeck.CardRefs[0]

	handRef, _ := h.piles()
	hand, c, err := state.Fetch[state.Hand](h.store(), h.sessionID, handRef)
	require.NoError(t, err)
	_, err = h.store().UpdateComponent(h.sessionID, c, state.Hand{CardRefs: append(hand.CardRefs, stray)})
	require.NoError(t, err)

	_, err = h.engine.PlayerAttack(h.sessionID, stray.ID)
	assert.ErrorIs(t, err, ErrCardNotOwned)
}

func TestBeginCombatValidatesBeforeCreatingAnything(t *testing.T) {
	ctx := context.Background()
	h := newEngineHarness(t)

	_, err := h.engine.Phase(h.sessionID)
	assert.ErrorIs(t, err, ErrNotInCombat)

	err = h.engine.BeginCombat(ctx, h.sessionID, []string{"elf", "orc"}, "jotun")
	assert.ErrorIs(t, err, ErrCharacterNotOwned)

	err = h.engine.BeginCombat(ctx, h.sessionID, []string{"elf"}, "dragon")
	assert.ErrorIs(t, err, gamedata.ErrUnknownData)

	err = h.engine.BeginCombat(ctx, h.sessionID, []string{"elf", "elf"}, "jotun")
	assert.Error(t, err)

	err = h.engine.BeginCombat(ctx, h.sessionID, nil, "jotun")
	assert.Error(t, err)

	ents, err := h.store().EntitiesWith(h.sessionID)
	require.NoError(t, err)
	assert.Empty(t, ents)

	require.NoError(t, h.engine.BeginCombat(ctx, h.sessionID, []string{"elf"}, "jotun"))
	err = h.engine.BeginCombat(ctx, h.sessionID, []string{"elf"}, "jotun")
	assert.ErrorIs(t, err, ErrAlreadyInCombat)
}

func TestOpenSession(t *testing.T) {
	h := newEngineHarness(t)
	ctx := context.Background()

	_, err := h.engine.OpenSession(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, err = h.engine.OpenSession(ctx, h.accountID)
	assert.ErrorIs(t, err, state.ErrSessionExists)

	_, err = h.engine.Phase("no-such-session")
	assert.ErrorIs(t, err, state.ErrNotFound)
}

func TestCombatView(t *testing.T) {
	h := newCombatHarness(t, []string{"elf"})

	view, err := h.engine.CombatView(h.sessionID)
	require.NoError(t, err)

	assert.Equal(t, state.PhaseWaitingForAction, view.Phase)
	assert.Equal(t, 1, view.Turn)
	assert.Equal(t, "Jotun", view.Enemy.Name)
	assert.Equal(t, 100, view.Enemy.HP)
	assert.Empty(t, view.Enemy.Position)

	require.Len(t, view.Party, 1)
	assert.Equal(t, "Elf", view.Party[0].Name)
	assert.Equal(t, 30, view.Party[0].MaxHP)
	assert.True(t, view.Party[0].Alive)
	assert.Equal(t, "advancing", view.Party[0].Position)

	require.Len(t, view.Hand, DefaultHandSize)
	assert.Equal(t, "attack", view.Hand[0].DataID)
	assert.Equal(t, "Attack / Parry", view.Hand[0].Name)
	assert.Equal(t, "Elf", view.Hand[0].OwnerName)
	assert.Equal(t, 2, view.DeckSize)
	assert.Nil(t, view.PendingAttack)

	_, err = h.engine.PlayerPrepare(h.sessionID, nil)
	require.NoError(t, err)
	view, err = h.engine.CombatView(h.sessionID)
	require.NoError(t, err)
	require.NotNil(t, view.PendingAttack)
	assert.Equal(t, "Jotun", view.PendingAttack.OwnerName)
}

func TestSameSeedSameCombat(t *testing.T) {
	play := func() string {
		h := newCombatHarness(t, []string{"elf", "jeanne", "medusa"}, WithRand(random.New(42)))
		for range 3 {
			if hand := h.hand(); len(hand) > 0 {
				_, err := h.engine.PlayerAttack(h.sessionID, hand[0].ID)
				require.NoError(t, err)
			}
			if h.status().Phase.Terminal() {
				break
			}
			pending, err := h.engine.PlayerPrepare(h.sessionID, nil)
			require.NoError(t, err)
			if pending != nil {
				_, err = h.engine.PlayerDefend(h.sessionID, "")
				require.NoError(t, err)
			}
			if h.status().Phase.Terminal() {
				break
			}
		}
		return h.checksum()
	}
	assert.Equal(t, play(), play())
}

func TestJournalRecordsEachTurn(t *testing.T) {
	dir := t.TempDir()
	h := newCombatHarness(t, []string{"elf"}, WithJournal(dir))

	j, ok := h.engine.Journal(h.sessionID)
	require.True(t, ok)
	require.Equal(t, 1, j.Size())
	first, _ := j.At(0)
	assert.Equal(t, state.PhaseWaitingForAction, first.Phase)
	assert.Equal(t, map[string]int{"elf": 30, "jotun": 100}, first.HP)

	_, err := h.engine.PlayerAttack(h.sessionID, h.handCard("attack"))
	require.NoError(t, err)
	require.Equal(t, 2, j.Size())
	last, _ := j.Last()
	assert.Equal(t, 2, last.Turn)
	assert.Equal(t, map[string]int{"elf": 20, "jotun": 90}, last.HP)
	assert.Equal(t, h.checksum(), last.Checksum)

	_, err = os.Stat(filepath.Join(dir, h.sessionID+".journal"))
	assert.True(t, os.IsNotExist(err), "journals are saved when combat ends")

	h.setHP(h.enemy().ID, 1)
	_, err = h.engine.PlayerAttack(h.sessionID, h.handCard("attack"))
	require.NoError(t, err)

	loaded, err := LoadJournalFromFile(dir, h.sessionID)
	require.NoError(t, err)
	require.Equal(t, j.Size(), loaded.Size())
	final, _ := loaded.Last()
	assert.Equal(t, state.PhaseVictory, final.Phase)
	assert.Equal(t, 0, final.HP["jotun"])
}
