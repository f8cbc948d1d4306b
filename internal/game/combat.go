package game

import (
	"fmt"
	"slices"

	"github.com/emberdeck/skirmish/internal/game/effects"
	"github.com/emberdeck/skirmish/internal/game/rules"
	"github.com/emberdeck/skirmish/internal/game/state"
	"github.com/emberdeck/skirmish/internal/game/targeting"
	"go.uber.org/zap"
)

// PlayerAttack plays an action card against the enemy. The enemy answers
// with a card peeked from its deck, which is returned (nil when its deck is
// empty). The played card goes back to the deck and the turn ends.
func (e *Engine) PlayerAttack(sessionID, actionCardID string) (*state.ComponentRef, error) {
	unlock := e.lock(sessionID)
	defer unlock()

	if _, _, err := e.requirePhase(sessionID, state.PhaseWaitingForAction); err != nil {
		return nil, err
	}
	hand, deck, err := effects.Player(e.store, sessionID)
	if err != nil {
		return nil, err
	}
	card, character, err := e.handCard(sessionID, hand, actionCardID)
	if err != nil {
		return nil, err
	}
	enemy, enemyDeck, err := e.enemy(sessionID)
	if err != nil {
		return nil, err
	}
	defense, err := e.cards.Peek(sessionID, enemyDeck)
	if err != nil {
		return nil, err
	}

	attackRoot, err := e.cards.CardEntity(sessionID, card)
	if err != nil {
		return nil, err
	}
	var reactive *state.EntityRef
	if defense != nil {
		root, err := e.cards.CardEntity(sessionID, *defense)
		if err != nil {
			return nil, err
		}
		ref := root.Ref()
		reactive = &ref
	}

	e.logger.Info("player attacks",
		zap.String("session_id", sessionID),
		zap.String("character_id", character.ID),
		zap.String("card", e.cardDataID(sessionID, card)),
	)
	if err := e.cards.Take(sessionID, hand, card); err != nil {
		return nil, err
	}
	evt := rules.NewEvent(rules.EventCardPlayed, sessionID, character.ID, card.ID)
	evt.Metadata["card"] = e.cardDataID(sessionID, card)
	e.bus.Publish(evt)

	if err := e.resolveExchange(sessionID, character, enemy, attackRoot.Ref(), reactive); err != nil {
		return nil, err
	}
	if err := e.returnToDeck(sessionID, deck, card); err != nil {
		return nil, err
	}
	if err := e.endTurn(sessionID); err != nil {
		return nil, err
	}
	return defense, nil
}

// PlayerPrepare returns the named cards to the deck and draws that many plus
// two. The enemy then picks the card it will attack with, which is returned.
// With no enemy card the turn ends straight away.
func (e *Engine) PlayerPrepare(sessionID string, actionCardIDs []string) (*state.ComponentRef, error) {
	unlock := e.lock(sessionID)
	defer unlock()

	_, statusComponent, err := e.requirePhase(sessionID, state.PhaseWaitingForAction)
	if err != nil {
		return nil, err
	}
	hand, deck, err := effects.Player(e.store, sessionID)
	if err != nil {
		return nil, err
	}
	discards := make([]state.ComponentRef, 0, len(actionCardIDs))
	for i, id := range actionCardIDs {
		if slices.Contains(actionCardIDs[:i], id) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCard, id)
		}
		ref, ok, err := e.cards.Contains(sessionID, hand, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrCardNotInHand, id)
		}
		discards = append(discards, ref)
	}
	_, enemyDeck, err := e.enemy(sessionID)
	if err != nil {
		return nil, err
	}

	for _, card := range discards {
		if err := e.discard(sessionID, hand, deck, card); err != nil {
			return nil, err
		}
	}
	drawn, err := e.cards.Draw(sessionID, deck, hand, len(discards)+2, "")
	if err != nil {
		return nil, err
	}
	for _, card := range drawn {
		e.bus.Publish(rules.NewEvent(rules.EventCardDrawn, sessionID, "", card.ID))
	}

	pending, err := e.cards.Peek(sessionID, enemyDeck)
	if err != nil {
		return nil, err
	}
	e.logger.Info("player prepares",
		zap.String("session_id", sessionID),
		zap.Int("discarded", len(discards)),
		zap.Int("drawn", len(drawn)),
		zap.Bool("enemy_attacks", pending != nil),
	)
	if pending == nil {
		e.logger.Debug("enemy deck is empty, skipping its attack", zap.String("session_id", sessionID))
		return nil, e.endTurn(sessionID)
	}

	if _, err := state.Update(e.store, sessionID, statusComponent, func(s *state.CombatStatus) {
		s.Phase = state.PhaseWaitingForDefense
		s.PendingEnemyAttack = pending
	}); err != nil {
		return nil, err
	}
	return pending, nil
}

// PlayerDefend answers the pending enemy attack. An empty actionCardID
// defends without a card. It returns the id of the character that was
// attacked.
func (e *Engine) PlayerDefend(sessionID, actionCardID string) (string, error) {
	unlock := e.lock(sessionID)
	defer unlock()

	status, _, err := e.requirePhase(sessionID, state.PhaseWaitingForDefense)
	if err != nil {
		return "", err
	}
	if status.PendingEnemyAttack == nil {
		return "", fmt.Errorf("%w: no pending enemy attack", ErrWrongPhase)
	}
	hand, deck, err := effects.Player(e.store, sessionID)
	if err != nil {
		return "", err
	}

	var (
		card     state.ComponentRef
		defense  *targeting.DefenseCard
		reactive *state.EntityRef
	)
	if actionCardID != "" {
		var character state.Entity
		card, character, err = e.handCard(sessionID, hand, actionCardID)
		if err != nil {
			return "", err
		}
		root, err := e.cards.CardEntity(sessionID, card)
		if err != nil {
			return "", err
		}
		ref := root.Ref()
		reactive = &ref
		defense = &targeting.DefenseCard{Ref: ref, OwnerID: character.ID}
	}

	enemy, _, err := e.enemy(sessionID)
	if err != nil {
		return "", err
	}
	attackRoot, err := e.cards.CardEntity(sessionID, *status.PendingEnemyAttack)
	if err != nil {
		return "", err
	}
	target, err := e.selector.Select(sessionID, enemy, attackRoot.Ref(), defense)
	if err != nil {
		return "", err
	}

	e.logger.Info("enemy attacks",
		zap.String("session_id", sessionID),
		zap.String("card", e.cardDataID(sessionID, *status.PendingEnemyAttack)),
		zap.String("target_id", target.ID),
		zap.Bool("defended", reactive != nil),
	)
	if reactive != nil {
		if err := e.cards.Take(sessionID, hand, card); err != nil {
			return "", err
		}
	}
	evt := rules.NewEvent(rules.EventCardPlayed, sessionID, enemy.ID, status.PendingEnemyAttack.ID)
	evt.Metadata["card"] = e.cardDataID(sessionID, *status.PendingEnemyAttack)
	e.bus.Publish(evt)

	if err := e.resolveExchange(sessionID, enemy, target, attackRoot.Ref(), reactive); err != nil {
		return "", err
	}
	if reactive != nil {
		if err := e.returnToDeck(sessionID, deck, card); err != nil {
			return "", err
		}
	}
	if err := e.endTurn(sessionID); err != nil {
		return "", err
	}
	return target.ID, nil
}

// resolveExchange emits "before act" with both cards in play. If the
// reactive side answered with a card and can still fight back, it then
// retaliates once with roles swapped and only its own card in play.
func (e *Engine) resolveExchange(sessionID string, active, reactive state.Entity, activeCard state.EntityRef, reactiveCard *state.EntityRef) error {
	inPlay := []state.EntityRef{activeCard}
	if reactiveCard != nil {
		inPlay = append(inPlay, *reactiveCard)
	}
	actors := rules.Bind(active, reactive)
	if err := e.dispatcher.Emit(rules.Pass{
		SessionID: sessionID,
		Event:     state.EventBeforeAct,
		Actors:    actors,
		Cards:     inPlay,
	}); err != nil {
		return err
	}
	if reactiveCard == nil {
		return nil
	}

	active, err := e.store.Entity(sessionID, active.ID)
	if err != nil {
		return err
	}
	reactive, err = e.store.Entity(sessionID, reactive.ID)
	if err != nil {
		return err
	}
	health, _, ok := state.First[state.Health](reactive)
	if !ok || health.HP <= 0 || !reactive.Has(state.TypeAttacker) || !active.Has(state.TypeHealth) {
		return nil
	}

	e.logger.Debug("retaliating",
		zap.String("session_id", sessionID),
		zap.String("attacker_id", reactive.ID),
		zap.String("defender_id", active.ID),
	)
	return e.dispatcher.Emit(rules.Pass{
		SessionID: sessionID,
		Event:     state.EventBeforeAct,
		Actors:    rules.Bind(active, reactive).Swapped(),
		Cards:     []state.EntityRef{*reactiveCard},
	})
}

// returnToDeck puts a card that was in play at the bottom of the deck.
func (e *Engine) returnToDeck(sessionID string, deck, card state.ComponentRef) error {
	if err := e.cards.PutBottom(sessionID, deck, card); err != nil {
		return err
	}
	e.bus.Publish(rules.NewEvent(rules.EventCardDiscarded, sessionID, "", card.ID))
	return nil
}

func (e *Engine) discard(sessionID string, hand, deck, card state.ComponentRef) error {
	if err := e.cards.Discard(sessionID, hand, deck, card); err != nil {
		return err
	}
	e.bus.Publish(rules.NewEvent(rules.EventCardDiscarded, sessionID, "", card.ID))
	return nil
}

// endTurn removes the dead, checks for the end of combat and otherwise
// advances positions, ticks buffs and waits for the next action.
func (e *Engine) endTurn(sessionID string) error {
	status, statusComponent, err := e.combat(sessionID)
	if err != nil {
		return err
	}
	if err := e.removeDead(sessionID); err != nil {
		return err
	}

	enemy, _, err := e.enemy(sessionID)
	if err != nil {
		return err
	}
	if health, _, ok := state.First[state.Health](enemy); !ok || health.HP <= 0 {
		return e.finish(sessionID, statusComponent, state.PhaseVictory)
	}
	alive, err := e.store.EntitiesWith(sessionID, state.TypeCharacterStatus, state.TypeHealth)
	if err != nil {
		return err
	}
	if len(alive) == 0 {
		return e.finish(sessionID, statusComponent, state.PhaseDefeat)
	}

	positioned, err := e.store.EntitiesWith(sessionID, state.TypePosition)
	if err != nil {
		return err
	}
	for _, ent := range positioned {
		if _, err := e.positions.Advance(sessionID, ent.ID); err != nil {
			return err
		}
	}
	expired, err := e.systems.Buffs.Tick(sessionID)
	if err != nil {
		return err
	}

	if _, err := state.Update(e.store, sessionID, statusComponent, func(s *state.CombatStatus) {
		s.Phase = state.PhaseWaitingForAction
		s.PendingEnemyAttack = nil
		s.Turn++
	}); err != nil {
		return err
	}

	e.logger.Debug("turn ended",
		zap.String("session_id", sessionID),
		zap.Int("turn", status.Turn),
		zap.Int("buffs_expired", expired),
	)
	e.bus.Publish(rules.NewEventWithAmount(rules.EventTurnEnded, sessionID, "", "", status.Turn))
	return e.record(sessionID)
}

// removeDead strips the combat components of characters at 0 hp and takes
// their cards out of the hand and the deck.
func (e *Engine) removeDead(sessionID string) error {
	characters, err := e.store.EntitiesWith(sessionID, state.TypeCharacterStatus, state.TypeHealth)
	if err != nil {
		return err
	}
	hand, deck, err := effects.Player(e.store, sessionID)
	if err != nil {
		return err
	}

	for _, character := range characters {
		health, _, _ := state.First[state.Health](character)
		if health.HP > 0 {
			continue
		}
		for _, t := range []state.Type{state.TypeHealth, state.TypeAttacker, state.TypePosition} {
			for _, c := range character.Components(t) {
				if err := e.store.RemoveComponent(sessionID, c.ID); err != nil {
					return err
				}
			}
		}
		purged, err := e.cards.Purge(sessionID, character.ID, hand, deck)
		if err != nil {
			return err
		}

		status, _, _ := state.First[state.CharacterStatus](character)
		e.logger.Info("character died",
			zap.String("session_id", sessionID),
			zap.String("character_id", character.ID),
			zap.String("data_id", status.DataID),
			zap.Int("cards_purged", purged),
		)
		evt := rules.NewEventWithAmount(rules.EventCharacterDied, sessionID, "", character.ID, purged)
		evt.Metadata["data_id"] = status.DataID
		e.bus.Publish(evt)
	}
	return nil
}

func (e *Engine) finish(sessionID string, statusComponent state.Component, outcome state.CombatPhase) error {
	status, err := state.Update(e.store, sessionID, statusComponent, func(s *state.CombatStatus) {
		s.Phase = outcome
		s.PendingEnemyAttack = nil
	})
	if err != nil {
		return err
	}
	turn := 0
	if s, err := state.Decode[state.CombatStatus](status); err == nil {
		turn = s.Turn
	}

	e.logger.Info("combat ended",
		zap.String("session_id", sessionID),
		zap.String("outcome", outcome.String()),
		zap.Int("turn", turn),
	)
	evt := rules.NewEventWithAmount(rules.EventCombatEnded, sessionID, "", "", turn)
	evt.Metadata["outcome"] = outcome.String()
	e.bus.Publish(evt)

	if err := e.record(sessionID); err != nil {
		return err
	}
	e.saveJournal(sessionID)
	return nil
}
