package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/emberdeck/skirmish/internal/game/position"
	"github.com/emberdeck/skirmish/internal/game/rules"
	"github.com/emberdeck/skirmish/internal/game/state"
	"go.uber.org/zap"
)

// combatantPlan is everything needed to spawn one combatant, resolved from
// the catalog before the store is touched.
type combatantPlan struct {
	dataID    string
	status    state.Data
	health    state.Health
	attacker  state.Attacker
	positions [position.Stages][]state.Prefab
	passives  []state.Prefab
	cards     []state.Prefab
}

func (p combatantPlan) hasPositions() bool {
	for _, stage := range p.positions {
		if len(stage) > 0 {
			return true
		}
	}
	return false
}

// BeginCombat sets up a combat between the listed characters and an enemy:
// combatants, position decks, passives, the party's shared deck and hand and
// the enemy's deck. It draws the starting hand and waits for an action.
func (e *Engine) BeginCombat(ctx context.Context, sessionID string, characterIDs []string, enemyID string) error {
	unlock := e.lock(sessionID)
	defer unlock()

	accountID, err := e.store.AccountFor(sessionID)
	if err != nil {
		return err
	}
	if e.store.HasComponentOfType(sessionID, state.TypeCombatStatus) {
		return fmt.Errorf("%w: %s", ErrAlreadyInCombat, sessionID)
	}
	if len(characterIDs) == 0 {
		return errors.New("at least one character is required")
	}
	seen := make(map[string]bool, len(characterIDs))
	for _, id := range characterIDs {
		if seen[id] {
			return fmt.Errorf("character %s listed more than once", id)
		}
		seen[id] = true
	}

	owned, err := e.accounts.OwnsCharacters(ctx, accountID, characterIDs)
	if err != nil {
		return fmt.Errorf("failed to check characters: %w", err)
	}
	if !owned {
		return fmt.Errorf("%w: %v", ErrCharacterNotOwned, characterIDs)
	}

	party := make([]combatantPlan, 0, len(characterIDs))
	for _, id := range characterIDs {
		plan, err := e.planCharacter(id)
		if err != nil {
			return err
		}
		party = append(party, plan)
	}
	foe, err := e.planEnemy(enemyID)
	if err != nil {
		return err
	}

	statusID, err := e.store.CreateEntity(sessionID)
	if err != nil {
		return err
	}
	statusComponent, err := e.store.AddComponent(sessionID, statusID, state.CombatStatus{Phase: state.PhaseSettingUp})
	if err != nil {
		return err
	}

	hand, deck, err := e.createPlayer(sessionID)
	if err != nil {
		return err
	}
	for _, plan := range party {
		if _, err := e.spawn(sessionID, plan, deck); err != nil {
			return fmt.Errorf("spawn %s: %w", plan.dataID, err)
		}
	}
	if _, err := e.spawn(sessionID, foe, state.ComponentRef{}); err != nil {
		return fmt.Errorf("spawn %s: %w", foe.dataID, err)
	}

	drawn, err := e.cards.Draw(sessionID, deck, hand, e.handSize, "")
	if err != nil {
		return err
	}
	for _, card := range drawn {
		e.bus.Publish(rules.NewEvent(rules.EventCardDrawn, sessionID, "", card.ID))
	}

	if _, err := state.Update(e.store, sessionID, statusComponent, func(s *state.CombatStatus) {
		s.Phase = state.PhaseWaitingForAction
		s.Turn = 1
	}); err != nil {
		return err
	}

	e.logger.Info("combat began",
		zap.String("session_id", sessionID),
		zap.Strings("party", characterIDs),
		zap.String("enemy", enemyID),
		zap.Int("hand", len(drawn)),
	)
	evt := rules.NewEvent(rules.EventCombatBegan, sessionID, "", enemyID)
	evt.Metadata["party"] = fmt.Sprint(characterIDs)
	e.bus.Publish(evt)

	e.mu.Lock()
	e.journals[sessionID] = NewJournal(sessionID)
	e.mu.Unlock()
	return e.record(sessionID)
}

func (e *Engine) planCharacter(id string) (combatantPlan, error) {
	ch, err := e.catalog.Character(id)
	if err != nil {
		return combatantPlan{}, err
	}
	plan := combatantPlan{
		dataID:   ch.ID,
		status:   state.CharacterStatus{DataID: ch.ID},
		health:   state.Health{HP: ch.MaxHP, MaxHP: ch.MaxHP, BaseArmor: ch.BaseArmor},
		attacker: state.Attacker{BaseDamage: ch.BaseDamage},
		passives: ch.Passives,
	}
	if err := e.planCards(&plan, ch.ActionCards, ch.PositionCards); err != nil {
		return combatantPlan{}, err
	}
	return plan, nil
}

func (e *Engine) planEnemy(id string) (combatantPlan, error) {
	en, err := e.catalog.Enemy(id)
	if err != nil {
		return combatantPlan{}, err
	}
	plan := combatantPlan{
		dataID:   en.ID,
		status:   state.EnemyStatus{DataID: en.ID},
		health:   state.Health{HP: en.MaxHP, MaxHP: en.MaxHP, BaseArmor: en.BaseArmor},
		attacker: state.Attacker{BaseDamage: en.BaseDamage},
	}
	if err := e.planCards(&plan, en.ActionCards, en.PositionCards); err != nil {
		return combatantPlan{}, err
	}
	return plan, nil
}

func (e *Engine) planCards(plan *combatantPlan, actionIDs []string, positionIDs [position.Stages][]string) error {
	for _, id := range actionIDs {
		card, err := e.catalog.ActionCard(id)
		if err != nil {
			return err
		}
		plan.cards = append(plan.cards, card.Prefab)
	}
	for stage, ids := range positionIDs {
		for _, id := range ids {
			card, err := e.catalog.PositionCard(id)
			if err != nil {
				return err
			}
			plan.positions[stage] = append(plan.positions[stage], card.Prefab)
		}
	}
	return nil
}

// createPlayer adds the entity holding the party's shared hand and deck.
func (e *Engine) createPlayer(sessionID string) (hand, deck state.ComponentRef, err error) {
	playerID, err := e.store.CreateEntity(sessionID)
	if err != nil {
		return state.ComponentRef{}, state.ComponentRef{}, err
	}
	if _, err := e.store.AddComponent(sessionID, playerID, state.PlayerStatus{}); err != nil {
		return state.ComponentRef{}, state.ComponentRef{}, err
	}
	h, err := e.store.AddComponent(sessionID, playerID, state.Hand{})
	if err != nil {
		return state.ComponentRef{}, state.ComponentRef{}, err
	}
	d, err := e.store.AddComponent(sessionID, playerID, state.ActionDeck{})
	if err != nil {
		return state.ComponentRef{}, state.ComponentRef{}, err
	}
	return h.Ref(), d.Ref(), nil
}

// spawn creates a combatant and gives it its cards. With an empty deck ref
// the combatant keeps its cards in a deck of its own.
func (e *Engine) spawn(sessionID string, plan combatantPlan, deck state.ComponentRef) (state.Entity, error) {
	id, err := e.store.CreateEntity(sessionID)
	if err != nil {
		return state.Entity{}, err
	}
	for _, data := range []state.Data{plan.status, plan.health, plan.attacker} {
		if _, err := e.store.AddComponent(sessionID, id, data); err != nil {
			return state.Entity{}, err
		}
	}
	if deck.ID == "" {
		own, err := e.store.AddComponent(sessionID, id, state.ActionDeck{})
		if err != nil {
			return state.Entity{}, err
		}
		deck = own.Ref()
	}

	if plan.hasPositions() {
		if _, err := e.positions.Create(sessionID, id, plan.positions); err != nil {
			return state.Entity{}, err
		}
	}
	for _, prefab := range plan.passives {
		root, err := e.store.Instantiate(sessionID, prefab)
		if err != nil {
			return state.Entity{}, fmt.Errorf("passive: %w", err)
		}
		if _, err := e.store.AddComponent(sessionID, id, state.LinkEffect{Ref: root.Ref()}); err != nil {
			return state.Entity{}, err
		}
	}

	added, err := e.cards.CreateDeck(sessionID, deck, plan.cards)
	if err != nil {
		return state.Entity{}, err
	}
	self, err := e.store.Entity(sessionID, id)
	if err != nil {
		return state.Entity{}, err
	}
	if err := e.cards.ApplySelfOwnership(sessionID, self, added); err != nil {
		return state.Entity{}, err
	}

	e.logger.Debug("spawned combatant",
		zap.String("session_id", sessionID),
		zap.String("entity_id", id),
		zap.String("data_id", plan.dataID),
		zap.Int("cards", len(added)),
		zap.Int("passives", len(plan.passives)),
	)
	return e.store.Entity(sessionID, id)
}
