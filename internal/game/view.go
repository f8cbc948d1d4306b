package game

import (
	"github.com/emberdeck/skirmish/internal/game/effects"
	"github.com/emberdeck/skirmish/internal/game/state"
)

// CombatView is a read-only picture of a combat for display.
type CombatView struct {
	SessionID string
	Phase     state.CombatPhase
	Turn      int
	Enemy     CombatantView
	Party     []CombatantView
	Hand      []CardView
	DeckSize  int
	// PendingAttack is the card the enemy is about to attack with.
	PendingAttack *CardView
}

type CombatantView struct {
	EntityID string
	DataID   string
	Name     string
	HP       int
	MaxHP    int
	Alive    bool
	// Position is the name of the current position card, if any.
	Position string
}

type CardView struct {
	ID        string
	DataID    string
	Name      string
	OwnerID   string
	OwnerName string
}

// CombatView builds the view of a session's combat.
func (e *Engine) CombatView(sessionID string) (*CombatView, error) {
	unlock := e.lock(sessionID)
	defer unlock()

	status, _, err := e.combat(sessionID)
	if err != nil {
		return nil, err
	}
	view := &CombatView{SessionID: sessionID, Phase: status.Phase, Turn: status.Turn}

	names := make(map[string]string)
	characters, err := e.store.EntitiesWith(sessionID, state.TypeCharacterStatus)
	if err != nil {
		return nil, err
	}
	for _, ent := range characters {
		cv, err := e.combatantView(sessionID, ent)
		if err != nil {
			return nil, err
		}
		names[ent.ID] = cv.Name
		view.Party = append(view.Party, cv)
	}
	enemy, _, err := e.enemy(sessionID)
	if err != nil {
		return nil, err
	}
	if view.Enemy, err = e.combatantView(sessionID, enemy); err != nil {
		return nil, err
	}
	names[enemy.ID] = view.Enemy.Name

	hand, deck, err := effects.Player(e.store, sessionID)
	if err != nil {
		return nil, err
	}
	handData, _, err := state.Fetch[state.Hand](e.store, sessionID, hand)
	if err != nil {
		return nil, err
	}
	for _, ref := range handData.CardRefs {
		cv, err := e.cardView(sessionID, ref, names)
		if err != nil {
			return nil, err
		}
		view.Hand = append(view.Hand, cv)
	}
	deckData, _, err := state.Fetch[state.ActionDeck](e.store, sessionID, deck)
	if err != nil {
		return nil, err
	}
	view.DeckSize = len(deckData.CardRefs)

	if status.PendingEnemyAttack != nil {
		cv, err := e.cardView(sessionID, *status.PendingEnemyAttack, names)
		if err != nil {
			return nil, err
		}
		view.PendingAttack = &cv
	}
	return view, nil
}

func (e *Engine) combatantView(sessionID string, ent state.Entity) (CombatantView, error) {
	cv := CombatantView{EntityID: ent.ID}
	if ch, _, ok := state.First[state.CharacterStatus](ent); ok {
		cv.DataID, cv.Name = ch.DataID, ch.DataID
		if def, err := e.catalog.Character(ch.DataID); err == nil {
			cv.Name = def.Name
		}
	} else if en, _, ok := state.First[state.EnemyStatus](ent); ok {
		cv.DataID, cv.Name = en.DataID, en.DataID
		if def, err := e.catalog.Enemy(en.DataID); err == nil {
			cv.Name = def.Name
		}
	}
	if health, _, ok := state.First[state.Health](ent); ok {
		cv.HP, cv.MaxHP = health.HP, health.MaxHP
		cv.Alive = health.HP > 0
	}

	if ent.Has(state.TypePosition) {
		card, _, err := e.positions.Current(sessionID, ent.ID)
		if err != nil {
			return CombatantView{}, err
		}
		cv.Position = card.DataID
		if def, err := e.catalog.PositionCard(card.DataID); err == nil {
			cv.Position = def.Name
		}
	}
	return cv, nil
}

func (e *Engine) cardView(sessionID string, ref state.ComponentRef, names map[string]string) (CardView, error) {
	data, _, err := state.Fetch[state.ActionCard](e.store, sessionID, ref)
	if err != nil {
		return CardView{}, err
	}
	cv := CardView{ID: ref.ID, DataID: data.DataID, Name: data.DataID}
	if def, err := e.catalog.ActionCard(data.DataID); err == nil {
		cv.Name = def.Name
	}
	owner, ok, err := e.cards.Owner(sessionID, ref)
	if err != nil {
		return CardView{}, err
	}
	if ok {
		cv.OwnerID = owner.ID
		cv.OwnerName = names[owner.ID]
	}
	return cv, nil
}
