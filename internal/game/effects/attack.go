package effects

import (
	"strconv"

	"github.com/emberdeck/skirmish/internal/game/rules"
	"github.com/emberdeck/skirmish/internal/game/state"
	"go.uber.org/zap"
)

// MaxAttackDepth caps how deep attacks triggered by other attacks may nest.
const MaxAttackDepth = 16

// AttackSystem resolves every attack component in a pass.
type AttackSystem struct {
	walker     *rules.Walker
	dispatcher *rules.Dispatcher
	bus        *rules.EventBus
	logger     *zap.Logger
}

// NewAttackSystem creates the attack system. Attacks re-emit "after attack"
// through dispatcher.
func NewAttackSystem(walker *rules.Walker, dispatcher *rules.Dispatcher, bus *rules.EventBus, logger *zap.Logger) *AttackSystem {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttackSystem{walker: walker, dispatcher: dispatcher, bus: bus, logger: logger}
}

func (s *AttackSystem) Run(p rules.Pass) error {
	for ent, err := range p.Relevant(s.walker) {
		if err != nil {
			return err
		}
		for _, attack := range state.All[state.Attack](ent) {
			attacker, defender, ok, err := s.combatants(p, ent, attack)
			if err != nil {
				return err
			}
			if !ok {
				s.logger.Debug("attack has no valid combatants",
					zap.String("session_id", p.SessionID),
					zap.String("effect_id", ent.ID),
					zap.String("actor", string(attack.Actor)),
					zap.String("target", string(attack.Target)),
				)
				continue
			}
			if err := s.hit(p, attacker, defender); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *AttackSystem) combatants(p rules.Pass, ent state.Entity, attack state.Attack) (state.Entity, state.Entity, bool, error) {
	store := s.walker.Store()
	attacker, ok, err := rules.ResolveActor(store, p.SessionID, ent, attack.Actor, p.Actors)
	if err != nil || !ok {
		return state.Entity{}, state.Entity{}, false, err
	}
	defender, ok, err := rules.ResolveActor(store, p.SessionID, ent, attack.Target, p.Actors)
	if err != nil || !ok {
		return state.Entity{}, state.Entity{}, false, err
	}
	if attacker, err = store.Entity(p.SessionID, attacker.ID); err != nil {
		return state.Entity{}, state.Entity{}, false, err
	}
	if defender, err = store.Entity(p.SessionID, defender.ID); err != nil {
		return state.Entity{}, state.Entity{}, false, err
	}
	return attacker, defender, attacker.Has(state.TypeAttacker) && defender.Has(state.TypeHealth), nil
}

func (s *AttackSystem) hit(p rules.Pass, attacker, defender state.Entity) error {
	actors := p.Actors.Attacking(attacker, defender)
	after := rules.Pass{SessionID: p.SessionID, Event: state.EventAfterAttack, Actors: actors, Cards: p.Cards}

	cancelled, err := s.cancelled(after)
	if err != nil {
		return err
	}
	if cancelled {
		s.logger.Info("attack cancelled",
			zap.String("session_id", p.SessionID),
			zap.String("attacker_id", attacker.ID),
			zap.String("defender_id", defender.ID),
		)
		s.bus.Publish(rules.NewEvent(rules.EventAttackCancelled, p.SessionID, attacker.ID, defender.ID))
		return nil
	}

	breakdown, err := ComputeDamage(attacker, defender, after.Relevant(s.walker))
	if err != nil {
		return err
	}
	remaining, err := ApplyDamage(s.walker.Store(), p.SessionID, defender.ID, breakdown.Net)
	if err != nil {
		return err
	}

	s.logger.Debug("damage dealt",
		zap.String("session_id", p.SessionID),
		zap.String("attacker_id", attacker.ID),
		zap.String("defender_id", defender.ID),
		zap.Int("maximum", breakdown.Maximum),
		zap.Int("armor", breakdown.Armor),
		zap.Float64("armor_multiplier", breakdown.ArmorMultiplier),
		zap.Int("damage", breakdown.Net),
		zap.Int("remaining_hp", remaining),
	)
	evt := rules.NewEventWithAmount(rules.EventDamageDealt, p.SessionID, attacker.ID, defender.ID, breakdown.Net)
	evt.Metadata["remaining_hp"] = strconv.Itoa(remaining)
	s.bus.Publish(evt)

	if p.Depth >= MaxAttackDepth {
		s.logger.Warn("attack chain too deep, not re-emitting",
			zap.String("session_id", p.SessionID),
			zap.Int("depth", p.Depth),
		)
		return nil
	}
	return s.dispatcher.Emit(p.Nested(state.EventAfterAttack, actors))
}

func (s *AttackSystem) cancelled(after rules.Pass) (bool, error) {
	for ent, err := range after.Relevant(s.walker) {
		if err != nil {
			return false, err
		}
		if ent.Has(state.TypeCancelAttacks) {
			return true, nil
		}
	}
	return false, nil
}
