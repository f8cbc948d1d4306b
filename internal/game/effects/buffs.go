package effects

import (
	"fmt"

	"github.com/emberdeck/skirmish/internal/game/cards"
	"github.com/emberdeck/skirmish/internal/game/rules"
	"github.com/emberdeck/skirmish/internal/game/state"
	"go.uber.org/zap"
)

// Buffs applies timed effects and expires them at end of turn.
type Buffs struct {
	walker *rules.Walker
	cards  *cards.Manager
	bus    *rules.EventBus
	logger *zap.Logger
}

// NewBuffs creates the buff system.
func NewBuffs(walker *rules.Walker, cardManager *cards.Manager, bus *rules.EventBus, logger *zap.Logger) *Buffs {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Buffs{walker: walker, cards: cardManager, bus: bus, logger: logger}
}

// Run applies every apply-buff component in the pass.
func (b *Buffs) Run(p rules.Pass) error {
	store := b.walker.Store()
	for ent, err := range p.Relevant(b.walker) {
		if err != nil {
			return err
		}
		for _, apply := range state.All[state.ApplyBuff](ent) {
			target, ok, err := rules.ResolveActor(store, p.SessionID, ent, apply.ApplyTo, p.Actors)
			if err != nil {
				return err
			}
			if !ok {
				b.logger.Debug("skipping buff with no target",
					zap.String("session_id", p.SessionID),
					zap.String("effect_id", ent.ID),
					zap.String("apply_to", string(apply.ApplyTo)),
				)
				continue
			}
			if _, err := b.Apply(p.SessionID, target.ID, apply); err != nil {
				return err
			}
		}
	}
	return nil
}

// Apply instantiates the buff prefab, links it to target and marks the link
// with the buff duration. The new effects take the target's owner.
func (b *Buffs) Apply(sessionID, targetID string, apply state.ApplyBuff) (state.Component, error) {
	store := b.walker.Store()
	root, err := store.Instantiate(sessionID, apply.Prefab)
	if err != nil {
		return state.Component{}, fmt.Errorf("instantiate buff: %w", err)
	}

	target, err := store.Entity(sessionID, targetID)
	if err != nil {
		return state.Component{}, err
	}
	if owner, _, ok := state.First[state.CardOwner](target); ok {
		if err := b.cards.ApplyTreeOwnership(sessionID, owner.Owner, root.Ref()); err != nil {
			return state.Component{}, err
		}
	}

	link, err := store.AddComponent(sessionID, targetID, state.LinkEffect{Ref: root.Ref()})
	if err != nil {
		return state.Component{}, err
	}
	buff, err := store.AddComponent(sessionID, targetID, state.Buff{EffectRef: link.Ref(), RemainingTurns: apply.Duration})
	if err != nil {
		return state.Component{}, err
	}

	b.logger.Debug("buff applied",
		zap.String("session_id", sessionID),
		zap.String("target_id", targetID),
		zap.String("link_id", link.ID),
		zap.Int("duration", apply.Duration),
	)
	evt := rules.NewEventWithAmount(rules.EventBuffApplied, sessionID, root.ID, targetID, apply.Duration)
	evt.Metadata["link_id"] = link.ID
	b.bus.Publish(evt)
	return buff, nil
}

// Tick counts every buff down by one turn. A buff whose count drops below
// zero is removed together with its link. It returns how many expired.
func (b *Buffs) Tick(sessionID string) (int, error) {
	store := b.walker.Store()
	holders, err := store.EntitiesWith(sessionID, state.TypeBuff)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, holder := range holders {
		for _, c := range holder.Components(state.TypeBuff) {
			buff, err := state.Decode[state.Buff](c)
			if err != nil {
				return expired, err
			}
			remaining := buff.RemainingTurns - 1
			if remaining >= 0 {
				if _, err := state.Update(store, sessionID, c, func(v *state.Buff) { v.RemainingTurns = remaining }); err != nil {
					return expired, err
				}
				continue
			}

			if err := store.RemoveComponent(sessionID, buff.EffectRef.ID); err != nil {
				return expired, err
			}
			if err := store.RemoveComponent(sessionID, c.ID); err != nil {
				return expired, err
			}
			expired++

			b.logger.Debug("buff expired",
				zap.String("session_id", sessionID),
				zap.String("target_id", holder.ID),
				zap.String("link_id", buff.EffectRef.ID),
			)
			evt := rules.NewEvent(rules.EventBuffExpired, sessionID, "", holder.ID)
			evt.Metadata["link_id"] = buff.EffectRef.ID
			b.bus.Publish(evt)
		}
	}
	return expired, nil
}
