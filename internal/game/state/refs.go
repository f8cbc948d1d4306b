package state

import (
	"fmt"
	"slices"
)

// ComponentRef points at one component of a known type.
type ComponentRef struct {
	ID   string
	Type Type
}

func (r ComponentRef) String() string {
	return fmt.Sprintf("%s(%s)", r.Type, r.ID)
}

// EntityRef points at an entity that must carry every type in With.
type EntityRef struct {
	ID   string
	With []Type
}

// Requires reports whether the ref declares t as a required component type.
func (r EntityRef) Requires(t Type) bool {
	return slices.Contains(r.With, t)
}

// Ref builds an entity ref. Inside a prefab, id names a template key.
func Ref(id string, with ...Type) EntityRef {
	return EntityRef{ID: id, With: with}
}

// CRef builds a component ref. Inside a prefab, id names a spec id.
func CRef(id string, t Type) ComponentRef {
	return ComponentRef{ID: id, Type: t}
}

// mapRefs returns a copy of d with every ref passed through the mappers.
// Adding a component kind means adding it here.
func mapRefs(d Data, fe func(EntityRef) (EntityRef, error), fc func(ComponentRef) (ComponentRef, error)) (Data, error) {
	var err error
	switch v := d.(type) {
	case CombatStatus:
		if v.PendingEnemyAttack != nil {
			ref, mapErr := fc(*v.PendingEnemyAttack)
			if mapErr != nil {
				return nil, mapErr
			}
			v.PendingEnemyAttack = &ref
		}
		return v, nil
	case ActionDeck:
		v.CardRefs, err = mapComponentRefs(v.CardRefs, fc)
		return v, err
	case Hand:
		v.CardRefs, err = mapComponentRefs(v.CardRefs, fc)
		return v, err
	case Position:
		for stage := range v.AllCardRefs {
			if v.AllCardRefs[stage], err = mapComponentRefs(v.AllCardRefs[stage], fc); err != nil {
				return nil, err
			}
		}
		if v.CurrentCardRef.ID != "" {
			if v.CurrentCardRef, err = fc(v.CurrentCardRef); err != nil {
				return nil, err
			}
		}
		v.NextCardTags = slices.Clone(v.NextCardTags)
		return v, nil
	case PositionCard:
		v.EffectRef, err = fe(v.EffectRef)
		return v, err
	case Buff:
		v.EffectRef, err = fc(v.EffectRef)
		return v, err
	case LinkEffect:
		v.Ref, err = fe(v.Ref)
		return v, err
	case CardOwner:
		v.Owner, err = fe(v.Owner)
		return v, err
	case EnemyStatus, PlayerStatus, CharacterStatus, Health, Attacker, ActionCard,
		CombatEffect, BonusDamage, DamageReduction, Threat, Taunt, Rage, Attack,
		CancelAttacks, ArmorPenetration, IfOwnerIs, IfTeamIs, IfPosition,
		DrawActionCard, MoveToPosition, ReapplyPosition, DiscardPlayerCards:
		return v, nil
	case ApplyBuff:
		// The nested prefab is instantiated later, when the buff fires.
		return v, nil
	default:
		return nil, fmt.Errorf("unknown component data %T", d)
	}
}

func mapComponentRefs(refs []ComponentRef, fc func(ComponentRef) (ComponentRef, error)) ([]ComponentRef, error) {
	if refs == nil {
		return nil, nil
	}
	out := make([]ComponentRef, len(refs))
	for i, ref := range refs {
		mapped, err := fc(ref)
		if err != nil {
			return nil, err
		}
		out[i] = mapped
	}
	return out, nil
}

// outgoingRefs lists the refs held by d.
func outgoingRefs(d Data) ([]EntityRef, []ComponentRef) {
	var entities []EntityRef
	var components []ComponentRef
	_, _ = mapRefs(d,
		func(r EntityRef) (EntityRef, error) {
			entities = append(entities, r)
			return r, nil
		},
		func(r ComponentRef) (ComponentRef, error) {
			components = append(components, r)
			return r, nil
		})
	return entities, components
}
