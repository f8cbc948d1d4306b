package gamedata

import "github.com/emberdeck/skirmish/internal/game/state"

func positionCards() []PositionCard {
	var (
		beneficial  = state.TagBeneficial
		detrimental = state.TagDetrimental
		offensive   = state.TagOffensive
		defensive   = state.TagDefensive
	)
	card := func(id, name string, tags state.Tags, groups ...group) PositionCard {
		return PositionCard{ID: id, Name: name, Prefab: positionCard(id, tags, groups...)}
	}
	pen := func(m float64) state.ArmorPenetration { return state.ArmorPenetration{Multiplier: m} }
	marked := func(duration int, modifier float64) state.ApplyBuff {
		return buff(duration, state.ActorAttacker, asReactive(threat(modifier)))
	}

	return []PositionCard{
		card("basic", "idling", nil),
		card("advance", "advancing", nil),
		card("defend", "bracing for impact", state.Tags{beneficial, defensive},
			asReactive(taunt(1)),
			asDefender(reduction(5)),
		),
		card("attack", "in position to attack", state.Tags{beneficial, offensive},
			asReactive(threat(1)),
			asAttacker(bonus(5)),
		),
		card("vengeance", "parrying", state.Tags{beneficial, defensive},
			asDefender(attack(state.ActorDefender, state.ActorAttacker), taunt(0.5), bonus(-5)),
		),
		card("sneaking", "sneaking", state.Tags{beneficial, defensive},
			asReactive(threat(-1)),
		),

		// -- assassin --
		card("assassin.initial", "quietly advancing", state.Tags{defensive},
			asReactive(threat(-2)),
			asAttacker(bonus(-5)),
		),
		card("assassin.advancing-a", "quietly advancing", state.Tags{defensive},
			asReactive(threat(-2)),
			asAttacker(bonus(-3)),
		),
		card("assassin.advancing-b", "quietly advancing", state.Tags{offensive},
			asReactive(threat(-2)),
			asAttacker(bonus(-1)),
		),
		card("assassin.sneaking-a", "sneaking around", state.Tags{defensive},
			asReactive(threat(-1)),
			asAttacker(bonus(-4), pen(0.8)),
		),
		card("assassin.sneaking-b", "sneaking around", state.Tags{defensive},
			asReactive(threat(-1)),
			asAttacker(bonus(-2), pen(0.9)),
		),
		card("assassin.stumble", "stumbling", state.Tags{detrimental},
			asReactive(threat(1)),
			asDefender(bonus(5), reduction(-5)),
		),
		card("assassin.in-position-a", "in position to strike", state.Tags{offensive},
			asReactive(threat(1)),
			asAttacker(bonus(6), marked(2, 1)),
		),
		card("assassin.in-position-b", "in position to strike", state.Tags{offensive},
			asReactive(threat(1)),
			asAttacker(bonus(5), marked(2, 1)),
		),

		// -- tank --
		card("tank.initial", "advancing", nil,
			asReactive(threat(-1)),
			asAttacker(bonus(-4)),
		),
		card("tank.advancing-a", "cautiously advancing", state.Tags{defensive},
			asAttacker(bonus(-1)),
			asDefender(reduction(2)),
		),
		card("tank.advancing-b", "cautiously advancing", state.Tags{defensive, beneficial},
			asDefender(reduction(1)),
		),
		card("tank.taunt-a", "pressuring the enemy", state.Tags{defensive},
			asReactive(taunt(1)),
			asDefender(reduction(3)),
		),
		card("tank.taunt-b", "pressuring the enemy", state.Tags{defensive},
			asReactive(taunt(0.5)),
			asDefender(reduction(6)),
		),
		card("tank.bracing", "bracing for impact", state.Tags{defensive},
			asDefender(reduction(8)),
		),
		card("tank.attack-a", "ready to attack", state.Tags{offensive},
			asAttacker(bonus(1)),
			asDefender(reduction(2)),
			asReactive(threat(0.5)),
		),
		card("tank.attack-b", "ready to attack", state.Tags{offensive},
			asAttacker(bonus(2), marked(2, 0.25)),
			asReactive(threat(0.5)),
		),

		// -- dps --
		card("dps.initial", "advancing", nil,
			asAttacker(bonus(-1)),
			asDefender(threat(-1)),
		),
		card("dps.advancing-a", "advancing", nil),
		card("dps.advancing-b", "aggressively advancing", nil,
			asAttacker(bonus(2)),
			asReactive(threat(1)),
		),
		card("dps.idle", "ready for combat", nil,
			asAttacker(bonus(1)),
		),
		card("dps.attack-a", "in position to attack", nil,
			asAttacker(bonus(3)),
			asReactive(threat(1)),
		),
		card("dps.attack-b", "in position to attack", nil,
			asAttacker(bonus(4)),
			asReactive(threat(1)),
		),
		card("dps.all-in-a", "going all in", nil,
			asAttacker(bonus(5)),
			asReactive(threat(2)),
		),
		card("dps.all-in-b", "going all in", nil,
			asAttacker(bonus(3), pen(0.5)),
			asReactive(threat(2)),
		),
	}
}
