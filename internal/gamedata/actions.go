package gamedata

import "github.com/emberdeck/skirmish/internal/game/state"

// Each card has two halves. The active half is used when the card is played
// and the reactive half when it is held up in defense.
func actionCards() []ActionCard {
	active, reactive := state.ActorActive, state.ActorReactive

	return []ActionCard{
		// -- basic --
		{
			ID:   "attack",
			Name: "Attack / Parry",
			Prefab: actionCard("attack",
				asActive(strike()),
				asAttacker(ownerIs(active), bonus(5)),
				asReactive(threat(1), state.Rage{TauntMultiplier: 1.5}),
			),
		},
		{
			ID:   "defend",
			Name: "Defend / Brace",
			Prefab: actionCard("defend",
				asActive(move(active, state.TagDefensive)),
				asReactive(taunt(1), state.Rage{TauntMultiplier: 0.5}),
				asDefender(ownerIs(reactive), reduction(5)),
			),
		},
		{
			ID:   "vengeance",
			Name: "Lunge / Vengeance",
			Prefab: actionCard("vengeance",
				asActive(strike()),
				asAttacker(ownerIs(active), bonus(-2)),
				asReactive(taunt(0.5), move(reactive, state.TagDefensive)),
			),
		},

		// -- jeanne --
		{
			ID:   "jeanne.double-swing",
			Name: "Double Swing / Strike Back",
			Prefab: actionCard("jeanne.double-swing",
				asActive(strike(), strike()),
				asReactive(attack(reactive, active), threat(1)),
			),
		},
		{
			ID:   "jeanne.tireless-assault",
			Name: "Tireless Assault / Stall",
			Prefab: actionCard("jeanne.tireless-assault",
				asActive(strike(), state.DrawActionCard{MustMatch: state.ActorAttacker}),
				asReactive(taunt(1)),
				asDefender(ownerIs(reactive), state.DrawActionCard{}),
			),
		},
		{
			ID:   "jeanne.shielded-strike",
			Name: "Shielded Strike / Advancing Defense",
			Prefab: actionCard("jeanne.shielded-strike",
				asActive(strike(), buff(1, active, asDefender(reduction(5)))),
				asReactive(threat(1), taunt(1), move(reactive, state.TagOffensive)),
				asDefender(ownerIs(reactive), reduction(5)),
			),
		},
		{
			ID:   "jeanne.shield-bash",
			Name: "Shield Bash / Stoic Defense",
			Prefab: actionCard("jeanne.shield-bash",
				asDefender(ownerIs(active), state.CancelAttacks{}),
				asActive(strike()),
				asReactive(taunt(1)),
				asDefender(ownerIs(reactive), reduction(10)),
			),
		},
		{
			ID:   "jeanne.heavy-strike",
			Name: "Heavy Strike / Dull",
			Prefab: actionCard("jeanne.heavy-strike",
				asActive(strike()),
				asAttacker(ownerIs(active), bonus(5)),
				asReactive(taunt(1), buff(3, active, asAttacker(bonus(-3)))),
			),
		},

		// -- shared --
		{
			ID:   "shared.piercing-attack",
			Name: "Piercing Attack / Brace",
			Prefab: actionCard("shared.piercing-attack",
				asActive(strike()),
				asAttacker(ownerIs(active), state.ArmorPenetration{Multiplier: 0.25}),
				asDefender(ownerIs(reactive), reduction(4)),
			),
		},

		// -- elf --
		{
			ID:   "elf.ignite-arrows",
			Name: "Ignite Arrows / Chilling Arrows",
			Prefab: actionCard("elf.ignite-arrows",
				asActive(strike(), buff(3, active, asAttacker(bonus(3)))),
				asAttacker(ownerIs(active), bonus(-3)),
				asReactive(buff(3, reactive, asAttacker(buff(3, state.ActorDefender, asAttacker(bonus(-2)))))),
				asDefender(ownerIs(reactive), reduction(2)),
			),
		},
		{
			ID:   "elf.triple-shot",
			Name: "Triple Shot / Quick Shot",
			Prefab: actionCard("elf.triple-shot",
				asActive(strike(), strike(), strike()),
				asAttacker(ownerIs(active), bonus(-4)),
				asReactive(attack(reactive, active)),
				asAttacker(ownerIs(reactive), bonus(-2)),
			),
		},
		{
			ID:   "elf.stinging-shot",
			Name: "Stinging Arrows / Make Scarce",
			Prefab: actionCard("elf.stinging-shot",
				asActive(strike(), buff(3, active, asAttacker(
					buff(3, state.ActorDefender, asActive(state.Rage{TauntMultiplier: 1.3})),
				))),
				asAttacker(ownerIs(active), bonus(-3)),
				asReactive(threat(-2)),
			),
		},
		{
			ID:   "elf.double-shot",
			Name: "Double Shot / Recycle",
			Prefab: actionCard("elf.double-shot",
				asActive(strike(), strike()),
				asDefender(ownerIs(reactive), reduction(-3)),
				asReactiveTeam(state.DrawActionCard{}),
			),
		},

		// -- medusa --
		{
			ID:   "medu.debilitating-poison",
			Name: "Debilitating Poison / Evade",
			Prefab: actionCard("medu.debilitating-poison",
				asActive(strike()),
				asAttacker(ownerIs(active), buff(1, state.ActorDefender, asAttacker(bonus(-7)))),
				asReactive(threat(-1)),
				asReactiveTeam(move(state.ActorOwner, state.TagDefensive)),
			),
		},
		{
			ID:   "medu.into-the-shadows",
			Name: "Into the Shadows / Make Scarce",
			Prefab: actionCard("medu.into-the-shadows",
				asAttacker(
					strike(),
					buff(1, active, asReactive(threat(-1))),
					buff(2, active, asReactive(threat(-1))),
				),
				asReactive(threat(-2)),
			),
		},
		{
			ID:   "medu.planned-strike",
			Name: "Planned Strike / Backstab",
			Prefab: actionCard("medu.planned-strike",
				asActive(strike()),
				asAttacker(ownerIs(active), state.ReapplyPosition{}, state.ReapplyPosition{}),
				asReactiveTeam(ownerIs(state.ActorInactive), attack(state.ActorOwner, active)),
				asAttacker(ownerIs(reactive), bonus(10), state.ArmorPenetration{Multiplier: 0.25}),
				asReactive(threat(1)),
			),
		},
		{
			ID:   "medu.forward-strike",
			Name: "Forward Strike / Recycle",
			Prefab: actionCard("medu.forward-strike",
				asActive(strike(), move(active, state.TagOffensive), buff(1, active, asReactive(threat(1)))),
				asReactiveTeam(state.DrawActionCard{}),
				asReactive(threat(1)),
				asDefender(ownerIs(reactive), reduction(-3)),
			),
		},

		// -- jotun --
		// Reactive halves only take effect after the blow they answer.
		{
			ID:   "jotun.attack-a",
			Name: "Smash / Hunker Down",
			Prefab: actionCard("jotun.attack-a",
				asActive(strike()),
				asReactive(buff(1, reactive, asDefender(reduction(5)))),
			),
		},
		{
			ID:   "jotun.attack-b",
			Name: "Crush / Glare",
			Prefab: actionCard("jotun.attack-b",
				asActive(strike()),
				asAttacker(ownerIs(active), bonus(2)),
				asReactive(buff(1, state.ActorOwner, asActive(state.Rage{TauntMultiplier: 2}))),
			),
		},
		{
			ID:   "jotun.stun-a",
			Name: "Stomp / Shake Off",
			Prefab: actionCard("jotun.stun-a",
				asActive(strike(), state.DiscardPlayerCards{Match: reactive}),
				asAttacker(ownerIs(active), bonus(-4)),
				asReactive(state.DiscardPlayerCards{Match: active}),
			),
		},
		{
			ID:   "jotun.stun-b",
			Name: "Quake / Shrug",
			Prefab: actionCard("jotun.stun-b",
				asActive(strike(), move(reactive, state.TagDetrimental)),
				asAttacker(ownerIs(active), bonus(-3)),
				asReactive(buff(2, reactive, asDefender(reduction(2)))),
			),
		},
		{
			ID:   "jotun.aoe",
			Name: "Sweep / Roar",
			Prefab: actionCard("jotun.aoe",
				asActive(strike(), buff(1, reactive, asDefender(reduction(-2)))),
				asAttacker(ownerIs(active), bonus(-4)),
				asReactive(move(active, state.TagDetrimental)),
			),
		},
		{
			ID:   "jotun.double-attack",
			Name: "Double Smash / Stand Firm",
			Prefab: actionCard("jotun.double-attack",
				asActive(strike(), strike()),
				asAttacker(ownerIs(active), bonus(-3)),
				asReactive(buff(0, reactive, asDefender(reduction(3)))),
			),
		},
	}
}
