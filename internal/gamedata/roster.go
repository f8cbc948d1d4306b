package gamedata

import "github.com/emberdeck/skirmish/internal/game/state"

func characters() []Character {
	return []Character{
		{
			ID:          "elf",
			Name:        "Elf",
			MaxHP:       30,
			BaseDamage:  5,
			BaseArmor:   0,
			ActionCards: []string{"attack", "attack", "defend", "elf.double-shot", "elf.stinging-shot", "elf.ignite-arrows", "elf.triple-shot"},
			PositionCards: [Stages][]string{
				{"advance"},
				{"advance", "attack"},
				{"attack", "attack", "basic"},
			},
		},
		{
			ID:          "jeanne",
			Name:        "Jeanne",
			MaxHP:       40,
			BaseDamage:  3,
			BaseArmor:   2,
			ActionCards: []string{"attack", "defend", "vengeance", "jeanne.shield-bash", "jeanne.heavy-strike", "jeanne.shielded-strike", "jeanne.tireless-assault", "jeanne.double-swing"},
			PositionCards: [Stages][]string{
				{"tank.initial"},
				{"tank.advancing-a", "tank.advancing-b", "tank.taunt-a"},
				{"tank.taunt-b", "tank.bracing", "tank.attack-a", "tank.attack-b", "defend"},
			},
			// Stalwart: one less damage from every blow.
			Passives: []state.Prefab{
				passive(asDefender(reduction(1))),
			},
		},
		{
			ID:          "medusa",
			Name:        "Medusa",
			MaxHP:       30,
			BaseDamage:  5,
			BaseArmor:   0,
			ActionCards: []string{"attack", "defend", "medu.debilitating-poison", "medu.into-the-shadows", "medu.planned-strike", "medu.forward-strike", "shared.piercing-attack"},
			PositionCards: [Stages][]string{
				{"assassin.initial"},
				{"assassin.advancing-a", "assassin.advancing-b", "assassin.sneaking-a", "sneaking"},
				{"assassin.sneaking-b", "assassin.stumble", "assassin.in-position-a", "assassin.in-position-b"},
			},
			// Shadowed: harder to single out.
			Passives: []state.Prefab{
				passive(asReactive(threat(-0.5))),
			},
		},
	}
}

func enemies() []Enemy {
	return []Enemy{
		{
			ID:         "jotun",
			Name:       "Jotun",
			MaxHP:      100,
			BaseDamage: 10,
			BaseArmor:  0,
			ActionCards: []string{
				"jotun.attack-a",
				"jotun.attack-b",
				"jotun.stun-a",
				"jotun.stun-b",
				"jotun.aoe",
				"jotun.double-attack",
			},
		},
	}
}

func demons() []Demon {
	return []Demon{
		{ID: "chiyo", Name: "Chiyo"},
		{ID: "meru", Name: "Meru"},
		{ID: "miyu", Name: "Miyu"},
	}
}
