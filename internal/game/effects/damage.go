// Package effects implements the combat systems that consume the effect
// stream: attacks and damage, buffs, card draws, position moves and discards.
package effects

import (
	"fmt"
	"iter"
	"math"

	"github.com/emberdeck/skirmish/internal/game/state"
)

// MinimumDamage is the least damage an attack that lands can deal.
const MinimumDamage = 1

// Breakdown records how a hit's damage was computed.
type Breakdown struct {
	Base            int
	Maximum         int
	Armor           int
	ArmorMultiplier float64
	Net             int
}

// ComputeDamage reduces an effect stream to the net damage attacker deals to
// defender. Reductions are summed as negative armor and scaled by armor
// penetration. A negative reduction makes armor positive; that vulnerability
// is added unscaled.
func ComputeDamage(attacker, defender state.Entity, stream iter.Seq2[state.Entity, error]) (Breakdown, error) {
	atk, _, ok := state.First[state.Attacker](attacker)
	if !ok {
		return Breakdown{}, fmt.Errorf("%w: attacker %s has no %q", state.ErrMissingComponents, attacker.ID, state.TypeAttacker)
	}
	health, _, ok := state.First[state.Health](defender)
	if !ok {
		return Breakdown{}, fmt.Errorf("%w: defender %s has no %q", state.ErrMissingComponents, defender.ID, state.TypeHealth)
	}

	b := Breakdown{
		Base:            atk.BaseDamage - health.BaseArmor,
		ArmorMultiplier: 1,
	}
	b.Maximum = b.Base

	for ent, err := range stream {
		if err != nil {
			return Breakdown{}, err
		}
		for _, bonus := range state.All[state.BonusDamage](ent) {
			b.Maximum += bonus.Add
		}
		for _, reduction := range state.All[state.DamageReduction](ent) {
			b.Armor -= reduction.Subtract
		}
		for _, pen := range state.All[state.ArmorPenetration](ent) {
			b.ArmorMultiplier *= pen.Multiplier
		}
	}

	if b.Armor <= 0 {
		b.Net = b.Maximum + int(math.Ceil(float64(b.Armor)*b.ArmorMultiplier))
	} else {
		b.Net = b.Maximum + b.Armor
	}
	b.Net = max(MinimumDamage, b.Net)
	return b, nil
}

// ApplyDamage lowers the defender's hp by amount, never below zero, and
// returns the remaining hp.
func ApplyDamage(store *state.Store, sessionID, defenderID string, amount int) (int, error) {
	ent, err := store.Entity(sessionID, defenderID)
	if err != nil {
		return 0, err
	}
	_, c, ok := state.First[state.Health](ent)
	if !ok {
		return 0, fmt.Errorf("%w: defender %s has no %q", state.ErrMissingComponents, defenderID, state.TypeHealth)
	}
	updated, err := state.Update(store, sessionID, c, func(h *state.Health) {
		h.HP = max(h.HP-amount, 0)
	})
	if err != nil {
		return 0, err
	}
	health, err := state.Decode[state.Health](updated)
	if err != nil {
		return 0, err
	}
	return health.HP, nil
}
