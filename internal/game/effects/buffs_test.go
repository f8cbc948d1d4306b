package effects_test

import (
	"testing"

	"github.com/emberdeck/skirmish/internal/game/rules"
	"github.com/emberdeck/skirmish/internal/game/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bonusBuff(add int) state.Prefab {
	return state.Prefab{
		state.RootKey: {
			{ID: "on", Data: state.CombatEffect{On: state.EventAfterAttack}},
			{ID: "bonus", Data: state.BonusDamage{Add: add}},
		},
	}
}

// reachable reports whether an entity is on the target's link chain.
func (f *fixture) reachable(targetID, entityID string) bool {
	f.t.Helper()
	for ent, err := range f.walker.All(f.sessionID, state.Ref(targetID)) {
		require.NoError(f.t, err)
		if ent.ID == entityID {
			return true
		}
	}
	return false
}

func TestBuffVisibleForDurationPlusOneTicks(t *testing.T) {
	for _, duration := range []int{0, 1, 3} {
		f := newFixture(t)
		hero := f.hero(20, 0, 5)

		buff, err := f.systems.Buffs.Apply(f.sessionID, hero, state.ApplyBuff{Prefab: bonusBuff(2), Duration: duration})
		require.NoError(t, err)
		data, err := state.Decode[state.Buff](buff)
		require.NoError(t, err)
		link, err := f.store.ComponentByRef(f.sessionID, data.EffectRef)
		require.NoError(t, err)
		effectID := link.Data.(state.LinkEffect).Ref.ID

		require.True(t, f.reachable(hero, effectID))
		for tick := 1; tick <= duration; tick++ {
			expired, err := f.systems.Buffs.Tick(f.sessionID)
			require.NoError(t, err)
			assert.Zero(t, expired)
			assert.True(t, f.reachable(hero, effectID), "duration %d, tick %d", duration, tick)
		}

		expired, err := f.systems.Buffs.Tick(f.sessionID)
		require.NoError(t, err)
		assert.Equal(t, 1, expired)
		assert.False(t, f.reachable(hero, effectID), "duration %d", duration)

		ent := f.fresh(hero)
		assert.False(t, ent.Has(state.TypeBuff))
		assert.False(t, ent.Has(state.TypeLinkEffect))
		assert.Len(t, f.eventsOf(rules.EventBuffExpired), 1)
	}
}

func TestBuffTakesTargetOwner(t *testing.T) {
	f := newFixture(t)
	hero := f.hero(20, 0, 5)

	buff, err := f.systems.Buffs.Apply(f.sessionID, hero, state.ApplyBuff{Prefab: bonusBuff(2), Duration: 1})
	require.NoError(t, err)
	data, err := state.Decode[state.Buff](buff)
	require.NoError(t, err)
	link, _, err := state.Fetch[state.LinkEffect](f.store, f.sessionID, data.EffectRef)
	require.NoError(t, err)

	owner, _, ok := state.First[state.CardOwner](f.fresh(link.Ref.ID))
	require.True(t, ok)
	assert.Equal(t, hero, owner.Owner.ID)
	assert.Equal(t, 1, data.RemainingTurns)
}

func TestBuffAppliedByCardRaisesLaterDamage(t *testing.T) {
	f := newFixture(t)
	hero := f.hero(20, 0, 5)
	enemy := f.enemy(100, 0, 4)

	empower := f.card(hero, uniq("act-", activeGroup(state.ApplyBuff{
		Prefab: state.Prefab{
			state.RootKey: {
				{ID: "on", Data: state.CombatEffect{On: state.EventAfterAttack}},
				{ID: "if", Data: state.IfOwnerIs{Owner: state.ActorAttacker}},
				{ID: "bonus", Data: state.BonusDamage{Add: 3}},
			},
		},
		Duration: 1,
		ApplyTo:  state.ActorOwner,
	})))
	strike := f.card(hero, uniq("act-", activeGroup(state.Attack{Actor: state.ActorActive, Target: state.ActorReactive})))

	require.NoError(t, f.emit(state.EventBeforeAct, rules.Bind(f.fresh(hero), f.fresh(enemy)), empower))
	require.Len(t, f.eventsOf(rules.EventBuffApplied), 1)
	assert.Equal(t, hero, f.eventsOf(rules.EventBuffApplied)[0].TargetID)

	require.NoError(t, f.emit(state.EventBeforeAct, rules.Bind(f.fresh(hero), f.fresh(enemy)), strike))
	assert.Equal(t, 92, f.hp(enemy))

	// The buff is the hero's own; it does not help the enemy.
	enemyStrike := f.card(enemy, uniq("act-", activeGroup(state.Attack{Actor: state.ActorActive, Target: state.ActorReactive})))
	require.NoError(t, f.emit(state.EventBeforeAct, rules.Bind(f.fresh(enemy), f.fresh(hero)), enemyStrike))
	assert.Equal(t, 16, f.hp(hero))
}

func TestBuffWithoutTargetIsSkipped(t *testing.T) {
	f := newFixture(t)
	hero := f.hero(20, 0, 5)
	enemy := f.enemy(100, 0, 4)

	card := f.card(hero, uniq("act-", activeGroup(state.ApplyBuff{
		Prefab:   bonusBuff(1),
		Duration: 1,
		ApplyTo:  state.ActorDefender,
	})))
	require.NoError(t, f.emit(state.EventBeforeAct, rules.Bind(f.fresh(hero), f.fresh(enemy)), card))
	assert.Empty(t, f.eventsOf(rules.EventBuffApplied))
}
