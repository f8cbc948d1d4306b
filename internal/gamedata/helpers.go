package gamedata

import (
	"strconv"

	"github.com/emberdeck/skirmish/internal/game/state"
)

// group is the component data of one effect entity, gates included.
type group []state.Data

func gated(gate state.Data, on state.Event, data []state.Data) group {
	return append(group{gate, state.CombatEffect{On: on}}, data...)
}

// asActive applies while the owner acts.
func asActive(data ...state.Data) group {
	return gated(state.IfOwnerIs{Owner: state.ActorActive}, state.EventBeforeAct, data)
}

// asReactive applies while the owner is acted upon.
func asReactive(data ...state.Data) group {
	return gated(state.IfOwnerIs{Owner: state.ActorReactive}, state.EventBeforeAct, data)
}

// asAttacker applies to attacks the owner makes.
func asAttacker(data ...state.Data) group {
	return gated(state.IfOwnerIs{Owner: state.ActorAttacker}, state.EventAfterAttack, data)
}

// asDefender applies to attacks the owner receives.
func asDefender(data ...state.Data) group {
	return gated(state.IfOwnerIs{Owner: state.ActorDefender}, state.EventAfterAttack, data)
}

// asActiveTeam applies while anyone on the owner's side acts.
func asActiveTeam(data ...state.Data) group {
	return gated(state.IfTeamIs{Team: state.TeamActive}, state.EventBeforeAct, data)
}

// asReactiveTeam applies while the other side acts.
func asReactiveTeam(data ...state.Data) group {
	return gated(state.IfTeamIs{Team: state.TeamReactive}, state.EventBeforeAct, data)
}

func template(prefix string, data []state.Data) state.Template {
	t := make(state.Template, len(data))
	for i, d := range data {
		t[i] = state.Spec{ID: prefix + "." + strconv.Itoa(i+1), Data: d}
	}
	return t
}

// linkGroups adds one template per group to p and returns the link specs
// that reach them.
func linkGroups(p state.Prefab, groups []group) state.Template {
	links := make(state.Template, 0, len(groups))
	for i, g := range groups {
		key := "effect." + strconv.Itoa(i+1)
		p[key] = template(key, g)
		links = append(links, state.Spec{ID: "link." + strconv.Itoa(i+1), Data: state.LinkEffect{Ref: state.Ref(key)}})
	}
	return links
}

func actionCard(id string, groups ...group) state.Prefab {
	p := state.Prefab{}
	root := state.Template{{ID: "card", Data: state.ActionCard{DataID: id}}}
	p[state.RootKey] = append(root, linkGroups(p, groups)...)
	return p
}

func positionCard(id string, tags state.Tags, groups ...group) state.Prefab {
	p := state.Prefab{
		state.RootKey: {{ID: "card", Data: state.PositionCard{DataID: id, EffectRef: state.Ref("effects"), Tags: tags}}},
	}
	p["effects"] = linkGroups(p, groups)
	return p
}

// passive builds an effect tree to link under a character.
func passive(groups ...group) state.Prefab {
	p := state.Prefab{}
	p[state.RootKey] = linkGroups(p, groups)
	return p
}

func buff(duration int, applyTo state.ActorTag, g group) state.ApplyBuff {
	return state.ApplyBuff{
		Prefab:   state.Prefab{state.RootKey: template("buff", g)},
		Duration: duration,
		ApplyTo:  applyTo,
	}
}

func attack(actor, target state.ActorTag) state.Attack {
	return state.Attack{Actor: actor, Target: target}
}

func strike() state.Attack {
	return attack(state.ActorActive, state.ActorReactive)
}

func ownerIs(tag state.ActorTag) state.IfOwnerIs {
	return state.IfOwnerIs{Owner: tag}
}

func bonus(add int) state.BonusDamage {
	return state.BonusDamage{Add: add}
}

func reduction(subtract int) state.DamageReduction {
	return state.DamageReduction{Subtract: subtract}
}

func threat(modifier float64) state.Threat {
	return state.Threat{Modifier: modifier}
}

func taunt(modifier float64) state.Taunt {
	return state.Taunt{Modifier: modifier}
}

func move(applyTo state.ActorTag, tags ...state.PositionTag) state.MoveToPosition {
	return state.MoveToPosition{Tags: tags, ApplyTo: applyTo}
}
