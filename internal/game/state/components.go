package state

import "slices"

// Type discriminates component data variants.
type Type string

const (
	TypeCombatStatus       Type = "combat status"
	TypeEnemyStatus        Type = "enemy status"
	TypePlayerStatus       Type = "player status"
	TypeCharacterStatus    Type = "character status"
	TypeHealth             Type = "health"
	TypeAttacker           Type = "attacker"
	TypeActionDeck         Type = "action deck"
	TypeHand               Type = "hand"
	TypePosition           Type = "position"
	TypeActionCard         Type = "action card"
	TypePositionCard       Type = "position card"
	TypeCombatEffect       Type = "combat effect"
	TypeBonusDamage        Type = "bonus damage"
	TypeDamageReduction    Type = "damage reduction"
	TypeThreat             Type = "threat"
	TypeTaunt              Type = "taunt"
	TypeRage               Type = "rage"
	TypeAttack             Type = "attack"
	TypeCancelAttacks      Type = "cancel attacks"
	TypeArmorPenetration   Type = "armor penetration"
	TypeBuff               Type = "buff"
	TypeApplyBuff          Type = "apply buff"
	TypeLinkEffect         Type = "link effect"
	TypeCardOwner          Type = "card owner"
	TypeIfOwnerIs          Type = "if owner is"
	TypeIfTeamIs           Type = "if team is"
	TypeIfPosition         Type = "if position"
	TypeDrawActionCard     Type = "draw action card"
	TypeMoveToPosition     Type = "move to position"
	TypeReapplyPosition    Type = "reapply position"
	TypeDiscardPlayerCards Type = "discard player cards"
)

// Event names a combat moment that effects can be bound to.
type Event string

const (
	EventBeforeAct   Event = "before act"
	EventAfterAttack Event = "after attack"
)

// ActorTag binds an abstract combat role to a concrete entity for one pass.
type ActorTag string

const (
	ActorAttacker ActorTag = "attacker"
	ActorDefender ActorTag = "defender"
	ActorActive   ActorTag = "active"
	ActorReactive ActorTag = "reactive"
	// ActorOwner resolves through the triggering entity's card owner.
	ActorOwner ActorTag = "owner"
	// ActorInactive is only meaningful for owner gates.
	ActorInactive ActorTag = "inactive"
)

// TeamTag is used by team gates.
type TeamTag string

const (
	TeamActive   TeamTag = "active"
	TeamReactive TeamTag = "reactive"
)

// PositionTag classifies position cards.
type PositionTag string

const (
	TagBeneficial  PositionTag = "beneficial"
	TagDetrimental PositionTag = "detrimental"
	TagOffensive   PositionTag = "offensive"
	TagDefensive   PositionTag = "defensive"
)

// Tags is a small set of position tags.
type Tags []PositionTag

// Has reports whether tag is present.
func (t Tags) Has(tag PositionTag) bool {
	return slices.Contains(t, tag)
}

// Includes reports whether every tag in other is present in t.
func (t Tags) Includes(other Tags) bool {
	for _, tag := range other {
		if !t.Has(tag) {
			return false
		}
	}
	return true
}

// CombatPhase is the top-level state of a combat.
type CombatPhase string

const (
	PhaseSettingUp         CombatPhase = "setting up"
	PhaseWaitingForAction  CombatPhase = "waiting for action"
	PhaseWaitingForDefense CombatPhase = "waiting for defense"
	PhaseDefeat            CombatPhase = "defeat"
	PhaseVictory           CombatPhase = "victory"
)

// Terminal reports whether no further actions are accepted.
func (p CombatPhase) Terminal() bool {
	return p == PhaseDefeat || p == PhaseVictory
}

func (p CombatPhase) String() string {
	return string(p)
}

// Data is the closed set of component payloads.
type Data interface {
	Type() Type
	componentData()
}

type CombatStatus struct {
	Phase              CombatPhase
	PendingEnemyAttack *ComponentRef
	Turn               int
}

type EnemyStatus struct {
	DataID string
}

type PlayerStatus struct{}

type CharacterStatus struct {
	DataID string
}

type Health struct {
	HP        int
	MaxHP     int
	BaseArmor int
}

type Attacker struct {
	BaseDamage int
}

type ActionDeck struct {
	CardRefs []ComponentRef
}

type Hand struct {
	CardRefs []ComponentRef
}

// Position tracks a combatant's three-stage position deck.
type Position struct {
	Stage          int
	AllCardRefs    [3][]ComponentRef
	TurnsInStage   int
	CurrentCardRef ComponentRef
	NextCardTags   []Tags
}

type ActionCard struct {
	DataID string
}

type PositionCard struct {
	DataID    string
	EffectRef EntityRef
	Tags      Tags
}

// CombatEffect activates a node and everything linked below it for one event.
type CombatEffect struct {
	On Event
}

type BonusDamage struct {
	Add int
}

// DamageReduction lowers incoming damage. Negative values raise it.
type DamageReduction struct {
	Subtract int
}

type Threat struct {
	Modifier float64
}

type Taunt struct {
	Modifier float64
}

type Rage struct {
	TauntMultiplier float64
}

type Attack struct {
	Actor  ActorTag
	Target ActorTag
}

type CancelAttacks struct{}

type ArmorPenetration struct {
	Multiplier float64
}

// Buff marks a timed link. EffectRef points at the LinkEffect it controls.
type Buff struct {
	EffectRef      ComponentRef
	RemainingTurns int
}

// ApplyBuff instantiates Prefab and links it to ApplyTo for Duration turns.
type ApplyBuff struct {
	Prefab   Prefab
	Duration int
	ApplyTo  ActorTag
}

type LinkEffect struct {
	Ref EntityRef
}

type CardOwner struct {
	Owner EntityRef
}

type IfOwnerIs struct {
	Owner ActorTag
}

type IfTeamIs struct {
	Team TeamTag
}

type IfPosition struct {
	ApplyTo ActorTag
	Tags    Tags
}

// DrawActionCard draws one card. An empty MustMatch draws from any owner.
type DrawActionCard struct {
	MustMatch ActorTag
}

type MoveToPosition struct {
	Tags    Tags
	ApplyTo ActorTag
}

type ReapplyPosition struct{}

type DiscardPlayerCards struct {
	Match ActorTag
}

func (CombatStatus) Type() Type       { return TypeCombatStatus }
func (EnemyStatus) Type() Type        { return TypeEnemyStatus }
func (PlayerStatus) Type() Type       { return TypePlayerStatus }
func (CharacterStatus) Type() Type    { return TypeCharacterStatus }
func (Health) Type() Type             { return TypeHealth }
func (Attacker) Type() Type           { return TypeAttacker }
func (ActionDeck) Type() Type         { return TypeActionDeck }
func (Hand) Type() Type               { return TypeHand }
func (Position) Type() Type           { return TypePosition }
func (ActionCard) Type() Type         { return TypeActionCard }
func (PositionCard) Type() Type       { return TypePositionCard }
func (CombatEffect) Type() Type       { return TypeCombatEffect }
func (BonusDamage) Type() Type        { return TypeBonusDamage }
func (DamageReduction) Type() Type    { return TypeDamageReduction }
func (Threat) Type() Type             { return TypeThreat }
func (Taunt) Type() Type              { return TypeTaunt }
func (Rage) Type() Type               { return TypeRage }
func (Attack) Type() Type             { return TypeAttack }
func (CancelAttacks) Type() Type      { return TypeCancelAttacks }
func (ArmorPenetration) Type() Type   { return TypeArmorPenetration }
func (Buff) Type() Type               { return TypeBuff }
func (ApplyBuff) Type() Type          { return TypeApplyBuff }
func (LinkEffect) Type() Type         { return TypeLinkEffect }
func (CardOwner) Type() Type          { return TypeCardOwner }
func (IfOwnerIs) Type() Type          { return TypeIfOwnerIs }
func (IfTeamIs) Type() Type           { return TypeIfTeamIs }
func (IfPosition) Type() Type         { return TypeIfPosition }
func (DrawActionCard) Type() Type     { return TypeDrawActionCard }
func (MoveToPosition) Type() Type     { return TypeMoveToPosition }
func (ReapplyPosition) Type() Type    { return TypeReapplyPosition }
func (DiscardPlayerCards) Type() Type { return TypeDiscardPlayerCards }

func (CombatStatus) componentData()       {}
func (EnemyStatus) componentData()        {}
func (PlayerStatus) componentData()       {}
func (CharacterStatus) componentData()    {}
func (Health) componentData()             {}
func (Attacker) componentData()           {}
func (ActionDeck) componentData()         {}
func (Hand) componentData()               {}
func (Position) componentData()           {}
func (ActionCard) componentData()         {}
func (PositionCard) componentData()       {}
func (CombatEffect) componentData()       {}
func (BonusDamage) componentData()        {}
func (DamageReduction) componentData()    {}
func (Threat) componentData()             {}
func (Taunt) componentData()              {}
func (Rage) componentData()               {}
func (Attack) componentData()             {}
func (CancelAttacks) componentData()      {}
func (ArmorPenetration) componentData()   {}
func (Buff) componentData()               {}
func (ApplyBuff) componentData()          {}
func (LinkEffect) componentData()         {}
func (CardOwner) componentData()          {}
func (IfOwnerIs) componentData()          {}
func (IfTeamIs) componentData()           {}
func (IfPosition) componentData()         {}
func (DrawActionCard) componentData()     {}
func (MoveToPosition) componentData()     {}
func (ReapplyPosition) componentData()    {}
func (DiscardPlayerCards) componentData() {}
