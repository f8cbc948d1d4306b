// Package targeting picks which party member an enemy attack lands on.
package targeting

import (
	"errors"
	"fmt"
	"sort"

	"github.com/emberdeck/skirmish/internal/game/rules"
	"github.com/emberdeck/skirmish/internal/game/state"
	"github.com/emberdeck/skirmish/internal/random"
	"go.uber.org/zap"
)

const (
	// BaseRage is the taunt multiplier before any rage component applies.
	BaseRage = 0.5
	// MaxJitter bounds the random tie breaker added to every priority.
	MaxJitter = 0.1
)

// ErrNoTargets is returned when no living character can be attacked.
var ErrNoTargets = errors.New("no potential targets found")

// Candidate is one scored party member.
type Candidate struct {
	Entity   state.Entity
	Threat   float64
	Taunt    float64
	Rage     float64
	Jitter   float64
	Priority float64
}

// DefenseCard is the card a party member plays to defend, and who owns it.
type DefenseCard struct {
	Ref     state.EntityRef
	OwnerID string
}

// Selector ranks targets from the effects in play.
type Selector struct {
	walker *rules.Walker
	rand   random.Source
	logger *zap.Logger
}

// NewSelector creates a selector.
func NewSelector(walker *rules.Walker, rand random.Source, logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{walker: walker, rand: rand, logger: logger}
}

// Rank scores every living character against an enemy attack, highest
// priority first. The defense card only counts for the character that owns it.
func (s *Selector) Rank(sessionID string, enemy state.Entity, attackCard state.EntityRef, defense *DefenseCard) ([]Candidate, error) {
	characters, err := s.walker.Store().EntitiesWith(sessionID, state.TypeCharacterStatus, state.TypeHealth)
	if err != nil {
		return nil, err
	}
	if len(characters) == 0 {
		return nil, ErrNoTargets
	}

	candidates := make([]Candidate, 0, len(characters))
	for _, character := range characters {
		cards := []state.EntityRef{attackCard}
		if defense != nil && defense.OwnerID == character.ID {
			cards = append(cards, defense.Ref)
		}
		candidate, err := s.score(sessionID, enemy, character, cards)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, candidate)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority > candidates[j].Priority
	})
	return candidates, nil
}

// Select returns the highest-priority character.
func (s *Selector) Select(sessionID string, enemy state.Entity, attackCard state.EntityRef, defense *DefenseCard) (state.Entity, error) {
	ranked, err := s.Rank(sessionID, enemy, attackCard, defense)
	if err != nil {
		return state.Entity{}, err
	}
	target := ranked[0]
	s.logger.Debug("selected target",
		zap.String("session_id", sessionID),
		zap.String("target_id", target.Entity.ID),
		zap.Float64("priority", target.Priority),
		zap.Int("candidates", len(ranked)),
	)
	return target.Entity, nil
}

func (s *Selector) score(sessionID string, enemy, character state.Entity, cards []state.EntityRef) (Candidate, error) {
	actors := rules.Bind(enemy, character).Attacking(enemy, character)
	c := Candidate{Entity: character, Rage: BaseRage}

	for ent, err := range s.walker.Relevant(sessionID, state.EventBeforeAct, actors, cards) {
		if err != nil {
			return Candidate{}, fmt.Errorf("score %s: %w", character.ID, err)
		}
		for _, rage := range state.All[state.Rage](ent) {
			c.Rage *= rage.TauntMultiplier
		}
		for _, taunt := range state.All[state.Taunt](ent) {
			c.Taunt += taunt.Modifier
		}
		for _, threat := range state.All[state.Threat](ent) {
			c.Threat += threat.Modifier
		}
	}

	c.Jitter = s.rand.Float64() * MaxJitter
	c.Priority = c.Jitter + c.Threat + c.Taunt*c.Rage
	return c, nil
}
