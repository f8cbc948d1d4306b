package effects

import (
	"errors"

	"github.com/emberdeck/skirmish/internal/game/cards"
	"github.com/emberdeck/skirmish/internal/game/rules"
	"github.com/emberdeck/skirmish/internal/game/state"
	"github.com/emberdeck/skirmish/internal/random"
	"go.uber.org/zap"
)

// ErrNoPlayer is returned when a session has no entity holding the party's
// hand and deck.
var ErrNoPlayer = errors.New("cannot find player hand")

// Player locates the entity holding the party's hand and deck.
func Player(store *state.Store, sessionID string) (hand, deck state.ComponentRef, err error) {
	player, err := store.FirstWith(sessionID, state.TypePlayerStatus, state.TypeHand, state.TypeActionDeck)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return state.ComponentRef{}, state.ComponentRef{}, ErrNoPlayer
		}
		return state.ComponentRef{}, state.ComponentRef{}, err
	}
	h, _ := player.Component(state.TypeHand)
	d, _ := player.Component(state.TypeActionDeck)
	return h.Ref(), d.Ref(), nil
}

// DrawSystem draws a card into the party's hand for every draw component.
type DrawSystem struct {
	walker *rules.Walker
	cards  *cards.Manager
	bus    *rules.EventBus
	logger *zap.Logger
}

// NewDrawSystem creates the draw system.
func NewDrawSystem(walker *rules.Walker, cardManager *cards.Manager, bus *rules.EventBus, logger *zap.Logger) *DrawSystem {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DrawSystem{walker: walker, cards: cardManager, bus: bus, logger: logger}
}

func (s *DrawSystem) Run(p rules.Pass) error {
	store := s.walker.Store()
	for ent, err := range p.Relevant(s.walker) {
		if err != nil {
			return err
		}
		for _, draw := range state.All[state.DrawActionCard](ent) {
			hand, deck, err := Player(store, p.SessionID)
			if errors.Is(err, ErrNoPlayer) {
				s.logger.Debug("no player to draw for", zap.String("session_id", p.SessionID))
				continue
			}
			if err != nil {
				return err
			}

			owner := ""
			if draw.MustMatch != "" {
				if match, ok := p.Actors.Get(draw.MustMatch); ok {
					owner = match.ID
				}
			}
			drawn, err := s.cards.Draw(p.SessionID, deck, hand, 1, owner)
			if err != nil {
				return err
			}
			for _, card := range drawn {
				s.bus.Publish(rules.NewEvent(rules.EventCardDrawn, p.SessionID, ent.ID, card.ID))
			}
		}
	}
	return nil
}

// DiscardSystem returns a random card from the party's hand to the deck,
// preferring cards owned by the matched actor.
type DiscardSystem struct {
	walker *rules.Walker
	cards  *cards.Manager
	rand   random.Source
	bus    *rules.EventBus
	logger *zap.Logger
}

// NewDiscardSystem creates the discard system.
func NewDiscardSystem(walker *rules.Walker, cardManager *cards.Manager, rand random.Source, bus *rules.EventBus, logger *zap.Logger) *DiscardSystem {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiscardSystem{walker: walker, cards: cardManager, rand: rand, bus: bus, logger: logger}
}

func (s *DiscardSystem) Run(p rules.Pass) error {
	store := s.walker.Store()
	for ent, err := range p.Relevant(s.walker) {
		if err != nil {
			return err
		}
		for _, discard := range state.All[state.DiscardPlayerCards](ent) {
			hand, deck, err := Player(store, p.SessionID)
			if err != nil {
				return err
			}
			card, ok, err := s.pick(p, hand, discard.Match)
			if err != nil {
				return err
			}
			if !ok {
				s.logger.Debug("hand is empty, nothing to discard", zap.String("session_id", p.SessionID))
				continue
			}
			if err := s.cards.Discard(p.SessionID, hand, deck, card); err != nil {
				return err
			}
			s.bus.Publish(rules.NewEvent(rules.EventCardDiscarded, p.SessionID, ent.ID, card.ID))
		}
	}
	return nil
}

func (s *DiscardSystem) pick(p rules.Pass, hand state.ComponentRef, match state.ActorTag) (state.ComponentRef, bool, error) {
	refs, _, err := state.Fetch[state.Hand](s.walker.Store(), p.SessionID, hand)
	if err != nil {
		return state.ComponentRef{}, false, err
	}
	pool := refs.CardRefs
	if target, ok := p.Actors.Get(match); ok {
		var owned []state.ComponentRef
		for _, ref := range refs.CardRefs {
			owner, ok, err := s.cards.Owner(p.SessionID, ref)
			if err != nil {
				return state.ComponentRef{}, false, err
			}
			if ok && owner.ID == target.ID {
				owned = append(owned, ref)
			}
		}
		if len(owned) > 0 {
			pool = owned
		}
	}
	if len(pool) == 0 {
		return state.ComponentRef{}, false, nil
	}
	return pool[s.rand.Intn(len(pool))], true, nil
}
