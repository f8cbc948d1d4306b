package effects

import (
	"errors"

	"github.com/emberdeck/skirmish/internal/game/cards"
	"github.com/emberdeck/skirmish/internal/game/position"
	"github.com/emberdeck/skirmish/internal/game/rules"
	"github.com/emberdeck/skirmish/internal/game/state"
	"github.com/emberdeck/skirmish/internal/random"
	"go.uber.org/zap"
)

// MoveSystem queues position filters requested by move components.
type MoveSystem struct {
	walker    *rules.Walker
	positions *position.Manager
	logger    *zap.Logger
}

// NewMoveSystem creates the move-to-position system.
func NewMoveSystem(walker *rules.Walker, positions *position.Manager, logger *zap.Logger) *MoveSystem {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MoveSystem{walker: walker, positions: positions, logger: logger}
}

func (s *MoveSystem) Run(p rules.Pass) error {
	store := s.walker.Store()
	for ent, err := range p.Relevant(s.walker) {
		if err != nil {
			return err
		}
		for _, move := range state.All[state.MoveToPosition](ent) {
			target, ok, err := rules.ResolveActor(store, p.SessionID, ent, move.ApplyTo, p.Actors)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			err = s.positions.Enqueue(p.SessionID, target.ID, move.Tags)
			if errors.Is(err, position.ErrNoPosition) {
				s.logger.Debug("move target has no position",
					zap.String("session_id", p.SessionID),
					zap.String("target_id", target.ID),
				)
				continue
			}
			if err != nil {
				return err
			}
			s.logger.Debug("enqueued position",
				zap.String("session_id", p.SessionID),
				zap.String("target_id", target.ID),
				zap.Any("tags", move.Tags),
			)
		}
	}
	return nil
}

// Deps are the collaborators shared by the combat systems.
type Deps struct {
	Walker    *rules.Walker
	Cards     *cards.Manager
	Positions *position.Manager
	Rand      random.Source
	Bus       *rules.EventBus
	Logger    *zap.Logger
}

// Systems holds the registered combat systems.
type Systems struct {
	Attack  *AttackSystem
	Buffs   *Buffs
	Draw    *DrawSystem
	Move    *MoveSystem
	Discard *DiscardSystem
}

// Register creates every combat system and registers them on d in
// resolution order.
func Register(d *rules.Dispatcher, deps Deps) *Systems {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Systems{
		Attack:  NewAttackSystem(deps.Walker, d, deps.Bus, logger.Named("attack")),
		Buffs:   NewBuffs(deps.Walker, deps.Cards, deps.Bus, logger.Named("buffs")),
		Draw:    NewDrawSystem(deps.Walker, deps.Cards, deps.Bus, logger.Named("draw")),
		Move:    NewMoveSystem(deps.Walker, deps.Positions, logger.Named("move")),
		Discard: NewDiscardSystem(deps.Walker, deps.Cards, deps.Rand, deps.Bus, logger.Named("discard")),
	}
	d.Register("attack", s.Attack)
	d.Register("buffs", s.Buffs)
	d.Register("draw cards", s.Draw)
	d.Register("move to position", s.Move)
	d.Register("discard player cards", s.Discard)
	return s
}
