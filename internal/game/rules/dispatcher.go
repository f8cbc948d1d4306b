package rules

import (
	"fmt"
	"iter"
	"sync"

	"github.com/emberdeck/skirmish/internal/game/state"
	"go.uber.org/zap"
)

// Pass is one emission of a combat event.
type Pass struct {
	SessionID string
	Event     state.Event
	Actors    Actors
	// Cards are the action card entities in play for this pass.
	Cards []state.EntityRef
	// Depth counts re-entrant emissions below the outermost pass.
	Depth int
}

// Relevant is shorthand for walking the pass with w.
func (p Pass) Relevant(w *Walker) iter.Seq2[state.Entity, error] {
	return w.Relevant(p.SessionID, p.Event, p.Actors, p.Cards)
}

// Nested returns a pass for event one level deeper with the given bindings.
func (p Pass) Nested(event state.Event, actors Actors) Pass {
	return Pass{
		SessionID: p.SessionID,
		Event:     event,
		Actors:    actors,
		Cards:     p.Cards,
		Depth:     p.Depth + 1,
	}
}

// System reacts to a pass.
type System interface {
	Run(p Pass) error
}

// SystemFunc adapts a function to System.
type SystemFunc func(p Pass) error

func (f SystemFunc) Run(p Pass) error {
	return f(p)
}

type registeredSystem struct {
	name   string
	system System
}

// Dispatcher runs the registered systems for every emitted pass, in
// registration order.
type Dispatcher struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	systems []registeredSystem
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{logger: logger}
}

// Register appends a system.
func (d *Dispatcher) Register(name string, system System) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.systems = append(d.systems, registeredSystem{name: name, system: system})
}

// Systems returns the registered system names in run order.
func (d *Dispatcher) Systems() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, len(d.systems))
	for i, s := range d.systems {
		names[i] = s.name
	}
	return names
}

// Emit runs every system for p. It may be called again from inside a system.
func (d *Dispatcher) Emit(p Pass) error {
	d.mu.RLock()
	systems := append([]registeredSystem(nil), d.systems...)
	d.mu.RUnlock()

	d.logger.Debug("emitting combat event",
		zap.String("session_id", p.SessionID),
		zap.String("event", string(p.Event)),
		zap.Int("depth", p.Depth),
	)
	for _, s := range systems {
		if err := s.system.Run(p); err != nil {
			return fmt.Errorf("%s system on %q: %w", s.name, p.Event, err)
		}
	}
	return nil
}
