package rules

import (
	"sync"
)

// WatcherScope defines how long a watcher's tracking lasts.
type WatcherScope int

const (
	// WatcherScopeCombat tracks events for the whole combat.
	WatcherScopeCombat WatcherScope = iota
	// WatcherScopeTurn is reset for a session on its TURN_ENDED event once
	// attached to a bus.
	WatcherScopeTurn
)

// String returns the string representation of the watcher scope.
func (ws WatcherScope) String() string {
	switch ws {
	case WatcherScopeCombat:
		return "COMBAT"
	case WatcherScopeTurn:
		return "TURN"
	default:
		return "UNKNOWN"
	}
}

// Watcher observes combat notifications and aggregates them.
// Implementations must be safe for concurrent use, since events from
// different sessions can arrive from different goroutines.
type Watcher interface {
	Watch(event Event)
	// Reset clears the state for one session.
	Reset(sessionID string)
	GetScope() WatcherScope
	GetKey() string
}

// BaseWatcher provides the scope and key bookkeeping for watchers.
type BaseWatcher struct {
	scope WatcherScope
	key   string
}

// NewBaseWatcher creates a base watcher with the specified scope and key.
func NewBaseWatcher(scope WatcherScope, key string) *BaseWatcher {
	return &BaseWatcher{scope: scope, key: key}
}

func (bw *BaseWatcher) GetScope() WatcherScope {
	return bw.scope
}

func (bw *BaseWatcher) GetKey() string {
	return bw.key
}

// WatcherRegistry fans events out to watchers.
type WatcherRegistry struct {
	mu       sync.RWMutex
	watchers map[string]Watcher
	order    []string
}

// NewWatcherRegistry creates a new watcher registry.
func NewWatcherRegistry() *WatcherRegistry {
	return &WatcherRegistry{
		watchers: make(map[string]Watcher),
	}
}

// AddWatcher adds a watcher, replacing any watcher with the same key.
func (wr *WatcherRegistry) AddWatcher(watcher Watcher) {
	if watcher == nil {
		return
	}
	wr.mu.Lock()
	defer wr.mu.Unlock()

	key := watcher.GetKey()
	if _, exists := wr.watchers[key]; !exists {
		wr.order = append(wr.order, key)
	}
	wr.watchers[key] = watcher
}

// RemoveWatcher removes a watcher from the registry.
func (wr *WatcherRegistry) RemoveWatcher(key string) {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	if _, ok := wr.watchers[key]; !ok {
		return
	}
	delete(wr.watchers, key)
	for i, k := range wr.order {
		if k == key {
			wr.order = append(wr.order[:i], wr.order[i+1:]...)
			break
		}
	}
}

// GetWatcher retrieves a watcher by key.
func (wr *WatcherRegistry) GetWatcher(key string) Watcher {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	return wr.watchers[key]
}

// ResetWatchersByScope resets one session's state in every watcher of scope.
func (wr *WatcherRegistry) ResetWatchersByScope(sessionID string, scope WatcherScope) {
	for _, watcher := range wr.snapshot() {
		if watcher.GetScope() == scope {
			watcher.Reset(sessionID)
		}
	}
}

// NotifyWatchers notifies all watchers of an event, in registration order.
func (wr *WatcherRegistry) NotifyWatchers(event Event) {
	for _, watcher := range wr.snapshot() {
		watcher.Watch(event)
	}
}

// Attach subscribes the registry to bus and returns the subscription handle.
// Turn-scoped watchers see the TURN_ENDED event before they are reset.
func (wr *WatcherRegistry) Attach(bus *EventBus) int {
	return bus.Subscribe(func(event Event) {
		wr.NotifyWatchers(event)
		if event.Type == EventTurnEnded {
			wr.ResetWatchersByScope(event.SessionID, WatcherScopeTurn)
		}
	})
}

func (wr *WatcherRegistry) snapshot() []Watcher {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	out := make([]Watcher, 0, len(wr.order))
	for _, key := range wr.order {
		out = append(out, wr.watchers[key])
	}
	return out
}
