package watchers

import (
	"sync"

	"github.com/emberdeck/skirmish/internal/game/rules"
)

const (
	DamageWatcherKey   = "DamageWatcher"
	CasualtyWatcherKey = "CasualtyWatcher"
)

// DamageTally summarises the damage one entity dealt and took.
type DamageTally struct {
	Dealt   int
	Taken   int
	Hits    int
	Biggest int
}

// DamageWatcher tracks damage per entity for each session.
type DamageWatcher struct {
	*rules.BaseWatcher
	mu       sync.Mutex
	sessions map[string]map[string]*DamageTally // sessionID -> entityID -> tally
}

// NewDamageWatcher creates a new damage watcher.
func NewDamageWatcher() *DamageWatcher {
	return &DamageWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeCombat, DamageWatcherKey),
		sessions:    make(map[string]map[string]*DamageTally),
	}
}

// Watch implements the Watcher interface.
func (w *DamageWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventDamageDealt || event.SessionID == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	tallies, ok := w.sessions[event.SessionID]
	if !ok {
		tallies = make(map[string]*DamageTally)
		w.sessions[event.SessionID] = tallies
	}
	if event.SourceID != "" {
		src := tally(tallies, event.SourceID)
		src.Dealt += event.Amount
		src.Hits++
		if event.Amount > src.Biggest {
			src.Biggest = event.Amount
		}
	}
	if event.TargetID != "" {
		tally(tallies, event.TargetID).Taken += event.Amount
	}
}

func tally(tallies map[string]*DamageTally, id string) *DamageTally {
	t, ok := tallies[id]
	if !ok {
		t = &DamageTally{}
		tallies[id] = t
	}
	return t
}

// Reset clears the watcher's state for a session.
func (w *DamageWatcher) Reset(sessionID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.sessions, sessionID)
}

// Tally returns the damage summary of an entity.
func (w *DamageWatcher) Tally(sessionID, entityID string) DamageTally {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.sessions[sessionID][entityID]; ok {
		return *t
	}
	return DamageTally{}
}

// TotalDealt returns all damage dealt in a session.
func (w *DamageWatcher) TotalDealt(sessionID string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	total := 0
	for _, t := range w.sessions[sessionID] {
		total += t.Dealt
	}
	return total
}

// Casualty records a character leaving play.
type Casualty struct {
	EntityID    string
	DataID      string
	CardsPurged int
}

// CasualtyWatcher tracks characters that died, in order of death.
type CasualtyWatcher struct {
	*rules.BaseWatcher
	mu       sync.Mutex
	sessions map[string][]Casualty
}

// NewCasualtyWatcher creates a new casualty watcher.
func NewCasualtyWatcher() *CasualtyWatcher {
	return &CasualtyWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeCombat, CasualtyWatcherKey),
		sessions:    make(map[string][]Casualty),
	}
}

// Watch implements the Watcher interface.
func (w *CasualtyWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventCharacterDied || event.TargetID == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sessions[event.SessionID] = append(w.sessions[event.SessionID], Casualty{
		EntityID:    event.TargetID,
		DataID:      event.Metadata["data_id"],
		CardsPurged: event.Amount,
	})
}

// Reset clears the watcher's state for a session.
func (w *CasualtyWatcher) Reset(sessionID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.sessions, sessionID)
}

// Casualties returns a copy of the session's casualties.
func (w *CasualtyWatcher) Casualties(sessionID string) []Casualty {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Casualty(nil), w.sessions[sessionID]...)
}

// Count returns the number of characters that died in a session.
func (w *CasualtyWatcher) Count(sessionID string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.sessions[sessionID])
}
