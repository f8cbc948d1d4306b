package rules

import (
	"sync"
	"time"
)

// EventType indicates the category of a combat notification.
type EventType string

const (
	EventSessionOpened   EventType = "SESSION_OPENED"
	EventCombatBegan     EventType = "COMBAT_BEGAN"
	EventCardPlayed      EventType = "CARD_PLAYED"
	EventCardDrawn       EventType = "CARD_DRAWN"
	EventCardDiscarded   EventType = "CARD_DISCARDED"
	EventDamageDealt     EventType = "DAMAGE_DEALT"
	EventAttackCancelled EventType = "ATTACK_CANCELLED"
	EventBuffApplied     EventType = "BUFF_APPLIED"
	EventBuffExpired     EventType = "BUFF_EXPIRED"
	EventPositionChanged EventType = "POSITION_CHANGED"
	EventPositionQueued  EventType = "POSITION_QUEUED"
	EventCharacterDied   EventType = "CHARACTER_DIED"
	EventTurnEnded       EventType = "TURN_ENDED"
	EventCombatEnded     EventType = "COMBAT_ENDED"
)

// Event describes something that happened during combat. Notifications are
// informational; nothing in resolution depends on who listens.
type Event struct {
	Type      EventType
	SessionID string
	SourceID  string
	TargetID  string
	Amount    int
	Metadata  map[string]string
	Timestamp time.Time
}

// Listener receives events.
type Listener func(Event)

type typedListener struct {
	handle    int
	eventType EventType
	callback  Listener
}

type anyListener struct {
	handle   int
	callback Listener
}

// EventBus delivers events to subscribers synchronously, in subscription order.
type EventBus struct {
	mu             sync.RWMutex
	nextHandle     int
	listeners      []anyListener
	typedListeners []typedListener
}

// NewEventBus creates an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{nextHandle: 1}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners = append(bus.listeners, anyListener{handle: handle, callback: listener})
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners = append(bus.typedListeners, typedListener{handle: handle, eventType: eventType, callback: listener})
	return handle
}

// Unsubscribe removes the listener identified by handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	for i, l := range bus.listeners {
		if l.handle == handle {
			bus.listeners = append(bus.listeners[:i], bus.listeners[i+1:]...)
			return
		}
	}
	for i, l := range bus.typedListeners {
		if l.handle == handle {
			bus.typedListeners = append(bus.typedListeners[:i], bus.typedListeners[i+1:]...)
			return
		}
	}
}

// Publish delivers the event to all registered listeners.
func (bus *EventBus) Publish(event Event) {
	if bus == nil {
		return
	}
	bus.mu.RLock()
	listeners := append([]anyListener(nil), bus.listeners...)
	typed := append([]typedListener(nil), bus.typedListeners...)
	bus.mu.RUnlock()

	for _, l := range listeners {
		l.callback(event)
	}
	for _, l := range typed {
		if l.eventType == event.Type {
			l.callback(event)
		}
	}
}

// NewEvent creates an event with common fields populated.
func NewEvent(eventType EventType, sessionID, sourceID, targetID string) Event {
	return Event{
		Type:      eventType,
		SessionID: sessionID,
		SourceID:  sourceID,
		TargetID:  targetID,
		Metadata:  make(map[string]string),
		Timestamp: time.Now(),
	}
}

// NewEventWithAmount creates an event carrying an amount.
func NewEventWithAmount(eventType EventType, sessionID, sourceID, targetID string, amount int) Event {
	evt := NewEvent(eventType, sessionID, sourceID, targetID)
	evt.Amount = amount
	return evt
}
