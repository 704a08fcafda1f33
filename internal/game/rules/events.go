package rules

import (
	"sync"
)

// EventType indicates the category of a rules event.
type EventType string

const (
	// Game/Turn events
	EventGameStarted     EventType = "GAME_STARTED"
	EventGameOver        EventType = "GAME_OVER"
	EventPlayerLost      EventType = "PLAYER_LOST"
	EventBeginTurn       EventType = "BEGIN_TURN"
	EventStepChanged     EventType = "STEP_CHANGED"
	EventEmptyManaPool   EventType = "EMPTY_MANA_POOL"
	EventCleanupStep     EventType = "CLEANUP_STEP"
	EventPriorityGranted EventType = "PRIORITY_GRANTED"
	EventPriorityPassed  EventType = "PRIORITY_PASSED"

	// Zone events
	EventZoneChange           EventType = "ZONE_CHANGE"
	EventEntersBattlefield    EventType = "ENTERS_THE_BATTLEFIELD"
	EventPermanentDies        EventType = "PERMANENT_DIES"
	EventPermanentDestroyed   EventType = "DESTROYED_PERMANENT"
	EventTokenCeasedToExist   EventType = "TOKEN_CEASED_TO_EXIST"
	EventDrewCard             EventType = "DREW_CARD"
	EventDrawFromEmptyLibrary EventType = "DRAW_FROM_EMPTY_LIBRARY"
	EventDiscardedCard        EventType = "DISCARDED_CARD"
	EventLibraryShuffled      EventType = "LIBRARY_SHUFFLED"

	// Life/Damage events
	EventDamagePermanent  EventType = "DAMAGE_PERMANENT"
	EventDamagedPermanent EventType = "DAMAGED_PERMANENT"
	EventDamagePlayer     EventType = "DAMAGE_PLAYER"
	EventDamagedPlayer    EventType = "DAMAGED_PLAYER"
	EventGainLife         EventType = "GAIN_LIFE"
	EventGainedLife       EventType = "GAINED_LIFE"
	EventLostLife         EventType = "LOST_LIFE"

	// Land/Spell/Ability events
	EventLandPlayed       EventType = "LAND_PLAYED"
	EventSpellCast        EventType = "SPELL_CAST"
	EventActivatedAbility EventType = "ACTIVATED_ABILITY"
	EventTriggeredAbility EventType = "TRIGGERED_ABILITY"
	EventManaAdded        EventType = "MANA_ADDED"
	EventManaPaid         EventType = "MANA_PAID"
	EventCostPaidByPlayer EventType = "COST_PAID_BY_PLAYER"

	// Permanent events
	EventTapped         EventType = "TAPPED"
	EventUntapped       EventType = "UNTAPPED"
	EventAttached       EventType = "ATTACHED"
	EventUnattached     EventType = "UNATTACHED"
	EventCounterAdded   EventType = "COUNTER_ADDED"
	EventCounterRemoved EventType = "COUNTER_REMOVED"

	// Stack events
	EventStackItemPushed    EventType = "STACK_ITEM_PUSHED"
	EventStackItemResolving EventType = "STACK_ITEM_RESOLVING"
	EventStackItemResolved  EventType = "STACK_ITEM_RESOLVED"
	EventCountered          EventType = "COUNTERED"
	EventFizzled            EventType = "FIZZLED"

	// Continuous effect bookkeeping
	EventContinuousEffectAdded   EventType = "CONTINUOUS_EFFECT_ADDED"
	EventContinuousEffectRemoved EventType = "CONTINUOUS_EFFECT_REMOVED"

	// Decision events
	EventDecisionDefaulted EventType = "DECISION_DEFAULTED"

	// State-based actions event
	EventStateBasedActions EventType = "STATE_BASED_ACTIONS"
)

// Event represents a state change that other subsystems may react to.
type Event struct {
	Type           EventType
	Sequence       uint64            // assigned by the bus on publish, strictly increasing
	TargetID       string            // ID of the target (card, player, etc.)
	SourceID       string            // ID of the source ability/object
	Controller     string            // Player ID of the controller
	PlayerID       string            // Player ID (often same as Controller, but can differ)
	Amount         int               // Numeric value (damage, life, counters, etc.)
	Flag           bool              // Boolean flag (combat damage, effect vs cost, etc.)
	Data           string            // Additional string data
	FromZone       Zone              // Zone the object left (zone changes)
	ToZone         Zone              // Zone the object entered (zone changes)
	Targets        []string          // Multiple targets (for multi-target events)
	Metadata       map[string]string // Additional metadata
	Description    string            // Human-readable description
	AppliedEffects []string          // IDs of replacement effects already applied
}

// Listener defines a callback that reacts to incoming events.
// Listeners must not publish on the same bus from outside the engine goroutine.
type Listener func(Event)

type subscription struct {
	handle    int
	eventType EventType // empty means every event
	callback  Listener
}

// EventBus is a synchronous, ordered publish/subscribe log scoped to one game.
// Listeners are invoked in subscription order; the recent history is kept so
// late consumers can catch up.
type EventBus struct {
	mu         sync.RWMutex
	subs       []subscription
	nextHandle int
	sequence   uint64
	// history is a ring of at most historyCap events; head is the oldest
	// once the ring is full.
	history    []Event
	head       int
	historyCap int
}

// DefaultHistorySize is the number of events retained by NewEventBus.
const DefaultHistorySize = 1024

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return NewEventBusWithHistory(DefaultHistorySize)
}

// NewEventBusWithHistory constructs a bus retaining the last size events.
func NewEventBusWithHistory(size int) *EventBus {
	if size < 0 {
		size = 0
	}
	return &EventBus{historyCap: size}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	return bus.add("", listener)
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, listener Listener) int {
	if eventType == "" {
		return -1
	}
	return bus.add(eventType, listener)
}

func (bus *EventBus) add(eventType EventType, listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.subs = append(bus.subs, subscription{handle: handle, eventType: eventType, callback: listener})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	for i, sub := range bus.subs {
		if sub.handle == handle {
			bus.subs = append(bus.subs[:i:i], bus.subs[i+1:]...)
			return
		}
	}
}

// Publish stamps the event with the next sequence number, records it and
// delivers it to the listeners registered at the time of the call.
func (bus *EventBus) Publish(event Event) Event {
	bus.mu.Lock()
	bus.sequence++
	event.Sequence = bus.sequence
	bus.record(event)
	subs := make([]subscription, len(bus.subs))
	copy(subs, bus.subs)
	bus.mu.Unlock()

	for _, sub := range subs {
		if sub.eventType == "" || sub.eventType == event.Type {
			sub.callback(event)
		}
	}
	return event
}

func (bus *EventBus) record(event Event) {
	switch {
	case bus.historyCap == 0:
	case len(bus.history) < bus.historyCap:
		bus.history = append(bus.history, event)
	default:
		bus.history[bus.head] = event
		bus.head = (bus.head + 1) % bus.historyCap
	}
}

// retained returns the history oldest first. Callers hold the lock.
func (bus *EventBus) retained(from int) []Event {
	n := len(bus.history)
	if from >= n {
		return nil
	}
	out := make([]Event, 0, n-from)
	for i := from; i < n; i++ {
		out = append(out, bus.history[(bus.head+i)%n])
	}
	return out
}

// PublishBatch publishes the events in order.
func (bus *EventBus) PublishBatch(events []Event) {
	for _, event := range events {
		bus.Publish(event)
	}
}

// History returns a copy of the retained events, oldest first.
func (bus *EventBus) History() []Event {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	out := bus.retained(0)
	if out == nil {
		out = []Event{}
	}
	return out
}

// Since returns retained events with a sequence greater than seq.
func (bus *EventBus) Since(seq uint64) []Event {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	n := uint64(len(bus.history))
	if n == 0 || seq >= bus.sequence {
		return nil
	}
	oldest := bus.sequence - n + 1
	if seq < oldest {
		return bus.retained(0)
	}
	return bus.retained(int(seq - oldest + 1))
}

// LastSequence reports the sequence number of the most recent event.
func (bus *EventBus) LastSequence() uint64 {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return bus.sequence
}

// NewEvent creates a new event with common fields populated.
func NewEvent(eventType EventType, targetID, sourceID, controllerID string) Event {
	return Event{
		Type:       eventType,
		TargetID:   targetID,
		SourceID:   sourceID,
		Controller: controllerID,
		PlayerID:   controllerID,
		Metadata:   make(map[string]string),
	}
}

// NewEventWithAmount creates a new event with an amount value.
func NewEventWithAmount(eventType EventType, targetID, sourceID, controllerID string, amount int) Event {
	evt := NewEvent(eventType, targetID, sourceID, controllerID)
	evt.Amount = amount
	return evt
}

// NewZoneChangeEvent creates a zone change event for objectID.
func NewZoneChangeEvent(objectID, controllerID string, from, to Zone) Event {
	evt := NewEvent(EventZoneChange, objectID, objectID, controllerID)
	evt.FromZone = from
	evt.ToZone = to
	return evt
}
