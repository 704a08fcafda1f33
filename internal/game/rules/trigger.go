package rules

import (
	"sync"

	"github.com/google/uuid"
)

// AbilityTrigger describes a registered triggered ability: a delayed trigger
// or one created by a resolving effect. Triggers printed on permanents are
// discovered by the engine from the permanents' current abilities instead.
type AbilityTrigger struct {
	ID          string
	SourceID    string
	AbilityID   string
	Controller  string
	EventType   EventType
	Description string
	// Match filters events of EventType. Nil matches every such event.
	Match func(Event) bool
	// InterveningIf is checked when the event occurs and again on resolution.
	InterveningIf func(Event) bool
	// Once removes the trigger after it first triggers.
	Once bool
}

// PendingTrigger is a triggered ability waiting to be put on the stack.
type PendingTrigger struct {
	ID          string
	SourceID    string
	AbilityID   string
	Controller  string
	Description string
	Event       Event
	// InterveningIf is carried along so resolution can re-check it.
	InterveningIf func(Event) bool
}

// TriggerManager stores registered triggers and the queue of abilities that
// have triggered but are not yet on the stack. Registration order is kept so
// that evaluation is deterministic.
type TriggerManager struct {
	mu       sync.Mutex
	triggers []AbilityTrigger
	pending  []PendingTrigger
}

// NewTriggerManager creates an empty trigger manager.
func NewTriggerManager() *TriggerManager {
	return &TriggerManager{}
}

// Register adds a new trigger to the manager and returns its id.
func (tm *TriggerManager) Register(trigger AbilityTrigger) string {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if trigger.ID == "" {
		trigger.ID = uuid.NewString()
	}
	tm.triggers = append(tm.triggers, trigger)
	return trigger.ID
}

// Unregister removes a trigger by ID.
func (tm *TriggerManager) Unregister(id string) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.removeWhere(func(t AbilityTrigger) bool { return t.ID == id })
}

// UnregisterSource removes every trigger created by sourceID.
func (tm *TriggerManager) UnregisterSource(sourceID string) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.removeWhere(func(t AbilityTrigger) bool { return t.SourceID == sourceID })
}

func (tm *TriggerManager) removeWhere(pred func(AbilityTrigger) bool) {
	kept := tm.triggers[:0]
	for _, t := range tm.triggers {
		if !pred(t) {
			kept = append(kept, t)
		}
	}
	tm.triggers = kept
}

// Registered returns the number of registered triggers.
func (tm *TriggerManager) Registered() int {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return len(tm.triggers)
}

// OnEvent evaluates event against the registered triggers, queues every
// match and returns how many were queued.
func (tm *TriggerManager) OnEvent(event Event) int {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	queued := 0
	kept := tm.triggers[:0]
	for _, trigger := range tm.triggers {
		fired := trigger.EventType == event.Type &&
			(trigger.Match == nil || trigger.Match(event)) &&
			(trigger.InterveningIf == nil || trigger.InterveningIf(event))
		if fired {
			tm.pending = append(tm.pending, PendingTrigger{
				ID:            uuid.NewString(),
				SourceID:      trigger.SourceID,
				AbilityID:     trigger.AbilityID,
				Controller:    trigger.Controller,
				Description:   trigger.Description,
				Event:         event,
				InterveningIf: trigger.InterveningIf,
			})
			queued++
			if trigger.Once {
				continue
			}
		}
		kept = append(kept, trigger)
	}
	tm.triggers = kept
	return queued
}

// Enqueue adds an already-evaluated trigger to the pending queue.
func (tm *TriggerManager) Enqueue(p PendingTrigger) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	tm.pending = append(tm.pending, p)
}

// Pending returns a copy of the queued triggers in the order they triggered.
func (tm *TriggerManager) Pending() []PendingTrigger {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return append([]PendingTrigger(nil), tm.pending...)
}

// HasPending reports whether any trigger waits to be put on the stack.
func (tm *TriggerManager) HasPending() bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return len(tm.pending) > 0
}

// Drain empties the queue and returns its content.
func (tm *TriggerManager) Drain() []PendingTrigger {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	out := tm.pending
	tm.pending = nil
	return out
}

// GroupAPNAP splits pending triggers by controller following turn order
// starting with the active player. Controllers not in players are dropped.
// Within a group the triggering order is preserved.
func GroupAPNAP(pending []PendingTrigger, players []string, active string) [][]PendingTrigger {
	start := 0
	for i, p := range players {
		if p == active {
			start = i
			break
		}
	}
	groups := make([][]PendingTrigger, 0, len(players))
	for i := range players {
		player := players[(start+i)%len(players)]
		var group []PendingTrigger
		for _, p := range pending {
			if p.Controller == player {
				group = append(group, p)
			}
		}
		if len(group) > 0 {
			groups = append(groups, group)
		}
	}
	return groups
}
