package counters

import (
	"fmt"
	"strconv"

	"github.com/magefree/mage-rules-go/internal/game/rules"
)

// CounterOperations changes counters on game objects and announces each
// change on the event bus.
type CounterOperations struct {
	eventBus *rules.EventBus
}

// NewCounterOperations creates a new CounterOperations instance.
func NewCounterOperations(eventBus *rules.EventBus) *CounterOperations {
	return &CounterOperations{eventBus: eventBus}
}

// Add puts amount counters of counterType on holder, which belongs to
// objectID, and publishes COUNTER_ADDED.
func (co *CounterOperations) Add(objectID, controllerID string, holder *Counters, counterType CounterType, amount int) {
	if holder == nil || amount <= 0 {
		return
	}
	holder.Add(counterType, amount)
	co.publish(rules.EventCounterAdded, objectID, controllerID, counterType, amount,
		fmt.Sprintf("Added %d %s counter(s) to %s", amount, counterType, objectID))
}

// Remove takes up to amount counters off holder, publishes COUNTER_REMOVED
// when any were removed and returns the number removed.
func (co *CounterOperations) Remove(objectID, controllerID string, holder *Counters, counterType CounterType, amount int) int {
	if holder == nil {
		return 0
	}
	removed := holder.Remove(counterType, amount)
	if removed > 0 {
		co.publish(rules.EventCounterRemoved, objectID, controllerID, counterType, removed,
			fmt.Sprintf("Removed %d %s counter(s) from %s", removed, counterType, objectID))
	}
	return removed
}

func (co *CounterOperations) publish(eventType rules.EventType, objectID, controllerID string, counterType CounterType, amount int, description string) {
	if co.eventBus == nil {
		return
	}
	evt := rules.NewEventWithAmount(eventType, objectID, objectID, controllerID, amount)
	evt.Data = string(counterType)
	evt.Metadata["counter_name"] = string(counterType)
	evt.Metadata["counter_count"] = strconv.Itoa(amount)
	evt.Description = description
	co.eventBus.Publish(evt)
}
