package rules

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusSubscribeTyped(t *testing.T) {
	bus := NewEventBus()

	spellCastCount := 0
	lifeGainCount := 0

	handle1 := bus.SubscribeTyped(EventSpellCast, func(e Event) {
		spellCastCount++
	})
	handle2 := bus.SubscribeTyped(EventGainedLife, func(e Event) {
		lifeGainCount++
	})

	bus.Publish(NewEvent(EventSpellCast, "card1", "card1", "player1"))
	assert.Equal(t, 1, spellCastCount)
	assert.Equal(t, 0, lifeGainCount)

	bus.Publish(NewEventWithAmount(EventGainedLife, "player1", "source1", "player1", 5))
	assert.Equal(t, 1, spellCastCount)
	assert.Equal(t, 1, lifeGainCount)

	bus.Unsubscribe(handle1)
	bus.Publish(NewEvent(EventSpellCast, "card2", "card2", "player1"))
	assert.Equal(t, 1, spellCastCount, "unsubscribed listener must not fire")

	bus.Unsubscribe(handle2)
	bus.Publish(NewEventWithAmount(EventGainedLife, "player1", "source3", "player1", 2))
	assert.Equal(t, 1, lifeGainCount)
}

func TestEventBusDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewEventBus()

	var order []string
	bus.Subscribe(func(Event) { order = append(order, "all-1") })
	bus.SubscribeTyped(EventZoneChange, func(Event) { order = append(order, "typed") })
	bus.Subscribe(func(Event) { order = append(order, "all-2") })

	bus.Publish(NewZoneChangeEvent("card", "p1", ZoneHand, ZoneStack))
	assert.Equal(t, []string{"all-1", "typed", "all-2"}, order)
}

func TestEventBusSequenceAndHistory(t *testing.T) {
	bus := NewEventBusWithHistory(2)

	first := bus.Publish(NewEvent(EventDrewCard, "c1", "", "p1"))
	second := bus.Publish(NewEvent(EventDrewCard, "c2", "", "p1"))
	third := bus.Publish(NewEvent(EventDrewCard, "c3", "", "p1"))

	assert.Equal(t, uint64(1), first.Sequence)
	assert.Equal(t, uint64(2), second.Sequence)
	assert.Equal(t, uint64(3), third.Sequence)
	assert.Equal(t, uint64(3), bus.LastSequence())

	history := bus.History()
	require.Len(t, history, 2)
	assert.Equal(t, "c2", history[0].TargetID)
	assert.Equal(t, "c3", history[1].TargetID)

	since := bus.Since(2)
	require.Len(t, since, 1)
	assert.Equal(t, "c3", since[0].TargetID)
}

func TestEventBusHistoryWrapsAround(t *testing.T) {
	bus := NewEventBusWithHistory(3)
	for i := range 10 {
		bus.Publish(NewEvent(EventDrewCard, fmt.Sprintf("c%d", i+1), "", "p1"))
	}

	history := bus.History()
	require.Len(t, history, 3)
	for i, event := range history {
		assert.Equal(t, uint64(8+i), event.Sequence)
		assert.Equal(t, fmt.Sprintf("c%d", 8+i), event.TargetID)
	}

	assert.Len(t, bus.Since(0), 3)
	assert.Len(t, bus.Since(7), 3)
	since := bus.Since(8)
	require.Len(t, since, 2)
	assert.Equal(t, uint64(9), since[0].Sequence)
	assert.Equal(t, uint64(10), since[1].Sequence)
	assert.Empty(t, bus.Since(10))

	history[0].TargetID = "changed"
	assert.Equal(t, "c8", bus.History()[0].TargetID)
}

func TestEventBusWithoutHistory(t *testing.T) {
	bus := NewEventBusWithHistory(0)
	bus.Publish(NewEvent(EventDrewCard, "c1", "", "p1"))
	assert.Empty(t, bus.History())
	assert.Empty(t, bus.Since(0))
	assert.Equal(t, uint64(1), bus.LastSequence())
}

func TestEventBusListenerMayUnsubscribeDuringDispatch(t *testing.T) {
	bus := NewEventBus()

	calls := 0
	var handle int
	handle = bus.Subscribe(func(Event) {
		calls++
		bus.Unsubscribe(handle)
	})

	bus.Publish(NewEvent(EventTapped, "x", "", ""))
	bus.Publish(NewEvent(EventTapped, "x", "", ""))
	assert.Equal(t, 1, calls)
}

func TestZoneString(t *testing.T) {
	assert.Equal(t, "BATTLEFIELD", ZoneBattlefield.String())
	assert.Equal(t, "ZONE_42", Zone(42).String())
	assert.True(t, ZoneGraveyard.IsPublic())
	assert.False(t, ZoneHand.IsPublic())
	assert.True(t, ZoneStack.IsShared())
	assert.False(t, ZoneLibrary.IsShared())
}
