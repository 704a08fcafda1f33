package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerManagerOnEvent(t *testing.T) {
	manager := NewTriggerManager()

	manager.Register(AbilityTrigger{
		SourceID:   "bolt-watcher",
		Controller: "Alice",
		EventType:  EventSpellCast,
		Match: func(e Event) bool {
			return e.Metadata["card_name"] == "Lightning Bolt"
		},
	})

	evt := NewEvent(EventSpellCast, "spell-1", "spell-1", "Bob")
	evt.Metadata["card_name"] = "Lightning Bolt"

	assert.Equal(t, 1, manager.OnEvent(evt))
	assert.Equal(t, 0, manager.OnEvent(NewEvent(EventSpellCast, "spell-2", "spell-2", "Bob")))

	pending := manager.Drain()
	require.Len(t, pending, 1)
	assert.Equal(t, "Alice", pending[0].Controller)
	assert.Equal(t, "spell-1", pending[0].Event.TargetID)
	assert.NotEmpty(t, pending[0].ID)
	assert.False(t, manager.HasPending())
}

func TestTriggerManagerOnceAndInterveningIf(t *testing.T) {
	manager := NewTriggerManager()
	allowed := false

	manager.Register(AbilityTrigger{
		SourceID:      "delayed",
		Controller:    "Alice",
		EventType:     EventStepChanged,
		InterveningIf: func(Event) bool { return allowed },
		Once:          true,
	})

	assert.Equal(t, 0, manager.OnEvent(NewEvent(EventStepChanged, "", "", "")))
	assert.Equal(t, 1, manager.Registered(), "a trigger whose condition fails stays registered")

	allowed = true
	assert.Equal(t, 1, manager.OnEvent(NewEvent(EventStepChanged, "", "", "")))
	assert.Equal(t, 0, manager.Registered())

	pending := manager.Pending()
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].InterveningIf)
}

func TestTriggerManagerUnregisterSource(t *testing.T) {
	manager := NewTriggerManager()
	manager.Register(AbilityTrigger{SourceID: "a", EventType: EventDrewCard})
	id := manager.Register(AbilityTrigger{SourceID: "b", EventType: EventDrewCard})
	manager.Register(AbilityTrigger{SourceID: "a", EventType: EventDrewCard})

	manager.UnregisterSource("a")
	assert.Equal(t, 1, manager.Registered())
	manager.Unregister(id)
	assert.Equal(t, 0, manager.Registered())
}

func TestGroupAPNAP(t *testing.T) {
	pending := []PendingTrigger{
		{ID: "1", Controller: "Alice"},
		{ID: "2", Controller: "Carol"},
		{ID: "3", Controller: "Bob"},
		{ID: "4", Controller: "Carol"},
		{ID: "5", Controller: "Mallory"},
	}

	groups := GroupAPNAP(pending, []string{"Alice", "Bob", "Carol"}, "Bob")
	require.Len(t, groups, 3)
	assert.Equal(t, "3", groups[0][0].ID)
	require.Len(t, groups[1], 2)
	assert.Equal(t, "2", groups[1][0].ID)
	assert.Equal(t, "4", groups[1][1].ID)
	assert.Equal(t, "1", groups[2][0].ID)
}
