package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type castCounter struct {
	*BaseWatcher
	count int
}

func newCastCounter(scope WatcherScope) *castCounter {
	return &castCounter{BaseWatcher: NewBaseWatcher(scope)}
}

func (w *castCounter) Watch(event Event) {
	if event.Type == EventSpellCast {
		w.count++
		w.SetCondition(true)
	}
}

func (w *castCounter) Reset() {
	w.BaseWatcher.Reset()
	w.count = 0
}

func (w *castCounter) Copy() Watcher {
	cp := newCastCounter(w.GetScope())
	cp.SetKey(w.GetKey())
	cp.SetCondition(w.ConditionMet())
	cp.count = w.count
	return cp
}

func TestWatcherRegistry(t *testing.T) {
	registry := NewWatcherRegistry()

	w := newCastCounter(WatcherScopeGame)
	w.SetKey("casts")
	registry.AddWatcher(w)

	require.NotNil(t, registry.GetWatcher("casts"))
	assert.Len(t, registry.GetWatchersByScope(WatcherScopeGame), 1)
	assert.Empty(t, registry.GetWatchersByScope(WatcherScopeCard))

	registry.NotifyWatchers(NewEvent(EventSpellCast, "spell1", "spell1", "player1"))
	assert.True(t, w.ConditionMet())
	assert.Equal(t, 1, w.count)

	cp := registry.Copy()
	registry.ResetWatchers()
	assert.False(t, w.ConditionMet())
	assert.True(t, cp.GetWatcher("casts").ConditionMet(), "copies are independent")

	registry.RemoveWatcher("casts")
	assert.Nil(t, registry.GetWatcher("casts"))
}

func TestWatcherRegistryGeneratesKeys(t *testing.T) {
	registry := NewWatcherRegistry()

	game := newCastCounter(WatcherScopeGame)
	player := newCastCounter(WatcherScopePlayer)
	player.SetControllerID("alice")
	card := newCastCounter(WatcherScopeCard)
	card.SetSourceID("card-7")

	registry.AddWatcher(game)
	registry.AddWatcher(player)
	registry.AddWatcher(card)
	registry.AddWatcher(newCastCounter(WatcherScopeGame))

	assert.Equal(t, "castCounter", game.GetKey())
	assert.Equal(t, "alice_castCounter", player.GetKey())
	assert.Equal(t, "card-7_castCounter", card.GetKey())
	assert.Len(t, registry.GetAllWatchers(), 3, "duplicate keys are ignored")

	registry.RemoveWatcher("alice_castCounter")
	assert.Same(t, card, registry.GetWatcher("card-7_castCounter"))
}

func TestWatcherRegistryWiredToBus(t *testing.T) {
	registry := NewWatcherRegistry()
	bus := NewEventBus()
	bus.Subscribe(registry.NotifyWatchers)

	w := newCastCounter(WatcherScopeGame)
	registry.AddWatcher(w)
	bus.Publish(NewEvent(EventSpellCast, "spell1", "spell1", "player1"))
	bus.Publish(NewEvent(EventDrewCard, "card1", "", "player1"))

	assert.Equal(t, 1, w.count)
	assert.Equal(t, "GAME", WatcherScopeGame.String())
	assert.Equal(t, "UNKNOWN", WatcherScope(9).String())
}
