// Package watchers holds the standard watchers registered on every game.
package watchers

import (
	"maps"
	"slices"

	"github.com/magefree/mage-rules-go/internal/game/rules"
)

// Registry keys of the standard watchers.
const (
	SpellsCastKey        = "SpellsCastWatcher"
	CreaturesDiedKey     = "CreaturesDiedWatcher"
	CardsDrawnKey        = "CardsDrawnWatcher"
	PermanentsEnteredKey = "PermanentsEnteredWatcher"
)

// MetadataCreature is set to "true" on PERMANENT_DIES events for creatures.
const MetadataCreature = "creature"

// MetadataOwner carries the owner of an object on zone events.
const MetadataOwner = "owner_id"

// Standard returns a fresh set of the standard watchers.
func Standard() []rules.Watcher {
	return []rules.Watcher{
		NewSpellsCastWatcher(),
		NewCreaturesDiedWatcher(),
		NewCardsDrawnWatcher(),
		NewPermanentsEnteredWatcher(),
	}
}

func actingPlayer(event rules.Event) string {
	if event.PlayerID != "" {
		return event.PlayerID
	}
	return event.Controller
}

func objectOf(event rules.Event) string {
	if event.TargetID != "" {
		return event.TargetID
	}
	return event.SourceID
}

func copyLists(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

// SpellsCastWatcher tracks spells cast by players this turn.
type SpellsCastWatcher struct {
	*rules.BaseWatcher
	spellsCast map[string][]string // playerID -> spell IDs
}

// NewSpellsCastWatcher creates a new spells cast watcher.
func NewSpellsCastWatcher() *SpellsCastWatcher {
	w := &SpellsCastWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeGame),
		spellsCast:  make(map[string][]string),
	}
	w.SetKey(SpellsCastKey)
	return w
}

// Watch implements the Watcher interface.
func (w *SpellsCastWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventSpellCast {
		return
	}
	player, spell := actingPlayer(event), objectOf(event)
	if player == "" || spell == "" {
		return
	}
	w.spellsCast[player] = append(w.spellsCast[player], spell)
	w.SetCondition(true)
}

// Reset clears the watcher's state.
func (w *SpellsCastWatcher) Reset() {
	w.BaseWatcher.Reset()
	clear(w.spellsCast)
}

// SpellsCast returns the spells cast by a player, in order.
func (w *SpellsCastWatcher) SpellsCast(playerID string) []string {
	return slices.Clone(w.spellsCast[playerID])
}

// Count returns the number of spells cast by a player.
func (w *SpellsCastWatcher) Count(playerID string) int {
	return len(w.spellsCast[playerID])
}

// Copy creates a copy of this watcher.
func (w *SpellsCastWatcher) Copy() rules.Watcher {
	c := NewSpellsCastWatcher()
	c.SetControllerID(w.GetControllerID())
	c.SetSourceID(w.GetSourceID())
	c.SetCondition(w.ConditionMet())
	c.spellsCast = copyLists(w.spellsCast)
	return c
}

// CreaturesDiedWatcher counts creatures put into a graveyard from the
// battlefield.
type CreaturesDiedWatcher struct {
	*rules.BaseWatcher
	byController map[string]int
	byOwner      map[string]int
}

// NewCreaturesDiedWatcher creates a new creatures died watcher.
func NewCreaturesDiedWatcher() *CreaturesDiedWatcher {
	w := &CreaturesDiedWatcher{
		BaseWatcher:  rules.NewBaseWatcher(rules.WatcherScopeGame),
		byController: make(map[string]int),
		byOwner:      make(map[string]int),
	}
	w.SetKey(CreaturesDiedKey)
	return w
}

// Watch implements the Watcher interface.
func (w *CreaturesDiedWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventPermanentDies || event.Metadata[MetadataCreature] != "true" {
		return
	}
	owner := event.Metadata[MetadataOwner]
	if owner == "" {
		owner = event.Controller
	}
	if event.Controller != "" {
		w.byController[event.Controller]++
	}
	if owner != "" {
		w.byOwner[owner]++
	}
	w.SetCondition(true)
}

// Reset clears the watcher's state.
func (w *CreaturesDiedWatcher) Reset() {
	w.BaseWatcher.Reset()
	clear(w.byController)
	clear(w.byOwner)
}

// AmountByController returns how many creatures a player controlled when
// they died.
func (w *CreaturesDiedWatcher) AmountByController(controllerID string) int {
	return w.byController[controllerID]
}

// AmountByOwner returns how many creatures owned by a player died.
func (w *CreaturesDiedWatcher) AmountByOwner(ownerID string) int {
	return w.byOwner[ownerID]
}

// TotalAmount returns the total number of creatures that died.
func (w *CreaturesDiedWatcher) TotalAmount() int {
	total := 0
	for _, n := range w.byController {
		total += n
	}
	return total
}

// Copy creates a copy of this watcher.
func (w *CreaturesDiedWatcher) Copy() rules.Watcher {
	c := NewCreaturesDiedWatcher()
	c.SetControllerID(w.GetControllerID())
	c.SetSourceID(w.GetSourceID())
	c.SetCondition(w.ConditionMet())
	c.byController = maps.Clone(w.byController)
	c.byOwner = maps.Clone(w.byOwner)
	return c
}

// CardsDrawnWatcher tracks cards drawn by players.
type CardsDrawnWatcher struct {
	*rules.BaseWatcher
	cardsDrawn map[string]int
}

// NewCardsDrawnWatcher creates a new cards drawn watcher.
func NewCardsDrawnWatcher() *CardsDrawnWatcher {
	w := &CardsDrawnWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeGame),
		cardsDrawn:  make(map[string]int),
	}
	w.SetKey(CardsDrawnKey)
	return w
}

// Watch implements the Watcher interface.
func (w *CardsDrawnWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventDrewCard {
		return
	}
	player := actingPlayer(event)
	if player == "" {
		return
	}
	w.cardsDrawn[player]++
	w.SetCondition(true)
}

// Reset clears the watcher's state.
func (w *CardsDrawnWatcher) Reset() {
	w.BaseWatcher.Reset()
	clear(w.cardsDrawn)
}

// Count returns the number of cards drawn by a player.
func (w *CardsDrawnWatcher) Count(playerID string) int {
	return w.cardsDrawn[playerID]
}

// Copy creates a copy of this watcher.
func (w *CardsDrawnWatcher) Copy() rules.Watcher {
	c := NewCardsDrawnWatcher()
	c.SetControllerID(w.GetControllerID())
	c.SetSourceID(w.GetSourceID())
	c.SetCondition(w.ConditionMet())
	c.cardsDrawn = maps.Clone(w.cardsDrawn)
	return c
}

// PermanentsEnteredWatcher tracks permanents that entered the battlefield.
type PermanentsEnteredWatcher struct {
	*rules.BaseWatcher
	entered map[string][]string // controllerID -> permanent IDs
}

// NewPermanentsEnteredWatcher creates a new permanents entered watcher.
func NewPermanentsEnteredWatcher() *PermanentsEnteredWatcher {
	w := &PermanentsEnteredWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeGame),
		entered:     make(map[string][]string),
	}
	w.SetKey(PermanentsEnteredKey)
	return w
}

// Watch implements the Watcher interface.
func (w *PermanentsEnteredWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventEntersBattlefield {
		return
	}
	permanent := objectOf(event)
	if event.Controller == "" || permanent == "" {
		return
	}
	w.entered[event.Controller] = append(w.entered[event.Controller], permanent)
	w.SetCondition(true)
}

// Reset clears the watcher's state.
func (w *PermanentsEnteredWatcher) Reset() {
	w.BaseWatcher.Reset()
	clear(w.entered)
}

// PermanentsEntered returns the permanents that entered under a player's
// control.
func (w *PermanentsEnteredWatcher) PermanentsEntered(controllerID string) []string {
	return slices.Clone(w.entered[controllerID])
}

// Copy creates a copy of this watcher.
func (w *PermanentsEnteredWatcher) Copy() rules.Watcher {
	c := NewPermanentsEnteredWatcher()
	c.SetControllerID(w.GetControllerID())
	c.SetSourceID(w.GetSourceID())
	c.SetCondition(w.ConditionMet())
	c.entered = copyLists(w.entered)
	return c
}
