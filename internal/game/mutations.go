package game

import (
	"fmt"

	"github.com/magefree/mage-rules-go/internal/game/counters"
	"github.com/magefree/mage-rules-go/internal/game/rules"
)

// Keyword abilities the engine itself understands.
const (
	KeywordIndestructible = "Indestructible"
	KeywordFlash          = "Flash"
	KeywordHaste          = "Haste"
	KeywordDeathtouch     = "Deathtouch"
)

// controllerOf returns the controller of an object, a stack object or the
// last known controller of something that left play.
func (g *Game) controllerOf(id string) string {
	if s, err := g.Characteristics(id); err == nil {
		return s.ControllerID
	}
	if item, ok := g.stack.Get(id); ok {
		return item.Controller
	}
	if lk, ok := g.lki[id]; ok {
		return lk.characteristics.ControllerID
	}
	if _, ok := g.players[id]; ok {
		return id
	}
	return ""
}

// DealDamage deals amount damage from sourceID to a player or permanent and
// returns the damage actually dealt after prevention and replacement.
func (g *Game) DealDamage(sourceID, targetID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, nil
	}
	controller := g.controllerOf(sourceID)

	if p, ok := g.players[targetID]; ok {
		if !p.InGame() {
			return 0, nil
		}
		evt := rules.NewEventWithAmount(rules.EventDamagePlayer, targetID, sourceID, controller, amount)
		evt.PlayerID = targetID
		evt, replaced := g.replacements.ReplaceEvent(evt)
		if replaced || evt.Amount <= 0 {
			return 0, nil
		}
		p.Life -= evt.Amount
		done := rules.NewEventWithAmount(rules.EventDamagedPlayer, targetID, sourceID, controller, evt.Amount)
		done.PlayerID = targetID
		g.publish(done)
		lost := rules.NewEventWithAmount(rules.EventLostLife, targetID, sourceID, targetID, evt.Amount)
		g.publish(lost)
		return evt.Amount, nil
	}

	obj, ok := g.objects[targetID]
	if !ok || obj.Zone != rules.ZoneBattlefield {
		return 0, fmt.Errorf("damage to %s: %w", targetID, ErrMissingReference)
	}
	evt := rules.NewEventWithAmount(rules.EventDamagePermanent, targetID, sourceID, controller, amount)
	evt.PlayerID = obj.ControllerID
	evt, replaced := g.replacements.ReplaceEvent(evt)
	if replaced || evt.Amount <= 0 {
		return 0, nil
	}
	s, err := g.Characteristics(targetID)
	if err != nil {
		return 0, err
	}
	if s.HasType("Planeswalker") {
		g.counterOps.Remove(targetID, s.ControllerID, obj.Counters, counters.CounterTypeLoyalty, evt.Amount)
	}
	if s.IsCreature() {
		obj.Damage += evt.Amount
		if g.hasDeathtouch(sourceID) {
			obj.DeathtouchDamage = true
		}
	}
	done := rules.NewEventWithAmount(rules.EventDamagedPermanent, targetID, sourceID, controller, evt.Amount)
	done.PlayerID = s.ControllerID
	g.publish(done)
	return evt.Amount, nil
}

// hasDeathtouch reports whether a damage source has deathtouch, using last
// known information once it has left play.
func (g *Game) hasDeathtouch(sourceID string) bool {
	if s, err := g.Characteristics(sourceID); err == nil {
		return s.HasAbility(KeywordDeathtouch)
	}
	if s, ok := g.LastKnown(sourceID); ok {
		return s.HasAbility(KeywordDeathtouch)
	}
	return false
}

// GainLife gives playerID life and returns the amount gained.
func (g *Game) GainLife(playerID string, amount int, sourceID string) int {
	p, ok := g.players[playerID]
	if !ok || !p.InGame() || amount <= 0 {
		return 0
	}
	evt := rules.NewEventWithAmount(rules.EventGainLife, playerID, sourceID, playerID, amount)
	evt, replaced := g.replacements.ReplaceEvent(evt)
	if replaced || evt.Amount <= 0 {
		return 0
	}
	p.Life += evt.Amount
	g.publish(rules.NewEventWithAmount(rules.EventGainedLife, playerID, sourceID, playerID, evt.Amount))
	return evt.Amount
}

// LoseLife makes playerID lose life.
func (g *Game) LoseLife(playerID string, amount int, sourceID string) int {
	p, ok := g.players[playerID]
	if !ok || !p.InGame() || amount <= 0 {
		return 0
	}
	p.Life -= amount
	g.publish(rules.NewEventWithAmount(rules.EventLostLife, playerID, sourceID, playerID, amount))
	return amount
}

// Destroy puts a permanent into its owner's graveyard unless it is
// indestructible. It reports whether the permanent left the battlefield.
func (g *Game) Destroy(id, sourceID string) (bool, error) {
	s, ok := g.Permanent(id)
	if !ok {
		return false, fmt.Errorf("destroy %s: %w", id, ErrMissingReference)
	}
	if s.HasAbility(KeywordIndestructible) {
		return false, nil
	}
	moved, err := g.moveObject(id, rules.ZoneGraveyard, "", sourceID)
	if err != nil {
		return false, err
	}
	evt := rules.NewEvent(rules.EventPermanentDestroyed, id, sourceID, s.ControllerID)
	if moved != nil {
		evt.Metadata[MetadataNewID] = moved.ID
	}
	g.publish(evt)
	return true, nil
}

// Tap taps a permanent. It reports false when it was already tapped.
func (g *Game) Tap(id, sourceID string) bool {
	obj, ok := g.objects[id]
	if !ok || obj.Zone != rules.ZoneBattlefield || obj.Tapped {
		return false
	}
	obj.Tapped = true
	g.publish(rules.NewEvent(rules.EventTapped, id, sourceID, obj.ControllerID))
	return true
}

// Untap untaps a permanent. It reports false when it was already untapped.
func (g *Game) Untap(id, sourceID string) bool {
	obj, ok := g.objects[id]
	if !ok || obj.Zone != rules.ZoneBattlefield || !obj.Tapped {
		return false
	}
	obj.Tapped = false
	g.publish(rules.NewEvent(rules.EventUntapped, id, sourceID, obj.ControllerID))
	return true
}

// AddCounters puts counters on a permanent.
func (g *Game) AddCounters(id string, counterType counters.CounterType, amount int) error {
	obj, ok := g.objects[id]
	if !ok || obj.Zone != rules.ZoneBattlefield {
		return fmt.Errorf("add counters to %s: %w", id, ErrMissingReference)
	}
	g.counterOps.Add(id, g.controllerOf(id), obj.Counters, counterType, amount)
	return nil
}

// RemoveCounters takes counters off a permanent and returns how many were
// removed.
func (g *Game) RemoveCounters(id string, counterType counters.CounterType, amount int) int {
	obj, ok := g.objects[id]
	if !ok || obj.Zone != rules.ZoneBattlefield {
		return 0
	}
	return g.counterOps.Remove(id, g.controllerOf(id), obj.Counters, counterType, amount)
}

// Attach attaches a permanent to another object.
func (g *Game) Attach(id, targetID string) error {
	obj, ok := g.objects[id]
	if !ok || obj.Zone != rules.ZoneBattlefield {
		return fmt.Errorf("attach %s: %w", id, ErrMissingReference)
	}
	if _, ok := g.objects[targetID]; !ok {
		if _, isPlayer := g.players[targetID]; !isPlayer {
			return fmt.Errorf("attach %s to %s: %w", id, targetID, ErrMissingReference)
		}
	}
	obj.AttachedTo = targetID
	g.publish(rules.NewEvent(rules.EventAttached, targetID, id, obj.ControllerID))
	return nil
}

// Unattach removes a permanent from what it is attached to.
func (g *Game) Unattach(id string) {
	obj, ok := g.objects[id]
	if !ok || obj.AttachedTo == "" {
		return
	}
	from := obj.AttachedTo
	obj.AttachedTo = ""
	g.publish(rules.NewEvent(rules.EventUnattached, from, id, obj.ControllerID))
}
