package game

import (
	"fmt"
	"strconv"

	"github.com/magefree/mage-rules-go/internal/game/cards"
	"github.com/magefree/mage-rules-go/internal/game/counters"
	"github.com/magefree/mage-rules-go/internal/game/effects"
	"github.com/magefree/mage-rules-go/internal/game/rules"
	"github.com/magefree/mage-rules-go/internal/game/watchers"
	"go.uber.org/zap"
)

// Metadata keys set on zone change events.
const (
	MetadataPreviousID = "previous_id"
	MetadataNewID      = "new_id"
	MetadataCause      = "cause"
)

// zoneSet returns the container holding objects of owner in zone.
func (g *Game) zoneSet(owner string, zone rules.Zone) *cards.Set {
	switch zone {
	case rules.ZoneBattlefield:
		return g.battlefield
	case rules.ZoneStack:
		return g.stackCards
	case rules.ZoneExile:
		return g.exile
	case rules.ZoneCommand:
		return g.command
	}
	p, ok := g.players[owner]
	if !ok {
		return nil
	}
	switch zone {
	case rules.ZoneLibrary:
		return p.Library
	case rules.ZoneHand:
		return p.Hand
	case rules.ZoneGraveyard:
		return p.Graveyard
	}
	return nil
}

// MoveTo moves an object to another zone. The object gets a new id in its
// new zone; the returned object is nil when a replacement effect stopped
// the move.
func (g *Game) MoveTo(id string, to rules.Zone, cause string) (*Object, error) {
	return g.moveObject(id, to, "", cause)
}

// moveObject runs the zone change through the replacement effects and then
// performs it. controller is the controller in the new zone; empty means
// the owner.
func (g *Game) moveObject(id string, to rules.Zone, controller, cause string) (*Object, error) {
	obj, ok := g.objects[id]
	if !ok {
		return nil, fmt.Errorf("move %s to %s: %w", id, to, ErrMissingReference)
	}
	from := obj.Zone

	evt := rules.NewZoneChangeEvent(id, obj.ControllerID, from, to)
	evt.PlayerID = obj.OwnerID
	evt.Metadata[watchers.MetadataOwner] = obj.OwnerID
	if cause != "" {
		evt.Metadata[MetadataCause] = cause
	}
	evt, replaced := g.replacements.ReplaceEvent(evt)
	if replaced {
		g.logger.Debug("zone change replaced", zap.String("object_id", id), zap.String("to", to.String()))
		return nil, nil
	}
	to = evt.ToZone

	var last *effects.Snapshot
	if from == rules.ZoneBattlefield || from == rules.ZoneStack {
		if s, err := g.Characteristics(id); err == nil {
			last = s
			g.lki[id] = lastKnown{object: obj.copyObject(), characteristics: s}
		}
	}
	if from == rules.ZoneBattlefield {
		if !g.batching {
			g.leftBattlefield = g.leftBattlefield[:0]
		}
		g.leftBattlefield = append(g.leftBattlefield, id)
	}

	if set := g.zoneSet(obj.OwnerID, from); set != nil {
		set.Remove(id)
	}
	delete(g.objects, id)

	if controller == "" {
		controller = obj.OwnerID
	}
	moved := &Object{
		ID:           g.newID(),
		Def:          obj.Def,
		OwnerID:      obj.OwnerID,
		ControllerID: controller,
		Zone:         to,
		Timestamp:    g.layers.NextTimestamp(),
		Token:        obj.Token,
		Counters:     counters.NewCounters(),
	}
	g.objects[moved.ID] = moved
	if set := g.zoneSet(moved.OwnerID, to); set != nil {
		set.Add(moved.ID)
	}

	if from == rules.ZoneBattlefield {
		g.removeExpiredEffects()
	}

	evt.TargetID = moved.ID
	evt.SourceID = id
	evt.Controller = controller
	evt.Metadata[MetadataPreviousID] = id
	evt.Metadata[MetadataNewID] = moved.ID
	g.publish(evt)

	if from == rules.ZoneBattlefield && to == rules.ZoneGraveyard {
		dies := rules.NewEvent(rules.EventPermanentDies, id, cause, obj.ControllerID)
		dies.Metadata[watchers.MetadataOwner] = obj.OwnerID
		dies.Metadata[MetadataNewID] = moved.ID
		dies.Metadata[watchers.MetadataCreature] = strconv.FormatBool(last != nil && last.IsCreature())
		g.publish(dies)
	}
	if to == rules.ZoneBattlefield {
		g.enterBattlefield(moved, id)
	}
	return moved, nil
}

// enterBattlefield starts the static abilities of a new permanent and
// announces it.
func (g *Game) enterBattlefield(obj *Object, previousID string) {
	obj.SummoningSick = true
	g.arrive(obj)
	evt := rules.NewEvent(rules.EventEntersBattlefield, obj.ID, obj.ID, obj.ControllerID)
	evt.Metadata[watchers.MetadataOwner] = obj.OwnerID
	if previousID != "" {
		evt.Metadata[MetadataPreviousID] = previousID
	}
	g.publish(evt)
}

// arrive sets up a new permanent: planeswalkers get their loyalty and
// static abilities start generating effects.
func (g *Game) arrive(obj *Object) {
	if obj.Def.Loyalty > 0 && obj.Def.HasType("Planeswalker") {
		g.counterOps.Add(obj.ID, obj.ControllerID, obj.Counters, counters.CounterTypeLoyalty, obj.Def.Loyalty)
	}
	g.startStaticAbilities(obj)
}

func (g *Game) startStaticAbilities(obj *Object) {
	for _, ability := range abilitiesOf[*StaticAbility](obj.Def) {
		if ability.Continuous != nil {
			b := effects.NewBuilder(obj.ID, obj.ControllerID).
				FromAbility(ability.Name).
				WhileOnBattlefield().
				At(obj.Timestamp)
			g.AddContinuousEffects(b, ability.Continuous(obj)...)
		}
		if ability.Replacement != nil {
			for _, r := range ability.Replacement(g, obj) {
				g.replacements.AddEffect(r)
			}
		}
		if ability.CostModifiers != nil {
			for _, m := range ability.CostModifiers(obj) {
				m.SourceID = obj.ID
				if m.Controller == "" {
					m.Controller = obj.ControllerID
				}
				if m.Timestamp == 0 {
					m.Timestamp = obj.Timestamp
				}
				g.costs.Add(m)
			}
		}
	}
}

// removeExpiredEffects drops effects whose source left the battlefield.
func (g *Game) removeExpiredEffects() {
	for _, effectID := range g.layers.RemoveExpired(g) {
		g.publish(rules.NewEvent(rules.EventContinuousEffectRemoved, effectID, "", ""))
	}
	g.replacements.RemoveExpired(g.IsOnBattlefield)
	g.costs.RemoveExpired(g.IsOnBattlefield)
}

// DrawCards draws n cards for playerID and returns how many were drawn.
// Drawing from an empty library is remembered for state-based actions.
func (g *Game) DrawCards(playerID string, n int) int {
	p, ok := g.players[playerID]
	if !ok || !p.InGame() {
		return 0
	}
	drawn := 0
	for range n {
		top, ok := p.Library.Top()
		if !ok {
			p.drewFromEmptyLibrary = true
			g.publish(rules.NewEvent(rules.EventDrawFromEmptyLibrary, playerID, "", playerID))
			continue
		}
		card, err := g.moveObject(top, rules.ZoneHand, "", "")
		if err != nil || card == nil {
			continue
		}
		drawn++
		g.publish(rules.NewEvent(rules.EventDrewCard, card.ID, "", playerID))
	}
	return drawn
}

// Discard puts a card from its owner's hand into the graveyard.
func (g *Game) Discard(cardID, sourceID string) error {
	obj, ok := g.objects[cardID]
	if !ok || obj.Zone != rules.ZoneHand {
		return fmt.Errorf("discard %s: %w", cardID, ErrMissingReference)
	}
	moved, err := g.moveObject(cardID, rules.ZoneGraveyard, "", sourceID)
	if err != nil {
		return err
	}
	evt := rules.NewEvent(rules.EventDiscardedCard, cardID, sourceID, obj.OwnerID)
	if moved != nil {
		evt.Metadata[MetadataNewID] = moved.ID
	}
	g.publish(evt)
	return nil
}

// ShuffleLibrary shuffles playerID's library with the game RNG.
func (g *Game) ShuffleLibrary(playerID string) {
	p, ok := g.players[playerID]
	if !ok {
		return
	}
	p.Library.Shuffle(g.rng)
	g.publish(rules.NewEvent(rules.EventLibraryShuffled, playerID, "", playerID))
}

// CreateToken puts a token made from def onto the battlefield.
func (g *Game) CreateToken(def *CardDefinition, controller, sourceID string) (*Object, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if _, ok := g.players[controller]; !ok {
		return nil, fmt.Errorf("token controller %s: %w", controller, ErrMissingReference)
	}
	obj := g.newObject(def, controller, rules.ZoneBattlefield)
	obj.Token = true
	g.battlefield.Add(obj.ID)

	evt := rules.NewZoneChangeEvent(obj.ID, controller, rules.ZoneOutside, rules.ZoneBattlefield)
	evt.Metadata[watchers.MetadataOwner] = controller
	if sourceID != "" {
		evt.Metadata[MetadataCause] = sourceID
	}
	g.publish(evt)
	g.enterBattlefield(obj, "")
	return obj, nil
}

// PutCardInHand creates a card in playerID's hand, for setting up games.
func (g *Game) PutCardInHand(playerID string, def *CardDefinition) (*Object, error) {
	return g.putCard(playerID, def, rules.ZoneHand)
}

// PutCardInLibrary creates a card on top of playerID's library.
func (g *Game) PutCardInLibrary(playerID string, def *CardDefinition) (*Object, error) {
	return g.putCard(playerID, def, rules.ZoneLibrary)
}

// PutCardOnBattlefield creates a permanent controlled by playerID since the
// start of the turn.
func (g *Game) PutCardOnBattlefield(playerID string, def *CardDefinition) (*Object, error) {
	obj, err := g.putCard(playerID, def, rules.ZoneBattlefield)
	if err != nil {
		return nil, err
	}
	g.arrive(obj)
	evt := rules.NewEvent(rules.EventEntersBattlefield, obj.ID, obj.ID, playerID)
	evt.Metadata[watchers.MetadataOwner] = playerID
	g.publish(evt)
	return obj, nil
}

func (g *Game) putCard(playerID string, def *CardDefinition, zone rules.Zone) (*Object, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if _, ok := g.players[playerID]; !ok {
		return nil, fmt.Errorf("player %s: %w", playerID, ErrMissingReference)
	}
	obj := g.newObject(def, playerID, zone)
	g.zoneSet(playerID, zone).Add(obj.ID)
	return obj, nil
}
