package game

import (
	"context"
	"slices"

	"github.com/magefree/mage-rules-go/internal/game/effects"
	"github.com/magefree/mage-rules-go/internal/game/rules"
	"go.uber.org/zap"
)

// subscribeTriggers hooks the trigger watcher and the watchers into the
// event bus. Triggered abilities are only queued here; they reach the stack
// the next time a player would receive priority.
func (g *Game) subscribeTriggers() {
	g.bus.Subscribe(g.onEvent)
}

func (g *Game) onEvent(event rules.Event) {
	g.watchers.NotifyWatchers(event)
	if !g.started || g.over {
		return
	}
	g.triggers.OnEvent(event)
	g.checkPrintedTriggers(event)
	if !leavesBattlefield(event) {
		return
	}
	if g.batching {
		g.deferredLeaves = append(g.deferredLeaves, event)
		return
	}
	g.checkLeaveTriggers(event)
}

// beginBatch starts a group of simultaneous events. Leave abilities are
// checked once the whole group happened, so permanents leaving together see
// each other leave.
func (g *Game) beginBatch() {
	g.batching = true
	g.leftBattlefield = g.leftBattlefield[:0]
	g.deferredLeaves = g.deferredLeaves[:0]
}

func (g *Game) endBatch() {
	g.batching = false
	events := g.deferredLeaves
	g.deferredLeaves = nil
	for _, event := range events {
		g.checkLeaveTriggers(event)
	}
}

func leavesBattlefield(event rules.Event) bool {
	switch event.Type {
	case rules.EventZoneChange:
		return event.FromZone == rules.ZoneBattlefield
	case rules.EventPermanentDies:
		return true
	}
	return false
}

// checkPrintedTriggers queues the triggered abilities of permanents whose
// current characteristics include the ability.
func (g *Game) checkPrintedTriggers(event rules.Event) {
	var candidates []string
	for _, id := range g.battlefield.IDs() {
		for _, ability := range abilitiesOf[*TriggeredAbility](g.objects[id].Def) {
			if ability.Event == event.Type && !ability.LeavesBattlefield {
				candidates = append(candidates, id)
				break
			}
		}
	}
	if len(candidates) == 0 {
		return
	}
	all := g.layers.ComputeAll(g)
	for _, id := range candidates {
		s, ok := all[id]
		if !ok {
			continue
		}
		for _, ability := range abilitiesOf[*TriggeredAbility](g.objects[id].Def) {
			if ability.Event != event.Type || ability.LeavesBattlefield {
				continue
			}
			g.maybeTrigger(id, s, ability, event)
		}
	}
}

// checkLeaveTriggers looks back in time: abilities of the permanents that
// just left, and of those leaving together with them, trigger from their
// last known information.
func (g *Game) checkLeaveTriggers(event rules.Event) {
	for _, id := range g.leftBattlefield {
		lk, ok := g.lki[id]
		if !ok {
			continue
		}
		for _, ability := range abilitiesOf[*TriggeredAbility](lk.object.Def) {
			if !ability.LeavesBattlefield || ability.Event != event.Type {
				continue
			}
			g.maybeTrigger(id, lk.characteristics, ability, event)
		}
	}
}

func (g *Game) maybeTrigger(sourceID string, src *effects.Snapshot, ability *TriggeredAbility, event rules.Event) {
	if !src.HasAbility(ability.Name) {
		return
	}
	if ability.Condition != nil && !ability.Condition(g, src, event) {
		return
	}
	if ability.InterveningIf != nil && !ability.InterveningIf(g, sourceID) {
		return
	}
	g.triggers.Enqueue(rules.PendingTrigger{
		ID:          g.newID(),
		SourceID:    sourceID,
		AbilityID:   ability.Name,
		Controller:  src.ControllerID,
		Description: ability.Name,
		Event:       event,
	})
	g.logger.Debug("ability triggered",
		zap.String("source_id", sourceID),
		zap.String("ability", ability.Name),
		zap.String("event", string(event.Type)))
}

// RegisterDelayedTrigger registers a triggered ability that is not printed
// on a permanent, e.g. one created by a resolving spell. It keeps
// triggering until the game ends unless once is set.
func (g *Game) RegisterDelayedTrigger(sourceID, controller string, ability *TriggeredAbility, once bool) string {
	key := g.newID()
	g.delayed[key] = ability
	trigger := rules.AbilityTrigger{
		ID:          key,
		SourceID:    sourceID,
		AbilityID:   key,
		Controller:  controller,
		EventType:   ability.Event,
		Description: ability.Name,
		Once:        once,
	}
	if ability.Condition != nil {
		trigger.Match = func(event rules.Event) bool {
			src, ok := g.sourceSnapshot(sourceID)
			return ok && ability.Condition(g, src, event)
		}
	}
	if ability.InterveningIf != nil {
		trigger.InterveningIf = func(rules.Event) bool { return ability.InterveningIf(g, sourceID) }
	}
	return g.triggers.Register(trigger)
}

// sourceSnapshot returns current characteristics, falling back to last
// known information.
func (g *Game) sourceSnapshot(id string) (*effects.Snapshot, bool) {
	if s, err := g.Characteristics(id); err == nil {
		return s, true
	}
	if lk, ok := g.lki[id]; ok {
		return lk.characteristics, true
	}
	return nil, false
}

// triggeredAbility finds the definition behind a pending trigger.
func (g *Game) triggeredAbility(p rules.PendingTrigger) (*TriggeredAbility, string, bool) {
	if ability, ok := g.delayed[p.AbilityID]; ok {
		return ability, ability.Name, true
	}
	var def *CardDefinition
	if obj, ok := g.objects[p.SourceID]; ok {
		def = obj.Def
	} else if lk, ok := g.lki[p.SourceID]; ok {
		def = lk.object.Def
	}
	if def == nil {
		return nil, "", false
	}
	a, ok := def.Ability(p.AbilityID)
	if !ok {
		return nil, "", false
	}
	ability, ok := a.(*TriggeredAbility)
	if !ok {
		return nil, "", false
	}
	return ability, def.Name + ": " + ability.Name, true
}

// PlaceTriggers puts every queued triggered ability on the stack: the
// active player's first, then the other players' in turn order, each
// player ordering their own. It returns how many were put on the stack.
func (g *Game) PlaceTriggers(ctx context.Context) int {
	pending := g.triggers.Drain()
	if len(pending) == 0 {
		return 0
	}
	placed := 0
	active := g.turn.ActivePlayer()
	for _, group := range rules.GroupAPNAP(pending, g.PlayersInRange(active), active) {
		for _, p := range g.orderTriggers(ctx, group) {
			if g.placeTrigger(ctx, p) {
				placed++
			}
		}
	}
	return placed
}

// orderTriggers asks the controller of group to order it. Anything but a
// permutation of the presented triggers keeps the presented order.
func (g *Game) orderTriggers(ctx context.Context, group []rules.PendingTrigger) []rules.PendingTrigger {
	if len(group) < 2 {
		return group
	}
	controller := group[0].Controller
	req := TriggerOrderRequest{GameID: g.ID, PlayerID: controller}
	byID := make(map[string]rules.PendingTrigger, len(group))
	for _, p := range group {
		byID[p.ID] = p
		req.Triggers = append(req.Triggers, TriggerView{
			ID:          p.ID,
			SourceID:    p.SourceID,
			Name:        p.AbilityID,
			Description: p.Description,
		})
	}
	answer, err := g.players[controller].provider.OrderSimultaneousTriggers(ctx, req)
	if err == nil && !isPermutation(answer, byID) {
		err = ErrInvalidTarget
	}
	if err != nil {
		g.defaulted(controller, "trigger order", err)
		return group
	}
	ordered := make([]rules.PendingTrigger, 0, len(group))
	for _, id := range answer {
		ordered = append(ordered, byID[id])
	}
	return ordered
}

func isPermutation(ids []string, byID map[string]rules.PendingTrigger) bool {
	if len(ids) != len(byID) {
		return false
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := byID[id]; !ok || seen[id] {
			return false
		}
		seen[id] = true
	}
	return true
}

func (g *Game) placeTrigger(ctx context.Context, p rules.PendingTrigger) bool {
	ability, name, ok := g.triggeredAbility(p)
	if !ok {
		g.logger.Debug("trigger source gone", zap.String("source_id", p.SourceID), zap.String("ability", p.AbilityID))
		return false
	}
	targets, ok := g.chooseTargets(ctx, p.Controller, p.SourceID, ability.Targets)
	if !ok {
		g.logger.Debug("triggered ability has no legal targets", zap.String("ability", name))
		return false
	}
	item := &StackObject{
		ID:            g.newID(),
		Kind:          rules.StackItemKindTriggered,
		SourceID:      p.SourceID,
		AbilityName:   ability.Name,
		Controller:    p.Controller,
		Name:          name,
		Requirements:  slices.Clone(ability.Targets),
		Targets:       targets,
		Effects:       ability.Effects,
		Optional:      ability.Optional,
		Event:         p.Event,
		InterveningIf: ability.InterveningIf,
	}
	g.Push(item)
	evt := rules.NewEvent(rules.EventTriggeredAbility, item.ID, p.SourceID, p.Controller)
	evt.Data = ability.Name
	g.publish(evt)
	return true
}
