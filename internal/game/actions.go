package game

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/magefree/mage-rules-go/internal/game/effects"
	"github.com/magefree/mage-rules-go/internal/game/mana"
	"github.com/magefree/mage-rules-go/internal/game/rules"
	"github.com/magefree/mage-rules-go/internal/game/targeting"
	"go.uber.org/zap"
)

// Perform carries out an action of the player holding priority. Illegal
// actions are rejected with an error wrapping ErrIllegalAction or
// ErrInvalidTarget and leave the game unchanged.
func (g *Game) Perform(ctx context.Context, playerID string, action Action) error {
	if g.over {
		return ErrGameOver
	}
	if holder := g.priority.Holder(); holder != playerID {
		return fmt.Errorf("%w: %s does not hold priority", ErrIllegalAction, playerID)
	}
	switch action.Type {
	case rules.ActionPass:
		return nil
	case rules.ActionCastSpell:
		return g.castSpell(ctx, playerID, action)
	case rules.ActionActivateAbility:
		return g.activateAbility(ctx, playerID, action)
	case rules.ActionActivateMana:
		if err := g.activateManaAbility(playerID, action.ObjectID, action.Ability); err != nil {
			return err
		}
		g.priority.ActionTaken(playerID)
		return nil
	case rules.ActionSpecialAction:
		if action.Special != rules.SpecialActionPlayLand {
			return fmt.Errorf("%w: unknown special action %q", ErrIllegalAction, action.Special)
		}
		return g.playLand(playerID, action.ObjectID)
	default:
		return fmt.Errorf("%w: unknown action %q", ErrIllegalAction, action.Type)
	}
}

// sorceryTiming reports whether playerID could cast a sorcery now.
func (g *Game) sorceryTiming(playerID string) bool {
	return g.turn.ActivePlayer() == playerID && g.turn.IsMainPhase() && g.stack.IsEmpty()
}

func (g *Game) castSpell(ctx context.Context, playerID string, action Action) error {
	obj, ok := g.objects[action.ObjectID]
	if !ok || obj.Zone != rules.ZoneHand || obj.OwnerID != playerID {
		return fmt.Errorf("%w: %s is not in the hand of %s", ErrIllegalAction, action.ObjectID, playerID)
	}
	def := obj.Def
	if def.HasType("Land") {
		return fmt.Errorf("%w: lands are played, not cast", ErrIllegalAction)
	}
	s, err := g.Characteristics(obj.ID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIllegalAction, err)
	}
	instantSpeed := s.HasType("Instant") || s.HasAbility(KeywordFlash)
	if !instantSpeed && !g.sorceryTiming(playerID) {
		return fmt.Errorf("%w: %s can only be cast at sorcery speed", ErrIllegalAction, def.Name)
	}

	var reqs []targeting.TargetRequirement
	var spellEffects []Effect
	if def.Spell != nil {
		reqs = def.Spell.Targets
		spellEffects = def.Spell.Effects
	}
	targets, err := g.announceTargets(ctx, playerID, obj.ID, reqs, action.Targets)
	if err != nil {
		return err
	}

	cost := g.costs.Apply(def.Cost(), s, playerID)
	if _, err := g.planPayment(playerID, cost, action.XValue); err != nil {
		return fmt.Errorf("%w: cannot pay %s for %s: %w", ErrIllegalAction, cost, def.Name, err)
	}

	spell, err := g.moveObject(obj.ID, rules.ZoneStack, playerID, "cast")
	if err != nil {
		return err
	}
	if spell == nil {
		return fmt.Errorf("%w: %s could not be put on the stack", ErrIllegalAction, def.Name)
	}
	if err := g.Pay(playerID, spell.ID, cost, action.XValue); err != nil {
		g.logger.Warn("planned payment failed, returning spell to hand", zap.String("card", def.Name), zap.Error(err))
		if _, moveErr := g.moveObject(spell.ID, rules.ZoneHand, "", "cast cancelled"); moveErr != nil {
			g.logger.Error("spell lost while undoing cast", zap.Error(moveErr))
		}
		return err
	}

	item := &StackObject{
		ID:           spell.ID,
		Kind:         rules.StackItemKindSpell,
		SourceID:     spell.ID,
		Controller:   playerID,
		Name:         def.Name,
		Requirements: slices.Clone(reqs),
		Targets:      targets,
		Effects:      spellEffects,
		XValue:       action.XValue,
	}
	g.Push(item)

	evt := rules.NewEvent(rules.EventSpellCast, spell.ID, spell.ID, playerID)
	evt.Description = def.Name
	evt.Data = strings.Join(s.Types, " ")
	evt.Targets = item.AllTargets()
	evt.Metadata[MetadataPreviousID] = obj.ID
	g.publish(evt)
	g.logger.Debug("spell cast",
		zap.String("player_id", playerID),
		zap.String("card", def.Name),
		zap.String("stack_id", spell.ID))

	g.actionTaken(playerID)
	return nil
}

// announceTargets checks the targets a player announced with an action, or
// asks for them when none were given. An unanswered request cancels the
// action.
func (g *Game) announceTargets(ctx context.Context, playerID, sourceID string, reqs []targeting.TargetRequirement, given [][]string) ([][]string, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	if len(given) > 0 {
		if len(given) != len(reqs) {
			return nil, fmt.Errorf("%w: %d target lists for %d requirements", ErrIllegalAction, len(given), len(reqs))
		}
		for i, req := range reqs {
			if err := g.validator.ValidateSelection(sourceID, playerID, req, given[i]); err != nil {
				return nil, err
			}
		}
		out := make([][]string, len(given))
		for i := range given {
			out[i] = slices.Clone(given[i])
		}
		return out, nil
	}

	out := make([][]string, 0, len(reqs))
	for _, req := range reqs {
		legal := g.validator.LegalTargets(sourceID, playerID, req, g.targetCandidates(req))
		if len(legal) < req.MinTargets {
			return nil, fmt.Errorf("%w: no legal target for %s", ErrIllegalAction, req)
		}
		if req.MaxTargets == 0 {
			out = append(out, nil)
			continue
		}
		answer, ok := g.ChooseFrom(ctx, playerID, sourceID, req, legal, req.MinTargets, min(req.MaxTargets, len(legal)), req.Description)
		if !ok {
			return nil, fmt.Errorf("%w: no targets chosen", ErrIllegalAction)
		}
		out = append(out, answer)
	}
	return out, nil
}

func (g *Game) activateAbility(ctx context.Context, playerID string, action Action) error {
	s, ok := g.Permanent(action.ObjectID)
	if !ok {
		return fmt.Errorf("%w: %s is not on the battlefield", ErrIllegalAction, action.ObjectID)
	}
	obj := g.objects[action.ObjectID]
	if s.ControllerID != playerID {
		return fmt.Errorf("%w: %s does not control %s", ErrIllegalAction, playerID, s.Name)
	}
	a, found := obj.Def.Ability(action.Ability)
	ability, activated := a.(*ActivatedAbility)
	if !found || !activated || !s.HasAbility(action.Ability) {
		return fmt.Errorf("%w: %s has no ability %q", ErrIllegalAction, s.Name, action.Ability)
	}
	if s.HasRestriction(effects.RestrictionCantActivate) {
		return fmt.Errorf("%w: abilities of %s can't be activated", ErrIllegalAction, s.Name)
	}
	if ability.SorcerySpeed && !g.sorceryTiming(playerID) {
		return fmt.Errorf("%w: %s can only be activated at sorcery speed", ErrIllegalAction, ability.Name)
	}
	if ability.Tap {
		if obj.Tapped {
			return fmt.Errorf("%w: %s is tapped", ErrIllegalAction, s.Name)
		}
		if s.IsCreature() && obj.SummoningSick && !s.HasAbility(KeywordHaste) {
			return fmt.Errorf("%w: %s has summoning sickness", ErrIllegalAction, s.Name)
		}
	}

	targets, err := g.announceTargets(ctx, playerID, obj.ID, ability.Targets, action.Targets)
	if err != nil {
		return err
	}

	cost, err := mana.ParseCost(ability.Cost)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIllegalAction, err)
	}
	// The source can't pay for its own tap ability. It is only tapped for
	// real once the mana is paid.
	obj.Tapped = ability.Tap
	if _, err := g.planPayment(playerID, cost, action.XValue); err != nil {
		obj.Tapped = false
		return fmt.Errorf("%w: cannot pay %s for %s: %w", ErrIllegalAction, cost, ability.Name, err)
	}
	err = g.Pay(playerID, obj.ID, cost, action.XValue)
	obj.Tapped = false
	if err != nil {
		return err
	}
	if ability.Tap {
		g.Tap(obj.ID, obj.ID)
	}

	item := &StackObject{
		ID:           g.newID(),
		Kind:         rules.StackItemKindActivated,
		SourceID:     obj.ID,
		AbilityName:  ability.Name,
		Controller:   playerID,
		Name:         obj.Def.Name + ": " + ability.Name,
		Requirements: slices.Clone(ability.Targets),
		Targets:      targets,
		Effects:      ability.Effects,
		XValue:       action.XValue,
	}
	g.Push(item)
	evt := rules.NewEvent(rules.EventActivatedAbility, item.ID, obj.ID, playerID)
	evt.Data = ability.Name
	evt.Targets = item.AllTargets()
	g.publish(evt)

	g.actionTaken(playerID)
	return nil
}

func (g *Game) playLand(playerID, objectID string) error {
	obj, ok := g.objects[objectID]
	if !ok || obj.Zone != rules.ZoneHand || obj.OwnerID != playerID {
		return fmt.Errorf("%w: %s is not in the hand of %s", ErrIllegalAction, objectID, playerID)
	}
	if !obj.Def.HasType("Land") {
		return fmt.Errorf("%w: %s is not a land", ErrIllegalAction, obj.Def.Name)
	}
	window := rules.ActionWindow{
		HasPriority: g.priority.Holder() == playerID,
		MainPhase:   g.turn.IsMainPhase(),
		EmptyStack:  g.stack.IsEmpty(),
		OwnTurn:     g.turn.ActivePlayer() == playerID,
		Resolving:   g.resolution.IsResolving(),
	}
	if err := g.special.Check(playerID, rules.SpecialActionPlayLand, window); err != nil {
		return err
	}
	land, err := g.moveObject(objectID, rules.ZoneBattlefield, playerID, "play land")
	if err != nil {
		return err
	}
	g.special.Record(playerID, rules.SpecialActionPlayLand)
	evt := rules.NewEvent(rules.EventLandPlayed, objectID, objectID, playerID)
	evt.Description = obj.Def.Name
	if land != nil {
		evt.TargetID = land.ID
		evt.Metadata[MetadataPreviousID] = objectID
	}
	g.publish(evt)
	g.priority.ActionTaken(playerID)
	return nil
}
