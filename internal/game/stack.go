package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/magefree/mage-rules-go/internal/game/rules"
	"go.uber.org/zap"
)

// Push puts a stack object on top of the stack.
func (g *Game) Push(item *StackObject) {
	g.stack.Push(item)
	evt := rules.NewEvent(rules.EventStackItemPushed, item.ID, item.SourceID, item.Controller)
	evt.Data = string(item.Kind)
	evt.Description = item.Name
	evt.Targets = item.AllTargets()
	g.publish(evt)
	g.logger.Debug("pushed onto stack",
		zap.String("stack_id", item.ID),
		zap.String("kind", string(item.Kind)),
		zap.String("name", item.Name),
		zap.Int("stack_size", g.stack.Len()))
	if g.prefs.ShowStackDebug {
		names := make([]string, 0, g.stack.Len())
		for _, s := range g.stack.List() {
			names = append(names, s.Name)
		}
		g.logger.Info("stack", zap.Strings("bottom_to_top", names))
	}
}

// ResolveTop resolves the top stack object. Its effects are applied in the
// order they are listed; nothing else happens in between, so state-based
// actions and triggered abilities wait until it finished.
func (g *Game) ResolveTop(ctx context.Context) error {
	item, ok := g.stack.Peek()
	if !ok {
		return rules.ErrStackEmpty
	}
	if err := g.resolution.BeginResolution(item.ID); err != nil {
		return err
	}
	defer func() {
		if err := g.resolution.EndResolution(item.ID); err != nil {
			g.logger.Error("resolution bookkeeping", zap.Error(err))
		}
	}()

	g.publish(rules.NewEvent(rules.EventStackItemResolving, item.ID, item.SourceID, item.Controller))
	g.stack.Remove(item.ID)
	g.logger.Debug("resolving stack object", zap.String("stack_id", item.ID), zap.String("name", item.Name))

	if item.InterveningIf != nil && !item.InterveningIf(g, item.SourceID) {
		g.logger.Debug("intervening if condition no longer holds", zap.String("stack_id", item.ID))
		g.finishSpell(item, false)
		return nil
	}

	legal, fizzled := g.legalTargets(item)
	if fizzled {
		evt := rules.NewEvent(rules.EventFizzled, item.ID, item.SourceID, item.Controller)
		evt.Targets = item.AllTargets()
		evt.Description = fmt.Sprintf("%s: %v", item.Name, ErrInvalidTarget)
		g.publish(evt)
		g.logger.Debug("stack object fizzled", zap.String("stack_id", item.ID))
		g.finishSpell(item, false)
		return nil
	}

	r := &Resolution{Game: g, Item: item, legal: legal}
	apply := !item.Optional || g.ChooseUse(ctx, item.Controller, OutcomeBenefit, "Use "+item.Name+"?")
	if apply {
		for _, eff := range item.Effects {
			if err := eff.Apply(ctx, r); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				if errors.Is(err, ErrMissingReference) {
					g.logger.Debug("effect skipped", zap.String("stack_id", item.ID), zap.Error(err))
					continue
				}
				g.logger.Warn("effect failed", zap.String("stack_id", item.ID), zap.Error(err))
			}
		}
	}

	g.finishSpell(item, true)
	evt := rules.NewEvent(rules.EventStackItemResolved, item.ID, item.SourceID, item.Controller)
	evt.Description = item.Name
	g.publish(evt)
	return nil
}

// legalTargets re-checks the chosen targets. A stack object fizzles only
// when it had targets and none of them is still legal.
func (g *Game) legalTargets(item *StackObject) ([][]string, bool) {
	legal := make([][]string, len(item.Targets))
	chosen, remaining := 0, 0
	for i, group := range item.Targets {
		if i >= len(item.Requirements) {
			break
		}
		for _, id := range group {
			chosen++
			if err := g.validator.ValidateTarget(item.SourceID, item.Controller, id, item.Requirements[i]); err != nil {
				g.logger.Debug("target no longer legal",
					zap.String("stack_id", item.ID),
					zap.String("target_id", id),
					zap.Error(err))
				continue
			}
			legal[i] = append(legal[i], id)
			remaining++
		}
	}
	return legal, chosen > 0 && remaining == 0
}

// finishSpell moves a spell card off the stack after it resolved or was
// removed. Abilities have no card to move.
func (g *Game) finishSpell(item *StackObject, resolved bool) {
	if item.Kind != rules.StackItemKindSpell {
		return
	}
	obj, ok := g.objects[item.ID]
	if !ok || obj.Zone != rules.ZoneStack {
		return
	}
	if !resolved || !obj.Def.IsPermanentCard() {
		if _, err := g.moveObject(item.ID, rules.ZoneGraveyard, "", item.ID); err != nil {
			g.logger.Debug("spell card lost", zap.Error(err))
		}
		return
	}

	var attachTo string
	if obj.Def.HasSubtype("Aura") {
		legal, _ := g.legalTargets(item)
		if len(legal) == 0 || len(legal[0]) == 0 {
			if _, err := g.moveObject(item.ID, rules.ZoneGraveyard, "", item.ID); err != nil {
				g.logger.Debug("aura card lost", zap.Error(err))
			}
			return
		}
		attachTo = legal[0][0]
	}
	permanent, err := g.moveObject(item.ID, rules.ZoneBattlefield, item.Controller, item.ID)
	if err != nil || permanent == nil {
		return
	}
	if attachTo != "" {
		if err := g.Attach(permanent.ID, attachTo); err != nil {
			g.logger.Debug("aura could not attach", zap.Error(err))
		}
	}
}

// Counter removes a stack object without resolving it. A countered spell
// goes to its owner's graveyard. Anything the countered object would have
// affected is left alone.
func (g *Game) Counter(id, sourceID string) error {
	item, ok := g.stack.Remove(id)
	if !ok {
		return fmt.Errorf("counter %s: %w", id, ErrMissingReference)
	}
	evt := rules.NewEvent(rules.EventCountered, id, sourceID, item.Controller)
	evt.Description = item.Name
	g.publish(evt)
	g.finishSpell(item, false)
	g.logger.Debug("countered stack object", zap.String("stack_id", id), zap.String("source_id", sourceID))
	return nil
}
