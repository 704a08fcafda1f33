package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/magefree/mage-rules-go/internal/config"
	"github.com/magefree/mage-rules-go/internal/game/rules"
	"go.uber.org/zap"
)

// settle runs state-based actions to a fixed point and puts waiting
// triggered abilities on the stack, repeating until neither happens. It is
// called before any player receives priority.
func (g *Game) settle(ctx context.Context) error {
	for range g.cfg.MaxTriggerRounds {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := g.RunStateBasedActions(); err != nil {
			return err
		}
		if g.over {
			return nil
		}
		if g.PlaceTriggers(ctx) == 0 {
			return nil
		}
	}
	if !g.triggers.HasPending() {
		if _, err := g.RunStateBasedActions(); err != nil {
			return err
		}
		return nil
	}
	err := fmt.Errorf("%w: triggered abilities still pending after %d rounds", ErrNotConverged, g.cfg.MaxTriggerRounds)
	g.abort(err)
	return err
}

// runPriority opens the priority window of the current step and runs it
// until every player passes in succession with an empty stack. The top of
// the stack resolves whenever all players pass with a non-empty stack.
func (g *Game) runPriority(ctx context.Context) error {
	active := g.turn.ActivePlayer()
	g.priority.Begin(active)
	for {
		if err := g.settle(ctx); err != nil {
			return err
		}
		if g.over {
			return nil
		}

		holder := g.priority.Holder()
		if holder == "" {
			return nil
		}
		action := g.askAction(ctx, holder)
		if err := ctx.Err(); err != nil {
			return err
		}
		if action.Type != rules.ActionPass {
			continue
		}

		evt := rules.NewEvent(rules.EventPriorityPassed, holder, "", holder)
		evt.Amount = g.priority.Offset()
		g.publish(evt)
		g.logger.Debug("priority passed",
			zap.String("player_id", holder),
			zap.Int("stack_size", g.stack.Len()))
		if g.priority.Pass() != rules.PriorityAllPassed {
			continue
		}
		if g.stack.IsEmpty() {
			return nil
		}
		if err := g.ResolveTop(ctx); err != nil {
			return err
		}
		g.priority.Begin(g.turn.ActivePlayer())
	}
}

// askAction asks holder what to do with priority and performs it. Illegal
// actions are rejected and the player is asked again, up to the configured
// number of retries; after that, and for unanswered requests, the player
// passes. It returns the action taken.
func (g *Game) askAction(ctx context.Context, holder string) Action {
	p := g.players[holder]
	if g.autoPass(p) {
		return Pass()
	}
	grant := rules.NewEvent(rules.EventPriorityGranted, holder, "", holder)
	grant.Data = g.priority.State().String()
	grant.Amount = g.priority.Offset()
	g.publish(grant)

	for attempt := 0; attempt <= g.cfg.MaxIllegalActionRetries; attempt++ {
		action, err := p.provider.ChoosePriorityAction(ctx, g.priorityView(holder))
		if err != nil {
			g.defaulted(holder, "priority", err)
			return Pass()
		}
		if action.Type == rules.ActionPass || action.Type == "" {
			return Pass()
		}
		err = g.Perform(ctx, holder, action)
		if err == nil {
			return action
		}
		if ctx.Err() != nil {
			return Pass()
		}
		if !isIllegal(err) {
			g.logger.Error("action failed", zap.String("player_id", holder), zap.Error(err))
			return Pass()
		}
		g.logger.Warn("illegal action rejected",
			zap.String("player_id", holder),
			zap.String("action", string(action.Type)),
			zap.String("object_id", action.ObjectID),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	return Pass()
}

// autoPass reports whether p passes without being asked: with the
// preference set, a player with an empty hand and nothing to activate does
// not hold up an empty stack.
func (g *Game) autoPass(p *Player) bool {
	if !g.prefs.AutoPassEmptyStack || !g.stack.IsEmpty() || p.Hand.Len() > 0 {
		return false
	}
	for _, s := range g.PermanentsMatching(nil) {
		if s.ControllerID != p.ID {
			continue
		}
		if len(abilitiesOf[*ActivatedAbility](g.objects[s.ObjectID].Def)) > 0 {
			return false
		}
	}
	return true
}

// actionTaken moves priority after a successful action that used the
// stack.
func (g *Game) actionTaken(actor string) {
	next := g.turn.ActivePlayer()
	if g.cfg.PriorityAfterAction == config.PriorityToActor || !g.players[next].InGame() {
		next = actor
	}
	g.priority.ActionTaken(next)
}

// isIllegal reports whether err rejects a player's action rather than
// signalling an engine fault.
func isIllegal(err error) bool {
	return errors.Is(err, ErrIllegalAction) || errors.Is(err, ErrInvalidTarget) || errors.Is(err, ErrMissingReference)
}
