package game

import (
	"context"

	"github.com/magefree/mage-rules-go/internal/game/rules"
	"go.uber.org/zap"
)

// Run plays the game until it is over. It returns the fatal error that
// aborted the game, or ctx's error when ctx is cancelled first.
func (g *Game) Run(ctx context.Context) error {
	return g.run(ctx, 0)
}

// RunTurns plays n more turns, or less if the game ends first.
func (g *Game) RunTurns(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	return g.run(ctx, n)
}

func (g *Game) run(ctx context.Context, turns int) error {
	if g.fatal != nil {
		return g.fatal
	}
	if !g.started {
		g.start()
	}
	stop := g.turn.TurnNumber() + turns
	for !g.over {
		if turns > 0 && g.turn.TurnNumber() >= stop {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := g.playStep(ctx); err != nil {
			return err
		}
		if g.over {
			break
		}
		g.endStep(ctx)
	}
	return g.fatal
}

// start shuffles the libraries and draws the opening hands.
func (g *Game) start() {
	for _, pid := range g.order {
		if !g.players[pid].keepLibraryOrder {
			g.ShuffleLibrary(pid)
		}
		g.DrawCards(pid, g.cfg.StartingHandSize)
	}
	g.watchers.ResetWatchers()
	g.started = true
	g.publish(rules.NewEvent(rules.EventGameStarted, g.ID, "", g.turn.ActivePlayer()))
	g.logger.Info("game started",
		zap.Strings("players", g.order),
		zap.String("starting_player", g.turn.ActivePlayer()))
}

// playStep performs the turn-based actions of the current step and runs its
// priority window.
func (g *Game) playStep(ctx context.Context) error {
	step := g.turn.CurrentStep()
	if !g.stepBegun {
		g.stepBegun = true
		g.beginStep(step)
	}
	if rules.GrantsPriority(step) {
		return g.runPriority(ctx)
	}
	if step == rules.StepCleanup {
		// Players only get priority in the cleanup step when something
		// happened during it.
		if err := g.settle(ctx); err != nil {
			return err
		}
		if !g.stack.IsEmpty() {
			return g.runPriority(ctx)
		}
	}
	return nil
}

func (g *Game) beginStep(step rules.Step) {
	active := g.turn.ActivePlayer()
	if step == rules.StepUntap {
		evt := rules.NewEvent(rules.EventBeginTurn, active, "", active)
		evt.Amount = g.turn.TurnNumber()
		g.publish(evt)
		g.logger.Debug("turn started", zap.Int("turn", g.turn.TurnNumber()), zap.String("active_player", active))
	}
	evt := rules.NewEvent(rules.EventStepChanged, "", "", active)
	evt.Data = step.String()
	evt.Description = g.turn.CurrentPhase().String()
	evt.Amount = g.turn.TurnNumber()
	g.publish(evt)

	switch step {
	case rules.StepUntap:
		g.untapStep(active)
	case rules.StepDraw:
		if g.turn.TurnNumber() == 1 {
			g.logger.Debug("starting player skips the first draw")
			break
		}
		g.DrawCards(active, 1)
	case rules.StepEndCombat:
		for _, id := range g.layers.CleanupEndOfCombat() {
			g.publish(rules.NewEvent(rules.EventContinuousEffectRemoved, id, "", ""))
		}
	case rules.StepCleanup:
		g.cleanupStep()
	}
}

func (g *Game) untapStep(active string) {
	for _, id := range g.battlefield.IDs() {
		obj := g.objects[id]
		if obj.ControllerID != active {
			continue
		}
		obj.SummoningSick = false
		g.Untap(id, "")
	}
}

func (g *Game) cleanupStep() {
	for _, id := range g.battlefield.IDs() {
		g.objects[id].Damage = 0
		g.objects[id].DeathtouchDamage = false
	}
	for _, id := range g.layers.CleanupEndOfTurn() {
		g.publish(rules.NewEvent(rules.EventContinuousEffectRemoved, id, "", ""))
	}
	g.replacements.CleanupEndOfTurn()
	g.costs.CleanupEndOfTurn()
	g.watchers.ResetWatchers()
	g.special.ResetTurn()
	g.publish(rules.NewEvent(rules.EventCleanupStep, "", "", g.turn.ActivePlayer()))
}

// endStep empties the mana pools and moves to the next step. The turn
// passes to the next player still in the game after the cleanup step.
func (g *Game) endStep(ctx context.Context) {
	for _, pid := range g.order {
		p := g.players[pid]
		if n := p.ManaPool.Empty(); n > 0 {
			g.publish(rules.NewEventWithAmount(rules.EventEmptyManaPool, pid, "", pid, n))
		}
	}
	g.manaGuard.ResetWindow()

	endsTurn := g.turn.EndsTurn()
	if endsTurn {
		g.saveSnapshot(ctx)
	}
	g.turn.AdvanceStep(g.nextPlayer(g.turn.ActivePlayer()))
	g.stepBegun = false
	if endsTurn {
		g.priority.SetPlayers(g.PlayersInRange(g.turn.ActivePlayer()))
	}
}

// nextPlayer returns the player after current in turn order who is still
// in the game.
func (g *Game) nextPlayer(current string) string {
	in := g.PlayersInRange(current)
	for _, pid := range in {
		if pid != current {
			return pid
		}
	}
	return current
}

// SetSnapshotSink sets where a snapshot is saved at the end of every turn.
func (g *Game) SetSnapshotSink(sink SnapshotSink) { g.sink = sink }

func (g *Game) saveSnapshot(ctx context.Context) {
	if g.sink == nil {
		return
	}
	snap := g.Snapshot()
	if err := g.sink.Save(ctx, snap); err != nil {
		g.logger.Warn("saving snapshot failed", zap.Int("turn", snap.Turn), zap.Error(err))
	}
}
