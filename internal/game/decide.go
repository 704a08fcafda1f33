package game

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/magefree/mage-rules-go/internal/game/rules"
	"github.com/magefree/mage-rules-go/internal/game/targeting"
	"go.uber.org/zap"
)

// defaulted records that a decision fell back to its default.
func (g *Game) defaulted(playerID, decision string, err error) {
	if errors.Is(err, ErrNoDecision) {
		g.logger.Debug("no decision, using default",
			zap.String("player_id", playerID),
			zap.String("decision", decision))
		return
	}
	g.logger.Warn("decision defaulted",
		zap.String("player_id", playerID),
		zap.String("decision", decision),
		zap.Error(err))
	evt := rules.NewEvent(rules.EventDecisionDefaulted, playerID, "", playerID)
	evt.Data = decision
	evt.Description = err.Error()
	g.publish(evt)
}

// ChooseUse asks playerID a yes/no question. The default is no.
func (g *Game) ChooseUse(ctx context.Context, playerID string, outcome Outcome, prompt string) bool {
	p, ok := g.players[playerID]
	if !ok || !p.InGame() {
		return false
	}
	yes, err := p.provider.ChooseUse(ctx, UseRequest{GameID: g.ID, PlayerID: playerID, Outcome: outcome, Prompt: prompt})
	if err != nil {
		g.defaulted(playerID, "use", err)
		return false
	}
	return yes
}

// ChooseFrom asks playerID to pick between min and max of options. The
// second result is false when the player gave no usable answer; callers
// then apply their own default.
func (g *Game) ChooseFrom(ctx context.Context, playerID, sourceID string, req targeting.TargetRequirement, options []string, min, max int, prompt string) ([]string, bool) {
	p, ok := g.players[playerID]
	if !ok || !p.InGame() {
		return nil, false
	}
	answer, err := p.provider.ChooseTargets(ctx, TargetRequest{
		GameID:      g.ID,
		PlayerID:    playerID,
		SourceID:    sourceID,
		Requirement: req,
		Options:     slices.Clone(options),
		Min:         min,
		Max:         max,
		Prompt:      prompt,
	})
	if err == nil {
		err = checkChoice(answer, options, min, max)
	}
	if err != nil {
		g.defaulted(playerID, "targets", err)
		return nil, false
	}
	return answer, true
}

func checkChoice(answer, options []string, min, max int) error {
	if len(answer) < min || len(answer) > max {
		return fmt.Errorf("%w: chose %d, need %d to %d", ErrInvalidTarget, len(answer), min, max)
	}
	seen := make(map[string]bool, len(answer))
	for _, id := range answer {
		if seen[id] {
			return fmt.Errorf("%w: %s chosen twice", ErrInvalidTarget, id)
		}
		seen[id] = true
		if !slices.Contains(options, id) {
			return fmt.Errorf("%w: %s is not a legal choice", ErrInvalidTarget, id)
		}
	}
	return nil
}

// targetCandidates lists every player and object a requirement could
// possibly refer to.
func (g *Game) targetCandidates(req targeting.TargetRequirement) []string {
	var ids []string
	if req.Type == targeting.TargetTypeCardInHand {
		for _, pid := range g.order {
			ids = append(ids, g.players[pid].Hand.IDs()...)
		}
		return ids
	}
	for _, pid := range g.order {
		if g.players[pid].InGame() {
			ids = append(ids, pid)
		}
	}
	ids = append(ids, g.battlefield.IDs()...)
	for _, item := range g.stack.List() {
		ids = append(ids, item.ID)
	}
	return ids
}

// chooseTargets picks targets for a triggered ability being put on the
// stack. Missing or illegal answers fall back to the first legal
// candidates. It returns false when a requirement cannot be met.
func (g *Game) chooseTargets(ctx context.Context, controller, sourceID string, reqs []targeting.TargetRequirement) ([][]string, bool) {
	var chosen [][]string
	for _, req := range reqs {
		legal := g.validator.LegalTargets(sourceID, controller, req, g.targetCandidates(req))
		if len(legal) < req.MinTargets {
			return nil, false
		}
		maxTargets := min(req.MaxTargets, len(legal))
		answer, ok := g.ChooseFrom(ctx, controller, sourceID, req, legal, req.MinTargets, maxTargets, req.Description)
		if !ok {
			answer = slices.Clone(legal[:req.MinTargets])
		}
		chosen = append(chosen, answer)
	}
	return chosen, true
}
