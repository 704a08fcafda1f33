package game

import (
	"context"
	"fmt"

	"github.com/magefree/mage-rules-go/internal/game/mana"
	"github.com/magefree/mage-rules-go/internal/game/rules"
	"go.uber.org/zap"
)

// manaSource is an untapped permanent with a usable mana ability.
type manaSource struct {
	objectID string
	ability  *ManaAbility
}

// manaSources lists playerID's mana sources able to activate now, in
// battlefield order.
func (g *Game) manaSources(playerID string) []manaSource {
	all := g.layers.ComputeAll(g)
	var out []manaSource
	for _, id := range g.battlefield.IDs() {
		obj := g.objects[id]
		s, ok := all[id]
		if !ok || s.ControllerID != playerID || obj.Tapped {
			continue
		}
		if s.IsCreature() && obj.SummoningSick && !s.HasAbility(KeywordHaste) {
			continue
		}
		for _, ability := range abilitiesOf[*ManaAbility](obj.Def) {
			if s.HasAbility(ability.Name) {
				out = append(out, manaSource{objectID: id, ability: ability})
				break
			}
		}
	}
	return out
}

// planPayment chooses which mana sources to tap, on top of the mana already
// in the pool, to pay cost. Sources producing a missing color are tapped
// first, the rest only for generic mana.
func (g *Game) planPayment(playerID string, cost *mana.ManaCost, xValue int) ([]manaSource, error) {
	p, ok := g.players[playerID]
	if !ok {
		return nil, fmt.Errorf("player %s: %w", playerID, ErrMissingReference)
	}
	pool := p.ManaPool.Copy()
	if _, err := mana.CalculatePayment(cost, pool, xValue); err == nil {
		return nil, nil
	}

	available := g.manaSources(playerID)
	used := make([]bool, len(available))
	var plan []manaSource
	tap := func(i int) {
		used[i] = true
		plan = append(plan, available[i])
		pool.Add(available[i].ability.Produces, max(available[i].ability.Amount, 1))
	}

	for _, mt := range mana.ManaTypes {
		for i := range available {
			if pool.Get(mt) >= cost.Amount(mt) {
				break
			}
			if !used[i] && available[i].ability.Produces == mt {
				tap(i)
			}
		}
	}
	for i := range available {
		if _, err := mana.CalculatePayment(cost, pool, xValue); err == nil {
			return plan, nil
		}
		if !used[i] {
			tap(i)
		}
	}
	if _, err := mana.CalculatePayment(cost, pool, xValue); err != nil {
		return nil, err
	}
	return plan, nil
}

// CanPay reports whether playerID could pay cost right now.
func (g *Game) CanPay(playerID string, cost *mana.ManaCost, xValue int) bool {
	_, err := g.planPayment(playerID, cost, xValue)
	return err == nil
}

// Pay taps the planned mana sources and pays cost from playerID's pool.
// Nothing is tapped when the cost cannot be paid in full.
func (g *Game) Pay(playerID, sourceID string, cost *mana.ManaCost, xValue int) error {
	plan, err := g.planPayment(playerID, cost, xValue)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIllegalAction, err)
	}
	for _, src := range plan {
		if err := g.activateManaAbility(playerID, src.objectID, src.ability.Name); err != nil {
			return err
		}
	}
	p := g.players[playerID]
	paid, err := mana.Pay(cost, p.ManaPool, xValue)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIllegalAction, err)
	}
	evt := rules.NewEventWithAmount(rules.EventManaPaid, sourceID, sourceID, playerID, paid.Total())
	evt.Data = cost.String()
	g.publish(evt)
	return nil
}

// activateManaAbility taps objectID for mana. Mana abilities do not use the
// stack.
func (g *Game) activateManaAbility(playerID, objectID, abilityName string) error {
	s, ok := g.Permanent(objectID)
	if !ok {
		return fmt.Errorf("%w: %s is not on the battlefield", ErrIllegalAction, objectID)
	}
	obj := g.objects[objectID]
	if s.ControllerID != playerID {
		return fmt.Errorf("%w: %s does not control %s", ErrIllegalAction, playerID, s.Name)
	}
	ability, found := obj.Def.Ability(abilityName)
	manaAbility, isMana := ability.(*ManaAbility)
	if !found || !isMana || !s.HasAbility(abilityName) {
		return fmt.Errorf("%w: %s has no mana ability %q", ErrIllegalAction, s.Name, abilityName)
	}
	if obj.Tapped {
		return fmt.Errorf("%w: %s is tapped", ErrIllegalAction, s.Name)
	}
	if s.IsCreature() && obj.SummoningSick && !s.HasAbility(KeywordHaste) {
		return fmt.Errorf("%w: %s has summoning sickness", ErrIllegalAction, s.Name)
	}

	return g.manaGuard.Activate(objectID+"/"+abilityName, func() error {
		g.Tap(objectID, objectID)
		amount := max(manaAbility.Amount, 1)
		g.players[playerID].ManaPool.Add(manaAbility.Produces, amount)
		evt := rules.NewEventWithAmount(rules.EventManaAdded, playerID, objectID, playerID, amount)
		evt.Data = string(manaAbility.Produces)
		g.publish(evt)
		return nil
	})
}

// AskPayment offers playerID to pay an optional cost. It returns true only
// when the player agreed and the cost was paid.
func (g *Game) AskPayment(ctx context.Context, playerID, sourceID string, cost *mana.ManaCost, prompt string) bool {
	p, ok := g.players[playerID]
	if !ok || !p.InGame() || !g.CanPay(playerID, cost, 0) {
		return false
	}
	yes, err := p.provider.ChoosePayment(ctx, PaymentRequest{
		GameID:   g.ID,
		PlayerID: playerID,
		SourceID: sourceID,
		Cost:     cost.String(),
		Prompt:   prompt,
	})
	if err != nil {
		g.defaulted(playerID, "payment", err)
		return false
	}
	if !yes {
		return false
	}
	if err := g.Pay(playerID, sourceID, cost, 0); err != nil {
		g.logger.Warn("accepted payment failed", zap.String("player_id", playerID), zap.Error(err))
		return false
	}
	evt := rules.NewEvent(rules.EventCostPaidByPlayer, sourceID, sourceID, playerID)
	evt.Data = cost.String()
	g.publish(evt)
	return true
}
