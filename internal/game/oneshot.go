package game

import (
	"context"
	"fmt"

	"github.com/magefree/mage-rules-go/internal/game/counters"
	"github.com/magefree/mage-rules-go/internal/game/effects"
	"github.com/magefree/mage-rules-go/internal/game/rules"
	"github.com/magefree/mage-rules-go/internal/game/targeting"
	"go.uber.org/zap"
)

// Building blocks for the effects of spells and abilities. Each acts on the
// targets still legal when resolution started.

// allTargets returns every legal target of every requirement.
func (r *Resolution) allTargets() []string {
	var out []string
	for i := range r.legal {
		out = append(out, r.legal[i]...)
	}
	return out
}

// DamageTargets deals amount damage to each target.
func DamageTargets(amount int) Effect {
	return EffectFunc(func(_ context.Context, r *Resolution) error {
		for _, id := range r.allTargets() {
			if _, err := r.Game.DealDamage(r.SourceID(), id, amount); err != nil {
				return err
			}
		}
		return nil
	})
}

// DamageTargetsX deals X damage to each target.
func DamageTargetsX() Effect {
	return EffectFunc(func(ctx context.Context, r *Resolution) error {
		return DamageTargets(r.Item.XValue).Apply(ctx, r)
	})
}

// ControllerDraws makes the controller draw n cards.
func ControllerDraws(n int) Effect {
	return EffectFunc(func(_ context.Context, r *Resolution) error {
		r.Game.DrawCards(r.Controller(), n)
		return nil
	})
}

// ControllerGainsLife gives the controller n life.
func ControllerGainsLife(n int) Effect {
	return EffectFunc(func(_ context.Context, r *Resolution) error {
		r.Game.GainLife(r.Controller(), n, r.SourceID())
		return nil
	})
}

// TargetPlayersLoseLife makes each targeted player lose n life.
func TargetPlayersLoseLife(n int) Effect {
	return EffectFunc(func(_ context.Context, r *Resolution) error {
		for _, id := range r.allTargets() {
			r.Game.LoseLife(id, n, r.SourceID())
		}
		return nil
	})
}

// CounterTargets counters each targeted spell or ability.
func CounterTargets() Effect {
	return EffectFunc(func(_ context.Context, r *Resolution) error {
		for _, id := range r.allTargets() {
			if err := r.Game.Counter(id, r.SourceID()); err != nil {
				return err
			}
		}
		return nil
	})
}

// DestroyTargets destroys each targeted permanent.
func DestroyTargets() Effect {
	return EffectFunc(func(_ context.Context, r *Resolution) error {
		// Destroyed together, so leave abilities see each other.
		r.Game.beginBatch()
		defer r.Game.endBatch()
		for _, id := range r.allTargets() {
			if _, err := r.Game.Destroy(id, r.SourceID()); err != nil {
				return err
			}
		}
		return nil
	})
}

// PumpTargets gives each targeted creature +power/+toughness until end of
// turn.
func PumpTargets(power, toughness int) Effect {
	return EffectFunc(func(_ context.Context, r *Resolution) error {
		targets := r.allTargets()
		if len(targets) == 0 {
			return nil
		}
		b := effects.NewBuilder(r.SourceID(), r.Controller()).UntilEndOfTurn()
		r.Game.AddContinuousEffects(b, effects.ModifyPT(effects.Objects(targets...), power, toughness))
		return nil
	})
}

// AddContinuousEffects starts effects built by b. Several effects start
// together as one group.
func (g *Game) AddContinuousEffects(b *effects.Builder, effs ...effects.ContinuousEffect) []string {
	entries := b.Entries(effs...)
	var ids []string
	switch len(entries) {
	case 0:
		return nil
	case 1:
		ids = []string{g.layers.Add(entries[0])}
	default:
		ids = g.layers.AddGroup(entries...)
	}
	for _, id := range ids {
		entry, _ := g.layers.Get(id)
		evt := rules.NewEvent(rules.EventContinuousEffectAdded, id, entry.SourceID, entry.Controller)
		evt.Data = entry.AbilityID
		g.publish(evt)
	}
	return ids
}

// AddCountersToTargets puts n counters of counterType on each targeted
// permanent.
func AddCountersToTargets(counterType counters.CounterType, n int) Effect {
	return EffectFunc(func(_ context.Context, r *Resolution) error {
		for _, id := range r.allTargets() {
			if err := r.Game.AddCounters(id, counterType, n); err != nil {
				return err
			}
		}
		return nil
	})
}

// TargetPlayersDiscard makes each targeted player discard n cards of their
// choice. A player who does not choose discards at random.
func TargetPlayersDiscard(n int) Effect {
	return EffectFunc(func(ctx context.Context, r *Resolution) error {
		for _, pid := range r.allTargets() {
			r.Game.DiscardCards(ctx, pid, r.SourceID(), n)
		}
		return nil
	})
}

// DiscardCards makes playerID discard n cards of their choice, or at random
// when they do not choose.
func (g *Game) DiscardCards(ctx context.Context, playerID, sourceID string, n int) {
	p, ok := g.players[playerID]
	if !ok || !p.InGame() {
		return
	}
	n = min(n, p.Hand.Len())
	if n <= 0 {
		return
	}
	req := targeting.TargetRequirement{
		Type:        targeting.TargetTypeCardInHand,
		MinTargets:  n,
		MaxTargets:  n,
		Description: fmt.Sprintf("discard %d", n),
	}
	chosen, ok := g.ChooseFrom(ctx, playerID, sourceID, req, p.Hand.IDs(), n, n, req.Description)
	if !ok {
		chosen = chosen[:0]
		hand := p.Hand.Copy()
		for range n {
			id, err := hand.Random(g.rng)
			if err != nil {
				break
			}
			hand.Remove(id)
			chosen = append(chosen, id)
		}
	}
	for _, id := range chosen {
		if err := g.Discard(id, sourceID); err != nil {
			g.logger.Debug("discard skipped", zap.String("card_id", id), zap.Error(err))
		}
	}
}
