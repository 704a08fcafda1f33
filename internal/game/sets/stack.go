package sets

import (
	"context"
	"slices"

	"github.com/magefree/mage-rules-go/internal/game"
	"github.com/magefree/mage-rules-go/internal/game/effects"
	"github.com/magefree/mage-rules-go/internal/game/mana"
	"github.com/magefree/mage-rules-go/internal/game/rules"
	"github.com/magefree/mage-rules-go/internal/game/targeting"
)

// TeferisResponse counters a spell or ability an opponent controls that
// targets a land you control. If a permanent's ability is countered this
// way, that permanent is destroyed.
func TeferisResponse() *game.CardDefinition {
	req := targeting.Single(targeting.TargetTypeStackObject,
		"spell or ability an opponent controls that targets a land you control").
		WithFilter(targetsYourLand)
	return &game.CardDefinition{
		Name:     "Teferi's Response",
		ManaCost: "{1}{U}",
		Types:    []string{"Instant"},
		Text: "Counter target spell or ability an opponent controls that targets a land you control. " +
			"If a permanent's ability is countered this way, destroy that permanent.\nDraw two cards.",
		Spell: &game.SpellAbility{
			Targets: []targeting.TargetRequirement{req},
			Effects: []game.Effect{
				game.EffectFunc(counterAndDestroySource),
				game.ControllerDraws(2),
			},
		},
	}
}

func targetsYourLand(ctx targeting.Context, c targeting.Candidate) bool {
	obj := c.Object
	if obj == nil || obj.ControllerID == ctx.Controller {
		return false
	}
	for _, id := range obj.Targets {
		target, ok := ctx.State.FindObjectForTarget(id)
		if ok && target.Zone == rules.ZoneBattlefield && target.HasType("Land") && target.ControllerID == ctx.Controller {
			return true
		}
	}
	return false
}

func counterAndDestroySource(_ context.Context, r *game.Resolution) error {
	id, ok := r.Target()
	if !ok {
		return nil
	}
	g := r.Game
	item, ok := g.StackObject(id)
	if !ok {
		return nil
	}
	if err := g.Counter(id, r.SourceID()); err != nil {
		return err
	}
	if item.Kind == rules.StackItemKindSpell || !g.IsOnBattlefield(item.SourceID) {
		return nil
	}
	_, err := g.Destroy(item.SourceID, r.SourceID())
	return err
}

// RhysticScrying draws three cards. Then any player may pay {2}; if anyone
// does, its controller discards three cards.
func RhysticScrying() *game.CardDefinition {
	return &game.CardDefinition{
		Name:     "Rhystic Scrying",
		ManaCost: "{2}{U}{U}",
		Types:    []string{"Sorcery"},
		Text:     "Draw three cards. Then if any player pays {2}, discard three cards.",
		Spell: &game.SpellAbility{
			Effects: []game.Effect{
				game.ControllerDraws(3),
				game.EffectFunc(rhysticDiscard),
			},
		},
	}
}

func rhysticDiscard(ctx context.Context, r *game.Resolution) error {
	g := r.Game
	cost := mana.MustParseCost("{2}")
	paid := false
	for _, pid := range g.PlayersInRange(r.Controller()) {
		if !g.CanPay(pid, cost, 0) {
			continue
		}
		if !r.ChooseUse(ctx, pid, game.OutcomeDetriment, "Pay {2} to make the caster of Rhystic Scrying discard three cards?") {
			continue
		}
		if g.AskPayment(ctx, pid, r.SourceID(), cost, "Pay {2}") {
			paid = true
		}
	}
	if paid {
		g.DiscardCards(ctx, r.Controller(), r.SourceID(), 3)
	}
	return nil
}

// HiddenAncients becomes a 5/5 Treefolk creature when an opponent casts an
// enchantment spell, if it is still an enchantment.
func HiddenAncients() *game.CardDefinition {
	return &game.CardDefinition{
		Name:     "Hidden Ancients",
		ManaCost: "{1}{G}",
		Types:    []string{"Enchantment"},
		Text: "When an opponent casts an enchantment spell, if Hidden Ancients is an enchantment, " +
			"Hidden Ancients becomes a 5/5 Treefolk creature.",
		Abilities: []game.Ability{
			&game.TriggeredAbility{
				Name:          "When an opponent casts an enchantment spell, becomes a 5/5 Treefolk.",
				Event:         rules.EventSpellCast,
				Condition:     opponentCastEnchantment,
				InterveningIf: stillEnchantment,
				Effects:       []game.Effect{game.EffectFunc(becomeTreefolk)},
			},
		},
	}
}

func opponentCastEnchantment(g *game.Game, src *effects.Snapshot, event rules.Event) bool {
	if !slices.Contains(g.Opponents(src.ControllerID), event.Controller) {
		return false
	}
	spell, err := g.Characteristics(event.TargetID)
	return err == nil && spell.HasType("Enchantment")
}

func stillEnchantment(g *game.Game, sourceID string) bool {
	s, ok := g.Permanent(sourceID)
	return ok && s.HasType("Enchantment")
}

func becomeTreefolk(_ context.Context, r *game.Resolution) error {
	src := r.SourceID()
	b := effects.NewBuilder(src, r.Controller()).WhileOnBattlefield()
	r.Game.AddContinuousEffects(b, effects.BecomesOnlyCreature(effects.Objects(src), 5, 5, "Treefolk")...)
	return nil
}
