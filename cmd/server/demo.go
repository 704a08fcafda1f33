package main

import (
	"context"

	"github.com/magefree/mage-rules-go/internal/game"
	"github.com/magefree/mage-rules-go/internal/game/rules"
	"github.com/magefree/mage-rules-go/internal/game/sets"
)

// spellCosts is the total mana cost of each demo spell.
var spellCosts = map[string]int{
	"Lightning Bolt": 1,
	"Grizzly Bears":  2,
}

func isBasicLand(name string) bool {
	switch name {
	case "Forest", "Island", "Mountain", "Plains":
		return true
	}
	return false
}

// demoPlayer plays one land per turn and then casts whatever it can afford
// in its first main phase. Bolts go to the opponent's face.
type demoPlayer struct {
	game.PassingPlayer
	opponent string
	landTurn int
}

func (p *demoPlayer) ChoosePriorityAction(_ context.Context, view game.PriorityView) (game.Action, error) {
	if view.ActivePlayer != view.PlayerID || view.Step != rules.StepMain1 || len(view.Stack) > 0 {
		return game.Pass(), nil
	}

	if p.landTurn != view.Turn {
		for _, card := range view.Hand {
			if isBasicLand(card.Name) {
				p.landTurn = view.Turn
				return game.PlayLand(card.ID), nil
			}
		}
	}

	untapped := 0
	for _, perm := range view.Battlefield {
		if perm.Controller == view.PlayerID && !perm.Tapped && isBasicLand(perm.Name) {
			untapped++
		}
	}
	for _, card := range view.Hand {
		cost, ok := spellCosts[card.Name]
		if !ok || cost > untapped {
			continue
		}
		if card.Name == "Lightning Bolt" {
			return game.Cast(card.ID, p.opponent), nil
		}
		return game.Cast(card.ID), nil
	}
	return game.Pass(), nil
}

func demoSeats() ([]game.Seat, error) {
	red := append(sets.Repeat("Mountain", 8), sets.Repeat("Lightning Bolt", 6)...)
	green := append(sets.Repeat("Forest", 8), sets.Repeat("Grizzly Bears", 6)...)

	redDeck, err := sets.Deck(red...)
	if err != nil {
		return nil, err
	}
	greenDeck, err := sets.Deck(green...)
	if err != nil {
		return nil, err
	}
	return []game.Seat{
		{PlayerID: "alice", Name: "Alice", Deck: redDeck, Provider: &demoPlayer{opponent: "bob"}},
		{PlayerID: "bob", Name: "Bob", Deck: greenDeck, Provider: &demoPlayer{opponent: "alice"}},
	}, nil
}
