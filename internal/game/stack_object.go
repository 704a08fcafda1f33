package game

import (
	"context"
	"slices"

	"github.com/magefree/mage-rules-go/internal/game/rules"
	"github.com/magefree/mage-rules-go/internal/game/targeting"
)

// StackObject is a spell or ability waiting to resolve. For spells ID is
// also the id of the card object on the stack; for abilities SourceID is
// the object the ability came from.
type StackObject struct {
	ID           string
	Kind         rules.StackItemKind
	SourceID     string
	AbilityName  string
	Controller   string
	Name         string
	Requirements []targeting.TargetRequirement
	// Targets holds the chosen targets, one list per requirement.
	Targets  [][]string
	Effects  []Effect
	Optional bool
	XValue   int
	// Event is the event a triggered ability triggered on.
	Event         rules.Event
	InterveningIf func(g *Game, sourceID string) bool
}

// StackID implements rules.StackEntry.
func (s *StackObject) StackID() string { return s.ID }

// AllTargets returns every chosen target in requirement order.
func (s *StackObject) AllTargets() []string {
	var out []string
	for _, group := range s.Targets {
		out = append(out, group...)
	}
	return out
}

// TargetsID reports whether the stack object targets id.
func (s *StackObject) TargetsID(id string) bool {
	return slices.Contains(s.AllTargets(), id)
}

// Resolution is handed to effects while a stack object resolves. Its
// targets are the ones still legal when resolution started.
type Resolution struct {
	Game *Game
	Item *StackObject

	legal [][]string
}

// Controller returns the controller of the resolving object.
func (r *Resolution) Controller() string { return r.Item.Controller }

// SourceID returns the id of the spell or of the ability's source.
func (r *Resolution) SourceID() string { return r.Item.SourceID }

// Targets returns the legal targets chosen for requirement i.
func (r *Resolution) Targets(i int) []string {
	if i < 0 || i >= len(r.legal) {
		return nil
	}
	return slices.Clone(r.legal[i])
}

// Target returns the first legal target of the first requirement.
func (r *Resolution) Target() (string, bool) {
	for _, group := range r.legal {
		if len(group) > 0 {
			return group[0], true
		}
	}
	return "", false
}

// ChooseUse asks playerID a yes/no question.
func (r *Resolution) ChooseUse(ctx context.Context, playerID string, outcome Outcome, prompt string) bool {
	return r.Game.ChooseUse(ctx, playerID, outcome, prompt)
}
