// Package targeting describes target requirements and checks target legality
// against the current game state, both when a spell or ability is put on the
// stack and again when it resolves.
package targeting

import (
	"fmt"
	"strings"

	"github.com/magefree/mage-rules-go/internal/game/rules"
)

// TargetType represents the type of target a spell or ability can have.
type TargetType string

const (
	TargetTypeAny          TargetType = "ANY" // creature, player or planeswalker
	TargetTypeCreature     TargetType = "CREATURE"
	TargetTypePlayer       TargetType = "PLAYER"
	TargetTypeSpell        TargetType = "SPELL"
	TargetTypeStackObject  TargetType = "STACK_OBJECT" // spell or ability on the stack
	TargetTypePermanent    TargetType = "PERMANENT"
	TargetTypeArtifact     TargetType = "ARTIFACT"
	TargetTypeEnchantment  TargetType = "ENCHANTMENT"
	TargetTypeLand         TargetType = "LAND"
	TargetTypePlaneswalker TargetType = "PLANESWALKER"
	TargetTypeCardInHand   TargetType = "CARD_IN_HAND"
)

// TargetRequirement defines what targets a spell or ability requires.
type TargetRequirement struct {
	Type        TargetType
	MinTargets  int
	MaxTargets  int
	Description string
	// Filter adds card-specific conditions on top of Type, e.g. "an opponent
	// controls" or "that targets a land you control".
	Filter func(ctx Context, c Candidate) bool
}

// Single returns a requirement for exactly one target.
func Single(targetType TargetType, description string) TargetRequirement {
	return TargetRequirement{Type: targetType, MinTargets: 1, MaxTargets: 1, Description: description}
}

// UpTo returns a requirement for zero to n targets.
func UpTo(n int, targetType TargetType, description string) TargetRequirement {
	return TargetRequirement{Type: targetType, MinTargets: 0, MaxTargets: n, Description: description}
}

// WithFilter returns a copy of the requirement with filter added.
func (r TargetRequirement) WithFilter(filter func(ctx Context, c Candidate) bool) TargetRequirement {
	r.Filter = filter
	return r
}

// PlayerInfo is the view of a player used for target checks.
type PlayerInfo struct {
	PlayerID string
	Name     string
	Life     int
	Lost     bool
	Left     bool
}

// ObjectInfo is the view of a game object used for target checks. Types and
// abilities are the object's current characteristics, after continuous
// effects.
type ObjectInfo struct {
	ID           string
	Name         string
	Types        []string
	Abilities    []string
	Zone         rules.Zone
	ControllerID string
	OwnerID      string
	// StackKind is set for objects on the stack.
	StackKind rules.StackItemKind
	// Targets lists what a stack object targets.
	Targets []string
}

// HasType reports whether the object currently has cardType.
func (o ObjectInfo) HasType(cardType string) bool {
	for _, t := range o.Types {
		if strings.EqualFold(t, cardType) {
			return true
		}
	}
	return false
}

// HasAbility reports whether the object currently has the keyword ability.
func (o ObjectInfo) HasAbility(keyword string) bool {
	for _, a := range o.Abilities {
		if strings.EqualFold(a, keyword) {
			return true
		}
	}
	return false
}

// Candidate is either a player or an object.
type Candidate struct {
	Player *PlayerInfo
	Object *ObjectInfo
}

// ID returns the candidate's id.
func (c Candidate) ID() string {
	if c.Player != nil {
		return c.Player.PlayerID
	}
	if c.Object != nil {
		return c.Object.ID
	}
	return ""
}

// FormatTargets joins target ids for event metadata.
func FormatTargets(targets []string) string {
	return strings.Join(targets, ",")
}

// ParseTargets splits ids produced by FormatTargets.
func ParseTargets(formatted string) []string {
	if formatted == "" {
		return []string{}
	}
	return strings.Split(formatted, ",")
}

func (r TargetRequirement) String() string {
	if r.Description != "" {
		return r.Description
	}
	return fmt.Sprintf("%d-%d %s", r.MinTargets, r.MaxTargets, strings.ToLower(string(r.Type)))
}
