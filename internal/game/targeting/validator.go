package targeting

import (
	"fmt"

	"github.com/magefree/mage-rules-go/internal/game/rules"
)

// Accessor provides the game state needed for target validation.
type Accessor interface {
	FindPlayerForTarget(playerID string) (PlayerInfo, bool)
	FindObjectForTarget(objectID string) (ObjectInfo, bool)
}

// Context identifies who is targeting.
type Context struct {
	SourceID   string
	Controller string
	State      Accessor
}

// TargetValidator validates that selected targets are legal.
type TargetValidator struct {
	state Accessor
}

// NewTargetValidator creates a new target validator.
func NewTargetValidator(state Accessor) *TargetValidator {
	return &TargetValidator{state: state}
}

func (tv *TargetValidator) context(sourceID, controller string) Context {
	return Context{SourceID: sourceID, Controller: controller, State: tv.state}
}

// ValidateTarget checks a single target. Failures wrap rules.ErrInvalidTarget.
func (tv *TargetValidator) ValidateTarget(sourceID, controller, targetID string, req TargetRequirement) error {
	ctx := tv.context(sourceID, controller)
	candidate, err := tv.candidate(targetID)
	if err != nil {
		return err
	}
	if err := matchType(candidate, req.Type); err != nil {
		return fmt.Errorf("%w: %s: %v", rules.ErrInvalidTarget, targetID, err)
	}
	if obj := candidate.Object; obj != nil && obj.Zone == rules.ZoneBattlefield {
		if obj.HasAbility("shroud") {
			return fmt.Errorf("%w: %s has shroud", rules.ErrInvalidTarget, obj.Name)
		}
		if obj.HasAbility("hexproof") && obj.ControllerID != controller {
			return fmt.Errorf("%w: %s has hexproof", rules.ErrInvalidTarget, obj.Name)
		}
	}
	if req.Filter != nil && !req.Filter(ctx, candidate) {
		return fmt.Errorf("%w: %s does not match %s", rules.ErrInvalidTarget, targetID, req)
	}
	return nil
}

// ValidateSelection checks counts, duplicates and every target. A wrong count
// or a duplicate is an illegal action; an illegal target is an invalid target.
func (tv *TargetValidator) ValidateSelection(sourceID, controller string, req TargetRequirement, targets []string) error {
	if len(targets) < req.MinTargets {
		return fmt.Errorf("%w: need at least %d target(s) for %s, got %d", rules.ErrIllegalAction, req.MinTargets, req, len(targets))
	}
	if len(targets) > req.MaxTargets {
		return fmt.Errorf("%w: need at most %d target(s) for %s, got %d", rules.ErrIllegalAction, req.MaxTargets, req, len(targets))
	}
	seen := make(map[string]struct{}, len(targets))
	for _, id := range targets {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s chosen twice", rules.ErrIllegalAction, id)
		}
		seen[id] = struct{}{}
		if err := tv.ValidateTarget(sourceID, controller, id, req); err != nil {
			return err
		}
	}
	return nil
}

// LegalTargets filters candidates down to the legal ones, keeping order.
func (tv *TargetValidator) LegalTargets(sourceID, controller string, req TargetRequirement, candidates []string) []string {
	var legal []string
	for _, id := range candidates {
		if tv.ValidateTarget(sourceID, controller, id, req) == nil {
			legal = append(legal, id)
		}
	}
	return legal
}

// HasLegalTargets reports whether the requirement can be satisfied at all.
func (tv *TargetValidator) HasLegalTargets(sourceID, controller string, req TargetRequirement, candidates []string) bool {
	if req.MinTargets == 0 {
		return true
	}
	return len(tv.LegalTargets(sourceID, controller, req, candidates)) >= req.MinTargets
}

func (tv *TargetValidator) candidate(targetID string) (Candidate, error) {
	if tv == nil || tv.state == nil {
		return Candidate{}, fmt.Errorf("target validator not initialized")
	}
	if player, ok := tv.state.FindPlayerForTarget(targetID); ok {
		if player.Lost || player.Left {
			return Candidate{}, fmt.Errorf("%w: player %s is no longer in the game", rules.ErrInvalidTarget, targetID)
		}
		return Candidate{Player: &player}, nil
	}
	if obj, ok := tv.state.FindObjectForTarget(targetID); ok {
		return Candidate{Object: &obj}, nil
	}
	return Candidate{}, fmt.Errorf("%w: %s no longer exists", rules.ErrInvalidTarget, targetID)
}

func matchType(c Candidate, targetType TargetType) error {
	if c.Player != nil {
		if targetType == TargetTypePlayer || targetType == TargetTypeAny {
			return nil
		}
		return fmt.Errorf("a player is not a %s", targetType)
	}
	obj := c.Object
	onBattlefield := obj.Zone == rules.ZoneBattlefield
	switch targetType {
	case TargetTypeAny:
		if onBattlefield && (obj.HasType("Creature") || obj.HasType("Planeswalker")) {
			return nil
		}
	case TargetTypeCreature, TargetTypeArtifact, TargetTypeEnchantment, TargetTypeLand, TargetTypePlaneswalker:
		if onBattlefield && obj.HasType(typeName(targetType)) {
			return nil
		}
	case TargetTypePermanent:
		if onBattlefield {
			return nil
		}
	case TargetTypeSpell:
		if obj.Zone == rules.ZoneStack && obj.StackKind == rules.StackItemKindSpell {
			return nil
		}
	case TargetTypeStackObject:
		if obj.Zone == rules.ZoneStack {
			return nil
		}
	case TargetTypeCardInHand:
		if obj.Zone == rules.ZoneHand {
			return nil
		}
	}
	return fmt.Errorf("%s in %s is not a legal %s", obj.Name, obj.Zone, targetType)
}

func typeName(t TargetType) string {
	switch t {
	case TargetTypeCreature:
		return "Creature"
	case TargetTypeArtifact:
		return "Artifact"
	case TargetTypeEnchantment:
		return "Enchantment"
	case TargetTypeLand:
		return "Land"
	case TargetTypePlaneswalker:
		return "Planeswalker"
	}
	return string(t)
}
