package effects

import (
	"slices"
	"strings"

	"github.com/magefree/mage-rules-go/internal/game/rules"
)

// Restrictions applied in LayerOther.
const (
	RestrictionCantAttack   = "cant_attack"
	RestrictionCantBlock    = "cant_block"
	RestrictionMustAttack   = "must_attack"
	RestrictionCantActivate = "cant_activate"
)

// Snapshot holds the characteristics of one object while effects are applied.
// A fresh snapshot is built from base values for every query; callers must
// not keep one across a mutation.
type Snapshot struct {
	ObjectID     string
	Name         string
	OwnerID      string
	ControllerID string
	Zone         rules.Zone
	ManaCost     string
	Text         string
	Types        []string
	Subtypes     []string
	Supertypes   []string
	Colors       []string
	Abilities    []string
	Power        int
	Toughness    int
	HasPT        bool

	// Net power/toughness change from +1/+1 and -1/-1 style counters.
	CounterPower     int
	CounterToughness int

	Restrictions []string
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.Types = slices.Clone(s.Types)
	out.Subtypes = slices.Clone(s.Subtypes)
	out.Supertypes = slices.Clone(s.Supertypes)
	out.Colors = slices.Clone(s.Colors)
	out.Abilities = slices.Clone(s.Abilities)
	out.Restrictions = slices.Clone(s.Restrictions)
	return &out
}

func containsFold(values []string, v string) bool {
	return slices.IndexFunc(values, func(x string) bool { return strings.EqualFold(x, v) }) >= 0
}

func addUnique(values []string, add ...string) []string {
	for _, v := range add {
		if v != "" && !containsFold(values, v) {
			values = append(values, v)
		}
	}
	return values
}

func removeFold(values []string, v string) []string {
	return slices.DeleteFunc(values, func(x string) bool { return strings.EqualFold(x, v) })
}

// HasType reports whether the object has the card type (case-insensitive).
func (s *Snapshot) HasType(cardType string) bool { return containsFold(s.Types, cardType) }

// HasSubtype reports whether the object has the subtype.
func (s *Snapshot) HasSubtype(subtype string) bool { return containsFold(s.Subtypes, subtype) }

// HasSupertype reports whether the object has the supertype.
func (s *Snapshot) HasSupertype(supertype string) bool { return containsFold(s.Supertypes, supertype) }

// HasColor reports whether the object has the color.
func (s *Snapshot) HasColor(color string) bool { return containsFold(s.Colors, color) }

// HasAbility reports whether the object has the ability.
func (s *Snapshot) HasAbility(ability string) bool { return containsFold(s.Abilities, ability) }

// HasRestriction reports whether a LayerOther restriction applies.
func (s *Snapshot) HasRestriction(restriction string) bool {
	return containsFold(s.Restrictions, restriction)
}

// IsCreature is shorthand for HasType("Creature").
func (s *Snapshot) IsCreature() bool { return s.HasType("Creature") }

// Value returns the characteristic named by field.
func (s *Snapshot) Value(field Field) any {
	switch field {
	case FieldName:
		return s.Name
	case FieldController:
		return s.ControllerID
	case FieldText:
		return s.Text
	case FieldTypes:
		return slices.Clone(s.Types)
	case FieldSubtypes:
		return slices.Clone(s.Subtypes)
	case FieldSupertypes:
		return slices.Clone(s.Supertypes)
	case FieldColors:
		return slices.Clone(s.Colors)
	case FieldAbilities:
		return slices.Clone(s.Abilities)
	case FieldPower:
		return s.Power
	case FieldToughness:
		return s.Toughness
	case FieldRestrictions:
		return slices.Clone(s.Restrictions)
	default:
		return nil
	}
}
