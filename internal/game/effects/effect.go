package effects

import (
	"slices"
	"strings"

	"github.com/magefree/mage-rules-go/internal/game/rules"
)

// World is the read-only view of game state the layer system needs.
type World interface {
	// BaseCharacteristics returns a fresh snapshot of the object's printed
	// characteristics, or false when no object has the id.
	BaseCharacteristics(objectID string) (*Snapshot, bool)
	// ObjectIDs lists every object effects may apply to, in a stable order.
	ObjectIDs() []string
	IsOnBattlefield(objectID string) bool
	// AttachedTo returns the object the given permanent is attached to.
	AttachedTo(objectID string) string
}

// ContinuousEffect modifies characteristics in one layer.
type ContinuousEffect interface {
	Layer() Layer
	AppliesTo(s *Snapshot, ctx *Context) bool
	Apply(s *Snapshot, ctx *Context)
}

// SubLayered is implemented by effects in LayerPTAdjusting.
type SubLayered interface {
	SubLayer() SubLayer
}

// Dependent lets an effect declare a dependency the layer system cannot
// detect by itself, e.g. when another effect changes what it does.
type Dependent interface {
	DependsOn(other *Entry) bool
}

// Context is handed to effects while they are evaluated.
type Context struct {
	World World
	Entry *Entry

	objects map[string]*Snapshot
}

// Object returns the characteristics of id as computed so far in the
// current pass.
func (c *Context) Object(id string) (*Snapshot, bool) {
	s, ok := c.objects[id]
	return s, ok
}

// Source returns the current characteristics of the effect's source.
func (c *Context) Source() (*Snapshot, bool) {
	if c.Entry == nil {
		return nil, false
	}
	return c.Object(c.Entry.SourceID)
}

// Controller is the player "you" refers to: the current controller of a
// source on the battlefield, otherwise the controller recorded on the entry.
func (c *Context) Controller() string {
	if s, ok := c.Source(); ok && s.Zone == rules.ZoneBattlefield {
		return s.ControllerID
	}
	if c.Entry == nil {
		return ""
	}
	return c.Entry.Controller
}

// Effect is the ContinuousEffect used by card definitions: a filter choosing
// the affected objects plus a modification.
type Effect struct {
	name      string
	layer     Layer
	subLayer  SubLayer
	filter    Filter
	apply     func(s *Snapshot, ctx *Context)
	dependsOn func(other *Entry) bool
}

// NewEffect builds an effect from its parts.
func NewEffect(name string, layer Layer, filter Filter, apply func(*Snapshot, *Context)) *Effect {
	return &Effect{name: name, layer: layer, filter: filter, apply: apply}
}

// Name describes the effect for logs.
func (e *Effect) Name() string { return e.name }

// Layer implements ContinuousEffect.
func (e *Effect) Layer() Layer { return e.layer }

// SubLayer implements SubLayered.
func (e *Effect) SubLayer() SubLayer { return e.subLayer }

// AppliesTo implements ContinuousEffect.
func (e *Effect) AppliesTo(s *Snapshot, ctx *Context) bool {
	if s == nil {
		return false
	}
	return e.filter == nil || e.filter(s, ctx)
}

// Apply implements ContinuousEffect.
func (e *Effect) Apply(s *Snapshot, ctx *Context) {
	if s != nil && e.apply != nil {
		e.apply(s, ctx)
	}
}

// DependsOn implements Dependent.
func (e *Effect) DependsOn(other *Entry) bool {
	return e.dependsOn != nil && e.dependsOn(other)
}

// WithDependency declares an explicit dependency on entries matching fn.
func (e *Effect) WithDependency(fn func(other *Entry) bool) *Effect {
	e.dependsOn = fn
	return e
}

func (e *Effect) String() string { return e.name }

// CopyOf makes affected objects copies of original's copiable values.
func CopyOf(filter Filter, originalID string) *Effect {
	return NewEffect("copy "+originalID, LayerCopy, filter, func(s *Snapshot, ctx *Context) {
		orig, ok := ctx.World.BaseCharacteristics(originalID)
		if !ok {
			return
		}
		s.Name = orig.Name
		s.ManaCost = orig.ManaCost
		s.Text = orig.Text
		s.Types = orig.Types
		s.Subtypes = orig.Subtypes
		s.Supertypes = orig.Supertypes
		s.Colors = orig.Colors
		s.Abilities = orig.Abilities
		s.Power, s.Toughness, s.HasPT = orig.Power, orig.Toughness, orig.HasPT
	})
}

// GainControl gives control of affected objects to playerID.
func GainControl(filter Filter, playerID string) *Effect {
	return NewEffect("control "+playerID, LayerControl, filter, func(s *Snapshot, _ *Context) {
		s.ControllerID = playerID
	})
}

// ChangeText replaces one word with another in rules text and subtypes.
func ChangeText(filter Filter, from, to string) *Effect {
	return NewEffect("text "+from+"->"+to, LayerText, filter, func(s *Snapshot, _ *Context) {
		s.Text = strings.ReplaceAll(s.Text, from, to)
		for i, sub := range s.Subtypes {
			if strings.EqualFold(sub, from) {
				s.Subtypes[i] = to
			}
		}
	})
}

// AddTypes adds card types.
func AddTypes(filter Filter, types ...string) *Effect {
	return NewEffect("add types "+strings.Join(types, ","), LayerType, filter, func(s *Snapshot, _ *Context) {
		s.Types = addUnique(s.Types, types...)
	})
}

// AddSubtypes adds subtypes.
func AddSubtypes(filter Filter, subtypes ...string) *Effect {
	return NewEffect("add subtypes "+strings.Join(subtypes, ","), LayerType, filter, func(s *Snapshot, _ *Context) {
		s.Subtypes = addUnique(s.Subtypes, subtypes...)
	})
}

// RemoveTypes removes card types.
func RemoveTypes(filter Filter, types ...string) *Effect {
	return NewEffect("remove types "+strings.Join(types, ","), LayerType, filter, func(s *Snapshot, _ *Context) {
		for _, t := range types {
			s.Types = removeFold(s.Types, t)
		}
	})
}

// SetColors replaces the colors of affected objects.
func SetColors(filter Filter, colors ...string) *Effect {
	return NewEffect("colors "+strings.Join(colors, ","), LayerColor, filter, func(s *Snapshot, _ *Context) {
		s.Colors = append([]string(nil), colors...)
	})
}

// GrantAbilities adds abilities to affected objects.
func GrantAbilities(filter Filter, abilities ...string) *Effect {
	return NewEffect("grant "+strings.Join(abilities, ","), LayerAbility, filter, func(s *Snapshot, _ *Context) {
		s.Abilities = addUnique(s.Abilities, abilities...)
	})
}

// RemoveAllAbilities strips every ability from affected objects.
func RemoveAllAbilities(filter Filter) *Effect {
	return NewEffect("lose all abilities", LayerAbility, filter, func(s *Snapshot, _ *Context) {
		s.Abilities = nil
	})
}

// DefinePT is a characteristic-defining ability for power and toughness.
func DefinePT(filter Filter, fn func(s *Snapshot, ctx *Context) (int, int)) *Effect {
	return NewEffect("define p/t", LayerPTCharacteristicDefining, filter, func(s *Snapshot, ctx *Context) {
		s.Power, s.Toughness = fn(s, ctx)
		s.HasPT = true
	})
}

// SetPT sets base power and toughness.
func SetPT(filter Filter, power, toughness int) *Effect {
	e := NewEffect("set p/t", LayerPTAdjusting, filter, func(s *Snapshot, _ *Context) {
		s.Power, s.Toughness, s.HasPT = power, toughness, true
	})
	e.subLayer = SubLayerSetPT
	return e
}

// SetPTFunc sets base power and toughness to values computed per object,
// e.g. from its mana value.
func SetPTFunc(filter Filter, fn func(s *Snapshot, ctx *Context) (int, int)) *Effect {
	e := NewEffect("set p/t", LayerPTAdjusting, filter, func(s *Snapshot, ctx *Context) {
		s.Power, s.Toughness = fn(s, ctx)
		s.HasPT = true
	})
	e.subLayer = SubLayerSetPT
	return e
}

// ModifyPT adds to power and toughness.
func ModifyPT(filter Filter, power, toughness int) *Effect {
	e := NewEffect("modify p/t", LayerPTAdjusting, filter, func(s *Snapshot, _ *Context) {
		if !s.HasPT {
			return
		}
		s.Power += power
		s.Toughness += toughness
	})
	e.subLayer = SubLayerModifyPT
	return e
}

// SwitchPT swaps power and toughness.
func SwitchPT(filter Filter) *Effect {
	e := NewEffect("switch p/t", LayerPTAdjusting, filter, func(s *Snapshot, _ *Context) {
		s.Power, s.Toughness = s.Toughness, s.Power
	})
	e.subLayer = SubLayerSwitchPT
	return e
}

// Restrict adds a LayerOther restriction such as RestrictionCantAttack.
func Restrict(filter Filter, restriction string) *Effect {
	return NewEffect(restriction, LayerOther, filter, func(s *Snapshot, _ *Context) {
		s.Restrictions = addUnique(s.Restrictions, restriction)
	})
}

// BecomesCreature returns the type and p/t effects of "becomes an N/N
// creature"; add them with LayerSystem.AddGroup so they start together.
func BecomesCreature(filter Filter, power, toughness int, subtypes ...string) []ContinuousEffect {
	effects := []ContinuousEffect{AddTypes(filter, "Creature")}
	if len(subtypes) > 0 {
		effects = append(effects, AddSubtypes(filter, subtypes...))
	}
	return append(effects, SetPT(filter, power, toughness))
}

// BecomesOnlyCreature is BecomesCreature for objects that lose their
// previous card types and subtypes. Supertypes are kept.
func BecomesOnlyCreature(filter Filter, power, toughness int, subtypes ...string) []ContinuousEffect {
	name := "set types Creature"
	if len(subtypes) > 0 {
		name += " " + strings.Join(subtypes, ",")
	}
	setTypes := NewEffect(name, LayerType, filter, func(s *Snapshot, _ *Context) {
		s.Types = []string{"Creature"}
		s.Subtypes = slices.Clone(subtypes)
	})
	return []ContinuousEffect{setTypes, SetPT(filter, power, toughness)}
}

func subLayerOf(effect ContinuousEffect) SubLayer {
	if effect.Layer() != LayerPTAdjusting {
		return SubLayerNone
	}
	if sl, ok := effect.(SubLayered); ok && sl.SubLayer() != SubLayerNone {
		return sl.SubLayer()
	}
	return SubLayerModifyPT
}
