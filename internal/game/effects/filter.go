package effects

import (
	"slices"

	"github.com/magefree/mage-rules-go/internal/game/rules"
)

// Filter selects the objects a continuous effect applies to. It is evaluated
// against the characteristics computed up to the effect's layer.
type Filter func(s *Snapshot, ctx *Context) bool

// All matches when every filter matches.
func All(filters ...Filter) Filter {
	return func(s *Snapshot, ctx *Context) bool {
		for _, f := range filters {
			if f != nil && !f(s, ctx) {
				return false
			}
		}
		return true
	}
}

// AnyOf matches when at least one filter matches.
func AnyOf(filters ...Filter) Filter {
	return func(s *Snapshot, ctx *Context) bool {
		for _, f := range filters {
			if f != nil && f(s, ctx) {
				return true
			}
		}
		return false
	}
}

// Not inverts f.
func Not(f Filter) Filter {
	return func(s *Snapshot, ctx *Context) bool { return !f(s, ctx) }
}

// Objects matches a fixed set of objects, used for effects whose affected
// set was locked in on resolution.
func Objects(ids ...string) Filter {
	locked := slices.Clone(ids)
	return func(s *Snapshot, _ *Context) bool { return slices.Contains(locked, s.ObjectID) }
}

// Self matches the effect's source.
func Self() Filter {
	return func(s *Snapshot, ctx *Context) bool { return ctx.Entry != nil && s.ObjectID == ctx.Entry.SourceID }
}

// Other matches everything but the effect's source.
func Other() Filter {
	return Not(Self())
}

// OnBattlefield matches permanents.
func OnBattlefield() Filter {
	return func(s *Snapshot, _ *Context) bool { return s.Zone == rules.ZoneBattlefield }
}

// Type matches a card type.
func Type(cardType string) Filter {
	return func(s *Snapshot, _ *Context) bool { return s.HasType(cardType) }
}

// Subtype matches a subtype.
func Subtype(subtype string) Filter {
	return func(s *Snapshot, _ *Context) bool { return s.HasSubtype(subtype) }
}

// Color matches a color.
func Color(color string) Filter {
	return func(s *Snapshot, _ *Context) bool { return s.HasColor(color) }
}

// ControlledByYou matches objects controlled by the effect's controller.
func ControlledByYou() Filter {
	return func(s *Snapshot, ctx *Context) bool { return s.ControllerID == ctx.Controller() }
}

// ControlledByOpponent matches objects not controlled by the effect's
// controller.
func ControlledByOpponent() Filter {
	return func(s *Snapshot, ctx *Context) bool { return s.ControllerID != ctx.Controller() }
}

// AttachedToSource matches the object the source is attached to.
func AttachedToSource() Filter {
	return func(s *Snapshot, ctx *Context) bool {
		if ctx.Entry == nil || ctx.World == nil {
			return false
		}
		target := ctx.World.AttachedTo(ctx.Entry.SourceID)
		return target != "" && s.ObjectID == target
	}
}

// Creatures matches creatures on the battlefield.
func Creatures() Filter {
	return All(OnBattlefield(), Type("Creature"))
}

// CreaturesYouControl is the usual anthem filter.
func CreaturesYouControl() Filter {
	return All(Creatures(), ControlledByYou())
}
