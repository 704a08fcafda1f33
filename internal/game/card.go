package game

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/magefree/mage-rules-go/internal/game/effects"
	"github.com/magefree/mage-rules-go/internal/game/mana"
	"github.com/magefree/mage-rules-go/internal/game/rules"
	"github.com/magefree/mage-rules-go/internal/game/targeting"
)

// AbilityKind defines the category of ability
type AbilityKind string

const (
	AbilityKindStatic    AbilityKind = "static"
	AbilityKindTriggered AbilityKind = "triggered"
	AbilityKindActivated AbilityKind = "activated"
	AbilityKindMana      AbilityKind = "mana"
)

// Ability is one ability printed on a card definition. The name is what
// appears in an object's ability list, so effects that remove abilities
// also switch the ability off.
type Ability interface {
	Kind() AbilityKind
	AbilityName() string
}

// Effect is a one-shot effect applied while a spell or ability resolves.
// Effects may ask players for decisions through the Resolution.
type Effect interface {
	Apply(ctx context.Context, r *Resolution) error
}

// EffectFunc adapts a function to Effect.
type EffectFunc func(ctx context.Context, r *Resolution) error

// Apply implements Effect.
func (f EffectFunc) Apply(ctx context.Context, r *Resolution) error { return f(ctx, r) }

// SpellAbility is what an instant or sorcery does on resolution. Permanent
// spells only need one to target something, e.g. the object an Aura
// enchants.
type SpellAbility struct {
	Targets []targeting.TargetRequirement
	Effects []Effect
}

// StaticAbility generates continuous effects while its object is on the
// battlefield.
type StaticAbility struct {
	Name          string
	Continuous    func(src *Object) []effects.ContinuousEffect
	Replacement   func(g *Game, src *Object) []effects.ReplacementEffect
	CostModifiers func(src *Object) []effects.CostModifier
}

func (a *StaticAbility) Kind() AbilityKind   { return AbilityKindStatic }
func (a *StaticAbility) AbilityName() string { return a.Name }

// TriggeredAbility triggers on events while its object is on the
// battlefield, or from last known information for abilities that trigger
// on leaving it.
type TriggeredAbility struct {
	Name  string
	Event rules.EventType
	// Condition selects the events of type Event that trigger the ability.
	// src holds the source's current characteristics.
	Condition func(g *Game, src *effects.Snapshot, event rules.Event) bool
	// InterveningIf is checked when the event happens and again on
	// resolution.
	InterveningIf func(g *Game, sourceID string) bool
	// Optional abilities ask their controller on resolution.
	Optional          bool
	LeavesBattlefield bool
	Targets           []targeting.TargetRequirement
	Effects           []Effect
}

func (a *TriggeredAbility) Kind() AbilityKind   { return AbilityKindTriggered }
func (a *TriggeredAbility) AbilityName() string { return a.Name }

// ActivatedAbility is activated by paying its cost while holding priority.
type ActivatedAbility struct {
	Name         string
	Cost         string
	Tap          bool
	SorcerySpeed bool
	Targets      []targeting.TargetRequirement
	Effects      []Effect
}

func (a *ActivatedAbility) Kind() AbilityKind   { return AbilityKindActivated }
func (a *ActivatedAbility) AbilityName() string { return a.Name }

// ManaAbility taps its object for mana. It resolves immediately.
type ManaAbility struct {
	Name     string
	Produces mana.ManaType
	Amount   int
}

func (a *ManaAbility) Kind() AbilityKind   { return AbilityKindMana }
func (a *ManaAbility) AbilityName() string { return a.Name }

// CardDefinition is everything the engine knows about a card. Card-specific
// behavior only reaches the engine through the abilities listed here.
type CardDefinition struct {
	Name       string
	ManaCost   string
	Types      []string
	Subtypes   []string
	Supertypes []string
	// Colors defaults to the colors of the mana cost.
	Colors    []string
	Text      string
	Power     int
	Toughness int
	Loyalty   int
	Keywords  []string
	Spell     *SpellAbility
	Abilities []Ability
	// Enchant restricts what an Aura may be attached to.
	Enchant func(s *effects.Snapshot) bool
}

var colorNames = map[mana.ManaType]string{
	mana.ManaWhite: "White",
	mana.ManaBlue:  "Blue",
	mana.ManaBlack: "Black",
	mana.ManaRed:   "Red",
	mana.ManaGreen: "Green",
}

// Validate checks that the definition can be used to create objects.
func (d *CardDefinition) Validate() error {
	if d == nil {
		return errors.New("card definition is nil")
	}
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("card definition has no name")
	}
	if len(d.Types) == 0 {
		return fmt.Errorf("card %s has no card type", d.Name)
	}
	if _, err := mana.ParseCost(d.ManaCost); err != nil {
		return fmt.Errorf("card %s: %w", d.Name, err)
	}
	seen := make(map[string]bool, len(d.Abilities))
	for _, a := range d.Abilities {
		if a == nil || a.AbilityName() == "" {
			return fmt.Errorf("card %s has an unnamed ability", d.Name)
		}
		if seen[a.AbilityName()] {
			return fmt.Errorf("card %s has two abilities named %s", d.Name, a.AbilityName())
		}
		seen[a.AbilityName()] = true
	}
	return nil
}

// HasType reports whether the printed card has cardType.
func (d *CardDefinition) HasType(cardType string) bool {
	return slices.ContainsFunc(d.Types, func(t string) bool { return strings.EqualFold(t, cardType) })
}

// HasSubtype reports whether the printed card has subtype.
func (d *CardDefinition) HasSubtype(subtype string) bool {
	return slices.ContainsFunc(d.Subtypes, func(t string) bool { return strings.EqualFold(t, subtype) })
}

// IsPermanentCard reports whether the card resolves onto the battlefield.
func (d *CardDefinition) IsPermanentCard() bool {
	return !d.HasType("Instant") && !d.HasType("Sorcery")
}

// Cost returns the parsed mana cost.
func (d *CardDefinition) Cost() *mana.ManaCost {
	cost, err := mana.ParseCost(d.ManaCost)
	if err != nil {
		return &mana.ManaCost{}
	}
	return cost
}

func (d *CardDefinition) colors() []string {
	if len(d.Colors) > 0 {
		return slices.Clone(d.Colors)
	}
	var out []string
	for _, mt := range d.Cost().Colors() {
		out = append(out, colorNames[mt])
	}
	return out
}

// abilityNames lists keywords followed by ability names, in print order.
func (d *CardDefinition) abilityNames() []string {
	names := slices.Clone(d.Keywords)
	for _, a := range d.Abilities {
		names = append(names, a.AbilityName())
	}
	return names
}

// Ability returns the ability with the given name.
func (d *CardDefinition) Ability(name string) (Ability, bool) {
	for _, a := range d.Abilities {
		if a.AbilityName() == name {
			return a, true
		}
	}
	return nil, false
}

func abilitiesOf[T Ability](d *CardDefinition) []T {
	var out []T
	for _, a := range d.Abilities {
		if typed, ok := a.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}
