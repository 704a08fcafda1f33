package sets

import (
	"github.com/magefree/mage-rules-go/internal/game"
	"github.com/magefree/mage-rules-go/internal/game/effects"
	"github.com/magefree/mage-rules-go/internal/game/mana"
	"github.com/magefree/mage-rules-go/internal/game/rules"
	"github.com/magefree/mage-rules-go/internal/game/targeting"
)

func basicLand(name string, produces mana.ManaType, symbol string) *game.CardDefinition {
	return &game.CardDefinition{
		Name:       name,
		Types:      []string{"Land"},
		Supertypes: []string{"Basic"},
		Subtypes:   []string{name},
		Text:       "{T}: Add " + symbol + ".",
		Abilities: []game.Ability{
			&game.ManaAbility{Name: "{T}: Add " + symbol, Produces: produces, Amount: 1},
		},
	}
}

// ManaAbilityName returns the name of the mana ability of the basic land
// with the given name.
func ManaAbilityName(land string) string {
	switch land {
	case "Forest":
		return "{T}: Add {G}"
	case "Island":
		return "{T}: Add {U}"
	case "Mountain":
		return "{T}: Add {R}"
	case "Plains":
		return "{T}: Add {W}"
	}
	return ""
}

func Forest() *game.CardDefinition   { return basicLand("Forest", mana.ManaGreen, "{G}") }
func Island() *game.CardDefinition   { return basicLand("Island", mana.ManaBlue, "{U}") }
func Mountain() *game.CardDefinition { return basicLand("Mountain", mana.ManaRed, "{R}") }
func Plains() *game.CardDefinition   { return basicLand("Plains", mana.ManaWhite, "{W}") }

// GrizzlyBears is a vanilla 2/2.
func GrizzlyBears() *game.CardDefinition {
	return &game.CardDefinition{
		Name:      "Grizzly Bears",
		ManaCost:  "{1}{G}",
		Types:     []string{"Creature"},
		Subtypes:  []string{"Bear"},
		Power:     2,
		Toughness: 2,
	}
}

func burn(name string, amount int) *game.CardDefinition {
	return &game.CardDefinition{
		Name:     name,
		ManaCost: "{R}",
		Types:    []string{"Instant"},
		Spell: &game.SpellAbility{
			Targets: []targeting.TargetRequirement{targeting.Single(targeting.TargetTypeAny, "any target")},
			Effects: []game.Effect{game.DamageTargets(amount)},
		},
	}
}

// LightningBolt deals 3 damage to any target.
func LightningBolt() *game.CardDefinition {
	def := burn("Lightning Bolt", 3)
	def.Text = "Lightning Bolt deals 3 damage to any target."
	return def
}

// Shock deals 2 damage to any target.
func Shock() *game.CardDefinition {
	def := burn("Shock", 2)
	def.Text = "Shock deals 2 damage to any target."
	return def
}

// GiantGrowth gives target creature +3/+3 until end of turn.
func GiantGrowth() *game.CardDefinition {
	return &game.CardDefinition{
		Name:     "Giant Growth",
		ManaCost: "{G}",
		Types:    []string{"Instant"},
		Text:     "Target creature gets +3/+3 until end of turn.",
		Spell: &game.SpellAbility{
			Targets: []targeting.TargetRequirement{targeting.Single(targeting.TargetTypeCreature, "target creature")},
			Effects: []game.Effect{game.PumpTargets(3, 3)},
		},
	}
}

// Divination draws two cards.
func Divination() *game.CardDefinition {
	return &game.CardDefinition{
		Name:     "Divination",
		ManaCost: "{2}{U}",
		Types:    []string{"Sorcery"},
		Text:     "Draw two cards.",
		Spell:    &game.SpellAbility{Effects: []game.Effect{game.ControllerDraws(2)}},
	}
}

// Cancel counters target spell.
func Cancel() *game.CardDefinition {
	return &game.CardDefinition{
		Name:     "Cancel",
		ManaCost: "{1}{U}{U}",
		Types:    []string{"Instant"},
		Text:     "Counter target spell.",
		Spell: &game.SpellAbility{
			Targets: []targeting.TargetRequirement{targeting.Single(targeting.TargetTypeSpell, "target spell")},
			Effects: []game.Effect{game.CounterTargets()},
		},
	}
}

// GloriousAnthem is the usual anthem.
func GloriousAnthem() *game.CardDefinition {
	return &game.CardDefinition{
		Name:     "Glorious Anthem",
		ManaCost: "{1}{W}{W}",
		Types:    []string{"Enchantment"},
		Text:     "Creatures you control get +1/+1.",
		Abilities: []game.Ability{
			&game.StaticAbility{
				Name: "Creatures you control get +1/+1.",
				Continuous: func(*game.Object) []effects.ContinuousEffect {
					return []effects.ContinuousEffect{effects.ModifyPT(effects.CreaturesYouControl(), 1, 1)}
				},
			},
		},
	}
}

// Pacifism stops the enchanted creature from attacking or blocking.
func Pacifism() *game.CardDefinition {
	return &game.CardDefinition{
		Name:     "Pacifism",
		ManaCost: "{1}{W}",
		Types:    []string{"Enchantment"},
		Subtypes: []string{"Aura"},
		Text:     "Enchant creature\nEnchanted creature can't attack or block.",
		Spell: &game.SpellAbility{
			Targets: []targeting.TargetRequirement{targeting.Single(targeting.TargetTypeCreature, "target creature")},
		},
		Enchant: (*effects.Snapshot).IsCreature,
		Abilities: []game.Ability{
			&game.StaticAbility{
				Name: "Enchanted creature can't attack or block.",
				Continuous: func(*game.Object) []effects.ContinuousEffect {
					return []effects.ContinuousEffect{
						effects.Restrict(effects.AttachedToSource(), effects.RestrictionCantAttack),
						effects.Restrict(effects.AttachedToSource(), effects.RestrictionCantBlock),
					}
				},
			},
		},
	}
}

// Opalescence turns the other non-Aura enchantments into creatures with
// power and toughness equal to their mana value.
func Opalescence() *game.CardDefinition {
	affected := effects.All(effects.OnBattlefield(), effects.Type("Enchantment"), effects.Not(effects.Subtype("Aura")), effects.Other())
	return &game.CardDefinition{
		Name:     "Opalescence",
		ManaCost: "{2}{W}{W}",
		Types:    []string{"Enchantment"},
		Text: "Each other non-Aura enchantment is a creature in addition to its other types " +
			"and has base power and base toughness each equal to its mana value.",
		Abilities: []game.Ability{
			&game.StaticAbility{
				Name: "Each other non-Aura enchantment is a creature.",
				Continuous: func(*game.Object) []effects.ContinuousEffect {
					return []effects.ContinuousEffect{
						effects.AddTypes(affected, "Creature"),
						effects.SetPTFunc(affected, func(s *effects.Snapshot, _ *effects.Context) (int, int) {
							cost, err := mana.ParseCost(s.ManaCost)
							if err != nil {
								return 0, 0
							}
							mv := cost.ManaValue(0)
							return mv, mv
						}),
					}
				},
			},
		},
	}
}

// Humility makes every creature a 1/1 without abilities.
func Humility() *game.CardDefinition {
	return &game.CardDefinition{
		Name:     "Humility",
		ManaCost: "{2}{W}{W}",
		Types:    []string{"Enchantment"},
		Text:     "All creatures lose all abilities and have base power and toughness 1/1.",
		Abilities: []game.Ability{
			&game.StaticAbility{
				Name: "All creatures lose all abilities and are 1/1.",
				Continuous: func(*game.Object) []effects.ContinuousEffect {
					return []effects.ContinuousEffect{
						effects.RemoveAllAbilities(effects.Creatures()),
						effects.SetPT(effects.Creatures(), 1, 1),
					}
				},
			},
		},
	}
}

// PyromancerAbility is the activated ability of Prodigal Pyromancer.
const PyromancerAbility = "{T}: deal 1 damage to any target"

// ProdigalPyromancer taps to deal 1 damage.
func ProdigalPyromancer() *game.CardDefinition {
	return &game.CardDefinition{
		Name:      "Prodigal Pyromancer",
		ManaCost:  "{2}{R}",
		Types:     []string{"Creature"},
		Subtypes:  []string{"Human", "Wizard"},
		Text:      "{T}: Prodigal Pyromancer deals 1 damage to any target.",
		Power:     1,
		Toughness: 1,
		Abilities: []game.Ability{
			&game.ActivatedAbility{
				Name:    PyromancerAbility,
				Tap:     true,
				Targets: []targeting.TargetRequirement{targeting.Single(targeting.TargetTypeAny, "any target")},
				Effects: []game.Effect{game.DamageTargets(1)},
			},
		},
	}
}

// SoulWarden gains its controller 1 life whenever another creature enters.
func SoulWarden() *game.CardDefinition {
	return &game.CardDefinition{
		Name:      "Soul Warden",
		ManaCost:  "{W}",
		Types:     []string{"Creature"},
		Subtypes:  []string{"Human", "Cleric"},
		Text:      "Whenever another creature enters the battlefield, you gain 1 life.",
		Power:     1,
		Toughness: 1,
		Abilities: []game.Ability{
			&game.TriggeredAbility{
				Name:  "Whenever another creature enters, you gain 1 life.",
				Event: rules.EventEntersBattlefield,
				Condition: func(g *game.Game, src *effects.Snapshot, event rules.Event) bool {
					if event.TargetID == src.ObjectID {
						return false
					}
					entered, ok := g.Permanent(event.TargetID)
					return ok && entered.IsCreature()
				},
				Effects: []game.Effect{game.ControllerGainsLife(1)},
			},
		},
	}
}

// SanctuaryWard prevents all damage that would be dealt to the enchanted
// creature.
func SanctuaryWard() *game.CardDefinition {
	return &game.CardDefinition{
		Name:     "Sanctuary Ward",
		ManaCost: "{W}",
		Types:    []string{"Enchantment"},
		Subtypes: []string{"Aura"},
		Text:     "Enchant creature\nPrevent all damage that would be dealt to enchanted creature.",
		Spell: &game.SpellAbility{
			Targets: []targeting.TargetRequirement{targeting.Single(targeting.TargetTypeCreature, "target creature")},
		},
		Enchant: (*effects.Snapshot).IsCreature,
		Abilities: []game.Ability{
			&game.StaticAbility{
				Name: "Prevent all damage to enchanted creature.",
				Replacement: func(g *game.Game, src *game.Object) []effects.ReplacementEffect {
					return []effects.ReplacementEffect{&preventToEnchanted{
						BasePreventionEffect: effects.NewBasePreventionEffect(src.ID, effects.DurationWhileOnBattlefield, 0),
						g:                    g,
					}}
				},
			},
		},
	}
}

// preventToEnchanted follows the aura, so it keeps working when the aura
// moves to another creature.
type preventToEnchanted struct {
	*effects.BasePreventionEffect
	g *game.Game
}

func (e *preventToEnchanted) ChecksEventType(eventType rules.EventType) bool {
	return eventType == rules.EventDamagePermanent
}

func (e *preventToEnchanted) Applies(event rules.Event) bool {
	if event.Amount <= 0 {
		return false
	}
	enchanted := e.g.AttachedTo(e.SourceID())
	return enchanted != "" && event.TargetID == enchanted
}

func (e *preventToEnchanted) ReplaceEvent(event rules.Event) (rules.Event, bool) {
	event.Amount = 0
	return event, true
}
