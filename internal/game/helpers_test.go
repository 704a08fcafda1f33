package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/magefree/mage-rules-go/internal/config"
	"github.com/magefree/mage-rules-go/internal/game/effects"
	"github.com/magefree/mage-rules-go/internal/game/mana"
	"github.com/magefree/mage-rules-go/internal/game/rules"
	"github.com/magefree/mage-rules-go/internal/game/targeting"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Engine.Seed = 42
	cfg.Engine.StartingHandSize = 0
	cfg.Engine.DecisionTimeout = 2 * time.Second
	return cfg
}

func newTestGame(t *testing.T, seats ...Seat) *Game {
	t.Helper()
	return newTestGameWithConfig(t, testConfig(), seats...)
}

func newTestGameWithConfig(t *testing.T, cfg *config.Config, seats ...Seat) *Game {
	t.Helper()
	g, err := NewGame("test-game", cfg, zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel)), seats)
	require.NoError(t, err)
	return g
}

func onBattlefield(t *testing.T, g *Game, playerID string, def *CardDefinition) string {
	t.Helper()
	obj, err := g.PutCardOnBattlefield(playerID, def)
	require.NoError(t, err)
	return obj.ID
}

func inHand(t *testing.T, g *Game, playerID string, def *CardDefinition) string {
	t.Helper()
	obj, err := g.PutCardInHand(playerID, def)
	require.NoError(t, err)
	return obj.ID
}

func runTurns(t *testing.T, g *Game, n int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, g.RunTurns(ctx, n))
}

func lifeOf(t *testing.T, g *Game, playerID string) int {
	t.Helper()
	p, ok := g.Player(playerID)
	require.True(t, ok)
	return p.Life
}

// names resolves object ids to card names.
func names(g *Game, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if obj, ok := g.objects[id]; ok {
			out = append(out, obj.Name())
		}
	}
	return out
}

func graveyardNames(t *testing.T, g *Game, playerID string) []string {
	t.Helper()
	p, ok := g.Player(playerID)
	require.True(t, ok)
	return names(g, p.Graveyard.IDs())
}

// eventLog records every event published on a game's bus.
type eventLog struct {
	mu     sync.Mutex
	events []rules.Event
}

func recordEvents(g *Game) *eventLog {
	log := &eventLog{}
	g.Bus().Subscribe(func(e rules.Event) {
		log.mu.Lock()
		defer log.mu.Unlock()
		log.events = append(log.events, e)
	})
	return log
}

func (l *eventLog) ofType(eventType rules.EventType) []rules.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []rules.Event
	for _, e := range l.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// Cards used by the tests in this package.

func testMountain() *CardDefinition {
	return &CardDefinition{
		Name:      "Mountain",
		Types:     []string{"Land"},
		Abilities: []Ability{&ManaAbility{Name: "{T}: Add {R}", Produces: mana.ManaRed, Amount: 1}},
	}
}

func testForest() *CardDefinition {
	return &CardDefinition{
		Name:      "Forest",
		Types:     []string{"Land"},
		Abilities: []Ability{&ManaAbility{Name: "{T}: Add {G}", Produces: mana.ManaGreen, Amount: 1}},
	}
}

func testIsland() *CardDefinition {
	return &CardDefinition{
		Name:      "Island",
		Types:     []string{"Land"},
		Abilities: []Ability{&ManaAbility{Name: "{T}: Add {U}", Produces: mana.ManaBlue, Amount: 1}},
	}
}

func testBear() *CardDefinition {
	return &CardDefinition{
		Name:      "Bear",
		ManaCost:  "{1}{G}",
		Types:     []string{"Creature"},
		Subtypes:  []string{"Bear"},
		Power:     2,
		Toughness: 2,
	}
}

func testBurn(name string, amount int) *CardDefinition {
	return &CardDefinition{
		Name:     name,
		ManaCost: "{R}",
		Types:    []string{"Instant"},
		Spell: &SpellAbility{
			Targets: []targeting.TargetRequirement{targeting.Single(targeting.TargetTypeAny, "any target")},
			Effects: []Effect{DamageTargets(amount)},
		},
	}
}

func testCounterspell() *CardDefinition {
	return &CardDefinition{
		Name:     "Quick Denial",
		ManaCost: "{U}",
		Types:    []string{"Instant"},
		Spell: &SpellAbility{
			Targets: []targeting.TargetRequirement{targeting.Single(targeting.TargetTypeSpell, "target spell")},
			Effects: []Effect{CounterTargets()},
		},
	}
}

func testSorcery() *CardDefinition {
	return &CardDefinition{
		Name:     "Study",
		ManaCost: "{G}",
		Types:    []string{"Sorcery"},
		Spell:    &SpellAbility{Effects: []Effect{ControllerGainsLife(2)}},
	}
}

func testAnthem() *CardDefinition {
	return &CardDefinition{
		Name:     "Anthem",
		ManaCost: "{1}{W}{W}",
		Types:    []string{"Enchantment"},
		Abilities: []Ability{&StaticAbility{
			Name: "Creatures you control get +1/+1.",
			Continuous: func(*Object) []effects.ContinuousEffect {
				return []effects.ContinuousEffect{effects.ModifyPT(effects.CreaturesYouControl(), 1, 1)}
			},
		}},
	}
}

func testShrink() *CardDefinition {
	return &CardDefinition{
		Name:     "Shrink",
		ManaCost: "{2}{W}",
		Types:    []string{"Enchantment"},
		Abilities: []Ability{&StaticAbility{
			Name: "Creatures have base power and toughness 1/1.",
			Continuous: func(*Object) []effects.ContinuousEffect {
				return []effects.ContinuousEffect{effects.SetPT(effects.Creatures(), 1, 1)}
			},
		}},
	}
}

// testWarden gains its controller 1 life whenever another creature enters.
func testWarden(name string) *CardDefinition {
	return &CardDefinition{
		Name:      name,
		ManaCost:  "{W}",
		Types:     []string{"Creature"},
		Power:     1,
		Toughness: 1,
		Abilities: []Ability{&TriggeredAbility{
			Name:  name + ": gain 1 life",
			Event: rules.EventEntersBattlefield,
			Condition: func(g *Game, src *effects.Snapshot, event rules.Event) bool {
				entered, ok := g.Permanent(event.TargetID)
				return ok && event.TargetID != src.ObjectID && entered.IsCreature()
			},
			Effects: []Effect{ControllerGainsLife(1)},
		}},
	}
}

func testAura() *CardDefinition {
	return &CardDefinition{
		Name:     "Aura",
		ManaCost: "{W}",
		Types:    []string{"Enchantment"},
		Subtypes: []string{"Aura"},
		Spell: &SpellAbility{
			Targets: []targeting.TargetRequirement{targeting.Single(targeting.TargetTypeCreature, "target creature")},
		},
		Enchant: (*effects.Snapshot).IsCreature,
	}
}

func testLibrary(n int) []*CardDefinition {
	deck := make([]*CardDefinition, 0, n)
	for range n {
		deck = append(deck, testBear())
	}
	return deck
}
