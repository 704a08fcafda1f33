package sets_test

import (
	"context"
	"testing"
	"time"

	"github.com/magefree/mage-rules-go/internal/config"
	"github.com/magefree/mage-rules-go/internal/game"
	"github.com/magefree/mage-rules-go/internal/game/effects"
	"github.com/magefree/mage-rules-go/internal/game/rules"
	"github.com/magefree/mage-rules-go/internal/game/sets"
	"github.com/magefree/mage-rules-go/internal/game/targeting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func newGame(t *testing.T, alice, bob game.DecisionProvider) *game.Game {
	t.Helper()
	cfg := config.Default()
	cfg.Engine.Seed = 1
	cfg.Engine.StartingHandSize = 0
	cfg.Engine.DecisionTimeout = 2 * time.Second
	g, err := game.NewGame("scenario", cfg, zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel)), []game.Seat{
		{PlayerID: "alice", Provider: alice},
		{PlayerID: "bob", Provider: bob},
	})
	require.NoError(t, err)
	return g
}

func put(t *testing.T, g *game.Game, playerID string, def *game.CardDefinition) string {
	t.Helper()
	obj, err := g.PutCardOnBattlefield(playerID, def)
	require.NoError(t, err)
	return obj.ID
}

func hand(t *testing.T, g *game.Game, playerID string, def *game.CardDefinition) string {
	t.Helper()
	obj, err := g.PutCardInHand(playerID, def)
	require.NoError(t, err)
	return obj.ID
}

func library(t *testing.T, g *game.Game, playerID string, n int) {
	t.Helper()
	for range n {
		_, err := g.PutCardInLibrary(playerID, sets.GrizzlyBears())
		require.NoError(t, err)
	}
}

func playFirstTurn(t *testing.T, g *game.Game) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, g.RunTurns(ctx, 1))
}

func player(t *testing.T, g *game.Game, id string) *game.Player {
	t.Helper()
	p, ok := g.Player(id)
	require.True(t, ok)
	return p
}

func graveyard(t *testing.T, g *game.Game, playerID string) []string {
	t.Helper()
	var out []string
	for _, id := range player(t, g, playerID).Graveyard.IDs() {
		obj, ok := g.Object(id)
		require.True(t, ok)
		out = append(out, obj.Name())
	}
	return out
}

func permanentNamed(t *testing.T, g *game.Game, name string) *effects.Snapshot {
	t.Helper()
	found := g.PermanentsMatching(func(s *effects.Snapshot) bool { return s.Name == name })
	require.Len(t, found, 1, name)
	return found[0]
}

// counterTop casts spellID at the top of the stack once something is there.
func counterTop(spellID string) func(game.PriorityView) (game.Action, bool) {
	return func(view game.PriorityView) (game.Action, bool) {
		if len(view.Stack) == 0 {
			return game.Action{}, false
		}
		return game.Cast(spellID, view.Stack[len(view.Stack)-1].ID), true
	}
}

const wreckAbility = "{T}: Destroy target land"

func landWrecker() *game.CardDefinition {
	return &game.CardDefinition{
		Name:      "Land Wrecker",
		ManaCost:  "{2}{R}",
		Types:     []string{"Creature"},
		Power:     1,
		Toughness: 1,
		Abilities: []game.Ability{
			&game.ActivatedAbility{
				Name:    wreckAbility,
				Tap:     true,
				Targets: []targeting.TargetRequirement{targeting.Single(targeting.TargetTypeLand, "target land")},
				Effects: []game.Effect{game.DestroyTargets()},
			},
		},
	}
}

func TestTeferisResponseCountersAbilityAndDestroysSource(t *testing.T) {
	alice := game.NewScriptedPlayer()
	bob := game.NewScriptedPlayer()
	g := newGame(t, alice, bob)
	put(t, g, "alice", sets.Island())
	put(t, g, "alice", sets.Island())
	forest := put(t, g, "alice", sets.Forest())
	wrecker := put(t, g, "bob", landWrecker())
	response := hand(t, g, "alice", sets.TeferisResponse())
	library(t, g, "alice", 2)

	bob.At(1, rules.StepUpkeep, game.Activate(wrecker, wreckAbility, forest))
	alice.AtFunc(1, rules.StepUpkeep, counterTop(response))
	var countered []rules.Event
	g.Bus().SubscribeTyped(rules.EventCountered, func(e rules.Event) { countered = append(countered, e) })

	playFirstTurn(t, g)

	assert.True(t, g.IsOnBattlefield(forest))
	assert.False(t, g.IsOnBattlefield(wrecker))
	assert.Equal(t, []string{"Land Wrecker"}, graveyard(t, g, "bob"))
	assert.Equal(t, []string{"Teferi's Response"}, graveyard(t, g, "alice"))
	assert.Equal(t, 2, player(t, g, "alice").Hand.Len())
	assert.Len(t, countered, 1)
	assert.Zero(t, alice.Remaining())
	assert.Zero(t, bob.Remaining())
}

func TestTeferisResponseNeedsAnOpponentTargetingYourLand(t *testing.T) {
	alice := game.NewScriptedPlayer()
	g := newGame(t, alice, nil)
	put(t, g, "alice", sets.Island())
	put(t, g, "alice", sets.Island())
	put(t, g, "alice", sets.Mountain())
	bolt := hand(t, g, "alice", sets.LightningBolt())
	response := hand(t, g, "alice", sets.TeferisResponse())

	// A spell of your own aimed at a player is never a legal target.
	alice.
		At(1, rules.StepMain1, game.Cast(bolt, "bob")).
		AtFunc(1, rules.StepMain1, counterTop(response))

	playFirstTurn(t, g)

	assert.Equal(t, 17, player(t, g, "bob").Life)
	assert.Contains(t, player(t, g, "alice").Hand.IDs(), response)
}

func TestRhysticScryingDiscardsWhenAnOpponentPays(t *testing.T) {
	tests := []struct {
		name        string
		pays        bool
		handAfter   int
		bobUntapped bool
	}{
		{"OpponentPays", true, 0, false},
		{"OpponentDeclines", false, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alice := game.NewScriptedPlayer()
			bob := game.NewScriptedPlayer().WithUse(tt.pays).WithPayment(tt.pays)
			g := newGame(t, alice, bob)
			for range 4 {
				put(t, g, "alice", sets.Island())
			}
			m1 := put(t, g, "bob", sets.Mountain())
			m2 := put(t, g, "bob", sets.Mountain())
			scrying := hand(t, g, "alice", sets.RhysticScrying())
			library(t, g, "alice", 3)
			alice.At(1, rules.StepMain1, game.Cast(scrying))

			playFirstTurn(t, g)

			assert.Equal(t, tt.handAfter, player(t, g, "alice").Hand.Len())
			assert.Len(t, graveyard(t, g, "alice"), 1+3-tt.handAfter)
			for _, id := range []string{m1, m2} {
				obj, ok := g.Object(id)
				require.True(t, ok)
				assert.Equal(t, !tt.bobUntapped, obj.Tapped)
			}
		})
	}
}

func TestHiddenAncientsBecomesCreature(t *testing.T) {
	alice := game.NewScriptedPlayer()
	g := newGame(t, alice, nil)
	put(t, g, "alice", sets.Plains())
	put(t, g, "alice", sets.Plains())
	bear := put(t, g, "bob", sets.GrizzlyBears())
	ancients := put(t, g, "bob", sets.HiddenAncients())
	pacifism := hand(t, g, "alice", sets.Pacifism())
	alice.At(1, rules.StepMain1, game.Cast(pacifism, bear))

	s, err := g.Characteristics(ancients)
	require.NoError(t, err)
	require.False(t, s.IsCreature())

	playFirstTurn(t, g)

	s, err = g.Characteristics(ancients)
	require.NoError(t, err)
	assert.True(t, s.IsCreature())
	assert.False(t, s.HasType("Enchantment"))
	assert.Equal(t, []string{"Creature"}, s.Types)
	assert.Equal(t, []string{"Treefolk"}, s.Subtypes)
	assert.Equal(t, 5, s.Power)
	assert.Equal(t, 5, s.Toughness)

	enchanted, err := g.Characteristics(bear)
	require.NoError(t, err)
	assert.True(t, enchanted.HasRestriction(effects.RestrictionCantAttack))
	assert.True(t, enchanted.HasRestriction(effects.RestrictionCantBlock))
	assert.Equal(t, bear, g.AttachedTo(permanentNamed(t, g, "Pacifism").ObjectID))
}

func TestHiddenAncientsDoesNotRetriggerOnceACreature(t *testing.T) {
	alice := game.NewScriptedPlayer()
	g := newGame(t, alice, nil)
	for range 4 {
		put(t, g, "alice", sets.Plains())
	}
	bear := put(t, g, "bob", sets.GrizzlyBears())
	ancients := put(t, g, "bob", sets.HiddenAncients())
	first := hand(t, g, "alice", sets.Pacifism())
	second := hand(t, g, "alice", sets.Pacifism())
	alice.At(1, rules.StepMain1, game.Cast(first, bear))

	var afterFirst int
	alice.AtFunc(1, rules.StepMain2, func(game.PriorityView) (game.Action, bool) {
		afterFirst = entriesFrom(g, ancients)
		return game.Cast(second, bear), true
	})

	playFirstTurn(t, g)

	assert.Equal(t, 0, alice.Remaining())
	assert.Len(t, g.PermanentsMatching(func(s *effects.Snapshot) bool { return s.Name == "Pacifism" }), 2)
	assert.Positive(t, afterFirst)
	assert.Equal(t, afterFirst, entriesFrom(g, ancients))

	s, err := g.Characteristics(ancients)
	require.NoError(t, err)
	assert.Equal(t, []string{"Creature"}, s.Types)
	assert.Equal(t, 5, s.Power)
}

func entriesFrom(g *game.Game, sourceID string) int {
	n := 0
	for _, e := range g.Layers().Entries() {
		if e.SourceID == sourceID {
			n++
		}
	}
	return n
}

func TestRhysticScryingCostsDoubleBlue(t *testing.T) {
	assert.Equal(t, "{2}{U}{U}", sets.RhysticScrying().ManaCost)
}

func TestHiddenAncientsIgnoresItsControllersSpells(t *testing.T) {
	alice := game.NewScriptedPlayer()
	g := newGame(t, alice, nil)
	put(t, g, "alice", sets.Plains())
	put(t, g, "alice", sets.Plains())
	bear := put(t, g, "bob", sets.GrizzlyBears())
	ancients := put(t, g, "alice", sets.HiddenAncients())
	pacifism := hand(t, g, "alice", sets.Pacifism())
	alice.At(1, rules.StepMain1, game.Cast(pacifism, bear))

	playFirstTurn(t, g)

	s, err := g.Characteristics(ancients)
	require.NoError(t, err)
	assert.False(t, s.IsCreature())
}

func TestSanctuaryWardPreventsDamage(t *testing.T) {
	bob := game.NewScriptedPlayer()
	g := newGame(t, nil, bob)
	bear := put(t, g, "alice", sets.GrizzlyBears())
	ward := put(t, g, "alice", sets.SanctuaryWard())
	require.NoError(t, g.Attach(ward, bear))
	put(t, g, "bob", sets.Mountain())
	bolt := hand(t, g, "bob", sets.LightningBolt())
	bob.At(1, rules.StepMain1, game.Cast(bolt, bear))

	playFirstTurn(t, g)

	obj, ok := g.Object(bear)
	require.True(t, ok)
	assert.True(t, g.IsOnBattlefield(bear))
	assert.Zero(t, obj.Damage)
	assert.Equal(t, []string{"Lightning Bolt"}, graveyard(t, g, "bob"))
}

func TestSoulWardenGainsLifeForOtherCreatures(t *testing.T) {
	alice := game.NewScriptedPlayer()
	g := newGame(t, alice, nil)
	put(t, g, "bob", sets.SoulWarden())
	put(t, g, "alice", sets.SoulWarden())
	put(t, g, "alice", sets.Forest())
	put(t, g, "alice", sets.Forest())
	bears := hand(t, g, "alice", sets.GrizzlyBears())
	alice.At(1, rules.StepMain1, game.Cast(bears))

	playFirstTurn(t, g)

	assert.Equal(t, 21, player(t, g, "alice").Life)
	assert.Equal(t, 21, player(t, g, "bob").Life)
	permanentNamed(t, g, "Grizzly Bears")
}

func TestProdigalPyromancerPings(t *testing.T) {
	alice := game.NewScriptedPlayer()
	g := newGame(t, alice, nil)
	pyromancer := put(t, g, "alice", sets.ProdigalPyromancer())
	alice.At(1, rules.StepMain1, game.Activate(pyromancer, sets.PyromancerAbility, "bob"))

	playFirstTurn(t, g)

	assert.Equal(t, 19, player(t, g, "bob").Life)
	obj, _ := g.Object(pyromancer)
	assert.True(t, obj.Tapped)
}

func TestCharacteristicInteractions(t *testing.T) {
	tests := []struct {
		name   string
		cards  []func() *game.CardDefinition
		check  string
		power  int
		tough  int
		isCrea bool
	}{
		{"AnthemPumpsBears", []func() *game.CardDefinition{sets.GrizzlyBears, sets.GloriousAnthem}, "Grizzly Bears", 3, 3, true},
		{"HumilityThenAnthem", []func() *game.CardDefinition{sets.GrizzlyBears, sets.Humility, sets.GloriousAnthem}, "Grizzly Bears", 2, 2, true},
		{"OpalescenceAnimatesAnthem", []func() *game.CardDefinition{sets.Opalescence, sets.GloriousAnthem}, "Glorious Anthem", 4, 4, true},
		{"OpalescenceSkipsItself", []func() *game.CardDefinition{sets.Opalescence, sets.GloriousAnthem}, "Opalescence", 0, 0, false},
		{"HumilityNewerThanOpalescence", []func() *game.CardDefinition{sets.Opalescence, sets.Humility}, "Humility", 1, 1, true},
		{"OpalescenceNewerThanHumility", []func() *game.CardDefinition{sets.Humility, sets.Opalescence}, "Humility", 4, 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGame(t, nil, nil)
			for _, def := range tt.cards {
				put(t, g, "alice", def())
			}

			s := permanentNamed(t, g, tt.check)
			assert.Equal(t, tt.isCrea, s.IsCreature())
			if tt.isCrea {
				assert.Equal(t, tt.power, s.Power)
				assert.Equal(t, tt.tough, s.Toughness)
			}
		})
	}
}

func TestPacifismFallsOffWhenCreatureDies(t *testing.T) {
	g := newGame(t, nil, nil)
	bear := put(t, g, "bob", sets.GrizzlyBears())
	pacifism := put(t, g, "alice", sets.Pacifism())
	require.NoError(t, g.Attach(pacifism, bear))

	_, err := g.Destroy(bear, "")
	require.NoError(t, err)
	_, err = g.RunStateBasedActions()
	require.NoError(t, err)

	assert.Equal(t, []string{"Pacifism"}, graveyard(t, g, "alice"))
	assert.Equal(t, []string{"Grizzly Bears"}, graveyard(t, g, "bob"))
}
