package game

import (
	"testing"

	"github.com/magefree/mage-rules-go/internal/game/effects"
	"github.com/magefree/mage-rules-go/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func powerToughness(t *testing.T, g *Game, id string) (int, int) {
	t.Helper()
	s, err := g.Characteristics(id)
	require.NoError(t, err)
	return s.Power, s.Toughness
}

func TestStaticAbilitiesApplyWhileOnBattlefield(t *testing.T) {
	g := newTestGame(t, Seat{PlayerID: "alice"}, Seat{PlayerID: "bob"})
	bear := onBattlefield(t, g, "alice", testBear())
	opposing := onBattlefield(t, g, "bob", testBear())
	events := recordEvents(g)
	anthem := onBattlefield(t, g, "alice", testAnthem())

	p, tough := powerToughness(t, g, bear)
	assert.Equal(t, []int{3, 3}, []int{p, tough})
	p, tough = powerToughness(t, g, opposing)
	assert.Equal(t, []int{2, 2}, []int{p, tough}, "only creatures you control")
	require.Len(t, events.ofType(rules.EventContinuousEffectAdded), 1)

	_, err := g.Destroy(anthem, "")
	require.NoError(t, err)
	p, tough = powerToughness(t, g, bear)
	assert.Equal(t, []int{2, 2}, []int{p, tough})
	assert.Len(t, events.ofType(rules.EventContinuousEffectRemoved), 1)
	assert.Empty(t, g.Layers().Entries())
}

func TestLayersApplyInOrderRegardlessOfTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		order []func() *CardDefinition
	}{
		{"AnthemFirst", []func() *CardDefinition{testAnthem, testShrink}},
		{"ShrinkFirst", []func() *CardDefinition{testShrink, testAnthem}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGame(t, Seat{PlayerID: "alice"}, Seat{PlayerID: "bob"})
			bear := onBattlefield(t, g, "alice", testBear())
			for _, def := range tt.order {
				onBattlefield(t, g, "alice", def())
			}

			// Setting power and toughness comes before modifying it.
			p, tough := powerToughness(t, g, bear)
			assert.Equal(t, 2, p)
			assert.Equal(t, 2, tough)
		})
	}
}

func TestLaterSetEffectWins(t *testing.T) {
	g := newTestGame(t, Seat{PlayerID: "alice"}, Seat{PlayerID: "bob"})
	bear := onBattlefield(t, g, "alice", testBear())
	g.AddContinuousEffects(effects.NewBuilder("", "alice").UntilEndOfTurn(), effects.SetPT(effects.Objects(bear), 5, 5))
	g.AddContinuousEffects(effects.NewBuilder("", "alice").UntilEndOfTurn(), effects.SetPT(effects.Objects(bear), 0, 4))

	p, tough := powerToughness(t, g, bear)
	assert.Equal(t, 0, p)
	assert.Equal(t, 4, tough)

	removed := g.layers.CleanupEndOfTurn()
	assert.Len(t, removed, 2)
	p, tough = powerToughness(t, g, bear)
	assert.Equal(t, []int{2, 2}, []int{p, tough})
}

func TestGroupedEffectsShareTimestamp(t *testing.T) {
	g := newTestGame(t, Seat{PlayerID: "alice"}, Seat{PlayerID: "bob"})
	bear := onBattlefield(t, g, "alice", testBear())
	ids := g.AddContinuousEffects(effects.NewBuilder("", "alice").Permanent(),
		effects.BecomesCreature(effects.Objects(bear), 4, 4, "Treefolk")...)
	require.Greater(t, len(ids), 1)

	first, ok := g.layers.Get(ids[0])
	require.True(t, ok)
	for _, id := range ids[1:] {
		e, ok := g.layers.Get(id)
		require.True(t, ok)
		assert.Equal(t, first.Timestamp, e.Timestamp)
	}

	s, err := g.Characteristics(bear)
	require.NoError(t, err)
	assert.True(t, s.HasSubtype("Treefolk"))
	assert.Equal(t, 4, s.Power)
}

func TestLastKnownInformation(t *testing.T) {
	g := newTestGame(t, Seat{PlayerID: "alice"}, Seat{PlayerID: "bob"})
	bear := onBattlefield(t, g, "alice", testBear())
	onBattlefield(t, g, "alice", testAnthem())

	_, err := g.Destroy(bear, "")
	require.NoError(t, err)

	_, err = g.Characteristics(bear)
	assert.ErrorIs(t, err, ErrMissingReference)
	last, ok := g.LastKnown(bear)
	require.True(t, ok)
	assert.Equal(t, 3, last.Power, "as it last existed on the battlefield")
}

func TestPreventionShieldIsUsedUp(t *testing.T) {
	g := newTestGame(t, Seat{PlayerID: "alice"}, Seat{PlayerID: "bob"})
	bear := onBattlefield(t, g, "alice", testBear())
	g.Replacements().AddEffect(effects.NewDamagePreventionEffect("healer", bear, "", 2, effects.DurationEndOfTurn))

	dealt, err := g.DealDamage("", bear, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, dealt)
	assert.Equal(t, 1, g.objects[bear].Damage)

	dealt, err = g.DealDamage("", bear, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, dealt, "the shield is gone")
	assert.Equal(t, 2, g.objects[bear].Damage)
}
