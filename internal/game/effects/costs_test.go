package effects

import (
	"testing"

	"github.com/magefree/mage-rules-go/internal/game/mana"
	"github.com/stretchr/testify/assert"
)

func TestCostModifiersApplyInTimestampOrder(t *testing.T) {
	cm := NewCostModifiers()
	creatureSpells := func(spell *Snapshot, _ string) bool { return spell.IsCreature() }

	cm.Add(CostModifier{SourceID: "reducer", Timestamp: 5, Applies: creatureSpells, Adjustment: mana.CostAdjustment{Generic: -2}})
	cm.Add(CostModifier{SourceID: "taxer", Timestamp: 9, Adjustment: mana.CostAdjustment{Generic: 1}})
	cm.Add(CostModifier{
		SourceID: "opponent-tax", Timestamp: 1,
		Applies:    func(_ *Snapshot, caster string) bool { return caster == "bob" },
		Adjustment: mana.CostAdjustment{Colored: map[mana.ManaType]int{mana.ManaWhite: 1}},
	})

	bears := &Snapshot{Types: []string{"Creature"}}
	adjs := cm.Adjustments(bears, "alice")
	if assert.Len(t, adjs, 2) {
		assert.Equal(t, "reducer", adjs[0].SourceID)
		assert.Equal(t, "taxer", adjs[1].SourceID)
	}

	cost := mana.MustParseCost("{1}{G}")
	got := cm.Apply(cost, bears, "alice")
	assert.Equal(t, 0, got.Generic, "increase applies before the reduction")
	assert.Equal(t, 1, got.Green)

	bolt := &Snapshot{Types: []string{"Instant"}}
	got = cm.Apply(mana.MustParseCost("{R}"), bolt, "bob")
	assert.Equal(t, 1, got.Generic)
	assert.Equal(t, 1, got.White)
	assert.Equal(t, 1, got.Red)
}

func TestCostModifiersExpire(t *testing.T) {
	cm := NewCostModifiers()
	id := cm.Add(CostModifier{SourceID: "a", Duration: DurationEndOfTurn})
	cm.Add(CostModifier{SourceID: "b"})
	cm.Add(CostModifier{SourceID: "c"})

	assert.Equal(t, 1, cm.CleanupEndOfTurn())
	assert.False(t, cm.Remove(id))
	assert.Equal(t, 1, cm.RemoveExpired(func(id string) bool { return id == "c" }))
	assert.Equal(t, 1, cm.RemoveBySource("c"))
	assert.Zero(t, cm.Len())
}
