package mana

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCost(t *testing.T) {
	tests := []struct {
		input    string
		expected ManaCost
	}{
		{"", ManaCost{}},
		{"{1}", ManaCost{Generic: 1}},
		{"{G}", ManaCost{Green: 1}},
		{"{1}{G}", ManaCost{Generic: 1, Green: 1}},
		{"{2}{R}{R}", ManaCost{Generic: 2, Red: 2}},
		{"{X}{R}", ManaCost{X: true, Red: 1}},
		{"{W}{U}{B}{R}{G}", ManaCost{White: 1, Blue: 1, Black: 1, Red: 1, Green: 1}},
		{"{C}", ManaCost{Colorless: 1}},
		{"{10}", ManaCost{Generic: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseCost(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, *result)
		})
	}
}

func TestParseCostRejectsUnknownSymbols(t *testing.T) {
	for _, input := range []string{"{W/U}", "{Q}", "2G"} {
		_, err := ParseCost(input)
		assert.Error(t, err, input)
	}
	assert.Panics(t, func() { MustParseCost("{Z}") })
}

func TestManaCostString(t *testing.T) {
	assert.Equal(t, "{2}{R}{R}", MustParseCost("{2}{R}{R}").String())
	assert.Equal(t, "{X}{R}", MustParseCost("{X}{R}").String())
	assert.Equal(t, "{0}", MustParseCost("").String())
}

func TestManaValueAndColors(t *testing.T) {
	cost := MustParseCost("{X}{2}{U}{U}")
	assert.Equal(t, 4, cost.ManaValue(0))
	assert.Equal(t, 7, cost.ManaValue(3))
	assert.Equal(t, []ManaType{ManaBlue}, cost.Colors())
	assert.False(t, cost.IsZero())
	assert.True(t, MustParseCost("").IsZero())
}

func TestApplyAdjustmentsIncreasesFirst(t *testing.T) {
	cost := MustParseCost("{1}{G}")
	reduce := CostAdjustment{Generic: -2}
	tax := CostAdjustment{Generic: 1}

	// Reducing first would clamp at zero and then add one.
	out := ApplyAdjustments(cost, []CostAdjustment{reduce, tax})
	assert.Equal(t, "{G}", out.String())
	assert.Equal(t, "{1}{G}", cost.String(), "the original cost is not modified")

	colored := CostAdjustment{Colored: map[ManaType]int{ManaGreen: -1}}
	assert.Equal(t, "{1}", colored.ApplyTo(cost).String())
	assert.False(t, colored.IsIncrease())
	assert.True(t, tax.IsIncrease())
}
