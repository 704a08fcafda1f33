package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTurnManagerSequence(t *testing.T) {
	tm := NewTurnManager("Alice")

	expected := []struct {
		phase Phase
		step  Step
	}{
		{PhaseBeginning, StepUntap},
		{PhaseBeginning, StepUpkeep},
		{PhaseBeginning, StepDraw},
		{PhasePrecombatMain, StepMain1},
		{PhaseCombat, StepBeginCombat},
		{PhaseCombat, StepDeclareAttackers},
		{PhaseCombat, StepDeclareBlockers},
		{PhaseCombat, StepCombatDamage},
		{PhaseCombat, StepEndCombat},
		{PhasePostcombatMain, StepMain2},
		{PhaseEnding, StepEnd},
		{PhaseEnding, StepCleanup},
	}

	for i, exp := range expected {
		assert.Equal(t, exp.phase, tm.CurrentPhase(), "step %d", i)
		assert.Equal(t, exp.step, tm.CurrentStep(), "step %d", i)
		if i < len(expected)-1 {
			assert.False(t, tm.EndsTurn())
			tm.AdvanceStep("")
		}
	}
	assert.True(t, tm.EndsTurn())
}

func TestTurnManagerAdvanceWrapsTurn(t *testing.T) {
	tm := NewTurnManager("Alice")

	for i := 0; i < 11; i++ {
		tm.AdvanceStep("Bob")
		assert.Equal(t, 1, tm.TurnNumber())
		assert.Equal(t, "Alice", tm.ActivePlayer())
	}

	phase, step := tm.AdvanceStep("Bob")
	assert.Equal(t, 2, tm.TurnNumber())
	assert.Equal(t, "Bob", tm.ActivePlayer())
	assert.Equal(t, PhaseBeginning, phase)
	assert.Equal(t, StepUntap, step)
}

func TestTurnManagerMainPhaseAndPriority(t *testing.T) {
	tm := NewTurnManager("Alice")
	assert.False(t, tm.IsMainPhase())
	for tm.CurrentStep() != StepMain1 {
		tm.AdvanceStep("")
	}
	assert.True(t, tm.IsMainPhase())

	assert.False(t, GrantsPriority(StepUntap))
	assert.False(t, GrantsPriority(StepCleanup))
	assert.True(t, GrantsPriority(StepUpkeep))
	assert.Equal(t, "MAIN2", StepMain2.String())
	assert.Equal(t, "COMBAT", PhaseCombat.String())
	assert.Equal(t, "STEP_99", Step(99).String())
}
