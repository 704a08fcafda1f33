package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mainPhaseWindow() ActionWindow {
	return ActionWindow{HasPriority: true, MainPhase: true, EmptyStack: true, OwnTurn: true}
}

func TestPlayLandRestrictions(t *testing.T) {
	sam := NewSpecialActionManager()

	require.NoError(t, sam.Check("alice", SpecialActionPlayLand, mainPhaseWindow()))

	cases := map[string]func(w *ActionWindow){
		"no priority":     func(w *ActionWindow) { w.HasPriority = false },
		"not main phase":  func(w *ActionWindow) { w.MainPhase = false },
		"stack not empty": func(w *ActionWindow) { w.EmptyStack = false },
		"opponent's turn": func(w *ActionWindow) { w.OwnTurn = false },
		"resolving":       func(w *ActionWindow) { w.Resolving = true },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			w := mainPhaseWindow()
			mutate(&w)
			assert.ErrorIs(t, sam.Check("alice", SpecialActionPlayLand, w), ErrIllegalAction)
		})
	}
}

func TestPlayLandOncePerTurn(t *testing.T) {
	sam := NewSpecialActionManager()

	sam.Record("alice", SpecialActionPlayLand)
	assert.Equal(t, 1, sam.TakenThisTurn("alice", SpecialActionPlayLand))
	assert.ErrorIs(t, sam.Check("alice", SpecialActionPlayLand, mainPhaseWindow()), ErrIllegalAction)
	assert.NoError(t, sam.Check("bob", SpecialActionPlayLand, mainPhaseWindow()))

	sam.GrantExtra("alice", SpecialActionPlayLand, 1)
	assert.NoError(t, sam.Check("alice", SpecialActionPlayLand, mainPhaseWindow()))

	sam.ResetTurn()
	assert.Equal(t, 0, sam.TakenThisTurn("alice", SpecialActionPlayLand))
	assert.Equal(t, 0, sam.Extra("alice", SpecialActionPlayLand))
}
