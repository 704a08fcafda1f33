package game

import (
	"errors"

	"github.com/magefree/mage-rules-go/internal/game/rules"
)

// Errors returned by the engine. The rules taxonomy lives in the rules
// package so lower level packages can wrap it too.
var (
	ErrIllegalAction    = rules.ErrIllegalAction
	ErrInvalidTarget    = rules.ErrInvalidTarget
	ErrMissingReference = rules.ErrMissingReference
	ErrDependencyCycle  = rules.ErrDependencyCycle
	ErrNotConverged     = rules.ErrNotConverged

	// ErrGameOver is returned for actions attempted after the game ended.
	ErrGameOver = errors.New("game is over")

	// ErrNoDecision is returned by decision providers that have nothing to
	// say; the engine falls back to the default for the decision.
	ErrNoDecision = errors.New("no decision")
)
