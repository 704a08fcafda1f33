package rules

import "errors"

// Rules error taxonomy. Callers wrap these with fmt.Errorf("...: %w", err)
// and test with errors.Is.
var (
	// ErrIllegalAction means the attempted move violates current legality
	// (not the priority holder, wrong timing, unpayable cost). The action is
	// rejected and the player is asked again.
	ErrIllegalAction = errors.New("illegal action")

	// ErrInvalidTarget means a chosen target is not legal. At resolution time
	// the spell or ability is removed from the stack without effect.
	ErrInvalidTarget = errors.New("invalid target")

	// ErrMissingReference means an id has no backing object. Callers treat it
	// as a no-op.
	ErrMissingReference = errors.New("missing reference")

	// ErrDependencyCycle is reported when continuous effects in one layer
	// depend on each other. Application falls back to timestamp order.
	ErrDependencyCycle = errors.New("continuous effect dependency cycle")

	// ErrNotConverged is fatal: state-based actions kept changing the game
	// after the configured number of passes.
	ErrNotConverged = errors.New("state-based actions did not converge")
)
