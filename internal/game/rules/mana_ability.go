package rules

import (
	"fmt"
	"sync"
)

// ManaAbilityGuard enforces that a mana ability cannot be activated again
// while an activation of it is in progress. Mana abilities resolve
// immediately and never use the stack.
type ManaAbilityGuard struct {
	mu         sync.Mutex
	activating map[string]bool
	resolved   map[string]int
}

// NewManaAbilityGuard creates an empty guard.
func NewManaAbilityGuard() *ManaAbilityGuard {
	return &ManaAbilityGuard{
		activating: make(map[string]bool),
		resolved:   make(map[string]int),
	}
}

// Activate runs resolve for abilityID. A re-entrant activation of the same
// ability fails with ErrIllegalAction.
func (g *ManaAbilityGuard) Activate(abilityID string, resolve func() error) error {
	g.mu.Lock()
	if g.activating[abilityID] {
		g.mu.Unlock()
		return fmt.Errorf("%w: mana ability %s is already being activated", ErrIllegalAction, abilityID)
	}
	g.activating[abilityID] = true
	g.mu.Unlock()

	err := resolve()

	g.mu.Lock()
	delete(g.activating, abilityID)
	if err == nil {
		g.resolved[abilityID]++
	}
	g.mu.Unlock()

	if err != nil {
		return fmt.Errorf("activate mana ability %s: %w", abilityID, err)
	}
	return nil
}

// IsActivating reports whether abilityID is mid-activation.
func (g *ManaAbilityGuard) IsActivating(abilityID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.activating[abilityID]
}

// Resolved returns how often abilityID resolved since the last ResetWindow.
func (g *ManaAbilityGuard) Resolved(abilityID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.resolved[abilityID]
}

// ResetWindow clears resolution counts, normally at each step change.
func (g *ManaAbilityGuard) ResetWindow() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resolved = make(map[string]int)
}
