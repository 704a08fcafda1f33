package rules

import (
	"fmt"
	"sync"
)

// SpecialActionType represents an action that does not use the stack.
type SpecialActionType string

const (
	// SpecialActionPlayLand plays a land from hand.
	SpecialActionPlayLand SpecialActionType = "PLAY_LAND"
)

// SpecialActionRestriction defines when a special action can be taken.
type SpecialActionRestriction struct {
	RequiresMainPhase  bool
	RequiresEmptyStack bool
	RequiresOwnTurn    bool
	// PerTurn limits how often a player may take the action each turn.
	// Zero means unlimited.
	PerTurn int
}

// GetRestrictions returns the restrictions for a special action type.
func GetRestrictions(actionType SpecialActionType) SpecialActionRestriction {
	switch actionType {
	case SpecialActionPlayLand:
		return SpecialActionRestriction{
			RequiresMainPhase:  true,
			RequiresEmptyStack: true,
			RequiresOwnTurn:    true,
			PerTurn:            1,
		}
	default:
		return SpecialActionRestriction{}
	}
}

// ActionWindow describes the game situation in which a player wants to act.
type ActionWindow struct {
	HasPriority bool
	MainPhase   bool
	EmptyStack  bool
	OwnTurn     bool
	Resolving   bool
}

// SpecialActionManager tracks how often special actions were taken.
type SpecialActionManager struct {
	mu            sync.RWMutex
	takenThisTurn map[string]map[SpecialActionType]int
	extra         map[string]map[SpecialActionType]int
}

// NewSpecialActionManager creates a new special action manager.
func NewSpecialActionManager() *SpecialActionManager {
	return &SpecialActionManager{
		takenThisTurn: make(map[string]map[SpecialActionType]int),
		extra:         make(map[string]map[SpecialActionType]int),
	}
}

// Check returns ErrIllegalAction, wrapped with the reason, when playerID may
// not take actionType in window.
func (sam *SpecialActionManager) Check(playerID string, actionType SpecialActionType, window ActionWindow) error {
	restrictions := GetRestrictions(actionType)
	switch {
	case !window.HasPriority:
		return fmt.Errorf("%w: %s requires priority", ErrIllegalAction, actionType)
	case window.Resolving:
		return fmt.Errorf("%w: %s during resolution", ErrIllegalAction, actionType)
	case restrictions.RequiresMainPhase && !window.MainPhase:
		return fmt.Errorf("%w: %s requires a main phase", ErrIllegalAction, actionType)
	case restrictions.RequiresEmptyStack && !window.EmptyStack:
		return fmt.Errorf("%w: %s requires an empty stack", ErrIllegalAction, actionType)
	case restrictions.RequiresOwnTurn && !window.OwnTurn:
		return fmt.Errorf("%w: %s only during your turn", ErrIllegalAction, actionType)
	}
	if restrictions.PerTurn > 0 {
		limit := restrictions.PerTurn + sam.Extra(playerID, actionType)
		if sam.TakenThisTurn(playerID, actionType) >= limit {
			return fmt.Errorf("%w: %s already taken %d time(s) this turn", ErrIllegalAction, actionType, limit)
		}
	}
	return nil
}

// Record notes that playerID took actionType.
func (sam *SpecialActionManager) Record(playerID string, actionType SpecialActionType) {
	sam.mu.Lock()
	defer sam.mu.Unlock()
	if sam.takenThisTurn[playerID] == nil {
		sam.takenThisTurn[playerID] = make(map[SpecialActionType]int)
	}
	sam.takenThisTurn[playerID][actionType]++
}

// TakenThisTurn returns how often playerID took actionType this turn.
func (sam *SpecialActionManager) TakenThisTurn(playerID string, actionType SpecialActionType) int {
	sam.mu.RLock()
	defer sam.mu.RUnlock()
	return sam.takenThisTurn[playerID][actionType]
}

// GrantExtra allows playerID n additional uses of actionType this turn.
func (sam *SpecialActionManager) GrantExtra(playerID string, actionType SpecialActionType, n int) {
	sam.mu.Lock()
	defer sam.mu.Unlock()
	if sam.extra[playerID] == nil {
		sam.extra[playerID] = make(map[SpecialActionType]int)
	}
	sam.extra[playerID][actionType] += n
}

// Extra returns the additional uses granted to playerID this turn.
func (sam *SpecialActionManager) Extra(playerID string, actionType SpecialActionType) int {
	sam.mu.RLock()
	defer sam.mu.RUnlock()
	return sam.extra[playerID][actionType]
}

// ResetTurn clears per-turn tracking.
func (sam *SpecialActionManager) ResetTurn() {
	sam.mu.Lock()
	defer sam.mu.Unlock()
	sam.takenThisTurn = make(map[string]map[SpecialActionType]int)
	sam.extra = make(map[string]map[SpecialActionType]int)
}
