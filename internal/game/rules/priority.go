package rules

import (
	"fmt"
	"strings"
	"sync"
)

// ResolutionContext tracks what spell/ability is currently resolving
// and allows nested resolution (e.g., casting copies during resolution)
type ResolutionContext struct {
	mu             sync.RWMutex
	resolvingStack []string // Stack of resolving item IDs (innermost at end)
	maxDepth       int
}

// DefaultMaxResolutionDepth bounds nested resolutions.
const DefaultMaxResolutionDepth = 10

// NewResolutionContext creates a new resolution context
func NewResolutionContext() *ResolutionContext {
	return &ResolutionContext{
		resolvingStack: make([]string, 0, 8),
		maxDepth:       DefaultMaxResolutionDepth,
	}
}

// BeginResolution marks the start of resolving a stack item
func (rc *ResolutionContext) BeginResolution(itemID string) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if len(rc.resolvingStack) >= rc.maxDepth {
		return fmt.Errorf("maximum resolution depth (%d) exceeded", rc.maxDepth)
	}
	rc.resolvingStack = append(rc.resolvingStack, itemID)
	return nil
}

// EndResolution marks the end of resolving a stack item
func (rc *ResolutionContext) EndResolution(itemID string) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if len(rc.resolvingStack) == 0 {
		return fmt.Errorf("no item currently resolving")
	}
	current := rc.resolvingStack[len(rc.resolvingStack)-1]
	if current != itemID {
		return fmt.Errorf("resolution mismatch: expected %s, got %s", current, itemID)
	}
	rc.resolvingStack = rc.resolvingStack[:len(rc.resolvingStack)-1]
	return nil
}

// IsResolving returns true if something is currently resolving
func (rc *ResolutionContext) IsResolving() bool {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return len(rc.resolvingStack) > 0
}

// CurrentID returns the ID of the currently resolving item (innermost)
func (rc *ResolutionContext) CurrentID() string {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	if len(rc.resolvingStack) == 0 {
		return ""
	}
	return rc.resolvingStack[len(rc.resolvingStack)-1]
}

// Depth returns the current resolution depth
func (rc *ResolutionContext) Depth() int {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return len(rc.resolvingStack)
}

// Reset clears all resolution state
func (rc *ResolutionContext) Reset() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.resolvingStack = rc.resolvingStack[:0]
}

// ActionType represents types of actions a player may take while holding priority.
type ActionType string

const (
	// ActionPass passes priority.
	ActionPass ActionType = "PASS"
	// ActionCastSpell casts a spell
	ActionCastSpell ActionType = "CAST_SPELL"
	// ActionActivateAbility activates an ability
	ActionActivateAbility ActionType = "ACTIVATE_ABILITY"
	// ActionActivateMana activates a mana ability
	ActionActivateMana ActionType = "ACTIVATE_MANA"
	// ActionSpecialAction takes a special action
	ActionSpecialAction ActionType = "SPECIAL_ACTION"
)

// PriorityState is the state of the priority protocol.
type PriorityState int

const (
	// PriorityActivePlayer means the active player holds priority.
	PriorityActivePlayer PriorityState = iota
	// PriorityOtherPlayer means a non-active player holds priority; see
	// PriorityTracker.Offset for which one.
	PriorityOtherPlayer
	// PriorityAllPassed means every player passed in succession.
	PriorityAllPassed
)

func (s PriorityState) String() string {
	switch s {
	case PriorityActivePlayer:
		return "ACTIVE_PLAYER_PRIORITY"
	case PriorityOtherPlayer:
		return "OTHER_PLAYER_PRIORITY"
	case PriorityAllPassed:
		return "ALL_PASSED"
	default:
		return "UNKNOWN"
	}
}

// PriorityTracker implements the pass/act cycle. Players are kept in turn
// order; the active player receives priority whenever Begin is called and any
// action resets the consecutive-pass count.
type PriorityTracker struct {
	players []string
	active  int
	holder  int
	passes  int
	state   PriorityState
}

// NewPriorityTracker creates a tracker over players in turn order.
func NewPriorityTracker(players []string) *PriorityTracker {
	pt := &PriorityTracker{}
	pt.SetPlayers(players)
	return pt
}

// SetPlayers replaces the turn order, e.g. after a player leaves the game.
// The active player is kept when still present.
func (pt *PriorityTracker) SetPlayers(players []string) {
	activeID := pt.ActivePlayer()
	pt.players = make([]string, 0, len(players))
	for _, p := range players {
		if p = strings.TrimSpace(p); p != "" {
			pt.players = append(pt.players, p)
		}
	}
	pt.active = 0
	for i, p := range pt.players {
		if p == activeID {
			pt.active = i
		}
	}
	pt.holder = pt.active
	pt.passes = 0
	pt.state = PriorityActivePlayer
}

// Begin grants priority to activePlayer and clears pass tracking. Called at
// the start of every step and after every change to the stack.
func (pt *PriorityTracker) Begin(activePlayer string) {
	for i, p := range pt.players {
		if p == activePlayer {
			pt.active = i
			break
		}
	}
	pt.holder = pt.active
	pt.passes = 0
	pt.state = PriorityActivePlayer
}

// Holder returns the player currently holding priority, or "" once all passed.
func (pt *PriorityTracker) Holder() string {
	if len(pt.players) == 0 || pt.state == PriorityAllPassed {
		return ""
	}
	return pt.players[pt.holder]
}

// ActivePlayer returns the active player known to the tracker.
func (pt *PriorityTracker) ActivePlayer() string {
	if len(pt.players) == 0 {
		return ""
	}
	return pt.players[pt.active]
}

// State returns the current protocol state.
func (pt *PriorityTracker) State() PriorityState {
	return pt.state
}

// Offset returns n for OtherPlayerPriority(n): the holder's distance from the
// active player in turn order. Zero when the active player holds priority.
func (pt *PriorityTracker) Offset() int {
	if len(pt.players) == 0 {
		return 0
	}
	return (pt.holder - pt.active + len(pt.players)) % len(pt.players)
}

// Pass records a pass by the holder and moves priority to the next player.
// Once every player has passed in succession the state becomes AllPassed.
func (pt *PriorityTracker) Pass() PriorityState {
	if len(pt.players) == 0 || pt.state == PriorityAllPassed {
		pt.state = PriorityAllPassed
		return pt.state
	}
	pt.passes++
	if pt.passes >= len(pt.players) {
		pt.state = PriorityAllPassed
		return pt.state
	}
	pt.holder = (pt.holder + 1) % len(pt.players)
	pt.updateState()
	return pt.state
}

// ActionTaken resets the pass count and gives priority to player (normally
// the active player after an action resolves onto the stack).
func (pt *PriorityTracker) ActionTaken(player string) {
	pt.passes = 0
	for i, p := range pt.players {
		if p == player {
			pt.holder = i
			break
		}
	}
	pt.updateState()
}

// Players returns the turn order known to the tracker.
func (pt *PriorityTracker) Players() []string {
	return append([]string(nil), pt.players...)
}

// Passes returns the number of consecutive passes recorded.
func (pt *PriorityTracker) Passes() int {
	return pt.passes
}

func (pt *PriorityTracker) updateState() {
	if pt.holder == pt.active {
		pt.state = PriorityActivePlayer
	} else {
		pt.state = PriorityOtherPlayer
	}
}
