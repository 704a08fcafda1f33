package rules

import (
	"fmt"
	"sync"
)

// CostType represents the kinds of costs that can be paid.
type CostType string

const (
	CostTypeMana      CostType = "MANA"
	CostTypeTap       CostType = "TAP"
	CostTypeLife      CostType = "LIFE"
	CostTypeDiscard   CostType = "DISCARD"
	CostTypeSacrifice CostType = "SACRIFICE"
)

// Cost is one component of a total cost.
type Cost struct {
	Type        CostType
	Amount      int
	Description string
	Paid        bool
}

// PaymentState tracks the costs of one spell, ability or resolution-time
// payment ("unless any player pays {2}").
type PaymentState struct {
	mu         sync.RWMutex
	id         string
	controller string
	costs      []Cost
	manaPaid   int
}

// NewPaymentState creates a payment for id paid by controller.
func NewPaymentState(id, controller string, costs []Cost) *PaymentState {
	return &PaymentState{
		id:         id,
		controller: controller,
		costs:      append([]Cost(nil), costs...),
	}
}

func (ps *PaymentState) ID() string         { return ps.id }
func (ps *PaymentState) Controller() string { return ps.controller }

// MarkCostPaid marks every cost of costType as paid.
func (ps *PaymentState) MarkCostPaid(costType CostType) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	for i := range ps.costs {
		if ps.costs[i].Type == costType {
			ps.costs[i].Paid = true
		}
	}
}

// IsCostPaid reports whether every cost of costType has been paid.
func (ps *PaymentState) IsCostPaid(costType CostType) bool {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	for _, c := range ps.costs {
		if c.Type == costType && !c.Paid {
			return false
		}
	}
	return true
}

// AddManaPaid records mana spent towards the payment.
func (ps *PaymentState) AddManaPaid(amount int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.manaPaid += amount
}

// ManaPaid returns the mana spent so far.
func (ps *PaymentState) ManaPaid() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.manaPaid
}

// IsFullyPaid returns whether all costs have been paid.
func (ps *PaymentState) IsFullyPaid() bool {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	for _, c := range ps.costs {
		if !c.Paid {
			return false
		}
	}
	return true
}

// Costs returns a copy of all costs.
func (ps *PaymentState) Costs() []Cost {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return append([]Cost(nil), ps.costs...)
}

// PaymentWindowManager tracks open payments. Payments nest: a resolution-time
// payment may open while a spell resolves, and mana abilities stay
// activatable while any window is open.
type PaymentWindowManager struct {
	mu     sync.RWMutex
	active []*PaymentState
}

// NewPaymentWindowManager creates a new payment window manager.
func NewPaymentWindowManager() *PaymentWindowManager {
	return &PaymentWindowManager{}
}

// BeginPayment opens a window for state.
func (pwm *PaymentWindowManager) BeginPayment(state *PaymentState) error {
	pwm.mu.Lock()
	defer pwm.mu.Unlock()
	for _, open := range pwm.active {
		if open.id == state.id {
			return fmt.Errorf("%w: payment for %s already in progress", ErrIllegalAction, state.id)
		}
	}
	pwm.active = append(pwm.active, state)
	return nil
}

// EndPayment closes the innermost window, which must belong to id.
func (pwm *PaymentWindowManager) EndPayment(id string) error {
	pwm.mu.Lock()
	defer pwm.mu.Unlock()
	if len(pwm.active) == 0 {
		return fmt.Errorf("no payment in progress")
	}
	current := pwm.active[len(pwm.active)-1]
	if current.id != id {
		return fmt.Errorf("payment mismatch: expected %s, got %s", current.id, id)
	}
	pwm.active = pwm.active[:len(pwm.active)-1]
	return nil
}

// GetActivePayment returns the innermost open payment, or nil.
func (pwm *PaymentWindowManager) GetActivePayment() *PaymentState {
	pwm.mu.RLock()
	defer pwm.mu.RUnlock()
	if len(pwm.active) == 0 {
		return nil
	}
	return pwm.active[len(pwm.active)-1]
}

// IsPaymentInProgress returns true if a payment is in progress.
func (pwm *PaymentWindowManager) IsPaymentInProgress() bool {
	pwm.mu.RLock()
	defer pwm.mu.RUnlock()
	return len(pwm.active) > 0
}

// Reset closes every window.
func (pwm *PaymentWindowManager) Reset() {
	pwm.mu.Lock()
	defer pwm.mu.Unlock()
	pwm.active = nil
}
