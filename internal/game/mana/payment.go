package mana

import (
	"errors"
	"fmt"
)

// ErrInsufficientMana is returned when a pool cannot pay a cost.
var ErrInsufficientMana = errors.New("insufficient mana")

// PaymentPlan records exactly which mana pays a cost.
type PaymentPlan struct {
	Spent  map[ManaType]int
	XValue int
}

// Total returns the amount of mana the plan spends.
func (p *PaymentPlan) Total() int {
	total := 0
	for _, n := range p.Spent {
		total += n
	}
	return total
}

// CalculatePayment plans paying cost from pool without touching it. Colored
// requirements are paid first; generic is paid from colorless mana and then
// from colors in WUBRG order.
func CalculatePayment(cost *ManaCost, pool *ManaPool, xValue int) (*PaymentPlan, error) {
	plan := &PaymentPlan{Spent: make(map[ManaType]int), XValue: xValue}
	if cost == nil {
		return plan, nil
	}
	if cost.X && xValue < 0 {
		return nil, fmt.Errorf("x value must not be negative, got %d", xValue)
	}

	test := pool.Copy()
	for _, mt := range ManaTypes {
		need := cost.Amount(mt)
		if !test.Spend(mt, need) {
			return nil, fmt.Errorf("%w: need %d %s, have %d", ErrInsufficientMana, need, mt, test.Get(mt))
		}
		if need > 0 {
			plan.Spent[mt] += need
		}
	}

	generic := cost.Generic
	if cost.X {
		generic += xValue
	}
	if have := test.Total(); have < generic {
		return nil, fmt.Errorf("%w: need %d generic, have %d", ErrInsufficientMana, generic, have)
	}
	order := append([]ManaType{ManaColorless}, ManaTypes[:5]...)
	for _, mt := range order {
		if generic == 0 {
			break
		}
		spend := min(generic, test.Get(mt))
		if spend > 0 {
			test.Spend(mt, spend)
			plan.Spent[mt] += spend
			generic -= spend
		}
	}
	return plan, nil
}

// ExecutePayment spends the plan from pool. Either all of it is spent or,
// on error, nothing is.
func ExecutePayment(plan *PaymentPlan, pool *ManaPool) error {
	if plan == nil {
		return nil
	}
	for mt, n := range plan.Spent {
		if pool.Get(mt) < n {
			return fmt.Errorf("%w: plan needs %d %s", ErrInsufficientMana, n, mt)
		}
	}
	for mt, n := range plan.Spent {
		pool.Spend(mt, n)
	}
	return nil
}

// Pay plans and executes a payment in one go.
func Pay(cost *ManaCost, pool *ManaPool, xValue int) (*PaymentPlan, error) {
	plan, err := CalculatePayment(cost, pool, xValue)
	if err != nil {
		return nil, err
	}
	if err := ExecutePayment(plan, pool); err != nil {
		return nil, err
	}
	return plan, nil
}
