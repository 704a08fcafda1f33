package mana

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatePayment(t *testing.T) {
	pool := NewManaPool()
	pool.Add(ManaWhite, 1)
	pool.Add(ManaBlue, 2)
	pool.Add(ManaGreen, 1)

	plan, err := CalculatePayment(MustParseCost("{1}{G}"), pool, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Spent[ManaGreen])
	assert.Equal(t, 1, plan.Spent[ManaWhite], "generic is paid in WUBRG order")
	assert.Equal(t, 2, plan.Total())
	assert.Equal(t, 4, pool.Total(), "planning does not spend")
}

func TestCalculatePaymentPrefersColorlessForGeneric(t *testing.T) {
	pool := NewManaPool()
	pool.Add(ManaColorless, 1)
	pool.Add(ManaRed, 2)

	plan, err := CalculatePayment(MustParseCost("{1}{R}"), pool, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Spent[ManaColorless])
	assert.Equal(t, 1, plan.Spent[ManaRed])
}

func TestCalculatePaymentInsufficient(t *testing.T) {
	pool := NewManaPool()
	pool.Add(ManaGreen, 1)

	_, err := CalculatePayment(MustParseCost("{3}{G}"), pool, 0)
	assert.ErrorIs(t, err, ErrInsufficientMana)

	_, err = CalculatePayment(MustParseCost("{U}"), pool, 0)
	assert.ErrorIs(t, err, ErrInsufficientMana)
}

func TestPayWithX(t *testing.T) {
	pool := NewManaPool()
	pool.Add(ManaRed, 4)

	plan, err := Pay(MustParseCost("{X}{R}"), pool, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, plan.Total())
	assert.Equal(t, 0, pool.Total())

	_, err = Pay(MustParseCost("{X}"), pool, -1)
	assert.Error(t, err)
}

func TestExecutePaymentIsAllOrNothing(t *testing.T) {
	pool := NewManaPool()
	pool.Add(ManaGreen, 1)
	plan := &PaymentPlan{Spent: map[ManaType]int{ManaGreen: 1, ManaBlue: 1}}

	assert.ErrorIs(t, ExecutePayment(plan, pool), ErrInsufficientMana)
	assert.Equal(t, 1, pool.Get(ManaGreen))
}
