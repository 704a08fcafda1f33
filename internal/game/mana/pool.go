package mana

import (
	"fmt"
	"strings"
	"sync"
)

// ManaType represents a type of mana.
type ManaType string

const (
	ManaWhite     ManaType = "WHITE"
	ManaBlue      ManaType = "BLUE"
	ManaBlack     ManaType = "BLACK"
	ManaRed       ManaType = "RED"
	ManaGreen     ManaType = "GREEN"
	ManaColorless ManaType = "COLORLESS"
)

// ManaTypes lists every mana type in WUBRGC order.
var ManaTypes = []ManaType{ManaWhite, ManaBlue, ManaBlack, ManaRed, ManaGreen, ManaColorless}

var symbols = map[ManaType]string{
	ManaWhite:     "W",
	ManaBlue:      "U",
	ManaBlack:     "B",
	ManaRed:       "R",
	ManaGreen:     "G",
	ManaColorless: "C",
}

// Symbol returns the one-letter symbol, e.g. "G".
func (mt ManaType) Symbol() string {
	return symbols[mt]
}

// ParseManaType maps a symbol such as "G" to its mana type.
func ParseManaType(symbol string) (ManaType, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	for mt, s := range symbols {
		if s == symbol {
			return mt, true
		}
	}
	return "", false
}

// ManaPool holds the unspent mana of one player. It empties at the end of
// every step.
type ManaPool struct {
	mu      sync.RWMutex
	amounts map[ManaType]int
}

// NewManaPool creates a new empty mana pool.
func NewManaPool() *ManaPool {
	return &ManaPool{amounts: make(map[ManaType]int)}
}

// Add adds mana to the pool.
func (mp *ManaPool) Add(manaType ManaType, amount int) {
	if amount <= 0 || symbols[manaType] == "" {
		return
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.amounts[manaType] += amount
}

// Get returns the amount of manaType available.
func (mp *ManaPool) Get(manaType ManaType) int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.amounts[manaType]
}

// Total returns the amount of mana of all types.
func (mp *ManaPool) Total() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	total := 0
	for _, n := range mp.amounts {
		total += n
	}
	return total
}

// Spend removes amount of manaType. It reports false and leaves the pool
// untouched when not enough is available.
func (mp *ManaPool) Spend(manaType ManaType, amount int) bool {
	if amount <= 0 {
		return true
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if mp.amounts[manaType] < amount {
		return false
	}
	mp.amounts[manaType] -= amount
	return true
}

// Empty clears the pool and returns how much mana was lost.
func (mp *ManaPool) Empty() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	lost := 0
	for _, n := range mp.amounts {
		lost += n
	}
	mp.amounts = make(map[ManaType]int)
	return lost
}

// Copy returns an independent pool with the same content.
func (mp *ManaPool) Copy() *ManaPool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	cp := NewManaPool()
	for mt, n := range mp.amounts {
		cp.amounts[mt] = n
	}
	return cp
}

// String renders the pool as symbols in WUBRGC order, e.g. "{G}{G}{C}".
func (mp *ManaPool) String() string {
	var b strings.Builder
	for _, mt := range ManaTypes {
		for i := 0; i < mp.Get(mt); i++ {
			fmt.Fprintf(&b, "{%s}", mt.Symbol())
		}
	}
	return b.String()
}
