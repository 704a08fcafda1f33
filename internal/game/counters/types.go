package counters

import (
	"strconv"
	"strings"
)

// CounterType names a kind of counter.
type CounterType string

const (
	CounterTypeLoyalty CounterType = "loyalty"
	CounterTypePoison  CounterType = "poison"
	CounterTypeCharge  CounterType = "charge"
	CounterTypeTime    CounterType = "time"
	CounterTypeShield  CounterType = "shield"
	CounterTypeStun    CounterType = "stun"

	// Power/toughness boost counters
	CounterTypeP1P1 CounterType = "+1/+1"
	CounterTypeM1M1 CounterType = "-1/-1"
	CounterTypeP2P2 CounterType = "+2/+2"
	CounterTypeM2M2 CounterType = "-2/-2"
	CounterTypeP1P0 CounterType = "+1/+0"
	CounterTypeP0P1 CounterType = "+0/+1"
	CounterTypeM1M0 CounterType = "-1/+0"
	CounterTypeM0M1 CounterType = "+0/-1"
)

func (ct CounterType) String() string {
	return string(ct)
}

// Boost returns the power and toughness change a single counter of this type
// gives. ok is false for counters that do not modify power or toughness.
func (ct CounterType) Boost() (power, toughness int, ok bool) {
	p, t, found := strings.Cut(string(ct), "/")
	if !found {
		return 0, 0, false
	}
	power, okP := parseBoostValue(p)
	toughness, okT := parseBoostValue(t)
	if !okP || !okT {
		return 0, 0, false
	}
	return power, toughness, true
}

// BoostCounterType returns the counter type for a power/toughness change,
// e.g. (1, 1) is "+1/+1".
func BoostCounterType(power, toughness int) CounterType {
	return CounterType(formatBoost(power) + "/" + formatBoost(toughness))
}

func formatBoost(v int) string {
	if v < 0 {
		return strconv.Itoa(v)
	}
	return "+" + strconv.Itoa(v)
}

func parseBoostValue(s string) (int, bool) {
	if len(s) < 2 || (s[0] != '+' && s[0] != '-') {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}
