package mana

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var symbolPattern = regexp.MustCompile(`\{([^}]+)\}`)

// ManaCost represents a parsed mana cost.
type ManaCost struct {
	Generic   int
	White     int
	Blue      int
	Black     int
	Red       int
	Green     int
	Colorless int
	X         bool
}

// ParseCost parses a mana cost string such as "{1}{G}", "{2}{R}{R}" or
// "{X}{R}". Hybrid and phyrexian symbols are rejected.
func ParseCost(costStr string) (*ManaCost, error) {
	cost := &ManaCost{}
	if strings.TrimSpace(costStr) == "" {
		return cost, nil
	}

	matches := symbolPattern.FindAllStringSubmatch(costStr, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("invalid mana cost %q", costStr)
	}
	for _, match := range matches {
		symbol := strings.ToUpper(strings.TrimSpace(match[1]))
		if symbol == "X" {
			cost.X = true
			continue
		}
		if mt, ok := ParseManaType(symbol); ok {
			cost.add(mt, 1)
			continue
		}
		num, err := strconv.Atoi(symbol)
		if err != nil || num < 0 {
			return nil, fmt.Errorf("unknown mana symbol: {%s}", symbol)
		}
		cost.Generic += num
	}
	return cost, nil
}

// MustParseCost is ParseCost for constant card definitions.
func MustParseCost(costStr string) *ManaCost {
	cost, err := ParseCost(costStr)
	if err != nil {
		panic(err)
	}
	return cost
}

// Amount returns the colored or colorless requirement of manaType.
func (mc *ManaCost) Amount(manaType ManaType) int {
	switch manaType {
	case ManaWhite:
		return mc.White
	case ManaBlue:
		return mc.Blue
	case ManaBlack:
		return mc.Black
	case ManaRed:
		return mc.Red
	case ManaGreen:
		return mc.Green
	case ManaColorless:
		return mc.Colorless
	default:
		return 0
	}
}

func (mc *ManaCost) add(manaType ManaType, n int) {
	switch manaType {
	case ManaWhite:
		mc.White = max(0, mc.White+n)
	case ManaBlue:
		mc.Blue = max(0, mc.Blue+n)
	case ManaBlack:
		mc.Black = max(0, mc.Black+n)
	case ManaRed:
		mc.Red = max(0, mc.Red+n)
	case ManaGreen:
		mc.Green = max(0, mc.Green+n)
	case ManaColorless:
		mc.Colorless = max(0, mc.Colorless+n)
	}
}

// ManaValue returns the total amount of mana in the cost, counting X as
// xValue.
func (mc *ManaCost) ManaValue(xValue int) int {
	total := mc.Generic
	for _, mt := range ManaTypes {
		total += mc.Amount(mt)
	}
	if mc.X && xValue > 0 {
		total += xValue
	}
	return total
}

// Colors returns the colored mana types the cost requires, in WUBRG order.
func (mc *ManaCost) Colors() []ManaType {
	var colors []ManaType
	for _, mt := range ManaTypes {
		if mt != ManaColorless && mc.Amount(mt) > 0 {
			colors = append(colors, mt)
		}
	}
	return colors
}

// IsZero reports whether the cost requires no mana.
func (mc *ManaCost) IsZero() bool {
	return !mc.X && mc.ManaValue(0) == 0
}

// Copy returns an independent copy.
func (mc *ManaCost) Copy() *ManaCost {
	cp := *mc
	return &cp
}

// String renders the cost in symbol form, e.g. "{X}{2}{R}{R}".
func (mc *ManaCost) String() string {
	var b strings.Builder
	if mc.X {
		b.WriteString("{X}")
	}
	if mc.Generic > 0 {
		fmt.Fprintf(&b, "{%d}", mc.Generic)
	}
	for _, mt := range ManaTypes {
		for i := 0; i < mc.Amount(mt); i++ {
			fmt.Fprintf(&b, "{%s}", mt.Symbol())
		}
	}
	if b.Len() == 0 {
		return "{0}"
	}
	return b.String()
}
