package mana

import "sort"

// CostAdjustment changes a cost. Positive amounts increase it and negative
// amounts reduce it; a cost never drops below zero.
type CostAdjustment struct {
	SourceID string
	Generic  int
	Colored  map[ManaType]int
}

// IsIncrease reports whether the adjustment adds mana overall.
func (a CostAdjustment) IsIncrease() bool {
	total := a.Generic
	for _, n := range a.Colored {
		total += n
	}
	return total > 0
}

// ApplyTo returns a copy of cost with the adjustment applied.
func (a CostAdjustment) ApplyTo(cost *ManaCost) *ManaCost {
	out := cost.Copy()
	out.Generic = max(0, out.Generic+a.Generic)
	for _, mt := range ManaTypes {
		if n, ok := a.Colored[mt]; ok {
			out.add(mt, n)
		}
	}
	return out
}

// ApplyAdjustments applies every increase before any reduction, each group
// in the given order, so reductions see the full increased cost.
func ApplyAdjustments(cost *ManaCost, adjustments []CostAdjustment) *ManaCost {
	ordered := append([]CostAdjustment(nil), adjustments...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].IsIncrease() && !ordered[j].IsIncrease()
	})
	out := cost.Copy()
	for _, adj := range ordered {
		out = adj.ApplyTo(out)
	}
	return out
}
