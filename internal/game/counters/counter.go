package counters

import "sort"

// Counters is the collection of counters on one object or player. Iteration
// helpers return counter types sorted by name so callers see a stable order.
type Counters struct {
	counts map[CounterType]int
}

// NewCounters creates an empty collection.
func NewCounters() *Counters {
	return &Counters{counts: make(map[CounterType]int)}
}

// Add puts amount counters of counterType. Non-positive amounts are ignored.
func (cs *Counters) Add(counterType CounterType, amount int) {
	if amount <= 0 {
		return
	}
	if cs.counts == nil {
		cs.counts = make(map[CounterType]int)
	}
	cs.counts[counterType] += amount
}

// Remove takes up to amount counters of counterType away and returns how many
// were actually removed.
func (cs *Counters) Remove(counterType CounterType, amount int) int {
	have := cs.counts[counterType]
	if amount <= 0 || have == 0 {
		return 0
	}
	removed := min(amount, have)
	if removed == have {
		delete(cs.counts, counterType)
	} else {
		cs.counts[counterType] = have - removed
	}
	return removed
}

// Get returns the number of counters of counterType.
func (cs *Counters) Get(counterType CounterType) int {
	return cs.counts[counterType]
}

// Has reports whether at least one counter of counterType is present.
func (cs *Counters) Has(counterType CounterType) bool {
	return cs.counts[counterType] > 0
}

// Total returns the number of counters of every type.
func (cs *Counters) Total() int {
	total := 0
	for _, n := range cs.counts {
		total += n
	}
	return total
}

// Types returns the present counter types sorted by name.
func (cs *Counters) Types() []CounterType {
	types := make([]CounterType, 0, len(cs.counts))
	for ct := range cs.counts {
		types = append(types, ct)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Boost sums the power/toughness change of all boost counters.
func (cs *Counters) Boost() (power, toughness int) {
	for ct, n := range cs.counts {
		if p, t, ok := ct.Boost(); ok {
			power += p * n
			toughness += t * n
		}
	}
	return power, toughness
}

// Annihilate removes +1/+1 and -1/-1 counters in pairs and returns the number
// of pairs removed.
func (cs *Counters) Annihilate() int {
	pairs := min(cs.Get(CounterTypeP1P1), cs.Get(CounterTypeM1M1))
	if pairs == 0 {
		return 0
	}
	cs.Remove(CounterTypeP1P1, pairs)
	cs.Remove(CounterTypeM1M1, pairs)
	return pairs
}

// Clear removes every counter.
func (cs *Counters) Clear() {
	cs.counts = make(map[CounterType]int)
}

// Copy creates a deep copy of the collection.
func (cs *Counters) Copy() *Counters {
	cp := NewCounters()
	for ct, n := range cs.counts {
		cp.counts[ct] = n
	}
	return cp
}

// CounterView is a counter type with its count.
type CounterView struct {
	Name  string
	Count int
}

// ToView lists the counters sorted by name.
func (cs *Counters) ToView() []CounterView {
	var views []CounterView
	for _, ct := range cs.Types() {
		views = append(views, CounterView{Name: string(ct), Count: cs.counts[ct]})
	}
	return views
}
