package effects

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/magefree/mage-rules-go/internal/game/mana"
)

// CostModifier is a continuous effect that changes the cost of spells.
type CostModifier struct {
	ID         string
	SourceID   string
	Controller string
	Duration   Duration
	Timestamp  int64
	// Applies selects the spells affected. spell holds the spell's current
	// characteristics and caster the player casting it.
	Applies    func(spell *Snapshot, caster string) bool
	Adjustment mana.CostAdjustment
}

// CostModifiers keeps the active cost modification effects.
type CostModifiers struct {
	mu    sync.RWMutex
	mods  []*CostModifier
	clock int64
}

// NewCostModifiers creates an empty set.
func NewCostModifiers() *CostModifiers {
	return &CostModifiers{}
}

// Add registers m and returns its id.
func (cm *CostModifiers) Add(m CostModifier) string {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if m.Timestamp == 0 {
		cm.clock++
		m.Timestamp = cm.clock
	} else if m.Timestamp > cm.clock {
		cm.clock = m.Timestamp
	}
	if m.Duration == "" {
		m.Duration = DurationWhileOnBattlefield
	}
	if m.ID == "" {
		seed := fmt.Sprintf("%s|cost|%d|%d", m.SourceID, m.Timestamp, len(cm.mods))
		m.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
	}
	m.Adjustment.SourceID = m.SourceID
	cm.mods = append(cm.mods, &m)
	return m.ID
}

// Remove deletes the modifier with the given id.
func (cm *CostModifiers) Remove(id string) bool {
	return cm.removeWhere(func(m *CostModifier) bool { return m.ID == id }) > 0
}

// RemoveBySource deletes every modifier created by sourceID.
func (cm *CostModifiers) RemoveBySource(sourceID string) int {
	return cm.removeWhere(func(m *CostModifier) bool { return m.SourceID == sourceID })
}

// RemoveExpired drops modifiers whose source left the battlefield.
func (cm *CostModifiers) RemoveExpired(onBattlefield func(id string) bool) int {
	return cm.removeWhere(func(m *CostModifier) bool {
		return m.Duration == DurationWhileOnBattlefield && !onBattlefield(m.SourceID)
	})
}

// CleanupEndOfTurn drops end-of-turn modifiers.
func (cm *CostModifiers) CleanupEndOfTurn() int {
	return cm.removeWhere(func(m *CostModifier) bool { return m.Duration == DurationEndOfTurn })
}

func (cm *CostModifiers) removeWhere(pred func(*CostModifier) bool) int {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	kept := cm.mods[:0]
	removed := 0
	for _, m := range cm.mods {
		if pred(m) {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	clear(cm.mods[len(kept):])
	cm.mods = kept
	return removed
}

// Len returns the number of active modifiers.
func (cm *CostModifiers) Len() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.mods)
}

// Adjustments returns the adjustments that apply to spell, in timestamp
// order.
func (cm *CostModifiers) Adjustments(spell *Snapshot, caster string) []mana.CostAdjustment {
	cm.mu.RLock()
	mods := append([]*CostModifier(nil), cm.mods...)
	cm.mu.RUnlock()

	sort.SliceStable(mods, func(i, j int) bool { return mods[i].Timestamp < mods[j].Timestamp })
	var out []mana.CostAdjustment
	for _, m := range mods {
		if m.Applies == nil || m.Applies(spell, caster) {
			out = append(out, m.Adjustment)
		}
	}
	return out
}

// Apply returns cost after every applicable modifier.
func (cm *CostModifiers) Apply(cost *mana.ManaCost, spell *Snapshot, caster string) *mana.ManaCost {
	return mana.ApplyAdjustments(cost, cm.Adjustments(spell, caster))
}
