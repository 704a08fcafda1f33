package effects

import (
	"fmt"
	"slices"
	"sync"

	"github.com/magefree/mage-rules-go/internal/game/rules"
	"go.uber.org/zap"
)

// maxReplacementIterations bounds one replacement chain.
const maxReplacementIterations = 100

// ReplacementManager tracks the active replacement and prevention effects of
// a game and applies them to events before the engine performs them.
//
// Effects are kept in the order they were added. When several effects apply
// to one event, self-replacement effects go first and the rest apply in
// that order; each effect applies at most once per event.
type ReplacementManager struct {
	mu      sync.RWMutex
	effects []ReplacementEffect
	logger  *zap.Logger
}

// NewReplacementManager creates a new replacement effect manager
func NewReplacementManager(logger *zap.Logger) *ReplacementManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplacementManager{logger: logger}
}

// AddEffect adds a replacement effect to the manager
func (rm *ReplacementManager) AddEffect(effect ReplacementEffect) {
	if effect == nil {
		rm.logger.Warn("attempted to add nil replacement effect")
		return
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.effects = append(rm.effects, effect)

	rm.logger.Debug("added replacement effect",
		zap.String("effect_id", effect.ID()),
		zap.String("source_id", effect.SourceID()),
		zap.Bool("self_replacement", effect.IsSelfReplacement()),
		zap.Bool("self_scope", effect.HasSelfScope()))
}

// RemoveEffect removes a replacement effect from the manager
func (rm *ReplacementManager) RemoveEffect(effectID string) {
	rm.removeWhere(func(e ReplacementEffect) bool { return e.ID() == effectID })
}

// RemoveBySource removes every effect created by sourceID.
func (rm *ReplacementManager) RemoveBySource(sourceID string) int {
	return rm.removeWhere(func(e ReplacementEffect) bool { return e.SourceID() == sourceID })
}

// RemoveExpired removes WhileOnBattlefield effects whose source is gone.
func (rm *ReplacementManager) RemoveExpired(onBattlefield func(id string) bool) int {
	return rm.removeWhere(func(e ReplacementEffect) bool {
		return e.Duration() == DurationWhileOnBattlefield && !onBattlefield(e.SourceID())
	})
}

// CleanupEndOfTurn removes effects lasting until end of turn or combat.
func (rm *ReplacementManager) CleanupEndOfTurn() int {
	return rm.removeWhere(func(e ReplacementEffect) bool {
		return e.Duration() == DurationEndOfTurn || e.Duration() == DurationEndOfCombat
	})
}

func (rm *ReplacementManager) removeWhere(pred func(ReplacementEffect) bool) int {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	before := len(rm.effects)
	rm.effects = slices.DeleteFunc(rm.effects, pred)
	removed := before - len(rm.effects)
	if removed > 0 {
		rm.logger.Debug("removed replacement effects", zap.Int("removed", removed))
	}
	return removed
}

// GetEffect retrieves a replacement effect by ID
func (rm *ReplacementManager) GetEffect(effectID string) (ReplacementEffect, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	for _, e := range rm.effects {
		if e.ID() == effectID {
			return e, true
		}
	}
	return nil, false
}

// GetEffects returns all active replacement effects in the order added
func (rm *ReplacementManager) GetEffects() []ReplacementEffect {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return slices.Clone(rm.effects)
}

// ClearEffects removes all replacement effects
func (rm *ReplacementManager) ClearEffects() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.effects = nil
	rm.logger.Debug("cleared all replacement effects")
}

// ReplaceEvent applies every applicable replacement effect to event, one at
// a time, until none is left or one replaces the event completely. The
// second result reports a completely replaced event, which must not be
// performed. One-use effects and spent shields are discarded.
func (rm *ReplacementManager) ReplaceEvent(event rules.Event) (rules.Event, bool) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	applied := make(map[string]bool, len(event.AppliedEffects))
	for _, id := range event.AppliedEffects {
		applied[id] = true
	}

	var consumed []string
	replaced := false
	iteration := 0
	for ; iteration < maxReplacementIterations; iteration++ {
		chosen := rm.choose(event, applied)
		if chosen == nil {
			break
		}

		var complete bool
		event, complete = chosen.ReplaceEvent(event)
		applied[chosen.ID()] = true
		event.AppliedEffects = append(event.AppliedEffects, chosen.ID())

		rm.logger.Debug("applied replacement effect",
			zap.String("effect_id", chosen.ID()),
			zap.String("event_type", string(event.Type)),
			zap.Bool("completely_replaced", complete),
			zap.Int("iteration", iteration))

		if chosen.Duration() == DurationOneUse {
			consumed = append(consumed, chosen.ID())
		} else if p, ok := chosen.(PreventionEffect); ok && p.Exhausted() {
			consumed = append(consumed, chosen.ID())
		}
		if complete {
			replaced = true
			break
		}
	}

	if iteration >= maxReplacementIterations {
		rm.logger.Error("replacement effect loop exceeded maximum iterations",
			zap.String("event_type", string(event.Type)),
			zap.Int("max_iterations", maxReplacementIterations))
	}
	if len(consumed) > 0 {
		rm.effects = slices.DeleteFunc(rm.effects, func(e ReplacementEffect) bool {
			return slices.Contains(consumed, e.ID())
		})
	}
	return event, replaced
}

// choose picks the next effect: the first applicable self-replacement
// effect, otherwise the first applicable effect.
func (rm *ReplacementManager) choose(event rules.Event, applied map[string]bool) ReplacementEffect {
	var first ReplacementEffect
	for _, e := range rm.effects {
		if applied[e.ID()] || !e.ChecksEventType(event.Type) || !e.Applies(event) {
			continue
		}
		if !e.HasSelfScope() && event.SourceID == e.SourceID() {
			continue
		}
		if e.IsSelfReplacement() {
			return e
		}
		if first == nil {
			first = e
		}
	}
	return first
}

// GetApplicableEffects returns all replacement effects that could apply to the given event type
func (rm *ReplacementManager) GetApplicableEffects(eventType rules.EventType) []ReplacementEffect {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	var applicable []ReplacementEffect
	for _, effect := range rm.effects {
		if effect.ChecksEventType(eventType) {
			applicable = append(applicable, effect)
		}
	}
	return applicable
}

// HasApplicableEffects checks if there are any replacement effects that could apply to the given event type
func (rm *ReplacementManager) HasApplicableEffects(eventType rules.EventType) bool {
	return len(rm.GetApplicableEffects(eventType)) > 0
}

// Stats returns statistics about the replacement manager
func (rm *ReplacementManager) Stats() ReplacementManagerStats {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	stats := ReplacementManagerStats{TotalEffects: len(rm.effects)}
	for _, effect := range rm.effects {
		if effect.IsSelfReplacement() {
			stats.SelfReplacementCount++
		}
		if _, ok := effect.(PreventionEffect); ok {
			stats.PreventionEffectCount++
		}
	}
	return stats
}

// ReplacementManagerStats contains statistics about the replacement manager
type ReplacementManagerStats struct {
	TotalEffects          int
	SelfReplacementCount  int
	PreventionEffectCount int
}

// String returns a string representation of the stats
func (s ReplacementManagerStats) String() string {
	return fmt.Sprintf("ReplacementManager[total=%d, self=%d, prevention=%d]",
		s.TotalEffects, s.SelfReplacementCount, s.PreventionEffectCount)
}
