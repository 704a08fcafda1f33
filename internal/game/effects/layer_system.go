package effects

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/magefree/mage-rules-go/internal/game/rules"
	"go.uber.org/zap"
)

// Entry is an active continuous effect together with its bookkeeping.
type Entry struct {
	ID         string
	Effect     ContinuousEffect
	SourceID   string
	AbilityID  string // static ability generating the effect, if any
	Controller string
	Duration   Duration
	Timestamp  int64
	// Group links the entries of one effect that spans several layers.
	Group   string
	Expired func(World) bool

	seq int
}

// Layer returns the layer of the wrapped effect.
func (e *Entry) Layer() Layer { return e.Effect.Layer() }

// LayerSystem holds the active continuous effects and recomputes
// characteristics from base values on every query. Nothing is cached between
// queries.
type LayerSystem struct {
	mu      sync.RWMutex
	entries []*Entry
	clock   int64
	seq     int
	logger  *zap.Logger
	onCycle func(layer Layer, entryIDs []string)
}

// NewLayerSystem creates an empty layer system.
func NewLayerSystem(logger *zap.Logger) *LayerSystem {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LayerSystem{logger: logger}
}

// OnDependencyCycle registers a callback invoked whenever a query had to
// break a dependency cycle.
func (ls *LayerSystem) OnDependencyCycle(fn func(layer Layer, entryIDs []string)) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.onCycle = fn
}

// NextTimestamp returns a timestamp newer than every timestamp seen so far.
func (ls *LayerSystem) NextTimestamp() int64 {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.clock++
	return ls.clock
}

// Add registers an entry and returns its id. A zero timestamp is replaced
// with the next timestamp.
func (ls *LayerSystem) Add(entry Entry) string {
	if entry.Effect == nil {
		ls.logger.Warn("attempted to add nil continuous effect", zap.String("source_id", entry.SourceID))
		return ""
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.addLocked(&entry)
}

// AddGroup registers entries belonging to one effect. They share a
// timestamp and, once the first of them applies, the rest keep applying to
// the same objects even if those stop matching.
func (ls *LayerSystem) AddGroup(entries ...Entry) []string {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	var ids []string
	var group string
	var ts int64
	for i := range entries {
		e := entries[i]
		if e.Effect == nil {
			continue
		}
		if ts != 0 {
			e.Timestamp = ts
		}
		e.Group = group
		id := ls.addLocked(&e)
		if group == "" {
			group, ts = id, e.Timestamp
			e.Group = group
		}
		ids = append(ids, id)
	}
	return ids
}

func (ls *LayerSystem) addLocked(e *Entry) string {
	if e.Timestamp == 0 {
		ls.clock++
		e.Timestamp = ls.clock
	} else if e.Timestamp > ls.clock {
		ls.clock = e.Timestamp
	}
	if e.Duration == "" {
		e.Duration = DurationPermanent
	}
	ls.seq++
	e.seq = ls.seq
	if e.ID == "" {
		seed := fmt.Sprintf("%s|%s|%d|%d|%d", e.SourceID, e.AbilityID, e.Effect.Layer(), e.Timestamp, e.seq)
		e.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
	}
	ls.entries = append(ls.entries, e)

	ls.logger.Debug("added continuous effect",
		zap.String("effect_id", e.ID),
		zap.String("source_id", e.SourceID),
		zap.String("layer", e.Effect.Layer().String()),
		zap.Int64("timestamp", e.Timestamp),
		zap.String("duration", string(e.Duration)))
	return e.ID
}

// Remove deletes the entry with the given id.
func (ls *LayerSystem) Remove(id string) bool {
	return len(ls.removeWhere(func(e *Entry) bool { return e.ID == id })) > 0
}

// RemoveBySource deletes every entry created by sourceID.
func (ls *LayerSystem) RemoveBySource(sourceID string) []string {
	return ls.removeWhere(func(e *Entry) bool { return e.SourceID == sourceID })
}

// RemoveExpired discards entries whose source left the battlefield or whose
// custom duration ended.
func (ls *LayerSystem) RemoveExpired(w World) []string {
	return ls.removeWhere(func(e *Entry) bool { return !isActive(e, w) })
}

// CleanupEndOfTurn discards "until end of turn" and "until end of combat"
// entries.
func (ls *LayerSystem) CleanupEndOfTurn() []string {
	return ls.removeWhere(func(e *Entry) bool {
		return e.Duration == DurationEndOfTurn || e.Duration == DurationEndOfCombat
	})
}

// CleanupEndOfCombat discards "until end of combat" entries.
func (ls *LayerSystem) CleanupEndOfCombat() []string {
	return ls.removeWhere(func(e *Entry) bool { return e.Duration == DurationEndOfCombat })
}

// Clear removes every entry.
func (ls *LayerSystem) Clear() {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.entries = nil
}

func (ls *LayerSystem) removeWhere(pred func(*Entry) bool) []string {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	var removed []string
	kept := ls.entries[:0]
	for _, e := range ls.entries {
		if pred(e) {
			removed = append(removed, e.ID)
			continue
		}
		kept = append(kept, e)
	}
	clear(ls.entries[len(kept):])
	ls.entries = kept

	if len(removed) > 0 {
		ls.logger.Debug("removed continuous effects", zap.Strings("effect_ids", removed))
	}
	return removed
}

// Get returns a copy of the entry with the given id.
func (ls *LayerSystem) Get(id string) (Entry, bool) {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	for _, e := range ls.entries {
		if e.ID == id {
			return *e, true
		}
	}
	return Entry{}, false
}

// Entries returns copies of all entries in timestamp order.
func (ls *LayerSystem) Entries() []Entry {
	sorted := ls.sorted()
	out := make([]Entry, len(sorted))
	for i, e := range sorted {
		out[i] = *e
	}
	return out
}

// Len returns the number of active entries.
func (ls *LayerSystem) Len() int {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return len(ls.entries)
}

func (ls *LayerSystem) sorted() []*Entry {
	ls.mu.RLock()
	out := slices.Clone(ls.entries)
	ls.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// Characteristics returns the fully computed characteristics of objectID.
func (ls *LayerSystem) Characteristics(objectID string, w World) (*Snapshot, error) {
	objs, err := ls.compute(w, LayerOther, objectID)
	if err != nil {
		return nil, err
	}
	return objs[objectID], nil
}

// Characteristic returns one characteristic of objectID, evaluating layers
// only as far as field requires.
func (ls *LayerSystem) Characteristic(objectID string, field Field, w World) (any, error) {
	objs, err := ls.compute(w, field.LastLayer(), objectID)
	if err != nil {
		return nil, err
	}
	return objs[objectID].Value(field), nil
}

// ComputeAll returns the characteristics of every object in w.
func (ls *LayerSystem) ComputeAll(w World) map[string]*Snapshot {
	objs, _ := ls.compute(w, LayerOther, "")
	return objs
}

// pass is the working state of a single query.
type pass struct {
	w       World
	objs    map[string]*Snapshot
	order   []string
	started map[string][]string // group -> objects it applied to
}

func (ls *LayerSystem) compute(w World, through Layer, objectID string) (map[string]*Snapshot, error) {
	ids := w.ObjectIDs()
	if objectID != "" && !slices.Contains(ids, objectID) {
		ids = append(ids, objectID)
	}
	p := &pass{
		w:       w,
		objs:    make(map[string]*Snapshot, len(ids)),
		order:   make([]string, 0, len(ids)),
		started: make(map[string][]string),
	}
	for _, id := range ids {
		if _, dup := p.objs[id]; dup {
			continue
		}
		base, ok := w.BaseCharacteristics(id)
		if !ok {
			continue
		}
		base.ObjectID = id
		p.objs[id] = base
		p.order = append(p.order, id)
	}
	if objectID != "" {
		if _, ok := p.objs[objectID]; !ok {
			return nil, fmt.Errorf("characteristics of %s: %w", objectID, rules.ErrMissingReference)
		}
	}

	var active []*Entry
	for _, e := range ls.sorted() {
		if isActive(e, w) {
			active = append(active, e)
		}
	}

	for _, layer := range layerOrder {
		if layer > through {
			break
		}
		var inLayer []*Entry
		for _, e := range active {
			if e.Layer() == layer {
				inLayer = append(inLayer, e)
			}
		}
		if layer != LayerPTAdjusting {
			ls.applyLayer(p, layer, inLayer)
			continue
		}
		for _, sub := range subLayerOrder {
			if sub == SubLayerCounters {
				applyCounters(p)
				continue
			}
			var inSub []*Entry
			for _, e := range inLayer {
				if subLayerOf(e.Effect) == sub {
					inSub = append(inSub, e)
				}
			}
			ls.applyLayer(p, layer, inSub)
		}
	}
	return p.objs, nil
}

func isActive(e *Entry, w World) bool {
	switch e.Duration {
	case DurationWhileOnBattlefield:
		return w.IsOnBattlefield(e.SourceID)
	case DurationCustom:
		return e.Expired == nil || !e.Expired(w)
	default:
		return true
	}
}

// exists reports whether the entry's generating ability is still present.
// An effect that already started in an earlier layer keeps applying.
func (p *pass) exists(e *Entry) bool {
	if _, ok := p.started[e.Group]; ok && e.Group != "" {
		return true
	}
	if e.AbilityID == "" {
		return true
	}
	src, ok := p.objs[e.SourceID]
	return ok && src.HasAbility(e.AbilityID)
}

func (ls *LayerSystem) applyLayer(p *pass, layer Layer, entries []*Entry) {
	if len(entries) == 0 {
		return
	}
	live := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if p.exists(e) {
			live = append(live, e)
		}
	}
	for _, e := range ls.orderByDependency(p, layer, live) {
		if !p.exists(e) {
			continue
		}
		ctx := &Context{World: p.w, Entry: e, objects: p.objs}
		if locked, ok := p.started[e.Group]; ok && e.Group != "" {
			for _, id := range locked {
				if s, ok := p.objs[id]; ok {
					e.Effect.Apply(s, ctx)
				}
			}
			continue
		}
		var affected []string
		for _, id := range p.order {
			s := p.objs[id]
			if e.Effect.AppliesTo(s, ctx) {
				e.Effect.Apply(s, ctx)
				affected = append(affected, id)
			}
		}
		if e.Group != "" {
			p.started[e.Group] = affected
		}
	}
}

func applyCounters(p *pass) {
	for _, id := range p.order {
		s := p.objs[id]
		if s.HasPT {
			s.Power += s.CounterPower
			s.Toughness += s.CounterToughness
		}
	}
}

// orderByDependency sorts entries of one layer: an entry goes after every
// entry it depends on, otherwise timestamp order. A cycle is broken by
// taking the oldest remaining entry.
func (ls *LayerSystem) orderByDependency(p *pass, layer Layer, entries []*Entry) []*Entry {
	n := len(entries)
	if n < 2 {
		return entries
	}
	deps := make([][]bool, n)
	for i := range entries {
		deps[i] = make([]bool, n)
		for j := range entries {
			if i != j && p.dependsOn(entries[i], entries[j]) {
				deps[i][j] = true
			}
		}
	}

	done := make([]bool, n)
	out := make([]*Entry, 0, n)
	var cycle []string
	for len(out) < n {
		next := -1
		for i := range entries {
			if done[i] {
				continue
			}
			ready := true
			for j := range entries {
				if deps[i][j] && !done[j] {
					ready = false
					break
				}
			}
			if ready {
				next = i
				break
			}
		}
		if next < 0 {
			for i := range entries {
				if done[i] {
					continue
				}
				if next < 0 {
					next = i
				}
				if !slices.Contains(cycle, entries[i].ID) {
					cycle = append(cycle, entries[i].ID)
				}
			}
		}
		done[next] = true
		out = append(out, entries[next])
	}

	if len(cycle) > 0 {
		ls.logger.Warn("continuous effects depend on each other, using timestamp order",
			zap.String("layer", layer.String()),
			zap.Strings("effect_ids", cycle),
			zap.Error(rules.ErrDependencyCycle))
		ls.mu.RLock()
		fn := ls.onCycle
		ls.mu.RUnlock()
		if fn != nil {
			fn(layer, cycle)
		}
	}
	return out
}

// dependsOn reports whether applying b would change whether a exists or
// what a applies to, or a declared the dependency itself.
func (p *pass) dependsOn(a, b *Entry) bool {
	if d, ok := a.Effect.(Dependent); ok && d.DependsOn(b) {
		return true
	}
	if a.Group != "" && a.Group == b.Group {
		return false
	}
	ctxA := &Context{World: p.w, Entry: a, objects: p.objs}
	ctxB := &Context{World: p.w, Entry: b, objects: p.objs}
	for _, id := range p.order {
		s := p.objs[id]
		if !b.Effect.AppliesTo(s, ctxB) {
			continue
		}
		changed := s.Clone()
		b.Effect.Apply(changed, ctxB)

		if id == a.SourceID && a.AbilityID != "" && s.HasAbility(a.AbilityID) && !changed.HasAbility(a.AbilityID) {
			return true
		}

		after := make(map[string]*Snapshot, len(p.objs))
		for k, v := range p.objs {
			after[k] = v
		}
		after[id] = changed
		ctxAfter := &Context{World: p.w, Entry: a, objects: after}

		if id != a.SourceID {
			if a.Effect.AppliesTo(s, ctxA) != a.Effect.AppliesTo(changed, ctxAfter) {
				return true
			}
			continue
		}
		// The source changed, so "you" or similar may now select other objects.
		for _, other := range p.order {
			if a.Effect.AppliesTo(p.objs[other], ctxA) != a.Effect.AppliesTo(after[other], ctxAfter) {
				return true
			}
		}
	}
	return false
}
