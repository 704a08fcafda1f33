package rules

import (
	"fmt"
	"strings"
	"sync"
)

// WatcherScope defines the scope of a watcher's tracking.
type WatcherScope int

const (
	// WatcherScopeGame tracks events for the entire game.
	WatcherScopeGame WatcherScope = iota
	// WatcherScopePlayer tracks events for a specific player.
	WatcherScopePlayer
	// WatcherScopeCard tracks events for a specific card/permanent.
	WatcherScopeCard
)

func (ws WatcherScope) String() string {
	switch ws {
	case WatcherScopeGame:
		return "GAME"
	case WatcherScopePlayer:
		return "PLAYER"
	case WatcherScopeCard:
		return "CARD"
	default:
		return "UNKNOWN"
	}
}

// Watcher observes events and accumulates facts that card logic queries
// later ("if you cast a spell this turn"). Watchers only read events; they
// never change game state.
type Watcher interface {
	Watch(event Event)
	// Reset clears accumulated state, normally at the start of each turn.
	Reset()
	ConditionMet() bool
	GetScope() WatcherScope
	GetKey() string
	Copy() Watcher
}

// BaseWatcher carries the bookkeeping shared by all watchers.
type BaseWatcher struct {
	scope        WatcherScope
	controllerID string
	sourceID     string
	condition    bool
	key          string
}

// NewBaseWatcher creates a new base watcher with the specified scope.
func NewBaseWatcher(scope WatcherScope) *BaseWatcher {
	return &BaseWatcher{scope: scope}
}

func (bw *BaseWatcher) GetScope() WatcherScope      { return bw.scope }
func (bw *BaseWatcher) SetControllerID(id string)   { bw.controllerID = id }
func (bw *BaseWatcher) GetControllerID() string     { return bw.controllerID }
func (bw *BaseWatcher) SetSourceID(id string)       { bw.sourceID = id }
func (bw *BaseWatcher) GetSourceID() string         { return bw.sourceID }
func (bw *BaseWatcher) ConditionMet() bool          { return bw.condition }
func (bw *BaseWatcher) SetCondition(condition bool) { bw.condition = condition }
func (bw *BaseWatcher) Reset()                      { bw.condition = false }
func (bw *BaseWatcher) GetKey() string              { return bw.key }
func (bw *BaseWatcher) SetKey(key string)           { bw.key = key }

// WatcherRegistry holds the watchers of one game in registration order.
type WatcherRegistry struct {
	mu       sync.RWMutex
	watchers []Watcher
	index    map[string]int
}

// NewWatcherRegistry creates a new watcher registry.
func NewWatcherRegistry() *WatcherRegistry {
	return &WatcherRegistry{index: make(map[string]int)}
}

// AddWatcher registers watcher. A watcher without a key gets one derived from
// its scope and type. Adding a key twice keeps the first watcher.
func (wr *WatcherRegistry) AddWatcher(watcher Watcher) {
	if watcher == nil {
		return
	}

	wr.mu.Lock()
	defer wr.mu.Unlock()

	key := watcher.GetKey()
	if key == "" {
		key = generateKey(watcher)
		if setter, ok := watcher.(interface{ SetKey(string) }); ok {
			setter.SetKey(key)
		}
	}
	if _, exists := wr.index[key]; exists {
		return
	}
	wr.index[key] = len(wr.watchers)
	wr.watchers = append(wr.watchers, watcher)
}

// RemoveWatcher removes a watcher from the registry.
func (wr *WatcherRegistry) RemoveWatcher(key string) {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	idx, ok := wr.index[key]
	if !ok {
		return
	}
	wr.watchers = append(wr.watchers[:idx], wr.watchers[idx+1:]...)
	delete(wr.index, key)
	for k, i := range wr.index {
		if i > idx {
			wr.index[k] = i - 1
		}
	}
}

// GetWatcher retrieves a watcher by key, or nil.
func (wr *WatcherRegistry) GetWatcher(key string) Watcher {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	if idx, ok := wr.index[key]; ok {
		return wr.watchers[idx]
	}
	return nil
}

// GetWatchersByScope returns the watchers of one scope in registration order.
func (wr *WatcherRegistry) GetWatchersByScope(scope WatcherScope) []Watcher {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	var result []Watcher
	for _, w := range wr.watchers {
		if w.GetScope() == scope {
			result = append(result, w)
		}
	}
	return result
}

// GetAllWatchers returns all registered watchers in registration order.
func (wr *WatcherRegistry) GetAllWatchers() []Watcher {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	return append([]Watcher(nil), wr.watchers...)
}

// ResetWatchers resets all watchers.
func (wr *WatcherRegistry) ResetWatchers() {
	for _, w := range wr.GetAllWatchers() {
		w.Reset()
	}
}

// ResetWatchersByScope resets all watchers for a given scope.
func (wr *WatcherRegistry) ResetWatchersByScope(scope WatcherScope) {
	for _, w := range wr.GetWatchersByScope(scope) {
		w.Reset()
	}
}

// NotifyWatchers hands event to every watcher.
func (wr *WatcherRegistry) NotifyWatchers(event Event) {
	for _, w := range wr.GetAllWatchers() {
		w.Watch(event)
	}
}

// Copy returns a registry holding copies of every watcher.
func (wr *WatcherRegistry) Copy() *WatcherRegistry {
	out := NewWatcherRegistry()
	for _, w := range wr.GetAllWatchers() {
		out.AddWatcher(w.Copy())
	}
	return out
}

func generateKey(watcher Watcher) string {
	typeName := fmt.Sprintf("%T", watcher)
	if i := strings.LastIndex(typeName, "."); i >= 0 {
		typeName = typeName[i+1:]
	}

	switch watcher.GetScope() {
	case WatcherScopePlayer:
		if getter, ok := watcher.(interface{ GetControllerID() string }); ok && getter.GetControllerID() != "" {
			return getter.GetControllerID() + "_" + typeName
		}
	case WatcherScopeCard:
		if getter, ok := watcher.(interface{ GetSourceID() string }); ok && getter.GetSourceID() != "" {
			return getter.GetSourceID() + "_" + typeName
		}
	}
	return typeName
}
