package rules

import (
	"errors"
	"sync"
)

// ErrStackEmpty is returned when popping an empty stack.
var ErrStackEmpty = errors.New("stack empty")

// StackItemKind describes the type of object on the stack.
type StackItemKind string

const (
	// StackItemKindSpell represents a spell cast by a player.
	StackItemKindSpell StackItemKind = "SPELL"
	// StackItemKindActivated represents an activated ability.
	StackItemKindActivated StackItemKind = "ACTIVATED"
	// StackItemKindTriggered represents a triggered ability.
	StackItemKindTriggered StackItemKind = "TRIGGERED"
)

// StackEntry is anything that can sit on the stack.
type StackEntry interface {
	StackID() string
}

// Stack is the LIFO resolution stack. The last element of the backing slice
// is the top.
type Stack[T StackEntry] struct {
	mu    sync.Mutex
	items []T
}

// NewStack creates an empty stack.
func NewStack[T StackEntry]() *Stack[T] {
	return &Stack[T]{items: make([]T, 0, 16)}
}

// Push adds an item to the top of the stack.
func (s *Stack[T]) Push(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, item)
}

// Pop removes the top item from the stack.
func (s *Stack[T]) Pop() (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if len(s.items) == 0 {
		return zero, ErrStackEmpty
	}
	idx := len(s.items) - 1
	item := s.items[idx]
	s.items[idx] = zero
	s.items = s.items[:idx]
	return item, nil
}

// Peek returns the top item without removing it.
func (s *Stack[T]) Peek() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}
	return s.items[len(s.items)-1], true
}

// Get returns the item with the given id.
func (s *Stack[T]) Get(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for idx := len(s.items) - 1; idx >= 0; idx-- {
		if s.items[idx].StackID() == id {
			return s.items[idx], true
		}
	}
	var zero T
	return zero, false
}

// Remove deletes an item from anywhere in the stack by ID.
func (s *Stack[T]) Remove(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for idx := len(s.items) - 1; idx >= 0; idx-- {
		if s.items[idx].StackID() == id {
			item := s.items[idx]
			s.items = append(s.items[:idx], s.items[idx+1:]...)
			return item, true
		}
	}
	var zero T
	return zero, false
}

// RemoveWhere removes every item matching pred and returns them, top first.
func (s *Stack[T]) RemoveWhere(pred func(T) bool) []T {
	if pred == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []T
	kept := s.items[:0]
	for _, item := range s.items {
		if pred(item) {
			removed = append([]T{item}, removed...)
			continue
		}
		kept = append(kept, item)
	}
	s.items = kept
	return removed
}

// List returns a copy of all stack items (topmost last).
func (s *Stack[T]) List() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	cpy := make([]T, len(s.items))
	copy(cpy, s.items)
	return cpy
}

// Len returns the number of items on the stack.
func (s *Stack[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// IsEmpty returns whether the stack is empty.
func (s *Stack[T]) IsEmpty() bool {
	return s.Len() == 0
}
