// Package cards provides Set, the ordered collection of object ids used for
// zones, target lists and any other group of cards. A Set stores ids only;
// resolving them to objects is the caller's job through a lookup function.
package cards

import (
	"errors"
	"math/rand"
	"sort"
	"strings"
)

var (
	// ErrEmptySet is returned when picking from a set with no members.
	ErrEmptySet = errors.New("set is empty")
	// ErrNoMatch is returned when no member resolves to a matching object.
	ErrNoMatch = errors.New("no member matches")
)

// Set is an insertion-ordered, duplicate-free set of object ids with an
// optional owner. The zero value is an empty, ownerless set.
type Set struct {
	owner string
	ids   []string
	index map[string]int
}

// New returns a set holding ids in order, dropping duplicates.
func New(ids ...string) *Set {
	s := &Set{}
	s.AddAll(ids...)
	return s
}

// NewOwned returns a set owned by owner.
func NewOwned(owner string, ids ...string) *Set {
	s := New(ids...)
	s.owner = owner
	return s
}

// Owner returns the owning player id, or "" for shared sets.
func (s *Set) Owner() string {
	return s.owner
}

// SetOwner records owner for the set and calls assign for every member so
// the caller can update per-object ownership. Ids assign does not know about
// are the caller's to skip.
func (s *Set) SetOwner(owner string, assign func(id, owner string)) {
	s.owner = owner
	if assign == nil {
		return
	}
	for _, id := range s.ids {
		assign(id, owner)
	}
}

// Add appends id. It reports false when id was already present or empty.
func (s *Set) Add(id string) bool {
	if id == "" {
		return false
	}
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = len(s.ids)
	s.ids = append(s.ids, id)
	return true
}

// AddAll appends each id that is not yet present.
func (s *Set) AddAll(ids ...string) {
	for _, id := range ids {
		s.Add(id)
	}
}

// Remove deletes id. Missing ids are a no-op that reports false.
func (s *Set) Remove(id string) bool {
	idx, ok := s.index[id]
	if !ok {
		return false
	}
	s.ids = append(s.ids[:idx], s.ids[idx+1:]...)
	delete(s.index, id)
	for i := idx; i < len(s.ids); i++ {
		s.index[s.ids[i]] = i
	}
	return true
}

// RemoveAll deletes each id, skipping missing ones.
func (s *Set) RemoveAll(ids ...string) {
	for _, id := range ids {
		s.Remove(id)
	}
}

// Clear removes every member and keeps the owner.
func (s *Set) Clear() {
	s.ids = nil
	s.index = nil
}

// Contains reports membership.
func (s *Set) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Len returns the number of members.
func (s *Set) Len() int {
	return len(s.ids)
}

// IsEmpty reports whether the set has no members.
func (s *Set) IsEmpty() bool {
	return len(s.ids) == 0
}

// IDs returns a copy of the members in insertion order.
func (s *Set) IDs() []string {
	return append([]string(nil), s.ids...)
}

// At returns the member at position i.
func (s *Set) At(i int) (string, bool) {
	if i < 0 || i >= len(s.ids) {
		return "", false
	}
	return s.ids[i], true
}

// Top returns the most recently added member. Libraries use the end of the
// set as their top.
func (s *Set) Top() (string, bool) {
	return s.At(len(s.ids) - 1)
}

// Copy returns an independent copy, owner included.
func (s *Set) Copy() *Set {
	return NewOwned(s.owner, s.ids...)
}

// Count returns how many ids satisfy pred.
func (s *Set) Count(pred func(id string) bool) int {
	n := 0
	for _, id := range s.ids {
		if pred(id) {
			n++
		}
	}
	return n
}

// Filter returns the members satisfying pred as a new set with the same owner.
func (s *Set) Filter(pred func(id string) bool) *Set {
	out := NewOwned(s.owner)
	for _, id := range s.ids {
		if pred(id) {
			out.Add(id)
		}
	}
	return out
}

// Random picks a member uniformly using rng.
func (s *Set) Random(rng *rand.Rand) (string, error) {
	if len(s.ids) == 0 {
		return "", ErrEmptySet
	}
	return s.ids[rng.Intn(len(s.ids))], nil
}

// Shuffle reorders the members using rng.
func (s *Set) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(s.ids), func(i, j int) {
		s.ids[i], s.ids[j] = s.ids[j], s.ids[i]
	})
	for i, id := range s.ids {
		s.index[id] = i
	}
}

// Value returns a stable key describing the members' names, sorted, so two
// sets holding the same cards compare equal regardless of order.
func (s *Set) Value(name func(id string) string) string {
	names := make([]string, 0, len(s.ids))
	for _, id := range s.ids {
		names = append(names, name(id))
	}
	sort.Strings(names)
	return strings.Join(names, ":")
}

// Lookup resolves an id. The second result is false for ids that no longer
// refer to a live object.
type Lookup[T any] func(id string) (T, bool)

// Resolve returns the objects behind the set's ids in order, skipping ids
// that do not resolve.
func Resolve[T any](s *Set, lookup Lookup[T]) []T {
	out := make([]T, 0, len(s.ids))
	for _, id := range s.ids {
		if obj, ok := lookup(id); ok {
			out = append(out, obj)
		}
	}
	return out
}

// CountMatching counts resolvable members whose object satisfies match.
func CountMatching[T any](s *Set, lookup Lookup[T], match func(T) bool) int {
	n := 0
	for _, id := range s.ids {
		if obj, ok := lookup(id); ok && match(obj) {
			n++
		}
	}
	return n
}

// RandomMatching picks uniformly among resolvable members whose object
// satisfies match. It never returns an id that fails to resolve.
func RandomMatching[T any](s *Set, rng *rand.Rand, lookup Lookup[T], match func(T) bool) (string, error) {
	if len(s.ids) == 0 {
		return "", ErrEmptySet
	}
	var candidates []string
	for _, id := range s.ids {
		if obj, ok := lookup(id); ok && (match == nil || match(obj)) {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return "", ErrNoMatch
	}
	return candidates[rng.Intn(len(candidates))], nil
}

// UniqueBy keeps the first resolvable member for each key, e.g. one card per
// name.
func UniqueBy[T any](s *Set, lookup Lookup[T], key func(T) string) *Set {
	out := NewOwned(s.owner)
	seen := make(map[string]struct{})
	for _, id := range s.ids {
		obj, ok := lookup(id)
		if !ok {
			continue
		}
		k := key(obj)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out.Add(id)
	}
	return out
}
