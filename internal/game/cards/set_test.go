package cards

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type card struct {
	name string
	land bool
}

func lookupIn(objects map[string]card) Lookup[card] {
	return func(id string) (card, bool) {
		c, ok := objects[id]
		return c, ok
	}
}

func TestSetOrderAndDuplicates(t *testing.T) {
	s := New("a", "b", "a", "c", "")
	assert.Equal(t, []string{"a", "b", "c"}, s.IDs())
	assert.False(t, s.Add("b"))
	assert.True(t, s.Add("d"))

	assert.True(t, s.Remove("b"))
	assert.False(t, s.Remove("missing"), "removing a missing id is a no-op")
	assert.Equal(t, []string{"a", "c", "d"}, s.IDs())
	assert.True(t, s.Contains("d"))
	assert.False(t, s.Contains("b"))

	s.RemoveAll("a", "zzz", "d")
	assert.Equal(t, []string{"c"}, s.IDs())

	top, ok := s.Top()
	require.True(t, ok)
	assert.Equal(t, "c", top)
}

func TestSetZeroValue(t *testing.T) {
	var s Set
	assert.True(t, s.IsEmpty())
	assert.False(t, s.Contains("x"))
	assert.False(t, s.Remove("x"))
	s.Add("x")
	assert.Equal(t, 1, s.Len())
}

func TestSetOwnerAndCopy(t *testing.T) {
	s := NewOwned("alice", "a", "b")
	assigned := map[string]string{}
	s.SetOwner("bob", func(id, owner string) { assigned[id] = owner })
	assert.Equal(t, "bob", s.Owner())
	assert.Equal(t, map[string]string{"a": "bob", "b": "bob"}, assigned)

	cp := s.Copy()
	cp.Add("c")
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "bob", cp.Owner())
}

func TestSetFilterAndCount(t *testing.T) {
	objects := map[string]card{
		"f": {name: "Forest", land: true},
		"i": {name: "Island", land: true},
		"b": {name: "Grizzly Bears"},
	}
	s := New("f", "b", "ghost", "i")

	assert.Equal(t, 2, s.Count(func(id string) bool { return objects[id].land }))
	assert.Equal(t, []string{"f", "i"}, s.Filter(func(id string) bool { return objects[id].land }).IDs())
	assert.Equal(t, 2, CountMatching(s, lookupIn(objects), func(c card) bool { return c.land }))

	resolved := Resolve(s, lookupIn(objects))
	require.Len(t, resolved, 3, "ids that do not resolve are skipped")
	assert.Equal(t, "Forest", resolved[0].name)
}

func TestSetRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, err := New().Random(rng)
	assert.ErrorIs(t, err, ErrEmptySet)

	s := New("a", "b", "c")
	for i := 0; i < 20; i++ {
		id, err := s.Random(rng)
		require.NoError(t, err)
		assert.True(t, s.Contains(id))
	}
}

func TestSetRandomMatching(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	objects := map[string]card{"f": {name: "Forest", land: true}, "b": {name: "Grizzly Bears"}}

	_, err := RandomMatching(New(), rng, lookupIn(objects), nil)
	assert.ErrorIs(t, err, ErrEmptySet)

	_, err = RandomMatching(New("ghost"), rng, lookupIn(objects), nil)
	assert.ErrorIs(t, err, ErrNoMatch, "ids that do not resolve are never returned")

	for i := 0; i < 10; i++ {
		id, err := RandomMatching(New("ghost", "f", "b"), rng, lookupIn(objects), func(c card) bool { return c.land })
		require.NoError(t, err)
		assert.Equal(t, "f", id)
	}
}

func TestSetDeterministicShuffle(t *testing.T) {
	a := New("1", "2", "3", "4", "5", "6")
	b := a.Copy()
	a.Shuffle(rand.New(rand.NewSource(99)))
	b.Shuffle(rand.New(rand.NewSource(99)))
	assert.Equal(t, a.IDs(), b.IDs())
	assert.ElementsMatch(t, []string{"1", "2", "3", "4", "5", "6"}, a.IDs())

	require.True(t, a.Remove("3"))
	assert.NotContains(t, a.IDs(), "3")
	assert.Equal(t, 5, a.Len())
}

func TestSetUniqueByAndValue(t *testing.T) {
	objects := map[string]card{
		"f1": {name: "Forest"},
		"f2": {name: "Forest"},
		"i":  {name: "Island"},
	}
	s := New("f1", "i", "f2")
	unique := UniqueBy(s, lookupIn(objects), func(c card) string { return c.name })
	assert.Equal(t, []string{"f1", "i"}, unique.IDs())

	name := func(id string) string { return objects[id].name }
	assert.Equal(t, "Forest:Forest:Island", s.Value(name))
	assert.Equal(t, New("i", "f2", "f1").Value(name), s.Value(name))
}
