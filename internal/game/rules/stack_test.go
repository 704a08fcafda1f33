package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testItem struct {
	id         string
	controller string
}

func (i testItem) StackID() string { return i.id }

func TestStackPushPop(t *testing.T) {
	s := NewStack[testItem]()
	assert.True(t, s.IsEmpty())

	s.Push(testItem{id: "first", controller: "Alice"})
	s.Push(testItem{id: "second", controller: "Bob"})

	top, ok := s.Peek()
	require.True(t, ok)
	assert.Equal(t, "second", top.id)

	item, err := s.Pop()
	require.NoError(t, err)
	assert.Equal(t, "second", item.id, "LIFO order")

	item, err = s.Pop()
	require.NoError(t, err)
	assert.Equal(t, "first", item.id)

	_, err = s.Pop()
	assert.ErrorIs(t, err, ErrStackEmpty)
	assert.True(t, s.IsEmpty())
}

func TestStackRemove(t *testing.T) {
	s := NewStack[testItem]()
	s.Push(testItem{id: "first"})
	s.Push(testItem{id: "second"})
	s.Push(testItem{id: "third"})

	item, ok := s.Remove("second")
	require.True(t, ok)
	assert.Equal(t, "second", item.id)

	_, ok = s.Remove("missing")
	assert.False(t, ok)

	ids := []string{}
	for _, it := range s.List() {
		ids = append(ids, it.id)
	}
	assert.Equal(t, []string{"first", "third"}, ids)

	got, ok := s.Get("third")
	require.True(t, ok)
	assert.Equal(t, "third", got.id)
}

func TestStackRemoveWhere(t *testing.T) {
	s := NewStack[testItem]()
	s.Push(testItem{id: "a", controller: "p1"})
	s.Push(testItem{id: "b", controller: "p2"})
	s.Push(testItem{id: "c", controller: "p1"})
	s.Push(testItem{id: "d", controller: "p2"})

	removed := s.RemoveWhere(func(it testItem) bool { return it.controller == "p1" })
	require.Len(t, removed, 2)
	assert.Equal(t, "c", removed[0].id, "removed items are reported top first")
	assert.Equal(t, "a", removed[1].id)
	assert.Equal(t, 2, s.Len())

	top, _ := s.Peek()
	assert.Equal(t, "d", top.id)
	assert.Nil(t, s.RemoveWhere(nil))
}
