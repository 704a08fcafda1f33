package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolutionContext(t *testing.T) {
	t.Run("basic resolution tracking", func(t *testing.T) {
		rc := NewResolutionContext()
		assert.False(t, rc.IsResolving())

		require.NoError(t, rc.BeginResolution("spell-1"))
		assert.True(t, rc.IsResolving())
		assert.Equal(t, 1, rc.Depth())
		assert.Equal(t, "spell-1", rc.CurrentID())

		require.NoError(t, rc.EndResolution("spell-1"))
		assert.False(t, rc.IsResolving())
		assert.Equal(t, "", rc.CurrentID())
	})

	t.Run("nested resolution", func(t *testing.T) {
		rc := NewResolutionContext()
		require.NoError(t, rc.BeginResolution("spell-1"))
		require.NoError(t, rc.BeginResolution("spell-2"))
		assert.Equal(t, 2, rc.Depth())
		assert.Equal(t, "spell-2", rc.CurrentID())

		assert.Error(t, rc.EndResolution("spell-1"), "must end innermost first")
		require.NoError(t, rc.EndResolution("spell-2"))
		require.NoError(t, rc.EndResolution("spell-1"))
	})

	t.Run("maximum depth limit", func(t *testing.T) {
		rc := NewResolutionContext()
		for i := 0; i < DefaultMaxResolutionDepth; i++ {
			require.NoError(t, rc.BeginResolution("x"))
		}
		assert.Error(t, rc.BeginResolution("overflow"))
		rc.Reset()
		assert.False(t, rc.IsResolving())
	})

	t.Run("end without begin", func(t *testing.T) {
		rc := NewResolutionContext()
		assert.Error(t, rc.EndResolution("nothing"))
	})
}

func TestPriorityTrackerAllPass(t *testing.T) {
	pt := NewPriorityTracker([]string{"alice", "bob", "carol"})
	pt.Begin("bob")

	assert.Equal(t, "bob", pt.Holder())
	assert.Equal(t, PriorityActivePlayer, pt.State())
	assert.Equal(t, 0, pt.Offset())

	assert.Equal(t, PriorityOtherPlayer, pt.Pass())
	assert.Equal(t, "carol", pt.Holder())
	assert.Equal(t, 1, pt.Offset())

	assert.Equal(t, PriorityOtherPlayer, pt.Pass())
	assert.Equal(t, "alice", pt.Holder())
	assert.Equal(t, 2, pt.Offset())

	assert.Equal(t, PriorityAllPassed, pt.Pass())
	assert.Equal(t, "", pt.Holder())
	assert.Equal(t, PriorityAllPassed, pt.Pass(), "stays all-passed until Begin")
}

func TestPriorityTrackerActionResetsPasses(t *testing.T) {
	pt := NewPriorityTracker([]string{"alice", "bob"})
	pt.Begin("alice")

	pt.Pass()
	require.Equal(t, "bob", pt.Holder())

	// bob acts; priority returns to the active player and both must pass again
	pt.ActionTaken("alice")
	assert.Equal(t, 0, pt.Passes())
	assert.Equal(t, PriorityActivePlayer, pt.State())

	assert.Equal(t, PriorityOtherPlayer, pt.Pass())
	assert.Equal(t, PriorityAllPassed, pt.Pass())
}

func TestPriorityTrackerSetPlayersKeepsActive(t *testing.T) {
	pt := NewPriorityTracker([]string{"alice", "bob", "carol"})
	pt.Begin("carol")

	pt.SetPlayers([]string{"bob", "carol"})
	assert.Equal(t, "carol", pt.ActivePlayer())
	assert.Equal(t, "carol", pt.Holder())
	assert.Equal(t, []string{"bob", "carol"}, pt.Players())

	empty := NewPriorityTracker(nil)
	assert.Equal(t, "", empty.Holder())
	assert.Equal(t, PriorityAllPassed, empty.Pass())
}
