package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(testConfig(), zaptest.NewLogger(t))
}

func duel() []Seat {
	return []Seat{{PlayerID: "alice"}, {PlayerID: "bob"}}
}

func TestEngineRegistersGames(t *testing.T) {
	e := newTestEngine(t)
	var hooked []string
	e.OnNewGame(func(g *Game) { hooked = append(hooked, g.ID) })

	g, err := e.NewGame("b-game", duel())
	require.NoError(t, err)
	assert.Equal(t, "b-game", g.ID)
	_, err = e.NewGame("a-game", duel())
	require.NoError(t, err)
	_, err = e.NewGame("a-game", duel())
	assert.Error(t, err, "ids are unique")

	generated, err := e.NewGame("", duel())
	require.NoError(t, err)
	assert.NotEmpty(t, generated.ID)

	assert.Equal(t, []string{"b-game", "a-game", generated.ID}, hooked)
	assert.Contains(t, e.Games(), "a-game")
	assert.Len(t, e.Games(), 3)
	found, ok := e.Game("b-game")
	require.True(t, ok)
	assert.Same(t, g, found)
}

func TestEngineRunGame(t *testing.T) {
	e := newTestEngine(t)
	replay := NewReplay("duel")
	e.SetSnapshotSink(replay)
	g, err := e.NewGame("duel", duel())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, e.RunGame(ctx, "duel"))

	assert.True(t, g.IsOver())
	assert.Equal(t, "alice", g.Winner())
	assert.Equal(t, 1, replay.Size(), "only the first turn ended")

	assert.ErrorIs(t, e.RunGame(ctx, "missing"), ErrMissingReference)
	require.NoError(t, e.RemoveGame("duel"))
	assert.ErrorIs(t, e.RemoveGame("duel"), ErrMissingReference)
}

func TestEnginePlayerConcede(t *testing.T) {
	e := newTestEngine(t)
	g, err := e.NewGame("concede", []Seat{
		{PlayerID: "alice", Deck: testLibrary(5)},
		{PlayerID: "bob", Deck: testLibrary(5)},
	})
	require.NoError(t, err)

	require.NoError(t, e.PlayerConcede("concede", "alice"))
	assert.ErrorIs(t, e.PlayerConcede("other", "alice"), ErrMissingReference)
	assert.ErrorIs(t, e.PlayerConcede("concede", "mallory"), ErrMissingReference)

	require.NoError(t, e.RunGame(context.Background(), "concede"))
	assert.Equal(t, "bob", g.Winner())
}

func TestEngineRefusesToRemoveRunningGame(t *testing.T) {
	e := newTestEngine(t)
	blocker := make(chan struct{})
	started := make(chan struct{})
	_, err := e.NewGame("busy", []Seat{
		{PlayerID: "alice", Provider: &blockingPlayer{started: started, release: blocker}},
		{PlayerID: "bob"},
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- e.RunGame(context.Background(), "busy") }()
	<-started

	assert.Error(t, e.RemoveGame("busy"))
	assert.Error(t, e.RunGame(context.Background(), "busy"), "a game runs once at a time")

	close(blocker)
	require.NoError(t, <-done)
	assert.NoError(t, e.RemoveGame("busy"))
}

// blockingPlayer holds its first priority decision until released.
type blockingPlayer struct {
	PassingPlayer
	started chan struct{}
	release chan struct{}
	once    bool
}

func (p *blockingPlayer) ChoosePriorityAction(ctx context.Context, _ PriorityView) (Action, error) {
	if !p.once {
		p.once = true
		close(p.started)
		select {
		case <-p.release:
		case <-ctx.Done():
			return Action{}, ctx.Err()
		}
	}
	return Pass(), nil
}
