package game

import (
	"compress/gzip"
	"context"
	"encoding/gob"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func recordedReplay(t *testing.T, turns int) (*Game, *Replay) {
	t.Helper()
	g := newTestGame(t,
		Seat{PlayerID: "alice", Deck: testLibrary(10)},
		Seat{PlayerID: "bob", Deck: testLibrary(10)})
	replay := NewReplay(g.ID)
	replay.SetLogger(zaptest.NewLogger(t))
	g.SetSnapshotSink(replay)
	runTurns(t, g, turns)
	return g, replay
}

func TestReplayRecordsEveryTurn(t *testing.T) {
	_, replay := recordedReplay(t, 3)

	require.Equal(t, 3, replay.Size())
	for i := range 3 {
		assert.Equal(t, i+1, replay.At(i).Turn)
		assert.Equal(t, "CLEANUP", replay.At(i).Step)
	}
	assert.Equal(t, "alice", replay.At(0).ActivePlayer)
	assert.Equal(t, "bob", replay.At(1).ActivePlayer)
	assert.Nil(t, replay.At(3))
	assert.Nil(t, replay.At(-1))
}

func TestReplayNavigation(t *testing.T) {
	_, replay := recordedReplay(t, 5)

	replay.Start()
	assert.Nil(t, replay.Previous())
	assert.Equal(t, 1, replay.Next().Turn)
	assert.Equal(t, 2, replay.Next().Turn)
	assert.Equal(t, 2, replay.Previous().Turn)

	assert.Equal(t, 5, replay.Skip(10).Turn, "skip is clamped to the last snapshot")
	assert.Equal(t, 1, replay.Skip(-10).Turn)

	replay.Skip(4)
	assert.Equal(t, 5, replay.Next().Turn)
	assert.Nil(t, replay.Next())
}

func TestReplayRejectsOtherGames(t *testing.T) {
	replay := NewReplay("game-123")
	err := replay.Save(context.Background(), &Snapshot{GameID: "game-456"})
	assert.Error(t, err)
	assert.Zero(t, replay.Size())
	assert.Nil(t, NewReplay("empty").Skip(1))
}

func TestReplaySaveAndLoad(t *testing.T) {
	_, replay := recordedReplay(t, 3)
	dir := filepath.Join(t.TempDir(), "replays", "nested")

	require.NoError(t, replay.SaveToFile(dir))
	_, err := os.Stat(filepath.Join(dir, replay.GameID+".replay"))
	require.NoError(t, err)

	loaded, err := LoadReplayFromFile(dir, replay.GameID, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, replay.GameID, loaded.GameID)
	require.Equal(t, replay.Size(), loaded.Size())
	for i := range replay.Size() {
		assert.Equal(t, replay.At(i).Checksum(), loaded.At(i).Checksum())
	}
}

func TestReplayLoadNonexistentFile(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	_, err := LoadReplayFromFile(t.TempDir(), "nonexistent", zap.New(core))
	assert.Error(t, err)
	require.Equal(t, 1, logs.FilterMessage("failed to load replay").Len())
}

func writeReplayFile(t *testing.T, dir string, header replayHeader, states ...*Snapshot) {
	t.Helper()
	file, err := os.Create(filepath.Join(dir, header.GameID+".replay"))
	require.NoError(t, err)
	defer file.Close()
	zw := gzip.NewWriter(file)
	enc := gob.NewEncoder(zw)
	require.NoError(t, enc.Encode(&header))
	for _, s := range states {
		require.NoError(t, enc.Encode(s))
	}
	require.NoError(t, zw.Close())
}

func TestReplayLoadDetectsCorruptSnapshot(t *testing.T) {
	_, replay := recordedReplay(t, 1)
	require.Positive(t, replay.Size())
	dir := t.TempDir()
	writeReplayFile(t, dir, replayHeader{
		GameID:     replay.GameID,
		Version:    SnapshotVersion,
		StateCount: 1,
		Checksums:  []string{"bogus"},
	}, replay.At(0))

	core, logs := observer.New(zap.WarnLevel)
	_, err := LoadReplayFromFile(dir, replay.GameID, zap.New(core))
	assert.ErrorIs(t, err, ErrReplayCorrupt)

	entries := logs.FilterMessage("failed to load replay").All()
	require.Len(t, entries, 1)
	assert.Equal(t, replay.GameID, entries[0].ContextMap()["game_id"])
}

func TestReplayLoadRejectsMissingChecksums(t *testing.T) {
	_, replay := recordedReplay(t, 1)
	dir := t.TempDir()
	writeReplayFile(t, dir, replayHeader{
		GameID:     replay.GameID,
		Version:    SnapshotVersion,
		StateCount: 1,
	}, replay.At(0))

	_, err := LoadReplayFromFile(dir, replay.GameID, nil)
	assert.ErrorIs(t, err, ErrReplayCorrupt)
}

// failingSink refuses every snapshot.
type failingSink struct{ calls int }

func (s *failingSink) Save(context.Context, *Snapshot) error {
	s.calls++
	return os.ErrPermission
}

func TestFailingSnapshotSinkDoesNotStopGame(t *testing.T) {
	g := newTestGame(t,
		Seat{PlayerID: "alice", Deck: testLibrary(5)},
		Seat{PlayerID: "bob", Deck: testLibrary(5)})
	sink := &failingSink{}
	g.SetSnapshotSink(sink)

	runTurns(t, g, 2)

	assert.Equal(t, 2, sink.calls)
	assert.Equal(t, 3, g.Turn())
}
