package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/magefree/mage-rules-go/internal/config"
	"github.com/magefree/mage-rules-go/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("MAGE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("MAGE_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := NewDB(ctx, config.DatabaseConfig{URL: url, MaxConns: 2}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.EnsureSchema(ctx))
	return db
}

func TestNewDBRequiresURL(t *testing.T) {
	_, err := NewDB(context.Background(), config.DatabaseConfig{}, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewDBRejectsBadURL(t *testing.T) {
	_, err := NewDB(context.Background(), config.DatabaseConfig{URL: "postgres://%zz"}, nil)
	assert.Error(t, err)
}

func TestSnapshotStoreRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := NewSnapshotStore(db, zaptest.NewLogger(t))

	gameID := "store-" + uuid.NewString()
	t.Cleanup(func() { _, _ = store.Delete(ctx, gameID) })

	cfg := config.Default()
	cfg.Engine.Seed = 3
	cfg.Engine.StartingHandSize = 0
	e := game.NewEngine(cfg, zaptest.NewLogger(t))
	e.SetSnapshotSink(store)
	g, err := e.NewGame(gameID, []game.Seat{{PlayerID: "alice"}, {PlayerID: "bob"}})
	require.NoError(t, err)
	require.NoError(t, e.RunGame(ctx, gameID))

	infos, err := store.List(ctx, gameID)
	require.NoError(t, err)
	require.NotEmpty(t, infos)
	for i, info := range infos {
		assert.Equal(t, gameID, info.GameID)
		assert.Equal(t, game.SnapshotVersion, info.Version)
		if i > 0 {
			assert.Greater(t, info.Turn, infos[i-1].Turn)
		}
	}

	latest, err := store.Latest(ctx, gameID)
	require.NoError(t, err)
	assert.Equal(t, infos[len(infos)-1].Turn, latest.Turn)
	assert.Equal(t, infos[len(infos)-1].Checksum, latest.Checksum())

	// Saving the same turn again replaces the row.
	final := g.Snapshot()
	final.TakenAt = time.Now()
	require.NoError(t, store.Save(ctx, final))
	again, err := store.List(ctx, gameID)
	require.NoError(t, err)
	assert.Len(t, again, len(infos)+boolToInt(final.Turn != infos[len(infos)-1].Turn))

	removed, err := store.Delete(ctx, gameID)
	require.NoError(t, err)
	assert.EqualValues(t, len(again), removed)

	_, err = store.Latest(ctx, gameID)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestSnapshotStoreDetectsCorruption(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := NewSnapshotStore(db, nil)

	gameID := "corrupt-" + uuid.NewString()
	t.Cleanup(func() { _, _ = store.Delete(ctx, gameID) })

	snap := &game.Snapshot{Version: game.SnapshotVersion, GameID: gameID, Turn: 4}
	require.NoError(t, store.Save(ctx, snap))

	_, err := db.Exec(ctx, `UPDATE game_snapshots SET checksum = 'bogus' WHERE game_id = $1`, gameID)
	require.NoError(t, err)

	_, err = store.Latest(ctx, gameID)
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
