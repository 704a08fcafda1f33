package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/magefree/mage-rules-go/internal/game"
	"go.uber.org/zap"
)

var (
	// ErrSnapshotNotFound is returned when a game has no stored snapshot.
	ErrSnapshotNotFound = errors.New("snapshot not found")
	// ErrChecksumMismatch is returned when a stored payload no longer
	// matches the checksum recorded with it.
	ErrChecksumMismatch = errors.New("snapshot checksum mismatch")
)

// SnapshotInfo describes a stored snapshot without its payload.
type SnapshotInfo struct {
	GameID   string
	Turn     int
	Version  int
	Checksum string
	TakenAt  time.Time
}

// SnapshotStore keeps one snapshot per game and turn. It satisfies
// game.SnapshotSink.
type SnapshotStore struct {
	db     *DB
	logger *zap.Logger
}

var _ game.SnapshotSink = (*SnapshotStore)(nil)

// NewSnapshotStore creates a store on db.
func NewSnapshotStore(db *DB, logger *zap.Logger) *SnapshotStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotStore{db: db, logger: logger}
}

// Save stores the snapshot, replacing any earlier one for the same turn.
func (s *SnapshotStore) Save(ctx context.Context, snapshot *game.Snapshot) error {
	payload, err := snapshot.Encode()
	if err != nil {
		return err
	}
	takenAt := snapshot.TakenAt
	if takenAt.IsZero() {
		takenAt = time.Now()
	}
	checksum := snapshot.Checksum()

	_, err = s.db.Exec(ctx, `
		INSERT INTO game_snapshots (game_id, turn, version, checksum, payload, taken_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id, turn) DO UPDATE
		SET version = EXCLUDED.version,
		    checksum = EXCLUDED.checksum,
		    payload = EXCLUDED.payload,
		    taken_at = EXCLUDED.taken_at`,
		snapshot.GameID, snapshot.Turn, snapshot.Version, checksum, payload, takenAt,
	)
	if err != nil {
		return fmt.Errorf("save snapshot %s turn %d: %w", snapshot.GameID, snapshot.Turn, err)
	}

	s.logger.Debug("snapshot saved",
		zap.String("game_id", snapshot.GameID),
		zap.Int("turn", snapshot.Turn),
		zap.String("checksum", checksum),
		zap.Int("bytes", len(payload)),
	)
	return nil
}

// Latest loads the most recent snapshot of a game and verifies its
// checksum.
func (s *SnapshotStore) Latest(ctx context.Context, gameID string) (*game.Snapshot, error) {
	var (
		checksum string
		payload  []byte
	)
	err := s.db.QueryRow(ctx, `
		SELECT checksum, payload FROM game_snapshots
		WHERE game_id = $1
		ORDER BY turn DESC
		LIMIT 1`, gameID,
	).Scan(&checksum, &payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("game %s: %w", gameID, ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", gameID, err)
	}

	snapshot, err := game.DecodeSnapshot(payload)
	if err != nil {
		return nil, err
	}
	if got := snapshot.Checksum(); got != checksum {
		s.logger.Warn("stored snapshot is corrupt",
			zap.String("game_id", gameID),
			zap.String("expected", checksum),
			zap.String("actual", got),
		)
		return nil, fmt.Errorf("game %s turn %d: %w", gameID, snapshot.Turn, ErrChecksumMismatch)
	}
	return snapshot, nil
}

// List returns the stored snapshots of a game in turn order.
func (s *SnapshotStore) List(ctx context.Context, gameID string) ([]SnapshotInfo, error) {
	rows, err := s.db.Query(ctx, `
		SELECT game_id, turn, version, checksum, taken_at FROM game_snapshots
		WHERE game_id = $1
		ORDER BY turn`, gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots %s: %w", gameID, err)
	}
	infos, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (SnapshotInfo, error) {
		var info SnapshotInfo
		err := row.Scan(&info.GameID, &info.Turn, &info.Version, &info.Checksum, &info.TakenAt)
		return info, err
	})
	if err != nil {
		return nil, fmt.Errorf("list snapshots %s: %w", gameID, err)
	}
	return infos, nil
}

// Delete removes every snapshot of a game and reports how many were
// removed.
func (s *SnapshotStore) Delete(ctx context.Context, gameID string) (int64, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM game_snapshots WHERE game_id = $1`, gameID)
	if err != nil {
		return 0, fmt.Errorf("delete snapshots %s: %w", gameID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return tag.RowsAffected(), nil
}
