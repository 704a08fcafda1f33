package game

import (
	"compress/gzip"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrReplayCorrupt is returned when a loaded snapshot no longer matches the
// checksum written with it.
var ErrReplayCorrupt = errors.New("replay snapshot checksum mismatch")

// Replay keeps the end-of-turn snapshots of one game in memory. It is a
// SnapshotSink.
type Replay struct {
	GameID string

	logger  *zap.Logger
	mu      sync.RWMutex
	states  []*Snapshot
	current int
}

// NewReplay creates an empty replay for gameID.
func NewReplay(gameID string) *Replay {
	return &Replay{GameID: gameID, logger: zap.NewNop()}
}

// SetLogger sets the logger used when saving the replay.
func (r *Replay) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r.logger = logger.With(zap.String("game_id", r.GameID))
}

// Save implements SnapshotSink.
func (r *Replay) Save(_ context.Context, snapshot *Snapshot) error {
	if snapshot.GameID != r.GameID {
		return fmt.Errorf("snapshot of game %s recorded in replay of %s", snapshot.GameID, r.GameID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, snapshot)
	return nil
}

// Start rewinds to the first snapshot.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = 0
}

// Next returns the snapshot at the cursor and moves forward, or nil at the
// end.
func (r *Replay) Next() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current >= len(r.states) {
		return nil
	}
	s := r.states[r.current]
	r.current++
	return s
}

// Previous moves back and returns that snapshot, or nil at the start.
func (r *Replay) Previous() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == 0 {
		return nil
	}
	r.current--
	return r.states[r.current]
}

// Skip moves the cursor by count, clamped to the recorded range.
func (r *Replay) Skip(count int) *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		return nil
	}
	r.current = min(max(r.current+count, 0), len(r.states)-1)
	return r.states[r.current]
}

// Size returns the number of snapshots.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.states)
}

// At returns the snapshot at index.
func (r *Replay) At(index int) *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.states) {
		return nil
	}
	return r.states[index]
}

type replayHeader struct {
	GameID     string
	SavedAt    time.Time
	Version    int
	StateCount int
	Checksums  []string
}

// SaveToFile writes the replay to <directory>/<game id>.replay as gzipped
// gob.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("create replay directory: %w", err)
	}
	file, err := os.Create(filepath.Join(directory, r.GameID+".replay"))
	if err != nil {
		return fmt.Errorf("create replay file: %w", err)
	}
	defer file.Close()

	zw := gzip.NewWriter(file)
	enc := gob.NewEncoder(zw)
	header := replayHeader{
		GameID:     r.GameID,
		SavedAt:    time.Now().UTC(),
		Version:    SnapshotVersion,
		StateCount: len(r.states),
		Checksums:  make([]string, len(r.states)),
	}
	for i, s := range r.states {
		header.Checksums[i] = s.Checksum()
	}
	if err := enc.Encode(&header); err != nil {
		return fmt.Errorf("encode replay header: %w", err)
	}
	for i, s := range r.states {
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode snapshot %d: %w", i, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flush replay: %w", err)
	}

	r.logger.Info("saved replay to disk",
		zap.Int("state_count", len(r.states)),
		zap.String("directory", directory),
	)
	return nil
}

// LoadReplayFromFile reads a replay written by SaveToFile and verifies the
// checksum of every snapshot. The logger is kept by the returned replay.
func LoadReplayFromFile(directory, gameID string, logger *zap.Logger) (*Replay, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("game_id", gameID))

	replay, err := loadReplay(filepath.Join(directory, gameID+".replay"))
	if err != nil {
		logger.Warn("failed to load replay",
			zap.String("directory", directory),
			zap.Error(err),
		)
		return nil, err
	}
	replay.logger = logger

	logger.Info("loaded replay from disk",
		zap.Int("state_count", replay.Size()),
	)
	return replay, nil
}

func loadReplay(path string) (*Replay, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay: %w", err)
	}
	defer file.Close()

	zr, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("read replay: %w", err)
	}
	defer zr.Close()

	dec := gob.NewDecoder(zr)
	var header replayHeader
	if err := dec.Decode(&header); err != nil {
		return nil, fmt.Errorf("decode replay header: %w", err)
	}
	if header.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", header.Version)
	}
	if len(header.Checksums) != header.StateCount {
		return nil, fmt.Errorf("replay lists %d checksums for %d snapshots: %w",
			len(header.Checksums), header.StateCount, ErrReplayCorrupt)
	}

	replay := NewReplay(header.GameID)
	for i := range header.StateCount {
		var s Snapshot
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("decode snapshot %d: %w", i, err)
		}
		if got := s.Checksum(); got != header.Checksums[i] {
			return nil, fmt.Errorf("snapshot %d (turn %d): %w", i, s.Turn, ErrReplayCorrupt)
		}
		replay.states = append(replay.states, &s)
	}
	return replay, nil
}
