package game

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/magefree/mage-rules-go/internal/config"
	"go.uber.org/zap"
)

// Engine keeps the games of one process. Each game runs on its own
// goroutine; the engine only hands out games and relays requests that may
// come from other goroutines, such as concessions.
type Engine struct {
	cfg    *config.Config
	logger *zap.Logger

	mu      sync.RWMutex
	games   map[string]*Game
	sink    SnapshotSink
	onGame  []func(*Game)
	running map[string]bool
}

// NewEngine creates an engine using cfg for every game.
func NewEngine(cfg *config.Config, logger *zap.Logger) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:     cfg,
		logger:  logger,
		games:   make(map[string]*Game),
		running: make(map[string]bool),
	}
}

// SetSnapshotSink sets the sink given to games created afterwards.
func (e *Engine) SetSnapshotSink(sink SnapshotSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sink = sink
}

// OnNewGame registers fn to be called with every game created afterwards,
// before it starts. Event consumers use it to subscribe to the game's bus.
func (e *Engine) OnNewGame(fn func(*Game)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onGame = append(e.onGame, fn)
}

// NewGame creates and registers a game. An empty id gets a random one.
func (e *Engine) NewGame(id string, seats []Seat) (*Game, error) {
	if id == "" {
		id = uuid.NewString()
	}
	e.mu.Lock()
	if _, exists := e.games[id]; exists {
		e.mu.Unlock()
		return nil, fmt.Errorf("game %s already exists", id)
	}
	sink := e.sink
	hooks := slices.Clone(e.onGame)
	e.mu.Unlock()

	g, err := NewGame(id, e.cfg, e.logger, seats)
	if err != nil {
		return nil, err
	}
	g.SetSnapshotSink(sink)
	for _, fn := range hooks {
		fn(g)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.games[id]; exists {
		return nil, fmt.Errorf("game %s already exists", id)
	}
	e.games[id] = g
	e.logger.Info("game created", zap.String("game_id", id), zap.Int("players", len(seats)))
	return g, nil
}

// Game returns the game with the given id.
func (e *Engine) Game(id string) (*Game, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	g, ok := e.games[id]
	return g, ok
}

// Games returns the ids of the registered games, sorted.
func (e *Engine) Games() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.games))
	for id := range e.games {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// RunGame plays the game on the calling goroutine until it ends. A game can
// only run once at a time.
func (e *Engine) RunGame(ctx context.Context, id string) error {
	e.mu.Lock()
	g, ok := e.games[id]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("game %s: %w", id, ErrMissingReference)
	}
	if e.running[id] {
		e.mu.Unlock()
		return fmt.Errorf("game %s is already running", id)
	}
	e.running[id] = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		delete(e.running, id)
		e.mu.Unlock()
	}()

	err := g.Run(ctx)
	switch {
	case err == nil:
		e.logger.Info("game finished", zap.String("game_id", id), zap.String("winner", g.Winner()))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		e.logger.Info("game stopped", zap.String("game_id", id), zap.Error(err))
	default:
		e.logger.Error("game aborted", zap.String("game_id", id), zap.Error(err))
	}
	return err
}

// PlayerConcede records that playerID concedes. The game applies it the
// next time state-based actions are checked.
func (e *Engine) PlayerConcede(gameID, playerID string) error {
	g, ok := e.Game(gameID)
	if !ok {
		return fmt.Errorf("game %s: %w", gameID, ErrMissingReference)
	}
	return g.Concede(playerID)
}

// RemoveGame forgets a game that is not running.
func (e *Engine) RemoveGame(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running[id] {
		return fmt.Errorf("game %s is still running", id)
	}
	if _, ok := e.games[id]; !ok {
		return fmt.Errorf("game %s: %w", id, ErrMissingReference)
	}
	delete(e.games, id)
	e.logger.Debug("game removed", zap.String("game_id", id))
	return nil
}
