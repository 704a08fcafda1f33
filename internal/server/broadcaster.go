package server

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/magefree/mage-rules-go/internal/config"
	"github.com/magefree/mage-rules-go/internal/game"
	"github.com/magefree/mage-rules-go/internal/game/rules"
	"go.uber.org/zap"
)

const maxObserverMessage = 512

// Broadcaster pushes game events to websocket observers. It only reads
// from event buses and never touches game state. Slow observers lose
// messages instead of holding up a game.
type Broadcaster struct {
	cfg      config.WebSocketConfig
	logger   *zap.Logger
	upgrader websocket.Upgrader

	clients    map[*observer]struct{}
	register   chan *observer
	unregister chan *observer
	broadcast  chan outbound
	count      chan chan int
	done       chan struct{}

	dropped atomic.Uint64
}

type outbound struct {
	gameID  string
	payload []byte
}

type observer struct {
	conn   *websocket.Conn
	send   chan []byte
	gameID string // empty follows every game
}

// NewBroadcaster creates a broadcaster. Run must be started before
// observers connect.
func NewBroadcaster(cfg config.WebSocketConfig, logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 256
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 60 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	return &Broadcaster{
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:    make(map[*observer]struct{}),
		register:   make(chan *observer),
		unregister: make(chan *observer),
		broadcast:  make(chan outbound, cfg.SendBuffer),
		count:      make(chan chan int),
		done:       make(chan struct{}),
	}
}

// Attach subscribes to the game's event bus. The returned function
// unsubscribes.
func (b *Broadcaster) Attach(g *game.Game) func() {
	gameID := g.ID
	bus := g.Bus()
	handle := bus.Subscribe(func(event rules.Event) {
		payload, err := EncodeEvent(gameID, event)
		if err != nil {
			b.logger.Warn("failed to encode event",
				zap.String("game_id", gameID),
				zap.String("event", string(event.Type)),
				zap.Error(err),
			)
			return
		}
		b.Publish(gameID, payload)
	})
	return func() { bus.Unsubscribe(handle) }
}

// Publish queues a payload for the observers of gameID. It never blocks.
func (b *Broadcaster) Publish(gameID string, payload []byte) {
	select {
	case b.broadcast <- outbound{gameID: gameID, payload: payload}:
	default:
		b.dropped.Add(1)
	}
}

// Dropped reports how many messages were discarded because a buffer was
// full.
func (b *Broadcaster) Dropped() uint64 {
	return b.dropped.Load()
}

// Observers returns the number of connected observers, or zero once Run
// has returned.
func (b *Broadcaster) Observers() int {
	reply := make(chan int, 1)
	select {
	case b.count <- reply:
		return <-reply
	case <-b.done:
		return 0
	}
}

// Run dispatches messages until ctx is done, then disconnects every
// observer.
func (b *Broadcaster) Run(ctx context.Context) error {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			for c := range b.clients {
				close(c.send)
				delete(b.clients, c)
			}
			return nil

		case c := <-b.register:
			b.clients[c] = struct{}{}
			b.logger.Debug("observer registered",
				zap.String("game_id", c.gameID),
				zap.String("remote", c.conn.RemoteAddr().String()),
			)

		case c := <-b.unregister:
			if _, ok := b.clients[c]; ok {
				delete(b.clients, c)
				close(c.send)
				b.logger.Debug("observer unregistered", zap.String("game_id", c.gameID))
			}

		case reply := <-b.count:
			reply <- len(b.clients)

		case msg := <-b.broadcast:
			for c := range b.clients {
				if c.gameID != "" && c.gameID != msg.gameID {
					continue
				}
				select {
				case c.send <- msg.payload:
				default:
					b.dropped.Add(1)
				}
			}
		}
	}
}

// ServeHTTP upgrades the request to a websocket observer. The optional
// "game" query parameter restricts it to one game.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &observer{
		conn:   conn,
		send:   make(chan []byte, b.cfg.SendBuffer),
		gameID: r.URL.Query().Get("game"),
	}
	select {
	case b.register <- c:
	case <-b.done:
		conn.Close()
		return
	}
	go b.writePump(c)
	b.readPump(c)
}

// readPump discards observer input and keeps the read deadline moving on
// pongs. It returns when the connection fails.
func (b *Broadcaster) readPump(c *observer) {
	defer func() {
		select {
		case b.unregister <- c:
		case <-b.done:
		}
		c.conn.Close()
	}()

	pongWait := 2 * b.cfg.PingInterval
	c.conn.SetReadLimit(maxObserverMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump sends queued payloads and pings the observer on its own ticker.
func (b *Broadcaster) writePump(c *observer) {
	ticker := time.NewTicker(b.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(b.cfg.WriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(b.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				b.logger.Debug("observer ping failed", zap.Error(err))
				return
			}
		}
	}
}
