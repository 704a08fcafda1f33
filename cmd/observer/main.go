package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/magefree/mage-rules-go/internal/server"
	"go.uber.org/zap"
)

var (
	addr   = flag.String("addr", "localhost:8080", "address of the event broadcaster")
	gameID = flag.String("game", "", "only follow this game")
)

func main() {
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := watch(ctx, logger); err != nil {
		logger.Error("observer stopped", zap.Error(err))
		os.Exit(1)
	}
}

func watch(ctx context.Context, logger *zap.Logger) error {
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/events"}
	if *gameID != "" {
		u.RawQuery = url.Values{"game": {*gameID}}.Encode()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", u.String(), err)
	}
	defer conn.Close()
	logger.Info("connected", zap.String("url", u.String()))

	go func() {
		<-ctx.Done()
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		event, err := server.DecodeEvent(payload)
		if err != nil {
			logger.Warn("skipping malformed event", zap.Error(err))
			continue
		}
		fields := event.GetFields()
		logger.Info(fields["type"].GetStringValue(),
			zap.String("game_id", fields["game_id"].GetStringValue()),
			zap.Int64("sequence", int64(fields["sequence"].GetNumberValue())),
			zap.String("target_id", fields["target_id"].GetStringValue()),
			zap.String("player_id", fields["player_id"].GetStringValue()),
			zap.Int64("amount", int64(fields["amount"].GetNumberValue())),
			zap.String("description", fields["description"].GetStringValue()),
		)
	}
}
