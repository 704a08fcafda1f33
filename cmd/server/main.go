package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/magefree/mage-rules-go/internal/config"
	"github.com/magefree/mage-rules-go/internal/game"
	"github.com/magefree/mage-rules-go/internal/repository"
	"github.com/magefree/mage-rules-go/internal/server"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	demo       = flag.Bool("demo", true, "play a scripted demo game after startup")
	demoDelay  = flag.Duration("demo-delay", 5*time.Second, "time given to observers to connect before the demo starts")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting MAGE rules server",
		zap.String("build", version),
		zap.String("engine_version", cfg.Version.String()),
		zap.String("config", *configPath),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("MAGE rules server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	engine := game.NewEngine(cfg, logger.Named("engine"))

	if cfg.Database.URL != "" {
		db, err := repository.NewDB(ctx, cfg.Database, logger.Named("db"))
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			return err
		}
		engine.SetSnapshotSink(repository.NewSnapshotStore(db, logger.Named("snapshots")))
	} else {
		logger.Warn("database not configured; snapshots are not stored")
	}

	broadcaster := server.NewBroadcaster(cfg.Server.WebSocket, logger.Named("broadcast"))
	health := server.NewHealthServer(logger.Named("grpc"))
	engine.OnNewGame(func(g *game.Game) {
		broadcaster.Attach(g)
		health.Attach(g)
	})

	lis, err := net.Listen("tcp", cfg.Server.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Server.GRPC.Address, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/events", broadcaster)
	httpServer := &http.Server{
		Addr:              cfg.Server.WebSocket.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return broadcaster.Run(ctx) })
	g.Go(func() error { return health.Serve(ctx, lis) })
	g.Go(func() error {
		logger.Info("starting event broadcaster", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("websocket server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if *demo {
		g.Go(func() error { return playDemo(ctx, engine, logger) })
	}

	return g.Wait()
}

// playDemo runs a short scripted duel so observers have something to
// watch. Its outcome does not stop the server.
func playDemo(ctx context.Context, engine *game.Engine, logger *zap.Logger) error {
	select {
	case <-ctx.Done():
		return nil
	case <-time.After(*demoDelay):
	}

	seats, err := demoSeats()
	if err != nil {
		return err
	}
	g, err := engine.NewGame("", seats)
	if err != nil {
		return err
	}
	if err := engine.RunGame(ctx, g.ID); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("demo game ended abnormally", zap.String("game_id", g.ID), zap.Error(err))
		return nil
	}
	logger.Info("demo game over",
		zap.String("game_id", g.ID),
		zap.Int("turns", g.Turn()),
		zap.String("winner", g.Winner()),
	)
	return nil
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
