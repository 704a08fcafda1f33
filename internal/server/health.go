package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime/debug"
	"time"

	"github.com/magefree/mage-rules-go/internal/game"
	"github.com/magefree/mage-rules-go/internal/game/rules"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// GameService is the health service name reported for a game.
func GameService(gameID string) string {
	return "mage.game." + gameID
}

// HealthServer exposes the gRPC health protocol. The empty service name
// reports the process; every attached game gets its own service that turns
// NOT_SERVING when the game ends.
type HealthServer struct {
	logger *zap.Logger
	grpc   *grpc.Server
	health *health.Server
}

// NewHealthServer creates the gRPC server with the health service
// registered.
func NewHealthServer(logger *zap.Logger) *HealthServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor(logger),
			LoggingInterceptor(logger),
		),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 10 * time.Second,
		}),
	)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	return &HealthServer{
		logger: logger,
		grpc:   grpcServer,
		health: healthServer,
	}
}

// Attach reports the game as SERVING and flips it to NOT_SERVING on game
// over.
func (h *HealthServer) Attach(g *game.Game) {
	service := GameService(g.ID)
	h.health.SetServingStatus(service, healthpb.HealthCheckResponse_SERVING)
	g.Bus().SubscribeTyped(rules.EventGameOver, func(rules.Event) {
		h.health.SetServingStatus(service, healthpb.HealthCheckResponse_NOT_SERVING)
	})
}

// Forget drops the health entry of a removed game.
func (h *HealthServer) Forget(gameID string) {
	h.health.SetServingStatus(GameService(gameID), healthpb.HealthCheckResponse_SERVICE_UNKNOWN)
}

// Serve accepts connections on lis until ctx is done, then drains them.
func (h *HealthServer) Serve(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("starting gRPC health server", zap.String("address", lis.Addr().String()))
		errCh <- h.grpc.Serve(lis)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		h.health.Shutdown()
		h.grpc.GracefulStop()
		<-errCh
		return nil
	}
}

// RecoveryInterceptor turns a handler panic into an Internal error.
func RecoveryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic in gRPC handler",
					zap.String("method", info.FullMethod),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
				)
				err = status.Errorf(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}

// LoggingInterceptor logs every unary call at debug level.
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Duration("duration", time.Since(start)),
			zap.String("code", status.Code(err).String()),
		}
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			fields = append(fields, zap.String("peer", p.Addr.String()))
		}
		logger.Debug("gRPC call", fields...)
		return resp, err
	}
}
