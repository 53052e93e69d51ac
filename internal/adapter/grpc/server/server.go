package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/seu-repo/rentmap-voice/internal/adapter/grpc/interceptors"
	"github.com/seu-repo/rentmap-voice/pkg/config"
)

// ServiceName is the health service name probes ask about besides "".
const ServiceName = "rentmap.voice"

// ReadinessFunc reports whether every backing dependency is reachable.
type ReadinessFunc func(ctx context.Context) bool

// GRPCServer exposes the standard health protocol and reflection.
type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	log    *zap.Logger
}

// NewGRPCServer builds the server with the observe interceptors,
// plus JWT auth when enabled.
func NewGRPCServer(jwtCfg config.JWTConfig, log *zap.Logger) *GRPCServer {
	unary := []grpc.UnaryServerInterceptor{interceptors.UnaryObserveInterceptor(log)}
	stream := []grpc.StreamServerInterceptor{interceptors.StreamObserveInterceptor(log)}
	if jwtCfg.Enabled {
		unary = append(unary, interceptors.UnaryAuthInterceptor(jwtCfg))
		stream = append(stream, interceptors.StreamAuthInterceptor(jwtCfg))
	}

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(unary...),
		grpc.ChainStreamInterceptor(stream...),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &GRPCServer{server: s, health: hs, log: log}
}

// SetServing flips both the overall and the named service status.
func (s *GRPCServer) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Watch polls ready every interval and mirrors the result into the health
// service until ctx is done.
func (s *GRPCServer) Watch(ctx context.Context, interval time.Duration, ready ReadinessFunc) {
	last := false
	check := func() {
		ok := ready(ctx)
		if ok != last {
			s.log.Info("gRPC health status changed", zap.Bool("serving", ok))
			last = ok
		}
		s.SetServing(ok)
	}

	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}

// Serve blocks accepting connections on port.
func (s *GRPCServer) Serve(port int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.log.Info("gRPC server listening", zap.Int("port", port))
	return s.server.Serve(lis)
}

// Stop marks the service as not serving and drains in-flight calls.
func (s *GRPCServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
