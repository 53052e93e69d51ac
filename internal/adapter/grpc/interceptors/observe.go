package interceptors

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/seu-repo/rentmap-voice/internal/observability/telemetry"
)

// UnaryObserveInterceptor records latency and status for every call and
// logs it. Health probes only log failures.
func UnaryObserveInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		observe(log, info.FullMethod, start, err)
		return resp, err
	}
}

// StreamObserveInterceptor does the same for streams, measured until the
// stream ends (health Watch streams can last for the life of a probe).
func StreamObserveInterceptor(log *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		observe(log, info.FullMethod, start, err)
		return err
	}
}

func observe(log *zap.Logger, method string, start time.Time, err error) {
	elapsed := time.Since(start)
	code := status.Code(err)

	telemetry.GRPCRequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
	telemetry.GRPCRequestsTotal.WithLabelValues(method, code.String()).Inc()

	fields := []zap.Field{
		zap.String("method", method),
		zap.Duration("duration", elapsed),
		zap.Stringer("code", code),
	}
	switch {
	case err != nil && code != codes.Canceled:
		log.Warn("gRPC call failed", append(fields, zap.Error(err))...)
	case strings.HasPrefix(method, healthService):
	default:
		log.Debug("gRPC call", fields...)
	}
}
