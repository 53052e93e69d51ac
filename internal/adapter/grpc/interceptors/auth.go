package interceptors

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/seu-repo/rentmap-voice/pkg/config"
)

type contextKey string

const UserIDKey contextKey = "user_id"

const healthService = "/grpc.health.v1.Health/"

// UnaryAuthInterceptor validates bearer tokens on every method except the
// health service, which probes call without credentials.
func UnaryAuthInterceptor(cfg config.JWTConfig) grpc.UnaryServerInterceptor {
	parser := newParser(cfg)
	secret := []byte(cfg.Secret)

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if strings.HasPrefix(info.FullMethod, healthService) {
			return handler(ctx, req)
		}
		ctx, err := authenticate(ctx, parser, secret)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamAuthInterceptor guards streaming methods such as reflection.
func StreamAuthInterceptor(cfg config.JWTConfig) grpc.StreamServerInterceptor {
	parser := newParser(cfg)
	secret := []byte(cfg.Secret)

	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if strings.HasPrefix(info.FullMethod, healthService) {
			return handler(srv, ss)
		}
		if _, err := authenticate(ss.Context(), parser, secret); err != nil {
			return err
		}
		return handler(srv, ss)
	}
}

func newParser(cfg config.JWTConfig) *jwt.Parser {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return jwt.NewParser(opts...)
}

func authenticate(ctx context.Context, parser *jwt.Parser, secret []byte) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing metadata")
	}

	authHeader := md.Get("authorization")
	if len(authHeader) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing authorization header")
	}

	raw := strings.TrimPrefix(authHeader[0], "Bearer ")
	claims := jwt.RegisteredClaims{}
	_, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	return context.WithValue(ctx, UserIDKey, claims.Subject), nil
}
