package rpc

import (
	"context"
	"strings"
	"time"

	"github.com/happyflights/flightbooking/internal/auth"
	"github.com/happyflights/flightbooking/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const legacyTokenKey = "x-auth-token"

type TokenVerifier interface {
	Verify(token string) (*auth.Identity, error)
}

// AdminOnly rejects calls to the listed full method names unless the
// metadata carries an admin token, either as a bearer authorization or under
// x-auth-token.
func AdminOnly(verifier TokenVerifier, methods ...string) grpc.UnaryServerInterceptor {
	guarded := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		guarded[m] = struct{}{}
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := guarded[info.FullMethod]; !ok {
			return handler(ctx, req)
		}
		token := tokenFromMetadata(ctx)
		if token == "" {
			return nil, status.Error(codes.Unauthenticated, "No token, authorization denied")
		}
		identity, err := verifier.Verify(token)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "Token is not valid")
		}
		if !identity.IsAdmin {
			return nil, status.Error(codes.PermissionDenied, "Not authorized as admin")
		}
		return handler(ctx, req)
	}
}

func tokenFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get("authorization"); len(values) > 0 {
		if token, found := strings.CutPrefix(values[0], "Bearer "); found {
			return strings.TrimSpace(token)
		}
	}
	if values := md.Get(legacyTokenKey); len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}

// Logger logs one line per call.
func Logger() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("latency", time.Since(start)),
		}
		log := logger.WithComponent("grpc")
		if code == codes.Internal || code == codes.Unknown {
			log.Error("call", fields...)
			return resp, err
		}
		log.Info("call", fields...)
		return resp, err
	}
}
