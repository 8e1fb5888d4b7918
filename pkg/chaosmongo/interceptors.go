package chaosmongo

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GateUnary refuses unary RPCs other than health checks while r is not
// ready, returning codes.Unavailable with r's last error as the message.
func GateUnary(r *Readiness) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if strings.HasSuffix(info.FullMethod, "/HealthCheck") {
			return handler(ctx, req)
		}

		if !r.Ready() {
			msg := r.LastError()
			if msg == "" {
				msg = unavailable
			}

			return nil, status.Error(codes.Unavailable, msg)
		}

		return handler(ctx, req)
	}
}

// GateStream is GateUnary's streaming counterpart.
func GateStream(r *Readiness) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if strings.HasSuffix(info.FullMethod, "/HealthCheck") {
			return handler(srv, ss)
		}

		if !r.Ready() {
			msg := r.LastError()
			if msg == "" {
				msg = unavailable
			}

			return status.Error(codes.Unavailable, msg)
		}

		return handler(srv, ss)
	}
}
