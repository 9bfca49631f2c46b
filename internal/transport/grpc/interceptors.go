package grpcx

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const defaultCallTimeout = 10 * time.Second

// UnaryServerInterceptor logs every call and turns panics into codes.Internal.
// Calls without a deadline get defaultCallTimeout.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, defaultCallTimeout)
			defer cancel()
		}
		defer observe("unary", info.FullMethod, time.Now(), &err)

		return handler(ctx, req)
	}
}

// StreamServerInterceptor covers Health/Watch. Streams are long lived, so no deadline is added.
func StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer observe("stream", info.FullMethod, time.Now(), &err)

		return handler(srv, ss)
	}
}

// observe must be deferred directly so that recover sees the handler's panic.
func observe(kind, method string, start time.Time, err *error) {
	if r := recover(); r != nil {
		slog.Error("grpc panic", "kind", kind, "method", method, "panic", r, "stack", string(debug.Stack()))
		*err = status.Error(codes.Internal, "internal server error")
	}
	slog.Debug("grpc call",
		"kind", kind,
		"method", method,
		"code", status.Code(*err).String(),
		"dur_ms", time.Since(start).Milliseconds(),
	)
}
