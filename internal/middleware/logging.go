package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type callInfoKey struct{}

// callInfo is filled in by the auth interceptors, which run inside the
// logging interceptor and so cannot hand the identity back through ctx.
type callInfo struct {
	userID string
}

func recordCaller(ctx context.Context, userID string) {
	if info, ok := ctx.Value(callInfoKey{}).(*callInfo); ok {
		info.userID = userID
	}
}

// LoggingInterceptor logs every RPC with its outcome, caller and latency.
// Rejections with a client code are logged at Warn, other failures at Error.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			info := &callInfo{}
			resp, err := next(context.WithValue(ctx, callInfoKey{}, info), req)

			logger := slog.With(
				"procedure", req.Spec().Procedure,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			if id := chimw.GetReqID(ctx); id != "" {
				logger = logger.With("request_id", id)
			}
			if info.userID != "" {
				logger = logger.With("user_id", info.userID)
			}

			var connectErr *connect.Error
			switch {
			case err == nil:
				logger.Info("RPC ok")
			case errors.As(err, &connectErr) && isClientCode(connectErr.Code()):
				logger.Warn("RPC rejected", "code", connectErr.Code(), "error", connectErr.Message())
			default:
				logger.Error("RPC failed", "code", connect.CodeOf(err), "error", err)
			}
			return resp, err
		}
	}
}

func isClientCode(code connect.Code) bool {
	switch code {
	case connect.CodeInvalidArgument, connect.CodeFailedPrecondition, connect.CodeNotFound,
		connect.CodeUnauthenticated, connect.CodePermissionDenied, connect.CodeAlreadyExists,
		connect.CodeResourceExhausted:
		return true
	}
	return false
}
