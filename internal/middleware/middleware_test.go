package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/auth"
)

type emptyMsg struct{}

// call runs interceptor around a handler that records the context it saw.
func call(t *testing.T, interceptor connect.UnaryInterceptorFunc, header string) (context.Context, error) {
	t.Helper()
	var seen context.Context
	next := connect.UnaryFunc(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		seen = ctx
		return connect.NewResponse(&emptyMsg{}), nil
	})
	req := connect.NewRequest(&emptyMsg{})
	if header != "" {
		req.Header().Set("Authorization", header)
	}
	_, err := interceptor(next)(context.Background(), req)
	return seen, err
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	token, err := jwtManager.Generate(auth.Identity{UserID: "alice", DisplayName: "Alice"})
	require.NoError(t, err)

	ctx, err := call(t, RequireAuth(jwtManager), "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "alice", GetUserID(ctx))
	assert.Equal(t, "Alice", GetDisplayName(ctx))

	for _, header := range []string{"", "Bearer", "Token " + token, "Bearer garbage"} {
		_, err := call(t, RequireAuth(jwtManager), header)
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err), "header %q", header)
	}
}

func TestOptionalAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	token, err := jwtManager.Generate(auth.Identity{UserID: "alice"})
	require.NoError(t, err)

	ctx, err := call(t, OptionalAuth(jwtManager), "")
	require.NoError(t, err)
	assert.Empty(t, GetUserID(ctx))

	ctx, err = call(t, OptionalAuth(jwtManager), "Bearer garbage")
	require.NoError(t, err)
	assert.Empty(t, GetUserID(ctx))

	ctx, err = call(t, OptionalAuth(jwtManager), "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "alice", GetUserID(ctx))
}

func TestLoggingInterceptor(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	jwtManager := auth.NewJWTManager("secret", time.Hour)
	token, err := jwtManager.Generate(auth.Identity{UserID: "alice"})
	require.NoError(t, err)

	chain := connect.UnaryInterceptorFunc(func(next connect.UnaryFunc) connect.UnaryFunc {
		return LoggingInterceptor()(RequireAuth(jwtManager)(next))
	})

	_, err = call(t, chain, "Bearer "+token)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"msg":"RPC ok"`)
	assert.Contains(t, buf.String(), `"user_id":"alice"`)

	buf.Reset()
	_, err = call(t, chain, "")
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"msg":"RPC rejected"`)
	assert.NotContains(t, buf.String(), "user_id")
}

func TestMetricsInterceptor(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	_, err := call(t, m.Interceptor(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, testutil.CollectAndCount(m.requests))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("", "ok")))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 2})
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 3)
	for i := range codes {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		h.ServeHTTP(rec, req)
		codes[i] = rec.Code
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code, "other clients have their own budget")

	rl.Prune(0)
	assert.Empty(t, rl.clients)
}
