package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRateLimiter_AllowsBurstThenBlocks(t *testing.T) {
	rl := NewRateLimiter(60, 3)
	fixed := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }

	for i := range 3 {
		require.True(t, rl.Allow("10.0.0.1"), "request %d should be allowed", i+1)
	}
	require.False(t, rl.Allow("10.0.0.1"), "fourth request should be limited")
	require.True(t, rl.Allow("10.0.0.2"), "other clients have their own bucket")

	// 60/min refills one token per second.
	fixed = fixed.Add(time.Second)
	assert.True(t, rl.Allow("10.0.0.1"), "token should refill after one second")
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(10, 0)
	fixed := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }

	rl.Allow("a")
	fixed = fixed.Add(idleTTL + time.Second)
	rl.Allow("b")

	rl.Cleanup()
	assert.Equal(t, 1, rl.Len())
}

func TestRateLimitByIP(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	handler := RateLimitByIP(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(remote, xff string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		if xff != "" {
			req.Header.Set("X-Forwarded-For", xff)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("192.0.2.1:1234", ""), "first request")
	assert.Equal(t, http.StatusTooManyRequests, do("192.0.2.1:5678", ""), "second request")
	assert.Equal(t, http.StatusOK, do("192.0.2.1:5678", "203.0.113.9, 10.0.0.1"), "forwarded client")
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"remote addr", "192.0.2.1:80", "", "", "192.0.2.1"},
		{"forwarded list", "192.0.2.1:80", "203.0.113.5, 198.51.100.7", "", "203.0.113.5"},
		{"forwarded with port", "192.0.2.1:80", "203.0.113.5:443", "", "203.0.113.5"},
		{"real ip", "192.0.2.1:80", "", "198.51.100.1", "198.51.100.1"},
		{"bare remote", "unix", "", "", "unix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	var seenID string
	handler := RequestLogger(zap.New(core), false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("hello"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))

	id := rec.Header().Get("X-Request-ID")
	require.Len(t, id, 8)
	require.Equal(t, seenID, id)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	all := logs.All()
	require.Len(t, all, 2)
	assert.Equal(t, zapcore.DebugLevel, all[0].Level)
	assert.Equal(t, int64(5), all[0].ContextMap()["bytes"])
	assert.Equal(t, zapcore.WarnLevel, all[1].Level)
	assert.Equal(t, int64(404), all[1].ContextMap()["status"])
}
