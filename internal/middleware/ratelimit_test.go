package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/velorashop/auth-service/internal/config"
)

func limiterFixture(t *testing.T, capacity int) echo.MiddlewareFunc {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       capacity,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		Prefix:         "rl",
	}
	return LoginRateLimit(cfg, rdb)
}

func fireLogin(t *testing.T, mw echo.MiddlewareFunc, ip string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	req.RemoteAddr = ip + ":51234"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec
}

func TestLoginRateLimitBlocksAfterBurst(t *testing.T) {
	mw := limiterFixture(t, 3)

	for i := 0; i < 3; i++ {
		rec := fireLogin(t, mw, "10.1.1.1")
		require.Equal(t, http.StatusOK, rec.Code, "request %d within burst", i+1)
	}

	rec := fireLogin(t, mw, "10.1.1.1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestLoginRateLimitIsPerIP(t *testing.T) {
	mw := limiterFixture(t, 1)

	require.Equal(t, http.StatusOK, fireLogin(t, mw, "10.1.1.1").Code)
	require.Equal(t, http.StatusTooManyRequests, fireLogin(t, mw, "10.1.1.1").Code)

	// A different source still has its full bucket.
	require.Equal(t, http.StatusOK, fireLogin(t, mw, "10.2.2.2").Code)
}

func TestLoginRateLimitDisabled(t *testing.T) {
	mw := LoginRateLimit(config.RateLimitConfig{Enabled: false}, nil)

	for i := 0; i < 20; i++ {
		require.Equal(t, http.StatusOK, fireLogin(t, mw, "10.1.1.1").Code)
	}
}
