package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterBlocksAfterMaxAttempts(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, 10*time.Minute)
	now := time.Now()
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"), "other clients are unaffected")
	assert.Equal(t, now.Add(10*time.Minute), rl.BlockedUntil("1.2.3.4"))

	now = now.Add(11 * time.Minute)
	assert.True(t, rl.Allow("1.2.3.4"), "block expired")
	assert.True(t, rl.BlockedUntil("1.2.3.4").IsZero())
}

func TestRateLimiterWindowResets(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, time.Hour)
	now := time.Now()
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("k"))
	now = now.Add(2 * time.Minute)
	assert.True(t, rl.Allow("k"))
}

func TestRateLimiterRecordSuccessAndSweep(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, time.Minute)
	now := time.Now()
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	rl.RecordSuccess("a")
	assert.True(t, rl.Allow("a"))

	rl.Allow("b")
	now = now.Add(5 * time.Minute)
	rl.sweep()
	assert.Empty(t, rl.attempts)
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, time.Minute)
	e := echo.New()
	h := rl.Middleware(func(c echo.Context, retryAfter time.Duration) error {
		return c.String(http.StatusTooManyRequests, "slow down")
	})(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "9.9.9.9:1234"
		rec := httptest.NewRecorder()
		require.NoError(t, h(e.NewContext(req, rec)))
		return rec
	}

	assert.Equal(t, http.StatusOK, do().Code)
	rec := do()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}
