package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doLimitedRequest(t *testing.T, limiter *RateLimiter, path, ip string) int {
	t.Helper()
	e := echo.New()
	handler := limiter.RateLimit()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("X-Real-IP", ip)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(path)
	require.NoError(t, handler(c))
	return rec.Code
}

func TestRateLimit_AllowsWithinBurst(t *testing.T) {
	limiter := NewRateLimiter()
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doLimitedRequest(t, limiter, "/api/v1/user/login", "10.0.0.1"))
	}
}

// TestRateLimit_BlocksAfterBurst verifies the sixth login attempt in a
// burst is rejected and the IP stays blocked afterwards.
func TestRateLimit_BlocksAfterBurst(t *testing.T) {
	limiter := NewRateLimiter()
	ip := "10.0.0.2"
	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, doLimitedRequest(t, limiter, "/api/v1/user/login", ip))
	}
	assert.Equal(t, http.StatusTooManyRequests, doLimitedRequest(t, limiter, "/api/v1/user/login", ip))

	// The block applies to every path, not just the offending one
	assert.Equal(t, http.StatusTooManyRequests, doLimitedRequest(t, limiter, "/api/v1/post/all", ip))
}

func TestRateLimit_IndependentPerIP(t *testing.T) {
	limiter := NewRateLimiter()
	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, doLimitedRequest(t, limiter, "/api/v1/user/login", "10.0.0.3"))
	}
	require.Equal(t, http.StatusTooManyRequests, doLimitedRequest(t, limiter, "/api/v1/user/login", "10.0.0.3"))

	assert.Equal(t, http.StatusOK, doLimitedRequest(t, limiter, "/api/v1/user/login", "10.0.0.4"))
}

func TestRateLimit_UploadsExempt(t *testing.T) {
	limiter := NewRateLimiter()
	for i := 0; i < 100; i++ {
		assert.Equal(t, http.StatusOK, doLimitedRequest(t, limiter, "/uploads/posts/a.jpg", "10.0.0.5"))
	}
}
