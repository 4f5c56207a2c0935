package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

func TestRateLimitThrottlesPerIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rate, err := limiter.NewRateFromFormatted("2-H")
	require.NoError(t, err)
	instance := limiter.New(memory.NewStore(), rate)

	r := gin.New()
	r.Use(RateLimit(instance))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	perform := func() int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, perform())
	assert.Equal(t, http.StatusOK, perform())
	assert.Equal(t, http.StatusTooManyRequests, perform())
}
