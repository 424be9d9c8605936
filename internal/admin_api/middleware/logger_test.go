package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/venue-commerce-admin/internal/domain/venue"
)

func newBufferedLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLoggerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("LogsRequestDetails", func(t *testing.T) {
		var logBuffer bytes.Buffer

		router := gin.New()
		router.Use(CorrelationID())
		router.Use(Logger(newBufferedLogger(&logBuffer)))
		router.GET("/venues/:venue_id/orders", func(c *gin.Context) {
			c.Set(SessionKey, &venue.Session{UserID: "user-7", Role: venue.RoleUser})
			c.String(http.StatusOK, "OK")
		})

		req, _ := http.NewRequest(http.MethodGet, "/venues/venue-1/orders?page=2", nil)
		req.Header.Set("User-Agent", "test-agent")
		testCorrelationID := uuid.New().String()
		req.Header.Set(CorrelationIDHeader, testCorrelationID)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		logOutput := logBuffer.String()
		assert.Contains(t, logOutput, `"level":"INFO"`)
		assert.Contains(t, logOutput, `"msg":"HTTP request"`)
		assert.Contains(t, logOutput, `"method":"GET"`)
		assert.Contains(t, logOutput, `"path":"/venues/venue-1/orders?page=2"`)
		assert.Contains(t, logOutput, `"status":200`)
		assert.Contains(t, logOutput, `"latency":`)
		assert.Contains(t, logOutput, `"user_agent":"test-agent"`)
		assert.Contains(t, logOutput, `"user_id":"user-7"`)
		assert.Contains(t, logOutput, `"venue_id":"venue-1"`)
		assert.Contains(t, logOutput, `"correlation_id":"`+testCorrelationID+`"`)
	})

	t.Run("ClientErrorsLoggedAtWarn", func(t *testing.T) {
		var logBuffer bytes.Buffer

		router := gin.New()
		router.Use(CorrelationID())
		router.Use(Logger(newBufferedLogger(&logBuffer)))
		router.POST("/bad", func(c *gin.Context) {
			c.Status(http.StatusBadRequest)
		})

		req, _ := http.NewRequest(http.MethodPost, "/bad", strings.NewReader("body"))
		router.ServeHTTP(httptest.NewRecorder(), req)

		assert.Contains(t, logBuffer.String(), `"level":"WARN"`)
		assert.Contains(t, logBuffer.String(), `"status":400`)
		assert.NotContains(t, logBuffer.String(), `"user_id"`)
	})

	t.Run("ServerErrorsLoggedAtError", func(t *testing.T) {
		var logBuffer bytes.Buffer

		router := gin.New()
		router.Use(Logger(newBufferedLogger(&logBuffer)))
		router.GET("/boom", func(c *gin.Context) {
			c.Status(http.StatusInternalServerError)
		})

		req, _ := http.NewRequest(http.MethodGet, "/boom", nil)
		router.ServeHTTP(httptest.NewRecorder(), req)

		assert.Contains(t, logBuffer.String(), `"level":"ERROR"`)
	})
}
