package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotevault/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotevault/internal/platform/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequestIDMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		existingHeaderID string
		expectGenerated  bool
	}{
		{
			name:             "generates UUID when no header present",
			existingHeaderID: "",
			expectGenerated:  true,
		},
		{
			name:             "passes through existing header",
			existingHeaderID: "existing-req-123",
			expectGenerated:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var capturedID string
			var capturedContextID string

			router := gin.New()
			router.Use(RequestID())
			router.GET("/test", func(c *gin.Context) {
				capturedID = GetRequestID(c)
				capturedContextID = RequestIDFromContext(c.Request.Context())
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.existingHeaderID != "" {
				req.Header.Set(HeaderRequestID, tt.existingHeaderID)
			}

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)

			responseHeader := w.Header().Get(HeaderRequestID)
			assert.NotEmpty(t, responseHeader)

			assert.NotEmpty(t, capturedID)
			assert.Equal(t, responseHeader, capturedID)
			assert.Equal(t, capturedID, capturedContextID)

			if !tt.expectGenerated {
				assert.Equal(t, tt.existingHeaderID, capturedID)
			}
		})
	}
}

func TestCorrelationIDMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		existingHeaderID string
		expectGenerated  bool
	}{
		{
			name:             "generates UUID when no header present",
			existingHeaderID: "",
			expectGenerated:  true,
		},
		{
			name:             "passes through existing header",
			existingHeaderID: "existing-corr-456",
			expectGenerated:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var capturedID string
			var capturedContextID string

			router := gin.New()
			router.Use(CorrelationID())
			router.GET("/test", func(c *gin.Context) {
				capturedID = GetCorrelationID(c)
				capturedContextID = CorrelationIDFromContext(c.Request.Context())
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.existingHeaderID != "" {
				req.Header.Set(HeaderCorrelationID, tt.existingHeaderID)
			}

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, capturedID, capturedContextID)
			assert.Equal(t, w.Header().Get(HeaderCorrelationID), capturedID)

			if !tt.expectGenerated {
				assert.Equal(t, tt.existingHeaderID, capturedID)
			}
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Parallel()

	router := gin.New()
	router.Use(Recovery(discardLogger()))
	router.GET("/panic", func(_ *gin.Context) {
		panic("something broke")
	})
	router.GET("/ok", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	t.Run("recovers from panic with 500 envelope", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

		require.Equal(t, http.StatusInternalServerError, w.Code)

		var resp dto.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrorCodeInternal, resp.Error.Code)
	})

	t.Run("passes through normal requests", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestTimeoutMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("fast request completes", func(t *testing.T) {
		t.Parallel()

		router := gin.New()
		router.Use(Timeout(time.Second))
		router.GET("/fast", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fast", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("slow request times out", func(t *testing.T) {
		t.Parallel()

		router := gin.New()
		router.Use(Timeout(20 * time.Millisecond))
		router.GET("/slow", func(c *gin.Context) {
			select {
			case <-c.Request.Context().Done():
			case <-time.After(time.Second):
			}
			// Do not write; the middleware already responded.
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))

		require.Equal(t, http.StatusServiceUnavailable, w.Code)

		var resp dto.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrorCodeTimeout, resp.Error.Code)
	})
}

func TestSimpleTimeoutMiddleware(t *testing.T) {
	t.Parallel()

	router := gin.New()
	router.Use(SimpleTimeout(50 * time.Millisecond))
	router.GET("/deadline", func(c *gin.Context) {
		deadline, ok := c.Request.Context().Deadline()
		assert.True(t, ok, "context should carry a deadline")
		assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 40*time.Millisecond)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/deadline", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoggingMiddleware(t *testing.T) {
	t.Parallel()

	newRouter := func(buf *bytes.Buffer) *gin.Engine {
		logger := slog.New(slog.NewJSONHandler(buf, nil))

		router := gin.New()
		// Logging reads the enriched logger from the request context.
		router.Use(func(c *gin.Context) {
			c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(), logger))
			c.Next()
		})
		router.Use(Logging(logger))
		router.GET("/api/thing", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		router.GET("/-/live", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		router.GET("/api/boom", func(c *gin.Context) {
			c.Status(http.StatusInternalServerError)
		})

		return router
	}

	t.Run("logs api requests", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		router := newRouter(&buf)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/thing", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, buf.String(), "request started")
		assert.Contains(t, buf.String(), "request completed")
	})

	t.Run("skips health endpoints", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		router := newRouter(&buf)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/-/live", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, buf.String())
	})
}
