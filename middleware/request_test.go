package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequestIDMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	tests := []struct {
		name     string
		inbound  string
		expectID string
	}{
		{"generated", "", ""},
		{"reused", "existing-request-id-123", "existing-request-id-123"},
		{"rejected", "bad id\nwith newline", ""},
		{"too long", strings.Repeat("a", 65), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			if tt.inbound != "" {
				req.Header.Set("X-Request-ID", tt.inbound)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			responseID := w.Header().Get("X-Request-ID")
			if responseID == "" {
				t.Fatal("Expected X-Request-ID header to be set")
			}
			if tt.expectID != "" && responseID != tt.expectID {
				t.Errorf("Expected request ID '%s', got '%s'", tt.expectID, responseID)
			}
			if tt.expectID == "" && responseID == tt.inbound {
				t.Errorf("Expected a generated id, got inbound '%s'", responseID)
			}
			if w.Body.String() != responseID {
				t.Errorf("Expected handler to see '%s', got '%s'", responseID, w.Body.String())
			}
		})
	}
}

func TestGetRequestIDEmpty(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if requestID := GetRequestID(c); requestID != "" {
		t.Errorf("Expected empty string, got '%s'", requestID)
	}
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestRequestLoggerMiddleware(t *testing.T) {
	buf := captureLogs(t)

	router := gin.New()
	router.Use(RequestID())
	router.Use(RequestLogger())
	router.GET("/runs/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
	router.GET("/error", func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
	})
	router.GET("/server-error", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	})

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		logLevel       string
	}{
		{"success request", "/runs/abc", http.StatusOK, "INFO"},
		{"client error", "/error", http.StatusBadRequest, "WARN"},
		{"server error", "/server-error", http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()

			req := httptest.NewRequest("GET", tt.path, nil)
			req.Header.Set("X-Request-ID", "req-1")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			logOutput := buf.String()
			for _, want := range []string{"request completed", tt.path, "level=" + tt.logLevel, "request_id=req-1"} {
				if !strings.Contains(logOutput, want) {
					t.Errorf("Expected '%s' in log, got %s", want, logOutput)
				}
			}
		})
	}

	buf.Reset()
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/runs/abc?format=csv", nil))
	logOutput := buf.String()
	if !strings.Contains(logOutput, "route=/runs/:id") {
		t.Errorf("Expected route template in log, got %s", logOutput)
	}
	if !strings.Contains(logOutput, "query=format=csv") {
		t.Errorf("Expected query in log, got %s", logOutput)
	}
}

func TestRequestLoggerIncludesUsername(t *testing.T) {
	buf := captureLogs(t)
	token, _, _ := GenerateToken("hr", "admin", testAuth)

	router := gin.New()
	router.Use(RequestLogger())
	router.Use(AuthMiddleware(testAuth))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), "username=hr") {
		t.Errorf("Expected username in log, got %s", buf.String())
	}
}
