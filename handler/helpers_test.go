package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"sync"
	"testing"

	"github.com/WedtreeAutomation/PaySlip-Sender/service"
	"github.com/gin-gonic/gin"
	"gocloud.dev/blob/memblob"
)

const testBaseURL = "https://files.example.test"

// asUser stands in for the auth middleware.
func asUser(username, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("username", username)
		c.Set("role", role)
		c.Next()
	}
}

func newTestGateway(t *testing.T) *service.Gateway {
	t.Helper()
	backend := service.NewBlobBackend(memblob.OpenBucket(nil), testBaseURL)
	t.Cleanup(func() { backend.Close() })
	return service.NewGateway(backend, service.RetryPolicy{Attempts: 1}, nil)
}

type upload struct {
	filename string
	data     []byte
}

func multipartBody(t *testing.T, fields map[string]string, files map[string]upload) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("Failed to write field: %v", err)
		}
	}
	for field, f := range files {
		part, err := w.CreateFormFile(field, f.filename)
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		part.Write(f.data)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}
	return &body, w.FormDataContentType()
}

type stubSender struct {
	mu  sync.Mutex
	to  []string
	err error
}

func (s *stubSender) Send(_ context.Context, to, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.to = append(s.to, to)
	if s.err != nil {
		return "rejected", s.err
	}
	return "queued", nil
}
