package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"remote permanent", &RemoteError{Op: "create", Status: 403, Err: errors.New("forbidden")}, false},
		{"remote transient", &RemoteError{Op: "create", Status: 503, Retryable: true, Err: errors.New("busy")}, true},
		{"wrapped transient", fmt.Errorf("upload: %w", &RemoteError{Retryable: true, Err: errors.New("busy")}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestRetryPolicyZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	err := RetryPolicy{}.Do(context.Background(), "list", nil, func(context.Context) error {
		calls++
		return &RemoteError{Retryable: true, Err: errors.New("busy")}
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicyWaitsBetweenAttempts(t *testing.T) {
	calls := 0
	started := time.Now()
	err := RetryPolicy{Attempts: 3, Delay: 20 * time.Millisecond}.Do(context.Background(), "list", nil, func(context.Context) error {
		calls++
		if calls < 3 {
			return &RemoteError{Retryable: true, Err: errors.New("busy")}
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.GreaterOrEqual(t, time.Since(started), 40*time.Millisecond)
}

func TestRemoteErrorMessage(t *testing.T) {
	err := &RemoteError{Op: "create_file", Status: 503, Err: errors.New("backend error")}
	assert.Equal(t, "create_file: status 503: backend error", err.Error())

	err = &RemoteError{Op: "list", Err: errors.New("dial tcp")}
	assert.Equal(t, "list: dial tcp", err.Error())
}
