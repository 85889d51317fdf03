package service

import (
	"context"
	"fmt"
	"io"

	"github.com/WedtreeAutomation/PaySlip-Sender/config"
)

// NewBackend opens the remote store selected by cfg.Storage.Backend. The
// returned closer releases backend resources and is never nil.
func NewBackend(ctx context.Context, cfg *config.Config) (Backend, io.Closer, error) {
	switch cfg.Storage.Backend {
	case "drive":
		b, err := NewDriveBackend(ctx, &cfg.Drive)
		if err != nil {
			return nil, nil, err
		}
		return b, nopCloser{}, nil
	case "minio":
		b, err := NewMinioBackend(&cfg.Minio)
		if err != nil {
			return nil, nil, err
		}
		if err := b.EnsureBucket(ctx); err != nil {
			return nil, nil, fmt.Errorf("ensure bucket: %w", err)
		}
		return b, nopCloser{}, nil
	case "blob":
		b, err := OpenBlobBackend(ctx, &cfg.Blob)
		if err != nil {
			return nil, nil, err
		}
		return b, b, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// PolicyFromConfig builds the gateway retry policy from storage settings.
func PolicyFromConfig(cfg *config.StorageConfig) RetryPolicy {
	p := DefaultRetryPolicy
	if cfg.RetryAttempts > 0 {
		p.Attempts = cfg.RetryAttempts
	}
	if cfg.RetryDelay > 0 {
		p.Delay = cfg.RetryDelay
	}
	return p
}
