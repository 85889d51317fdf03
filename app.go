package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/WedtreeAutomation/PaySlip-Sender/config"
	"github.com/WedtreeAutomation/PaySlip-Sender/pkg/logger"
	"github.com/WedtreeAutomation/PaySlip-Sender/pkg/metrics"
	"github.com/WedtreeAutomation/PaySlip-Sender/service"
)

// app holds the services shared by every command.
type app struct {
	cfg         *config.Config
	metrics     *metrics.Metrics
	gateway     *service.Gateway
	distributor *service.Distributor
	dispatcher  *service.Dispatcher // nil when sms.enabled is false
	closer      io.Closer
}

func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	slog.Info("configuration loaded", "path", configPath, "backend", cfg.Storage.Backend)

	return newApp(ctx, cfg)
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics.Namespace)
	}

	backend, closer, err := service.NewBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	gw := service.NewGateway(backend, service.PolicyFromConfig(&cfg.Storage), m)

	a := &app{
		cfg:         cfg,
		metrics:     m,
		gateway:     gw,
		distributor: service.NewDistributor(gw, service.NewIdentifierExtractor(), &cfg.Distribution, m),
		closer:      closer,
	}

	if cfg.SMS.Enabled {
		a.dispatcher, err = service.NewDispatcher(service.NewSMSClient(&cfg.SMS), &cfg.SMS, m)
		if err != nil {
			closer.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *app) Close() error {
	return a.closer.Close()
}
