package control

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vietddude/aleph-monitor/internal/core/config"
	"github.com/vietddude/aleph-monitor/internal/infra/node"
	"github.com/vietddude/aleph-monitor/internal/monitoring/checks"
	"github.com/vietddude/aleph-monitor/internal/monitoring/server"
)

// Node names used in logs and metric labels.
const (
	MonitoredNodeName = "scoring"
	ReferenceNodeName = "reference"
)

// Monitor is the main application struct that wires the checks to the
// HTTP and gRPC servers.
type Monitor struct {
	Sync *checks.SyncChecker
	Age  *checks.AgeChecker

	httpServer *server.Server
	grpcServer *server.GRPCServer
	log        *slog.Logger
}

// NewMonitor creates a Monitor from the application configuration.
func NewMonitor(cfg *config.AppConfig, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.Nodes.FetchTimeout()
	monitored := node.NewClient(MonitoredNodeName, cfg.Nodes.MonitoredNodeURL, timeout)
	reference := node.NewClient(ReferenceNodeName, cfg.Nodes.ReferenceNodeURL, timeout)

	syncChecker := checks.NewSyncChecker(monitored, checks.SyncThresholds{
		MaxPendingMessages:    cfg.Thresholds.MaxPendingMessages,
		MaxPendingTxs:         cfg.Thresholds.MaxPendingTxs,
		MaxEthHeightRemaining: cfg.Thresholds.MaxEthHeightRemaining,
	}, logger)
	ageChecker := checks.NewAgeChecker(
		monitored,
		reference,
		cfg.Nodes.TargetAddress,
		cfg.Thresholds.MaxMetricsAge,
		logger,
	)

	m := &Monitor{
		Sync:       syncChecker,
		Age:        ageChecker,
		httpServer: server.NewServer(syncChecker, ageChecker, cfg.Server.Port, logger),
		log:        logger,
	}
	if cfg.Server.GRPCPort > 0 {
		health := server.NewHealthService(syncChecker, ageChecker, logger)
		m.grpcServer = server.NewGRPCServer(health, cfg.Server.GRPCPort, logger)
	}
	return m
}

// Start starts the servers in the background. Server failures are reported
// on the returned channel.
func (m *Monitor) Start() <-chan error {
	errCh := make(chan error, 2)

	go func() {
		if err := m.httpServer.Start(); err != nil {
			m.log.Error("HTTP server failed", "error", err)
			errCh <- err
		}
	}()

	if m.grpcServer != nil {
		go func() {
			if err := m.grpcServer.Start(); err != nil {
				m.log.Error("gRPC server failed", "error", err)
				errCh <- err
			}
		}()
	}

	return errCh
}

// Stop stops the servers.
func (m *Monitor) Stop(ctx context.Context) error {
	m.log.Info("Stopping monitor...")

	if m.grpcServer != nil {
		m.grpcServer.Stop(ctx)
	}

	if err := m.httpServer.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
