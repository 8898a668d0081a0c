package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// gRPC health service names.
const (
	ServiceNodeSync   = "node_sync"
	ServiceMetricsAge = "metrics_age"
)

// HealthService implements grpc.health.v1.Health on top of the checks.
// Each Check call evaluates the requested check; the empty service name
// is SERVING only when every check is.
type HealthService struct {
	healthpb.UnimplementedHealthServer

	sync   SyncChecker
	age    AgeChecker
	logger *slog.Logger
}

// NewHealthService creates the gRPC health service.
func NewHealthService(sync SyncChecker, age AgeChecker, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{sync: sync, age: age, logger: logger}
}

// Check implements healthpb.HealthServer.
func (h *HealthService) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	var serving bool
	switch req.GetService() {
	case ServiceNodeSync:
		serving = h.nodeSyncServing(ctx)
	case ServiceMetricsAge:
		serving = h.metricsAgeServing(ctx)
	case "":
		serving = h.nodeSyncServing(ctx) && h.metricsAgeServing(ctx)
	default:
		return nil, status.Errorf(codes.NotFound, "unknown service %q", req.GetService())
	}

	resp := &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}
	if serving {
		resp.Status = healthpb.HealthCheckResponse_SERVING
	}
	return resp, nil
}

func (h *HealthService) nodeSyncServing(ctx context.Context) bool {
	st, err := h.sync.NodeSyncStatus(ctx)
	if err != nil {
		h.logger.Warn("gRPC node sync check failed", "error", err)
		return false
	}
	return st.Acceptable
}

func (h *HealthService) metricsAgeServing(ctx context.Context) bool {
	age, err := h.age.MetricsAgeByNode(ctx)
	if err != nil {
		h.logger.Warn("gRPC metrics age check failed", "error", err)
		return false
	}
	return age.Acceptable
}

// GRPCServer serves the health service over gRPC.
type GRPCServer struct {
	addr   string
	server *grpc.Server
	logger *slog.Logger
}

// NewGRPCServer creates a gRPC server listening on port.
func NewGRPCServer(health *HealthService, port int, logger *slog.Logger) *GRPCServer {
	if logger == nil {
		logger = slog.Default()
	}
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, health)
	return &GRPCServer{
		addr:   fmt.Sprintf(":%d", port),
		server: srv,
		logger: logger,
	}
}

// Start listens and serves. It blocks until the server stops.
func (g *GRPCServer) Start() error {
	lis, err := net.Listen("tcp", g.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", g.addr, err)
	}
	g.logger.Info("gRPC server starting", "addr", g.addr)
	return g.Serve(lis)
}

// Serve serves on an existing listener.
func (g *GRPCServer) Serve(lis net.Listener) error {
	if err := g.server.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}

// Stop gracefully stops the server, forcing it down when ctx expires.
func (g *GRPCServer) Stop(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		g.server.Stop()
	}
}
