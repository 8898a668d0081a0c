package checks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/aleph-monitor/internal/core/domain"
	"github.com/vietddude/aleph-monitor/internal/monitoring/metrics"
)

// Metric names read from the monitored node.
const (
	MetricPendingMessages    = "pyaleph_status_sync_pending_messages_total"
	MetricPendingTxs         = "pyaleph_status_sync_pending_txs_total"
	MetricEthHeightRemaining = "pyaleph_status_chain_eth_height_remaining_total"
)

// MetricsSource returns the Prometheus text exposition of a node.
type MetricsSource interface {
	Metrics(ctx context.Context) (string, error)
}

// SyncThresholds are exclusive upper bounds on the sync counters.
type SyncThresholds struct {
	MaxPendingMessages    float64
	MaxPendingTxs         float64
	MaxEthHeightRemaining float64
}

// DefaultSyncThresholds returns the thresholds used when none are configured.
func DefaultSyncThresholds() SyncThresholds {
	return SyncThresholds{
		MaxPendingMessages:    50,
		MaxPendingTxs:         5,
		MaxEthHeightRemaining: 1000,
	}
}

// Acceptable reports whether every counter is strictly below its bound.
func (t SyncThresholds) Acceptable(pendingMessages, pendingTxs, ethHeightRemaining float64) bool {
	return pendingMessages < t.MaxPendingMessages &&
		pendingTxs < t.MaxPendingTxs &&
		ethHeightRemaining < t.MaxEthHeightRemaining
}

// SyncChecker checks that the monitored node is in sync.
type SyncChecker struct {
	source     MetricsSource
	thresholds SyncThresholds
	logger     *slog.Logger
}

// NewSyncChecker creates a SyncChecker reading metrics from source.
func NewSyncChecker(source MetricsSource, thresholds SyncThresholds, logger *slog.Logger) *SyncChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncChecker{
		source:     source,
		thresholds: thresholds,
		logger:     logger.With("check", metrics.CheckNodeSync),
	}
}

// NodeSyncStatus fetches the node metrics and evaluates them against the
// thresholds.
func (c *SyncChecker) NodeSyncStatus(ctx context.Context) (domain.SyncStatus, error) {
	start := time.Now()

	status, err := c.nodeSyncStatus(ctx)
	elapsed := time.Since(start)
	if err != nil {
		kind := domain.ClassifyError(err)
		metrics.RecordCheck(metrics.CheckNodeSync, string(kind), elapsed.Seconds())
		c.logger.Error("Node sync check failed", "kind", kind, "error", err, "duration", elapsed)
		return domain.SyncStatus{}, err
	}

	metrics.RecordCheck(metrics.CheckNodeSync, resultLabel(status.Acceptable), elapsed.Seconds())
	metrics.NodeSyncValue.WithLabelValues("pending_messages").Set(status.PendingMessages)
	metrics.NodeSyncValue.WithLabelValues("pending_txs").Set(status.PendingTxs)
	metrics.NodeSyncValue.WithLabelValues("eth_height_remaining").Set(status.EthHeightRemaining)

	c.logger.Debug("Node sync check complete",
		"acceptable", status.Acceptable,
		"pending_messages", status.PendingMessages,
		"pending_txs", status.PendingTxs,
		"eth_height_remaining", status.EthHeightRemaining,
		"duration", elapsed,
	)
	return status, nil
}

func (c *SyncChecker) nodeSyncStatus(ctx context.Context) (domain.SyncStatus, error) {
	text, err := c.source.Metrics(ctx)
	if err != nil {
		return domain.SyncStatus{}, fmt.Errorf("fetch node metrics: %w", err)
	}

	parsed, err := ParseExposition(text)
	if err != nil {
		return domain.SyncStatus{}, fmt.Errorf("parse node metrics: %w", err)
	}

	return EvaluateSync(parsed, c.thresholds)
}

// EvaluateSync builds a SyncStatus from parsed node metrics. All three sync
// counters must be present.
func EvaluateSync(parsed map[string]float64, thresholds SyncThresholds) (domain.SyncStatus, error) {
	values := make([]float64, 0, 3)
	for _, name := range []string{MetricPendingMessages, MetricPendingTxs, MetricEthHeightRemaining} {
		v, ok := parsed[name]
		if !ok {
			return domain.SyncStatus{}, fmt.Errorf("metric %s not found: %w", name, domain.ErrMalformedPayload)
		}
		values = append(values, v)
	}

	return domain.SyncStatus{
		Acceptable:         thresholds.Acceptable(values[0], values[1], values[2]),
		PendingMessages:    values[0],
		PendingTxs:         values[1],
		EthHeightRemaining: values[2],
	}, nil
}

func resultLabel(acceptable bool) string {
	if acceptable {
		return "acceptable"
	}
	return "unacceptable"
}
