package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad_EnvSubstitution(t *testing.T) {
	t.Setenv("TEST_MONITORED_URL", "http://10.0.0.1:4024")

	path := writeConfig(t, `
nodes:
  monitored_node_url: ${TEST_MONITORED_URL}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Nodes.MonitoredNodeURL != "http://10.0.0.1:4024" {
		t.Errorf("Expected http://10.0.0.1:4024, got %s", cfg.Nodes.MonitoredNodeURL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  grpc_port: 9001\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != DefaultPort {
		t.Errorf("expected port %d, got %d", DefaultPort, cfg.Server.Port)
	}
	if cfg.Server.GRPCPort != 9001 {
		t.Errorf("expected grpc port 9001, got %d", cfg.Server.GRPCPort)
	}
	if cfg.Nodes.ReferenceNodeURL != DefaultReferenceNodeURL {
		t.Errorf("unexpected reference url %s", cfg.Nodes.ReferenceNodeURL)
	}
	if cfg.Nodes.TargetAddress != DefaultTargetAddress {
		t.Errorf("unexpected target address %s", cfg.Nodes.TargetAddress)
	}
	if cfg.Nodes.FetchTimeout() != 10*time.Second {
		t.Errorf("expected 10s timeout, got %v", cfg.Nodes.FetchTimeout())
	}
	if cfg.Thresholds.MaxPendingMessages != 50 || cfg.Thresholds.MaxPendingTxs != 5 ||
		cfg.Thresholds.MaxEthHeightRemaining != 1000 {
		t.Errorf("unexpected sync thresholds %+v", cfg.Thresholds)
	}
	if cfg.Thresholds.MaxMetricsAge != 90*time.Minute {
		t.Errorf("expected 90m max age, got %v", cfg.Thresholds.MaxMetricsAge)
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Nodes.MonitoredNodeURL != DefaultMonitoredNodeURL {
		t.Errorf("unexpected monitored url %s", cfg.Nodes.MonitoredNodeURL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
nodes:
  monitored_node_url: http://localhost:4024/
  reference_node_url: https://ref.example.com//
  target_address: 0xabc
  fetch_timeout_seconds: 3
thresholds:
  max_pending_messages: 10
  max_metrics_age: 2h
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Nodes.MonitoredNodeURL != "http://localhost:4024" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.Nodes.MonitoredNodeURL)
	}
	if cfg.Nodes.ReferenceNodeURL != "https://ref.example.com" {
		t.Errorf("expected trailing slashes trimmed, got %s", cfg.Nodes.ReferenceNodeURL)
	}
	if cfg.Nodes.TargetAddress != "0xabc" {
		t.Errorf("unexpected target address %s", cfg.Nodes.TargetAddress)
	}
	if cfg.Nodes.FetchTimeout() != 3*time.Second {
		t.Errorf("expected 3s, got %v", cfg.Nodes.FetchTimeout())
	}
	if cfg.Thresholds.MaxPendingMessages != 10 {
		t.Errorf("expected 10, got %v", cfg.Thresholds.MaxPendingMessages)
	}
	if cfg.Thresholds.MaxMetricsAge != 2*time.Hour {
		t.Errorf("expected 2h, got %v", cfg.Thresholds.MaxMetricsAge)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad url", "nodes:\n  monitored_node_url: not-a-url\n"},
		{"negative timeout", "nodes:\n  fetch_timeout_seconds: -1\n"},
		{"port out of range", "server:\n  port: 70000\n"},
		{"negative pending messages", "thresholds:\n  max_pending_messages: -1\n"},
		{"negative pending txs", "thresholds:\n  max_pending_txs: -5\n"},
		{"negative eth height", "thresholds:\n  max_eth_height_remaining: -1000\n"},
		{"negative metrics age", "thresholds:\n  max_metrics_age: -90m\n"},
		{"malformed yaml", "nodes: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestLoad_ZeroThresholdsUseDefaults(t *testing.T) {
	content := `
thresholds:
  max_pending_messages: 0
  max_pending_txs: 0
  max_eth_height_remaining: 0
  max_metrics_age: 0s
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Thresholds != Default().Thresholds {
		t.Errorf("expected default thresholds, got %+v", cfg.Thresholds)
	}
}

func TestValidate_NegativeThresholdMessage(t *testing.T) {
	cfg := Default()
	cfg.Thresholds.MaxPendingTxs = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "thresholds.max_pending_txs must not be negative") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
