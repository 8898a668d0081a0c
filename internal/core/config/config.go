package config

import "time"

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Nodes      NodesConfig      `yaml:"nodes"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
}

// ServerConfig holds HTTP and gRPC server settings.
type ServerConfig struct {
	Port     int `yaml:"port"`
	GRPCPort int `yaml:"grpc_port"` // 0 = disabled
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// NodesConfig describes the nodes the monitor talks to.
type NodesConfig struct {
	MonitoredNodeURL    string `yaml:"monitored_node_url"`
	ReferenceNodeURL    string `yaml:"reference_node_url"`
	TargetAddress       string `yaml:"target_address"`
	FetchTimeoutSeconds int    `yaml:"fetch_timeout_seconds"`
}

// FetchTimeout returns the per-request timeout for upstream calls.
func (n NodesConfig) FetchTimeout() time.Duration {
	return time.Duration(n.FetchTimeoutSeconds) * time.Second
}

// ThresholdsConfig holds the exclusive upper bounds used to decide whether a
// node is acceptable. A zero value means "use the default"; negative values
// are rejected.
type ThresholdsConfig struct {
	MaxPendingMessages    float64       `yaml:"max_pending_messages"`
	MaxPendingTxs         float64       `yaml:"max_pending_txs"`
	MaxEthHeightRemaining float64       `yaml:"max_eth_height_remaining"`
	MaxMetricsAge         time.Duration `yaml:"max_metrics_age"`
}

const (
	DefaultPort                  = 8000
	DefaultMonitoredNodeURL      = "http://51.159.106.166:4024"
	DefaultReferenceNodeURL      = "https://api2.aleph.im"
	DefaultTargetAddress         = "0x4D52380D3191274a04846c89c069E6C3F2Ed94e4"
	DefaultFetchTimeoutSeconds   = 10
	DefaultMaxPendingMessages    = 50
	DefaultMaxPendingTxs         = 5
	DefaultMaxEthHeightRemaining = 1000
	// Metrics are published every hour.
	DefaultMaxMetricsAge = 90 * time.Minute
)

// Default returns a configuration populated with the built-in defaults.
func Default() *AppConfig {
	cfg := &AppConfig{}
	cfg.applyDefaults()
	return cfg
}
