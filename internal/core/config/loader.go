package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file. An empty path yields the
// defaults.
func Load(path string) (*AppConfig, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	n := &c.Nodes
	if n.MonitoredNodeURL == "" {
		n.MonitoredNodeURL = DefaultMonitoredNodeURL
	}
	if n.ReferenceNodeURL == "" {
		n.ReferenceNodeURL = DefaultReferenceNodeURL
	}
	if n.TargetAddress == "" {
		n.TargetAddress = DefaultTargetAddress
	}
	if n.FetchTimeoutSeconds == 0 {
		n.FetchTimeoutSeconds = DefaultFetchTimeoutSeconds
	}
	n.MonitoredNodeURL = strings.TrimRight(n.MonitoredNodeURL, "/")
	n.ReferenceNodeURL = strings.TrimRight(n.ReferenceNodeURL, "/")

	t := &c.Thresholds
	if t.MaxPendingMessages == 0 {
		t.MaxPendingMessages = DefaultMaxPendingMessages
	}
	if t.MaxPendingTxs == 0 {
		t.MaxPendingTxs = DefaultMaxPendingTxs
	}
	if t.MaxEthHeightRemaining == 0 {
		t.MaxEthHeightRemaining = DefaultMaxEthHeightRemaining
	}
	if t.MaxMetricsAge == 0 {
		t.MaxMetricsAge = DefaultMaxMetricsAge
	}
}

// Validate checks that the configuration can be used to run the monitor.
func (c *AppConfig) Validate() error {
	var errs []error

	for name, raw := range map[string]string{
		"nodes.monitored_node_url": c.Nodes.MonitoredNodeURL,
		"nodes.reference_node_url": c.Nodes.ReferenceNodeURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s: invalid url %q", name, raw))
		}
	}
	if c.Nodes.FetchTimeoutSeconds < 0 {
		errs = append(errs, errors.New("nodes.fetch_timeout_seconds must not be negative"))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		errs = append(errs, fmt.Errorf("server.grpc_port out of range: %d", c.Server.GRPCPort))
	}
	for name, v := range map[string]float64{
		"thresholds.max_pending_messages":     c.Thresholds.MaxPendingMessages,
		"thresholds.max_pending_txs":          c.Thresholds.MaxPendingTxs,
		"thresholds.max_eth_height_remaining": c.Thresholds.MaxEthHeightRemaining,
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative: %v", name, v))
		}
	}
	if c.Thresholds.MaxMetricsAge < 0 {
		errs = append(errs, errors.New("thresholds.max_metrics_age must not be negative"))
	}

	return errors.Join(errs...)
}
