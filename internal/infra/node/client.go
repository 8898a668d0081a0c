// Package node implements the HTTP client used to query pyaleph nodes.
package node

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vietddude/aleph-monitor/internal/core/domain"
	"github.com/vietddude/aleph-monitor/internal/monitoring/metrics"
)

const (
	metricsPath  = "/metrics"
	messagesPath = "/api/v0/messages.json"

	// maxBodySize caps the size of an upstream response; larger bodies are
	// rejected rather than truncated.
	maxBodySize = 16 << 20
)

// Client queries a single pyaleph node over HTTP.
type Client struct {
	name       string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the node at baseURL. The name is used in
// logs and metric labels.
func NewClient(name, baseURL string, timeout time.Duration) *Client {
	return &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Name returns the node name.
func (c *Client) Name() string {
	return c.name
}

// Metrics downloads the Prometheus text exposition of the node.
func (c *Client) Metrics(ctx context.Context) (string, error) {
	body, err := c.get(ctx, "metrics", c.baseURL+metricsPath)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Messages downloads the message feed of the node for the given sender
// address.
func (c *Client) Messages(ctx context.Context, address string) ([]domain.Message, error) {
	endpoint := c.baseURL + messagesPath + "?addresses=" + url.QueryEscape(address)

	body, err := c.get(ctx, "messages", endpoint)
	if err != nil {
		return nil, err
	}

	var feed domain.MessageFeed
	if err := json.Unmarshal(body, &feed); err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(c.name, "messages", "malformed").Inc()
		return nil, fmt.Errorf("%s: decode messages: %w: %v", c.name, domain.ErrMalformedPayload, err)
	}
	if feed.Messages == nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(c.name, "messages", "malformed").Inc()
		return nil, fmt.Errorf("%s: decode messages: %w: missing messages field", c.name, domain.ErrMalformedPayload)
	}
	for i, m := range feed.Messages {
		if m.Content.Type == "" {
			metrics.UpstreamRequestsTotal.WithLabelValues(c.name, "messages", "malformed").Inc()
			return nil, fmt.Errorf("%s: message %d: %w: missing content.type", c.name, i, domain.ErrMalformedPayload)
		}
	}

	return feed.Messages, nil
}

func (c *Client) get(ctx context.Context, endpoint, target string) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.UpstreamLatency.WithLabelValues(c.name, endpoint).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", c.name, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(c.name, endpoint, "unreachable").Inc()
		return nil, fmt.Errorf("%s: GET %s: %w: %v", c.name, target, domain.ErrUpstreamUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamRequestsTotal.WithLabelValues(c.name, endpoint, "http_error").Inc()
		return nil, fmt.Errorf("%s: GET %s: %w: http %d", c.name, target, domain.ErrUpstreamUnreachable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(c.name, endpoint, "unreachable").Inc()
		return nil, fmt.Errorf("%s: read response: %w: %v", c.name, domain.ErrUpstreamUnreachable, err)
	}
	if len(body) > maxBodySize {
		metrics.UpstreamRequestsTotal.WithLabelValues(c.name, endpoint, "malformed").Inc()
		return nil, fmt.Errorf("%s: GET %s: %w: body exceeds %d bytes", c.name, target, domain.ErrMalformedPayload, maxBodySize)
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(c.name, endpoint, "ok").Inc()
	return body, nil
}
