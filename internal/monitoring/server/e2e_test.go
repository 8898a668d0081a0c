package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vietddude/aleph-monitor/internal/core/domain"
	"github.com/vietddude/aleph-monitor/internal/infra/node"
	"github.com/vietddude/aleph-monitor/internal/monitoring/checks"
)

const testAddress = "0x4D52380D3191274a04846c89c069E6C3F2Ed94e4"

// fakeNode serves /metrics and the message feed like a pyaleph node.
type fakeNode struct {
	metrics     string
	metricsCode int
	messageAge  time.Duration
	feed        string // raw feed body, served instead of a generated one
}

func (f *fakeNode) start(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/metrics":
			if f.metricsCode != 0 {
				w.WriteHeader(f.metricsCode)
				return
			}
			_, _ = w.Write([]byte(f.metrics))
		case "/api/v0/messages.json":
			if r.URL.Query().Get("addresses") != testAddress {
				http.NotFound(w, r)
				return
			}
			if f.feed != "" {
				_, _ = w.Write([]byte(f.feed))
				return
			}
			signed := time.Now().Add(-f.messageAge)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"messages": []map[string]any{
					{"content": map[string]any{"type": "aleph-corechannel", "time": float64(time.Now().Unix())}},
					{"content": map[string]any{
						"type": "aleph-network-metrics",
						"time": float64(signed.UnixNano()) / float64(time.Second),
					}},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newProxy(t *testing.T, monitored, reference *fakeNode) *httptest.Server {
	t.Helper()
	mon := node.NewClient("scoring", monitored.start(t).URL, 10*time.Second)
	ref := node.NewClient("reference", reference.start(t).URL, 10*time.Second)

	syncChecker := checks.NewSyncChecker(mon, checks.DefaultSyncThresholds(), nil)
	ageChecker := checks.NewAgeChecker(mon, ref, testAddress, 90*time.Minute, nil)

	ts := httptest.NewServer(NewServer(syncChecker, ageChecker, 0, nil).Handler())
	t.Cleanup(ts.Close)
	return ts
}

const healthyMetrics = "pyaleph_status_sync_pending_messages_total 10\n" +
	"pyaleph_status_sync_pending_txs_total 2\n" +
	"pyaleph_status_chain_eth_height_remaining_total 500\n"

func TestEndToEnd_NodeSyncAcceptable(t *testing.T) {
	ts := newProxy(t, &fakeNode{metrics: healthyMetrics}, &fakeNode{})

	code, body := getJSON(t, ts.URL+"/check/scoring/node_sync")
	if code != http.StatusCreated {
		t.Errorf("expected 201, got %d", code)
	}
	if body["acceptable"] != true || body["pending_messages"] != 10.0 ||
		body["pending_txs"] != 2.0 || body["eth_height_remaining"] != 500.0 {
		t.Errorf("unexpected body %v", body)
	}
}

func TestEndToEnd_NodeSyncNotAcceptable(t *testing.T) {
	payload := strings.Replace(healthyMetrics, "pending_messages_total 10", "pending_messages_total 1000", 1)
	ts := newProxy(t, &fakeNode{metrics: payload}, &fakeNode{})

	code, body := getJSON(t, ts.URL+"/check/scoring/node_sync")
	if code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", code)
	}
	if body["acceptable"] != false || body["pending_messages"] != 1000.0 ||
		body["pending_txs"] != 2.0 || body["eth_height_remaining"] != 500.0 {
		t.Errorf("unexpected body %v", body)
	}
}

func TestEndToEnd_MetricsAgeAcceptable(t *testing.T) {
	ts := newProxy(t, &fakeNode{messageAge: 30 * time.Minute}, &fakeNode{messageAge: 30 * time.Minute})

	code, body := getJSON(t, ts.URL+"/check/metrics/age")
	if code != http.StatusCreated {
		t.Errorf("expected 201, got %d", code)
	}
	if body["acceptable"] != true {
		t.Errorf("expected acceptable, got %v", body)
	}
	for _, field := range []string{"scoring_node", "reference_node"} {
		age, _ := body[field].(float64)
		if age < 1790 || age >= 5400 {
			t.Errorf("%s: expected ~1800s, got %v", field, body[field])
		}
	}
}

func TestEndToEnd_MetricsAgeStale(t *testing.T) {
	ts := newProxy(t, &fakeNode{messageAge: 100 * time.Minute}, &fakeNode{messageAge: 30 * time.Minute})

	code, body := getJSON(t, ts.URL+"/check/metrics/age")
	if code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", code)
	}
	if body["acceptable"] != false {
		t.Errorf("expected not acceptable, got %v", body)
	}
	if age, _ := body["scoring_node"].(float64); age < 5400 {
		t.Errorf("expected scoring age >= 5400, got %v", body["scoring_node"])
	}
}

func TestEndToEnd_UpstreamError(t *testing.T) {
	for _, upstream := range []int{http.StatusNotFound, http.StatusInternalServerError} {
		ts := newProxy(t, &fakeNode{metricsCode: upstream}, &fakeNode{})

		code, body := getJSON(t, ts.URL+"/check/scoring/node_sync")
		if code == http.StatusCreated || code == http.StatusServiceUnavailable {
			t.Errorf("upstream %d: expected a failure status, got %d", upstream, code)
		}
		if code != http.StatusBadGateway {
			t.Errorf("upstream %d: expected 502, got %d", upstream, code)
		}
		if body["kind"] != string(domain.KindUpstreamUnreachable) {
			t.Errorf("upstream %d: unexpected kind %v", upstream, body["kind"])
		}
	}
}

func TestEndToEnd_MalformedFeed(t *testing.T) {
	tests := map[string]string{
		"missing time":          `{"messages":[{"content":{"type":"aleph-network-metrics"}}]}`,
		"millisecond timestamp": `{"messages":[{"content":{"type":"aleph-network-metrics","time":1734010566000}}]}`,
		"missing type":          `{"messages":[{"content":{"time":1734010566}}]}`,
	}

	for name, feed := range tests {
		t.Run(name, func(t *testing.T) {
			ts := newProxy(t, &fakeNode{feed: feed}, &fakeNode{messageAge: 30 * time.Minute})

			code, body := getJSON(t, ts.URL+"/check/metrics/age")
			if code != http.StatusBadGateway {
				t.Errorf("expected 502, got %d", code)
			}
			if body["kind"] != string(domain.KindMalformedPayload) {
				t.Errorf("unexpected kind %v", body["kind"])
			}
		})
	}
}
