package domain

import (
	"errors"
	"testing"
	"time"
)

func ptr(v float64) *float64 { return &v }

func TestMessageContent_AgeSeconds(t *testing.T) {
	now := time.Unix(1734010566, int64(500*time.Millisecond))

	tests := []struct {
		name string
		time float64
		want float64
	}{
		{"thirty minutes", 1734010566.5 - 1800, 1800},
		{"fractional", 1734010566.25, 0.25},
		{"future", 1734010566.5 + 60, -60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MessageContent{Time: ptr(tt.time)}.AgeSeconds(now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d := got - tt.want; d > 1e-6 || d < -1e-6 {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMessageContent_AgeSecondsInvalid(t *testing.T) {
	now := time.Unix(1734010566, 0)

	tests := map[string]*float64{
		"missing":       nil,
		"milliseconds":  ptr(1.76e12),
		"before year 1": ptr(-1e12),
	}

	for name, v := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := MessageContent{Type: MessageTypeNetworkMetrics, Time: v}.AgeSeconds(now)
			if !errors.Is(err, ErrMalformedPayload) {
				t.Errorf("expected ErrMalformedPayload, got %v", err)
			}
		})
	}
}
