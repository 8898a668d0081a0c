package domain

import (
	"fmt"
	"math"
	"time"
)

// MessageTypeNetworkMetrics is the content type of messages published by the
// scoring service.
const MessageTypeNetworkMetrics = "aleph-network-metrics"

// Bounds of a representable content time: 0001-01-01 and 9999-12-31T23:59:59 UTC.
const (
	minContentTime = -62135596800
	maxContentTime = 253402300799
)

// Message is a single entry of a node's message feed. Only the fields read by
// the monitor are decoded.
type Message struct {
	ItemHash string         `json:"item_hash,omitempty"`
	Content  MessageContent `json:"content"`
}

// MessageContent holds the signed content of a message.
type MessageContent struct {
	Type string   `json:"type"`
	Time *float64 `json:"time,omitempty"` // unix seconds, may be fractional
}

// AgeSeconds returns how many seconds before now the content was signed.
// The result is negative for content signed after now.
func (c MessageContent) AgeSeconds(now time.Time) (float64, error) {
	if c.Time == nil {
		return 0, fmt.Errorf("content.time is missing: %w", ErrMalformedPayload)
	}
	t := *c.Time
	if math.IsNaN(t) || t < minContentTime || t > maxContentTime {
		return 0, fmt.Errorf("content.time %v out of range: %w", t, ErrMalformedPayload)
	}
	nowSeconds := float64(now.Unix()) + float64(now.Nanosecond())/float64(time.Second)
	return nowSeconds - t, nil
}

// MessageFeed is the body returned by /api/v0/messages.json.
type MessageFeed struct {
	Messages []Message `json:"messages"`
}
