package domain

import "errors"

var (
	// ErrUpstreamUnreachable is returned when a node cannot be reached or
	// answers with a non-success status.
	ErrUpstreamUnreachable = errors.New("upstream unreachable")

	// ErrMalformedPayload is returned when a node answers with a body that
	// cannot be parsed or lacks a required value.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrEmptyFeed is returned when a node's feed holds no network metrics
	// message.
	ErrEmptyFeed = errors.New("no network metrics message in feed")
)

// ErrorKind names the failure class of an error for API responses and
// metric labels.
type ErrorKind string

const (
	KindUpstreamUnreachable ErrorKind = "upstream_unreachable"
	KindMalformedPayload    ErrorKind = "malformed_payload"
	KindEmptyFeed           ErrorKind = "empty_feed"
	KindInternal            ErrorKind = "internal"
)

// ClassifyError maps an error to its ErrorKind.
func ClassifyError(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrUpstreamUnreachable):
		return KindUpstreamUnreachable
	case errors.Is(err, ErrMalformedPayload):
		return KindMalformedPayload
	case errors.Is(err, ErrEmptyFeed):
		return KindEmptyFeed
	default:
		return KindInternal
	}
}
