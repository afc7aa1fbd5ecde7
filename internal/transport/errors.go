package transport

import (
	"fmt"
	"time"
)

type ErrorKind int

const (
	KindNetwork ErrorKind = iota
	KindClient
	KindServer
	KindRateLimit
	KindPayloadTooLarge
	KindUnexpectedResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network_error"
	case KindClient:
		return "client_error"
	case KindServer:
		return "server_error"
	case KindRateLimit:
		return "rate_limited"
	case KindPayloadTooLarge:
		return "payload_too_large"
	default:
		return "unexpected_response"
	}
}

// APIError is the typed failure surfaced by the transport after its retry
// policy is exhausted.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("api error (%s, status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error (%s): %s", e.Kind, e.Message)
}

// Retryable reports whether the request may be reattempted: connection-level
// failures, server errors and rate limits qualify; client errors, oversized
// payloads and malformed responses never do.
func (e *APIError) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindServer, KindRateLimit:
		return true
	default:
		return false
	}
}
