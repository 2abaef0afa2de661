package providers

import (
	"context"
	"errors"
	"strings"
)

type ErrorType string

const (
	ErrorConfiguration ErrorType = "configuration"
	ErrorEmptyResponse ErrorType = "empty_response"
	ErrorTimeout       ErrorType = "timeout"
	ErrorQuota         ErrorType = "quota"
	ErrorRate          ErrorType = "rate"
	ErrorTransient     ErrorType = "transient"
	ErrorPermanent     ErrorType = "permanent"
)

var (
	// ErrMissingCredential means the provider has no API key configured.
	// The gateway fails such a call fast, without a network attempt.
	ErrMissingCredential = errors.New("provider credential missing")

	// ErrEmptyResponse means the provider answered but carried no usable
	// content (no choices, no content blocks).
	ErrEmptyResponse = errors.New("provider returned no usable content")
)

func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrMissingCredential) {
		return ErrorConfiguration
	}
	if errors.Is(err, ErrEmptyResponse) {
		return ErrorEmptyResponse
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	e := strings.ToLower(err.Error())
	switch {
	case strings.Contains(e, "deadline exceeded"), strings.Contains(e, "timeout"), strings.Contains(e, "timed out"):
		return ErrorTimeout
	case strings.Contains(e, "quota"), strings.Contains(e, "credit"), strings.Contains(e, "insufficient_quota"):
		return ErrorQuota
	case strings.Contains(e, "rate"), strings.Contains(e, "429"):
		return ErrorRate
	case strings.Contains(e, "temporarily"), strings.Contains(e, "unavailable"), strings.Contains(e, "502"), strings.Contains(e, "503"):
		return ErrorTransient
	default:
		return ErrorPermanent
	}
}

// Retryable reports whether another attempt at the same call can plausibly
// succeed. Configuration and empty-content failures never retry; rate limits
// and transient transport errors do. Timeouts are not retried either: the
// per-call budget is already spent.
func Retryable(t ErrorType) bool {
	switch t {
	case ErrorRate, ErrorTransient:
		return true
	default:
		return false
	}
}
