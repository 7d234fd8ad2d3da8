package advisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// FailureReason describes why the collaborator produced no usable text.
type FailureReason string

const (
	ReasonDisabled      FailureReason = "disabled"
	ReasonAuth          FailureReason = "auth"       // 401/403
	ReasonRateLimit     FailureReason = "rate_limit" // 429
	ReasonTimeout       FailureReason = "timeout"    // 408/504/deadline
	ReasonOverloaded    FailureReason = "overloaded" // 500/502/503/529
	ReasonBadRequest    FailureReason = "bad_request"
	ReasonTransport     FailureReason = "transport"
	ReasonEmptyResponse FailureReason = "empty_response"
	ReasonUnknown       FailureReason = "unknown"
)

// ErrEmptyResponse is returned by clients when the model answered with no
// text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// UnavailableError wraps a collaborator failure with its classification.
type UnavailableError struct {
	Reason   FailureReason
	Provider string
	Status   int
	Wrapped  error
}

func (e *UnavailableError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s unavailable (%s, status %d): %v", e.Provider, e.Reason, e.Status, e.Wrapped)
	}
	return fmt.Sprintf("%s unavailable (%s): %v", e.Provider, e.Reason, e.Wrapped)
}

func (e *UnavailableError) Unwrap() error { return e.Wrapped }

// statusRegex matches provider error patterns like "openai error (status 429): ..."
var statusRegex = regexp.MustCompile(`\(status (\d+)\)`)

// Classify turns a raw client error into an UnavailableError. It checks
// context errors first, then an HTTP status embedded in the message, then
// falls back to message pattern matching.
func Classify(err error, provider string) *UnavailableError {
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return ue
	}
	out := &UnavailableError{Provider: provider, Wrapped: err}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		out.Reason = ReasonTimeout
		return out
	case errors.Is(err, ErrEmptyResponse):
		out.Reason = ReasonEmptyResponse
		return out
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		out.Reason = ReasonTransport
		return out
	}

	msg := err.Error()
	if m := statusRegex.FindStringSubmatch(msg); len(m) == 2 {
		if status, convErr := strconv.Atoi(m[1]); convErr == nil {
			out.Status = status
			out.Reason = reasonFromStatus(status)
			return out
		}
	}

	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		out.Reason = ReasonTimeout
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "connection reset"):
		out.Reason = ReasonTransport
	case strings.Contains(lower, "unauthorized") || strings.Contains(lower, "invalid api key"):
		out.Reason = ReasonAuth
	default:
		out.Reason = ReasonUnknown
	}
	return out
}

func reasonFromStatus(status int) FailureReason {
	switch status {
	case 400, 404, 422:
		return ReasonBadRequest
	case 401, 403:
		return ReasonAuth
	case 429:
		return ReasonRateLimit
	case 408, 504:
		return ReasonTimeout
	case 500, 502, 503, 529:
		return ReasonOverloaded
	default:
		return ReasonUnknown
	}
}
