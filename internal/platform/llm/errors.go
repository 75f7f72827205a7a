package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

type ErrorKind string

const (
	KindRateLimited ErrorKind = "rate_limited"
	KindUnavailable ErrorKind = "unavailable"
	KindBadRequest  ErrorKind = "bad_request"
	KindAuth        ErrorKind = "auth"
	KindEmpty       ErrorKind = "empty_response"
	KindTruncated   ErrorKind = "truncated"
)

// Error is returned by every provider so retry and metrics code can classify failures
// without knowing which SDK produced them.
type Error struct {
	Provider   string
	Kind       ErrorKind
	Status     int
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s (status %d): %v", e.Provider, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Transient reports whether another attempt may succeed.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var le *Error
	if !errors.As(err, &le) {
		return true
	}
	switch le.Kind {
	case KindRateLimited, KindUnavailable, KindEmpty:
		return true
	default:
		return false
	}
}

// KindOf returns the classified kind, or "" for an unclassified error.
func KindOf(err error) ErrorKind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}

func classifyStatus(provider string, status int, err error) *Error {
	kind := KindUnavailable
	switch {
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuth
	case status >= 400 && status < 500:
		kind = KindBadRequest
	}
	return &Error{Provider: provider, Kind: kind, Status: status, Err: err}
}
