package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	gobreaker "github.com/sony/gobreaker/v2"
)

// Failure kinds of a product service call. Match with errors.Is.
var (
	ErrNetwork     = errors.New("product service unreachable")
	ErrStatus      = errors.New("product service returned a non-success status")
	ErrDecode      = errors.New("product service returned a malformed payload")
	ErrBreakerOpen = errors.New("product service circuit open")
)

// StatusError carries the upstream status code. It matches ErrStatus.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// Kind labels err for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, ErrBreakerOpen):
		return "breaker_open"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrStatus):
		return "status"
	case errors.Is(err, ErrDecode):
		return "decode"
	}
	return "unknown"
}

// countsAsFailure decides which errors trip the breaker. Caller cancellations and 4xx answers
// say nothing about upstream health.
func countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.StatusCode >= http.StatusInternalServerError
	}
	return true
}

func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
