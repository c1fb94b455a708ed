package model

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// ErrServiceUnavailable wraps network-level failures reaching the completion
// service, including timeouts and unreadable responses.
var ErrServiceUnavailable = errors.New("completion service unavailable")

const (
	genericServiceMessage = "completion service error"
	genericFailureMessage = "Failed to get response"
)

// ServiceError is a non-success response from the completion service.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = genericServiceMessage
	}
	if e.StatusCode == 0 {
		return msg
	}
	return fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
}

func newServiceError(status int, message string) *ServiceError {
	if message == "" {
		message = genericServiceMessage
	}
	return &ServiceError{StatusCode: status, Message: message}
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
}

// FailureReason returns the user-facing description of a completion failure.
func FailureReason(err error) string {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Message
	}
	if errors.Is(err, ErrServiceUnavailable) {
		if cause := unavailableCause(err); cause != "" {
			return genericFailureMessage + ": " + cause
		}
		return genericFailureMessage
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return genericFailureMessage
}

// unavailableCause names a network failure in a few words, or returns "" when
// err carries nothing beyond the sentinel.
func unavailableCause(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "request timed out"
	case errors.Is(err, context.Canceled):
		return "request canceled"
	case errors.Is(err, syscall.ECONNREFUSED):
		return "connection refused"
	case errors.Is(err, syscall.ECONNRESET):
		return "connection reset"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "host not found"
	}

	// last segment of the chain, e.g. "EOF"
	msg := err.Error()
	if msg == ErrServiceUnavailable.Error() {
		return ""
	}
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		msg = msg[i+2:]
	}
	return msg
}
