package litellm

import (
	"errors"
	"fmt"
	"net/http"
)

// TransientError marks a failure worth retrying (rate limits, 5xx).
type TransientError struct {
	err error
}

func (e *TransientError) Error() string { return e.err.Error() }
func (e *TransientError) Unwrap() error { return e.err }

// FatalError marks a failure retries cannot fix (auth, malformed request).
type FatalError struct {
	err error
}

func (e *FatalError) Error() string { return e.err.Error() }
func (e *FatalError) Unwrap() error { return e.err }

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// IsFatal reports whether err is not worth retrying.
func IsFatal(err error) bool {
	var f *FatalError
	return errors.As(err, &f)
}

// classifyStatus wraps a non-200 response as transient or fatal. Rate limits
// and server errors retry; auth and bad-request errors do not, and unknown
// codes side with not retrying.
func classifyStatus(statusCode int, body []byte) error {
	detail := string(body)
	if len(detail) > 200 {
		detail = detail[:200] + "..."
	}
	err := fmt.Errorf("llm API error (status %d): %s", statusCode, detail)

	switch {
	case statusCode == http.StatusTooManyRequests:
		return &TransientError{err: err}
	case statusCode >= 500:
		return &TransientError{err: err}
	default:
		return &FatalError{err: err}
	}
}
