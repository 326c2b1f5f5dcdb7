package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized means the credential is missing or rejected. It is never
// retried automatically; callers should prompt for setup.
var ErrUnauthorized = errors.New("API key not configured or invalid")

// RemoteError is a 4xx/5xx answer from the remote API.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote api: %s (HTTP %d)", e.Message, e.Status)
}

// Unwrap makes a rejected credential match ErrUnauthorized.
func (e *RemoteError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// TransportError wraps network-level failures, timeouts included.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// ErrEmptyResponse is returned when a 2xx answer lacks the expected payload.
var ErrEmptyResponse = errors.New("remote api returned no data")

// IsCredentialError reports whether err should be surfaced as a setup prompt.
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsTransient reports whether err is worth retrying on the next trigger.
func IsTransient(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var re *RemoteError
	return errors.As(err, &re) && re.Status >= 500
}
