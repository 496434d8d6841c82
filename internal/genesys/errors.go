package genesys

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Sentinel errors for transport failures.
var (
	ErrUnreachable = errors.New("genesys cloud unreachable")
	ErrTimeout     = errors.New("genesys cloud request timeout")
)

const codeMissingPermissions = "missing.any.permissions"

// APIError is a non-2xx response from the Platform API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	ContextID  string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// IsUnauthorised reports whether err is a 401 or 403 from the Platform API.
func IsUnauthorised(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

// IsMissingPermissions reports whether err is a 403 caused by the client lacking
// a permission, as opposed to a bad token.
func IsMissingPermissions(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusForbidden && apiErr.Code == codeMissingPermissions
}

// IsNotFound reports whether err is a 404 from the Platform API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// classifyError maps transport-level errors to sentinel errors. Caller
// cancellation is passed through so it stays distinguishable.
func classifyError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}
