package lxd

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorKind classifies a failure reported by, or observed against, the
// hypervisor.
type ErrorKind string

const (
	// ErrorKindHypervisor indicates the API answered a request with a
	// response envelope of type "error".
	ErrorKindHypervisor ErrorKind = "hypervisor"

	// ErrorKindOperation indicates an asynchronous operation finished with a
	// status code other than 200.
	ErrorKindOperation ErrorKind = "operation"

	// ErrorKindCreateFailed indicates a create request was accepted but the
	// resource still does not appear in its collection listing.
	ErrorKindCreateFailed ErrorKind = "create_failed"

	// ErrorKindDeleteFailed indicates a delete request was accepted but the
	// resource still appears in its collection listing.
	ErrorKindDeleteFailed ErrorKind = "delete_failed"

	// ErrorKindStartFailed indicates a start request was accepted but the
	// container does not report status "Running".
	ErrorKindStartFailed ErrorKind = "start_failed"

	// ErrorKindStopFailed indicates a stop request was accepted but the
	// container still reports status "Running".
	ErrorKindStopFailed ErrorKind = "stop_failed"
)

// Error is a classified hypervisor failure with the request context needed to
// act on it.
type Error struct {
	// Kind is the failure classification.
	Kind ErrorKind `json:"kind"`

	// Path is the API path the failure relates to (element path for
	// lifecycle failures, request path for API errors, operation handle for
	// operation failures).
	Path string `json:"path"`

	// Body is the decoded response body reported by the hypervisor, if any.
	Body json.RawMessage `json:"body,omitempty"`

	// Err is the underlying error, if any.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Path)
	if len(e.Body) > 0 {
		msg += ": " + string(e.Body)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by kind, so callers can use errors.Is with a bare
// &Error{Kind: ...} target.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func isKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsHypervisorError returns true if the error is an API-reported error.
func IsHypervisorError(err error) bool {
	return isKind(err, ErrorKindHypervisor)
}

// IsOperationFailed returns true if the error is a failed async operation.
func IsOperationFailed(err error) bool {
	return isKind(err, ErrorKindOperation)
}

// IsCreateFailed returns true if the error is a create post-condition failure.
func IsCreateFailed(err error) bool {
	return isKind(err, ErrorKindCreateFailed)
}

// IsDeleteFailed returns true if the error is a delete post-condition failure.
func IsDeleteFailed(err error) bool {
	return isKind(err, ErrorKindDeleteFailed)
}

// IsStartFailed returns true if the error is a start post-condition failure.
func IsStartFailed(err error) bool {
	return isKind(err, ErrorKindStartFailed)
}

// IsStopFailed returns true if the error is a stop post-condition failure.
func IsStopFailed(err error) bool {
	return isKind(err, ErrorKindStopFailed)
}
