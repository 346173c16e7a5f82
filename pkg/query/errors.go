package query

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DefaultFailureMessage is used when a failed response carries no error text.
const DefaultFailureMessage = "Query failed"

var (
	// ErrQueryFailed matches every *QueryFailedError through errors.Is.
	ErrQueryFailed = errors.New("query failed")

	// ErrMixedOperation is returned when one chain sets two different operations.
	ErrMixedOperation = errors.New("query: mixed operations in one chain")

	// ErrInvalidPayload is wrapped by every *ValidationError.
	ErrInvalidPayload = errors.New("query: invalid payload")

	// ErrMissingEndpoint is returned when the server URL or project id is unset.
	ErrMissingEndpoint = errors.New("query: backend endpoint is not configured")
)

// QueryFailedError is returned when the backend answers with a non-success status.
type QueryFailedError struct {
	Status  int
	Message string
}

func (e *QueryFailedError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrQueryFailed) hold for any QueryFailedError.
func (e *QueryFailedError) Is(target error) bool {
	return target == ErrQueryFailed
}

func newQueryFailed(status int, body []byte) *QueryFailedError {
	var reply struct {
		Error string `json:"error"`
	}
	msg := DefaultFailureMessage
	if err := json.Unmarshal(body, &reply); err == nil && reply.Error != "" {
		msg = reply.Error
	}
	return &QueryFailedError{Status: status, Message: msg}
}

// ValidationError describes a payload rejected before it is sent.
type ValidationError struct {
	Field, Msg string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", ErrInvalidPayload, e.Msg)
	}
	return fmt.Sprintf("%v: %s: %s", ErrInvalidPayload, e.Field, e.Msg)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidPayload
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}
