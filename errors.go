package gemkit

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorCategory classifies errors by how they should be handled.
type ErrorCategory string

const (
	// ErrorTransient indicates the error is temporary and the operation can be retried.
	// Examples: rate limits, server overload.
	ErrorTransient ErrorCategory = "transient"

	// ErrorPermanent indicates the error is not recoverable through retry.
	// Examples: invalid API key, insufficient permissions, model not found.
	ErrorPermanent ErrorCategory = "permanent"

	// ErrorUserInput indicates the caller sent a request that must be corrected.
	ErrorUserInput ErrorCategory = "user_input"
)

// CategorizedError is an error that provides information about how it should be handled.
type CategorizedError interface {
	error
	Category() ErrorCategory
	Retryable() bool           // convenience: returns true if Category == ErrorTransient
	StatusCode() int           // HTTP status code if applicable, 0 otherwise
	RetryAfter() time.Duration // suggested retry delay from server, 0 if not available
}

// ConfigError reports invalid or conflicting client configuration.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// AuthError reports that no usable credentials could be resolved or refreshed.
type AuthError struct {
	Msg   string
	Cause error
}

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *AuthError) Unwrap() error { return e.Cause }

// APIError is returned for every non-2xx response from the backend.
// The transport never retries; callers decide using Category or [IsTransient].
type APIError struct {
	// Code is the HTTP status code.
	Code int
	// Status is the canonical status string from the error payload (e.g. "NOT_FOUND").
	Status string
	// Message is the human readable message from the error payload, or the raw body.
	Message string
	// Details holds the raw "details" array of the error payload, if any.
	Details []any
	// Body is the raw response body.
	Body string
	// RetryDelay is parsed from the Retry-After header, 0 if absent.
	RetryDelay time.Duration
}

func (e *APIError) Error() string {
	status := e.Status
	if status == "" {
		status = http.StatusText(e.Code)
	}
	return fmt.Sprintf("api error %d %s: %s", e.Code, status, e.Message)
}

// Category maps the HTTP status onto an error category.
func (e *APIError) Category() ErrorCategory {
	switch {
	case e.Code == http.StatusTooManyRequests, e.Code >= 500:
		return ErrorTransient
	case e.Code == http.StatusBadRequest, e.Code == http.StatusUnprocessableEntity:
		return ErrorUserInput
	default:
		return ErrorPermanent
	}
}

// Retryable returns true if the error is transient and can be retried.
func (e *APIError) Retryable() bool { return e.Category() == ErrorTransient }

// StatusCode returns the HTTP status code.
func (e *APIError) StatusCode() int { return e.Code }

// RetryAfter returns the suggested retry delay, or 0 if not available.
func (e *APIError) RetryAfter() time.Duration { return e.RetryDelay }

// UploadError reports a violation of the resumable upload protocol.
type UploadError struct {
	// Status is the last X-Goog-Upload-Status value seen ("" if absent).
	Status string
	Offset int64
	Size   int64
	Msg    string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s (status %q, offset %d of %d)", e.Msg, e.Status, e.Offset, e.Size)
}

// OperationTimeoutError is returned when a long-running operation does not
// complete within the poller's timeout.
type OperationTimeoutError struct {
	Name    string
	Elapsed time.Duration
	// Last is the most recent operation handle fetched.
	Last []byte
}

func (e *OperationTimeoutError) Error() string {
	return fmt.Sprintf("operation %s did not complete within %s", e.Name, e.Elapsed.Round(time.Millisecond))
}

// OperationFailedError is returned when a completed operation carries an error.
type OperationFailedError struct {
	Name    string
	Code    int
	Message string
	// Last is the final operation handle.
	Last []byte
}

func (e *OperationFailedError) Error() string {
	return fmt.Sprintf("operation %s failed with code %d: %s", e.Name, e.Code, e.Message)
}

// Sentinel errors for the live session.
var (
	// ErrFunctionResponseRequiresID is returned when a tool response lacks the
	// id of the tool call it answers and the backend demands one.
	ErrFunctionResponseRequiresID = errors.New("FunctionResponse request must have an `id` field from the response of a ToolCall.FunctionalCalls in Google AI")

	// ErrAmbiguousInput is returned when a batch mixes input kinds that cannot
	// be classified as a single client message.
	ErrAmbiguousInput = errors.New("ambiguous live input")

	// ErrUnsupportedInput is returned for inputs no live message kind accepts.
	ErrUnsupportedInput = errors.New("unsupported live input")

	// ErrConnectionClosed is returned by sends and receives after the socket closed.
	ErrConnectionClosed = errors.New("live connection closed")
)

// LiveError reports a protocol failure on a live session.
type LiveError struct {
	Msg   string
	Cause error
}

func (e *LiveError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("live: %s: %v", e.Msg, e.Cause)
	}
	return "live: " + e.Msg
}

func (e *LiveError) Unwrap() error { return e.Cause }

// ValueError reports a payload value a transformer cannot normalize.
type ValueError struct {
	Field string
	Value any
	Msg   string
}

func (e *ValueError) Error() string {
	var b strings.Builder
	b.WriteString("invalid ")
	b.WriteString(e.Field)
	if e.Value != nil {
		fmt.Fprintf(&b, " %v", e.Value)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	return b.String()
}

// IsTransient returns true if the error is categorized as transient.
// It checks if the error or any wrapped error implements CategorizedError.
func IsTransient(err error) bool {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ErrorTransient
	}
	return false
}

// IsPermanent returns true if the error is categorized as permanent.
func IsPermanent(err error) bool {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ErrorPermanent
	}
	return false
}

// IsUserInput returns true if the error is categorized as user input error.
func IsUserInput(err error) bool {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ErrorUserInput
	}
	return false
}

// StatusCodeOf returns the HTTP status code from a categorized error, or 0.
func StatusCodeOf(err error) int {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.StatusCode()
	}
	return 0
}

// RetryAfterOf returns the retry delay from a categorized error, or 0.
func RetryAfterOf(err error) time.Duration {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.RetryAfter()
	}
	return 0
}
