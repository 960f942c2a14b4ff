package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failure classes the orchestrator can report.
// Handlers map kinds to HTTP responses; the poller uses Retryable to decide
// between backing off and giving up.
type ErrorKind string

const (
	KindAuthenticationRequired   ErrorKind = "AUTHENTICATION_REQUIRED"
	KindInsufficientCredits      ErrorKind = "INSUFFICIENT_CREDITS"
	KindInvalidParameters        ErrorKind = "INVALID_PARAMETERS"
	KindInvalidAssetFormat       ErrorKind = "INVALID_ASSET_FORMAT"
	KindAssetTooLarge            ErrorKind = "ASSET_TOO_LARGE"
	KindAssetFetchFailed         ErrorKind = "ASSET_FETCH_FAILED"
	KindUnresolvedRelativePath   ErrorKind = "UNRESOLVED_RELATIVE_PATH"
	KindNoTemplateAvailable      ErrorKind = "NO_TEMPLATE_AVAILABLE"
	KindInvalidCredentials       ErrorKind = "INVALID_CREDENTIALS"
	KindProviderBalanceExhausted ErrorKind = "PROVIDER_BALANCE_EXHAUSTED"
	KindRateLimited              ErrorKind = "RATE_LIMITED"
	KindProviderFailure          ErrorKind = "PROVIDER_FAILURE"
	KindPollingExhausted         ErrorKind = "POLLING_EXHAUSTED"
	KindPollingTimedOut          ErrorKind = "POLLING_TIMED_OUT"
	KindInternal                 ErrorKind = "INTERNAL"
)

// Error carries a kind alongside the message so callers never have to match
// on error text.
type Error struct {
	Kind      ErrorKind
	Message   string
	Retryable bool
	cause     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// NewError builds a non-retryable error of the given kind.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf builds a non-retryable error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a kind to an underlying error.
func WrapError(kind ErrorKind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: err}
}

// Retry marks the error as retryable at the caller and returns it.
func (e *Error) Retry() *Error {
	e.Retryable = true
	return e
}

// KindOf extracts the kind from err, or KindInternal when err carries none.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// IsRetryable reports whether err may be retried by the caller.
func IsRetryable(err error) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Retryable
	}
	return false
}
