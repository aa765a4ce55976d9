package oauth2

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies a member of the closed set of protocol errors the token
// engine raises. Every error surfaced to a caller belongs to exactly one kind.
type Kind int

const (
	// KindInvalidArgument signals construction-time or caller misuse.
	KindInvalidArgument Kind = iota

	// KindInvalidRequest covers malformed or incomplete token requests.
	KindInvalidRequest

	// KindInvalidClient covers failed client authentication.
	KindInvalidClient

	// KindInvalidGrant covers invalid or expired credentials, codes and tokens.
	KindInvalidGrant

	// KindUnauthorizedClient is raised when a client uses a grant type its
	// registration does not allow.
	KindUnauthorizedClient

	// KindUnsupportedGrantType is raised for unknown grant type names.
	KindUnsupportedGrantType

	// KindAccessDenied is raised when the request is refused by policy.
	KindAccessDenied

	// KindServerError wraps internal failures raised by collaborators.
	KindServerError
)

// Code returns the RFC 6749 error code rendered into the response body.
func (k Kind) Code() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindInvalidClient:
		return "invalid_client"
	case KindInvalidGrant:
		return "invalid_grant"
	case KindUnauthorizedClient:
		return "unauthorized_client"
	case KindUnsupportedGrantType:
		return "unsupported_grant_type"
	case KindAccessDenied:
		return "access_denied"
	default:
		return "server_error"
	}
}

// DefaultStatus returns the HTTP status rendered for the kind unless the
// error instance overrides it.
func (k Kind) DefaultStatus() int {
	switch k {
	case KindInvalidArgument:
		return http.StatusInternalServerError
	case KindServerError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

// String returns the kind's name for logs and test output.
func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindInvalidRequest:
		return "invalid_request"
	case KindInvalidClient:
		return "invalid_client"
	case KindInvalidGrant:
		return "invalid_grant"
	case KindUnauthorizedClient:
		return "unauthorized_client"
	case KindUnsupportedGrantType:
		return "unsupported_grant_type"
	case KindAccessDenied:
		return "access_denied"
	case KindServerError:
		return "server_error"
	default:
		return "unknown"
	}
}

// Error is a protocol error: the kind it belongs to, the human message
// rendered as error_description, the HTTP status to respond with, and an
// optional wrapped cause. The cause is kept for logging and error inspection
// only and is never serialized into a response.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Inner   error
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Status: kind.DefaultStatus()}
}

// NewInvalidArgumentError reports misuse of the engine itself, such as missing
// construction parameters.
func NewInvalidArgumentError(message string) *Error {
	return newError(KindInvalidArgument, message)
}

// NewInvalidRequestError reports a malformed or incomplete token request.
func NewInvalidRequestError(message string) *Error {
	return newError(KindInvalidRequest, message)
}

// NewInvalidClientError reports failed client authentication.
func NewInvalidClientError(message string) *Error {
	return newError(KindInvalidClient, message)
}

// NewInvalidGrantError reports an invalid or expired grant, code or token.
func NewInvalidGrantError(message string) *Error {
	return newError(KindInvalidGrant, message)
}

// NewUnauthorizedClientError reports a grant type the client may not use.
func NewUnauthorizedClientError(message string) *Error {
	return newError(KindUnauthorizedClient, message)
}

// NewUnsupportedGrantTypeError reports an unknown grant type name.
func NewUnsupportedGrantTypeError(message string) *Error {
	return newError(KindUnsupportedGrantType, message)
}

// NewAccessDeniedError reports a request refused by policy.
func NewAccessDeniedError(message string) *Error {
	return newError(KindAccessDenied, message)
}

// NewServerError reports an internal failure with a caller-chosen message.
func NewServerError(message string) *Error {
	return newError(KindServerError, message)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind.String(), e.Message)
}

// Unwrap exposes the inner cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Inner
}

// WithStatus returns a copy of the error with the HTTP status overridden.
func (e *Error) WithStatus(status int) *Error {
	clone := *e
	clone.Status = status
	return &clone
}

// AsError extracts a protocol error from err's chain.
func AsError(err error) (*Error, bool) {
	var oerr *Error
	if errors.As(err, &oerr) {
		return oerr, true
	}
	return nil, false
}

// NormalizeError applies the wrapping rule for foreign errors: protocol
// errors pass through unchanged, anything else becomes a ServerError that
// keeps the original message as the user-visible description and the original
// error as the inner cause. Internal detail beyond the message never reaches
// the wire.
func NormalizeError(err error) *Error {
	if err == nil {
		return nil
	}
	if oerr, ok := AsError(err); ok {
		return oerr
	}
	return &Error{
		Kind:    KindServerError,
		Message: err.Error(),
		Status:  KindServerError.DefaultStatus(),
		Inner:   err,
	}
}
