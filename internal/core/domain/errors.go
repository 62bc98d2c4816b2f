package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure. The HTTP layer maps each kind to a status code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindInvalidCredentials
	KindUnauthenticated
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// Error is the typed failure returned by every core operation.
// Message is safe to show to clients; Err carries the internal cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message != "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind, and on message when the target carries one, so that
// errors.Is(err, ErrConflict) matches any conflict while
// errors.Is(err, ErrEmailTaken) matches only that one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrConflict           = &Error{Kind: KindConflict}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Message: "Invalid password"}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated}
	ErrForbidden          = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrInternal           = &Error{Kind: KindInternal}

	ErrUserNotFound     = &Error{Kind: KindNotFound, Message: "User not found"}
	ErrUsernameTaken    = &Error{Kind: KindConflict, Message: "username already exists"}
	ErrEmailTaken       = &Error{Kind: KindConflict, Message: "email already exists"}
	ErrFederatedIDTaken = &Error{Kind: KindConflict, Message: "google account already linked to another user"}
	ErrInvalidUserID    = &Error{Kind: KindValidation, Message: "Invalid User ID"}
	ErrFieldsRequired   = &Error{Kind: KindValidation, Message: "All fields are required"}
)

// Validation builds a validation failure with a client-facing message.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Unauthenticated builds an authentication failure around a verification cause.
func Unauthenticated(message string, cause error) error {
	return &Error{Kind: KindUnauthenticated, Message: message, Err: cause}
}

// Internal wraps an unexpected store or crypto failure. Domain errors pass
// through untouched so callers can wrap unconditionally.
func Internal(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: KindInternal, Err: fmt.Errorf("%s: %w", op, err)}
}

// KindOf reports the kind of err, KindInternal for anything untyped.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// PublicMessage returns the client-facing text for err. Internal failures
// never expose their cause.
func PublicMessage(err error) string {
	var de *Error
	if !errors.As(err, &de) || de.Kind == KindInternal {
		return "internal server error"
	}
	if de.Message != "" {
		return de.Message
	}
	return de.Kind.String()
}
