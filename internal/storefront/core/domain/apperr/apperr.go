// Package apperr is the error vocabulary of the storefront core. Every error
// returned from a core operation carries a Kind so callers can choose between
// an inline message, a login redirect and a retry affordance.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation is caught locally, before any network call.
	KindValidation
	// KindAuth means the credential is missing or was refused.
	KindAuth
	// KindConflict means the backend rejected a transition; re-sync before retrying.
	KindConflict
	// KindTransient covers timeouts, unreachable backends and 5xx answers.
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindConflict:
		return "conflict"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Codes for the errors the core raises itself.
const (
	CodeEmptyCart          = "EMPTY_CART"
	CodeMissingLocation    = "MISSING_LOCATION"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeSubmissionInFlight = "SUBMISSION_IN_FLIGHT"
	CodeInvalidQuantity    = "INVALID_QUANTITY"
	CodeInvalidProduct     = "INVALID_PRODUCT"
	CodeNotCancellable     = "NOT_CANCELLABLE"
	CodeStorage            = "STORAGE"
	CodeBackend            = "BACKEND"
)

// GenericMessage is shown when the backend gave no usable message.
const GenericMessage = "Something went wrong. Please try again."

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code so that errors.Is(err, ErrEmptyCart) works for any
// *Error raised with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

var (
	ErrEmptyCart          = &Error{Kind: KindValidation, Code: CodeEmptyCart, Message: "Your cart is empty"}
	ErrMissingLocation    = &Error{Kind: KindValidation, Code: CodeMissingLocation, Message: "Please enter a delivery location"}
	ErrUnauthenticated    = &Error{Kind: KindAuth, Code: CodeUnauthenticated, Message: "Please sign in to continue"}
	ErrSubmissionInFlight = &Error{Kind: KindValidation, Code: CodeSubmissionInFlight, Message: "Your order is already being placed"}
	ErrInvalidQuantity    = &Error{Kind: KindValidation, Code: CodeInvalidQuantity, Message: "Quantity must be at least 1"}
	ErrNotCancellable     = &Error{Kind: KindConflict, Code: CodeNotCancellable, Message: "This order can no longer be cancelled"}
)

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Wrap(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// KindOf digs the Kind out of err; plain errors are KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// MessageOf returns the user-facing message of err, falling back to
// GenericMessage for errors that did not come from the core.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return GenericMessage
}

func IsAuth(err error) bool      { return KindOf(err) == KindAuth }
func IsConflict(err error) bool  { return KindOf(err) == KindConflict }
func IsTransient(err error) bool { return KindOf(err) == KindTransient }
