package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrForbidden         = errors.New("only CANCELLED may be requested by a customer")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrConcurrentUpdate  = errors.New("order status changed concurrently")
	ErrDuplicateInFlight = errors.New("an order with this idempotency key is still being placed")
)

// ValidationError lists every problem found in a request.
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return "invalid order: " + strings.Join(e.Details, "; ")
}

func (e *ValidationError) add(msg string) {
	e.Details = append(e.Details, msg)
}

func (e *ValidationError) orNil() error {
	if len(e.Details) == 0 {
		return nil
	}
	return e
}

// TransitionError is an ErrIllegalTransition that names both ends.
type TransitionError struct {
	From, To Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move an order from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}
