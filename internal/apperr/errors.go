package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error independently of the transport
type Kind uint8

const (
	Other          Kind = iota // Unclassified error
	Validation                 // Malformed input, rejected before any state change
	NotFound                   // Referenced entity does not exist
	Forbidden                  // Actor lacks permission
	InvalidState               // Transition violates the state machine
	Unauthorized               // Missing or invalid credentials
	RateLimited                // Too many requests for this actor
	Infrastructure             // Datastore, blob storage or email transport failure
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation_error"
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	case InvalidState:
		return "invalid_state"
	case Unauthorized:
		return "unauthorized"
	case RateLimited:
		return "rate_limited"
	case Infrastructure:
		return "infrastructure_error"
	default:
		return "unclassified_error"
	}
}

// Error is the standard application error
type Error struct {
	Kind    Kind
	Message string
	// Field names the offending input for validation errors
	Field string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds an *Error from a mix of Kind, string (message) and error arguments
func E(args ...interface{}) error {
	e := &Error{}
	for _, arg := range args {
		switch arg := arg.(type) {
		case Kind:
			e.Kind = arg
		case error:
			e.Err = arg
		case string:
			e.Message = arg
		}
	}
	return e
}

// NewValidation reports invalid input for a specific field
func NewValidation(field, msg string) error {
	return &Error{Kind: Validation, Field: field, Message: msg}
}

func NewNotFound(msg string) error {
	return E(NotFound, msg)
}

func NewForbidden(msg string) error {
	return E(Forbidden, msg)
}

func NewInvalidState(msg string) error {
	return E(InvalidState, msg)
}

func NewUnauthorized(msg string) error {
	return E(Unauthorized, msg)
}

// Infra wraps a failure of an external collaborator
func Infra(msg string, err error) error {
	return E(Infrastructure, msg, err)
}

// KindOf returns the Kind of err, or Other if err is not an *Error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
