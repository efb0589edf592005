package auth

import (
	"errors"
	"fmt"
)

// Failure kinds. Validation kinds arrive wrapped in a *ValidationError.
var (
	ErrInvalidSyntax        = errors.New("invalid syntax")
	ErrAmbiguousSeparator   = errors.New("both space and underscore")
	ErrDisallowed           = errors.New("disallowed")
	ErrDenylisted           = errors.New("denylisted")
	ErrTaken                = errors.New("already taken")
	ErrTooShortOrLong       = errors.New("too short or too long")
	ErrTooSimple            = errors.New("too few distinct characters")
	ErrAccountNotFound      = errors.New("account does not exist")
	ErrBadPassword          = errors.New("password is incorrect")
	ErrNotVerified          = errors.New("account is not verified")
	ErrBanned               = errors.New("account is banned")
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrAlreadyAuthenticated = errors.New("already authenticated")
	ErrRegistrationDisabled = errors.New("registration is disabled")
)

// Fields a ValidationError can refer to
const (
	FieldUsername = "username"
	FieldEmail    = "email"
	FieldPassword = "password"
)

// ValidationError reports which form field failed and why
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}
