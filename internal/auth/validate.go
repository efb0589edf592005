package auth

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// 2-15 word characters (any script), spaces, brackets or hyphens
	usernameRgx = regexp.MustCompile(`^[\p{L}\p{N}_ \[\]-]{2,15}$`)
	emailRgx    = regexp.MustCompile(`^[^@\s]{1,200}@[^@\s\.]{1,30}\.[^@\.\s]{1,24}$`)
)

const (
	minPasswordLen = 8 // exclusive
	maxPasswordLen = 32
	minDistinct    = 3 // exclusive
)

// AccountChecker answers the uniqueness questions the validators ask
type AccountChecker interface {
	NameExists(ctx context.Context, name string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// Validator checks registration input against syntax and policy rules.
// It only reads from the store.
type Validator struct {
	accounts            AccountChecker
	disallowedNames     map[string]struct{}
	disallowedPasswords map[string]struct{}
}

// NewValidator builds a validator. Denylisted names and passwords are
// compared case-insensitively.
func NewValidator(accounts AccountChecker, disallowedNames, disallowedPasswords []string) *Validator {
	v := &Validator{
		accounts:            accounts,
		disallowedNames:     make(map[string]struct{}, len(disallowedNames)),
		disallowedPasswords: make(map[string]struct{}, len(disallowedPasswords)),
	}
	for _, n := range disallowedNames {
		v.disallowedNames[strings.ToLower(n)] = struct{}{}
	}
	for _, p := range disallowedPasswords {
		v.disallowedPasswords[strings.ToLower(p)] = struct{}{}
	}
	return v
}

// ValidateUsername checks syntax, separators, the denylist and uniqueness, in that order
func (v *Validator) ValidateUsername(ctx context.Context, name string) error {
	if !usernameRgx.MatchString(name) {
		return invalid(FieldUsername, ErrInvalidSyntax)
	}
	if strings.Contains(name, "_") && strings.Contains(name, " ") {
		return invalid(FieldUsername, ErrAmbiguousSeparator)
	}
	if _, ok := v.disallowedNames[strings.ToLower(name)]; ok {
		return invalid(FieldUsername, ErrDisallowed)
	}
	taken, err := v.accounts.NameExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if taken {
		return invalid(FieldUsername, ErrTaken)
	}
	return nil
}

// ValidateEmail checks syntax and uniqueness
func (v *Validator) ValidateEmail(ctx context.Context, email string) error {
	// RE2's \s is ASCII only
	if strings.IndexFunc(email, unicode.IsSpace) >= 0 || !emailRgx.MatchString(email) {
		return invalid(FieldEmail, ErrInvalidSyntax)
	}
	taken, err := v.accounts.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		return invalid(FieldEmail, ErrTaken)
	}
	return nil
}

// ValidatePassword checks length, character variety and the denylist.
// Length is counted in characters.
func (v *Validator) ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n <= minPasswordLen || n > maxPasswordLen {
		return invalid(FieldPassword, ErrTooShortOrLong)
	}
	distinct := make(map[rune]struct{}, n)
	for _, r := range password {
		distinct[r] = struct{}{}
	}
	if len(distinct) <= minDistinct {
		return invalid(FieldPassword, ErrTooSimple)
	}
	if _, ok := v.disallowedPasswords[strings.ToLower(password)]; ok {
		return invalid(FieldPassword, ErrDenylisted)
	}
	return nil
}
