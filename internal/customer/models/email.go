package models

import (
	"errors"
	"regexp"
	"strings"

	dErrors "github.com/DaghanEmre/fintech-modular-platform/pkg/domain-errors"
)

// MaxEmailLength is the RFC 5321 path limit applied after normalization.
const MaxEmailLength = 254

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_+&*-]+(?:\.[a-zA-Z0-9_+&*-]+)*@(?:[a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}$`)

var (
	ErrEmailRequired = errors.New("email is required")
	ErrEmailTooLong  = errors.New("email exceeds maximum length")
	ErrEmailInvalid  = errors.New("email format is invalid")
)

// Email is a normalized (trimmed, lower-cased) email address. Two Emails are
// equal when their normalized values are equal.
type Email struct {
	value string
}

// NewEmail validates and normalizes raw. Errors carry CodeInvalidInput and wrap
// one of the ErrEmail sentinels.
func NewEmail(raw string) (Email, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return Email{}, dErrors.Wrap(ErrEmailRequired, dErrors.CodeInvalidInput, "email is required")
	}
	if len(normalized) > MaxEmailLength {
		return Email{}, dErrors.Wrap(ErrEmailTooLong, dErrors.CodeInvalidInput, "email must be at most 254 characters")
	}
	if !emailPattern.MatchString(normalized) {
		return Email{}, dErrors.Wrap(ErrEmailInvalid, dErrors.CodeInvalidInput, "email format is invalid")
	}
	return Email{value: normalized}, nil
}

func (e Email) String() string { return e.value }

// IsZero reports whether e was never constructed through NewEmail.
func (e Email) IsZero() bool { return e.value == "" }

// Domain returns the part after the @.
func (e Email) Domain() string {
	_, domain, _ := strings.Cut(e.value, "@")
	return domain
}
