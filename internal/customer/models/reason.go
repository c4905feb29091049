package models

import (
	"errors"
	"strings"
	"unicode/utf8"

	dErrors "github.com/DaghanEmre/fintech-modular-platform/pkg/domain-errors"
)

const (
	MinReasonLength = 3
	MaxReasonLength = 500
)

var (
	ErrReasonRequired = errors.New("reason is required")
	ErrReasonTooShort = errors.New("reason is too short")
	ErrReasonTooLong  = errors.New("reason is too long")
)

// StateChangeReason is the operator-supplied justification for a suspension or
// block. It is trimmed and between 3 and 500 characters.
type StateChangeReason struct {
	value string
}

func NewStateChangeReason(raw string) (StateChangeReason, error) {
	trimmed := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(trimmed)
	switch {
	case n == 0:
		return StateChangeReason{}, dErrors.Wrap(ErrReasonRequired, dErrors.CodeInvalidInput, "reason is required")
	case n < MinReasonLength:
		return StateChangeReason{}, dErrors.Wrap(ErrReasonTooShort, dErrors.CodeInvalidInput, "reason must be at least 3 characters")
	case n > MaxReasonLength:
		return StateChangeReason{}, dErrors.Wrap(ErrReasonTooLong, dErrors.CodeInvalidInput, "reason must be at most 500 characters")
	}
	return StateChangeReason{value: trimmed}, nil
}

func (r StateChangeReason) String() string { return r.value }
func (r StateChangeReason) IsZero() bool   { return r.value == "" }
