package specification

import (
	"errors"
	"fmt"
)

// Failure is the error returned when a specification rejects a transition. It
// always carries exactly one present Violation.
type Failure struct {
	violation Violation
}

// NewFailure wraps v. An absent v is a rule-composition bug and panics with
// *BrokenSpecificationError.
func NewFailure(v Violation) *Failure {
	if !v.IsPresent() {
		panic(&BrokenSpecificationError{Specification: "unknown"})
	}
	return &Failure{violation: v}
}

func (f *Failure) Error() string {
	return f.violation.Code() + ": " + f.violation.Message()
}

func (f *Failure) Violation() Violation { return f.violation }
func (f *Failure) Code() string         { return f.violation.Code() }

// AsFailure extracts a *Failure from err's chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// HasCode reports whether err is a Failure with the given violation code.
func HasCode(err error, code string) bool {
	f, ok := AsFailure(err)
	return ok && f.Code() == code
}

// BrokenSpecificationError is the panic value raised when a specification
// rejects a candidate but reports no violation. It is a programming error and
// never a business outcome.
type BrokenSpecificationError struct {
	Specification string
}

func (e *BrokenSpecificationError) Error() string {
	return fmt.Sprintf("specification %s rejected the candidate without a violation", e.Specification)
}

// Enforce returns nil when spec accepts candidate and a *Failure otherwise.
// It panics with *BrokenSpecificationError if spec breaks its contract.
func Enforce[T any](spec Specification[T], candidate T) error {
	if spec.IsSatisfiedBy(candidate) {
		return nil
	}
	v := spec.Violation(candidate)
	if !v.IsPresent() {
		panic(&BrokenSpecificationError{Specification: Name(spec)})
	}
	return &Failure{violation: v}
}
