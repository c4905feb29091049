// Package specification implements composable business predicates that explain
// their own failures.
//
// A Specification answers two questions about a candidate: whether it is
// satisfied, and if not, which Violation describes the failure. Implementations
// must return None for satisfied candidates and a present Violation otherwise;
// Enforce relies on that contract without re-checking it.
package specification

// Generic composition codes. Domain rule sets should not surface these; they
// name a curated code in a semantic specification instead.
const (
	CodeOrFailed  = "SPEC_OR_FAILED"
	CodeNotFailed = "SPEC_NOT_FAILED"
)

// Specification is a named predicate over T paired with a failure explanation.
type Specification[T any] interface {
	IsSatisfiedBy(candidate T) bool
	Violation(candidate T) Violation
}

type funcSpec[T any] struct {
	name      string
	predicate func(T) bool
	violation func(T) Violation
}

// New builds a specification from a predicate and a violation factory. The
// factory is only consulted when the predicate does not hold.
func New[T any](name string, predicate func(T) bool, violation func(T) Violation) Specification[T] {
	return funcSpec[T]{name: name, predicate: predicate, violation: violation}
}

func (s funcSpec[T]) IsSatisfiedBy(candidate T) bool {
	return s.predicate(candidate)
}

func (s funcSpec[T]) Violation(candidate T) Violation {
	if s.predicate(candidate) {
		return None()
	}
	return s.violation(candidate)
}

func (s funcSpec[T]) String() string { return s.name }

// And is satisfied when both sides are. The left violation wins when both fail,
// so callers put the most urgent rule first.
func And[T any](left, right Specification[T]) Specification[T] {
	return funcSpec[T]{
		name: "(" + Name(left) + " AND " + Name(right) + ")",
		predicate: func(c T) bool {
			return left.IsSatisfiedBy(c) && right.IsSatisfiedBy(c)
		},
		violation: func(c T) Violation {
			if !left.IsSatisfiedBy(c) {
				return left.Violation(c)
			}
			return right.Violation(c)
		},
	}
}

// AllOf folds specs with And, left to right.
func AllOf[T any](first Specification[T], rest ...Specification[T]) Specification[T] {
	out := first
	for _, s := range rest {
		out = And(out, s)
	}
	return out
}

// Or is satisfied when either side is. When both fail the violation names
// both sub-codes rather than picking one.
func Or[T any](left, right Specification[T]) Specification[T] {
	return funcSpec[T]{
		name: "(" + Name(left) + " OR " + Name(right) + ")",
		predicate: func(c T) bool {
			return left.IsSatisfiedBy(c) || right.IsSatisfiedBy(c)
		},
		violation: func(c T) Violation {
			return NewViolation(CodeOrFailed, "neither condition was satisfied",
				D("leftCode", left.Violation(c).Code()),
				D("rightCode", right.Violation(c).Code()),
			)
		},
	}
}

// Not inverts spec. Its violation is generic; prefer a named negative rule for
// anything a user sees.
func Not[T any](spec Specification[T]) Specification[T] {
	name := "NOT " + Name(spec)
	return funcSpec[T]{
		name: name,
		predicate: func(c T) bool {
			return !spec.IsSatisfiedBy(c)
		},
		violation: func(T) Violation {
			return NewViolation(CodeNotFailed, "negated condition held", D("specification", Name(spec)))
		},
	}
}

// Name returns the specification's name, or "specification" when it has none.
func Name[T any](spec Specification[T]) string {
	if s, ok := spec.(interface{ String() string }); ok {
		return s.String()
	}
	return "specification"
}

// Named gives spec a business name without changing its behavior.
func Named[T any](name string, spec Specification[T]) Specification[T] {
	return funcSpec[T]{name: name, predicate: spec.IsSatisfiedBy, violation: spec.Violation}
}
