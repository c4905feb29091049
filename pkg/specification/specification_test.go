package specification

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isPositive() Specification[int] {
	return New("IsPositive", func(n int) bool { return n > 0 }, func(n int) Violation {
		return NewViolation("NOT_POSITIVE", "value must be positive", D("value", fmt.Sprint(n)))
	})
}

func isEven() Specification[int] {
	return New("IsEven", func(n int) bool { return n%2 == 0 }, func(int) Violation {
		return NewViolation("NOT_EVEN", "value must be even")
	})
}

func isSmall() Specification[int] {
	return New("IsSmall", func(n int) bool { return n < 10 }, func(int) Violation {
		return NewViolation("NOT_SMALL", "value must be below 10")
	})
}

var candidates = []int{-11, -4, -3, 0, 1, 2, 7, 8, 12, 13}

func TestViolationContract(t *testing.T) {
	specs := map[string]Specification[int]{
		"atomic": isPositive(),
		"and":    And(isPositive(), isEven()),
		"or":     Or(isPositive(), isEven()),
		"not":    Not(isEven()),
		"allOf":  AllOf(isPositive(), isEven(), isSmall()),
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			for _, c := range candidates {
				v := spec.Violation(c)
				if spec.IsSatisfiedBy(c) {
					assert.False(t, v.IsPresent(), "satisfied candidate %d produced %s", c, v)
				} else {
					assert.True(t, v.IsPresent(), "rejected candidate %d produced no violation", c)
				}
			}
		})
	}
}

func TestAnd(t *testing.T) {
	t.Run("left violation wins when both fail", func(t *testing.T) {
		spec := And(isPositive(), isEven())
		assert.Equal(t, isPositive().Violation(-3), spec.Violation(-3))
	})

	t.Run("right violation when only right fails", func(t *testing.T) {
		spec := And(isPositive(), isEven())
		assert.Equal(t, "NOT_EVEN", spec.Violation(3).Code())
	})

	t.Run("order decides priority", func(t *testing.T) {
		spec := And(isEven(), isPositive())
		assert.Equal(t, "NOT_EVEN", spec.Violation(-3).Code())
	})

	t.Run("allOf keeps left-to-right priority", func(t *testing.T) {
		spec := AllOf(isPositive(), isEven(), isSmall())
		assert.Equal(t, "NOT_POSITIVE", spec.Violation(-3).Code())
		assert.Equal(t, "NOT_EVEN", spec.Violation(13).Code())
		assert.Equal(t, "NOT_SMALL", spec.Violation(12).Code())
		assert.True(t, spec.IsSatisfiedBy(8))
	})
}

func TestOr(t *testing.T) {
	spec := Or(isPositive(), isEven())

	t.Run("either side satisfies", func(t *testing.T) {
		assert.True(t, spec.IsSatisfiedBy(3))
		assert.True(t, spec.IsSatisfiedBy(-4))
	})

	t.Run("both failing names both codes", func(t *testing.T) {
		v := spec.Violation(-3)
		assert.Equal(t, CodeOrFailed, v.Code())
		assert.Equal(t, []Detail{D("leftCode", "NOT_POSITIVE"), D("rightCode", "NOT_EVEN")}, v.Context())
	})
}

func TestNot(t *testing.T) {
	spec := Not(isEven())
	assert.True(t, spec.IsSatisfiedBy(3))
	assert.False(t, spec.IsSatisfiedBy(4))
	v := spec.Violation(4)
	assert.Equal(t, CodeNotFailed, v.Code())
	got, ok := v.Get("specification")
	require.True(t, ok)
	assert.Equal(t, "IsEven", got)
}

func TestAlgebraicLaws(t *testing.T) {
	a, b, c := isPositive(), isEven(), isSmall()

	for _, n := range candidates {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			// De Morgan
			assert.Equal(t, Not(And(a, b)).IsSatisfiedBy(n), Or(Not(a), Not(b)).IsSatisfiedBy(n))
			assert.Equal(t, Not(Or(a, b)).IsSatisfiedBy(n), And(Not(a), Not(b)).IsSatisfiedBy(n))
			// associativity
			assert.Equal(t, And(And(a, b), c).IsSatisfiedBy(n), And(a, And(b, c)).IsSatisfiedBy(n))
			assert.Equal(t, Or(Or(a, b), c).IsSatisfiedBy(n), Or(a, Or(b, c)).IsSatisfiedBy(n))
			// double negation
			assert.Equal(t, a.IsSatisfiedBy(n), Not(Not(a)).IsSatisfiedBy(n))
		})
	}
}

func TestNames(t *testing.T) {
	spec := Or(And(isPositive(), Not(isEven())), isSmall())
	assert.Equal(t, "((IsPositive AND NOT IsEven) OR IsSmall)", Name(spec))
}

func TestViolation(t *testing.T) {
	t.Run("none is absent", func(t *testing.T) {
		assert.False(t, None().IsPresent())
		assert.Equal(t, "<none>", None().String())
	})

	t.Run("context keeps insertion order", func(t *testing.T) {
		v := NewViolation("CODE", "msg", D("z", "1"), D("a", "2"), D("m", "3"))
		keys := make([]string, 0, 3)
		for _, d := range v.Context() {
			keys = append(keys, d.Key)
		}
		assert.Equal(t, []string{"z", "a", "m"}, keys)
		assert.Equal(t, "CODE: msg {z=1, a=2, m=3}", v.String())
		assert.Equal(t, map[string]string{"z": "1", "a": "2", "m": "3"}, v.ContextMap())
	})

	t.Run("context is not shared with callers", func(t *testing.T) {
		details := []Detail{D("k", "v")}
		v := NewViolation("CODE", "msg", details...)
		details[0].Value = "changed"
		got := v.Context()
		got[0].Value = "changed again"
		value, _ := v.Get("k")
		assert.Equal(t, "v", value)
	})

	t.Run("empty code panics", func(t *testing.T) {
		assert.Panics(t, func() { NewViolation("", "msg") })
	})
}

func TestEnforce(t *testing.T) {
	t.Run("satisfied returns nil", func(t *testing.T) {
		assert.NoError(t, Enforce(isPositive(), 1))
	})

	t.Run("rejection returns failure", func(t *testing.T) {
		err := Enforce(isPositive(), -1)
		require.Error(t, err)
		assert.Equal(t, "NOT_POSITIVE: value must be positive", err.Error())

		wrapped := fmt.Errorf("use case: %w", err)
		f, ok := AsFailure(wrapped)
		require.True(t, ok)
		assert.Equal(t, "NOT_POSITIVE", f.Code())
		value, _ := f.Violation().Get("value")
		assert.Equal(t, "-1", value)
		assert.True(t, HasCode(wrapped, "NOT_POSITIVE"))
	})

	t.Run("broken specification panics", func(t *testing.T) {
		broken := New("Broken", func(int) bool { return false }, func(int) Violation { return None() })
		defer func() {
			r := recover()
			require.NotNil(t, r)
			err, ok := r.(error)
			require.True(t, ok)
			var bse *BrokenSpecificationError
			require.True(t, errors.As(err, &bse))
			assert.Equal(t, "Broken", bse.Specification)
		}()
		_ = Enforce(broken, 1)
	})

	t.Run("plain errors are not failures", func(t *testing.T) {
		_, ok := AsFailure(errors.New("boom"))
		assert.False(t, ok)
	})

	t.Run("new failure rejects absent violation", func(t *testing.T) {
		assert.Panics(t, func() { NewFailure(None()) })
		assert.Equal(t, "CODE", NewFailure(NewViolation("CODE", "msg")).Code())
	})
}
