package specification

import (
	"strings"
)

// Detail is one ordered key/value entry of a violation context.
type Detail struct {
	Key   string
	Value string
}

// D builds a Detail.
func D(key, value string) Detail {
	return Detail{Key: key, Value: value}
}

// Violation explains why a candidate failed a specification. The zero value is
// the absent violation returned by None.
type Violation struct {
	code    string
	message string
	context []Detail
}

// NewViolation builds a present violation. Context entries keep their order.
// An empty code would be indistinguishable from None, so it panics.
func NewViolation(code, message string, context ...Detail) Violation {
	if code == "" {
		panic("specification: violation code must not be empty")
	}
	ctx := make([]Detail, len(context))
	copy(ctx, context)
	return Violation{code: code, message: message, context: ctx}
}

// None is the absent violation.
func None() Violation {
	return Violation{}
}

// IsPresent reports whether v describes a real failure.
func (v Violation) IsPresent() bool {
	return v.code != ""
}

func (v Violation) Code() string    { return v.code }
func (v Violation) Message() string { return v.message }

// Context returns a copy of the ordered context entries.
func (v Violation) Context() []Detail {
	out := make([]Detail, len(v.context))
	copy(out, v.context)
	return out
}

// Get returns the context value for key.
func (v Violation) Get(key string) (string, bool) {
	for _, d := range v.context {
		if d.Key == key {
			return d.Value, true
		}
	}
	return "", false
}

// ContextMap flattens the context for JSON encoding and log attributes.
func (v Violation) ContextMap() map[string]string {
	m := make(map[string]string, len(v.context))
	for _, d := range v.context {
		m[d.Key] = d.Value
	}
	return m
}

func (v Violation) String() string {
	if !v.IsPresent() {
		return "<none>"
	}
	var b strings.Builder
	b.WriteString(v.code)
	b.WriteString(": ")
	b.WriteString(v.message)
	if len(v.context) > 0 {
		b.WriteString(" {")
		for i, d := range v.context {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.Key)
			b.WriteString("=")
			b.WriteString(d.Value)
		}
		b.WriteString("}")
	}
	return b.String()
}
