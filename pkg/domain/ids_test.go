package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/DaghanEmre/fintech-modular-platform/pkg/domain-errors"
)

// TestParseCustomerID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseCustomerID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseCustomerID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseCustomerID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseCustomerID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseCustomerID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, CustomerID(validUUID), id)
	})

	t.Run("round-trips generated ids", func(t *testing.T) {
		for range 50 {
			id := NewCustomerID()
			parsed, err := ParseCustomerID(id.String())
			require.NoError(t, err)
			assert.Equal(t, id, parsed)
			assert.False(t, parsed.IsNil())
		}
	})

	t.Run("generated ids are version 4", func(t *testing.T) {
		assert.Equal(t, uuid.Version(4), uuid.UUID(NewCustomerID()).Version())
	})
}

// TestParseID_SecurityInvariants validates parsing rules at API entry points.
func TestParseID_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		// Attack vectors
		{"SQL injection attempt", "'; DROP TABLE customers;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Unicode zero-width space", "550e8400\u200B-e29b-41d4-a716-446655440000", true},
		{"Braced UUID", "{550e8400-e29b-41d4-a716-446655440000}", true},
		{"URN UUID", "urn:uuid:550e8400-e29b-41d4-a716-446655440000", true},

		// Edge cases
		{"Empty string", "", true},
		{"Nil UUID", uuid.Nil.String(), true},
		{"Whitespace only", "   ", true},
		{"Surrounding whitespace", " 550e8400-e29b-41d4-a716-446655440000 ", false},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},

		// Valid
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCustomerID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// TestTypeDistinction verifies typed IDs stay distinct types.
func TestTypeDistinction(t *testing.T) {
	customerID := NewCustomerID()
	eventID := NewEventID()

	// These would fail to compile if types were interchangeable:
	// var _ CustomerID = eventID
	// var _ EventID = customerID

	assert.NotEqual(t, uuid.UUID(customerID), uuid.UUID(eventID))
}

// TestAllIDTypes_ConsistentBehavior ensures all ID types share parsing rules.
func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	validUUID := uuid.New().String()

	t.Run("all accept valid UUID", func(t *testing.T) {
		_, errCustomer := ParseCustomerID(validUUID)
		_, errEvent := ParseEventID(validUUID)
		require.NoError(t, errCustomer)
		require.NoError(t, errEvent)
	})

	for _, input := range []string{"", "invalid", uuid.Nil.String()} {
		t.Run("all reject: "+input, func(t *testing.T) {
			_, errCustomer := ParseCustomerID(input)
			_, errEvent := ParseEventID(input)
			require.Error(t, errCustomer)
			require.Error(t, errEvent)
		})
	}
}
