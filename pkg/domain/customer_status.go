package domain

import (
	"strings"

	dErrors "github.com/DaghanEmre/fintech-modular-platform/pkg/domain-errors"
)

// CustomerStatus is the lifecycle state of a customer. It crosses every boundary
// (JSON, SQL, event payloads) as its literal name.
type CustomerStatus string

const (
	CustomerStatusPending   CustomerStatus = "PENDING"
	CustomerStatusActive    CustomerStatus = "ACTIVE"
	CustomerStatusSuspended CustomerStatus = "SUSPENDED"
	CustomerStatusInactive  CustomerStatus = "INACTIVE"
	CustomerStatusBlocked   CustomerStatus = "BLOCKED"

	// CustomerStatusUnknown is returned for names this build does not recognize.
	CustomerStatusUnknown CustomerStatus = "UNKNOWN"
)

var knownStatuses = map[CustomerStatus]struct{}{
	CustomerStatusPending:   {},
	CustomerStatusActive:    {},
	CustomerStatusSuspended: {},
	CustomerStatusInactive:  {},
	CustomerStatusBlocked:   {},
}

// ParseCustomerStatus maps a stored or transmitted name to a status. Unrecognized
// names yield CustomerStatusUnknown and ok=false so newer producers do not break
// older readers.
func ParseCustomerStatus(s string) (status CustomerStatus, ok bool) {
	st := CustomerStatus(strings.ToUpper(strings.TrimSpace(s)))
	if _, known := knownStatuses[st]; !known {
		return CustomerStatusUnknown, false
	}
	return st, true
}

// ParseCustomerStatusStrict is ParseCustomerStatus for trust boundaries where an
// unknown name is a client error.
func ParseCustomerStatusStrict(s string) (CustomerStatus, error) {
	st, ok := ParseCustomerStatus(s)
	if !ok {
		return CustomerStatusUnknown, dErrors.New(dErrors.CodeInvalidInput, "unknown customer status: "+s)
	}
	return st, nil
}

func (s CustomerStatus) String() string { return string(s) }

// IsValid reports whether s is one of the known lifecycle states.
func (s CustomerStatus) IsValid() bool {
	_, ok := knownStatuses[s]
	return ok
}

// IsTerminal reports whether no transition can leave s.
func (s CustomerStatus) IsTerminal() bool {
	return s == CustomerStatusBlocked
}
