// Package sentinel holds the store-level facts that services translate into
// domain errors. Stores may wrap them; callers match with errors.Is.
package sentinel

import "errors"

var (
	// ErrNotFound means no row matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrConflict means the write carried a stale version.
	ErrConflict = errors.New("conflict")
	// ErrAlreadyUsed means a unique value, such as a live customer's email,
	// is owned by another record.
	ErrAlreadyUsed = errors.New("already used")
)
