// Package mem defines what is shared by the memory-system simulators, mainly
// the errors they report.
package mem

import "errors"

// ErrConfig is returned when the geometry of a simulator is missing or
// incoherent. A simulator that reports ErrConfig keeps its previous state.
var ErrConfig = errors.New("invalid configuration")

// ErrOutOfRange is returned when an address falls outside the simulated
// memory.
var ErrOutOfRange = errors.New("address out of range")

// ErrNotConfigured is returned when a simulator is accessed before its sizes
// are established.
var ErrNotConfigured = errors.New("simulator not configured")

// ErrMissingValue is returned when a write request does not carry a value.
var ErrMissingValue = errors.New("write request without value")
