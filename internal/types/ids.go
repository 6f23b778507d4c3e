package types

import (
	"github.com/google/uuid"
)

// RunID identifies one build or aggregate invocation in log output.
type RunID string

// NewRunID generates a UUIDv7 run identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewRunID() RunID {
	return RunID(uuid.Must(uuid.NewV7()).String())
}
