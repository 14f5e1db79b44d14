package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and other infrastructure
// layers return these (optionally wrapped) so services can translate them
// into domain errors without knowing which backend produced them.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)
