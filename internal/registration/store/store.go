package store

import (
	"context"

	"github.com/kaminfo102/form-insert-student/internal/registration/models"
)

// RegistrationStore is interface-driven to keep the pipeline testable and to
// allow swapping the in-memory twin for PostgreSQL without rewiring business
// code. Implementations must enforce national-ID uniqueness atomically;
// callers treat the pre-lookup as an optimization only.
type RegistrationStore interface {
	// FindByNationalID returns sentinel.ErrNotFound when no record exists.
	FindByNationalID(ctx context.Context, nationalID string) (models.Registration, error)
	// Create inserts exactly one record and returns sentinel.ErrConflict if
	// the national ID is already taken, including under concurrent inserts.
	Create(ctx context.Context, reg models.Registration) (models.Registration, error)
}
