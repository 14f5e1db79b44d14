package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/kaminfo102/form-insert-student/internal/registration/models"
	"github.com/kaminfo102/form-insert-student/pkg/platform/sentinel"
)

// uniqueViolation is the PostgreSQL error code for a UNIQUE constraint hit.
const uniqueViolation = "23505"

// PostgresStore persists registrations in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed registration store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByNationalID(ctx context.Context, nationalID string) (models.Registration, error) {
	query := `
		SELECT id, full_name, national_id, birth_date, city, level,
		       mobile_number, emergency_number, profile_image, receipts, created_at
		FROM registrations
		WHERE national_id = $1
	`
	var reg models.Registration
	err := s.db.QueryRowContext(ctx, query, nationalID).Scan(
		&reg.ID,
		&reg.FullName,
		&reg.NationalID,
		&reg.BirthDate,
		&reg.City,
		&reg.Level,
		&reg.MobileNumber,
		&reg.EmergencyNumber,
		&reg.ProfileImage,
		pq.Array(&reg.Receipts),
		&reg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Registration{}, sentinel.ErrNotFound
		}
		return models.Registration{}, fmt.Errorf("find registration by national id: %w", err)
	}
	return reg, nil
}

func (s *PostgresStore) Create(ctx context.Context, reg models.Registration) (models.Registration, error) {
	query := `
		INSERT INTO registrations (
			id, full_name, national_id, birth_date, city, level,
			mobile_number, emergency_number, profile_image, receipts, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`
	err := s.db.QueryRowContext(ctx, query,
		reg.ID,
		reg.FullName,
		reg.NationalID,
		reg.BirthDate,
		reg.City,
		reg.Level,
		reg.MobileNumber,
		reg.EmergencyNumber,
		reg.ProfileImage,
		pq.Array(reg.Receipts),
		reg.CreatedAt,
	).Scan(&reg.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.Registration{}, sentinel.ErrConflict
		}
		return models.Registration{}, fmt.Errorf("insert registration: %w", err)
	}
	return reg, nil
}
