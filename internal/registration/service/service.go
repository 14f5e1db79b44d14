// Package service runs the intake pipeline: validate the submission, check
// the identity is free, normalize image attachments, persist files under the
// content root, and insert exactly one record. Stages run strictly forward;
// a failure in any stage stops everything after it.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kaminfo102/form-insert-student/internal/platform/metrics"
	"github.com/kaminfo102/form-insert-student/internal/registration/filestore"
	"github.com/kaminfo102/form-insert-student/internal/registration/images"
	"github.com/kaminfo102/form-insert-student/internal/registration/models"
	"github.com/kaminfo102/form-insert-student/internal/registration/store"
	"github.com/kaminfo102/form-insert-student/internal/registration/validator"
	"github.com/kaminfo102/form-insert-student/pkg/domainerrors"
	"github.com/kaminfo102/form-insert-student/pkg/platform/sentinel"
)

// Messages shown to submitters. The storage failure message is localized and
// deliberately generic; the real cause only reaches the server log.
const (
	MsgDuplicateIdentity = "national ID is already registered"
	MsgStorageFailure    = "خطا در ثبت اطلاعات. لطفا دوباره تلاش کنید."
)

type Service struct {
	store   store.RegistrationStore
	files   *filestore.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New builds the registration service. metrics may be nil in tests.
func New(st store.RegistrationStore, files *filestore.Store, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:   st,
		files:   files,
		logger:  logger,
		metrics: m,
	}
}

// stagedFile is a normalized attachment waiting to be written. Nothing
// touches disk until every attachment has been normalized, so a decode
// failure leaves no files behind.
type stagedFile struct {
	name string
	data []byte
}

// Register processes one submission end to end and returns the created
// record. All failures come back as domainerrors with a code the transport
// layer maps to a status.
func (s *Service) Register(ctx context.Context, sub models.Submission) (models.Registration, error) {
	requestStart := time.Now()
	sub = sub.Compact()

	if violations := validator.Validate(sub); len(violations) > 0 {
		s.rejected("validation")
		return models.Registration{}, domainerrors.New(domainerrors.CodeBadRequest, validator.Join(violations))
	}

	birthDate, err := sub.ParseBirthDate()
	if err != nil {
		s.rejected("bad_birth_date")
		s.logger.Error("birth date does not parse",
			"national_id", sub.NationalID,
			"birth_date", sub.BirthDate,
			"error", err.Error(),
		)
		return models.Registration{}, domainerrors.Wrap(domainerrors.CodeInternal, MsgStorageFailure, err)
	}

	// Pre-check only; Create still enforces uniqueness under races.
	if _, err := s.store.FindByNationalID(ctx, sub.NationalID); err == nil {
		s.rejected("duplicate")
		return models.Registration{}, domainerrors.New(domainerrors.CodeConflict, MsgDuplicateIdentity)
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.Error("duplicate pre-check failed", "national_id", sub.NationalID, "error", err.Error())
		return models.Registration{}, domainerrors.Wrap(domainerrors.CodeInternal, MsgStorageFailure, err)
	}

	staged, err := s.normalize(sub)
	if err != nil {
		return models.Registration{}, err
	}

	profilePath, receiptPaths, err := s.persistFiles(sub, staged)
	if err != nil {
		return models.Registration{}, err
	}

	reg := models.Registration{
		ID:              uuid.New(),
		FullName:        sub.FullName,
		NationalID:      sub.NationalID,
		BirthDate:       birthDate,
		City:            sub.City,
		Level:           sub.Level,
		MobileNumber:    sub.MobileNumber,
		EmergencyNumber: sub.EmergencyNumber,
		ProfileImage:    profilePath,
		Receipts:        receiptPaths,
		CreatedAt:       time.Now(),
	}

	created, err := s.store.Create(ctx, reg)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.rejected("duplicate")
			s.logOrphans(sub.NationalID, profilePath, receiptPaths)
			return models.Registration{}, domainerrors.New(domainerrors.CodeConflict, MsgDuplicateIdentity)
		}
		s.rejected("storage")
		s.logger.Error("registration insert failed", "national_id", sub.NationalID, "error", err.Error())
		s.logOrphans(sub.NationalID, profilePath, receiptPaths)
		return models.Registration{}, domainerrors.Wrap(domainerrors.CodeInternal, MsgStorageFailure, err)
	}

	if s.metrics != nil {
		s.metrics.RegistrationsCreated.Inc()
	}
	s.logger.Info("registration created",
		"national_id", created.NationalID,
		"receipts", len(created.Receipts),
		"has_profile_image", created.ProfileImage != "",
		"duration_ms", time.Since(requestStart).Milliseconds(),
	)
	return created, nil
}

// Get returns the record stored under the given national ID.
func (s *Service) Get(ctx context.Context, nationalID string) (models.Registration, error) {
	reg, err := s.store.FindByNationalID(ctx, nationalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Registration{}, domainerrors.New(domainerrors.CodeNotFound, "registration not found")
		}
		s.logger.Error("registration lookup failed", "national_id", nationalID, "error", err.Error())
		return models.Registration{}, domainerrors.Wrap(domainerrors.CodeInternal, MsgStorageFailure, err)
	}
	return reg, nil
}

// normalize runs every image attachment through the normalizer and names
// document receipts. Profile first, then receipts in submission order.
func (s *Service) normalize(sub models.Submission) ([]stagedFile, error) {
	staged := make([]stagedFile, 0, 1+len(sub.Receipts))

	if sub.ProfileImage != nil {
		out, err := images.Normalize(sub.ProfileImage.Data, images.RoleProfile)
		if err != nil {
			s.rejected("profile_image")
			s.logger.Error("profile image normalization failed",
				"national_id", sub.NationalID,
				"filename", sub.ProfileImage.Filename,
				"error", err.Error(),
			)
			return nil, domainerrors.Wrap(domainerrors.CodeInternal, "failed to process profile image", err)
		}
		staged = append(staged, stagedFile{
			name: images.GeneratedName(images.RoleProfile, sub.NationalID, 0, "webp"),
			data: out,
		})
	}

	for i, att := range sub.Receipts {
		position := i + 1
		if att.IsImage() {
			out, err := images.Normalize(att.Data, images.RoleReceipt)
			if err != nil {
				s.rejected("receipt_image")
				s.logger.Warn("receipt image normalization failed",
					"national_id", sub.NationalID,
					"position", position,
					"filename", att.Filename,
					"error", err.Error(),
				)
				return nil, domainerrors.Newf(domainerrors.CodeUnprocessable,
					"failed to process receipt %d", position)
			}
			staged = append(staged, stagedFile{
				name: images.GeneratedName(images.RoleReceipt, sub.NationalID, position, "webp"),
				data: out,
			})
			continue
		}
		// Allow-listed documents keep their original bytes and extension.
		staged = append(staged, stagedFile{
			name: images.GeneratedName(images.RoleReceipt, sub.NationalID, position, att.Extension()),
			data: att.Data,
		})
	}

	return staged, nil
}

// persistFiles writes the staged files in order and splits the resulting
// public paths back into the profile path and the receipt sequence.
func (s *Service) persistFiles(sub models.Submission, staged []stagedFile) (string, []string, error) {
	var profilePath string
	receiptPaths := make([]string, 0, len(sub.Receipts))

	for i, f := range staged {
		p, err := s.files.Write(f.name, f.data)
		if err != nil {
			s.rejected("file_write")
			s.logger.Error("content store write failed",
				"national_id", sub.NationalID,
				"file", f.name,
				"error", err.Error(),
			)
			if i > 0 {
				s.logOrphans(sub.NationalID, profilePath, receiptPaths)
			}
			return "", nil, domainerrors.Wrap(domainerrors.CodeInternal, MsgStorageFailure, err)
		}
		if s.metrics != nil {
			s.metrics.FilesStored.Inc()
		}
		if sub.ProfileImage != nil && i == 0 {
			profilePath = p
		} else {
			receiptPaths = append(receiptPaths, p)
		}
	}

	return profilePath, receiptPaths, nil
}

// logOrphans records files that were written but will never be referenced by
// a record, so an operator can sweep them. No compensating delete happens.
func (s *Service) logOrphans(nationalID, profilePath string, receiptPaths []string) {
	orphans := make([]string, 0, 1+len(receiptPaths))
	if profilePath != "" {
		orphans = append(orphans, profilePath)
	}
	orphans = append(orphans, receiptPaths...)
	if len(orphans) == 0 {
		return
	}
	s.logger.Warn("orphaned files left in content store",
		"national_id", nationalID,
		"paths", orphans,
	)
}

func (s *Service) rejected(reason string) {
	if s.metrics != nil {
		s.metrics.IncrementRejected(reason)
	}
}
