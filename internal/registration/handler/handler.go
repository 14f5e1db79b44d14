// Package handler is the thin HTTP layer over the intake pipeline. It
// decodes the multipart submission, delegates to the service, and renders
// the {success, data, error} envelope the form expects.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kaminfo102/form-insert-student/internal/platform/middleware"
	"github.com/kaminfo102/form-insert-student/internal/registration/models"
	"github.com/kaminfo102/form-insert-student/pkg/domainerrors"
)

// Service defines the pipeline operations the handler depends on.
type Service interface {
	Register(ctx context.Context, sub models.Submission) (models.Registration, error)
	Get(ctx context.Context, nationalID string) (models.Registration, error)
}

// Handler handles the registration endpoints.
type Handler struct {
	logger         *slog.Logger
	svc            Service
	maxUploadBytes int64
}

// New creates a registration Handler. maxUploadBytes bounds the whole
// multipart body.
func New(svc Service, logger *slog.Logger, maxUploadBytes int64) *Handler {
	return &Handler{
		logger:         logger,
		svc:            svc,
		maxUploadBytes: maxUploadBytes,
	}
}

// Register registers the routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/register", h.handleRegister)
	r.Get("/api/registrations/{nationalId}", h.handleGet)
}

// envelope is the response shape for every registration endpoint.
type envelope struct {
	Success bool                 `json:"success"`
	Data    *models.Registration `json:"data,omitempty"`
	Error   string               `json:"error,omitempty"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.logger.WarnContext(ctx, "invalid multipart submission",
			"request_id", requestID,
			"error", err.Error(),
		)
		h.writeFailure(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid multipart form"))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	sub, err := decodeSubmission(r)
	if err != nil {
		h.logger.WarnContext(ctx, "unreadable attachment in submission",
			"request_id", requestID,
			"error", err.Error(),
		)
		h.writeFailure(w, domainerrors.New(domainerrors.CodeBadRequest, "could not read uploaded file"))
		return
	}

	created, err := h.svc.Register(ctx, sub)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{Success: true, Data: &created})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	nationalID := chi.URLParam(r, "nationalId")
	reg, err := h.svc.Get(r.Context(), nationalID)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope{Success: true, Data: &reg})
}

// decodeSubmission maps the parsed multipart form onto a Submission,
// preserving receipt order.
func decodeSubmission(r *http.Request) (models.Submission, error) {
	sub := models.Submission{
		FullName:        r.FormValue("fullName"),
		NationalID:      r.FormValue("nationalId"),
		BirthDate:       r.FormValue("birthDate"),
		City:            r.FormValue("city"),
		Level:           r.FormValue("level"),
		MobileNumber:    r.FormValue("mobileNumber"),
		EmergencyNumber: r.FormValue("emergencyNumber"),
	}

	if r.MultipartForm == nil {
		return sub, nil
	}

	if headers := r.MultipartForm.File["profileImage"]; len(headers) > 0 {
		att, err := readAttachment(headers[0])
		if err != nil {
			return models.Submission{}, err
		}
		sub.ProfileImage = &att
	}

	for _, fh := range r.MultipartForm.File["receipts"] {
		att, err := readAttachment(fh)
		if err != nil {
			return models.Submission{}, err
		}
		sub.Receipts = append(sub.Receipts, att)
	}

	return sub, nil
}

func readAttachment(fh *multipart.FileHeader) (models.Attachment, error) {
	f, err := fh.Open()
	if err != nil {
		return models.Attachment{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return models.Attachment{}, err
	}
	return models.Attachment{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// writeFailure translates a pipeline error into the failure envelope. The
// message is already safe to show; codes pick the status.
func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	status := domainerrors.ToHTTPStatus(domainerrors.CodeOf(err))
	msg := err.Error()
	var de *domainerrors.Error
	if !errors.As(err, &de) {
		msg = "internal error"
	}
	h.writeJSON(w, status, envelope{Success: false, Error: msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "error", err.Error())
	}
}
