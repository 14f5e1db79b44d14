package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kaminfo102/form-insert-student/internal/registration/filestore"
	"github.com/kaminfo102/form-insert-student/internal/registration/models"
	"github.com/kaminfo102/form-insert-student/internal/registration/service"
	"github.com/kaminfo102/form-insert-student/internal/registration/store"
)

type filePart struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func newRegistrationRouter(t *testing.T) http.Handler {
	t.Helper()
	st := store.NewInMemoryStore()
	files := filestore.New(filepath.Join(t.TempDir(), "uploads"), "/uploads")
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	svc := service.New(st, files, logger, nil)

	h := New(svc, logger, 32<<20)
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func multipartBody(t *testing.T, fields map[string]string, parts []filePart) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	for _, p := range parts {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, p.field, p.filename))
		hdr.Set("Content-Type", p.contentType)
		pw, err := w.CreatePart(hdr)
		if err != nil {
			t.Fatalf("create part %s: %v", p.filename, err)
		}
		if _, err := pw.Write(p.data); err != nil {
			t.Fatalf("write part %s: %v", p.filename, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &body, w.FormDataContentType()
}

func smallJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 40, 40)), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func validFields() map[string]string {
	return map[string]string{
		"fullName":     "Ali Ahmadi",
		"nationalId":   "1234567890",
		"birthDate":    "2000-01-01T00:00:00.000Z",
		"city":         "سنندج",
		"level":        "1",
		"mobileNumber": "09123456789",
	}
}

func postRegister(t *testing.T, router http.Handler, fields map[string]string, parts []filePart) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, fields, parts)
	req := httptest.NewRequest(http.MethodPost, "/api/register", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, r io.Reader) (bool, *models.Registration, string) {
	t.Helper()
	var resp struct {
		Success bool                 `json:"success"`
		Data    *models.Registration `json:"data"`
		Error   string               `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.Success, resp.Data, resp.Error
}

func TestRegisterEndToEnd(t *testing.T) {
	router := newRegistrationRouter(t)

	rec := postRegister(t, router, validFields(), []filePart{
		{field: "profileImage", filename: "me.jpg", contentType: "image/jpeg", data: smallJPEG(t)},
		{field: "receipts", filename: "fee.jpg", contentType: "image/jpeg", data: smallJPEG(t)},
		{field: "receipts", filename: "fee.pdf", contentType: "application/pdf", data: []byte("%PDF")},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	success, data, errMsg := decodeEnvelope(t, rec.Body)
	if !success || errMsg != "" {
		t.Fatalf("expected success envelope, got error %q", errMsg)
	}
	if data == nil || data.NationalID != "1234567890" {
		t.Fatalf("expected created record in response, got %+v", data)
	}
	if data.ProfileImage == "" || len(data.Receipts) != 2 {
		t.Fatalf("expected profile path and two receipts, got %+v", data)
	}

	// The record is readable back through the fetch endpoint.
	getReq := httptest.NewRequest(http.MethodGet, "/api/registrations/1234567890", nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching registration, got %d", getRec.Code)
	}
}

func TestRegisterMissingFields(t *testing.T) {
	router := newRegistrationRouter(t)

	fields := validFields()
	delete(fields, "nationalId")
	rec := postRegister(t, router, fields, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	success, _, errMsg := decodeEnvelope(t, rec.Body)
	if success {
		t.Fatal("expected failure envelope")
	}
	if !bytes.Contains([]byte(errMsg), []byte("nationalId")) {
		t.Fatalf("expected error to name nationalId, got %q", errMsg)
	}
}

func TestRegisterDuplicateReturnsClientError(t *testing.T) {
	router := newRegistrationRouter(t)

	if rec := postRegister(t, router, validFields(), nil); rec.Code != http.StatusOK {
		t.Fatalf("first submission failed: %d", rec.Code)
	}
	rec := postRegister(t, router, validFields(), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate, got %d", rec.Code)
	}
	success, _, errMsg := decodeEnvelope(t, rec.Body)
	if success || errMsg != service.MsgDuplicateIdentity {
		t.Fatalf("expected duplicate identity error, got %q", errMsg)
	}
}

func TestRegisterRejectsNonMultipart(t *testing.T) {
	router := newRegistrationRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewBufferString(`{"fullName":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-multipart body, got %d", rec.Code)
	}
}

func TestGetUnknownRegistration(t *testing.T) {
	router := newRegistrationRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/registrations/0000000000", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
