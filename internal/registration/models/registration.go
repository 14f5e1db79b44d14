package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Registration is the persisted outcome of a successful submission. Records
// are created exactly once and never updated or deleted.
type Registration struct {
	ID              uuid.UUID `json:"id"`
	FullName        string    `json:"fullName"`
	NationalID      string    `json:"nationalId"`
	BirthDate       time.Time `json:"birthDate"`
	City            string    `json:"city"`
	Level           string    `json:"level"`
	MobileNumber    string    `json:"mobileNumber"`
	EmergencyNumber string    `json:"emergencyNumber"`
	ProfileImage    string    `json:"profileImage"`
	Receipts        []string  `json:"receipts"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Attachment is one binary part of an incoming submission.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// IsImage reports whether the attachment declared an image content type.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(a.ContentType), "image/")
}

// Extension returns the lowercase filename extension without the dot.
func (a Attachment) Extension() string {
	idx := strings.LastIndexByte(a.Filename, '.')
	if idx < 0 || idx == len(a.Filename)-1 {
		return ""
	}
	return strings.ToLower(a.Filename[idx+1:])
}

// Submission carries the decoded multipart form: raw text fields plus the
// optional profile image and the ordered receipt attachments.
type Submission struct {
	FullName        string
	NationalID      string
	BirthDate       string
	City            string
	Level           string
	MobileNumber    string
	EmergencyNumber string
	ProfileImage    *Attachment
	Receipts        []Attachment
}

// Compact drops empty attachments. A zero-length upload is treated the same
// as no upload at all; receipt order is preserved for the rest.
func (s Submission) Compact() Submission {
	if s.ProfileImage != nil && len(s.ProfileImage.Data) == 0 {
		s.ProfileImage = nil
	}
	if len(s.Receipts) > 0 {
		kept := make([]Attachment, 0, len(s.Receipts))
		for _, att := range s.Receipts {
			if len(att.Data) == 0 {
				continue
			}
			kept = append(kept, att)
		}
		s.Receipts = kept
	}
	return s
}

// ParseBirthDate interprets the submitted birth date text. The form sends a
// full RFC 3339 timestamp; a bare date is accepted as well.
func (s Submission) ParseBirthDate() (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s.BirthDate); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s.BirthDate)
}
