// Package validator checks a decoded submission before any file or database
// I/O happens. It has no dependencies on storage; the duplicate-identity
// check lives in the service where the store is available.
package validator

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kaminfo102/form-insert-student/internal/registration/models"
)

// Cities is the fixed set of allowed city names from the enrollment form.
var Cities = []string{
	"سنندج",
	"سقز",
	"مریوان",
	"بانه",
	"قروه",
	"کامیاران",
	"بیجار",
	"دیواندره",
	"دهگلان",
	"سروآباد",
}

// AllowedReceiptExtensions lists the document types accepted as receipts.
// Image receipts bypass this check and go through normalization instead.
var AllowedReceiptExtensions = map[string]bool{
	"pdf":  true,
	"doc":  true,
	"docx": true,
	"xls":  true,
	"xlsx": true,
}

var (
	nationalIDPattern = regexp.MustCompile(`^\d{10}$`)
	mobilePattern     = regexp.MustCompile(`^09\d{9}$`)
	emergencyPattern  = regexp.MustCompile(`^\d{11}$`)
)

// Violation names the offending field and carries a message suitable for
// showing to the submitter verbatim.
type Violation struct {
	Field   string
	Message string
}

// Join renders a violation set as a single response message.
func Join(violations []Violation) string {
	parts := make([]string, 0, len(violations))
	for _, v := range violations {
		parts = append(parts, v.Message)
	}
	return strings.Join(parts, "; ")
}

// Validate runs every local check against the submission and returns the
// full violation set; an empty result means the pipeline may proceed.
func Validate(sub models.Submission) []Violation {
	var violations []Violation

	missing := missingFields(sub)
	if len(missing) > 0 {
		violations = append(violations, Violation{
			Field:   "required",
			Message: "missing required fields: " + strings.Join(missing, ", "),
		})
	}

	if sub.FullName != "" && utf8.RuneCountInString(sub.FullName) < 3 {
		violations = append(violations, Violation{
			Field:   "fullName",
			Message: "fullName must be at least 3 characters",
		})
	}
	if sub.NationalID != "" && !nationalIDPattern.MatchString(sub.NationalID) {
		violations = append(violations, Violation{
			Field:   "nationalId",
			Message: "nationalId must be exactly 10 digits",
		})
	}
	if sub.City != "" && !validCity(sub.City) {
		violations = append(violations, Violation{
			Field:   "city",
			Message: "city is not in the list of allowed cities",
		})
	}
	if sub.MobileNumber != "" && !mobilePattern.MatchString(sub.MobileNumber) {
		violations = append(violations, Violation{
			Field:   "mobileNumber",
			Message: "mobileNumber is not a valid mobile number",
		})
	}
	if sub.EmergencyNumber != "" && !emergencyPattern.MatchString(sub.EmergencyNumber) {
		violations = append(violations, Violation{
			Field:   "emergencyNumber",
			Message: "emergencyNumber is not a valid phone number",
		})
	}

	violations = append(violations, receiptViolations(sub.Receipts)...)

	return violations
}

// missingFields returns required field names absent from the submission, in
// the form's field order.
func missingFields(sub models.Submission) []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"fullName", sub.FullName},
		{"nationalId", sub.NationalID},
		{"birthDate", sub.BirthDate},
		{"city", sub.City},
		{"mobileNumber", sub.MobileNumber},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func validCity(city string) bool {
	for _, c := range Cities {
		if c == city {
			return true
		}
	}
	return false
}

// receiptViolations rejects non-image receipts whose extension falls outside
// the allow-list. Positions are 1-based in messages.
func receiptViolations(receipts []models.Attachment) []Violation {
	var violations []Violation
	for i, att := range receipts {
		if att.IsImage() {
			continue
		}
		ext := att.Extension()
		if !AllowedReceiptExtensions[ext] {
			violations = append(violations, Violation{
				Field:   "receipts",
				Message: fmt.Sprintf("receipt %d has a disallowed file type %q", i+1, ext),
			})
		}
	}
	return violations
}
