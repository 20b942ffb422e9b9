// Package contact defines the canonical contact record produced by the
// extraction pipeline and the normalization rules that keep it exportable.
package contact

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	phoneCleanRe = regexp.MustCompile(`[^0-9+]`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// Record is a structured representation of a business-card contact.
// Scalar fields use the empty string for "not found"; list fields preserve
// first-seen order and contain no duplicates. A Record with every field
// empty is a valid low-information result, not an error.
type Record struct {
	FullName string   `json:"full_name,omitempty"`
	Title    string   `json:"title,omitempty"`
	Company  string   `json:"company,omitempty"`
	Emails   []string `json:"emails"`
	Phones   []string `json:"phones"`
	Website  string   `json:"website,omitempty"`
	Address  string   `json:"address,omitempty"`

	// OCRConfidence is the provenance signal from the OCR stage, clamped to
	// [0,1]. It is nil when the record came from a source that carries its
	// own confidence (e.g. a vision-model extraction).
	OCRConfidence *float64 `json:"ocr_confidence,omitempty"`
}

// CleanName collapses whitespace and validates the name. Returns "" when the
// result is shorter than 2 or longer than 100 characters, or contains no
// alphabetic character.
func CleanName(name string) string {
	cleaned := strings.TrimSpace(spaceRe.ReplaceAllString(name, " "))
	if len(cleaned) < 2 || len(cleaned) > 100 {
		return ""
	}
	hasAlpha := false
	for _, r := range cleaned {
		if unicode.IsLetter(r) {
			hasAlpha = true
			break
		}
	}
	if !hasAlpha {
		return ""
	}
	return cleaned
}

// CleanPhone strips everything but digits and '+' from a display-formatted
// phone number. Returns "" when fewer than 10 digits remain.
func CleanPhone(phone string) string {
	cleaned := phoneCleanRe.ReplaceAllString(phone, "")
	digits := 0
	for _, r := range cleaned {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < 10 {
		return ""
	}
	return cleaned
}

// DedupeStrings returns seq without duplicates, preserving first-seen order.
func DedupeStrings(seq []string) []string {
	seen := make(map[string]struct{}, len(seq))
	out := make([]string, 0, len(seq))
	for _, s := range seq {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Normalize applies the record invariants in place: the name is cleaned or
// dropped, emails are lower-cased and deduplicated, phones are reduced to
// their cleaned form with invalid entries dropped silently, and the OCR
// confidence is clamped to [0,1].
func (r *Record) Normalize() {
	r.FullName = CleanName(r.FullName)
	r.Title = strings.TrimSpace(r.Title)
	r.Company = strings.TrimSpace(r.Company)
	r.Website = strings.TrimSpace(r.Website)

	emails := make([]string, 0, len(r.Emails))
	for _, e := range r.Emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if strings.Contains(e, "@") {
			emails = append(emails, e)
		}
	}
	r.Emails = DedupeStrings(emails)

	phones := make([]string, 0, len(r.Phones))
	for _, p := range r.Phones {
		if cleaned := CleanPhone(p); cleaned != "" {
			phones = append(phones, cleaned)
		}
	}
	r.Phones = DedupeStrings(phones)

	if r.OCRConfidence != nil {
		c := *r.OCRConfidence
		if c < 0 {
			c = 0
		} else if c > 1 {
			c = 1
		}
		r.OCRConfidence = &c
	}
}

// IsEmpty reports whether the record carries no extracted information at all
// (confidence alone does not count).
func (r *Record) IsEmpty() bool {
	return r.FullName == "" && r.Title == "" && r.Company == "" &&
		len(r.Emails) == 0 && len(r.Phones) == 0 &&
		r.Website == "" && r.Address == ""
}

// FlatColumns is the fixed column order used by the flat-map export form.
var FlatColumns = []string{
	"full_name", "title", "company", "emails", "phones",
	"website", "address", "ocr_confidence",
}

// FlatMap returns the record as a flat string-keyed mapping: list fields are
// joined with "; ", absent values become empty strings, and the confidence
// is formatted with three decimals. This is the shape the CSV/Excel writers
// consume.
func (r *Record) FlatMap() map[string]string {
	m := map[string]string{
		"full_name": r.FullName,
		"title":     r.Title,
		"company":   r.Company,
		"emails":    strings.Join(r.Emails, "; "),
		"phones":    strings.Join(r.Phones, "; "),
		"website":   r.Website,
		"address":   r.Address,
	}
	if r.OCRConfidence != nil {
		m["ocr_confidence"] = fmt.Sprintf("%.3f", *r.OCRConfidence)
	} else {
		m["ocr_confidence"] = ""
	}
	return m
}
