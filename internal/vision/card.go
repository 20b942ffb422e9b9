// Package vision defines the record shape produced by the vision-model
// extraction path and its reconciliation into the canonical contact record.
// The API client, prompting, and JSON-repair fallbacks live with the caller;
// only the data shape and conversion belong here.
package vision

import (
	"regexp"
	"strings"

	"cardscan/internal/contact"
)

// ExtractedData holds the per-field output of a vision-model extraction.
type ExtractedData struct {
	Name            string `json:"name"`
	Title           string `json:"title"`
	Company         string `json:"company"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Website         string `json:"website"`
	Address         string `json:"address"`
	LinkedIn        string `json:"linkedin"`
	AdditionalNotes string `json:"additional_notes"`
}

// Card is one business card as reported by the vision-model path. Its
// confidence is the model's own per-card estimate and is independent of the
// OCR pipeline's confidence signal.
type Card struct {
	CardNumber    int           `json:"card_number"`
	Confidence    float64       `json:"confidence"`
	ExtractedData ExtractedData `json:"extracted_data"`
}

var (
	artifactRe = regexp.MustCompile(`[|_^]`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// Contact converts the vision-model shape into a canonical record. The
// record carries no OCR confidence (the card's own confidence stays with
// the caller), and the LinkedIn/notes fields have no counterpart in the
// canonical shape.
func (c Card) Contact() contact.Record {
	d := c.ExtractedData
	r := contact.Record{
		FullName: CleanText(d.Name),
		Title:    CleanText(d.Title),
		Company:  CleanText(d.Company),
		Website:  CleanURL(d.Website),
		Address:  CleanText(d.Address),
	}
	if email := cleanEmail(d.Email); email != "" {
		r.Emails = []string{email}
	}
	if phone := CleanText(d.Phone); phone != "" {
		r.Phones = []string{phone}
	}
	r.Normalize()
	return r
}

// CleanText collapses whitespace and removes the line-noise characters OCR
// and vision models commonly hallucinate.
func CleanText(text string) string {
	text = artifactRe.ReplaceAllString(text, "")
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}

// CleanURL normalizes a URL-ish value, prefixing https:// when a scheme is
// missing and the value looks like a hostname.
func CleanURL(url string) string {
	url = CleanText(url)
	if url == "" {
		return ""
	}
	lower := strings.ToLower(url)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		if strings.Contains(url, ".") {
			return "https://" + url
		}
	}
	return url
}

func cleanEmail(email string) string {
	if m := contactEmailRe.FindString(email); m != "" {
		return strings.ToLower(m)
	}
	return ""
}

var contactEmailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
