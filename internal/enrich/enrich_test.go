package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cardscan/internal/contact"
)

func TestEnrichDropsInvalidEmails(t *testing.T) {
	r := contact.Record{Emails: []string{"valid@example.com", "not-an-email", "also@bad@x", "second@example.org"}}
	out := Enrich(r)
	assert.Equal(t, []string{"valid@example.com", "second@example.org"}, out.Emails)
}

func TestEnrichNameCasing(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"JOHN SMITH", "John Smith"},
		{"john smith", "John Smith"},
		{"John McAllister", "John McAllister"}, // mixed case untouched
		{"", ""},
	}
	for _, tt := range tests {
		out := Enrich(contact.Record{FullName: tt.input})
		assert.Equal(t, tt.expected, out.FullName, "input %q", tt.input)
	}
}

func TestEnrichInfersCompanyFromEmailDomain(t *testing.T) {
	r := contact.Record{Emails: []string{"jane@techsolutions.com"}}
	out := Enrich(r)
	assert.Equal(t, "Techsolutions", out.Company)
}

func TestEnrichInfersCompanyFromWebsite(t *testing.T) {
	r := contact.Record{Website: "https://www.acme.com/about"}
	out := Enrich(r)
	assert.Equal(t, "Acme", out.Company)
}

func TestEnrichKeepsExistingCompany(t *testing.T) {
	r := contact.Record{
		Company: "Tech Solutions Inc.",
		Emails:  []string{"jane@othercorp.com"},
	}
	out := Enrich(r)
	assert.Equal(t, "Tech Solutions Inc.", out.Company)
}

func TestEnrichDoesNotMutateInput(t *testing.T) {
	r := contact.Record{FullName: "JOHN SMITH", Emails: []string{"a@b.com"}}
	_ = Enrich(r)
	assert.Equal(t, "JOHN SMITH", r.FullName)
}
