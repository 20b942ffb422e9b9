package vision

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardJSONShape(t *testing.T) {
	payload := `{
		"card_number": 2,
		"confidence": 0.91,
		"extracted_data": {
			"name": "Jane  Doe",
			"title": "CTO",
			"company": "Acme Labs",
			"email": "JANE@ACME.COM",
			"phone": "(555) 987-6543",
			"website": "acme.example",
			"address": "1 Infinite Loop",
			"linkedin": "linkedin.com/in/janedoe",
			"additional_notes": "met at expo"
		}
	}`
	var card Card
	require.NoError(t, json.Unmarshal([]byte(payload), &card))
	assert.Equal(t, 2, card.CardNumber)
	assert.InDelta(t, 0.91, card.Confidence, 1e-9)
	assert.Equal(t, "met at expo", card.ExtractedData.AdditionalNotes)
}

func TestCardContact(t *testing.T) {
	card := Card{
		CardNumber: 1,
		Confidence: 0.8,
		ExtractedData: ExtractedData{
			Name:    "Jane |Doe_",
			Title:   "  Chief   Technology Officer ",
			Company: "Acme Labs",
			Email:   "Contact: JANE@ACME.COM (work)",
			Phone:   "(555) 987-6543",
			Website: "acme.example",
			Address: "1 Infinite Loop",
		},
	}
	r := card.Contact()
	assert.Equal(t, "Jane Doe", r.FullName)
	assert.Equal(t, "Chief Technology Officer", r.Title)
	assert.Equal(t, "Acme Labs", r.Company)
	assert.Equal(t, []string{"jane@acme.com"}, r.Emails)
	assert.Equal(t, []string{"5559876543"}, r.Phones)
	assert.Equal(t, "https://acme.example", r.Website)
	assert.Equal(t, "1 Infinite Loop", r.Address)
	assert.Nil(t, r.OCRConfidence)
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"  a   b  ", "a b"},
		{"no|ise_under^score", "noiseunderscore"},
		{"tabs\tand\nnewlines", "tabs and newlines"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, CleanText(tt.input), "input %q", tt.input)
	}
}

func TestCleanURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"acme.example", "https://acme.example"},
		{"https://acme.example", "https://acme.example"},
		{"HTTP://acme.example", "HTTP://acme.example"},
		{"not a url", "not a url"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, CleanURL(tt.input), "input %q", tt.input)
	}
}

func TestContactDropsUnparseableEmail(t *testing.T) {
	card := Card{ExtractedData: ExtractedData{Email: "no email here"}}
	assert.Empty(t, card.Contact().Emails)
}
