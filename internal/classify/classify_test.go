package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		line     string
		expected Category
	}{
		// Too short or already captured by structured extraction.
		{"", CategoryOther},
		{"J", CategoryOther},
		{"john@acme.com", CategoryOther},
		{"(555) 123-4567", CategoryOther},
		{"www.acme.com", CategoryOther},

		// Title keywords.
		{"CEO", CategoryTitle},
		{"Senior Software Engineer", CategoryTitle},
		{"VP Marketing", CategoryTitle},
		{"Principal Consultant", CategoryTitle},

		// Company indicators win over the name heuristics.
		{"Tech Solutions Inc.", CategoryCompany},
		{"ACME Corporation", CategoryCompany},
		{"Global Enterprises", CategoryCompany},

		// Address patterns.
		{"123 Main St", CategoryAddress},
		{"P.O. Box 42", CategoryAddress},
		{"Anytown, NY 12345", CategoryAddress},

		// Structural name heuristics.
		{"John Smith", CategoryName},
		{"Mary Jane Watson", CategoryName},
		{"Robert Downey Jr.", CategoryName},
		{"maria gonzalez", CategoryName}, // exactly two words

		// Department and location keywords only catch lines the structural
		// name heuristics pass over (digits, five or more words).
		{"R&D Division - Unit 7", CategoryCompany},
		{"Offices across Canada & the UK", CategoryAddress},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.line), "line %q", tt.line)
		})
	}
}

func TestAmbiguousSurnameException(t *testing.T) {
	// A two-word capitalized line whose only title hit is an ambiguous role
	// word is treated as a name (surname collision); adding a qualifier or a
	// second keyword restores the title classification.
	assert.Equal(t, CategoryName, Classify("Peter Manager"))
	assert.Equal(t, CategoryName, Classify("Anna Designer"))
	assert.Equal(t, CategoryTitle, Classify("Senior Manager"))      // two keyword hits
	assert.Equal(t, CategoryTitle, Classify("Lead Game Designer"))  // three words
	assert.Equal(t, CategoryTitle, Classify("sales manager"))       // not capitalized
}

func TestTitleKeywordNeverName(t *testing.T) {
	// A title-keyword line outside the ambiguous-surname exception must not
	// classify as a name, whatever its shape.
	lines := []string{
		"CEO",
		"Chief Executive Officer CEO",
		"Senior Director",
		"Marketing Lead",
		"Founder",
	}
	for _, line := range lines {
		assert.NotEqual(t, CategoryName, Classify(line), "line %q", line)
	}
}

func TestCascadeOrder(t *testing.T) {
	// The published precedence is part of the contract: structured matches
	// first, the surname exception before the title rule, names before
	// department and location keywords.
	var order []string
	for _, rule := range Cascade {
		order = append(order, rule.Name)
	}
	assert.Equal(t, []string{
		"too-short",
		"structured-contact",
		"ambiguous-surname",
		"title-keyword",
		"company-indicator",
		"address-pattern",
		"structural-name",
		"short-leading-capital",
		"department-keyword",
		"location-keyword",
	}, order)
}

func TestFirstMatchWins(t *testing.T) {
	// "Marketing Solutions Inc." matches both the title and company rules;
	// the cascade order decides (title first). The resolver's correction
	// pass, not the classifier, untangles these.
	assert.Equal(t, CategoryTitle, Classify("Marketing Solutions Inc."))
}
