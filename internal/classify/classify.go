// Package classify assigns a semantic category to single lines of
// business-card text. Classification is an ordered cascade of
// pattern-matching rules evaluated in fixed priority order; the first
// matching rule wins. The cascade is exported so its precedence can be
// audited and tested in isolation.
package classify

import (
	"regexp"
	"strings"
	"unicode"
)

// Category is the semantic class assigned to one line of text.
type Category string

const (
	CategoryName    Category = "name"
	CategoryTitle   Category = "title"
	CategoryCompany Category = "company"
	CategoryAddress Category = "address"
	CategoryOther   Category = "other"
)

// Shared extraction patterns. The resolver uses the same expressions for
// structured extraction, so a line the classifier treats as contact info is
// exactly a line the resolver has already captured.
var (
	EmailRe = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.-]+`)

	PhoneRe = regexp.MustCompile(
		`(?:\+?\d{1,3}[-.\s]?)?(?:\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}|\d{3}[-.\s]?\d{3}[-.\s]?\d{4}|\d{10})`)

	WebsiteRe = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?[\w.-]+\.[a-z]{2,}(?:/\S*)?`)

	TitleKeywordsRe = regexp.MustCompile(
		`(?i)\b(?:CEO|CTO|CFO|COO|VP|Vice President|President|Director|Manager|Senior|Lead|Principal|` +
			`Engineer|Developer|Designer|Analyst|Consultant|Specialist|Coordinator|Assistant|` +
			`Executive|Founder|Owner|Partner|Sales|Marketing|HR|Operations|Finance|Legal|Admin)\b`)

	CompanyIndicatorsRe = regexp.MustCompile(
		`(?i)\b(?:Inc|LLC|Corp|Corporation|Company|Co\.|Ltd|Limited|Group|Associates|` +
			`Partners|Solutions|Services|Systems|Technologies|Tech|Consulting|` +
			`International|Global|Enterprises|Holdings)\b`)

	AddressPatternsRe = regexp.MustCompile(
		`(?i)\b(?:\d+\s+\w+\s+(?:St|Street|Ave|Avenue|Rd|Road|Blvd|Boulevard|Dr|Drive|Ln|Lane|` +
			`Ct|Court|Pl|Place|Way|Circle|Pkwy|Parkway)|` +
			`P\.?O\.?\s+Box\s+\d+|` +
			`\d{5}(?:-\d{4})?)\b`)

	DepartmentRe = regexp.MustCompile(`(?i)\b(?:Department|Dept|Division|Unit|Branch)\b`)

	LocationRe = regexp.MustCompile(
		`(?i)\b(?:USA|United States|Canada|United Kingdom|UK|Germany|France|Australia|India|Japan|` +
			`California|New York|Texas|Florida|Illinois|Washington|Massachusetts|Ontario)\b`)
)

// ambiguousTitleWords are role words that double as common surnames; a
// two-word capitalized line whose only title hit is one of these is more
// likely a person's name ("Peter Manager") than a job title.
var ambiguousTitleWords = map[string]struct{}{
	"developer": {},
	"engineer":  {},
	"manager":   {},
	"designer":  {},
}

// nameSuffixes are tokens that mark a line as a person's name.
var nameSuffixes = map[string]struct{}{
	"jr": {}, "sr": {}, "iii": {}, "ii": {}, "phd": {}, "md": {}, "esq": {},
}

// Rule pairs a named predicate with the category it assigns.
type Rule struct {
	Name     string
	Category Category
	Match    func(line string) bool
}

// Cascade is the ordered rule list. Order is significant: the first rule
// whose predicate matches decides the category.
var Cascade = []Rule{
	{"too-short", CategoryOther, tooShort},
	{"structured-contact", CategoryOther, isStructuredContact},
	{"ambiguous-surname", CategoryName, isAmbiguousSurname},
	{"title-keyword", CategoryTitle, hasTitleKeyword},
	{"company-indicator", CategoryCompany, hasCompanyIndicator},
	{"address-pattern", CategoryAddress, hasAddressPattern},
	{"structural-name", CategoryName, isStructuralName},
	{"short-leading-capital", CategoryName, isShortLeadingCapital},
	{"department-keyword", CategoryCompany, hasDepartmentKeyword},
	{"location-keyword", CategoryAddress, hasLocationKeyword},
}

// Classify assigns a category to a single line of text by evaluating the
// cascade in order. Lines that match no rule are CategoryOther.
func Classify(line string) Category {
	for _, rule := range Cascade {
		if rule.Match(line) {
			return rule.Category
		}
	}
	return CategoryOther
}

func tooShort(line string) bool {
	return len(strings.TrimSpace(line)) < 2
}

func isStructuredContact(line string) bool {
	return EmailRe.MatchString(line) || PhoneRe.MatchString(line) || WebsiteRe.MatchString(line)
}

// isAmbiguousSurname matches lines that are exactly two capitalized words
// where the sole title-keyword hit is an ambiguous role word.
func isAmbiguousSurname(line string) bool {
	words := strings.Fields(strings.TrimSpace(line))
	if len(words) != 2 {
		return false
	}
	for _, w := range words {
		if !startsUpper(w) {
			return false
		}
	}
	hits := TitleKeywordsRe.FindAllString(line, -1)
	if len(hits) != 1 {
		return false
	}
	_, ok := ambiguousTitleWords[strings.ToLower(hits[0])]
	return ok
}

func hasTitleKeyword(line string) bool {
	return TitleKeywordsRe.MatchString(line)
}

func hasCompanyIndicator(line string) bool {
	return CompanyIndicatorsRe.MatchString(line)
}

func hasAddressPattern(line string) bool {
	return AddressPatternsRe.MatchString(line)
}

// isStructuralName applies the structural heuristics for person names:
// at most four words, no digits, and either every word capitalized, exactly
// two words, a recognized name suffix, or all-alphabetic words.
func isStructuralName(line string) bool {
	words := strings.Fields(strings.TrimSpace(line))
	if len(words) == 0 || len(words) > 4 {
		return false
	}
	for _, r := range line {
		if unicode.IsDigit(r) {
			return false
		}
	}
	allCapitalized := true
	allAlphabetic := true
	hasSuffix := false
	for _, w := range words {
		if !startsUpper(w) {
			allCapitalized = false
		}
		if !isAlphabetic(w) {
			allAlphabetic = false
		}
		if _, ok := nameSuffixes[strings.ToLower(strings.Trim(w, "."))]; ok {
			hasSuffix = true
		}
	}
	return allCapitalized || len(words) == 2 || hasSuffix || allAlphabetic
}

func isShortLeadingCapital(line string) bool {
	trimmed := strings.TrimSpace(line)
	words := strings.Fields(trimmed)
	if len(words) == 0 || len(words) > 3 {
		return false
	}
	return startsUpper(trimmed)
}

func hasDepartmentKeyword(line string) bool {
	return DepartmentRe.MatchString(line)
}

func hasLocationKeyword(line string) bool {
	return LocationRe.MatchString(line)
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

func isAlphabetic(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return len(s) > 0
}
