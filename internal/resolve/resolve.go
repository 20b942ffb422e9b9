// Package resolve turns raw OCR text into a contact.Record. It extracts
// structured matches (emails, phones, a website) first, classifies the
// remaining lines, assembles a candidate record, then runs a deterministic
// correction pass that fixes the common misclassifications a rule cascade
// produces (swapped title/company, a name hiding in another field, leftover
// department or location text).
package resolve

import (
	"regexp"
	"strings"
	"unicode"

	"cardscan/internal/classify"
	"cardscan/internal/contact"
)

var (
	lineSplitRe = regexp.MustCompile(`[\r\n]+`)
	zipRe       = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)
	streetRe    = regexp.MustCompile(
		`(?i)\b(?:St|Street|Ave|Avenue|Rd|Road|Blvd|Boulevard|Dr|Drive|Ln|Lane|Ct|Court|Pl|Place|Way|Circle|Pkwy|Parkway)\b`)
	leadingNumberRe = regexp.MustCompile(`^\d+\s+\w+`)
)

// Resolve parses raw card text into a normalized contact record. The
// ocrConfidence pointer is passed through unchanged (nil for sources that
// carry their own confidence). Resolve is a pure function: the same input
// always yields the same record.
func Resolve(rawText string, ocrConfidence *float64) contact.Record {
	emails := extractEmails(rawText)
	phones := extractPhones(rawText)
	website := extractWebsite(rawText, emails)

	lines := splitLines(rawText)
	cleaned := removeStructuredLines(lines, emails, phones, website)

	fields := assembleFields(cleaned)
	fields.correct(emails, phones)
	if fields.address == "" {
		fields.address = recoverAddress(fields.unused)
	}

	record := contact.Record{
		FullName:      fields.name,
		Title:         fields.title,
		Company:       fields.company,
		Emails:        emails,
		Phones:        phones,
		Website:       website,
		Address:       fields.address,
		OCRConfidence: ocrConfidence,
	}
	record.Normalize()
	return record
}

func extractEmails(rawText string) []string {
	matches := classify.EmailRe.FindAllString(rawText, -1)
	lowered := make([]string, 0, len(matches))
	for _, m := range matches {
		lowered = append(lowered, strings.ToLower(m))
	}
	return contact.DedupeStrings(lowered)
}

// extractPhones keeps matches in their original display format; entries
// whose cleaned form has fewer than 10 digits are dropped silently.
func extractPhones(rawText string) []string {
	matches := classify.PhoneRe.FindAllString(rawText, -1)
	valid := make([]string, 0, len(matches))
	for _, m := range matches {
		if contact.CleanPhone(m) != "" {
			valid = append(valid, m)
		}
	}
	return valid
}

// extractWebsite returns the first URL-like match that is not contained
// inside any captured email address.
func extractWebsite(rawText string, emails []string) string {
	for _, m := range classify.WebsiteRe.FindAllString(rawText, -1) {
		contained := false
		for _, email := range emails {
			if strings.Contains(email, strings.ToLower(m)) {
				contained = true
				break
			}
		}
		if !contained {
			return m
		}
	}
	return ""
}

func splitLines(rawText string) []string {
	var out []string
	for _, l := range lineSplitRe.Split(rawText, -1) {
		if trimmed := strings.TrimSpace(l); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// removeStructuredLines drops lines that are exact matches of an extracted
// email, phone, or website so they are not reclassified as prose.
func removeStructuredLines(lines, emails, phones []string, website string) []string {
	structured := make(map[string]struct{}, len(emails)+len(phones)+1)
	for _, e := range emails {
		structured[e] = struct{}{}
	}
	for _, p := range phones {
		structured[p] = struct{}{}
	}
	if website != "" {
		structured[website] = struct{}{}
	}
	var out []string
	for _, l := range lines {
		if _, ok := structured[l]; ok {
			continue
		}
		if _, ok := structured[strings.ToLower(l)]; ok {
			continue
		}
		out = append(out, l)
	}
	return out
}

// fieldSet is the resolver's working state for one card.
type fieldSet struct {
	name    string
	title   string
	company string
	address string

	addressLines []string
	unused       []string
}

// assembleFields classifies the cleaned lines, picks the first candidate per
// field, and applies the positional fallbacks for sparse classifications.
func assembleFields(cleaned []string) *fieldSet {
	buckets := make(map[classify.Category][]string)
	for _, line := range cleaned {
		cat := classify.Classify(line)
		buckets[cat] = append(buckets[cat], line)
	}

	fs := &fieldSet{}
	if names := buckets[classify.CategoryName]; len(names) > 0 {
		fs.name = names[0]
	}
	if titles := buckets[classify.CategoryTitle]; len(titles) > 0 {
		fs.title = titles[0]
	}
	if companies := buckets[classify.CategoryCompany]; len(companies) > 0 {
		fs.company = companies[0]
	}

	// Address is every address-tagged line plus any other-tagged line that
	// still matches the address pattern.
	fs.addressLines = append(fs.addressLines, buckets[classify.CategoryAddress]...)
	for _, line := range buckets[classify.CategoryOther] {
		if classify.AddressPatternsRe.MatchString(line) {
			fs.addressLines = append(fs.addressLines, line)
		}
	}
	fs.address = strings.Join(fs.addressLines, "\n")

	fs.unused = fs.unusedLines(cleaned)

	// Positional fallback: an unset title takes the first unused line when
	// at least two remain; an unset company does the same at three.
	if fs.title == "" && len(fs.unused) >= 2 {
		fs.title = fs.unused[0]
		fs.unused = fs.unusedLines(cleaned)
	}
	if fs.company == "" && len(fs.unused) >= 3 {
		fs.company = fs.unused[0]
		fs.unused = fs.unusedLines(cleaned)
	}
	return fs
}

// unusedLines returns the cleaned lines not currently assigned to any field
// and not part of the address.
func (fs *fieldSet) unusedLines(cleaned []string) []string {
	used := map[string]struct{}{}
	for _, v := range []string{fs.name, fs.title, fs.company} {
		if v != "" {
			used[v] = struct{}{}
		}
	}
	for _, l := range fs.addressLines {
		used[l] = struct{}{}
	}
	var out []string
	for _, l := range cleaned {
		if _, ok := used[l]; !ok {
			out = append(out, l)
		}
	}
	return out
}

// correct runs the validation/correction pass over the assembled fields.
func (fs *fieldSet) correct(emails, phones []string) {
	fs.promoteName(emails, phones)
	fs.swapTitleCompany()
	fs.splitTitleOnComma()
	fs.stripCompanyPrefix()
	fs.revalidateAddress()
}

// promoteName rescues a person's name that landed in another field: when
// contact info exists but no name was found, a short, uppercase-leading,
// digit-free value that matches neither the company nor the title pattern
// is promoted to the name and cleared from its original field.
func (fs *fieldSet) promoteName(emails, phones []string) {
	if fs.name != "" || (len(emails) == 0 && len(phones) == 0) {
		return
	}
	candidates := []*string{&fs.title, &fs.company}
	for _, field := range candidates {
		v := *field
		if !looksLikeName(v) {
			continue
		}
		fs.name = v
		*field = ""
		return
	}
}

func looksLikeName(v string) bool {
	if len(v) <= 3 {
		return false
	}
	words := strings.Fields(v)
	if len(words) == 0 || len(words) > 3 {
		return false
	}
	first, _ := firstRune(v)
	if !unicode.IsUpper(first) {
		return false
	}
	for _, r := range v {
		if unicode.IsDigit(r) {
			return false
		}
	}
	return !classify.CompanyIndicatorsRe.MatchString(v) && !classify.TitleKeywordsRe.MatchString(v)
}

// swapTitleCompany fixes the common swap where a company name was tagged as
// the title.
func (fs *fieldSet) swapTitleCompany() {
	if fs.title == "" {
		return
	}
	if classify.CompanyIndicatorsRe.MatchString(fs.title) && !classify.CompanyIndicatorsRe.MatchString(fs.company) {
		fs.title, fs.company = fs.company, fs.title
	}
}

// splitTitleOnComma handles "Title, Company" lines that OCR merged into one.
func (fs *fieldSet) splitTitleOnComma() {
	if fs.company != "" || !strings.Contains(fs.title, ",") {
		return
	}
	parts := strings.SplitN(fs.title, ",", 2)
	first := strings.TrimSpace(parts[0])
	second := strings.TrimSpace(parts[1])
	if classify.CompanyIndicatorsRe.MatchString(second) || classify.TitleKeywordsRe.MatchString(first) {
		fs.title = first
		fs.company = second
	}
}

func (fs *fieldSet) stripCompanyPrefix() {
	for _, prefix := range []string{"at ", "@ "} {
		if strings.HasPrefix(strings.ToLower(fs.company), prefix) {
			fs.company = strings.TrimSpace(fs.company[len(prefix):])
			return
		}
	}
}

// revalidateAddress reclassifies each address line individually; lines that
// now look like a company or title are promoted to that field when it is
// still unset, and everything that is neither address nor other is dropped.
func (fs *fieldSet) revalidateAddress() {
	if len(fs.addressLines) == 0 {
		return
	}
	var kept []string
	for _, line := range fs.addressLines {
		switch classify.Classify(line) {
		case classify.CategoryAddress, classify.CategoryOther:
			kept = append(kept, line)
		case classify.CategoryCompany:
			if fs.company == "" {
				fs.company = line
			}
		case classify.CategoryTitle:
			if fs.title == "" {
				fs.title = line
			}
		case classify.CategoryName:
			// A name-looking address line is noise at this point; drop it.
		}
	}
	fs.addressLines = kept
	fs.address = strings.Join(kept, "\n")
}

// recoverAddress re-scans the unused lines for street suffixes, ZIP codes,
// or a leading house-number pattern when no address was assigned.
func recoverAddress(unused []string) string {
	var matches []string
	for _, line := range unused {
		if streetRe.MatchString(line) || zipRe.MatchString(line) || leadingNumberRe.MatchString(line) {
			matches = append(matches, line)
		}
	}
	return strings.Join(matches, "\n")
}

func firstRune(s string) (rune, bool) {
	for _, r := range s {
		return r, true
	}
	return 0, false
}
