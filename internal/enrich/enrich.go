// Package enrich validates and normalizes resolved contact records using
// purely local heuristics: RFC-checked emails, title-cased names, and a
// company name inferred from an email or website domain when the card text
// yielded none. No network lookups are performed.
package enrich

import (
	"net/mail"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cardscan/internal/contact"
)

var (
	titleCaser   = cases.Title(language.English)
	genericTLDRe = regexp.MustCompile(`(?i)\.(co|com|net|org)$`)
	schemeRe     = regexp.MustCompile(`(?i)^https?://`)
)

// Enrich returns a copy of the record with validated emails, a cleaned-up
// name, and a best-effort company inference. The input record is not
// modified.
func Enrich(r contact.Record) contact.Record {
	out := r
	out.Emails = validEmails(r.Emails)
	out.FullName = normalizeName(r.FullName)
	if out.Company == "" {
		out.Company = inferCompany(out.Emails, out.Website)
	}
	return out
}

// validEmails drops entries that do not parse as RFC 5322 addresses,
// preserving order.
func validEmails(emails []string) []string {
	valid := make([]string, 0, len(emails))
	for _, e := range emails {
		addr, err := mail.ParseAddress(e)
		if err != nil {
			continue
		}
		valid = append(valid, strings.ToLower(addr.Address))
	}
	return contact.DedupeStrings(valid)
}

// normalizeName title-cases names that arrived in a single case (ALL CAPS
// or all lower); mixed-case names are assumed intentional and left alone.
func normalizeName(name string) string {
	if name == "" {
		return ""
	}
	if name == strings.ToUpper(name) || name == strings.ToLower(name) {
		return titleCaser.String(strings.ToLower(name))
	}
	return name
}

// inferCompany derives a company name from the first email's domain, or
// from the website host when no email is available.
func inferCompany(emails []string, website string) string {
	domain := ""
	if len(emails) > 0 {
		if idx := strings.LastIndex(emails[0], "@"); idx >= 0 {
			domain = emails[0][idx+1:]
		}
	} else if website != "" {
		domain = hostOf(website)
	}
	if domain == "" {
		return ""
	}
	name := genericTLDRe.ReplaceAllString(domain, "")
	// Strip any remaining TLD-looking tail (e.g. ".io", ".co.uk" leftovers).
	if idx := strings.Index(name, "."); idx > 0 {
		name = name[:idx]
	}
	if name == "" {
		return ""
	}
	return titleCaser.String(name)
}

func hostOf(website string) string {
	host := schemeRe.ReplaceAllString(strings.TrimSpace(website), "")
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	if idx := strings.IndexAny(host, "/?#"); idx >= 0 {
		host = host[:idx]
	}
	return host
}
