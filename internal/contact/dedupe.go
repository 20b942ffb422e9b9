package contact

import (
	"strings"

	"github.com/arbovm/levenshtein"
)

// nameDistanceRatio is the maximum Levenshtein distance, relative to the
// longer name, at which two names are still considered the same person.
const nameDistanceRatio = 0.2

// MarkDuplicates flags records that likely describe the same person. Two
// records collide when they share a normalized email, a cleaned phone
// number, or carry names within a small edit distance of each other. The
// returned slice is index-aligned with records; both members of a colliding
// pair are flagged.
func MarkDuplicates(records []Record) []bool {
	flags := make([]bool, len(records))
	for i := range records {
		for j := i + 1; j < len(records); j++ {
			if recordsCollide(&records[i], &records[j]) {
				flags[i] = true
				flags[j] = true
			}
		}
	}
	return flags
}

func recordsCollide(a, b *Record) bool {
	for _, ea := range a.Emails {
		for _, eb := range b.Emails {
			if ea == eb {
				return true
			}
		}
	}
	for _, pa := range a.Phones {
		for _, pb := range b.Phones {
			if pa == pb {
				return true
			}
		}
	}
	return namesCollide(a.FullName, b.FullName)
}

func namesCollide(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	dist := levenshtein.Distance(a, b)
	return float64(dist) <= nameDistanceRatio*float64(longest)
}
