package ocr

import (
	"strings"
	"unicode"
)

// Result is one recognition outcome: the raw text and a heuristic confidence
// in [0, 1].
type Result struct {
	Text       string
	Confidence float64
}

// Score rates OCR output by plausibility for a business card: enough text,
// a mix of letters, digits, and contact punctuation, and not too much junk.
// Empty text scores 0, very short text a flat 0.2.
func Score(text string) float64 {
	clean := []rune(strings.TrimSpace(text))
	if len(clean) == 0 {
		return 0.0
	}
	if len(clean) < 5 {
		return 0.2
	}

	confidence := 0.5
	if n := len(clean); n >= 10 && n <= 200 {
		confidence += 0.2
	}

	var hasLetter, hasDigit, hasSymbol bool
	special := 0
	for _, r := range clean {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
		if strings.ContainsRune("@.-()", r) {
			hasSymbol = true
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != ' ' {
			special++
		}
	}
	if hasLetter {
		confidence += 0.1
	}
	if hasDigit {
		confidence += 0.1
	}
	if hasSymbol {
		confidence += 0.1
	}
	if float64(special)/float64(len(clean)) > 0.3 {
		confidence -= 0.2
	}

	if confidence > 1.0 {
		return 1.0
	}
	if confidence < 0.0 {
		return 0.0
	}
	return confidence
}

// bestResult reduces candidates to the highest-scored one; on ties the
// earliest candidate wins. An empty slice yields the zero Result.
func bestResult(candidates []Result) Result {
	var best Result
	for _, c := range candidates {
		if c.Confidence > best.Confidence {
			best = c
		}
	}
	return best
}
