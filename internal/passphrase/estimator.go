// Package passphrase estimates the strength of operator passphrases before
// they are fed into the master seed derivation. The estimate is advisory:
// callers decide whether to reject weak input.
package passphrase

import (
	"math"
	"strings"
	"unicode"
)

type Strength int

const (
	TooWeak Strength = iota
	Weak
	Moderate
	Strong
	VeryStrong
)

func (s Strength) String() string {
	switch s {
	case TooWeak:
		return "too weak"
	case Weak:
		return "weak"
	case Moderate:
		return "moderate"
	case Strong:
		return "strong"
	case VeryStrong:
		return "very strong"
	}
	return "unknown"
}

// Estimate is the result of scoring a passphrase.
type Estimate struct {
	EntropyBits float64
	Strength    Strength
	WordCount   int
	Length      int
	Suggestions []string
}

// bitsPerWord is a conservative proxy for a 7776-word diceware list
// (log2(7776) ≈ 12.9).
const bitsPerWord = 12.5

// Score estimates the entropy of a passphrase. Phrases of three or more words
// are scored per word; anything else is scored by character-set entropy.
func Score(phrase string) Estimate {
	words := strings.Fields(phrase)

	est := Estimate{
		WordCount: len(words),
		Length:    len([]rune(phrase)),
	}

	if len(words) >= 3 {
		est.EntropyBits = float64(len(words)) * bitsPerWord
	} else {
		est.EntropyBits = math.Log2(float64(alphabetSize(phrase))) * float64(est.Length)
	}

	est.Strength = classify(est.EntropyBits)
	est.Suggestions = suggest(est, phrase)

	return est
}

func classify(bits float64) Strength {
	switch {
	case bits < 40:
		return TooWeak
	case bits < 55:
		return Weak
	case bits < 70:
		return Moderate
	case bits < 95:
		return Strong
	default:
		return VeryStrong
	}
}

func alphabetSize(phrase string) int {
	var lower, upper, digit, symbol, space bool

	for _, r := range phrase {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsSpace(r):
			space = true
		default:
			symbol = true
		}
	}

	size := 0
	if lower {
		size += 26
	}
	if upper {
		size += 26
	}
	if digit {
		size += 10
	}
	if symbol {
		size += 32
	}
	if space {
		size++
	}

	if size == 0 {
		size = 1
	}

	return size
}

func suggest(est Estimate, phrase string) []string {
	var suggestions []string

	if est.WordCount < 4 {
		suggestions = append(suggestions, "Use a passphrase of at least 4 random words; 6 or more is recommended for long-lived key material.")
	}

	if est.WordCount < 3 {
		if strings.IndexFunc(phrase, unicode.IsUpper) < 0 || strings.IndexFunc(phrase, unicode.IsDigit) < 0 {
			suggestions = append(suggestions, "Mix upper case letters, digits and symbols if you are not using a multi-word phrase.")
		}
		if est.Length < 16 {
			suggestions = append(suggestions, "Use at least 16 characters.")
		}
	}

	if est.Strength <= Weak {
		suggestions = append(suggestions, "This passphrase protects an entire certificate hierarchy; pick something substantially longer.")
	}

	return suggestions
}
