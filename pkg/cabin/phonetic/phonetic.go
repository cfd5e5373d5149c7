// Package phonetic snaps misheard setting phrases onto known setting names.
//
// A candidate is phonetic when its Double Metaphone codes share a code with
// the input; phonetic candidates are ranked by Jaro-Winkler similarity and
// accepted above the phonetic threshold. Without a phonetic candidate, plain
// Jaro-Winkler similarity above the stricter fuzzy threshold is accepted.
package phonetic

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.80
	defaultFuzzyThreshold    = 0.90
)

// Option configures a Corrector.
type Option func(*Corrector)

// WithPhoneticThreshold sets the minimum similarity of a phonetic candidate.
func WithPhoneticThreshold(threshold float64) Option {
	return func(c *Corrector) {
		c.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum similarity of a candidate that does
// not sound alike.
func WithFuzzyThreshold(threshold float64) Option {
	return func(c *Corrector) {
		c.fuzzyThreshold = threshold
	}
}

type entry struct {
	phrase string
	lower  string
	tokens []string
	codes  map[string]struct{}
}

// Corrector matches phrases against a fixed vocabulary. It is read-only
// after New and safe for concurrent use.
type Corrector struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
	vocabulary        []entry
}

// New returns a corrector over vocabulary. Codes are computed once here.
func New(vocabulary []string, opts ...Option) *Corrector {
	c := &Corrector{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(c)
	}

	seen := make(map[string]bool, len(vocabulary))
	for _, phrase := range vocabulary {
		lower := strings.ToLower(strings.TrimSpace(phrase))
		if lower == "" || seen[lower] {
			continue
		}
		seen[lower] = true
		tokens := strings.Fields(lower)
		c.vocabulary = append(c.vocabulary, entry{
			phrase: phrase,
			lower:  lower,
			tokens: tokens,
			codes:  codesForTokens(tokens),
		})
	}
	return c
}

// Len returns the number of distinct vocabulary phrases.
func (c *Corrector) Len() int {
	return len(c.vocabulary)
}

// Correct returns the vocabulary phrase closest to phrase and its
// similarity. When nothing is close enough, ok is false and corrected is
// phrase unchanged.
func (c *Corrector) Correct(phrase string) (corrected string, score float64, ok bool) {
	lower := strings.ToLower(strings.TrimSpace(phrase))
	if lower == "" || len(c.vocabulary) == 0 {
		return phrase, 0, false
	}
	tokens := strings.Fields(lower)
	codes := codesForTokens(tokens)

	var (
		best         string
		bestScore    float64
		bestPhonetic bool
	)
	for _, e := range c.vocabulary {
		sim := similarity(tokens, e.tokens, lower, e.lower)
		if codesOverlap(codes, e.codes) {
			if sim >= c.phoneticThreshold && (!bestPhonetic || sim > bestScore) {
				best, bestScore, bestPhonetic = e.phrase, sim, true
			}
		} else if !bestPhonetic && sim >= c.fuzzyThreshold && sim > bestScore {
			best, bestScore = e.phrase, sim
		}
	}

	if best == "" {
		return phrase, 0, false
	}
	return best, bestScore, true
}

func codesForTokens(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// similarity is the best Jaro-Winkler score over the full phrases, the
// phrases without spaces, and every token pair.
func similarity(inputTokens, entryTokens []string, input, phrase string) float64 {
	score := matchr.JaroWinkler(input, phrase, false)

	if len(inputTokens) > 1 || len(entryTokens) > 1 {
		if s := matchr.JaroWinkler(strings.Join(inputTokens, ""), strings.Join(entryTokens, ""), false); s > score {
			score = s
		}
	}

	for _, it := range inputTokens {
		for _, et := range entryTokens {
			if s := matchr.JaroWinkler(it, et, false); s > score {
				score = s
			}
		}
	}
	return score
}
