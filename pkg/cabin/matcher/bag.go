package matcher

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Bag is the token representation of a setting or value: every spelling's
// tokens in one multiset, plus the tokens of each spelling kept apart for
// similarity scoring.
type Bag struct {
	// Setting and Value name the catalog entry the bag stands for. Both are
	// empty for query bags.
	Setting string
	Value   string

	tokens []string
	names  [][]string
}

// NewBag builds a bag from spellings of one entry. Names are pre-processed
// with PreProcessName.
func NewBag(setting, value string, names ...string) Bag {
	b := Bag{Setting: setting, Value: value}
	for _, name := range names {
		b.add(PreProcessName(name))
	}
	return b
}

// NewQuery builds a bag from recognized entity values, joined into a single
// spelling.
func NewQuery(entityValues ...string) Bag {
	var b Bag
	b.add(PreProcessText(strings.Join(entityValues, " ")))
	return b
}

func (b *Bag) add(name string) {
	tokens := strings.Fields(name)
	if len(tokens) == 0 {
		return
	}
	b.tokens = append(b.tokens, tokens...)
	b.names = append(b.names, tokens)
}

// Empty reports whether the bag has no tokens.
func (b Bag) Empty() bool {
	return len(b.tokens) == 0
}

// Tokens returns every token of every spelling, duplicates included.
func (b Bag) Tokens() []string {
	return append([]string(nil), b.tokens...)
}

func (b Bag) contains(token string) bool {
	for _, t := range b.tokens {
		if t == token {
			return true
		}
	}
	return false
}

func (b Bag) uniqueTokens() []string {
	seen := make(map[string]bool, len(b.tokens))
	out := make([]string, 0, len(b.tokens))
	for _, t := range b.tokens {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// PreProcessName prepares a catalog name for tokenizing. Names such as
// SEAT_HEATING become "seat heating".
func PreProcessName(name string) string {
	return PreProcessText(strings.ReplaceAll(name, "_", " "))
}

// PreProcessText lowercases text and collapses runs of whitespace.
func PreProcessText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(norm.NFC.String(text))), " ")
}
