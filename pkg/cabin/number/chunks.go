package number

import (
	"errors"
	"regexp"
	"strconv"
	"unicode/utf8"
)

var digitNumber = regexp.MustCompile(`^[+-]?([.][0-9]+|[0-9]+([.][0-9]+)?)([Ee][+-]?[0-9]+)?`)

// Chunk is a piece of a split string: either a number (digits or spelled
// out) or the text between two numbers.
type Chunk struct {
	Value    string  // original substring
	Number   float64 // numeric value, valid only if IsNumber
	IsNumber bool
}

// SplitNumbers splits s into numbers and the non-number substrings between
// them, in their original order. Adjacent numbers are never merged.
//
// Examples:
//   - "set it to 21.5 degrees" -> "set it to ", 21.5, " degrees"
//   - "twenty one percent"     -> 21, " percent"
func SplitNumbers(s string) []Chunk {
	var chunks []Chunk

	pos, prevEnd := 0, 0
	for pos < len(s) {
		if loc := digitNumber.FindStringIndex(s[pos:]); loc != nil {
			text := s[pos : pos+loc[1]]
			if v, err := strconv.ParseFloat(text, 64); err == nil || errors.Is(err, strconv.ErrRange) {
				chunks = appendText(chunks, s, prevEnd, pos)
				chunks = append(chunks, Chunk{Value: text, Number: v, IsNumber: true})
				pos += loc[1]
				prevEnd = pos
				continue
			}
		}

		// Spoken numbers are tried at every position, so the "one" in
		// "someone" is a number.
		if n, end, ok := ParseAt(s, pos); ok {
			chunks = appendText(chunks, s, prevEnd, pos)
			chunks = append(chunks, Chunk{Value: s[pos:end], Number: float64(n), IsNumber: true})
			pos = end
			prevEnd = pos
			continue
		}

		_, size := utf8.DecodeRuneInString(s[pos:])
		pos += size
	}

	return appendText(chunks, s, prevEnd, pos)
}

// FirstNumber returns the first numeric chunk of s.
func FirstNumber(s string) (Chunk, bool) {
	for _, c := range SplitNumbers(s) {
		if c.IsNumber {
			return c, true
		}
	}
	return Chunk{}, false
}

func appendText(chunks []Chunk, s string, start, end int) []Chunk {
	if start < end {
		chunks = append(chunks, Chunk{Value: s[start:end]})
	}
	return chunks
}
