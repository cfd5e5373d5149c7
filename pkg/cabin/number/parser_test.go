package number

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		phrase string
		want   int
		end    int
	}{
		{"zero", 0, 4},
		{"seven", 7, 5},
		{"thirteen", 13, 8},
		{"twenty", 20, 6},
		{"twenty one", 21, 10},
		{"twenty-one", 21, 10},
		{"twenty, one,", 21, 11},
		{"fourty two", 42, 10},
		{"hundred", 100, 7},
		{"a hundred", 100, 9},
		{"one hundred and five", 105, 20},
		{"one hundred five", 105, 16},
		{"three hundred", 300, 13},
		{"a thousand", 1000, 10},
		{"thousand", 1000, 8},
		{"two thousand and twenty", 2020, 23},
		{"a hundred thousand", 100000, 18},
		{"nine hundred ninety nine thousand nine hundred ninety nine", 999999, 58},
		{"twenty one degrees", 21, 10},
		{"one hundred and", 100, 11},
		{"five cats", 5, 4},
	}

	for _, tt := range tests {
		p := NewParser(tt.phrase)
		got, ok := p.Parse()
		if !ok {
			t.Errorf("Parse(%q) failed, want %d", tt.phrase, tt.want)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %d, want %d", tt.phrase, got, tt.want)
		}
		if p.Position() != tt.end {
			t.Errorf("Parse(%q) position = %d, want %d", tt.phrase, p.Position(), tt.end)
		}
	}
}

func TestParseNotANumber(t *testing.T) {
	for _, phrase := range []string{"the cat", "", " one", "a cat", "a", "and one", "Twenty", "someone"} {
		p := NewParser(phrase)
		if n, ok := p.Parse(); ok {
			t.Errorf("Parse(%q) = %d, want no number", phrase, n)
		}
		if p.Position() != 0 {
			t.Errorf("Parse(%q) consumed input up to %d", phrase, p.Position())
		}
	}
}

func TestParseAt(t *testing.T) {
	phrase := "set to twenty two please"
	n, end, ok := ParseAt(phrase, 7)
	if !ok {
		t.Fatal("ParseAt should find a number at offset 7")
	}
	if n != 22 {
		t.Errorf("ParseAt = %d, want 22", n)
	}
	if phrase[7:end] != "twenty two" {
		t.Errorf("consumed %q, want %q", phrase[7:end], "twenty two")
	}

	if _, end, ok := ParseAt(phrase, 0); ok || end != 0 {
		t.Errorf("ParseAt(0) = (%d, %v), want (0, false)", end, ok)
	}
}

func TestParseRoundTrip(t *testing.T) {
	for n := 0; n <= 999999; n += 13 {
		phrase := wordsOf(n)
		got, ok := NewParser(phrase).Parse()
		if !ok || got != n {
			t.Fatalf("Parse(%q) = (%d, %v), want %d", phrase, got, ok, n)
		}
	}

	for _, n := range []int{10, 11, 19, 20, 99, 100, 101, 110, 999, 1000, 1001, 1010, 1100, 10000, 99999, 100000, 999999} {
		phrase := wordsOf(n)
		if got, ok := NewParser(phrase).Parse(); !ok || got != n {
			t.Errorf("Parse(%q) = (%d, %v), want %d", phrase, got, ok, n)
		}
	}
}

var (
	onesWords  = []string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine"}
	teensWords = []string{"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen", "seventeen", "eighteen", "nineteen"}
	tensWords  = []string{"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety"}
)

func wordsOf(n int) string {
	if n < 1000 {
		return hundredsWords(n)
	}
	out := hundredsWords(n/1000) + " thousand"
	if r := n % 1000; r > 0 {
		out += " " + hundredsWords(r)
	}
	return out
}

func hundredsWords(n int) string {
	if n < 100 {
		return tensWordsOf(n)
	}
	out := onesWords[n/100] + " hundred"
	if r := n % 100; r > 0 {
		out += " and " + tensWordsOf(r)
	}
	return out
}

func tensWordsOf(n int) string {
	switch {
	case n < 10:
		return onesWords[n]
	case n < 20:
		return teensWords[n-10]
	}
	parts := []string{tensWords[n/10]}
	if n%10 > 0 {
		parts = append(parts, onesWords[n%10])
	}
	return strings.Join(parts, "-")
}
