package number

import "regexp"

// word matches a single token of a spoken number phrase. Separators between
// tokens are arbitrary non-word characters, so "twenty-one" and
// "twenty, one," are both two tokens.
var word = regexp.MustCompile(`[\p{L}\p{Mn}\p{Nd}\p{Pc}']+`)

var ones = map[string]int{
	"zero":  0,
	"one":   1,
	"two":   2,
	"three": 3,
	"four":  4,
	"five":  5,
	"six":   6,
	"seven": 7,
	"eight": 8,
	"nine":  9,
}

var teens = map[string]int{
	"ten":       10,
	"eleven":    11,
	"twelve":    12,
	"thirteen":  13,
	"fourteen":  14,
	"fifteen":   15,
	"sixteen":   16,
	"seventeen": 17,
	"eighteen":  18,
	"nineteen":  19,
}

var tens = map[string]int{
	"twenty":  20,
	"thirty":  30,
	"forty":   40,
	"fourty":  40,
	"fifty":   50,
	"sixty":   60,
	"seventy": 70,
	"eighty":  80,
	"ninety":  90,
}

type token struct {
	text string
	end  int // byte offset just past the token
}

// Parser is a greedy recursive-descent parser for spelled-out English
// integers:
//
//	thousands := ("a" | hundreds)? "thousand" ("and"? hundreds)? | hundreds
//	hundreds  := ("a" | tens)? "hundred" ("and"? tens)? | tens
//	tens      := teen | tens-word ones? | ones
//	ones      := "zero" | "one" | ... | "nine"
//
// Word lookups are case-sensitive; callers lowercase first if needed.
// A Parser is single-use.
type Parser struct {
	phrase   string
	start    int
	next     int
	queue    []token
	position int
}

// NewParser creates a parser that starts at the beginning of phrase.
func NewParser(phrase string) *Parser {
	return NewParserAt(phrase, 0)
}

// NewParserAt creates a parser that starts at the given byte offset.
func NewParserAt(phrase string, start int) *Parser {
	return &Parser{
		phrase:   phrase,
		start:    start,
		next:     start,
		position: start,
	}
}

// ParseAt parses a number starting at byte offset start and returns the value
// and the offset immediately after the last consumed token. When no number
// starts at start, ok is false and end equals start.
func ParseAt(phrase string, start int) (value int, end int, ok bool) {
	p := NewParserAt(phrase, start)
	value, ok = p.Parse()
	if !ok {
		return 0, start, false
	}
	return value, p.Position(), true
}

// Parse parses a number. It reports false if the phrase does not start with
// a number word; an unparseable tail is left unconsumed.
func (p *Parser) Parse() (int, bool) {
	// Non-word characters are skipped between tokens, but the phrase itself
	// must start on a word.
	loc := word.FindStringIndex(p.phrase[p.start:])
	if loc == nil || loc[0] != 0 {
		return 0, false
	}
	return p.parseThousands()
}

// Position returns the byte offset just past the last consumed token.
func (p *Parser) Position() int {
	return p.position
}

func (p *Parser) enqueue(size int) bool {
	for len(p.queue) < size {
		loc := word.FindStringIndex(p.phrase[p.next:])
		if loc == nil {
			return false
		}
		p.queue = append(p.queue, token{
			text: p.phrase[p.next+loc[0] : p.next+loc[1]],
			end:  p.next + loc[1],
		})
		p.next += loc[1]
	}
	return true
}

func (p *Parser) peek(i int) string {
	return p.queue[i].text
}

func (p *Parser) pop() {
	p.queue = p.queue[1:]
}

func (p *Parser) accept() {
	p.position = p.queue[0].end
}

func (p *Parser) parseOnes() (int, bool) {
	if !p.enqueue(1) {
		return 0, false
	}
	if v, ok := ones[p.peek(0)]; ok {
		p.accept()
		p.pop()
		return v, true
	}
	return 0, false
}

func (p *Parser) parseTens() (int, bool) {
	if !p.enqueue(1) {
		return 0, false
	}
	w := p.peek(0)

	if v, ok := teens[w]; ok {
		p.accept()
		p.pop()
		return v, true
	}

	if v, ok := tens[w]; ok {
		p.accept()
		p.pop()
		if o, ok := p.parseOnes(); ok {
			v += o
		}
		return v, true
	}

	return p.parseOnes()
}

func (p *Parser) parseHundreds() (int, bool) {
	var value int
	switch {
	case p.enqueue(1) && p.peek(0) == "hundred":
		value = 1
	case p.enqueue(2) && p.peek(0) == "a" && p.peek(1) == "hundred":
		value = 1
		p.pop()
	default:
		v, ok := p.parseTens()
		if !ok {
			return 0, false
		}
		value = v
	}

	if !p.enqueue(1) {
		return value, true
	}

	if p.peek(0) == "hundred" {
		value *= 100
		p.accept()
		p.pop()

		if p.enqueue(1) {
			if p.peek(0) == "and" {
				p.pop()
			}
			if v, ok := p.parseTens(); ok {
				value += v
			}
		}
	}

	return value, true
}

func (p *Parser) parseThousands() (int, bool) {
	var value int
	switch {
	case p.enqueue(1) && p.peek(0) == "thousand":
		value = 1
	case p.enqueue(2) && p.peek(0) == "a" && p.peek(1) == "thousand":
		value = 1
		p.pop()
	default:
		v, ok := p.parseHundreds()
		if !ok {
			return 0, false
		}
		value = v
	}

	if !p.enqueue(1) {
		return value, true
	}

	if p.peek(0) == "thousand" {
		value *= 1000
		p.accept()
		p.pop()

		if p.enqueue(1) {
			if p.peek(0) == "and" {
				p.pop()
			}
			if v, ok := p.parseHundreds(); ok {
				value += v
			}
		}
	}

	return value, true
}
