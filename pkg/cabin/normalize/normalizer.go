package normalize

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/cognicore/cabin/pkg/cabin/internalerr"
)

// Normalizer maps recognized entity strings to canonical names.
//
// Tables are tab-separated, one mapping per line:
//
//	canonical<TAB>alias[<TAB>alias...]
//
// Blank lines and lines starting with '#' are ignored. Aliases are matched
// case-insensitively after trimming. A Normalizer is read-only once built and
// safe for concurrent use.
type Normalizer struct {
	// alias -> canonical
	// Example: "max" -> "100", "by" -> "DELTA"
	canonical map[string]string
}

// Entry is one canonical name and its aliases.
type Entry struct {
	Canonical string
	Aliases   []string
}

// New creates a normalizer from entries. Later entries win when two entries
// share an alias.
func New(entries []Entry) *Normalizer {
	n := &Normalizer{canonical: make(map[string]string)}
	for _, e := range entries {
		for _, alias := range e.Aliases {
			key := Key(alias)
			if key == "" {
				continue
			}
			n.canonical[key] = e.Canonical
		}
	}
	return n
}

// Load reads a normalization table from a file.
func Load(path string) (*Normalizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := ParseTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return New(entries), nil
}

// ParseTable reads table entries from r. A non-comment line without a tab
// is malformed.
func ParseTable(r io.Reader) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}

		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			return nil, fmt.Errorf("line %d: expected canonical<TAB>alias: %w", lineNo, internalerr.ErrMalformedTable)
		}

		canonical := strings.TrimSpace(parts[0])
		if canonical == "" {
			return nil, fmt.Errorf("line %d: empty canonical name: %w", lineNo, internalerr.ErrMalformedTable)
		}

		entry := Entry{Canonical: canonical}
		for _, alias := range parts[1:] {
			if alias = strings.TrimSpace(alias); alias != "" {
				entry.Aliases = append(entry.Aliases, alias)
			}
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// Key returns the lookup form of an entity string: NFC, trimmed, lowercase.
func Key(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}

// Normalize returns the canonical name for entity, or the lookup form of
// entity itself when it is not in the table.
//
// Examples:
//   - Normalize(" Max ") -> "100"
//   - Normalize("Loud")  -> "loud"
func (n *Normalizer) Normalize(entity string) string {
	key := Key(entity)
	if canonical, ok := n.canonical[key]; ok {
		return canonical
	}
	return key
}

// Lookup returns the canonical name for entity and whether it was found.
// Use it when "not found" must be distinguishable from "same as input".
func (n *Normalizer) Lookup(entity string) (string, bool) {
	canonical, ok := n.canonical[Key(entity)]
	return canonical, ok
}

// Entries returns the table grouped by canonical name, canonical names in
// sorted order.
func (n *Normalizer) Entries() []Entry {
	byCanonical := make(map[string][]string)
	for alias, canonical := range n.canonical {
		byCanonical[canonical] = append(byCanonical[canonical], alias)
	}

	entries := make([]Entry, 0, len(byCanonical))
	for canonical, aliases := range byCanonical {
		sort.Strings(aliases)
		entries = append(entries, Entry{Canonical: canonical, Aliases: aliases})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Canonical < entries[j].Canonical
	})
	return entries
}

// Len returns the number of aliases in the table.
func (n *Normalizer) Len() int {
	return len(n.canonical)
}
