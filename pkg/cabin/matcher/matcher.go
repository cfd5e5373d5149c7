package matcher

import (
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cognicore/cabin/pkg/cabin/catalog"
)

// Match is a setting and, optionally, one of its values.
type Match struct {
	Setting string
	Value   string
}

// SelectableValue is a value offered for disambiguation, with the setting it
// belongs to.
type SelectableValue struct {
	Setting string
	Value   catalog.Value
}

// Matcher resolves recognized entity text against a catalog. It is
// immutable after New and safe for concurrent use.
type Matcher struct {
	catalog     *catalog.Catalog
	settingBags []Bag
	valueBags   []Bag

	// pre-processed canonical name -> setting
	byName map[string]catalog.Setting

	// query key -> semantic matches; nil when caching is off
	cache *lru.Cache[string, []Bag]
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithCache keeps the semantic matches of up to size recent queries.
// The catalog never changes under a matcher.
func WithCache(size int) Option {
	return func(m *Matcher) {
		if size <= 0 {
			return
		}
		if cache, err := lru.New[string, []Bag](size); err == nil {
			m.cache = cache
		}
	}
}

// New builds token bags for every setting and value in c.
func New(c *catalog.Catalog, opts ...Option) *Matcher {
	m := &Matcher{
		catalog: c,
		byName:  make(map[string]catalog.Setting, c.Len()),
	}
	for _, o := range opts {
		o(m)
	}

	for _, s := range c.Settings() {
		names := append([]string{s.CanonicalName}, c.AlternativeNamesForSetting(s.CanonicalName)...)
		m.settingBags = append(m.settingBags, NewBag(s.CanonicalName, "", names...))
		m.byName[PreProcessName(s.CanonicalName)] = s

		for _, v := range s.Values {
			m.valueBags = append(m.valueBags, valueBag(c, s.CanonicalName, v.CanonicalName))
		}
	}
	return m
}

func valueBag(c *catalog.Catalog, setting, value string) Bag {
	names := append([]string{value}, c.AlternativeNamesForSettingValue(setting, value)...)
	return NewBag(setting, value, names...)
}

// MatchSettingNamesExactly returns the setting whose pre-processed canonical
// name equals the pre-processed entity, or nothing.
func (m *Matcher) MatchSettingNamesExactly(entity string) []catalog.Setting {
	if s, ok := m.byName[PreProcessName(entity)]; ok {
		return []catalog.Setting{s}
	}
	return nil
}

// MatchSettingNames returns the settings whose names are similar to the
// entity values. Several close matches are narrowed by antonym
// disambiguation.
func (m *Matcher) MatchSettingNames(entityValues []string, semanticThreshold, percentageOfMax float64, useCoverage bool) []catalog.Setting {
	query := NewQuery(entityValues...)
	if query.Empty() {
		return nil
	}

	bags := m.cachedMatches("s", query, m.settingBags, semanticThreshold, percentageOfMax, useCoverage)

	settings := make([]catalog.Setting, 0, len(bags))
	for _, b := range bags {
		if s, ok := m.catalog.FindSetting(b.Setting); ok {
			settings = append(settings, s)
		}
	}
	return settings
}

// MatchSettingValues returns the (setting, value) pairs across the whole
// catalog whose value names are similar to the entity values.
func (m *Matcher) MatchSettingValues(entityValues []string, semanticThreshold, percentageOfMax float64) []Match {
	query := NewQuery(entityValues...)
	if query.Empty() {
		return nil
	}

	bags := m.cachedMatches("v", query, m.valueBags, semanticThreshold, percentageOfMax, false)

	matches := make([]Match, len(bags))
	for i, b := range bags {
		matches[i] = Match{Setting: b.Setting, Value: b.Value}
	}
	return matches
}

// cachedMatches returns semanticMatches, from the cache when possible. The
// returned slice is shared and must not be modified.
func (m *Matcher) cachedMatches(kind string, query Bag, candidates []Bag, threshold, percentageOfMax float64, useCoverage bool) []Bag {
	if m.cache == nil {
		return m.semanticMatches(query, candidates, threshold, percentageOfMax, useCoverage)
	}

	key := strings.Join([]string{
		kind,
		strconv.FormatFloat(threshold, 'g', -1, 64),
		strconv.FormatFloat(percentageOfMax, 'g', -1, 64),
		strconv.FormatBool(useCoverage),
		strings.Join(query.Tokens(), " "),
	}, "|")
	if bags, ok := m.cache.Get(key); ok {
		return bags
	}
	bags := m.semanticMatches(query, candidates, threshold, percentageOfMax, useCoverage)
	m.cache.Add(key, bags)
	return bags
}

// CacheLen returns the number of cached queries.
func (m *Matcher) CacheLen() int {
	if m.cache == nil {
		return 0
	}
	return m.cache.Len()
}

// SettingVocabulary returns every spelling of every setting name: the
// pre-processed canonical names and their alternative names.
func (m *Matcher) SettingVocabulary() []string {
	var out []string
	for _, s := range m.catalog.Settings() {
		out = append(out, PreProcessName(s.CanonicalName))
		out = append(out, m.catalog.AlternativeNamesForSetting(s.CanonicalName)...)
	}
	return out
}

func (m *Matcher) semanticMatches(query Bag, candidates []Bag, threshold, percentageOfMax float64, useCoverage bool) []Bag {
	nearest := FindNearestMatchesWithin(query, candidates, threshold)
	bags := make([]Bag, len(nearest))
	for i, s := range nearest {
		bags[i] = s.Bag
	}

	// Antonyms tend to score alike ("left" vs. "right").
	if len(bags) > 1 {
		bags = DisambiguateAntonyms(query, bags, 0, percentageOfMax, useCoverage)
	}
	return bags
}

// DisambiguateSettingValues picks the values the entity values refer to.
// There is no similarity pass: the values are expected to be antonyms of
// each other, like "on" and "off".
func (m *Matcher) DisambiguateSettingValues(entityValues []string, values []SelectableValue, threshold, percentageOfMax float64) []SelectableValue {
	if len(values) == 0 {
		return nil
	}
	query := NewQuery(entityValues...)
	if query.Empty() {
		return nil
	}

	bags := make([]Bag, len(values))
	for i, v := range values {
		bags[i] = valueBag(m.catalog, v.Setting, v.Value.CanonicalName)
	}

	selected := disambiguateAntonyms(query, bags, threshold, percentageOfMax, true)
	out := make([]SelectableValue, len(selected))
	for i, s := range selected {
		out[i] = values[s.index]
	}
	return out
}
