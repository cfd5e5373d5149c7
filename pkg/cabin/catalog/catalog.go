package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/cabin/pkg/cabin/internalerr"
)

// DefaultKey is the alternative-names entry whose value aliases apply to
// every setting that does not declare its own.
const DefaultKey = "*DEFAULT*"

// Amount describes a numeric range a setting accepts. Min and Max are
// inclusive; nil means unbounded.
type Amount struct {
	Unit string   `yaml:"unit,omitempty" json:"unit,omitempty"`
	Min  *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max  *float64 `yaml:"max,omitempty" json:"max,omitempty"`
}

// Value is one named value of a setting.
type Value struct {
	CanonicalName        string `yaml:"canonicalName" json:"canonicalName"`
	RequiresAmount       bool   `yaml:"requiresAmount,omitempty" json:"requiresAmount,omitempty"`
	RequiresConfirmation bool   `yaml:"requiresConfirmation,omitempty" json:"requiresConfirmation,omitempty"`
	Antonym              string `yaml:"antonym,omitempty" json:"antonym,omitempty"`
	ChangesSignOfAmount  bool   `yaml:"changesSignOfAmount,omitempty" json:"changesSignOfAmount,omitempty"`
}

// Setting is the canonical description of one controllable setting.
type Setting struct {
	CanonicalName    string   `yaml:"canonicalName" json:"canonicalName"`
	Categories       []string `yaml:"categories,omitempty" json:"categories,omitempty"`
	Values           []Value  `yaml:"values,omitempty" json:"values,omitempty"`
	AllowsAmount     bool     `yaml:"allowsAmount,omitempty" json:"allowsAmount,omitempty"`
	Amounts          []Amount `yaml:"amounts,omitempty" json:"amounts,omitempty"`
	IncludedSettings []string `yaml:"includedSettings,omitempty" json:"includedSettings,omitempty"`
}

// FindValue returns the value with the given canonical name.
func (s Setting) FindValue(name string) (Value, bool) {
	for _, v := range s.Values {
		if v.CanonicalName == name {
			return v, true
		}
	}
	return Value{}, false
}

// AlternativeNames holds the alternative spellings of a setting and of its
// values, keyed by value canonical name.
type AlternativeNames struct {
	Names      []string            `yaml:"alternativeNames,omitempty" json:"alternativeNames,omitempty"`
	ValueNames map[string][]string `yaml:"alternativeValueNames,omitempty" json:"alternativeValueNames,omitempty"`
}

// Catalog is the read-only set of available settings and their alternative
// names. Build it once at startup and share it.
type Catalog struct {
	names    []string
	settings map[string]Setting

	// setting canonical name -> alternative names
	alternatives  map[string]AlternativeNames
	defaultValues map[string][]string
}

// New validates settings and builds a catalog. The antonym relation is made
// symmetric; declaring it on one side is enough.
func New(settings []Setting, alternatives map[string]AlternativeNames) (*Catalog, error) {
	c := &Catalog{alternatives: make(map[string]AlternativeNames, len(alternatives))}
	for name, alt := range alternatives {
		if name == DefaultKey {
			c.defaultValues = alt.ValueNames
			continue
		}
		c.alternatives[name] = alt
	}

	if err := c.index(settings); err != nil {
		return nil, err
	}

	for _, name := range c.names {
		for _, included := range c.settings[name].IncludedSettings {
			if _, ok := c.settings[included]; !ok {
				return nil, fmt.Errorf("setting %q includes unknown setting %q: %w", name, included, internalerr.ErrInvalidCatalog)
			}
		}
	}

	return c, nil
}

// Parse decodes a settings document (a list of settings) and an
// alternative-names document (a map keyed by setting canonical name). Both
// may be YAML or JSON and are checked against their schemas before decoding.
func Parse(settingsData, alternativesData []byte) (*Catalog, error) {
	if err := validateDocument(settingsValidator, "settings", settingsData); err != nil {
		return nil, err
	}
	var settings []Setting
	if err := yaml.Unmarshal(settingsData, &settings); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}

	var alternatives map[string]AlternativeNames
	if len(alternativesData) > 0 {
		if err := validateDocument(alternativesValidator, "alternative names", alternativesData); err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(alternativesData, &alternatives); err != nil {
			return nil, fmt.Errorf("parse alternative names: %w", err)
		}
	}

	return New(settings, alternatives)
}

// Load reads a catalog from disk. alternativesPath may be empty.
func Load(settingsPath, alternativesPath string) (*Catalog, error) {
	settingsData, err := os.ReadFile(settingsPath)
	if err != nil {
		return nil, err
	}

	var alternativesData []byte
	if alternativesPath != "" {
		alternativesData, err = os.ReadFile(alternativesPath)
		if err != nil {
			return nil, err
		}
	}

	c, err := Parse(settingsData, alternativesData)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", settingsPath, err)
	}
	return c, nil
}

func (c *Catalog) index(settings []Setting) error {
	c.names = make([]string, 0, len(settings))
	c.settings = make(map[string]Setting, len(settings))

	for _, s := range settings {
		if s.CanonicalName == "" {
			return fmt.Errorf("setting without canonical name: %w", internalerr.ErrInvalidCatalog)
		}
		if _, dup := c.settings[s.CanonicalName]; dup {
			return fmt.Errorf("setting %q declared twice: %w", s.CanonicalName, internalerr.ErrInvalidCatalog)
		}

		s.Values = append([]Value(nil), s.Values...)
		if err := symmetrizeAntonyms(s); err != nil {
			return err
		}

		c.names = append(c.names, s.CanonicalName)
		c.settings[s.CanonicalName] = s
	}
	return nil
}

// symmetrizeAntonyms completes the antonym relation in place.
func symmetrizeAntonyms(s Setting) error {
	byName := make(map[string]int, len(s.Values))
	for i, v := range s.Values {
		if v.CanonicalName == "" {
			return fmt.Errorf("setting %q has a value without canonical name: %w", s.CanonicalName, internalerr.ErrInvalidCatalog)
		}
		if _, dup := byName[v.CanonicalName]; dup {
			return fmt.Errorf("setting %q declares value %q twice: %w", s.CanonicalName, v.CanonicalName, internalerr.ErrInvalidCatalog)
		}
		byName[v.CanonicalName] = i
	}

	for i := range s.Values {
		v := s.Values[i]
		if v.Antonym == "" {
			continue
		}
		j, ok := byName[v.Antonym]
		if !ok {
			return fmt.Errorf("setting %q: antonym %q of %q is not a value of the setting: %w",
				s.CanonicalName, v.Antonym, v.CanonicalName, internalerr.ErrInvalidCatalog)
		}
		switch s.Values[j].Antonym {
		case "":
			s.Values[j].Antonym = v.CanonicalName
		case v.CanonicalName:
		default:
			return fmt.Errorf("setting %q: values %q and %q do not have symmetric antonyms: %w",
				s.CanonicalName, v.CanonicalName, s.Values[j].CanonicalName, internalerr.ErrInvalidCatalog)
		}
	}
	return nil
}

// SubCatalog returns a catalog limited to settings, sharing this catalog's
// alternative names. Included settings outside the subset are allowed.
func (c *Catalog) SubCatalog(settings []Setting) (*Catalog, error) {
	sub := &Catalog{
		alternatives:  c.alternatives,
		defaultValues: c.defaultValues,
	}
	if err := sub.index(settings); err != nil {
		return nil, err
	}
	return sub, nil
}

// SettingNames returns the canonical setting names in declaration order.
func (c *Catalog) SettingNames() []string {
	return append([]string(nil), c.names...)
}

// Settings returns the settings in declaration order.
func (c *Catalog) Settings() []Setting {
	out := make([]Setting, 0, len(c.names))
	for _, name := range c.names {
		out = append(out, c.settings[name])
	}
	return out
}

// Alternatives returns the alternative-names map as it was loaded, including
// the DefaultKey entry when default value names exist.
func (c *Catalog) Alternatives() map[string]AlternativeNames {
	out := make(map[string]AlternativeNames, len(c.alternatives)+1)
	for name, alt := range c.alternatives {
		out[name] = alt
	}
	if c.defaultValues != nil {
		out[DefaultKey] = AlternativeNames{ValueNames: c.defaultValues}
	}
	return out
}

// Len returns the number of settings.
func (c *Catalog) Len() int {
	return len(c.names)
}

// FindSetting returns the setting with the given canonical name.
func (c *Catalog) FindSetting(name string) (Setting, bool) {
	s, ok := c.settings[name]
	return s, ok
}

// FindSettingValue returns a value of a setting.
func (c *Catalog) FindSettingValue(setting, value string) (Value, bool) {
	s, ok := c.settings[setting]
	if !ok {
		return Value{}, false
	}
	return s.FindValue(value)
}

// AlternativeNamesForSetting returns the alternative names of a setting,
// including its canonical name when any are declared. Having alternative
// names does not make a setting available.
func (c *Catalog) AlternativeNamesForSetting(setting string) []string {
	alt, ok := c.alternatives[setting]
	if !ok {
		return nil
	}
	return withName(alt.Names, setting)
}

// AlternativeNamesForSettingValue returns the alternative names of a value,
// falling back to the default value names. The canonical value name is
// included when any are found.
func (c *Catalog) AlternativeNamesForSettingValue(setting, value string) []string {
	if alt, ok := c.alternatives[setting]; ok {
		if names, ok := alt.ValueNames[value]; ok {
			return withName(names, value)
		}
	}
	if names, ok := c.defaultValues[value]; ok {
		return withName(names, value)
	}
	return nil
}

func withName(names []string, name string) []string {
	out := make([]string, 0, len(names)+1)
	out = append(out, names...)
	for _, n := range names {
		if n == name {
			return out
		}
	}
	return append(out, name)
}
