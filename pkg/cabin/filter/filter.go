package filter

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/cognicore/cabin/pkg/cabin/catalog"
	"github.com/cognicore/cabin/pkg/cabin/internalerr"
	"github.com/cognicore/cabin/pkg/cabin/matcher"
	"github.com/cognicore/cabin/pkg/cabin/normalize"
	"github.com/cognicore/cabin/pkg/cabin/number"
	"github.com/cognicore/cabin/pkg/cabin/phonetic"
	"github.com/cognicore/cabin/pkg/cabin/setting"
)

// ASR sometimes transcribes "to 24" as "224".
var toAsTwo = regexp.MustCompile(`^2[0-9][0-9]$`)

const (
	// full sweep in either direction, see OptionalAmount
	fullSweep = "+-"

	typeDelta = "DELTA"
	indexLast = "LAST"
	valueSet  = "SET"
)

// Thresholds tune setting and value matching.
type Thresholds struct {
	SettingName                     float64 `yaml:"setting_name"`
	SettingNameAntonymPercentOfMax  float64 `yaml:"setting_name_antonym_percent_of_max"`
	SettingValue                    float64 `yaml:"setting_value"`
	SettingValueAntonym             float64 `yaml:"setting_value_antonym"`
	SettingValueAntonymPercentOfMax float64 `yaml:"setting_value_antonym_percent_of_max"`
}

// DefaultThresholds returns the tuned matching thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SettingName:                     0.6,
		SettingNameAntonymPercentOfMax:  0.9,
		SettingValue:                    0.6,
		SettingValueAntonym:             0.1,
		SettingValueAntonymPercentOfMax: 0.9,
	}
}

// Options configures a Filter. Nil normalizers behave as empty tables.
type Options struct {
	Catalog *catalog.Catalog

	Amounts *normalize.Normalizer // AMOUNT -> percentage
	Types   *normalize.Normalizer // TYPE -> DELTA | ABSOLUTE
	Units   *normalize.Normalizer // UNIT -> unit symbol
	Indexes *normalize.Normalizer // INDEX -> 1-based index | LAST

	Thresholds Thresholds

	// SkipASRCorrection disables reading "2xx" amounts as "to xx".
	SkipASRCorrection bool

	// PhoneticCorrection snaps a SETTING entity that matches nothing onto
	// the closest-sounding setting name.
	PhoneticCorrection bool

	// MatchCacheSize is the number of recent queries whose matches are
	// kept. Zero disables the cache.
	MatchCacheSize int

	Logger *slog.Logger
}

// Filter turns recognized entities into validated setting changes. It holds
// no per-request state and is safe for concurrent use.
type Filter struct {
	catalog *catalog.Catalog
	matcher *matcher.Matcher

	amounts *normalize.Normalizer
	types   *normalize.Normalizer
	units   *normalize.Normalizer
	indexes *normalize.Normalizer

	thresholds    Thresholds
	asrCorrection bool
	corrector     *phonetic.Corrector // nil when off
	logger        *slog.Logger
}

// New creates a filter over opts.Catalog.
func New(opts Options) (*Filter, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("filter needs a catalog: %w", internalerr.ErrInvalidConfig)
	}

	f := &Filter{
		catalog:       opts.Catalog,
		matcher:       matcher.New(opts.Catalog, matcher.WithCache(opts.MatchCacheSize)),
		amounts:       orEmpty(opts.Amounts),
		types:         orEmpty(opts.Types),
		units:         orEmpty(opts.Units),
		indexes:       orEmpty(opts.Indexes),
		thresholds:    opts.Thresholds,
		asrCorrection: !opts.SkipASRCorrection,
		logger:        opts.Logger,
	}
	if f.thresholds == (Thresholds{}) {
		f.thresholds = DefaultThresholds()
	}
	if f.logger == nil {
		f.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.PhoneticCorrection {
		f.corrector = phonetic.New(f.matcher.SettingVocabulary())
	}
	return f, nil
}

func orEmpty(n *normalize.Normalizer) *normalize.Normalizer {
	if n == nil {
		return normalize.New(nil)
	}
	return n
}

// Catalog returns the catalog the filter validates against.
func (f *Filter) Catalog() *catalog.Catalog {
	return f.catalog
}

// Filter applies utterance u to state according to state.Stage.
func (f *Filter) Filter(state *State, u Utterance) {
	switch state.Stage {
	case StageNone:
		state.Intent = u.Intent
		state.Entities = u.Entities.Clone()
		state.Changes = nil
		state.Statuses = nil
		f.PostProcessSettings(state)
		f.ApplyContentLogic(state)
	case StageNameSelection:
		if IsChangeIntent(state.Intent) {
			state.Changes = selectSettings(f, state, u, state.Changes)
		} else if IsCheckIntent(state.Intent) {
			state.Statuses = selectSettings(f, state, u, state.Statuses)
		}
	case StageValueSelection:
		state.Changes = f.ApplySelectionToSettingValues(state, u)
	case StageChangeConfirmation:
		f.ApplyConfirmation(state, u)
	}

	f.logger.Debug("filtered utterance",
		"stage", state.Stage.String(),
		"intent", state.Intent,
		"changes", len(state.Changes),
		"statuses", len(state.Statuses))
}

// PostProcessSettings matches state.Entities against the catalog and
// appends the resulting changes, or statuses for a check intent.
func (f *Filter) PostProcessSettings(state *State) {
	entities := state.Entities
	t := f.thresholds

	var selected []catalog.Setting
	if entities.Has(EntitySetting) {
		selected = f.matcher.MatchSettingNamesExactly(strings.Join(entities[EntitySetting], " "))
		if len(selected) == 0 && entities.Has(EntityValue) {
			// The value can tell settings apart, as in "warm my seat".
			selected = f.matcher.MatchSettingNames(joined(entities, EntitySetting, EntityValue),
				t.SettingName, t.SettingNameAntonymPercentOfMax, false)
		}
		if len(selected) == 0 {
			selected = f.matcher.MatchSettingNames(entities[EntitySetting],
				t.SettingName, t.SettingNameAntonymPercentOfMax, false)
		}
		if len(selected) == 0 && f.corrector != nil {
			selected = f.correctSettingNames(entities[EntitySetting])
		}
	}

	var (
		matches  []matcher.Match
		hasValue bool
		included = make(map[string]bool)
	)
	switch {
	case len(selected) > 0:
		var valueEntities []string
		if entities.Has(EntityValue) {
			valueEntities = entities[EntityValue]
		} else {
			// Some settings name their own value, like "defog".
			valueEntities = entities[EntitySetting]
		}

		for _, s := range selected {
			var values []matcher.SelectableValue
			if len(valueEntities) > 0 {
				selectable := make([]matcher.SelectableValue, len(s.Values))
				for i, v := range s.Values {
					selectable[i] = matcher.SelectableValue{Setting: s.CanonicalName, Value: v}
				}
				values = f.matcher.DisambiguateSettingValues(valueEntities, selectable,
					t.SettingValueAntonym, t.SettingValueAntonymPercentOfMax)

				// Without a VALUE entity the setting name may stand for one value, never several.
				if !entities.Has(EntityValue) && len(values) > 1 {
					values = nil
				}
			}

			for _, v := range values {
				matches = append(matches, matcher.Match{Setting: s.CanonicalName, Value: v.Value.CanonicalName})
				hasValue = true
			}
			if len(values) == 0 {
				matches = append(matches, matcher.Match{Setting: s.CanonicalName})
			}
			for _, name := range s.IncludedSettings {
				included[name] = true
			}
		}

	case entities.Has(EntityValue) && !entities.Has(EntitySetting):
		// The value implies the setting, as in "make it warmer".
		matches = f.matcher.MatchSettingValues(entities[EntityValue], t.SettingValue, t.SettingValueAntonymPercentOfMax)
		hasValue = true
		for _, m := range matches {
			if s, ok := f.catalog.FindSetting(m.Setting); ok {
				for _, name := range s.IncludedSettings {
					included[name] = true
				}
			}
		}
	}

	// Prefer settings with a matching value, and drop settings included in
	// another match.
	kept := matches[:0]
	for _, m := range matches {
		if (!hasValue || m.Value != "") && !included[m.Setting] {
			kept = append(kept, m)
		}
	}
	matches = kept

	if IsCheckIntent(state.Intent) {
		for _, m := range matches {
			state.Statuses = append(state.Statuses, setting.Status{SettingName: m.Setting})
		}
		return
	}

	amount, relative := f.OptionalAmount(entities, false)
	for _, m := range matches {
		change := setting.Change{SettingName: m.Setting}

		value, found := f.catalog.FindSettingValue(m.Setting, m.Value)
		if state.Intent == IntentDeclarative {
			// A complaint about the status quo asks for the opposite.
			if found {
				change.Value = value.Antonym
			}
		} else {
			change.Value = m.Value
		}

		switch {
		case amount != nil && found && value.ChangesSignOfAmount:
			change.Amount, change.IsRelativeAmount = f.OptionalAmount(entities, true)
		case amount != nil:
			a := *amount
			change.Amount, change.IsRelativeAmount = &a, relative
		}

		state.Changes = append(state.Changes, change)
		f.logger.Debug("matched setting", "setting", change.SettingName, "value", change.Value)
	}

	if len(matches) == 0 && amount != nil {
		state.Changes = append(state.Changes, setting.Change{Amount: amount, IsRelativeAmount: relative})
	}
}

// correctSettingNames matches the SETTING entities after snapping each onto
// the closest-sounding setting name, as when "defog" is heard as "defrog".
func (f *Filter) correctSettingNames(entityValues []string) []catalog.Setting {
	var corrected []string
	for _, v := range entityValues {
		c, score, ok := f.corrector.Correct(v)
		if !ok {
			continue
		}
		f.logger.Debug("corrected setting name", "entity", v, "corrected", c, "score", score)
		corrected = append(corrected, c)
	}
	if len(corrected) == 0 {
		return nil
	}

	if selected := f.matcher.MatchSettingNamesExactly(strings.Join(corrected, " ")); len(selected) > 0 {
		return selected
	}
	return f.matcher.MatchSettingNames(corrected,
		f.thresholds.SettingName, f.thresholds.SettingNameAntonymPercentOfMax, false)
}

func joined(entities Entities, kinds ...EntityKind) []string {
	var out []string
	for _, k := range kinds {
		out = append(out, entities[k]...)
	}
	return out
}

// OptionalAmount reads the amount from the AMOUNT, TYPE and UNIT entities.
// The second result reports whether the amount is relative. With
// changeSign a relative amount is negated and a full sweep ("all the way")
// means 0% instead of 100%.
func (f *Filter) OptionalAmount(entities Entities, changeSign bool) (*setting.Amount, bool) {
	var (
		amount   *setting.Amount
		relative bool
	)

	for _, raw := range entities[EntityAmount] {
		if pct, ok := f.amounts.Lookup(raw); ok {
			if pct == fullSweep {
				amount = &setting.Amount{Amount: 100, Unit: "%"}
				if changeSign {
					amount.Amount = 0
				}
			} else if v, err := strconv.ParseFloat(pct, 64); err == nil {
				amount = &setting.Amount{Amount: v, Unit: "%"}
			}
		}

		if amount == nil {
			if chunk, ok := number.FirstNumber(raw); ok {
				amount = &setting.Amount{Amount: chunk.Number}
				if f.asrCorrection && !entities.Has(EntityType) && toAsTwo.MatchString(raw) {
					amount.Amount -= 200
					relative = false
				}
			}
		}

		if amount == nil {
			continue
		}

		for _, typ := range entities[EntityType] {
			if canonical, ok := f.types.Lookup(typ); ok {
				relative = canonical == typeDelta
				break
			}
		}

		if amount.Unit == "" {
			if units := entities[EntityUnit]; len(units) > 0 {
				if unit, ok := f.units.Lookup(units[0]); ok {
					amount.Unit = unit
				} else {
					amount.Unit = units[0]
				}
			}
		}
		break
	}

	if changeSign && amount != nil && relative {
		amount.Amount = -amount.Amount
	}
	return amount, relative
}
