package filter

import (
	"strconv"
	"strings"

	"github.com/cognicore/cabin/pkg/cabin/catalog"
	"github.com/cognicore/cabin/pkg/cabin/matcher"
	"github.com/cognicore/cabin/pkg/cabin/setting"
)

// ApplySelectionToSettings narrows the pending changes to the settings u
// selects by name or by index.
func (f *Filter) ApplySelectionToSettings(state *State, u Utterance) []setting.Change {
	return selectSettings(f, state, u, state.Changes)
}

// ApplySelectionToStatuses narrows the pending statuses the same way.
func (f *Filter) ApplySelectionToStatuses(state *State, u Utterance) []setting.Status {
	return selectSettings(f, state, u, state.Statuses)
}

func selectSettings[T setting.Operation[T]](f *Filter, state *State, u Utterance, ops []T) []T {
	names := state.SettingNames()

	var kind EntityKind
	switch {
	case u.Entities.Has(EntitySetting):
		kind = EntitySetting
	case u.Entities.Has(EntityValue):
		kind = EntityValue
	}

	selected := make(map[string]bool)
	if kind != "" && len(names) > 0 {
		sub, err := f.subMatcher(names)
		if err != nil {
			f.logger.Warn("build selection catalog", "error", err)
		} else {
			found := sub.MatchSettingNamesExactly(strings.Join(u.Entities[kind], " "))
			if len(found) == 0 {
				found = sub.MatchSettingNames(u.Entities[kind],
					f.thresholds.SettingName, f.thresholds.SettingNameAntonymPercentOfMax, true)
			}
			for _, s := range found {
				selected[s.CanonicalName] = true
			}
		}
	}

	indices, last := f.selectedIndices(u)
	if len(names) <= 1 || (len(indices) == 0 && !last && len(selected) == 0) {
		return ops
	}

	// Indices count the names as they were offered.
	for i, name := range names {
		if (last && i == len(names)-1) || indices[i] {
			selected[name] = true
		}
	}

	var out []T
	added := make(map[string]bool)
	for _, op := range ops {
		if selected[op.Setting()] {
			out = append(out, op)
			added[op.Setting()] = true
		}
	}

	// A selected setting that was not offered is included in one that was.
	for _, name := range f.selectableSettings(names) {
		if !selected[name] || added[name] {
			continue
		}
		for _, op := range ops {
			parent, ok := f.catalog.FindSetting(op.Setting())
			if ok && contains(parent.IncludedSettings, name) {
				out = append(out, op.WithSetting(name))
				break
			}
		}
	}

	if len(out) == 0 {
		return ops
	}
	return out
}

// selectableSettings returns names plus the settings they include.
func (f *Filter) selectableSettings(names []string) []string {
	out := append([]string(nil), names...)
	for _, name := range names {
		s, ok := f.catalog.FindSetting(name)
		if !ok {
			continue
		}
		for _, included := range s.IncludedSettings {
			if !contains(names, included) && !contains(out, included) {
				out = append(out, included)
			}
		}
	}
	return out
}

// subMatcher builds a matcher over the offered settings and the settings
// they include. Names missing from the catalog match by name only.
func (f *Filter) subMatcher(names []string) (*matcher.Matcher, error) {
	var settings []catalog.Setting
	for _, name := range f.selectableSettings(names) {
		s, ok := f.catalog.FindSetting(name)
		if !ok {
			s = catalog.Setting{CanonicalName: name}
		}
		settings = append(settings, s)
	}

	sub, err := f.catalog.SubCatalog(settings)
	if err != nil {
		return nil, err
	}
	return matcher.New(sub), nil
}

// ApplySelectionToSettingValues narrows the pending changes to the values u
// selects by name or by index.
func (f *Filter) ApplySelectionToSettingValues(state *State, u Utterance) []setting.Change {
	values := state.SettingValues()

	var kind EntityKind
	switch {
	case u.Entities.Has(EntityValue):
		kind = EntityValue
	case u.Entities.Has(EntitySetting):
		kind = EntitySetting
	}

	selected := make(map[string]bool)
	if kind != "" && len(values) > 0 {
		selectable := make([]matcher.SelectableValue, 0, len(state.Changes))
		for _, c := range state.Changes {
			v, ok := f.catalog.FindSettingValue(c.SettingName, c.Value)
			if !ok {
				v = catalog.Value{CanonicalName: c.Value}
			}
			selectable = append(selectable, matcher.SelectableValue{Setting: c.SettingName, Value: v})
		}

		found := f.matcher.DisambiguateSettingValues(u.Entities[kind], selectable,
			f.thresholds.SettingValueAntonym, f.thresholds.SettingValueAntonymPercentOfMax)
		for _, v := range found {
			selected[v.Value.CanonicalName] = true
		}
	}

	indices, last := f.selectedIndices(u)
	if len(values) <= 1 || (len(indices) == 0 && !last && len(selected) == 0) {
		return state.Changes
	}

	for i, v := range values {
		if (last && i == len(values)-1) || indices[i] {
			selected[v] = true
		}
	}

	var out []setting.Change
	for _, c := range state.Changes {
		if selected[c.Value] {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return state.Changes
	}
	return out
}

// selectedIndices reads the INDEX entities as zero-based indices. The
// second result reports whether the last item was selected.
func (f *Filter) selectedIndices(u Utterance) (map[int]bool, bool) {
	indices := make(map[int]bool)
	last := false
	for _, raw := range u.Entities[EntityIndex] {
		idx := f.indexes.Normalize(raw)
		if strings.EqualFold(idx, indexLast) {
			last = true
			continue
		}
		// Spoken indices are one-based.
		if n, err := strconv.Atoi(idx); err == nil {
			indices[n-1] = true
		}
	}
	return indices, last
}

// ApplyConfirmation marks the first pending change confirmed when u
// confirms it.
func (f *Filter) ApplyConfirmation(state *State, u Utterance) {
	if len(state.Changes) > 0 && u.Intent == IntentConfirmYes {
		state.Changes[0].IsConfirmed = true
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
