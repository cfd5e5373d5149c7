package filter

import (
	"strings"

	"github.com/cognicore/cabin/pkg/cabin/catalog"
	"github.com/cognicore/cabin/pkg/cabin/setting"
)

// ApplyContentLogic validates the pending changes of a change intent. A
// change invalid for a value-related reason is replaced by every value of
// its setting that makes it valid. When any change is valid only the valid
// ones are kept; otherwise the invalid ones are kept so the caller can
// report why. Each change's OperationStatus reflects its validity.
func (f *Filter) ApplyContentLogic(state *State) {
	if !IsChangeIntent(state.Intent) || len(state.Changes) == 0 {
		return
	}

	var valid, invalid []setting.Change
	for _, change := range state.Changes {
		validity := f.ValidateChange(&change)
		if validity == setting.Valid {
			change.OperationStatus = setting.ToDo
			valid = append(valid, change)
			continue
		}

		var replacements []setting.Change
		if validity.ValueRelated() {
			replacements = f.replacementValues(change)
		}
		if len(replacements) > 0 {
			// The VALUE entity was ambiguous; do not let it decide later turns.
			delete(state.Entities, EntityValue)
			valid = append(valid, replacements...)
			continue
		}

		change.OperationStatus = validity.OperationStatus()
		invalid = append(invalid, change)
		f.logger.Debug("invalid change",
			"setting", change.SettingName,
			"value", change.Value,
			"validity", string(validity))
	}

	if len(valid) > 0 {
		state.Changes = valid
	} else {
		state.Changes = invalid
	}
}

func (f *Filter) replacementValues(change setting.Change) []setting.Change {
	s, ok := f.catalog.FindSetting(change.SettingName)
	if !ok {
		return nil
	}

	var out []setting.Change
	for _, v := range s.Values {
		candidate := change.Copy()
		candidate.Value = v.CanonicalName
		if f.ValidateChange(&candidate) == setting.Valid {
			candidate.OperationStatus = setting.ToDo
			out = append(out, candidate)
		}
	}
	return out
}

// ValidateChange classifies change against the catalog. An empty value is
// read as the setting's SET value when it has one, and change is updated
// to name it.
func (f *Filter) ValidateChange(change *setting.Change) setting.Validity {
	if change.SettingName == "" {
		return setting.InvalidMissingSetting
	}
	if change.Value == "" && change.Amount == nil {
		return setting.InvalidMissingValue
	}

	s, ok := f.catalog.FindSetting(change.SettingName)
	if !ok {
		return setting.InvalidSettingName
	}

	var value *catalog.Value
	for i, v := range s.Values {
		if v.CanonicalName == change.Value || (change.Value == "" && strings.ToUpper(v.CanonicalName) == valueSet) {
			value = &s.Values[i]
			change.Value = v.CanonicalName
			break
		}
	}
	if value == nil {
		return setting.InvalidSettingValueCombination
	}

	if change.Amount == nil {
		if value.RequiresAmount {
			return setting.InvalidMissingAmount
		}
		return setting.Valid
	}

	if !s.AllowsAmount || len(s.Amounts) == 0 {
		return setting.InvalidExtraAmount
	}

	var rng *catalog.Amount
	for i, a := range s.Amounts {
		if a.Unit == change.Amount.Unit {
			rng = &s.Amounts[i]
			break
		}
	}
	if rng == nil {
		if change.Amount.Unit != "%" {
			return setting.InvalidAmountUnit
		}
		rng = &percentRange
	}

	amt := change.Amount.Amount
	if !change.IsRelativeAmount {
		if (rng.Min != nil && amt < *rng.Min) || (rng.Max != nil && amt > *rng.Max) {
			return setting.InvalidAmountOutOfRange
		}
	} else if rng.Min != nil && rng.Max != nil {
		span := *rng.Max - *rng.Min
		if amt < -span || amt > span {
			return setting.InvalidAmountOutOfRange
		}
	}
	return setting.Valid
}

var percentRange = catalog.Amount{Unit: "%", Min: ptr(0.0), Max: ptr(100.0)}

func ptr(v float64) *float64 { return &v }
