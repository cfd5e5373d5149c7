package filter

import (
	"reflect"
	"testing"

	"github.com/cognicore/cabin/pkg/cabin/setting"
)

func pendingSeatAndDefog() *State {
	return &State{
		Intent: IntentChange,
		Stage:  StageNameSelection,
		Changes: []setting.Change{
			{SettingName: "SEAT_HEATING", Value: "ON"},
			{SettingName: "DEFOG", Value: "ON"},
		},
	}
}

func settingNames(changes []setting.Change) []string {
	var names []string
	for _, c := range changes {
		names = append(names, c.SettingName)
	}
	return names
}

func TestNameSelection(t *testing.T) {
	f := newFixtureFilter(t)

	tests := []struct {
		name     string
		entities Entities
		want     []string
	}{
		{"by name", Entities{EntitySetting: {"defog"}}, []string{"DEFOG"}},
		{"by alternative name", Entities{EntitySetting: {"heated seats"}}, []string{"SEAT_HEATING"}},
		{"included setting", Entities{EntitySetting: {"driver seat heating"}}, []string{"LEFT_SEAT_HEATING"}},
		{"by index", Entities{EntityIndex: {"second"}}, []string{"DEFOG"}},
		{"by last", Entities{EntityIndex: {"the last one"}}, []string{"DEFOG"}},
		{"by number", Entities{EntityIndex: {"1"}}, []string{"SEAT_HEATING"}},
		{"nothing selected", Entities{EntitySetting: {"sunroof"}}, []string{"SEAT_HEATING", "DEFOG"}},
		{"index out of range", Entities{EntityIndex: {"3"}}, []string{"SEAT_HEATING", "DEFOG"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := pendingSeatAndDefog()
			f.Filter(state, Utterance{Entities: tt.entities})
			if got := settingNames(state.Changes); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("selected %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNameSelectionDerivedKeepsValue(t *testing.T) {
	f := newFixtureFilter(t)
	state := pendingSeatAndDefog()
	original := state.Changes[0]

	f.Filter(state, Utterance{Entities: Entities{EntitySetting: {"passenger seat heating"}}})

	want := []setting.Change{{SettingName: "RIGHT_SEAT_HEATING", Value: "ON"}}
	if !reflect.DeepEqual(state.Changes, want) {
		t.Errorf("changes = %+v, want %+v", state.Changes, want)
	}
	if original.SettingName != "SEAT_HEATING" {
		t.Error("deriving an included setting must not modify the offered change")
	}
}

func TestNameSelectionSingleCandidate(t *testing.T) {
	f := newFixtureFilter(t)
	state := &State{
		Intent:  IntentChange,
		Stage:   StageNameSelection,
		Changes: []setting.Change{{SettingName: "DEFOG", Value: "ON"}},
	}
	f.Filter(state, Utterance{Entities: Entities{EntitySetting: {"temperature"}}})
	if got := settingNames(state.Changes); !reflect.DeepEqual(got, []string{"DEFOG"}) {
		t.Errorf("single candidate should be kept, got %v", got)
	}
}

func TestNameSelectionStatuses(t *testing.T) {
	f := newFixtureFilter(t)
	state := &State{
		Intent: IntentCheck,
		Stage:  StageNameSelection,
		Statuses: []setting.Status{
			{SettingName: "TEMPERATURE"},
			{SettingName: "FAN_SPEED"},
		},
	}
	f.Filter(state, Utterance{Entities: Entities{EntitySetting: {"fan"}}})

	want := []setting.Status{{SettingName: "FAN_SPEED"}}
	if !reflect.DeepEqual(state.Statuses, want) {
		t.Errorf("statuses = %+v, want %+v", state.Statuses, want)
	}
}

func TestValueSelection(t *testing.T) {
	f := newFixtureFilter(t)
	pending := func() *State {
		return &State{
			Intent: IntentChange,
			Stage:  StageValueSelection,
			Changes: []setting.Change{
				{SettingName: "TEMPERATURE", Value: "INCREASE"},
				{SettingName: "TEMPERATURE", Value: "DECREASE"},
			},
		}
	}

	tests := []struct {
		name     string
		entities Entities
		want     string
	}{
		{"by value", Entities{EntityValue: {"colder"}}, "DECREASE"},
		{"by setting entity", Entities{EntitySetting: {"warmer"}}, "INCREASE"},
		{"by index", Entities{EntityIndex: {"first"}}, "INCREASE"},
		{"by last", Entities{EntityIndex: {"last"}}, "DECREASE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := pending()
			f.Filter(state, Utterance{Entities: tt.entities})
			if len(state.Changes) != 1 || state.Changes[0].Value != tt.want {
				t.Errorf("changes = %+v, want only %s", state.Changes, tt.want)
			}
		})
	}

	state := pending()
	f.Filter(state, Utterance{Entities: Entities{EntityValue: {"purple"}}})
	if len(state.Changes) != 2 {
		t.Errorf("no selection should keep every change, got %+v", state.Changes)
	}
}

func TestChangeConfirmation(t *testing.T) {
	f := newFixtureFilter(t)
	state := &State{
		Intent: IntentChange,
		Stage:  StageChangeConfirmation,
		Changes: []setting.Change{
			{SettingName: "ADAPTIVE_CRUISE_CONTROL", Value: "OFF"},
			{SettingName: "DEFOG", Value: "OFF"},
		},
	}

	f.Filter(state, Utterance{Intent: "NONE"})
	if state.Changes[0].IsConfirmed {
		t.Fatal("only a confirmation intent confirms")
	}

	f.Filter(state, Utterance{Intent: IntentConfirmYes})
	if !state.Changes[0].IsConfirmed || state.Changes[1].IsConfirmed {
		t.Errorf("changes = %+v, want only the first confirmed", state.Changes)
	}

	empty := &State{Stage: StageChangeConfirmation}
	f.Filter(empty, Utterance{Intent: IntentConfirmYes})
	if len(empty.Changes) != 0 {
		t.Errorf("confirmation without changes = %+v", empty.Changes)
	}
}

func TestStateHelpers(t *testing.T) {
	state := &State{
		Changes: []setting.Change{
			{SettingName: "A", Value: "ON"},
			{SettingName: "B", Value: "ON"},
			{SettingName: "A", Value: "OFF"},
			{Value: "OFF"},
		},
		Statuses: []setting.Status{{SettingName: "C"}, {SettingName: "B"}},
	}
	if got := state.SettingNames(); !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
		t.Errorf("SettingNames() = %v", got)
	}
	if got := state.SettingValues(); !reflect.DeepEqual(got, []string{"ON", "OFF"}) {
		t.Errorf("SettingValues() = %v", got)
	}

	state.Clear()
	if state.Changes != nil || state.Stage != StageNone {
		t.Errorf("Clear left %+v", state)
	}
}

func TestEntitiesClone(t *testing.T) {
	e := Entities{EntityValue: {"on"}}
	c := e.Clone()
	c[EntityValue][0] = "off"
	delete(c, EntityValue)
	if e[EntityValue][0] != "on" {
		t.Error("Clone shares memory with the original")
	}
	if Entities(nil).Clone() != nil {
		t.Error("Clone(nil) should be nil")
	}
	if (Entities{EntityValue: {}}).Has(EntityValue) {
		t.Error("an empty value list is not a recognized entity")
	}
}

func TestParseStageAndKind(t *testing.T) {
	for _, s := range []Stage{StageNone, StageNameSelection, StageValueSelection, StageChangeConfirmation} {
		got, err := ParseStage(s.String())
		if err != nil || got != s {
			t.Errorf("ParseStage(%q) = %v, %v", s.String(), got, err)
		}
	}
	if _, err := ParseStage("bogus"); err == nil {
		t.Error("ParseStage should reject unknown names")
	}

	if k, err := ParseKind("UNIT"); err != nil || k != EntityUnit {
		t.Errorf("ParseKind(UNIT) = %v, %v", k, err)
	}
	if _, err := ParseKind("unit"); err == nil {
		t.Error("ParseKind is case-sensitive")
	}
}
