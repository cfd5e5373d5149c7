package record

import (
	"sort"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/cabin/pkg/cabin/filter"
	"github.com/cognicore/cabin/pkg/cabin/setting"
)

func TestBuildSnapshotsState(t *testing.T) {
	state := &filter.State{
		Intent:   filter.IntentChange,
		Stage:    filter.StageValueSelection,
		Entities: filter.Entities{filter.EntitySetting: {"temperature"}},
		Changes: []setting.Change{{
			SettingName: "TEMPERATURE",
			Amount:      &setting.Amount{Amount: 2, Unit: "°C"},
		}},
	}
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	r := New().Build(state, now)

	if r.Intent != filter.IntentChange || r.Stage != "value_selection" {
		t.Errorf("record = %+v", r)
	}
	if !r.Time.Equal(now) {
		t.Errorf("Time = %v, want %v", r.Time, now)
	}
	if got := r.Entities["SETTING"]; len(got) != 1 || got[0] != "temperature" {
		t.Errorf("Entities = %v", r.Entities)
	}

	state.Changes[0].Amount.Amount = 5
	state.Entities[filter.EntitySetting][0] = "fan"
	if r.Changes[0].Amount.Amount != 2 || r.Entities["SETTING"][0] != "temperature" {
		t.Error("record should not share memory with the state")
	}

	id, err := ulid.Parse(r.ID)
	if err != nil {
		t.Fatalf("ID %q is not a ULID: %v", r.ID, err)
	}
	if id.Time() != ulid.Timestamp(now) {
		t.Errorf("ULID time = %d, want %d", id.Time(), ulid.Timestamp(now))
	}
}

func TestBuildIDsAreUniqueAndSorted(t *testing.T) {
	b := New()
	state := &filter.State{}
	now := time.Now()

	ids := make([]string, 0, 1000)
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := b.Build(state, now).ID
		if seen[id] {
			t.Fatalf("Duplicate ULID generated: %s", id)
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if !sort.StringsAreSorted(ids) {
		t.Error("ids built in the same millisecond should sort in build order")
	}
}

func TestPending(t *testing.T) {
	b := New()
	state := &filter.State{Changes: []setting.Change{
		{SettingName: "DEFOG", Value: "ON", OperationStatus: setting.ToDo},
		{SettingName: "SUNROOF", OperationStatus: setting.UnsupportedSettingName},
	}}

	got := Pending(b.Build(state, time.Now()))
	if len(got) != 1 || got[0].SettingName != "DEFOG" {
		t.Errorf("Pending = %+v", got)
	}
}
