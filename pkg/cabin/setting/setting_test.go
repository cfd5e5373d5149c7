package setting

import (
	"encoding/json"
	"testing"
)

func TestChangeCopy(t *testing.T) {
	orig := Change{SettingName: "TEMPERATURE", Value: "SET", Amount: &Amount{Amount: 21, Unit: "°C"}}
	cp := orig.Copy()
	cp.Amount.Amount = 30
	cp.Value = "INCREASE"

	if orig.Amount.Amount != 21 || orig.Value != "SET" {
		t.Errorf("Copy shares memory with the original: %+v", orig)
	}

	renamed := orig.WithSetting("FAN_SPEED")
	if renamed.SettingName != "FAN_SPEED" || orig.SettingName != "TEMPERATURE" {
		t.Errorf("WithSetting = %+v, original = %+v", renamed, orig)
	}
	if renamed.Amount == orig.Amount {
		t.Error("WithSetting should copy the amount")
	}

	var noAmount Change
	if noAmount.Copy().Amount != nil {
		t.Error("Copy of a change without amount should have no amount")
	}
}

func TestStatusWithSetting(t *testing.T) {
	s := Status{SettingName: "SEAT_HEATING", Amount: &Amount{Amount: 2}}
	r := s.WithSetting("LEFT_SEAT_HEATING")
	r.Amount.Amount = 3
	if s.Amount.Amount != 2 {
		t.Error("WithSetting should not share the amount")
	}
}

func TestValidityOperationStatus(t *testing.T) {
	tests := []struct {
		validity Validity
		want     OperationStatus
	}{
		{Valid, ToDo},
		{InvalidMissingSetting, UnsupportedSettingName},
		{InvalidSettingName, UnsupportedSettingName},
		{InvalidMissingValue, UnsupportedSettingValueCombination},
		{InvalidSettingValueCombination, UnsupportedSettingValueCombination},
		{InvalidMissingAmount, UnsupportedMissingAmount},
		{InvalidExtraAmount, UnsupportedExtraAmount},
		{InvalidAmountUnit, UnsupportedAmountUnit},
		{InvalidAmountOutOfRange, UnsupportedAmountOutOfRange},
		{Validity("SOMETHING_ELSE"), Unsupported},
	}
	for _, tt := range tests {
		if got := tt.validity.OperationStatus(); got != tt.want {
			t.Errorf("%s.OperationStatus() = %s, want %s", tt.validity, got, tt.want)
		}
	}
}

func TestValueRelated(t *testing.T) {
	for _, v := range []Validity{InvalidMissingValue, InvalidSettingValueCombination, InvalidValue} {
		if !v.ValueRelated() {
			t.Errorf("%s should be value related", v)
		}
	}
	for _, v := range []Validity{Valid, InvalidMissingAmount, InvalidSettingName} {
		if v.ValueRelated() {
			t.Errorf("%s should not be value related", v)
		}
	}
}

func TestOperationStatusJSON(t *testing.T) {
	c := Change{SettingName: "DEFOG", Value: "ON", OperationStatus: UnsupportedExtraAmount}
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var back Change
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.OperationStatus != UnsupportedExtraAmount {
		t.Errorf("OperationStatus = %s, want UNSUPPORTED_EXTRA_AMOUNT", back.OperationStatus)
	}

	var s OperationStatus
	if err := s.UnmarshalText([]byte("BOGUS")); err == nil {
		t.Error("UnmarshalText should reject unknown names")
	}
	if got := OperationStatus(99).String(); got != "OperationStatus(99)" {
		t.Errorf("String() = %q", got)
	}
}
