package setting

import (
	"fmt"
	"strconv"
)

// OperationStatus is the lifecycle state of a setting operation.
type OperationStatus int

const (
	ToDo OperationStatus = iota
	Successful
	Unsuccessful
	NoOp
	Unsupported
	UnsupportedSettingName
	UnsupportedSettingValueCombination
	UnsupportedAmountOutOfRange
	UnsupportedMissingAmount
	UnsupportedExtraAmount
	UnsupportedAmountUnit
)

var statusNames = [...]string{
	ToDo:                               "TO_DO",
	Successful:                         "SUCCESSFUL",
	Unsuccessful:                       "UNSUCCESSFUL",
	NoOp:                               "NO_OP",
	Unsupported:                        "UNSUPPORTED",
	UnsupportedSettingName:             "UNSUPPORTED_SETTING_NAME",
	UnsupportedSettingValueCombination: "UNSUPPORTED_SETTING_VALUE_COMBINATION",
	UnsupportedAmountOutOfRange:        "UNSUPPORTED_AMOUNT_OUT_OF_RANGE",
	UnsupportedMissingAmount:           "UNSUPPORTED_MISSING_AMOUNT",
	UnsupportedExtraAmount:             "UNSUPPORTED_EXTRA_AMOUNT",
	UnsupportedAmountUnit:              "UNSUPPORTED_AMOUNT_UNIT",
}

func (s OperationStatus) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "OperationStatus(" + strconv.Itoa(int(s)) + ")"
}

// MarshalText encodes the status by name.
func (s OperationStatus) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(statusNames) {
		return nil, fmt.Errorf("unknown operation status %d", int(s))
	}
	return []byte(statusNames[s]), nil
}

// UnmarshalText decodes a status name.
func (s *OperationStatus) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if name == string(text) {
			*s = OperationStatus(i)
			return nil
		}
	}
	return fmt.Errorf("unknown operation status %q", text)
}

// Amount is a numeric quantity with an optional unit.
type Amount struct {
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit,omitempty"`
}

// Change is a requested setting change. An empty SettingName means the
// setting is left for the caller to infer from context.
type Change struct {
	SettingName      string          `json:"setting_name,omitempty"`
	Value            string          `json:"value,omitempty"`
	Amount           *Amount         `json:"amount,omitempty"`
	IsRelativeAmount bool            `json:"is_relative_amount,omitempty"`
	IsConfirmed      bool            `json:"is_confirmed,omitempty"`
	OperationStatus  OperationStatus `json:"operation_status"`
}

// Copy returns a change that shares no memory with c.
func (c Change) Copy() Change {
	if c.Amount != nil {
		a := *c.Amount
		c.Amount = &a
	}
	return c
}

// Setting returns the setting name.
func (c Change) Setting() string { return c.SettingName }

// WithSetting returns a copy of c for another setting.
func (c Change) WithSetting(name string) Change {
	c = c.Copy()
	c.SettingName = name
	return c
}

// Status is a request to report the current state of a setting.
type Status struct {
	SettingName     string          `json:"setting_name,omitempty"`
	Value           string          `json:"value,omitempty"`
	Amount          *Amount         `json:"amount,omitempty"`
	OperationStatus OperationStatus `json:"operation_status"`
}

// Copy returns a status that shares no memory with s.
func (s Status) Copy() Status {
	if s.Amount != nil {
		a := *s.Amount
		s.Amount = &a
	}
	return s
}

// Setting returns the setting name.
func (s Status) Setting() string { return s.SettingName }

// WithSetting returns a copy of s for another setting.
func (s Status) WithSetting(name string) Status {
	s = s.Copy()
	s.SettingName = name
	return s
}

// Operation is implemented by Change and Status.
type Operation[T any] interface {
	Setting() string
	WithSetting(name string) T
}

// Validity classifies whether a change can be carried out.
type Validity string

const (
	Valid                          Validity = "VALID"
	InvalidMissingSetting          Validity = "INVALID_MISSING_SETTING"
	InvalidMissingValue            Validity = "INVALID_MISSING_VALUE"
	InvalidSettingName             Validity = "INVALID_SETTING_NAME"
	InvalidSettingValueCombination Validity = "INVALID_SETTING_VALUE_COMBINATION"
	InvalidValue                   Validity = "INVALID_VALUE"
	InvalidMissingAmount           Validity = "INVALID_MISSING_AMOUNT"
	InvalidExtraAmount             Validity = "INVALID_EXTRA_AMOUNT"
	InvalidAmountUnit              Validity = "INVALID_AMOUNT_UNIT"
	InvalidAmountOutOfRange        Validity = "INVALID_AMOUNT_OUT_OF_RANGE"
)

// ValueRelated reports whether another value of the same setting might make
// the change valid.
func (v Validity) ValueRelated() bool {
	switch v {
	case InvalidMissingValue, InvalidSettingValueCombination, InvalidValue:
		return true
	}
	return false
}

// OperationStatus maps a validity to the status reported for the change.
func (v Validity) OperationStatus() OperationStatus {
	switch v {
	case Valid:
		return ToDo
	case InvalidMissingSetting, InvalidSettingName:
		return UnsupportedSettingName
	case InvalidMissingValue, InvalidSettingValueCombination, InvalidValue:
		return UnsupportedSettingValueCombination
	case InvalidMissingAmount:
		return UnsupportedMissingAmount
	case InvalidExtraAmount:
		return UnsupportedExtraAmount
	case InvalidAmountUnit:
		return UnsupportedAmountUnit
	case InvalidAmountOutOfRange:
		return UnsupportedAmountOutOfRange
	}
	return Unsupported
}
