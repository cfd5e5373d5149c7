package filter

import (
	"fmt"

	"github.com/cognicore/cabin/pkg/cabin/setting"
)

// EntityKind is a recognized entity type.
type EntityKind string

const (
	EntitySetting EntityKind = "SETTING"
	EntityValue   EntityKind = "VALUE"
	EntityAmount  EntityKind = "AMOUNT"
	EntityType    EntityKind = "TYPE"
	EntityUnit    EntityKind = "UNIT"
	EntityIndex   EntityKind = "INDEX"
)

// Kinds lists every entity kind.
var Kinds = []EntityKind{EntitySetting, EntityValue, EntityAmount, EntityType, EntityUnit, EntityIndex}

// ParseKind returns the entity kind named s.
func ParseKind(s string) (EntityKind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// Entities maps entity kinds to recognized values in utterance order. A
// missing key means the entity was not recognized.
type Entities map[EntityKind][]string

// Has reports whether at least one value of kind was recognized.
func (e Entities) Has(kind EntityKind) bool {
	return len(e[kind]) > 0
}

// Clone returns a deep copy.
func (e Entities) Clone() Entities {
	if e == nil {
		return nil
	}
	out := make(Entities, len(e))
	for k, v := range e {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Recognized intents.
const (
	IntentChange      = "VEHICLE_SETTINGS_CHANGE"
	IntentDeclarative = "VEHICLE_SETTINGS_DECLARATIVE"
	IntentCheck       = "VEHICLE_SETTINGS_CHECK"
	IntentConfirmYes  = "SETTING_CHANGE_CONFIRMATION_YES"
)

// IsChangeIntent reports whether intent asks to change settings.
func IsChangeIntent(intent string) bool {
	return intent == IntentChange || intent == IntentDeclarative
}

// IsCheckIntent reports whether intent asks for the state of settings.
func IsCheckIntent(intent string) bool {
	return intent == IntentCheck
}

// Stage is the point in a conversation the next utterance answers.
type Stage int

const (
	// StageNone is a fresh request.
	StageNone Stage = iota
	// StageNameSelection narrows several candidate settings.
	StageNameSelection
	// StageValueSelection narrows several candidate values.
	StageValueSelection
	// StageChangeConfirmation confirms a pending change.
	StageChangeConfirmation
)

var stageNames = [...]string{
	StageNone:               "none",
	StageNameSelection:      "name_selection",
	StageValueSelection:     "value_selection",
	StageChangeConfirmation: "change_confirmation",
}

func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// ParseStage returns the stage named s.
func ParseStage(s string) (Stage, error) {
	for i, name := range stageNames {
		if name == s {
			return Stage(i), nil
		}
	}
	return StageNone, fmt.Errorf("unknown stage %q", s)
}

// MarshalText encodes the stage by name.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a stage name.
func (s *Stage) UnmarshalText(text []byte) error {
	st, err := ParseStage(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Utterance is one recognizer result.
type Utterance struct {
	Intent   string   `json:"intent"`
	Entities Entities `json:"entities,omitempty"`
}

// State is the per-conversation state the caller carries between
// utterances.
type State struct {
	Intent   string           `json:"intent"`
	Stage    Stage            `json:"stage"`
	Entities Entities         `json:"entities,omitempty"`
	Changes  []setting.Change `json:"changes,omitempty"`
	Statuses []setting.Status `json:"statuses,omitempty"`
}

// Clear resets the state for a fresh request.
func (s *State) Clear() {
	*s = State{}
}

// SettingNames returns the distinct setting names of the pending changes,
// then of the pending statuses, in order.
func (s *State) SettingNames() []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, c := range s.Changes {
		add(c.SettingName)
	}
	for _, st := range s.Statuses {
		add(st.SettingName)
	}
	return names
}

// SettingValues returns the distinct values of the pending changes in order.
func (s *State) SettingValues() []string {
	seen := make(map[string]bool)
	var values []string
	for _, c := range s.Changes {
		if c.Value != "" && !seen[c.Value] {
			seen[c.Value] = true
			values = append(values, c.Value)
		}
	}
	return values
}
