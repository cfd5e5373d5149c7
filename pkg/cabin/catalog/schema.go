package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/cabin/pkg/cabin/internalerr"
)

const settingsSchema = `{
  "type": ["array", "null"],
  "items": {
    "type": "object",
    "required": ["canonicalName"],
    "properties": {
      "canonicalName": {"type": "string", "minLength": 1},
      "categories": {"type": "array", "items": {"type": "string"}},
      "allowsAmount": {"type": "boolean"},
      "includedSettings": {"type": "array", "items": {"type": "string"}},
      "values": {
        "type": "array",
        "items": {
          "type": "object",
          "required": ["canonicalName"],
          "properties": {
            "canonicalName": {"type": "string", "minLength": 1},
            "requiresAmount": {"type": "boolean"},
            "requiresConfirmation": {"type": "boolean"},
            "antonym": {"type": "string"},
            "changesSignOfAmount": {"type": "boolean"}
          }
        }
      },
      "amounts": {
        "type": "array",
        "items": {
          "type": "object",
          "properties": {
            "unit": {"type": "string"},
            "min": {"type": "number"},
            "max": {"type": "number"}
          }
        }
      }
    }
  }
}`

const alternativesSchema = `{
  "type": ["object", "null"],
  "additionalProperties": {
    "type": "object",
    "properties": {
      "alternativeNames": {"type": "array", "items": {"type": "string"}},
      "alternativeValueNames": {
        "type": "object",
        "additionalProperties": {"type": "array", "items": {"type": "string"}}
      }
    }
  }
}`

var (
	settingsValidator     = jsonschema.MustCompileString("settings.json", settingsSchema)
	alternativesValidator = jsonschema.MustCompileString("alternatives.json", alternativesSchema)
)

// validateDocument checks a YAML or JSON document against schema. The
// document is normalized to its JSON form first so numbers and map keys
// have the types the validator expects.
func validateDocument(schema *jsonschema.Schema, what string, data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", what, err)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("parse %s: %w", what, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("parse %s: %w", what, err)
	}

	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("invalid %s: %v: %w", what, err, internalerr.ErrInvalidCatalog)
	}
	return nil
}
