package renderdef

import (
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// documentSchema describes the structure accepted by "set". Version
// inference and plane/index checks happen outside the schema so they can
// report their own errors.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Rendering settings",
  "type": "object",
  "required": ["channels"],
  "properties": {
    "version": {"type": "integer", "minimum": 1, "maximum": 2},
    "greyscale": {"type": "boolean"},
    "z": {"type": "number"},
    "t": {"type": "number"},
    "channels": {
      "type": "object",
      "additionalProperties": {"$ref": "#/definitions/channel"}
    }
  },
  "definitions": {
    "channel": {
      "type": "object",
      "properties": {
        "active": {"type": "boolean"},
        "color": {"type": "string", "minLength": 1},
        "label": {"type": ["string", "number"]},
        "start": {"type": "number"},
        "end": {"type": "number"},
        "min": {"type": "number"},
        "max": {"type": "number"}
      },
      "additionalProperties": false
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("renderdef-schema.json", documentSchema)

// Validate checks a decoded document against the settings schema. raw must
// hold JSON-shaped values (string keys, json.Number numbers).
func Validate(raw map[string]any) error {
	if err := compiledSchema.Validate(any(raw)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return nil
}
