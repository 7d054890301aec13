package templates

import (
	"fmt"
	"os"
)

// BundledSchema is the JSON Schema for template catalog files. It ships in
// the binary so validation works without any schema file on disk; init
// writes it out for editors that want one.
const BundledSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "Roadmap template catalog",
  "type": "object",
  "required": ["schema_version", "templates"],
  "additionalProperties": false,
  "properties": {
    "schema_version": {"const": 1},
    "updated_at": {"type": "string"},
    "templates": {
      "type": "array",
      "items": {"$ref": "#/$defs/template"}
    }
  },
  "$defs": {
    "template": {
      "type": "object",
      "required": ["id", "title", "offset_rule", "duration_days", "priority"],
      "additionalProperties": false,
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "title": {"type": "string", "minLength": 1},
        "category": {"type": "string"},
        "offset_rule": {
          "type": "object",
          "required": ["anchor_name", "day_delta"],
          "additionalProperties": false,
          "properties": {
            "anchor_name": {"type": "string", "minLength": 1},
            "day_delta": {"type": "integer"}
          }
        },
        "duration_days": {"type": "integer", "minimum": 0},
        "depends_on": {
          "type": "array",
          "items": {"type": "string", "minLength": 1}
        },
        "priority": {"type": "integer"},
        "status": {
          "enum": ["pending", "in_progress", "done", "blocked", "skipped"]
        }
      }
    }
  }
}
`

// WriteSchema writes the bundled schema to path.
func WriteSchema(path string) error {
	if err := os.WriteFile(path, []byte(BundledSchema), 0644); err != nil {
		return fmt.Errorf("write schema file: %w", err)
	}
	return nil
}
