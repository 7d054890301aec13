// Package templates parses, validates, and updates template catalog files.
//
// The catalog file format (templates.json) follows the schema bundled in
// this package (also written to templates.schema.json by init):
//
//	{
//	  "schema_version": 1,
//	  "updated_at": "2026-08-25T12:00:00Z",
//	  "templates": [
//	    {
//	      "id": "T01",
//	      "title": "Book venue",
//	      "category": "logistics",
//	      "offset_rule": {"anchor_name": "event_date", "day_delta": -60},
//	      "duration_days": 3,
//	      "depends_on": ["T02"],
//	      "priority": 3,
//	      "status": "pending"
//	    }
//	  ]
//	}
//
// # Validation
//
// The package supports two validation modes:
//
// 1. JSON Schema validation (preferred):
//   - Full validation against JSON Schema draft-2020-12
//   - Uses an on-disk schema when one is configured, else the bundled copy
//
// 2. Minimal fallback validation (when no schema compiles):
//   - Basic structural checks (schema_version, templates presence)
//   - Template field validation (id, title, anchor name, duration, status)
//
// Relational checks (duplicate identifiers, dependency references,
// self-references) always run, since JSON Schema cannot express them.
//
// # Status Values
//
//   - "pending": task has not started
//   - "in_progress": task is being worked on
//   - "done": task is complete
//   - "blocked": task cannot proceed
//   - "skipped": task was deliberately dropped
//
// The status set is closed; unknown values are rejected rather than carried.
//
// # Priority
//
// Priority is a weight: larger values win scheduling tie-breaks. It has no
// fixed range.
//
// # File Format
//
// When writing catalog files, the package uses:
//   - 2-space indentation
//   - Trailing newline
//   - Stable key ordering (via JSON marshaling)
package templates
