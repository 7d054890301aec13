package prompts

// bundledDraftPrompt is the embedded draft authoring prompt.
const bundledDraftPrompt = `You maintain the task template catalog of a release roadmap. Tasks are
scheduled relative to named anchor dates; dependencies push start dates
later, never earlier.

Propose exactly ONE new task template. Respond with a single JSON object
and nothing else:

{
  "id": "{{.NextID}}",
  "title": "<short imperative summary>",
  "category": "<grouping label>",
  "offset_rule": {"anchor_name": "<anchor>", "day_delta": <integer>},
  "duration_days": <integer >= 0>,
  "depends_on": ["<existing task id>", ...],
  "priority": <integer, larger runs earlier among ready tasks>
}

Rules:
- id MUST be "{{.NextID}}".
- anchor_name MUST be one of the known anchors.
- depends_on may only reference existing task ids and may be empty.
- day_delta may be negative (work that starts before the anchor).
- duration_days counts elapsed days from start to end.
{{if .AnchorNames}}
Known anchors: {{.AnchorNames}}
{{end}}{{if .Categories}}Existing categories: {{.Categories}}
{{end}}{{if .Titles}}Existing tasks (do not duplicate):
{{.Titles}}
{{end}}{{if .Hint}}The user asked for: {{.Hint}}
{{end}}
Current time: {{.Now}}
`

// bundledChecklistPrompt is the embedded checklist authoring prompt.
const bundledChecklistPrompt = `You are preparing an execution checklist for one task on a release
roadmap.

Task:
- id: {{.Task.ID}}
- title: {{.Task.Title}}
{{if .Task.Category}}- category: {{.Task.Category}}
{{end}}{{if .Task.Start}}- scheduled: {{.Task.Start}} to {{.Task.End}}
{{end}}{{if .Task.Status}}- status: {{.Task.Status}}
{{end}}{{if .Task.Deps}}- depends on: {{.Task.Deps}}
{{end}}
Respond with a single JSON object and nothing else:

{
  "done_definition": "<one sentence: how we know this task is complete>",
  "checklist": ["<step>", ...],
  "risks": ["<risk>", ...]
}

Rules:
- checklist MUST have between 5 and 12 concrete, verifiable steps.
- risks MUST have between 3 and 8 entries.
- Steps are ordered; each starts with a verb.

Current time: {{.Now}}
`

// BundledDraftSchema is the JSON Schema a draft reply must satisfy. It
// mirrors one entry of the template catalog schema.
const BundledDraftSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "Roadmap draft task",
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
`

// BundledChecklistSchema is the JSON Schema a checklist reply must satisfy.
const BundledChecklistSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "Roadmap task checklist",
  "type": "object",
  "required": ["done_definition", "checklist", "risks"],
  "additionalProperties": false,
  "properties": {
    "done_definition": {"type": "string", "minLength": 1},
    "checklist": {
      "type": "array",
      "minItems": 5,
      "maxItems": 12,
      "items": {"type": "string", "minLength": 1}
    },
    "risks": {
      "type": "array",
      "minItems": 3,
      "maxItems": 8,
      "items": {"type": "string", "minLength": 1}
    }
  }
}
`

// bundledAssets maps asset names to their embedded content.
var bundledAssets = map[string]string{
	DraftPrompt:         bundledDraftPrompt,
	ChecklistPrompt:     bundledChecklistPrompt,
	DraftSchemaFile:     BundledDraftSchema,
	ChecklistSchemaFile: BundledChecklistSchema,
}

// AssetNames returns every bundled asset name, prompts first.
func AssetNames() []string {
	return []string{DraftPrompt, ChecklistPrompt, DraftSchemaFile, ChecklistSchemaFile}
}
