package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# Roadmap configuration file
# Values can be overridden by environment variables or CLI flags

# Templates file (relative to project root)
templates_file = "templates.json"

# Schema file (auto-generated if missing)
schema_file = "templates.schema.json"

# State database (statuses and snapshots)
db_file = ".roadmap/roadmap.db"

# Log directory (supports ~ expansion and %VAR% on Windows)
log_dir = "~/.roadmap"

# Conflict policy: "flag" marks delayed tasks, "block" also sets their
# status to blocked
conflict_policy = "flag"

# Ordering tie-break: "priority" (higher first, then id) or "identifier"
tie_break = "priority"

# Optional anchor no task may start before
# clamp_anchor = "kickoff"

# Default export sort: start, topo, or category
default_sort = "start"

# Agent for draft and checklist commands (claude, codex, or a custom
# [agents.<name>] entry)
agent = "claude"

# Hook command to run after each generate
# hook_command = "/path/to/hook.sh"

# Anchor dates (name = "YYYY-MM-DD")
[anchors]
# event_date = "2024-06-01"
# kickoff = "2024-01-15"

# Per-agent settings
[agents.claude]
binary = "claude"
model = ""

[agents.codex]
binary = "codex"
model = ""
# reasoning = "medium"  # Optional: low, medium, or high reasoning effort

# Custom agents run through the generic adapter
# [agents.opencode]
# binary = "opencode"
# model = "custom-model"
# prompt_format = "stdin"
`
}
