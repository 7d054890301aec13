package config

import (
	"fmt"

	"github.com/nibzard/roadmap-go/internal/utils"
)

// ConfigSource names the layer a configuration value came from. Layers
// apply in precedence order: defaults, user file, project file,
// environment, flags.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources pairs a loaded Config with per-field provenance,
// for doctor output.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
	// ConfigFile is the last config file that loaded; empty when only
	// defaults, environment, and flags applied.
	ConfigFile string
}

// Default values.
const (
	DefaultTemplatesFile  = "templates.json"
	DefaultSchemaFile     = "templates.schema.json"
	DefaultDBFile         = ".roadmap/roadmap.db"
	DefaultLogDir         = "~/.roadmap"
	DefaultConflictPolicy = "flag"
	DefaultTieBreak       = "priority"
	DefaultSort           = "start"
	DefaultAgent          = "claude"
)

// DefaultAgentBinaries maps the built-in agent names to the binaries
// looked up on PATH when nothing overrides them.
func DefaultAgentBinaries() map[string]string {
	return map[string]string{"codex": "codex", "claude": "claude"}
}

// Config holds the full configuration for roadmap.
type Config struct {
	// Paths
	TemplatesFile string `toml:"templates_file"`
	SchemaFile    string `toml:"schema_file"`
	DBFile        string `toml:"db_file"`
	LogDir        string `toml:"log_dir"`
	PromptDir     string `toml:"-"` // Hidden, dev-only (requires ROADMAP_PROMPT_MODE=dev)

	// Dev options (hidden, require ROADMAP_PROMPT_MODE=dev)
	PrintPrompt bool `toml:"-"` // Print rendered prompts before running

	// Scheduling
	ConflictPolicy string            `toml:"conflict_policy"`
	TieBreak       string            `toml:"tie_break"`
	ClampAnchor    string            `toml:"clamp_anchor"`
	DefaultSortKey string            `toml:"default_sort"`
	Anchors        map[string]string `toml:"anchors"` // name -> YYYY-MM-DD

	// Agents
	Agent  string      `toml:"agent"` // default agent for draft/checklist
	Agents AgentConfig `toml:"agents"`

	// Hooks
	HookCommand string `toml:"hook_command"`

	// Output
	Quiet bool `toml:"quiet"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Project root (computed)
	ProjectRoot string `toml:"-"`
}

// SetAnchor records a named anchor date, creating the map if needed.
func (c *Config) SetAnchor(name, date string) {
	if c.Anchors == nil {
		c.Anchors = make(map[string]string)
	}
	c.Anchors[name] = date
}

// AgentConfig maps normalized agent names (codex, claude, or any custom
// [agents.<name>] entry) to their settings.
type AgentConfig map[string]Agent

// UnmarshalTOML accepts both the flat agents.<name> layout and the
// legacy agents.agents.<name> nesting for custom agents.
func (ac *AgentConfig) UnmarshalTOML(data interface{}) error {
	table, ok := data.(map[string]interface{})
	if !ok {
		return fmt.Errorf("agents config must be a table")
	}
	if *ac == nil {
		*ac = AgentConfig{}
	}
	return mergeAgentTables(*ac, table)
}

// GetAgent returns the settings stored under the normalized agent name.
// Unknown names and nil maps yield the zero Agent.
func (ac AgentConfig) GetAgent(agentType string) Agent {
	return ac[utils.NormalizeAgentName(agentType)]
}

// SetAgent stores settings under the normalized agent name. Names that
// normalize to the empty string are dropped.
func (ac *AgentConfig) SetAgent(agentType string, agent Agent) {
	key := utils.NormalizeAgentName(agentType)
	if key == "" {
		return
	}
	if *ac == nil {
		*ac = AgentConfig{}
	}
	(*ac)[key] = agent
}

// PromptFormat selects how a prompt reaches the agent process.
type PromptFormat string

const (
	// PromptFormatStdin pipes the prompt to the agent's stdin.
	PromptFormatStdin PromptFormat = "stdin"
	// PromptFormatArg appends the prompt as the final argument.
	PromptFormatArg PromptFormat = "arg"
)

// Agent holds the per-agent settings from an [agents.<name>] table.
type Agent struct {
	Binary         string       `toml:"binary"`
	Model          string       `toml:"model"`
	Reasoning      string       `toml:"reasoning"` // codex reasoning effort (low, medium, high)
	Args           []string     `toml:"args"`      // extra arguments placed before the prompt
	PromptFormat   PromptFormat `toml:"prompt_format"`
	TimeoutSeconds int          `toml:"timeout_seconds"` // per-run timeout override, 0 keeps the default
}
