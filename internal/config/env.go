package config

import (
	"os"
	"strconv"

	"github.com/nibzard/roadmap-go/internal/utils"
)

// loadFromEnv overrides config from environment variables.
func loadFromEnv(cfg *Config) {
	loadFromEnvHelper(cfg, nil, "")
}

// loadFromEnvWithSources loads environment variables and updates source tracking.
func loadFromEnvWithSources(cfg *Config, sources map[string]ConfigSource) {
	loadFromEnvHelper(cfg, sources, SourceEnv)
}

// loadFromEnvHelper is the shared implementation for env loading.
// If sources is non-nil, it tracks the source of each value.
func loadFromEnvHelper(cfg *Config, sources map[string]ConfigSource, source ConfigSource) {
	track := func(field string) {
		if sources != nil {
			sources[field] = source
		}
	}

	if v := os.Getenv("ROADMAP_TEMPLATES"); v != "" {
		cfg.TemplatesFile = v
		track("templates_file")
	}
	if v := os.Getenv("ROADMAP_SCHEMA"); v != "" {
		cfg.SchemaFile = v
		track("schema_file")
	}
	if v := os.Getenv("ROADMAP_DB"); v != "" {
		cfg.DBFile = v
		track("db_file")
	}
	if v := os.Getenv("ROADMAP_LOG_DIR"); v != "" {
		cfg.LogDir = v
		track("log_dir")
	}
	if v := os.Getenv("ROADMAP_CONFLICT_POLICY"); v != "" {
		cfg.ConflictPolicy = v
		track("conflict_policy")
	}
	if v := os.Getenv("ROADMAP_TIE_BREAK"); v != "" {
		cfg.TieBreak = v
		track("tie_break")
	}
	if v := os.Getenv("ROADMAP_CLAMP_ANCHOR"); v != "" {
		cfg.ClampAnchor = v
		track("clamp_anchor")
	}
	if v := os.Getenv("ROADMAP_SORT"); v != "" {
		cfg.DefaultSortKey = v
		track("default_sort")
	}
	if v := os.Getenv("ROADMAP_AGENT"); v != "" {
		cfg.Agent = v
		track("agent")
	}
	if v := os.Getenv("ROADMAP_HOOK"); v != "" {
		cfg.HookCommand = v
		track("hook_command")
	}
	if v := os.Getenv("ROADMAP_QUIET"); v != "" {
		cfg.Quiet = boolFromString(v)
		track("quiet")
	}
	if PromptDevModeEnabled() {
		if v := os.Getenv("ROADMAP_PROMPT_DIR"); v != "" {
			cfg.PromptDir = v
		}
		if v := os.Getenv("ROADMAP_PRINT_PROMPT"); v != "" {
			cfg.PrintPrompt = boolFromString(v)
		}
	}

	// Logging configuration
	if v := os.Getenv("ROADMAP_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
		track("log_level")
	}
	if v := os.Getenv("ROADMAP_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
		track("log_format")
	}
	if v := os.Getenv("ROADMAP_LOG_TIMESTAMPS"); v != "" {
		cfg.LogTimestamps = boolFromString(v)
		track("log_timestamps")
	}
	if v := os.Getenv("ROADMAP_LOG_CALLER"); v != "" {
		cfg.LogCaller = boolFromString(v)
		track("log_caller")
	}

	// Agent binaries and models keep their tool-native variable names.
	if v := os.Getenv("CODEX_BIN"); v != "" {
		agent := cfg.Agents.GetAgent("codex")
		agent.Binary = v
		cfg.Agents.SetAgent("codex", agent)
		track("codex_binary")
	}
	if v := os.Getenv("CLAUDE_BIN"); v != "" {
		agent := cfg.Agents.GetAgent("claude")
		agent.Binary = v
		cfg.Agents.SetAgent("claude", agent)
		track("claude_binary")
	}
	if v := os.Getenv("CODEX_MODEL"); v != "" {
		agent := cfg.Agents.GetAgent("codex")
		agent.Model = v
		cfg.Agents.SetAgent("codex", agent)
		track("codex_model")
	}
	if v := os.Getenv("CLAUDE_MODEL"); v != "" {
		agent := cfg.Agents.GetAgent("claude")
		agent.Model = v
		cfg.Agents.SetAgent("claude", agent)
		track("claude_model")
	}
	if v := os.Getenv("CODEX_REASONING"); v != "" {
		agent := cfg.Agents.GetAgent("codex")
		agent.Reasoning = v
		cfg.Agents.SetAgent("codex", agent)
		track("codex_reasoning")
	}
	if v := os.Getenv("CODEX_REASONING_EFFORT"); v != "" {
		agent := cfg.Agents.GetAgent("codex")
		agent.Reasoning = v
		cfg.Agents.SetAgent("codex", agent)
		track("codex_reasoning")
	}
	if v := os.Getenv("CODEX_ARGS"); v != "" {
		agent := cfg.Agents.GetAgent("codex")
		agent.Args = utils.SplitAndTrim(v, ",")
		cfg.Agents.SetAgent("codex", agent)
		track("codex_args")
	}
	if v := os.Getenv("CLAUDE_ARGS"); v != "" {
		agent := cfg.Agents.GetAgent("claude")
		agent.Args = utils.SplitAndTrim(v, ",")
		cfg.Agents.SetAgent("claude", agent)
		track("claude_args")
	}
	if v := os.Getenv("ROADMAP_AGENT_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			name := cfg.Agent
			if name == "" {
				name = DefaultAgent
			}
			agent := cfg.Agents.GetAgent(name)
			agent.TimeoutSeconds = secs
			cfg.Agents.SetAgent(name, agent)
		}
	}
}
