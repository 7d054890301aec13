package config

import (
	"flag"
	"sort"
	"strings"

	"github.com/nibzard/roadmap-go/internal/utils"
)

// anchorsValue collects repeated -anchor name=YYYY-MM-DD pairs.
type anchorsValue struct {
	pairs map[string]string
}

func (a *anchorsValue) String() string {
	if a == nil || len(a.pairs) == 0 {
		return ""
	}
	names := make([]string, 0, len(a.pairs))
	for name := range a.pairs {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+a.pairs[name])
	}
	return strings.Join(parts, ",")
}

func (a *anchorsValue) Set(s string) error {
	name, date, err := utils.SplitKeyValue(s)
	if err != nil {
		return err
	}
	if a.pairs == nil {
		a.pairs = make(map[string]string)
	}
	a.pairs[name] = date
	return nil
}

// parseFlags defines and parses CLI flags.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string) error {
	return parseFlagsHelper(cfg, fs, args, nil, "")
}

// parseFlagsWithSources parses CLI flags and updates source tracking.
func parseFlagsWithSources(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	return parseFlagsHelper(cfg, fs, args, sources, SourceFlag)
}

// parseFlagsHelper is the shared implementation for flag parsing.
// Flags are bound to locals seeded from the current config so unset
// flags keep their layered values; only flags the user actually passed
// are applied (and, when sources is non-nil, tracked).
func parseFlagsHelper(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource, source ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("roadmap", flag.ContinueOnError)
	}

	// Consumed by explicitConfigPath before files load; registered so
	// Parse accepts it and it shows in help.
	fs.String("config", "", "Config file path (skips user/project discovery)")

	// Paths
	templatesFile := fs.String("templates", cfg.TemplatesFile, "Path to templates file")
	schemaFile := fs.String("schema", cfg.SchemaFile, "Path to schema file")
	dbFile := fs.String("db", cfg.DBFile, "Path to the state database")
	logDir := fs.String("log-dir", cfg.LogDir, "Log directory")

	// Scheduling
	conflictPolicy := fs.String("conflict-policy", cfg.ConflictPolicy, "Conflict policy (flag or block)")
	tieBreak := fs.String("tie-break", cfg.TieBreak, "Ordering tie-break (priority or identifier)")
	clampAnchor := fs.String("clamp-anchor", cfg.ClampAnchor, "Anchor name no task may start before")
	sortKey := fs.String("sort", cfg.DefaultSortKey, "Default export sort (start, topo, category)")
	var anchors anchorsValue
	fs.Var(&anchors, "anchor", "Anchor date as name=YYYY-MM-DD (repeatable)")

	// Agents and hooks
	agentName := fs.String("agent", cfg.Agent, "Agent for draft and checklist commands")
	hook := fs.String("hook", cfg.HookCommand, "Hook command to run after generate")
	quiet := fs.Bool("quiet", cfg.Quiet, "Suppress console log output")

	// Logging
	logLevel := fs.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	logTimestamps := fs.Bool("log-timestamps", cfg.LogTimestamps, "Show timestamps in logs")
	logCaller := fs.Bool("log-caller", cfg.LogCaller, "Show caller location in logs")

	// Dev-only flags
	var promptDir *string
	var printPrompt *bool
	if PromptDevModeEnabled() {
		promptDir = fs.String("prompt-dir", cfg.PromptDir, "Prompt directory override (dev only)")
		printPrompt = fs.Bool("print-prompt", cfg.PrintPrompt, "Print rendered prompts before running (dev only)")
	}

	// Agent binaries and models
	codexBinary := fs.String("codex-bin", cfg.GetAgentBinary("codex"), "Codex binary")
	claudeBinary := fs.String("claude-bin", cfg.GetAgentBinary("claude"), "Claude binary")
	codexModel := fs.String("codex-model", cfg.GetAgentModel("codex"), "Codex model")
	claudeModel := fs.String("claude-model", cfg.GetAgentModel("claude"), "Claude model")
	codexReasoning := fs.String("codex-reasoning", cfg.GetAgentReasoning("codex"), "Codex reasoning effort (e.g., low, medium, high)")
	codexArgsStr := fs.String("codex-args", strings.Join(cfg.GetAgentArgs("codex"), ","), "Comma-separated extra args for codex (e.g., --foo,bar)")
	claudeArgsStr := fs.String("claude-args", strings.Join(cfg.GetAgentArgs("claude"), ","), "Comma-separated extra args for claude (e.g., --foo,bar)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	flagSet := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { flagSet[f.Name] = true })

	apply := func(name, field string, assign func()) {
		if !flagSet[name] {
			return
		}
		assign()
		if sources != nil && field != "" {
			sources[field] = source
		}
	}

	apply("templates", "templates_file", func() { cfg.TemplatesFile = *templatesFile })
	apply("schema", "schema_file", func() { cfg.SchemaFile = *schemaFile })
	apply("db", "db_file", func() { cfg.DBFile = *dbFile })
	apply("log-dir", "log_dir", func() { cfg.LogDir = *logDir })
	apply("conflict-policy", "conflict_policy", func() { cfg.ConflictPolicy = *conflictPolicy })
	apply("tie-break", "tie_break", func() { cfg.TieBreak = *tieBreak })
	apply("clamp-anchor", "clamp_anchor", func() { cfg.ClampAnchor = *clampAnchor })
	apply("sort", "default_sort", func() { cfg.DefaultSortKey = *sortKey })
	apply("anchor", "anchors", func() {
		for name, date := range anchors.pairs {
			cfg.SetAnchor(name, date)
		}
	})
	apply("agent", "agent", func() { cfg.Agent = *agentName })
	apply("hook", "hook_command", func() { cfg.HookCommand = *hook })
	apply("quiet", "quiet", func() { cfg.Quiet = *quiet })
	apply("log-level", "log_level", func() { cfg.LogLevel = *logLevel })
	apply("log-format", "log_format", func() { cfg.LogFormat = *logFormat })
	apply("log-timestamps", "log_timestamps", func() { cfg.LogTimestamps = *logTimestamps })
	apply("log-caller", "log_caller", func() { cfg.LogCaller = *logCaller })
	if promptDir != nil {
		apply("prompt-dir", "", func() { cfg.PromptDir = *promptDir })
	}
	if printPrompt != nil {
		apply("print-prompt", "", func() { cfg.PrintPrompt = *printPrompt })
	}

	apply("codex-bin", "codex_binary", func() {
		agent := cfg.Agents.GetAgent("codex")
		agent.Binary = *codexBinary
		cfg.Agents.SetAgent("codex", agent)
	})
	apply("claude-bin", "claude_binary", func() {
		agent := cfg.Agents.GetAgent("claude")
		agent.Binary = *claudeBinary
		cfg.Agents.SetAgent("claude", agent)
	})
	apply("codex-model", "codex_model", func() {
		agent := cfg.Agents.GetAgent("codex")
		agent.Model = *codexModel
		cfg.Agents.SetAgent("codex", agent)
	})
	apply("claude-model", "claude_model", func() {
		agent := cfg.Agents.GetAgent("claude")
		agent.Model = *claudeModel
		cfg.Agents.SetAgent("claude", agent)
	})
	apply("codex-reasoning", "codex_reasoning", func() {
		agent := cfg.Agents.GetAgent("codex")
		agent.Reasoning = *codexReasoning
		cfg.Agents.SetAgent("codex", agent)
	})
	apply("codex-args", "codex_args", func() {
		agent := cfg.Agents.GetAgent("codex")
		agent.Args = utils.SplitAndTrim(*codexArgsStr, ",")
		cfg.Agents.SetAgent("codex", agent)
	})
	apply("claude-args", "claude_args", func() {
		agent := cfg.Agents.GetAgent("claude")
		agent.Args = utils.SplitAndTrim(*claudeArgsStr, ",")
		cfg.Agents.SetAgent("claude", agent)
	})

	return nil
}
