package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file (~/.roadmap/roadmap.toml or OS-specific config dir)
// 3. Project config file (roadmap.toml or .roadmap.toml in current directory)
// 4. Environment variables
// 5. CLI flags
//
// An explicit config file (-config flag or ROADMAP_CONFIG) replaces the
// user and project discovery steps, and unlike them it must exist.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}

	// 1. Set defaults
	setDefaults(cfg)

	// 2./3. Config files
	if explicit := explicitConfigPath(args); explicit != "" {
		if err := loadConfigFile(cfg, explicit); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", explicit, err)
		}
	} else {
		userConfigFile := findUserConfigFile()
		if userConfigFile != "" {
			if err := loadConfigFile(cfg, userConfigFile); err != nil {
				return nil, fmt.Errorf("loading user config file %s: %w", userConfigFile, err)
			}
		}
		projectConfigFile := findProjectConfigFile()
		if projectConfigFile != "" {
			if err := loadConfigFile(cfg, projectConfigFile); err != nil {
				return nil, fmt.Errorf("loading project config file %s: %w", projectConfigFile, err)
			}
		}
	}

	// 4. Override from environment
	loadFromEnv(cfg)

	// 5. Parse CLI flags (they override everything)
	if err := parseFlags(cfg, fs, args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	// 6. Compute derived values
	if err := finalizeConfig(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}

	return cfg, nil
}

// LoadWithSources loads configuration and tracks the source of each value.
// Returns ConfigWithSources containing the config and a map of field names to their sources.
func LoadWithSources(fs *flag.FlagSet, args []string) (*ConfigWithSources, error) {
	sources := make(map[string]ConfigSource)
	cfg := &Config{}

	// 1. Set defaults (all fields start with default source)
	setDefaults(cfg)
	for _, field := range configFields() {
		sources[field] = SourceDefault
	}

	// 2./3. Config files
	configFile := ""
	if explicit := explicitConfigPath(args); explicit != "" {
		if err := loadConfigFileWithSources(cfg, explicit, sources, SourceProjFile); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", explicit, err)
		}
		configFile = explicit
	} else {
		userConfigFile := findUserConfigFile()
		if userConfigFile != "" {
			if err := loadConfigFileWithSources(cfg, userConfigFile, sources, SourceUserFile); err != nil {
				return nil, fmt.Errorf("loading user config file %s: %w", userConfigFile, err)
			}
			configFile = userConfigFile
		}
		projectConfigFile := findProjectConfigFile()
		if projectConfigFile != "" {
			if err := loadConfigFileWithSources(cfg, projectConfigFile, sources, SourceProjFile); err != nil {
				return nil, fmt.Errorf("loading project config file %s: %w", projectConfigFile, err)
			}
			configFile = projectConfigFile
		}
	}

	// 4. Override from environment
	loadFromEnvWithSources(cfg, sources)

	// 5. Parse CLI flags (they override everything)
	if err := parseFlagsWithSources(cfg, fs, args, sources); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	// 6. Compute derived values
	if err := finalizeConfig(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}

	return &ConfigWithSources{
		Config:     cfg,
		Sources:    sources,
		ConfigFile: configFile,
	}, nil
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"templates_file",
		"schema_file",
		"db_file",
		"log_dir",
		"conflict_policy",
		"tie_break",
		"clamp_anchor",
		"default_sort",
		"anchors",
		"agent",
		"hook_command",
		"quiet",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
		"codex_binary",
		"codex_model",
		"codex_reasoning",
		"codex_args",
		"claude_binary",
		"claude_model",
		"claude_args",
	}
}

// loadConfigFile loads TOML config from the given file.
func loadConfigFile(cfg *Config, path string) error {
	tempCfg := &Config{}
	if _, err := toml.DecodeFile(path, tempCfg); err != nil {
		return err
	}
	mergeFileConfig(cfg, tempCfg, nil, "")
	return nil
}

// loadConfigFileWithSources loads TOML config and updates source tracking.
func loadConfigFileWithSources(cfg *Config, path string, sources map[string]ConfigSource, source ConfigSource) error {
	tempCfg := &Config{}
	if _, err := toml.DecodeFile(path, tempCfg); err != nil {
		return err
	}
	mergeFileConfig(cfg, tempCfg, sources, source)
	return nil
}

// mergeFileConfig applies the set fields of a decoded file onto cfg.
// If sources is non-nil, it tracks which fields the file provided.
func mergeFileConfig(cfg, tempCfg *Config, sources map[string]ConfigSource, source ConfigSource) {
	if tempCfg.TemplatesFile != "" {
		setSource(&cfg.TemplatesFile, tempCfg.TemplatesFile, sources, "templates_file", source)
	}
	if tempCfg.SchemaFile != "" {
		setSource(&cfg.SchemaFile, tempCfg.SchemaFile, sources, "schema_file", source)
	}
	if tempCfg.DBFile != "" {
		setSource(&cfg.DBFile, tempCfg.DBFile, sources, "db_file", source)
	}
	if tempCfg.LogDir != "" {
		setSource(&cfg.LogDir, tempCfg.LogDir, sources, "log_dir", source)
	}
	if tempCfg.ConflictPolicy != "" {
		setSource(&cfg.ConflictPolicy, tempCfg.ConflictPolicy, sources, "conflict_policy", source)
	}
	if tempCfg.TieBreak != "" {
		setSource(&cfg.TieBreak, tempCfg.TieBreak, sources, "tie_break", source)
	}
	if tempCfg.ClampAnchor != "" {
		setSource(&cfg.ClampAnchor, tempCfg.ClampAnchor, sources, "clamp_anchor", source)
	}
	if tempCfg.DefaultSortKey != "" {
		setSource(&cfg.DefaultSortKey, tempCfg.DefaultSortKey, sources, "default_sort", source)
	}
	if len(tempCfg.Anchors) > 0 {
		// Anchors merge per name so a project file can add to the
		// user file's set without wiping it.
		for name, date := range tempCfg.Anchors {
			cfg.SetAnchor(name, date)
		}
		if sources != nil {
			sources["anchors"] = source
		}
	}
	if tempCfg.Agent != "" {
		setSource(&cfg.Agent, tempCfg.Agent, sources, "agent", source)
	}
	if tempCfg.HookCommand != "" {
		setSource(&cfg.HookCommand, tempCfg.HookCommand, sources, "hook_command", source)
	}
	if tempCfg.Quiet {
		setSource(&cfg.Quiet, tempCfg.Quiet, sources, "quiet", source)
	}
	if tempCfg.LogLevel != "" {
		setSource(&cfg.LogLevel, tempCfg.LogLevel, sources, "log_level", source)
	}
	if tempCfg.LogFormat != "" {
		setSource(&cfg.LogFormat, tempCfg.LogFormat, sources, "log_format", source)
	}
	if tempCfg.LogTimestamps {
		setSource(&cfg.LogTimestamps, tempCfg.LogTimestamps, sources, "log_timestamps", source)
	}
	if tempCfg.LogCaller {
		setSource(&cfg.LogCaller, tempCfg.LogCaller, sources, "log_caller", source)
	}

	// Handle agent configs
	mergeAgentSources(cfg, tempCfg, sources, source, "codex", DefaultAgentBinaries()["codex"])
	mergeAgentSources(cfg, tempCfg, sources, source, "claude", DefaultAgentBinaries()["claude"])
	for name, agent := range tempCfg.Agents {
		if name == "codex" || name == "claude" {
			continue
		}
		cfg.Agents.SetAgent(name, agent)
	}
}

// finalizeConfig computes derived values and validates paths.
func finalizeConfig(cfg *Config) error {
	// Expand ~ in paths
	cfg.LogDir = expandPath(cfg.LogDir)
	cfg.TemplatesFile = expandPath(cfg.TemplatesFile)
	cfg.SchemaFile = expandPath(cfg.SchemaFile)
	cfg.DBFile = expandPath(cfg.DBFile)

	// Determine project root
	if cfg.ProjectRoot == "" {
		// Use current working directory
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		cfg.ProjectRoot = wd
	}

	// Make paths absolute if they're relative
	if !filepath.IsAbs(cfg.TemplatesFile) {
		cfg.TemplatesFile = filepath.Join(cfg.ProjectRoot, cfg.TemplatesFile)
	}
	if !filepath.IsAbs(cfg.SchemaFile) {
		cfg.SchemaFile = filepath.Join(cfg.ProjectRoot, cfg.SchemaFile)
	}
	if !filepath.IsAbs(cfg.DBFile) {
		cfg.DBFile = filepath.Join(cfg.ProjectRoot, cfg.DBFile)
	}

	return nil
}
