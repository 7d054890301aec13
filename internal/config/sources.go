package config

import (
	"os"
	"path/filepath"
	"strings"
)

// explicitConfigPath returns the config file named by a -config flag in
// args, or by ROADMAP_CONFIG. Empty means normal discovery. Args are
// scanned by hand because the flag must be known before files load,
// which is before the flag set parses.
func explicitConfigPath(args []string) string {
	for i := 0; i < len(args); i++ {
		for _, name := range []string{"-config", "--config"} {
			if args[i] == name {
				if i+1 < len(args) {
					return args[i+1]
				}
				return ""
			}
			if strings.HasPrefix(args[i], name+"=") {
				return strings.TrimPrefix(args[i], name+"=")
			}
		}
	}
	return os.Getenv("ROADMAP_CONFIG")
}

// fileExists reports whether path names something stat-able.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// findProjectConfigFile returns the config file in the working
// directory, preferring roadmap.toml over the hidden spelling.
func findProjectConfigFile() string {
	for _, name := range []string{"roadmap.toml", ".roadmap.toml"} {
		if fileExists(name) {
			return name
		}
	}
	return ""
}

// findUserConfigFile returns the user-level config file. The
// ~/.roadmap location wins over the OS config directory.
func findUserConfigFile() string {
	var candidates []string
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".roadmap", "roadmap.toml"))
	}
	if dir := osUserConfigDir(); dir != "" {
		candidates = append(candidates, filepath.Join(dir, "roadmap", "roadmap.toml"))
	}
	for _, path := range candidates {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// osUserConfigDir returns the per-OS config directory (XDG on Linux,
// Application Support on macOS, APPDATA on Windows), or empty when it
// cannot be determined.
func osUserConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return dir
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.TemplatesFile = DefaultTemplatesFile
	cfg.SchemaFile = DefaultSchemaFile
	cfg.DBFile = DefaultDBFile
	cfg.LogDir = DefaultLogDir
	cfg.ConflictPolicy = DefaultConflictPolicy
	cfg.TieBreak = DefaultTieBreak
	cfg.DefaultSortKey = DefaultSort
	cfg.Agent = DefaultAgent

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}

	if cfg.Anchors == nil {
		cfg.Anchors = make(map[string]string)
	}

	// Built-in agents: codex reads stdin, claude takes the prompt as
	// an argument.
	for name, format := range map[string]PromptFormat{
		"codex":  PromptFormatStdin,
		"claude": PromptFormatArg,
	} {
		cfg.Agents.SetAgent(name, Agent{
			Binary:       DefaultAgentBinaries()[name],
			PromptFormat: format,
		})
	}
}

// GetConfigFile returns the active config file path, or empty when no
// file loaded.
func (cws *ConfigWithSources) GetConfigFile() string {
	return cws.ConfigFile
}
