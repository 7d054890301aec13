package config

import "os"

// promptModeVar gates the prompt-development surface (-prompt-dir,
// -print-prompt). It lives in the environment rather than the config
// file so a checked-in roadmap.toml cannot switch it on.
const promptModeVar = "ROADMAP_PROMPT_MODE"

// PromptDevModeEnabled reports whether prompt development options are
// active, i.e. ROADMAP_PROMPT_MODE=dev.
func PromptDevModeEnabled() bool {
	return os.Getenv(promptModeVar) == "dev"
}
