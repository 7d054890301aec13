package config

import (
	"fmt"
	"strings"

	"github.com/nibzard/roadmap-go/internal/utils"
)

// mergeAgentTables folds decoded TOML agent tables into target. Both the
// flat layout (agents.<name>) and the nested one (agents.agents.<name>)
// are accepted; scalar keys that share the [agents] block are skipped.
func mergeAgentTables(target AgentConfig, table map[string]interface{}) error {
	for key, value := range table {
		sub, ok := value.(map[string]interface{})
		if !ok {
			if key == "agents" {
				return fmt.Errorf("agents.agents must be a table")
			}
			continue
		}
		if key == "agents" {
			// Nested layout, recurse one level.
			if err := mergeAgentTables(target, sub); err != nil {
				return err
			}
			continue
		}
		agent, err := decodeAgentConfig(sub)
		if err != nil {
			return fmt.Errorf("agent %s: %w", key, err)
		}
		target[utils.NormalizeAgentName(key)] = agent
	}
	return nil
}

// decodeAgentConfig reads one agent table. Unknown keys are left alone
// so older binaries tolerate newer config files.
func decodeAgentConfig(raw map[string]interface{}) (Agent, error) {
	var agent Agent

	stringFields := []struct {
		key string
		dst *string
	}{
		{"binary", &agent.Binary},
		{"model", &agent.Model},
		{"reasoning", &agent.Reasoning},
	}
	for _, f := range stringFields {
		v, ok := raw[f.key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return agent, fmt.Errorf("%s must be a string", f.key)
		}
		*f.dst = s
	}

	if v, ok := raw["args"]; ok {
		args, err := parseArgsValue(v)
		if err != nil {
			return agent, err
		}
		agent.Args = args
	}
	if v, ok := raw["prompt_format"]; ok {
		s, ok := v.(string)
		if !ok {
			return agent, fmt.Errorf("prompt_format must be a string")
		}
		agent.PromptFormat = PromptFormat(s)
	}
	if v, ok := raw["timeout_seconds"]; ok {
		// TOML integers decode as int64.
		secs, ok := v.(int64)
		if !ok {
			return agent, fmt.Errorf("timeout_seconds must be an integer")
		}
		agent.TimeoutSeconds = int(secs)
	}
	return agent, nil
}

// parseArgsValue accepts the two shapes the args key may take: a TOML
// string array or a single comma-separated string.
func parseArgsValue(v interface{}) ([]string, error) {
	switch val := v.(type) {
	case string:
		return utils.SplitAndTrim(val, ","), nil
	case []string:
		return compactArgs(val), nil
	case []interface{}:
		strs := make([]string, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("args must be a string array")
			}
			strs[i] = s
		}
		return compactArgs(strs), nil
	}
	return nil, fmt.Errorf("args must be a string or string array")
}

// compactArgs trims each argument and drops the blank ones.
func compactArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// mergeAgentSources folds one agent entry from a freshly decoded file
// layer into cfg. A layer that names a binary replaces the whole entry;
// otherwise non-empty fields overlay whatever earlier layers built up.
func mergeAgentSources(cfg *Config, tempCfg *Config, sources map[string]ConfigSource, source ConfigSource, name, defaultBinary string) {
	track := func(field string) {
		if sources != nil {
			sources[field] = source
		}
	}

	incoming := tempCfg.Agents.GetAgent(name)
	merged := cfg.Agents.GetAgent(name)

	switch {
	case incoming.Binary != "":
		if incoming.Binary != defaultBinary {
			track(name + "_binary")
		}
		merged = incoming
	case merged.Binary == "":
		merged = Agent{Binary: defaultBinary}
	}

	if incoming.Model != "" {
		track(name + "_model")
		merged.Model = incoming.Model
	}
	if incoming.Reasoning != "" {
		track(name + "_reasoning")
		merged.Reasoning = incoming.Reasoning
	}
	if len(incoming.Args) > 0 {
		track(name + "_args")
		merged.Args = incoming.Args
	}
	if incoming.PromptFormat != "" {
		merged.PromptFormat = incoming.PromptFormat
	}
	if incoming.TimeoutSeconds > 0 {
		merged.TimeoutSeconds = incoming.TimeoutSeconds
	}

	cfg.Agents.SetAgent(name, merged)
}

// setSource assigns a config field and records which layer supplied it.
func setSource[T any](field *T, value T, sources map[string]ConfigSource, name string, source ConfigSource) {
	*field = value
	if sources == nil {
		return
	}
	sources[name] = source
}

// boolFromString interprets the truthy spellings accepted in env vars.
func boolFromString(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
