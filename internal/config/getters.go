package config

import (
	"sort"
	"time"

	"github.com/nibzard/roadmap-go/internal/utils"
)

// AgentName returns the agent used for draft and checklist commands.
func (c *Config) AgentName() string {
	if name := utils.NormalizeAgentName(c.Agent); name != "" {
		return name
	}
	return DefaultAgent
}

// AnchorNames returns the configured anchor names in sorted order.
func (c *Config) AnchorNames() []string {
	names := make([]string, 0, len(c.Anchors))
	for name := range c.Anchors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetAgentBinary resolves the binary to run for an agent: the
// configured one, the built-in default, or the agent name itself.
func (c *Config) GetAgentBinary(agentType string) string {
	name := utils.NormalizeAgentName(agentType)
	if name == "" {
		return ""
	}
	if agent := c.Agents.GetAgent(name); agent.Binary != "" {
		return agent.Binary
	}
	if bin, ok := DefaultAgentBinaries()[name]; ok {
		return bin
	}
	// Custom agents without a binary setting run under their own name.
	return name
}

// GetAgentModel returns the configured model for an agent, if any.
func (c *Config) GetAgentModel(agentType string) string {
	return c.Agents.GetAgent(agentType).Model
}

// GetAgentReasoning returns the configured reasoning effort for an
// agent, if any.
func (c *Config) GetAgentReasoning(agentType string) string {
	return c.Agents.GetAgent(agentType).Reasoning
}

// GetAgentArgs returns a copy of the extra args configured for an
// agent. Callers append to the result, so sharing the backing array
// would corrupt the config.
func (c *Config) GetAgentArgs(agentType string) []string {
	args := c.Agents.GetAgent(agentType).Args
	if len(args) == 0 {
		return nil
	}
	return append([]string(nil), args...)
}

// GetAgentPromptFormat returns how the prompt reaches an agent.
// Unconfigured agents read stdin, except claude which takes the prompt
// as an argument.
func (c *Config) GetAgentPromptFormat(agentType string) PromptFormat {
	name := utils.NormalizeAgentName(agentType)
	if format := c.Agents.GetAgent(name).PromptFormat; format != "" {
		return format
	}
	if name == "claude" {
		return PromptFormatArg
	}
	return PromptFormatStdin
}

// GetAgentTimeout returns the per-run timeout override for an agent,
// or zero when the package default should apply.
func (c *Config) GetAgentTimeout(agentType string) time.Duration {
	if secs := c.Agents.GetAgent(agentType).TimeoutSeconds; secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
