package agents

import (
	"fmt"
	"os"
	"runtime"

	"github.com/nibzard/roadmap-go/internal/utils"
)

// NewAgent creates an agent for the named type. Unknown types get the
// generic runner, which requires an explicit binary in cfg.
func NewAgent(agentType AgentType, cfg Config) (Agent, error) {
	switch agentType {
	case AgentTypeClaude:
		return NewClaudeAgent(cfg), nil
	case AgentTypeCodex:
		return NewCodexAgent(cfg), nil
	default:
		return NewGenericAgent(string(agentType), cfg)
	}
}

// BuiltinAgentTypes lists the agent types with dedicated runners.
func BuiltinAgentTypes() []AgentType {
	return []AgentType{AgentTypeClaude, AgentTypeCodex}
}

// ValidateBinary checks that path names an executable file. Windows
// trusts PATHEXT; elsewhere the exec bits decide.
func ValidateBinary(path string) error {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("binary not found: %s", path)
	case err != nil:
		return fmt.Errorf("stat binary: %w", err)
	case info.IsDir():
		return fmt.Errorf("binary path is a directory: %s", path)
	}

	executable := info.Mode().Perm()&0111 != 0
	if runtime.GOOS == "windows" {
		executable = utils.IsWindowsExecutable(path)
	}
	if !executable {
		return fmt.Errorf("binary is not executable: %s", path)
	}
	return nil
}
