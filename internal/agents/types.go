package agents

import (
	"context"
	"errors"
	"time"

	"github.com/nibzard/roadmap-go/internal/config"
)

// Agent runs an AI CLI once and returns its final message.
type Agent interface {
	// Run feeds the prompt to the agent and streams log events to out.
	Run(ctx context.Context, prompt string, out LogWriter) (*Reply, error)
}

// AgentType names an agent CLI. Types beyond the built-ins select the
// generic runner.
type AgentType string

const (
	AgentTypeClaude AgentType = "claude"
	AgentTypeCodex  AgentType = "codex"
)

// Reply is the final assistant message from an agent run.
type Reply struct {
	// Text is the plain-text content of the final assistant message.
	Text string `json:"text"`

	// Raw is the unparsed payload Text was extracted from, for agents
	// that emit structured events. Empty when the agent writes plain text.
	Raw string `json:"raw,omitempty"`
}

// ErrEmptyReply indicates the agent completed without producing a reply.
var ErrEmptyReply = errors.New("agent did not produce a reply")

// Config holds the per-run settings for one agent invocation.
type Config struct {
	// Binary is the path to the agent binary.
	Binary string

	// Model selects the model, when the CLI supports it.
	Model string

	// Reasoning is the codex reasoning effort (low, medium, high).
	Reasoning string

	// Args are extra arguments appended before the prompt.
	Args []string

	// PromptFormat says whether the prompt goes to stdin or rides as an
	// argument. Only the generic runner consults it.
	PromptFormat config.PromptFormat

	// Timeout bounds the run. Zero means DefaultTimeout; a negative
	// value disables the deadline.
	Timeout time.Duration

	// WorkDir is the working directory for the agent command.
	WorkDir string

	// LastMessagePath is an optional file that receives the final reply
	// (codex writes it itself via --output-last-message).
	LastMessagePath string
}

// DefaultTimeout caps an agent run. Drafting sessions can run long, but
// a wedged CLI should not hang the command forever.
const DefaultTimeout = 30 * time.Minute

// Scanner sizing for line-oriented agent output. Single events can
// reach megabytes when tool calls embed file contents.
const (
	scanBufferSize   = 64 * 1024
	maxScanTokenSize = 1 << 20
)
