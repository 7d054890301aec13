package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// codexAgent drives the codex CLI in exec --json mode.
type codexAgent struct {
	cfg Config
}

// NewCodexAgent creates an agent backed by the codex CLI.
func NewCodexAgent(cfg Config) Agent {
	return &codexAgent{cfg: normalizeConfig(AgentTypeCodex, cfg)}
}

func (a *codexAgent) Run(ctx context.Context, prompt string, out LogWriter) (*Reply, error) {
	return run(ctx, a.cfg, prompt, out, a)
}

func (a *codexAgent) label() string { return "codex" }

func (a *codexAgent) args(cfg Config, prompt string) []string {
	args := []string{"exec", "--json"}
	if cfg.Model != "" {
		args = append(args, "-m", cfg.Model)
	}
	if cfg.Reasoning != "" {
		args = append(args, "-c", "model_reasoning_effort="+cfg.Reasoning)
	}
	args = append(args, cfg.Args...)
	if cfg.LastMessagePath != "" {
		args = append(args, "--output-last-message", cfg.LastMessagePath)
	}
	// "-" makes codex read the prompt from stdin.
	return append(args, "-")
}

func (a *codexAgent) stdin(prompt string) io.Reader {
	return strings.NewReader(terminated(prompt))
}

// consume scans line-delimited JSON events. The last event carrying
// agent text becomes the reply; lines that fail to decode are logged as
// plain text.
func (a *codexAgent) consume(ctx context.Context, stdout io.Reader, sink *eventSink) error {
	var last Reply
	sc := lineScanner(stdout)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		var raw map[string]any
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			if err := sink.text(line); err != nil {
				return err
			}
			continue
		}
		text := messageText(raw)
		if err := sink.raw(raw, line, text); err != nil {
			return err
		}
		if text != "" {
			last = Reply{Text: text, Raw: line}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read stdout: %w", err)
	}

	last.Text = strings.TrimSpace(last.Text)
	if last.Text == "" {
		return nil
	}
	return sink.setReply(&last)
}

// finish falls back to the --output-last-message file when the stream
// carried no agent text, which happens on quiet runs.
func (a *codexAgent) finish(cfg Config, got *Reply, sink *eventSink) (*Reply, error) {
	if got != nil {
		return got, nil
	}
	if parsed, ok := readReplyFile(cfg.LastMessagePath); ok {
		_ = sink.setReply(parsed)
		return parsed, nil
	}
	return nil, nil
}
