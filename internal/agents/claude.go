package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// claudeAgent drives the claude CLI in stream-json mode.
type claudeAgent struct {
	cfg Config
}

// NewClaudeAgent creates an agent backed by the claude CLI.
func NewClaudeAgent(cfg Config) Agent {
	return &claudeAgent{cfg: normalizeConfig(AgentTypeClaude, cfg)}
}

func (a *claudeAgent) Run(ctx context.Context, prompt string, out LogWriter) (*Reply, error) {
	return run(ctx, a.cfg, prompt, out, a)
}

func (a *claudeAgent) label() string { return "claude" }

func (a *claudeAgent) args(cfg Config, prompt string) []string {
	args := []string{"--output-format", "stream-json", "--verbose", "--dangerously-skip-permissions"}
	if cfg.Model != "" {
		args = append(args, "--model", cfg.Model)
	}
	args = append(args, cfg.Args...)
	// The prompt travels as an argument, not on stdin.
	return append(args, "-p", prompt)
}

func (a *claudeAgent) stdin(string) io.Reader { return nil }

// consume reads the NDJSON event stream. The reply is the last complete
// assistant message; bare content deltas accumulate as a fallback for
// streams that never repeat the full text.
func (a *claudeAgent) consume(ctx context.Context, stdout io.Reader, sink *eventSink) error {
	dec := json.NewDecoder(stdout)
	var tracker claudeReplyTracker
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("decode stream-json: %w", err)
		}
		data, _ := json.Marshal(raw)
		line := string(data)
		if err := sink.raw(raw, line, claudeEventText(raw)); err != nil {
			return err
		}
		tracker.observe(raw, line)
	}
	return sink.setReply(tracker.reply())
}

// finish mirrors the codex --output-last-message behavior by writing
// the reply file ourselves. Failures are logged, not fatal.
func (a *claudeAgent) finish(cfg Config, got *Reply, sink *eventSink) (*Reply, error) {
	if got != nil && cfg.LastMessagePath != "" {
		if err := writeReplyFile(cfg.LastMessagePath, got); err != nil {
			sink.errorLine(fmt.Sprintf("write last message: %v", err))
		}
	}
	return got, nil
}

// claudeReplyTracker folds stream events into the final reply.
type claudeReplyTracker struct {
	text   string
	raw    string
	deltas strings.Builder
}

func (t *claudeReplyTracker) observe(raw map[string]any, line string) {
	switch kind, _ := raw["type"].(string); kind {
	case "system":
		// Init chatter carries nested message fields that are not
		// assistant content.
	case "assistant":
		if text := claudeMessageText(raw); text != "" {
			t.text, t.raw = text, line
			t.deltas.Reset()
		}
	case "result":
		// --print mode ends with one result event holding the whole reply.
		if result, ok := raw["result"].(string); ok && result != "" {
			t.text, t.raw = result, line
		}
	default:
		t.deltas.WriteString(claudeDeltaText(raw))
	}
}

func (t *claudeReplyTracker) reply() *Reply {
	text := t.text
	if text == "" {
		text = t.deltas.String()
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return &Reply{Text: text, Raw: t.raw}
}

// claudeMessageText extracts the full text of an assistant message event.
func claudeMessageText(raw map[string]any) string {
	if msg, ok := raw["message"].(map[string]any); ok {
		return contentText(msg["content"])
	}
	return ""
}

// claudeDeltaText extracts partial text from streaming block events.
func claudeDeltaText(raw map[string]any) string {
	switch kind, _ := raw["type"].(string); kind {
	case "content_block_delta":
		if delta, ok := raw["delta"].(map[string]any); ok {
			text, _ := delta["text"].(string)
			return text
		}
	case "content_block_start":
		if block, ok := raw["content_block"].(map[string]any); ok {
			text, _ := block["text"].(string)
			return text
		}
	}
	return ""
}

// claudeEventText is the displayable text of any stream event, used
// when logging it.
func claudeEventText(raw map[string]any) string {
	if text := claudeMessageText(raw); text != "" {
		return text
	}
	if text := claudeDeltaText(raw); text != "" {
		return text
	}
	if content, ok := raw["content"].(string); ok && content != "" {
		return content
	}
	result, _ := raw["result"].(string)
	return result
}
