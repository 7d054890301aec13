package agents

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// driver captures what differs between agent CLIs: argument layout,
// prompt delivery, and how stdout turns into a Reply.
type driver interface {
	// label names the agent in log output and error messages.
	label() string

	// args builds the command line for one run.
	args(cfg Config, prompt string) []string

	// stdin returns the reader wired to the process stdin, or nil when
	// the prompt travels as an argument instead.
	stdin(prompt string) io.Reader

	// consume reads the process stdout until EOF, emitting log events
	// and recording the reply on the sink.
	consume(ctx context.Context, stdout io.Reader, sink *eventSink) error

	// finish post-processes the recorded reply after the process exits.
	finish(cfg Config, got *Reply, sink *eventSink) (*Reply, error)
}

// run executes one agent invocation: start the process, drain stdout
// and stderr concurrently, wait, then let the driver finalize the reply.
func run(ctx context.Context, cfg Config, prompt string, out LogWriter, d driver) (*Reply, error) {
	sink := newEventSink(out)

	ctx, cancel := withRunTimeout(ctx, cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, cfg.Binary, d.args(cfg, prompt)...)
	cmd.Dir = cfg.WorkDir
	if stdin := d.stdin(prompt); stdin != nil {
		cmd.Stdin = stdin
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		sink.errorLine(err.Error())
		return nil, fmt.Errorf("start %s: %w", d.label(), err)
	}
	if err := sink.emit(LogEvent{Type: "command", Command: cmd.Args}); err != nil {
		return nil, fmt.Errorf("write log event: %w", err)
	}

	// Both pipes must be drained before Wait closes them.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		sink.fail(d.consume(ctx, stdout, sink))
	}()
	go func() {
		defer wg.Done()
		drainStderr(ctx, stderr, sink)
	}()
	wg.Wait()

	runErr := cmd.Wait()
	if err := sink.emit(LogEvent{Type: "exit", Command: cmd.Args, ExitCode: processExitCode(runErr)}); err != nil {
		return nil, fmt.Errorf("write log event: %w", err)
	}

	reply, err := d.finish(cfg, sink.finalReply(), sink)
	if err != nil {
		return nil, err
	}

	if runErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			msg := fmt.Sprintf("%s timeout after %s", d.label(), cfg.Timeout)
			sink.errorLine(msg)
			return nil, errors.New(msg)
		}
		if failures := sink.failures(); len(failures) > 0 {
			return nil, fmt.Errorf("%s failed: %w (output errors: %v)", d.label(), runErr, failures)
		}
		return nil, fmt.Errorf("%s failed: %w", d.label(), runErr)
	}
	if reply == nil {
		return nil, fmt.Errorf("%s: %w", d.label(), ErrEmptyReply)
	}
	return reply, nil
}

// eventSink funnels all log writes from one run through a single lock
// and accumulates the reply plus any stream errors. Stamping the
// timestamp here keeps the emit call sites short.
type eventSink struct {
	mu    sync.Mutex
	out   LogWriter
	reply *Reply
	errs  []error
}

func newEventSink(out LogWriter) *eventSink {
	if out == nil {
		out = NullLogWriter{}
	}
	return &eventSink{out: out}
}

func (s *eventSink) emit(event LogEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event.Timestamp = time.Now().UTC()
	return s.out.Write(event)
}

// text logs one line of plain agent output.
func (s *eventSink) text(line string) error {
	return s.emit(LogEvent{Type: "text", Content: line})
}

// errorLine logs an error line, ignoring writer failures.
func (s *eventSink) errorLine(line string) {
	_ = s.emit(LogEvent{Type: "error", Content: line})
}

// raw logs a decoded stream event, classified by its payload. text is
// the extracted display text, line the original JSON.
func (s *eventSink) raw(raw map[string]any, line, text string) error {
	event := LogEvent{Type: eventKind(raw), Content: line}
	if event.Type == "text" && text != "" {
		event.Content = text
	}
	if tool := toolName(raw); tool != "" {
		event.Tool = tool
	}
	if cmd, ok := commandParts(raw); ok {
		event.Command = cmd
	}
	if code, ok := rawExitCode(raw); ok {
		event.ExitCode = code
	}
	if err := s.emit(event); err != nil {
		return fmt.Errorf("write log event: %w", err)
	}
	return nil
}

// setReply records the final reply and logs it. A nil reply is a no-op
// so consumers can pass their result through unconditionally.
func (s *eventSink) setReply(r *Reply) error {
	if r == nil {
		return nil
	}
	s.mu.Lock()
	s.reply = r
	s.mu.Unlock()
	if err := s.emit(LogEvent{Type: "reply", Reply: r}); err != nil {
		return fmt.Errorf("write log event: %w", err)
	}
	return nil
}

func (s *eventSink) finalReply() *Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reply
}

// fail collects a stream error; it is reported only when the process
// itself also fails.
func (s *eventSink) fail(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *eventSink) failures() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs
}

// drainStderr forwards non-blank stderr lines as error events.
func drainStderr(ctx context.Context, stderr io.Reader, sink *eventSink) {
	sc := lineScanner(stderr)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		if line := sc.Text(); strings.TrimSpace(line) != "" {
			sink.errorLine(line)
		}
	}
	if err := sc.Err(); err != nil {
		sink.fail(fmt.Errorf("read stderr: %w", err))
	}
}

// lineScanner sizes a scanner for agent output, where single events can
// carry whole file contents inside tool calls.
func lineScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, scanBufferSize), maxScanTokenSize)
	return sc
}

// normalizeConfig fills the binary from the agent type name and applies
// the default timeout. A negative timeout stays negative, which
// disables the deadline.
func normalizeConfig(agentType AgentType, cfg Config) Config {
	if cfg.Binary == "" && agentType != "" {
		cfg.Binary = string(agentType)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return cfg
}

func withRunTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// terminated guarantees a trailing newline so line-oriented CLIs see
// the end of the prompt.
func terminated(prompt string) string {
	if strings.HasSuffix(prompt, "\n") {
		return prompt
	}
	return prompt + "\n"
}

// eventKind classifies a decoded stream event for logging. Events
// without a recognizable type or marker field count as agent text.
func eventKind(raw map[string]any) string {
	switch kind, _ := raw["type"].(string); kind {
	case "tool_use", "tool_result", "tool", "tool_call":
		return "tool_use"
	case "command", "error":
		return kind
	}
	if _, ok := raw["command"]; ok {
		return "command"
	}
	if _, ok := raw["tool"]; ok {
		return "tool_use"
	}
	if _, ok := raw["tool_name"]; ok {
		return "tool_use"
	}
	return "text"
}

// toolName digs the tool name out of the various shapes agents emit.
func toolName(raw map[string]any) string {
	if name, ok := raw["tool"].(string); ok {
		return name
	}
	if name, ok := raw["tool_name"].(string); ok {
		return name
	}
	switch kind, _ := raw["type"].(string); kind {
	case "tool_use", "tool_result", "tool", "tool_call":
		if name, ok := raw["name"].(string); ok {
			return name
		}
		if use, ok := raw["tool_use"].(map[string]any); ok {
			if name, ok := use["name"].(string); ok {
				return name
			}
		}
	}
	return ""
}

// commandParts reads a command field that may be a string or a list.
func commandParts(raw map[string]any) ([]string, bool) {
	switch v := raw["command"].(type) {
	case string:
		if v == "" {
			return nil, false
		}
		return []string{v}, true
	case []any:
		var parts []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		return parts, len(parts) > 0
	}
	return nil, false
}

func rawExitCode(raw map[string]any) (int, bool) {
	for _, key := range []string{"exit_code", "exitCode"} {
		if value, ok := raw[key]; ok {
			return asInt(value)
		}
	}
	return 0, false
}

func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), true
		}
		if f, err := v.Float64(); err == nil {
			return int(f), true
		}
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n, true
		}
	}
	return 0, false
}

// processExitCode maps a Wait error to the process exit code, with -1
// for failures that never produced one.
func processExitCode(err error) int {
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &exitErr):
		return exitErr.ExitCode()
	default:
		return -1
	}
}
