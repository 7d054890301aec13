package agents

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// LogEvent is one entry in an agent run's event stream.
type LogEvent struct {
	// Type is one of: text, tool_use, command, exit, error, reply.
	Type string `json:"type"`

	// Timestamp is when the event was emitted.
	Timestamp time.Time `json:"timestamp"`

	// Content carries the line for text and error events.
	Content string `json:"content,omitempty"`

	// Tool names the tool for tool_use events.
	Tool string `json:"tool,omitempty"`

	// Command is the argv for command and exit events.
	Command []string `json:"command,omitempty"`

	// ExitCode accompanies exit events.
	ExitCode int `json:"exit_code,omitempty"`

	// Task attributes the event to a task when several agent runs share
	// one writer (checklist fan-out).
	Task string `json:"task,omitempty"`

	// Reply is the final assistant message, on reply events.
	Reply *Reply `json:"reply,omitempty"`
}

// LogWriter receives agent run events. Implementations need not be
// safe for concurrent use; the runner serializes writes.
type LogWriter interface {
	Write(event LogEvent) error
}

// IOStreamLogWriter renders events as JSON lines on an io.Writer. It
// backs the per-run JSONL log file.
type IOStreamLogWriter struct {
	w      io.Writer
	indent string
}

// NewIOStreamLogWriter creates a JSONL event writer.
func NewIOStreamLogWriter(w io.Writer) *IOStreamLogWriter {
	return &IOStreamLogWriter{w: w}
}

// SetIndent prefixes every line, used to offset agent chatter from the
// surrounding command output.
func (l *IOStreamLogWriter) SetIndent(indent string) {
	l.indent = indent
}

func (l *IOStreamLogWriter) Write(event LogEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal log event: %w", err)
	}
	_, err = fmt.Fprintf(l.w, "%s%s\n", l.indent, data)
	return err
}

// MultiLogWriter fans one event out to several writers, typically the
// run log file plus the console.
type MultiLogWriter struct {
	writers []LogWriter
}

// NewMultiLogWriter creates a fan-out writer.
func NewMultiLogWriter(writers ...LogWriter) *MultiLogWriter {
	return &MultiLogWriter{writers: writers}
}

// Write delivers the event to every writer before reporting failures.
func (m *MultiLogWriter) Write(event LogEvent) error {
	var errs []error
	for _, w := range m.writers {
		if err := w.Write(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// TaskLogWriter stamps a task ID onto events before forwarding them.
// Wrap a shared writer with one per worker so interleaved checklist
// output stays attributable.
type TaskLogWriter struct {
	task  string
	inner LogWriter
}

// NewTaskLogWriter creates a writer that tags events with the task ID.
func NewTaskLogWriter(task string, inner LogWriter) *TaskLogWriter {
	return &TaskLogWriter{task: task, inner: inner}
}

// Write forwards the event, filling Task unless already set.
func (t *TaskLogWriter) Write(event LogEvent) error {
	if event.Task == "" {
		event.Task = t.task
	}
	return t.inner.Write(event)
}

// NullLogWriter discards events.
type NullLogWriter struct{}

func (NullLogWriter) Write(LogEvent) error { return nil }
