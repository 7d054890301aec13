package agents

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// MultiplexedLogWriter renders interleaved events from concurrent agent
// runs, one line each, prefixed with the owning task ID. It is the
// console companion of checklist fan-out; the JSONL run log keeps the
// full events.
type MultiplexedLogWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewMultiplexedLogWriter creates a task-prefixed console writer.
func NewMultiplexedLogWriter(w io.Writer) *MultiplexedLogWriter {
	return &MultiplexedLogWriter{w: w}
}

// Write renders the event as one prefixed line. The lock keeps lines
// from concurrent workers whole.
func (m *MultiplexedLogWriter) Write(event LogEvent) error {
	line := renderEventLine(event)

	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := fmt.Fprintln(m.w, line)
	return err
}

func renderEventLine(event LogEvent) string {
	var b strings.Builder
	if event.Task != "" {
		fmt.Fprintf(&b, "[%s] ", event.Task)
	}
	switch event.Type {
	case "text":
		b.WriteString(event.Content)
	case "error":
		b.WriteString("ERROR: ")
		b.WriteString(event.Content)
	case "reply":
		chars := 0
		if event.Reply != nil {
			chars = len(event.Reply.Text)
		}
		fmt.Fprintf(&b, "Reply: %d chars", chars)
	case "command":
		fmt.Fprintf(&b, "Command: %v", event.Command)
	case "exit":
		fmt.Fprintf(&b, "Exit: %d", event.ExitCode)
	default:
		fmt.Fprintf(&b, "{type=%s timestamp=%s}", event.Type, event.Timestamp.Format("15:04:05"))
	}
	return b.String()
}
