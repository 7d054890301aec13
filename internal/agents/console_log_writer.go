package agents

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// ConsoleLogWriter renders agent events for humans via
// charmbracelet/log: colorful, leveled, one line per event. It is the
// console half of the draft and checklist output, next to the JSONL
// run log.
type ConsoleLogWriter struct {
	logger *log.Logger
}

// ConsoleLogOptions configures console rendering.
type ConsoleLogOptions struct {
	Level           log.Level
	Formatter       log.Formatter
	ReportTimestamp bool
	ReportCaller    bool
	Prefix          string
}

// DefaultConsoleLogOptions returns the stock console setup: info level,
// text format, no timestamps.
func DefaultConsoleLogOptions() ConsoleLogOptions {
	return ConsoleLogOptions{
		Level:     log.InfoLevel,
		Formatter: log.TextFormatter,
		Prefix:    "roadmap",
	}
}

// NewConsoleLogWriter creates a console writer on stdout.
func NewConsoleLogWriter(opts ConsoleLogOptions) *ConsoleLogWriter {
	logger := log.NewWithOptions(os.Stdout, log.Options{
		Level:           opts.Level,
		Formatter:       opts.Formatter,
		ReportTimestamp: opts.ReportTimestamp,
		ReportCaller:    opts.ReportCaller,
		Prefix:          opts.Prefix,
	})
	return &ConsoleLogWriter{logger: logger}
}

// NewConsoleLogWriterFromConfig builds a console writer from the string
// settings carried by TOML config and environment variables.
func NewConsoleLogWriterFromConfig(level, format string, timestamps, caller bool, prefix string) *ConsoleLogWriter {
	return NewConsoleLogWriter(ConsoleLogOptions{
		Level:           ParseLogLevel(level),
		Formatter:       ParseLogFormatter(format),
		ReportTimestamp: timestamps,
		ReportCaller:    caller,
		Prefix:          prefix,
	})
}

// NewConsoleLogWriterWithLogger wraps an existing logger, letting
// callers redirect or restyle the output.
func NewConsoleLogWriterWithLogger(logger *log.Logger) *ConsoleLogWriter {
	return &ConsoleLogWriter{logger: logger}
}

// NewTestConsoleLogWriter creates a debug-level writer on w with plain
// formatting, for test assertions.
func NewTestConsoleLogWriter(w io.Writer) *ConsoleLogWriter {
	return &ConsoleLogWriter{logger: log.NewWithOptions(w, log.Options{
		Level:     log.DebugLevel,
		Formatter: log.TextFormatter,
	})}
}

func (c *ConsoleLogWriter) Write(event LogEvent) error {
	c.logger.Log(consoleLevel(event.Type), consoleMessage(event), consoleFields(event)...)
	return nil
}

// consoleLevel maps event types to levels: failures surface as errors,
// lifecycle events as info, and the chatty stream as debug.
func consoleLevel(eventType string) log.Level {
	switch eventType {
	case "error":
		return log.ErrorLevel
	case "command", "exit", "reply":
		return log.InfoLevel
	default:
		return log.DebugLevel
	}
}

// consoleMessage picks the headline for an event. Content wins when
// present; otherwise the type gets a stock phrase.
func consoleMessage(event LogEvent) string {
	if event.Content != "" {
		return event.Content
	}
	switch event.Type {
	case "command":
		if len(event.Command) > 0 {
			return "Running command"
		}
		return "Command"
	case "exit":
		return "Command finished"
	case "reply":
		return "Reply received"
	case "tool_use":
		if event.Tool != "" {
			return "Using tool"
		}
		return "Tool"
	case "error":
		return "Error"
	case "text":
		return "Agent message"
	}
	return event.Type
}

// consoleFields turns the populated event fields into key-value pairs.
func consoleFields(event LogEvent) []any {
	var fields []any
	if event.Task != "" {
		fields = append(fields, "task", event.Task)
	}
	if event.Tool != "" {
		fields = append(fields, "tool", event.Tool)
	}
	if len(event.Command) > 0 {
		fields = append(fields, "command", event.Command)
	}
	if event.ExitCode != 0 {
		fields = append(fields, "exit_code", event.ExitCode)
	}
	if event.Reply != nil && event.Reply.Text != "" {
		fields = append(fields, "chars", len(event.Reply.Text))
	}
	return fields
}

// ParseLogLevel maps a config string to a log level, defaulting to info.
func ParseLogLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	}
	return log.InfoLevel
}

// ParseLogFormatter maps a config string to a formatter, defaulting to
// text.
func ParseLogFormatter(format string) log.Formatter {
	switch format {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	}
	return log.TextFormatter
}
