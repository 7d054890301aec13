// Package hooks invokes external post-generate commands.
package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// Options configures a hook invocation.
type Options struct {
	Command    string
	ReportPath string
	Label      string
	WorkDir    string
}

// Result captures the outcome of a hook invocation.
type Result struct {
	Ran        bool
	Command    []string
	SnapshotID string
	Conflicts  int
	ExitCode   int
}

// Invoke runs the hook command through the shell with the report path
// appended. The report is validated first: it must exist, be a regular
// file, and hold non-empty JSON. ROADMAP_REPORT, ROADMAP_SNAPSHOT_ID
// and ROADMAP_CONFLICTS are set in the hook's environment.
func Invoke(ctx context.Context, opts Options) (Result, error) {
	if opts.Command == "" || opts.ReportPath == "" {
		return Result{}, nil
	}

	info, err := os.Stat(opts.ReportPath)
	if err != nil {
		return Result{}, fmt.Errorf("stat report file: %w", err)
	}
	if info.IsDir() {
		return Result{}, fmt.Errorf("report path is a directory: %s", opts.ReportPath)
	}

	raw, err := readReport(opts.ReportPath)
	if err != nil {
		return Result{}, err
	}
	snapshotID, conflicts := extractReportFields(raw)

	if ctx == nil {
		ctx = context.Background()
	}

	cmd := shellCommand(ctx, opts.Command, opts.ReportPath)
	if opts.WorkDir != "" {
		cmd.Dir = opts.WorkDir
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(),
		"ROADMAP_REPORT="+opts.ReportPath,
		"ROADMAP_SNAPSHOT_ID="+snapshotID,
		"ROADMAP_CONFLICTS="+strconv.Itoa(conflicts),
	)

	err = cmd.Run()
	result := Result{
		Ran:        true,
		Command:    cmd.Args,
		SnapshotID: snapshotID,
		Conflicts:  conflicts,
		ExitCode:   exitCodeFromError(err),
	}
	if err != nil {
		label := opts.Label
		if label == "" {
			label = "hook"
		}
		return result, fmt.Errorf("%s command failed: %w", label, err)
	}
	return result, nil
}

// shellCommand builds the shell invocation with the report path as the
// final argument.
func shellCommand(ctx context.Context, command, reportPath string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", command+` "`+reportPath+`"`)
	}
	return exec.CommandContext(ctx, "sh", "-c", command+" "+posixQuote(reportPath))
}

func posixQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func readReport(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("report is empty: %s", path)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("report is not valid JSON: %s", path)
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return raw, nil
}

func extractReportFields(raw any) (string, int) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return "", 0
	}
	return stringField(obj["snapshot_id"]), intField(obj["conflicts"])
}

func stringField(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}

func intField(value any) int {
	if f, ok := value.(float64); ok {
		return int(f)
	}
	return 0
}

func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
