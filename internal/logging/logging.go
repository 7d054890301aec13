// Package logging writes per-run JSONL logs and serves tail output.
package logging

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// EventType classifies run log records.
type EventType string

const (
	EventStart    EventType = "start"
	EventCatalog  EventType = "catalog"
	EventSchedule EventType = "schedule"
	EventConflict EventType = "conflict"
	EventSnapshot EventType = "snapshot"
	EventExport   EventType = "export"
	EventHook     EventType = "hook"
	EventError    EventType = "error"
	EventDone     EventType = "done"
)

// Event is one JSONL run log record.
type Event struct {
	TS      string         `json:"ts"`
	Type    EventType      `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// RunLogger manages the log file for a single run. Agent streams and
// typed events share the file, one JSON object per line.
type RunLogger struct {
	Dir     string
	RunID   string
	LogPath string

	mu   sync.Mutex
	file *os.File
}

// NewRunLogger creates the per-project log directory and a fresh JSONL
// file named after the run.
func NewRunLogger(baseDir, workDir string) (*RunLogger, error) {
	logDir, err := FindLogDir(baseDir, workDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	id := runID()
	logPath := filepath.Join(logDir, id+".jsonl")
	file, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	return &RunLogger{
		Dir:     logDir,
		RunID:   id,
		LogPath: logPath,
		file:    file,
	}, nil
}

// Writer returns the underlying log file writer.
func (r *RunLogger) Writer() *os.File {
	if r == nil {
		return nil
	}
	return r.file
}

// Event appends a typed record with a UTC timestamp.
func (r *RunLogger) Event(typ EventType, payload map[string]any) error {
	if r == nil || r.file == nil {
		return nil
	}
	data, err := json.Marshal(Event{
		TS:      time.Now().UTC().Format(time.RFC3339),
		Type:    typ,
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("marshal log event: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write log event: %w", err)
	}
	return nil
}

// Close closes the log file.
func (r *RunLogger) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	return r.file.Close()
}

// LastMessagePath returns where an agent's final reply for this run is
// saved, keyed by a sanitized label.
func (r *RunLogger) LastMessagePath(label string) string {
	if r == nil {
		return ""
	}
	return filepath.Join(r.Dir, fmt.Sprintf("%s-%s.last.json", r.RunID, sanitizeLabel(label)))
}

// FindLogDir resolves the log directory for a work directory without
// creating it. Runs for the same project land in the same slug
// directory even when invoked from subdirectories, because the slug
// hashes the project root.
func FindLogDir(baseDir, workDir string) (string, error) {
	if baseDir == "" {
		return "", fmt.Errorf("log base dir is empty")
	}

	resolved := workDir
	if resolved == "" {
		resolved = "."
	}
	if abs, err := filepath.Abs(resolved); err == nil {
		resolved = abs
	}

	if !filepath.IsAbs(baseDir) {
		baseDir = filepath.Join(resolved, baseDir)
	}
	return filepath.Join(filepath.Clean(baseDir), projectSlug(projectRoot(resolved))), nil
}

func projectRoot(workDir string) string {
	if workDir == "" {
		return "."
	}
	if _, err := exec.LookPath("git"); err == nil {
		cmd := exec.Command("git", "-C", workDir, "rev-parse", "--show-toplevel")
		if output, err := cmd.Output(); err == nil {
			if root := strings.TrimSpace(string(output)); root != "" {
				return root
			}
		}
	}
	return workDir
}

func projectSlug(root string) string {
	return fmt.Sprintf("%s-%s", slugify(filepath.Base(root)), hashPath(root))
}

// slugify keeps [A-Za-z0-9._-] and collapses each run of anything
// else into one underscore. Literal underscores pass through untouched.
func slugify(name string) string {
	var b strings.Builder
	gap := false
	for _, r := range name {
		if slugRune(r) {
			b.WriteRune(r)
			gap = false
		} else if !gap {
			b.WriteByte('_')
			gap = true
		}
	}
	if slug := strings.Trim(b.String(), "_"); slug != "" {
		return slug
	}
	return "project"
}

func slugRune(r rune) bool {
	return r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' ||
		r >= '0' && r <= '9' || r == '.' || r == '_' || r == '-'
}

// sanitizeLabel maps a run label onto [A-Za-z0-9_-] so it is safe in a
// file name.
func sanitizeLabel(input string) string {
	mapped := strings.Map(func(r rune) rune {
		if slugRune(r) && r != '.' {
			return r
		}
		return '_'
	}, input)
	if label := strings.Trim(mapped, "_"); label != "" {
		return label
	}
	return "run"
}

// hashPath gives a short stable fingerprint for a path, so projects
// with the same directory name do not share a slug.
func hashPath(path string) string {
	sum := sha1.Sum([]byte(path))
	return hex.EncodeToString(sum[:4])
}

func runID() string {
	now := time.Now().UTC()
	return fmt.Sprintf("%s-%d", now.Format("20060102-150405"), os.Getpid())
}

// FindLatestLog returns the most recently modified JSONL log file in a
// directory. A missing directory is not an error; it returns "".
func FindLatestLog(logDir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(logDir, "*.jsonl"))
	if err != nil {
		return "", err
	}

	var latest string
	var latestTime time.Time
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if info.ModTime().After(latestTime) {
			latest, latestTime = path, info.ModTime()
		}
	}
	return latest, nil
}

// TailLog writes a log file to w. With n > 0 only roughly the last n
// lines are shown. With follow it keeps polling for appended data until
// ctx is cancelled.
func TailLog(ctx context.Context, w io.Writer, path string, n int, follow bool) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if n > 0 {
		if err := tailSeek(file, n); err != nil {
			return fmt.Errorf("seek to tail position: %w", err)
		}
	}

	if _, err := io.Copy(w, file); err != nil {
		return err
	}
	if !follow {
		return nil
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := io.Copy(w, file); err != nil {
				return err
			}
		}
	}
}

// tailSeek positions the file so that roughly the last n lines remain.
func tailSeek(file *os.File, n int) error {
	const avgLineLength = 100

	stat, err := file.Stat()
	if err != nil {
		return err
	}

	size := stat.Size()
	if size < avgLineLength*int64(n) {
		_, err = file.Seek(0, io.SeekStart)
		return err
	}

	offset := size - int64(n*avgLineLength)
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return err
	}

	// Discard the partial first line.
	buf := make([]byte, 1)
	for {
		if _, err := file.Read(buf); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if buf[0] == '\n' {
			return nil
		}
	}
}
