package templates

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// idSortKey extracts the numeric value from a template ID for sorting.
// For IDs like "T01", "T2", "T10", it returns 1, 2, 10 respectively.
// If the ID doesn't contain a number, it returns -1.
func idSortKey(id string) int {
	i := 0
	for i < len(id) && (id[i] < '0' || id[i] > '9') {
		i++
	}
	if i == len(id) {
		return -1
	}
	num, err := strconv.Atoi(id[i:])
	if err != nil {
		return -1
	}
	return num
}

// CompareIDs returns true if id1 should come before id2 in numeric-aware ordering.
// If both IDs have numeric parts, compares numerically. Otherwise falls back to
// lexicographic comparison.
func CompareIDs(id1, id2 string) bool {
	k1 := idSortKey(id1)
	k2 := idSortKey(id2)
	if k1 >= 0 && k2 >= 0 {
		if k1 != k2 {
			return k1 < k2
		}
		return id1 < id2
	}
	return id1 < id2
}

// Status represents a scheduled task status.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusBlocked    Status = "blocked"
	StatusSkipped    Status = "skipped"
)

// ValidStatuses lists every status in display order.
func ValidStatuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusDone, StatusBlocked, StatusSkipped}
}

// ParseStatus maps tolerant user input ("InProgress", "in-progress") onto the
// closed status set. Unknown values are an error; the enum never grows at runtime.
func ParseStatus(s string) (Status, error) {
	key := strings.ToLower(s)
	for _, r := range []string{" ", "-", "_"} {
		key = strings.ReplaceAll(key, r, "")
	}
	switch key {
	case "pending":
		return StatusPending, nil
	case "inprogress":
		return StatusInProgress, nil
	case "done":
		return StatusDone, nil
	case "blocked":
		return StatusBlocked, nil
	case "skipped":
		return StatusSkipped, nil
	}
	return "", fmt.Errorf("invalid status %q, must be one of: pending, in_progress, done, blocked, skipped", s)
}

// Valid reports whether s is one of the canonical status values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone, StatusBlocked, StatusSkipped:
		return true
	}
	return false
}

// Terminal reports whether the status needs no further work.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusSkipped
}

// OffsetRule anchors a template to a named date by a signed day offset.
type OffsetRule struct {
	AnchorName string `json:"anchor_name"`
	DayDelta   int    `json:"day_delta"`
}

// TaskTemplate describes one schedulable task.
type TaskTemplate struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Category     string     `json:"category,omitempty"`
	OffsetRule   OffsetRule `json:"offset_rule"`
	DurationDays int        `json:"duration_days"`
	DependsOn    []string   `json:"depends_on,omitempty"`
	Priority     int        `json:"priority"`
	Status       Status     `json:"status,omitempty"`
}

// IsZero returns true if the template is empty (has no ID).
func (t *TaskTemplate) IsZero() bool {
	return t.ID == ""
}

// InitialStatus returns the template's seed status, defaulting to pending.
func (t *TaskTemplate) InitialStatus() Status {
	if t.Status == "" {
		return StatusPending
	}
	return t.Status
}

// File represents the template catalog file structure.
type File struct {
	SchemaVersion int            `json:"schema_version"`
	UpdatedAt     string         `json:"updated_at,omitempty"`
	Templates     []TaskTemplate `json:"templates"`
}

// Load reads and parses a template catalog file from path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates file: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse templates file: %w", err)
	}

	return &f, nil
}

// Save writes the template catalog file to path with 2-space indentation.
func (f *File) Save(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal templates file: %w", err)
	}

	// Add trailing newline
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write templates file: %w", err)
	}

	return nil
}

// GetTemplate returns a template by ID, or nil if not found.
func (f *File) GetTemplate(id string) *TaskTemplate {
	for i := range f.Templates {
		if f.Templates[i].ID == id {
			return &f.Templates[i]
		}
	}
	return nil
}

// AddTemplate appends a new template and stamps updated_at.
func (f *File) AddTemplate(t TaskTemplate) {
	f.Templates = append(f.Templates, t)
	f.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
}

// NextID returns the next free identifier in the T%02d convention.
// IDs without a numeric part are skipped.
func (f *File) NextID() string {
	max := 0
	for i := range f.Templates {
		if k := idSortKey(f.Templates[i].ID); k > max {
			max = k
		}
	}
	return fmt.Sprintf("T%02d", max+1)
}

// Categories returns the distinct non-empty categories in sorted order.
func (f *File) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for i := range f.Templates {
		c := f.Templates[i].Category
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Titles returns every template title in file order.
func (f *File) Titles() []string {
	out := make([]string, 0, len(f.Templates))
	for i := range f.Templates {
		out = append(out, f.Templates[i].Title)
	}
	return out
}

// AnchorNames returns the distinct anchors referenced by the catalog, sorted.
func (f *File) AnchorNames() []string {
	seen := make(map[string]bool)
	var out []string
	for i := range f.Templates {
		name := f.Templates[i].OffsetRule.AnchorName
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
