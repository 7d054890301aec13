package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nibzard/roadmap-go/internal/schedule"
)

// Report is the generation summary written after every successful
// generate and handed to post-generate hooks.
type Report struct {
	SnapshotID  string            `json:"snapshot_id"`
	GeneratedAt string            `json:"generated_at"`
	Tasks       int               `json:"tasks"`
	Conflicts   int               `json:"conflicts"`
	Anchors     map[string]string `json:"anchors"`
}

// BuildReport summarizes a roadmap for the report file.
func BuildReport(snapshotID string, r *schedule.Roadmap) Report {
	rep := Report{
		SnapshotID:  snapshotID,
		GeneratedAt: r.GeneratedAt.UTC().Format(time.RFC3339),
		Tasks:       len(r.Tasks),
		Conflicts:   r.Conflicts,
		Anchors:     make(map[string]string, len(r.Anchors)),
	}
	for name, date := range r.Anchors {
		rep.Anchors[name] = schedule.FormatDate(date)
	}
	return rep
}

// WriteReport writes the report as indented JSON, creating parent
// directories as needed.
func WriteReport(path string, rep Report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
