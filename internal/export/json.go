package export

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nibzard/roadmap-go/internal/schedule"
)

type jsonTask struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Status   string `json:"status"`
	Conflict bool   `json:"conflict"`
	Reason   string `json:"reason,omitempty"`
}

type jsonDoc struct {
	GeneratedAt string            `json:"generated_at"`
	Anchors     map[string]string `json:"anchors"`
	Conflicts   int               `json:"conflicts"`
	Tasks       []jsonTask        `json:"tasks"`
}

// writeJSON emits the roadmap as an indented document. The conflict
// count is recomputed from the rows actually included so a filtered
// export stays self-consistent.
func writeJSON(w io.Writer, r *schedule.Roadmap, tasks []schedule.ScheduledTask) error {
	doc := jsonDoc{
		GeneratedAt: r.GeneratedAt.UTC().Format(time.RFC3339),
		Anchors:     make(map[string]string, len(r.Anchors)),
		Tasks:       make([]jsonTask, 0, len(tasks)),
	}
	for name, date := range r.Anchors {
		doc.Anchors[name] = schedule.FormatDate(date)
	}
	for _, t := range tasks {
		if t.Conflict {
			doc.Conflicts++
		}
		doc.Tasks = append(doc.Tasks, jsonTask{
			ID:       t.ID,
			Title:    t.Title,
			Category: t.Category,
			Start:    schedule.FormatDate(t.Start),
			End:      schedule.FormatDate(t.End),
			Status:   string(t.Status),
			Conflict: t.Conflict,
			Reason:   t.Reason,
		})
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
