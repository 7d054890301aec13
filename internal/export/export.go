// Package export renders scheduled roadmaps as CSV or JSON documents.
//
// Export never re-schedules: it filters and reorders copies of the
// roadmap's tasks. Three sort orders are supported: "start" keeps the
// roadmap's own order, "topo" orders by topological rank, and
// "category" groups categories by their earliest start date.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/nibzard/roadmap-go/internal/schedule"
	"github.com/nibzard/roadmap-go/internal/templates"
)

// Format selects the output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat maps user input to a Format. Empty input means CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown export format %q (expected csv or json)", s)
	}
}

// Sort selects the row order.
type Sort string

const (
	SortStart    Sort = "start"
	SortTopo     Sort = "topo"
	SortCategory Sort = "category"
)

// ParseSort maps user input to a Sort. Empty input means start order.
func ParseSort(s string) (Sort, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "start":
		return SortStart, nil
	case "topo", "topological":
		return SortTopo, nil
	case "category":
		return SortCategory, nil
	default:
		return "", fmt.Errorf("unknown sort order %q (expected start, topo, or category)", s)
	}
}

// Options controls what Write emits. Ranks maps template ids to their
// topological rank and is required for SortTopo.
type Options struct {
	Format   Format
	Sort     Sort
	Category string
	Ranks    map[string]int
}

// Write renders the roadmap to w.
func Write(w io.Writer, r *schedule.Roadmap, opts Options) error {
	tasks, err := arrange(r, opts)
	if err != nil {
		return err
	}
	switch opts.Format {
	case FormatJSON:
		return writeJSON(w, r, tasks)
	case FormatCSV, "":
		return writeCSV(w, tasks)
	default:
		return fmt.Errorf("unknown export format %q", opts.Format)
	}
}

// WriteFile renders the roadmap to path, creating parent directories
// as needed.
func WriteFile(path string, r *schedule.Roadmap, opts Options) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := Write(f, r, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// arrange filters and orders copies of the roadmap's tasks without
// touching the roadmap itself.
func arrange(r *schedule.Roadmap, opts Options) ([]schedule.ScheduledTask, error) {
	tasks := make([]schedule.ScheduledTask, 0, len(r.Tasks))
	for _, t := range r.Tasks {
		if opts.Category != "" && !strings.EqualFold(t.Category, opts.Category) {
			continue
		}
		tasks = append(tasks, t)
	}

	switch opts.Sort {
	case SortStart, "":
		// Roadmap order is already start ascending.
	case SortTopo:
		if opts.Ranks == nil {
			return nil, fmt.Errorf("topological sort requires task ranks")
		}
		sort.SliceStable(tasks, func(i, j int) bool {
			ri, iok := opts.Ranks[tasks[i].ID]
			rj, jok := opts.Ranks[tasks[j].ID]
			if iok != jok {
				// Ranked rows come before unranked ones.
				return iok
			}
			if iok && ri != rj {
				return ri < rj
			}
			return templates.CompareIDs(tasks[i].ID, tasks[j].ID)
		})
	case SortCategory:
		earliest := make(map[string]time.Time, 4)
		for _, t := range tasks {
			if cur, ok := earliest[t.Category]; !ok || t.Start.Before(cur) {
				earliest[t.Category] = t.Start
			}
		}
		sort.SliceStable(tasks, func(i, j int) bool {
			ci, cj := tasks[i].Category, tasks[j].Category
			if ci == cj {
				// Keep roadmap order within a category.
				return false
			}
			ei, ej := earliest[ci], earliest[cj]
			if !ei.Equal(ej) {
				return ei.Before(ej)
			}
			return ci < cj
		})
	default:
		return nil, fmt.Errorf("unknown sort order %q", opts.Sort)
	}
	return tasks, nil
}
