package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/nibzard/roadmap-go/internal/config"
	"github.com/nibzard/roadmap-go/internal/schedule"
	"github.com/nibzard/roadmap-go/internal/store"
	"github.com/nibzard/roadmap-go/internal/templates"
)

// lsCommand lists scheduled tasks from the latest snapshot, or from a fresh
// generation with -live.
func lsCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("roadmap ls", flag.ContinueOnError)
	live := fs.Bool("live", false, "Generate fresh instead of reading the latest snapshot")
	statusFilter := fs.String("status", "", "Filter by status (pending|in_progress|done|blocked|skipped)")
	categoryFilter := fs.String("category", "", "Filter by category")
	conflictsOnly := fs.Bool("conflicts", false, "Show only conflicted tasks")
	if err := fs.Parse(args); err != nil {
		return err
	}

	st, err := store.Open(cfg.DBFile)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	var r *schedule.Roadmap
	if *live {
		r, err = liveRoadmap(ctx, cfg, st)
	} else {
		r, err = st.LatestSnapshot(ctx)
		if errors.Is(err, store.ErrSnapshotNotFound) {
			return fmt.Errorf("no snapshot found, run 'roadmap generate' first (or pass -live)")
		}
	}
	if err != nil {
		return err
	}

	var wantStatus templates.Status
	if *statusFilter != "" {
		wantStatus, err = templates.ParseStatus(*statusFilter)
		if err != nil {
			return err
		}
	}

	tasks := make([]schedule.ScheduledTask, 0, len(r.Tasks))
	for _, t := range r.Tasks {
		if wantStatus != "" && t.Status != wantStatus {
			continue
		}
		if *categoryFilter != "" && t.Category != *categoryFilter {
			continue
		}
		if *conflictsOnly && !t.Conflict {
			continue
		}
		tasks = append(tasks, t)
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks match.")
		return nil
	}

	fmt.Printf("Roadmap of %s: %d task(s), %d conflict(s)\n",
		schedule.FormatDate(r.GeneratedAt), len(tasks), r.Conflicts)
	printTasksByStatus(tasks)
	return nil
}

// printTasksByStatus groups tasks by status, keeping schedule order inside
// each group.
func printTasksByStatus(tasks []schedule.ScheduledTask) {
	for _, status := range templates.ValidStatuses() {
		var group []schedule.ScheduledTask
		for _, t := range tasks {
			if t.Status == status {
				group = append(group, t)
			}
		}
		if len(group) == 0 {
			continue
		}
		fmt.Printf("\n%s %s (%d):\n", statusIcon(status), statusTitle(status), len(group))
		for _, t := range group {
			printScheduledTask(t)
		}
	}
}

func printScheduledTask(t schedule.ScheduledTask) {
	line := fmt.Sprintf("  %-6s %s → %s  %s", t.ID, schedule.FormatDate(t.Start), schedule.FormatDate(t.End), t.Title)
	if t.Category != "" {
		line += fmt.Sprintf("  [%s]", t.Category)
	}
	if t.Conflict {
		line += "  ⚠️  " + t.Reason
	}
	fmt.Println(line)
}

func statusTitle(s templates.Status) string {
	switch s {
	case templates.StatusPending:
		return "Pending"
	case templates.StatusInProgress:
		return "In Progress"
	case templates.StatusDone:
		return "Done"
	case templates.StatusBlocked:
		return "Blocked"
	case templates.StatusSkipped:
		return "Skipped"
	}
	return string(s)
}
