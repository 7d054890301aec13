package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nibzard/roadmap-go/internal/agents"
	"github.com/nibzard/roadmap-go/internal/authoring"
	"github.com/nibzard/roadmap-go/internal/config"
	"github.com/nibzard/roadmap-go/internal/logging"
	"github.com/nibzard/roadmap-go/internal/prompts"
	"github.com/nibzard/roadmap-go/internal/schedule"
	"github.com/nibzard/roadmap-go/internal/store"
	"github.com/nibzard/roadmap-go/internal/templates"
)

// checklistCommand generates execution checklists for scheduled tasks.
func checklistCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("roadmap checklist", flag.ContinueOnError)
	all := fs.Bool("all", false, "Generate checklists for every task")
	workers := fs.Int("workers", 0, "Concurrent agent runs with -all (default: CPU count)")
	interval := fs.Duration("interval", 0, "Minimum spacing between agent starts with -all")
	failFast := fs.Bool("fail-fast", false, "Stop scheduling new tasks after the first failure")
	toStdout := fs.Bool("stdout", false, "Print the checklist instead of writing a file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*all && fs.NArg() != 1 {
		return fmt.Errorf("usage: roadmap checklist <id> (or -all)")
	}

	r, file, err := roadmapForAuthoring(ctx, cfg)
	if err != nil {
		return err
	}

	runLog, err := logging.NewRunLogger(cfg.LogDir, cfg.ProjectRoot)
	if err != nil {
		return fmt.Errorf("creating run logger: %w", err)
	}
	defer runLog.Close()

	agentName := cfg.AgentName()
	agent, err := newConfiguredAgent(cfg, agentName, runLog.LastMessagePath("checklist"))
	if err != nil {
		return err
	}
	checklister := &authoring.Checklister{
		Agent:    agent,
		Renderer: newPromptRenderer(cfg),
	}

	if *all {
		checklister.Log = batchLogWriter(cfg, runLog)
		return checklistAll(ctx, cfg, checklister, r, file, authoring.BatchOptions{
			Workers:  *workers,
			Interval: *interval,
			FailFast: *failFast,
		})
	}
	checklister.Log = agentLogWriter(cfg, runLog)
	return checklistOne(ctx, cfg, checklister, r, file, fs.Arg(0), *toStdout)
}

// batchLogWriter is agentLogWriter for fan-out runs: the console side
// multiplexes task-prefixed lines so interleaved workers stay readable.
func batchLogWriter(cfg *config.Config, runLog *logging.RunLogger) agents.LogWriter {
	fileWriter := agents.NewIOStreamLogWriter(runLog.Writer())
	if cfg.Quiet {
		return fileWriter
	}
	return agents.NewMultiLogWriter(fileWriter, agents.NewMultiplexedLogWriter(os.Stdout))
}

func checklistOne(ctx context.Context, cfg *config.Config, checklister *authoring.Checklister, r *schedule.Roadmap, file *templates.File, id string, toStdout bool) error {
	task := r.Task(id)
	if task == nil {
		return fmt.Errorf("task %s is not in the roadmap", id)
	}
	promptTask := promptTaskFor(*task, file)

	if !cfg.Quiet {
		fmt.Printf("🤖 Generating checklist for %s\n", id)
	}
	cl, err := checklister.Generate(ctx, promptTask)
	if err != nil {
		return err
	}
	content := authoring.Markdown(promptTask, cl)
	if toStdout {
		fmt.Print(content)
		return nil
	}
	path := authoring.Path(cfg.ProjectRoot, id)
	if err := authoring.Write(path, content); err != nil {
		return err
	}
	fmt.Printf("✅ Wrote %s\n", path)
	return nil
}

func checklistAll(ctx context.Context, cfg *config.Config, checklister *authoring.Checklister, r *schedule.Roadmap, file *templates.File, opts authoring.BatchOptions) error {
	tasks := make([]prompts.Task, 0, len(r.Tasks))
	for _, t := range r.Tasks {
		tasks = append(tasks, promptTaskFor(t, file))
	}
	if !cfg.Quiet {
		fmt.Printf("🤖 Generating %d checklist(s)\n", len(tasks))
	}

	start := time.Now()
	results, err := checklister.GenerateAll(ctx, tasks, cfg.ProjectRoot, opts)
	for _, res := range results {
		if res.Err != nil {
			fmt.Printf("  ❌ %s: %v (%s)\n", res.TaskID, res.Err, res.Duration.Round(time.Second))
			continue
		}
		if !cfg.Quiet {
			fmt.Printf("  ✅ %s: %s (%s)\n", res.TaskID, res.Path, res.Duration.Round(time.Second))
		}
	}
	if err != nil {
		return err
	}
	fmt.Printf("Done: %d checklist(s) in %s\n", len(results), time.Since(start).Round(time.Second))
	return nil
}

// roadmapForAuthoring returns the latest snapshot, or a live generation when
// no snapshot exists yet, together with the catalog for dependency titles.
func roadmapForAuthoring(ctx context.Context, cfg *config.Config) (*schedule.Roadmap, *templates.File, error) {
	file, err := templates.Load(cfg.TemplatesFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading templates: %w", err)
	}

	st, err := store.Open(cfg.DBFile)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	r, err := st.LatestSnapshot(ctx)
	if errors.Is(err, store.ErrSnapshotNotFound) {
		r, err = liveRoadmap(ctx, cfg, st)
	}
	if err != nil {
		return nil, nil, err
	}
	return r, file, nil
}

// promptTaskFor flattens a scheduled task for prompt rendering.
func promptTaskFor(t schedule.ScheduledTask, file *templates.File) prompts.Task {
	var deps []string
	if tmpl := file.GetTemplate(t.ID); tmpl != nil {
		deps = tmpl.DependsOn
	}
	return prompts.Task{
		ID:       t.ID,
		Title:    t.Title,
		Category: t.Category,
		Start:    schedule.FormatDate(t.Start),
		End:      schedule.FormatDate(t.End),
		Status:   string(t.Status),
		Deps:     strings.Join(deps, ", "),
	}
}
