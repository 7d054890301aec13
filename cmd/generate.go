package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/nibzard/roadmap-go/internal/config"
	"github.com/nibzard/roadmap-go/internal/export"
	"github.com/nibzard/roadmap-go/internal/graph"
	"github.com/nibzard/roadmap-go/internal/hooks"
	"github.com/nibzard/roadmap-go/internal/logging"
	"github.com/nibzard/roadmap-go/internal/roadmapdir"
	"github.com/nibzard/roadmap-go/internal/schedule"
	"github.com/nibzard/roadmap-go/internal/store"
	"github.com/nibzard/roadmap-go/internal/templates"
)

// genOptions carries the generate flag values into the pipeline.
type genOptions struct {
	out     string
	format  string
	sortKey string
	hook    string
	dryRun  bool
}

// generateCommand runs the full pipeline: catalog load and validation,
// scheduling, status overlay, snapshot, report, optional export, hook.
func generateCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("roadmap generate", flag.ContinueOnError)
	anchors := make(anchorFlag)
	fs.Var(anchors, "anchor", "Anchor date as name=YYYY-MM-DD (repeatable)")
	policy := fs.String("policy", cfg.ConflictPolicy, "Conflict policy (flag or block)")
	tieBreak := fs.String("tie-break", cfg.TieBreak, "Ordering tie-break (priority or identifier)")
	clampAnchor := fs.String("clamp-anchor", cfg.ClampAnchor, "Anchor name no task may start before")
	out := fs.String("out", "", "Export the roadmap to this path")
	format := fs.String("format", "", "Export format (csv or json)")
	sortKey := fs.String("sort", cfg.DefaultSortKey, "Export sort (start, topo, category)")
	hook := fs.String("hook", cfg.HookCommand, "Hook command to run after generate")
	dryRun := fs.Bool("dry-run", false, "Generate without snapshot, report, or hook")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 && strings.HasSuffix(fs.Arg(0), ".json") {
		cfg.TemplatesFile = absPath(cfg.ProjectRoot, fs.Arg(0))
	}
	for name, date := range anchors {
		cfg.SetAnchor(name, date)
	}
	cfg.ConflictPolicy = *policy
	cfg.TieBreak = *tieBreak
	cfg.ClampAnchor = *clampAnchor
	opts := genOptions{
		out:     *out,
		format:  *format,
		sortKey: *sortKey,
		hook:    *hook,
		dryRun:  *dryRun,
	}

	if opts.dryRun {
		return dryRunGenerate(cfg, opts)
	}

	runLog, err := logging.NewRunLogger(cfg.LogDir, cfg.ProjectRoot)
	if err != nil {
		return fmt.Errorf("creating run logger: %w", err)
	}
	defer runLog.Close()

	runLog.Event(logging.EventStart, map[string]any{
		"templates": cfg.TemplatesFile,
		"policy":    cfg.ConflictPolicy,
		"tie_break": cfg.TieBreak,
	})
	if err := runGenerate(ctx, cfg, runLog, opts); err != nil {
		runLog.Event(logging.EventError, map[string]any{"error": err.Error()})
		return err
	}
	return nil
}

// runGenerate is the logged portion of the pipeline. Errors bubble up to
// generateCommand which records them in the run log.
func runGenerate(ctx context.Context, cfg *config.Config, runLog *logging.RunLogger, opts genOptions) error {
	file, result, err := loadCatalogFile(cfg)
	if err != nil {
		return err
	}
	printValidationWarnings(cfg, result)
	runLog.Event(logging.EventCatalog, map[string]any{
		"file":      cfg.TemplatesFile,
		"templates": len(file.Templates),
		"schema":    result.UsedSchema,
	})

	r, err := scheduleRoadmap(cfg, file)
	if err != nil {
		return err
	}
	runLog.Event(logging.EventSchedule, map[string]any{
		"tasks":     len(r.Tasks),
		"conflicts": r.Conflicts,
	})
	for _, t := range r.Tasks {
		if t.Conflict {
			runLog.Event(logging.EventConflict, map[string]any{
				"task":   t.ID,
				"reason": t.Reason,
			})
		}
	}

	st, err := store.Open(cfg.DBFile)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	overrides, err := st.Statuses(ctx)
	if err != nil {
		return fmt.Errorf("reading status overrides: %w", err)
	}
	applied := r.ApplyStatuses(overrides)

	snapshotID, err := st.SaveSnapshot(ctx, r)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	runLog.Event(logging.EventSnapshot, map[string]any{
		"id":       snapshotID,
		"statuses": applied,
	})

	reportPath := roadmapdir.ReportPath(cfg.ProjectRoot)
	if err := export.WriteReport(reportPath, export.BuildReport(snapshotID, r)); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if !cfg.Quiet {
		printRoadmapSummary(r, applied)
		fmt.Printf("Snapshot: %s\n", snapshotID)
		fmt.Printf("Report: %s\n", reportPath)
	}

	if opts.out != "" {
		if err := exportRoadmap(cfg, r, file.Templates, opts); err != nil {
			return err
		}
		runLog.Event(logging.EventExport, map[string]any{"path": opts.out, "format": opts.format})
		if !cfg.Quiet {
			fmt.Printf("Exported: %s\n", opts.out)
		}
	}

	// The snapshot, report, and export above stay on disk even when the
	// hook fails; only the exit status reports the failure.
	hookResult, hookErr := hooks.Invoke(ctx, hooks.Options{
		Command:    opts.hook,
		ReportPath: reportPath,
		Label:      "hook",
		WorkDir:    cfg.ProjectRoot,
	})
	if hookResult.Ran {
		runLog.Event(logging.EventHook, map[string]any{
			"command":   strings.Join(hookResult.Command, " "),
			"exit_code": hookResult.ExitCode,
		})
		if !cfg.Quiet {
			fmt.Printf("Hook exited %d\n", hookResult.ExitCode)
		}
	}
	if hookErr != nil {
		return hookErr
	}

	runLog.Event(logging.EventDone, map[string]any{"snapshot": snapshotID})
	return nil
}

// dryRunGenerate schedules without opening the store or writing the report.
// Status overrides are not applied; an explicit -out export is still honored.
func dryRunGenerate(cfg *config.Config, opts genOptions) error {
	r, file, err := dryGenerate(cfg)
	if err != nil {
		return err
	}
	if !cfg.Quiet {
		fmt.Println("Dry run (no snapshot, report, or hook)")
		printRoadmapSummary(r, 0)
	}
	if opts.out != "" {
		if err := exportRoadmap(cfg, r, file.Templates, opts); err != nil {
			return err
		}
		if !cfg.Quiet {
			fmt.Printf("Exported: %s\n", opts.out)
		}
	}
	return nil
}

// loadCatalogFile loads the configured catalog and validates it. A catalog
// with validation errors never reaches the scheduler.
func loadCatalogFile(cfg *config.Config) (*templates.File, *templates.ValidationResult, error) {
	file, err := templates.Load(cfg.TemplatesFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading templates: %w", err)
	}
	result := file.Validate(templates.ValidationOptions{SchemaPath: cfg.SchemaFile})
	if !result.Valid {
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "  ❌ %v\n", e)
		}
		return nil, nil, fmt.Errorf("invalid templates: %d error(s)", len(result.Errors))
	}
	return file, result, nil
}

func printValidationWarnings(cfg *config.Config, result *templates.ValidationResult) {
	if cfg.Quiet {
		return
	}
	for _, w := range result.Warnings {
		fmt.Printf("  ⚠️  %s\n", w)
	}
}

// scheduleRoadmap runs the engine with the configured anchors and options.
func scheduleRoadmap(cfg *config.Config, file *templates.File) (*schedule.Roadmap, error) {
	policy, err := schedule.ParseConflictPolicy(cfg.ConflictPolicy)
	if err != nil {
		return nil, err
	}
	tie, err := schedule.ParseTieBreak(cfg.TieBreak)
	if err != nil {
		return nil, err
	}
	anchors, err := anchorsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return schedule.Generate(file.Templates, anchors, schedule.Options{
		ConflictPolicy: policy,
		TieBreak:       tie,
		ClampAnchor:    cfg.ClampAnchor,
	})
}

// dryGenerate builds a roadmap from the configured catalog without touching
// the store or any file besides the catalog itself.
func dryGenerate(cfg *config.Config) (*schedule.Roadmap, *templates.File, error) {
	file, result, err := loadCatalogFile(cfg)
	if err != nil {
		return nil, nil, err
	}
	printValidationWarnings(cfg, result)
	r, err := scheduleRoadmap(cfg, file)
	if err != nil {
		return nil, nil, err
	}
	return r, file, nil
}

// liveRoadmap regenerates from the catalog and overlays the stored status
// overrides, without saving a snapshot.
func liveRoadmap(ctx context.Context, cfg *config.Config, st *store.Store) (*schedule.Roadmap, error) {
	r, _, err := dryGenerate(cfg)
	if err != nil {
		return nil, err
	}
	overrides, err := st.Statuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading status overrides: %w", err)
	}
	r.ApplyStatuses(overrides)
	return r, nil
}

// exportRoadmap writes the roadmap to opts.out in the requested format.
func exportRoadmap(cfg *config.Config, r *schedule.Roadmap, tmpls []templates.TaskTemplate, opts genOptions) error {
	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	sortKey, err := export.ParseSort(opts.sortKey)
	if err != nil {
		return err
	}
	exportOpts := export.Options{Format: format, Sort: sortKey}
	if sortKey == export.SortTopo {
		ranks, err := taskRanks(tmpls)
		if err != nil {
			return err
		}
		exportOpts.Ranks = ranks
	}
	return export.WriteFile(absPath(cfg.ProjectRoot, opts.out), r, exportOpts)
}

// taskRanks computes topological ranks for topo-sorted exports.
func taskRanks(tmpls []templates.TaskTemplate) (map[string]int, error) {
	g, err := graph.Build(tmpls, graph.OrderPriorityThenID)
	if err != nil {
		return nil, err
	}
	ranks := make(map[string]int, g.Len())
	for _, id := range g.Order() {
		if rank, ok := g.Rank(id); ok {
			ranks[id] = rank
		}
	}
	return ranks, nil
}

// printRoadmapSummary prints the generated schedule overview.
func printRoadmapSummary(r *schedule.Roadmap, applied int) {
	fmt.Printf("Roadmap: %d tasks, %d conflict(s)\n", len(r.Tasks), r.Conflicts)
	for _, name := range r.Anchors.Names() {
		fmt.Printf("  📅 %s: %s\n", name, schedule.FormatDate(r.Anchors[name]))
	}
	if applied > 0 {
		fmt.Printf("  %d status override(s) applied\n", applied)
	}
	for _, t := range r.Tasks {
		if t.Conflict {
			fmt.Printf("  ⚠️  %s: %s\n", t.ID, t.Reason)
		}
	}
}
