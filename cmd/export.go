package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/nibzard/roadmap-go/internal/config"
	"github.com/nibzard/roadmap-go/internal/export"
	"github.com/nibzard/roadmap-go/internal/schedule"
	"github.com/nibzard/roadmap-go/internal/store"
	"github.com/nibzard/roadmap-go/internal/templates"
)

// exportCommand writes a snapshot (or a live generation) as CSV or JSON.
func exportCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("roadmap export", flag.ContinueOnError)
	out := fs.String("out", "", "Write to this path instead of stdout")
	formatFlag := fs.String("format", "", "Export format (csv or json)")
	sortFlag := fs.String("sort", cfg.DefaultSortKey, "Export sort (start, topo, category)")
	category := fs.String("category", "", "Export only this category")
	live := fs.Bool("live", false, "Generate fresh instead of reading the latest snapshot")
	snapshotID := fs.String("snapshot", "", "Export the snapshot with this id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// An explicit -format wins; otherwise .json output paths get JSON.
	rawFormat := *formatFlag
	if rawFormat == "" && strings.HasSuffix(*out, ".json") {
		rawFormat = "json"
	}
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return err
	}
	sortKey, err := export.ParseSort(*sortFlag)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DBFile)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	var r *schedule.Roadmap
	switch {
	case *live:
		r, err = liveRoadmap(ctx, cfg, st)
	case *snapshotID != "":
		r, err = st.Snapshot(ctx, *snapshotID)
	default:
		r, err = st.LatestSnapshot(ctx)
		if errors.Is(err, store.ErrSnapshotNotFound) {
			return fmt.Errorf("no snapshot found, run 'roadmap generate' first (or pass -live)")
		}
	}
	if err != nil {
		return err
	}

	opts := export.Options{Format: format, Sort: sortKey, Category: *category}
	if sortKey == export.SortTopo {
		// Ranks come from the current catalog; a snapshot from an older
		// catalog exports in the current dependency order.
		file, err := templates.Load(cfg.TemplatesFile)
		if err != nil {
			return fmt.Errorf("topo sort needs the catalog: %w", err)
		}
		opts.Ranks, err = taskRanks(file.Templates)
		if err != nil {
			return err
		}
	}

	if *out == "" {
		return export.Write(os.Stdout, r, opts)
	}
	if err := export.WriteFile(absPath(cfg.ProjectRoot, *out), r, opts); err != nil {
		return err
	}
	if !cfg.Quiet {
		fmt.Printf("Exported: %s\n", *out)
	}
	return nil
}
