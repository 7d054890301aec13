package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/nibzard/roadmap-go/internal/config"
	"github.com/nibzard/roadmap-go/internal/schedule"
	"github.com/nibzard/roadmap-go/internal/store"
	"github.com/nibzard/roadmap-go/internal/ui"
)

// tuiCommand launches the interactive roadmap browser. The view always
// regenerates from the catalog so edits show up on refresh.
func tuiCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("roadmap tui", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	st, err := store.Open(cfg.DBFile)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	return ui.RunTUI(ctx, ui.Options{
		TemplatesPath: cfg.TemplatesFile,
		Generate: func(ctx context.Context) (*schedule.Roadmap, error) {
			return liveRoadmap(ctx, cfg, st)
		},
		Statuses: st,
	})
}
