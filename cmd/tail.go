package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/nibzard/roadmap-go/internal/config"
	"github.com/nibzard/roadmap-go/internal/logging"
)

// tailCommand shows the latest run log for this project.
func tailCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("roadmap tail", flag.ContinueOnError)
	follow := fs.Bool("follow", false, "Follow the log (like tail -f)")
	fs.BoolVar(follow, "f", false, "Follow the log (like tail -f)")
	lines := fs.Int("n", 0, "Number of lines to show (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logDir, err := logging.FindLogDir(cfg.LogDir, cfg.ProjectRoot)
	if err != nil {
		return err
	}
	latest, err := logging.FindLatestLog(logDir)
	if err != nil {
		return err
	}
	if latest == "" {
		fmt.Println("No run logs found. Run 'roadmap generate' first.")
		return nil
	}

	if !cfg.Quiet {
		fmt.Fprintf(os.Stderr, "==> %s <==\n", latest)
	}
	return logging.TailLog(ctx, os.Stdout, latest, *lines, *follow)
}
