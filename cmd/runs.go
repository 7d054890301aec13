package cmd

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/nibzard/roadmap-go/internal/config"
	"github.com/nibzard/roadmap-go/internal/store"
)

// runsCommand lists recent snapshots, newest first.
func runsCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("roadmap runs", flag.ContinueOnError)
	limit := fs.Int("limit", 10, "Number of snapshots to list")
	deleteID := fs.String("delete", "", "Delete the snapshot with this id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	st, err := store.Open(cfg.DBFile)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	if *deleteID != "" {
		if err := st.DeleteSnapshot(ctx, *deleteID); err != nil {
			return err
		}
		fmt.Printf("Deleted snapshot %s\n", *deleteID)
		return nil
	}

	snaps, err := st.ListSnapshots(ctx, *limit)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Println("No snapshots. Run 'roadmap generate' first.")
		return nil
	}
	fmt.Printf("Snapshots (%d):\n", len(snaps))
	for _, s := range snaps {
		fmt.Printf("  %s  %s  %d task(s), %d conflict(s)\n",
			s.ID, s.CreatedAt.UTC().Format(time.RFC3339), s.Tasks, s.Conflicts)
	}
	return nil
}
