package cmd

import (
	"context"
	"flag"
	"fmt"
	"sort"

	"github.com/nibzard/roadmap-go/internal/config"
	"github.com/nibzard/roadmap-go/internal/store"
	"github.com/nibzard/roadmap-go/internal/templates"
)

// statusCommand lists, sets, or clears status overrides.
//
//	roadmap status                 list overrides
//	roadmap status <id> <status>   set an override
//	roadmap status -clear <id>     clear an override
func statusCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("roadmap status", flag.ContinueOnError)
	clearFlag := fs.Bool("clear", false, "Clear the override for the given template id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	// Accept -clear after the id as well; flag parsing stops at the first
	// positional argument.
	clearOverride := *clearFlag
	var pos []string
	for _, a := range fs.Args() {
		if a == "-clear" || a == "--clear" {
			clearOverride = true
			continue
		}
		pos = append(pos, a)
	}

	st, err := store.Open(cfg.DBFile)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	switch {
	case clearOverride:
		if len(pos) != 1 {
			return fmt.Errorf("usage: roadmap status -clear <id>")
		}
		if err := st.ClearStatus(ctx, pos[0]); err != nil {
			return err
		}
		fmt.Printf("Cleared override for %s\n", pos[0])
		return nil
	case len(pos) == 0:
		return listStatusOverrides(ctx, cfg, st)
	case len(pos) == 2:
		return setStatusOverride(ctx, cfg, st, pos[0], pos[1])
	default:
		return fmt.Errorf("usage: roadmap status [<id> <status>] [-clear <id>]")
	}
}

func listStatusOverrides(ctx context.Context, cfg *config.Config, st *store.Store) error {
	overrides, err := st.Statuses(ctx)
	if err != nil {
		return err
	}
	if len(overrides) == 0 {
		fmt.Println("No status overrides.")
		return nil
	}

	known := catalogIDs(cfg)
	ids := make([]string, 0, len(overrides))
	for id := range overrides {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return templates.CompareIDs(ids[i], ids[j]) })

	fmt.Printf("Status overrides (%d):\n", len(ids))
	for _, id := range ids {
		status := overrides[id]
		line := fmt.Sprintf("  %s %s: %s", statusIcon(status), id, status)
		if known != nil && !known[id] {
			line += "  (not in catalog)"
		}
		fmt.Println(line)
	}
	return nil
}

func setStatusOverride(ctx context.Context, cfg *config.Config, st *store.Store, id, raw string) error {
	status, err := templates.ParseStatus(raw)
	if err != nil {
		return err
	}
	// Unknown ids are stored anyway: the catalog may gain the template
	// later, and generate ignores overrides it cannot match.
	if known := catalogIDs(cfg); known != nil && !known[id] {
		fmt.Printf("⚠️  %s is not in the catalog; storing the override anyway\n", id)
	}
	if err := st.SetStatus(ctx, id, status); err != nil {
		return err
	}
	fmt.Printf("%s %s → %s\n", statusIcon(status), id, status)
	return nil
}

// catalogIDs returns the template id set, or nil when the catalog cannot be
// read. Status edits never require a readable catalog.
func catalogIDs(cfg *config.Config) map[string]bool {
	file, err := templates.Load(cfg.TemplatesFile)
	if err != nil {
		return nil
	}
	ids := make(map[string]bool, len(file.Templates))
	for i := range file.Templates {
		ids[file.Templates[i].ID] = true
	}
	return ids
}
