package cmd

import (
	"flag"
	"fmt"

	"github.com/nibzard/roadmap-go/internal/config"
	"github.com/nibzard/roadmap-go/internal/templates"
)

// validateCommand checks the catalog and, when every referenced anchor is
// configured, runs a scheduling pass so validate catches what generate would.
func validateCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("roadmap validate", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		cfg.TemplatesFile = absPath(cfg.ProjectRoot, fs.Arg(0))
	}

	file, err := templates.Load(cfg.TemplatesFile)
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}
	result := file.Validate(templates.ValidationOptions{SchemaPath: cfg.SchemaFile})
	for _, e := range result.Errors {
		fmt.Printf("  ❌ %v\n", e)
	}
	for _, w := range result.Warnings {
		fmt.Printf("  ⚠️  %s\n", w)
	}
	if !result.Valid {
		return fmt.Errorf("invalid templates: %d error(s)", len(result.Errors))
	}
	fmt.Printf("✅ %s is valid (%d templates)\n", cfg.TemplatesFile, len(file.Templates))
	if !result.UsedSchema {
		fmt.Println("  ⚠️  Schema file not found, structural checks only")
	}

	missing := missingAnchors(cfg, file)
	if len(missing) > 0 {
		for _, name := range missing {
			fmt.Printf("  ⚠️  Anchor %q is not configured (set [anchors] in roadmap.toml or pass -anchor)\n", name)
		}
		fmt.Println("  ⚠️  Scheduling check skipped")
		return nil
	}

	r, err := scheduleRoadmap(cfg, file)
	if err != nil {
		return fmt.Errorf("scheduling check: %w", err)
	}
	fmt.Printf("  ✅ Scheduling check passed (%d tasks, %d conflict(s))\n", len(r.Tasks), r.Conflicts)
	return nil
}

// missingAnchors lists referenced anchors absent from the config. The clamp
// anchor counts as referenced because scheduling needs its date too.
func missingAnchors(cfg *config.Config, file *templates.File) []string {
	names := file.AnchorNames()
	if cfg.ClampAnchor != "" {
		names = append(names, cfg.ClampAnchor)
	}
	seen := make(map[string]bool)
	var missing []string
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		if _, ok := cfg.Anchors[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
