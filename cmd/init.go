package cmd

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/nibzard/roadmap-go/internal/config"
	"github.com/nibzard/roadmap-go/internal/roadmapdir"
	"github.com/nibzard/roadmap-go/internal/templates"
)

// initCommand writes starter files into the project. Existing files are
// never overwritten.
func initCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("roadmap init", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := os.MkdirAll(roadmapdir.DirPath(cfg.ProjectRoot), 0755); err != nil {
		return fmt.Errorf("creating %s directory: %w", roadmapdir.Dir, err)
	}

	wrote := 0
	if created, err := initFile(cfg.TemplatesFile, writeStarterTemplates); err != nil {
		return err
	} else if created {
		fmt.Printf("✅ Created %s\n", cfg.TemplatesFile)
		wrote++
	} else {
		fmt.Printf("⚠️  %s already exists, skipping\n", cfg.TemplatesFile)
	}

	if created, err := initFile(cfg.SchemaFile, templates.WriteSchema); err != nil {
		return err
	} else if created {
		fmt.Printf("✅ Created %s\n", cfg.SchemaFile)
		wrote++
	} else {
		fmt.Printf("⚠️  %s already exists, skipping\n", cfg.SchemaFile)
	}

	configPath := absPath(cfg.ProjectRoot, "roadmap.toml")
	if created, err := initFile(configPath, writeExampleConfig); err != nil {
		return err
	} else if created {
		fmt.Printf("✅ Created %s\n", configPath)
		wrote++
	} else {
		fmt.Printf("⚠️  %s already exists, skipping\n", configPath)
	}

	if wrote > 0 {
		fmt.Println()
		fmt.Println("Next steps:")
		fmt.Println("  1. Set your anchor dates in roadmap.toml under [anchors]")
		fmt.Printf("  2. Edit %s (or use 'roadmap draft')\n", cfg.TemplatesFile)
		fmt.Println("  3. Run 'roadmap generate'")
	}
	return nil
}

// initFile writes path with write unless it already exists.
func initFile(path string, write func(string) error) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("checking %s: %w", path, err)
	}
	if err := write(path); err != nil {
		return false, err
	}
	return true, nil
}

func writeStarterTemplates(path string) error {
	file := &templates.File{
		SchemaVersion: 1,
		UpdatedAt:     time.Now().UTC().Format(time.RFC3339),
		Templates: []templates.TaskTemplate{
			{
				ID:           "T01",
				Title:        "Define scope",
				Category:     "planning",
				OffsetRule:   templates.OffsetRule{AnchorName: "kickoff", DayDelta: 0},
				DurationDays: 3,
				Priority:     5,
			},
			{
				ID:           "T02",
				Title:        "Build press kit",
				Category:     "marketing",
				OffsetRule:   templates.OffsetRule{AnchorName: "event_date", DayDelta: -30},
				DurationDays: 5,
				DependsOn:    []string{"T01"},
				Priority:     3,
			},
			{
				ID:           "T03",
				Title:        "Dry run",
				Category:     "ops",
				OffsetRule:   templates.OffsetRule{AnchorName: "event_date", DayDelta: -7},
				DurationDays: 1,
				DependsOn:    []string{"T02"},
				Priority:     4,
			},
		},
	}
	return file.Save(path)
}

func writeExampleConfig(path string) error {
	if err := os.WriteFile(path, []byte(config.ExampleConfig()), 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
