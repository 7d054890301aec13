package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/nibzard/roadmap-go/internal/agents"
	"github.com/nibzard/roadmap-go/internal/config"
	"github.com/nibzard/roadmap-go/internal/export"
	"github.com/nibzard/roadmap-go/internal/prompts"
	"github.com/nibzard/roadmap-go/internal/schedule"
	"github.com/nibzard/roadmap-go/internal/store"
	"github.com/nibzard/roadmap-go/internal/templates"
)

// doctorCommand checks the durable setup: config, catalog, anchors, state,
// agents, hook, and prompts.
func doctorCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("roadmap doctor", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Println("Roadmap Doctor")
	fmt.Println("==============")
	fmt.Println()

	hasErrors := false

	// Check 1: project and config
	fmt.Println("1. Checking project...")
	fmt.Printf("  ✅ Project root: %s\n", cfg.ProjectRoot)
	printConfigSources()
	if _, err := schedule.ParseConflictPolicy(cfg.ConflictPolicy); err != nil {
		fmt.Printf("  ❌ Conflict policy: %v\n", err)
		hasErrors = true
	} else {
		fmt.Printf("  ✅ Conflict policy: %s\n", cfg.ConflictPolicy)
	}
	if _, err := schedule.ParseTieBreak(cfg.TieBreak); err != nil {
		fmt.Printf("  ❌ Tie-break: %v\n", err)
		hasErrors = true
	} else {
		fmt.Printf("  ✅ Tie-break: %s\n", cfg.TieBreak)
	}
	if _, err := export.ParseSort(cfg.DefaultSortKey); err != nil {
		fmt.Printf("  ❌ Default sort: %v\n", err)
		hasErrors = true
	} else {
		fmt.Printf("  ✅ Default sort: %s\n", cfg.DefaultSortKey)
	}

	// Check 2: template catalog
	fmt.Println()
	fmt.Println("2. Checking templates...")
	var file *templates.File
	if _, err := os.Stat(cfg.TemplatesFile); os.IsNotExist(err) {
		fmt.Printf("  ⚠️  Not found (run 'roadmap init'): %s\n", cfg.TemplatesFile)
	} else {
		loaded, err := templates.Load(cfg.TemplatesFile)
		if err != nil {
			fmt.Printf("  ❌ Error: %v\n", err)
			hasErrors = true
		} else {
			result := loaded.Validate(templates.ValidationOptions{SchemaPath: cfg.SchemaFile})
			if !result.Valid {
				for _, e := range result.Errors {
					fmt.Printf("  ❌ %v\n", e)
				}
				hasErrors = true
			} else {
				file = loaded
				check := "structural checks only"
				if result.UsedSchema {
					check = "schema checks on"
				}
				fmt.Printf("  ✅ Catalog: %s (%d templates, %s)\n", cfg.TemplatesFile, len(loaded.Templates), check)
			}
			for _, w := range result.Warnings {
				fmt.Printf("  ⚠️  %s\n", w)
			}
		}
	}

	// Check 3: anchors
	fmt.Println()
	fmt.Println("3. Checking anchors...")
	if len(cfg.Anchors) == 0 {
		fmt.Println("  ⚠️  No anchors configured (set [anchors] in roadmap.toml or pass -anchor)")
	}
	for _, name := range cfg.AnchorNames() {
		if _, err := schedule.ParseDate(cfg.Anchors[name]); err != nil {
			fmt.Printf("  ❌ %s: %v\n", name, err)
			hasErrors = true
		} else {
			fmt.Printf("  ✅ %s: %s\n", name, cfg.Anchors[name])
		}
	}
	if file != nil {
		for _, name := range missingAnchors(cfg, file) {
			fmt.Printf("  ⚠️  %s: referenced by the catalog but not configured\n", name)
		}
	}

	// Check 4: state database
	fmt.Println()
	fmt.Println("4. Checking database...")
	if _, err := os.Stat(cfg.DBFile); os.IsNotExist(err) {
		fmt.Printf("  ⚠️  Not found (will be created on first generate): %s\n", cfg.DBFile)
	} else if st, err := store.Open(cfg.DBFile); err != nil {
		fmt.Printf("  ❌ Error: %v\n", err)
		hasErrors = true
	} else {
		ctx := context.Background()
		overrides, oErr := st.Statuses(ctx)
		snaps, sErr := st.ListSnapshots(ctx, 0)
		st.Close()
		if oErr != nil || sErr != nil {
			fmt.Printf("  ❌ Error reading state: %v\n", firstError(oErr, sErr))
			hasErrors = true
		} else {
			fmt.Printf("  ✅ Database: %s (%d override(s), %d snapshot(s))\n", cfg.DBFile, len(overrides), len(snaps))
		}
	}

	// Check 5: log directory
	fmt.Println()
	fmt.Println("5. Checking log directory...")
	if _, err := os.Stat(cfg.LogDir); os.IsNotExist(err) {
		fmt.Printf("  ⚠️  Not found (will be created on first run): %s\n", cfg.LogDir)
	} else {
		fmt.Printf("  ✅ Log dir: %s\n", cfg.LogDir)
	}

	// Check 6: agents
	fmt.Println()
	fmt.Println("6. Checking agents...")
	configured := cfg.AgentName()
	if !checkBinary(configured+" (configured agent)", cfg.GetAgentBinary(configured), true) {
		hasErrors = true
	}
	for _, name := range otherAgentNames(cfg, configured) {
		checkBinary(name, cfg.GetAgentBinary(name), false)
	}

	// Check 7: hook
	fmt.Println()
	fmt.Println("7. Checking hook...")
	if cfg.HookCommand == "" {
		fmt.Println("  ✅ No hook configured")
	} else if fields := strings.Fields(cfg.HookCommand); len(fields) == 0 {
		fmt.Println("  ❌ Hook command is blank")
		hasErrors = true
	} else if !checkBinary("hook", fields[0], true) {
		hasErrors = true
	}

	// Check 8: prompts
	fmt.Println()
	fmt.Println("8. Checking prompts...")
	promptStore := prompts.NewStore(cfg.ProjectRoot, devPromptDir(cfg))
	for _, name := range prompts.AssetNames() {
		if _, source, err := promptStore.Resolve(name); err != nil {
			fmt.Printf("  ❌ %s: %v\n", name, err)
			hasErrors = true
		} else {
			fmt.Printf("  ✅ %s: %s\n", name, source)
		}
	}

	fmt.Println()
	if hasErrors {
		return fmt.Errorf("doctor checks failed")
	}
	fmt.Println("✅ All checks passed!")
	return nil
}

// printConfigSources reports which config file loaded and which values came
// from the environment. Flags are not reflected here; doctor describes the
// durable setup.
func printConfigSources() {
	cws, err := config.LoadWithSources(nil, nil)
	if err != nil {
		fmt.Printf("  ❌ Config: %v\n", err)
		return
	}
	if cws.ConfigFile == "" {
		fmt.Println("  ⚠️  No config file found (using defaults)")
	} else {
		fmt.Printf("  ✅ Config file: %s\n", cws.ConfigFile)
	}
	fields := make([]string, 0, len(cws.Sources))
	for field := range cws.Sources {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		if source := cws.Sources[field]; source == config.SourceEnv {
			fmt.Printf("     %s set via %s\n", field, source)
		}
	}
}

// checkBinary reports whether a binary resolves and is executable. Optional
// binaries degrade to a warning.
func checkBinary(label, binary string, required bool) bool {
	path := binary
	if !strings.ContainsRune(binary, os.PathSeparator) {
		found, err := exec.LookPath(binary)
		if err != nil {
			if required {
				fmt.Printf("  ❌ %s: %q not found in PATH\n", label, binary)
				return false
			}
			fmt.Printf("  ⚠️  %s: %q not found in PATH (optional)\n", label, binary)
			return true
		}
		path = found
	}
	if err := agents.ValidateBinary(path); err != nil {
		if required {
			fmt.Printf("  ❌ %s: %v\n", label, err)
			return false
		}
		fmt.Printf("  ⚠️  %s: %v (optional)\n", label, err)
		return true
	}
	fmt.Printf("  ✅ %s: %s\n", label, path)
	return true
}

// otherAgentNames lists known agents besides the configured one: built-ins
// plus anything with a config section.
func otherAgentNames(cfg *config.Config, configured string) []string {
	seen := map[string]bool{configured: true}
	var names []string
	for _, name := range []string{"claude", "codex"} {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	var custom []string
	for name := range cfg.Agents {
		if !seen[name] {
			seen[name] = true
			custom = append(custom, name)
		}
	}
	sort.Strings(custom)
	return append(names, custom...)
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
