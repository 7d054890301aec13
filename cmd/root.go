// Package cmd implements the CLI command structure for roadmap.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nibzard/roadmap-go/internal/config"
	"github.com/nibzard/roadmap-go/internal/schedule"
	"github.com/nibzard/roadmap-go/internal/templates"
	"github.com/nibzard/roadmap-go/internal/utils"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Run executes the roadmap CLI.
func Run(ctx context.Context, args []string) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("roadmap", flag.ContinueOnError)
	fs.Usage = func() {
		printUsage(fs, os.Stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cfg, err := config.Load(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, os.Stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	// Determine the subcommand
	// If no args or first arg is a flag, use "generate" as default
	subcommand := "generate"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 {
		// Check if it looks like a subcommand (doesn't start with -)
		if !strings.HasPrefix(remainingArgs[0], "-") {
			subcommand = remainingArgs[0]
			remainingArgs = remainingArgs[1:]
		}
	}

	// Execute the subcommand
	switch subcommand {
	case "generate", "gen":
		return generateCommand(ctx, cfg, remainingArgs)
	case "validate":
		return validateCommand(cfg, remainingArgs)
	case "ls", "list":
		return lsCommand(ctx, cfg, remainingArgs)
	case "status":
		return statusCommand(ctx, cfg, remainingArgs)
	case "draft":
		return draftCommand(ctx, cfg, remainingArgs)
	case "checklist":
		return checklistCommand(ctx, cfg, remainingArgs)
	case "runs":
		return runsCommand(ctx, cfg, remainingArgs)
	case "export":
		return exportCommand(ctx, cfg, remainingArgs)
	case "tui":
		return tuiCommand(ctx, cfg, remainingArgs)
	case "doctor":
		return doctorCommand(cfg, remainingArgs)
	case "init":
		return initCommand(cfg, remainingArgs)
	case "completion":
		return completionCommand(cfg, remainingArgs)
	case "tail":
		return tailCommand(ctx, cfg, remainingArgs)
	case "version", "--version", "-v":
		return versionCommand()
	case "help", "--help", "-h":
		printUsage(fs, os.Stdout)
		return nil
	default:
		// A bare path ending in .json is the templates file for generate.
		if strings.HasSuffix(subcommand, ".json") {
			cfg.TemplatesFile = absPath(cfg.ProjectRoot, subcommand)
			return generateCommand(ctx, cfg, remainingArgs)
		}
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, os.Stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// versionCommand prints version information.
func versionCommand() error {
	fmt.Printf("roadmap version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Roadmap - A deterministic event-roadmap generator")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  roadmap [command] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  generate [file]   Generate the roadmap (default command)")
	fmt.Fprintln(w, "  validate [file]   Validate the template catalog")
	fmt.Fprintln(w, "  ls                List scheduled tasks from the latest snapshot")
	fmt.Fprintln(w, "  status [id] [st]  List, set, or clear status overrides")
	fmt.Fprintln(w, "  draft [hint]      Draft a new task template with an agent")
	fmt.Fprintln(w, "  checklist <id>    Generate an execution checklist with an agent")
	fmt.Fprintln(w, "  runs              List recent roadmap snapshots")
	fmt.Fprintln(w, "  export            Export the roadmap as CSV or JSON")
	fmt.Fprintln(w, "  tui               Launch the terminal roadmap browser")
	fmt.Fprintln(w, "  doctor            Check config, catalog, anchors, and dependencies")
	fmt.Fprintln(w, "  init              Write starter templates, schema, and config")
	fmt.Fprintln(w, "  completion <sh>   Print a shell completion script")
	fmt.Fprintln(w, "  tail              Tail the latest run log")
	fmt.Fprintln(w, "  version           Show version information")
	fmt.Fprintln(w, "  help              Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate Options (use with 'generate' command):")
	fmt.Fprintln(w, "  -anchor name=date")
	fmt.Fprintln(w, "        Anchor date as name=YYYY-MM-DD (repeatable)")
	fmt.Fprintln(w, "  -policy string")
	fmt.Fprintln(w, "        Conflict policy (flag or block)")
	fmt.Fprintln(w, "  -tie-break string")
	fmt.Fprintln(w, "        Ordering tie-break (priority or identifier)")
	fmt.Fprintln(w, "  -clamp-anchor string")
	fmt.Fprintln(w, "        Anchor name no task may start before")
	fmt.Fprintln(w, "  -out string")
	fmt.Fprintln(w, "        Export the roadmap to this path")
	fmt.Fprintln(w, "  -format string")
	fmt.Fprintln(w, "        Export format (csv or json)")
	fmt.Fprintln(w, "  -sort string")
	fmt.Fprintln(w, "        Export sort (start, topo, category)")
	fmt.Fprintln(w, "  -hook string")
	fmt.Fprintln(w, "        Hook command to run after generate")
	fmt.Fprintln(w, "  -dry-run")
	fmt.Fprintln(w, "        Generate without snapshot, report, or hook")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Ls Options (use with 'ls' command):")
	fmt.Fprintln(w, "  -live             Generate fresh instead of reading the latest snapshot")
	fmt.Fprintln(w, "  -status string    Filter by status (pending|in_progress|done|blocked|skipped)")
	fmt.Fprintln(w, "  -category string  Filter by category")
	fmt.Fprintln(w, "  -conflicts        Show only conflicted tasks")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Checklist Options (use with 'checklist' command):")
	fmt.Fprintln(w, "  -all              Generate checklists for every task")
	fmt.Fprintln(w, "  -workers int      Concurrent agent runs with -all (default: CPU count)")
	fmt.Fprintln(w, "  -fail-fast        Stop scheduling new tasks after the first failure")
	fmt.Fprintln(w, "  -stdout           Print the checklist instead of writing a file")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tail Options (use with 'tail' command):")
	fmt.Fprintln(w, "  -f, --follow")
	fmt.Fprintln(w, "        Follow the log (like tail -f)")
	fmt.Fprintln(w, "  -n int")
	fmt.Fprintln(w, "        Number of lines to show (0 = all)")
}

// anchorFlag collects repeated -anchor name=YYYY-MM-DD pairs.
type anchorFlag map[string]string

func (a anchorFlag) String() string {
	if len(a) == 0 {
		return ""
	}
	parts := make([]string, 0, len(a))
	for name, date := range a {
		parts = append(parts, name+"="+date)
	}
	return strings.Join(parts, ",")
}

func (a anchorFlag) Set(s string) error {
	name, date, err := utils.SplitKeyValue(s)
	if err != nil {
		return err
	}
	a[name] = date
	return nil
}

// anchorsFromConfig parses the configured anchor dates.
func anchorsFromConfig(cfg *config.Config) (schedule.Anchors, error) {
	anchors := make(schedule.Anchors, len(cfg.Anchors))
	for name, date := range cfg.Anchors {
		t, err := schedule.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("anchor %s: %w", name, err)
		}
		anchors[name] = t
	}
	return anchors, nil
}

// absPath resolves p against root unless it is already absolute.
func absPath(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// statusIcon maps a status to its display icon.
func statusIcon(s templates.Status) string {
	switch s {
	case templates.StatusPending:
		return "📝"
	case templates.StatusInProgress:
		return "🔄"
	case templates.StatusDone:
		return "✅"
	case templates.StatusBlocked:
		return "🚫"
	case templates.StatusSkipped:
		return "⏭️"
	}
	return "❓"
}
