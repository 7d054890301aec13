package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	"github.com/nibzard/roadmap-go/internal/agents"
	"github.com/nibzard/roadmap-go/internal/authoring"
	"github.com/nibzard/roadmap-go/internal/config"
	"github.com/nibzard/roadmap-go/internal/logging"
	"github.com/nibzard/roadmap-go/internal/prompts"
	"github.com/nibzard/roadmap-go/internal/templates"
)

// draftCommand asks the configured agent for one new task template and
// appends it to the catalog after validation.
func draftCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("roadmap draft", flag.ContinueOnError)
	dryRun := fs.Bool("dry-run", false, "Print the drafted template without saving it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	hint := strings.Join(fs.Args(), " ")

	file, err := templates.Load(cfg.TemplatesFile)
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}
	anchors, err := anchorsFromConfig(cfg)
	if err != nil {
		return err
	}

	runLog, err := logging.NewRunLogger(cfg.LogDir, cfg.ProjectRoot)
	if err != nil {
		return fmt.Errorf("creating run logger: %w", err)
	}
	defer runLog.Close()

	agentName := cfg.AgentName()
	agent, err := newConfiguredAgent(cfg, agentName, runLog.LastMessagePath("draft"))
	if err != nil {
		return err
	}

	drafter := &authoring.Drafter{
		Agent:    agent,
		Renderer: newPromptRenderer(cfg),
		Log:      agentLogWriter(cfg, runLog),
	}

	if !cfg.Quiet {
		fmt.Printf("🤖 Drafting with %s (hint: %q)\n", agentName, hint)
	}
	draft, err := drafter.Draft(ctx, file, anchors, hint)
	if err != nil {
		runLog.Event(logging.EventError, map[string]any{"error": err.Error()})
		return err
	}

	if cfg.PrintPrompt && config.PromptDevModeEnabled() {
		fmt.Println("--- prompt ---")
		fmt.Println(draft.Prompt)
		fmt.Println("--------------")
	}

	rendered, err := json.MarshalIndent(draft.Template, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("Draft %s:\n%s\n", draft.Template.ID, rendered)

	if *dryRun {
		fmt.Println("Dry run, catalog not modified")
		return nil
	}
	if err := authoring.Apply(cfg.TemplatesFile, file, draft.Template); err != nil {
		return fmt.Errorf("saving template: %w", err)
	}
	fmt.Printf("✅ Added %s to %s\n", draft.Template.ID, cfg.TemplatesFile)
	return nil
}

// newConfiguredAgent builds an agent from its configured binary, model, and
// prompt format.
func newConfiguredAgent(cfg *config.Config, name, lastMessagePath string) (agents.Agent, error) {
	return agents.NewAgent(agents.AgentType(name), agents.Config{
		Binary:          cfg.GetAgentBinary(name),
		Model:           cfg.GetAgentModel(name),
		Reasoning:       cfg.GetAgentReasoning(name),
		Args:            cfg.GetAgentArgs(name),
		PromptFormat:    cfg.GetAgentPromptFormat(name),
		Timeout:         cfg.GetAgentTimeout(name),
		WorkDir:         cfg.ProjectRoot,
		LastMessagePath: lastMessagePath,
	})
}

// agentLogWriter writes agent events to the run log, echoing them to the
// console unless quiet mode is on.
func agentLogWriter(cfg *config.Config, runLog *logging.RunLogger) agents.LogWriter {
	fileWriter := agents.NewIOStreamLogWriter(runLog.Writer())
	if cfg.Quiet {
		return fileWriter
	}
	console := agents.NewConsoleLogWriterFromConfig(
		cfg.LogLevel, cfg.LogFormat, cfg.LogTimestamps, cfg.LogCaller, "roadmap")
	return agents.NewMultiLogWriter(fileWriter, console)
}

// newPromptRenderer builds the prompt renderer with dev-mode overrides when
// enabled.
func newPromptRenderer(cfg *config.Config) *prompts.Renderer {
	return prompts.NewRenderer(prompts.NewStore(cfg.ProjectRoot, devPromptDir(cfg)))
}

// devPromptDir returns the prompt override directory, or empty unless dev
// mode is explicitly enabled.
func devPromptDir(cfg *config.Config) string {
	if !config.PromptDevModeEnabled() {
		return ""
	}
	return cfg.PromptDir
}
