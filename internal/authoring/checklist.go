package authoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nibzard/roadmap-go/internal/agents"
	"github.com/nibzard/roadmap-go/internal/prompts"
	"github.com/nibzard/roadmap-go/internal/roadmapdir"
	"github.com/nibzard/roadmap-go/internal/templates"
)

// Checklist size bounds, enforced on top of the reply schema so direct
// callers get the same guarantees.
const (
	MinChecklistItems = 5
	MaxChecklistItems = 12
	MinRisks          = 3
	MaxRisks          = 8
)

// Checklist is the structured agent reply for one task.
type Checklist struct {
	DoneDefinition string   `json:"done_definition"`
	Checklist      []string `json:"checklist"`
	Risks          []string `json:"risks"`
}

// Checklister runs the per-task checklist flow.
type Checklister struct {
	Agent    agents.Agent
	Renderer *prompts.Renderer
	Log      agents.LogWriter
	Now      func() time.Time
}

// Generate renders the checklist prompt for task, runs the agent, and
// validates the structured reply.
func (c *Checklister) Generate(ctx context.Context, task prompts.Task) (*Checklist, error) {
	if c == nil || c.Agent == nil {
		return nil, errors.New("checklister has no agent")
	}

	data := prompts.NewChecklistData(task, c.now())
	prompt, err := c.Renderer.Render(prompts.ChecklistPrompt, data)
	if err != nil {
		return nil, err
	}

	reply, err := c.Agent.Run(ctx, prompt, c.logWriter())
	if err != nil {
		return nil, fmt.Errorf("run checklist agent: %w", err)
	}

	raw := agents.ExtractJSON(reply.Text)
	if raw == "" {
		return nil, errors.New("no JSON object in agent reply")
	}

	schemaSrc, err := c.Renderer.Store().Load(prompts.ChecklistSchemaFile)
	if err != nil {
		return nil, err
	}
	if err := validateReply(prompts.ChecklistSchemaFile, schemaSrc, []byte(raw)); err != nil {
		return nil, err
	}

	var cl Checklist
	if err := json.Unmarshal([]byte(raw), &cl); err != nil {
		return nil, fmt.Errorf("decode checklist: %w", err)
	}

	if err := validateChecklist(&cl); err != nil {
		return nil, err
	}
	return &cl, nil
}

func (c *Checklister) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Checklister) logWriter() agents.LogWriter {
	if c.Log != nil {
		return c.Log
	}
	return agents.NullLogWriter{}
}

// validateChecklist re-checks the schema bounds and rejects blank
// entries, which a length-only schema cannot catch.
func validateChecklist(cl *Checklist) error {
	var errs []error
	if strings.TrimSpace(cl.DoneDefinition) == "" {
		errs = append(errs, &templates.ValidationError{
			Path: "done_definition",
			Err:  errors.New("must not be empty"),
		})
	}
	if n := len(cl.Checklist); n < MinChecklistItems || n > MaxChecklistItems {
		errs = append(errs, &templates.ValidationError{
			Path: "checklist",
			Err:  fmt.Errorf("needs %d to %d steps, got %d", MinChecklistItems, MaxChecklistItems, n),
		})
	}
	for i, item := range cl.Checklist {
		if strings.TrimSpace(item) == "" {
			errs = append(errs, &templates.ValidationError{
				Path: fmt.Sprintf("checklist[%d]", i),
				Err:  errors.New("must not be blank"),
			})
		}
	}
	if n := len(cl.Risks); n < MinRisks || n > MaxRisks {
		errs = append(errs, &templates.ValidationError{
			Path: "risks",
			Err:  fmt.Errorf("needs %d to %d entries, got %d", MinRisks, MaxRisks, n),
		})
	}
	for i, item := range cl.Risks {
		if strings.TrimSpace(item) == "" {
			errs = append(errs, &templates.ValidationError{
				Path: fmt.Sprintf("risks[%d]", i),
				Err:  errors.New("must not be blank"),
			})
		}
	}
	if len(errs) > 0 {
		return &ReplyValidationError{Errors: errs}
	}
	return nil
}

// Markdown renders a checklist for writing next to the catalog.
func Markdown(task prompts.Task, cl *Checklist) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s\n\n", task.ID, task.Title)
	if task.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n\n", task.Category)
	}
	if task.Start != "" && task.End != "" {
		fmt.Fprintf(&b, "Scheduled: %s to %s\n\n", task.Start, task.End)
	}
	b.WriteString("## Done definition\n\n")
	b.WriteString(strings.TrimSpace(cl.DoneDefinition))
	b.WriteString("\n\n## Checklist\n\n")
	for _, item := range cl.Checklist {
		fmt.Fprintf(&b, "- [ ] %s\n", item)
	}
	b.WriteString("\n## Risks\n\n")
	for _, item := range cl.Risks {
		fmt.Fprintf(&b, "- %s\n", item)
	}
	return b.String()
}

// Path returns the checklist file path for a task id.
func Path(workDir, id string) string {
	return filepath.Join(roadmapdir.ChecklistsPath(workDir), id+".md")
}

// Write writes rendered checklist content, creating the directory.
func Write(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create checklist directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write checklist: %w", err)
	}
	return nil
}
