package authoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nibzard/roadmap-go/internal/agents"
	"github.com/nibzard/roadmap-go/internal/graph"
	"github.com/nibzard/roadmap-go/internal/prompts"
	"github.com/nibzard/roadmap-go/internal/schedule"
	"github.com/nibzard/roadmap-go/internal/templates"
)

// Draft is one agent-proposed task template together with the exchange
// that produced it.
type Draft struct {
	Template templates.TaskTemplate
	Prompt   string
	Raw      string
}

// Drafter runs the template drafting flow. Zero Log means agent events
// are discarded; zero Now means wall-clock time.
type Drafter struct {
	Agent    agents.Agent
	Renderer *prompts.Renderer
	Log      agents.LogWriter
	Now      func() time.Time
}

// Draft renders the drafting prompt for the catalog, runs the agent, and
// validates the returned template against the reply schema and the
// engine front half. The catalog file is not modified; call Apply to
// commit an accepted draft. anchors may be empty when no anchor file is
// at hand; anchor resolution is skipped then.
func (d *Drafter) Draft(ctx context.Context, file *templates.File, anchors schedule.Anchors, hint string) (*Draft, error) {
	if d == nil || d.Agent == nil {
		return nil, errors.New("drafter has no agent")
	}
	if file == nil {
		return nil, errors.New("drafter needs a template catalog")
	}

	anchorNames := file.AnchorNames()
	if len(anchors) > 0 {
		anchorNames = anchors.Names()
	}
	data := prompts.NewDraftData(file.NextID(), file.Categories(), anchorNames, taskLines(file), hint, d.now())
	prompt, err := d.Renderer.Render(prompts.DraftPrompt, data)
	if err != nil {
		return nil, err
	}

	reply, err := d.Agent.Run(ctx, prompt, d.logWriter())
	if err != nil {
		return nil, fmt.Errorf("run draft agent: %w", err)
	}

	raw := agents.ExtractJSON(reply.Text)
	if raw == "" {
		return nil, errors.New("no JSON object in agent reply")
	}

	schemaSrc, err := d.Renderer.Store().Load(prompts.DraftSchemaFile)
	if err != nil {
		return nil, err
	}
	if err := validateReply(prompts.DraftSchemaFile, schemaSrc, []byte(raw)); err != nil {
		return nil, err
	}

	var tmpl templates.TaskTemplate
	if err := json.Unmarshal([]byte(raw), &tmpl); err != nil {
		return nil, fmt.Errorf("decode draft template: %w", err)
	}

	if err := ValidateDraft(file, tmpl, anchors); err != nil {
		return nil, err
	}

	return &Draft{Template: tmpl, Prompt: prompt, Raw: raw}, nil
}

func (d *Drafter) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Drafter) logWriter() agents.LogWriter {
	if d.Log != nil {
		return d.Log
	}
	return agents.NullLogWriter{}
}

// ValidateDraft checks that adding draft to the catalog keeps it
// loadable: identifiers stay unique, dependencies and anchors resolve,
// and the dependency graph stays acyclic.
func ValidateDraft(file *templates.File, draft templates.TaskTemplate, anchors schedule.Anchors) error {
	merged := make([]templates.TaskTemplate, 0, len(file.Templates)+1)
	merged = append(merged, file.Templates...)
	merged = append(merged, draft)

	catalog, err := schedule.LoadCatalog(merged)
	if err != nil {
		return fmt.Errorf("draft %q rejected: %w", draft.ID, err)
	}
	if len(anchors) > 0 {
		if _, err := catalog.ResolveCandidates(anchors); err != nil {
			return fmt.Errorf("draft %q rejected: %w", draft.ID, err)
		}
	}
	if _, err := graph.Build(catalog.Templates(), graph.OrderPriorityThenID); err != nil {
		return fmt.Errorf("draft %q rejected: %w", draft.ID, err)
	}
	return nil
}

// Apply appends an accepted draft to the catalog and saves the file.
func Apply(path string, file *templates.File, draft templates.TaskTemplate) error {
	file.AddTemplate(draft)
	return file.Save(path)
}

// taskLines renders existing templates as "ID Title" lines so the agent
// can reference real identifiers in depends_on.
func taskLines(file *templates.File) []string {
	out := make([]string, 0, len(file.Templates))
	for i := range file.Templates {
		out = append(out, file.Templates[i].ID+" "+file.Templates[i].Title)
	}
	return out
}
