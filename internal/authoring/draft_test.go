package authoring

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nibzard/roadmap-go/internal/agents"
	"github.com/nibzard/roadmap-go/internal/prompts"
	"github.com/nibzard/roadmap-go/internal/schedule"
	"github.com/nibzard/roadmap-go/internal/templates"
)

const validDraftJSON = `{"id":"T03","title":"Run load test","category":"qa","offset_rule":{"anchor_name":"kickoff","day_delta":5},"duration_days":2,"depends_on":["T01"],"priority":4}`

// stubAgent replies with canned text and records the prompts it saw.
// When replies is set, the reply is picked by the task id found in the
// prompt, falling back to reply.
type stubAgent struct {
	mu      sync.Mutex
	reply   string
	replies map[string]string
	err     error
	delay   time.Duration
	calls   int
	prompts []string
}

func (s *stubAgent) Run(ctx context.Context, prompt string, logWriter agents.LogWriter) (*agents.Reply, error) {
	s.mu.Lock()
	s.calls++
	s.prompts = append(s.prompts, prompt)
	reply := s.reply
	for id, r := range s.replies {
		if strings.Contains(prompt, "- id: "+id+"\n") {
			reply = r
			break
		}
	}
	err := s.err
	delay := s.delay
	s.mu.Unlock()

	if logWriter != nil {
		_ = logWriter.Write(agents.LogEvent{Type: "text", Timestamp: time.Now(), Content: "stub"})
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &agents.Reply{Text: reply}, nil
}

func (s *stubAgent) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubAgent) lastPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.prompts) == 0 {
		return ""
	}
	return s.prompts[len(s.prompts)-1]
}

// testRenderer builds a renderer over empty override directories so the
// bundled assets resolve regardless of the host home directory.
func testRenderer(t *testing.T) *prompts.Renderer {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	return prompts.NewRenderer(prompts.NewStore(t.TempDir(), ""))
}

func draftCatalog() *templates.File {
	return &templates.File{
		SchemaVersion: 1,
		Templates: []templates.TaskTemplate{
			{
				ID:           "T01",
				Title:        "Provision staging",
				Category:     "infra",
				OffsetRule:   templates.OffsetRule{AnchorName: "kickoff"},
				DurationDays: 2,
				Priority:     5,
			},
			{
				ID:           "T02",
				Title:        "Cut beta branch",
				Category:     "release",
				OffsetRule:   templates.OffsetRule{AnchorName: "beta-freeze", DayDelta: -1},
				DurationDays: 1,
				DependsOn:    []string{"T01"},
				Priority:     3,
			},
		},
	}
}

func draftAnchors() schedule.Anchors {
	return schedule.Anchors{
		"kickoff":     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		"beta-freeze": time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}
}

func validDraft() templates.TaskTemplate {
	return templates.TaskTemplate{
		ID:           "T03",
		Title:        "Run load test",
		Category:     "qa",
		OffsetRule:   templates.OffsetRule{AnchorName: "kickoff", DayDelta: 5},
		DurationDays: 2,
		DependsOn:    []string{"T01"},
		Priority:     4,
	}
}

func TestDrafterDraft(t *testing.T) {
	agent := &stubAgent{reply: "Here is a proposal.\n```json\n" + validDraftJSON + "\n```\n"}
	d := &Drafter{
		Agent:    agent,
		Renderer: testRenderer(t),
		Now:      func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
	file := draftCatalog()

	draft, err := d.Draft(context.Background(), file, draftAnchors(), "load testing")
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}

	tmpl := draft.Template
	if tmpl.ID != "T03" || tmpl.Title != "Run load test" || tmpl.Category != "qa" {
		t.Errorf("unexpected template: %+v", tmpl)
	}
	if tmpl.OffsetRule.AnchorName != "kickoff" || tmpl.OffsetRule.DayDelta != 5 {
		t.Errorf("unexpected offset rule: %+v", tmpl.OffsetRule)
	}
	if tmpl.DurationDays != 2 || tmpl.Priority != 4 {
		t.Errorf("unexpected duration/priority: %+v", tmpl)
	}
	if len(tmpl.DependsOn) != 1 || tmpl.DependsOn[0] != "T01" {
		t.Errorf("unexpected depends_on: %v", tmpl.DependsOn)
	}
	if draft.Raw != validDraftJSON {
		t.Errorf("Raw = %q", draft.Raw)
	}

	prompt := agent.lastPrompt()
	if draft.Prompt != prompt {
		t.Error("Prompt does not match what the agent saw")
	}
	for _, want := range []string{
		`"id": "T03"`,
		"Known anchors: beta-freeze, kickoff",
		"Existing categories: infra, release",
		"- T01 Provision staging",
		"- T02 Cut beta branch",
		"The user asked for: load testing",
		"Current time: 2024-03-01T12:00:00Z",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}

	if len(file.Templates) != 2 {
		t.Errorf("Draft modified the catalog: %d templates", len(file.Templates))
	}
}

func TestDrafterDraftFencedReply(t *testing.T) {
	agent := &stubAgent{reply: "```json\n" + validDraftJSON + "\n```"}
	d := &Drafter{Agent: agent, Renderer: testRenderer(t)}

	draft, err := d.Draft(context.Background(), draftCatalog(), draftAnchors(), "")
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if draft.Template.ID != "T03" {
		t.Errorf("ID = %q, want T03", draft.Template.ID)
	}
}

func TestDrafterDraftAnchorNamesFallBackToCatalog(t *testing.T) {
	agent := &stubAgent{reply: validDraftJSON}
	d := &Drafter{Agent: agent, Renderer: testRenderer(t)}

	if _, err := d.Draft(context.Background(), draftCatalog(), nil, ""); err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if !strings.Contains(agent.lastPrompt(), "Known anchors: beta-freeze, kickoff") {
		t.Errorf("prompt missing catalog anchors:\n%s", agent.lastPrompt())
	}

	anchors := draftAnchors()
	anchors["launch"] = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	if _, err := d.Draft(context.Background(), draftCatalog(), anchors, ""); err != nil {
		t.Fatalf("Draft with anchors: %v", err)
	}
	if !strings.Contains(agent.lastPrompt(), "Known anchors: beta-freeze, kickoff, launch") {
		t.Errorf("prompt missing provided anchors:\n%s", agent.lastPrompt())
	}
}

func TestDrafterDraftNoJSON(t *testing.T) {
	agent := &stubAgent{reply: "I could not come up with a task."}
	d := &Drafter{Agent: agent, Renderer: testRenderer(t)}

	_, err := d.Draft(context.Background(), draftCatalog(), nil, "")
	if err == nil || !strings.Contains(err.Error(), "no JSON object") {
		t.Errorf("error = %v, want no JSON object", err)
	}
}

func TestDrafterDraftAgentError(t *testing.T) {
	agentErr := errors.New("binary not found")
	d := &Drafter{Agent: &stubAgent{err: agentErr}, Renderer: testRenderer(t)}

	_, err := d.Draft(context.Background(), draftCatalog(), nil, "")
	if !errors.Is(err, agentErr) {
		t.Errorf("error = %v, want wrapped agent error", err)
	}
	if err == nil || !strings.Contains(err.Error(), "run draft agent") {
		t.Errorf("error = %v, want run draft agent prefix", err)
	}
}

func draftReply(t *testing.T, mutate func(map[string]any)) string {
	t.Helper()
	var obj map[string]any
	if err := json.Unmarshal([]byte(validDraftJSON), &obj); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}
	mutate(obj)
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return string(data)
}

func TestDrafterDraftSchemaViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
		want   string
	}{
		{"negative duration", func(o map[string]any) { o["duration_days"] = -1 }, "duration_days"},
		{"missing priority", func(o map[string]any) { delete(o, "priority") }, "priority"},
		{"unexpected field", func(o map[string]any) { o["notes"] = "remember this" }, "notes"},
		{"blank title", func(o map[string]any) { o["title"] = "" }, "title"},
		{"bad status", func(o map[string]any) { o["status"] = "paused" }, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent := &stubAgent{reply: draftReply(t, tt.mutate)}
			d := &Drafter{Agent: agent, Renderer: testRenderer(t)}

			_, err := d.Draft(context.Background(), draftCatalog(), nil, "")
			var rve *ReplyValidationError
			if !errors.As(err, &rve) {
				t.Fatalf("error = %v, want ReplyValidationError", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestDrafterDraftRejectsDuplicateID(t *testing.T) {
	agent := &stubAgent{reply: draftReply(t, func(o map[string]any) { o["id"] = "T01" })}
	d := &Drafter{Agent: agent, Renderer: testRenderer(t)}

	_, err := d.Draft(context.Background(), draftCatalog(), draftAnchors(), "")
	if !errors.Is(err, schedule.ErrDuplicateIdentifier) {
		t.Errorf("error = %v, want duplicate identifier", err)
	}
}

func TestValidateDraft(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*templates.TaskTemplate)
		useAnchors bool
		wantIs     error
		wantMsg    string
	}{
		{
			name:       "accepts valid draft",
			useAnchors: true,
		},
		{
			name:       "duplicate identifier",
			mutate:     func(d *templates.TaskTemplate) { d.ID = "T01" },
			useAnchors: true,
			wantIs:     schedule.ErrDuplicateIdentifier,
			wantMsg:    `duplicate identifier "T01"`,
		},
		{
			name:       "unknown dependency",
			mutate:     func(d *templates.TaskTemplate) { d.DependsOn = []string{"T99"} },
			useAnchors: true,
			wantIs:     schedule.ErrUnknownDependency,
			wantMsg:    `unknown dependency "T99" of "T03"`,
		},
		{
			name:       "unknown anchor",
			mutate:     func(d *templates.TaskTemplate) { d.OffsetRule.AnchorName = "launch" },
			useAnchors: true,
			wantIs:     schedule.ErrUnknownAnchor,
			wantMsg:    `unknown anchor "launch" referenced by "T03"`,
		},
		{
			name:   "anchor check skipped without anchors",
			mutate: func(d *templates.TaskTemplate) { d.OffsetRule.AnchorName = "launch" },
		},
		{
			name:       "self dependency cycle",
			mutate:     func(d *templates.TaskTemplate) { d.DependsOn = []string{"T03"} },
			useAnchors: true,
			wantIs:     schedule.ErrCyclicDependency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := draftCatalog()
			draft := validDraft()
			if tt.mutate != nil {
				tt.mutate(&draft)
			}
			var anchors schedule.Anchors
			if tt.useAnchors {
				anchors = draftAnchors()
			}

			err := ValidateDraft(file, draft, anchors)
			if tt.wantIs == nil {
				if err != nil {
					t.Fatalf("ValidateDraft: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantIs) {
				t.Errorf("error = %v, want %v", err, tt.wantIs)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not contain %q", err, tt.wantMsg)
			}
			if len(file.Templates) != 2 {
				t.Errorf("ValidateDraft modified the catalog: %d templates", len(file.Templates))
			}
		})
	}
}

func TestDraftApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.json")
	file := draftCatalog()
	if err := file.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := Apply(path, file, validDraft()); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	loaded, err := templates.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Templates) != 3 {
		t.Fatalf("got %d templates, want 3", len(loaded.Templates))
	}
	if loaded.GetTemplate("T03") == nil {
		t.Error("T03 missing after Apply")
	}
	if loaded.UpdatedAt == "" {
		t.Error("updated_at not stamped")
	}
}

func TestDrafterDraftUninitialized(t *testing.T) {
	var nilDrafter *Drafter
	if _, err := nilDrafter.Draft(context.Background(), draftCatalog(), nil, ""); err == nil {
		t.Error("nil drafter should error")
	}

	d := &Drafter{Renderer: testRenderer(t)}
	if _, err := d.Draft(context.Background(), draftCatalog(), nil, ""); err == nil {
		t.Error("drafter without agent should error")
	}

	d = &Drafter{Agent: &stubAgent{reply: validDraftJSON}, Renderer: testRenderer(t)}
	if _, err := d.Draft(context.Background(), nil, nil, ""); err == nil {
		t.Error("nil catalog should error")
	}
}
