package prompts

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// BenchmarkNewDraftData benchmarks draft prompt data creation.
func BenchmarkNewDraftData(b *testing.B) {
	categories := []string{"infra", "launch", "marketing"}
	anchors := []string{"kickoff", "beta-freeze", "ga"}
	titles := []string{
		"T01 Provision staging",
		"T02 Cut beta branch",
		"T03 Run load test",
		"T04 Draft release notes",
	}
	for i := 0; i < b.N; i++ {
		_ = NewDraftData("T05", categories, anchors, titles, "add a rollback drill", time.Now())
	}
}

// BenchmarkNewChecklistData benchmarks checklist prompt data creation.
func BenchmarkNewChecklistData(b *testing.B) {
	task := Task{
		ID:       "T03",
		Title:    "Run load test",
		Category: "infra",
		Start:    "2024-02-01",
		End:      "2024-02-03",
		Status:   "pending",
		Deps:     "T01, T02",
	}
	for i := 0; i < b.N; i++ {
		_ = NewChecklistData(task, time.Now())
	}
}

// BenchmarkRenderer_RenderBundled benchmarks rendering the embedded
// draft prompt without disk access.
func BenchmarkRenderer_RenderBundled(b *testing.B) {
	b.Setenv("HOME", b.TempDir())
	b.Setenv("USERPROFILE", b.TempDir())

	renderer := NewRenderer(NewStore(b.TempDir(), ""))
	data := NewDraftData("T05",
		[]string{"infra", "launch"},
		[]string{"kickoff", "beta-freeze"},
		[]string{"T01 Provision staging", "T02 Cut beta branch"},
		"add a rollback drill",
		time.Now())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := renderer.Render(DraftPrompt, data)
		if err != nil {
			b.Fatalf("Render failed: %v", err)
		}
	}
}

// BenchmarkRenderer_RenderOverride benchmarks rendering a project
// override loaded from disk.
func BenchmarkRenderer_RenderOverride(b *testing.B) {
	b.Setenv("HOME", b.TempDir())
	b.Setenv("USERPROFILE", b.TempDir())

	projectRoot := b.TempDir()
	store := NewStore(projectRoot, "")
	if err := os.MkdirAll(store.ProjectDir(), 0755); err != nil {
		b.Fatalf("Failed to create project prompts dir: %v", err)
	}
	promptContent := `Propose task {{.NextID}}.
Anchors: {{.AnchorNames}}
Categories: {{.Categories}}
Existing tasks:
{{.Titles}}
Hint: {{.Hint}}
Time: {{.Now}}
`
	if err := os.WriteFile(filepath.Join(store.ProjectDir(), DraftPrompt), []byte(promptContent), 0644); err != nil {
		b.Fatalf("Failed to create override prompt: %v", err)
	}

	renderer := NewRenderer(store)
	data := NewDraftData("T05",
		[]string{"infra", "launch"},
		[]string{"kickoff", "beta-freeze"},
		[]string{"T01 Provision staging", "T02 Cut beta branch"},
		"add a rollback drill",
		time.Now())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := renderer.Render(DraftPrompt, data)
		if err != nil {
			b.Fatalf("Render failed: %v", err)
		}
	}
}

// BenchmarkValidateRequired benchmarks required variable validation.
func BenchmarkValidateRequired(b *testing.B) {
	data := Data{
		NextID: "T05",
		Task:   Task{ID: "T03", Title: "Run load test"},
		Now:    time.Now().UTC().Format(time.RFC3339),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := validateRequired(ChecklistPrompt, data); err != nil {
			b.Fatalf("validateRequired failed: %v", err)
		}
	}
}

// BenchmarkStore_Resolve benchmarks the override resolution chain when
// everything falls through to the bundled assets.
func BenchmarkStore_Resolve(b *testing.B) {
	b.Setenv("HOME", b.TempDir())
	b.Setenv("USERPROFILE", b.TempDir())

	store := NewStore(b.TempDir(), "")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, err := store.Resolve(ChecklistPrompt)
		if err != nil {
			b.Fatalf("Resolve failed: %v", err)
		}
	}
}
