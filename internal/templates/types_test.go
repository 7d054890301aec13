package templates

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadAndSave(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "templates.json")

	original := &File{
		SchemaVersion: 1,
		Templates: []TaskTemplate{
			{
				ID:           "T01",
				Title:        "Book venue",
				Category:     "logistics",
				OffsetRule:   OffsetRule{AnchorName: "event_date", DayDelta: -60},
				DurationDays: 3,
				Priority:     3,
			},
			{
				ID:           "T02",
				Title:        "Send invites",
				Category:     "comms",
				OffsetRule:   OffsetRule{AnchorName: "event_date", DayDelta: -30},
				DurationDays: 1,
				DependsOn:    []string{"T01"},
				Priority:     5,
				Status:       StatusInProgress,
			},
		},
	}

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.SchemaVersion != 1 {
		t.Errorf("SchemaVersion: got %d, want 1", loaded.SchemaVersion)
	}
	if len(loaded.Templates) != 2 {
		t.Fatalf("Templates count: got %d, want 2", len(loaded.Templates))
	}
	if loaded.Templates[0].OffsetRule.DayDelta != -60 {
		t.Errorf("DayDelta: got %d, want -60", loaded.Templates[0].OffsetRule.DayDelta)
	}
	if loaded.Templates[1].DependsOn[0] != "T01" {
		t.Errorf("DependsOn: got %v, want [T01]", loaded.Templates[1].DependsOn)
	}
	if loaded.Templates[1].Status != StatusInProgress {
		t.Errorf("Status: got %q, want %q", loaded.Templates[1].Status, StatusInProgress)
	}
}

func TestLoadErrors(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := Load(filepath.Join(tmpDir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(tmpDir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil || !strings.Contains(err.Error(), "parse templates file") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *File {
		return &File{
			SchemaVersion: 1,
			Templates: []TaskTemplate{
				{
					ID:           "T01",
					Title:        "Book venue",
					OffsetRule:   OffsetRule{AnchorName: "event_date", DayDelta: -60},
					DurationDays: 3,
					Priority:     3,
				},
				{
					ID:           "T02",
					Title:        "Send invites",
					OffsetRule:   OffsetRule{AnchorName: "event_date", DayDelta: -30},
					DurationDays: 1,
					DependsOn:    []string{"T01"},
					Priority:     1,
				},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*File)
		wantErr string // substring of some error; empty means valid
	}{
		{
			name:   "valid file",
			mutate: func(f *File) {},
		},
		{
			name:    "wrong schema_version",
			mutate:  func(f *File) { f.SchemaVersion = 2 },
			wantErr: "schema_version",
		},
		{
			name:    "missing title",
			mutate:  func(f *File) { f.Templates[0].Title = "" },
			wantErr: "title",
		},
		{
			name:    "missing anchor name",
			mutate:  func(f *File) { f.Templates[0].OffsetRule.AnchorName = "" },
			wantErr: "anchor_name",
		},
		{
			name:    "negative duration",
			mutate:  func(f *File) { f.Templates[1].DurationDays = -2 },
			wantErr: "duration_days",
		},
		{
			name:    "invalid status",
			mutate:  func(f *File) { f.Templates[0].Status = "paused" },
			wantErr: "status",
		},
		{
			name:    "duplicate identifier",
			mutate:  func(f *File) { f.Templates[1].ID = "T01" },
			wantErr: "duplicate identifier",
		},
		{
			name:    "unknown dependency",
			mutate:  func(f *File) { f.Templates[1].DependsOn = []string{"T99"} },
			wantErr: `unknown dependency "T99"`,
		},
		{
			name:    "self dependency",
			mutate:  func(f *File) { f.Templates[1].DependsOn = []string{"T02"} },
			wantErr: "depends on itself",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid()
			tt.mutate(f)
			result := f.Validate(ValidationOptions{})

			if !result.UsedSchema {
				t.Fatalf("expected bundled schema validation, warnings: %v", result.Warnings)
			}
			if tt.wantErr == "" {
				if !result.Valid {
					t.Fatalf("expected valid, got errors: %v", result.Errors)
				}
				return
			}
			if result.Valid {
				t.Fatal("expected invalid")
			}
			found := false
			for _, err := range result.Errors {
				if strings.Contains(err.Error(), tt.wantErr) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("no error containing %q in %v", tt.wantErr, result.Errors)
			}
		})
	}
}

func TestValidateWithSchemaFile(t *testing.T) {
	tmpDir := t.TempDir()
	schemaPath := filepath.Join(tmpDir, "templates.schema.json")
	if err := WriteSchema(schemaPath); err != nil {
		t.Fatalf("WriteSchema failed: %v", err)
	}

	f := &File{
		SchemaVersion: 1,
		Templates: []TaskTemplate{
			{
				ID:         "T01",
				Title:      "Book venue",
				OffsetRule: OffsetRule{AnchorName: "event_date", DayDelta: -60},
				Priority:   3,
			},
		},
	}

	result := f.Validate(ValidationOptions{SchemaPath: schemaPath})
	if !result.UsedSchema {
		t.Fatalf("expected schema validation, warnings: %v", result.Warnings)
	}
	if !result.Valid {
		t.Errorf("expected valid, got errors: %v", result.Errors)
	}

	// A missing schema file falls back to the bundled copy.
	result = f.Validate(ValidationOptions{SchemaPath: filepath.Join(tmpDir, "nope.json")})
	if !result.UsedSchema {
		t.Errorf("expected bundled schema fallback, warnings: %v", result.Warnings)
	}
}

func TestCompareIDs(t *testing.T) {
	tests := []struct {
		id1, id2 string
		want     bool
	}{
		{"T01", "T02", true},
		{"T2", "T10", true},
		{"T10", "T2", false},
		{"T01", "T01", false},
		{"alpha", "beta", true},
		{"T1", "alpha", true}, // mixed falls back to lexicographic
	}

	for _, tt := range tests {
		if got := CompareIDs(tt.id1, tt.id2); got != tt.want {
			t.Errorf("CompareIDs(%q, %q) = %v, want %v", tt.id1, tt.id2, got, tt.want)
		}
	}
}

func TestNextID(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		want string
	}{
		{"empty catalog", nil, "T01"},
		{"sequential", []string{"T01", "T02"}, "T03"},
		{"gap keeps max", []string{"T01", "T07"}, "T08"},
		{"wide ids", []string{"T103"}, "T104"},
		{"non-numeric skipped", []string{"venue", "T04"}, "T05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &File{SchemaVersion: 1}
			for _, id := range tt.ids {
				f.Templates = append(f.Templates, TaskTemplate{ID: id})
			}
			if got := f.NextID(); got != tt.want {
				t.Errorf("NextID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"pending", StatusPending, false},
		{"InProgress", StatusInProgress, false},
		{"in-progress", StatusInProgress, false},
		{"IN_PROGRESS", StatusInProgress, false},
		{"Done", StatusDone, false},
		{"blocked", StatusBlocked, false},
		{"skipped", StatusSkipped, false},
		{"paused", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseStatus(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseStatus(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	if !StatusDone.Terminal() || !StatusSkipped.Terminal() {
		t.Error("done and skipped should be terminal")
	}
	if StatusPending.Terminal() || StatusInProgress.Terminal() || StatusBlocked.Terminal() {
		t.Error("pending, in_progress, blocked should not be terminal")
	}
}

func TestCatalogAccessors(t *testing.T) {
	f := &File{
		SchemaVersion: 1,
		Templates: []TaskTemplate{
			{ID: "T01", Title: "Book venue", Category: "logistics", OffsetRule: OffsetRule{AnchorName: "event_date"}},
			{ID: "T02", Title: "Send invites", Category: "comms", OffsetRule: OffsetRule{AnchorName: "announce"}},
			{ID: "T03", Title: "Order catering", Category: "logistics", OffsetRule: OffsetRule{AnchorName: "event_date"}},
		},
	}

	if got := f.Categories(); len(got) != 2 || got[0] != "comms" || got[1] != "logistics" {
		t.Errorf("Categories() = %v", got)
	}
	if got := f.AnchorNames(); len(got) != 2 || got[0] != "announce" || got[1] != "event_date" {
		t.Errorf("AnchorNames() = %v", got)
	}
	if got := f.Titles(); len(got) != 3 || got[0] != "Book venue" {
		t.Errorf("Titles() = %v", got)
	}

	if tmpl := f.GetTemplate("T02"); tmpl == nil || tmpl.Title != "Send invites" {
		t.Errorf("GetTemplate(T02) = %+v", tmpl)
	}
	if tmpl := f.GetTemplate("T99"); tmpl != nil {
		t.Errorf("GetTemplate(T99) = %+v, want nil", tmpl)
	}
}

func TestAddTemplateStampsUpdatedAt(t *testing.T) {
	f := &File{SchemaVersion: 1}
	f.AddTemplate(TaskTemplate{ID: "T01", Title: "Book venue"})

	if len(f.Templates) != 1 {
		t.Fatalf("Templates count: got %d, want 1", len(f.Templates))
	}
	if f.UpdatedAt == "" {
		t.Error("expected updated_at to be stamped")
	}
	if f.NextID() != "T02" {
		t.Errorf("NextID() after add = %q, want T02", f.NextID())
	}
}

func TestInitialStatus(t *testing.T) {
	tmpl := TaskTemplate{ID: "T01"}
	if got := tmpl.InitialStatus(); got != StatusPending {
		t.Errorf("InitialStatus() = %q, want pending", got)
	}
	tmpl.Status = StatusBlocked
	if got := tmpl.InitialStatus(); got != StatusBlocked {
		t.Errorf("InitialStatus() = %q, want blocked", got)
	}
}
