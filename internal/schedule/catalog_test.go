package schedule

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/nibzard/roadmap-go/internal/templates"
)

func TestLoadCatalogErrors(t *testing.T) {
	tests := []struct {
		name     string
		tmpls    []templates.TaskTemplate
		sentinel error
		wantMsg  string
	}{
		{
			name: "duplicate identifier",
			tmpls: []templates.TaskTemplate{
				{ID: "T01", Title: "one"},
				{ID: "T01", Title: "two"},
			},
			sentinel: ErrDuplicateIdentifier,
			wantMsg:  `duplicate identifier "T01"`,
		},
		{
			name: "negative duration",
			tmpls: []templates.TaskTemplate{
				{ID: "T01", Title: "one", DurationDays: -3},
			},
			sentinel: ErrInvalidDuration,
			wantMsg:  `invalid duration for "T01": -3 days`,
		},
		{
			name: "unknown dependency",
			tmpls: []templates.TaskTemplate{
				{ID: "T01", Title: "one", DependsOn: []string{"T99"}},
			},
			sentinel: ErrUnknownDependency,
			wantMsg:  `unknown dependency "T99" of "T01"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := LoadCatalog(tt.tmpls)
			if err == nil {
				t.Fatal("expected error")
			}
			if c != nil {
				t.Error("expected no catalog on error")
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("errors.Is(%v, sentinel) = false", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q missing %q", err.Error(), tt.wantMsg)
			}
		})
	}

	t.Run("missing identifier", func(t *testing.T) {
		if _, err := LoadCatalog([]templates.TaskTemplate{{Title: "anon"}}); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := LoadCatalog([]templates.TaskTemplate{{ID: "T01", Title: "one", Status: "paused"}})
		if err == nil || !strings.Contains(err.Error(), "invalid status") {
			t.Fatalf("expected invalid status error, got %v", err)
		}
	})
}

func TestLoadCatalogNormalizesDependsOn(t *testing.T) {
	c, err := LoadCatalog([]templates.TaskTemplate{
		{ID: "T01", Title: "one"},
		{ID: "T02", Title: "two"},
		{ID: "T03", Title: "three", DependsOn: []string{"T02", "T01", "T02", "T01"}},
	})
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}

	got, ok := c.Template("T03")
	if !ok {
		t.Fatal("Template(T03) not found")
	}
	if want := []string{"T02", "T01"}; !reflect.DeepEqual(got.DependsOn, want) {
		t.Errorf("DependsOn = %v, want %v", got.DependsOn, want)
	}
}

func TestCatalogCopySemantics(t *testing.T) {
	src := []templates.TaskTemplate{{ID: "T01", Title: "one"}}
	c, err := LoadCatalog(src)
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}

	src[0].Title = "mutated"
	if got, _ := c.Template("T01"); got.Title != "one" {
		t.Errorf("catalog shares caller memory: title = %q", got.Title)
	}

	out := c.Templates()
	out[0].Title = "mutated again"
	if got, _ := c.Template("T01"); got.Title != "one" {
		t.Errorf("Templates() exposes internal memory: title = %q", got.Title)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestResolveCandidates(t *testing.T) {
	c, err := LoadCatalog([]templates.TaskTemplate{
		{ID: "T01", Title: "before", OffsetRule: templates.OffsetRule{AnchorName: "event_date", DayDelta: -10}},
		{ID: "T02", Title: "on", OffsetRule: templates.OffsetRule{AnchorName: "event_date", DayDelta: 0}},
		{ID: "T03", Title: "after", OffsetRule: templates.OffsetRule{AnchorName: "announce", DayDelta: 3}},
	})
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}

	anchors := Anchors{
		"event_date": date(t, "2024-06-01"),
		"announce":   date(t, "2024-05-01"),
	}

	candidates, err := c.ResolveCandidates(anchors)
	if err != nil {
		t.Fatalf("ResolveCandidates failed: %v", err)
	}

	want := map[string]string{
		"T01": "2024-05-22",
		"T02": "2024-06-01",
		"T03": "2024-05-04",
	}
	for id, wantDate := range want {
		if got := FormatDate(candidates[id]); got != wantDate {
			t.Errorf("candidate[%s] = %s, want %s", id, got, wantDate)
		}
	}
}

func TestResolveCandidatesUnknownAnchor(t *testing.T) {
	c, err := LoadCatalog([]templates.TaskTemplate{
		{ID: "T01", Title: "one", OffsetRule: templates.OffsetRule{AnchorName: "kickoff", DayDelta: -1}},
	})
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}

	_, err = c.ResolveCandidates(Anchors{"event_date": date(t, "2024-06-01")})
	if err == nil {
		t.Fatal("expected unknown anchor error")
	}
	if !errors.Is(err, ErrUnknownAnchor) {
		t.Errorf("errors.Is(ErrUnknownAnchor) = false for %v", err)
	}
	if !strings.Contains(err.Error(), `"kickoff"`) {
		t.Errorf("error %q should name the anchor", err.Error())
	}

	var uae *UnknownAnchorError
	if !errors.As(err, &uae) || uae.Anchor != "kickoff" || uae.ID != "T01" {
		t.Errorf("UnknownAnchorError = %+v", uae)
	}
}
