package schedule

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nibzard/roadmap-go/internal/templates"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func fixedNow() time.Time {
	return time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
}

func testOptions() Options {
	return Options{Now: fixedNow}
}

// The canonical two-task fixture: X lands before its anchor untouched, Y's
// offset disagrees with its dependency on X and slips forward, flagged.
func TestOffsetAgainstDependency(t *testing.T) {
	tmpls := []templates.TaskTemplate{
		{
			ID:           "X",
			Title:        "Prepare",
			OffsetRule:   templates.OffsetRule{AnchorName: "event_date", DayDelta: -10},
			DurationDays: 2,
			Priority:     1,
		},
		{
			ID:           "Y",
			Title:        "Follow up",
			OffsetRule:   templates.OffsetRule{AnchorName: "event_date", DayDelta: -9},
			DurationDays: 1,
			DependsOn:    []string{"X"},
			Priority:     1,
		},
	}
	anchors := Anchors{"event_date": date(t, "2024-06-01")}

	r, err := Generate(tmpls, anchors, testOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	x := r.Task("X")
	if x == nil {
		t.Fatal("X not scheduled")
	}
	if got := FormatDate(x.Start); got != "2024-05-22" {
		t.Errorf("X start = %s, want 2024-05-22", got)
	}
	if got := FormatDate(x.End); got != "2024-05-24" {
		t.Errorf("X end = %s, want 2024-05-24", got)
	}
	if x.Conflict {
		t.Errorf("X should not conflict, reason %q", x.Reason)
	}

	y := r.Task("Y")
	if y == nil {
		t.Fatal("Y not scheduled")
	}
	if got := FormatDate(y.Start); got != "2024-05-24" {
		t.Errorf("Y start = %s, want 2024-05-24", got)
	}
	if got := FormatDate(y.End); got != "2024-05-25" {
		t.Errorf("Y end = %s, want 2024-05-25", got)
	}
	if !y.Conflict {
		t.Error("Y should conflict")
	}
	if want := "delayed by dependency X to 2024-05-24"; y.Reason != want {
		t.Errorf("Y reason = %q, want %q", y.Reason, want)
	}

	if r.Conflicts != 1 {
		t.Errorf("Conflicts = %d, want 1", r.Conflicts)
	}
}

func TestNoDependencyKeepsCandidate(t *testing.T) {
	tmpls := []templates.TaskTemplate{
		{ID: "T01", Title: "far out", OffsetRule: templates.OffsetRule{AnchorName: "event_date", DayDelta: -120}, DurationDays: 5},
		{ID: "T02", Title: "on the day", OffsetRule: templates.OffsetRule{AnchorName: "event_date", DayDelta: 0}},
		{ID: "T03", Title: "later", OffsetRule: templates.OffsetRule{AnchorName: "event_date", DayDelta: 30}},
	}
	anchors := Anchors{"event_date": date(t, "2024-06-01")}

	r, err := Generate(tmpls, anchors, testOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	want := map[string]string{
		"T01": "2024-02-02",
		"T02": "2024-06-01",
		"T03": "2024-07-01",
	}
	for id, wantStart := range want {
		task := r.Task(id)
		if got := FormatDate(task.Start); got != wantStart {
			t.Errorf("%s start = %s, want %s", id, got, wantStart)
		}
		if task.Conflict {
			t.Errorf("%s should not conflict", id)
		}
	}
	if r.Conflicts != 0 {
		t.Errorf("Conflicts = %d, want 0", r.Conflicts)
	}
}

func TestDependencyInvariant(t *testing.T) {
	tmpls := []templates.TaskTemplate{
		{ID: "T01", Title: "a", OffsetRule: templates.OffsetRule{AnchorName: "d", DayDelta: -30}, DurationDays: 10},
		{ID: "T02", Title: "b", OffsetRule: templates.OffsetRule{AnchorName: "d", DayDelta: -25}, DurationDays: 3, DependsOn: []string{"T01"}},
		{ID: "T03", Title: "c", OffsetRule: templates.OffsetRule{AnchorName: "d", DayDelta: -40}, DurationDays: 1, DependsOn: []string{"T02"}},
		{ID: "T04", Title: "d", OffsetRule: templates.OffsetRule{AnchorName: "d", DayDelta: 0}, DependsOn: []string{"T01", "T03"}},
	}
	anchors := Anchors{"d": date(t, "2025-01-31")}

	r, err := Generate(tmpls, anchors, testOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	for _, tmpl := range tmpls {
		task := r.Task(tmpl.ID)
		for _, dep := range tmpl.DependsOn {
			depTask := r.Task(dep)
			if task.Start.Before(depTask.End) {
				t.Errorf("%s starts %s before dependency %s ends %s",
					tmpl.ID, FormatDate(task.Start), dep, FormatDate(depTask.End))
			}
		}
	}
}

func TestZeroDurationDependencySameDay(t *testing.T) {
	tmpls := []templates.TaskTemplate{
		{ID: "T01", Title: "gate", OffsetRule: templates.OffsetRule{AnchorName: "d", DayDelta: -5}, DurationDays: 0},
		{ID: "T02", Title: "next", OffsetRule: templates.OffsetRule{AnchorName: "d", DayDelta: -5}, DependsOn: []string{"T01"}},
	}
	anchors := Anchors{"d": date(t, "2024-06-01")}

	r, err := Generate(tmpls, anchors, testOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	gate := r.Task("T01")
	if !gate.Start.Equal(gate.End) {
		t.Errorf("zero-duration task: start %s != end %s", FormatDate(gate.Start), FormatDate(gate.End))
	}

	next := r.Task("T02")
	if !next.Start.Equal(gate.End) {
		t.Errorf("dependent start = %s, want same day %s", FormatDate(next.Start), FormatDate(gate.End))
	}
	if next.Conflict {
		t.Errorf("same-day dependent should not conflict, reason %q", next.Reason)
	}
}

func TestConflictReasonNamesLatestDependency(t *testing.T) {
	t.Run("latest end wins", func(t *testing.T) {
		tmpls := []templates.TaskTemplate{
			{ID: "T01", Title: "short", OffsetRule: templates.OffsetRule{AnchorName: "d", DayDelta: -20}, DurationDays: 1},
			{ID: "T02", Title: "long", OffsetRule: templates.OffsetRule{AnchorName: "d", DayDelta: -20}, DurationDays: 8},
			{ID: "T03", Title: "after", OffsetRule: templates.OffsetRule{AnchorName: "d", DayDelta: -18}, DependsOn: []string{"T01", "T02"}},
		}
		r, err := Generate(tmpls, Anchors{"d": date(t, "2024-06-01")}, testOptions())
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		task := r.Task("T03")
		if want := "delayed by dependency T02 to 2024-05-20"; task.Reason != want {
			t.Errorf("reason = %q, want %q", task.Reason, want)
		}
	})

	t.Run("equal ends break by identifier", func(t *testing.T) {
		tmpls := []templates.TaskTemplate{
			{ID: "T02", Title: "b", OffsetRule: templates.OffsetRule{AnchorName: "d", DayDelta: -20}, DurationDays: 4},
			{ID: "T01", Title: "a", OffsetRule: templates.OffsetRule{AnchorName: "d", DayDelta: -20}, DurationDays: 4},
			{ID: "T03", Title: "after", OffsetRule: templates.OffsetRule{AnchorName: "d", DayDelta: -19}, DependsOn: []string{"T02", "T01"}},
		}
		r, err := Generate(tmpls, Anchors{"d": date(t, "2024-06-01")}, testOptions())
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		task := r.Task("T03")
		if !strings.Contains(task.Reason, "dependency T01") {
			t.Errorf("reason = %q, want smallest identifier T01", task.Reason)
		}
	})
}

func TestAssemblyOrder(t *testing.T) {
	tmpls := []templates.TaskTemplate{
		{ID: "T01", Title: "low", OffsetRule: templates.OffsetRule{AnchorName: "d", DayDelta: 0}, Priority: 1},
		{ID: "T02", Title: "high", OffsetRule: templates.OffsetRule{AnchorName: "d", DayDelta: 0}, Priority: 9},
		{ID: "T03", Title: "mid", OffsetRule: templates.OffsetRule{AnchorName: "d", DayDelta: 0}, Priority: 5},
		{ID: "T04", Title: "early", OffsetRule: templates.OffsetRule{AnchorName: "d", DayDelta: -3}, Priority: 1, DurationDays: 1},
	}
	anchors := Anchors{"d": date(t, "2024-06-01")}

	r, err := Generate(tmpls, anchors, testOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var got []string
	for _, task := range r.Tasks {
		got = append(got, task.ID)
	}
	// T04 starts first; the rest share a start date and follow topological
	// rank, which under the priority tie-break runs T02, T03, T01.
	want := []string{"T04", "T02", "T03", "T01"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}

	r, err = Generate(tmpls, anchors, Options{TieBreak: TieBreakIdentifier, Now: fixedNow})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	got = nil
	for _, task := range r.Tasks {
		got = append(got, task.ID)
	}
	want = []string{"T04", "T01", "T02", "T03"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("identifier tie-break order = %v, want %v", got, want)
	}
}

func TestConflictPolicies(t *testing.T) {
	tmpls := []templates.TaskTemplate{
		{ID: "T01", Title: "first", OffsetRule: templates.OffsetRule{AnchorName: "d", DayDelta: -10}, DurationDays: 5},
		{ID: "T02", Title: "second", OffsetRule: templates.OffsetRule{AnchorName: "d", DayDelta: -9}, DependsOn: []string{"T01"}, Status: templates.StatusInProgress},
	}
	anchors := Anchors{"d": date(t, "2024-06-01")}

	t.Run("flag leaves status untouched", func(t *testing.T) {
		r, err := Generate(tmpls, anchors, testOptions())
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		task := r.Task("T02")
		if !task.Conflict {
			t.Fatal("expected conflict")
		}
		if task.Status != templates.StatusInProgress {
			t.Errorf("status = %q, want in_progress", task.Status)
		}
	})

	t.Run("block forces blocked status", func(t *testing.T) {
		r, err := Generate(tmpls, anchors, Options{ConflictPolicy: PolicyBlock, Now: fixedNow})
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		task := r.Task("T02")
		if task.Status != templates.StatusBlocked {
			t.Errorf("status = %q, want blocked", task.Status)
		}
		if clean := r.Task("T01"); clean.Status != templates.StatusPending {
			t.Errorf("clean task status = %q, want pending", clean.Status)
		}
	})

	t.Run("invalid policy rejected", func(t *testing.T) {
		_, err := Generate(tmpls, anchors, Options{ConflictPolicy: "ignore"})
		if err == nil || !strings.Contains(err.Error(), "conflict policy") {
			t.Fatalf("expected policy error, got %v", err)
		}
	})

	t.Run("invalid tie break rejected", func(t *testing.T) {
		_, err := Generate(tmpls, anchors, Options{TieBreak: "random"})
		if err == nil || !strings.Contains(err.Error(), "tie break") {
			t.Fatalf("expected tie break error, got %v", err)
		}
	})
}

func TestCyclicDependencyFails(t *testing.T) {
	tmpls := []templates.TaskTemplate{
		{ID: "A", Title: "a", OffsetRule: templates.OffsetRule{AnchorName: "d", DayDelta: 0}, DependsOn: []string{"B"}},
		{ID: "B", Title: "b", OffsetRule: templates.OffsetRule{AnchorName: "d", DayDelta: 0}, DependsOn: []string{"A"}},
	}

	r, err := Generate(tmpls, Anchors{"d": date(t, "2024-06-01")}, testOptions())
	if err == nil {
		t.Fatal("expected cycle error")
	}
	if r != nil {
		t.Error("expected no roadmap on cycle")
	}
	if !errors.Is(err, ErrCyclicDependency) {
		t.Errorf("errors.Is(ErrCyclicDependency) = false for %v", err)
	}
	if !strings.Contains(err.Error(), "A -> B -> A") {
		t.Errorf("error %q should carry the cycle path", err.Error())
	}
}

func TestGenerateUnknownAnchor(t *testing.T) {
	tmpls := []templates.TaskTemplate{
		{ID: "T01", Title: "one", OffsetRule: templates.OffsetRule{AnchorName: "kickoff", DayDelta: -1}},
	}

	r, err := Generate(tmpls, Anchors{"event_date": date(t, "2024-06-01")}, testOptions())
	if err == nil {
		t.Fatal("expected unknown anchor error")
	}
	if r != nil {
		t.Error("expected no roadmap")
	}
	if !errors.Is(err, ErrUnknownAnchor) || !strings.Contains(err.Error(), `"kickoff"`) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestClampAnchorFloor(t *testing.T) {
	tmpls := []templates.TaskTemplate{
		{ID: "T01", Title: "too early", OffsetRule: templates.OffsetRule{AnchorName: "event_date", DayDelta: -60}, DurationDays: 2},
		{ID: "T02", Title: "fine", OffsetRule: templates.OffsetRule{AnchorName: "event_date", DayDelta: -5}},
	}
	anchors := Anchors{
		"event_date":    date(t, "2024-06-01"),
		"project_start": date(t, "2024-05-01"),
	}

	r, err := Generate(tmpls, anchors, Options{ClampAnchor: "project_start", Now: fixedNow})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	clamped := r.Task("T01")
	if got := FormatDate(clamped.Start); got != "2024-05-01" {
		t.Errorf("clamped start = %s, want 2024-05-01", got)
	}
	if !clamped.Conflict {
		t.Error("clamped task should conflict")
	}
	if want := "delayed by anchor project_start to 2024-05-01"; clamped.Reason != want {
		t.Errorf("reason = %q, want %q", clamped.Reason, want)
	}

	fine := r.Task("T02")
	if fine.Conflict {
		t.Errorf("task after the floor should not conflict, reason %q", fine.Reason)
	}

	t.Run("dependency names the reason on equal bounds", func(t *testing.T) {
		tmpls := []templates.TaskTemplate{
			{ID: "T01", Title: "gate", OffsetRule: templates.OffsetRule{AnchorName: "project_start", DayDelta: 0}, DurationDays: 0},
			{ID: "T02", Title: "early dependent", OffsetRule: templates.OffsetRule{AnchorName: "event_date", DayDelta: -45}, DependsOn: []string{"T01"}},
		}
		r, err := Generate(tmpls, anchors, Options{ClampAnchor: "project_start", Now: fixedNow})
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		task := r.Task("T02")
		if want := "delayed by dependency T01 to 2024-05-01"; task.Reason != want {
			t.Errorf("reason = %q, want %q", task.Reason, want)
		}
	})

	t.Run("missing clamp anchor", func(t *testing.T) {
		_, err := Generate(tmpls, Anchors{"event_date": date(t, "2024-06-01")},
			Options{ClampAnchor: "project_start", Now: fixedNow})
		if !errors.Is(err, ErrUnknownAnchor) {
			t.Fatalf("expected ErrUnknownAnchor, got %v", err)
		}
	})
}

func TestGenerateDeterminism(t *testing.T) {
	tmpls := []templates.TaskTemplate{
		{ID: "T03", Title: "c", OffsetRule: templates.OffsetRule{AnchorName: "d", DayDelta: -10}, DurationDays: 2, DependsOn: []string{"T01"}, Priority: 2},
		{ID: "T01", Title: "a", OffsetRule: templates.OffsetRule{AnchorName: "d", DayDelta: -12}, DurationDays: 3, Priority: 4},
		{ID: "T02", Title: "b", OffsetRule: templates.OffsetRule{AnchorName: "d", DayDelta: -10}, DurationDays: 1, DependsOn: []string{"T01"}, Priority: 2},
	}
	anchors := Anchors{"d": date(t, "2024-06-01")}

	first, err := Generate(tmpls, anchors, testOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Generate(tmpls, anchors, testOptions())
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("roadmaps differ between runs:\n%+v\n%+v", first, again)
		}
	}
}

func TestGenerateEmptyTemplates(t *testing.T) {
	r, err := Generate(nil, Anchors{"d": date(t, "2024-06-01")}, testOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(r.Tasks) != 0 || r.Conflicts != 0 {
		t.Errorf("empty input should yield empty roadmap, got %+v", r)
	}
}

func TestApplyStatuses(t *testing.T) {
	tmpls := []templates.TaskTemplate{
		{ID: "T01", Title: "a", OffsetRule: templates.OffsetRule{AnchorName: "d", DayDelta: 0}},
		{ID: "T02", Title: "b", OffsetRule: templates.OffsetRule{AnchorName: "d", DayDelta: 1}},
	}
	r, err := Generate(tmpls, Anchors{"d": date(t, "2024-06-01")}, testOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	applied := r.ApplyStatuses(map[string]templates.Status{
		"T01": templates.StatusDone,
		"T02": templates.StatusPending, // no change
		"T99": templates.StatusDone,    // unknown id ignored
	})
	if applied != 1 {
		t.Errorf("applied = %d, want 1", applied)
	}
	if r.Task("T01").Status != templates.StatusDone {
		t.Errorf("T01 status = %q, want done", r.Task("T01").Status)
	}
	if r.Task("T02").Status != templates.StatusPending {
		t.Errorf("T02 status = %q, want pending", r.Task("T02").Status)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-05-22")
	if err != nil {
		t.Fatalf("ParseDate failed: %v", err)
	}
	if FormatDate(d) != "2024-05-22" {
		t.Errorf("round trip = %s", FormatDate(d))
	}

	if _, err := ParseDate("22/05/2024"); err == nil {
		t.Error("expected error for non-ISO date")
	}
	if _, err := ParseDate("next tuesday"); err == nil {
		t.Error("expected error for natural language date")
	}
}
