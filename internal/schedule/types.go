package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/nibzard/roadmap-go/internal/templates"
)

// DateLayout is the wire format for calendar dates everywhere in the tool.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date into a UTC midnight instant.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t.UTC(), nil
}

// FormatDate renders a date in YYYY-MM-DD form.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func addDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

// Anchors maps anchor names to their dates. The engine never reads anchors
// from global state; callers pass them per generation.
type Anchors map[string]time.Time

// Clone returns a copy of the anchor map.
func (a Anchors) Clone() Anchors {
	out := make(Anchors, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Names returns the anchor names in map-iteration-independent sorted order.
func (a Anchors) Names() []string {
	out := make([]string, 0, len(a))
	for k := range a {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ConflictPolicy controls how scheduling conflicts affect task status.
type ConflictPolicy string

const (
	// PolicyFlag annotates conflicted tasks and leaves status untouched.
	PolicyFlag ConflictPolicy = "flag"
	// PolicyBlock forces conflicted tasks into the blocked status.
	PolicyBlock ConflictPolicy = "block"
)

// ParseConflictPolicy validates a policy string; empty means the default.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch ConflictPolicy(s) {
	case "":
		return PolicyFlag, nil
	case PolicyFlag, PolicyBlock:
		return ConflictPolicy(s), nil
	}
	return "", fmt.Errorf("invalid conflict policy %q, must be flag or block", s)
}

// TieBreak selects the ordering rule for equally ready templates.
type TieBreak string

const (
	// TieBreakPriority orders ties by priority descending, then identifier.
	TieBreakPriority TieBreak = "priority"
	// TieBreakIdentifier orders ties by identifier alone.
	TieBreakIdentifier TieBreak = "identifier"
)

// ParseTieBreak validates a tie-break string; empty means the default.
func ParseTieBreak(s string) (TieBreak, error) {
	switch TieBreak(s) {
	case "":
		return TieBreakPriority, nil
	case TieBreakPriority, TieBreakIdentifier:
		return TieBreak(s), nil
	}
	return "", fmt.Errorf("invalid tie break %q, must be priority or identifier", s)
}

// Options configures one generation run.
type Options struct {
	ConflictPolicy ConflictPolicy
	TieBreak       TieBreak
	// ClampAnchor optionally names an anchor whose date floors every start.
	ClampAnchor string
	// Now supplies the roadmap timestamp; nil means time.Now. It exists so
	// regeneration is reproducible under test.
	Now func() time.Time
}

func (o Options) normalized() (Options, error) {
	policy, err := ParseConflictPolicy(string(o.ConflictPolicy))
	if err != nil {
		return o, err
	}
	tie, err := ParseTieBreak(string(o.TieBreak))
	if err != nil {
		return o, err
	}
	o.ConflictPolicy = policy
	o.TieBreak = tie
	if o.Now == nil {
		o.Now = time.Now
	}
	return o, nil
}

// ScheduledTask is one placed task in a roadmap.
type ScheduledTask struct {
	ID       string
	Title    string
	Category string
	Start    time.Time
	End      time.Time
	Status   templates.Status
	Conflict bool
	Reason   string // empty unless Conflict
}

// Roadmap is the assembled schedule.
type Roadmap struct {
	GeneratedAt time.Time
	Anchors     Anchors
	Tasks       []ScheduledTask
	Conflicts   int
}

// Task returns the scheduled task with the given id, or nil.
func (r *Roadmap) Task(id string) *ScheduledTask {
	for i := range r.Tasks {
		if r.Tasks[i].ID == id {
			return &r.Tasks[i]
		}
	}
	return nil
}

// ApplyStatuses overlays status overrides keyed by template id and returns
// how many tasks changed. Status is the only field external layers may
// mutate; overrides naming absent ids are ignored.
func (r *Roadmap) ApplyStatuses(overrides map[string]templates.Status) int {
	applied := 0
	for i := range r.Tasks {
		status, ok := overrides[r.Tasks[i].ID]
		if !ok || !status.Valid() {
			continue
		}
		if r.Tasks[i].Status != status {
			r.Tasks[i].Status = status
			applied++
		}
	}
	return applied
}

// Categories returns the distinct non-empty task categories in first-seen
// roadmap order.
func (r *Roadmap) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for i := range r.Tasks {
		c := r.Tasks[i].Category
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
