package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/nibzard/roadmap-go/internal/graph"
	"github.com/nibzard/roadmap-go/internal/templates"
)

// floorBound is an optional hard lower bound on every start date, taken
// from the clamp anchor.
type floorBound struct {
	anchor string
	date   time.Time
}

// place computes final dates for every template, walking the topological
// order so each dependency is placed before its dependents. The anchor
// offset is advisory; dependency end dates are a hard lower bound. A task
// pushed past its candidate date is flagged, never silently moved and never
// an error.
func place(c *Catalog, g *graph.Graph, candidates map[string]time.Time, floor *floorBound) map[string]ScheduledTask {
	placed := make(map[string]ScheduledTask, c.Len())

	for _, id := range g.Order() {
		t := c.template(id)
		candidate := candidates[id]

		start := candidate
		conflict := false
		reason := ""

		if dep, bound, ok := latestDependencyEnd(t, placed); ok && bound.After(start) {
			start = bound
			conflict = true
			reason = fmt.Sprintf("delayed by dependency %s to %s", dep, FormatDate(start))
		}

		if floor != nil && floor.date.After(start) {
			start = floor.date
			conflict = true
			reason = fmt.Sprintf("delayed by anchor %s to %s", floor.anchor, FormatDate(start))
		}

		placed[id] = ScheduledTask{
			ID:       id,
			Title:    t.Title,
			Category: t.Category,
			Start:    start,
			End:      addDays(start, t.DurationDays),
			Status:   t.InitialStatus(),
			Conflict: conflict,
			Reason:   reason,
		}
	}

	return placed
}

// latestDependencyEnd returns the dependency with the latest end date and
// that date. Dependencies are scanned in identifier order with a strict
// comparison, so among equally late dependencies the smallest identifier
// names the delay. A task with no dependencies has no lower bound.
func latestDependencyEnd(t *templates.TaskTemplate, placed map[string]ScheduledTask) (string, time.Time, bool) {
	if len(t.DependsOn) == 0 {
		return "", time.Time{}, false
	}

	deps := make([]string, len(t.DependsOn))
	copy(deps, t.DependsOn)
	sort.Slice(deps, func(i, j int) bool { return templates.CompareIDs(deps[i], deps[j]) })

	var bestID string
	var bestEnd time.Time
	for _, dep := range deps {
		end := placed[dep].End
		if bestID == "" || end.After(bestEnd) {
			bestID = dep
			bestEnd = end
		}
	}
	return bestID, bestEnd, true
}
