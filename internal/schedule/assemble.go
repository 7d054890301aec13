package schedule

import (
	"sort"

	"github.com/nibzard/roadmap-go/internal/graph"
	"github.com/nibzard/roadmap-go/internal/templates"
)

// assemble orders placed tasks by start date, then topological rank, then
// identifier, applies the conflict policy, and stamps the roadmap.
func assemble(g *graph.Graph, placed map[string]ScheduledTask, anchors Anchors, opts Options) *Roadmap {
	tasks := make([]ScheduledTask, 0, len(placed))
	for _, id := range g.Order() {
		tasks = append(tasks, placed[id])
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := &tasks[i], &tasks[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		ra, _ := g.Rank(a.ID)
		rb, _ := g.Rank(b.ID)
		if ra != rb {
			return ra < rb
		}
		return templates.CompareIDs(a.ID, b.ID)
	})

	conflicts := 0
	for i := range tasks {
		if !tasks[i].Conflict {
			continue
		}
		conflicts++
		if opts.ConflictPolicy == PolicyBlock {
			tasks[i].Status = templates.StatusBlocked
		}
	}

	return &Roadmap{
		GeneratedAt: opts.Now().UTC(),
		Anchors:     anchors.Clone(),
		Tasks:       tasks,
		Conflicts:   conflicts,
	}
}

// Generate runs the full pipeline: catalog validation, graph build, anchor
// resolution, constraint scheduling, assembly. The run is pure apart from
// the timestamp; identical inputs produce an identical roadmap except for
// GeneratedAt. Any validation failure aborts with no partial roadmap.
func Generate(tmpls []templates.TaskTemplate, anchors Anchors, opts Options) (*Roadmap, error) {
	opts, err := opts.normalized()
	if err != nil {
		return nil, err
	}

	c, err := LoadCatalog(tmpls)
	if err != nil {
		return nil, err
	}

	g, err := graph.Build(c.Templates(), graphOrder(opts.TieBreak))
	if err != nil {
		return nil, err
	}

	candidates, err := c.ResolveCandidates(anchors)
	if err != nil {
		return nil, err
	}

	var floor *floorBound
	if opts.ClampAnchor != "" {
		date, ok := anchors[opts.ClampAnchor]
		if !ok {
			return nil, &UnknownAnchorError{Anchor: opts.ClampAnchor}
		}
		floor = &floorBound{anchor: opts.ClampAnchor, date: date}
	}

	placed := place(c, g, candidates, floor)
	return assemble(g, placed, anchors, opts), nil
}

func graphOrder(tie TieBreak) graph.Order {
	if tie == TieBreakIdentifier {
		return graph.OrderIDOnly
	}
	return graph.OrderPriorityThenID
}
