package schedule

import (
	"fmt"
	"time"

	"github.com/nibzard/roadmap-go/internal/templates"
)

// Catalog is the validated, normalized template set the engine schedules
// from. Construction rejects duplicate identifiers, negative durations, and
// unresolvable dependency references; depends_on lists are deduplicated in
// place. A Catalog never changes after LoadCatalog returns.
type Catalog struct {
	tmpls []templates.TaskTemplate
	byID  map[string]int
}

// LoadCatalog validates and indexes templates. Any violation aborts with no
// partial result.
func LoadCatalog(tmpls []templates.TaskTemplate) (*Catalog, error) {
	c := &Catalog{
		tmpls: make([]templates.TaskTemplate, len(tmpls)),
		byID:  make(map[string]int, len(tmpls)),
	}
	copy(c.tmpls, tmpls)

	for i := range c.tmpls {
		t := &c.tmpls[i]
		if t.ID == "" {
			return nil, fmt.Errorf("template at index %d: missing identifier", i)
		}
		if _, exists := c.byID[t.ID]; exists {
			return nil, &DuplicateIDError{ID: t.ID}
		}
		if t.DurationDays < 0 {
			return nil, &DurationError{ID: t.ID, Days: t.DurationDays}
		}
		if t.Status != "" && !t.Status.Valid() {
			return nil, fmt.Errorf("template %q: invalid status %q", t.ID, t.Status)
		}
		c.byID[t.ID] = i
	}

	for i := range c.tmpls {
		t := &c.tmpls[i]
		if len(t.DependsOn) == 0 {
			continue
		}
		deps := make([]string, 0, len(t.DependsOn))
		seen := make(map[string]bool, len(t.DependsOn))
		for _, dep := range t.DependsOn {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			if _, ok := c.byID[dep]; !ok {
				return nil, &UnknownDependencyError{ID: t.ID, Dependency: dep}
			}
			deps = append(deps, dep)
		}
		t.DependsOn = deps
	}

	return c, nil
}

// Len returns the number of templates.
func (c *Catalog) Len() int { return len(c.tmpls) }

// Templates returns a copy of the normalized template list in input order.
func (c *Catalog) Templates() []templates.TaskTemplate {
	out := make([]templates.TaskTemplate, len(c.tmpls))
	copy(out, c.tmpls)
	return out
}

// Template returns the template with the given id.
func (c *Catalog) Template(id string) (templates.TaskTemplate, bool) {
	i, ok := c.byID[id]
	if !ok {
		return templates.TaskTemplate{}, false
	}
	return c.tmpls[i], true
}

func (c *Catalog) template(id string) *templates.TaskTemplate {
	return &c.tmpls[c.byID[id]]
}

// ResolveCandidates maps every template to its candidate start date:
// the anchor date plus the day offset. Offsets may land before the anchor;
// the candidate is advisory until dependencies are considered. A template
// naming an anchor absent from the map aborts resolution.
func (c *Catalog) ResolveCandidates(anchors Anchors) (map[string]time.Time, error) {
	out := make(map[string]time.Time, len(c.tmpls))
	for i := range c.tmpls {
		t := &c.tmpls[i]
		base, ok := anchors[t.OffsetRule.AnchorName]
		if !ok {
			return nil, &UnknownAnchorError{ID: t.ID, Anchor: t.OffsetRule.AnchorName}
		}
		out[t.ID] = addDays(base, t.OffsetRule.DayDelta)
	}
	return out, nil
}
