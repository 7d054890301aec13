package schedule

import (
	"errors"
	"fmt"

	"github.com/nibzard/roadmap-go/internal/graph"
)

// Sentinel targets for errors.Is. Every catalog or scheduling failure
// unwraps to exactly one of these; none of them produce a partial roadmap.
var (
	ErrDuplicateIdentifier = errors.New("duplicate identifier")
	ErrInvalidDuration     = errors.New("invalid duration")
	ErrUnknownDependency   = errors.New("unknown dependency")
	ErrUnknownAnchor       = errors.New("unknown anchor")

	// ErrCyclicDependency is the graph package's cycle sentinel; cycle
	// errors carry the full cycle path in their message.
	ErrCyclicDependency = graph.ErrCycleFound
)

// DuplicateIDError reports a template identifier used more than once.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate identifier %q", e.ID)
}

func (e *DuplicateIDError) Unwrap() error { return ErrDuplicateIdentifier }

// DurationError reports a negative duration.
type DurationError struct {
	ID   string
	Days int
}

func (e *DurationError) Error() string {
	return fmt.Sprintf("invalid duration for %q: %d days, must be non-negative", e.ID, e.Days)
}

func (e *DurationError) Unwrap() error { return ErrInvalidDuration }

// UnknownDependencyError reports a depends_on entry that resolves to no
// template.
type UnknownDependencyError struct {
	ID         string
	Dependency string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("unknown dependency %q of %q", e.Dependency, e.ID)
}

func (e *UnknownDependencyError) Unwrap() error { return ErrUnknownDependency }

// UnknownAnchorError reports an anchor name absent from the anchor map.
type UnknownAnchorError struct {
	ID     string // referencing template, empty for the clamp anchor
	Anchor string
}

func (e *UnknownAnchorError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("unknown anchor %q", e.Anchor)
	}
	return fmt.Sprintf("unknown anchor %q referenced by %q", e.Anchor, e.ID)
}

func (e *UnknownAnchorError) Unwrap() error { return ErrUnknownAnchor }
