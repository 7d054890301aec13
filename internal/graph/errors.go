package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidGraph = errors.New("invalid dependency graph")
	ErrCycleFound   = errors.New("cyclic dependency")
)

// GraphError wraps deterministic graph build failures.
type GraphError struct {
	Kind error
	Msg  string
}

func (e *GraphError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *GraphError) Unwrap() error { return e.Kind }

func invalidf(format string, args ...any) error {
	return &GraphError{Kind: ErrInvalidGraph, Msg: fmt.Sprintf(format, args...)}
}

func cycleError(path []string) error {
	msg := "cycle"
	if len(path) > 0 {
		msg = "cycle: " + strings.Join(path, " -> ")
	}
	return &GraphError{Kind: ErrCycleFound, Msg: msg}
}

// CyclePath extracts the cycle witness from a cycle error, or nil.
func CyclePath(err error) []string {
	var ge *GraphError
	if !errors.As(err, &ge) || !errors.Is(ge.Kind, ErrCycleFound) {
		return nil
	}
	msg := strings.TrimPrefix(ge.Msg, "cycle: ")
	if msg == "cycle" || msg == "" {
		return nil
	}
	return strings.Split(msg, " -> ")
}
