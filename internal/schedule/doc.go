// Package schedule turns a template catalog and a set of named anchor dates
// into a dependency-ordered roadmap.
//
// # Pipeline
//
// Generate composes five stages, each also usable on its own:
//
//  1. LoadCatalog validates and indexes templates (unique ids,
//     non-negative durations, resolvable depends_on references).
//  2. graph.Build derives the dependency DAG and a deterministic
//     topological order; cycles abort with a full cycle path.
//  3. ResolveCandidates computes each template's candidate start:
//     anchor date plus signed day offset.
//  4. place walks the topological order and applies the one hard rule:
//     a task starts no earlier than the latest end date among its
//     dependencies. Offsets are advisory; dependency order is not.
//  5. assemble sorts by (start, topological rank, identifier), applies
//     the conflict policy, and stamps the roadmap.
//
// # Conflicts
//
// A task pushed past its candidate date is marked Conflict with a reason
// of the form
//
//	delayed by dependency T01 to 2024-05-24
//
// naming the latest-finishing dependency (ties broken by identifier).
// Under PolicyFlag (the default) the status is left untouched; under
// PolicyBlock the task's status becomes blocked. A conflict is never an
// error and never silently absorbed.
//
// # Determinism
//
// The engine is pure and single-threaded. Equal-readiness templates are
// ordered by priority descending then identifier (TieBreakPriority) or by
// identifier alone (TieBreakIdentifier). Identifier comparisons are
// numeric-aware: T2 sorts before T10. Regenerating from identical inputs
// yields an identical roadmap except for GeneratedAt, which callers can
// pin through Options.Now.
//
// # Dates
//
// Dates are whole calendar days held as UTC midnight instants; there is no
// timezone or clock-time handling. A zero-duration task ends the day it
// starts, and its dependents may start that same day.
package schedule
