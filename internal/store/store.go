// Package store persists status overrides and roadmap snapshots in SQLite.
//
// Statuses live here rather than in the template catalog so they survive
// regeneration: the engine rebuilds the roadmap from templates, then the
// caller overlays the stored statuses. Snapshots record each generated
// roadmap for history listings and exports without a fresh run.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/nibzard/roadmap-go/internal/schedule"
	"github.com/nibzard/roadmap-go/internal/templates"
)

//go:embed schema.sql
var schemaSQL string

// ErrSnapshotNotFound reports a snapshot id with no row.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Store wraps the state database. SQLite prefers a single writer, so the
// pool is capped at one connection.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the state database at path.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma: %w", err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate state db: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SetStatus upserts a status override for a template id.
func (s *Store) SetStatus(ctx context.Context, templateID string, status templates.Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO status_overrides(template_id, status, updated_at) VALUES(?,?,?)
		 ON CONFLICT(template_id) DO UPDATE SET status=excluded.status, updated_at=excluded.updated_at`,
		templateID, string(status), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

// ClearStatus removes a status override. Clearing an absent id is not an error.
func (s *Store) ClearStatus(ctx context.Context, templateID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM status_overrides WHERE template_id = ?`, templateID); err != nil {
		return fmt.Errorf("clear status: %w", err)
	}
	return nil
}

// Statuses returns every status override keyed by template id.
func (s *Store) Statuses(ctx context.Context) (map[string]templates.Status, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT template_id, status FROM status_overrides ORDER BY template_id`)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	defer rows.Close()

	out := make(map[string]templates.Status)
	for rows.Next() {
		var id, status string
		if err := rows.Scan(&id, &status); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		out[id] = templates.Status(status)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	return out, nil
}

// SnapshotInfo summarizes one stored roadmap.
type SnapshotInfo struct {
	ID        string
	CreatedAt time.Time
	Tasks     int
	Conflicts int
}

// SaveSnapshot stores the roadmap and returns its snapshot id.
func (s *Store) SaveSnapshot(ctx context.Context, r *schedule.Roadmap) (string, error) {
	id := uuid.NewString()

	anchors, err := encodeAnchors(r.Anchors)
	if err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots(id, created_at, anchors, task_count, conflict_count) VALUES(?,?,?,?,?)`,
		id, r.GeneratedAt.UTC().Format(time.RFC3339Nano), anchors, len(r.Tasks), r.Conflicts,
	); err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}

	for i := range r.Tasks {
		t := &r.Tasks[i]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snapshot_tasks(snapshot_id, position, template_id, title, category, start_date, end_date, status, conflict, reason)
			 VALUES(?,?,?,?,?,?,?,?,?,?)`,
			id, i, t.ID, t.Title, t.Category,
			schedule.FormatDate(t.Start), schedule.FormatDate(t.End),
			string(t.Status), boolToInt(t.Conflict), t.Reason,
		); err != nil {
			return "", fmt.Errorf("save snapshot task %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}
	return id, nil
}

// Snapshot loads one stored roadmap by id.
func (s *Store) Snapshot(ctx context.Context, id string) (*schedule.Roadmap, error) {
	var createdAt, anchorsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at, anchors FROM snapshots WHERE id = ?`, id,
	).Scan(&createdAt, &anchorsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %q: %w", id, ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	generated, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: parse created_at: %w", err)
	}
	anchors, err := decodeAnchors(anchorsJSON)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT template_id, title, category, start_date, end_date, status, conflict, reason
		 FROM snapshot_tasks WHERE snapshot_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("load snapshot tasks: %w", err)
	}
	defer rows.Close()

	r := &schedule.Roadmap{
		GeneratedAt: generated,
		Anchors:     anchors,
	}
	for rows.Next() {
		var t schedule.ScheduledTask
		var start, end, status string
		var conflict int
		if err := rows.Scan(&t.ID, &t.Title, &t.Category, &start, &end, &status, &conflict, &t.Reason); err != nil {
			return nil, fmt.Errorf("scan snapshot task: %w", err)
		}
		if t.Start, err = schedule.ParseDate(start); err != nil {
			return nil, fmt.Errorf("load snapshot: %w", err)
		}
		if t.End, err = schedule.ParseDate(end); err != nil {
			return nil, fmt.Errorf("load snapshot: %w", err)
		}
		t.Status = templates.Status(status)
		t.Conflict = conflict != 0
		if t.Conflict {
			r.Conflicts++
		}
		r.Tasks = append(r.Tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load snapshot tasks: %w", err)
	}
	return r, nil
}

// LatestSnapshot loads the most recent roadmap. An empty store reports
// ErrSnapshotNotFound like a bad id does.
func (s *Store) LatestSnapshot(ctx context.Context) (*schedule.Roadmap, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM snapshots ORDER BY created_at DESC, id LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest snapshot: %w", ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find latest snapshot: %w", err)
	}
	return s.Snapshot(ctx, id)
}

// ListSnapshots returns snapshot summaries, newest first. limit <= 0 means
// no limit.
func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]SnapshotInfo, error) {
	query := `SELECT id, created_at, task_count, conflict_count FROM snapshots ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		var createdAt string
		if err := rows.Scan(&info.ID, &createdAt, &info.Tasks, &info.Conflicts); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if info.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("list snapshots: parse created_at: %w", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return out, nil
}

// DeleteSnapshot removes a snapshot and its tasks.
func (s *Store) DeleteSnapshot(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("snapshot %q: %w", id, ErrSnapshotNotFound)
	}
	return nil
}

func encodeAnchors(a schedule.Anchors) (string, error) {
	m := make(map[string]string, len(a))
	for name, date := range a {
		m[name] = schedule.FormatDate(date)
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeAnchors(s string) (schedule.Anchors, error) {
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("parse anchors: %w", err)
	}
	out := make(schedule.Anchors, len(m))
	for name, raw := range m {
		date, err := schedule.ParseDate(raw)
		if err != nil {
			return nil, err
		}
		out[name] = date
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
