package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nibzard/roadmap-go/internal/schedule"
	"github.com/nibzard/roadmap-go/internal/templates"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state", "roadmap.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testRoadmap(t *testing.T, generated time.Time) *schedule.Roadmap {
	t.Helper()
	start, err := schedule.ParseDate("2024-05-22")
	if err != nil {
		t.Fatal(err)
	}
	anchor, err := schedule.ParseDate("2024-06-01")
	if err != nil {
		t.Fatal(err)
	}
	return &schedule.Roadmap{
		GeneratedAt: generated,
		Anchors:     schedule.Anchors{"event_date": anchor},
		Tasks: []schedule.ScheduledTask{
			{
				ID:       "T01",
				Title:    "Book venue",
				Category: "logistics",
				Start:    start,
				End:      start.AddDate(0, 0, 2),
				Status:   templates.StatusPending,
			},
			{
				ID:       "T02",
				Title:    "Send invites",
				Category: "comms",
				Start:    start.AddDate(0, 0, 2),
				End:      start.AddDate(0, 0, 3),
				Status:   templates.StatusInProgress,
				Conflict: true,
				Reason:   "delayed by dependency T01 to 2024-05-24",
			},
		},
		Conflicts: 1,
	}
}

func TestStatusOverrides(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SetStatus(ctx, "T01", templates.StatusDone); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if err := s.SetStatus(ctx, "T02", templates.StatusBlocked); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	// Upsert replaces.
	if err := s.SetStatus(ctx, "T02", templates.StatusSkipped); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	got, err := s.Statuses(ctx)
	if err != nil {
		t.Fatalf("Statuses failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Statuses count = %d, want 2", len(got))
	}
	if got["T01"] != templates.StatusDone {
		t.Errorf("T01 = %q, want done", got["T01"])
	}
	if got["T02"] != templates.StatusSkipped {
		t.Errorf("T02 = %q, want skipped", got["T02"])
	}

	if err := s.ClearStatus(ctx, "T01"); err != nil {
		t.Fatalf("ClearStatus failed: %v", err)
	}
	// Clearing twice is fine.
	if err := s.ClearStatus(ctx, "T01"); err != nil {
		t.Fatalf("ClearStatus failed: %v", err)
	}

	got, err = s.Statuses(ctx)
	if err != nil {
		t.Fatalf("Statuses failed: %v", err)
	}
	if _, ok := got["T01"]; ok {
		t.Error("T01 should be cleared")
	}
}

func TestSetStatusRejectsUnknownValue(t *testing.T) {
	s := openTestStore(t)
	if err := s.SetStatus(context.Background(), "T01", "paused"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	generated := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	original := testRoadmap(t, generated)
	id, err := s.SaveSnapshot(ctx, original)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a snapshot id")
	}

	loaded, err := s.Snapshot(ctx, id)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	if !loaded.GeneratedAt.Equal(generated) {
		t.Errorf("GeneratedAt = %v, want %v", loaded.GeneratedAt, generated)
	}
	if len(loaded.Tasks) != 2 {
		t.Fatalf("Tasks count = %d, want 2", len(loaded.Tasks))
	}
	if loaded.Conflicts != 1 {
		t.Errorf("Conflicts = %d, want 1", loaded.Conflicts)
	}
	if schedule.FormatDate(loaded.Anchors["event_date"]) != "2024-06-01" {
		t.Errorf("anchor = %v", loaded.Anchors)
	}

	second := loaded.Tasks[1]
	if second.ID != "T02" || !second.Conflict {
		t.Errorf("task order or conflict flag lost: %+v", second)
	}
	if second.Reason != "delayed by dependency T01 to 2024-05-24" {
		t.Errorf("reason = %q", second.Reason)
	}
	if second.Status != templates.StatusInProgress {
		t.Errorf("status = %q, want in_progress", second.Status)
	}
	if schedule.FormatDate(second.Start) != "2024-05-24" {
		t.Errorf("start = %s", schedule.FormatDate(second.Start))
	}
}

func TestLatestAndListSnapshots(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.LatestSnapshot(ctx); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("empty store: err = %v, want ErrSnapshotNotFound", err)
	}

	older := testRoadmap(t, time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC))
	newer := testRoadmap(t, time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC))

	if _, err := s.SaveSnapshot(ctx, older); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	newerID, err := s.SaveSnapshot(ctx, newer)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	latest, err := s.LatestSnapshot(ctx)
	if err != nil {
		t.Fatalf("LatestSnapshot failed: %v", err)
	}
	if !latest.GeneratedAt.Equal(newer.GeneratedAt) {
		t.Errorf("latest GeneratedAt = %v, want %v", latest.GeneratedAt, newer.GeneratedAt)
	}

	infos, err := s.ListSnapshots(ctx, 0)
	if err != nil {
		t.Fatalf("ListSnapshots failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("ListSnapshots count = %d, want 2", len(infos))
	}
	if infos[0].ID != newerID {
		t.Errorf("newest first: got %s", infos[0].ID)
	}
	if infos[0].Tasks != 2 || infos[0].Conflicts != 1 {
		t.Errorf("summary = %+v", infos[0])
	}

	limited, err := s.ListSnapshots(ctx, 1)
	if err != nil {
		t.Fatalf("ListSnapshots failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limited count = %d, want 1", len(limited))
	}
}

func TestDeleteSnapshot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.SaveSnapshot(ctx, testRoadmap(t, time.Now().UTC()))
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	if err := s.DeleteSnapshot(ctx, id); err != nil {
		t.Fatalf("DeleteSnapshot failed: %v", err)
	}
	if _, err := s.Snapshot(ctx, id); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("expected ErrSnapshotNotFound, got %v", err)
	}
	if err := s.DeleteSnapshot(ctx, id); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("double delete: expected ErrSnapshotNotFound, got %v", err)
	}
}
