package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"styleaudit/internal/log"
	"styleaudit/internal/model"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func run(id string, started time.Time, issues int) model.AuditRun {
	return model.AuditRun{
		ID:          id,
		StartedAt:   started,
		FinishedAt:  started.Add(time.Minute),
		Pages:       []model.PageAuditResult{{Name: "Home", Path: "/", Status: model.StatusDone, IssueCount: issues}},
		TotalIssues: issues,
		Pass:        issues == 0,
	}
}

func TestRecordAndRecent(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		if err := s.Record(ctx, run(id, base.Add(time.Duration(i)*time.Hour), i)); err != nil {
			t.Fatalf("Record(%s) unexpected error: %v", id, err)
		}
	}

	got, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "b" {
		t.Fatalf("Recent() = %+v, want c then b", got)
	}
	if got[0].TotalIssues != 2 || got[0].Pass {
		t.Errorf("Recent()[0] = %+v", got[0])
	}
	if !got[0].StartedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("StartedAt = %v", got[0].StartedAt)
	}
}

func TestGet(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	want := run("run-1", time.Now().Truncate(time.Millisecond), 1)
	if err := s.Record(ctx, want); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if got.ID != want.ID || got.TotalIssues != 1 || len(got.Pages) != 1 {
		t.Errorf("Get() = %+v", got)
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrRunNotFound", err)
	}
}

func TestRunDoneReplaces(t *testing.T) {
	log.Nop()
	s := openMemory(t)
	ctx := context.Background()
	now := time.Now()

	s.RunDone(ctx, run("same", now, 3))
	s.RunDone(ctx, run("same", now, 0))

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !got[0].Pass {
		t.Errorf("Recent() = %+v, want single passing row", got)
	}
}
