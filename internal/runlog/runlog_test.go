package runlog

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := openTestStore(t)

	runID, err := s.StartRun("merge", "US10123456")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if runID == "" {
		t.Fatal("empty run id")
	}

	for _, msg := range []string{"extract: mappings -> 12 blocks", "merge: criteria preserved", "repair: nothing to do"} {
		if err := s.Append(runID, msg); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := s.FinishRun(runID, "ok", map[string]any{"sections_preserved": []string{"criteria", "mappings"}}); err != nil {
		t.Fatalf("finish: %v", err)
	}

	run, err := s.GetRun(runID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if run.Status != "ok" || run.Mode != "merge" || run.Patent != "US10123456" {
		t.Fatalf("run = %+v", run)
	}
	if run.FinishedAt == "" {
		t.Fatal("finished_at not set")
	}

	events, err := s.Events(runID)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for i, ev := range events {
		if ev.Position != i {
			t.Fatalf("event %d has position %d", i, ev.Position)
		}
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	s := openTestStore(t)

	first, _ := s.StartRun("new", "US1")
	second, _ := s.StartRun("new", "US2")
	_ = first

	runs, err := s.ListRuns(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].RunID != second {
		t.Fatalf("newest run first, got %s", runs[0].RunID)
	}
}

func TestSinkAppendsAndTees(t *testing.T) {
	s := openTestStore(t)
	runID, _ := s.StartRun("new", "US1")

	var teed []string
	sink := s.Sink(runID, func(m string) { teed = append(teed, m) })
	sink("heading matched at 4")
	sink("spliced 6 blocks")

	events, err := s.Events(runID)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 2 || len(teed) != 2 {
		t.Fatalf("events=%d teed=%d, want 2/2", len(events), len(teed))
	}
	if events[1].Message != "spliced 6 blocks" {
		t.Fatalf("event message = %q", events[1].Message)
	}
}
