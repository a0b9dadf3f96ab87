package stats

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "stats.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordCycleAndTotals(t *testing.T) {
	s := newTestStore(t)

	cycles := []Cycle{
		{ID: "c1", StartedAt: time.Now(), Mode: "normal", Proposals: 5, Actions: 3, Conflicts: 1, DurationMs: 12},
		{ID: "c2", StartedAt: time.Now(), Mode: "thermal_management", Proposals: 5, Actions: 2, Conflicts: 2, Emergency: 1, DurationMs: 9},
		{ID: "c3", StartedAt: time.Now(), Mode: "normal", Rejected: true, DurationMs: 4},
		{ID: "c4", StartedAt: time.Now(), Mode: "normal", Skipped: true},
	}
	for _, c := range cycles {
		if err := s.RecordCycle(c, nil); err != nil {
			t.Fatalf("RecordCycle(%s): %v", c.ID, err)
		}
	}

	totals, err := s.GetTotals()
	if err != nil {
		t.Fatalf("GetTotals: %v", err)
	}
	if totals.Cycles != 4 {
		t.Errorf("cycles = %d, want 4", totals.Cycles)
	}
	if totals.Actions != 5 {
		t.Errorf("actions = %d, want 5", totals.Actions)
	}
	if totals.Conflicts != 3 {
		t.Errorf("conflicts = %d, want 3", totals.Conflicts)
	}
	if totals.Rejected != 1 || totals.Skipped != 1 {
		t.Errorf("rejected/skipped = %d/%d, want 1/1", totals.Rejected, totals.Skipped)
	}
}

func TestRecordCycleWithConflicts(t *testing.T) {
	s := newTestStore(t)

	c := Cycle{ID: "c1", StartedAt: time.Now(), Mode: "normal", Actions: 2, Conflicts: 2}
	conflicts := []Conflict{
		{CycleID: "c1", Target: "CPU_PL2", Winner: "thermal", Strategy: "Emergency Override", Losers: 1},
		{CycleID: "c1", Target: "FAN_PROFILE", Winner: "thermal", Strategy: "Action Type Priority", Losers: 2},
	}
	if err := s.RecordCycle(c, conflicts); err != nil {
		t.Fatalf("RecordCycle: %v", err)
	}

	top, err := s.TopConflictTargets(10)
	if err != nil {
		t.Fatalf("TopConflictTargets: %v", err)
	}
	if top["CPU_PL2"] != 1 || top["FAN_PROFILE"] != 1 {
		t.Errorf("targets = %v, want CPU_PL2 and FAN_PROFILE once each", top)
	}
}

func TestDuplicateCycleIDFails(t *testing.T) {
	s := newTestStore(t)

	c := Cycle{ID: "dup", StartedAt: time.Now(), Mode: "normal"}
	if err := s.RecordCycle(c, nil); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := s.RecordCycle(c, nil); err == nil {
		t.Error("duplicate cycle ID accepted")
	}
}

func TestRecentCyclesOrder(t *testing.T) {
	s := newTestStore(t)

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"old", "mid", "new"} {
		c := Cycle{ID: id, StartedAt: base.Add(time.Duration(i) * time.Minute), Mode: "normal"}
		if err := s.RecordCycle(c, nil); err != nil {
			t.Fatalf("RecordCycle(%s): %v", id, err)
		}
	}

	recent, err := s.RecentCycles(2)
	if err != nil {
		t.Fatalf("RecentCycles: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("rows = %d, want 2", len(recent))
	}
	if recent[0].ID != "new" || recent[1].ID != "mid" {
		t.Errorf("order = %s,%s, want new,mid", recent[0].ID, recent[1].ID)
	}
}

func TestEmptyStoreTotals(t *testing.T) {
	s := newTestStore(t)
	totals, err := s.GetTotals()
	if err != nil {
		t.Fatalf("GetTotals: %v", err)
	}
	if totals != (Totals{}) {
		t.Errorf("totals = %+v, want zero", totals)
	}
}
