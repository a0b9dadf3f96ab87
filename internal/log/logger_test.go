package log

import (
	"path/filepath"
	"sync"
	"testing"
)

func TestAppendAndReadAll(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLogger(dir)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	events := []Event{
		{Event: EventDaemonStarted},
		{Event: EventConflict, Target: "CPU_PL2", Winner: "thermal", Strategy: "Emergency Override"},
		{Event: EventPlanExecuted, Actions: 3, Conflicts: 1, Mode: "normal"},
	}
	for _, ev := range events {
		if err := l.Append(ev); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := l.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("events = %d, want 3", len(got))
	}
	if got[0].Time.IsZero() {
		t.Error("Append did not stamp the time")
	}
	if got[1].Winner != "thermal" || got[1].Target != "CPU_PL2" {
		t.Errorf("conflict event = %+v, fields lost", got[1])
	}
	if got[2].Actions != 3 {
		t.Errorf("actions = %d, want 3", got[2].Actions)
	}
}

func TestReadAllMissingFile(t *testing.T) {
	l, err := NewLogger(t.TempDir())
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	got, err := l.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("events = %d, want 0", len(got))
	}
}

func TestNewLoggerCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	if _, err := NewLogger(dir); err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
}

func TestConcurrentAppend(t *testing.T) {
	l, err := NewLogger(t.TempDir())
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_ = l.Append(Event{Event: EventCycleSkipped})
			}
		}()
	}
	wg.Wait()

	got, err := l.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 200 {
		t.Errorf("events = %d, want 200 (lost or torn writes)", len(got))
	}
}
