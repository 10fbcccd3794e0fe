package ui

import (
	"errors"
	"strings"
	"testing"

	"pytidy/internal/driver"
)

func TestProgressModelTracksFiles(t *testing.T) {
	events := make(chan driver.Event)
	m := NewProgressModel("pytidy", []string{"a.py", "b.py"}, events).(*progressModel)

	m.applyEvent(driver.Event{File: "a.py", Stage: driver.StageAnalyze, Status: driver.StatusWorking})
	if got := m.items[0].status; got != "analyzing" {
		t.Fatalf("status = %q, want analyzing", got)
	}
	if p := m.percent(); p <= 0 || p >= 0.5 {
		t.Errorf("percent after one stage = %v", p)
	}

	m.applyEvent(driver.Event{File: "a.py", Stage: driver.StageDiff, Status: driver.StatusDone})
	m.applyEvent(driver.Event{File: "b.py", Stage: driver.StageParse, Status: driver.StatusError, Err: errors.New("syntax")})
	m.applyEvent(driver.Event{File: "b.py", Stage: driver.StageParse, Status: driver.StatusError})
	m.applyEvent(driver.Event{File: "other.py", Stage: driver.StageRead, Status: driver.StatusWorking})

	if m.failed != 1 {
		t.Errorf("failed = %d, want 1", m.failed)
	}
	if p := m.percent(); p != 1 {
		t.Errorf("percent = %v, want 1", p)
	}
	view := m.View()
	if !strings.Contains(view, "2/2, 1 failed") || !strings.Contains(view, "error") {
		t.Errorf("unexpected view:\n%s", view)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("pkg/module.py", 20); got != "pkg/module.py" {
		t.Errorf("short value changed: %q", got)
	}
	if got := truncate("pkg/very/long/module.py", 10); got != "pkg/ver..." {
		t.Errorf("truncate = %q", got)
	}
}
