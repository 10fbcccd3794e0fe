package observ

import (
	"strings"
	"testing"
	"time"
)

func fakeClock(step time.Duration) func() time.Time {
	cur := time.Unix(0, 0)
	return func() time.Time {
		cur = cur.Add(step)
		return cur
	}
}

func TestTimerReport(t *testing.T) {
	tm := &Timer{now: fakeClock(time.Millisecond)}
	outer := tm.Begin("refactor")
	tm.Measure("refactor/imports", func() string { return "2 actions" })
	tm.End(outer, "")
	parse := tm.Begin("parse")
	tm.End(parse, "")

	rep := tm.Report()
	if len(rep.Phases) != 3 {
		t.Fatalf("expected 3 phases, got %d", len(rep.Phases))
	}
	if rep.Phases[1].Note != "2 actions" || rep.Phases[1].DurationMS != 1 {
		t.Fatalf("unexpected nested phase: %+v", rep.Phases[1])
	}
	// refactor spans 3 ticks, parse one; nested phase excluded from total
	if rep.TotalMS != 4 {
		t.Fatalf("total = %v, want 4", rep.TotalMS)
	}
	if !strings.Contains(tm.Summary(), "refactor/imports") {
		t.Fatalf("summary misses nested phase:\n%s", tm.Summary())
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	tm.End(tm.Begin("x"), "")
	tm.Measure("y", func() string { return "" })
	if len(tm.Report().Phases) != 0 {
		t.Fatal("nil timer must not record phases")
	}
}
