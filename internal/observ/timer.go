// Package observ records per-phase timings of one pipeline invocation.
package observ

import (
	"fmt"
	"strings"
	"time"
)

// Phase records the duration and metadata of a pipeline phase.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
}

// Timer tracks the execution time of multiple phases.
// A nil *Timer is valid and records nothing.
type Timer struct {
	phases []Phase
	now    func() time.Time
}

// NewTimer creates a new empty Timer.
func NewTimer() *Timer { return &Timer{phases: make([]Phase, 0, 12), now: time.Now} }

// Begin starts a new phase and returns its index.
func (t *Timer) Begin(name string) int {
	if t == nil {
		return -1
	}
	t.phases = append(t.phases, Phase{Name: name, Start: t.now()})
	return len(t.phases) - 1
}

// End finishes a phase by its index.
func (t *Timer) End(idx int, note string) {
	if t == nil || idx < 0 || idx >= len(t.phases) {
		return
	}
	p := &t.phases[idx]
	p.Dur = t.now().Sub(p.Start)
	p.Note = note
}

// Measure runs fn as a phase named name.
func (t *Timer) Measure(name string, fn func() string) {
	idx := t.Begin(name)
	note := fn()
	t.End(idx, note)
}

// Summary returns a human-readable string summarizing all tracked phases.
func (t *Timer) Summary() string {
	report := t.Report()
	var out strings.Builder
	out.WriteString("timings:\n")
	for _, p := range report.Phases {
		fmt.Fprintf(&out, "  %-20s %7.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			out.WriteString("  // " + p.Note)
		}
		out.WriteByte('\n')
	}
	fmt.Fprintf(&out, "  %-20s %7.2f ms\n", "total", report.TotalMS)
	return out.String()
}

// PhaseReport представляет сжатую информацию о фазе таймера для сериализации.
type PhaseReport struct {
	Name       string  `json:"name" yaml:"name" msgpack:"name"`
	DurationMS float64 `json:"duration_ms" yaml:"duration_ms" msgpack:"duration_ms"`
	Note       string  `json:"note,omitempty" yaml:"note,omitempty" msgpack:"note"`
}

// Report описывает агрегированные данные таймера.
type Report struct {
	TotalMS float64       `json:"total_ms" yaml:"total_ms" msgpack:"total_ms"`
	Phases  []PhaseReport `json:"phases" yaml:"phases" msgpack:"phases"`
}

// Report формирует срез фаз и общую длительность в миллисекундах.
// Вложенные фазы (имя с '/') в общую сумму не входят.
func (t *Timer) Report() Report {
	if t == nil || len(t.phases) == 0 {
		return Report{}
	}
	report := Report{
		Phases: make([]PhaseReport, len(t.phases)),
	}
	var total time.Duration
	for i, phase := range t.phases {
		if !strings.Contains(phase.Name, "/") {
			total += phase.Dur
		}
		report.Phases[i] = PhaseReport{
			Name:       phase.Name,
			DurationMS: durationToMillis(phase.Dur),
			Note:       phase.Note,
		}
	}
	report.TotalMS = durationToMillis(total)
	return report
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
