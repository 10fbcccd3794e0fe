package engine

import (
	"time"

	"pytidy/internal/observ"
)

// Phase names used in timings and phase events.
const (
	PhaseParse     = "parse"
	PhaseAnalyze   = "analyze"
	PhaseRefactor  = "refactor"
	PhaseReanalyze = "reanalyze"
	PhaseDiff      = "diff"
)

// PhaseStatus reports whether a phase started or finished.
type PhaseStatus int

const (
	// PhaseStart indicates that a pipeline phase has begun.
	PhaseStart PhaseStatus = iota
	PhaseEnd
)

// PhaseEvent describes a phase boundary.
type PhaseEvent struct {
	Name    string
	Status  PhaseStatus
	Elapsed time.Duration
}

// PhaseObserver receives phase events emitted during Run.
type PhaseObserver func(PhaseEvent)

type openPhase struct {
	name string
	at   time.Time
}

type phases struct {
	timer   *observ.Timer
	observe PhaseObserver
	open    []openPhase
}

func (p *phases) begin(name string) int {
	idx := p.timer.Begin(name)
	if p.observe != nil {
		p.observe(PhaseEvent{Name: name, Status: PhaseStart})
		p.open = append(p.open, openPhase{name: name, at: time.Now()})
	}
	return idx
}

func (p *phases) end(idx int, note string) {
	p.timer.End(idx, note)
	if p.observe == nil || len(p.open) == 0 {
		return
	}
	last := p.open[len(p.open)-1]
	p.open = p.open[:len(p.open)-1]
	p.observe(PhaseEvent{Name: last.name, Status: PhaseEnd, Elapsed: time.Since(last.at)})
}
