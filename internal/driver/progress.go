package driver

import (
	"time"

	"pytidy/internal/engine"
)

// Stage describes a high-level phase of one file.
type Stage string

const (
	// StageRead is loading the file.
	StageRead Stage = "read"
	// StageParse is the parse stage.
	StageParse Stage = "parse"
	// StageAnalyze covers both analyses.
	StageAnalyze Stage = "analyze"
	// StageRefactor is the pass sequence.
	StageRefactor Stage = "refactor"
	// StageDiff is the comparison.
	StageDiff Stage = "diff"
	// StageWrite is writing the rewritten file.
	StageWrite Stage = "write"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the file is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the file is being processed.
	StatusWorking Status = "working"
	// StatusDone indicates the file is done.
	StatusDone Status = "done"
	// StatusCached indicates the result came from the cache.
	StatusCached Status = "cached"
	// StatusError indicates the file could not be processed.
	StatusError Status = "error"
)

// Event reports progress for a file (or for the whole run when File is empty).
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Run calls it from several
// goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// FuncSink adapts a function to ProgressSink.
type FuncSink func(Event)

func (fn FuncSink) OnEvent(evt Event) {
	if fn != nil {
		fn(evt)
	}
}

func emit(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}

// stageOf maps engine phases onto progress stages.
func stageOf(phase string) (Stage, bool) {
	switch phase {
	case engine.PhaseParse:
		return StageParse, true
	case engine.PhaseAnalyze, engine.PhaseReanalyze:
		return StageAnalyze, true
	case engine.PhaseRefactor:
		return StageRefactor, true
	case engine.PhaseDiff:
		return StageDiff, true
	}
	return "", false
}

// phaseObserver turns engine phase starts of one file into progress events.
func phaseObserver(sink ProgressSink, file string) engine.PhaseObserver {
	if sink == nil {
		return nil
	}
	return func(ev engine.PhaseEvent) {
		if ev.Status != engine.PhaseStart {
			return
		}
		if stage, ok := stageOf(ev.Name); ok {
			sink.OnEvent(Event{File: file, Stage: stage, Status: StatusWorking})
		}
	}
}
