// Package engine runs one invocation of the pipeline: parse, analyze,
// refactor, analyze again and compare. An invocation owns all of its state,
// so any number of them may run in parallel.
package engine

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"pytidy/internal/analysis"
	"pytidy/internal/config"
	"pytidy/internal/diag"
	"pytidy/internal/diff"
	"pytidy/internal/observ"
	"pytidy/internal/parser"
	"pytidy/internal/refactor"
	"pytidy/internal/source"
)

// Output is the result of one invocation.
type Output struct {
	Path            string         `json:"path,omitempty" yaml:"path,omitempty" msgpack:"path"`
	TransformedText string         `json:"transformed_text" yaml:"transformed_text" msgpack:"transformed_text"`
	FindingsBefore  []diag.Finding `json:"findings_before" yaml:"findings_before" msgpack:"findings_before"`
	FindingsAfter   []diag.Finding `json:"findings_after" yaml:"findings_after" msgpack:"findings_after"`
	Diff            []diff.Entry   `json:"diff" yaml:"diff" msgpack:"diff"`
	Report          *diff.Report   `json:"report" yaml:"report" msgpack:"report"`
	Timings         observ.Report  `json:"timings" yaml:"timings" msgpack:"timings"`

	// Original and Transformed are the parsed units; they are not serialized
	// and are nil in cached outputs.
	Original    *parser.Unit `json:"-" yaml:"-" msgpack:"-"`
	Transformed *parser.Unit `json:"-" yaml:"-" msgpack:"-"`
}

// Changed reports whether the transformed text differs from the input.
func (o *Output) Changed() bool {
	return o.Report != nil && o.Report.Changed()
}

type options struct {
	path         string
	log          logrus.FieldLogger
	timer        *observ.Timer
	analyzeOnly  bool
	passes       []refactor.Pass
	checks       func(config.Config) []analysis.Check
	maxDepth     int
	phaseHandler PhaseObserver
}

// Option configures Run.
type Option func(*options)

// WithPath names the input in findings, logs and outputs.
func WithPath(path string) Option { return func(o *options) { o.path = path } }

// WithLogger routes pipeline logs to log.
func WithLogger(log logrus.FieldLogger) Option { return func(o *options) { o.log = log } }

// WithTimer records phase timings into t instead of a private timer.
func WithTimer(t *observ.Timer) Option { return func(o *options) { o.timer = t } }

// AnalyzeOnly skips the refactor and the second analysis; the output text
// is the input text.
func AnalyzeOnly() Option { return func(o *options) { o.analyzeOnly = true } }

// WithPasses overrides the pass sequence built from the configuration.
// Calling it without passes disables the refactor.
func WithPasses(passes ...refactor.Pass) Option {
	if passes == nil {
		passes = []refactor.Pass{}
	}
	return func(o *options) { o.passes = passes }
}

// WithChecks overrides the check set. fn is called once per analysis since
// checks keep state.
func WithChecks(fn func(config.Config) []analysis.Check) Option {
	return func(o *options) { o.checks = fn }
}

// WithMaxDepth bounds parser nesting.
func WithMaxDepth(n int) Option { return func(o *options) { o.maxDepth = n } }

// WithPhaseObserver reports phase boundaries to fn.
func WithPhaseObserver(fn PhaseObserver) Option { return func(o *options) { o.phaseHandler = fn } }

// Run processes text with cfg. The only error is a *parser.Error for input
// that does not parse; check and pass failures are reported in
// Output.Report.
func Run(text string, cfg config.Config, opts ...Option) (*Output, error) {
	o := options{}
	for _, fn := range opts {
		fn(&o)
	}
	if o.log == nil {
		o.log = logrus.StandardLogger()
	}
	if o.timer == nil {
		o.timer = observ.NewTimer()
	}
	log := o.log
	if o.path != "" {
		log = log.WithField("file", o.path)
	}
	ph := phases{timer: o.timer, observe: o.phaseHandler}

	out := &Output{Path: o.path}

	idx := ph.begin(PhaseParse)
	unit, err := parser.ParseFile(source.NewFile(o.path, []byte(text)), parser.Options{MaxDepth: o.maxDepth})
	if err != nil {
		ph.end(idx, "syntax error")
		log.WithError(err).Debug("[engine] parse failed")
		return nil, err
	}
	ph.end(idx, fmt.Sprintf("%d nodes", unit.Tree.Count(unit.Tree.Root)))
	out.Original = unit

	idx = ph.begin(PhaseAnalyze)
	before := analysis.AnalyzeWith(unit, cfg, o.analysisOptions(cfg, log))
	ph.end(idx, fmt.Sprintf("%d findings", len(before.Findings)))
	out.FindingsBefore = before.Findings

	if o.analyzeOnly {
		out.Transformed = unit
		out.TransformedText = text
		out.FindingsAfter = before.Findings
		idx = ph.begin(PhaseDiff)
		out.Diff, out.Report = diff.Compare(text, text, before.Findings, before.Findings, nil)
		out.Report.Note(before.Failures, nil)
		ph.end(idx, "")
		out.Timings = o.timer.Report()
		return out, nil
	}

	idx = ph.begin(PhaseRefactor)
	res, err := refactor.RefactorWith(unit, before.Findings, cfg, refactor.Options{
		Passes: o.passes,
		Log:    log,
		Timer:  o.timer,
	})
	if err != nil {
		ph.end(idx, "failed")
		return nil, fmt.Errorf("refactor: %w", err)
	}
	ph.end(idx, fmt.Sprintf("%d actions", len(res.Actions)))
	out.Transformed = res.Unit
	out.TransformedText = res.Unit.Text()

	after := before
	failures := before.Failures
	if res.Unit != unit {
		idx = ph.begin(PhaseReanalyze)
		after = analysis.AnalyzeWith(res.Unit, cfg, o.analysisOptions(cfg, log))
		ph.end(idx, fmt.Sprintf("%d findings", len(after.Findings)))
		failures = append(append([]analysis.Failure(nil), before.Failures...), after.Failures...)
	}
	out.FindingsAfter = after.Findings

	idx = ph.begin(PhaseDiff)
	out.Diff, out.Report = diff.Compare(text, out.TransformedText, before.Findings, after.Findings, res.Actions)
	out.Report.Note(failures, res.Errors)
	ph.end(idx, fmt.Sprintf("%d entries", len(out.Diff)))

	log.WithFields(logrus.Fields{
		"actions": len(res.Actions),
		"errors":  len(res.Errors),
		"partial": out.Report.Partial,
	}).Debug("[engine] done")
	out.Timings = o.timer.Report()
	return out, nil
}

func (o *options) analysisOptions(cfg config.Config, log logrus.FieldLogger) analysis.Options {
	opts := analysis.Options{Log: log}
	if o.checks != nil {
		opts.Checks = o.checks(cfg)
	}
	return opts
}
