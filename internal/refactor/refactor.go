// Package refactor rewrites a parsed unit through an ordered sequence of
// behavior-preserving passes.
//
// Every pass plans span edits against the current unit; the edit engine
// applies them and the result is parsed again before the next round. A pass
// runs until it has nothing left to do, so running the whole sequence on
// its own output changes nothing. A pass that fails is rolled back and the
// sequence continues with the unit it was given.
package refactor

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"pytidy/internal/config"
	"pytidy/internal/diag"
	"pytidy/internal/observ"
	"pytidy/internal/parser"
	"pytidy/internal/source"
)

// Pass plans one family of rewrites.
type Pass interface {
	Name() string
	// Plan returns the changes to apply to ctx.Unit. It must return no
	// changes once the unit is in the pass's normal form.
	Plan(ctx *Context) []Change
}

// Options configure one Refactor call.
type Options struct {
	// Passes overrides the pass sequence built from the configuration.
	Passes []Pass
	Log    logrus.FieldLogger
	Timer  *observ.Timer
}

// Result is the outcome of a refactor run.
type Result struct {
	Unit    *parser.Unit
	Actions []Action
	Errors  []*Error
}

// Changed reports whether any action was applied.
func (r *Result) Changed() bool { return len(r.Actions) > 0 }

// Count returns how many applied actions have the given kind.
func (r *Result) Count(kind ActionKind) int {
	n := 0
	for _, a := range r.Actions {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

// ErrNilUnit is returned when Refactor is called without a unit.
var ErrNilUnit = errors.New("refactor: nil unit")

// Refactor runs every enabled pass over unit. findings, if given, must be
// the analyzer output for unit; passes that act on findings reuse them
// until the unit changes.
func Refactor(unit *parser.Unit, findings []diag.Finding, cfg config.Config) (*Result, error) {
	return RefactorWith(unit, findings, cfg, Options{})
}

// RefactorWith is Refactor with explicit options.
func RefactorWith(unit *parser.Unit, findings []diag.Finding, cfg config.Config, opts Options) (*Result, error) {
	if unit == nil {
		return nil, ErrNilUnit
	}
	passes := opts.Passes
	if passes == nil {
		passes = DefaultPasses(cfg)
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := &runner{cfg: cfg, log: log, timer: opts.Timer, seedUnit: unit, seed: findings}

	res := &Result{Unit: unit}
	rounds := max(cfg.MaxPassRounds, 1)
	// последовательность повторяется, пока очередной проход хоть что-то меняет
	for iter := 0; iter < rounds; iter++ {
		changed := false
		var errs []*Error
		for _, p := range passes {
			out := r.runPass(res.Unit, p)
			errs = append(errs, out.errs...)
			if len(out.actions) > 0 {
				res.Unit = out.unit
				res.Actions = append(res.Actions, out.actions...)
				changed = true
			}
		}
		res.Errors = mergeErrors(res.Errors, errs)
		if !changed {
			break
		}
	}
	return res, nil
}

// mergeErrors adds the errors of one round to those of earlier rounds. An
// error repeated by a later round replaces its earlier copy, so it keeps
// the line it has in the latest text.
func mergeErrors(prev, round []*Error) []*Error {
	type key struct {
		kind      ErrorKind
		pass, msg string
	}
	taken := make([]bool, len(prev))
	for _, e := range round {
		k := key{e.Kind, e.Pass, e.Message}
		found := false
		for i, old := range prev {
			if !taken[i] && (key{old.Kind, old.Pass, old.Message}) == k {
				prev[i], taken[i], found = e, true, true
				break
			}
		}
		if !found {
			prev = append(prev, e)
			taken = append(taken, true)
		}
	}
	return prev
}

// DefaultPasses returns the enabled passes in their fixed order.
func DefaultPasses(cfg config.Config) []Pass {
	all := map[string]Pass{
		config.PassImports:    importsPass{},
		config.PassDeadCode:   deadCodePass{},
		config.PassNaming:     namingPass{},
		config.PassExtract:    extractPass{},
		config.PassDocstrings: docstringsPass{},
		config.PassSimplify:   simplifyPass{},
		config.PassFormat:     formatPass{},
	}
	var out []Pass
	for _, name := range config.PassOrder {
		if cfg.PassEnabled(name) {
			out = append(out, all[name])
		}
	}
	return out
}

type runner struct {
	cfg      config.Config
	log      logrus.FieldLogger
	timer    *observ.Timer
	seedUnit *parser.Unit
	seed     []diag.Finding
}

type passOutcome struct {
	unit    *parser.Unit
	actions []Action
	errs    []*Error
}

// runPass runs p to a fixpoint. On failure the outcome carries the input
// unit and no actions.
func (r *runner) runPass(unit *parser.Unit, p Pass) (out passOutcome) {
	name := p.Name()
	idx := r.timer.Begin("refactor/" + name)
	defer func() { r.timer.End(idx, fmt.Sprintf("%d actions", len(out.actions))) }()

	log := r.log.WithField("pass", name)
	cur := unit
	var actions []Action
	var missed []*Error
	for round := 0; round < max(r.cfg.MaxPassRounds, 1); round++ {
		ctx := r.newContext(cur, name)
		changes, err := r.plan(p, ctx)
		if err != nil {
			log.WithError(err).Debug("pass rolled back")
			return passOutcome{unit: unit, errs: []*Error{err}}
		}
		missed = mergeErrors(missed, ctx.missed)
		if len(changes) == 0 {
			break
		}
		content, applied, skipped := applyChanges(cur.File.Content, changes)
		for _, s := range skipped {
			log.WithField("action", s.Action.Kind.String()).Debugf("change skipped: %s", s.Reason)
		}
		if len(applied) == 0 {
			e := &Error{Kind: Conflict, Pass: name, Line: skipped[0].Action.Line, Message: skipped[0].Reason}
			return passOutcome{unit: unit, errs: []*Error{e}}
		}
		next, perr := parser.ParseFile(source.NewFile(cur.File.Path, content), parser.Options{})
		if perr != nil {
			e := &Error{Kind: Reparse, Pass: name, Message: "rewritten text does not parse: " + perr.Error(), Err: perr}
			var pe *parser.Error
			if errors.As(perr, &pe) {
				e.Line = pe.Line
			}
			log.WithError(perr).Warn("pass produced invalid code, rolled back")
			return passOutcome{unit: unit, errs: []*Error{e}}
		}
		log.WithField("round", round+1).Debugf("applied %d actions", len(applied))
		cur = next
		actions = append(actions, applied...)
	}
	return passOutcome{unit: cur, actions: actions, errs: missed}
}

// passBudget is the panic value of Context.Spend.
type passBudget struct{}

func (r *runner) plan(p Pass, ctx *Context) (changes []Change, err *Error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		changes = nil
		if _, ok := rec.(passBudget); ok {
			err = &Error{Kind: Budget, Pass: p.Name(), Message: fmt.Sprintf("node budget of %d exhausted", r.cfg.PerCheckNodeBudget)}
			return
		}
		err = &Error{Kind: Failed, Pass: p.Name(), Message: fmt.Sprint(rec)}
		if e, ok := rec.(error); ok {
			err.Err = e
		}
	}()
	return p.Plan(ctx), nil
}
