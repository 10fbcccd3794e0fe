// Package analysis runs the quality checks over a parsed unit in a single
// top-down traversal and returns ordered findings.
//
// Every check is independent: it sees the tree, the binding model and the
// configuration, never another check's output. A check that panics on a
// node loses its findings for that node only; a check that exhausts its
// node budget stops for the rest of the traversal. Both are recorded as
// failures and make the result partial.
package analysis

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"pytidy/internal/ast"
	"pytidy/internal/config"
	"pytidy/internal/diag"
	"pytidy/internal/parser"
	"pytidy/internal/scope"
)

// FailureKind distinguishes why a check did not complete.
type FailureKind uint8

const (
	CheckFailure FailureKind = iota
	BudgetExceeded
)

func (k FailureKind) String() string {
	if k == BudgetExceeded {
		return "budget-exceeded"
	}
	return "check-failure"
}

func (k FailureKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *FailureKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "check-failure":
		*k = CheckFailure
	case "budget-exceeded":
		*k = BudgetExceeded
	default:
		return fmt.Errorf("unknown failure kind %q", b)
	}
	return nil
}

// Failure marks a partial result of one check.
type Failure struct {
	Check  diag.Category `json:"check" yaml:"check" msgpack:"check"`
	Kind   FailureKind   `json:"kind" yaml:"kind" msgpack:"kind"`
	Line   int           `json:"line,omitempty" yaml:"line,omitempty" msgpack:"line"`
	Reason string        `json:"reason" yaml:"reason" msgpack:"reason"`
}

func (f Failure) Error() string {
	if f.Line > 0 {
		return fmt.Sprintf("%s: %s at line %d: %s", f.Check, f.Kind, f.Line, f.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", f.Check, f.Kind, f.Reason)
}

// Result is the analyzer output for one unit.
type Result struct {
	Findings []diag.Finding
	Failures []Failure
}

// Partial reports whether any check failed to complete.
func (r *Result) Partial() bool {
	return len(r.Failures) > 0
}

// Count returns the number of findings of the given category.
func (r *Result) Count(cat diag.Category) int {
	n := 0
	for _, f := range r.Findings {
		if f.Category == cat {
			n++
		}
	}
	return n
}

// Options configure one analysis run.
type Options struct {
	// Checks overrides the default check set built from the configuration.
	Checks []Check
	// Scopes reuses an already built binding model of the same unit.
	Scopes *scope.Table
	Log    logrus.FieldLogger
}

// Analyze runs every enabled check over unit.
func Analyze(unit *parser.Unit, cfg config.Config) *Result {
	return AnalyzeWith(unit, cfg, Options{})
}

// AnalyzeWith is Analyze with explicit options.
func AnalyzeWith(unit *parser.Unit, cfg config.Config, opts Options) *Result {
	res := &Result{}
	if unit == nil {
		return res
	}
	checks := opts.Checks
	if checks == nil {
		checks = DefaultChecks(cfg)
	}
	tab := opts.Scopes
	if tab == nil {
		tab = scope.Build(unit.Tree)
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	a := &analyzer{
		ctx: &Context{
			Unit:   unit,
			Tree:   unit.Tree,
			File:   unit.File,
			Scopes: tab,
			Config: cfg,
		},
		bag:    diag.NewBag(0),
		result: res,
		log:    log,
	}
	a.out = diag.NewDedupReporter(diag.BagReporter{Bag: a.bag})
	a.runners = make([]*runner, len(checks))
	for i, c := range checks {
		a.runners[i] = &runner{check: c}
	}
	a.run()

	a.bag.Sort()
	res.Findings = append([]diag.Finding(nil), a.bag.Items()...)
	sort.SliceStable(res.Failures, func(i, j int) bool {
		if res.Failures[i].Line != res.Failures[j].Line {
			return res.Failures[i].Line < res.Failures[j].Line
		}
		return res.Failures[i].Check < res.Failures[j].Check
	})
	return res
}

type runner struct {
	check   Check
	spent   int
	dead    bool
	pending []diag.Finding
}

type analyzer struct {
	ctx     *Context
	runners []*runner
	bag     *diag.Bag
	out     diag.Reporter
	result  *Result
	log     logrus.FieldLogger
}

// budgetExhausted is the panic value used by Context.Spend.
type budgetExhausted struct{}

func (a *analyzer) run() {
	tree := a.ctx.Tree
	tree.Walk(tree.Root, func(id ast.NodeID) bool {
		a.ctx.enter(id)
		for _, r := range a.runners {
			a.call(r, id, func() {
				a.ctx.Spend(1)
				r.check.Visit(a.ctx, id)
			})
		}
		return true
	}, func(id ast.NodeID) {
		a.ctx.leave(id)
	})
	for _, r := range a.runners {
		a.call(r, ast.NoNodeID, func() { r.check.Finish(a.ctx) })
	}
}

// call runs fn on behalf of r; findings reported during fn are kept only
// if fn completes.
func (a *analyzer) call(r *runner, id ast.NodeID, fn func()) {
	if r.dead {
		return
	}
	a.ctx.cur = r
	r.pending = r.pending[:0]
	defer func() {
		a.ctx.cur = nil
		rec := recover()
		if rec == nil {
			for _, f := range r.pending {
				a.out.Report(f)
			}
			return
		}
		r.pending = r.pending[:0]
		line := 0
		if id.IsValid() {
			line = a.ctx.Tree.Line(id)
		}
		if _, ok := rec.(budgetExhausted); ok {
			r.dead = true
			a.fail(r, BudgetExceeded, line, fmt.Sprintf("node budget of %d exhausted", a.ctx.Config.PerCheckNodeBudget))
			return
		}
		a.fail(r, CheckFailure, line, fmt.Sprint(rec))
	}()
	fn()
}

func (a *analyzer) fail(r *runner, kind FailureKind, line int, reason string) {
	f := Failure{Check: r.check.Category(), Kind: kind, Line: line, Reason: reason}
	a.result.Failures = append(a.result.Failures, f)
	a.log.WithFields(logrus.Fields{"check": f.Check.String(), "kind": kind.String(), "line": line}).Debug(reason)
}
