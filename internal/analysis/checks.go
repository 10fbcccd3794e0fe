package analysis

import (
	"pytidy/internal/ast"
	"pytidy/internal/config"
	"pytidy/internal/diag"
)

// Check is one quality rule. Visit is called for every node in pre-order;
// Finish once after the traversal. A check keeps its own state between
// calls and must not mutate the Context.
type Check interface {
	Category() diag.Category
	Visit(ctx *Context, id ast.NodeID)
	Finish(ctx *Context)
}

// base gives checks that only need one of the two hooks a no-op for the other.
type base struct{ cat diag.Category }

func (b base) Category() diag.Category  { return b.cat }
func (base) Visit(*Context, ast.NodeID) {}
func (base) Finish(*Context)            {}

// DefaultChecks returns a fresh instance of every check enabled in cfg,
// ordered by category.
func DefaultChecks(cfg config.Config) []Check {
	all := []Check{
		&unusedImports{base{diag.UnusedImport}},
		&unusedVariables{base{diag.UnusedVariable}},
		&longFunctions{base{diag.LongFunction}},
		&tooManyArguments{base{diag.TooManyArguments}},
		&magicNumbers{base{diag.MagicNumber}},
		&missingDocstrings{base{diag.MissingDocstring}},
		&duplication{base: base{diag.Duplication}},
		&complexExpressions{base{diag.ComplexExpression}},
		&naming{base{diag.Naming}},
		&globalState{base{diag.GlobalState}},
		&lineLength{base{diag.ExcessiveLineLength}},
	}
	out := all[:0]
	for _, c := range all {
		if cfg.CheckEnabled(c.Category()) {
			out = append(out, c)
		}
	}
	return out
}
