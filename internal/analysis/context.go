package analysis

import (
	"pytidy/internal/ast"
	"pytidy/internal/config"
	"pytidy/internal/diag"
	"pytidy/internal/parser"
	"pytidy/internal/scope"
	"pytidy/internal/source"
)

// Context is what a check sees. It is shared by all checks of one run and
// must be treated as read-only by them.
type Context struct {
	Unit   *parser.Unit
	Tree   *ast.Tree
	File   *source.File
	Scopes *scope.Table
	Config config.Config

	cur   *runner
	loops []ast.NodeID // циклы текущей функции, снаружи внутрь
	saved [][]ast.NodeID
	funcs []ast.NodeID
}

// Spend charges n units against the current check's node budget.
// It does not return when the budget is exhausted.
func (c *Context) Spend(n int) {
	if c.cur == nil {
		return
	}
	c.cur.spent += n
	if b := c.Config.PerCheckNodeBudget; b > 0 && c.cur.spent > b {
		panic(budgetExhausted{})
	}
}

// Report records a finding for the running check.
func (c *Context) Report(f diag.Finding) {
	if c.cur == nil {
		return
	}
	f.Category = c.cur.check.Category()
	c.cur.pending = append(c.cur.pending, f)
}

// Warn reports a warning located at node.
func (c *Context) Warn(node ast.NodeID, msg string) {
	c.Report(c.At(node, msg))
}

// Info reports an informational finding located at node.
func (c *Context) Info(node ast.NodeID, msg string) {
	c.Report(diag.NewInfo(c.File, diag.UnknownCategory, c.Tree.Get(node).Span, msg))
}

// WarnTok reports a warning located at a single token.
func (c *Context) WarnTok(tok int, msg string) {
	c.Report(c.AtTok(tok, msg))
}

// LoopDepth returns how many for/while loops of the current function enclose
// the node being visited, the node itself included.
func (c *Context) LoopDepth() int {
	return len(c.loops)
}

// Function returns the innermost enclosing FunctionDef, or NoNodeID.
func (c *Context) Function() ast.NodeID {
	if len(c.funcs) == 0 {
		return ast.NoNodeID
	}
	return c.funcs[len(c.funcs)-1]
}

func (c *Context) enter(id ast.NodeID) {
	switch c.Tree.Kind(id) {
	case ast.FunctionDef, ast.Lambda, ast.ClassDef:
		if c.Tree.Kind(id) == ast.FunctionDef {
			c.funcs = append(c.funcs, id)
		}
		c.saved = append(c.saved, c.loops)
		c.loops = nil
	case ast.For, ast.While:
		c.loops = append(c.loops, id)
	}
}

func (c *Context) leave(id ast.NodeID) {
	switch c.Tree.Kind(id) {
	case ast.FunctionDef, ast.Lambda, ast.ClassDef:
		if c.Tree.Kind(id) == ast.FunctionDef {
			c.funcs = c.funcs[:len(c.funcs)-1]
		}
		c.loops = c.saved[len(c.saved)-1]
		c.saved = c.saved[:len(c.saved)-1]
	case ast.For, ast.While:
		c.loops = c.loops[:len(c.loops)-1]
	}
}

// At builds a warning located at node; the caller adjusts and reports it.
func (c *Context) At(node ast.NodeID, msg string) diag.Finding {
	return diag.NewWarning(c.File, diag.UnknownCategory, c.Tree.Get(node).Span, msg)
}

// AtTok builds a warning located at one token.
func (c *Context) AtTok(tok int, msg string) diag.Finding {
	return diag.NewWarning(c.File, diag.UnknownCategory, c.Tree.Tokens[tok].Span, msg)
}

func atModuleStart(msg string) diag.Finding {
	return diag.AtLine(diag.UnknownCategory, diag.SevWarning, 1, msg)
}
