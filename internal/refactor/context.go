package refactor

import (
	"fmt"
	"sort"

	"pytidy/internal/analysis"
	"pytidy/internal/ast"
	"pytidy/internal/config"
	"pytidy/internal/diag"
	"pytidy/internal/parser"
	"pytidy/internal/scope"
	"pytidy/internal/source"
	"pytidy/internal/token"
)

// Context is the view of the current unit one planning round gets.
type Context struct {
	Unit   *parser.Unit
	Tree   *ast.Tree
	File   *source.File
	Scopes *scope.Table
	Config config.Config

	pass     string
	spent    int
	seed     []diag.Finding
	findings map[diag.Category][]diag.Finding
	byStart  map[uint32][]ast.NodeID
	missed   []*Error
}

func (r *runner) newContext(unit *parser.Unit, pass string) *Context {
	ctx := &Context{
		Unit:   unit,
		Tree:   unit.Tree,
		File:   unit.File,
		Scopes: scope.Build(unit.Tree),
		Config: r.cfg,
		pass:   pass,
	}
	if unit == r.seedUnit {
		ctx.seed = r.seed
	}
	return ctx
}

// NewContext builds a planning context outside of a Refactor run.
func NewContext(unit *parser.Unit, cfg config.Config) *Context {
	r := &runner{cfg: cfg}
	return r.newContext(unit, "")
}

// Spend charges n units against the pass budget.
func (c *Context) Spend(n int) {
	c.spent += n
	if b := c.Config.PerCheckNodeBudget; b > 0 && c.spent > b {
		panic(passBudget{})
	}
}

// Findings returns the analyzer findings of one category for the current
// unit.
func (c *Context) Findings(cat diag.Category) []diag.Finding {
	if got, ok := c.findings[cat]; ok {
		return got
	}
	if c.findings == nil {
		c.findings = map[diag.Category][]diag.Finding{}
	}
	var out []diag.Finding
	if c.seed != nil {
		for _, f := range c.seed {
			if f.Category == cat {
				out = append(out, f)
			}
		}
	} else {
		cfg := c.Config
		cfg.EnabledChecks = []string{cat.String()}
		res := analysis.AnalyzeWith(c.Unit, cfg, analysis.Options{Scopes: c.Scopes})
		out = res.Findings
	}
	c.findings[cat] = out
	return out
}

// Miss records an opportunity the pass decided not to take.
func (c *Context) Miss(line int, format string, args ...any) {
	c.missed = append(c.missed, &Error{Kind: Missed, Pass: c.pass, Line: line, Message: fmt.Sprintf(format, args...)})
}

// NodeAt returns the outermost node of the given kind starting at off.
func (c *Context) NodeAt(off uint32, kind ast.Kind) ast.NodeID {
	if c.byStart == nil {
		c.byStart = map[uint32][]ast.NodeID{}
		c.Tree.Inspect(c.Tree.Root, func(id ast.NodeID) bool {
			st := c.Tree.Get(id).Span.Start
			c.byStart[st] = append(c.byStart[st], id)
			return true
		})
	}
	for _, id := range c.byStart[off] {
		if c.Tree.Kind(id) == kind {
			return id
		}
	}
	return ast.NoNodeID
}

// TokenAt returns the index of the token starting at off, or -1.
func (c *Context) TokenAt(off uint32) int {
	toks := c.Tree.Tokens
	i := sort.Search(len(toks), func(i int) bool { return toks[i].Span.Start >= off })
	for ; i < len(toks) && toks[i].Span.Start == off; i++ {
		if toks[i].Kind != token.Indent && toks[i].Kind != token.Dedent {
			return i
		}
	}
	return -1
}

// Line returns the 1-based line of a node.
func (c *Context) Line(id ast.NodeID) int { return c.Tree.Line(id) }

// TokLine returns the 1-based line of a token.
func (c *Context) TokLine(tok int) int {
	return int(c.File.Position(c.Tree.Tokens[tok].Span.Start).Line)
}

// Newline returns the line ending the file uses.
func (c *Context) Newline() string {
	if c.File.Layout&source.CRLF != 0 {
		return "\r\n"
	}
	return "\n"
}

func (c *Context) replaceNode(id ast.NodeID, text string) TextEdit {
	return TextEdit{Span: c.Tree.Get(id).Span, NewText: text, OldText: c.Tree.Text(id)}
}

func (c *Context) insertAt(off uint32, text string) TextEdit {
	return TextEdit{Span: source.Span{Start: off, End: off}, NewText: text}
}

// lineStart returns the offset of the first byte on the node's first line.
func (c *Context) lineStart(id ast.NodeID) uint32 {
	return c.File.LineStart(c.File.Position(c.Tree.Get(id).Span.Start).Line)
}

// deleteStmts removes statements that all belong to list. When nothing
// would be left in a suite, the first removed statement becomes pass.
func (c *Context) deleteStmts(list ast.NodeID, doomed []ast.NodeID) []TextEdit {
	tree := c.Tree
	gone := map[ast.NodeID]bool{}
	for _, s := range doomed {
		gone[s] = true
	}
	remaining := 0
	for _, s := range tree.Stmts(list) {
		if !gone[s] {
			remaining++
		}
	}
	var edits []TextEdit
	for i, s := range doomed {
		if i == 0 && remaining == 0 && tree.Kind(list) == ast.Suite {
			edits = append(edits, c.replaceNode(s, "pass"))
			continue
		}
		edits = append(edits, c.deleteStmt(s))
	}
	return edits
}

// deleteStmt removes one statement together with its line, or with its
// semicolon when it shares the line with other statements.
func (c *Context) deleteStmt(stmt ast.NodeID) TextEdit {
	tree := c.Tree
	n := tree.Get(stmt)
	if tree.OwnsLines(stmt) {
		sp := tree.LineExtent(stmt)
		return TextEdit{Span: sp, OldText: c.File.Text(sp)}
	}
	toks := tree.Tokens
	term := tree.Terminator(stmt)
	if toks[term].Kind == token.Semicolon {
		end := toks[term].Span.End
		if next := term + 1; next < len(toks) && toks[next].Kind != token.Newline && onlySpaces(toks[next].Leading) {
			end = toks[next].Span.Start
		}
		sp := source.Span{Start: n.Span.Start, End: end}
		return TextEdit{Span: sp, OldText: c.File.Text(sp)}
	}
	// последний оператор строки: забираем предыдущую ';'
	start := n.Span.Start
	if prev := n.First - 1; prev >= 0 && toks[prev].Kind == token.Semicolon {
		start = toks[prev].Span.Start
	}
	sp := source.Span{Start: start, End: n.Span.End}
	return TextEdit{Span: sp, OldText: c.File.Text(sp)}
}

func onlySpaces(tv []token.Trivia) bool {
	for _, t := range tv {
		if t.Kind != token.TriviaSpace {
			return false
		}
	}
	return true
}

// indentUnit is one level of indentation in the configured width.
func (c *Context) indentUnit() string {
	w := c.Config.IndentWidth
	if w <= 0 {
		w = 4
	}
	return spaces(w)
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
