package refactor

import (
	"fmt"
	"sort"
	"strings"

	"pytidy/internal/analysis"
	"pytidy/internal/ast"
	"pytidy/internal/diag"
)

// importsPass removes unused imports, then sorts and groups the leading
// import block of the module.
type importsPass struct{}

func (importsPass) Name() string { return "imports" }

func (p importsPass) Plan(ctx *Context) []Change {
	if changes := p.removeUnused(ctx); len(changes) > 0 {
		return changes
	}
	if ch, ok := p.sortBlock(ctx); ok {
		return []Change{ch}
	}
	return nil
}

type importRemoval struct {
	stmt    ast.NodeID
	aliases []ast.NodeID
	whole   bool
}

func (importsPass) removeUnused(ctx *Context) []Change {
	tree := ctx.Tree
	var removals []*importRemoval
	byStmt := map[ast.NodeID]*importRemoval{}
	for _, f := range ctx.Findings(diag.UnusedImport) {
		ctx.Spend(1)
		alias := ctx.NodeAt(f.Span.Start, ast.Alias)
		if !alias.IsValid() {
			continue
		}
		stmt := tree.Parent(alias)
		rm, ok := byStmt[stmt]
		if !ok {
			rm = &importRemoval{stmt: stmt}
			byStmt[stmt] = rm
			removals = append(removals, rm)
		}
		rm.aliases = append(rm.aliases, alias)
	}

	// целые операторы удаляются по спискам, чтобы не оставить пустой блок
	doomed := map[ast.NodeID][]ast.NodeID{}
	var lists []ast.NodeID
	for _, rm := range removals {
		rm.whole = len(rm.aliases) == len(tree.Children(rm.stmt))
		if !rm.whole {
			continue
		}
		list := tree.Parent(rm.stmt)
		if _, seen := doomed[list]; !seen {
			lists = append(lists, list)
		}
		doomed[list] = append(doomed[list], rm.stmt)
	}
	deletions := map[ast.NodeID]TextEdit{}
	for _, list := range lists {
		edits := ctx.deleteStmts(list, doomed[list])
		for i, s := range doomed[list] {
			deletions[s] = edits[i]
		}
	}

	var changes []Change
	for _, rm := range removals {
		actions := make([]Action, len(rm.aliases))
		for i, a := range rm.aliases {
			name := analysis.ImportedName(tree, a)
			actions[i] = Action{
				Kind:        RemoveUnusedImport,
				Pass:        "imports",
				Line:        ctx.Line(a),
				Params:      map[string]string{"name": name},
				Description: fmt.Sprintf("removed unused import '%s'", name),
			}
		}
		var edit TextEdit
		switch {
		case rm.whole:
			edit = deletions[rm.stmt]
		case hasInnerComment(ctx, rm.stmt):
			ctx.Miss(ctx.Line(rm.stmt), "unused names in an import with comments inside are kept")
			continue
		default:
			edit = ctx.replaceNode(rm.stmt, importWithout(tree, rm.stmt, rm.aliases))
		}
		changes = append(changes, Change{Action: actions[0], Also: actions[1:], Edits: []TextEdit{edit}})
	}
	return changes
}

func fromModule(n *ast.Node) string {
	return strings.Repeat(".", n.Level) + n.Name
}

// importWithout rebuilds an import statement on one line without the
// given aliases.
func importWithout(tree *ast.Tree, stmt ast.NodeID, drop []ast.NodeID) string {
	skip := map[ast.NodeID]bool{}
	for _, a := range drop {
		skip[a] = true
	}
	var kept []string
	for _, a := range tree.Children(stmt) {
		if !skip[a] {
			kept = append(kept, tree.Text(a))
		}
	}
	n := tree.Get(stmt)
	if n.Kind == ast.Import {
		return "import " + strings.Join(kept, ", ")
	}
	return "from " + fromModule(n) + " import " + strings.Join(kept, ", ")
}

// hasInnerComment reports comments between the first and the last token
// of a statement, its trailing comment included.
func hasInnerComment(ctx *Context, stmt ast.NodeID) bool {
	n := ctx.Tree.Get(stmt)
	term := ctx.Tree.Terminator(stmt)
	for i := n.First + 1; i <= term && i < len(ctx.Tree.Tokens); i++ {
		if ctx.Tree.Tokens[i].HasComment() {
			return true
		}
	}
	return false
}

// importGroup orders sections of the import block.
type importGroup uint8

const (
	groupFuture importGroup = iota
	groupStdlib
	groupThirdParty
	groupLocal
)

type importLine struct {
	group  importGroup
	from   bool
	module string
	text   string
}

func (importsPass) sortBlock(ctx *Context) (Change, bool) {
	tree := ctx.Tree
	body := tree.Body(tree.Root)
	i := 0
	if tree.Docstring(tree.Root).IsValid() {
		i = 1
	}
	start := i
	for i < len(body) && (tree.Kind(body[i]) == ast.Import || tree.Kind(body[i]) == ast.ImportFrom) && tree.OwnsLines(body[i]) {
		i++
	}
	block := body[start:i]
	if len(block) == 0 {
		return Change{}, false
	}
	for j, stmt := range block {
		ctx.Spend(1)
		if hasInnerComment(ctx, stmt) {
			return Change{}, false
		}
		// комментарий между операторами блока привязан к следующему
		if j > 0 && tree.Tokens[tree.Get(stmt).First].HasComment() {
			return Change{}, false
		}
	}

	var lines []importLine
	for _, stmt := range block {
		n := tree.Get(stmt)
		if n.Kind == ast.Import {
			for _, a := range tree.Children(stmt) {
				an := tree.Get(a)
				lines = append(lines, importLine{
					group:  importGroupOf(ctx, an.Name, 0),
					module: an.Name,
					text:   "import " + tree.Text(a),
				})
			}
			continue
		}
		var names []string
		for _, a := range tree.Children(stmt) {
			names = append(names, tree.Text(a))
		}
		sort.SliceStable(names, func(i, j int) bool { return lessFold(names[i], names[j]) })
		lines = append(lines, importLine{
			group:  importGroupOf(ctx, n.Name, n.Level),
			from:   true,
			module: fromModule(n),
			text:   "from " + fromModule(n) + " import " + strings.Join(names, ", "),
		})
	}
	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if a.group != b.group {
			return a.group < b.group
		}
		if a.from != b.from {
			return !a.from
		}
		if a.module != b.module {
			return lessFold(a.module, b.module)
		}
		return a.text < b.text
	})

	nl := ctx.Newline()
	var out strings.Builder
	for j, l := range lines {
		if j > 0 && l.group != lines[j-1].group {
			out.WriteString(nl)
		}
		out.WriteString(l.text)
		out.WriteString(nl)
	}
	first, last := tree.LineExtent(block[0]), tree.LineExtent(block[len(block)-1])
	span := first.Cover(last)
	old := ctx.File.Text(span)
	text := out.String()
	if tree.Tokens[tree.Terminator(block[len(block)-1])].Span.Empty() {
		// файл без завершающего перевода строки
		text = strings.TrimSuffix(text, nl)
	}
	if old == text {
		return Change{}, false
	}
	return Change{
		Action: Action{
			Kind:        SortImports,
			Pass:        "imports",
			Line:        ctx.Line(block[0]),
			Targets:     []int{ctx.Line(block[0]), tree.EndLine(block[len(block)-1])},
			Params:      map[string]string{"imports": fmt.Sprint(len(lines))},
			Description: fmt.Sprintf("sorted and grouped %d imports", len(lines)),
		},
		Edits: []TextEdit{{Span: span, NewText: text, OldText: old}},
	}, true
}

func importGroupOf(ctx *Context, module string, level int) importGroup {
	top, _, _ := strings.Cut(module, ".")
	switch {
	case level > 0 || ctx.Config.IsLocalPackage(module):
		return groupLocal
	case top == "__future__":
		return groupFuture
	case isStdlib(top):
		return groupStdlib
	default:
		return groupThirdParty
	}
}

func lessFold(a, b string) bool {
	if la, lb := strings.ToLower(a), strings.ToLower(b); la != lb {
		return la < lb
	}
	return a < b
}
