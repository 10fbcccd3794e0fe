package refactor

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"pytidy/internal/analysis"
	"pytidy/internal/ast"
	"pytidy/internal/scope"
	"pytidy/internal/source"
	"pytidy/internal/token"
)

// extractPass replaces duplicated statement blocks with calls to a new
// module-level function. One group is extracted per round.
type extractPass struct{}

func (extractPass) Name() string { return "extract" }

func (extractPass) Plan(ctx *Context) []Change {
	groups := analysis.Duplicates(ctx.Tree, ctx.Config.DuplicationMinStatements, ctx.Spend)
	for _, g := range groups {
		ch, why := planExtraction(ctx, g)
		if why != "" {
			ctx.Miss(g.Blocks[0].FirstLine(ctx.Tree), "duplicated block not extracted: %s", why)
			continue
		}
		return []Change{ch}
	}
	return nil
}

// slotClass tells where the name behind a slot is bound.
type slotClass uint8

const (
	slotInternal slotClass = iota // только во вложенных областях блока
	slotLocal
	slotGlobal
	slotClosure
	slotMixed
)

// slot is one identifier of the block shape. Alpha slots are keyed by the
// order of first appearance; names mentioned only in f-strings by name.
type slot struct {
	class  slotClass
	name   string
	sym    scope.SymbolID
	input  bool
	output bool
}

type blockShape struct {
	blk     analysis.Block
	fn      ast.NodeID
	span    source.Span
	keys    []string
	slots   map[string]*slot
	hasRet  bool
	tail    bool
	fnScope scope.ScopeID
	occs    []blockOcc
}

type blockOcc struct {
	key   string
	stmt  int
	load  bool
	store bool
	// definite: запись безусловна, если оператор верхнего уровня простой
	definite bool
	class    slotClass
}

func planExtraction(ctx *Context, g analysis.Group) (Change, string) {
	shapes := make([]*blockShape, 0, len(g.Blocks))
	for _, b := range g.Blocks {
		sh, why := inspectBlock(ctx, b)
		if why != "" {
			return Change{}, why
		}
		shapes = append(shapes, sh)
	}

	first := shapes[0]
	if first.hasRet {
		for _, sh := range shapes {
			if !sh.tail {
				return Change{}, "return outside the tail of a function"
			}
		}
	}
	for _, sh := range shapes[1:] {
		if len(sh.keys) != len(first.keys) {
			return Change{}, "blocks mention different names in f-strings"
		}
		for _, k := range first.keys {
			a, b := first.slots[k], sh.slots[k]
			if b == nil {
				return Change{}, "blocks mention different names in f-strings"
			}
			if a.class != b.class {
				return Change{}, fmt.Sprintf("'%s' and '%s' are bound differently", a.name, b.name)
			}
			if a.input != b.input || a.output != b.output {
				return Change{}, fmt.Sprintf("'%s' and '%s' flow differently", a.name, b.name)
			}
		}
	}

	var params, outs []string
	var paramKeys, outKeys []string
	for _, k := range first.keys {
		s := first.slots[k]
		isParam := s.input || s.class == slotClosure
		if s.class == slotGlobal {
			for _, sh := range shapes[1:] {
				if sh.slots[k].name != s.name {
					isParam = true
				}
			}
		}
		if isParam {
			params = append(params, s.name)
			paramKeys = append(paramKeys, k)
		}
		if s.output {
			outs = append(outs, s.name)
			outKeys = append(outKeys, k)
		}
	}
	if first.hasRet && len(outs) > 0 {
		return Change{}, "block both returns and produces values"
	}
	if why := multilineString(ctx, first.blk); why != "" {
		return Change{}, why
	}

	name := helperName(ctx)
	nl := ctx.Newline()
	unit := ctx.indentUnit()
	var def strings.Builder
	fmt.Fprintf(&def, "def %s(%s):%s", name, strings.Join(params, ", "), nl)
	def.WriteString(reindent(blockText(ctx, first.blk), ctx.Tree.Indent(first.blk.Stmts[0]), unit, nl))
	if len(outs) > 0 {
		fmt.Fprintf(&def, "%sreturn %s%s", unit, strings.Join(outs, ", "), nl)
	}

	var edits []TextEdit
	top := topLevel(ctx.Tree, first.fn)
	edits = append(edits, helperInsertion(ctx, top, def.String()))

	targets := make([]int, 0, len(shapes))
	for _, sh := range shapes {
		args := make([]string, len(paramKeys))
		for i, k := range paramKeys {
			args[i] = sh.slots[k].name
		}
		results := make([]string, len(outKeys))
		for i, k := range outKeys {
			results[i] = sh.slots[k].name
		}
		call := name + "(" + strings.Join(args, ", ") + ")"
		switch {
		case sh.hasRet:
			call = "return " + call
		case len(results) > 0:
			call = strings.Join(results, ", ") + " = " + call
		}
		edits = append(edits, callSite(ctx, sh.blk, call))
		targets = append(targets, sh.blk.FirstLine(ctx.Tree))
	}

	return Change{
		Action: Action{
			Kind:    ExtractFunction,
			Pass:    "extract",
			Line:    targets[0],
			Targets: targets,
			Params: map[string]string{
				"name":    name,
				"params":  strings.Join(params, ", "),
				"returns": strings.Join(outs, ", "),
				"sites":   strconv.Itoa(len(shapes)),
			},
			Description: fmt.Sprintf("extracted %d duplicated blocks of %d statements into '%s'", len(shapes), len(first.blk.Stmts), name),
		},
		Edits: edits,
	}, ""
}

// inspectBlock classifies every identifier of one block and rejects
// blocks whose control flow cannot move into a function.
func inspectBlock(ctx *Context, b analysis.Block) (*blockShape, string) {
	tree := ctx.Tree
	tab := ctx.Scopes
	fn := tree.EnclosingScope(b.Stmts[0])
	if tree.Kind(fn) != ast.FunctionDef {
		return nil, "block is not inside a function"
	}
	sh := &blockShape{
		blk:     b,
		fn:      fn,
		fnScope: tab.ScopeOf(fn),
		slots:   map[string]*slot{},
	}
	if dynamicSubtree(tab, sh.fnScope) {
		return nil, "the function inspects its locals"
	}
	last := b.Stmts[len(b.Stmts)-1]
	sh.span = tree.Get(b.Stmts[0]).Span.Cover(tree.Get(last).Span)
	for _, s := range b.Stmts {
		if !tree.OwnsLines(s) {
			return nil, "statements share lines with code outside the block"
		}
	}
	body := tree.Child(fn, ast.RoleBody)
	stmts := tree.Stmts(body)
	sh.tail = b.List == body && stmts[len(stmts)-1] == last

	if why := controlFlow(tree, b.Stmts, &sh.hasRet); why != "" {
		return nil, why
	}

	// алфавитный порядок повторяет порядок ключа формы
	alpha := map[string]string{}
	for _, s := range b.Stmts {
		tree.Inspect(s, func(id ast.NodeID) bool {
			n := tree.Get(id)
			switch n.Kind {
			case ast.Name, ast.ExceptHandler, ast.Param:
				if _, ok := alpha[n.Name]; n.Name != "" && !ok {
					alpha[n.Name] = "$" + strconv.Itoa(len(alpha))
					sh.keys = append(sh.keys, alpha[n.Name])
				}
			}
			return true
		})
	}
	var fkeys []string

	for i, s := range b.Stmts {
		definite := definiteBinder(tree, s)
		mark := len(sh.occs)
		tree.Inspect(s, func(id ast.NodeID) bool {
			ctx.Spend(1)
			n := tree.Get(id)
			switch n.Kind {
			case ast.Name:
				o := blockOcc{key: alpha[n.Name], stmt: i}
				switch n.Ctx {
				case ast.CtxLoad, ast.CtxDel:
					o.load = true
				case ast.CtxStore:
					o.store = true
					p := tree.Parent(id)
					if tree.Kind(p) == ast.AugAssign {
						o.load = true
					}
					o.definite = definite && tree.Kind(p) != ast.NamedExpr && tab.ScopeAt(id) == sh.fnScope
				}
				sh.record(ctx, o, n.Name, tab.SymbolAt(id))
			case ast.ExceptHandler, ast.Param:
				if n.Name != "" {
					sh.record(ctx, blockOcc{key: alpha[n.Name], stmt: i, store: true}, n.Name, tab.SymbolAt(id))
				}
			case ast.Constant:
				if !n.Has(ast.FlagFString) {
					return true
				}
				for _, name := range scope.FStringNames(n.Value) {
					key, ok := alpha[name]
					if !ok {
						key = "f:" + name
						if _, seen := sh.slots[key]; !seen {
							fkeys = append(fkeys, key)
						}
					}
					sh.record(ctx, blockOcc{key: key, stmt: i, load: true}, name, tab.Resolve(tab.ScopeAt(id), name))
				}
			}
			return true
		})
		if definite {
			// значение вычисляется раньше, чем связываются цели
			stmtOccs := sh.occs[mark:]
			sort.SliceStable(stmtOccs, func(a, b int) bool { return stmtOccs[a].load && !stmtOccs[b].load })
		}
	}
	for _, k := range sh.keys {
		if sh.slots[k] == nil {
			return nil, "inconsistent names"
		}
	}
	sort.Strings(fkeys)
	sh.keys = append(sh.keys, fkeys...)
	if why := sh.flow(ctx); why != "" {
		return nil, why
	}
	return sh, ""
}

// record classifies one occurrence and merges it into its slot.
func (sh *blockShape) record(ctx *Context, o blockOcc, name string, symID scope.SymbolID) {
	tab := ctx.Scopes
	class := slotGlobal
	if sym := tab.Symbol(symID); sym != nil {
		switch {
		case sym.Scope == tab.Root:
		case sym.Scope == sh.fnScope:
			class = slotLocal
		case sh.span.ContainsOffset(ctx.Tree.Get(tab.Scope(sym.Scope).Node).Span.Start):
			class = slotInternal
		default:
			class = slotClosure
		}
	}
	o.class = class
	sh.occs = append(sh.occs, o)
	s := sh.slots[o.key]
	if s == nil {
		s = &slot{class: class, name: name, sym: symID}
		sh.slots[o.key] = s
		return
	}
	switch {
	case s.class == class:
	case s.class == slotInternal && class == slotLocal:
		s.class, s.sym = slotLocal, symID
	case s.class == slotLocal && class == slotInternal:
	default:
		s.class = slotMixed
	}
}

// flow decides which locals enter and leave the block. Occurrences are
// visited in evaluation order.
func (sh *blockShape) flow(ctx *Context) string {
	tree := ctx.Tree
	tab := ctx.Scopes
	written := map[string]bool{}
	stored := map[string]bool{}
	storedAt := map[string]int{}
	later := map[string]bool{}
	for _, o := range sh.occs {
		if o.class != slotLocal {
			continue
		}
		k := o.key
		if o.load {
			switch {
			case !stored[k]:
				sh.slots[k].input = true
			case !written[k] && storedAt[k] < o.stmt:
				// запись могла не выполниться
				later[k] = true
			}
		}
		if o.store {
			if !stored[k] {
				stored[k] = true
				storedAt[k] = o.stmt
			}
			if o.definite {
				written[k] = true
			}
		}
	}
	for _, k := range sh.keys {
		s := sh.slots[k]
		switch s.class {
		case slotInternal, slotGlobal:
			continue
		case slotClosure:
			if stored[k] {
				return fmt.Sprintf("'%s' is rebound in an enclosing function", s.name)
			}
			continue
		case slotMixed:
			return fmt.Sprintf("'%s' is bound in more than one scope", s.name)
		}
		sym := tab.Symbol(s.sym)
		if stored[k] && usedOutside(tree, sym, sh.span) {
			s.output = true
			if !written[k] {
				s.input = true
			}
		}
		if later[k] && !s.input && boundBefore(tree, sym, sh) {
			s.input = true
		}
		if s.input && !boundBefore(tree, sym, sh) {
			return fmt.Sprintf("'%s' may be unbound before the block", s.name)
		}
	}
	return ""
}

func usedOutside(tree *ast.Tree, sym *scope.Symbol, span source.Span) bool {
	if sym.FStringRefs > 0 {
		return true
	}
	for _, tok := range sym.Occurrences() {
		if !span.ContainsOffset(tree.Tokens[tok].Span.Start) {
			return true
		}
	}
	return false
}

// boundBefore reports whether sym certainly has a value when the block
// starts: a parameter, or a name bound by a top-level statement of the
// function body that precedes the block.
func boundBefore(tree *ast.Tree, sym *scope.Symbol, sh *blockShape) bool {
	for _, u := range sym.Uses {
		if u.Kind == scope.RefDel {
			return false
		}
	}
	if sym.Kind == scope.SymbolParam {
		return true
	}
	body := tree.Child(sh.fn, ast.RoleBody)
	for _, d := range sym.Defs {
		switch d.Kind {
		case scope.RefAssign, scope.RefAugAssign, scope.RefImport, scope.RefFunction, scope.RefClass, scope.RefWith:
		default:
			continue
		}
		stmt := tree.EnclosingStmt(d.Node)
		if d.Kind == scope.RefFunction || d.Kind == scope.RefClass {
			stmt = d.Node
		}
		if tree.Parent(stmt) == body && tree.Get(stmt).Span.End <= sh.span.Start {
			return true
		}
	}
	return false
}

// definiteBinder reports statements whose targets are always bound once
// the statement completes.
func definiteBinder(tree *ast.Tree, stmt ast.NodeID) bool {
	switch tree.Kind(stmt) {
	case ast.Assign, ast.AugAssign:
		return true
	case ast.AnnAssign:
		return tree.Child(stmt, ast.RoleValue).IsValid()
	default:
		return false
	}
}

// controlFlow rejects constructs that behave differently inside a new
// function and notes whether the block returns.
func controlFlow(tree *ast.Tree, stmts []ast.NodeID, hasRet *bool) string {
	why := ""
	var walk func(id ast.NodeID, inLoop bool)
	walk = func(id ast.NodeID, inLoop bool) {
		if why != "" {
			return
		}
		switch tree.Kind(id) {
		case ast.Yield, ast.YieldFrom:
			why = "block contains yield"
		case ast.Await:
			why = "block contains await"
		case ast.Global, ast.Nonlocal:
			why = "block declares names global or nonlocal"
		case ast.FunctionDef, ast.ClassDef:
			why = "block defines a nested function or class"
		case ast.Return:
			*hasRet = true
		case ast.Break, ast.Continue:
			if !inLoop {
				why = "break or continue leaves the block"
			}
		case ast.For, ast.While:
			inLoop = true
		case ast.Lambda, ast.ListComp, ast.SetComp, ast.DictComp, ast.GeneratorExp:
			return
		}
		for _, c := range tree.Children(id) {
			walk(c, inLoop)
		}
	}
	for _, s := range stmts {
		walk(s, false)
	}
	return why
}

func multilineString(ctx *Context, b analysis.Block) string {
	tree := ctx.Tree
	firstTok := tree.Get(b.Stmts[0]).First
	lastTok := tree.Get(b.Stmts[len(b.Stmts)-1]).Last
	for i := firstTok; i <= lastTok; i++ {
		if t := tree.Tokens[i]; t.Kind == token.String && strings.ContainsAny(t.Text, "\r\n") {
			return "block contains a multi-line string"
		}
	}
	return ""
}

// blockText returns the full lines of the block, ending with a newline.
func blockText(ctx *Context, b analysis.Block) string {
	tree := ctx.Tree
	span := tree.LineExtent(b.Stmts[0]).Cover(tree.LineExtent(b.Stmts[len(b.Stmts)-1]))
	text := ctx.File.Text(span)
	if !strings.HasSuffix(text, "\n") {
		text += ctx.Newline()
	}
	return text
}

// reindent strips the block indentation from every line and indents it
// one level.
func reindent(text, indent, unit, nl string) string {
	lines := strings.SplitAfter(text, "\n")
	var b strings.Builder
	for _, line := range lines {
		if line == "" {
			continue
		}
		body := strings.TrimRight(line, "\r\n")
		switch {
		case strings.HasPrefix(body, indent):
			body = body[len(indent):]
		default:
			body = strings.TrimLeft(body, " \t")
		}
		if strings.TrimSpace(body) != "" {
			b.WriteString(unit)
			b.WriteString(body)
		}
		b.WriteString(nl)
	}
	return b.String()
}

// helperName picks the first extracted_block_N that no scope knows.
func helperName(ctx *Context) string {
	for i := 1; ; i++ {
		name := "extracted_block_" + strconv.Itoa(i)
		if !nameTaken(ctx.Scopes, ctx.Scopes.Root, name) {
			return name
		}
	}
}

func topLevel(tree *ast.Tree, id ast.NodeID) ast.NodeID {
	for cur := id; cur.IsValid(); cur = tree.Parent(cur) {
		if tree.Parent(cur) == tree.Root {
			return cur
		}
	}
	return id
}

// helperInsertion places the new function before top, ahead of the
// comments and blank lines that lead into it.
func helperInsertion(ctx *Context, top ast.NodeID, def string) TextEdit {
	tree := ctx.Tree
	nl := ctx.Newline()
	tok := tree.Tokens[tree.Get(top).First]
	off := tok.FullStart()
	lead := tok.Leading
	if len(lead) > 0 && lead[0].Kind == token.TriviaSpace && lead[0].Text == "\xEF\xBB\xBF" {
		off = lead[0].Span.End
		lead = lead[1:]
	}
	blank := 0
	for _, tv := range lead {
		if tv.Kind == token.TriviaComment {
			break
		}
		if tv.Kind == token.TriviaNewline {
			blank++
		}
	}
	var b strings.Builder
	if tree.Stmts(tree.Root)[0] != top {
		b.WriteString(nl + nl)
	}
	b.WriteString(def)
	for i := blank; i < 2; i++ {
		b.WriteString(nl)
	}
	return ctx.insertAt(off, b.String())
}

// callSite replaces the lines of one block with a single statement.
func callSite(ctx *Context, b analysis.Block, call string) TextEdit {
	tree := ctx.Tree
	last := b.Stmts[len(b.Stmts)-1]
	span := tree.LineExtent(b.Stmts[0]).Cover(tree.LineExtent(last))
	text := tree.Indent(b.Stmts[0]) + call
	if !tree.Tokens[tree.Terminator(last)].Span.Empty() {
		text += ctx.Newline()
	}
	return TextEdit{Span: span, NewText: text, OldText: ctx.File.Text(span)}
}
