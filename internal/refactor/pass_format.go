package refactor

import (
	"fmt"
	"sort"
	"strings"

	"pytidy/internal/analysis"
	"pytidy/internal/ast"
	"pytidy/internal/source"
	"pytidy/internal/token"
)

const bom = "\xEF\xBB\xBF"

// formatPass normalizes whitespace between tokens and wraps over-long
// lines. A round either rewrites trivia or wraps lines, never both.
type formatPass struct{}

func (formatPass) Name() string { return "format" }

func (formatPass) Plan(ctx *Context) []Change {
	f := newFormatter(ctx)
	if edits := f.trivia(); len(edits) > 0 {
		lines := make([]int, 0, len(edits))
		seen := map[int]bool{}
		for _, e := range edits {
			ln := int(ctx.File.Position(e.Span.Start).Line)
			if !seen[ln] {
				seen[ln] = true
				lines = append(lines, ln)
			}
		}
		sort.Ints(lines)
		return []Change{{
			Action: Action{
				Kind:        Reformat,
				Pass:        "format",
				Line:        lines[0],
				Targets:     lines,
				Params:      map[string]string{"rule": "whitespace", "edits": fmt.Sprint(len(edits))},
				Description: fmt.Sprintf("normalized whitespace in %d places", len(edits)),
			},
			Edits: edits,
		}}
	}
	return f.wrap()
}

// frame is an open bracket of the current logical line. The root frame
// stands for the line itself.
type frame struct {
	open      token.Kind
	call      bool
	def       bool
	subscript bool
	annotated bool
	lambdas   int
}

type formatter struct {
	ctx    *Context
	tree   *ast.Tree
	toks   []token.Token
	nl     string
	unit   int
	stmtAt map[int]ast.NodeID
}

func newFormatter(ctx *Context) *formatter {
	f := &formatter{
		ctx:    ctx,
		tree:   ctx.Tree,
		toks:   ctx.Tree.Tokens,
		nl:     ctx.Newline(),
		unit:   len(ctx.indentUnit()),
		stmtAt: map[int]ast.NodeID{},
	}
	f.tree.Inspect(f.tree.Root, func(id ast.NodeID) bool {
		n := f.tree.Get(id)
		if n.Kind.IsStmt() && !(n.Kind == ast.If && n.Flags&ast.FlagElif != 0) {
			if _, dup := f.stmtAt[n.First]; !dup {
				f.stmtAt[n.First] = id
			}
		}
		return true
	})
	return f
}

// trivia returns one edit per token whose leading whitespace differs
// from its normal form.
func (f *formatter) trivia() []TextEdit {
	var (
		edits  []TextEdit
		depth  int
		first  = true
		delta  int
		frames []frame
		prev   = -1
		flags  tokFlags
	)
	for i, t := range f.toks {
		f.ctx.Spend(1)
		var want string
		switch {
		case t.Kind == token.Indent:
			depth++
			continue
		case t.Kind == token.Dedent:
			depth--
			continue
		case t.Kind == token.EOF:
			want = f.eofLeading(t)
		case first:
			var ok bool
			want, delta, ok = f.lineLeading(i, depth)
			if !ok {
				want = f.leadingText(t)
			}
			first = false
			frames = []frame{{}}
			prev = -1
			flags = tokFlags{}
		case t.Kind == token.Newline:
			want = f.newlineLeading(t)
			first = true
		case multiline(t.Leading):
			want = f.continuation(t.Leading, delta)
		default:
			want = gap(f.toks, prev, i, flags, frames[len(frames)-1])
		}
		if t.Kind != token.Newline && t.Kind != token.EOF {
			frames, flags = classify(f.toks, prev, i, frames, flags)
			prev = i
		}
		if cur := f.leadingText(t); cur != want {
			sp := source.Span{Start: t.FullStart(), End: t.Span.Start}
			edits = append(edits, TextEdit{Span: sp, NewText: want, OldText: cur})
		}
	}
	return edits
}

func (f *formatter) leadingText(t token.Token) string {
	return f.ctx.File.Text(source.Span{Start: t.FullStart(), End: t.Span.Start})
}

func multiline(tv []token.Trivia) bool {
	for _, t := range tv {
		if t.Kind != token.TriviaSpace {
			return true
		}
	}
	return false
}

// leadItem is a blank or comment line in front of a logical line.
type leadItem struct {
	comment string
	indent  string
}

// splitLeading breaks trivia in front of a logical line into blank and
// comment lines plus the final indentation. ok is false for shapes the
// formatter leaves alone.
func splitLeading(tv []token.Trivia) (prefix string, items []leadItem, indent string, ok bool) {
	pendingSpace := ""
	var comment *leadItem
	for j, t := range tv {
		switch t.Kind {
		case token.TriviaSpace:
			text := t.Text
			if j == 0 && strings.HasPrefix(text, bom) {
				prefix = bom
				text = text[len(bom):]
			}
			pendingSpace = text
		case token.TriviaComment:
			comment = &leadItem{comment: t.Text, indent: pendingSpace}
			pendingSpace = ""
		case token.TriviaNewline:
			if comment != nil {
				items = append(items, *comment)
				comment = nil
			} else {
				items = append(items, leadItem{})
			}
			pendingSpace = ""
		default:
			return "", nil, "", false
		}
	}
	if comment != nil {
		// комментарий без перевода строки бывает только в конце файла
		items = append(items, *comment)
	}
	return prefix, items, pendingSpace, true
}

// lineLeading computes the normal form of the trivia before the first
// token of a logical line. delta is the change of indentation width.
func (f *formatter) lineLeading(i, depth int) (want string, delta int, ok bool) {
	prefix, items, indent, ok := splitLeading(f.toks[i].Leading)
	if !ok {
		return "", 0, false
	}
	newIndent := spaces(f.unit * depth)
	delta = len(newIndent) - columns(indent)

	limit := 2
	if depth > 0 {
		limit = 1
	}
	before, forced := 0, true
	if stmt, isStmt := f.stmtAt[i]; isStmt {
		before, forced = f.blankRule(stmt, depth)
	} else {
		limit = 0
	}

	var b strings.Builder
	b.WriteString(prefix)
	run, seenComment := 0, false
	flush := func(upTo int) {
		b.WriteString(strings.Repeat(f.nl, min(run, upTo)))
		run = 0
	}
	for _, it := range items {
		if it.comment == "" {
			run++
			continue
		}
		if !seenComment {
			if forced {
				run = before
			}
			flush(max(limit, before))
			seenComment = true
		} else {
			flush(limit)
		}
		b.WriteString(newIndent)
		b.WriteString(strings.TrimRight(it.comment, " \t\f\r"))
		b.WriteString(f.nl)
	}
	switch {
	case seenComment:
		flush(limit)
	case forced:
		run = before
		flush(before)
	default:
		flush(limit)
	}
	b.WriteString(newIndent)
	return b.String(), delta, true
}

// blankRule returns how many blank lines go before a statement and
// whether that count is mandatory.
func (f *formatter) blankRule(stmt ast.NodeID, depth int) (int, bool) {
	tree := f.tree
	parent := tree.Parent(stmt)
	list := tree.Stmts(parent)
	idx := -1
	for k, s := range list {
		if s == stmt {
			idx = k
			break
		}
	}
	if idx <= 0 {
		return 0, true
	}
	around := 2
	if depth > 0 {
		around = 1
	}
	if isDefinition(tree.Kind(stmt)) || isDefinition(tree.Kind(list[idx-1])) {
		return around, true
	}
	return 0, false
}

func isDefinition(k ast.Kind) bool {
	return k == ast.FunctionDef || k == ast.ClassDef
}

// newlineLeading keeps a trailing comment two spaces after the code and
// drops trailing whitespace.
func (f *formatter) newlineLeading(t token.Token) string {
	var want string
	for _, tv := range t.Leading {
		switch tv.Kind {
		case token.TriviaSpace:
		case token.TriviaComment:
			want = "  " + strings.TrimRight(tv.Text, " \t\f\r")
		default:
			return f.leadingText(t)
		}
	}
	if t.Text == "" {
		want += f.nl
	}
	return want
}

// eofLeading keeps trailing comments and drops trailing blank lines.
func (f *formatter) eofLeading(t token.Token) string {
	prefix, items, _, ok := splitLeading(t.Leading)
	if !ok {
		return f.leadingText(t)
	}
	var b strings.Builder
	b.WriteString(prefix)
	run := 0
	for _, it := range items {
		if it.comment == "" {
			run++
			continue
		}
		b.WriteString(strings.Repeat(f.nl, min(run, 2)))
		run = 0
		b.WriteString(it.indent)
		b.WriteString(strings.TrimRight(it.comment, " \t\f\r"))
		b.WriteString(f.nl)
	}
	return b.String()
}

// continuation normalizes trivia that spans lines inside brackets or
// after a backslash. Continuation lines move by delta columns.
func (f *formatter) continuation(tv []token.Trivia, delta int) string {
	var b strings.Builder
	atLineStart := false
	for j, t := range tv {
		var next token.TriviaKind = 255
		if j+1 < len(tv) {
			next = tv[j+1].Kind
		}
		switch t.Kind {
		case token.TriviaSpace:
			switch {
			case next == token.TriviaNewline:
			case atLineStart:
				b.WriteString(spaces(columns(t.Text) + delta))
			case next == token.TriviaComment:
				b.WriteString("  ")
			default:
				b.WriteString(t.Text)
			}
		case token.TriviaNewline:
			b.WriteString(f.nl)
			atLineStart = true
		case token.TriviaContinuation:
			b.WriteString(t.Text)
			atLineStart = true
		case token.TriviaComment:
			if j == 0 {
				b.WriteString("  ")
			}
			b.WriteString(strings.TrimRight(t.Text, " \t\f\r"))
			atLineStart = false
		}
	}
	if atLineStart && delta > 0 {
		b.WriteString(spaces(delta))
	}
	return b.String()
}

// columns measures indentation with tabs every 8 columns.
func columns(s string) int {
	col := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\t':
			col = (col/8 + 1) * 8
		case '\f':
			col = 0
		default:
			col++
		}
	}
	return col
}

// tokFlags describes the previous token of the line.
type tokFlags struct {
	unary bool
	kwEq  bool
}

// operandEnd reports tokens after which an operator is binary and a
// bracket opens a call or subscript.
func operandEnd(k token.Kind) bool {
	switch k {
	case token.Name, token.Number, token.String, token.RParen, token.RBracket, token.RBrace,
		token.KwTrue, token.KwFalse, token.KwNone, token.Ellipsis:
		return true
	}
	return false
}

func isUnaryCandidate(k token.Kind) bool {
	switch k {
	case token.Plus, token.Minus, token.Tilde, token.Star, token.DoubleStar:
		return true
	}
	return false
}

func plainInt(s string) bool {
	for i := 0; i < len(s); i++ {
		if (s[i] < '0' || s[i] > '9') && s[i] != '_' {
			return false
		}
	}
	return s != ""
}

// gap returns the whitespace that belongs between toks[p] and toks[c]
// on one line.
func gap(toks []token.Token, p, c int, flags tokFlags, top frame) string {
	if p < 0 {
		return ""
	}
	pk, ck := toks[p].Kind, toks[c].Kind
	switch {
	case flags.unary || flags.kwEq:
		return ""
	case ck == token.Comma || ck == token.Semicolon || ck == token.Colon || ck.IsCloseBracket():
		return ""
	case pk.IsOpenBracket():
		return ""
	case ck == token.Assign && isKwEq(top):
		return ""
	case ck == token.Dot:
		if pk.IsKeyword() && !operandEnd(pk) || pk == token.Number && plainInt(toks[p].Text) {
			return " "
		}
		return ""
	case pk == token.Dot:
		if ck.IsKeyword() {
			return " "
		}
		return ""
	case ck == token.LParen || ck == token.LBracket:
		if operandEnd(pk) {
			return ""
		}
		return " "
	case pk == token.Colon && top.subscript:
		return ""
	}
	return " "
}

func isKwEq(top frame) bool {
	return top.lambdas > 0 || top.call || top.def && !top.annotated
}

// classify updates the bracket frames and the flags after toks[c].
func classify(toks []token.Token, p, c int, frames []frame, flags tokFlags) ([]frame, tokFlags) {
	t := toks[c]
	top := &frames[len(frames)-1]
	pk := token.Invalid
	if p >= 0 {
		pk = toks[p].Kind
	}
	next := tokFlags{}
	switch {
	case t.Kind.IsOpenBracket():
		fr := frame{open: t.Kind}
		if operandEnd(pk) {
			fr.call = t.Kind == token.LParen
			fr.subscript = t.Kind == token.LBracket
		}
		if t.Kind == token.LParen && pk == token.Name && p > 0 && toks[p-1].Kind == token.KwDef {
			fr.call, fr.def = false, true
		}
		frames = append(frames, fr)
	case t.Kind.IsCloseBracket():
		if len(frames) > 1 {
			frames = frames[:len(frames)-1]
		}
	case t.Kind == token.KwLambda:
		top.lambdas++
	case t.Kind == token.Colon:
		if top.lambdas > 0 {
			top.lambdas--
		} else if top.def {
			top.annotated = true
		}
	case t.Kind == token.Comma:
		top.annotated = false
	case t.Kind == token.Assign:
		next.kwEq = isKwEq(*top)
	case isUnaryCandidate(t.Kind):
		next.unary = !operandEnd(pk)
	case t.Kind == token.At:
		next.unary = p < 0
	}
	return frames, next
}

// wrap splits each over-long single-line logical line at its first
// eligible bracket, one element per line.
func (f *formatter) wrap() []Change {
	limit := f.ctx.Config.MaxLineLength
	if limit <= 0 {
		return nil
	}
	var changes []Change
	for start := 0; start < len(f.toks); {
		first := start
		for first < len(f.toks) && (f.toks[first].Kind == token.Indent || f.toks[first].Kind == token.Dedent) {
			first++
		}
		if first >= len(f.toks) || f.toks[first].Kind == token.EOF {
			break
		}
		end := first
		for end < len(f.toks) && f.toks[end].Kind != token.Newline && f.toks[end].Kind != token.EOF {
			end++
		}
		start = end + 1
		f.ctx.Spend(end - first)
		if end >= len(f.toks) || f.toks[end].Kind != token.Newline {
			continue
		}
		if ch, ok := f.wrapLine(first, end, limit); ok {
			changes = append(changes, ch)
		}
	}
	return changes
}

func (f *formatter) wrapLine(first, nl, limit int) (Change, bool) {
	toks := f.toks
	file := f.ctx.File
	for j := first + 1; j < nl; j++ {
		if multiline(toks[j].Leading) {
			return Change{}, false
		}
	}
	for j := first; j < nl; j++ {
		if toks[j].Kind == token.String && strings.ContainsAny(toks[j].Text, "\r\n") {
			return Change{}, false
		}
	}
	line := file.Position(toks[first].Span.Start).Line
	if analysis.DisplayWidth(file.GetLine(line)) <= limit {
		return Change{}, false
	}
	indent := file.Text(source.Span{Start: file.LineStart(line), End: toks[first].Span.Start})
	if strings.TrimLeft(indent, " ") != "" {
		return Change{}, false
	}
	inner := indent + f.ctx.indentUnit()
	text := func(a, b int) string {
		return file.Text(source.Span{Start: toks[a].Span.Start, End: toks[b].Span.End})
	}

	var (
		b     strings.Builder
		rule  string
		count int
	)
	if stmt, ok := f.stmtAt[first]; ok && f.tree.Kind(stmt) == ast.ImportFrom {
		imp := -1
		for j := first; j < nl; j++ {
			if toks[j].Kind == token.KwImport {
				imp = j
				break
			}
			if toks[j].Kind == token.LParen {
				break
			}
		}
		if imp < 0 || imp+1 >= nl || toks[imp+1].Kind == token.LParen || toks[imp+1].Kind == token.Star {
			return Change{}, false
		}
		elems := splitElements(toks, imp+1, nl)
		b.WriteString(text(first, imp))
		b.WriteString(" (")
		b.WriteString(f.nl)
		for _, e := range elems {
			b.WriteString(inner + text(e[0], e[1]) + "," + f.nl)
		}
		b.WriteString(indent + ")")
		rule, count = "import", len(elems)
	} else {
		open, closeIdx, elems, ok := f.wrapTarget(first, nl)
		if !ok {
			return Change{}, false
		}
		b.WriteString(text(first, open))
		b.WriteString(f.nl)
		for _, e := range elems {
			b.WriteString(inner + text(e[0], e[1]) + "," + f.nl)
		}
		b.WriteString(indent)
		b.WriteString(text(closeIdx, nl-1))
		rule, count = "bracket", len(elems)
	}

	sp := source.Span{Start: toks[first].Span.Start, End: toks[nl-1].Span.End}
	return Change{
		Action: Action{
			Kind:        Reformat,
			Pass:        "format",
			Line:        int(line),
			Targets:     []int{int(line)},
			Params:      map[string]string{"rule": "wrap", "at": rule, "elements": fmt.Sprint(count)},
			Description: fmt.Sprintf("wrapped line %d longer than %d columns", line, limit),
		},
		Edits: []TextEdit{{Span: sp, NewText: b.String(), OldText: file.Text(sp)}},
	}, true
}

// wrapTarget finds the first bracket on the line that can hold one
// element per line with a trailing comma.
func (f *formatter) wrapTarget(first, nl int) (open, closeIdx int, elems [][2]int, ok bool) {
	toks := f.toks
	for j := first; j < nl; j++ {
		k := toks[j].Kind
		if !k.IsOpenBracket() {
			continue
		}
		match := matchBracket(toks, j, nl)
		if match < 0 || match == j+1 {
			continue
		}
		afterOperand := j > first && operandEnd(toks[j-1].Kind)
		if k == token.LBracket && afterOperand {
			continue
		}
		elems := splitElements(toks, j+1, match)
		if elems == nil {
			continue
		}
		if k == token.LParen && !afterOperand && len(elems) < 2 && toks[match-1].Kind != token.Comma {
			continue
		}
		return j, match, elems, true
	}
	return 0, 0, nil, false
}

func matchBracket(toks []token.Token, open, limit int) int {
	depth := 0
	for j := open; j < limit; j++ {
		switch {
		case toks[j].Kind.IsOpenBracket():
			depth++
		case toks[j].Kind.IsCloseBracket():
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

// splitElements splits toks[from:to] at top-level commas. It returns nil
// for comprehensions and lambdas, which cannot be split this way.
func splitElements(toks []token.Token, from, to int) [][2]int {
	var (
		out   [][2]int
		depth int
		start = from
	)
	for j := from; j < to; j++ {
		k := toks[j].Kind
		switch {
		case k.IsOpenBracket():
			depth++
		case k.IsCloseBracket():
			depth--
		case depth > 0:
		case k == token.KwFor || k == token.KwLambda || k == token.KwAsync:
			return nil
		case k == token.Comma:
			if j > start {
				out = append(out, [2]int{start, j - 1})
			}
			start = j + 1
		}
	}
	if start < to {
		out = append(out, [2]int{start, to - 1})
	}
	return out
}
