package analysis

import (
	"sort"
	"strconv"
	"strings"

	"pytidy/internal/ast"
)

// Block is one occurrence of a duplicated run of statements.
type Block struct {
	List  ast.NodeID // Module или Suite, которому принадлежат операторы
	Start int        // индекс первого оператора в списке
	Stmts []ast.NodeID
}

// FirstLine and LastLine span the whole block.
func (b Block) FirstLine(tree *ast.Tree) int { return tree.Line(b.Stmts[0]) }
func (b Block) LastLine(tree *ast.Tree) int  { return tree.EndLine(b.Stmts[len(b.Stmts)-1]) }

// Group is a set of non-overlapping blocks with the same normalized shape,
// in source order.
type Group struct {
	Key    string
	Blocks []Block
}

// Duplicates finds runs of at least min consecutive statements that are
// structurally equal once local identifiers are renamed by order of first
// appearance. Each run is extended as far as every occurrence allows, and a
// statement belongs to at most one group. spend, if not nil, is charged
// with the number of nodes hashed.
func Duplicates(tree *ast.Tree, min int, spend func(int)) []Group {
	if min < 1 {
		min = 1
	}
	if spend == nil {
		spend = func(int) {}
	}
	d := &dupFinder{tree: tree, min: min, spend: spend, covered: map[ast.NodeID]bool{}}
	d.collect()
	return d.group()
}

type occurrence struct {
	list  int
	start int
}

type dupFinder struct {
	tree    *ast.Tree
	min     int
	spend   func(int)
	lists   []ast.NodeID
	stmts   [][]ast.NodeID
	keys    []string
	occ     map[string][]occurrence
	covered map[ast.NodeID]bool
}

func (d *dupFinder) collect() {
	d.occ = map[string][]occurrence{}
	d.tree.Inspect(d.tree.Root, func(id ast.NodeID) bool {
		if k := d.tree.Kind(id); k == ast.Module || k == ast.Suite {
			d.lists = append(d.lists, id)
			d.stmts = append(d.stmts, d.tree.Stmts(id))
		}
		return true
	})
	for li, stmts := range d.stmts {
		for start := 0; start+d.min <= len(stmts); start++ {
			if !d.eligible(stmts[start : start+d.min]) {
				continue
			}
			key := d.key(stmts[start : start+d.min])
			if _, seen := d.occ[key]; !seen {
				d.keys = append(d.keys, key)
			}
			d.occ[key] = append(d.occ[key], occurrence{list: li, start: start})
		}
	}
}

func (d *dupFinder) group() []Group {
	var out []Group
	for _, key := range d.keys {
		occs := d.free(d.occ[key], d.min)
		if len(occs) < 2 {
			continue
		}
		n := d.min
		for d.extendable(occs, n+1) {
			n++
		}
		g := Group{Key: d.key(d.window(occs[0], n))}
		for _, o := range occs {
			b := Block{List: d.lists[o.list], Start: o.start, Stmts: d.window(o, n)}
			for _, s := range b.Stmts {
				d.covered[s] = true
			}
			g.Blocks = append(g.Blocks, b)
		}
		out = append(out, g)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return d.tree.Get(out[i].Blocks[0].Stmts[0]).Span.Start < d.tree.Get(out[j].Blocks[0].Stmts[0]).Span.Start
	})
	return out
}

// free drops occurrences touching covered statements or overlapping an
// earlier occurrence.
func (d *dupFinder) free(occs []occurrence, n int) []occurrence {
	var out []occurrence
	for _, o := range occs {
		ok := true
		for _, s := range d.window(o, n) {
			if d.covered[s] {
				ok = false
				break
			}
		}
		if len(out) > 0 {
			last := out[len(out)-1]
			if last.list == o.list && o.start < last.start+n {
				ok = false
			}
		}
		if ok {
			out = append(out, o)
		}
	}
	return out
}

func (d *dupFinder) extendable(occs []occurrence, n int) bool {
	var want string
	for i, o := range occs {
		stmts := d.stmts[o.list]
		if o.start+n > len(stmts) {
			return false
		}
		if i+1 < len(occs) && occs[i+1].list == o.list && occs[i+1].start < o.start+n {
			return false
		}
		w := d.window(o, n)
		last := w[len(w)-1]
		if d.covered[last] || !d.eligible(w[len(w)-1:]) {
			return false
		}
		key := d.key(w)
		if i == 0 {
			want = key
		} else if key != want {
			return false
		}
	}
	return true
}

func (d *dupFinder) window(o occurrence, n int) []ast.NodeID {
	return d.stmts[o.list][o.start : o.start+n]
}

// eligible: импорты, pass, docstring и вложенные определения не участвуют
func (d *dupFinder) eligible(stmts []ast.NodeID) bool {
	for _, s := range stmts {
		switch d.tree.Kind(s) {
		case ast.Import, ast.ImportFrom, ast.Pass, ast.Global, ast.Nonlocal, ast.FunctionDef, ast.ClassDef:
			return false
		}
		if p := d.tree.Parent(s); d.tree.Kind(p) == ast.Module || d.tree.Kind(p) == ast.Suite {
			if owner := d.docOwner(p); owner.IsValid() && d.tree.Docstring(owner) == s {
				return false
			}
		}
	}
	return true
}

func (d *dupFinder) docOwner(list ast.NodeID) ast.NodeID {
	if d.tree.Kind(list) == ast.Module {
		return list
	}
	owner := d.tree.Parent(list)
	if k := d.tree.Kind(owner); k == ast.FunctionDef || k == ast.ClassDef {
		return owner
	}
	return ast.NoNodeID
}

// key serializes the shape of stmts with bound identifiers renamed to
// their order of first appearance.
func (d *dupFinder) key(stmts []ast.NodeID) string {
	return ShapeKey(d.tree, stmts, d.spend)
}

// ShapeKey is the normalized shape used for duplicate detection.
func ShapeKey(tree *ast.Tree, stmts []ast.NodeID, spend func(int)) string {
	var b strings.Builder
	alpha := map[string]int{}
	ident := func(name string) {
		idx, ok := alpha[name]
		if !ok {
			idx = len(alpha)
			alpha[name] = idx
		}
		b.WriteString("$")
		b.WriteString(strconv.Itoa(idx))
	}
	for _, s := range stmts {
		tree.Walk(s, func(id ast.NodeID) bool {
			if spend != nil {
				spend(1)
			}
			n := tree.Get(id)
			b.WriteByte('(')
			b.WriteString(strconv.Itoa(int(n.Kind)))
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(int(n.Role)))
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(int(n.Op)))
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(int(n.Ctx)))
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(int(n.Flags &^ (ast.FlagParenthesized | ast.FlagTrailingComma))))
			for _, op := range n.Ops {
				b.WriteString(op.String())
			}
			b.WriteByte(' ')
			switch n.Kind {
			case ast.Name, ast.ExceptHandler, ast.Param:
				if n.Name != "" {
					ident(n.Name)
				}
			case ast.Constant:
				b.WriteString(strconv.Quote(n.Value))
			default:
				b.WriteString(n.Name)
				if n.AsName != "" {
					b.WriteString(" as ")
					b.WriteString(n.AsName)
				}
			}
			return true
		}, func(ast.NodeID) {
			b.WriteByte(')')
		})
	}
	return b.String()
}
