// Package minipy evaluates a small subset of Python over a parsed tree.
// Tests use it to compare what a program prints before and after a rewrite.
//
// Supported: int, str, bool, None, list, tuple, dict; assignment with
// unpacking; arithmetic and comparisons; if/while/for with break and
// continue; def and lambda with defaults, keyword arguments, return and
// closures over enclosing functions; print, len, range, str, abs and
// list.append. Anything else is ErrUnsupported.
package minipy

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"pytidy/internal/ast"
	"pytidy/internal/token"
)

var (
	// ErrUnsupported is returned for constructs outside the subset.
	ErrUnsupported = errors.New("minipy: unsupported construct")
	// ErrSteps is returned when the step budget runs out.
	ErrSteps = errors.New("minipy: step budget exhausted")
)

// Error is a runtime error of the evaluated program.
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("line %d: %s", e.Line, e.Msg) }

// List backs both list and tuple values.
type List struct {
	Items []any
	Tuple bool
}

// Dict keeps insertion order like Python does.
type Dict struct {
	keys []any
	m    map[any]any
}

// function closes over the environment it was defined in.
type function struct {
	def     ast.NodeID
	name    string
	params  []param
	closure *env
	lambda  bool
}

type param struct {
	name string
	def  any
	has  bool
}

type builtin func(in *interp, args []any) (any, error)

type env struct {
	vars   map[string]any
	parent *env
}

func (e *env) lookup(name string) (any, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

type interp struct {
	tree  *ast.Tree
	out   strings.Builder
	steps int
}

type (
	breakSignal    struct{}
	continueSignal struct{}
	returnSignal   struct{ value any }
)

func (breakSignal) Error() string    { return "break outside loop" }
func (continueSignal) Error() string { return "continue outside loop" }
func (returnSignal) Error() string   { return "return outside function" }

// Run executes the module and returns everything it printed. maxSteps
// bounds the number of executed statements and calls.
func Run(tree *ast.Tree, maxSteps int) (string, error) {
	in := &interp{tree: tree, steps: maxSteps}
	globals := &env{vars: map[string]any{}}
	err := in.block(tree.Body(tree.Root), globals)
	return in.out.String(), err
}

func (in *interp) step() error {
	in.steps--
	if in.steps < 0 {
		return ErrSteps
	}
	return nil
}

func (in *interp) fail(id ast.NodeID, format string, args ...any) error {
	return &Error{Line: in.tree.Line(id), Msg: fmt.Sprintf(format, args...)}
}

func (in *interp) unsupported(id ast.NodeID) error {
	return fmt.Errorf("%w: %s at line %d", ErrUnsupported, in.tree.Kind(id), in.tree.Line(id))
}

func (in *interp) block(stmts []ast.NodeID, e *env) error {
	for _, s := range stmts {
		if err := in.stmt(s, e); err != nil {
			return err
		}
	}
	return nil
}

func (in *interp) stmt(id ast.NodeID, e *env) error {
	if err := in.step(); err != nil {
		return err
	}
	t := in.tree
	n := t.Get(id)
	switch n.Kind {
	case ast.Pass, ast.Import, ast.ImportFrom:
		return nil
	case ast.ExprStmt:
		_, err := in.expr(n.Children[0], e)
		return err
	case ast.Assign:
		v, err := in.expr(t.Child(id, ast.RoleValue), e)
		if err != nil {
			return err
		}
		for _, target := range t.ChildrenWith(id, ast.RoleTarget) {
			if err := in.store(target, v, e); err != nil {
				return err
			}
		}
		return nil
	case ast.AnnAssign:
		value := t.Child(id, ast.RoleValue)
		if !value.IsValid() {
			return nil
		}
		v, err := in.expr(value, e)
		if err != nil {
			return err
		}
		return in.store(t.Child(id, ast.RoleTarget), v, e)
	case ast.AugAssign:
		target := t.Child(id, ast.RoleTarget)
		cur, err := in.expr(target, e)
		if err != nil {
			return err
		}
		rhs, err := in.expr(t.Child(id, ast.RoleValue), e)
		if err != nil {
			return err
		}
		v, err := in.binary(id, augOp(n.Op), cur, rhs)
		if err != nil {
			return err
		}
		return in.store(target, v, e)
	case ast.If:
		ok, err := in.truth(t.Child(id, ast.RoleTest), e)
		if err != nil {
			return err
		}
		if ok {
			return in.block(t.Body(id), e)
		}
		orelse := t.Child(id, ast.RoleOrElse)
		switch t.Kind(orelse) {
		case ast.If:
			return in.stmt(orelse, e)
		case ast.Suite:
			return in.block(t.Stmts(orelse), e)
		}
		return nil
	case ast.While:
		for {
			ok, err := in.truth(t.Child(id, ast.RoleTest), e)
			if err != nil {
				return err
			}
			if !ok {
				return in.block(t.Stmts(t.Child(id, ast.RoleOrElse)), e)
			}
			if stop, err := in.loopBody(t.Body(id), e); stop || err != nil {
				return err
			}
		}
	case ast.For:
		seq, err := in.expr(t.Child(id, ast.RoleIter), e)
		if err != nil {
			return err
		}
		items, err := in.iterate(id, seq)
		if err != nil {
			return err
		}
		for _, it := range items {
			if err := in.store(t.Child(id, ast.RoleTarget), it, e); err != nil {
				return err
			}
			if stop, err := in.loopBody(t.Body(id), e); stop || err != nil {
				return err
			}
		}
		return in.block(t.Stmts(t.Child(id, ast.RoleOrElse)), e)
	case ast.Break:
		return breakSignal{}
	case ast.Continue:
		return continueSignal{}
	case ast.Return:
		var v any
		if value := t.Child(id, ast.RoleValue); value.IsValid() {
			r, err := in.expr(value, e)
			if err != nil {
				return err
			}
			v = r
		}
		return returnSignal{value: v}
	case ast.FunctionDef:
		if len(t.ChildrenWith(id, ast.RoleDecorator)) > 0 || n.Flags&ast.FlagAsync != 0 {
			return in.unsupported(id)
		}
		params, err := in.params(t.Child(id, ast.RoleParams), e)
		if err != nil {
			return err
		}
		fn := &function{def: id, name: n.Name, params: params, closure: e}
		e.vars[n.Name] = fn
		return nil
	}
	return in.unsupported(id)
}

// params evaluates defaults in the defining environment.
func (in *interp) params(list ast.NodeID, e *env) ([]param, error) {
	t := in.tree
	var out []param
	for _, p := range t.Children(list) {
		pn := t.Get(p)
		if pn.Flags&(ast.FlagStar|ast.FlagDoubleStar|ast.FlagKwOnlyMarker|ast.FlagPosOnlyMarker) != 0 {
			return nil, in.unsupported(p)
		}
		prm := param{name: pn.Name}
		if d := t.Child(p, ast.RoleDefault); d.IsValid() {
			v, err := in.expr(d, e)
			if err != nil {
				return nil, err
			}
			prm.def, prm.has = v, true
		}
		out = append(out, prm)
	}
	return out, nil
}

// loopBody runs one iteration; stop reports a break.
func (in *interp) loopBody(body []ast.NodeID, e *env) (stop bool, err error) {
	err = in.block(body, e)
	switch err.(type) {
	case breakSignal:
		return true, nil
	case continueSignal:
		return false, nil
	}
	return err != nil, err
}

func augOp(k token.Kind) token.Kind {
	switch k {
	case token.PlusEq:
		return token.Plus
	case token.MinusEq:
		return token.Minus
	case token.StarEq:
		return token.Star
	case token.DoubleSlashEq:
		return token.DoubleSlash
	case token.PercentEq:
		return token.Percent
	}
	return token.Invalid
}

func (in *interp) store(target ast.NodeID, v any, e *env) error {
	t := in.tree
	n := t.Get(target)
	switch n.Kind {
	case ast.Name:
		e.vars[n.Name] = v
		return nil
	case ast.Paren:
		return in.store(n.Children[0], v, e)
	case ast.Tuple, ast.List:
		items, err := in.iterate(target, v)
		if err != nil {
			return err
		}
		if len(items) != len(n.Children) {
			return in.fail(target, "cannot unpack %d values into %d targets", len(items), len(n.Children))
		}
		for i, c := range n.Children {
			if err := in.store(c, items[i], e); err != nil {
				return err
			}
		}
		return nil
	case ast.Subscript:
		obj, err := in.expr(t.Child(target, ast.RoleValue), e)
		if err != nil {
			return err
		}
		key, err := in.expr(t.Child(target, ast.RoleSlice), e)
		if err != nil {
			return err
		}
		switch c := obj.(type) {
		case *List:
			if c.Tuple {
				return in.fail(target, "tuple does not support item assignment")
			}
			i, err := in.index(target, c, key)
			if err != nil {
				return err
			}
			c.Items[i] = v
			return nil
		case *Dict:
			return c.set(in, target, key, v)
		}
		return in.fail(target, "%s does not support item assignment", typeName(obj))
	}
	return in.unsupported(target)
}

func (in *interp) truth(id ast.NodeID, e *env) (bool, error) {
	v, err := in.expr(id, e)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int64:
		return x != 0
	case string:
		return x != ""
	case *List:
		return len(x.Items) > 0
	case *Dict:
		return len(x.keys) > 0
	}
	return true
}

func (in *interp) expr(id ast.NodeID, e *env) (any, error) {
	t := in.tree
	n := t.Get(id)
	switch n.Kind {
	case ast.Paren:
		return in.expr(n.Children[0], e)
	case ast.Name:
		if v, ok := e.lookup(n.Name); ok {
			return v, nil
		}
		if b, ok := builtins[n.Name]; ok {
			return b, nil
		}
		return nil, in.fail(id, "name '%s' is not defined", n.Name)
	case ast.Constant:
		return in.constant(id, n)
	case ast.List, ast.Tuple:
		out := &List{Tuple: n.Kind == ast.Tuple}
		for _, c := range n.Children {
			v, err := in.expr(c, e)
			if err != nil {
				return nil, err
			}
			out.Items = append(out.Items, v)
		}
		return out, nil
	case ast.Dict:
		d := newDict()
		var key ast.NodeID
		for _, c := range n.Children {
			switch t.Get(c).Role {
			case ast.RoleKey:
				key = c
				continue
			case ast.RoleValue:
				if !key.IsValid() {
					return nil, in.unsupported(c)
				}
			default:
				return nil, in.unsupported(c)
			}
			k, err := in.expr(key, e)
			if err != nil {
				return nil, err
			}
			v, err := in.expr(c, e)
			if err != nil {
				return nil, err
			}
			if err := d.set(in, id, k, v); err != nil {
				return nil, err
			}
			key = ast.NoNodeID
		}
		return d, nil
	case ast.BinOp:
		l, err := in.expr(n.Children[0], e)
		if err != nil {
			return nil, err
		}
		r, err := in.expr(n.Children[1], e)
		if err != nil {
			return nil, err
		}
		return in.binary(id, n.Op, l, r)
	case ast.UnaryOp:
		v, err := in.expr(n.Children[0], e)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case token.KwNot:
			return !truthy(v), nil
		case token.Minus, token.Plus:
			i, ok := asInt(v)
			if !ok {
				return nil, in.fail(id, "bad operand type for unary %s: '%s'", n.Op, typeName(v))
			}
			if n.Op == token.Minus {
				i = -i
			}
			return i, nil
		}
	case ast.BoolOp:
		var v any
		for _, c := range n.Children {
			var err error
			if v, err = in.expr(c, e); err != nil {
				return nil, err
			}
			if truthy(v) != (n.Op == token.KwAnd) {
				return v, nil
			}
		}
		return v, nil
	case ast.Compare:
		left, err := in.expr(n.Children[0], e)
		if err != nil {
			return nil, err
		}
		for i, op := range n.Ops {
			right, err := in.expr(n.Children[i+1], e)
			if err != nil {
				return nil, err
			}
			ok, err := in.compare(id, op, left, right)
			if err != nil || !ok {
				return false, err
			}
			left = right
		}
		return true, nil
	case ast.IfExp:
		ok, err := in.truth(t.Child(id, ast.RoleTest), e)
		if err != nil {
			return nil, err
		}
		if ok {
			return in.expr(t.Child(id, ast.RoleBody), e)
		}
		return in.expr(t.Child(id, ast.RoleOrElse), e)
	case ast.Subscript:
		obj, err := in.expr(t.Child(id, ast.RoleValue), e)
		if err != nil {
			return nil, err
		}
		slice := t.Child(id, ast.RoleSlice)
		if t.Kind(slice) == ast.Slice {
			return nil, in.unsupported(slice)
		}
		key, err := in.expr(slice, e)
		if err != nil {
			return nil, err
		}
		return in.item(id, obj, key)
	case ast.Call:
		return in.call(id, e)
	case ast.Lambda:
		params, err := in.params(t.Child(id, ast.RoleParams), e)
		if err != nil {
			return nil, err
		}
		return &function{def: id, name: "<lambda>", params: params, closure: e, lambda: true}, nil
	}
	return nil, in.unsupported(id)
}

func (in *interp) constant(id ast.NodeID, n *ast.Node) (any, error) {
	switch n.Op {
	case token.KwTrue:
		return true, nil
	case token.KwFalse:
		return false, nil
	case token.KwNone:
		return nil, nil
	case token.Number:
		v, err := strconv.ParseInt(strings.ReplaceAll(n.Value, "_", ""), 0, 64)
		if err != nil {
			return nil, in.unsupported(id)
		}
		return v, nil
	case token.String:
		if n.Flags&ast.FlagFString != 0 {
			return nil, in.unsupported(id)
		}
		s, ok := decodeStrings(in.tree.Text(id))
		if !ok {
			return nil, in.unsupported(id)
		}
		return s, nil
	}
	return nil, in.unsupported(id)
}

func (in *interp) call(id ast.NodeID, e *env) (any, error) {
	if err := in.step(); err != nil {
		return nil, err
	}
	t := in.tree
	callee := t.Child(id, ast.RoleFunc)
	var (
		args   []any
		kwargs = map[string]any{}
		kwlist []string
	)
	for _, a := range t.ChildrenWith(id, ast.RoleArg) {
		an := t.Get(a)
		switch {
		case an.Kind == ast.Keyword && an.Name != "":
			v, err := in.expr(an.Children[0], e)
			if err != nil {
				return nil, err
			}
			kwargs[an.Name] = v
			kwlist = append(kwlist, an.Name)
		case an.Kind == ast.Keyword || an.Kind == ast.Starred || an.Kind == ast.GeneratorExp:
			return nil, in.unsupported(a)
		default:
			v, err := in.expr(a, e)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
	}

	if cn := t.Get(callee); cn.Kind == ast.Attribute {
		obj, err := in.expr(cn.Children[0], e)
		if err != nil {
			return nil, err
		}
		l, ok := obj.(*List)
		if cn.Name != "append" || !ok || l.Tuple || len(args) != 1 || len(kwlist) > 0 {
			return nil, in.unsupported(callee)
		}
		l.Items = append(l.Items, args[0])
		return nil, nil
	}

	fv, err := in.expr(callee, e)
	if err != nil {
		return nil, err
	}
	switch f := fv.(type) {
	case builtin:
		if len(kwlist) > 0 {
			return nil, in.unsupported(id)
		}
		v, err := f(in, args)
		if err != nil {
			var rt *Error
			if !errors.As(err, &rt) && !errors.Is(err, ErrUnsupported) && !errors.Is(err, ErrSteps) {
				err = in.fail(id, "%s", err.Error())
			}
		}
		return v, err
	case *function:
		return in.invoke(id, f, args, kwargs)
	}
	return nil, in.fail(id, "'%s' object is not callable", typeName(fv))
}

func (in *interp) invoke(id ast.NodeID, f *function, args []any, kwargs map[string]any) (any, error) {
	if len(args) > len(f.params) {
		return nil, in.fail(id, "%s() takes %d arguments but %d were given", f.name, len(f.params), len(args))
	}
	local := &env{vars: map[string]any{}, parent: f.closure}
	for i, p := range f.params {
		kv, byName := kwargs[p.name]
		switch {
		case i < len(args) && byName:
			return nil, in.fail(id, "%s() got multiple values for argument '%s'", f.name, p.name)
		case i < len(args):
			local.vars[p.name] = args[i]
		case byName:
			local.vars[p.name] = kv
		case p.has:
			local.vars[p.name] = p.def
		default:
			return nil, in.fail(id, "%s() missing argument '%s'", f.name, p.name)
		}
		delete(kwargs, p.name)
	}
	for name := range kwargs {
		return nil, in.fail(id, "%s() got an unexpected keyword argument '%s'", f.name, name)
	}
	if f.lambda {
		return in.expr(in.tree.Child(f.def, ast.RoleBody), local)
	}
	err := in.block(in.tree.Body(f.def), local)
	switch r := err.(type) {
	case nil:
		return nil, nil
	case returnSignal:
		return r.value, nil
	case breakSignal, continueSignal:
		return nil, in.fail(id, "%s", r.Error())
	}
	return nil, err
}

func asInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func (in *interp) binary(id ast.NodeID, op token.Kind, l, r any) (any, error) {
	a, okA := asInt(l)
	b, okB := asInt(r)
	if okA && okB {
		switch op {
		case token.Plus:
			return a + b, nil
		case token.Minus:
			return a - b, nil
		case token.Star:
			return a * b, nil
		case token.DoubleSlash, token.Percent:
			if b == 0 {
				return nil, in.fail(id, "integer division or modulo by zero")
			}
			q, m := a/b, a%b
			if m != 0 && (m < 0) != (b < 0) {
				q--
				m += b
			}
			if op == token.DoubleSlash {
				return q, nil
			}
			return m, nil
		}
		return nil, in.unsupported(id)
	}
	switch op {
	case token.Plus:
		switch x := l.(type) {
		case string:
			if y, ok := r.(string); ok {
				return x + y, nil
			}
		case *List:
			if y, ok := r.(*List); ok && x.Tuple == y.Tuple {
				items := append(append([]any(nil), x.Items...), y.Items...)
				return &List{Items: items, Tuple: x.Tuple}, nil
			}
		}
	case token.Star:
		if s, ok := l.(string); ok && okB {
			return strings.Repeat(s, int(max(b, 0))), nil
		}
	}
	return nil, in.fail(id, "unsupported operand types for %s: '%s' and '%s'", op, typeName(l), typeName(r))
}

func (in *interp) compare(id ast.NodeID, op ast.CmpOp, l, r any) (bool, error) {
	switch op {
	case ast.CmpEq:
		return equal(l, r), nil
	case ast.CmpNotEq:
		return !equal(l, r), nil
	case ast.CmpIs:
		return identical(l, r), nil
	case ast.CmpIsNot:
		return !identical(l, r), nil
	case ast.CmpIn, ast.CmpNotIn:
		found, err := in.contains(id, r, l)
		return found == (op == ast.CmpIn), err
	}
	if a, ok := asInt(l); ok {
		if b, ok := asInt(r); ok {
			return ordered(op, compareInts(a, b)), nil
		}
	}
	if a, ok := l.(string); ok {
		if b, ok := r.(string); ok {
			return ordered(op, strings.Compare(a, b)), nil
		}
	}
	return false, in.fail(id, "'%s' not supported between '%s' and '%s'", op, typeName(l), typeName(r))
}

func compareInts(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func ordered(op ast.CmpOp, c int) bool {
	switch op {
	case ast.CmpLt:
		return c < 0
	case ast.CmpLtE:
		return c <= 0
	case ast.CmpGt:
		return c > 0
	default:
		return c >= 0
	}
}

func identical(l, r any) bool {
	switch x := l.(type) {
	case *List:
		y, ok := r.(*List)
		return ok && x == y
	case *Dict:
		y, ok := r.(*Dict)
		return ok && x == y
	case *function:
		y, ok := r.(*function)
		return ok && x == y
	case builtin:
		return false
	}
	return equal(l, r)
}

func equal(l, r any) bool {
	if a, ok := asInt(l); ok {
		b, ok := asInt(r)
		return ok && a == b
	}
	switch x := l.(type) {
	case nil:
		return r == nil
	case string:
		y, ok := r.(string)
		return ok && x == y
	case *List:
		y, ok := r.(*List)
		if !ok || x.Tuple != y.Tuple || len(x.Items) != len(y.Items) {
			return false
		}
		for i := range x.Items {
			if !equal(x.Items[i], y.Items[i]) {
				return false
			}
		}
		return true
	case *Dict:
		y, ok := r.(*Dict)
		if !ok || len(x.keys) != len(y.keys) {
			return false
		}
		for _, key := range x.keys {
			k, _ := dictKey(key)
			v, ok := y.m[k]
			if !ok || !equal(x.m[k], v) {
				return false
			}
		}
		return true
	case *function:
		y, ok := r.(*function)
		return ok && x == y
	}
	return false
}

func (in *interp) contains(id ast.NodeID, container, v any) (bool, error) {
	switch c := container.(type) {
	case string:
		s, ok := v.(string)
		if !ok {
			return false, in.fail(id, "'in <string>' requires string as left operand")
		}
		return strings.Contains(c, s), nil
	case *List:
		for _, it := range c.Items {
			if equal(it, v) {
				return true, nil
			}
		}
		return false, nil
	case *Dict:
		k, err := dictKey(v)
		if err != nil {
			return false, in.fail(id, "%s", err.Error())
		}
		_, ok := c.m[k]
		return ok, nil
	}
	return false, in.fail(id, "argument of type '%s' is not iterable", typeName(container))
}

func (in *interp) iterate(id ast.NodeID, v any) ([]any, error) {
	switch x := v.(type) {
	case *List:
		return append([]any(nil), x.Items...), nil
	case *Dict:
		return append([]any(nil), x.keys...), nil
	case string:
		out := make([]any, 0, len(x))
		for _, r := range x {
			out = append(out, string(r))
		}
		return out, nil
	}
	return nil, in.fail(id, "'%s' object is not iterable", typeName(v))
}

func (in *interp) index(id ast.NodeID, l *List, key any) (int, error) {
	i, ok := asInt(key)
	if !ok {
		return 0, in.fail(id, "indices must be integers, not %s", typeName(key))
	}
	if i < 0 {
		i += int64(len(l.Items))
	}
	if i < 0 || i >= int64(len(l.Items)) {
		return 0, in.fail(id, "index out of range")
	}
	return int(i), nil
}

func (in *interp) item(id ast.NodeID, obj, key any) (any, error) {
	switch c := obj.(type) {
	case *List:
		i, err := in.index(id, c, key)
		if err != nil {
			return nil, err
		}
		return c.Items[i], nil
	case string:
		runes := []rune(c)
		chars := &List{Items: make([]any, len(runes))}
		for i, r := range runes {
			chars.Items[i] = string(r)
		}
		return in.item(id, chars, key)
	case *Dict:
		k, err := dictKey(key)
		if err != nil {
			return nil, in.fail(id, "%s", err.Error())
		}
		v, ok := c.m[k]
		if !ok {
			return nil, in.fail(id, "KeyError: %s", repr(key))
		}
		return v, nil
	}
	return nil, in.fail(id, "'%s' object is not subscriptable", typeName(obj))
}

func newDict() *Dict { return &Dict{m: map[any]any{}} }

// dictKey maps equal Python keys to one Go map key.
func dictKey(v any) (any, error) {
	switch x := v.(type) {
	case nil, string, int64:
		return x, nil
	case bool:
		i, _ := asInt(x)
		return i, nil
	}
	return nil, fmt.Errorf("unhashable type: '%s'", typeName(v))
}

func (d *Dict) set(in *interp, id ast.NodeID, key, v any) error {
	k, err := dictKey(key)
	if err != nil {
		return in.fail(id, "%s", err.Error())
	}
	if _, ok := d.m[k]; !ok {
		d.keys = append(d.keys, key)
	}
	d.m[k] = v
	return nil
}

func typeName(v any) string {
	switch x := v.(type) {
	case nil:
		return "NoneType"
	case bool:
		return "bool"
	case int64:
		return "int"
	case string:
		return "str"
	case *List:
		if x.Tuple {
			return "tuple"
		}
		return "list"
	case *Dict:
		return "dict"
	case *function, builtin:
		return "function"
	}
	return fmt.Sprintf("%T", v)
}
