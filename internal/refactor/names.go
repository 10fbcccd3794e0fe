package refactor

import (
	"strings"

	"pytidy/internal/analysis"
	"pytidy/internal/ast"
	"pytidy/internal/scope"
	"pytidy/internal/token"
)

// builtinNames are the names Python resolves in builtins.
var builtinNames = map[string]bool{
	"abs": true, "aiter": true, "all": true, "anext": true, "any": true, "ascii": true,
	"bin": true, "bool": true, "breakpoint": true, "bytearray": true, "bytes": true,
	"callable": true, "chr": true, "classmethod": true, "compile": true, "complex": true,
	"copyright": true, "credits": true, "delattr": true, "dict": true, "dir": true,
	"divmod": true, "enumerate": true, "eval": true, "exec": true, "exit": true,
	"filter": true, "float": true, "format": true, "frozenset": true, "getattr": true,
	"globals": true, "hasattr": true, "hash": true, "help": true, "hex": true, "id": true,
	"input": true, "int": true, "isinstance": true, "issubclass": true, "iter": true,
	"len": true, "license": true, "list": true, "locals": true, "map": true, "max": true,
	"memoryview": true, "min": true, "next": true, "object": true, "oct": true, "open": true,
	"ord": true, "pow": true, "print": true, "property": true, "quit": true, "range": true,
	"repr": true, "reversed": true, "round": true, "set": true, "setattr": true,
	"slice": true, "sorted": true, "staticmethod": true, "str": true, "sum": true,
	"super": true, "tuple": true, "type": true, "vars": true, "zip": true,
	"__import__": true, "__name__": true, "__file__": true, "__doc__": true,
	"Ellipsis": true, "NotImplemented": true, "Exception": true, "BaseException": true,
}

// typeWords maps type and constructor names to the role they suggest.
var typeWords = map[string]string{
	"str": "text", "int": "number", "float": "number", "complex": "number",
	"Decimal": "number", "Fraction": "number", "bool": "flag",
	"list": "items", "List": "items", "tuple": "items", "Tuple": "items",
	"Sequence": "items", "Iterable": "items", "Iterator": "items", "sorted": "items",
	"dict": "mapping", "Dict": "mapping", "Mapping": "mapping", "MutableMapping": "mapping",
	"defaultdict": "mapping", "OrderedDict": "mapping", "Counter": "counts",
	"set": "members", "Set": "members", "frozenset": "members", "FrozenSet": "members",
	"Callable": "callback", "bytes": "payload", "bytearray": "payload",
	"len": "size", "sum": "total", "open": "handle", "IO": "handle", "TextIO": "handle",
}

// methodWords maps method names called on a value to the role they suggest.
var methodWords = map[string]string{
	"lower": "text", "upper": "text", "strip": "text", "lstrip": "text", "rstrip": "text",
	"split": "text", "startswith": "text", "endswith": "text", "join": "separator",
	"replace": "text", "format": "template", "encode": "text", "decode": "payload",
	"append": "items", "extend": "items", "pop": "items", "insert": "items", "sort": "items",
	"keys": "mapping", "values": "mapping", "items": "mapping", "get": "mapping",
	"update": "mapping", "setdefault": "mapping", "add": "members", "discard": "members",
	"read": "handle", "readline": "handle", "readlines": "handle", "write": "handle", "close": "handle",
}

// suggestName derives a descriptive name for sym from its annotation,
// its initial value or the way it is used.
func suggestName(tree *ast.Tree, sym *scope.Symbol) string {
	d := sym.Defs[0]
	def := tree.Get(d.Node)
	switch {
	case def.Kind == ast.Param:
		if n := fromAnnotation(tree, tree.Child(d.Node, ast.RoleAnnotation)); n != "" {
			return n
		}
		if n := fromValue(tree, tree.Child(d.Node, ast.RoleDefault)); n != "" {
			return n
		}
	case d.Kind == scope.RefFor:
		return forTargetName(tree, d.Node)
	case d.Kind == scope.RefWith:
		return "handle"
	default:
		stmt := tree.EnclosingStmt(d.Node)
		switch tree.Kind(stmt) {
		case ast.AnnAssign:
			if n := fromAnnotation(tree, tree.Child(stmt, ast.RoleAnnotation)); n != "" {
				return n
			}
			if n := fromValue(tree, tree.Child(stmt, ast.RoleValue)); n != "" {
				return n
			}
		case ast.Assign:
			if n := fromValue(tree, tree.Child(stmt, ast.RoleValue)); n != "" {
				return n
			}
		}
	}
	for _, u := range sym.Uses {
		if n := fromUsage(tree, u.Node); n != "" {
			return n
		}
	}
	return "value"
}

func fromAnnotation(tree *ast.Tree, ann ast.NodeID) string {
	if !ann.IsValid() {
		return ""
	}
	n := tree.Get(ann)
	switch n.Kind {
	case ast.Name, ast.Attribute:
		if w, ok := typeWords[n.Name]; ok {
			return w
		}
		if analysis.IsCapWords(n.Name) && len(n.Name) > 1 {
			return analysis.SnakeCase(n.Name)
		}
	case ast.Subscript:
		base := tree.Get(tree.Child(ann, ast.RoleValue))
		if base != nil && base.Name == "Optional" {
			return fromAnnotation(tree, tree.Child(ann, ast.RoleSlice))
		}
		return fromAnnotation(tree, tree.Child(ann, ast.RoleValue))
	case ast.BinOp:
		// X | None
		return fromAnnotation(tree, tree.Child(ann, ast.RoleLeft))
	}
	return ""
}

func fromValue(tree *ast.Tree, val ast.NodeID) string {
	if !val.IsValid() {
		return ""
	}
	n := tree.Get(val)
	switch n.Kind {
	case ast.Constant:
		switch n.Op {
		case token.String:
			return "text"
		case token.Number:
			return "number"
		case token.KwTrue, token.KwFalse:
			return "flag"
		}
	case ast.List, ast.ListComp, ast.Tuple:
		return "items"
	case ast.Dict, ast.DictComp:
		return "mapping"
	case ast.Set, ast.SetComp:
		return "members"
	case ast.Lambda:
		return "callback"
	case ast.Paren:
		return fromValue(tree, tree.Children(val)[0])
	case ast.Call:
		fn := tree.Get(tree.Child(val, ast.RoleFunc))
		if fn == nil || (fn.Kind != ast.Name && fn.Kind != ast.Attribute) {
			return ""
		}
		if w, ok := typeWords[fn.Name]; ok {
			return w
		}
		if analysis.IsCapWords(fn.Name) && len(fn.Name) > 1 {
			return analysis.SnakeCase(fn.Name)
		}
	}
	return ""
}

// fromUsage looks at the expression around one load of the name.
func fromUsage(tree *ast.Tree, use ast.NodeID) string {
	cur := use
	p := tree.Parent(cur)
	for tree.Kind(p) == ast.Paren {
		cur, p = p, tree.Parent(p)
	}
	pn := tree.Get(p)
	if pn == nil {
		return ""
	}
	role := tree.Get(cur).Role
	switch pn.Kind {
	case ast.Call:
		if role == ast.RoleFunc {
			return "callback"
		}
		if fn := tree.Get(tree.Child(p, ast.RoleFunc)); fn != nil && fn.Kind == ast.Name && fn.Name == "len" {
			return "items"
		}
	case ast.For, ast.Comprehension:
		if role == ast.RoleIter {
			return "items"
		}
	case ast.Attribute:
		if w, ok := methodWords[pn.Name]; ok {
			return w
		}
	case ast.BinOp:
		switch pn.Op {
		case token.Star, token.Minus, token.Slash, token.DoubleSlash, token.DoubleStar, token.Percent:
			return "number"
		}
	case ast.UnaryOp:
		if pn.Op == token.Minus {
			return "number"
		}
	case ast.AugAssign:
		switch pn.Op {
		case token.MinusEq, token.StarEq, token.SlashEq, token.DoubleSlashEq:
			return "number"
		}
	case ast.Compare:
		for _, c := range pn.Children {
			if c != cur && tree.Kind(c) == ast.Constant && tree.Get(c).Op == token.Number {
				return "number"
			}
		}
	}
	return ""
}

// forTargetName names a loop variable after the singular of what it
// iterates over.
func forTargetName(tree *ast.Tree, target ast.NodeID) string {
	loop := tree.Parent(target)
	for tree.Kind(loop) == ast.Paren {
		loop = tree.Parent(loop)
	}
	iter := tree.Get(tree.Child(loop, ast.RoleIter))
	if iter != nil && iter.Kind == ast.Name {
		if s := singular(iter.Name); s != iter.Name && len(s) > 1 {
			return s
		}
	}
	return "item"
}

func singular(word string) string {
	switch {
	case strings.HasSuffix(word, "ies") && len(word) > 4:
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "ss"):
		return word
	case strings.HasSuffix(word, "s") && len(word) > 3:
		return word[:len(word)-1]
	}
	return word
}

// isReserved reports names that can never be used for a binding.
func isReserved(name string) bool {
	if _, kw := token.LookupKeyword(name); kw {
		return true
	}
	return builtinNames[name]
}
