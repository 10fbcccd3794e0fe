package analysis

import (
	"fmt"
	"strings"

	"pytidy/internal/ast"
)

type longFunctions struct{ base }

func (longFunctions) Visit(ctx *Context, id ast.NodeID) {
	if ctx.Tree.Kind(id) != ast.FunctionDef {
		return
	}
	n := StatementCount(ctx.Tree, id)
	if max := ctx.Config.MaxFunctionLength; n > max {
		ctx.WarnTok(nameTok(ctx.Tree, id), fmt.Sprintf("function '%s' has %d statements (max %d)", ctx.Tree.Get(id).Name, n, max))
	}
}

// StatementCount counts the statements of a def body recursively, docstring
// excluded. A nested def or class counts as one statement.
func StatementCount(tree *ast.Tree, def ast.NodeID) int {
	body := tree.Body(def)
	if tree.Docstring(def).IsValid() {
		body = body[1:]
	}
	return countStmts(tree, body)
}

func countStmts(tree *ast.Tree, stmts []ast.NodeID) int {
	n := 0
	for _, s := range stmts {
		n++
		switch k := tree.Kind(s); {
		case k == ast.FunctionDef || k == ast.ClassDef:
		case k.IsCompound():
			for _, suite := range tree.Suites(s) {
				n += countStmts(tree, tree.Stmts(suite))
			}
		}
	}
	return n
}

type tooManyArguments struct{ base }

func (tooManyArguments) Visit(ctx *Context, id ast.NodeID) {
	if ctx.Tree.Kind(id) != ast.FunctionDef {
		return
	}
	params := Params(ctx.Tree, id)
	if IsMethod(ctx.Tree, id) && len(params) > 0 {
		if first := ctx.Tree.Get(params[0]).Name; first == "self" || first == "cls" {
			params = params[1:]
		}
	}
	if max := ctx.Config.MaxArguments; len(params) > max {
		ctx.WarnTok(nameTok(ctx.Tree, id), fmt.Sprintf("function '%s' takes %d arguments (max %d)", ctx.Tree.Get(id).Name, len(params), max))
	}
}

// Params returns the named parameters of a def or lambda, markers excluded.
func Params(tree *ast.Tree, fn ast.NodeID) []ast.NodeID {
	var out []ast.NodeID
	for _, p := range tree.Children(tree.Child(fn, ast.RoleParams)) {
		if tree.Get(p).Name != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsMethod reports whether def sits directly in a class body.
func IsMethod(tree *ast.Tree, def ast.NodeID) bool {
	return tree.Kind(tree.EnclosingScope(def)) == ast.ClassDef
}

type missingDocstrings struct{ base }

func (missingDocstrings) Visit(ctx *Context, id ast.NodeID) {
	tree := ctx.Tree
	switch tree.Kind(id) {
	case ast.Module:
		if len(tree.Body(id)) > 0 && !tree.Docstring(id).IsValid() {
			ctx.Report(atModuleStart("module is missing a docstring"))
		}
	case ast.FunctionDef, ast.ClassDef:
		if !NeedsDocstring(tree, id) || tree.Docstring(id).IsValid() {
			return
		}
		what := "function"
		if tree.Kind(id) == ast.ClassDef {
			what = "class"
		} else if IsMethod(tree, id) {
			what = "method"
		}
		name := tree.Get(id).Name
		ctx.Report(ctx.AtTok(nameTok(tree, id), fmt.Sprintf("%s '%s' is missing a docstring", what, name)).WithSymbol(name))
	}
}

// NeedsDocstring reports whether a def or class is public: its name has no
// leading underscore, it is not nested in a function and, when it is a
// method, its class is public too.
func NeedsDocstring(tree *ast.Tree, id ast.NodeID) bool {
	for cur := id; cur.IsValid() && tree.Kind(cur) != ast.Module; cur = tree.EnclosingScope(cur) {
		n := tree.Get(cur)
		if n.Kind != ast.FunctionDef && n.Kind != ast.ClassDef {
			return false
		}
		if cur != id && n.Kind == ast.FunctionDef {
			return false
		}
		if strings.HasPrefix(n.Name, "_") {
			return false
		}
	}
	return true
}

func nameTok(tree *ast.Tree, id ast.NodeID) int {
	if n := tree.Get(id); n.NameTok >= 0 {
		return n.NameTok
	}
	return tree.Get(id).First
}
