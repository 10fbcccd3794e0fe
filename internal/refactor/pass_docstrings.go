package refactor

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pytidy/internal/analysis"
	"pytidy/internal/ast"
	"pytidy/internal/diag"
	"pytidy/internal/source"
)

// docstringsPass adds one-line docstrings to public functions, classes
// and the module.
type docstringsPass struct{}

func (docstringsPass) Name() string { return "docstrings" }

var dunderDocs = map[string]string{
	"__init__":    "Initialize the instance.",
	"__repr__":    "Return the developer representation.",
	"__str__":     "Return the readable representation.",
	"__eq__":      "Compare for equality.",
	"__hash__":    "Return the hash value.",
	"__len__":     "Return the number of items.",
	"__iter__":    "Iterate over the items.",
	"__call__":    "Call the instance.",
	"__enter__":   "Enter the context.",
	"__exit__":    "Exit the context.",
	"__getitem__": "Return the item for a key.",
	"__setitem__": "Store the item for a key.",
}

func (docstringsPass) Plan(ctx *Context) []Change {
	tree := ctx.Tree
	defs := map[uint32]ast.NodeID{}
	tree.Inspect(tree.Root, func(id ast.NodeID) bool {
		if n := tree.Get(id); (n.Kind == ast.FunctionDef || n.Kind == ast.ClassDef) && n.NameTok >= 0 {
			defs[tree.Tokens[n.NameTok].Span.Start] = id
		}
		return true
	})

	var changes []Change
	for _, f := range ctx.Findings(diag.MissingDocstring) {
		ctx.Spend(1)
		if f.Symbol == "" {
			if ch, ok := moduleDocstring(ctx); ok {
				changes = append(changes, ch)
			}
			continue
		}
		def, ok := defs[f.Span.Start]
		if !ok {
			continue
		}
		body := tree.Child(def, ast.RoleBody)
		if tree.Get(body).Has(ast.FlagInline) {
			ctx.Miss(ctx.Line(def), "no docstring added to '%s': its body shares the header line", f.Symbol)
			continue
		}
		first := tree.Stmts(body)[0]
		doc := docSentence(tree, def)
		text := tree.Indent(first) + `"""` + doc + `"""` + ctx.Newline()
		changes = append(changes, Change{
			Action: Action{
				Kind:        AddDocstring,
				Pass:        "docstrings",
				Line:        ctx.Line(def),
				Params:      map[string]string{"name": f.Symbol, "docstring": doc},
				Description: fmt.Sprintf("added docstring to '%s'", f.Symbol),
			},
			Edits: []TextEdit{ctx.insertAt(ctx.lineStart(first), text)},
		})
	}
	return changes
}

func moduleDocstring(ctx *Context) (Change, bool) {
	tree := ctx.Tree
	body := tree.Body(tree.Root)
	if len(body) == 0 {
		return Change{}, false
	}
	var names []string
	for _, s := range body {
		n := tree.Get(s)
		if (n.Kind == ast.FunctionDef || n.Kind == ast.ClassDef) && !strings.HasPrefix(n.Name, "_") {
			names = append(names, n.Name)
		}
	}
	doc := "Top-level script."
	switch {
	case len(names) > 0:
		doc = "Module defining " + joinWords(names) + "."
	case !ctx.File.Virtual():
		stem := strings.TrimSuffix(filepath.Base(ctx.File.Path), filepath.Ext(ctx.File.Path))
		doc = sentence(strings.Fields(strings.ReplaceAll(analysis.SnakeCase(stem), "_", " "))) + " module."
	}
	off := ctx.lineStart(body[0])
	if off == 0 && ctx.File.Layout&source.HasBOM != 0 {
		off = 3
	}
	return Change{
		Action: Action{
			Kind:        AddDocstring,
			Pass:        "docstrings",
			Line:        1,
			Params:      map[string]string{"name": "<module>", "docstring": doc},
			Description: "added module docstring",
		},
		Edits: []TextEdit{ctx.insertAt(off, `"""`+doc+`"""`+ctx.Newline())},
	}, true
}

// docSentence derives a one-line docstring from the name of a def or class.
func docSentence(tree *ast.Tree, def ast.NodeID) string {
	n := tree.Get(def)
	if d, ok := dunderDocs[n.Name]; ok {
		return d
	}
	if analysis.IsDunder(n.Name) {
		return "Implement the " + strings.Trim(n.Name, "_") + " protocol."
	}
	words := strings.Fields(strings.ReplaceAll(analysis.SnakeCase(n.Name), "_", " "))
	if len(words) == 0 {
		return "Undocumented."
	}
	if n.Kind == ast.ClassDef {
		return "Represent " + article(words[0]) + " " + strings.Join(words, " ") + "."
	}
	return sentence(words) + "."
}

// sentence capitalizes the first word. A Caser keeps state, so each call
// builds its own.
func sentence(words []string) string {
	if len(words) == 0 {
		return ""
	}
	return strings.Join(append([]string{cases.Title(language.English).String(words[0])}, words[1:]...), " ")
}

func article(word string) string {
	if strings.ContainsRune("aeiou", rune(word[0])) {
		return "an"
	}
	return "a"
}

func joinWords(names []string) string {
	if len(names) == 1 {
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}
