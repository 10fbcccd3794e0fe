package token_test

import (
	"strings"
	"testing"

	"pytidy/internal/source"
	"pytidy/internal/token"
)

func TestLookupKeyword(t *testing.T) {
	cases := map[string]token.Kind{
		"def":      token.KwDef,
		"lambda":   token.KwLambda,
		"None":     token.KwNone,
		"nonlocal": token.KwNonlocal,
		"yield":    token.KwYield,
	}
	for lexeme, want := range cases {
		got, ok := token.LookupKeyword(lexeme)
		if !ok || got != want {
			t.Fatalf("LookupKeyword(%q) = %v,%v want %v", lexeme, got, ok, want)
		}
		if got.Text() != lexeme {
			t.Fatalf("%v.Text() = %q, want %q", got, got.Text(), lexeme)
		}
	}
	// регистр важен, soft keywords остаются именами
	for _, s := range []string{"none", "DEF", "match", "case", "type", "print"} {
		if _, ok := token.LookupKeyword(s); ok {
			t.Fatalf("LookupKeyword(%q) returned ok=true, want false", s)
		}
	}
}

func TestLookupOperator(t *testing.T) {
	for _, s := range []string{"**=", "//", "->", ":=", "...", "!=", "@"} {
		k, ok := token.LookupOperator(s)
		if !ok || !k.IsOperator() {
			t.Fatalf("LookupOperator(%q) = %v,%v", s, k, ok)
		}
		if k.Text() != s {
			t.Fatalf("round trip %q -> %v -> %q", s, k, k.Text())
		}
	}
	if _, ok := token.LookupOperator("!"); ok {
		t.Fatalf("'!' alone is not an operator")
	}
	if !token.PlusEq.IsAugAssign() || token.Assign.IsAugAssign() {
		t.Fatalf("IsAugAssign misclassifies")
	}
}

func TestTokenRender(t *testing.T) {
	tok := token.Token{
		Kind: token.Name,
		Span: source.Span{Start: 7, End: 8},
		Text: "x",
		Leading: []token.Trivia{
			{Kind: token.TriviaComment, Span: source.Span{Start: 0, End: 5}, Text: "# hi "},
			{Kind: token.TriviaNewline, Span: source.Span{Start: 5, End: 6}, Text: "\n"},
			{Kind: token.TriviaSpace, Span: source.Span{Start: 6, End: 7}, Text: " "},
		},
	}
	var b strings.Builder
	tok.Render(&b)
	if b.String() != "# hi \n x" {
		t.Fatalf("Render = %q", b.String())
	}
	if !tok.HasComment() || tok.FullStart() != 0 {
		t.Fatalf("HasComment/FullStart wrong")
	}
}
