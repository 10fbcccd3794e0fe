package lexer_test

import (
	"fmt"
	"strings"
	"testing"

	"pytidy/internal/lexer"
	"pytidy/internal/source"
	"pytidy/internal/token"
)

// testReporter собирает все ошибки, полученные от лексера
type testReporter struct {
	messages []string
}

func (r *testReporter) Report(kind string, span source.Span, msg string) {
	r.messages = append(r.messages, fmt.Sprintf("[%s] %v: %s", kind, span, msg))
}

// makeTestLexer создаёт лексер для тестовой строки
func makeTestLexer(input string) (*lexer.Lexer, *testReporter) {
	file := source.NewFile("test.py", []byte(input))
	reporter := &testReporter{}
	return lexer.New(file, lexer.Options{Reporter: reporter}), reporter
}

// collectAllTokens собирает все токены до EOF
func collectAllTokens(lx *lexer.Lexer) []token.Token {
	tokens := make([]token.Token, 0)
	for {
		tok := lx.Next()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return tokens
}

// expectTokens проверяет последовательность видов токенов (включая EOF)
func expectTokens(t *testing.T, input string, expected []token.Kind) {
	t.Helper()
	lx, reporter := makeTestLexer(input)
	tokens := collectAllTokens(lx)
	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d\nInput: %q\nTokens: %v\nErrors: %v",
			len(expected), len(tokens), input, tokensToString(tokens), reporter.messages)
	}
	for i, tok := range tokens {
		if tok.Kind != expected[i] {
			t.Errorf("Token %d: expected %v, got %v (text: %q)", i, expected[i], tok.Kind, tok.Text)
		}
	}
}

func tokensToString(tokens []token.Token) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = fmt.Sprintf("%v(%q)", tok.Kind, tok.Text)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func render(tokens []token.Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		tok.Render(&b)
	}
	return b.String()
}

func TestSimpleStatement(t *testing.T) {
	expectTokens(t, "x = 1\n", []token.Kind{
		token.Name, token.Assign, token.Number, token.Newline, token.EOF,
	})
}

func TestIndentDedent(t *testing.T) {
	input := "def f(a):\n    if a:\n        return 1\n    return 2\n"
	expectTokens(t, input, []token.Kind{
		token.KwDef, token.Name, token.LParen, token.Name, token.RParen, token.Colon, token.Newline,
		token.Indent, token.KwIf, token.Name, token.Colon, token.Newline,
		token.Indent, token.KwReturn, token.Number, token.Newline,
		token.Dedent, token.KwReturn, token.Number, token.Newline,
		token.Dedent, token.EOF,
	})
}

func TestBlankLinesAndCommentsAreTrivia(t *testing.T) {
	input := "if x:\n\n    # note\n    y\n# tail\n"
	expectTokens(t, input, []token.Kind{
		token.KwIf, token.Name, token.Colon, token.Newline,
		token.Indent, token.Name, token.Newline,
		token.Dedent, token.EOF,
	})
}

func TestNewlineInsideBrackets(t *testing.T) {
	expectTokens(t, "f(1,\n  2)\n", []token.Kind{
		token.Name, token.LParen, token.Number, token.Comma, token.Number, token.RParen,
		token.Newline, token.EOF,
	})
}

func TestContinuationLine(t *testing.T) {
	expectTokens(t, "x = 1 + \\\n    2\n", []token.Kind{
		token.Name, token.Assign, token.Number, token.Plus, token.Number, token.Newline, token.EOF,
	})
}

func TestMissingFinalNewline(t *testing.T) {
	lx, _ := makeTestLexer("if a:\n    b  # c")
	tokens := collectAllTokens(lx)
	kinds := make([]token.Kind, len(tokens))
	for i, tok := range tokens {
		kinds[i] = tok.Kind
	}
	want := []token.Kind{token.KwIf, token.Name, token.Colon, token.Newline, token.Indent, token.Name, token.Newline, token.Dedent, token.EOF}
	if fmt.Sprint(kinds) != fmt.Sprint(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	nl := tokens[6]
	if nl.Text != "" || !nl.HasComment() {
		t.Fatalf("synthetic newline must be empty and own the trailing comment: %+v", nl)
	}
}

func TestNumbers(t *testing.T) {
	tests := []string{"0", "123", "1_000", "0x_fF", "0o17", "0b1010", "1.5", "1.", ".5", "1e10", "1.5E-3", "3j", "2.5j"}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			lx, rep := makeTestLexer(input)
			tok := lx.Next()
			if tok.Kind != token.Number || tok.Text != input {
				t.Fatalf("got %v(%q), errors %v", tok.Kind, tok.Text, rep.messages)
			}
		})
	}
}

func TestBadNumbers(t *testing.T) {
	for _, input := range []string{"0x", "1e", "12abc"} {
		lx, rep := makeTestLexer(input)
		collectAllTokens(lx)
		if lx.Err() == nil || len(rep.messages) == 0 {
			t.Errorf("%q: expected lexical error", input)
		}
	}
}

func TestStrings(t *testing.T) {
	tests := []struct {
		input string
		flags token.Flags
	}{
		{`'a'`, 0},
		{`"a\"b"`, 0},
		{`r"\d+"`, token.FlagRaw},
		{`b'\x00'`, token.FlagBytes},
		{`f"{x!r}"`, token.FlagFString},
		{`Rb"x"`, token.FlagRaw | token.FlagBytes},
		{"'''a\n'b'\n'''", token.FlagTriple},
		{`u"x"`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lx, rep := makeTestLexer(tt.input)
			tok := lx.Next()
			if tok.Kind != token.String || tok.Text != tt.input {
				t.Fatalf("got %v(%q), errors %v", tok.Kind, tok.Text, rep.messages)
			}
			if tok.Flags != tt.flags {
				t.Fatalf("flags = %b, want %b", tok.Flags, tt.flags)
			}
		})
	}
}

func TestPrefixNameIsNotString(t *testing.T) {
	expectTokens(t, "rb = br\n", []token.Kind{token.Name, token.Assign, token.Name, token.Newline, token.EOF})
}

func TestUnterminatedString(t *testing.T) {
	for _, input := range []string{"'abc\n", "\"\"\"abc"} {
		lx, _ := makeTestLexer(input)
		collectAllTokens(lx)
		if lx.Err() == nil || lx.Err().Kind != "UnterminatedString" {
			t.Errorf("%q: expected UnterminatedString, got %v", input, lx.Err())
		}
	}
}

func TestUnclosedBracketPointsAtOpener(t *testing.T) {
	tests := []struct {
		input string
		start uint32
		msg   string
	}{
		{"x = [1,\n", 4, "'[' was never closed"},
		{"foo(a, \ny = 2\n", 3, "'(' was never closed"},
		{"f(g[1]\n", 1, "'(' was never closed"},
	}
	for _, tt := range tests {
		lx, _ := makeTestLexer(tt.input)
		collectAllTokens(lx)
		err := lx.Err()
		if err == nil || err.Kind != "UnexpectedEOF" {
			t.Fatalf("%q: expected UnexpectedEOF, got %v", tt.input, err)
		}
		if err.Span.Start != tt.start || err.Msg != tt.msg {
			t.Errorf("%q: got %d %q, want %d %q", tt.input, err.Span.Start, err.Msg, tt.start, tt.msg)
		}
	}
}

func TestUnicodeIdentifiers(t *testing.T) {
	for _, name := range []string{"x\u00b7y", "cafe\u0301", "\u2118x", "\u2167", "_\u0661"} {
		lx, rep := makeTestLexer(name + " = 1\n")
		tok := lx.Next()
		if tok.Kind != token.Name || tok.Text != name {
			t.Errorf("%q: got %v(%q), errors %v", name, tok.Kind, tok.Text, rep.messages)
		}
	}

	lx, _ := makeTestLexer("a\u20ac = 1\n")
	collectAllTokens(lx)
	if lx.Err() == nil || lx.Err().Kind != "UnknownChar" {
		t.Fatalf("currency sign must not continue a name, got %v", lx.Err())
	}
}

func TestOperatorsGreedy(t *testing.T) {
	expectTokens(t, "a **= b // c -> d := ...\n", []token.Kind{
		token.Name, token.DoubleStarEq, token.Name, token.DoubleSlash, token.Name,
		token.Arrow, token.Name, token.ColonEq, token.Ellipsis, token.Newline, token.EOF,
	})
}

func TestBadDedent(t *testing.T) {
	lx, _ := makeTestLexer("if a:\n        b\n    c\n")
	collectAllTokens(lx)
	if lx.Err() == nil || lx.Err().Kind != "BadDedent" {
		t.Fatalf("expected BadDedent, got %v", lx.Err())
	}
}

func TestTabsIndentToEight(t *testing.T) {
	lx, _ := makeTestLexer("if a:\n\tb\n        c\n")
	collectAllTokens(lx)
	if lx.Err() != nil {
		t.Fatalf("tab and eight spaces must be the same level: %v", lx.Err())
	}
}

func TestUnicodeIdentifier(t *testing.T) {
	expectTokens(t, "переменная = 1\n", []token.Kind{token.Name, token.Assign, token.Number, token.Newline, token.EOF})
}

func TestUnknownCharacter(t *testing.T) {
	lx, _ := makeTestLexer("a $ b\n")
	collectAllTokens(lx)
	if lx.Err() == nil || lx.Err().Kind != "UnknownChar" {
		t.Fatalf("expected UnknownChar, got %v", lx.Err())
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"\n\n",
		"# only a comment",
		"x = 1",
		"x = 1\r\ny = [\r\n  2,\r\n]\r\n",
		"\ufeffimport os\n",
		"def f(a, b):  \n\t'''doc'''\n\treturn a+b \\\n  + 1   # trailing\n\n\n",
		"class C:\n    def m(self): pass\n\n    x = {1: 'a',\n         2: f\"{b}\"}\n",
		"if a:\n    pass\n  # dedented comment\nelse:\n    pass",
	}
	for _, input := range inputs {
		toks, err := lexer.Tokenize(source.NewFile("t.py", []byte(input)), lexer.Options{})
		if err != nil {
			t.Fatalf("%q: %v", input, err)
		}
		if got := render(toks); got != input {
			t.Errorf("round trip mismatch\n got: %q\nwant: %q", got, input)
		}
	}
}

func TestSpansMonotonic(t *testing.T) {
	input := "def f():\n    return 1\n\nx = f()\n"
	toks, err := lexer.Tokenize(source.NewFile("t.py", []byte(input)), lexer.Options{})
	if err != nil {
		t.Fatal(err)
	}
	var prev uint32
	for _, tok := range toks {
		if tok.FullStart() < prev {
			t.Fatalf("token %v starts at %d before %d", tok.Kind, tok.FullStart(), prev)
		}
		if tok.Text != input[tok.Span.Start:tok.Span.End] {
			t.Fatalf("token text %q does not match span %v", tok.Text, tok.Span)
		}
		prev = tok.Span.End
	}
}
