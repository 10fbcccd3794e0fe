package parser

import (
	"errors"
	"fmt"
	"slices"

	"pytidy/internal/ast"
	"pytidy/internal/lexer"
	"pytidy/internal/source"
	"pytidy/internal/token"
)

const defaultMaxDepth = 200

type Options struct {
	// Reporter получает все лексические ошибки; разбор всё равно прерывается на первой.
	Reporter lexer.Reporter
	// MaxDepth ограничивает вложенность выражений и блоков; 0: значение по умолчанию.
	MaxDepth int
}

// Error is a syntax error. Line and Column are 1-based.
type Error struct {
	Line   int
	Column int
	Offset uint32
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
}

// bailout несёт первую ошибку из глубины рекурсии наверх.
type bailout struct{ err *Error }

// Parser: состояние парсера на один файл
type Parser struct {
	toks  []token.Token
	pos   int
	tree  *ast.Tree
	file  *source.File
	opts  Options
	depth int
}

// Parse parses text into a Unit. On error no unit is returned.
func Parse(text string) (*Unit, error) {
	return ParseFile(source.NewFile("", []byte(text)), Options{})
}

// ParseFile: входная точка для разбора одного файла.
func ParseFile(file *source.File, opts Options) (unit *Unit, err error) {
	if opts.MaxDepth == 0 {
		opts.MaxDepth = defaultMaxDepth
	}
	toks, lexErr := lexer.Tokenize(file, lexer.Options{Reporter: opts.Reporter})
	var le *lexer.Error
	if lexErr != nil && !errors.As(lexErr, &le) {
		return nil, lexErr
	}

	p := &Parser{
		toks: toks,
		tree: ast.NewTree(file, toks, ast.Hints{}),
		file: file,
		opts: opts,
	}
	root, perr := p.run()
	if le != nil {
		return nil, pickError(file, le, perr)
	}
	if perr != nil {
		return nil, perr
	}
	p.tree.Root = root
	return &Unit{File: file, Tree: p.tree}, nil
}

// run parses the token stream even when the lexer failed, so the caller can
// choose the error nearest to the malformed text.
func (p *Parser) run() (root ast.NodeID, err *Error) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			err = b.err
		}
	}()
	return p.parseModule(), nil
}

// pickError: ошибка лексера против ошибки разбора.
// Незакрытая скобка ловится лексером только на EOF, поэтому синтаксическая
// ошибка до конца файла точнее; иначе побеждает более ранняя позиция.
func pickError(file *source.File, le *lexer.Error, perr *Error) *Error {
	lexed := errorAt(file, le.Span.Start, le.Msg)
	if perr == nil {
		return lexed
	}
	if le.Kind == "UnexpectedEOF" {
		if perr.Offset < file.Len() {
			return perr
		}
		return lexed
	}
	if perr.Offset < lexed.Offset {
		return perr
	}
	return lexed
}

func errorAt(file *source.File, off uint32, msg string) *Error {
	pos := file.Position(off)
	return &Error{Line: int(pos.Line), Column: int(pos.Col), Offset: off, Msg: msg}
}

// parseModule: основной цикл верхнего уровня, parseStatement до EOF.
func (p *Parser) parseModule() ast.NodeID {
	var stmts []ast.NodeID
	for !p.at(token.EOF) {
		stmts = append(stmts, p.parseStatement()...)
	}
	id := p.tree.New(ast.Module, 0, len(p.toks)-1, stmts...)
	p.tree.Get(id).Span = source.Span{Start: 0, End: p.file.Len()}
	return id
}

func (p *Parser) tok() token.Token {
	return p.toks[p.pos]
}

func (p *Parser) kind() token.Kind {
	return p.toks[p.pos].Kind
}

func (p *Parser) peekKind(n int) token.Kind {
	if p.pos+n < len(p.toks) {
		return p.toks[p.pos+n].Kind
	}
	return token.EOF
}

func (p *Parser) at(k token.Kind) bool {
	return p.kind() == k
}

func (p *Parser) atOr(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.kind())
}

// advance: съедает токен и возвращает его индекс. EOF не съедается.
func (p *Parser) advance() int {
	i := p.pos
	if p.toks[i].Kind != token.EOF {
		p.pos++
	}
	return i
}

// prev: индекс последнего съеденного токена.
func (p *Parser) prev() int {
	return p.pos - 1
}

func (p *Parser) eat(k token.Kind) (int, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	return -1, false
}

// expect: ожидаем конкретный токен, иначе синтаксическая ошибка.
func (p *Parser) expect(k token.Kind, what string) int {
	if p.at(k) {
		return p.advance()
	}
	p.fail("expected " + what)
	return -1
}

// fail прерывает разбор ошибкой в позиции текущего токена.
func (p *Parser) fail(msg string) {
	tok := p.tok()
	switch tok.Kind {
	case token.EOF:
		msg += " (unexpected end of input)"
	case token.Newline:
		msg += " (unexpected end of line)"
	case token.Indent:
		msg = "unexpected indent"
	case token.Dedent:
		msg = "unexpected unindent"
	default:
		msg += fmt.Sprintf(" (got %q)", tok.Text)
	}
	panic(bailout{errorAt(p.file, tok.Span.Start, msg)})
}

// failAt прерывает разбор ошибкой в начале узла.
func (p *Parser) failAt(id ast.NodeID, msg string) {
	panic(bailout{errorAt(p.file, p.tree.Get(id).Span.Start, msg)})
}

func (p *Parser) enter() {
	p.depth++
	if p.depth > p.opts.MaxDepth {
		panic(bailout{errorAt(p.file, p.tok().Span.Start, "too many nested expressions or blocks")})
	}
}

func (p *Parser) leave() {
	p.depth--
}

// node создаёт узел на токенах [first, prev()] с детьми.
func (p *Parser) node(kind ast.Kind, first int, kids ...ast.NodeID) ast.NodeID {
	return p.tree.New(kind, first, p.prev(), kids...)
}

func (p *Parser) role(id ast.NodeID, r ast.Role) ast.NodeID {
	if id.IsValid() {
		p.tree.Get(id).Role = r
	}
	return id
}

func (p *Parser) get(id ast.NodeID) *ast.Node {
	return p.tree.Get(id)
}
