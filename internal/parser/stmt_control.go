package parser

import (
	"pytidy/internal/ast"
	"pytidy/internal/token"
)

// parseSuite: NEWLINE INDENT stmt+ DEDENT | simple_stmts на той же строке.
func (p *Parser) parseSuite() ast.NodeID {
	p.enter()
	defer p.leave()
	if !p.at(token.Newline) {
		stmts := p.parseSimpleStatements()
		id := p.tree.New(ast.Suite, p.get(stmts[0]).First, p.get(stmts[len(stmts)-1]).Last, stmts...)
		p.get(id).Flags |= ast.FlagInline
		return id
	}
	p.advance()
	if !p.at(token.Indent) {
		p.fail("expected an indented block")
	}
	p.advance()
	var stmts []ast.NodeID
	for !p.atOr(token.Dedent, token.EOF) {
		stmts = append(stmts, p.parseStatement()...)
	}
	p.expect(token.Dedent, "unindent")
	return p.tree.New(ast.Suite, p.get(stmts[0]).First, p.get(stmts[len(stmts)-1]).Last, stmts...)
}

// parseBlock: ':' suite
func (p *Parser) parseBlock(r ast.Role) ast.NodeID {
	p.expect(token.Colon, "':'")
	return p.role(p.parseSuite(), r)
}

func (p *Parser) parseElse() ast.NodeID {
	if _, ok := p.eat(token.KwElse); ok {
		return p.parseBlock(ast.RoleOrElse)
	}
	return ast.NoNodeID
}

func (p *Parser) lastOf(kids ...ast.NodeID) int {
	last := p.prev()
	for _, k := range kids {
		if k.IsValid() {
			last = p.get(k).Last
		}
	}
	return last
}

// parseIf разбирает if и elif (elif: вложенный If в роли orelse).
func (p *Parser) parseIf() ast.NodeID {
	start := p.advance()
	test := p.role(p.parseNamedExprTest(), ast.RoleTest)
	body := p.parseBlock(ast.RoleBody)
	var orelse ast.NodeID
	if p.at(token.KwElif) {
		orelse = p.role(p.parseIf(), ast.RoleOrElse)
		p.get(orelse).Flags |= ast.FlagElif
	} else {
		orelse = p.parseElse()
	}
	return p.tree.New(ast.If, start, p.lastOf(body, orelse), test, body, orelse)
}

func (p *Parser) parseWhile() ast.NodeID {
	start := p.advance()
	test := p.role(p.parseNamedExprTest(), ast.RoleTest)
	body := p.parseBlock(ast.RoleBody)
	orelse := p.parseElse()
	return p.tree.New(ast.While, start, p.lastOf(body, orelse), test, body, orelse)
}

func (p *Parser) parseFor(start int, flags ast.Flags) ast.NodeID {
	p.expect(token.KwFor, "'for'")
	target := p.parseExprList()
	p.setCtx(target, ast.CtxStore)
	p.expect(token.KwIn, "'in'")
	iter := p.role(p.parseTestListStarExpr(), ast.RoleIter)
	body := p.parseBlock(ast.RoleBody)
	orelse := p.parseElse()
	id := p.tree.New(ast.For, start, p.lastOf(body, orelse), p.role(target, ast.RoleTarget), iter, body, orelse)
	p.get(id).Flags |= flags
	return id
}

func (p *Parser) parseTry() ast.NodeID {
	start := p.advance()
	kids := []ast.NodeID{p.parseBlock(ast.RoleBody)}
	handlers := 0
	for p.at(token.KwExcept) {
		kids = append(kids, p.parseExceptHandler())
		handlers++
	}
	if handlers > 0 {
		if orelse := p.parseElse(); orelse.IsValid() {
			kids = append(kids, orelse)
		}
	}
	if _, ok := p.eat(token.KwFinally); ok {
		kids = append(kids, p.parseBlock(ast.RoleFinally))
	} else if handlers == 0 {
		p.fail("expected 'except' or 'finally' block")
	}
	return p.tree.New(ast.Try, start, p.lastOf(kids...), kids...)
}

func (p *Parser) parseExceptHandler() ast.NodeID {
	start := p.advance()
	if p.at(token.Star) {
		p.fail("except* is not supported")
	}
	var typ ast.NodeID
	name, nameTok := "", -1
	if !p.at(token.Colon) {
		typ = p.role(p.parseTest(), ast.RoleType)
		if _, ok := p.eat(token.KwAs); ok {
			nameTok = p.expect(token.Name, "name after 'as'")
			name = p.toks[nameTok].Text
		}
	}
	body := p.parseBlock(ast.RoleBody)
	id := p.tree.New(ast.ExceptHandler, start, p.get(body).Last, typ, body)
	n := p.get(id)
	n.Role = ast.RoleHandler
	n.Name = name
	n.NameTok = nameTok
	return id
}

func (p *Parser) parseWith(start int, flags ast.Flags) ast.NodeID {
	p.expect(token.KwWith, "'with'")
	var items []ast.NodeID
	if p.at(token.LParen) && p.parenthesizedWithItems() {
		p.advance()
		for !p.at(token.RParen) {
			items = append(items, p.parseWithItem())
			if _, ok := p.eat(token.Comma); !ok {
				break
			}
		}
		p.expect(token.RParen, "')'")
		flags |= ast.FlagParenthesized
	} else {
		for {
			items = append(items, p.parseWithItem())
			if _, ok := p.eat(token.Comma); !ok {
				break
			}
		}
	}
	body := p.parseBlock(ast.RoleBody)
	id := p.tree.New(ast.With, start, p.get(body).Last, append(items, body)...)
	p.get(id).Flags |= flags
	return id
}

// parenthesizedWithItems смотрит вперёд: "( ... ) :" с 'as' или ',' на глубине 1.
func (p *Parser) parenthesizedWithItems() bool {
	depth := 0
	sawItemSep := false
	for i := p.pos; i < len(p.toks); i++ {
		k := p.toks[i].Kind
		switch {
		case k.IsOpenBracket():
			depth++
		case k.IsCloseBracket():
			depth--
			if depth == 0 {
				return sawItemSep && i+1 < len(p.toks) && p.toks[i+1].Kind == token.Colon
			}
		case depth == 1 && (k == token.KwAs || k == token.Comma):
			sawItemSep = true
		case k == token.Newline || k == token.EOF:
			return false
		}
	}
	return false
}

func (p *Parser) parseWithItem() ast.NodeID {
	start := p.pos
	ctx := p.role(p.parseTest(), ast.RoleContext)
	var target ast.NodeID
	if _, ok := p.eat(token.KwAs); ok {
		target = p.parseTarget()
		p.setCtx(target, ast.CtxStore)
		p.role(target, ast.RoleTarget)
	}
	return p.role(p.node(ast.WithItem, start, ctx, target), ast.RoleItem)
}
