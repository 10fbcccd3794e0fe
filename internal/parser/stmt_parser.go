package parser

import (
	"pytidy/internal/ast"
	"pytidy/internal/token"
)

// parseStatement выбирает по первому токену составной оператор,
// иначе разбирает строку простых операторов через ';'.
func (p *Parser) parseStatement() []ast.NodeID {
	switch p.kind() {
	case token.Indent:
		p.fail("unexpected indent")
	case token.KwIf:
		return []ast.NodeID{p.parseIf()}
	case token.KwWhile:
		return []ast.NodeID{p.parseWhile()}
	case token.KwFor:
		return []ast.NodeID{p.parseFor(p.pos, 0)}
	case token.KwTry:
		return []ast.NodeID{p.parseTry()}
	case token.KwWith:
		return []ast.NodeID{p.parseWith(p.pos, 0)}
	case token.KwDef:
		return []ast.NodeID{p.parseFunctionDef(p.pos, nil)}
	case token.KwClass:
		return []ast.NodeID{p.parseClassDef(p.pos, nil)}
	case token.At:
		return []ast.NodeID{p.parseDecorated()}
	case token.KwAsync:
		start := p.advance()
		switch p.kind() {
		case token.KwDef:
			return []ast.NodeID{p.parseFunctionDef(start, nil)}
		case token.KwFor:
			return []ast.NodeID{p.parseFor(start, ast.FlagAsync)}
		case token.KwWith:
			return []ast.NodeID{p.parseWith(start, ast.FlagAsync)}
		default:
			p.fail("expected 'def', 'for' or 'with' after 'async'")
		}
	}
	return p.parseSimpleStatements()
}

// parseSimpleStatements: small_stmt (';' small_stmt)* [';'] NEWLINE
func (p *Parser) parseSimpleStatements() []ast.NodeID {
	var out []ast.NodeID
	for {
		out = append(out, p.parseSmallStatement())
		if _, ok := p.eat(token.Semicolon); !ok {
			break
		}
		if p.atOr(token.Newline, token.EOF) {
			break
		}
	}
	p.expect(token.Newline, "newline or ';'")
	return out
}

func (p *Parser) parseSmallStatement() ast.NodeID {
	start := p.pos
	switch p.kind() {
	case token.KwPass:
		p.advance()
		return p.node(ast.Pass, start)
	case token.KwBreak:
		p.advance()
		return p.node(ast.Break, start)
	case token.KwContinue:
		p.advance()
		return p.node(ast.Continue, start)
	case token.KwReturn:
		p.advance()
		var value ast.NodeID
		if p.startsExpr() {
			value = p.role(p.parseTestListStarExpr(), ast.RoleValue)
		}
		return p.node(ast.Return, start, value)
	case token.KwRaise:
		p.advance()
		var exc, cause ast.NodeID
		if p.startsExpr() {
			exc = p.role(p.parseTest(), ast.RoleValue)
			if _, ok := p.eat(token.KwFrom); ok {
				cause = p.role(p.parseTest(), ast.RoleCause)
			}
		}
		return p.node(ast.Raise, start, exc, cause)
	case token.KwGlobal, token.KwNonlocal:
		kind := ast.Global
		if p.at(token.KwNonlocal) {
			kind = ast.Nonlocal
		}
		p.advance()
		var names []ast.NodeID
		for {
			names = append(names, p.role(p.parseDeclName(), ast.RoleTarget))
			if _, ok := p.eat(token.Comma); !ok {
				break
			}
		}
		return p.node(kind, start, names...)
	case token.KwDel:
		p.advance()
		targets := p.parseExprList()
		p.setCtx(targets, ast.CtxDel)
		return p.node(ast.Del, start, p.role(targets, ast.RoleTarget))
	case token.KwAssert:
		p.advance()
		test := p.role(p.parseTest(), ast.RoleTest)
		var msg ast.NodeID
		if _, ok := p.eat(token.Comma); ok {
			msg = p.role(p.parseTest(), ast.RoleMsg)
		}
		return p.node(ast.Assert, start, test, msg)
	case token.KwImport:
		return p.parseImport()
	case token.KwFrom:
		return p.parseImportFrom()
	}
	return p.parseExprStatement()
}

func (p *Parser) parseDeclName() ast.NodeID {
	i := p.expect(token.Name, "name")
	id := p.node(ast.Name, i)
	n := p.get(id)
	n.Name = p.toks[i].Text
	n.NameTok = i
	n.Ctx = ast.CtxDecl
	return id
}

// parseExprStatement разбирает выражение, присваивание (в т.ч. цепочку),
// расширенное присваивание и аннотированное присваивание.
func (p *Parser) parseExprStatement() ast.NodeID {
	start := p.pos
	var lhs ast.NodeID
	if p.at(token.KwYield) {
		lhs = p.parseYield()
	} else {
		lhs = p.parseTestListStarExpr()
	}

	switch {
	case p.at(token.Colon):
		p.advance()
		p.checkSingleTarget(lhs)
		p.setCtx(lhs, ast.CtxStore)
		ann := p.role(p.parseTest(), ast.RoleAnnotation)
		var value ast.NodeID
		if _, ok := p.eat(token.Assign); ok {
			value = p.role(p.parseYieldOrTestList(), ast.RoleValue)
		}
		return p.node(ast.AnnAssign, start, p.role(lhs, ast.RoleTarget), ann, value)

	case p.kind().IsAugAssign():
		op := p.toks[p.advance()].Kind
		p.checkSingleTarget(lhs)
		p.setCtx(lhs, ast.CtxStore)
		value := p.role(p.parseYieldOrTestList(), ast.RoleValue)
		id := p.node(ast.AugAssign, start, p.role(lhs, ast.RoleTarget), value)
		p.get(id).Op = op
		return id

	case p.at(token.Assign):
		parts := []ast.NodeID{lhs}
		for {
			if _, ok := p.eat(token.Assign); !ok {
				break
			}
			parts = append(parts, p.parseYieldOrTestList())
		}
		kids := make([]ast.NodeID, 0, len(parts))
		for _, t := range parts[:len(parts)-1] {
			p.setCtx(t, ast.CtxStore)
			kids = append(kids, p.role(t, ast.RoleTarget))
		}
		kids = append(kids, p.role(parts[len(parts)-1], ast.RoleValue))
		return p.node(ast.Assign, start, kids...)
	}

	return p.node(ast.ExprStmt, start, p.role(lhs, ast.RoleValue))
}

func (p *Parser) checkSingleTarget(id ast.NodeID) {
	switch p.get(id).Kind {
	case ast.Name, ast.Attribute, ast.Subscript:
		return
	case ast.Paren:
		p.checkSingleTarget(p.tree.Children(id)[0])
		return
	}
	p.failAt(id, "illegal target for annotation or augmented assignment")
}

// setCtx помечает цель присваивания/удаления и проверяет её форму.
func (p *Parser) setCtx(id ast.NodeID, ctx ast.Ctx) {
	n := p.get(id)
	switch n.Kind {
	case ast.Name, ast.Attribute, ast.Subscript:
		if n.Kind == ast.Name && ctx != ast.CtxDel && (n.Name == "__debug__") {
			p.failAt(id, "cannot assign to __debug__")
		}
		n.Ctx = ctx
	case ast.Tuple, ast.List:
		n.Ctx = ctx
		for _, c := range n.Children {
			p.setCtx(c, ctx)
		}
	case ast.Starred:
		if ctx == ast.CtxDel {
			p.failAt(id, "cannot delete starred")
		}
		n.Ctx = ctx
		p.setCtx(n.Children[0], ctx)
	case ast.Paren:
		p.setCtx(n.Children[0], ctx)
	default:
		verb := "assign to"
		if ctx == ast.CtxDel {
			verb = "delete"
		}
		p.failAt(id, "cannot "+verb+" "+describe(n.Kind))
	}
}

func describe(k ast.Kind) string {
	switch k {
	case ast.Call:
		return "function call"
	case ast.Constant:
		return "literal"
	case ast.BinOp, ast.UnaryOp, ast.BoolOp:
		return "expression"
	case ast.Compare:
		return "comparison"
	case ast.Lambda:
		return "lambda"
	case ast.NamedExpr:
		return "named expression"
	default:
		return k.String()
	}
}
