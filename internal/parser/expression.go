package parser

import (
	"pytidy/internal/ast"
	"pytidy/internal/token"
)

// parseTestListStarExpr: (test|star_expr) (',' (test|star_expr))* [',']: кортеж без скобок.
func (p *Parser) parseTestListStarExpr() ast.NodeID {
	return p.parseSeq(func() ast.NodeID {
		if p.at(token.Star) {
			return p.parseStarExpr()
		}
		return p.parseTest()
	})
}

// parseExprList: цели for/del/comprehension; 'in' не входит в выражение.
func (p *Parser) parseExprList() ast.NodeID {
	return p.parseSeq(p.parseTarget)
}

func (p *Parser) parseTarget() ast.NodeID {
	if p.at(token.Star) {
		return p.parseStarExpr()
	}
	return p.parseBinary(0)
}

// parseSeq собирает элементы через запятую; один элемент без запятой возвращается как есть.
func (p *Parser) parseSeq(elem func() ast.NodeID) ast.NodeID {
	start := p.pos
	first := elem()
	if !p.at(token.Comma) {
		if p.get(first).Kind == ast.Starred {
			p.failAt(first, "can't use starred expression here")
		}
		return first
	}
	items := []ast.NodeID{first}
	flags := ast.Flags(0)
	for {
		if _, ok := p.eat(token.Comma); !ok {
			break
		}
		if !p.startsExpr() || p.at(token.KwYield) {
			flags |= ast.FlagTrailingComma
			break
		}
		items = append(items, elem())
	}
	id := p.node(ast.Tuple, start, items...)
	p.get(id).Flags |= flags
	return id
}

func (p *Parser) parseYieldOrTestList() ast.NodeID {
	if p.at(token.KwYield) {
		return p.parseYield()
	}
	return p.parseTestListStarExpr()
}

// parseYield: 'yield' ['from' test | testlist_star_expr]
func (p *Parser) parseYield() ast.NodeID {
	start := p.advance()
	if _, ok := p.eat(token.KwFrom); ok {
		return p.node(ast.YieldFrom, start, p.role(p.parseTest(), ast.RoleValue))
	}
	var value ast.NodeID
	if p.startsExpr() && !p.at(token.KwYield) {
		value = p.role(p.parseTestListStarExpr(), ast.RoleValue)
	}
	return p.node(ast.Yield, start, value)
}

func (p *Parser) parseStarExpr() ast.NodeID {
	start := p.expect(token.Star, "'*'")
	return p.node(ast.Starred, start, p.role(p.parseBinary(0), ast.RoleValue))
}

// parseNamedExprTest: NAME ':=' test | test
func (p *Parser) parseNamedExprTest() ast.NodeID {
	if p.at(token.Name) && p.peekKind(1) == token.ColonEq {
		start := p.pos
		target := p.parseAtom()
		p.get(target).Ctx = ast.CtxStore
		p.advance()
		value := p.role(p.parseTest(), ast.RoleValue)
		return p.node(ast.NamedExpr, start, p.role(target, ast.RoleTarget), value)
	}
	return p.parseTest()
}

// parseTest: or_test ['if' or_test 'else' test] | lambdef
func (p *Parser) parseTest() ast.NodeID {
	p.enter()
	defer p.leave()
	if p.at(token.KwLambda) {
		return p.parseLambda()
	}
	start := p.pos
	body := p.parseOrTest()
	if !p.at(token.KwIf) {
		return body
	}
	p.advance()
	test := p.role(p.parseOrTest(), ast.RoleTest)
	p.expect(token.KwElse, "'else' in conditional expression")
	orelse := p.role(p.parseTest(), ast.RoleOrElse)
	return p.node(ast.IfExp, start, p.role(body, ast.RoleBody), test, orelse)
}

func (p *Parser) parseOrTest() ast.NodeID {
	return p.parseBoolOp(token.KwOr, p.parseAndTest)
}

func (p *Parser) parseAndTest() ast.NodeID {
	return p.parseBoolOp(token.KwAnd, p.parseNotTest)
}

// parseBoolOp строит n-арный BoolOp: a or b or c: один узел.
func (p *Parser) parseBoolOp(op token.Kind, operand func() ast.NodeID) ast.NodeID {
	start := p.pos
	first := operand()
	if !p.at(op) {
		return first
	}
	values := []ast.NodeID{p.role(first, ast.RoleOperand)}
	for p.at(op) {
		p.advance()
		values = append(values, p.role(operand(), ast.RoleOperand))
	}
	id := p.node(ast.BoolOp, start, values...)
	p.get(id).Op = op
	return id
}

func (p *Parser) parseNotTest() ast.NodeID {
	if p.at(token.KwNot) {
		p.enter()
		defer p.leave()
		start := p.advance()
		operand := p.role(p.parseNotTest(), ast.RoleOperand)
		id := p.node(ast.UnaryOp, start, operand)
		p.get(id).Op = token.KwNot
		return id
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() ast.NodeID {
	start := p.pos
	left := p.parseBinary(0)
	op, width, ok := p.compareOp()
	if !ok {
		return left
	}
	kids := []ast.NodeID{p.role(left, ast.RoleLeft)}
	var ops []ast.CmpOp
	for ok {
		p.pos += width
		ops = append(ops, op)
		kids = append(kids, p.role(p.parseBinary(0), ast.RoleComparator))
		op, width, ok = p.compareOp()
	}
	id := p.node(ast.Compare, start, kids...)
	p.get(id).Ops = ops
	return id
}

// parseBinary реализует Pratt parsing для бинарных операторов
// minPrec - минимальный приоритет для текущего уровня
func (p *Parser) parseBinary(minPrec int) ast.NodeID {
	p.enter()
	defer p.leave()
	start := p.pos
	left := p.parseFactor()
	for {
		prec := binaryPrec(p.kind())
		if prec < 0 || prec < minPrec {
			return left
		}
		op := p.toks[p.advance()].Kind
		right := p.parseBinary(prec + 1)
		left = p.node(ast.BinOp, start, p.role(left, ast.RoleLeft), p.role(right, ast.RoleRight))
		p.get(left).Op = op
	}
}

// parseFactor: ('+'|'-'|'~') factor | power
func (p *Parser) parseFactor() ast.NodeID {
	if p.atOr(token.Plus, token.Minus, token.Tilde) {
		p.enter()
		defer p.leave()
		start := p.pos
		op := p.toks[p.advance()].Kind
		operand := p.role(p.parseFactor(), ast.RoleOperand)
		id := p.node(ast.UnaryOp, start, operand)
		p.get(id).Op = op
		return id
	}
	return p.parsePower()
}

// parsePower: ['await'] primary ['**' factor]
func (p *Parser) parsePower() ast.NodeID {
	start := p.pos
	var base ast.NodeID
	if p.at(token.KwAwait) {
		p.advance()
		base = p.node(ast.Await, start, p.role(p.parsePrimary(), ast.RoleValue))
	} else {
		base = p.parsePrimary()
	}
	if !p.at(token.DoubleStar) {
		return base
	}
	p.advance()
	exp := p.parseFactor()
	id := p.node(ast.BinOp, start, p.role(base, ast.RoleLeft), p.role(exp, ast.RoleRight))
	p.get(id).Op = token.DoubleStar
	return id
}
