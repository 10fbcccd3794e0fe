package parser

import (
	"pytidy/internal/ast"
	"pytidy/internal/token"
)

// parsePrimary: atom trailer*, где trailer: вызов, индекс или атрибут.
func (p *Parser) parsePrimary() ast.NodeID {
	start := p.pos
	expr := p.parseAtom()
	for {
		switch p.kind() {
		case token.LParen:
			p.advance()
			args := p.parseArgs()
			p.expect(token.RParen, "')'")
			kids := append([]ast.NodeID{p.role(expr, ast.RoleFunc)}, args...)
			expr = p.node(ast.Call, start, kids...)
		case token.LBracket:
			p.advance()
			slice := p.role(p.parseSubscriptList(), ast.RoleSlice)
			p.expect(token.RBracket, "']'")
			expr = p.node(ast.Subscript, start, p.role(expr, ast.RoleValue), slice)
		case token.Dot:
			p.advance()
			nameTok := p.expect(token.Name, "attribute name")
			expr = p.node(ast.Attribute, start, p.role(expr, ast.RoleValue))
			n := p.get(expr)
			n.Name = p.toks[nameTok].Text
			n.NameTok = nameTok
		default:
			return expr
		}
	}
}

// parseArgs разбирает аргументы вызова (или базы класса) до ')', не съедая её.
func (p *Parser) parseArgs() []ast.NodeID {
	var out []ast.NodeID
	sawKeyword := false
	for !p.at(token.RParen) {
		start := p.pos
		switch {
		case p.at(token.Star):
			out = append(out, p.role(p.parseStarExpr(), ast.RoleArg))
		case p.at(token.DoubleStar):
			p.advance()
			value := p.role(p.parseTest(), ast.RoleValue)
			id := p.node(ast.Keyword, start, value)
			p.get(id).Flags |= ast.FlagDoubleStar
			out = append(out, p.role(id, ast.RoleArg))
			sawKeyword = true
		case p.at(token.Name) && p.peekKind(1) == token.Assign:
			nameTok := p.advance()
			p.advance()
			value := p.role(p.parseTest(), ast.RoleValue)
			id := p.node(ast.Keyword, start, value)
			n := p.get(id)
			n.Name = p.toks[nameTok].Text
			n.NameTok = nameTok
			out = append(out, p.role(id, ast.RoleArg))
			sawKeyword = true
		default:
			arg := p.parseNamedExprTest()
			if p.atOr(token.KwFor, token.KwAsync) {
				arg = p.node(ast.GeneratorExp, start, p.parseComprehensions(arg, ast.NoNodeID)...)
				if len(out) > 0 || !p.at(token.RParen) {
					p.failAt(arg, "generator expression must be parenthesized")
				}
			} else if sawKeyword {
				p.failAt(arg, "positional argument follows keyword argument")
			}
			out = append(out, p.role(arg, ast.RoleArg))
		}
		if _, ok := p.eat(token.Comma); !ok {
			break
		}
	}
	return out
}

// parseSubscriptList: slice (',' slice)* [',']
func (p *Parser) parseSubscriptList() ast.NodeID {
	start := p.pos
	first := p.parseSliceItem()
	if !p.at(token.Comma) {
		return first
	}
	items := []ast.NodeID{first}
	for {
		if _, ok := p.eat(token.Comma); !ok || p.at(token.RBracket) {
			break
		}
		items = append(items, p.parseSliceItem())
	}
	return p.node(ast.Tuple, start, items...)
}

// parseSliceItem: test | [test] ':' [test] [':' [test]] | star_expr
func (p *Parser) parseSliceItem() ast.NodeID {
	start := p.pos
	if p.at(token.Star) {
		return p.parseStarExpr()
	}
	var lower ast.NodeID
	if !p.at(token.Colon) {
		lower = p.parseNamedExprTest()
		if !p.at(token.Colon) {
			return lower
		}
		p.role(lower, ast.RoleLower)
	}
	p.advance()
	var upper, step ast.NodeID
	if !p.atOr(token.Colon, token.Comma, token.RBracket) {
		upper = p.role(p.parseTest(), ast.RoleUpper)
	}
	if _, ok := p.eat(token.Colon); ok {
		if !p.atOr(token.Comma, token.RBracket) {
			step = p.role(p.parseTest(), ast.RoleStep)
		}
	}
	return p.node(ast.Slice, start, lower, upper, step)
}
