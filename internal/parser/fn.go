package parser

import (
	"pytidy/internal/ast"
	"pytidy/internal/token"
)

// parseDecorated: ('@' namedexpr NEWLINE)+ (def | async def | class)
func (p *Parser) parseDecorated() ast.NodeID {
	start := p.pos
	var decos []ast.NodeID
	for p.at(token.At) {
		at := p.advance()
		expr := p.role(p.parseNamedExprTest(), ast.RoleValue)
		decos = append(decos, p.role(p.node(ast.Decorator, at, expr), ast.RoleDecorator))
		p.expect(token.Newline, "newline after decorator")
	}
	switch p.kind() {
	case token.KwDef:
		return p.parseFunctionDef(start, decos)
	case token.KwClass:
		return p.parseClassDef(start, decos)
	case token.KwAsync:
		if p.peekKind(1) == token.KwDef {
			p.advance()
			return p.parseFunctionDef(start, decos)
		}
	}
	p.fail("expected 'def' or 'class' after decorator")
	return ast.NoNodeID
}

// parseFunctionDef: 'def' NAME '(' params ')' ['->' test] ':' suite
// start указывает на первый декоратор или 'async', если они есть.
func (p *Parser) parseFunctionDef(start int, decos []ast.NodeID) ast.NodeID {
	async := p.toks[start].Kind == token.KwAsync || (len(decos) > 0 && p.toks[p.prev()].Kind == token.KwAsync)
	p.expect(token.KwDef, "'def'")
	nameTok := p.expect(token.Name, "function name")

	open := p.expect(token.LParen, "'('")
	params := p.parseParams(token.RParen, true)
	p.expect(token.RParen, "')'")
	paramsID := p.role(p.tree.New(ast.Params, open, p.prev(), params...), ast.RoleParams)

	var returns ast.NodeID
	if _, ok := p.eat(token.Arrow); ok {
		returns = p.role(p.parseTest(), ast.RoleReturns)
	}
	body := p.parseBlock(ast.RoleBody)

	kids := append(append([]ast.NodeID{}, decos...), paramsID, returns, body)
	id := p.tree.New(ast.FunctionDef, start, p.get(body).Last, kids...)
	n := p.get(id)
	n.Name = p.toks[nameTok].Text
	n.NameTok = nameTok
	if async {
		n.Flags |= ast.FlagAsync
	}
	return id
}

// parseClassDef: 'class' NAME ['(' [arglist] ')'] ':' suite
func (p *Parser) parseClassDef(start int, decos []ast.NodeID) ast.NodeID {
	p.expect(token.KwClass, "'class'")
	nameTok := p.expect(token.Name, "class name")
	kids := append([]ast.NodeID{}, decos...)
	if _, ok := p.eat(token.LParen); ok {
		for _, a := range p.parseArgs() {
			kids = append(kids, p.role(a, ast.RoleBase))
		}
		p.expect(token.RParen, "')'")
	}
	body := p.parseBlock(ast.RoleBody)
	kids = append(kids, body)
	id := p.tree.New(ast.ClassDef, start, p.get(body).Last, kids...)
	n := p.get(id)
	n.Name = p.toks[nameTok].Text
	n.NameTok = nameTok
	return id
}

// parseParams разбирает список параметров до closing (не съедая его).
// Для lambda annotations=false.
func (p *Parser) parseParams(closing token.Kind, annotations bool) []ast.NodeID {
	var out []ast.NodeID
	seen := map[string]bool{}
	sawDefault, sawStar := false, false
	for !p.at(closing) {
		start := p.pos
		var flags ast.Flags
		switch p.kind() {
		case token.Slash:
			p.advance()
			id := p.node(ast.Param, start)
			p.get(id).Flags |= ast.FlagPosOnlyMarker
			out = append(out, id)
			goto next
		case token.Star:
			p.advance()
			if sawStar {
				p.fail("* argument may appear only once")
			}
			sawStar = true
			if !p.at(token.Name) {
				id := p.node(ast.Param, start)
				p.get(id).Flags |= ast.FlagKwOnlyMarker
				out = append(out, id)
				goto next
			}
			flags = ast.FlagStar
		case token.DoubleStar:
			p.advance()
			flags = ast.FlagDoubleStar
		}
		{
			nameTok := p.expect(token.Name, "parameter name")
			name := p.toks[nameTok].Text
			if seen[name] {
				p.fail("duplicate argument '" + name + "' in function definition")
			}
			seen[name] = true
			var ann, def ast.NodeID
			if annotations && p.at(token.Colon) {
				p.advance()
				if flags&ast.FlagStar != 0 && p.at(token.Star) {
					ann = p.role(p.parseStarExpr(), ast.RoleAnnotation)
				} else {
					ann = p.role(p.parseTest(), ast.RoleAnnotation)
				}
			}
			if _, ok := p.eat(token.Assign); ok {
				if flags != 0 {
					p.fail("var-positional or var-keyword parameter cannot have default value")
				}
				def = p.role(p.parseTest(), ast.RoleDefault)
				sawDefault = true
			} else if sawDefault && flags == 0 && !sawStar {
				p.fail("parameter without a default follows parameter with a default")
			}
			id := p.node(ast.Param, start, ann, def)
			n := p.get(id)
			n.Name = name
			n.NameTok = nameTok
			n.Flags |= flags
			out = append(out, id)
			if flags&ast.FlagDoubleStar != 0 && !p.at(closing) && !(p.at(token.Comma) && p.peekKind(1) == closing) {
				p.fail("arguments cannot follow var-keyword argument")
			}
		}
	next:
		if _, ok := p.eat(token.Comma); !ok {
			break
		}
	}
	return out
}

// parseLambda: 'lambda' [params] ':' test
func (p *Parser) parseLambda() ast.NodeID {
	start := p.advance()
	var params ast.NodeID
	if !p.at(token.Colon) {
		first := p.pos
		list := p.parseParams(token.Colon, false)
		params = p.role(p.tree.New(ast.Params, first, p.prev(), list...), ast.RoleParams)
	}
	p.expect(token.Colon, "':'")
	body := p.role(p.parseTest(), ast.RoleBody)
	return p.node(ast.Lambda, start, params, body)
}
