package parser

import (
	"strings"

	"pytidy/internal/ast"
	"pytidy/internal/token"
)

func (p *Parser) parseAtom() ast.NodeID {
	start := p.pos
	tok := p.tok()
	switch tok.Kind {
	case token.Name:
		p.advance()
		id := p.node(ast.Name, start)
		n := p.get(id)
		n.Name = tok.Text
		n.NameTok = start
		return id
	case token.Number, token.KwTrue, token.KwFalse, token.KwNone, token.Ellipsis:
		p.advance()
		id := p.node(ast.Constant, start)
		n := p.get(id)
		n.Op = tok.Kind
		n.Value = tok.Text
		return id
	case token.String:
		return p.parseStrings()
	case token.LParen:
		return p.parseParenthesized()
	case token.LBracket:
		return p.parseListDisplay()
	case token.LBrace:
		return p.parseBraceDisplay()
	}
	p.fail("invalid syntax")
	return ast.NoNodeID
}

// parseStrings склеивает соседние строковые литералы в один Constant.
func (p *Parser) parseStrings() ast.NodeID {
	start := p.pos
	var parts []string
	var flags ast.Flags
	bytesSeen, textSeen := false, false
	for p.at(token.String) {
		tok := p.toks[p.advance()]
		parts = append(parts, tok.Text)
		if tok.Flags&token.FlagFString != 0 {
			flags |= ast.FlagFString
		}
		if tok.Flags&token.FlagBytes != 0 {
			bytesSeen = true
		} else {
			textSeen = true
		}
	}
	if bytesSeen && textSeen {
		p.pos = start
		p.fail("cannot mix bytes and nonbytes literals")
	}
	if len(parts) > 1 {
		flags |= ast.FlagConcat
	}
	id := p.node(ast.Constant, start)
	n := p.get(id)
	n.Op = token.String
	n.Value = strings.Join(parts, " ")
	n.Flags |= flags
	return id
}

// parseParenthesized: '(' ')' | '(' yield ')' | '(' genexp ')' | '(' tuple ')' | '(' expr ')'
func (p *Parser) parseParenthesized() ast.NodeID {
	p.enter()
	defer p.leave()
	open := p.advance()
	if _, ok := p.eat(token.RParen); ok {
		return p.node(ast.Tuple, open)
	}
	var inner ast.NodeID
	if p.at(token.KwYield) {
		inner = p.parseYield()
	} else {
		elemStart := p.pos
		first := p.parseStarOrNamed()
		switch {
		case p.atOr(token.KwFor, token.KwAsync):
			inner = p.node(ast.GeneratorExp, elemStart, p.parseComprehensions(first, ast.NoNodeID)...)
		case p.at(token.Comma):
			items, flags := p.parseDisplayItems(first, token.RParen)
			inner = p.node(ast.Tuple, elemStart, items...)
			p.get(inner).Flags |= flags
		default:
			if p.get(first).Kind == ast.Starred {
				p.failAt(first, "can't use starred expression here")
			}
			inner = first
		}
	}
	p.expect(token.RParen, "')'")
	return p.node(ast.Paren, open, inner)
}

func (p *Parser) parseStarOrNamed() ast.NodeID {
	if p.at(token.Star) {
		return p.parseStarExpr()
	}
	return p.parseNamedExprTest()
}

// parseDisplayItems дочитывает элементы после первого до закрывающей скобки (не съедая её).
func (p *Parser) parseDisplayItems(first ast.NodeID, closing token.Kind) ([]ast.NodeID, ast.Flags) {
	items := []ast.NodeID{first}
	flags := ast.Flags(0)
	for {
		if _, ok := p.eat(token.Comma); !ok {
			break
		}
		if p.at(closing) {
			flags |= ast.FlagTrailingComma
			break
		}
		items = append(items, p.parseStarOrNamed())
	}
	return items, flags
}

func (p *Parser) parseListDisplay() ast.NodeID {
	p.enter()
	defer p.leave()
	open := p.advance()
	if _, ok := p.eat(token.RBracket); ok {
		return p.node(ast.List, open)
	}
	first := p.parseStarOrNamed()
	if p.atOr(token.KwFor, token.KwAsync) {
		kids := p.parseComprehensions(first, ast.NoNodeID)
		p.expect(token.RBracket, "']'")
		return p.node(ast.ListComp, open, kids...)
	}
	items, flags := p.parseDisplayItems(first, token.RBracket)
	p.expect(token.RBracket, "']'")
	id := p.node(ast.List, open, items...)
	p.get(id).Flags |= flags
	return id
}

func (p *Parser) parseBraceDisplay() ast.NodeID {
	p.enter()
	defer p.leave()
	open := p.advance()
	if _, ok := p.eat(token.RBrace); ok {
		return p.node(ast.Dict, open)
	}

	// словарь: key ':' value | '**' expr
	if p.at(token.DoubleStar) {
		return p.parseDictEntries(open, ast.NoNodeID, ast.NoNodeID)
	}
	first := p.parseStarOrNamed()
	if p.at(token.Colon) {
		if p.get(first).Kind == ast.Starred {
			p.failAt(first, "cannot use a starred expression in a dictionary key")
		}
		p.advance()
		value := p.parseTest()
		if p.atOr(token.KwFor, token.KwAsync) {
			kids := p.parseComprehensions(p.role(first, ast.RoleKey), p.role(value, ast.RoleValue))
			p.expect(token.RBrace, "'}'")
			return p.node(ast.DictComp, open, kids...)
		}
		return p.parseDictEntries(open, first, value)
	}

	if p.atOr(token.KwFor, token.KwAsync) {
		kids := p.parseComprehensions(first, ast.NoNodeID)
		p.expect(token.RBrace, "'}'")
		return p.node(ast.SetComp, open, kids...)
	}
	items, flags := p.parseDisplayItems(first, token.RBrace)
	p.expect(token.RBrace, "'}'")
	id := p.node(ast.Set, open, items...)
	p.get(id).Flags |= flags
	return id
}

// parseDictEntries читает пары до '}' включительно; первая пара (если есть) уже разобрана.
func (p *Parser) parseDictEntries(open int, key, value ast.NodeID) ast.NodeID {
	var kids []ast.NodeID
	if key.IsValid() {
		kids = append(kids, p.role(key, ast.RoleKey), p.role(value, ast.RoleValue))
		if _, ok := p.eat(token.Comma); !ok {
			p.expect(token.RBrace, "'}'")
			return p.node(ast.Dict, open, kids...)
		}
	}
	for !p.at(token.RBrace) {
		start := p.pos
		if _, ok := p.eat(token.DoubleStar); ok {
			inner := p.role(p.parseBinary(0), ast.RoleValue)
			kids = append(kids, p.node(ast.DictUnpack, start, inner))
		} else {
			k := p.role(p.parseTest(), ast.RoleKey)
			p.expect(token.Colon, "':'")
			v := p.role(p.parseTest(), ast.RoleValue)
			kids = append(kids, k, v)
		}
		if _, ok := p.eat(token.Comma); !ok {
			break
		}
	}
	p.expect(token.RBrace, "'}'")
	return p.node(ast.Dict, open, kids...)
}

// parseComprehensions: comp_for+ после элемента (или пары key/value для dict).
// Возвращает детей будущего узла-включения.
func (p *Parser) parseComprehensions(elt, value ast.NodeID) []ast.NodeID {
	if !value.IsValid() {
		if p.get(elt).Kind == ast.Starred {
			p.failAt(elt, "iterable unpacking cannot be used in comprehension")
		}
		p.role(elt, ast.RoleElt)
	}
	kids := []ast.NodeID{elt}
	if value.IsValid() {
		kids = append(kids, value)
	}
	for p.atOr(token.KwFor, token.KwAsync) {
		compStart := p.pos
		var flags ast.Flags
		if _, ok := p.eat(token.KwAsync); ok {
			flags |= ast.FlagAsync
		}
		p.expect(token.KwFor, "'for'")
		target := p.parseExprList()
		p.setCtx(target, ast.CtxStore)
		p.expect(token.KwIn, "'in'")
		iter := p.role(p.parseOrTest(), ast.RoleIter)
		compKids := []ast.NodeID{p.role(target, ast.RoleTarget), iter}
		for p.at(token.KwIf) {
			p.advance()
			compKids = append(compKids, p.role(p.parseOrTest(), ast.RoleIf))
		}
		comp := p.role(p.node(ast.Comprehension, compStart, compKids...), ast.RoleGenerator)
		p.get(comp).Flags |= flags
		kids = append(kids, comp)
	}
	return kids
}
