package parser

import (
	"strings"

	"pytidy/internal/ast"
	"pytidy/internal/token"
)

// parseImport: 'import' dotted_name ['as' NAME] (',' dotted_name ['as' NAME])*
func (p *Parser) parseImport() ast.NodeID {
	start := p.advance()
	var aliases []ast.NodeID
	for {
		aliases = append(aliases, p.parseAlias(true))
		if _, ok := p.eat(token.Comma); !ok {
			break
		}
	}
	return p.node(ast.Import, start, aliases...)
}

// parseImportFrom: 'from' ('.'|'...')* [dotted_name] 'import' ('*' | '(' names ')' | names)
func (p *Parser) parseImportFrom() ast.NodeID {
	start := p.advance()
	level := 0
	for p.atOr(token.Dot, token.Ellipsis) {
		if p.at(token.Dot) {
			level++
		} else {
			level += 3
		}
		p.advance()
	}
	module := ""
	if p.at(token.Name) {
		module, _ = p.parseDottedName()
	} else if level == 0 {
		p.fail("expected module name")
	}
	p.expect(token.KwImport, "'import'")

	var flags ast.Flags
	var aliases []ast.NodeID
	switch {
	case p.at(token.Star):
		i := p.advance()
		id := p.node(ast.Alias, i)
		n := p.get(id)
		n.Name = "*"
		n.Role = ast.RoleAlias
		n.NameTok = i
		aliases = append(aliases, id)
		flags |= ast.FlagStarImport
	case p.at(token.LParen):
		p.advance()
		flags |= ast.FlagParenthesized
		for !p.at(token.RParen) {
			aliases = append(aliases, p.parseAlias(false))
			if _, ok := p.eat(token.Comma); !ok {
				break
			}
			if p.at(token.RParen) {
				flags |= ast.FlagTrailingComma
			}
		}
		if len(aliases) == 0 {
			p.fail("expected name to import")
		}
		p.expect(token.RParen, "')'")
	default:
		for {
			aliases = append(aliases, p.parseAlias(false))
			if _, ok := p.eat(token.Comma); !ok {
				break
			}
			if p.at(token.Newline) {
				p.fail("trailing comma not allowed without surrounding parentheses")
			}
		}
	}

	id := p.node(ast.ImportFrom, start, aliases...)
	n := p.get(id)
	n.Name = module
	n.Level = level
	n.Flags |= flags
	return id
}

func (p *Parser) parseAlias(dotted bool) ast.NodeID {
	start := p.pos
	var name string
	if dotted {
		name, _ = p.parseDottedName()
	} else {
		name = p.toks[p.expect(token.Name, "name to import")].Text
	}
	asName, asTok := "", -1
	if _, ok := p.eat(token.KwAs); ok {
		asTok = p.expect(token.Name, "name after 'as'")
		asName = p.toks[asTok].Text
	}
	id := p.node(ast.Alias, start)
	n := p.get(id)
	n.Name = name
	n.AsName = asName
	n.NameTok = start
	n.AsTok = asTok
	n.Role = ast.RoleAlias
	return id
}

func (p *Parser) parseDottedName() (string, int) {
	first := p.expect(token.Name, "module name")
	parts := []string{p.toks[first].Text}
	for p.at(token.Dot) && p.peekKind(1) == token.Name {
		p.advance()
		parts = append(parts, p.toks[p.advance()].Text)
	}
	return strings.Join(parts, "."), first
}
