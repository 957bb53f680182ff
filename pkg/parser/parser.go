package parser

import (
	"sort"

	"github.com/xplshn/tbc/pkg/codegen"
	"github.com/xplshn/tbc/pkg/config"
	"github.com/xplshn/tbc/pkg/lexer"
	"github.com/xplshn/tbc/pkg/token"
	"github.com/xplshn/tbc/pkg/types"
	"github.com/xplshn/tbc/pkg/util"
)

// Parser reads a token unit once, front to back, and drives the backend as it
// recognizes each production. Nothing is kept once a declaration is emitted
// except the symbol tables.
type Parser struct {
	tokens   []token.Token
	pos      int
	current  token.Token
	previous token.Token

	unit *lexer.Unit
	be   codegen.Backend
	desc codegen.Descriptor
	rep  *util.Reporter

	globals *scope
	locals  *scope
	routine *routine
}

func NewParser(unit *lexer.Unit, be codegen.Backend, rep *util.Reporter) *Parser {
	p := &Parser{
		tokens:  unit.Tokens,
		unit:    unit,
		be:      be,
		desc:    be.Descriptor(),
		rep:     rep,
		globals: newScope(nil),
	}
	p.globals.add(&symbol{Name: codegen.DataLabel, Class: symGlobal, Type: types.Type{Width: 1, Depth: 1}, Pos: token.Pos{File: -1}})
	p.current = p.at(0)
	return p
}

// at returns the token at index i, or an Invalid token standing for end of
// input positioned just after the last real token.
func (p *Parser) at(i int) token.Token {
	if i < len(p.tokens) {
		return p.tokens[i]
	}
	eof := token.Token{Type: token.Invalid, Pos: token.Pos{File: -1}}
	if n := len(p.tokens); n > 0 {
		eof.Pos = p.tokens[n-1].Pos
	}
	return eof
}

func (p *Parser) advance() {
	if p.pos < len(p.tokens) {
		p.previous = p.current
		p.pos++
		p.current = p.at(p.pos)
	}
}

func (p *Parser) atEOF() bool { return p.pos >= len(p.tokens) }

func (p *Parser) check(typ token.Type) bool {
	return !p.atEOF() && p.current.Type == typ
}

func (p *Parser) match(typ token.Type) bool {
	if !p.check(typ) {
		return false
	}
	p.advance()
	return true
}

func describe(tok token.Token) string {
	if tok.Type == token.Invalid {
		return "end of file"
	}
	return tok.String()
}

func (p *Parser) expect(typ token.Type, what string) token.Token {
	if !p.check(typ) {
		p.rep.Error(p.current.Pos, "Expected %s, found %s", what, describe(p.current))
	}
	p.advance()
	return p.previous
}

func (p *Parser) expectName() token.Token {
	return p.expect(token.Name, "identifier")
}

// Parse compiles the whole unit. The first error stops it; whatever the
// backend produced up to that point must be discarded by the caller.
func (p *Parser) Parse() (err error) {
	defer util.Recover(&err)

	p.be.Init()
	for !p.atEOF() {
		p.parseDeclaration()
	}
	p.checkUndefined()
	if len(p.unit.Data) > 0 {
		p.be.Global(codegen.DataLabel)
		p.be.Data(p.unit.Data)
	}
	return nil
}

// checkUndefined reports routines that only ever got a signature.
func (p *Parser) checkUndefined() {
	var names []string
	for name, sym := range p.globals.symbols {
		if sym.Class == symRoutine && !sym.Defined {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		p.rep.Warn(config.WarnExtra, p.globals.symbols[name].Pos, "Routine '%s' is declared but never defined", name)
	}
}

func (p *Parser) parseDeclaration() {
	if p.match(token.Enum) {
		p.parseEnum()
		return
	}
	if !p.current.Type.IsType() {
		p.rep.Error(p.current.Pos, "Expected type or ENUM, found %s", describe(p.current))
	}
	typ := p.parseType()
	name := p.expectName()
	if p.match(token.LParen) {
		p.parseRoutine(typ, name)
		return
	}
	p.parseGlobals(typ, name)
}

// parseType reads a type keyword followed by any number of '*'.
func (p *Parser) parseType() types.Type {
	var t types.Type
	switch p.current.Type {
	case token.UL:
		t.Width = p.desc.DataWidth
	case token.L:
		t.Width, t.Signed = p.desc.DataWidth, true
	case token.US:
		t.Width = p.desc.PointerWidth
	case token.S:
		t.Width, t.Signed = p.desc.PointerWidth, true
	case token.U8:
		t.Width = 1
	case token.U16:
		t.Width = 2
	case token.U32:
		t.Width = 4
	case token.U64:
		t.Width = 8
	default:
		p.rep.Error(p.current.Pos, "Expected type, found %s", describe(p.current))
	}
	p.advance()
	for p.match(token.Star) {
		t.Depth++
	}
	return t
}

func (p *Parser) declareGlobal(sym *symbol) {
	if prev := p.globals.add(sym); prev != nil {
		p.rep.Error(sym.Pos, "Duplicate identifier '%s' (already declared as %s)", sym.Name, classNames[prev.Class])
	}
}

// parseGlobals handles `NAME (= const)? (, NAME (= const)?)* ;` once the type
// and first name are read.
func (p *Parser) parseGlobals(typ types.Type, name token.Token) {
	for {
		p.declareGlobal(&symbol{Name: name.Text(), Class: symGlobal, Type: typ, Pos: name.Pos})
		value := types.Zero(typ)
		if p.match(token.Eq) {
			at := p.current.Pos
			value = p.convert(p.parseConstExpr(), typ, at).value
		}
		p.be.Global(name.Text())
		p.be.Const(value)

		if !p.match(token.Comma) {
			break
		}
		name = p.expectName()
	}
	p.expect(token.Semi, "';' after global declaration")
}

// parseEnum handles `ENUM NAME (= const)? (, NAME (= const)?)* ;`. Each value
// without an initializer is one more than the previous, starting at zero.
func (p *Parser) parseEnum() {
	next := types.Literal(0, false)
	for {
		name := p.expectName()
		value := next
		if p.match(token.Eq) {
			at := p.current.Pos
			value = p.parseConstExpr().value
			if value.IsData {
				p.rep.Error(at, "Enum value of '%s' must be an integer constant", name.Text())
			}
		}
		p.declareGlobal(&symbol{Name: name.Text(), Class: symEnum, Type: value.Type, Pos: name.Pos, Value: value})
		next = types.Literal(value.Bits+1, value.Type.Signed)

		if !p.match(token.Comma) {
			break
		}
	}
	p.expect(token.Semi, "';' after enum declaration")
}
