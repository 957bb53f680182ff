package parser

import (
	"github.com/xplshn/tbc/pkg/token"
	"github.com/xplshn/tbc/pkg/types"
)

// operand is the result of an expression. A constant is carried until its
// consumer decides how to emit it; a runtime value is already in the
// accumulator.
type operand struct {
	typ     types.Type
	isConst bool
	value   types.Constant
}

func constant(c types.Constant) operand {
	return operand{typ: c.Type, isConst: true, value: c}
}

// parseExpr parses a primary expression or a cast.
func (p *Parser) parseExpr() operand {
	tok := p.current
	switch {
	case p.match(token.Uint):
		return constant(types.Literal(uint64(tok.Payload.(token.UintValue)), false))
	case p.match(token.Int):
		return constant(types.Literal(uint64(tok.Payload.(token.IntValue)), true))
	case p.match(token.Char):
		return constant(types.Literal(uint64(tok.Payload.(token.CharValue)), false))
	case p.match(token.String):
		return constant(types.Data(int(tok.Payload.(token.StrValue)), types.Type{Width: 1}))
	case p.match(token.Name):
		return p.parseName(tok)
	case p.match(token.LParen):
		if p.current.Type.IsType() {
			to := p.parseType()
			p.expect(token.RParen, "')' after cast type")
			at := p.current.Pos
			return p.cast(p.parseExpr(), to, at)
		}
		e := p.parseExpr()
		p.expect(token.RParen, "')' after expression")
		return e
	}
	p.rep.Error(tok.Pos, "Expected expression, found %s", describe(tok))
	return operand{}
}

func (p *Parser) parseName(tok token.Token) operand {
	s := p.globals
	if p.locals != nil {
		s = p.locals
	}
	sym := s.find(tok.Text())
	if sym == nil {
		p.rep.Error(tok.Pos, "Undefined identifier '%s'", tok.Text())
	}
	switch sym.Class {
	case symArg, symLocal:
		p.be.LoadLocal(sym.Type.Size(p.desc), sym.Offset)
		return operand{typ: sym.Type}
	case symEnum:
		return constant(sym.Value)
	}
	p.rep.Error(tok.Pos, "Cannot load %s '%s' as a value", classNames[sym.Class], sym.Name)
	return operand{}
}

// parseConstExpr parses an expression that must fold at compile time.
func (p *Parser) parseConstExpr() operand {
	at := p.current.Pos
	e := p.parseExpr()
	if !e.isConst {
		p.rep.Error(at, "Expected constant expression")
	}
	return e
}

// cast converts e to type to: constants fold, runtime values are widened by
// the backend and narrowed without any instructions.
func (p *Parser) cast(e operand, to types.Type, at token.Pos) operand {
	if e.isConst {
		c, err := types.Cast(e.value, to, p.desc)
		if err != nil {
			p.rep.Error(at, "Invalid cast: %v", err)
		}
		return constant(c)
	}

	from, dst := e.typ.Size(p.desc), to.Size(p.desc)
	switch types.Extend(e.typ, to, p.desc) {
	case types.SignExtension:
		p.be.SignExtend(dst, from)
	case types.ZeroExtension:
		p.be.ZeroExtend(dst, from)
	}
	return operand{typ: to}
}

// convert is the implicit conversion of initializers and exits. Between two
// pointer types it requires them to unify; anything else is a cast.
func (p *Parser) convert(e operand, to types.Type, at token.Pos) operand {
	if e.typ.IsPointer() && to.IsPointer() {
		if _, err := types.Unify(e.typ, to); err != nil {
			p.rep.Error(at, "Cannot convert %s to %s: %v", e.typ, to, err)
		}
	}
	return p.cast(e, to, at)
}

// load makes sure e is in the accumulator.
func (p *Parser) load(e operand) {
	if e.isConst {
		p.be.LoadConst(e.value)
	}
}
