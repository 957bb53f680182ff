package parser

import (
	"github.com/xplshn/tbc/pkg/config"
	"github.com/xplshn/tbc/pkg/token"
	"github.com/xplshn/tbc/pkg/types"
)

// routine is the state of the routine whose body is being parsed.
type routine struct {
	sym       *symbol
	frameSize int
	exitLabel int // -1 until a nested exit needs it
}

func (p *Parser) declareLocal(sym *symbol) {
	if prev := p.locals.add(sym); prev != nil {
		p.rep.Error(sym.Pos, "Duplicate identifier '%s' (already declared as %s)", sym.Name, classNames[prev.Class])
	}
}

// parseRoutine handles everything after `type NAME (`: the parameters, then
// either `;` for a signature or an optional locals block and a body.
func (p *Parser) parseRoutine(ret types.Type, name token.Token) {
	if ret.Size(p.desc) > p.desc.ExitWidth {
		p.rep.Error(name.Pos, "Return type %s of '%s' is wider than the %d bytes a %s routine can return",
			ret, name.Text(), p.desc.ExitWidth, p.desc.Name)
	}

	p.locals = newScope(p.globals)
	defer func() { p.locals, p.routine = nil, nil }()

	var params []types.Type
	offset := p.desc.PointerWidth
	if !p.check(token.RParen) {
		for {
			typ := p.parseType()
			arg := p.expectName()
			p.declareLocal(&symbol{Name: arg.Text(), Class: symArg, Type: typ, Pos: arg.Pos, Offset: offset})
			offset += p.desc.Slot(typ.Size(p.desc))
			params = append(params, typ)
			if !p.match(token.Comma) {
				break
			}
		}
	}
	p.expect(token.RParen, "')' after parameters")

	sym := p.declareRoutine(&symbol{Name: name.Text(), Class: symRoutine, Type: ret, Pos: name.Pos, Params: params})
	if p.match(token.Semi) {
		return
	}
	sym.Defined = true
	p.routine = &routine{sym: sym, exitLabel: -1}

	if p.match(token.Colon) {
		p.parseLocals()
	}

	open := p.expect(token.AtParen, "'@(' to open routine body")
	p.be.Global(sym.Name)
	p.be.EnterRoutine(p.routine.frameSize)
	p.parseBlock(open, true)
	if p.routine.exitLabel >= 0 {
		p.be.Label(p.routine.exitLabel)
	}
	p.be.ExitRoutine()
}

// declareRoutine enters a routine, or reconciles it with an earlier signature.
func (p *Parser) declareRoutine(sym *symbol) *symbol {
	prev := p.globals.add(sym)
	if prev == nil {
		return sym
	}
	if prev.Class != symRoutine || prev.Defined {
		p.rep.Error(sym.Pos, "Duplicate identifier '%s' (already declared as %s)", sym.Name, classNames[prev.Class])
	}
	if len(prev.Params) != len(sym.Params) {
		p.rep.Error(sym.Pos, "'%s' declared with %d parameters, previously %d", sym.Name, len(sym.Params), len(prev.Params))
	}
	p.sameType(sym, "return type", prev.Type, sym.Type)
	for i := range sym.Params {
		p.sameType(sym, "parameter", prev.Params[i], sym.Params[i])
	}
	return prev
}

func (p *Parser) sameType(sym *symbol, what string, prev, typ types.Type) {
	if _, err := types.Unify(prev, typ); err != nil {
		p.rep.Error(sym.Pos, "Conflicting %s of '%s': %v", what, sym.Name, err)
	}
	if prev != typ {
		p.rep.Error(sym.Pos, "Conflicting %s of '%s': %s and %s", what, sym.Name, prev, typ)
	}
}

// parseLocals handles `( type NAME (, type NAME)* )` after the ':'.
func (p *Parser) parseLocals() {
	p.expect(token.LParen, "'(' to open locals")
	if p.match(token.RParen) {
		return
	}
	for {
		typ := p.parseType()
		name := p.expectName()
		p.routine.frameSize += p.desc.Slot(typ.Size(p.desc))
		p.declareLocal(&symbol{Name: name.Text(), Class: symLocal, Type: typ, Pos: name.Pos, Offset: -p.routine.frameSize})
		if !p.match(token.Comma) {
			break
		}
	}
	p.expect(token.RParen, "')' after locals")
}

// parseBlock parses statements up to and including the ')' that closes the
// block opened by open.
func (p *Parser) parseBlock(open token.Token, outer bool) {
	for !p.match(token.RParen) {
		if p.atEOF() {
			p.rep.Error(open.Pos, "Unterminated block")
		}
		if p.check(token.AtParen) {
			p.advance()
			p.parseBlock(p.previous, false)
			continue
		}

		e := p.parseExpr()
		switch {
		case p.match(token.Semi):
			p.load(e)
		case p.match(token.Exit):
			p.exit(e, p.previous.Pos, outer)
			if outer {
				p.skipBlock(open)
			}
		default:
			p.rep.Error(p.current.Pos, "Expected ';' or '@;' after expression, found %s", describe(p.current))
		}
	}
}

// exit leaves the routine with e as its result. From the outer block the
// epilogue follows directly; nested blocks jump to the shared exit label.
func (p *Parser) exit(e operand, at token.Pos, outer bool) {
	p.load(p.convert(e, p.routine.sym.Type, at))
	if outer {
		return
	}
	if p.routine.exitLabel < 0 {
		p.routine.exitLabel = p.be.NewLabel()
	}
	p.be.Jump(p.routine.exitLabel)
}

// skipBlock discards the unreachable rest of the outer block, stopping before
// its closing ')'.
func (p *Parser) skipBlock(open token.Token) {
	depth, skipped := 0, 0
	start := p.current.Pos
	for {
		if p.atEOF() {
			p.rep.Error(open.Pos, "Unterminated block")
		}
		switch p.current.Type {
		case token.LParen, token.AtParen:
			depth++
		case token.RParen:
			if depth == 0 {
				if skipped > 0 {
					p.rep.Warn(config.WarnUnreachableCode, start, "Unreachable code after exit")
				}
				return
			}
			depth--
		}
		skipped++
		p.advance()
	}
}
