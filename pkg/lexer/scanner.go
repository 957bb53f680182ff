package lexer

import (
	"github.com/xplshn/tbc/pkg/config"
	"github.com/xplshn/tbc/pkg/token"
)

type state int

const (
	stIdle state = iota
	stComment
	stName
	stNumber
	stChar
	stString
	stEscape
	stAt
)

var singleSymbols = map[byte]token.Type{
	'(': token.LParen, ')': token.RParen,
	'[': token.LBracket, ']': token.RBracket,
	':': token.Colon, ';': token.Semi, ',': token.Comma,
	'<': token.Shl, '>': token.Shr,
	'!': token.Not, '&': token.And, '\\': token.Or, '^': token.Xor,
	'+': token.Plus, '-': token.Minus, '*': token.Star, '/': token.Slash, '%': token.Rem,
	'=': token.Eq,
}

var atSymbols = map[byte]token.Type{
	'(': token.AtParen, '[': token.AtBracket, ';': token.Exit,
	'<': token.Rol, '>': token.Ror, '+': token.Inc, '-': token.Dec,
}

var namedEscapes = map[byte]byte{'B': '\b', 'E': 0x1B, 'N': '\n', 'R': '\r', 'T': '\t'}

// scanner is the per-file state machine. It sees one byte at a time; a byte
// that ends a token without belonging to it is fed again in the idle state.
type scanner struct {
	l    *Lexer
	src  []byte
	file int
	dir  string
	off  int
	line int
	col  int
	at   token.Pos // position of the byte being fed
	stop bool

	st    state
	start token.Pos
	typ   token.Type
	name  []byte
	num   uint64
	base  uint64
	chr   uint64
	nchr  int
	str   int

	escChar bool // escape belongs to a char literal rather than a string
	escBase uint64
	escVal  byte

	onlyMark int
	onlyNot  bool
	useMark  int
}

func newScanner(l *Lexer, file int, src []byte, dir string) *scanner {
	return &scanner{l: l, src: src, file: file, dir: dir, line: 1, col: 1, onlyMark: -1, useMark: -1}
}

func (s *scanner) run() {
	for s.off < len(s.src) && !s.stop {
		ch := s.src[s.off]
		s.at = token.Pos{File: s.file, Line: s.line, Column: s.col}
		s.off++
		if ch == '\n' {
			s.line, s.col = s.line+1, 1
		} else {
			s.col++
		}
		for s.feed(ch) && !s.stop {
		}
	}
	if !s.stop {
		s.finish()
	}
}

func isLetter(ch byte) bool { return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' }
func isDigit(ch byte) bool  { return ch >= '0' && ch <= '9' }
func isAlnum(ch byte) bool  { return isLetter(ch) || isDigit(ch) }

func upper(ch byte) byte {
	if ch >= 'a' && ch <= 'z' {
		return ch - 'a' + 'A'
	}
	return ch
}

// digit returns the value of a hex digit, or -1.
func digit(ch byte) int {
	switch ch = upper(ch); {
	case isDigit(ch):
		return int(ch - '0')
	case ch >= 'A' && ch <= 'F':
		return int(ch-'A') + 10
	}
	return -1
}

// feed advances the machine by one byte and reports whether the byte must be
// fed again.
func (s *scanner) feed(ch byte) bool {
	switch s.st {
	case stIdle:
		s.start = s.at
		switch {
		case isLetter(ch) || ch == '_' || ch == '$':
			s.st, s.name = stName, append(s.name[:0], upper(ch))
		case isDigit(ch):
			s.st, s.num = stNumber, uint64(ch-'0')
			if ch == '0' {
				s.typ, s.base = token.Uint, 8
			} else {
				s.typ, s.base = token.Int, 10
			}
		case ch == '\'':
			s.st, s.chr, s.nchr = stChar, 0, 0
		case ch == '"':
			s.st, s.str = stString, len(s.l.unit.Data)
		case ch == '#':
			s.st = stComment
		case ch == '@':
			s.st = stAt
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' || ch == '\v':
		default:
			typ, ok := singleSymbols[ch]
			if !ok {
				s.l.rep.Error(s.at, "Unexpected character: '%c'", ch)
			}
			s.emit(token.Token{Type: typ, Pos: s.start})
		}

	case stComment:
		if ch == '\n' {
			s.st = stIdle
		}

	case stName:
		if !isAlnum(ch) && ch != '_' && ch != '$' {
			s.emitName()
			return true
		}
		if len(s.name) >= token.MaxNameLength {
			s.l.rep.Error(s.start, "Identifiers can only be %d characters long, found '%c'", token.MaxNameLength, ch)
		}
		s.name = append(s.name, upper(ch))

	case stNumber:
		if d := digit(ch); d >= 0 && uint64(d) < s.base {
			s.num = s.num*s.base + uint64(d)
			return false
		}
		switch {
		case s.num == 0 && s.base == 8 && upper(ch) == 'X':
			s.base = 16
		case upper(ch) == 'U':
			s.typ = token.Uint
			s.emitNumber()
		case isAlnum(ch):
			s.l.rep.Error(s.at, "Expected base %d digit, found '%c'", s.base, ch)
		default:
			s.emitNumber()
			return true
		}

	case stChar:
		switch ch {
		case '\\':
			s.st, s.escChar, s.escBase = stEscape, true, 0
		case '\'':
			if s.nchr > 8 {
				s.l.rep.Warn(config.WarnLongCharConst, s.start, "Character constant packs %d bytes, only the last 8 are kept", s.nchr)
			}
			s.emit(token.Token{Type: token.Char, Pos: s.start, Payload: token.CharValue(s.chr)})
		default:
			s.pack(ch)
		}

	case stString:
		switch ch {
		case '\\':
			s.st, s.escChar, s.escBase = stEscape, false, 0
		case '"':
			s.l.unit.Data = append(s.l.unit.Data, 0)
			s.emit(token.Token{Type: token.String, Pos: s.start, Payload: token.StrValue(s.str)})
		default:
			s.l.unit.Data = append(s.l.unit.Data, ch)
		}

	case stEscape:
		if s.escBase == 0 {
			if b, ok := namedEscapes[upper(ch)]; ok {
				s.commit(b)
				return false
			}
			switch {
			case upper(ch) == 'X':
				s.escBase, s.escVal = 16, 0
			case ch == '0':
				s.escBase, s.escVal = 8, 0
			case isDigit(ch):
				s.escBase, s.escVal = 10, ch-'0'
			default:
				s.commit(ch)
			}
			return false
		}
		if d := digit(ch); d >= 0 && uint64(d) < s.escBase {
			s.escVal = s.escVal*byte(s.escBase) + byte(d)
			return false
		}
		s.commit(s.escVal)
		return true

	case stAt:
		typ, ok := atSymbols[ch]
		if !ok {
			s.l.rep.Error(s.start, "Expected double-char symbol, found '@%c'", ch)
		}
		s.emit(token.Token{Type: typ, Pos: s.start})
	}
	return false
}

func (s *scanner) pack(b byte) {
	s.chr = s.chr<<8 | uint64(b)
	s.nchr++
}

// commit ends an escape sequence with its decoded byte.
func (s *scanner) commit(b byte) {
	s.escBase = 0
	if s.escChar {
		s.st = stChar
		s.pack(b)
		return
	}
	s.st = stString
	s.l.unit.Data = append(s.l.unit.Data, b)
}

func (s *scanner) emitName() {
	text := string(s.name)
	tok := token.Token{Type: token.Name, Pos: s.start, Payload: token.NameValue(text)}
	if typ, ok := token.KeywordMap[text]; ok {
		tok.Type, tok.Payload = typ, nil
	}
	s.emit(tok)
}

func (s *scanner) emitNumber() {
	tok := token.Token{Type: s.typ, Pos: s.start, Payload: token.UintValue(s.num)}
	if s.typ == token.Int {
		tok.Payload = token.IntValue(int64(s.num))
	}
	s.emit(tok)
}

func (s *scanner) finish() {
	switch s.st {
	case stName:
		s.emitName()
	case stNumber:
		s.emitNumber()
	case stChar:
		s.l.rep.Error(s.start, "Unterminated character literal")
	case stString:
		s.l.rep.Error(s.start, "Unterminated string literal")
	case stEscape:
		s.l.rep.Error(s.start, "Unterminated escape sequence")
	case stAt:
		s.l.rep.Error(s.start, "Expected double-char symbol, found end of file")
	}
	if s.onlyMark >= 0 || s.useMark >= 0 {
		s.l.rep.Error(s.at, "Expected ';' to end directive, found end of file")
	}
}

// emit appends a finished token to the unit's token log and drives the
// ONLY/USE directives, which truncate the log back to the directive's mark.
func (s *scanner) emit(tok token.Token) {
	s.st = stIdle
	s.trace(tok)

	unit := s.l.unit
	unit.Tokens = append(unit.Tokens, tok)

	switch {
	case s.onlyMark >= 0:
		s.only(tok)
	case s.useMark >= 0:
		s.use(tok)
	case tok.Type == token.Only:
		s.onlyMark = unit.Mark() - 1
	case tok.Type == token.Use:
		s.useMark = unit.Mark() - 1
	}
}

func (s *scanner) only(tok token.Token) {
	unit := s.l.unit
	switch tok.Type {
	case token.Comma:
		s.onlyNot = false
	case token.Semi:
		unit.Truncate(s.onlyMark)
		s.onlyMark, s.onlyNot = -1, false
	case token.Not:
		if s.onlyNot {
			s.l.rep.Error(tok.Pos, "Expected identifier or valid symbol, found %s", tok.Type)
		}
		s.onlyNot = true
	case token.Name:
		if unit.Macros[tok.Text()] == s.onlyNot {
			// The guard failed: drop the directive and the rest of this file.
			unit.Truncate(s.onlyMark)
			s.onlyMark, s.onlyNot = -1, false
			s.stop = true
		}
	default:
		s.l.rep.Error(tok.Pos, "Expected identifier or valid symbol, found %s", tok.Type)
	}
}

func (s *scanner) use(tok token.Token) {
	unit := s.l.unit
	switch tok.Type {
	case token.String:
		offset := int(tok.Payload.(token.StrValue))
		path := unit.String(offset)
		unit.Data = unit.Data[:offset]
		unit.Truncate(s.useMark)
		s.l.include(path, tok.Pos, s.dir)
		s.useMark = unit.Mark()
	case token.Comma:
	case token.Semi:
		unit.Truncate(s.useMark)
		s.useMark = -1
	default:
		s.l.rep.Error(tok.Pos, "Expected path or valid symbol, found %s", tok.Type)
	}
}

func (s *scanner) trace(tok token.Token) {
	if tok.Payload == nil {
		s.l.rep.Debugf("  [%s]", tok.Type)
		return
	}
	if tok.Type == token.String {
		s.l.rep.Debugf("  [%-16s: %q]", tok.Type, s.l.unit.String(int(tok.Payload.(token.StrValue))))
		return
	}
	s.l.rep.Debugf("  [%-16s: %s]", tok.Type, tok.Payload)
}
