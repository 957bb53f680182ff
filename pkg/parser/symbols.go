package parser

import (
	"github.com/xplshn/tbc/pkg/token"
	"github.com/xplshn/tbc/pkg/types"
)

type symbolClass int

const (
	symArg symbolClass = iota
	symLocal
	symGlobal
	symRoutine
	symEnum
)

var classNames = map[symbolClass]string{
	symArg:     "argument",
	symLocal:   "local",
	symGlobal:  "global",
	symRoutine: "routine",
	symEnum:    "enum constant",
}

type symbol struct {
	Name  string
	Class symbolClass
	Type  types.Type
	Pos   token.Pos

	// Offset is the frame offset of an argument or local.
	Offset int
	// Params and Defined describe routines; a routine declared by signature
	// alone stays undefined until its body is seen.
	Params  []types.Type
	Defined bool
	// Value holds an enum constant.
	Value types.Constant
}

type scope struct {
	symbols map[string]*symbol
	parent  *scope
}

func newScope(parent *scope) *scope {
	return &scope{symbols: make(map[string]*symbol), parent: parent}
}

func (s *scope) find(name string) *symbol {
	for ; s != nil; s = s.parent {
		if sym, ok := s.symbols[name]; ok {
			return sym
		}
	}
	return nil
}

// add enters sym unless the name is already taken in this scope, in which
// case the existing entry is returned.
func (s *scope) add(sym *symbol) *symbol {
	if prev, ok := s.symbols[sym.Name]; ok {
		return prev
	}
	s.symbols[sym.Name] = sym
	return nil
}
