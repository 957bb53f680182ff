package token

import "fmt"

type Type int

const (
	Invalid Type = iota
	Comment

	// Literals
	Name
	Uint
	Int
	Char
	String

	// Symbols
	LParen   // (
	RParen   // )
	AtParen  // @(
	LBracket // [
	RBracket // ]
	AtBracket
	Colon
	Semi
	Comma
	Exit // @;
	Shl  // <
	Shr  // >
	Rol  // @<
	Ror  // @>
	Not  // !
	And  // &
	Or   // \
	Xor  // ^
	Plus
	Minus
	Star
	Slash
	Rem
	Inc // @+
	Dec // @-
	Eq

	// Keywords
	UL
	L
	US
	S
	U8
	U16
	U32
	U64
	Ifz
	Ifnz
	Ifp
	Ifnp
	Whz
	Whnz
	Whp
	Whnp
	Else
	Goto
	Break
	Next
	Only
	Use
	Macro
	Enum

	count
)

// MaxNameLength bounds identifier text in bytes.
const MaxNameLength = 15

// KeywordMap holds the upper-folded spelling of every keyword.
var KeywordMap = map[string]Type{
	"UL":    UL,
	"L":     L,
	"US":    US,
	"S":     S,
	"U8":    U8,
	"U16":   U16,
	"U32":   U32,
	"U64":   U64,
	"IFZ":   Ifz,
	"IFNZ":  Ifnz,
	"IFP":   Ifp,
	"IFNP":  Ifnp,
	"WHZ":   Whz,
	"WHNZ":  Whnz,
	"WHP":   Whp,
	"WHNP":  Whnp,
	"ELSE":  Else,
	"GOTO":  Goto,
	"BREAK": Break,
	"NEXT":  Next,
	"ONLY":  Only,
	"USE":   Use,
	"MACRO": Macro,
	"ENUM":  Enum,
}

var symbolStrings = map[Type]string{
	LParen: "(", RParen: ")", AtParen: "@(",
	LBracket: "[", RBracket: "]", AtBracket: "@[",
	Colon: ":", Semi: ";", Comma: ",", Exit: "@;",
	Shl: "<", Shr: ">", Rol: "@<", Ror: "@>",
	Not: "!", And: "&", Or: "\\", Xor: "^",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Rem: "%",
	Inc: "@+", Dec: "@-", Eq: "=",
}

// TypeStrings maps every token type to a printable name.
var TypeStrings = make(map[Type]string)

func init() {
	for str, typ := range KeywordMap {
		TypeStrings[typ] = str
	}
	for typ, str := range symbolStrings {
		TypeStrings[typ] = "'" + str + "'"
	}
	TypeStrings[Invalid] = "invalid"
	TypeStrings[Comment] = "comment"
	TypeStrings[Name] = "name"
	TypeStrings[Uint] = "unsigned literal"
	TypeStrings[Int] = "signed literal"
	TypeStrings[Char] = "char literal"
	TypeStrings[String] = "string literal"
}

func (t Type) String() string {
	if s, ok := TypeStrings[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

func (t Type) IsKeyword() bool { return t >= UL && t < count }
func (t Type) IsSymbol() bool  { return t >= LParen && t < UL }
func (t Type) IsLiteral() bool { return t >= Name && t <= String }

// IsType reports whether t starts a type specifier.
func (t Type) IsType() bool { return t >= UL && t <= U64 }

// Pos is a 1-based source position; File indexes the unit's file table.
type Pos struct {
	File   int
	Line   int
	Column int
}

// Payload is the category-dependent value of a token. The concrete type always
// matches the token's Type: NameValue for Name, UintValue for Uint, IntValue for
// Int, CharValue for Char and StrValue for String.
type Payload interface {
	payload()
	fmt.Stringer
}

type NameValue string
type UintValue uint64
type IntValue int64
type CharValue uint64

// StrValue is an offset into the shared data blob.
type StrValue int

func (NameValue) payload() {}
func (UintValue) payload() {}
func (IntValue) payload()  {}
func (CharValue) payload() {}
func (StrValue) payload()  {}

func (v NameValue) String() string { return string(v) }
func (v UintValue) String() string { return fmt.Sprintf("%d", uint64(v)) }
func (v IntValue) String() string  { return fmt.Sprintf("%d", int64(v)) }
func (v CharValue) String() string { return fmt.Sprintf("0x%X", uint64(v)) }
func (v StrValue) String() string  { return fmt.Sprintf("+%d", int(v)) }

type Token struct {
	Type    Type
	Pos     Pos
	Payload Payload
}

// Text returns the identifier text of a Name token, or "" for other tokens.
func (t Token) Text() string {
	if v, ok := t.Payload.(NameValue); ok {
		return string(v)
	}
	return ""
}

func (t Token) String() string {
	if t.Payload == nil {
		return t.Type.String()
	}
	return fmt.Sprintf("%s %s", t.Type, t.Payload)
}
