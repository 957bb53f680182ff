package types

import (
	"errors"
	"fmt"
	"math/bits"
)

// Target is the part of an architecture descriptor the type rules depend on.
type Target interface {
	DataSize() int
	PointerSize() int
}

// Type is a value type: a base width in bytes, signedness and pointer depth.
type Type struct {
	Width  int
	Signed bool
	Depth  int
}

var (
	ErrPointerMismatch = errors.New("pointer type mismatch")
	ErrNarrowAddress   = errors.New("cannot narrow a data address")
)

func (t Type) IsPointer() bool { return t.Depth > 0 }

// Size is the effective storage width of t.
func (t Type) Size(target Target) int {
	if t.Depth > 0 {
		return target.PointerSize()
	}
	return t.Width
}

// Deref returns the type t points to.
func (t Type) Deref() Type {
	if t.Depth > 0 {
		t.Depth--
	}
	return t
}

func (t Type) Pointer() Type {
	t.Depth++
	return t
}

func (t Type) String() string {
	s := fmt.Sprintf("u%d", t.Width*8)
	if t.Signed {
		s = fmt.Sprintf("s%d", t.Width*8)
	}
	for i := 0; i < t.Depth; i++ {
		s += "*"
	}
	return s
}

// Unify checks that two types may be used interchangeably. Pointers must agree
// exactly; non-pointers combine to the wider width, signed iff both are.
func Unify(a, b Type) (Type, error) {
	if a.IsPointer() || b.IsPointer() {
		if a != b {
			return Type{}, fmt.Errorf("%w: %s and %s", ErrPointerMismatch, a, b)
		}
		return a, nil
	}
	return Combine(a, b), nil
}

// Combine is the result type of two non-pointer operands.
func Combine(a, b Type) Type {
	return Type{Width: max(a.Width, b.Width), Signed: a.Signed && b.Signed}
}

// LiteralWidth is the smallest of 1, 2, 4 and 8 bytes that holds v. Signed
// literals reserve one more bit for the sign.
func LiteralWidth(v uint64, signed bool) int {
	n := bits.Len64(v)
	if signed {
		if int64(v) < 0 {
			n = bits.Len64(^v)
		}
		n++
	}
	switch {
	case n <= 8:
		return 1
	case n <= 16:
		return 2
	case n <= 32:
		return 4
	}
	return 8
}

// Literal is the constant of an integer literal, sized by LiteralWidth.
func Literal(v uint64, signed bool) Constant {
	return Constant{Type: Type{Width: LiteralWidth(v, signed), Signed: signed}, Bits: v}
}

// Constant is a compile-time value: either an immediate bit pattern or an
// address relative to the start of the data blob.
type Constant struct {
	Type   Type
	Bits   uint64
	IsData bool
	Offset int
}

// Zero is the zero value of t.
func Zero(t Type) Constant { return Constant{Type: t} }

// Data is the address of a data blob offset, typed as a pointer to elem.
func Data(offset int, elem Type) Constant {
	return Constant{Type: elem.Pointer(), IsData: true, Offset: offset}
}

func mask(width int) uint64 {
	if width >= 8 {
		return ^uint64(0)
	}
	return 1<<(uint(width)*8) - 1
}

// Cast converts c to type to. The bits are masked to the narrower of the two
// widths and the sign is re-applied only when both sides are signed and the
// masked top bit is set, so signed constants stay sign-extended to 64 bits. A
// data address can never be narrowed.
func Cast(c Constant, to Type, target Target) (Constant, error) {
	from, dst := c.Type.Size(target), to.Size(target)
	if c.IsData {
		if dst < from {
			return Constant{}, fmt.Errorf("%w: %s to %s", ErrNarrowAddress, c.Type, to)
		}
		c.Type = to
		return c, nil
	}

	w := min(from, dst)
	v := c.Bits & mask(w)
	signed := c.Type.Signed && to.Signed && !c.Type.IsPointer() && !to.IsPointer()
	if signed && v>>(uint(w)*8-1)&1 == 1 {
		v |= ^mask(w)
	}
	return Constant{Type: to, Bits: v}, nil
}

// Extension is how a runtime value is widened.
type Extension int

const (
	NoExtension Extension = iota
	ZeroExtension
	SignExtension
)

// Extend reports how a runtime value of type from becomes type to. Narrowing
// needs no instructions; data addresses are not runtime values here.
func Extend(from, to Type, target Target) Extension {
	if to.Size(target) <= from.Size(target) {
		return NoExtension
	}
	if from.Signed && to.Signed && !from.IsPointer() && !to.IsPointer() {
		return SignExtension
	}
	return ZeroExtension
}
