package codegen

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xplshn/tbc/pkg/types"
)

// X86 describes 32-bit x86: eax holds the accumulator's low word and edx the
// high word of values wider than 4 bytes.
var X86 = Descriptor{Name: "x86", DataWidth: 4, PointerWidth: 4, ExitWidth: 8}

type x86Backend struct {
	out        *bytes.Buffer
	labelCount int
}

// NewX86Backend returns a backend that writes NASM source to out.
func NewX86Backend(out *bytes.Buffer) Backend { return &x86Backend{out: out} }

func (b *x86Backend) Descriptor() Descriptor { return X86 }

func (b *x86Backend) emit(format string, args ...any) {
	fmt.Fprintf(b.out, "  "+format+"\n", args...)
}

// words is the number of 4-byte registers or stack slots width needs.
func words(width int) int { return (width + 3) / 4 }

func register(width int) string {
	switch width {
	case 1:
		return "al"
	case 2:
		return "ax"
	}
	return "eax"
}

func frame(offset int) string {
	switch {
	case offset > 0:
		return fmt.Sprintf("[ebp + %d]", offset)
	case offset < 0:
		return fmt.Sprintf("[ebp - %d]", -offset)
	}
	return "[ebp]"
}

func (b *x86Backend) Init() {
	b.out.WriteString("[bits 32]\n")
}

func (b *x86Backend) Global(name string) {
	fmt.Fprintf(b.out, "\nglobal %s\n\n%s:\n", name, name)
}

func (b *x86Backend) Const(c types.Constant) {
	if c.IsData {
		b.emit("dd (%s + %d)", DataLabel, c.Offset)
		if c.Type.Size(X86) > 4 {
			b.emit("dd 0x00000000")
		}
		return
	}
	switch c.Type.Size(X86) {
	case 1:
		b.emit("db 0x%02X", c.Bits&0xFF)
	case 2:
		b.emit("dw 0x%04X", c.Bits&0xFFFF)
	case 4:
		b.emit("dd 0x%08X", c.Bits&0xFFFFFFFF)
	default:
		b.emit("dq 0x%016X", c.Bits)
	}
}

func (b *x86Backend) Data(buf []byte) {
	for len(buf) > 0 {
		n := min(len(buf), 16)
		parts := make([]string, n)
		for i, v := range buf[:n] {
			parts[i] = fmt.Sprintf("0x%02X", v)
		}
		b.emit("db %s", strings.Join(parts, ", "))
		buf = buf[n:]
	}
}

func (b *x86Backend) EnterRoutine(frameSize int) {
	b.emit("mov ebp, esp")
	if frameSize > 0 {
		b.emit("sub esp, %d", frameSize)
	}
}

func (b *x86Backend) ExitRoutine() {
	b.emit("mov esp, ebp")
	b.emit("ret")
}

func (b *x86Backend) LoadConst(c types.Constant) {
	if c.IsData {
		if c.Type.Size(X86) > 4 {
			b.emit("mov edx, 0x00000000")
		}
		b.emit("mov eax, (%s + %d)", DataLabel, c.Offset)
		return
	}
	switch width := c.Type.Size(X86); {
	case width == 1:
		b.emit("mov al, 0x%02X", c.Bits&0xFF)
	case width == 2:
		b.emit("mov ax, 0x%04X", c.Bits&0xFFFF)
	case width <= 4:
		b.emit("mov eax, 0x%08X", c.Bits&0xFFFFFFFF)
	default:
		b.emit("mov edx, 0x%08X", c.Bits>>32)
		b.emit("mov eax, 0x%08X", c.Bits&0xFFFFFFFF)
	}
}

func (b *x86Backend) LoadLocal(width, offset int) {
	switch width {
	case 1:
		b.emit("movzx eax, byte %s", frame(offset))
	case 2:
		b.emit("movzx eax, word %s", frame(offset))
	default:
		b.emit("mov eax, %s", frame(offset))
	}
	if words(width) > 1 {
		b.emit("mov edx, %s", frame(offset+4))
	}
}

func (b *x86Backend) Push(width int) {
	if words(width) > 1 {
		b.emit("push edx")
	}
	b.emit("push eax")
}

func (b *x86Backend) Pull(width int) {
	b.emit("pop eax")
	if words(width) > 1 {
		b.emit("pop edx")
	}
}

func (b *x86Backend) Call(argBytes int) {
	b.emit("push ebp")
	b.emit("call eax")
	b.emit("pop ebp")
	if argBytes > 0 {
		b.emit("add esp, %d", argBytes)
	}
}

// No single instruction extends eax into edx, so crossing the word boundary
// builds edx from scratch.

func (b *x86Backend) ZeroExtend(newWidth, oldWidth int) {
	if newWidth <= oldWidth {
		return
	}
	if oldWidth < 4 {
		b.emit("movzx %s, %s", register(min(newWidth, 4)), register(oldWidth))
	}
	if newWidth > 4 {
		b.emit("xor edx, edx")
	}
}

func (b *x86Backend) SignExtend(newWidth, oldWidth int) {
	if newWidth <= oldWidth {
		return
	}
	if oldWidth < 4 {
		b.emit("movsx %s, %s", register(min(newWidth, 4)), register(oldWidth))
	}
	if newWidth > 4 {
		b.emit("mov edx, eax")
		b.emit("sar edx, 31")
	}
}

func (b *x86Backend) NewLabel() int {
	id := b.labelCount
	b.labelCount++
	return id
}

func (b *x86Backend) Label(id int) {
	fmt.Fprintf(b.out, "SUB_%d:\n", id)
}

func (b *x86Backend) Jump(id int) {
	b.emit("jmp SUB_%d", id)
}

func (b *x86Backend) test(width int) {
	reg := register(width)
	b.emit("test %s, %s", reg, reg)
}

// JumpZero needs every word to be zero: a nonzero high word skips the low test.
func (b *x86Backend) JumpZero(width, id int) {
	if words(width) > 1 {
		skip := b.NewLabel()
		b.emit("test edx, edx")
		b.emit("jnz SUB_%d", skip)
		b.test(4)
		b.emit("jz SUB_%d", id)
		b.Label(skip)
		return
	}
	b.test(width)
	b.emit("jz SUB_%d", id)
}

// JumpNonZero is taken as soon as any word is nonzero.
func (b *x86Backend) JumpNonZero(width, id int) {
	if words(width) > 1 {
		b.emit("test edx, edx")
		b.emit("jnz SUB_%d", id)
		b.test(4)
		b.emit("jnz SUB_%d", id)
		return
	}
	b.test(width)
	b.emit("jnz SUB_%d", id)
}

// The sign tests only look at the most significant word.

func (b *x86Backend) JumpNonNegative(width, id int) {
	if words(width) > 1 {
		b.emit("test edx, edx")
	} else {
		b.test(width)
	}
	b.emit("jns SUB_%d", id)
}

func (b *x86Backend) JumpNegative(width, id int) {
	if words(width) > 1 {
		b.emit("test edx, edx")
	} else {
		b.test(width)
	}
	b.emit("js SUB_%d", id)
}
