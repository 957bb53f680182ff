package codegen

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/xplshn/tbc/pkg/types"
)

// Descriptor is the static description of a target architecture.
type Descriptor struct {
	Name         string
	DataWidth    int // natural register width in bytes
	PointerWidth int
	ExitWidth    int // widest value a routine may return
	BigEndian    bool
}

func (d Descriptor) DataSize() int    { return d.DataWidth }
func (d Descriptor) PointerSize() int { return d.PointerWidth }

// Slot rounds width up to a whole number of data words, the unit in which
// values occupy the stack.
func (d Descriptor) Slot(width int) int {
	return (width + d.DataWidth - 1) / d.DataWidth * d.DataWidth
}

// Backend is the set of code emission operations every target provides. The
// parser drives it directly while it reads the program; widths are effective
// storage widths in bytes and offsets are relative to the frame base.
type Backend interface {
	Descriptor() Descriptor

	// Init is called once before any other operation.
	Init()

	// Global opens a new public label.
	Global(name string)
	// Const serializes a sized immediate or a data blob address.
	Const(c types.Constant)
	// Data serializes raw bytes verbatim.
	Data(buf []byte)

	// EnterRoutine establishes a frame reserving frameSize bytes of locals.
	EnterRoutine(frameSize int)
	// ExitRoutine tears the frame down and returns to the caller.
	ExitRoutine()

	// LoadConst loads c into the accumulator. Values wider than a data word
	// use a second location, written high part first.
	LoadConst(c types.Constant)
	// LoadLocal loads a frame-relative value into the accumulator.
	LoadLocal(width, offset int)
	// Push spills the accumulator, high word first; Pull restores it.
	Push(width int)
	Pull(width int)
	// Call calls through the accumulator and then drops argBytes of arguments.
	Call(argBytes int)

	// ZeroExtend and SignExtend widen the accumulator in place. They do
	// nothing when newWidth <= oldWidth.
	ZeroExtend(newWidth, oldWidth int)
	SignExtend(newWidth, oldWidth int)

	// NewLabel returns a fresh label id, increasing for the backend's lifetime.
	NewLabel() int
	Label(id int)

	Jump(id int)
	JumpZero(width, id int)
	JumpNonZero(width, id int)
	JumpNonNegative(width, id int)
	JumpNegative(width, id int)
}

// DataLabel is the label under which the data blob is emitted.
const DataLabel = "DATA"

var backends = map[string]func(out *bytes.Buffer) Backend{
	"x86": func(out *bytes.Buffer) Backend { return NewX86Backend(out) },
}

// New creates the backend for target, writing into out.
func New(target string, out *bytes.Buffer) (Backend, error) {
	newBackend, ok := backends[strings.ToLower(target)]
	if !ok {
		return nil, fmt.Errorf("unsupported target '%s' (supported: %s)", target, strings.Join(Targets(), ", "))
	}
	return newBackend(out), nil
}

// Targets lists the names accepted by New.
func Targets() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
