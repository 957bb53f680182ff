package codegen

import (
	"fmt"

	"github.com/xplshn/tbc/pkg/types"
)

// Recorder is a Backend that keeps a readable log of every call instead of
// emitting code. Desc defaults to X86 when left zero.
type Recorder struct {
	Desc       Descriptor
	Calls      []string
	labelCount int
}

func (r *Recorder) record(format string, args ...any) {
	r.Calls = append(r.Calls, fmt.Sprintf(format, args...))
}

func constString(c types.Constant) string {
	if c.IsData {
		return fmt.Sprintf("%s %s+%d", c.Type, DataLabel, c.Offset)
	}
	return fmt.Sprintf("%s 0x%X", c.Type, c.Bits)
}

func (r *Recorder) Descriptor() Descriptor {
	if r.Desc.Name == "" {
		return X86
	}
	return r.Desc
}

func (r *Recorder) Init()                   { r.record("Init()") }
func (r *Recorder) Global(name string)      { r.record("Global(%s)", name) }
func (r *Recorder) Const(c types.Constant)  { r.record("Const(%s)", constString(c)) }
func (r *Recorder) Data(buf []byte)         { r.record("Data(%q)", buf) }
func (r *Recorder) EnterRoutine(size int)   { r.record("EnterRoutine(%d)", size) }
func (r *Recorder) ExitRoutine()            { r.record("ExitRoutine()") }
func (r *Recorder) LoadConst(c types.Constant) {
	r.record("LoadConst(%s)", constString(c))
}
func (r *Recorder) LoadLocal(width, offset int) { r.record("LoadLocal(%d, %d)", width, offset) }
func (r *Recorder) Push(width int)              { r.record("Push(%d)", width) }
func (r *Recorder) Pull(width int)              { r.record("Pull(%d)", width) }
func (r *Recorder) Call(argBytes int)           { r.record("Call(%d)", argBytes) }

func (r *Recorder) ZeroExtend(newWidth, oldWidth int) {
	r.record("ZeroExtend(%d, %d)", newWidth, oldWidth)
}

func (r *Recorder) SignExtend(newWidth, oldWidth int) {
	r.record("SignExtend(%d, %d)", newWidth, oldWidth)
}

func (r *Recorder) NewLabel() int {
	id := r.labelCount
	r.labelCount++
	return id
}

func (r *Recorder) Label(id int)                  { r.record("Label(%d)", id) }
func (r *Recorder) Jump(id int)                   { r.record("Jump(%d)", id) }
func (r *Recorder) JumpZero(width, id int)        { r.record("JumpZero(%d, %d)", width, id) }
func (r *Recorder) JumpNonZero(width, id int)     { r.record("JumpNonZero(%d, %d)", width, id) }
func (r *Recorder) JumpNonNegative(width, id int) { r.record("JumpNonNegative(%d, %d)", width, id) }
func (r *Recorder) JumpNegative(width, id int)    { r.record("JumpNegative(%d, %d)", width, id) }
