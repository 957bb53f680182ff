package util

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"github.com/xplshn/tbc/pkg/config"
	"github.com/xplshn/tbc/pkg/token"
	"github.com/xplshn/tbc/pkg/translate"
)

// Diagnostic is the single fatal error kind of the compiler.
type Diagnostic struct {
	Pos     token.Pos
	File    string
	Message string
}

func (d *Diagnostic) Error() string {
	if d.Pos.Line == 0 {
		return fmt.Sprintf("%s: error: %s", d.File, d.Message)
	}
	return fmt.Sprintf("%s:%d:%d: error: %s", d.File, d.Pos.Line, d.Pos.Column, d.Message)
}

// bailout carries a Diagnostic up the stack to Recover.
type bailout struct{ diag *Diagnostic }

// Recover converts a fatal diagnostic raised by Reporter.Error into *err.
// It must be deferred directly; other panics are re-raised.
func Recover(err *error) {
	if r := recover(); r != nil {
		b, ok := r.(bailout)
		if !ok {
			panic(r)
		}
		*err = b.diag
	}
}

// SourceFile tracks the name and content of a single loaded file.
type SourceFile struct {
	Name    string
	Content []byte
}

// Reporter owns the file table of a compilation and emits every diagnostic,
// warning and verbose trace line.
type Reporter struct {
	cfg     *config.Config
	out     io.Writer
	debug   *pterm.PrefixPrinter
	Sources []SourceFile
	Color   bool
}

func NewReporter(cfg *config.Config, out io.Writer) *Reporter {
	return &Reporter{
		cfg:   cfg,
		out:   out,
		debug: pterm.Debug.WithWriter(out).WithDebugger(false),
	}
}

// AddSource registers a file and returns its index for token positions.
func (r *Reporter) AddSource(name string, content []byte) int {
	r.Sources = append(r.Sources, SourceFile{Name: name, Content: content})
	return len(r.Sources) - 1
}

func (r *Reporter) FileName(index int) string {
	if index < 0 || index >= len(r.Sources) {
		return "<input>"
	}
	return r.Sources[index].Name
}

// Error aborts the compilation with a positioned diagnostic. It never returns.
func (r *Reporter) Error(pos token.Pos, format string, args ...any) {
	panic(bailout{&Diagnostic{Pos: pos, File: r.FileName(pos.File), Message: translate.From(format, args...)}})
}

// Warn prints a warning if wt is enabled.
func (r *Reporter) Warn(wt config.Warning, pos token.Pos, format string, args ...any) {
	if !r.cfg.IsWarningEnabled(wt) {
		return
	}
	label := "warning:"
	if r.Color {
		label = "\033[33mwarning:\033[0m"
	}
	fmt.Fprintf(r.out, "%s:%d:%d: %s %s [-W%s]\n", r.FileName(pos.File), pos.Line, pos.Column,
		label, translate.From(format, args...), r.cfg.Warnings[wt].Name)
	r.printLine(pos)
}

// Debugf logs a verbose trace line; it is silent unless verbose mode is on.
func (r *Reporter) Debugf(format string, args ...any) {
	if !r.cfg.Verbose {
		return
	}
	r.debug.Printfln(format, args...)
}

// Print writes err, adding the offending source line and a caret when err is a
// Diagnostic with a known position.
func (r *Reporter) Print(w io.Writer, err error) {
	var diag *Diagnostic
	if !errors.As(err, &diag) {
		fmt.Fprintf(w, "tbc: error: %v\n", err)
		return
	}
	msg := diag.Error()
	if r.Color {
		msg = strings.Replace(msg, "error:", "\033[31merror:\033[0m", 1)
	}
	fmt.Fprintln(w, msg)
	saved := r.out
	r.out = w
	r.printLine(diag.Pos)
	r.out = saved
}

func (r *Reporter) printLine(pos token.Pos) {
	if pos.File < 0 || pos.File >= len(r.Sources) || pos.Line == 0 {
		return
	}
	lines := strings.Split(string(r.Sources[pos.File].Content), "\n")
	if pos.Line > len(lines) {
		return
	}
	line := strings.TrimRight(lines[pos.Line-1], "\r")
	fmt.Fprintf(r.out, "  %s\n", line)

	caret := "^"
	if r.Color {
		caret = "\033[32m^\033[0m"
	}
	fmt.Fprintf(r.out, "  %s%s\n", strings.Repeat(" ", max(pos.Column-1, 0)), caret)
}
