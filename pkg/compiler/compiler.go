package compiler

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xplshn/tbc/pkg/codegen"
	"github.com/xplshn/tbc/pkg/config"
	"github.com/xplshn/tbc/pkg/lexer"
	"github.com/xplshn/tbc/pkg/parser"
	"github.com/xplshn/tbc/pkg/util"
)

// Session is one compilation. Everything that outlives a single pass, from
// the file table to the label counter, belongs to a session and dies with it.
type Session struct {
	Config   *config.Config
	Reporter *util.Reporter
}

// NewSession creates a session whose warnings and verbose trace go to diag.
func NewSession(cfg *config.Config, diag io.Writer) *Session {
	return &Session{Config: cfg, Reporter: util.NewReporter(cfg, diag)}
}

// Compile translates the program rooted at path into assembly for the
// configured target. Output is buffered and written to w only when the whole
// compilation succeeded.
func (s *Session) Compile(w io.Writer, path string, files lexer.FileReader) error {
	var out bytes.Buffer
	be, err := codegen.New(s.Config.Target, &out)
	if err != nil {
		return err
	}

	s.Reporter.Debugf("Target %s, macros [%s]", s.Config.Target, strings.Join(s.Config.MacroNames(), " "))
	unit, err := lexer.NewLexer(s.Config, s.Reporter, files).Load(path)
	if err != nil {
		return err
	}
	s.Reporter.Debugf("Loaded %d file(s), %d tokens, %d data bytes", len(unit.Files), len(unit.Tokens), len(unit.Data))

	if err := parser.NewParser(unit, be, s.Reporter).Parse(); err != nil {
		return err
	}

	if _, err := out.WriteTo(w); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
