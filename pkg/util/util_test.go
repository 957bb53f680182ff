package util

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xplshn/tbc/pkg/config"
	"github.com/xplshn/tbc/pkg/token"
)

func newReporter(cfg *config.Config) (*Reporter, *bytes.Buffer) {
	var out bytes.Buffer
	r := NewReporter(cfg, &out)
	r.AddSource("main.tbc", []byte("U8 X = 5;\n\tU8 Y = @;\n"))
	return r, &out
}

func raise(r *Reporter, pos token.Pos) (err error) {
	defer Recover(&err)
	r.Error(pos, "Unexpected %s", "thing")
	return nil
}

func TestErrorAndRecover(t *testing.T) {
	r, _ := newReporter(config.NewConfig())
	err := raise(r, token.Pos{File: 0, Line: 2, Column: 9})
	require.Error(t, err)
	assert.EqualError(t, err, "main.tbc:2:9: error: Unexpected thing")

	var diag *Diagnostic
	require.True(t, errors.As(err, &diag))
	assert.Equal(t, "Unexpected thing", diag.Message)
	assert.Equal(t, 2, diag.Pos.Line)

	err = raise(r, token.Pos{File: -1})
	assert.EqualError(t, err, "<input>: error: Unexpected thing")
}

func TestRecoverPassesOtherPanics(t *testing.T) {
	assert.PanicsWithValue(t, "other", func() {
		var err error
		defer Recover(&err)
		panic("other")
	})
}

func TestPrint(t *testing.T) {
	r, _ := newReporter(config.NewConfig())
	err := raise(r, token.Pos{File: 0, Line: 2, Column: 9})

	var out bytes.Buffer
	r.Print(&out, err)
	assert.Equal(t, "main.tbc:2:9: error: Unexpected thing\n  \tU8 Y = @;\n          ^\n", out.String())

	out.Reset()
	r.Print(&out, errors.New("plain"))
	assert.Equal(t, "tbc: error: plain\n", out.String())

	out.Reset()
	r.Color = true
	r.Print(&out, err)
	assert.Contains(t, out.String(), "\033[31merror:\033[0m")
}

func TestWarn(t *testing.T) {
	cfg := config.NewConfig()
	r, out := newReporter(cfg)

	r.Warn(config.WarnUnreachableCode, token.Pos{File: 0, Line: 1, Column: 4}, "Something odd about '%s'", "X")
	assert.Equal(t, "main.tbc:1:4: warning: Something odd about 'X' [-Wunreachable-code]\n  U8 X = 5;\n     ^\n", out.String())

	out.Reset()
	r.Warn(config.WarnExtra, token.Pos{File: 0, Line: 1, Column: 1}, "quiet")
	assert.Empty(t, out.String())
}

func TestDebugf(t *testing.T) {
	cfg := config.NewConfig()
	r, out := newReporter(cfg)

	r.Debugf("hidden %d", 1)
	assert.Empty(t, out.String())

	cfg.Verbose = true
	r.Debugf("shown %s", "trace")
	assert.Contains(t, out.String(), "shown trace")
}

func TestFileName(t *testing.T) {
	r, _ := newReporter(config.NewConfig())
	assert.Equal(t, "main.tbc", r.FileName(0))
	assert.Equal(t, "<input>", r.FileName(3))
	assert.Equal(t, 1, r.AddSource("lib.tbc", nil))
}
