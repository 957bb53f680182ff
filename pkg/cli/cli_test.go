package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type options struct {
	output  string
	defines []string
	verbose bool
	wall    bool
}

func newTestSet() (*FlagSet, *options) {
	o := &options{}
	fs := NewFlagSet("test")
	fs.String(&o.output, "output", "o", "-", "Output file.", "file")
	fs.List(&o.defines, "define", "D", []string{}, "Define a macro.", "name")
	fs.Bool(&o.verbose, "verbose", "v", false, "Verbose.")
	fs.Bool(&o.wall, "Wall", "", false, "All warnings.")
	return fs, o
}

func TestParse(t *testing.T) {
	fs, o := newTestSet()
	err := fs.Parse([]string{"-o", "out.asm", "-DFOO", "--define=BAR", "-D", "BAZ", "-v", "-Wall", "in.tbc", "--", "-literal"})
	require.NoError(t, err)

	assert.Equal(t, "out.asm", o.output)
	assert.Equal(t, []string{"FOO", "BAR", "BAZ"}, o.defines)
	assert.True(t, o.verbose)
	assert.True(t, o.wall)
	assert.Equal(t, []string{"in.tbc", "-literal"}, fs.Args())
}

func TestParseErrors(t *testing.T) {
	fs, _ := newTestSet()
	assert.EqualError(t, fs.Parse([]string{"--nope"}), "unknown flag: --nope")

	fs, _ = newTestSet()
	assert.EqualError(t, fs.Parse([]string{"-q"}), "unknown shorthand flag: -q")

	fs, _ = newTestSet()
	assert.EqualError(t, fs.Parse([]string{"--output"}), "flag needs an argument: --output")

	fs, _ = newTestSet()
	assert.ErrorContains(t, fs.Parse([]string{"--verbose=maybe"}), "invalid boolean value 'maybe'")
}

func TestFlagGroup(t *testing.T) {
	fs := NewFlagSet("test")
	on, off := false, false
	fs.AddFlagGroup("Warning Flags", "Toggle warnings", "warning", "Available Warnings:", []FlagGroupEntry{
		{Name: "extra", Prefix: "W", Usage: "Extra warnings.", Enabled: &on, Disabled: &off},
	})
	require.NoError(t, fs.Parse([]string{"-Wno-extra"}))
	assert.False(t, on)
	assert.True(t, off)
	assert.NotNil(t, fs.Lookup("Wextra"))
}

func TestAppRun(t *testing.T) {
	app := NewApp("tool")
	app.Synopsis = "[options] <file>"
	app.Description = "Does a thing."
	var stdout, stderr bytes.Buffer
	app.Stdout, app.Stderr = &stdout, &stderr

	var verbose bool
	app.FlagSet.Bool(&verbose, "verbose", "v", false, "Say more.")

	var got []string
	app.Action = func(args []string) error {
		got = args
		return nil
	}
	require.NoError(t, app.Run([]string{"-v", "a", "b"}))
	assert.Equal(t, []string{"a", "b"}, got)
	assert.True(t, verbose)

	app = NewApp("tool")
	app.Stdout, app.Stderr = &stdout, &stderr
	sentinel := errors.New("boom")
	app.Action = func([]string) error { return sentinel }
	assert.ErrorIs(t, app.Run(nil), sentinel)

	app = NewApp("tool")
	app.Stdout, app.Stderr = &stdout, &stderr
	stderr.Reset()
	assert.Error(t, app.Run([]string{"--bad"}))
	assert.Contains(t, stderr.String(), "Run 'tool --help'")
}

func TestHelp(t *testing.T) {
	app := NewApp("tool")
	app.Synopsis = "[options] <file>"
	app.Description = "Does a thing."
	app.Authors = []string{"someone"}
	var out bytes.Buffer
	app.Stdout = &out

	var output string
	app.FlagSet.String(&output, "output", "o", "a.out", "Place the output into <file>.", "file")
	require.NoError(t, app.Run([]string{"--help"}))

	help := out.String()
	assert.Contains(t, help, "Copyright (c): someone and contributors")
	assert.Contains(t, help, "tool [options] <file>")
	assert.Contains(t, help, "-o, --output <file>")
	assert.Contains(t, help, "|a.out|")
	assert.Contains(t, help, "-h, --help")
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, []string{"one two", "three"}, wrapText("one two three", 8))
	assert.Empty(t, wrapText("", 8))
}
