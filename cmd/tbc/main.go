package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/xplshn/tbc/pkg/cli"
	"github.com/xplshn/tbc/pkg/codegen"
	"github.com/xplshn/tbc/pkg/compiler"
	"github.com/xplshn/tbc/pkg/config"
	"github.com/xplshn/tbc/pkg/lexer"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	app := cli.NewApp("tbc")
	app.Synopsis = "[options] <input.tbc>"
	app.Description = "A single-pass retargetable compiler for TBC. Reads one program, follows its USE directives and prints assembly for the selected target."
	app.Authors = []string{"xplshn"}
	app.Repository = "<https://github.com/xplshn/tbc>"
	app.Stdout, app.Stderr = stdout, stderr

	var (
		outFile      string
		target       string
		macros       []string
		includePaths []string
		verbose      bool
		wall         bool
		wnoall       bool
	)

	fs := app.FlagSet
	fs.String(&outFile, "output", "o", "-", "Place the output into <file> ('-' for standard output).", "file")
	fs.String(&target, "target", "t", config.DefaultTarget, "Select the backend ("+strings.Join(codegen.Targets(), ", ")+").", "target")
	fs.List(&macros, "define", "D", []string{}, "Define a macro name for ONLY directives.", "name")
	fs.List(&includePaths, "include", "I", []string{}, "Add a directory to the USE search path.", "path")
	fs.Bool(&verbose, "verbose", "v", false, "Log every token as it is scanned.")
	fs.Bool(&wall, "Wall", "", false, "Enable all warnings.")
	fs.Bool(&wnoall, "Wno-all", "", false, "Disable all warnings.")

	cfg := config.NewConfig()
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)

	status := 0
	app.Action = func(inputFiles []string) error {
		if len(inputFiles) != 1 {
			err := fmt.Errorf("expected exactly one input file, got %d", len(inputFiles))
			fmt.Fprintf(stderr, "tbc: error: %v\n", err)
			status = 1
			return err
		}

		if wall {
			cfg.SetAllWarnings(true)
		}
		if wnoall {
			cfg.SetAllWarnings(false)
		}
		cfg.ApplyFlagGroups(warningFlags, featureFlags)
		cfg.SetTarget(target)
		cfg.Define(macros...)
		cfg.IncludePaths = append(cfg.IncludePaths, includePaths...)
		cfg.Verbose = verbose

		session := compiler.NewSession(cfg, stderr)
		session.Reporter.Color = isTerminal(stderr)

		out := stdout
		var file *os.File
		if outFile != "-" {
			f, err := os.CreateTemp(filepath.Dir(outFile), ".tbc-*.asm")
			if err != nil {
				session.Reporter.Print(stderr, err)
				status = 1
				return err
			}
			file, out = f, f
			defer os.Remove(f.Name())
		}

		if err := session.Compile(out, inputFiles[0], lexer.OSFiles{}); err != nil {
			session.Reporter.Print(stderr, err)
			if file != nil {
				file.Close()
			}
			status = 1
			return err
		}

		if file != nil {
			if err := finish(file, outFile); err != nil {
				session.Reporter.Print(stderr, err)
				status = 1
				return err
			}
		}
		return nil
	}

	if err := app.Run(args); err != nil && status == 0 {
		status = 2
	}
	return status
}

// finish moves a completed temporary output file into place.
func finish(file *os.File, path string) error {
	if err := file.Close(); err != nil {
		return fmt.Errorf("writing '%s': %w", path, err)
	}
	if err := os.Rename(file.Name(), path); err != nil {
		return fmt.Errorf("writing '%s': %w", path, err)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
