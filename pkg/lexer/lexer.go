package lexer

import (
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/xplshn/tbc/pkg/config"
	"github.com/xplshn/tbc/pkg/token"
	"github.com/xplshn/tbc/pkg/util"
)

// FileReader is satisfied by fstest.MapFS and by OSFiles.
type FileReader interface {
	ReadFile(name string) ([]byte, error)
}

// OSFiles reads paths straight from the host file system.
type OSFiles struct{}

func (OSFiles) ReadFile(name string) ([]byte, error) { return os.ReadFile(name) }

// Unit is the result of tokenizing a program: every file's tokens flattened
// into one array, plus the data blob that string literals point into.
type Unit struct {
	Files  []string
	Tokens []token.Token
	Macros map[string]bool
	Data   []byte
}

// Mark returns a position that Truncate can roll the token log back to.
func (u *Unit) Mark() int { return len(u.Tokens) }

func (u *Unit) Truncate(mark int) { u.Tokens = u.Tokens[:mark] }

// String returns the NUL-terminated blob string starting at offset.
func (u *Unit) String(offset int) string {
	end := offset
	for end < len(u.Data) && u.Data[end] != 0 {
		end++
	}
	return string(u.Data[offset:end])
}

type Lexer struct {
	unit  *Unit
	files FileReader
	cfg   *config.Config
	rep   *util.Reporter
	seen  map[uint64]bool
	depth int
}

func NewLexer(cfg *config.Config, rep *util.Reporter, files FileReader) *Lexer {
	if files == nil {
		files = OSFiles{}
	}
	macros := make(map[string]bool, len(cfg.Macros))
	for name := range cfg.Macros {
		macros[name] = true
	}
	return &Lexer{
		unit:  &Unit{Macros: macros},
		files: files,
		cfg:   cfg,
		rep:   rep,
		seen:  make(map[uint64]bool),
	}
}

// Load tokenizes path and everything it includes. Tokenizing stops at the
// first error.
func (l *Lexer) Load(path string) (unit *Unit, err error) {
	defer util.Recover(&err)
	l.include(path, token.Pos{File: -1}, "")
	return l.unit, nil
}

func (l *Lexer) include(path string, at token.Pos, dir string) {
	candidates := []string{path}
	if !filepath.IsAbs(path) {
		if dir != "" {
			candidates = append(candidates, filepath.Join(dir, path))
		}
		for _, inc := range l.cfg.IncludePaths {
			candidates = append(candidates, filepath.Join(inc, path))
		}
	}

	var content []byte
	var err error
	var found string
	for _, candidate := range candidates {
		if content, err = l.files.ReadFile(candidate); err == nil {
			found = candidate
			break
		}
	}
	if found == "" {
		l.rep.Error(at, "Cannot open file: '%s'", path)
	}

	sum := xxhash.Sum64(content)
	if l.seen[sum] && l.cfg.IsFeatureEnabled(config.FeatIncludeOnce) {
		l.rep.Debugf("File '%s' already loaded, skipping", found)
		return
	}
	l.seen[sum] = true

	if l.depth >= config.MaxIncludeDepth {
		l.rep.Error(at, "Include depth exceeded (%d levels) while loading '%s'", config.MaxIncludeDepth, path)
	}
	l.depth++
	defer func() { l.depth-- }()

	fileID := l.rep.AddSource(found, content)
	l.unit.Files = append(l.unit.Files, found)
	l.rep.Debugf("File '%s':", found)

	s := newScanner(l, fileID, content, filepath.Dir(found))
	s.run()
}
