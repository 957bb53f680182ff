package lexer

import (
	"bytes"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xplshn/tbc/pkg/config"
	"github.com/xplshn/tbc/pkg/token"
	"github.com/xplshn/tbc/pkg/util"
)

func load(t *testing.T, cfg *config.Config, files fstest.MapFS, path string) (*Unit, string, error) {
	t.Helper()
	var diag bytes.Buffer
	unit, err := NewLexer(cfg, util.NewReporter(cfg, &diag), files).Load(path)
	return unit, diag.String(), err
}

func lex(t *testing.T, src string) *Unit {
	t.Helper()
	unit, _, err := load(t, config.NewConfig(), fstest.MapFS{"main.tbc": {Data: []byte(src)}}, "main.tbc")
	require.NoError(t, err)
	return unit
}

// render shows a token log as a compact string list.
func render(unit *Unit) []string {
	out := make([]string, len(unit.Tokens))
	for i, tok := range unit.Tokens {
		out[i] = tok.String()
	}
	return out
}

func TestNumbers(t *testing.T) {
	unit := lex(t, "10 010 0x1F 0XfF 7u 0 0u 18446744073709551615")
	assert.Equal(t, []token.Token{
		{Type: token.Int, Pos: token.Pos{File: 0, Line: 1, Column: 1}, Payload: token.IntValue(10)},
		{Type: token.Uint, Pos: token.Pos{File: 0, Line: 1, Column: 4}, Payload: token.UintValue(8)},
		{Type: token.Uint, Pos: token.Pos{File: 0, Line: 1, Column: 8}, Payload: token.UintValue(31)},
		{Type: token.Uint, Pos: token.Pos{File: 0, Line: 1, Column: 13}, Payload: token.UintValue(255)},
		{Type: token.Uint, Pos: token.Pos{File: 0, Line: 1, Column: 18}, Payload: token.UintValue(7)},
		{Type: token.Uint, Pos: token.Pos{File: 0, Line: 1, Column: 21}, Payload: token.UintValue(0)},
		{Type: token.Uint, Pos: token.Pos{File: 0, Line: 1, Column: 23}, Payload: token.UintValue(0)},
		{Type: token.Int, Pos: token.Pos{File: 0, Line: 1, Column: 26}, Payload: token.IntValue(-1)},
	}, unit.Tokens)
}

func TestNamesAndKeywords(t *testing.T) {
	unit := lex(t, "abc_$1 IFZ ifz IfZ u8 U64* enum _x")
	assert.Equal(t, []string{
		"name ABC_$1", "IFZ", "IFZ", "IFZ", "U8", "U64", "'*'", "ENUM", "name _X",
	}, render(unit))
}

func TestSymbols(t *testing.T) {
	unit := lex(t, "( ) [ ] : ; , < > ! & \\ ^ + - * / % = @( @[ @; @< @> @+ @-")
	want := []token.Type{
		token.LParen, token.RParen, token.LBracket, token.RBracket, token.Colon, token.Semi,
		token.Comma, token.Shl, token.Shr, token.Not, token.And, token.Or, token.Xor,
		token.Plus, token.Minus, token.Star, token.Slash, token.Rem, token.Eq,
		token.AtParen, token.AtBracket, token.Exit, token.Rol, token.Ror, token.Inc, token.Dec,
	}
	require.Len(t, unit.Tokens, len(want))
	for i, typ := range want {
		assert.Equal(t, typ, unit.Tokens[i].Type, "token %d", i)
	}
}

func TestStringsAndEscapes(t *testing.T) {
	unit := lex(t, `"\n\x41\0101\65\q" "\t\E"`)
	assert.Equal(t, []byte("\nAAAq\x00\t\x1B\x00"), unit.Data)
	assert.Equal(t, []string{"string literal +0", "string literal +6"}, render(unit))
	assert.Equal(t, "\nAAAq", unit.String(0))
}

func TestCharLiterals(t *testing.T) {
	unit := lex(t, `'AB' '\n' '\x41G' '\x4142'`)
	assert.Equal(t, []string{"char literal 0x4142", "char literal 0xA", "char literal 0x4147", "char literal 0x42"}, render(unit))

	_, diag, err := load(t, config.NewConfig(), fstest.MapFS{"main.tbc": {Data: []byte("'123456789'")}}, "main.tbc")
	require.NoError(t, err)
	assert.Contains(t, diag, "main.tbc:1:1: warning: Character constant packs 9 bytes, only the last 8 are kept [-Wlong-char-const]")
}

func TestCommentsAndPositions(t *testing.T) {
	unit := lex(t, "A # ignored ; B\n  B\r\n\tC")
	require.Len(t, unit.Tokens, 3)
	assert.Equal(t, token.Pos{File: 0, Line: 1, Column: 1}, unit.Tokens[0].Pos)
	assert.Equal(t, token.Pos{File: 0, Line: 2, Column: 3}, unit.Tokens[1].Pos)
	assert.Equal(t, token.Pos{File: 0, Line: 3, Column: 2}, unit.Tokens[2].Pos)
}

func TestLexErrors(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"@x", "main.tbc:1:1: error: Expected double-char symbol, found '@x'"},
		{"A @", "Expected double-char symbol, found end of file"},
		{"0x1G", "main.tbc:1:4: error: Expected base 16 digit, found 'G'"},
		{"09", "Expected base 8 digit, found '9'"},
		{"12a", "Expected base 10 digit, found 'a'"},
		{"ABCDEFGHIJKLMNOP", "Identifiers can only be 15 characters long, found 'P'"},
		{"A ` B", "main.tbc:1:3: error: Unexpected character: '`'"},
		{`"abc`, "Unterminated string literal"},
		{`'a`, "Unterminated character literal"},
		{`"\x4`, "Unterminated escape sequence"},
		{"ONLY 1;", "Expected identifier or valid symbol, found signed literal"},
		{"ONLY !!FOO;", "Expected identifier or valid symbol, found '!'"},
		{"ONLY !FOO", "Expected ';' to end directive, found end of file"},
		{"USE A;", "Expected path or valid symbol, found name"},
		{`USE "missing.tbc";`, "main.tbc:1:5: error: Cannot open file: 'missing.tbc'"},
	}
	for _, tc := range cases {
		_, _, err := load(t, config.NewConfig(), fstest.MapFS{"main.tbc": {Data: []byte(tc.src)}}, "main.tbc")
		assert.ErrorContains(t, err, tc.want, "%q", tc.src)
	}

	_, _, err := load(t, config.NewConfig(), fstest.MapFS{}, "nowhere.tbc")
	assert.EqualError(t, err, "<input>: error: Cannot open file: 'nowhere.tbc'")
}

func TestOnly(t *testing.T) {
	cfg := config.NewConfig()
	files := fstest.MapFS{
		"skip.tbc": {Data: []byte("A; ONLY FOO; B; C;")},
		"keep.tbc": {Data: []byte("A; ONLY !FOO; B;")},
		"many.tbc": {Data: []byte("ONLY foo, !BAR; B;")},
		"fail.tbc": {Data: []byte("A; ONLY FOO, BAR; B;")},
	}

	unit, _, err := load(t, cfg, files, "skip.tbc")
	require.NoError(t, err)
	assert.Equal(t, []string{"name A", "';'"}, render(unit))

	unit, _, err = load(t, cfg, files, "keep.tbc")
	require.NoError(t, err)
	assert.Equal(t, []string{"name A", "';'", "name B", "';'"}, render(unit))

	cfg.Define("foo")
	unit, _, err = load(t, cfg, files, "many.tbc")
	require.NoError(t, err)
	assert.Equal(t, []string{"name B", "';'"}, render(unit))

	unit, _, err = load(t, cfg, files, "fail.tbc")
	require.NoError(t, err)
	assert.Equal(t, []string{"name A", "';'"}, render(unit))
}

func TestOnlyEndsAtFileBoundary(t *testing.T) {
	files := fstest.MapFS{
		"main.tbc": {Data: []byte(`USE "opt.tbc"; X;`)},
		"opt.tbc":  {Data: []byte("ONLY FEATURE; Y;")},
	}
	unit, _, err := load(t, config.NewConfig(), files, "main.tbc")
	require.NoError(t, err)
	assert.Equal(t, []string{"name X", "';'"}, render(unit))
}

func TestUse(t *testing.T) {
	files := fstest.MapFS{
		"main.tbc":      {Data: []byte(`"pre" USE "lib.tbc", "src/inner.tbc"; B;`)},
		"lib.tbc":       {Data: []byte("A;")},
		"src/inner.tbc": {Data: []byte(`USE "leaf.tbc";`)},
		"src/leaf.tbc":  {Data: []byte("LEAF;")},
	}
	unit, _, err := load(t, config.NewConfig(), files, "main.tbc")
	require.NoError(t, err)
	assert.Equal(t, []string{"string literal +0", "name A", "';'", "name LEAF", "';'", "name B", "';'"}, render(unit))
	assert.Equal(t, []string{"main.tbc", "lib.tbc", "src/inner.tbc", "src/leaf.tbc"}, unit.Files)
	assert.Equal(t, []byte("pre\x00"), unit.Data, "include paths are dropped from the blob")
	assert.Equal(t, 1, unit.Tokens[1].Pos.File)
}

func TestIncludePaths(t *testing.T) {
	cfg := config.NewConfig()
	cfg.IncludePaths = []string{"sys"}
	files := fstest.MapFS{
		"main.tbc":    {Data: []byte(`USE "std.tbc";`)},
		"sys/std.tbc": {Data: []byte("STD;")},
	}
	unit, _, err := load(t, cfg, files, "main.tbc")
	require.NoError(t, err)
	assert.Equal(t, []string{"name STD", "';'"}, render(unit))
}

func TestIncludeOnce(t *testing.T) {
	files := fstest.MapFS{
		"main.tbc": {Data: []byte(`USE "lib.tbc", "lib.tbc"; USE "copy.tbc";`)},
		"lib.tbc":  {Data: []byte("A;")},
		"copy.tbc": {Data: []byte("A;")},
		"self.tbc": {Data: []byte(`USE "self.tbc";`)},
	}

	unit, _, err := load(t, config.NewConfig(), files, "main.tbc")
	require.NoError(t, err)
	assert.Equal(t, []string{"name A", "';'"}, render(unit))

	_, _, err = load(t, config.NewConfig(), files, "self.tbc")
	assert.NoError(t, err)

	cfg := config.NewConfig()
	cfg.SetFeature(config.FeatIncludeOnce, false)
	unit, _, err = load(t, cfg, files, "main.tbc")
	require.NoError(t, err)
	assert.Len(t, unit.Tokens, 6)

	_, _, err = load(t, cfg, files, "self.tbc")
	assert.ErrorContains(t, err, "Include depth exceeded")
}

func TestVerboseTrace(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Verbose = true
	_, diag, err := load(t, cfg, fstest.MapFS{"main.tbc": {Data: []byte(`abc "s" 5`)}}, "main.tbc")
	require.NoError(t, err)
	assert.Contains(t, diag, "File 'main.tbc':")
	assert.Contains(t, diag, "ABC")
	assert.Contains(t, diag, `"s"`)
	assert.Contains(t, diag, "signed literal")
}

func TestUnitString(t *testing.T) {
	u := &Unit{Data: []byte("ab\x00cd")}
	assert.Equal(t, "ab", u.String(0))
	assert.Equal(t, "cd", u.String(3))

	u.Tokens = make([]token.Token, 4)
	mark := u.Mark()
	u.Tokens = append(u.Tokens, token.Token{Type: token.Semi})
	u.Truncate(mark)
	assert.Len(t, u.Tokens, 4)
}
