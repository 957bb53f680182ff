// tgolden compiles every TBC program in a directory and compares the result
// with the golden file next to it: <name>.asm for programs that compile and
// <name>.err for programs that must be rejected.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/xplshn/tbc/pkg/compiler"
	"github.com/xplshn/tbc/pkg/config"
	"github.com/xplshn/tbc/pkg/lexer"
)

var (
	dir     = flag.String("dir", "tests", "Directory holding the .tbc programs and their golden files.")
	update  = flag.Bool("update", false, "Rewrite golden files from the current compiler output.")
	jobs    = flag.Int("j", 4, "Number of programs compiled in parallel.")
	verbose = flag.Bool("v", false, "Print passing programs too.")
)

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cNone   = "\x1b[0m"
)

type status string

const (
	statusPass    status = "PASS"
	statusFail    status = "FAIL"
	statusSkip    status = "SKIP"
	statusUpdated status = "UPDATED"
	statusError   status = "ERROR"
)

type result struct {
	File    string
	Status  status
	Message string
	Diff    string
}

func main() {
	flag.Parse()
	log.SetFlags(0)

	results, err := runSuite(*dir, *update, max(*jobs, 1))
	if err != nil {
		log.Fatalf("%s[ERROR]%s %v", cRed, cNone, err)
	}
	if !report(os.Stdout, results, *verbose) {
		os.Exit(1)
	}
}

// runSuite checks every program under dir. Programs whose contents hash
// equal to an earlier one are skipped.
func runSuite(dir string, update bool, jobs int) ([]*result, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.tbc"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .tbc files in '%s'", dir)
	}
	sort.Strings(files)

	results := make([]*result, len(files))
	seen := make(map[uint64]string)
	var pending []int
	for i, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			results[i] = &result{File: file, Status: statusError, Message: err.Error()}
			continue
		}
		sum := xxhash.Sum64(content)
		if first, ok := seen[sum]; ok {
			results[i] = &result{File: file, Status: statusSkip, Message: "same contents as " + first}
			continue
		}
		seen[sum] = file
		pending = append(pending, i)
	}

	work := make(chan int)
	var wg sync.WaitGroup
	for range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				results[i] = check(files[i], update)
			}
		}()
	}
	for _, i := range pending {
		work <- i
	}
	close(work)
	wg.Wait()
	return results, nil
}

// compile runs one program through a fresh session, returning either the
// assembly or the rendered diagnostic.
func compile(file string) (asm string, diag string, failed bool) {
	cfg := config.NewConfig()
	cfg.IncludePaths = []string{filepath.Dir(file)}

	var out, warnings bytes.Buffer
	session := compiler.NewSession(cfg, &warnings)
	if err := session.Compile(&out, file, lexer.OSFiles{}); err != nil {
		var msg bytes.Buffer
		session.Reporter.Print(&msg, err)
		return "", msg.String(), true
	}
	return out.String(), "", false
}

func check(file string, update bool) *result {
	res := &result{File: file, Status: statusPass}
	asm, diag, failed := compile(file)

	base := strings.TrimSuffix(file, filepath.Ext(file))
	golden, got := base+".asm", asm
	if failed {
		golden, got = base+".err", diag
	}

	if update {
		if err := os.WriteFile(golden, []byte(got), 0o644); err != nil {
			res.Status, res.Message = statusError, err.Error()
			return res
		}
		res.Status = statusUpdated
		return res
	}

	want, err := os.ReadFile(golden)
	if errors.Is(err, os.ErrNotExist) {
		res.Status = statusFail
		res.Message = fmt.Sprintf("missing golden file %s", filepath.Base(golden))
		if failed {
			res.Message += ": " + strings.TrimSpace(diag)
		}
		return res
	}
	if err != nil {
		res.Status, res.Message = statusError, err.Error()
		return res
	}

	if diff := cmp.Diff(string(want), got); diff != "" {
		res.Status, res.Diff = statusFail, diff
	}
	return res
}

// report prints the results and whether every program passed.
func report(w io.Writer, results []*result, verbose bool) bool {
	counts := make(map[status]int)
	for _, res := range results {
		counts[res.Status]++
		switch res.Status {
		case statusPass:
			if verbose {
				fmt.Fprintf(w, "%s[PASS]%s %s\n", cGreen, cNone, res.File)
			}
		case statusSkip, statusUpdated:
			fmt.Fprintf(w, "%s[%s]%s %s %s\n", cYellow, res.Status, cNone, res.File, res.Message)
		default:
			fmt.Fprintf(w, "%s[%s]%s %s %s\n", cRed, res.Status, cNone, res.File, res.Message)
			if res.Diff != "" {
				fmt.Fprintf(w, "(-want +got):\n%s", res.Diff)
			}
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed, %d errors, %d skipped, %d updated\n",
		counts[statusPass], counts[statusFail], counts[statusError], counts[statusSkip], counts[statusUpdated])
	return counts[statusFail] == 0 && counts[statusError] == 0
}
