package analyze

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Category classifies a finding.
type Category string

const (
	// UnreleasedLock: a lock has Lock calls but no Unlock anywhere in the
	// same function.
	UnreleasedLock Category = "unreleased-lock"

	// UnsyncedAccess: a package-level variable is assigned while no lock
	// is held at that point in the function.
	UnsyncedAccess Category = "unsynchronized-access"

	// NestedLocks: one lock is acquired while another is already held.
	// Informational; nesting is only dangerous when orders conflict.
	NestedLocks Category = "nested-locks"

	// OrderInversion: two locks are acquired in one order somewhere and in
	// the opposite order elsewhere, making it a circular-wait candidate.
	OrderInversion Category = "order-inversion"
)

// Finding is one reported issue, anchored to a source position.
type Finding struct {
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
	Category Category `json:"category"`
	Subject  string   `json:"subject"`
	Message  string   `json:"message"`
}

// Result aggregates an analysis run.
type Result struct {
	// ModulePath is the enclosing module's path, when a go.mod was found
	// above the analyzed tree. Empty outside a module.
	ModulePath string `json:"module_path,omitempty"`

	FilesScanned int       `json:"files_scanned"`
	Findings     []Finding `json:"findings"`
}

// Analyze scans a Go file or directory tree and returns the aggregated
// findings, ordered by position. Vendor trees, testdata and hidden
// directories are skipped. Files that fail to parse are reported as errors
// rather than silently dropped.
func Analyze(root string) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	var files []string
	if info.IsDir() {
		files, err = collectGoFiles(root)
		if err != nil {
			return nil, err
		}
	} else {
		files = []string{root}
	}

	modPath, _, err := FindModule(root)
	if err != nil {
		return nil, err
	}

	res := &Result{ModulePath: modPath}
	fset := token.NewFileSet()
	orders := newOrderTracker()

	for _, path := range files {
		file, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
		if err != nil {
			return nil, fmt.Errorf("analyze: parse %s: %w", path, err)
		}
		res.Findings = append(res.Findings, scanFile(fset, file, orders)...)
		res.FilesScanned++
	}

	res.Findings = append(res.Findings, orders.inversions()...)
	sortFindings(res.Findings)
	return res, nil
}

// collectGoFiles walks a directory tree for .go sources.
func collectGoFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (name == "vendor" || name == "testdata" ||
				strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(name, ".go") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("analyze: walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

func sortFindings(fs []Finding) {
	sort.Slice(fs, func(i, j int) bool {
		a, b := fs[i], fs[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.Category < b.Category
	})
}

// orderTracker accumulates nested lock-acquisition orders across all
// scanned files so that an inversion split over two files is still caught.
type orderTracker struct {
	// first observed position for each ordered pair "outer\x00inner".
	pairs map[string]token.Position
}

func newOrderTracker() *orderTracker {
	return &orderTracker{pairs: make(map[string]token.Position)}
}

func pairKey(outer, inner string) string { return outer + "\x00" + inner }

func (o *orderTracker) record(outer, inner string, pos token.Position) {
	key := pairKey(outer, inner)
	if _, ok := o.pairs[key]; !ok {
		o.pairs[key] = pos
	}
}

// inversions reports every unordered pair of locks observed nested in both
// orders. One finding per pair, anchored at the later-observed direction.
func (o *orderTracker) inversions() []Finding {
	keys := make([]string, 0, len(o.pairs))
	for k := range o.pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Finding
	seen := make(map[string]bool)
	for _, key := range keys {
		outer, inner, _ := strings.Cut(key, "\x00")
		reverse := pairKey(inner, outer)
		if _, ok := o.pairs[reverse]; !ok {
			continue
		}
		// Normalize so each unordered pair reports once.
		lo, hi := outer, inner
		if lo > hi {
			lo, hi = hi, lo
		}
		if seen[pairKey(lo, hi)] {
			continue
		}
		seen[pairKey(lo, hi)] = true

		pos := o.pairs[key]
		out = append(out, Finding{
			File:     pos.Filename,
			Line:     pos.Line,
			Column:   pos.Column,
			Category: OrderInversion,
			Subject:  lo + ", " + hi,
			Message: fmt.Sprintf(
				"locks %q and %q are acquired in conflicting orders; circular wait possible",
				lo, hi),
		})
	}
	return out
}
