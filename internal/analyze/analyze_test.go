package analyze

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSource drops a Go file into dir and returns its path.
func writeSource(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func byCategory(findings []Finding, c Category) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Category == c {
			out = append(out, f)
		}
	}
	return out
}

func TestAnalyze_UnreleasedLock(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "leak.go", `package demo

import "sync"

var mu sync.Mutex
var counter int

func leak() {
	mu.Lock()
	counter++
}

func safe() {
	mu.Lock()
	defer mu.Unlock()
	counter++
}
`)

	res, err := Analyze(dir)
	require.NoError(t, err)

	unreleased := byCategory(res.Findings, UnreleasedLock)
	require.Len(t, unreleased, 1)
	assert.Equal(t, "mu", unreleased[0].Subject)
	assert.Equal(t, 9, unreleased[0].Line)

	// counter++ happened under the lock both times.
	assert.Empty(t, byCategory(res.Findings, UnsyncedAccess))
}

func TestAnalyze_UnsynchronizedAccess(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "unsync.go", `package demo

import "sync"

var mu sync.Mutex
var counter int

func bumpUnsafe() {
	counter = counter + 1
}

func bumpSafe() {
	mu.Lock()
	counter++
	mu.Unlock()
}
`)

	res, err := Analyze(dir)
	require.NoError(t, err)

	unsynced := byCategory(res.Findings, UnsyncedAccess)
	require.Len(t, unsynced, 1, "only the unprotected package-level write counts")
	assert.Equal(t, "counter", unsynced[0].Subject)
	assert.Equal(t, 9, unsynced[0].Line)
}

func TestAnalyze_OrderInversion(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "inversion.go", `package demo

import "sync"

var a, b sync.Mutex

func one() {
	a.Lock()
	b.Lock()
	b.Unlock()
	a.Unlock()
}

func two() {
	b.Lock()
	a.Lock()
	a.Unlock()
	b.Unlock()
}
`)

	res, err := Analyze(dir)
	require.NoError(t, err)

	nested := byCategory(res.Findings, NestedLocks)
	require.Len(t, nested, 2)
	assert.Equal(t, "a -> b", nested[0].Subject)
	assert.Equal(t, "b -> a", nested[1].Subject)

	inversions := byCategory(res.Findings, OrderInversion)
	require.Len(t, inversions, 1, "one report per unordered pair")
	assert.Equal(t, "a, b", inversions[0].Subject)
}

func TestAnalyze_ConsistentOrderIsNotFlagged(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "ordered.go", `package demo

import "sync"

var a, b sync.Mutex

func one() {
	a.Lock()
	b.Lock()
	b.Unlock()
	a.Unlock()
}

func two() {
	a.Lock()
	b.Lock()
	b.Unlock()
	a.Unlock()
}
`)

	res, err := Analyze(dir)
	require.NoError(t, err)
	assert.Empty(t, byCategory(res.Findings, OrderInversion))
}

func TestAnalyze_InversionAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "one.go", `package demo

import "sync"

var a, b sync.Mutex

func one() {
	a.Lock()
	b.Lock()
	b.Unlock()
	a.Unlock()
}
`)
	writeSource(t, dir, "two.go", `package demo

func two() {
	b.Lock()
	a.Lock()
	a.Unlock()
	b.Unlock()
}
`)

	res, err := Analyze(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, res.FilesScanned)
	assert.Len(t, byCategory(res.Findings, OrderInversion), 1)
}

func TestAnalyze_SelectorReceivers(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "selector.go", `package demo

type store struct{ mu locker }
type locker struct{}

func (locker) Lock()   {}
func (locker) Unlock() {}

func (s *store) leak() {
	s.mu.Lock()
}
`)

	res, err := Analyze(dir)
	require.NoError(t, err)

	unreleased := byCategory(res.Findings, UnreleasedLock)
	require.Len(t, unreleased, 1)
	assert.Equal(t, "s.mu", unreleased[0].Subject)
}

func TestAnalyze_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "single.go", `package demo

import "sync"

var mu sync.Mutex

func leak() { mu.Lock() }
`)

	res, err := Analyze(path)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FilesScanned)
	assert.Len(t, byCategory(res.Findings, UnreleasedLock), 1)
}

func TestAnalyze_ParseErrorSurfaces(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "broken.go", "package demo\nfunc {")

	_, err := Analyze(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.go")
}

func TestFindModule(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"),
		[]byte("module example.com/widget\n\ngo 1.24.0\n"), 0o644))
	sub := filepath.Join(dir, "internal", "deep")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	path, root, err := FindModule(sub)
	require.NoError(t, err)
	assert.Equal(t, "example.com/widget", path)
	assert.Equal(t, dir, root)
}

func TestFindModule_NotInModule(t *testing.T) {
	// A bare temp dir has no go.mod anywhere above it in practice; if the
	// host happens to, the result is still well-formed, so only assert on
	// the no-error contract for the common case.
	path, _, err := FindModule(t.TempDir())
	require.NoError(t, err)
	_ = path
}
