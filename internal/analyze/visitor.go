package analyze

import (
	"fmt"
	"go/ast"
	"go/token"
	"sort"
)

// Method names treated as acquisitions and releases. RWMutex read locks
// count too: a read lock participates in circular waits with writers.
var (
	acquireMethods = map[string]bool{
		"Lock": true, "RLock": true, "TryLock": true, "TryRLock": true,
	}
	releaseMethods = map[string]bool{
		"Unlock": true, "RUnlock": true,
	}
)

// scanFile scans every function in a parsed file. Cross-file state (lock
// acquisition orders) accumulates in the shared tracker.
func scanFile(fset *token.FileSet, file *ast.File, orders *orderTracker) []Finding {
	shared := packageLevelVars(file)

	var findings []Finding
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			continue
		}
		s := &funcScanner{
			fset:     fset,
			shared:   shared,
			orders:   orders,
			deferred: make(map[*ast.CallExpr]bool),
			acquired: make(map[string]token.Position),
			released: make(map[string]int),
			nested:   make(map[string]bool),
		}
		ast.Inspect(fn.Body, s.visit)
		findings = append(findings, s.finish()...)
	}
	return findings
}

// packageLevelVars collects the names declared by top-level var blocks.
// Writes to these are the shared-state accesses worth flagging.
func packageLevelVars(file *ast.File) map[string]bool {
	vars := make(map[string]bool)
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.VAR {
			continue
		}
		for _, spec := range gen.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for _, name := range vs.Names {
				if name.Name != "_" {
					vars[name.Name] = true
				}
			}
		}
	}
	return vars
}

// funcScanner holds the per-function scan state. Statements are considered
// in lexical order, which is the one-pass approximation this analyzer
// commits to.
type funcScanner struct {
	fset   *token.FileSet
	shared map[string]bool
	orders *orderTracker

	// held is the ordered stack of locks believed held at the current
	// point of the lexical walk.
	held []string

	// deferred marks Unlock calls hanging off a defer statement: they
	// count as releases, but the lock stays held for the rest of the
	// function.
	deferred map[*ast.CallExpr]bool

	acquired map[string]token.Position // first acquire position per lock
	released map[string]int
	nested   map[string]bool // ordered pairs already reported here

	findings []Finding
}

func (s *funcScanner) visit(n ast.Node) bool {
	switch n := n.(type) {
	case *ast.DeferStmt:
		if name, method, ok := lockCall(n.Call); ok && releaseMethods[method] {
			s.released[name]++
			s.deferred[n.Call] = true
		}

	case *ast.CallExpr:
		if s.deferred[n] {
			return true
		}
		name, method, ok := lockCall(n)
		if !ok {
			return true
		}
		switch {
		case acquireMethods[method]:
			s.onAcquire(name, s.fset.Position(n.Pos()))
		case releaseMethods[method]:
			s.onRelease(name)
		}

	case *ast.AssignStmt:
		// Plain assignments only: ":=" declares locals, which shadow any
		// package-level name and are not shared state.
		if n.Tok == token.DEFINE {
			return true
		}
		for _, lhs := range n.Lhs {
			s.checkSharedWrite(lhs)
		}

	case *ast.IncDecStmt:
		s.checkSharedWrite(n.X)
	}
	return true
}

func (s *funcScanner) onAcquire(name string, pos token.Position) {
	if _, ok := s.acquired[name]; !ok {
		s.acquired[name] = pos
	}

	for _, outer := range s.held {
		if outer == name {
			continue
		}
		s.orders.record(outer, name, pos)
		key := pairKey(outer, name)
		if !s.nested[key] {
			s.nested[key] = true
			s.findings = append(s.findings, Finding{
				File:     pos.Filename,
				Line:     pos.Line,
				Column:   pos.Column,
				Category: NestedLocks,
				Subject:  outer + " -> " + name,
				Message: fmt.Sprintf("lock %q acquired while holding %q",
					name, outer),
			})
		}
	}

	for _, h := range s.held {
		if h == name {
			return // re-acquire in a branch; keep a single entry
		}
	}
	s.held = append(s.held, name)
}

func (s *funcScanner) onRelease(name string) {
	s.released[name]++
	for i := len(s.held) - 1; i >= 0; i-- {
		if s.held[i] == name {
			s.held = append(s.held[:i], s.held[i+1:]...)
			return
		}
	}
}

func (s *funcScanner) checkSharedWrite(expr ast.Expr) {
	ident, ok := expr.(*ast.Ident)
	if !ok || !s.shared[ident.Name] || len(s.held) > 0 {
		return
	}
	pos := s.fset.Position(ident.Pos())
	s.findings = append(s.findings, Finding{
		File:     pos.Filename,
		Line:     pos.Line,
		Column:   pos.Column,
		Category: UnsyncedAccess,
		Subject:  ident.Name,
		Message: fmt.Sprintf("shared variable %q written without holding a lock",
			ident.Name),
	})
}

// finish emits the per-function findings that need the whole body seen:
// locks acquired but never released.
func (s *funcScanner) finish() []Finding {
	names := make([]string, 0, len(s.acquired))
	for name := range s.acquired {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if s.released[name] > 0 {
			continue
		}
		pos := s.acquired[name]
		s.findings = append(s.findings, Finding{
			File:     pos.Filename,
			Line:     pos.Line,
			Column:   pos.Column,
			Category: UnreleasedLock,
			Subject:  name,
			Message:  fmt.Sprintf("lock %q acquired but never released", name),
		})
	}
	return s.findings
}

// lockCall matches a method call on a trackable receiver expression, like
// mu.Lock() or s.state.mu.Unlock(). The receiver is identified by its
// printed text; anything not reducible to a dotted identifier chain is
// ignored.
func lockCall(call *ast.CallExpr) (subject, method string, ok bool) {
	sel, isSel := call.Fun.(*ast.SelectorExpr)
	if !isSel {
		return "", "", false
	}
	method = sel.Sel.Name
	if !acquireMethods[method] && !releaseMethods[method] {
		return "", "", false
	}
	subject = exprText(sel.X)
	if subject == "" {
		return "", "", false
	}
	return subject, method, true
}

// exprText renders an identifier or dotted selector chain; empty for
// anything else.
func exprText(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.SelectorExpr:
		base := exprText(e.X)
		if base == "" {
			return ""
		}
		return base + "." + e.Sel.Name
	case *ast.ParenExpr:
		return exprText(e.X)
	default:
		return ""
	}
}
