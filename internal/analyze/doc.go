// Package analyze implements a one-pass static scanner that heuristically
// flags synchronization trouble in Go source: locks that are acquired but
// never released, writes to shared package-level variables while no lock is
// held, and pairs of locks acquired in conflicting orders (circular-wait
// candidates).
//
// This is a pattern matcher over the AST, not a type-checked or
// flow-sensitive analysis. It deliberately trades precision for speed and
// zero configuration: statements are considered in lexical order, a
// receiver expression like "s.mu" is tracked by its printed text, and
// branches are not distinguished. Findings are hints for a human, feeding
// the same diagnostics surface as the runtime monitor; the runtime side is
// the authoritative detector.
package analyze
