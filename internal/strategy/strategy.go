// Package strategy defines declarative entry rules consumed by the
// evaluation engine. Variants are tagged configuration records resolved
// through a registry, not a type hierarchy: one generic simulation loop
// drives every rule.
package strategy

import (
	"options-edge-lab/internal/domain"
)

// Verdict is a rule's per-bar entry decision. A nil Verdict means no
// entry opportunity on this bar.
type Verdict struct {
	Direction  domain.Direction
	Confidence float64 // 0..100
	Reason     string
}

// Rule evaluates entry conditions bar by bar. Prepare is called once per
// run with the full environment; Evaluate(i) may only read indicator
// state derived from bars 0..i.
type Rule interface {
	// ID returns the rule identifier.
	ID() string

	// Warmup returns the number of leading bars the rule needs before
	// it can produce signals.
	Warmup() int

	// Prepare precomputes the rule's indicator series for the run.
	Prepare(env *Env) error

	// Evaluate returns an entry verdict for bar i, or nil.
	Evaluate(i int, env *Env) *Verdict
}

// Invalidator is an optional exit rule: a rule that can declare an open
// position no longer justified before stop, target or timeout hit.
type Invalidator interface {
	ShouldInvalidate(i int, env *Env, dir domain.Direction) bool
}
