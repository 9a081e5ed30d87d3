// Package strategy compiles one activation strategy into a Context
// predicate, wrapped by its own constraints.
package strategy

import (
	"github.com/nyxflag/flagsdk/internal/constraint"
	"github.com/nyxflag/flagsdk/internal/evalctx"
)

// Strategy is the wire schema of one activation strategy entry: a
// name dispatched against the registry, opaque string
// parameters interpreted by that strategy kind, and an ANDed list of
// gating constraints.
type Strategy struct {
	Name        string                  `json:"name"`
	Parameters  map[string]string       `json:"parameters,omitempty"`
	Constraints []constraint.Constraint `json:"constraints,omitempty"`
}

// Compiler turns one strategy's parameters into a predicate, before its
// constraints are applied. Host-registered custom strategies implement
// this signature to plug in custom strategies.
type Compiler func(parameters map[string]string) evalctx.Predicate

// Compile resolves s.Name against registry and wraps the resulting
// predicate with s.Constraints. It returns ok=false for an unknown
// strategy name so the feature compiler can skip it.
func Compile(registry *Registry, s Strategy) (predicate evalctx.Predicate, ok bool) {
	compiler, ok := registry.lookup(s.Name)
	if !ok {
		return nil, false
	}
	return constrain(s.Constraints, compiler(s.Parameters)), true
}

// constrain wraps a strategy predicate so it only fires when every
// constraint passes; constraints are ANDed.
func constrain(constraints []constraint.Constraint, predicate evalctx.Predicate) evalctx.Predicate {
	if len(constraints) == 0 {
		return predicate
	}
	compiled := make([]evalctx.Predicate, len(constraints))
	for i, c := range constraints {
		compiled[i] = constraint.Compile(c)
	}
	return func(ctx *evalctx.Context) bool {
		for _, c := range compiled {
			if !c(ctx) {
				return false
			}
		}
		return predicate(ctx)
	}
}
