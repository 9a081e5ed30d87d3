// Package evaluator holds the hot-path entry points: IsEnabled and
// GetVariant. Both are infallible, lock-free, and allocation-free on
// the success path; the only synchronisation with the poll loop is one
// atomic snapshot load.
package evaluator

import (
	"github.com/nyxflag/flagsdk/internal/evalctx"
	"github.com/nyxflag/flagsdk/internal/snapshot"
)

// Evaluator resolves feature names against the current snapshot and
// tallies every decision into that snapshot's counters.
type Evaluator struct {
	cache *snapshot.Cache
}

// New returns an Evaluator reading from cache.
func New(cache *snapshot.Cache) *Evaluator {
	return &Evaluator{cache: cache}
}

// IsEnabled reports whether feature is on for ctx. Before the first
// snapshot exists it returns fallback and records nothing. An unknown
// feature also returns fallback, but is tracked: a placeholder is grown
// into the snapshot so subsequent lookups accumulate metrics.
func (e *Evaluator) IsEnabled(feature string, ctx *evalctx.Context, fallback bool) bool {
	snap := e.cache.Load()
	if snap == nil {
		return fallback
	}
	compiled, ok := snap.Feature(feature)
	if !ok {
		compiled = e.trackUnknown(snap, feature)
	}
	enabled := decide(compiled, ctx, fallback)
	if enabled {
		compiled.IncrementYes()
	} else {
		compiled.IncrementNo()
	}
	return enabled
}

// decide runs the compiled predicate list. A disabled feature is always
// off; a known enabled feature with no strategies is unconditionally
// on; an unknown feature resolves to fallback.
func decide(compiled *snapshot.CompiledFeature, ctx *evalctx.Context, fallback bool) bool {
	if compiled.Disabled {
		return false
	}
	for _, predicate := range compiled.Strategies {
		if predicate(ctx) {
			return true
		}
	}
	if len(compiled.Strategies) == 0 && compiled.Known {
		return true
	}
	if !compiled.Known {
		return fallback
	}
	return false
}

// trackUnknown grows the current snapshot with a known=false
// placeholder for name, so metrics for unrecognised lookups accumulate.
// The grow is a read-copy-update: clone the feature table, insert, and
// compare-and-swap. Losing the race to a rotation (or another grow) is
// fine; the placeholder from whichever snapshot is now current wins,
// and a placeholder discarded with a retired snapshot costs nothing.
func (e *Evaluator) trackUnknown(snap *snapshot.Snapshot, name string) *snapshot.CompiledFeature {
	placeholder := &snapshot.CompiledFeature{}
	for {
		features := make(map[string]*snapshot.CompiledFeature, len(snap.Features)+1)
		for k, v := range snap.Features {
			features[k] = v
		}
		features[name] = placeholder
		if e.cache.CompareAndSwap(snap, snapshot.New(snap.StartedAt, features)) {
			return placeholder
		}
		snap = e.cache.Load()
		if snap == nil {
			return placeholder
		}
		if existing, ok := snap.Feature(name); ok {
			return existing
		}
	}
}
