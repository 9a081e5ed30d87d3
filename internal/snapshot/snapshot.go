// Package snapshot holds the compiled, immutable view of a feature
// catalogue plus the atomic pointer cache that swaps one
// snapshot for the next without blocking readers.
package snapshot

import (
	"sync/atomic"
	"time"

	"github.com/nyxflag/flagsdk/internal/evalctx"
)

// VariantOverride pins a variant to a specific context value, evaluated
// before weighted hashing; an override match wins outright.
type VariantOverride struct {
	ContextName string
	Values      []string
}

// Matches reports whether ctx's value for ContextName is one of Values.
func (o VariantOverride) Matches(ctx *evalctx.Context) bool {
	v, ok := ctx.Property(o.ContextName)
	if !ok {
		return false
	}
	for _, candidate := range o.Values {
		if v == candidate {
			return true
		}
	}
	return false
}

// CompiledVariant is one weighted payload choice for a feature, with its
// own exposure counter.
type CompiledVariant struct {
	Name      string
	Weight    uint16
	Payload   map[string]string
	Overrides []VariantOverride

	count atomic.Uint64
}

// IncrementCount records one exposure of this variant.
func (v *CompiledVariant) IncrementCount() { v.count.Add(1) }

// Count returns the exposures recorded since this variant was compiled.
func (v *CompiledVariant) Count() uint64 { return v.count.Load() }

// CompiledFeature is one feature's predicate set and variant table,
// compiled once per catalogue fetch, plus the yes/no/disabled-variant
// counters harvested each poll cycle.
type CompiledFeature struct {
	Known      bool
	Disabled   bool
	Strategies []evalctx.Predicate
	Variants   []*CompiledVariant

	yesCount             atomic.Uint64
	noCount              atomic.Uint64
	disabledVariantCount atomic.Uint64
}

// IncrementYes records one activation of this feature.
func (f *CompiledFeature) IncrementYes() { f.yesCount.Add(1) }

// IncrementNo records one non-activation of this feature.
func (f *CompiledFeature) IncrementNo() { f.noCount.Add(1) }

// IncrementDisabledVariant records one GetVariant call against a
// disabled (or unknown) feature, tallied under the "disabled" bucket.
func (f *CompiledFeature) IncrementDisabledVariant() { f.disabledVariantCount.Add(1) }

// YesCount returns the number of activations since compilation.
func (f *CompiledFeature) YesCount() uint64 { return f.yesCount.Load() }

// NoCount returns the number of non-activations since compilation.
func (f *CompiledFeature) NoCount() uint64 { return f.noCount.Load() }

// DisabledVariantCount returns the number of GetVariant calls tallied
// under the "disabled" bucket since compilation.
func (f *CompiledFeature) DisabledVariantCount() uint64 { return f.disabledVariantCount.Load() }

// TotalVariantWeight sums every variant's weight; it is the modulus used
// for weighted variant selection.
func (f *CompiledFeature) TotalVariantWeight() uint32 {
	var total uint32
	for _, v := range f.Variants {
		total += uint32(v.Weight)
	}
	return total
}

// Snapshot is one immutable, fully compiled view of a feature catalogue
// of a feature catalogue. A Cache swaps one Snapshot for the next
// atomically.
type Snapshot struct {
	StartedAt time.Time
	Features  map[string]*CompiledFeature
}

// New builds a Snapshot from already-compiled features.
func New(startedAt time.Time, features map[string]*CompiledFeature) *Snapshot {
	return &Snapshot{StartedAt: startedAt, Features: features}
}

// Feature looks up a compiled feature by name.
func (s *Snapshot) Feature(name string) (*CompiledFeature, bool) {
	if s == nil {
		return nil, false
	}
	f, ok := s.Features[name]
	return f, ok
}
