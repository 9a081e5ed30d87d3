package catalogue

import (
	"log"
	"time"

	"github.com/nyxflag/flagsdk/internal/evalctx"
	"github.com/nyxflag/flagsdk/internal/snapshot"
	"github.com/nyxflag/flagsdk/internal/strategy"
)

// Compile turns a parsed catalogue into a fresh snapshot. Compilation is
// eager and pure: no I/O, no wall-clock reads beyond startedAt. Unknown
// strategy names are skipped with a log line so the feature falls
// through to its next strategy; zero-weight variants are discarded.
func Compile(cat *Catalogue, registry *strategy.Registry, startedAt time.Time) *snapshot.Snapshot {
	features := make(map[string]*snapshot.CompiledFeature, len(cat.Features))
	for _, f := range cat.Features {
		features[f.Name] = compileFeature(f, registry)
	}
	return snapshot.New(startedAt, features)
}

func compileFeature(f Feature, registry *strategy.Registry) *snapshot.CompiledFeature {
	if !f.Enabled {
		return &snapshot.CompiledFeature{Known: true, Disabled: true}
	}
	var predicates []evalctx.Predicate
	for _, s := range f.Strategies {
		predicate, ok := strategy.Compile(registry, s)
		if !ok {
			log.Printf("[catalogue] feature %s: unknown strategy %q, skipping", f.Name, s.Name)
			continue
		}
		predicates = append(predicates, predicate)
	}
	return &snapshot.CompiledFeature{
		Known:      true,
		Strategies: predicates,
		Variants:   compileVariants(f.Variants),
	}
}

func compileVariants(variants []Variant) []*snapshot.CompiledVariant {
	if len(variants) == 0 {
		return nil
	}
	compiled := make([]*snapshot.CompiledVariant, 0, len(variants))
	for _, v := range variants {
		if v.Weight == 0 {
			continue
		}
		overrides := make([]snapshot.VariantOverride, 0, len(v.Overrides))
		for _, o := range v.Overrides {
			overrides = append(overrides, snapshot.VariantOverride{
				ContextName: o.ContextName,
				Values:      o.Values,
			})
		}
		compiled = append(compiled, &snapshot.CompiledVariant{
			Name:      v.Name,
			Weight:    v.Weight,
			Payload:   v.Payload,
			Overrides: overrides,
		})
	}
	return compiled
}
