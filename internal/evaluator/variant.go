package evaluator

import (
	"math/rand"

	"github.com/nyxflag/flagsdk/internal/evalctx"
	"github.com/nyxflag/flagsdk/internal/fhash"
	"github.com/nyxflag/flagsdk/internal/snapshot"
)

// Variant is the answer GetVariant hands back to the host application.
type Variant struct {
	Name           string            `json:"name"`
	Payload        map[string]string `json:"payload,omitempty"`
	Enabled        bool              `json:"enabled"`
	FeatureEnabled bool              `json:"featureEnabled"`
}

func disabledVariant(featureEnabled bool) Variant {
	return Variant{Name: "disabled", FeatureEnabled: featureEnabled}
}

// GetVariant picks the variant of feature that applies to ctx. A
// disabled, unknown, or variant-less feature yields the "disabled"
// sentinel; otherwise overrides are checked first, then the sticky
// identifier is hashed across the weight table. Both the feature's
// yes/no counter and the chosen variant's exposure counter are bumped.
func (e *Evaluator) GetVariant(feature string, ctx *evalctx.Context) Variant {
	snap := e.cache.Load()
	if snap == nil {
		return disabledVariant(false)
	}
	compiled, ok := snap.Feature(feature)
	if !ok {
		compiled = e.trackUnknown(snap, feature)
	}
	featureEnabled := decide(compiled, ctx, false)
	if featureEnabled {
		compiled.IncrementYes()
	} else {
		compiled.IncrementNo()
	}
	if !featureEnabled || len(compiled.Variants) == 0 {
		compiled.IncrementDisabledVariant()
		return disabledVariant(featureEnabled)
	}
	selected := selectVariant(feature, compiled, ctx)
	selected.IncrementCount()
	return Variant{
		Name:           selected.Name,
		Payload:        selected.Payload,
		Enabled:        true,
		FeatureEnabled: true,
	}
}

// selectVariant resolves overrides in declared order, then hashes the
// sticky identifier across the summed weights. A context with no
// userId, sessionId, or remoteAddress draws uniformly at random.
func selectVariant(feature string, compiled *snapshot.CompiledFeature, ctx *evalctx.Context) *snapshot.CompiledVariant {
	for _, v := range compiled.Variants {
		for _, o := range v.Overrides {
			if o.Matches(ctx) {
				return v
			}
		}
	}

	total := compiled.TotalVariantWeight()
	identifier, ok := ctx.StickinessIdentifier()
	if !ok {
		return compiled.Variants[rand.Intn(len(compiled.Variants))]
	}

	selected := fhash.Variant(feature, identifier, total)
	var running uint32
	for _, v := range compiled.Variants {
		running += uint32(v.Weight)
		if running >= selected {
			return v
		}
	}
	// Weights sum to the hash modulus, so the walk always terminates
	// inside the loop; this is unreachable with a well-formed table.
	return compiled.Variants[len(compiled.Variants)-1]
}
