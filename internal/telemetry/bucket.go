// Package telemetry accumulates per-feature usage counts and exposes
// them two ways: as a Bucket posted to the control plane each poll
// cycle, and as Prometheus series for local scraping.
package telemetry

import (
	"time"

	"github.com/nyxflag/flagsdk/internal/snapshot"
)

// ToggleCounts is one feature's tally for a metrics interval.
type ToggleCounts struct {
	Yes      uint64            `json:"yes"`
	No       uint64            `json:"no"`
	Variants map[string]uint64 `json:"variants,omitempty"`
}

// Bucket is one metrics interval: it opens when its snapshot was
// compiled and closes when the snapshot is retired. Features with zero
// activity are still listed; their presence mirrors the catalogue.
type Bucket struct {
	Start   time.Time               `json:"start"`
	Stop    time.Time               `json:"stop"`
	Toggles map[string]ToggleCounts `json:"toggles"`
}

// Harvest reads every counter out of a retired snapshot into a Bucket.
// The caller must have already swapped the snapshot out of the cache:
// harvesting assumes exclusive ownership, so late increments from
// evaluations that raced the swap are included and none are lost.
func Harvest(retired *snapshot.Snapshot, stop time.Time) *Bucket {
	if retired == nil {
		return nil
	}
	toggles := make(map[string]ToggleCounts, len(retired.Features))
	for name, feature := range retired.Features {
		counts := ToggleCounts{
			Yes: feature.YesCount(),
			No:  feature.NoCount(),
		}
		if len(feature.Variants) > 0 || feature.DisabledVariantCount() > 0 {
			counts.Variants = make(map[string]uint64, len(feature.Variants)+1)
			for _, v := range feature.Variants {
				counts.Variants[v.Name] = v.Count()
			}
			if n := feature.DisabledVariantCount(); n > 0 {
				counts.Variants["disabled"] = n
			}
		}
		toggles[name] = counts
	}
	return &Bucket{Start: retired.StartedAt, Stop: stop, Toggles: toggles}
}
