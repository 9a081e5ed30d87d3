// Package fhash provides the deterministic hashing used for gradual
// rollouts and variant selection. Results must match the published
// conformance corpus exactly: crossing this package with another
// language's implementation of the same contract must yield identical
// buckets for identical inputs.
package fhash

import (
	"strconv"

	"github.com/spaolacci/murmur3"
)

// FeatureSeed and VariantSeed are the two MurmurHash3 seeds used across
// the conformance corpus: rollout hashing always uses FeatureSeed,
// variant-distribution hashing always uses VariantSeed.
const (
	FeatureSeed uint32 = 0
	VariantSeed uint32 = 86028157
)

// Normalised computes a 32-bit MurmurHash3 of "group:identifier" with the
// given seed and returns a value in [1, modulus].
func Normalised(group, identifier string, modulus uint32, seed uint32) uint32 {
	if modulus == 0 {
		return 1
	}
	key := make([]byte, 0, len(group)+1+len(identifier))
	key = append(key, group...)
	key = append(key, ':')
	key = append(key, identifier...)
	sum := murmur3.Sum32WithSeed(key, seed)
	return sum%modulus + 1
}

// Feature computes the rollout bucket for a feature-flag group and
// identifier, in [1, modulus].
func Feature(group, identifier string, modulus uint32) uint32 {
	return Normalised(group, identifier, modulus, FeatureSeed)
}

// Variant computes the variant-distribution bucket for a feature-flag
// group and identifier, in [1, modulus].
func Variant(group, identifier string, modulus uint32) uint32 {
	return Normalised(group, identifier, modulus, VariantSeed)
}

// FeatureInt is a convenience wrapper for integer identifiers (e.g. a
// numeric user id formatted as a string).
func FeatureInt(group string, identifier int64, modulus uint32) uint32 {
	return Feature(group, strconv.FormatInt(identifier, 10), modulus)
}
