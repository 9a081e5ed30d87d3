// Package catalogue defines the wire schema of the remote feature
// catalogue and the compiler that turns a parsed catalogue into an
// immutable evaluation snapshot.
package catalogue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nyxflag/flagsdk/internal/strategy"
)

// Catalogue is the top-level document served by the features endpoint.
type Catalogue struct {
	Version  int       `json:"version"`
	Features []Feature `json:"features"`
}

// Feature is one toggle definition: a unique name, an enabled flag, an
// ordered strategy list, and an optional variant table. Description and
// CreatedAt are carried on the wire but ignored by evaluation.
type Feature struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Enabled     bool                `json:"enabled"`
	Strategies  []strategy.Strategy `json:"strategies"`
	Variants    []Variant           `json:"variants,omitempty"`
	CreatedAt   *time.Time          `json:"createdAt,omitempty"`
}

// Variant is one weighted alternative for an enabled feature.
type Variant struct {
	Name      string            `json:"name"`
	Weight    uint16            `json:"weight"`
	Payload   map[string]string `json:"payload,omitempty"`
	Overrides []Override        `json:"overrides,omitempty"`
}

// Override pins a variant to specific context values, bypassing the
// weighted hash.
type Override struct {
	ContextName string   `json:"contextName"`
	Values      []string `json:"values"`
}

// Parse decodes a catalogue document. In strict mode unknown fields are
// a decode error and the whole document is rejected; otherwise they are
// accepted and forgotten. Constraint objects decode through their own
// UnmarshalJSON, so unknown fields inside a constraint are accepted in
// both modes.
func Parse(data []byte, strict bool) (*Catalogue, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if strict {
		dec.DisallowUnknownFields()
	}
	var cat Catalogue
	if err := dec.Decode(&cat); err != nil {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}
	return &cat, nil
}
