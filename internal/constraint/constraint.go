// Package constraint compiles typed constraints into Context
// predicates. Unknown operators compile to a constant-false predicate
// rather than a parse error: a
// constraint gates a strategy, it never aborts compilation.
package constraint

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/nyxflag/flagsdk/internal/evalctx"
)

// Operator names one comparison kind in the constraint grammar.
type Operator string

const (
	OpIn            Operator = "IN"
	OpNotIn         Operator = "NOT_IN"
	OpStrContains   Operator = "STR_CONTAINS"
	OpStrStartsWith Operator = "STR_STARTS_WITH"
	OpStrEndsWith   Operator = "STR_ENDS_WITH"
	OpNumEq         Operator = "NUM_EQ"
	OpNumGt         Operator = "NUM_GT"
	OpNumGte        Operator = "NUM_GTE"
	OpNumLt         Operator = "NUM_LT"
	OpNumLte        Operator = "NUM_LTE"
	OpDateBefore    Operator = "DATE_BEFORE"
	OpDateAfter     Operator = "DATE_AFTER"
	OpSemverEq      Operator = "SEMVER_EQ"
	OpSemverGt      Operator = "SEMVER_GT"
	OpSemverLt      Operator = "SEMVER_LT"
)

// Constraint is the wire schema of one gating predicate: a
// contextName to inspect, inverted/caseInsensitive flags, and an
// operator whose payload is either a list of values or one scalar
// value.
type Constraint struct {
	ContextName     string   `json:"contextName"`
	Inverted        bool     `json:"inverted"`
	CaseInsensitive bool     `json:"caseInsensitive"`
	Operator        Operator `json:"operator"`
	Values          []string `json:"values,omitempty"`
	Value           string   `json:"value,omitempty"`
}

// UnmarshalJSON accepts the wire's scalar "value" payload (string,
// number, or bool) and normalises it to its string form; numeric,
// semver, and date operators parse that string at compile time.
func (c *Constraint) UnmarshalJSON(data []byte) error {
	var wire struct {
		ContextName     string          `json:"contextName"`
		Inverted        bool            `json:"inverted"`
		CaseInsensitive bool            `json:"caseInsensitive"`
		Operator        Operator        `json:"operator"`
		Values          []string        `json:"values,omitempty"`
		Value           json.RawMessage `json:"value,omitempty"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	c.ContextName = wire.ContextName
	c.Inverted = wire.Inverted
	c.CaseInsensitive = wire.CaseInsensitive
	c.Operator = wire.Operator
	c.Values = wire.Values
	if len(wire.Value) > 0 {
		var scalar any
		if err := json.Unmarshal(wire.Value, &scalar); err != nil {
			return fmt.Errorf("constraint %s: value: %w", wire.ContextName, err)
		}
		c.Value = fmt.Sprint(scalar)
	}
	return nil
}

// Compile turns one constraint into a predicate. The inverted flag
// wraps the result with a final NOT.
func Compile(c Constraint) evalctx.Predicate {
	base := compileBase(c)
	if !c.Inverted {
		return base
	}
	return func(ctx *evalctx.Context) bool { return !base(ctx) }
}

func compileBase(c Constraint) evalctx.Predicate {
	switch c.Operator {
	case OpIn:
		return inPredicate(c, false)
	case OpNotIn:
		return inPredicate(c, true)
	case OpStrContains:
		return strPredicate(c, strings.Contains)
	case OpStrStartsWith:
		return strPredicate(c, strings.HasPrefix)
	case OpStrEndsWith:
		return strPredicate(c, strings.HasSuffix)
	case OpNumEq:
		return numPredicate(c, func(a, b float64) bool { return a == b })
	case OpNumGt:
		return numPredicate(c, func(a, b float64) bool { return a > b })
	case OpNumGte:
		return numPredicate(c, func(a, b float64) bool { return a >= b })
	case OpNumLt:
		return numPredicate(c, func(a, b float64) bool { return a < b })
	case OpNumLte:
		return numPredicate(c, func(a, b float64) bool { return a <= b })
	case OpDateBefore:
		return datePredicate(c, func(a, b time.Time) bool { return a.Before(b) })
	case OpDateAfter:
		return datePredicate(c, func(a, b time.Time) bool { return a.After(b) })
	case OpSemverEq:
		return semverPredicate(c, func(a, b *semver.Version) bool { return a.Equal(b) })
	case OpSemverGt:
		return semverPredicate(c, func(a, b *semver.Version) bool { return a.GreaterThan(b) })
	case OpSemverLt:
		return semverPredicate(c, func(a, b *semver.Version) bool { return a.LessThan(b) })
	default:
		return func(*evalctx.Context) bool { return false }
	}
}

// inPredicate implements IN/NOT_IN. For remoteAddress, values are
// parsed as IPs/CIDRs and membership means containment; otherwise it is
// plain string set membership. A missing context value is simply never
// a member, so IN is false and NOT_IN is true; that is how an empty
// NOT_IN value list yields true regardless of context.
func inPredicate(c Constraint, negate bool) evalctx.Predicate {
	if c.ContextName == "remoteAddress" {
		matchers := ParseIPMatchers(c.Values)
		return func(ctx *evalctx.Context) bool {
			matched := ctx != nil && MatchesAny(matchers, ctx.RemoteAddress)
			if negate {
				return !matched
			}
			return matched
		}
	}
	set := make(map[string]struct{}, len(c.Values))
	for _, v := range c.Values {
		set[v] = struct{}{}
	}
	return func(ctx *evalctx.Context) bool {
		v, _ := ctx.Property(c.ContextName)
		_, in := set[v]
		if negate {
			return !in
		}
		return in
	}
}

// strPredicate implements STR_CONTAINS/STR_STARTS_WITH/STR_ENDS_WITH:
// true iff any candidate value matches.
func strPredicate(c Constraint, match func(s, substr string) bool) evalctx.Predicate {
	values := c.Values
	return func(ctx *evalctx.Context) bool {
		v, ok := ctx.Property(c.ContextName)
		if !ok {
			return false
		}
		if c.CaseInsensitive {
			v = strings.ToLower(v)
		}
		for _, candidate := range values {
			if c.CaseInsensitive {
				candidate = strings.ToLower(candidate)
			}
			if match(v, candidate) {
				return true
			}
		}
		return false
	}
}

// numPredicate implements NUM_EQ/GT/GTE/LT/LTE: both sides parse as
// float64; a parse failure on either side makes the predicate false.
func numPredicate(c Constraint, cmp func(a, b float64) bool) evalctx.Predicate {
	ruleVal, ruleErr := strconv.ParseFloat(c.Value, 64)
	return func(ctx *evalctx.Context) bool {
		if ruleErr != nil {
			return false
		}
		raw, ok := ctx.Property(c.ContextName)
		if !ok {
			return false
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return false
		}
		return cmp(v, ruleVal)
	}
}

// datePredicate implements DATE_BEFORE/DATE_AFTER. currentTime reads
// ctx.Now() directly rather than round-tripping through Property, so
// the comparison keeps full timestamp precision.
func datePredicate(c Constraint, cmp func(a, b time.Time) bool) evalctx.Predicate {
	ruleTime, ruleErr := time.Parse(time.RFC3339, c.Value)
	return func(ctx *evalctx.Context) bool {
		if ruleErr != nil {
			return false
		}
		var v time.Time
		if c.ContextName == "currentTime" {
			if ctx == nil {
				return false
			}
			v = ctx.Now()
		} else {
			raw, ok := ctx.Property(c.ContextName)
			if !ok {
				return false
			}
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return false
			}
			v = parsed
		}
		return cmp(v, ruleTime)
	}
}

// semverPredicate implements SEMVER_EQ/GT/LT; pre-release ordering
// follows the semver spec via Masterminds/semver.
func semverPredicate(c Constraint, cmp func(a, b *semver.Version) bool) evalctx.Predicate {
	ruleVer, ruleErr := semver.NewVersion(c.Value)
	return func(ctx *evalctx.Context) bool {
		if ruleErr != nil {
			return false
		}
		raw, ok := ctx.Property(c.ContextName)
		if !ok {
			return false
		}
		v, err := semver.NewVersion(raw)
		if err != nil {
			return false
		}
		return cmp(v, ruleVer)
	}
}
