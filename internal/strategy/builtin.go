package strategy

import (
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/nyxflag/flagsdk/internal/constraint"
	"github.com/nyxflag/flagsdk/internal/evalctx"
	"github.com/nyxflag/flagsdk/internal/fhash"
)

// compileDefault is the "default" strategy: constant true.
func compileDefault(map[string]string) evalctx.Predicate {
	return func(*evalctx.Context) bool { return true }
}

// compileUserWithID is "userWithId": true iff context.userId is in the
// comma-separated, trimmed "userIds" parameter.
func compileUserWithID(parameters map[string]string) evalctx.Predicate {
	set := toSet(splitTrimmed(parameters["userIds"]))
	return func(ctx *evalctx.Context) bool {
		if ctx == nil || ctx.UserID == "" {
			return false
		}
		_, ok := set[ctx.UserID]
		return ok
	}
}

// resolveHostname is overridable in tests.
var resolveHostname = os.Hostname

// compileApplicationHostname is "applicationHostname": the process's
// resolved hostname is looked up once at compile time and compared
// against the trimmed "hostNames" parameter.
func compileApplicationHostname(parameters map[string]string) evalctx.Predicate {
	set := toSet(splitTrimmed(parameters["hostNames"]))
	this, err := resolveHostname()
	_, matches := set[this]
	matches = matches && err == nil
	return func(*evalctx.Context) bool { return matches }
}

// compileGradualRolloutUserID is "gradualRolloutUserId": true iff
// normalisedHash(groupId, userId, 100) ≤ percentage.
func compileGradualRolloutUserID(parameters map[string]string) evalctx.Predicate {
	group, pct := parameters["groupId"], parsePercentage(parameters["percentage"])
	return func(ctx *evalctx.Context) bool {
		if ctx == nil || ctx.UserID == "" {
			return false
		}
		return fhash.Feature(group, ctx.UserID, 100) <= pct
	}
}

// compileGradualRolloutSessionID is "gradualRolloutSessionId": same as
// gradualRolloutUserId, keyed on sessionId.
func compileGradualRolloutSessionID(parameters map[string]string) evalctx.Predicate {
	group, pct := parameters["groupId"], parsePercentage(parameters["percentage"])
	return func(ctx *evalctx.Context) bool {
		if ctx == nil || ctx.SessionID == "" {
			return false
		}
		return fhash.Feature(group, ctx.SessionID, 100) <= pct
	}
}

// compileGradualRolloutRandom is "gradualRolloutRandom": true with
// probability percentage/100, short-circuiting at 0 and 100.
func compileGradualRolloutRandom(parameters map[string]string) evalctx.Predicate {
	pct := parsePercentage(parameters["percentage"])
	switch {
	case pct == 0:
		return func(*evalctx.Context) bool { return false }
	case pct >= 100:
		return func(*evalctx.Context) bool { return true }
	default:
		return func(*evalctx.Context) bool { return rand.Intn(100) < int(pct) }
	}
}

// compileFlexibleRollout is "flexibleRollout": stickiness selects the
// partition key. A stickiness value outside
// default/userId/sessionId/random compiles to constant false.
func compileFlexibleRollout(parameters map[string]string) evalctx.Predicate {
	group := parameters["groupId"]
	pct := parsePercentage(parameters["rollout"])
	switch parameters["stickiness"] {
	case "default", "":
		return func(ctx *evalctx.Context) bool {
			if ctx != nil && ctx.UserID != "" {
				return fhash.Feature(group, ctx.UserID, 100) <= pct
			}
			if ctx != nil && ctx.SessionID != "" {
				return fhash.Feature(group, ctx.SessionID, 100) <= pct
			}
			return rand.Intn(100) < int(pct)
		}
	case "userId":
		return func(ctx *evalctx.Context) bool {
			if ctx == nil || ctx.UserID == "" {
				return false
			}
			return fhash.Feature(group, ctx.UserID, 100) <= pct
		}
	case "sessionId":
		return func(ctx *evalctx.Context) bool {
			if ctx == nil || ctx.SessionID == "" {
				return false
			}
			return fhash.Feature(group, ctx.SessionID, 100) <= pct
		}
	case "random":
		return func(*evalctx.Context) bool { return rand.Intn(100) < int(pct) }
	default:
		return func(*evalctx.Context) bool { return false }
	}
}

// compileRemoteAddress is "remoteAddress": true iff context.remoteAddress
// falls within any of the comma-separated "IPs" parameter (IPs or
// CIDRs).
func compileRemoteAddress(parameters map[string]string) evalctx.Predicate {
	matchers := constraint.ParseIPMatchers(splitTrimmed(parameters["IPs"]))
	return func(ctx *evalctx.Context) bool {
		if ctx == nil || ctx.RemoteAddress == nil {
			return false
		}
		return constraint.MatchesAny(matchers, ctx.RemoteAddress)
	}
}

func parsePercentage(raw string) uint32 {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil {
		return 0
	}
	return uint32(v)
}

func splitTrimmed(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
