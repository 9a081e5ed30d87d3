// Package evalctx defines the per-call input record used across
// constraint, strategy, and evaluator compilation.
package evalctx

import (
	"net"
	"strconv"
	"time"
)

// Predicate is the compiled context-to-bool shape shared by constraints,
// strategies, and feature compilation.
type Predicate func(*Context) bool

// Context carries the user/session/app/environment/remoteAddress/
// currentTime/properties needed for one evaluation call. Zero value is a
// valid, fully anonymous context.
type Context struct {
	UserID        string
	SessionID     string
	RemoteAddress net.IP
	AppName       string
	Environment   string
	CurrentTime   time.Time
	Properties    map[string]string
}

// Now returns CurrentTime if set, otherwise wall-clock now.
func (c *Context) Now() time.Time {
	if c == nil || c.CurrentTime.IsZero() {
		return time.Now()
	}
	return c.CurrentTime
}

// Property looks up the dispatch-table fields first (appName,
// environment, userId, sessionId, remoteAddress, currentTime), then
// falls back to the free-form properties map.
func (c *Context) Property(contextName string) (string, bool) {
	if c == nil {
		return "", false
	}
	switch contextName {
	case "appName":
		return c.AppName, c.AppName != ""
	case "environment":
		return c.Environment, c.Environment != ""
	case "userId":
		return c.UserID, c.UserID != ""
	case "sessionId":
		return c.SessionID, c.SessionID != ""
	case "remoteAddress":
		if c.RemoteAddress == nil {
			return "", false
		}
		return c.RemoteAddress.String(), true
	case "currentTime":
		if c.CurrentTime.IsZero() {
			return "", false
		}
		return strconv.FormatInt(c.CurrentTime.Unix(), 10), true
	default:
		if c.Properties == nil {
			return "", false
		}
		v, ok := c.Properties[contextName]
		return v, ok
	}
}

// StickinessIdentifier returns the first of userId, sessionId, or, when
// neither is set, the remote address rendered as a string. It returns
// ("", false) when none of those are present, which tells callers (e.g.
// GetVariant) to fall back to a uniform random draw.
func (c *Context) StickinessIdentifier() (string, bool) {
	if c == nil {
		return "", false
	}
	if c.UserID != "" {
		return c.UserID, true
	}
	if c.SessionID != "" {
		return c.SessionID, true
	}
	if c.RemoteAddress != nil {
		return c.RemoteAddress.String(), true
	}
	return "", false
}
