// Package transport is the thin HTTP collaborator between the SDK and
// the control plane: two JSON verbs and the identification headers the
// remote API expects on every request.
package transport

import (
	"context"
	"strings"
)

// Paths under the API base URL.
const (
	FeaturesPath = "/client/features"
	RegisterPath = "/client/register"
	MetricsPath  = "/client/metrics"
)

// SDKVersion identifies this client implementation on the wire, in the
// "unleash-client-<lang>:<semver>" form the control plane indexes by.
const SDKVersion = "unleash-client-go:0.4.0"

// API is the transport seam: the poll loop, registration, and metrics
// submission all speak through it, so tests and embedders can swap the
// wire layer without touching the lifecycle code.
type API interface {
	// GetJSON fetches path and decodes the response body into out.
	GetJSON(ctx context.Context, path string, out any) error
	// PostJSON sends body as JSON to path. A non-2xx status is an error.
	PostJSON(ctx context.Context, path string, body any) error
}

// TrimBaseURL strips any trailing slash so path concatenation never
// produces a double slash; "https://h/api/" and "https://h/api" name
// the same endpoints.
func TrimBaseURL(apiURL string) string {
	return strings.TrimRight(apiURL, "/")
}
