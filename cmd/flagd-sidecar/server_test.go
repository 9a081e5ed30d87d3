package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nyxflag/flagsdk/client"
	"github.com/nyxflag/flagsdk/internal/config"
)

func testServer(t *testing.T) *server {
	t.Helper()
	cfg := &config.Config{
		APIURL:     "https://flags.example.com/api",
		AppName:    "sidecar-test",
		InstanceID: "inst",
		Interval:   time.Minute,
	}
	sdk, err := client.New(cfg)
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	t.Cleanup(sdk.Stop)
	doc := `{"version":1,"features":[
		{"name":"F1","enabled":true,"strategies":[
			{"name":"userWithId","parameters":{"userIds":"alice"}}]}]}`
	if err := sdk.Memoize([]byte(doc)); err != nil {
		t.Fatalf("Memoize: %v", err)
	}
	return &server{sdk: sdk, rateLimit: 100, origin: "*"}
}

func TestHealthz(t *testing.T) {
	ts := httptest.NewServer(testServer(t).router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestEvaluateEndpoint(t *testing.T) {
	ts := httptest.NewServer(testServer(t).router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/evaluate", "application/json",
		strings.NewReader(`{"feature":"F1","userId":"alice"}`))
	if err != nil {
		t.Fatalf("POST /v1/evaluate: %v", err)
	}
	defer resp.Body.Close()
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := decodeBody(resp, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Enabled {
		t.Fatal("alice must be enabled")
	}

	resp2, err := http.Post(ts.URL+"/v1/evaluate", "application/json",
		strings.NewReader(`{"feature":"F1","userId":"eve"}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp2.Body.Close()
	if err := decodeBody(resp2, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Enabled {
		t.Fatal("eve must not be enabled")
	}
}

func TestEvaluateRejectsMissingFeature(t *testing.T) {
	ts := httptest.NewServer(testServer(t).router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/evaluate", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestFeaturesEndpoint(t *testing.T) {
	ts := httptest.NewServer(testServer(t).router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/features")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	var body struct {
		Features []string `json:"features"`
	}
	if err := decodeBody(resp, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Features) != 1 || body.Features[0] != "F1" {
		t.Fatalf("features = %v", body.Features)
	}
}

func decodeBody(resp *http.Response, out any) error {
	return json.NewDecoder(resp.Body).Decode(out)
}
