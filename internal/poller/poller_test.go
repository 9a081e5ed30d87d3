package poller

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nyxflag/flagsdk/internal/evalctx"
	"github.com/nyxflag/flagsdk/internal/evaluator"
	"github.com/nyxflag/flagsdk/internal/snapshot"
	"github.com/nyxflag/flagsdk/internal/strategy"
	"github.com/nyxflag/flagsdk/internal/telemetry"
)

// fakeAPI scripts the transport seam.
type fakeAPI struct {
	mu       sync.Mutex
	features string
	getErr   error
	posts    []postedBody
}

type postedBody struct {
	path string
	body any
}

func (f *fakeAPI) GetJSON(ctx context.Context, path string, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return f.getErr
	}
	return json.Unmarshal([]byte(f.features), out)
}

func (f *fakeAPI) PostJSON(ctx context.Context, path string, body any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, postedBody{path: path, body: body})
	return nil
}

func (f *fakeAPI) postCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts)
}

const featuresDoc = `{"version":2,"features":[
	{"name":"F1","enabled":true,"strategies":[{"name":"default"}]}]}`

func newTestPoller(api *fakeAPI) (*Poller, *snapshot.Cache) {
	cache := &snapshot.Cache{}
	return New(Options{
		API:          api,
		Registry:     strategy.NewRegistry(),
		Cache:        cache,
		AppName:      "test-app",
		InstanceID:   "inst",
		ConnectionID: "conn",
		Interval:     10 * time.Millisecond,
	}), cache
}

func TestPollOnceRotatesSnapshot(t *testing.T) {
	api := &fakeAPI{features: featuresDoc}
	p, cache := newTestPoller(api)

	if err := p.PollOnce(context.Background()); err != nil {
		t.Fatalf("PollOnce: %v", err)
	}
	snap := cache.Load()
	if snap == nil {
		t.Fatal("no snapshot after PollOnce")
	}
	if _, ok := snap.Feature("F1"); !ok {
		t.Fatal("F1 missing from rotated snapshot")
	}
	// First rotation retires a nil snapshot, so nothing is posted.
	if api.postCount() != 0 {
		t.Fatalf("posts = %d, want 0 on first rotation", api.postCount())
	}
}

func TestPollOncePostsHarvestedMetrics(t *testing.T) {
	api := &fakeAPI{features: featuresDoc}
	p, cache := newTestPoller(api)

	if err := p.PollOnce(context.Background()); err != nil {
		t.Fatalf("first PollOnce: %v", err)
	}
	eval := evaluator.New(cache)
	eval.IsEnabled("F1", &evalctx.Context{}, false)
	eval.IsEnabled("F1", &evalctx.Context{}, false)

	if err := p.PollOnce(context.Background()); err != nil {
		t.Fatalf("second PollOnce: %v", err)
	}
	if api.postCount() != 1 {
		t.Fatalf("posts = %d, want 1", api.postCount())
	}
	post := api.posts[0]
	if post.path != "/client/metrics" {
		t.Fatalf("post path = %q", post.path)
	}
	envelope, ok := post.body.(metricsEnvelope)
	if !ok {
		t.Fatalf("post body type %T", post.body)
	}
	if envelope.AppName != "test-app" || envelope.ConnectionID != "conn" {
		t.Fatalf("envelope identity wrong: %+v", envelope)
	}
	if envelope.Bucket.Toggles["F1"].Yes != 2 {
		t.Fatalf("harvested yes = %d, want 2", envelope.Bucket.Toggles["F1"].Yes)
	}
}

func TestPollOnceRoundTripPreservesToggleNames(t *testing.T) {
	api := &fakeAPI{features: featuresDoc}
	p, _ := newTestPoller(api)
	_ = p.PollOnce(context.Background())
	_ = p.PollOnce(context.Background())

	envelope := api.posts[0].body.(metricsEnvelope)
	data, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded struct {
		Bucket telemetry.Bucket `json:"bucket"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded.Bucket.Toggles["F1"]; !ok {
		t.Fatal("toggle name F1 lost in metrics round trip")
	}
}

func TestFetchFailureKeepsOldSnapshot(t *testing.T) {
	api := &fakeAPI{features: featuresDoc}
	p, cache := newTestPoller(api)
	if err := p.PollOnce(context.Background()); err != nil {
		t.Fatalf("PollOnce: %v", err)
	}
	before := cache.Load()

	api.mu.Lock()
	api.getErr = errors.New("connection refused")
	api.mu.Unlock()
	if err := p.PollOnce(context.Background()); err == nil {
		t.Fatal("fetch failure must be reported")
	}
	if cache.Load() != before {
		t.Fatal("failed cycle must keep the existing snapshot")
	}
}

func TestStrictParsingAbortsCycle(t *testing.T) {
	api := &fakeAPI{features: `{"version":1,"features":[],"bogus":true}`}
	cache := &snapshot.Cache{}
	p := New(Options{
		API: api, Registry: strategy.NewRegistry(), Cache: cache,
		Interval: 10 * time.Millisecond, StrictParsing: true,
	})
	if err := p.PollOnce(context.Background()); err == nil {
		t.Fatal("strict parsing must reject unknown fields")
	}
	if cache.Load() != nil {
		t.Fatal("aborted cycle must not install a snapshot")
	}
}

func TestDisableMetricsSkipsPost(t *testing.T) {
	api := &fakeAPI{features: featuresDoc}
	cache := &snapshot.Cache{}
	p := New(Options{
		API: api, Registry: strategy.NewRegistry(), Cache: cache,
		Interval: 10 * time.Millisecond, DisableMetrics: true,
	})
	_ = p.PollOnce(context.Background())
	_ = p.PollOnce(context.Background())
	if api.postCount() != 0 {
		t.Fatalf("posts = %d, want 0 with metrics disabled", api.postCount())
	}
}

func TestStartStop(t *testing.T) {
	api := &fakeAPI{features: featuresDoc}
	p, cache := newTestPoller(api)

	p.Start()
	deadline := time.After(2 * time.Second)
	for cache.Load() == nil {
		select {
		case <-deadline:
			t.Fatal("poller never rotated a snapshot")
		case <-time.After(time.Millisecond):
		}
	}
	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
	// Stop is idempotent.
	p.Stop()
}

func TestDefaultInterval(t *testing.T) {
	p := New(Options{})
	if p.Interval() != DefaultInterval {
		t.Fatalf("interval = %s, want %s", p.Interval(), DefaultInterval)
	}
}
