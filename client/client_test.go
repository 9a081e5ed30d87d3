package client

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nyxflag/flagsdk/internal/config"
)

type fakeAPI struct {
	features string
	getErr   error
	postErr  error
	posted   []string
}

func (f *fakeAPI) GetJSON(ctx context.Context, path string, out any) error {
	if f.getErr != nil {
		return f.getErr
	}
	return json.Unmarshal([]byte(f.features), out)
}

func (f *fakeAPI) PostJSON(ctx context.Context, path string, body any) error {
	f.posted = append(f.posted, path)
	return f.postErr
}

func testConfig() *config.Config {
	return &config.Config{
		APIURL:     "https://flags.example.com/api",
		AppName:    "test-app",
		InstanceID: "inst-1",
		Interval:   time.Minute,
	}
}

func TestMemoizeAndEvaluate(t *testing.T) {
	c, err := New(testConfig(), WithTransport(&fakeAPI{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Stop()

	doc := `{"version":1,"features":[
		{"name":"F1","enabled":true,"strategies":[{"name":"default"}]}]}`
	if err := c.Memoize([]byte(doc)); err != nil {
		t.Fatalf("Memoize: %v", err)
	}
	if !c.IsEnabled("F1", &Context{}, false) {
		t.Fatal("F1 must be enabled after memoize")
	}
	if c.IsEnabled("F2", &Context{}, false) {
		t.Fatal("unknown F2 must follow the fallback")
	}
}

func TestCustomStrategy(t *testing.T) {
	c, err := New(testConfig(), WithTransport(&fakeAPI{}),
		WithStrategy("planIs", func(parameters map[string]string) Predicate {
			want := parameters["plan"]
			return func(ctx *Context) bool {
				v, _ := ctx.Property("plan")
				return v == want
			}
		}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Stop()

	doc := `{"version":1,"features":[
		{"name":"F","enabled":true,"strategies":[
			{"name":"planIs","parameters":{"plan":"premium"}}]}]}`
	if err := c.Memoize([]byte(doc)); err != nil {
		t.Fatalf("Memoize: %v", err)
	}
	premium := &Context{Properties: map[string]string{"plan": "premium"}}
	free := &Context{Properties: map[string]string{"plan": "free"}}
	if !c.IsEnabled("F", premium, false) || c.IsEnabled("F", free, false) {
		t.Fatal("custom strategy not honoured")
	}
}

func TestRegisterSurfacesError(t *testing.T) {
	api := &fakeAPI{postErr: errors.New("401")}
	c, err := New(testConfig(), WithTransport(api))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Stop()

	if err := c.Register(context.Background()); err == nil {
		t.Fatal("registration failure must surface")
	}
	if err := c.Start(context.Background()); err == nil {
		t.Fatal("Start must refuse to poll when registration fails")
	}
}

func TestStartRegistersThenPolls(t *testing.T) {
	api := &fakeAPI{features: `{"version":1,"features":[
		{"name":"F","enabled":true,"strategies":[{"name":"default"}]}]}`}
	c, err := New(testConfig(), WithTransport(api))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Stop()

	deadline := time.After(2 * time.Second)
	for !c.IsEnabled("F", &Context{}, false) {
		select {
		case <-deadline:
			t.Fatal("poller never served F")
		case <-time.After(time.Millisecond):
		}
	}
	if len(api.posted) == 0 || api.posted[0] != "/client/register" {
		t.Fatalf("register not posted first: %v", api.posted)
	}
}

func TestBootstrapFileServesBeforeFirstPoll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flags.json")
	doc := `{"version":1,"features":[
		{"name":"local","enabled":true,"strategies":[{"name":"default"}]}]}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write bootstrap: %v", err)
	}

	cfg := testConfig()
	cfg.BootstrapFile = path
	c, err := New(cfg, WithTransport(&fakeAPI{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Stop()

	if !c.IsEnabled("local", &Context{}, false) {
		t.Fatal("bootstrap features must serve before any poll")
	}
}

func TestPollOnceHydrates(t *testing.T) {
	api := &fakeAPI{features: `{"version":1,"features":[
		{"name":"F","enabled":true,"strategies":[{"name":"default"}]}]}`}
	c, err := New(testConfig(), WithTransport(api))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Stop()

	if err := c.PollOnce(context.Background()); err != nil {
		t.Fatalf("PollOnce: %v", err)
	}
	if !c.IsEnabled("F", &Context{}, false) {
		t.Fatal("PollOnce must hydrate the snapshot")
	}
}

func TestConnectionIDIsStableUUID(t *testing.T) {
	c, err := New(testConfig(), WithTransport(&fakeAPI{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Stop()
	if c.ConnectionID() == "" || c.ConnectionID() != c.ConnectionID() {
		t.Fatal("connection id must be minted once at construction")
	}
	if _, err := uuid.Parse(c.ConnectionID()); err != nil {
		t.Fatalf("connection id %q is not a UUID: %v", c.ConnectionID(), err)
	}
}

func TestNilConfigRejected(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("nil config must be a construction error")
	}
}
