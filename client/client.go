// Package client is the public SDK façade: construct a Client from
// configuration, optionally register it with the control plane, start
// polling, and ask IsEnabled/GetVariant at any frequency from any
// goroutine.
package client

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/nyxflag/flagsdk/internal/bootstrap"
	"github.com/nyxflag/flagsdk/internal/catalogue"
	"github.com/nyxflag/flagsdk/internal/config"
	"github.com/nyxflag/flagsdk/internal/evalctx"
	"github.com/nyxflag/flagsdk/internal/evaluator"
	"github.com/nyxflag/flagsdk/internal/poller"
	"github.com/nyxflag/flagsdk/internal/registration"
	"github.com/nyxflag/flagsdk/internal/snapshot"
	"github.com/nyxflag/flagsdk/internal/strategy"
	"github.com/nyxflag/flagsdk/internal/telemetry"
	"github.com/nyxflag/flagsdk/internal/transport"
)

// Aliases re-export the evaluation types a host application needs
// without opening the internal packages themselves.
type (
	// Context carries the per-request fields an evaluation can inspect.
	Context = evalctx.Context
	// Predicate is a compiled Context decision.
	Predicate = evalctx.Predicate
	// StrategyCompiler turns one strategy's parameter map into a
	// Predicate; hosts register these for custom strategies.
	StrategyCompiler = strategy.Compiler
	// Variant is the GetVariant answer.
	Variant = evaluator.Variant
	// Catalogue is a parsed feature document, for direct memoization.
	Catalogue = catalogue.Catalogue
)

// Config re-exports the environment configuration loader.
type Config = config.Config

// LoadConfig reads the SDK configuration from the environment.
func LoadConfig() (*Config, error) { return config.Load() }

// Option customises a Client at construction.
type Option func(*Client)

// WithStrategy registers a custom strategy compiler under name before
// the first catalogue is compiled.
func WithStrategy(name string, compiler StrategyCompiler) Option {
	return func(c *Client) { c.registry.Register(name, compiler) }
}

// WithTransport replaces the wire layer, mainly for tests and embedders
// that already own an HTTP stack.
func WithTransport(api transport.API) Option {
	return func(c *Client) { c.api = api }
}

// WithHTTPClient swaps the underlying *http.Client used by the default
// transport. Ignored when WithTransport is also given.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// Client evaluates features against the most recently compiled
// snapshot and keeps that snapshot fresh in the background.
type Client struct {
	cfg          *config.Config
	connectionID string

	registry *strategy.Registry
	cache    *snapshot.Cache
	eval     *evaluator.Evaluator
	api      transport.API
	poller   *poller.Poller

	httpClient *http.Client
	watcher    *bootstrap.Watcher
}

// New builds a Client from cfg. The connection id is minted here and
// bound to this instance for its lifetime. If cfg names a bootstrap
// file it is compiled immediately, so evaluations have rules to run
// against before the first poll completes; the file is then watched and
// re-memoized on change until a real fetch supersedes it.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("client: nil config")
	}
	c := &Client{
		cfg:          cfg,
		connectionID: uuid.NewString(),
		registry:     strategy.NewRegistry(),
		cache:        &snapshot.Cache{},
	}
	c.eval = evaluator.New(c.cache)
	for _, opt := range opts {
		opt(c)
	}
	if c.api == nil {
		c.api = transport.NewHTTP(transport.Options{
			APIURL:        cfg.APIURL,
			AppName:       cfg.AppName,
			InstanceID:    cfg.InstanceID,
			ConnectionID:  c.connectionID,
			Authorization: cfg.Authorization,
			Interval:      cfg.Interval,
			Client:        c.httpClient,
		})
	}
	c.poller = poller.New(poller.Options{
		API:            c.api,
		Registry:       c.registry,
		Cache:          c.cache,
		AppName:        cfg.AppName,
		InstanceID:     cfg.InstanceID,
		ConnectionID:   c.connectionID,
		Interval:       cfg.Interval,
		DisableMetrics: cfg.DisableMetrics,
		StrictParsing:  cfg.StrictParsing,
	})

	if cfg.BootstrapFile != "" {
		if err := c.loadBootstrap(cfg.BootstrapFile); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Client) loadBootstrap(path string) error {
	cat, err := bootstrap.Load(path)
	if err != nil {
		return fmt.Errorf("client: %w", err)
	}
	c.memoize(cat)
	log.Printf("[client] bootstrapped from %s: features=%d", path, len(cat.Features))

	watcher, err := bootstrap.Watch(path, func(cat *catalogue.Catalogue) {
		if c.poller.Rotations() > 0 {
			log.Printf("[client] bootstrap change ignored, poller already serving")
			return
		}
		c.memoize(cat)
	})
	if err != nil {
		return fmt.Errorf("client: %w", err)
	}
	c.watcher = watcher
	return nil
}

// IsEnabled reports whether feature is on for ctx, or fallback when the
// feature (or any snapshot at all) is unknown. It never fails and never
// blocks on the poll loop.
func (c *Client) IsEnabled(feature string, ctx *Context, fallback bool) bool {
	return c.eval.IsEnabled(feature, ctx, fallback)
}

// GetVariant picks the variant of feature for ctx, or the "disabled"
// sentinel. It never fails.
func (c *Client) GetVariant(feature string, ctx *Context) Variant {
	return c.eval.GetVariant(feature, ctx)
}

// Memoize parses doc (honouring strict parsing if configured), compiles
// it, and rotates it in as the current snapshot without touching the
// network. The retired snapshot's counters are dropped, not posted.
func (c *Client) Memoize(doc []byte) error {
	cat, err := catalogue.Parse(doc, c.cfg.StrictParsing)
	if err != nil {
		return fmt.Errorf("client: %w", err)
	}
	c.memoize(cat)
	return nil
}

func (c *Client) memoize(cat *catalogue.Catalogue) {
	next := catalogue.Compile(cat, c.registry, time.Now().UTC())
	c.cache.Store(next)
	telemetry.SnapshotFeatures.Set(float64(len(next.Features)))
}

// Register announces this client to the control plane. A failure is
// returned to the caller, who may still choose to start polling.
func (c *Client) Register(ctx context.Context) error {
	reg := registration.New(c.cfg.AppName, c.cfg.InstanceID, c.connectionID,
		c.registry.Names(), c.poller.Interval())
	return registration.Register(ctx, c.api, reg)
}

// Start registers the client and then starts the poll loop. If
// registration fails the poller is not started and the error is
// returned; callers that want to poll anyway can call StartPolling
// directly.
func (c *Client) Start(ctx context.Context) error {
	if err := c.Register(ctx); err != nil {
		return err
	}
	c.poller.Start()
	return nil
}

// StartPolling starts the poll loop without registering.
func (c *Client) StartPolling() {
	c.poller.Start()
}

// PollOnce runs a single fetch/compile/rotate cycle synchronously. One-
// shot tooling uses it to hydrate a client without a background loop.
func (c *Client) PollOnce(ctx context.Context) error {
	return c.poller.PollOnce(ctx)
}

// Stop shuts down the poll loop and the bootstrap watcher, blocking
// until both have exited. The client keeps serving its last snapshot.
func (c *Client) Stop() {
	c.poller.Stop()
	if c.watcher != nil {
		_ = c.watcher.Close()
		c.watcher = nil
	}
}

// Close implements io.Closer; it is Stop with a nil error.
func (c *Client) Close() error {
	c.Stop()
	return nil
}

// ConnectionID returns the UUID minted for this client instance.
func (c *Client) ConnectionID() string { return c.connectionID }

// AppName returns the configured application name.
func (c *Client) AppName() string { return c.cfg.AppName }

// FeatureNames lists the features the current snapshot knows about,
// including unknown-feature placeholders being tracked for metrics. It
// returns nil before the first snapshot.
func (c *Client) FeatureNames() []string {
	snap := c.cache.Load()
	if snap == nil {
		return nil
	}
	names := make([]string, 0, len(snap.Features))
	for name := range snap.Features {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
