// Package poller owns the refresh lifecycle: fetch the catalogue,
// compile, rotate the snapshot, and ship the retired snapshot's
// counters upstream. One cooperative background task; evaluations never
// wait on it.
package poller

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sourcegraph/conc"

	"github.com/nyxflag/flagsdk/internal/catalogue"
	"github.com/nyxflag/flagsdk/internal/snapshot"
	"github.com/nyxflag/flagsdk/internal/strategy"
	"github.com/nyxflag/flagsdk/internal/telemetry"
	"github.com/nyxflag/flagsdk/internal/transport"
)

// DefaultInterval is the poll cadence when the caller does not set one.
const DefaultInterval = 15 * time.Second

// Options wires a Poller to its collaborators.
type Options struct {
	API            transport.API
	Registry       *strategy.Registry
	Cache          *snapshot.Cache
	AppName        string
	InstanceID     string
	ConnectionID   string
	Interval       time.Duration
	DisableMetrics bool
	StrictParsing  bool
}

// Poller periodically fetches the catalogue and rotates the snapshot.
type Poller struct {
	opts Options

	running   atomic.Bool
	rotations atomic.Uint64
	stop      chan struct{}
	stopOnce  sync.Once
	wg        conc.WaitGroup
}

// New returns a stopped Poller. Call Start to begin polling.
func New(opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Poller{opts: opts, stop: make(chan struct{})}
}

// Interval reports the effective poll cadence.
func (p *Poller) Interval() time.Duration { return p.opts.Interval }

// Rotations reports how many snapshots this poller has installed. A
// zero value means the poller has not yet fetched successfully, so a
// bootstrap snapshot is still the freshest thing available.
func (p *Poller) Rotations() uint64 { return p.rotations.Load() }

// Start launches the poll loop in a supervised background goroutine.
// Starting an already-running poller is a no-op.
func (p *Poller) Start() {
	if !p.running.CompareAndSwap(false, true) {
		return
	}
	p.wg.Go(p.loop)
	log.Printf("[poller] started interval=%s", p.opts.Interval)
}

// Stop clears the running flag, wakes the loop, and blocks until it has
// exited. Safe to call more than once; a stopped poller stays stopped.
func (p *Poller) Stop() {
	p.running.Store(false)
	p.stopOnce.Do(func() { close(p.stop) })
	p.wg.Wait()
	log.Printf("[poller] stopped")
}

func (p *Poller) loop() {
	for {
		if err := p.PollOnce(context.Background()); err != nil {
			log.Printf("[poller] cycle failed, keeping current snapshot: %v", err)
			telemetry.PollFailures.Inc()
		}
		select {
		case <-p.stop:
			return
		case <-time.After(p.opts.Interval):
		}
		if !p.running.Load() {
			return
		}
	}
}

// PollOnce runs one refresh cycle: fetch, compile, rotate, harvest, and
// (unless disabled) submit the previous interval's metrics. A fetch or
// parse failure leaves the current snapshot serving and is returned to
// the caller; a metrics submission failure is only logged.
func (p *Poller) PollOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Interval)
	defer cancel()

	cat, err := p.fetch(ctx)
	if err != nil {
		return err
	}

	next := catalogue.Compile(cat, p.opts.Registry, time.Now().UTC())
	retired := p.opts.Cache.Store(next)
	p.rotations.Add(1)
	telemetry.SnapshotRotations.Inc()
	telemetry.SnapshotFeatures.Set(float64(len(next.Features)))
	log.Printf("[poller] snapshot rotated: features=%d version=%d", len(next.Features), cat.Version)

	bucket := telemetry.Harvest(retired, time.Now().UTC())
	if bucket == nil || p.opts.DisableMetrics {
		return nil
	}
	if err := p.submitMetrics(ctx, bucket); err != nil {
		telemetry.MetricsPosts.WithLabelValues("error").Inc()
		log.Printf("[poller] metrics submission failed: %v", err)
		return nil
	}
	telemetry.MetricsPosts.WithLabelValues("ok").Inc()
	return nil
}

// fetch GETs the features document, retrying transient failures with
// exponential backoff bounded well inside one poll interval.
func (p *Poller) fetch(ctx context.Context) (*catalogue.Catalogue, error) {
	operation := func() (*catalogue.Catalogue, error) {
		var raw json.RawMessage
		if err := p.opts.API.GetJSON(ctx, transport.FeaturesPath, &raw); err != nil {
			return nil, err
		}
		cat, err := catalogue.Parse(raw, p.opts.StrictParsing)
		if err != nil {
			// Parsing is deterministic; retrying the fetch cannot fix it.
			return nil, backoff.Permanent(err)
		}
		return cat, nil
	}
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 200 * time.Millisecond
	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(3),
	)
}

type metricsEnvelope struct {
	AppName      string            `json:"appName"`
	InstanceID   string            `json:"instanceId"`
	ConnectionID string            `json:"connectionId"`
	Bucket       *telemetry.Bucket `json:"bucket"`
}

func (p *Poller) submitMetrics(ctx context.Context, bucket *telemetry.Bucket) error {
	return p.opts.API.PostJSON(ctx, transport.MetricsPath, metricsEnvelope{
		AppName:      p.opts.AppName,
		InstanceID:   p.opts.InstanceID,
		ConnectionID: p.opts.ConnectionID,
		Bucket:       bucket,
	})
}
