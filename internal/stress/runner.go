// Package stress drives a cache with many concurrent update-then-resolve
// workers and checks that every worker reads back what it wrote.
package stress

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"dnsfifo/internal/cache"
	"dnsfifo/internal/gen"
	"dnsfifo/internal/report"
)

// Cache is the part of cache.DNSCache the workers use.
type Cache interface {
	Update(name, ip string)
	Resolve(name string) (string, error)
}

type Config struct {
	Workers  int
	MinDelay time.Duration
	MaxDelay time.Duration
}

// Summary counts worker outcomes. Missing is the subset of Errors where the
// name had already been evicted.
type Summary struct {
	Workers int64         `json:"workers"`
	Done    int64         `json:"done"`
	OK      int64         `json:"ok"`
	Errors  int64         `json:"errors"`
	Missing int64         `json:"missing"`
	Elapsed time.Duration `json:"elapsed"`
}

type Runner struct {
	cache Cache
	gen   *gen.Generator
	sink  report.Sink
	cfg   Config
	log   zerolog.Logger

	started atomic.Int64 // unix nanos
	done    atomic.Int64
	ok      atomic.Int64
	errs    atomic.Int64
	missing atomic.Int64
}

func NewRunner(c Cache, g *gen.Generator, sink report.Sink, cfg Config, log zerolog.Logger) *Runner {
	return &Runner{
		cache: c,
		gen:   g,
		sink:  sink,
		cfg:   cfg,
		log:   log.With().Str("component", "stress").Logger(),
	}
}

// Run starts all workers and waits for them. A cancelled context stops
// workers that are still sleeping; they report nothing. The returned error
// joins sink failures, any unexpected cache error and the context error.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	r.started.Store(time.Now().UnixNano())
	r.log.Info().
		Int("workers", r.cfg.Workers).
		Dur("min_delay", r.cfg.MinDelay).
		Dur("max_delay", r.cfg.MaxDelay).
		Msg("starting workers")

	g, gctx := errgroup.WithContext(ctx)
	sinkErrs := make(chan error, r.cfg.Workers)
	for i := 0; i < r.cfg.Workers; i++ {
		id := i
		g.Go(func() error {
			return r.work(gctx, id, sinkErrs)
		})
	}
	err := g.Wait()
	close(sinkErrs)

	var result *multierror.Error
	if err != nil {
		result = multierror.Append(result, err)
	}
	for err := range sinkErrs {
		result = multierror.Append(result, err)
	}

	summary := r.Progress()
	r.log.Info().
		Int64("ok", summary.OK).
		Int64("errors", summary.Errors).
		Int64("missing", summary.Missing).
		Dur("elapsed", summary.Elapsed).
		Msg("workers finished")

	if err := ctx.Err(); err != nil {
		result = multierror.Append(result, err)
	}
	return summary, result.ErrorOrNil()
}

// work returns an error only when the cache misbehaves; sink failures are
// passed on sinkErrs so the other workers keep going.
func (r *Runner) work(ctx context.Context, id int, sinkErrs chan<- error) error {
	if !sleep(ctx, r.gen.Delay(r.cfg.MinDelay, r.cfg.MaxDelay)) {
		return nil
	}

	ip := r.gen.IPv4()
	domain := r.gen.Domain()
	r.cache.Update(domain, ip)

	if !sleep(ctx, r.gen.Delay(r.cfg.MinDelay, r.cfg.MaxDelay)) {
		return nil
	}

	o := report.Outcome{Worker: id, Domain: domain, Want: ip}
	got, err := r.cache.Resolve(domain)
	switch {
	case err == nil:
		o.Got, o.Found = got, true
	case errors.Is(err, cache.ErrNotFound):
		r.missing.Add(1)
	default:
		return fmt.Errorf("worker %d resolve %s: %w", id, domain, err)
	}

	if o.OK() {
		r.ok.Add(1)
	} else {
		r.errs.Add(1)
		r.log.Debug().Int("worker", id).Str("domain", domain).Msg("lookup mismatch")
	}
	r.done.Add(1)

	if err := r.sink.Report(ctx, o); err != nil {
		sinkErrs <- fmt.Errorf("worker %d: %w", id, err)
	}
	return nil
}

// Progress is safe to call while Run is in flight.
func (r *Runner) Progress() Summary {
	var elapsed time.Duration
	if start := r.started.Load(); start != 0 {
		elapsed = time.Since(time.Unix(0, start))
	}
	return Summary{
		Workers: int64(r.cfg.Workers),
		Done:    r.done.Load(),
		OK:      r.ok.Load(),
		Errors:  r.errs.Load(),
		Missing: r.missing.Load(),
		Elapsed: elapsed,
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
