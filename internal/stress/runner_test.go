package stress

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dnsfifo/internal/cache"
	"dnsfifo/internal/gen"
	"dnsfifo/internal/report"
)

func newRunner(t *testing.T, c Cache, sink report.Sink, workers int) *Runner {
	t.Helper()
	cfg := Config{Workers: workers, MinDelay: 0, MaxDelay: time.Millisecond}
	return NewRunner(c, gen.New(1), sink, cfg, zerolog.Nop())
}

func TestRunAllResolve(t *testing.T) {
	c, err := cache.New(1024)
	require.NoError(t, err)
	var out bytes.Buffer

	r := newRunner(t, c, report.NewConsoleSink(&out, false), 200)
	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 200, summary.Workers)
	assert.EqualValues(t, 200, summary.Done)
	assert.EqualValues(t, 200, summary.OK+summary.Errors)
	assert.Zero(t, summary.Missing)
	assert.Positive(t, summary.Elapsed)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 200)
}

type missingCache struct{}

func (missingCache) Update(string, string) {}
func (missingCache) Resolve(name string) (string, error) {
	return "", cache.ErrNotFound
}

func TestRunReportsEvictedNames(t *testing.T) {
	var out bytes.Buffer
	r := newRunner(t, missingCache{}, report.NewConsoleSink(&out, false), 20)

	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 20, summary.Errors)
	assert.EqualValues(t, 20, summary.Missing)
	assert.Zero(t, summary.OK)
	assert.Equal(t, 20, strings.Count(out.String(), report.NoValue))
}

type brokenCache struct{ err error }

func (brokenCache) Update(string, string) {}
func (b brokenCache) Resolve(string) (string, error) {
	return "", b.err
}

func TestRunStopsOnUnexpectedCacheError(t *testing.T) {
	boom := errors.New("boom")
	r := newRunner(t, brokenCache{boom}, report.NewConsoleSink(&bytes.Buffer{}, true), 10)

	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

type flakySink struct {
	mu    sync.Mutex
	calls int
}

func (f *flakySink) Report(context.Context, report.Outcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls%2 == 0 {
		return errors.New("sink unavailable")
	}
	return nil
}

func TestRunCollectsSinkErrors(t *testing.T) {
	c, err := cache.New(64)
	require.NoError(t, err)
	sink := &flakySink{}

	summary, err := newRunner(t, c, sink, 10).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink unavailable")
	assert.EqualValues(t, 10, summary.Done)
	assert.Equal(t, 10, sink.calls)
}

func TestRunCancelled(t *testing.T) {
	c, err := cache.New(8)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := Config{Workers: 50, MinDelay: time.Hour, MaxDelay: time.Hour}
	r := NewRunner(c, gen.New(1), report.NewConsoleSink(&bytes.Buffer{}, false), cfg, zerolog.Nop())

	summary, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, summary.Done)
	assert.Zero(t, c.Stats().Inserts)
}

func TestProgressBeforeRun(t *testing.T) {
	r := newRunner(t, missingCache{}, report.NewConsoleSink(&bytes.Buffer{}, true), 3)
	p := r.Progress()
	assert.EqualValues(t, 3, p.Workers)
	assert.Zero(t, p.Elapsed)
	assert.Zero(t, p.Done)
}
