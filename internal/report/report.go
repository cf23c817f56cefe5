// Package report delivers per-worker lookup outcomes to output sinks.
package report

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/hashicorp/go-multierror"
)

// NoValue stands in for the resolved address when the lookup missed.
const NoValue = "<no value>"

// Outcome is the result of one update-then-resolve round trip.
type Outcome struct {
	Worker int
	Domain string
	Want   string
	Got    string
	Found  bool
}

func (o Outcome) OK() bool {
	return o.Found && o.Got == o.Want
}

func (o Outcome) got() string {
	if !o.Found {
		return NoValue
	}
	return o.Got
}

func (o Outcome) String() string {
	if o.OK() {
		return fmt.Sprintf("OK! %s resolves to %s", o.Domain, o.Want)
	}
	return fmt.Sprintf("Error! %s resolves to %s instead of %s", o.Domain, o.got(), o.Want)
}

type Sink interface {
	Report(ctx context.Context, o Outcome) error
}

// ConsoleSink writes one line per outcome. Lines from concurrent workers
// never interleave.
type ConsoleSink struct {
	mu    sync.Mutex
	w     io.Writer
	quiet bool
}

func NewConsoleSink(w io.Writer, quiet bool) *ConsoleSink {
	return &ConsoleSink{w: w, quiet: quiet}
}

func (s *ConsoleSink) Report(_ context.Context, o Outcome) error {
	if s.quiet {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.w, o.String())
	return err
}

// RedisSink counts outcomes in the hash <key>:summary and appends failures
// to the list <key>:failures.
type RedisSink struct {
	client *redis.Client
	key    string
}

func NewRedisSink(client *redis.Client, key string) *RedisSink {
	return &RedisSink{client: client, key: key}
}

func (s *RedisSink) SummaryKey() string  { return s.key + ":summary" }
func (s *RedisSink) FailuresKey() string { return s.key + ":failures" }

func (s *RedisSink) Report(ctx context.Context, o Outcome) error {
	pipe := s.client.TxPipeline()
	if o.OK() {
		pipe.HIncrBy(ctx, s.SummaryKey(), "ok", 1)
	} else {
		pipe.HIncrBy(ctx, s.SummaryKey(), "error", 1)
		pipe.RPush(ctx, s.FailuresKey(), fmt.Sprintf("%s %s %s", o.Domain, o.Want, o.got()))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("report %s to redis: %w", o.Domain, err)
	}
	return nil
}

type multiSink []Sink

// Multi reports to every sink in order, even when an earlier one fails.
func Multi(sinks ...Sink) Sink {
	return multiSink(sinks)
}

func (m multiSink) Report(ctx context.Context, o Outcome) error {
	var result *multierror.Error
	for _, s := range m {
		if err := s.Report(ctx, o); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
