// Package batch drives many indigo stores at once.
//
// A Store is not safe for concurrent use, so batch never shares one store
// between goroutines: Replay gives each target its own worker for the whole
// action sequence, and Map is for callers that build independent stores per
// item.
package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentstation/indigo"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 10

// Dispatcher is satisfied by *indigo.Store of any state type.
type Dispatcher interface {
	ID() string
	Dispatch(ctx context.Context, action any) indigo.Outcome
}

// Option configures batch processing.
type Option func(*options)

type options struct {
	maxConcurrency int
}

// WithConcurrency sets the maximum concurrent workers. Values below one run
// everything sequentially.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.maxConcurrency = n
	}
}

func newOptions(opts []Option) options {
	o := options{maxConcurrency: defaultConcurrency}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Summary totals the outcomes of one target's replay.
type Summary struct {
	Store      string
	Dispatched int
	Applied    int
	Notified   int
	Skipped    []error
}

func (s *Summary) add(o indigo.Outcome) {
	s.Dispatched++
	s.Applied += o.Applied
	s.Notified += o.Notified
	s.Skipped = append(s.Skipped, o.Skipped...)
}

// Replay dispatches actions, in order, to every target. Targets run in
// parallel up to the concurrency limit. Summaries are returned in target
// order. Cancelling ctx stops replay between actions.
func Replay(ctx context.Context, targets []Dispatcher, actions []any, opts ...Option) ([]Summary, error) {
	return Map(ctx, targets, func(ctx context.Context, d Dispatcher) (Summary, error) {
		sum := Summary{Store: d.ID()}
		for _, action := range actions {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			sum.add(d.Dispatch(ctx, action))
		}
		return sum, nil
	}, opts...)
}

// Map applies fn to every item and returns the results in input order. The
// first error cancels the remaining work and is returned with its item
// index.
func Map[T, R any](ctx context.Context, items []T, fn func(context.Context, T) (R, error), opts ...Option) ([]R, error) {
	o := newOptions(opts)
	if len(items) == 0 {
		return []R{}, nil
	}
	if o.maxConcurrency <= 1 {
		return mapSequential(ctx, items, fn)
	}
	return mapConcurrent(ctx, items, fn, o.maxConcurrency)
}

func mapSequential[T, R any](ctx context.Context, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	results := make([]R, len(items))

	for i, item := range items {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		result, err := fn(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		results[i] = result
	}

	return results, nil
}

func mapConcurrent[T, R any](ctx context.Context, items []T, fn func(context.Context, T) (R, error), workers int) ([]R, error) {
	g, ctx := errgroup.WithContext(ctx)

	results := make([]R, len(items))
	var mu sync.Mutex

	work := make(chan int, len(items))
	for i := range items {
		work <- i
	}
	close(work)

	for w := 0; w < workers && w < len(items); w++ {
		g.Go(func() error {
			for idx := range work {
				if err := ctx.Err(); err != nil {
					return err
				}

				result, err := fn(ctx, items[idx])
				if err != nil {
					return fmt.Errorf("item %d: %w", idx, err)
				}

				mu.Lock()
				results[idx] = result
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
