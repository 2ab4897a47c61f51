// Package stats computes windowed message-type counts from range queries
// against the log backend.
package stats

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"transcript-logger/internal/loki"
)

// Querier is the read-path port the aggregator consumes. *loki.Client
// satisfies it.
type Querier interface {
	Query(ctx context.Context, selector string, start, end time.Time) (loki.QueryResult, error)
}

// DefaultCategories are the message types counted when the caller names none.
var DefaultCategories = []string{"user", "agent", "system"}

// ErrUnknownWindow reports a named window outside the supported set. An
// unrecognized name is a validation error, never a silent fallback.
var ErrUnknownWindow = errors.New("unknown window name")

var namedWindows = map[string]time.Duration{
	"1h":  time.Hour,
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
}

// WindowDuration resolves a named window (1h, 24h, 7d) to its duration.
func WindowDuration(name string) (time.Duration, error) {
	d, ok := namedWindows[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q (want 1h, 24h, or 7d)", ErrUnknownWindow, name)
	}
	return d, nil
}

// Window is one computed statistics window: per-category entry counts over
// [Start, End], plus their sum.
type Window struct {
	TimeRange  string         `json:"time_range"`
	Start      time.Time      `json:"start"`
	End        time.Time      `json:"end"`
	Counts     map[string]int `json:"counts"`
	TotalCount int            `json:"total_count"`
}

// Aggregator computes message-type statistics for one job by fanning out a
// query per category. It holds no mutable state and is safe for concurrent
// use.
type Aggregator struct {
	q          Querier
	job        string
	categories []string
}

// New creates an Aggregator counting the given categories for job's streams.
// With no categories, DefaultCategories is used.
func New(q Querier, job string, categories ...string) *Aggregator {
	if len(categories) == 0 {
		categories = DefaultCategories
	}
	return &Aggregator{q: q, job: job, categories: categories}
}

// MessageTypeCounts computes counts over the named window ending now.
func (a *Aggregator) MessageTypeCounts(ctx context.Context, window string) (Window, error) {
	d, err := WindowDuration(window)
	if err != nil {
		return Window{}, err
	}
	end := time.Now()
	w, err := a.countsBetween(ctx, end.Add(-d), end)
	if err != nil {
		return Window{}, err
	}
	w.TimeRange = window
	return w, nil
}

// MessageTypeCountsRange computes counts over explicit bounds.
func (a *Aggregator) MessageTypeCountsRange(ctx context.Context, start, end time.Time) (Window, error) {
	w, err := a.countsBetween(ctx, start, end)
	if err != nil {
		return Window{}, err
	}
	w.TimeRange = "custom"
	return w, nil
}

// countsBetween runs one query per category concurrently. Fail-closed: any
// query failure fails the whole computation rather than under-reporting.
func (a *Aggregator) countsBetween(ctx context.Context, start, end time.Time) (Window, error) {
	var mu sync.Mutex
	counts := make(map[string]int, len(a.categories))

	g, gctx := errgroup.WithContext(ctx)
	for _, category := range a.categories {
		g.Go(func() error {
			selector := fmt.Sprintf(`{%s=%q, %s=%q}`,
				loki.LabelJob, a.job, loki.LabelMessageType, category)
			result, err := a.q.Query(gctx, selector, start, end)
			if err != nil {
				return fmt.Errorf("category %q: %w", category, err)
			}
			mu.Lock()
			counts[category] = result.TotalEntries()
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Window{}, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	return Window{Start: start, End: end, Counts: counts, TotalCount: total}, nil
}
