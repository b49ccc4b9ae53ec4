// Package cache memoizes dashboard summaries between ledger mutations.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cleared-dev/tally/internal/events"
	"github.com/cleared-dev/tally/internal/summary"
)

// Summaries caches summaries by window key.
type Summaries interface {
	Get(ctx context.Context, key string) (summary.Summary, bool, error)
	Set(ctx context.Context, key string, s summary.Summary) error
	// Purge drops every cached summary.
	Purge(ctx context.Context) error
}

// Key identifies the summary of [start, end].
func Key(start, end time.Time) string {
	return start.UTC().Format(time.RFC3339Nano) + "|" + end.UTC().Format(time.RFC3339Nano)
}

// Invalidator returns a publisher that purges c on every ledger event.
func Invalidator(c Summaries, log *slog.Logger) events.Publisher {
	return events.Func(func(ctx context.Context, e events.Event) error {
		if err := c.Purge(ctx); err != nil {
			log.Warn("summary cache purge failed", "kind", e.Kind, "error", err)
			return err
		}
		return nil
	})
}

// Versioned purges the wrapped cache whenever version reports a value other
// than the one seen on the previous Get. Invalidator only sees mutations made
// in this process; Versioned also catches other writers of the same store,
// such as the CLI editing the data directory a running server caches for.
type Versioned struct {
	Summaries
	version func(ctx context.Context) (string, error)

	mu   sync.Mutex
	last string
	seen bool
}

// NewVersioned wraps c. The first Get always purges, since c may hold
// summaries from before the current store version was known.
func NewVersioned(c Summaries, version func(ctx context.Context) (string, error)) *Versioned {
	return &Versioned{Summaries: c, version: version}
}

func (v *Versioned) Get(ctx context.Context, key string) (summary.Summary, bool, error) {
	cur, err := v.version(ctx)
	if err != nil {
		return summary.Summary{}, false, err
	}
	v.mu.Lock()
	changed := !v.seen || cur != v.last
	v.last, v.seen = cur, true
	v.mu.Unlock()

	if changed {
		if err := v.Summaries.Purge(ctx); err != nil {
			return summary.Summary{}, false, err
		}
		return summary.Summary{}, false, nil
	}
	return v.Summaries.Get(ctx, key)
}

// Memory adapts an LRU to Summaries.
type Memory struct {
	lru *LRU[summary.Summary]
}

var _ Summaries = (*Memory)(nil)

// NewMemory returns an in-process cache of at most size summaries.
func NewMemory(size int, ttl time.Duration) *Memory {
	return &Memory{lru: NewLRU[summary.Summary](size, ttl)}
}

func (m *Memory) Get(_ context.Context, key string) (summary.Summary, bool, error) {
	s, ok := m.lru.Get(key)
	return s, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, s summary.Summary) error {
	m.lru.Set(key, s)
	return nil
}

func (m *Memory) Purge(context.Context) error {
	m.lru.Purge()
	return nil
}

// CleanExpired drops expired summaries and reports how many went.
func (m *Memory) CleanExpired() int {
	return m.lru.CleanExpired()
}

// Len returns the number of cached summaries, expired ones included.
func (m *Memory) Len() int {
	return m.lru.Size()
}

// Nop never hits.
type Nop struct{}

func (Nop) Get(context.Context, string) (summary.Summary, bool, error) {
	return summary.Summary{}, false, nil
}
func (Nop) Set(context.Context, string, summary.Summary) error { return nil }
func (Nop) Purge(context.Context) error { return nil }
