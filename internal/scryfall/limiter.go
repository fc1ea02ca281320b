package scryfall

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Limiter bounds outbound requests to the Scryfall API: at most maxConcurrent
// requests in flight, and at least minInterval between the start times of any
// two consecutive requests, globally across all callers. One Limiter is shared
// by every fetch task in the process.
type Limiter struct {
	permits  *semaphore.Weighted
	interval *rate.Limiter
}

// NewLimiter returns a limiter allowing maxConcurrent in-flight requests with
// minInterval between request starts. Scryfall asks for <=10 req/sec; the
// defaults used by cmd/ingest are 5 concurrent and 100ms.
func NewLimiter(maxConcurrent int, minInterval time.Duration) *Limiter {
	return &Limiter{
		permits:  semaphore.NewWeighted(int64(maxConcurrent)),
		interval: rate.NewLimiter(rate.Every(minInterval), 1),
	}
}

// Acquire blocks until a request may start: first a concurrency permit, then
// the global minimum-interval gate. The caller must call Release once the
// request has completed.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.permits.Acquire(ctx, 1); err != nil {
		return err
	}
	if err := l.interval.Wait(ctx); err != nil {
		l.permits.Release(1)
		return err
	}
	return nil
}

// Release returns the concurrency permit taken by Acquire.
func (l *Limiter) Release() {
	l.permits.Release(1)
}
