// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ratelimit spaces out calls to the remote completion service.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter blocks until the caller may issue its next completion call.
// Wait returns an error only when ctx is done.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Interval is a token bucket holding a single token that refills once per
// interval. No two calls that wait on the same Interval start closer
// together than the interval. It is safe for concurrent use.
//
// The bucket spaces reservations, so the moment each Wait returns is also
// stamped and the next Wait sleeps out whatever remains of the interval
// measured from that stamp.
type Interval struct {
	limiter  *rate.Limiter
	interval time.Duration

	turn chan struct{} // one waiter at a time
	last time.Time     // guarded by turn
}

// NewInterval returns a limiter allowing one call per d. A non-positive d
// disables throttling.
func NewInterval(d time.Duration) *Interval {
	limit := rate.Inf
	if d > 0 {
		limit = rate.Every(d)
	}
	return &Interval{
		limiter:  rate.NewLimiter(limit, 1),
		interval: d,
		turn:     make(chan struct{}, 1),
	}
}

// Wait blocks until the next call slot is available.
func (l *Interval) Wait(ctx context.Context) error {
	if l.interval <= 0 {
		return ctx.Err()
	}

	select {
	case l.turn <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.turn }()

	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}
	if !l.last.IsZero() {
		if remaining := l.interval - time.Since(l.last); remaining > 0 {
			t := time.NewTimer(remaining)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			}
		}
	}
	l.last = time.Now()
	return nil
}

// Interval returns the configured spacing.
func (l *Interval) Interval() time.Duration { return l.interval }

// Nop never blocks.
type Nop struct{}

// Wait returns immediately unless ctx is already done.
func (Nop) Wait(ctx context.Context) error { return ctx.Err() }
