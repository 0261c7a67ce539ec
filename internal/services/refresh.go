package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bilancio/internal/core"
)

// DefaultRefreshInterval matches the one-minute heartbeat the feed
// uses to catch transactions crossing into the past.
const DefaultRefreshInterval = time.Minute

// Refresher periodically checks whether any transaction dated today
// still has a timestamp ahead of the wall clock. When one exists the
// next tick can change the partition, so onDue fires to invalidate
// whatever downstream caches exist.
type Refresher struct {
	load     func(ctx context.Context) ([]core.Transaction, error)
	onDue    func(ctx context.Context)
	interval time.Duration
	resume   chan struct{}
	now      func() time.Time
}

func NewRefresher(load func(ctx context.Context) ([]core.Transaction, error), onDue func(ctx context.Context), interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Refresher{
		load:     load,
		onDue:    onDue,
		interval: interval,
		resume:   make(chan struct{}, 1),
		now:      time.Now,
	}
}

// Resume forces an immediate check outside the tick schedule, the
// moment a client comes back to the foreground. Safe to call from any
// goroutine; extra signals coalesce.
func (r *Refresher) Resume() {
	select {
	case r.resume <- struct{}{}:
	default:
	}
}

// Run blocks until the context is cancelled.
func (r *Refresher) Run(ctx context.Context) error {
	if r.load == nil || r.onDue == nil {
		return fmt.Errorf("refresher not properly initialized")
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Refresh loop started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Refresh loop stopped", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			r.check(ctx)
		case <-r.resume:
			r.check(ctx)
		}
	}
}

func (r *Refresher) check(ctx context.Context) {
	transactions, err := r.load(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load transactions for refresh check", "error", err)
		return
	}

	now := r.now()
	if !core.NeedsRefresh(transactions, now) {
		return
	}

	slog.InfoContext(ctx, "Pending transaction crossed into today, refreshing")
	r.onDue(ctx)
}
