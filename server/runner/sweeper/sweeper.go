// Package sweeper drops conversation channels idle past the configured TTL.
// Clients normally delete their channels themselves; the sweeper covers
// abandoned sessions (closed tabs, crashed clients).
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/afterlinkhq/afterlink/store"
)

const sweepInterval = 10 * time.Minute

type Runner struct {
	store    *store.Store
	ttl      time.Duration
	interval time.Duration
}

func NewRunner(store *store.Store, ttl time.Duration) *Runner {
	return &Runner{
		store:    store,
		ttl:      ttl,
		interval: sweepInterval,
	}
}

// Run starts the background task.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep(ctx)
		case <-ctx.Done():
			slog.Info("channel sweeper stopped")
			return
		}
	}
}

// RunOnce sweeps once (for manual trigger).
func (r *Runner) RunOnce(ctx context.Context) {
	r.sweep(ctx)
}

func (r *Runner) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-r.ttl).Unix()
	channels, err := r.store.ListChannels(ctx, &store.FindChannel{UpdatedBefore: &cutoff})
	if err != nil {
		slog.Error("failed to list stale channels", "error", err)
		return
	}
	if len(channels) == 0 {
		return
	}

	swept := 0
	for _, channel := range channels {
		if err := r.store.DeleteChannel(ctx, &store.DeleteChannel{ID: channel.ID}); err != nil {
			slog.Error("failed to delete stale channel", "uid", channel.UID, "error", err)
			continue
		}
		swept++
	}
	slog.Info("swept stale channels", "count", swept)
}
