// Package stats provides simple local usage statistics, a lightweight
// alternative to an external monitoring stack.
package stats

import (
	"context"
	"sync"
	"time"

	"github.com/afterlinkhq/afterlink/store"
)

// refreshInterval is how long a snapshot stays fresh before the next read
// recomputes it.
const refreshInterval = time.Minute

// Snapshot is a point-in-time view of instance usage.
type Snapshot struct {
	TotalArticles    int `json:"totalArticles"`
	TotalInsights    int `json:"totalInsights"`
	ContactsCaptured int `json:"contactsCaptured"`
	ActiveChannels   int `json:"activeChannels"`

	LastUpdated time.Time `json:"lastUpdated"`
}

// Collector computes usage snapshots on demand with a short cache.
type Collector struct {
	store *store.Store

	mu       sync.Mutex
	snapshot Snapshot
}

// NewCollector creates a statistics collector.
func NewCollector(st *store.Store) *Collector {
	return &Collector{store: st}
}

// Snapshot returns the current usage snapshot, recomputing when stale.
func (c *Collector) Snapshot(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Since(c.snapshot.LastUpdated) < refreshInterval {
		return c.snapshot, nil
	}

	articles, err := c.store.ListArticles(ctx, &store.FindArticle{})
	if err != nil {
		return Snapshot{}, err
	}
	insights, err := c.store.ListUserInsights(ctx, &store.FindUserInsight{})
	if err != nil {
		return Snapshot{}, err
	}
	channels, err := c.store.ListChannels(ctx, &store.FindChannel{})
	if err != nil {
		return Snapshot{}, err
	}

	contacts := 0
	for _, insight := range insights {
		if insight.UserEmail != "" || insight.UserPhone != "" {
			contacts++
		}
	}

	c.snapshot = Snapshot{
		TotalArticles:    len(articles),
		TotalInsights:    len(insights),
		ContactsCaptured: contacts,
		ActiveChannels:   len(channels),
		LastUpdated:      time.Now(),
	}
	return c.snapshot, nil
}
