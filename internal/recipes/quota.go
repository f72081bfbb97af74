package recipes

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "fridgecal/internal/log"
)

// QuotaWatcher polls the YouTube quota on a cron schedule and keeps the
// last successful value.
type QuotaWatcher struct {
	client *Client
	cron   *cron.Cron
	spec   string

	mu      sync.RWMutex
	last    YoutubeQuota
	ok      bool
	updated time.Time
	lastErr error
}

// NewQuotaWatcher validates spec (standard 5-field cron) and registers the
// polling job. Start must be called to run it.
func NewQuotaWatcher(client *Client, spec string) (*QuotaWatcher, error) {
	w := &QuotaWatcher{client: client, cron: cron.New(), spec: spec}
	_, err := w.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
		defer cancel()
		w.Refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (w *QuotaWatcher) Start() {
	w.cron.Start()
	appLog.Info("quota watcher started", "schedule", w.spec)
}

// Stop stops the schedule and waits for a running poll to finish.
func (w *QuotaWatcher) Stop() {
	<-w.cron.Stop().Done()
	appLog.Info("quota watcher stopped")
}

// Refresh polls once. On failure the previous value is kept.
func (w *QuotaWatcher) Refresh(ctx context.Context) (YoutubeQuota, error) {
	q, err := w.client.YoutubeQuota(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastErr = err
	if err != nil {
		appLog.Warn("quota refresh failed", "err", err)
		return w.last, err
	}
	w.last, w.ok, w.updated = q, true, time.Now()
	appLog.Debug("quota refreshed", "limit", q.Limit, "used", q.UsedToday)
	return q, nil
}

// Last returns the cached quota and whether one was ever fetched.
func (w *QuotaWatcher) Last() (YoutubeQuota, time.Time, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.last, w.updated, w.ok
}

func (w *QuotaWatcher) Err() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastErr
}
