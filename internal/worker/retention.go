package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/arcade-leaderboard/internal/config"
	"github.com/arcade-leaderboard/internal/store"
)

// RetentionWorker periodically removes daily boards that fell out of the
// retention window.
type RetentionWorker struct {
	store   *store.Store
	config  *config.RetentionConfig
	logger  *slog.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewRetentionWorker creates a new retention worker
func NewRetentionWorker(store *store.Store, cfg *config.RetentionConfig, logger *slog.Logger) *RetentionWorker {
	return &RetentionWorker{
		store:  store,
		config: cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins the background sweep process
func (w *RetentionWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("retention worker started", "interval", w.config.Interval)

	go w.run(ctx)
	return nil
}

// Stop stops the background sweep process
func (w *RetentionWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("retention worker stopped")
	return nil
}

// run is the main worker loop
func (w *RetentionWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	// Sweep once at startup so a long-idle install catches up immediately.
	w.sweep()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

// sweep runs one retention cycle
func (w *RetentionWorker) sweep() {
	start := time.Now()
	removed, err := w.store.CleanupOldDailyBoards()
	if err != nil {
		w.logger.Error("retention sweep failed", "error", err)
		return
	}
	if removed > 0 {
		w.logger.Info("retention sweep completed",
			"removed_boards", removed,
			"duration", time.Since(start),
		)
	}
}

// IsRunning returns whether the worker is currently running
func (w *RetentionWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RunOnce runs a single sweep cycle (useful for manual triggers)
func (w *RetentionWorker) RunOnce() {
	w.sweep()
}
