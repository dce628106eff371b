// Package daemon implements the long-running loops of the tab monitor.
package daemon

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/tab_mon/internal/domain"
)

// Refresher runs one discovery cycle.
type Refresher interface {
	Refresh(ctx context.Context) ([]domain.WindowRecord, error)
}

// WatcherConfig holds discovery loop configuration.
type WatcherConfig struct {
	DiscoveryInterval time.Duration // How often to enumerate windows (default 1s)
	HeartbeatInterval time.Duration // How often to update the instance heartbeat
}

// DefaultWatcherConfig returns default watcher configuration.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		DiscoveryInterval: time.Second,
		HeartbeatInterval: 30 * time.Second,
	}
}

// Watcher is the discovery loop. It refreshes the window set on a fixed
// interval and keeps the instance heartbeat current.
type Watcher struct {
	config    WatcherConfig
	refresher Refresher
	registry  domain.InstanceRegistry
	logger    *zap.Logger

	unavailable bool
	lastCount   int
}

// NewWatcher creates a new discovery loop.
func NewWatcher(
	config WatcherConfig,
	refresher Refresher,
	registry domain.InstanceRegistry,
	logger *zap.Logger,
) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		config:    config,
		refresher: refresher,
		registry:  registry,
		logger:    logger,
		lastCount: -1,
	}
}

// Run starts the discovery loop.
// This blocks until context is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("discovery loop started",
		zap.Duration("interval", w.config.DiscoveryInterval))

	// Discover immediately on startup
	w.runCycle(ctx)

	discoveryTicker := time.NewTicker(w.config.DiscoveryInterval)
	heartbeatTicker := time.NewTicker(w.config.HeartbeatInterval)
	defer func() {
		discoveryTicker.Stop()
		heartbeatTicker.Stop()
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("discovery loop stopping")
			return nil

		case <-discoveryTicker.C:
			w.runCycle(ctx)

		case <-heartbeatTicker.C:
			if w.registry == nil {
				continue
			}
			if err := w.registry.UpdateHeartbeat(); err != nil {
				w.logger.Warn("failed to update heartbeat", zap.Error(err))
			}
		}
	}
}

// runCycle performs one refresh. Unavailability is logged on transitions only.
func (w *Watcher) runCycle(ctx context.Context) {
	windows, err := w.refresher.Refresh(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		if !w.unavailable {
			w.logger.Warn("window discovery unavailable", zap.Error(err))
		}
		w.unavailable = true
		return
	}
	if w.unavailable {
		w.logger.Info("window discovery available again")
		w.unavailable = false
	}

	if len(windows) != w.lastCount {
		w.logger.Debug("window set changed", zap.Int("windows", len(windows)))
		w.lastCount = len(windows)
	}
}
