package daemon

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/tab_mon/internal/domain"
	"github.com/eliteGoblin/focusd/tab_mon/internal/policy"
	"github.com/eliteGoblin/focusd/tab_mon/internal/schedule"
)

// PollerState is the lifecycle state of the visibility poller.
type PollerState int

const (
	StateIdle PollerState = iota
	StatePolling
)

func (s PollerState) String() string {
	switch s {
	case StatePolling:
		return "polling"
	default:
		return "idle"
	}
}

// VisibilityConfig holds visibility poller configuration.
type VisibilityConfig struct {
	Interval     time.Duration // Time between ticks
	RetryDelay   time.Duration // Delay before retrying a failed query
	MaxRetries   int           // Retries after the initial attempt of a tick
	QueryTimeout time.Duration // Upper bound on one frontmost query
}

// DefaultVisibilityConfig returns default poller configuration.
func DefaultVisibilityConfig() VisibilityConfig {
	return VisibilityConfig{
		Interval:     250 * time.Millisecond,
		RetryDelay:   100 * time.Millisecond,
		MaxRetries:   2,
		QueryTimeout: 2 * time.Second,
	}
}

// VisibilityPoller turns the frontmost-application query into the tab bar
// visibility flag. Only one timer is pending at a time, so ticks and retries
// never overlap. Every callback carries the epoch it was scheduled in and is
// discarded once Stop has bumped the epoch.
type VisibilityPoller struct {
	config  VisibilityConfig
	querier domain.FrontmostQuerier
	clock   schedule.Clock
	matcher atomic.Pointer[policy.Matcher]
	logger  *zap.Logger

	mu            sync.Mutex
	state         PollerState
	epoch         uint64
	timer         schedule.Timer
	visible       bool
	lastFrontmost string
}

// NewVisibilityPoller creates an idle poller.
func NewVisibilityPoller(
	config VisibilityConfig,
	querier domain.FrontmostQuerier,
	matcher *policy.Matcher,
	clock schedule.Clock,
	logger *zap.Logger,
) *VisibilityPoller {
	if clock == nil {
		clock = schedule.NewReal()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &VisibilityPoller{
		config:  config,
		querier: querier,
		clock:   clock,
		logger:  logger,
	}
	p.matcher.Store(matcher)
	return p
}

// SetMatcher swaps the fragments used from the next query on.
func (p *VisibilityPoller) SetMatcher(m *policy.Matcher) {
	p.matcher.Store(m)
}

// Start moves the poller to Polling and schedules the first tick now.
// Starting a polling poller is a no-op.
func (p *VisibilityPoller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StatePolling {
		return
	}
	p.state = StatePolling
	p.epoch++
	p.scheduleLocked(0, p.epoch, 0)
}

// Stop cancels the pending tick or retry. No state changes after Stop returns.
func (p *VisibilityPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateIdle {
		return
	}
	p.state = StateIdle
	p.epoch++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// Run polls until ctx is canceled.
func (p *VisibilityPoller) Run(ctx context.Context) error {
	p.Start()
	p.logger.Info("visibility poller started", zap.Duration("interval", p.config.Interval))
	<-ctx.Done()
	p.Stop()
	p.logger.Info("visibility poller stopped")
	return nil
}

// State returns the lifecycle state.
func (p *VisibilityPoller) State() PollerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Visible reports whether the tab bar should be shown.
func (p *VisibilityPoller) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// LastFrontmost returns the application name of the last successful query.
func (p *VisibilityPoller) LastFrontmost() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastFrontmost
}

func (p *VisibilityPoller) scheduleLocked(delay time.Duration, epoch uint64, attempt int) {
	p.timer = p.clock.AfterFunc(delay, func() {
		p.attempt(epoch, attempt)
	})
}

// attempt runs one query. attempt 0 is the tick itself, higher values are retries.
func (p *VisibilityPoller) attempt(epoch uint64, attempt int) {
	p.mu.Lock()
	if p.epoch != epoch {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), p.queryTimeout())
	name, err := p.querier.FrontmostApp(ctx)
	cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.epoch != epoch {
		return
	}

	if err != nil {
		if attempt < p.config.MaxRetries {
			p.scheduleLocked(p.config.RetryDelay, epoch, attempt+1)
			return
		}
		p.logger.Warn("frontmost query failed, keeping visibility",
			zap.Int("attempts", attempt+1),
			zap.Bool("visible", p.visible),
			zap.Error(err))
		p.scheduleLocked(p.config.Interval, epoch, 0)
		return
	}

	visible := false
	if m := p.matcher.Load(); m != nil {
		visible = m.MatchFrontmost(name)
	}
	if visible != p.visible {
		p.logger.Debug("tab bar visibility changed",
			zap.Bool("visible", visible),
			zap.String("app", name))
	}
	p.visible = visible
	p.lastFrontmost = name
	p.scheduleLocked(p.config.Interval, epoch, 0)
}

func (p *VisibilityPoller) queryTimeout() time.Duration {
	if p.config.QueryTimeout <= 0 {
		return DefaultVisibilityConfig().QueryTimeout
	}
	return p.config.QueryTimeout
}
