package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/tab_mon/internal/domain"
	"github.com/eliteGoblin/focusd/tab_mon/internal/identity"
)

// subscriberBuffer is how many undelivered events a subscriber may hold
// before further events are dropped for it.
const subscriberBuffer = 4

// VisibilityReader exposes the poller's derived state.
type VisibilityReader interface {
	Visible() bool
	LastFrontmost() string
}

// TabService is the request/response surface consumed by the tab bar.
type TabService struct {
	manager    domain.WindowManager
	resolver   *identity.Resolver
	reconciler *Reconciler
	planner    *GeometryPlanner
	frontmost  domain.FrontmostQuerier
	logger     *zap.Logger
	now        func() time.Time
	startedAt  time.Time

	visibility VisibilityReader

	// refreshMu keeps the identity map and the window snapshot from the same cycle.
	refreshMu sync.Mutex

	mu               sync.RWMutex
	windows          []domain.WindowRecord
	lastCycle        time.Time
	managerAvailable bool

	subMu   sync.Mutex
	subs    map[int]chan domain.WindowsUpdated
	nextSub int
}

// NewTabService wires the engine components together.
func NewTabService(
	manager domain.WindowManager,
	resolver *identity.Resolver,
	reconciler *Reconciler,
	planner *GeometryPlanner,
	frontmost domain.FrontmostQuerier,
	logger *zap.Logger,
) *TabService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TabService{
		manager:    manager,
		resolver:   resolver,
		reconciler: reconciler,
		planner:    planner,
		frontmost:  frontmost,
		logger:     logger,
		now:        time.Now,
		startedAt:  time.Now(),
		subs:       make(map[int]chan domain.WindowsUpdated),
	}
}

// SetVisibility attaches the visibility source used by ShouldShow.
func (s *TabService) SetVisibility(v VisibilityReader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visibility = v
}

// Refresh runs one discovery cycle: discover, resolve, reconcile, publish.
// It fails only when the window manager is unavailable.
func (s *TabService) Refresh(ctx context.Context) ([]domain.WindowRecord, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	descriptors, err := s.manager.Discover(ctx)
	if err != nil {
		s.mu.Lock()
		s.managerAvailable = false
		s.mu.Unlock()
		return nil, err
	}

	records := s.resolver.Resolve(descriptors)
	ordered := s.reconciler.Reconcile(records)

	s.mu.Lock()
	s.windows = ordered
	s.lastCycle = s.now()
	s.managerAvailable = true
	at := s.lastCycle
	s.mu.Unlock()

	s.publish(domain.WindowsUpdated{Windows: ordered, At: at})
	return ordered, nil
}

// ListWindows returns the tab-ordered windows of a fresh discovery cycle. The
// cycle is serialized with the discovery loop and publishes like any other.
func (s *TabService) ListWindows(ctx context.Context) ([]domain.WindowRecord, error) {
	return s.Refresh(ctx)
}

// Windows returns the windows of the last completed cycle.
func (s *TabService) Windows() []domain.WindowRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.WindowRecord{}, s.windows...)
}

// Focus focuses the window with the given stable id.
func (s *TabService) Focus(ctx context.Context, id string) error {
	handle, err := s.resolver.Translate(id)
	if err != nil {
		return err
	}
	if err := s.manager.Focus(ctx, handle); err != nil {
		return fmt.Errorf("focus %s: %w", id, err)
	}
	return nil
}

// Minimize minimizes the window with the given stable id.
func (s *TabService) Minimize(ctx context.Context, id string) error {
	handle, err := s.resolver.Translate(id)
	if err != nil {
		return err
	}
	if err := s.manager.Minimize(ctx, handle); err != nil {
		return fmt.Errorf("minimize %s: %w", id, err)
	}
	return nil
}

// Reorder replaces the tab order.
func (s *TabService) Reorder(ids []string) error {
	return s.reconciler.Reorder(ids)
}

// GetOrder returns the current tab order.
func (s *TabService) GetOrder() []string {
	return s.reconciler.Order()
}

// ShouldShow reports whether the tab bar should be visible.
func (s *TabService) ShouldShow() bool {
	s.mu.RLock()
	v := s.visibility
	s.mu.RUnlock()
	if v == nil {
		return false
	}
	return v.Visible()
}

// FrontmostApp queries the frontmost application directly.
func (s *TabService) FrontmostApp(ctx context.Context) (string, error) {
	return s.frontmost.FrontmostApp(ctx)
}

// Resize moves every window known from the last cycle below a band of
// reserved pixels. Per-window failures are reported in the results.
func (s *TabService) Resize(ctx context.Context, reserved float64) ([]domain.ResizeResult, error) {
	if err := s.manager.Available(); err != nil {
		return nil, err
	}
	displays, err := s.manager.Displays(ctx)
	if err != nil {
		return nil, err
	}
	if len(displays) == 0 {
		return nil, fmt.Errorf("%w: no displays reported", domain.ErrQueryFailure)
	}

	windows := s.Windows()
	results := make([]domain.ResizeResult, 0, len(windows))
	for _, w := range windows {
		handle, err := s.resolver.Translate(w.ID)
		if err != nil {
			results = append(results, domain.ResizeResult{WindowID: w.ID, Error: err.Error()})
			continue
		}
		display := displayFor(displays, w.Metadata.Display)
		results = append(results, s.planner.Apply(ctx, w.ID, handle, w.Frame, display.Frame, reserved))
	}

	s.logger.Info("resized windows for tab bar",
		zap.Float64("reserved", reserved),
		zap.Int("windows", len(results)))
	return results, nil
}

// displayFor picks the display whose index matches, or the first display.
func displayFor(displays []domain.Display, index int) domain.Display {
	for _, d := range displays {
		if d.Index == index {
			return d
		}
	}
	return displays[0]
}

// Subscribe registers for windows-updated events. The returned cancel func
// closes the channel.
func (s *TabService) Subscribe() (<-chan domain.WindowsUpdated, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan domain.WindowsUpdated, subscriberBuffer)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// publish delivers an event to every subscriber without blocking.
func (s *TabService) publish(ev domain.WindowsUpdated) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.logger.Debug("dropping windows-updated event for slow subscriber", zap.Int("subscriber", id))
		}
	}
}

// Status summarizes the engine state.
func (s *TabService) Status() domain.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := domain.Status{
		StartedAt:        s.startedAt,
		LastCycle:        s.lastCycle,
		WindowCount:      len(s.windows),
		TrackedIDs:       s.resolver.Len(),
		ManagerAvailable: s.managerAvailable,
	}
	if s.visibility != nil {
		st.Visible = s.visibility.Visible()
		st.FrontmostApp = s.visibility.LastFrontmost()
	}
	return st
}
