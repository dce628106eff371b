// Package usecase contains application business logic.
package usecase

import (
	"sync"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/tab_mon/internal/domain"
)

// Merge combines a persisted order with the windows of the current cycle.
// Windows named by persisted come first in that order, ids whose window has
// closed are dropped, and windows not named by persisted follow in discovery
// order. added holds those trailing windows.
func Merge(persisted []string, current []domain.WindowRecord) (result, added []domain.WindowRecord) {
	byID := make(map[string][]domain.WindowRecord, len(current))
	for _, w := range current {
		byID[w.ID] = append(byID[w.ID], w)
	}

	known := make(map[string]struct{}, len(persisted))
	result = make([]domain.WindowRecord, 0, len(current))
	for _, id := range persisted {
		if _, dup := known[id]; dup {
			continue
		}
		known[id] = struct{}{}
		result = append(result, byID[id]...)
	}

	for _, w := range current {
		if _, ok := known[w.ID]; !ok {
			added = append(added, w)
		}
	}
	return append(result, added...), added
}

// IDs returns the ids of windows in order, without duplicates.
func IDs(windows []domain.WindowRecord) []string {
	seen := make(map[string]struct{}, len(windows))
	ids := make([]string, 0, len(windows))
	for _, w := range windows {
		if _, ok := seen[w.ID]; ok {
			continue
		}
		seen[w.ID] = struct{}{}
		ids = append(ids, w.ID)
	}
	return ids
}

// Reconciler owns the tab order. It is loaded once from the store, merged
// against every discovery cycle and saved whenever new windows appear or the
// user reorders.
type Reconciler struct {
	store  domain.OrderStore
	logger *zap.Logger

	mu    sync.Mutex
	order []string
	seq   uint64

	saveMu    sync.Mutex
	lastSaved uint64

	wg sync.WaitGroup
}

// NewReconciler loads the persisted order from store.
func NewReconciler(store domain.OrderStore, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		store:  store,
		logger: logger,
		order:  store.Load(),
	}
}

// Reconcile merges the current windows into the tab order. When the cycle
// brings windows the order has not seen, the merged order is saved in the
// background; save errors are logged only.
func (r *Reconciler) Reconcile(current []domain.WindowRecord) []domain.WindowRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	result, added := Merge(r.order, current)
	if len(added) == 0 {
		return result
	}

	r.order = IDs(result)
	r.seq++
	seq := r.seq
	order := append([]string(nil), r.order...)

	r.logger.Debug("new windows in tab order",
		zap.Int("added", len(added)),
		zap.Int("total", len(order)))

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.save(seq, order); err != nil {
			r.logger.Warn("background tab order save failed",
				zap.String("path", r.store.Path()),
				zap.Error(err))
		}
	}()
	return result
}

// Reorder replaces the tab order with ids verbatim and saves it. A subset of
// the known ids is accepted and becomes the whole order. The in-memory order
// only changes once the save succeeds.
func (r *Reconciler) Reorder(ids []string) error {
	order := append([]string{}, ids...)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	if err := r.save(r.seq, order); err != nil {
		return err
	}
	r.order = order
	return nil
}

// Order returns a copy of the current tab order.
func (r *Reconciler) Order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.order...)
}

// Wait blocks until every background save has finished.
func (r *Reconciler) Wait() {
	r.wg.Wait()
}

// save writes order unless a newer save has already succeeded. A failed save
// does not advance lastSaved, so older pending saves still land.
func (r *Reconciler) save(seq uint64, order []string) error {
	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	if seq < r.lastSaved {
		r.logger.Debug("skipping superseded tab order save", zap.Uint64("seq", seq))
		return nil
	}
	if err := r.store.Save(order); err != nil {
		return err
	}
	r.lastSaved = seq
	return nil
}
