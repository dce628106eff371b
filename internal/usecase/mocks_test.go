package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/eliteGoblin/focusd/tab_mon/internal/domain"
)

// mockOrderStore implements domain.OrderStore for testing
type mockOrderStore struct {
	mu      sync.Mutex
	initial []string
	saves   [][]string
	saveErr error
}

func (m *mockOrderStore) Load() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initial == nil {
		return []string{}
	}
	return append([]string{}, m.initial...)
}

func (m *mockOrderStore) Save(order []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves = append(m.saves, append([]string{}, order...))
	return nil
}

func (m *mockOrderStore) Path() string {
	return "/tmp/tab-order.json"
}

func (m *mockOrderStore) Saves() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.saves...)
}

// mockManager implements domain.WindowManager for testing
type mockManager struct {
	mu          sync.Mutex
	unavailable bool
	windows     []domain.RawWindowDescriptor
	displays    []domain.Display
	displaysErr error
	failMove    bool
	failResize  bool
	failGrid    bool
	failFocus   bool
	calls       []string
}

var errCommand = errors.New("command failed")

func (m *mockManager) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockManager) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockManager) Available() error {
	if m.unavailable {
		return domain.ErrManagerUnavailable
	}
	return nil
}

func (m *mockManager) Discover(ctx context.Context) ([]domain.RawWindowDescriptor, error) {
	if err := m.Available(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.RawWindowDescriptor{}, m.windows...), nil
}

func (m *mockManager) Displays(ctx context.Context) ([]domain.Display, error) {
	if m.displaysErr != nil {
		return nil, m.displaysErr
	}
	return m.displays, nil
}

func (m *mockManager) Focus(ctx context.Context, handle int) error {
	m.record(fmtCall("focus", handle))
	if m.failFocus {
		return errCommand
	}
	return nil
}

func (m *mockManager) Move(ctx context.Context, handle int, x, y float64) error {
	m.record(fmtCall("move", handle, x, y))
	if m.failMove {
		return errCommand
	}
	return nil
}

func (m *mockManager) Resize(ctx context.Context, handle int, w, h float64) error {
	m.record(fmtCall("resize", handle, w, h))
	if m.failResize {
		return errCommand
	}
	return nil
}

func (m *mockManager) Grid(ctx context.Context, handle int, rows, cols, x, y, w, h int) error {
	m.record(fmtCall("grid", handle, rows, cols, x, y, w, h))
	if m.failGrid {
		return errCommand
	}
	return nil
}

func (m *mockManager) Minimize(ctx context.Context, handle int) error {
	m.record(fmtCall("minimize", handle))
	return nil
}

// mockFrontmost implements domain.FrontmostQuerier for testing
type mockFrontmost struct {
	name string
	err  error
}

func (m *mockFrontmost) FrontmostApp(ctx context.Context) (string, error) {
	return m.name, m.err
}

// mockVisibility implements VisibilityReader for testing
type mockVisibility struct {
	visible bool
	last    string
}

func (m *mockVisibility) Visible() bool         { return m.visible }
func (m *mockVisibility) LastFrontmost() string { return m.last }

func fmtCall(name string, args ...interface{}) string {
	return fmt.Sprintf("%s %v", name, args)
}
