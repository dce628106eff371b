package domain

import "context"

// WindowSource queries the external window manager.
// Implementation: yabai via its CLI.
type WindowSource interface {
	// Available reports ErrManagerUnavailable when the manager executable is missing.
	Available() error

	// Discover returns descriptors of target-application windows.
	// Fails only with ErrManagerUnavailable; query errors yield an empty slice.
	Discover(ctx context.Context) ([]RawWindowDescriptor, error)

	// Displays returns the display list used for resize math.
	Displays(ctx context.Context) ([]Display, error)
}

// WindowController issues imperative commands by native handle.
// Success is signaled only by command exit status.
type WindowController interface {
	Focus(ctx context.Context, handle int) error
	Move(ctx context.Context, handle int, x, y float64) error
	Resize(ctx context.Context, handle int, width, height float64) error
	Grid(ctx context.Context, handle int, rows, cols, x, y, w, h int) error
	Minimize(ctx context.Context, handle int) error
}

// WindowManager is the full adapter surface.
type WindowManager interface {
	WindowSource
	WindowController
}

// FrontmostQuerier asks the OS which application is frontmost.
// Implementation: osascript against System Events.
type FrontmostQuerier interface {
	FrontmostApp(ctx context.Context) (string, error)
}

// OrderStore persists the ordered list of stable ids.
// Implementation: pretty-printed JSON array, whole-file overwrite.
type OrderStore interface {
	// Load never fails: missing or malformed records yield an empty order.
	Load() []string

	// Save overwrites the record; failures are returned to the caller.
	Save(order []string) error

	// Path returns the record location (for status output and tests).
	Path() string
}

// ProcessManager handles OS process operations.
// Implementation: uses gopsutil for cross-platform support.
type ProcessManager interface {
	// FindByName returns PIDs of processes matching the pattern.
	FindByName(pattern string) ([]int, error)

	// IsRunning checks if a PID exists and is running.
	IsRunning(pid int) bool

	// GetCurrentPID returns the current process PID.
	GetCurrentPID() int
}

// InstanceRegistry records the single active daemon.
// Implementation: JSON file next to the socket.
type InstanceRegistry interface {
	// Register claims the registry for the given entry.
	// Returns ErrAlreadyRunning if a live instance is registered.
	Register(entry InstanceEntry) error

	// UpdateHeartbeat updates timestamp for liveness check.
	UpdateHeartbeat() error

	// Get returns the registered entry, or nil when none exists.
	Get() (*InstanceEntry, error)

	// IsAlive reports whether the registered instance is running.
	IsAlive() bool

	// Clear removes the registry file.
	Clear() error

	// GetRegistryPath returns the registry file path (for tests).
	GetRegistryPath() string
}
