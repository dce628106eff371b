// Package domain contains core entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import "time"

// Frame is a window or display rectangle in global screen coordinates.
type Frame struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"w"`
	Height float64 `json:"h"`
}

// RawWindowDescriptor is one window as reported by the window manager.
// Produced fresh each discovery cycle and never retained.
type RawWindowDescriptor struct {
	Handle    int // native window id assigned by the manager
	PID       int
	App       string
	Title     string
	Frame     Frame
	Space     int
	Display   int
	Focused   bool
	Visible   bool
	Minimized bool
}

// Display describes one physical display known to the manager.
type Display struct {
	ID    int   `json:"id"`
	Index int   `json:"index"`
	Frame Frame `json:"frame"`
}

// WindowMetadata carries manager-side attributes of a window.
type WindowMetadata struct {
	Space     int  `json:"space"`
	Display   int  `json:"display"`
	PID       int  `json:"pid"`
	Visible   bool `json:"visible"`
	Minimized bool `json:"minimized"`
}

// WindowRecord is the tab-facing view of a window.
// Rebuilt wholesale every discovery cycle.
type WindowRecord struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Workspace string         `json:"workspace"`
	IsActive  bool           `json:"isActive"`
	Frame     Frame          `json:"frame"`
	Metadata  WindowMetadata `json:"metadata"`
}

// InstanceEntry is the registry record of the running daemon.
// Persisted to a small JSON file so CLI invocations can find it.
type InstanceEntry struct {
	Version       int    `json:"version"`
	PID           int    `json:"pid"`
	StartedAt     int64  `json:"started_at"`
	LastHeartbeat int64  `json:"last_heartbeat"`
	SocketPath    string `json:"socket_path"`
	AppVersion    string `json:"app_version,omitempty"`
}

// ResizeResult captures what happened to one window during a resize pass.
type ResizeResult struct {
	WindowID     string  `json:"id"`
	Y            float64 `json:"y"`
	Height       float64 `json:"h"`
	UsedFallback bool    `json:"used_fallback,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// Status summarizes the daemon state for the status command.
type Status struct {
	StartedAt        time.Time `json:"started_at"`
	LastCycle        time.Time `json:"last_cycle"`
	WindowCount      int       `json:"window_count"`
	TrackedIDs       int       `json:"tracked_ids"`
	ManagerAvailable bool      `json:"manager_available"`
	Visible          bool      `json:"visible"`
	FrontmostApp     string    `json:"frontmost_app"`
}

// WindowsUpdated is emitted once per discovery cycle.
type WindowsUpdated struct {
	Windows []WindowRecord `json:"windows"`
	At      time.Time      `json:"at"`
}
