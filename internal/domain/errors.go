package domain

import "errors"

var (
	// ErrManagerUnavailable means the window manager executable could not be located.
	ErrManagerUnavailable = errors.New("window manager unavailable")

	// ErrQueryFailure means the manager was found but a query or command failed.
	ErrQueryFailure = errors.New("window manager query failed")

	// ErrNotFound means a stable id is absent from the current identity map.
	ErrNotFound = errors.New("window not found")

	// ErrPersistenceWrite means the tab order could not be saved.
	ErrPersistenceWrite = errors.New("failed to persist tab order")

	// ErrAlreadyRunning means another daemon instance is alive.
	ErrAlreadyRunning = errors.New("daemon already running")
)
