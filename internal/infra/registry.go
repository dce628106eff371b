package infra

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/eliteGoblin/focusd/tab_mon/internal/domain"
)

// FileRegistry implements domain.InstanceRegistry using a hidden JSON file.
type FileRegistry struct {
	path           string
	processManager domain.ProcessManager
}

// NewFileRegistry creates a registry at the default runtime location.
func NewFileRegistry(pm domain.ProcessManager) domain.InstanceRegistry {
	return NewFileRegistryWithPath(DefaultRegistryPath(), pm)
}

// NewFileRegistryWithPath creates a registry at a specific path (for testing).
func NewFileRegistryWithPath(path string, pm domain.ProcessManager) domain.InstanceRegistry {
	return &FileRegistry{
		path:           path,
		processManager: pm,
	}
}

// GetRegistryPath returns the registry file path.
func (r *FileRegistry) GetRegistryPath() string {
	return r.path
}

// Register claims the registry for the given entry. A live instance other
// than the caller wins and ErrAlreadyRunning is returned.
func (r *FileRegistry) Register(entry domain.InstanceEntry) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0700); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}

	// Use file lock so two daemons started together cannot both claim it
	lockPath := r.path + ".lock"
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}
	defer lockFile.Close()

	if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer func() { _ = syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN) }()

	existing, _ := r.Get() // May not exist yet
	if existing != nil && existing.PID != entry.PID && r.processManager.IsRunning(existing.PID) {
		return fmt.Errorf("%w (pid %d)", domain.ErrAlreadyRunning, existing.PID)
	}

	entry.Version = 1
	now := time.Now().Unix()
	if entry.StartedAt == 0 {
		entry.StartedAt = now
	}
	entry.LastHeartbeat = now

	return r.atomicWrite(&entry)
}

// UpdateHeartbeat updates timestamp for liveness check.
func (r *FileRegistry) UpdateHeartbeat() error {
	entry, err := r.Get()
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("no instance registered")
	}

	entry.LastHeartbeat = time.Now().Unix()
	return r.atomicWrite(entry)
}

// IsAlive checks whether the registered instance is running via PID.
func (r *FileRegistry) IsAlive() bool {
	entry, err := r.Get()
	if err != nil || entry == nil {
		return false
	}
	return r.processManager.IsRunning(entry.PID)
}

// Get returns the registry entry, or nil when no file exists.
func (r *FileRegistry) Get() (*domain.InstanceEntry, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entry domain.InstanceEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}

	return &entry, nil
}

// Clear removes the registry file.
func (r *FileRegistry) Clear() error {
	err := os.Remove(r.path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// atomicWrite writes registry to file atomically (write + rename).
func (r *FileRegistry) atomicWrite(entry *domain.InstanceEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	tmpPath := fmt.Sprintf("%s.%d.tmp", r.path, os.Getpid())
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, r.path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// Ensure FileRegistry implements domain.InstanceRegistry.
var _ domain.InstanceRegistry = (*FileRegistry)(nil)
