package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const appName = "tabmon"

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return ExpandHomeWith(path, home)
}

// ExpandHomeWith expands ~ against a custom home (for testing).
func ExpandHomeWith(path, home string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		return home
	}
	return path
}

// ConfigDir returns ~/.config/tabmon.
func ConfigDir() string {
	return ExpandHome(filepath.Join("~", ".config", appName))
}

// DefaultConfigPath returns the YAML config location.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultOrderPath returns the persisted tab order location.
func DefaultOrderPath() string {
	return filepath.Join(ConfigDir(), "tab-order.json")
}

// DefaultLogPath returns the daemon log file location.
func DefaultLogPath() string {
	return ExpandHome(filepath.Join("~", "Library", "Logs", appName, appName+".log"))
}

// RuntimeDir returns the per-user runtime directory for the socket and
// instance registry. TMPDIR on macOS is already per-user.
func RuntimeDir() string {
	if dir := os.Getenv("TMPDIR"); dir != "" {
		return filepath.Clean(dir)
	}
	return "/tmp"
}

// DefaultSocketPath returns the IPC socket path.
func DefaultSocketPath() string {
	return filepath.Join(RuntimeDir(), fmt.Sprintf("%s-%d.sock", appName, os.Getuid()))
}

// DefaultRegistryPath returns the instance registry path.
func DefaultRegistryPath() string {
	return filepath.Join(RuntimeDir(), fmt.Sprintf(".%s-%d.instance.json", appName, os.Getuid()))
}
