package daemon

import (
	"os"
	"os/exec"
	"syscall"
)

// StartDaemon spawns `tabmon daemon` detached from the calling terminal.
func StartDaemon(configPath string) error {
	executable, err := os.Executable()
	if err != nil {
		return err
	}
	return StartDaemonWithPath(executable, configPath)
}

// StartDaemonWithPath spawns the daemon from a specific binary.
func StartDaemonWithPath(binaryPath, configPath string) error {
	cmd := exec.Command(binaryPath, DaemonArgs(configPath)...)

	// Detach from parent process
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // Create new session (detach from terminal)
	}

	// No stdin/stdout/stderr - the daemon logs to its own file
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return err
	}
	// The child outlives us.
	return cmd.Process.Release()
}

// DaemonArgs returns the argument list for the detached daemon.
func DaemonArgs(configPath string) []string {
	args := []string{"daemon"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	return args
}
