// Package main is the CLI entry point for tabmon.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/tab_mon/internal/config"
	"github.com/eliteGoblin/focusd/tab_mon/internal/daemon"
	"github.com/eliteGoblin/focusd/tab_mon/internal/infra"
	"github.com/eliteGoblin/focusd/tab_mon/internal/ipc"
	"github.com/eliteGoblin/focusd/tab_mon/internal/logging"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tabmon",
	Short: "Editor window tracker - backs a tab bar for VS Code windows",
	Long: `tabmon is a daemon that tracks VS Code windows through yabai, keeps a
persistent user-defined tab order, decides when the tab bar should be visible
and resizes editor windows so the bar never covers them.

The tab bar UI talks to the daemon over a local socket; the commands below
use the same socket.`,
	Version:      Version,
	SilenceUsage: true,
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon in the background",
	Long:  `Launches the daemon detached from the terminal and waits until its socket answers.`,
	RunE:  runStart,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	RunE:  runStatus,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked windows in tab order",
	Long:  `Runs a discovery cycle and prints the tracked windows in their persisted tab order.`,
	RunE:  runList,
}

var focusCmd = &cobra.Command{
	Use:   "focus <id>",
	Short: "Focus a window by stable id",
	Args:  cobra.ExactArgs(1),
	RunE:  runFocus,
}

var minimizeCmd = &cobra.Command{
	Use:   "minimize <id>",
	Short: "Minimize a window by stable id",
	Args:  cobra.ExactArgs(1),
	RunE:  runMinimize,
}

var reorderCmd = &cobra.Command{
	Use:   "reorder <id>...",
	Short: "Replace the persisted tab order",
	Long:  `Stores the given ids verbatim as the new tab order. Unknown ids are kept until the next discovery cycle prunes them.`,
	RunE:  runReorder,
}

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Print the current tab order",
	RunE:  runOrder,
}

var visibleCmd = &cobra.Command{
	Use:   "visible",
	Short: "Print whether the tab bar should be shown",
	RunE:  runVisible,
}

var frontmostCmd = &cobra.Command{
	Use:   "frontmost",
	Short: "Print the frontmost application name",
	RunE:  runFrontmost,
}

var resizeCmd = &cobra.Command{
	Use:   "resize <height>",
	Short: "Reserve space for the tab bar and resize tracked windows",
	Args:  cobra.ExactArgs(1),
	RunE:  runResize,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream window updates from the daemon",
	RunE:  runWatch,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE:  runConfig,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

// Hidden daemon command - used for self-exec by start
var daemonCmd = &cobra.Command{
	Use:    "daemon",
	Hidden: true,
	RunE:   runDaemon,
}

var (
	configPath string
	jsonOutput bool
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/tabmon/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging to stderr")
	for _, c := range []*cobra.Command{statusCmd, listCmd, orderCmd, resizeCmd, watchCmd, versionCmd} {
		c.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	}

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(focusCmd)
	rootCmd.AddCommand(minimizeCmd)
	rootCmd.AddCommand(reorderCmd)
	rootCmd.AddCommand(orderCmd)
	rootCmd.AddCommand(visibleCmd)
	rootCmd.AddCommand(frontmostCmd)
	rootCmd.AddCommand(resizeCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(daemonCmd)
}

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return infra.DefaultConfigPath()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(resolvedConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newClient() (*ipc.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return ipc.NewClient(cfg.SocketPath), nil
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := logging.NewCLILogger(verbose)
	defer func() { _ = logger.Sync() }()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	registry := infra.NewFileRegistry(infra.NewProcessManager())
	if registry.IsAlive() {
		entry, _ := registry.Get()
		if entry != nil {
			fmt.Printf("tabmon is already running (pid %d)\n", entry.PID)
		} else {
			fmt.Println("tabmon is already running")
		}
		return nil
	}

	path := resolvedConfigPath()
	if _, err := os.Stat(path); err != nil {
		path = ""
	}
	logger.Debug("starting daemon", zap.String("config", path))
	if err := daemon.StartDaemon(path); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	if err := daemon.WaitForSocket(cfg.SocketPath, 5*time.Second); err != nil {
		return fmt.Errorf("daemon did not come up: %w", err)
	}

	fmt.Println("tabmon started")
	fmt.Printf("Socket: %s\n", cfg.SocketPath)
	fmt.Printf("Log: %s\n", cfg.Log.File)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	status, err := client.Status()
	if err != nil {
		if errors.Is(err, ipc.ErrDaemonNotRunning) {
			fmt.Println("tabmon is not running")
			fmt.Println("Run 'tabmon start' to start it")
			return nil
		}
		return err
	}

	if jsonOutput {
		return printJSON(status)
	}

	fmt.Println("tabmon status:")
	fmt.Printf("  Daemon: running (PID %d, version %s)\n", status.PID, status.Version)
	fmt.Printf("  Uptime: %s\n", (time.Duration(status.UptimeSeconds) * time.Second).String())
	fmt.Printf("  yabai: %s\n", availability(status.ManagerAvailable))
	fmt.Printf("  Windows: %d (%d ids tracked)\n", status.WindowCount, status.TrackedIDs)
	fmt.Printf("  Tab bar visible: %t\n", status.Visible)
	if status.FrontmostApp != "" {
		fmt.Printf("  Frontmost app: %s\n", status.FrontmostApp)
	}
	if !status.LastCycle.IsZero() {
		fmt.Printf("  Last discovery: %s ago\n", time.Since(status.LastCycle).Round(time.Second))
	}
	if status.OrderFile != "" {
		fmt.Printf("  Order file: %s\n", status.OrderFile)
	}

	if pids, err := infra.NewProcessManager().FindByName("yabai"); err == nil && len(pids) == 0 {
		fmt.Println("\nWarning: no yabai process found; window discovery is paused")
	}
	return nil
}

func availability(ok bool) string {
	if ok {
		return "available"
	}
	return "unavailable"
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	windows, err := client.ListWindows()
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(windows)
	}
	if len(windows) == 0 {
		fmt.Println("No windows tracked")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tACTIVE\tWORKSPACE\tTITLE")
	for _, win := range windows {
		active := ""
		if win.IsActive {
			active = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", win.ID, active, win.Workspace, win.Title)
	}
	return w.Flush()
}

func runFocus(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	return client.Focus(args[0])
}

func runMinimize(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	return client.Minimize(args[0])
}

func runReorder(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	ids := args
	if ids == nil {
		ids = []string{}
	}
	return client.Reorder(ids)
}

func runOrder(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	order, err := client.GetOrder()
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(order)
	}
	for i, id := range order {
		fmt.Printf("%d. %s\n", i+1, id)
	}
	return nil
}

func runVisible(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	show, err := client.ShouldShow()
	if err != nil {
		return err
	}
	fmt.Println(show)
	return nil
}

func runFrontmost(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	name, err := client.FrontmostApp()
	if err != nil {
		return err
	}
	fmt.Println(name)
	return nil
}

func runResize(cmd *cobra.Command, args []string) error {
	height, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid height %q: %w", args[0], err)
	}
	client, err := newClient()
	if err != nil {
		return err
	}
	results, err := client.Resize(height)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(results)
	}
	for _, r := range results {
		switch {
		case r.Error != "":
			fmt.Printf("%s: failed: %s\n", r.WindowID, r.Error)
		case r.UsedFallback:
			fmt.Printf("%s: y=%.0f h=%.0f (grid fallback)\n", r.WindowID, r.Y, r.Height)
		default:
			fmt.Printf("%s: y=%.0f h=%.0f\n", r.WindowID, r.Y, r.Height)
		}
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = client.Subscribe(ctx, func(ev ipc.Event) {
		if jsonOutput {
			_ = printJSON(ev)
			return
		}
		fmt.Printf("[%s] %s: %d windows\n", ev.At.Format(time.TimeOnly), ev.Type, len(ev.Windows))
		for _, w := range ev.Windows {
			fmt.Printf("  %s  %s\n", w.ID, w.Title)
		}
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	fmt.Printf("# %s\n%s", resolvedConfigPath(), data)
	return nil
}

func runDaemon(cmd *cobra.Command, args []string) error {
	path := resolvedConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, closeLog, err := logging.NewDaemonLogger(logging.Config{
		File:       cfg.Log.File,
		Level:      cfg.Log.Level,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   true,
	})
	if err != nil {
		// Fallback to stderr if file logging fails
		logger = logging.NewCLILogger(verbose)
		closeLog = func() { _ = logger.Sync() }
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info("received shutdown signal")
	}()

	err = daemon.Run(ctx, daemon.Options{
		Config:     cfg,
		ConfigPath: path,
		Version:    Version,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("daemon exited", zap.Error(err))
	}
	return err
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("tabmon %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
