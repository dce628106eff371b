package daemon

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eliteGoblin/focusd/tab_mon/internal/config"
	"github.com/eliteGoblin/focusd/tab_mon/internal/domain"
	"github.com/eliteGoblin/focusd/tab_mon/internal/identity"
	"github.com/eliteGoblin/focusd/tab_mon/internal/infra"
	"github.com/eliteGoblin/focusd/tab_mon/internal/ipc"
	"github.com/eliteGoblin/focusd/tab_mon/internal/policy"
	"github.com/eliteGoblin/focusd/tab_mon/internal/schedule"
	"github.com/eliteGoblin/focusd/tab_mon/internal/usecase"
)

// Options configure one daemon run.
type Options struct {
	Config       *config.Config
	ConfigPath   string // watched for hot reload when set
	Version      string
	RegistryPath string                  // empty uses the default runtime location
	Frontmost    domain.FrontmostQuerier // nil uses osascript
	Logger       *zap.Logger
}

// matcherSink receives matcher swaps on config reload.
type matcherSink interface {
	SetMatcher(m *policy.Matcher)
}

// Run registers the instance, starts the discovery loop, visibility poller,
// IPC server and config watcher, and blocks until ctx is canceled or one of
// them fails.
func Run(ctx context.Context, opts Options) error {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	pm := infra.NewProcessManager()
	registryPath := opts.RegistryPath
	if registryPath == "" {
		registryPath = infra.DefaultRegistryPath()
	}
	registry := infra.NewFileRegistryWithPath(registryPath, pm)

	pid := pm.GetCurrentPID()
	if err := registry.Register(domain.InstanceEntry{
		PID:        pid,
		SocketPath: cfg.SocketPath,
		AppVersion: opts.Version,
	}); err != nil {
		return err
	}
	defer clearIfOwned(registry, pid, logger)

	matcher := cfg.Matcher()
	yabai := infra.NewYabaiClient(cfg.Manager.Binary, cfg.Manager.SearchPaths, matcher, logger.Named("yabai"))
	if err := yabai.Available(); err != nil {
		logger.Warn("window manager not found, discovery keeps retrying", zap.Error(err))
	}

	frontmost := opts.Frontmost
	if frontmost == nil {
		frontmost = infra.NewFrontmostQuerier()
	}

	store := infra.NewFileOrderStore(cfg.OrderFile)
	reconciler := usecase.NewReconciler(store, logger.Named("order"))
	planner := usecase.NewGeometryPlanner(yabai, cfg.Geometry.Margin, logger.Named("geometry"))
	service := usecase.NewTabService(yabai, identity.NewResolver(), reconciler, planner, frontmost, logger)

	poller := NewVisibilityPoller(VisibilityConfig{
		Interval:     cfg.Visibility.Interval,
		RetryDelay:   cfg.Visibility.RetryDelay,
		MaxRetries:   cfg.Visibility.MaxRetries,
		QueryTimeout: cfg.Visibility.QueryTimeout,
	}, frontmost, matcher, schedule.NewReal(), logger.Named("visibility"))
	service.SetVisibility(poller)

	watcherConfig := DefaultWatcherConfig()
	watcherConfig.DiscoveryInterval = cfg.Discovery.Interval
	watcher := NewWatcher(watcherConfig, service, registry, logger.Named("discovery"))

	server := ipc.NewServer(cfg.SocketPath, service, ipc.ServerInfo{
		Version:   opts.Version,
		OrderFile: store.Path(),
	}, logger.Named("ipc"))
	if err := server.Listen(); err != nil {
		return err
	}

	logger.Info("daemon started",
		zap.Int("pid", pid),
		zap.String("socket", cfg.SocketPath),
		zap.String("order_file", store.Path()),
		zap.String("version", opts.Version))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return watcher.Run(gctx) })
	g.Go(func() error { return poller.Run(gctx) })
	g.Go(func() error { return server.Serve(gctx) })
	if opts.ConfigPath != "" {
		cw := config.NewWatcher(opts.ConfigPath, func(c *config.Config) {
			applyMatcher(c.Matcher(), yabai, poller)
		}, logger.Named("config"))
		g.Go(func() error {
			if err := cw.Run(gctx); err != nil {
				logger.Warn("config hot reload disabled", zap.Error(err))
			}
			return nil
		})
	}

	err := g.Wait()
	reconciler.Wait()
	logger.Info("daemon stopped")
	return err
}

func applyMatcher(m *policy.Matcher, sinks ...matcherSink) {
	for _, s := range sinks {
		s.SetMatcher(m)
	}
}

// clearIfOwned removes the registry entry unless another instance has
// replaced it meanwhile.
func clearIfOwned(registry domain.InstanceRegistry, pid int, logger *zap.Logger) {
	entry, err := registry.Get()
	if err != nil || entry == nil || entry.PID != pid {
		return
	}
	if err := registry.Clear(); err != nil {
		logger.Warn("failed to clear instance registry", zap.Error(err))
	}
}

// WaitForSocket polls until a daemon answers on socketPath or timeout passes.
func WaitForSocket(socketPath string, timeout time.Duration) error {
	client := ipc.NewClient(socketPath)
	client.SetTimeout(200 * time.Millisecond)

	deadline := time.Now().Add(timeout)
	for {
		_, err := client.Status()
		if err == nil || time.Now().After(deadline) {
			return err
		}
		time.Sleep(100 * time.Millisecond)
	}
}
