package infra

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/tab_mon/internal/domain"
	"github.com/eliteGoblin/focusd/tab_mon/internal/policy"
)

// DefaultYabaiSearchPaths are checked when the binary is not on PATH.
// Launch agents start with a minimal PATH that misses Homebrew.
var DefaultYabaiSearchPaths = []string{"/opt/homebrew/bin/yabai", "/usr/local/bin/yabai"}

// YabaiClient implements domain.WindowManager on top of the yabai CLI.
type YabaiClient struct {
	binary      string
	searchPaths []string
	runner      CommandRunner
	lookPath    func(string) (string, error)
	matcher     atomic.Pointer[policy.Matcher]
	logger      *zap.Logger
}

// NewYabaiClient creates a client for the given binary name or path.
func NewYabaiClient(binary string, searchPaths []string, matcher *policy.Matcher, logger *zap.Logger) *YabaiClient {
	return NewYabaiClientWithDeps(binary, searchPaths, matcher, &RealCommandRunner{}, exec.LookPath, logger)
}

// NewYabaiClientWithDeps creates a client with injectable dependencies (for testing).
func NewYabaiClientWithDeps(
	binary string,
	searchPaths []string,
	matcher *policy.Matcher,
	runner CommandRunner,
	lookPath func(string) (string, error),
	logger *zap.Logger,
) *YabaiClient {
	if binary == "" {
		binary = "yabai"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &YabaiClient{
		binary:      binary,
		searchPaths: searchPaths,
		runner:      runner,
		lookPath:    lookPath,
		logger:      logger,
	}
	c.matcher.Store(matcher)
	return c
}

// SetMatcher swaps the owner matcher used to filter discovered windows.
func (c *YabaiClient) SetMatcher(m *policy.Matcher) {
	c.matcher.Store(m)
}

// Available reports whether the yabai executable can be located.
func (c *YabaiClient) Available() error {
	_, err := c.locate()
	return err
}

// locate resolves the executable path, probing PATH first and then the
// fallback locations.
func (c *YabaiClient) locate() (string, error) {
	if path, err := c.lookPath(c.binary); err == nil {
		return path, nil
	}
	for _, candidate := range c.searchPaths {
		if path, err := c.lookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s not found", domain.ErrManagerUnavailable, c.binary)
}

// Discover queries yabai for all windows and keeps those owned by a target
// application. A failing query degrades to an empty result.
func (c *YabaiClient) Discover(ctx context.Context) ([]domain.RawWindowDescriptor, error) {
	path, err := c.locate()
	if err != nil {
		return nil, err
	}

	out, err := c.runner.Output(ctx, path, "-m", "query", "--windows")
	if err != nil {
		c.logger.Warn("window query failed", zap.Error(err))
		return []domain.RawWindowDescriptor{}, nil
	}

	descriptors, err := ParseWindows(out)
	if err != nil {
		c.logger.Warn("window query returned malformed output", zap.Error(err))
		return []domain.RawWindowDescriptor{}, nil
	}

	matcher := c.matcher.Load()
	result := make([]domain.RawWindowDescriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if matcher != nil && matcher.MatchOwner(d.App) {
			result = append(result, d)
		}
	}
	return result, nil
}

// Displays queries yabai for the display list. Unlike Discover, errors are returned.
func (c *YabaiClient) Displays(ctx context.Context) ([]domain.Display, error) {
	path, err := c.locate()
	if err != nil {
		return nil, err
	}
	out, err := c.runner.Output(ctx, path, "-m", "query", "--displays")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQueryFailure, err)
	}
	displays, err := ParseDisplays(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQueryFailure, err)
	}
	return displays, nil
}

// Focus gives keyboard focus to the window.
func (c *YabaiClient) Focus(ctx context.Context, handle int) error {
	return c.windowCommand(ctx, handle, "--focus")
}

// Move places the window's top-left corner at absolute coordinates.
func (c *YabaiClient) Move(ctx context.Context, handle int, x, y float64) error {
	return c.windowCommand(ctx, handle, "--move", fmt.Sprintf("abs:%s:%s", coord(x), coord(y)))
}

// Resize sets the absolute window size.
func (c *YabaiClient) Resize(ctx context.Context, handle int, width, height float64) error {
	return c.windowCommand(ctx, handle, "--resize", fmt.Sprintf("abs:%s:%s", coord(width), coord(height)))
}

// Grid places the window on a rows x cols grid of its display.
func (c *YabaiClient) Grid(ctx context.Context, handle int, rows, cols, x, y, w, h int) error {
	return c.windowCommand(ctx, handle, "--grid", fmt.Sprintf("%d:%d:%d:%d:%d:%d", rows, cols, x, y, w, h))
}

// Minimize minimizes the window.
func (c *YabaiClient) Minimize(ctx context.Context, handle int) error {
	return c.windowCommand(ctx, handle, "--minimize")
}

func (c *YabaiClient) windowCommand(ctx context.Context, handle int, args ...string) error {
	path, err := c.locate()
	if err != nil {
		return err
	}
	full := append([]string{"-m", "window", strconv.Itoa(handle)}, args...)
	if err := c.runner.Run(ctx, path, full...); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrQueryFailure, err)
	}
	return nil
}

func coord(v float64) string {
	return strconv.Itoa(int(v))
}

// Ensure YabaiClient implements domain.WindowManager.
var _ domain.WindowManager = (*YabaiClient)(nil)
