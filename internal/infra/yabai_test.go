package infra

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/tab_mon/internal/domain"
	"github.com/eliteGoblin/focusd/tab_mon/internal/policy"
)

const windowsJSON = `[
  {"id": 101, "pid": 500, "app": "Code", "title": "main.go — tabmon",
   "frame": {"x": 0, "y": 25, "w": 1440, "h": 875}, "space": 1, "display": 1,
   "has-focus": true, "is-visible": true, "is-minimized": false},
  {"id": 102, "pid": 600, "app": "Google Chrome", "title": "Inbox",
   "frame": {"x": 0, "y": 25, "w": 800, "h": 600}, "space": 1, "display": 1},
  {"id": 103, "pid": 500, "app": "Code", "title": "README.md — focusd",
   "frame": {"x": 10, "y": 60, "w": 1000, "h": 700}, "space": 2, "display": 1,
   "focused": 0, "visible": 1, "minimized": 1},
  {"pid": 500, "app": "Code", "title": "no id"},
  {"id": "bad", "pid": 500, "app": "Code"}
]`

const displaysJSON = `[
  {"id": 1, "index": 1, "frame": {"x": 0, "y": 0, "w": 1440, "h": 900}},
  {"id": 2, "index": 2}
]`

func newTestYabai(runner *fakeRunner, found map[string]string) *YabaiClient {
	return NewYabaiClientWithDeps("yabai", DefaultYabaiSearchPaths,
		policy.NewRegistry().Matcher(), runner, lookPathFor(found), zap.NewNop())
}

func TestParseWindows_ValidatesElements(t *testing.T) {
	windows, err := ParseWindows([]byte(windowsJSON))
	require.NoError(t, err)
	require.Len(t, windows, 3)

	first := windows[0]
	assert.Equal(t, 101, first.Handle)
	assert.Equal(t, 500, first.PID)
	assert.Equal(t, "main.go — tabmon", first.Title)
	assert.Equal(t, domain.Frame{X: 0, Y: 25, Width: 1440, Height: 875}, first.Frame)
	assert.True(t, first.Focused)
	assert.True(t, first.Visible)
	assert.False(t, first.Minimized)

	legacy := windows[2]
	assert.False(t, legacy.Focused)
	assert.True(t, legacy.Visible)
	assert.True(t, legacy.Minimized)
	assert.Equal(t, 2, legacy.Space)
}

func TestParseWindows_RejectsNonArray(t *testing.T) {
	_, err := ParseWindows([]byte(`{"id": 1}`))
	assert.Error(t, err)
}

func TestParseDisplays_DropsIncomplete(t *testing.T) {
	displays, err := ParseDisplays([]byte(displaysJSON))
	require.NoError(t, err)
	require.Len(t, displays, 1)
	assert.Equal(t, 900.0, displays[0].Frame.Height)
}

func TestYabai_DiscoverUnavailable(t *testing.T) {
	runner := newFakeRunner()
	client := newTestYabai(runner, nil)

	_, err := client.Discover(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrManagerUnavailable))
	assert.Empty(t, runner.Calls(), "must not query when the binary is missing")
}

func TestYabai_DiscoverFallsBackToSearchPaths(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["-m query --windows"] = []byte(windowsJSON)
	client := newTestYabai(runner, map[string]string{
		"/opt/homebrew/bin/yabai": "/opt/homebrew/bin/yabai",
	})

	windows, err := client.Discover(context.Background())
	require.NoError(t, err)
	assert.Len(t, windows, 2)
	assert.Equal(t, []string{"/opt/homebrew/bin/yabai -m query --windows"}, runner.Calls())
}

func TestYabai_DiscoverFiltersTargetOwners(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["-m query --windows"] = []byte(windowsJSON)
	client := newTestYabai(runner, map[string]string{"yabai": "/usr/bin/yabai"})

	windows, err := client.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, windows, 2)
	for _, w := range windows {
		assert.Equal(t, "Code", w.App)
	}
}

func TestYabai_DiscoverQueryFailureDegradesToEmpty(t *testing.T) {
	runner := newFakeRunner()
	runner.errs["-m query --windows"] = errors.New("exit status 1")
	client := newTestYabai(runner, map[string]string{"yabai": "/usr/bin/yabai"})

	windows, err := client.Discover(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, windows)
	assert.Empty(t, windows)
}

func TestYabai_DiscoverMalformedOutputDegradesToEmpty(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["-m query --windows"] = []byte("not json")
	client := newTestYabai(runner, map[string]string{"yabai": "/usr/bin/yabai"})

	windows, err := client.Discover(context.Background())
	require.NoError(t, err)
	assert.Empty(t, windows)
}

func TestYabai_SetMatcher(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["-m query --windows"] = []byte(windowsJSON)
	client := newTestYabai(runner, map[string]string{"yabai": "/usr/bin/yabai"})

	client.SetMatcher(policy.NewMatcher([]string{"Google Chrome"}, nil))

	windows, err := client.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, 102, windows[0].Handle)
}

func TestYabai_DisplaysQueryFailure(t *testing.T) {
	runner := newFakeRunner()
	runner.errs["-m query --displays"] = errors.New("exit status 1")
	client := newTestYabai(runner, map[string]string{"yabai": "/usr/bin/yabai"})

	_, err := client.Displays(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrQueryFailure))
}

func TestYabai_ControlCommands(t *testing.T) {
	runner := newFakeRunner()
	client := newTestYabai(runner, map[string]string{"yabai": "/usr/bin/yabai"})
	ctx := context.Background()

	require.NoError(t, client.Focus(ctx, 7))
	require.NoError(t, client.Move(ctx, 7, 0, 44.6))
	require.NoError(t, client.Resize(ctx, 7, 1440, 856))
	require.NoError(t, client.Grid(ctx, 7, 20, 1, 0, 1, 1, 19))
	require.NoError(t, client.Minimize(ctx, 7))

	assert.Equal(t, []string{
		"/usr/bin/yabai -m window 7 --focus",
		"/usr/bin/yabai -m window 7 --move abs:0:44",
		"/usr/bin/yabai -m window 7 --resize abs:1440:856",
		"/usr/bin/yabai -m window 7 --grid 20:1:0:1:1:19",
		"/usr/bin/yabai -m window 7 --minimize",
	}, runner.Calls())
}

func TestYabai_ControlFailureIsReported(t *testing.T) {
	runner := newFakeRunner()
	runner.errs["-m window 7 --focus"] = errors.New("could not locate window")
	client := newTestYabai(runner, map[string]string{"yabai": "/usr/bin/yabai"})

	err := client.Focus(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrQueryFailure))
}
