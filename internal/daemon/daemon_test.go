package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/focusd/tab_mon/internal/config"
	"github.com/eliteGoblin/focusd/tab_mon/internal/domain"
	"github.com/eliteGoblin/focusd/tab_mon/internal/policy"
)

func TestRun_RefusesWhenAnotherInstanceIsAlive(t *testing.T) {
	dir, err := os.MkdirTemp("", "tmr")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	registryPath := filepath.Join(dir, "instance.json")
	// The parent process (go test) is alive for the duration of the test.
	data, err := json.Marshal(domain.InstanceEntry{Version: 1, PID: os.Getppid(), StartedAt: time.Now().Unix()})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(registryPath, data, 0600))

	cfg := config.Default()
	cfg.SocketPath = filepath.Join(dir, "d.sock")
	cfg.OrderFile = filepath.Join(dir, "order.json")

	err = Run(context.Background(), Options{Config: cfg, RegistryPath: registryPath})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAlreadyRunning))

	_, statErr := os.Stat(cfg.SocketPath)
	assert.True(t, os.IsNotExist(statErr), "no socket may be bound by a refused instance")
}

func TestRun_ClearsRegistryWhenSocketCannotBind(t *testing.T) {
	dir, err := os.MkdirTemp("", "tmr")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	registryPath := filepath.Join(dir, "instance.json")
	cfg := config.Default()
	cfg.SocketPath = filepath.Join(dir, "missing", "d.sock")
	cfg.OrderFile = filepath.Join(dir, "order.json")

	err = Run(context.Background(), Options{Config: cfg, RegistryPath: registryPath})
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrAlreadyRunning))

	_, statErr := os.Stat(registryPath)
	assert.True(t, os.IsNotExist(statErr), "registry entry must not outlive a failed start")
}

// recordingSink implements matcherSink for testing
type recordingSink struct {
	got *policy.Matcher
}

func (r *recordingSink) SetMatcher(m *policy.Matcher) { r.got = m }

func TestApplyMatcher(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	m := policy.NewMatcher([]string{"Cursor"}, []string{"cursor"})

	applyMatcher(m, a, b)

	assert.Same(t, m, a.got)
	assert.Same(t, m, b.got)
}
