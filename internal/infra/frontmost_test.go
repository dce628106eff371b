package infra

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrontmost_TrimsOutput(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["-e "+frontmostScript] = []byte("Visual Studio Code\n")
	q := NewFrontmostQuerierWithRunner(runner)

	name, err := q.FrontmostApp(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Visual Studio Code", name)
	assert.Equal(t, []string{"osascript -e " + frontmostScript}, runner.Calls())
}

func TestFrontmost_PropagatesError(t *testing.T) {
	runner := newFakeRunner()
	runner.errs["-e "+frontmostScript] = errors.New("execution error")
	q := NewFrontmostQuerierWithRunner(runner)

	_, err := q.FrontmostApp(context.Background())
	assert.Error(t, err)
}

func TestExpandHomeWith(t *testing.T) {
	assert.Equal(t, "/Users/test/.config/tabmon", ExpandHomeWith("~/.config/tabmon", "/Users/test"))
	assert.Equal(t, "/Users/test", ExpandHomeWith("~", "/Users/test"))
	assert.Equal(t, "/etc/tabmon", ExpandHomeWith("/etc/tabmon", "/Users/test"))
}
