package infra

import (
	"context"
	"strings"

	"github.com/eliteGoblin/focusd/tab_mon/internal/domain"
)

const frontmostScript = `tell application "System Events" to get name of first application process whose frontmost is true`

// OSAScriptFrontmost implements domain.FrontmostQuerier using AppleScript.
type OSAScriptFrontmost struct {
	cmdRunner CommandRunner
}

// NewFrontmostQuerier creates a querier backed by osascript.
func NewFrontmostQuerier() *OSAScriptFrontmost {
	return &OSAScriptFrontmost{cmdRunner: &RealCommandRunner{}}
}

// NewFrontmostQuerierWithRunner creates a querier with an injectable runner (for testing).
func NewFrontmostQuerierWithRunner(runner CommandRunner) *OSAScriptFrontmost {
	return &OSAScriptFrontmost{cmdRunner: runner}
}

// FrontmostApp returns the name of the frontmost application process.
func (f *OSAScriptFrontmost) FrontmostApp(ctx context.Context) (string, error) {
	out, err := f.cmdRunner.Output(ctx, "osascript", "-e", frontmostScript)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Ensure OSAScriptFrontmost implements domain.FrontmostQuerier.
var _ domain.FrontmostQuerier = (*OSAScriptFrontmost)(nil)
