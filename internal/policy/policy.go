// Package policy implements the Strategy pattern for target-application rules.
// Each tracked editor (VS Code and its branded builds) has its own policy
// naming the window owners to enumerate and the frontmost fragments that keep
// the tab bar visible.
package policy

// TargetPolicy defines the strategy interface for a tracked application.
type TargetPolicy interface {
	// ID returns unique identifier (e.g., "vscode", "vscodium").
	ID() string

	// Name returns human-readable name for display.
	Name() string

	// WindowOwners returns owner-application names whose windows become tabs.
	// Matched case-insensitively against the whole owner name.
	WindowOwners() []string

	// FrontmostFragments returns name fragments that mean "show the tab bar"
	// when found in the frontmost application name.
	FrontmostFragments() []string
}

// HostFragments are frontmost names of the process hosting the tab bar itself.
// Clicking a tab makes the host frontmost and the bar must stay visible.
var HostFragments = []string{"electron", "tabmon"}
