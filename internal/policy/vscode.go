package policy

// VSCodePolicy implements TargetPolicy for Microsoft builds of Visual Studio Code.
type VSCodePolicy struct{}

// NewVSCodePolicy creates the policy for stable and Insiders builds.
func NewVSCodePolicy() *VSCodePolicy {
	return &VSCodePolicy{}
}

func (p *VSCodePolicy) ID() string {
	return "vscode"
}

func (p *VSCodePolicy) Name() string {
	return "Visual Studio Code"
}

// WindowOwners returns the owner names yabai reports for VS Code windows.
// The stable build reports "Code", older builds the full product name.
func (p *VSCodePolicy) WindowOwners() []string {
	return []string{
		"Code",
		"Visual Studio Code",
		"Code - Insiders",
		"Visual Studio Code - Insiders",
	}
}

func (p *VSCodePolicy) FrontmostFragments() []string {
	return []string{
		"code",
		"visual studio code",
	}
}

// Ensure VSCodePolicy implements TargetPolicy.
var _ TargetPolicy = (*VSCodePolicy)(nil)
