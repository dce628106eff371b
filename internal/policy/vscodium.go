package policy

// VSCodiumPolicy implements TargetPolicy for the community VSCodium build.
type VSCodiumPolicy struct{}

// NewVSCodiumPolicy creates a new VSCodium policy.
func NewVSCodiumPolicy() *VSCodiumPolicy {
	return &VSCodiumPolicy{}
}

func (p *VSCodiumPolicy) ID() string {
	return "vscodium"
}

func (p *VSCodiumPolicy) Name() string {
	return "VSCodium"
}

func (p *VSCodiumPolicy) WindowOwners() []string {
	return []string{"VSCodium"}
}

func (p *VSCodiumPolicy) FrontmostFragments() []string {
	return []string{"vscodium"}
}

// Ensure VSCodiumPolicy implements TargetPolicy.
var _ TargetPolicy = (*VSCodiumPolicy)(nil)
