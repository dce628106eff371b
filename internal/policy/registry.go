package policy

import (
	"sort"
)

// Registry holds all target-application policies.
type Registry struct {
	policies map[string]TargetPolicy
}

// NewRegistry creates a registry with all default policies.
func NewRegistry() *Registry {
	r := &Registry{
		policies: make(map[string]TargetPolicy),
	}

	r.Register(NewVSCodePolicy())
	r.Register(NewVSCodiumPolicy())

	return r
}

// NewRegistryWithPolicies creates a registry with custom policies (for testing).
func NewRegistryWithPolicies(policies ...TargetPolicy) *Registry {
	r := &Registry{
		policies: make(map[string]TargetPolicy),
	}
	for _, p := range policies {
		r.Register(p)
	}
	return r
}

// Register adds a policy to the registry.
func (r *Registry) Register(p TargetPolicy) {
	r.policies[p.ID()] = p
}

// Get returns a policy by ID.
func (r *Registry) Get(id string) (TargetPolicy, bool) {
	p, ok := r.policies[id]
	return p, ok
}

// GetAll returns all registered policies sorted by ID.
func (r *Registry) GetAll() []TargetPolicy {
	result := make([]TargetPolicy, 0, len(r.policies))
	for _, p := range r.policies {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID() < result[j].ID()
	})
	return result
}

// WindowOwners returns the union of owner names across all policies.
func (r *Registry) WindowOwners() []string {
	var owners []string
	for _, p := range r.GetAll() {
		owners = append(owners, p.WindowOwners()...)
	}
	return owners
}

// FrontmostFragments returns the union of frontmost fragments across all
// policies plus the host process fragments.
func (r *Registry) FrontmostFragments() []string {
	var fragments []string
	for _, p := range r.GetAll() {
		fragments = append(fragments, p.FrontmostFragments()...)
	}
	return append(fragments, HostFragments...)
}

// Matcher builds a matcher from every registered policy.
func (r *Registry) Matcher() *Matcher {
	return NewMatcher(r.WindowOwners(), r.FrontmostFragments())
}
