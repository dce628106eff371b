package policy

import (
	"strings"
)

// Matcher decides which owner names are tracked and which frontmost
// application names keep the tab bar visible. It is immutable; reloads
// build a new Matcher.
type Matcher struct {
	owners    map[string]struct{}
	fragments []string
}

// NewMatcher normalizes owners and fragments. Blank entries are dropped so an
// empty fragment can never match every application.
func NewMatcher(owners, fragments []string) *Matcher {
	m := &Matcher{
		owners: make(map[string]struct{}, len(owners)),
	}
	for _, o := range owners {
		o = strings.ToLower(strings.TrimSpace(o))
		if o == "" {
			continue
		}
		m.owners[o] = struct{}{}
	}
	for _, f := range fragments {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		m.fragments = append(m.fragments, f)
	}
	return m
}

// MatchOwner reports whether a window owned by app should become a tab.
func (m *Matcher) MatchOwner(app string) bool {
	_, ok := m.owners[strings.ToLower(strings.TrimSpace(app))]
	return ok
}

// MatchFrontmost reports whether the frontmost application name contains any
// target fragment (case-insensitive).
func (m *Matcher) MatchFrontmost(name string) bool {
	lower := strings.ToLower(name)
	if lower == "" {
		return false
	}
	for _, f := range m.fragments {
		if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}

// Fragments returns a copy of the normalized frontmost fragments.
func (m *Matcher) Fragments() []string {
	return append([]string(nil), m.fragments...)
}
