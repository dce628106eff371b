// Package identity derives stable window ids and owns the live id to handle map.
package identity

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/eliteGoblin/focusd/tab_mon/internal/domain"
)

// Separator is the token VS Code places between the file and workspace parts
// of a window title.
const Separator = " — "

// idLength is the number of hex characters kept from the digest.
const idLength = 8

// WorkspaceLabel returns the title segment after the last separator, or the
// whole title when there is none.
func WorkspaceLabel(title string) string {
	idx := strings.LastIndex(title, Separator)
	if idx < 0 {
		return title
	}
	return title[idx+len(Separator):]
}

// StableID derives the id of a window from its title and owning pid.
// Collisions are possible and not detected.
func StableID(title string, pid int) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s-%d", WorkspaceLabel(title), pid)))
	return hex.EncodeToString(sum[:])[:idLength]
}

// Resolver turns descriptors into records and keeps the identity map of the
// most recent cycle. The map is replaced whole, never mutated.
type Resolver struct {
	current atomic.Pointer[map[string]int]
}

// NewResolver creates a resolver with an empty identity map.
func NewResolver() *Resolver {
	r := &Resolver{}
	empty := map[string]int{}
	r.current.Store(&empty)
	return r
}

// Resolve builds one record per descriptor, in input order, and swaps in a
// fresh identity map. On id collision the later descriptor owns the handle.
func (r *Resolver) Resolve(descriptors []domain.RawWindowDescriptor) []domain.WindowRecord {
	next := make(map[string]int, len(descriptors))
	records := make([]domain.WindowRecord, 0, len(descriptors))

	for _, d := range descriptors {
		id := StableID(d.Title, d.PID)
		next[id] = d.Handle
		records = append(records, domain.WindowRecord{
			ID:        id,
			Title:     d.Title,
			Workspace: WorkspaceLabel(d.Title),
			IsActive:  d.Focused,
			Frame:     d.Frame,
			Metadata: domain.WindowMetadata{
				Space:     d.Space,
				Display:   d.Display,
				PID:       d.PID,
				Visible:   d.Visible,
				Minimized: d.Minimized,
			},
		})
	}

	r.current.Store(&next)
	return records
}

// Translate returns the native handle for id from the current map.
func (r *Resolver) Translate(id string) (int, error) {
	handle, ok := (*r.current.Load())[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return handle, nil
}

// Len returns the number of ids in the current map.
func (r *Resolver) Len() int {
	return len(*r.current.Load())
}
