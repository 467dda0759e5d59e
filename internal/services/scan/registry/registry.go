// Package registry keeps the known-code sets that gate ingestion and resolution
//
// confirmed and invalid are disjoint; a code moves between them only through
// Confirm and Invalidate, which the session actor calls on resolution outcomes.
// Reads are safe from any goroutine
package registry

import (
	"sort"
	"sync"

	"shelfscan/internal/core/barcode"
	"shelfscan/internal/services/scan/domain"
)

// Registry is the in-memory authority for known codes
type Registry struct {
	mu        sync.RWMutex
	confirmed map[string]struct{}
	invalid   map[string]struct{}
}

// New returns an empty registry
func New() *Registry {
	return &Registry{
		confirmed: make(map[string]struct{}),
		invalid:   make(map[string]struct{}),
	}
}

// Hydrate replaces the contents with snap
// codes are normalized on the way in; a code listed in both sets stays confirmed
func (r *Registry) Hydrate(snap domain.RegistrySnapshot) {
	confirmed := make(map[string]struct{}, len(snap.Confirmed))
	invalid := make(map[string]struct{}, len(snap.Invalid))
	for _, c := range snap.Confirmed {
		if c, ok := barcode.Clean(c); ok {
			confirmed[c] = struct{}{}
		}
	}
	for _, c := range snap.Invalid {
		c, ok := barcode.Clean(c)
		if !ok {
			continue
		}
		if _, dup := confirmed[c]; dup {
			continue
		}
		invalid[c] = struct{}{}
	}

	r.mu.Lock()
	r.confirmed, r.invalid = confirmed, invalid
	r.mu.Unlock()
}

// Confirm records code as confirmed and reports whether anything changed
func (r *Registry) Confirm(code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, had := r.confirmed[code]
	_, wasInvalid := r.invalid[code]
	delete(r.invalid, code)
	r.confirmed[code] = struct{}{}
	return !had || wasInvalid
}

// Invalidate records code as invalid and reports whether anything changed
func (r *Registry) Invalidate(code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, had := r.invalid[code]
	_, wasConfirmed := r.confirmed[code]
	delete(r.confirmed, code)
	r.invalid[code] = struct{}{}
	return !had || wasConfirmed
}

// IsConfirmed reports membership in the confirmed set
func (r *Registry) IsConfirmed(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.confirmed[code]
	return ok
}

// IsInvalid reports membership in the invalid set
func (r *Registry) IsInvalid(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.invalid[code]
	return ok
}

// Known reports membership in either set
func (r *Registry) Known(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.confirmed[code]; ok {
		return true
	}
	_, ok := r.invalid[code]
	return ok
}

// Counts returns the set sizes
func (r *Registry) Counts() (confirmed, invalid int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.confirmed), len(r.invalid)
}

// Snapshot returns both sets, sorted
func (r *Registry) Snapshot() domain.RegistrySnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return domain.RegistrySnapshot{
		Confirmed: sortedKeys(r.confirmed),
		Invalid:   sortedKeys(r.invalid),
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
