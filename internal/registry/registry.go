package registry

import (
	"sort"
	"sync"

	gocache "github.com/patrickmn/go-cache"
)

// entry is the ordered, de-duplicated set of class names for one rule.
type entry struct {
	mu    sync.Mutex
	names []string
	seen  map[string]struct{}
}

func newEntry() *entry {
	return &entry{seen: make(map[string]struct{})}
}

// Registry maps rule IDs to the classes matched for them.
type Registry struct {
	// resetMu serializes Reset calls and keeps lookups from observing a
	// half-replaced set of entries.
	resetMu sync.RWMutex
	entries *gocache.Cache
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		// Entries never expire; their lifecycle is driven by Reset only.
		entries: gocache.New(gocache.NoExpiration, 0),
	}
}

// Reset replaces the entry of every given rule ID with a fresh, empty set.
// Entries for IDs not listed are left untouched.
func (r *Registry) Reset(ids ...string) {
	r.resetMu.Lock()
	defer r.resetMu.Unlock()
	for _, id := range ids {
		r.entries.Set(id, newEntry(), gocache.NoExpiration)
	}
}

// RecordMatch adds className to the set of ruleID. It returns true when the
// name was added, false when it was already present or the rule has no entry.
func (r *Registry) RecordMatch(ruleID, className string) bool {
	e, ok := r.lookup(ruleID)
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dup := e.seen[className]; dup {
		return false
	}
	e.seen[className] = struct{}{}
	e.names = append(e.names, className)
	return true
}

// Snapshot returns a copy of the class names recorded for ruleID in the order
// they were first recorded. It returns nil when the rule has no entry.
func (r *Registry) Snapshot(ruleID string) []string {
	e, ok := r.lookup(ruleID)
	if !ok {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.names))
	copy(out, e.names)
	return out
}

// Has reports whether ruleID has an entry.
func (r *Registry) Has(ruleID string) bool {
	_, ok := r.lookup(ruleID)
	return ok
}

// Len returns the number of classes recorded for ruleID.
func (r *Registry) Len(ruleID string) int {
	e, ok := r.lookup(ruleID)
	if !ok {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.names)
}

// IDs returns the rule IDs that currently have an entry, sorted.
func (r *Registry) IDs() []string {
	r.resetMu.RLock()
	defer r.resetMu.RUnlock()

	items := r.entries.Items()
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) lookup(ruleID string) (*entry, bool) {
	r.resetMu.RLock()
	defer r.resetMu.RUnlock()

	v, ok := r.entries.Get(ruleID)
	if !ok {
		return nil, false
	}
	e, ok := v.(*entry)
	return e, ok
}
