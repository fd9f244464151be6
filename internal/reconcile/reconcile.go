// Package reconcile computes set differences between disk-resident
// artifacts and store-resident rows.
//
// The engine is read-only and order-independent: it never mutates either
// side and never sorts. Detecting a stale key does not imply deletion;
// removal is an explicit external operation.
package reconcile

// Set is an unordered collection of projection keys (file paths or
// session names).
type Set map[string]struct{}

// NewSet builds a Set from keys, ignoring empty strings.
func NewSet(keys ...string) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		s[k] = struct{}{}
	}
	return s
}

// Add inserts a key, ignoring empty strings.
func (s Set) Add(key string) {
	if key == "" {
		return
	}
	s[key] = struct{}{}
}

// Contains reports membership.
func (s Set) Contains(key string) bool {
	_, ok := s[key]
	return ok
}

// Diff is the result of one reconciliation call over a single projection:
// missing keys exist on disk but not in the store, stale keys exist in
// the store but are no longer backed by a disk document. The two sets
// are always disjoint.
type Diff struct {
	Missing []string
	Stale   []string
}

// Compute derives the missing and stale sets for one projection.
//
//	missing = disk − store
//	stale   = store − disk
//
// Result order is unspecified; callers impose a stable sort for
// presentation.
func Compute(disk, store Set) Diff {
	var d Diff
	for k := range disk {
		if !store.Contains(k) {
			d.Missing = append(d.Missing, k)
		}
	}
	for k := range store {
		if !disk.Contains(k) {
			d.Stale = append(d.Stale, k)
		}
	}
	return d
}
