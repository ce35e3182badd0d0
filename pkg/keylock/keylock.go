// Package keylock hands out one mutex per logical entity key.
//
// Locks are created on first use and never evicted. The key space is the set
// of regulations, programme regulations and (regulation, programme) pairs,
// a few thousand entries at most, so growth is bounded in practice. The
// exclusion is process-local; across replicas the storage transactions and
// modified-count checks are what keep writes correct.
package keylock

import (
	"slices"
	"sync"
)

// Registry is safe for concurrent use. The zero value is ready.
type Registry struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New() *Registry {
	return &Registry{locks: make(map[string]*sync.Mutex)}
}

// Mutex returns the lock for key, creating it if absent.
func (r *Registry) Mutex(key string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.locks == nil {
		r.locks = make(map[string]*sync.Mutex)
	}
	m, ok := r.locks[key]
	if !ok {
		m = &sync.Mutex{}
		r.locks[key] = m
	}
	return m
}

// Do runs fn while holding the lock for key. The lock is released on every
// exit path, panics included, and fn's error is returned unchanged.
func (r *Registry) Do(key string, fn func() error) error {
	m := r.Mutex(key)
	m.Lock()
	defer m.Unlock()
	return fn()
}

// DoAll runs fn while holding the locks for every key. Keys are
// deduplicated and acquired in sorted order, so callers holding overlapping
// sets cannot deadlock each other. A caller already holding a lock through
// Do must not pass that key again.
func (r *Registry) DoAll(keys []string, fn func() error) error {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	held := make([]*sync.Mutex, 0, len(sorted))
	defer func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}()
	for _, k := range sorted {
		m := r.Mutex(k)
		m.Lock()
		held = append(held, m)
	}
	return fn()
}

// Len reports how many keys have a lock.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}

// CourseKey is the composite key serializing course writes under one
// programme of one regulation.
func CourseKey(regulationID, programmeID string) string {
	return regulationID + ":" + programmeID
}
