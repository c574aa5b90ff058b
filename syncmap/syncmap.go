package syncmap

import (
	"cmp"
	"iter"
	"maps"
	"slices"
	"sync"
)

// Map is a regular map but synchronized with a mutex.
// Each method is atomic with respect to every other method.
type Map[K cmp.Ordered, V any] struct {
	mu sync.Mutex
	m  map[K]V
}

// New returns a new syncmap.
func New[K cmp.Ordered, V any]() *Map[K, V] {
	return &Map[K, V]{
		m: make(map[K]V),
	}
}

// Load returns the value for a key.
func (m *Map[K, V]) Load(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.m[key]
	return v, ok
}

// Store sets the value for a key.
func (m *Map[K, V]) Store(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[key] = value
}

// LoadOrStore returns the existing value for a key if present.
// Otherwise, it stores value and returns it.
// loaded reports whether the key was already present.
func (m *Map[K, V]) LoadOrStore(key K, value V) (actual V, loaded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.m[key]; ok {
		return v, true
	}
	m.m[key] = value
	return value, false
}

// LoadAndDelete deletes a key, returning its previous value if any.
func (m *Map[K, V]) LoadAndDelete(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.m[key]
	delete(m.m, key)
	return v, ok
}

// Delete deletes a key.
func (m *Map[K, V]) Delete(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.m, key)
}

// Len returns the number of elements in the map.
func (m *Map[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.m)
}

// Keys returns the keys of the map in sorted order.
func (m *Map[K, V]) Keys() []K {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Sorted(maps.Keys(m.m))
}

// All iterates over a snapshot of the map in key order.
// Modifications during iteration are not observed.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	m.mu.Lock()
	c := maps.Clone(m.m)
	m.mu.Unlock()
	return func(f func(K, V) bool) {
		for _, k := range slices.Sorted(maps.Keys(c)) {
			if !f(k, c[k]) {
				return
			}
		}
	}
}
