package syncmap

import (
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"testing/quick"
)

func TestMap_Concurrent(t *testing.T) {
	m := New[int, int]()
	const goroutines = 100
	const operations = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func(base int) {
			defer wg.Done()
			for j := 0; j < operations; j++ {
				key := base + j
				m.Store(key, key*2)
				if v, ok := m.Load(key); !ok || v != key*2 {
					t.Errorf("Concurrent operation failed: key=%d, expected=%d, got=%v", key, key*2, v)
				}
				m.Delete(key)
				if _, ok := m.Load(key); ok {
					t.Errorf("Delete operation failed: key=%d still exists", key)
				}
			}
		}(i * operations)
	}
	wg.Wait()
	if n := m.Len(); n != 0 {
		t.Errorf("Expected empty map, got %d elements", n)
	}
}

func TestMap_LoadOrStore(t *testing.T) {
	m := New[string, int]()
	v, loaded := m.LoadOrStore("bocchi", 1)
	if loaded || v != 1 {
		t.Errorf("first store: want 1 not loaded, got %d loaded=%t", v, loaded)
	}
	v, loaded = m.LoadOrStore("bocchi", 2)
	if !loaded || v != 1 {
		t.Errorf("second store: want 1 loaded, got %d loaded=%t", v, loaded)
	}
	if n := m.Len(); n != 1 {
		t.Errorf("Expected 1 element, got %d", n)
	}
}

func TestMap_LoadOrStore_Concurrent(t *testing.T) {
	m := New[string, int]()
	const goroutines = 64
	var stored atomic.Int32
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := range goroutines {
		go func() {
			defer wg.Done()
			if _, loaded := m.LoadOrStore("ryo", i); !loaded {
				stored.Add(1)
			}
		}()
	}
	wg.Wait()
	if n := stored.Load(); n != 1 {
		t.Errorf("Expected exactly one store to win, got %d", n)
	}
}

func TestMap_LoadAndDelete(t *testing.T) {
	m := New[string, int]()
	m.Store("nijika", 4)
	v, ok := m.LoadAndDelete("nijika")
	if !ok || v != 4 {
		t.Errorf("first delete: want 4 present, got %d present=%t", v, ok)
	}
	v, ok = m.LoadAndDelete("nijika")
	if ok || v != 0 {
		t.Errorf("second delete: want zero absent, got %d present=%t", v, ok)
	}
}

func TestMap_LoadAndDelete_Concurrent(t *testing.T) {
	m := New[string, int]()
	m.Store("kita", 1)
	const goroutines = 64
	var popped atomic.Int32
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			if _, ok := m.LoadAndDelete("kita"); ok {
				popped.Add(1)
			}
		}()
	}
	wg.Wait()
	if n := popped.Load(); n != 1 {
		t.Errorf("Expected exactly one pop, got %d", n)
	}
}

func TestMap_All(t *testing.T) {
	m := New[string, int]()

	// Test empty map
	count := 0
	for range m.All() {
		count++
	}
	if count != 0 {
		t.Errorf("Expected 0 elements in empty map, got %d", count)
	}

	testData := map[string]int{
		"one":   1,
		"two":   2,
		"three": 3,
	}
	for k, v := range testData {
		m.Store(k, v)
	}

	var keys []string
	for k, v := range m.All() {
		if testData[k] != v {
			t.Errorf("Missing or incorrect value for key %s: expected %d, got %d", k, testData[k], v)
		}
		keys = append(keys, k)
	}
	if !slices.Equal(keys, []string{"one", "three", "two"}) {
		t.Errorf("Wrong iteration order: %v", keys)
	}
	if got := m.Keys(); !slices.Equal(got, keys) {
		t.Errorf("Keys disagrees with All: %v vs %v", got, keys)
	}

	// Test early termination
	count = 0
	m.All()(func(k string, v int) bool {
		count++
		return count < 2
	})
	if count != 2 {
		t.Errorf("Expected early termination after 2 elements, got %d", count)
	}

	// Modification during iteration is not observed.
	count = 0
	for range m.All() {
		m.Store("four", 4)
		count++
	}
	if count != 3 {
		t.Errorf("Expected snapshot of 3 elements, got %d", count)
	}
}

func TestMap_All_Quick(t *testing.T) {
	f := func(entries map[string]int) bool {
		m := New[string, int]()
		for k, v := range entries {
			m.Store(k, v)
		}

		seen := make(map[string]int)
		for k, v := range m.All() {
			seen[k] = v
		}

		if len(seen) != len(entries) {
			return false
		}

		for k, v := range entries {
			if seen[k] != v {
				return false
			}
		}

		return true
	}

	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}
