package blackboard

import (
	"encoding/json"
	"sort"
	"sync"
)

// Board is a flat, concurrency-safe key/value store.
// The zero value is ready to use; the internal map is created on first write.
type Board struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{data: make(map[string]any)}
}

func (b *Board) init() {
	if b.data == nil {
		b.data = make(map[string]any)
	}
}

// Get returns the value stored under key, or nil.
func (b *Board) Get(key string) any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data[key]
}

// Lookup returns the value stored under key and whether it exists.
func (b *Board) Lookup(key string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[key]
	return v, ok
}

// Has reports whether key exists.
func (b *Board) Has(key string) bool {
	_, ok := b.Lookup(key)
	return ok
}

// Set stores value under key.
func (b *Board) Set(key string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.init()
	b.data[key] = value
}

// Unset removes key.
func (b *Board) Unset(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
}

// Clear removes every key.
func (b *Board) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = make(map[string]any)
}

// IsEmpty reports whether the board holds no keys.
func (b *Board) IsEmpty() bool {
	return b.Len() == 0
}

// Len returns the number of keys.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data)
}

// Keys returns the keys in sorted order.
func (b *Board) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.data))
	for k := range b.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a shallow copy of the board data.
// Mutable values (slices, maps, pointers) are shared with the board.
func (b *Board) Snapshot() map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]any, len(b.data))
	for k, v := range b.data {
		out[k] = v
	}
	return out
}

// MarshalJSON serializes the board data.
func (b *Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Snapshot())
}

// load replaces the board data with a copy of data.
func (b *Board) load(data map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = make(map[string]any, len(data))
	for k, v := range data {
		b.data[k] = v
	}
}

// View gives lock-free access to a board inside Update.
type View struct {
	data map[string]any
}

// Get returns the value stored under key, or nil.
func (v View) Get(key string) any { return v.data[key] }

// Set stores value under key.
func (v View) Set(key string, value any) { v.data[key] = value }

// Unset removes key.
func (v View) Unset(key string) { delete(v.data, key) }

// Update runs fn while holding the board's write lock.
// fn must not call methods on the same board.
func (b *Board) Update(fn func(View)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.init()
	fn(View{data: b.data})
}

// CompareAndSet stores next under key only if the current value equals old.
// Values must be comparable.
func (b *Board) CompareAndSet(key string, old, next any) bool {
	swapped := false
	b.Update(func(v View) {
		if v.Get(key) == old {
			v.Set(key, next)
			swapped = true
		}
	})
	return swapped
}
