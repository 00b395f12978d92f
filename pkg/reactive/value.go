// Package reactive provides a minimal observable value: a store holding one
// immutable snapshot, replaced wholesale on every update, with synchronous
// subscriber notification. It decouples the map engine from whatever UI
// binds to it — consumers subscribe, mutators go through Set, and nothing
// ever observes a half-updated state.
package reactive

import "sync"

// Value holds a snapshot of type T and a subscriber list.
type Value[T any] struct {
	mu     sync.Mutex
	value  T
	subs   map[int]func(T)
	nextID int
}

// NewValue creates a store with the given initial snapshot.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		value: initial,
		subs:  make(map[int]func(T)),
	}
}

// Get returns the current snapshot.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

// Set replaces the snapshot and synchronously notifies every subscriber
// with the new value. Notification order across subscribers is unspecified.
func (v *Value[T]) Set(value T) {
	v.mu.Lock()
	v.value = value
	subs := make([]func(T), 0, len(v.subs))
	for _, fn := range v.subs {
		subs = append(subs, fn)
	}
	v.mu.Unlock()

	for _, fn := range subs {
		fn(value)
	}
}

// Update applies fn to the current snapshot and stores the result, with the
// same notification semantics as Set.
func (v *Value[T]) Update(fn func(T) T) {
	v.mu.Lock()
	next := fn(v.value)
	v.value = next
	subs := make([]func(T), 0, len(v.subs))
	for _, sub := range v.subs {
		subs = append(subs, sub)
	}
	v.mu.Unlock()

	for _, sub := range subs {
		sub(next)
	}
}

// Subscribe registers a listener called after every update. It returns an
// unsubscribe function; calling it more than once is harmless.
func (v *Value[T]) Subscribe(fn func(T)) func() {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.subs[id] = fn
	v.mu.Unlock()

	return func() {
		v.mu.Lock()
		delete(v.subs, id)
		v.mu.Unlock()
	}
}
