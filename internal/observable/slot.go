// Package observable provides last-write-wins value holders that notify
// subscribers on every post.
package observable

import (
	"sync"
)

// Slot holds the latest posted value. Post is safe from any goroutine;
// subscribers are called synchronously in post order, so they must not
// block or post back into the same slot.
type Slot[T any] struct {
	name string

	mu     sync.RWMutex
	value  T
	set    bool
	nextID int
	subs   map[int]func(T)
}

func NewSlot[T any](name string) *Slot[T] {
	return &Slot[T]{name: name, subs: make(map[int]func(T))}
}

func (s *Slot[T]) Name() string { return s.name }

// Post replaces the value and notifies every subscriber.
func (s *Slot[T]) Post(v T) {
	s.mu.Lock()
	s.value = v
	s.set = true
	// notify under the write lock so subscribers see posts in order
	for _, fn := range s.subs {
		fn(v)
	}
	s.mu.Unlock()
}

// Value returns the latest value and whether anything has been posted.
func (s *Slot[T]) Value() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.set
}

// Subscribe registers fn and returns a function that removes it. fn does
// not receive the current value; read it with Value.
func (s *Slot[T]) Subscribe(fn func(T)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}
