package toast

import "sync"

// broadcast is a list of subscribers that all receive every published
// value. It mirrors the subscriber handling of reactive signals: the list
// is copied before notifying so callbacks may subscribe or unsubscribe
// without deadlocking.
type broadcast[T any] struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscriber[T]
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// subscribe registers fn and returns a function that removes it.
// The returned function is idempotent.
func (b *broadcast[T]) subscribe(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber[T]{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(id) })
	}
}

func (b *broadcast[T]) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == id {
			// Keep subscription order stable for notification order.
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// publish calls every subscriber with v in subscription order.
func (b *broadcast[T]) publish(v T) {
	b.mu.RLock()
	subs := make([]subscriber[T], len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(v)
	}
}

func (b *broadcast[T]) len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *broadcast[T]) clear() {
	b.mu.Lock()
	b.subs = nil
	b.mu.Unlock()
}
