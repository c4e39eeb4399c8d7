package wsutil

import "sync"

// Latest is a single slot cell. Set overwrites the value whether or not the
// previous one was read, so a slow reader only ever sees the newest value.
type Latest[T any] struct {
	mu    sync.Mutex
	ch    chan T
	value T
	set   bool
}

func NewLatest[T any]() *Latest[T] {
	return &Latest[T]{ch: make(chan T, 1)}
}

// Set stores v and makes it the only value available on C
func (l *Latest[T]) Set(v T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.value = v
	l.set = true
	select {
	case <-l.ch:
	default:
	}
	l.ch <- v
}

// Get returns the last value set, whether or not it was read from C
func (l *Latest[T]) Get() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.set
}

// C returns the channel delivering the unread value, if any
func (l *Latest[T]) C() <-chan T {
	return l.ch
}
