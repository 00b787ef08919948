// Package observe provides the listener registry behind every store's Subscribe.
package observe

import "sync"

// Listeners holds change callbacks. The zero value is ready to use.
type Listeners struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func()
}

// Add registers fn and returns a function that removes it.
// The returned function is safe to call more than once.
func (l *Listeners) Add(fn func()) (unsubscribe func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fns == nil {
		l.fns = make(map[int]func())
	}
	id := l.nextID
	l.nextID++
	l.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.fns, id)
			l.mu.Unlock()
		})
	}
}

// Notify calls every registered listener in registration order.
// Callers must not hold their own state lock.
func (l *Listeners) Notify() {
	l.mu.Lock()
	fns := make([]func(), 0, len(l.fns))
	for id := 0; id < l.nextID; id++ {
		if fn, ok := l.fns[id]; ok {
			fns = append(fns, fn)
		}
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Len returns the number of registered listeners
func (l *Listeners) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fns)
}

// Clear removes every listener
func (l *Listeners) Clear() {
	l.mu.Lock()
	l.fns = nil
	l.mu.Unlock()
}
