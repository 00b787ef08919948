// Package notify implements the queue of transient, self-expiring user messages.
package notify

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/stacks/internal/clock"
	"github.com/mmcdole/stacks/internal/domain"
	"github.com/mmcdole/stacks/internal/observe"
)

// Kind is the severity of a notification
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

const (
	DefaultTTL = 5 * time.Second
	ErrorTTL   = 8 * time.Second
)

// Persistent keeps a notification until it is dismissed
func Persistent() Option {
	return WithTTL(0)
}

// Notification is a user-facing message. TTL 0 means persist until dismissed.
type Notification struct {
	ID        string
	Kind      Kind
	Message   string
	TTL       time.Duration
	CreatedAt time.Time
}

// Option adjusts a notification emitted through a convenience wrapper
type Option func(*Notification)

// WithTTL overrides the time to live
func WithTTL(ttl time.Duration) Option {
	return func(n *Notification) { n.TTL = ttl }
}

// Queue holds notifications in insertion order
type Queue struct {
	clock      clock.Clock
	logger     *slog.Logger
	defaultTTL time.Duration
	errorTTL   time.Duration

	mu     sync.Mutex
	items  []Notification
	timers map[string]clock.Timer

	listeners observe.Listeners
}

// Config tunes a Queue
type Config struct {
	Clock      clock.Clock
	Logger     *slog.Logger
	DefaultTTL time.Duration
	ErrorTTL   time.Duration
}

// New creates an empty queue
func New(cfg Config) *Queue {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	if cfg.ErrorTTL <= 0 {
		cfg.ErrorTTL = ErrorTTL
	}
	return &Queue{
		clock:      cfg.Clock,
		logger:     cfg.Logger,
		defaultTTL: cfg.DefaultTTL,
		errorTTL:   cfg.ErrorTTL,
		timers:     make(map[string]clock.Timer),
	}
}

// Emit appends a notification and returns its id. An empty kind becomes
// info and the TTL defaults to the queue default unless WithTTL is given.
// Removal is scheduled when the TTL is positive.
func (q *Queue) Emit(kind Kind, message string, opts ...Option) string {
	if kind == "" {
		kind = KindInfo
	}
	n := Notification{
		ID:        newID(),
		Kind:      kind,
		Message:   message,
		TTL:       q.defaultTTL,
		CreatedAt: q.clock.Now(),
	}
	if kind == KindError {
		n.TTL = q.errorTTL
	}
	for _, opt := range opts {
		opt(&n)
	}

	q.mu.Lock()
	q.items = append(q.items, n)
	if n.TTL > 0 {
		id := n.ID
		q.timers[id] = q.clock.AfterFunc(n.TTL, func() { q.expire(id) })
	}
	q.mu.Unlock()

	q.logger.Debug("notification emitted", "id", n.ID, "kind", n.Kind, "ttl", n.TTL)
	q.listeners.Notify()
	return n.ID
}

// Dismiss removes the notification with id. Unknown ids are ignored.
func (q *Queue) Dismiss(id string) {
	if q.remove(id) {
		q.listeners.Notify()
	}
}

// Clear empties the queue and cancels pending removals
func (q *Queue) Clear() {
	q.mu.Lock()
	had := len(q.items) > 0
	q.items = nil
	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
	q.mu.Unlock()

	if had {
		q.listeners.Notify()
	}
}

// Info emits an info notification
func (q *Queue) Info(message string, opts ...Option) string {
	return q.Emit(KindInfo, message, opts...)
}

// Success emits a success notification
func (q *Queue) Success(message string, opts ...Option) string {
	return q.Emit(KindSuccess, message, opts...)
}

// Warning emits a warning notification
func (q *Queue) Warning(message string, opts ...Option) string {
	return q.Emit(KindWarning, message, opts...)
}

// Error emits an error notification, which lives longer than the others
func (q *Queue) Error(message string, opts ...Option) string {
	return q.Emit(KindError, message, opts...)
}

// Failure reports f as an error notification. Validation failures are
// shown inline by their form and produce no notification.
func (q *Queue) Failure(f *domain.Failure) string {
	if f == nil || f.Kind == domain.FailureValidation {
		return ""
	}
	return q.Error(f.Message)
}

// Snapshot returns the current notifications in display order
func (q *Queue) Snapshot() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.items)
}

// Subscribe registers fn to be called after every change
func (q *Queue) Subscribe(fn func()) (unsubscribe func()) {
	return q.listeners.Add(fn)
}

// Close cancels timers and drops listeners
func (q *Queue) Close() {
	q.logger.Debug("closing notification queue", "listeners", q.listeners.Len())
	q.Clear()
	q.listeners.Clear()
}

func (q *Queue) expire(id string) {
	if q.remove(id) {
		q.logger.Debug("notification expired", "id", id)
		q.listeners.Notify()
	}
}

func (q *Queue) remove(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if t, ok := q.timers[id]; ok {
		t.Stop()
		delete(q.timers, id)
	}
	idx := slices.IndexFunc(q.items, func(n Notification) bool { return n.ID == id })
	if idx < 0 {
		return false
	}
	q.items = slices.Delete(q.items, idx, idx+1)
	return true
}

// newID returns a time-ordered unique id
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
