// Package fetch wraps a single asynchronous server call with uniform
// loading/error/result tracking and stale-response rejection.
package fetch

import (
	"context"
	"log/slog"
	"maps"
	"sync"

	"github.com/mmcdole/stacks/internal/domain"
	"github.com/mmcdole/stacks/internal/observe"
)

// Func is a bound collaborator call
type Func[A, T any] func(ctx context.Context, args A) (domain.Envelope[T], error)

// Reducer computes the data written on settlement from the previous data
// and the settled result.
type Reducer[T any] func(prev T, res domain.Result[T]) T

// State is the observable state of a Unit
type State[T any] struct {
	Data        T
	HasData     bool
	Loading     bool
	Error       string
	FieldErrors map[string]string
}

// Unit tracks one bound call. Overlapping calls are not cancelled on the
// wire; only the most recently dispatched one writes state when it settles.
type Unit[A, T any] struct {
	logger  *slog.Logger
	reduce  Reducer[T]
	initial T

	mu    sync.Mutex
	key   string
	fn    Func[A, T]
	state State[T]
	seq   Sequencer

	listeners observe.Listeners
}

// Option configures a Unit
type Option[T any] func(*config[T])

type config[T any] struct {
	logger  *slog.Logger
	key     string
	reduce  Reducer[T]
	initial T
}

// WithLogger sets the logger
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(c *config[T]) { c.logger = logger }
}

// WithKey names the bound collaborator; see Bind
func WithKey[T any](key string) Option[T] {
	return func(c *config[T]) { c.key = key }
}

// WithReducer replaces the default reducer, which keeps the previous data
// on failure and takes the result data on success.
func WithReducer[T any](reduce Reducer[T]) Option[T] {
	return func(c *config[T]) { c.reduce = reduce }
}

// WithInitial sets the data reported before the first settled call
func WithInitial[T any](data T) Option[T] {
	return func(c *config[T]) { c.initial = data }
}

// New creates a Unit bound to fn
func New[A, T any](fn Func[A, T], opts ...Option[T]) *Unit[A, T] {
	cfg := config[T]{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.reduce == nil {
		cfg.reduce = keepOnFailure[T]
	}
	return &Unit[A, T]{
		logger:  cfg.logger,
		reduce:  cfg.reduce,
		initial: cfg.initial,
		key:     cfg.key,
		fn:      fn,
		state:   State[T]{Data: cfg.initial},
	}
}

// Execute dispatches the bound call and returns its normalized result.
// The returned result always describes this call, even when a newer call
// has superseded it and its effects were discarded.
func (u *Unit[A, T]) Execute(ctx context.Context, args A) domain.Result[T] {
	res, _ := u.Do(ctx, args)
	return res
}

// Do is Execute that also reports whether this call's result was applied
func (u *Unit[A, T]) Do(ctx context.Context, args A) (domain.Result[T], bool) {
	u.mu.Lock()
	tag := u.seq.Next()
	fn := u.fn
	u.state.Loading = true
	u.state.Error = ""
	u.state.FieldErrors = nil
	u.mu.Unlock()
	u.listeners.Notify()

	res := u.call(ctx, fn, args)

	u.mu.Lock()
	applied := u.seq.IsCurrent(tag)
	if applied {
		u.state.Data = u.reduce(u.state.Data, res)
		u.state.Loading = false
		if res.OK() {
			u.state.HasData = true
		} else {
			u.state.Error = res.Failure.Message
			u.state.FieldErrors = res.Failure.FieldErrors
		}
	}
	u.mu.Unlock()

	if !applied {
		u.logger.Debug("discarded stale response", "key", u.key, "tag", tag)
		return res, false
	}
	u.listeners.Notify()
	return res, true
}

// Bind swaps the collaborator. A different key is a different endpoint:
// state resets and in-flight calls can no longer write. The same key only
// replaces the function.
func (u *Unit[A, T]) Bind(key string, fn Func[A, T]) {
	u.mu.Lock()
	changed := key != u.key
	u.key = key
	u.fn = fn
	if changed {
		u.seq.Invalidate()
		u.state = State[T]{Data: u.initial}
	}
	u.mu.Unlock()

	if changed {
		u.listeners.Notify()
	}
}

// Reset discards state and invalidates in-flight calls
func (u *Unit[A, T]) Reset() {
	u.mu.Lock()
	u.seq.Invalidate()
	u.state = State[T]{Data: u.initial}
	u.mu.Unlock()
	u.listeners.Notify()
}

// Key returns the bound collaborator key
func (u *Unit[A, T]) Key() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.key
}

// Snapshot returns a copy of the current state
func (u *Unit[A, T]) Snapshot() State[T] {
	u.mu.Lock()
	defer u.mu.Unlock()

	s := u.state
	s.FieldErrors = maps.Clone(u.state.FieldErrors)
	return s
}

// Subscribe registers fn to be called after every state change
func (u *Unit[A, T]) Subscribe(fn func()) (unsubscribe func()) {
	return u.listeners.Add(fn)
}

// Close invalidates in-flight calls and drops listeners
func (u *Unit[A, T]) Close() {
	u.mu.Lock()
	u.seq.Invalidate()
	u.state.Loading = false
	u.mu.Unlock()
	u.listeners.Clear()
}

// call invokes fn and normalizes its outcome. A panicking collaborator is
// reported as a failure rather than crossing the unit boundary.
func (u *Unit[A, T]) call(ctx context.Context, fn Func[A, T], args A) (res domain.Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			u.logger.Error("collaborator panicked", "key", u.key, "panic", r)
			res = domain.Err[T](&domain.Failure{
				Kind:    domain.FailureConnectivity,
				Message: domain.GenericFailureMessage,
			})
		}
	}()

	if fn == nil {
		return domain.Err[T](&domain.Failure{Kind: domain.FailureConnectivity, Message: domain.GenericFailureMessage})
	}
	env, err := fn(ctx, args)
	return domain.Normalize(env, err)
}

func keepOnFailure[T any](prev T, res domain.Result[T]) T {
	if res.OK() {
		return res.Data
	}
	return prev
}
