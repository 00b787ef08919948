// Package debounce coalesces rapid query edits into a single deferred search.
package debounce

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mmcdole/stacks/internal/clock"
	"github.com/mmcdole/stacks/internal/domain"
	"github.com/mmcdole/stacks/internal/fetch"
	"github.com/mmcdole/stacks/internal/observe"
)

const (
	DefaultMinLength = 3
	DefaultDelay     = 500 * time.Millisecond
)

// Phase is the trigger's position in its state machine
type Phase int

const (
	// Idle: query too short, no timer, no results
	Idle Phase = iota
	// Pending: a timer is armed for the latest query
	Pending
	// Fetching: the search call for the latest query is in flight
	Fetching
	// Settled: results reflect the latest query
	Settled
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Fetching:
		return "fetching"
	case Settled:
		return "settled"
	default:
		return "unknown"
	}
}

// SearchFunc is the bound search collaborator
type SearchFunc[T any] func(ctx context.Context, query string) (domain.Envelope[[]T], error)

// Ranker reorders settled results for display
type Ranker[T any] func(query string, items []T) []T

// State is the observable state of a Trigger
type State[T any] struct {
	Query     string
	Phase     Phase
	Searching bool
	Results   []T
	Error     string
}

// Config tunes a Trigger
type Config[T any] struct {
	Clock     clock.Clock
	Logger    *slog.Logger
	MinLength int
	Delay     time.Duration
	Rank      Ranker[T]
}

// Trigger turns query edits into at most one search per quiet period.
// Only the result of the latest query is ever applied.
type Trigger[T any] struct {
	search    SearchFunc[T]
	clock     clock.Clock
	logger    *slog.Logger
	minLength int
	delay     time.Duration
	rank      Ranker[T]

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	state State[T]
	timer clock.Timer
	seq   fetch.Sequencer

	listeners observe.Listeners
}

// New creates an idle trigger
func New[T any](search SearchFunc[T], cfg Config[T]) *Trigger[T] {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultMinLength
	}
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Trigger[T]{
		search:    search,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
		minLength: cfg.MinLength,
		delay:     cfg.Delay,
		rank:      cfg.Rank,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// SetQuery records a query edit. Any armed timer is cancelled and any
// in-flight search is superseded.
func (t *Trigger[T]) SetQuery(query string) {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.seq.Invalidate()
	t.state.Query = query
	t.state.Searching = false
	t.state.Error = ""

	if utf8.RuneCountInString(strings.TrimSpace(query)) < t.minLength {
		t.state.Phase = Idle
		t.state.Results = nil
	} else {
		t.state.Phase = Pending
		t.timer = t.clock.AfterFunc(t.delay, func() { t.fire(query) })
	}
	t.mu.Unlock()

	t.listeners.Notify()
}

// fire runs when the quiet period for query elapses
func (t *Trigger[T]) fire(query string) {
	t.mu.Lock()
	if t.state.Query != query || t.state.Phase != Pending || t.ctx.Err() != nil {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.state.Phase = Fetching
	t.state.Searching = true
	tag := t.seq.Next()
	t.mu.Unlock()
	t.listeners.Notify()

	env, err := t.search(t.ctx, strings.TrimSpace(query))
	res := domain.Normalize(env, err)

	t.mu.Lock()
	if !t.seq.IsCurrent(tag) || t.state.Query != query {
		t.mu.Unlock()
		t.logger.Debug("discarded stale search", "query", query)
		return
	}
	t.state.Phase = Settled
	t.state.Searching = false
	if res.OK() {
		items := res.Data
		if t.rank != nil {
			items = t.rank(query, items)
		}
		t.state.Results = items
		t.state.Error = ""
	} else {
		t.state.Results = nil
		t.state.Error = res.Failure.Message
	}
	t.mu.Unlock()

	t.listeners.Notify()
}

// Snapshot returns the current state
func (t *Trigger[T]) Snapshot() State[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Subscribe registers fn to be called after every change
func (t *Trigger[T]) Subscribe(fn func()) (unsubscribe func()) {
	return t.listeners.Add(fn)
}

// Close stops the timer and abandons any in-flight search
func (t *Trigger[T]) Close() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.seq.Invalidate()
	t.state.Searching = false
	t.mu.Unlock()

	t.cancel()
	t.listeners.Clear()
}
