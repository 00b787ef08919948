// Package paging keeps a stable page of server items plus pagination
// metadata in sync with page and filter parameters.
package paging

import (
	"context"
	"log/slog"
	"reflect"
	"sync"

	"github.com/mmcdole/stacks/internal/domain"
	"github.com/mmcdole/stacks/internal/fetch"
	"github.com/mmcdole/stacks/internal/observe"
)

const defaultLimit = 10

// Func is a paginated collaborator call
type Func[T any] func(ctx context.Context, params domain.Params) (domain.Envelope[[]T], error)

// Page is one settled page. Items and Pagination are always written together.
type Page[T any] struct {
	Items      []T
	Pagination domain.Pagination

	// requested is the params the page was fetched with
	requested domain.Params
	// server is the pagination returned by the server, if any
	server *domain.Pagination
}

// State is the observable state of a Synchronizer
type State[T any] struct {
	Items       []T
	Pagination  domain.Pagination
	Params      domain.Params
	Loading     bool
	Error       string
	FieldErrors map[string]string
}

// Synchronizer turns a page-and-filter call into an incrementally
// updatable page view.
type Synchronizer[T any] struct {
	unit      *fetch.Unit[domain.Params, Page[T]]
	logger    *slog.Logger
	immediate bool
	autoClamp bool

	mu         sync.Mutex
	params     domain.Params
	dispatched uint64
	attached   bool
	attachKey  string
	attachDeps []any

	listeners observe.Listeners
}

// Option configures a Synchronizer
type Option func(*options)

type options struct {
	logger    *slog.Logger
	params    domain.Params
	limit     int
	key       string
	immediate bool
	autoClamp bool
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithParams sets the initial filters. They are merged over {page:1, limit}.
func WithParams(params domain.Params) Option {
	return func(o *options) { o.params = params }
}

// WithLimit sets the default page size
func WithLimit(limit int) Option {
	return func(o *options) { o.limit = limit }
}

// WithKey names the bound collaborator
func WithKey(key string) Option {
	return func(o *options) { o.key = key }
}

// WithImmediate fetches once on the first Attach and again whenever the
// attached key or dependencies change.
func WithImmediate() Option {
	return func(o *options) { o.immediate = true }
}

// WithAutoClamp controls stepping back to the last page when a settled
// fetch lands beyond it. Enabled by default.
func WithAutoClamp(enabled bool) Option {
	return func(o *options) { o.autoClamp = enabled }
}

// New creates a Synchronizer bound to fn
func New[T any](fn Func[T], opts ...Option) *Synchronizer[T] {
	o := options{limit: defaultLimit, autoClamp: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.limit <= 0 {
		o.limit = defaultLimit
	}

	params := domain.Params{domain.ParamPage: 1, domain.ParamLimit: o.limit}.Merge(o.params)
	initial := Page[T]{
		Items:      []T{},
		Pagination: domain.Pagination{Page: 1, Limit: o.limit},
	}
	if p := params.Page(); p > 0 {
		initial.Pagination.Page = p
	}
	if l := params.Limit(); l > 0 {
		initial.Pagination.Limit = l
	}

	s := &Synchronizer[T]{
		logger:    o.logger,
		immediate: o.immediate,
		autoClamp: o.autoClamp,
		params:    params,
	}
	s.unit = fetch.New(wrap(fn),
		fetch.WithLogger[Page[T]](o.logger),
		fetch.WithKey[Page[T]](o.key),
		fetch.WithInitial[Page[T]](initial),
		fetch.WithReducer[Page[T]](reducePage[T]),
	)
	return s
}

// Fetch merges override over the retained params and fetches with the
// result. On failure the items are emptied so no stale rows sit next to
// the error.
func (s *Synchronizer[T]) Fetch(ctx context.Context, override domain.Params) domain.Result[[]T] {
	return s.fetch(ctx, override, s.autoClamp)
}

func (s *Synchronizer[T]) fetch(ctx context.Context, override domain.Params, clamp bool) domain.Result[[]T] {
	s.mu.Lock()
	merged := s.params.Merge(override)
	s.params = merged
	s.dispatched++
	mine := s.dispatched
	s.mu.Unlock()

	res, applied := s.unit.Do(ctx, merged.Clone())
	out := domain.Result[[]T]{Data: res.Data.Items, Pagination: res.Data.server, Failure: res.Failure}
	if !applied {
		return out
	}

	page := s.unit.Snapshot().Data.Pagination
	s.mu.Lock()
	if mine == s.dispatched && s.params.Page() != page.Page && page.Page > 0 {
		// The server is the authority on which page was served
		s.params = s.params.Merge(domain.Params{domain.ParamPage: page.Page})
	}
	s.mu.Unlock()
	s.listeners.Notify()

	if res.OK() && clamp && page.PageCount > 0 && page.Page > page.PageCount {
		s.logger.Debug("page beyond last page, stepping back", "page", page.Page, "pageCount", page.PageCount)
		return s.fetch(ctx, domain.Params{domain.ParamPage: page.PageCount}, false)
	}
	return out
}

// ChangePage fetches page n. n is not clamped; the server decides validity.
func (s *Synchronizer[T]) ChangePage(ctx context.Context, n int) domain.Result[[]T] {
	return s.Fetch(ctx, domain.Params{domain.ParamPage: n})
}

// UpdateParams merges patch into the retained params and fetches. The page
// goes back to 1 unless patch sets it.
func (s *Synchronizer[T]) UpdateParams(ctx context.Context, patch domain.Params) domain.Result[[]T] {
	patch = patch.Clone()
	if !patch.Has(domain.ParamPage) {
		patch[domain.ParamPage] = 1
	}
	return s.Fetch(ctx, patch)
}

// Refresh re-fetches with unchanged params, typically after a mutation
func (s *Synchronizer[T]) Refresh(ctx context.Context) domain.Result[[]T] {
	return s.Fetch(ctx, nil)
}

// Attach binds the synchronizer to a collaborator identity and dependency
// set. With WithImmediate it fetches on the first call and whenever key or
// deps change; re-attaching the same key and deps does nothing. A new key
// resets state. A nil fn keeps the current collaborator. The bool reports
// whether a fetch ran.
func (s *Synchronizer[T]) Attach(ctx context.Context, key string, fn Func[T], deps ...any) (domain.Result[[]T], bool) {
	s.mu.Lock()
	same := s.attached && key == s.attachKey && reflect.DeepEqual(deps, s.attachDeps)
	s.attached = true
	s.attachKey = key
	s.attachDeps = deps
	s.mu.Unlock()

	if fn != nil {
		s.unit.Bind(key, wrap(fn))
	}

	if same || !s.immediate {
		return domain.Result[[]T]{}, false
	}
	return s.Fetch(ctx, nil), true
}

// Snapshot returns the current state
func (s *Synchronizer[T]) Snapshot() State[T] {
	us := s.unit.Snapshot()

	s.mu.Lock()
	params := s.params.Clone()
	s.mu.Unlock()

	return State[T]{
		Items:       us.Data.Items,
		Pagination:  us.Data.Pagination,
		Params:      params,
		Loading:     us.Loading,
		Error:       us.Error,
		FieldErrors: us.FieldErrors,
	}
}

// Subscribe registers fn to be called after every change
func (s *Synchronizer[T]) Subscribe(fn func()) (unsubscribe func()) {
	unsubUnit := s.unit.Subscribe(fn)
	unsubOwn := s.listeners.Add(fn)
	return func() {
		unsubUnit()
		unsubOwn()
	}
}

// Close invalidates in-flight fetches and drops listeners
func (s *Synchronizer[T]) Close() {
	s.unit.Close()
	s.listeners.Clear()
}

// wrap adapts a paginated call to the unit's Page value
func wrap[T any](fn Func[T]) fetch.Func[domain.Params, Page[T]] {
	return func(ctx context.Context, params domain.Params) (domain.Envelope[Page[T]], error) {
		env, err := fn(ctx, params)
		if err != nil {
			return domain.Envelope[Page[T]]{}, err
		}
		return domain.Envelope[Page[T]]{
			Success: env.Success,
			Message: env.Message,
			Error:   env.Error,
			Data: Page[T]{
				Items:     env.Data,
				requested: params,
				server:    env.Pagination,
			},
			Pagination: env.Pagination,
		}, nil
	}
}

// reducePage replaces items and pagination together
func reducePage[T any](prev Page[T], res domain.Result[Page[T]]) Page[T] {
	if !res.OK() {
		return Page[T]{Items: []T{}, Pagination: prev.Pagination}
	}

	next := res.Data
	if next.Items == nil {
		next.Items = []T{}
	}

	if next.server != nil {
		next.Pagination = *next.server
	} else {
		next.Pagination = prev.Pagination
		if p := next.requested.Page(); p > 0 {
			next.Pagination.Page = p
		}
		if l := next.requested.Limit(); l > 0 {
			next.Pagination.Limit = l
		}
	}

	if l := next.Pagination.Limit; l > 0 && len(next.Items) > l {
		next.Items = next.Items[:l]
	}
	return next
}
