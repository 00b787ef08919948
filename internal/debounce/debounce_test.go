package debounce

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/stacks/internal/clock"
	"github.com/mmcdole/stacks/internal/domain"
	"github.com/mmcdole/stacks/internal/log"
)

type recorder struct {
	mu      sync.Mutex
	queries []string
}

func (r *recorder) search(_ context.Context, q string) (domain.Envelope[[]string], error) {
	r.mu.Lock()
	r.queries = append(r.queries, q)
	r.mu.Unlock()
	return domain.Envelope[[]string]{Success: true, Data: []string{"result for " + q}}, nil
}

func (r *recorder) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}

func newTrigger[T any](fn SearchFunc[T]) (*Trigger[T], *clock.Manual) {
	c := clock.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	return New(fn, Config[T]{Clock: c, Logger: log.NullLogger()}), c
}

func TestTrigger_CoalescesTyping(t *testing.T) {
	r := &recorder{}
	tr, c := newTrigger(r.search)

	for _, q := range []string{"t", "to", "tol", "tolk", "tolki", "tolkie", "tolkien"} {
		tr.SetQuery(q)
		c.Advance(100 * time.Millisecond)
	}
	assert.Empty(t, r.calls())
	assert.Equal(t, Pending, tr.Snapshot().Phase)

	c.Advance(DefaultDelay)

	assert.Equal(t, []string{"tolkien"}, r.calls())
	s := tr.Snapshot()
	assert.Equal(t, Settled, s.Phase)
	assert.False(t, s.Searching)
	assert.Equal(t, []string{"result for tolkien"}, s.Results)
}

func TestTrigger_ShortQueryIsIdle(t *testing.T) {
	r := &recorder{}
	tr, c := newTrigger(r.search)

	tr.SetQuery("dune")
	c.Advance(DefaultDelay)
	require.NotEmpty(t, tr.Snapshot().Results)

	tr.SetQuery("du")
	s := tr.Snapshot()
	assert.Equal(t, Idle, s.Phase)
	assert.Empty(t, s.Results)
	assert.Zero(t, c.Pending())

	c.Advance(time.Hour)
	assert.Len(t, r.calls(), 1)
}

func TestTrigger_WhitespaceDoesNotCount(t *testing.T) {
	r := &recorder{}
	tr, c := newTrigger(r.search)

	tr.SetQuery("  ab  ")
	assert.Equal(t, Idle, tr.Snapshot().Phase)

	tr.SetQuery("  abc ")
	c.Advance(DefaultDelay)
	assert.Equal(t, []string{"abc"}, r.calls())
}

func TestTrigger_EditAfterSettledRearms(t *testing.T) {
	r := &recorder{}
	tr, c := newTrigger(r.search)

	tr.SetQuery("dune")
	c.Advance(DefaultDelay)
	tr.SetQuery("dunes")
	assert.Equal(t, Pending, tr.Snapshot().Phase)

	c.Advance(DefaultDelay)
	assert.Equal(t, []string{"dune", "dunes"}, r.calls())
}

func TestTrigger_StaleResultIgnored(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan string, 2)
	search := func(_ context.Context, q string) (domain.Envelope[[]string], error) {
		entered <- q
		if q == "dune" {
			<-release
		}
		return domain.Envelope[[]string]{Success: true, Data: []string{q}}, nil
	}
	tr, c := newTrigger(search)

	tr.SetQuery("dune")
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Advance(DefaultDelay)
	}()
	require.Equal(t, "dune", <-entered)
	assert.Equal(t, Fetching, tr.Snapshot().Phase)
	assert.True(t, tr.Snapshot().Searching)

	tr.SetQuery("emma")
	close(release)
	<-done

	s := tr.Snapshot()
	assert.Equal(t, Pending, s.Phase)
	assert.Empty(t, s.Results)

	c.Advance(DefaultDelay)
	assert.Equal(t, "emma", <-entered)
	assert.Equal(t, []string{"emma"}, tr.Snapshot().Results)
}

func TestTrigger_FailureSurfacesMessage(t *testing.T) {
	tr, c := newTrigger(func(context.Context, string) (domain.Envelope[[]string], error) {
		return domain.Envelope[[]string]{}, errors.New("offline")
	})

	tr.SetQuery("dune")
	c.Advance(DefaultDelay)

	s := tr.Snapshot()
	assert.Equal(t, Settled, s.Phase)
	assert.Equal(t, domain.GenericFailureMessage, s.Error)
	assert.Empty(t, s.Results)

	tr.SetQuery("dune!")
	assert.Empty(t, tr.Snapshot().Error)
}

func TestTrigger_RankerApplied(t *testing.T) {
	r := &recorder{}
	c := clock.NewManual(time.Now())
	tr := New(r.search, Config[string]{
		Clock:  c,
		Logger: log.NullLogger(),
		Rank: func(q string, items []string) []string {
			return append(items, "ranked "+strings.ToUpper(q))
		},
	})

	tr.SetQuery("emma")
	c.Advance(DefaultDelay)
	assert.Equal(t, []string{"result for emma", "ranked EMMA"}, tr.Snapshot().Results)
}

func TestTrigger_CustomConfig(t *testing.T) {
	r := &recorder{}
	c := clock.NewManual(time.Now())
	tr := New(r.search, Config[string]{Clock: c, Logger: log.NullLogger(), MinLength: 1, Delay: 50 * time.Millisecond})

	tr.SetQuery("x")
	c.Advance(50 * time.Millisecond)
	assert.Equal(t, []string{"x"}, r.calls())
}

func TestTrigger_CloseCancelsTimer(t *testing.T) {
	r := &recorder{}
	tr, c := newTrigger(r.search)

	tr.SetQuery("dune")
	tr.Close()
	assert.Zero(t, c.Pending())

	c.Advance(DefaultDelay)
	assert.Empty(t, r.calls())
}

func TestTrigger_Subscribe(t *testing.T) {
	r := &recorder{}
	tr, c := newTrigger(r.search)

	var phases []Phase
	tr.Subscribe(func() { phases = append(phases, tr.Snapshot().Phase) })

	tr.SetQuery("dune")
	c.Advance(DefaultDelay)
	assert.Equal(t, []Phase{Pending, Fetching, Settled}, phases)
}
