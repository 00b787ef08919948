package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/stacks/internal/clock"
	"github.com/mmcdole/stacks/internal/domain"
	"github.com/mmcdole/stacks/internal/log"
)

func newQueue() (*Queue, *clock.Manual) {
	c := clock.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	return New(Config{Clock: c, Logger: log.NullLogger()}), c
}

func TestQueue_AutoExpiry(t *testing.T) {
	q, c := newQueue()

	id := q.Success("Saved")
	require.Len(t, q.Snapshot(), 1)
	assert.Equal(t, id, q.Snapshot()[0].ID)

	c.Advance(DefaultTTL - time.Millisecond)
	assert.Len(t, q.Snapshot(), 1)

	c.Advance(time.Millisecond)
	assert.Empty(t, q.Snapshot())
}

func TestQueue_ErrorDefaults(t *testing.T) {
	q, c := newQueue()

	q.Error("boom")
	n := q.Snapshot()[0]
	assert.Equal(t, KindError, n.Kind)
	assert.Equal(t, 8*time.Second, n.TTL)
	assert.Equal(t, "boom", n.Message)

	c.Advance(DefaultTTL)
	assert.Len(t, q.Snapshot(), 1)
	c.Advance(ErrorTTL - DefaultTTL)
	assert.Empty(t, q.Snapshot())
}

func TestQueue_EmitDefaultsToInfo(t *testing.T) {
	q, _ := newQueue()

	q.Emit("", "hello")
	n := q.Snapshot()[0]
	assert.Equal(t, KindInfo, n.Kind)
	assert.Equal(t, DefaultTTL, n.TTL)
}

func TestQueue_PersistentUntilDismissed(t *testing.T) {
	q, c := newQueue()

	id := q.Warning("Read me", Persistent())
	assert.Zero(t, c.Pending())

	c.Advance(time.Hour)
	require.Len(t, q.Snapshot(), 1)

	q.Dismiss(id)
	assert.Empty(t, q.Snapshot())
}

func TestQueue_DismissUnknownIsNoop(t *testing.T) {
	q, _ := newQueue()
	q.Info("a")

	calls := 0
	q.Subscribe(func() { calls++ })
	q.Dismiss("missing")

	assert.Len(t, q.Snapshot(), 1)
	assert.Zero(t, calls)
}

func TestQueue_DismissCancelsTimer(t *testing.T) {
	q, c := newQueue()
	id := q.Info("a")

	q.Dismiss(id)
	assert.Zero(t, c.Pending())
	c.Advance(DefaultTTL)
	assert.Empty(t, q.Snapshot())
}

func TestQueue_OrderAndUniqueIDs(t *testing.T) {
	q, _ := newQueue()
	ids := []string{q.Info("1"), q.Info("2"), q.Info("3")}

	snap := q.Snapshot()
	require.Len(t, snap, 3)
	seen := map[string]bool{}
	for i, n := range snap {
		assert.Equal(t, ids[i], n.ID)
		assert.False(t, seen[n.ID])
		seen[n.ID] = true
	}
}

func TestQueue_ClearCancelsTimers(t *testing.T) {
	q, c := newQueue()
	q.Info("a")
	q.Error("b")

	q.Clear()
	assert.Empty(t, q.Snapshot())
	assert.Zero(t, c.Pending())

	// A new entry is unaffected by the cleared timers
	q.Info("c", WithTTL(10*time.Second))
	c.Advance(9 * time.Second)
	assert.Len(t, q.Snapshot(), 1)
}

func TestQueue_Failure(t *testing.T) {
	q, _ := newQueue()

	assert.Empty(t, q.Failure(nil))
	assert.Empty(t, q.Failure(&domain.Failure{Kind: domain.FailureValidation, Message: "fix"}))
	assert.Empty(t, q.Snapshot())

	q.Failure(&domain.Failure{Kind: domain.FailureRejected, Message: "Already returned"})
	n := q.Snapshot()[0]
	assert.Equal(t, KindError, n.Kind)
	assert.Equal(t, "Already returned", n.Message)
}

func TestQueue_SubscribeSeesChanges(t *testing.T) {
	q, c := newQueue()
	calls := 0
	unsub := q.Subscribe(func() { calls++ })

	q.Info("a")
	c.Advance(DefaultTTL)
	assert.Equal(t, 2, calls)

	unsub()
	q.Info("b")
	assert.Equal(t, 2, calls)
}
