package observe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListeners_NotifyInOrder(t *testing.T) {
	var l Listeners
	var got []int
	l.Add(func() { got = append(got, 1) })
	l.Add(func() { got = append(got, 2) })

	l.Notify()
	assert.Equal(t, []int{1, 2}, got)
}

func TestListeners_UnsubscribeIsIdempotent(t *testing.T) {
	var l Listeners
	calls := 0
	unsub := l.Add(func() { calls++ })

	unsub()
	unsub()
	l.Notify()

	assert.Zero(t, calls)
	assert.Zero(t, l.Len())
}

func TestListeners_UnsubscribeDuringNotify(t *testing.T) {
	var l Listeners
	calls := 0
	var unsub func()
	unsub = l.Add(func() {
		calls++
		unsub()
	})

	l.Notify()
	l.Notify()
	assert.Equal(t, 1, calls)
}

func TestListeners_Clear(t *testing.T) {
	var l Listeners
	l.Add(func() {})
	l.Add(func() {})
	l.Clear()
	assert.Zero(t, l.Len())
}
