package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueue_FIFO(t *testing.T) {
	q := newEventQueue()

	for _, item := range []string{"a", "b", "c"} {
		require.True(t, q.Enqueue(Event{Type: EventTypeCommand, Command: SelectItem(item)}))
	}
	assert.Equal(t, 3, q.Len())

	for _, want := range []string{"a", "b", "c"} {
		e, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, e.Command.Item)
	}
	_, ok := q.TryDequeue()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())
}

func TestEventQueue_SignalCoalesces(t *testing.T) {
	q := newEventQueue()
	q.Enqueue(Event{Type: EventTypeTimer})
	q.Enqueue(Event{Type: EventTypeTimer})

	select {
	case <-q.Wait():
	default:
		t.Fatal("expected a pending signal")
	}
	select {
	case <-q.Wait():
		t.Fatal("signals should coalesce")
	default:
	}
	assert.Equal(t, 2, q.Len())
}

func TestEventQueue_CloseRejectsAndWakes(t *testing.T) {
	q := newEventQueue()

	woke := make(chan struct{})
	go func() {
		<-q.Wait()
		close(woke)
	}()

	q.Close()
	q.Close()

	select {
	case <-woke:
	case <-time.After(time.Second):
		t.Fatal("Close did not wake the waiter")
	}
	assert.False(t, q.Enqueue(Event{Type: EventTypeTimer}))
}

func TestEventQueue_ConcurrentEnqueue(t *testing.T) {
	q := newEventQueue()
	const producers, each = 8, 50

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < each; j++ {
				q.Enqueue(Event{Type: EventTypeTimer})
			}
		}()
	}
	wg.Wait()

	n := 0
	for {
		if _, ok := q.TryDequeue(); !ok {
			break
		}
		n++
	}
	assert.Equal(t, producers*each, n)
}
