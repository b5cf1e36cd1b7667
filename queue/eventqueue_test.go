package queue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kienpl96/kannel/queue"
)

func TestProduceConsumeOrder(t *testing.T) {
	q := queue.New()
	q.AddProducer()
	defer q.RemoveProducer()

	q.Produce("a")
	q.Produce("b")
	q.Produce("c")

	require.Equal(t, 3, q.Len())

	for _, want := range []string{"a", "b", "c"} {
		ev, ok := q.TryConsume()
		require.True(t, ok)
		require.Equal(t, want, ev)
	}

	_, ok := q.TryConsume()
	require.False(t, ok)
}

func TestConsumeBlocksUntilProduce(t *testing.T) {
	q := queue.New()
	q.AddProducer()
	defer q.RemoveProducer()

	done := make(chan struct{})
	var got any
	go func() {
		var ok bool
		got, ok = q.Consume()
		require.True(t, ok)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	q.Produce(42)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Consume did not unblock")
	}
	require.Equal(t, 42, got)
}

func TestDeleteEqualRemovesMatchingOnly(t *testing.T) {
	q := queue.New()
	q.AddProducer()
	defer q.RemoveProducer()

	target := new(int)
	other := new(int)

	q.Produce(other)
	q.Produce(target)
	q.Produce(other)

	removed := q.DeleteEqual(target, queue.IdentityEqual)
	require.Equal(t, 1, removed)
	require.Equal(t, 2, q.Len())

	// target no longer present, both remaining are `other`.
	for i := 0; i < 2; i++ {
		ev, ok := q.TryConsume()
		require.True(t, ok)
		require.Same(t, other, ev)
	}
}

func TestConsumeUnblocksOnClose(t *testing.T) {
	q := queue.New()
	q.AddProducer()

	done := make(chan struct{})
	go func() {
		_, ok := q.Consume()
		require.False(t, ok)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()
	q.RemoveProducer()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Consume did not unblock on Close")
	}
}
