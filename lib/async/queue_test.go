package async

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTaskQueuePushPopFIFO(t *testing.T) {
	q := newTaskQueue()
	var got []int
	for i := 0; i < 3; i++ {
		n := i
		depth, ok := q.push(func() { got = append(got, n) })
		require.True(t, ok)
		require.Equal(t, i+1, depth)
	}

	for i := 0; i < 3; i++ {
		task, remaining, ok := q.pop()
		require.True(t, ok)
		require.Equal(t, 2-i, remaining)
		task()
	}
	require.Equal(t, []int{0, 1, 2}, got)
	require.Zero(t, q.len())
}

func TestTaskQueueStopDrainsBeforeTerminating(t *testing.T) {
	q := newTaskQueue()
	_, ok := q.push(func() {})
	require.True(t, ok)

	require.True(t, q.stop())
	require.False(t, q.stop())

	_, ok = q.push(func() {})
	require.False(t, ok)

	task, _, ok := q.pop()
	require.True(t, ok)
	require.NotNil(t, task)

	task, _, ok = q.pop()
	require.False(t, ok)
	require.Nil(t, task)
}

func TestTaskQueueStopWakesSleepingPop(t *testing.T) {
	q := newTaskQueue()
	woke := make(chan bool, 1)
	go func() {
		_, _, ok := q.pop()
		woke <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.stop()

	select {
	case ok := <-woke:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("stop did not wake the sleeping worker")
	}
}
