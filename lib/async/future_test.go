package async

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFuturePollBeforeAndAfterCompletion(t *testing.T) {
	pool := newTestPool(t, 1)
	gate := make(chan struct{})

	f, err := Submit(pool, func(context.Context) (int, error) {
		<-gate
		return 42, nil
	})
	require.NoError(t, err)

	v, ok, err := f.Poll()
	require.False(t, ok)
	require.NoError(t, err)
	require.Zero(t, v)
	require.False(t, f.IsComplete())

	close(gate)
	<-f.Done()

	for i := 0; i < 3; i++ {
		v, ok, err = f.Poll()
		require.True(t, ok)
		require.NoError(t, err)
		require.Equal(t, 42, v)
	}
	require.True(t, f.IsComplete())
}

func TestFutureAwaitWithTimeout(t *testing.T) {
	pool := newTestPool(t, 1)
	gate := make(chan struct{})
	defer close(gate)

	f, err := Submit(pool, func(context.Context) (string, error) {
		<-gate
		return "late", nil
	})
	require.NoError(t, err)

	v, err := f.AwaitWithTimeout(10 * time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
	require.Empty(t, v)
}

func TestFutureAwaitContext(t *testing.T) {
	pending := newFuture[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pending.AwaitContext(ctx)
	require.ErrorIs(t, err, context.Canceled)

	pending.resolve(5, nil)
	v, err := pending.AwaitContext(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, v)
}

func TestFutureResolvesOnce(t *testing.T) {
	f := newFuture[int]()
	f.resolve(1, nil)
	f.resolve(2, errors.New("ignored"))

	v, err := f.Await()
	require.NoError(t, err)
	require.Equal(t, 1, v)
}

func TestResolved(t *testing.T) {
	f := Resolved("ready", nil)
	require.True(t, f.IsComplete())
	v, err := f.AwaitWithTimeout(time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, "ready", v)
}

func TestWaitAllJoinsErrorsAndKeepsOrder(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")

	values, err := WaitAll(
		Resolved(1, nil),
		Resolved(2, first),
		nil,
		Resolved(4, second),
	)
	require.Equal(t, []int{1, 2, 0, 4}, values)
	require.ErrorIs(t, err, first)
	require.ErrorIs(t, err, second)

	values, err = WaitAll[int]()
	require.NoError(t, err)
	require.Empty(t, values)
}

func TestCompletedFutureWinsOverExpiredWait(t *testing.T) {
	f := Resolved(7, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 200; i++ {
		v, err := f.AwaitContext(ctx)
		require.NoError(t, err)
		require.Equal(t, 7, v)

		v, err = f.AwaitWithTimeout(0)
		require.NoError(t, err)
		require.Equal(t, 7, v)
	}
}
