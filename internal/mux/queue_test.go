package mux

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/amnis/internal/errs"
	"github.com/vk/amnis/internal/frame"
)

func TestQueue_FIFO(t *testing.T) {
	ctx := context.Background()
	q := New(4)

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, q.Push(ctx, frame.New(1, i, 0, nil)))
	}
	q.Close()

	var lines []int64
	for {
		f, ok := q.Next(ctx)
		if !ok {
			break
		}
		lines = append(lines, f.Line)
	}
	assert.Equal(t, []int64{1, 2, 3}, lines, "buffered frames are drained after Close")

	_, ok := q.Next(ctx)
	assert.False(t, ok, "an exhausted queue stays exhausted")
}

func TestQueue_PushAfterClose(t *testing.T) {
	q := New(1)
	q.Close()
	q.Close()
	err := q.Push(context.Background(), frame.New(1, 1, 0, nil))
	require.ErrorIs(t, err, errs.ErrClosed)
}

func TestQueue_Backpressure(t *testing.T) {
	ctx := context.Background()
	q := New(1)
	require.NoError(t, q.Push(ctx, frame.New(1, 1, 0, nil)))

	pushed := make(chan error, 1)
	go func() {
		pushed <- q.Push(ctx, frame.New(1, 2, 0, nil))
	}()

	select {
	case <-pushed:
		t.Fatal("push into a full queue returned before the consumer made room")
	case <-time.After(50 * time.Millisecond):
	}

	f, ok := q.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(1), f.Line)
	require.NoError(t, <-pushed)

	f, ok = q.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(2), f.Line)
}

func TestQueue_CloseReleasesBlockedProducer(t *testing.T) {
	ctx := context.Background()
	q := New(1)
	require.NoError(t, q.Push(ctx, frame.New(1, 1, 0, nil)))

	pushed := make(chan error, 1)
	go func() {
		pushed <- q.Push(ctx, frame.New(1, 2, 0, nil))
	}()
	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case err := <-pushed:
		require.ErrorIs(t, err, errs.ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("blocked producer was not released by Close")
	}
}

func TestQueue_NextHonoursContext(t *testing.T) {
	q := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := q.Next(ctx)
	assert.False(t, ok)
}

func TestQueue_ConcurrentProducersKeepTheirOwnOrder(t *testing.T) {
	ctx := context.Background()
	q := New(2)
	const producers, perProducer = 4, 50

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := int64(1); p <= producers; p++ {
		go func(channel int64) {
			defer wg.Done()
			for i := int64(1); i <= perProducer; i++ {
				if err := q.Push(ctx, frame.New(channel, i, 0, nil)); err != nil {
					t.Errorf("push: %v", err)
					return
				}
			}
		}(p)
	}
	go func() {
		wg.Wait()
		q.Close()
	}()

	last := make(map[int64]int64)
	count := 0
	for {
		f, ok := q.Next(ctx)
		if !ok {
			break
		}
		require.Greater(t, f.Line, last[f.Channel], "channel %d out of order", f.Channel)
		last[f.Channel] = f.Line
		count++
	}
	assert.Equal(t, producers*perProducer, count)
}
