package viewer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopDispatchAndSnapshot(t *testing.T) {
	v := New(scenario(t), Options{})
	l := NewLoop(v, time.Millisecond)
	first := l.Snapshot()
	assert.Len(t, first.Nodes, 5)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()

	require.NoError(t, l.Dispatch(ctx, ToggleSource{Source: "external"}))
	assert.Len(t, l.Snapshot().Nodes, 4)
	assert.Error(t, l.Dispatch(ctx, HoverNode{Node: "person:B"}))

	// Concurrent dispatchers are serialized by the loop.
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Dispatch(ctx, ToggleLabels{}))
		}()
	}
	wg.Wait()
	assert.True(t, l.Snapshot().Labels, "an even number of toggles restores labels")

	assert.Eventually(t, func() bool {
		return l.Snapshot().Seq > 12
	}, time.Second, time.Millisecond, "ticks should publish frames")

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
	<-l.Done()
	assert.True(t, v.Simulation().Stopped())
	assert.ErrorIs(t, l.Dispatch(context.Background(), ToggleLabels{}), ErrLoopClosed)
}

func TestLoopDispatchContext(t *testing.T) {
	v := New(scenario(t), Options{})
	l := NewLoop(v, 0)
	defer v.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Dispatch(ctx, ToggleLabels{}), context.Canceled)
}

func TestLoopFailedViewer(t *testing.T) {
	v := NewFailed(assert.AnError, Options{})
	l := NewLoop(v, time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	require.NoError(t, l.Dispatch(ctx, ClickBackground{}))
	assert.True(t, l.Snapshot().Failed())
	<-l.Done()
}
