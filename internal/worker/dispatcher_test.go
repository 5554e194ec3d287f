package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDispatcher_RunsSubmittedTasks(t *testing.T) {
	d := NewDispatcher(3, 10, zap.NewNop())
	d.Start(context.Background())

	var n atomic.Int32
	for i := 0; i < 10; i++ {
		require.True(t, d.Submit("count", func(context.Context) error {
			n.Add(1)
			return nil
		}))
	}
	d.Close()

	assert.Equal(t, int32(10), n.Load())
}

func TestDispatcher_ErrorsAreIsolated(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	d := NewDispatcher(1, 4, zap.New(core))

	var mu sync.Mutex
	var got []TaskError
	d.OnError(func(te TaskError) {
		mu.Lock()
		got = append(got, te)
		mu.Unlock()
	})
	d.Start(context.Background())

	boom := errors.New("boom")
	assert.True(t, d.Submit("persist", func(context.Context) error { return boom }))
	assert.True(t, d.Submit("notify", func(context.Context) error { panic("bad payload") }))
	d.Close()

	require.Len(t, got, 2)
	assert.Equal(t, "persist", got[0].Name)
	assert.ErrorIs(t, got[0].Err, boom)
	assert.Equal(t, "notify", got[1].Name)
	assert.Contains(t, got[1].Err.Error(), "bad payload")
	assert.Equal(t, 2, observed.FilterMessage("async task failed").Len())
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	d := NewDispatcher(1, 1, zap.NewNop())

	release := make(chan struct{})
	started := make(chan struct{})
	d.Start(context.Background())

	require.True(t, d.Submit("block", func(context.Context) error {
		close(started)
		<-release
		return nil
	}))
	<-started

	assert.True(t, d.Submit("queued", func(context.Context) error { return nil }))
	assert.False(t, d.Submit("dropped", func(context.Context) error { return nil }))

	close(release)
	d.Close()
	assert.False(t, d.Submit("after-close", func(context.Context) error { return nil }))
}

func TestDispatcher_TaskOutlivesCallerContext(t *testing.T) {
	d := NewDispatcher(1, 1, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	cancel()

	var ctxErr error
	require.True(t, d.Submit("late", func(taskCtx context.Context) error {
		ctxErr = taskCtx.Err()
		return nil
	}))
	d.Close()

	assert.NoError(t, ctxErr)
}
