package background

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_DetachesFromCallerCancellation(t *testing.T) {
	r := NewRunner(nil, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	done := r.Go(ctx, "detached", func(ctx context.Context) error {
		require.NoError(t, ctx.Err())
		ran.Store(true)
		return nil
	})

	r.Wait()
	assert.True(t, ran.Load())
	assert.NoError(t, <-done)
}

func TestRunner_ReportsErrorsAndPanics(t *testing.T) {
	r := NewRunner(nil, time.Second)
	boom := errors.New("boom")

	failed := r.Go(context.Background(), "fails", func(context.Context) error { return boom })
	panicked := r.Go(context.Background(), "panics", func(context.Context) error { panic("oops") })

	r.Wait()
	assert.ErrorIs(t, <-failed, boom)
	err := <-panicked
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic: oops")
}
