package core

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestContextConcurrentAccess tests that context values can be safely accessed concurrently.
func TestContextConcurrentAccess(t *testing.T) {
	var flag atomic.Bool
	ctx := withLoadScope(withRecomputeFlag(context.Background(), &flag), scopeDashboard)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, scopeDashboard, loadScope(ctx))
			markRecomputed(ctx)
		}()
	}
	wg.Wait()
	assert.True(t, flag.Load())
}

func TestContextDefaults(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "single", loadScope(ctx))
	assert.NotPanics(t, func() { markRecomputed(ctx) })

	// Values survive detaching from cancellation.
	var flag atomic.Bool
	detached := context.WithoutCancel(withRecomputeFlag(ctx, &flag))
	markRecomputed(detached)
	assert.True(t, flag.Load())
}
