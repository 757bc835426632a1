package core

import (
	"context"
	"sync/atomic"
)

// Context keys for load options
type contextKey string

const (
	recomputedKey contextKey = "recomputed"
	loadScopeKey  contextKey = "loadScope"
)

// withRecomputeFlag attaches a flag that computes set when they miss the cache
func withRecomputeFlag(ctx context.Context, flag *atomic.Bool) context.Context {
	return context.WithValue(ctx, recomputedKey, flag)
}

// markRecomputed sets the recompute flag of the context, if any
func markRecomputed(ctx context.Context) {
	if flag, ok := ctx.Value(recomputedKey).(*atomic.Bool); ok && flag != nil {
		flag.Store(true)
	}
}

// withLoadScope records which bulk load a computation belongs to
func withLoadScope(ctx context.Context, scope string) context.Context {
	return context.WithValue(ctx, loadScopeKey, scope)
}

// loadScope returns the bulk load of the context, or "single"
func loadScope(ctx context.Context) string {
	val := ctx.Value(loadScopeKey)
	if val == nil {
		return "single" // default: a single-metric fetch
	}
	scope, ok := val.(string)
	if !ok {
		return "single"
	}
	return scope
}
