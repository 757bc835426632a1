// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/huangsam/runlens/schema"
)

// ExecutionStore defines the read operations against the execution catalog.
// This allows the aggregation logic to be tested without a real database.
type ExecutionStore interface {
	// ListExecutions returns executions matching the query, newest first.
	ListExecutions(ctx context.Context, q schema.ExecutionQuery) ([]schema.ExecutionRecord, error)

	// ListEvents returns event messages joined with their executions, newest first.
	ListEvents(ctx context.Context, q schema.EventQuery) ([]schema.EventMessage, error)

	// Configured reports whether a usable connection is present.
	Configured() bool
}

// Notifier receives push events for live subscribers.
type Notifier interface {
	Notify(event schema.EventName, payload any)
}

// NopNotifier drops every event.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(schema.EventName, any) {}
