package catalog

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/huangsam/runlens/internal/contract"
	"github.com/huangsam/runlens/schema"
)

// MemoryStore is an in-process execution store.
// It applies the same filters and ordering as the SQL store and backs tests,
// benchmarks and the demo mode of the CLI.
type MemoryStore struct {
	mu          sync.RWMutex
	executions  []schema.ExecutionRecord
	events      []schema.EventMessage
	unavailable bool
	err         error
	calls       int
}

var _ contract.ExecutionStore = &MemoryStore{} // Compile-time check

// NewMemoryStore returns a configured store holding copies of the given rows.
func NewMemoryStore(executions []schema.ExecutionRecord, events []schema.EventMessage) *MemoryStore {
	return &MemoryStore{
		executions: slices.Clone(executions),
		events:     slices.Clone(events),
	}
}

// Add appends rows to the store.
func (m *MemoryStore) Add(executions []schema.ExecutionRecord, events []schema.EventMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executions = append(m.executions, executions...)
	m.events = append(m.events, events...)
}

// SetConfigured toggles whether queries fail with a ConfigurationError.
func (m *MemoryStore) SetConfigured(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unavailable = !ok
}

// SetError makes every following query fail with a DataSourceError wrapping err.
// A nil err clears the failure.
func (m *MemoryStore) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the number of queries served, failed ones included.
func (m *MemoryStore) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// Configured implements contract.ExecutionStore.
func (m *MemoryStore) Configured() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.unavailable
}

func (m *MemoryStore) begin(ctx context.Context, op string) error {
	m.calls++
	if m.unavailable {
		return contract.NewConfigurationError("")
	}
	if err := ctx.Err(); err != nil {
		return contract.NewDataSourceError(op, err)
	}
	if m.err != nil {
		return contract.NewDataSourceError(op, m.err)
	}
	return nil
}

// ListExecutions implements contract.ExecutionStore.
func (m *MemoryStore) ListExecutions(ctx context.Context, q schema.ExecutionQuery) ([]schema.ExecutionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, "list executions"); err != nil {
		return nil, err
	}

	var rows []schema.ExecutionRecord
	for _, r := range m.executions {
		if q.Since != nil && r.StartTime.Before(*q.Since) {
			continue
		}
		if len(q.Statuses) > 0 && !slices.Contains(q.Statuses, r.Status) {
			continue
		}
		if q.Finished && !r.Finished() {
			continue
		}
		if !q.Partition.Matches(r.PackageName) {
			continue
		}
		rows = append(rows, r)
	}

	slices.SortStableFunc(rows, func(a, b schema.ExecutionRecord) int {
		if c := b.StartTime.Compare(a.StartTime); c != 0 {
			return c
		}
		return cmp.Compare(b.ExecutionID, a.ExecutionID)
	})
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	return rows, nil
}

// ListEvents implements contract.ExecutionStore.
// Messages whose operation has no execution row are dropped, like the SQL join.
func (m *MemoryStore) ListEvents(ctx context.Context, q schema.EventQuery) ([]schema.EventMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, "list events"); err != nil {
		return nil, err
	}

	byID := make(map[int64]schema.ExecutionRecord, len(m.executions))
	for _, r := range m.executions {
		byID[r.ExecutionID] = r
	}

	var rows []schema.EventMessage
	for _, ev := range m.events {
		exec, ok := byID[ev.OperationID]
		if !ok || ev.MessageType != q.MessageType {
			continue
		}
		if q.MessageSince != nil && ev.MessageTime.Before(*q.MessageSince) {
			continue
		}
		if q.StartedSince != nil && exec.StartTime.Before(*q.StartedSince) {
			continue
		}
		if len(q.Statuses) > 0 && !slices.Contains(q.Statuses, exec.Status) {
			continue
		}
		if !q.Partition.Matches(exec.PackageName) {
			continue
		}
		ev.PackageName = exec.PackageName
		rows = append(rows, ev)
	}

	slices.SortStableFunc(rows, func(a, b schema.EventMessage) int {
		if c := b.MessageTime.Compare(a.MessageTime); c != 0 {
			return c
		}
		return cmp.Compare(b.EventMessageID, a.EventMessageID)
	})
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	return rows, nil
}
