package catalog

import (
	"context"

	"github.com/huangsam/runlens/internal/contract"
	"github.com/huangsam/runlens/schema"
	"github.com/stretchr/testify/mock"
)

// MockExecutionStore is a mock implementation of ExecutionStore for testing.
type MockExecutionStore struct {
	mock.Mock
}

var _ contract.ExecutionStore = &MockExecutionStore{} // Compile-time check

// ListExecutions implements the ExecutionStore interface.
func (m *MockExecutionStore) ListExecutions(ctx context.Context, q schema.ExecutionQuery) ([]schema.ExecutionRecord, error) {
	args := m.Called(ctx, q)
	rows, _ := args.Get(0).([]schema.ExecutionRecord)
	return rows, args.Error(1)
}

// ListEvents implements the ExecutionStore interface.
func (m *MockExecutionStore) ListEvents(ctx context.Context, q schema.EventQuery) ([]schema.EventMessage, error) {
	args := m.Called(ctx, q)
	rows, _ := args.Get(0).([]schema.EventMessage)
	return rows, args.Error(1)
}

// Configured implements the ExecutionStore interface.
func (m *MockExecutionStore) Configured() bool {
	return m.Called().Bool(0)
}
