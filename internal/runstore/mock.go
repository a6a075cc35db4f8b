package runstore

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/cqscope/cqscope/internal/contract"
	"github.com/cqscope/cqscope/schema"
)

// MockRunManager is a mock implementation of RunManager for testing.
type MockRunManager struct {
	mock.Mock
}

var _ contract.RunManager = &MockRunManager{} // Compile-time check

// GetRunStore implements the RunManager interface.
func (m *MockRunManager) GetRunStore() contract.RunStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.RunStore)
	return store
}

// MockRunStore is a mock implementation of RunStore for testing.
type MockRunStore struct {
	mock.Mock
}

var _ contract.RunStore = &MockRunStore{} // Compile-time check

// BeginRun implements the RunStore interface.
func (m *MockRunStore) BeginRun(siteID, command string, startedAt time.Time) (int64, error) {
	args := m.Called(siteID, command, startedAt)
	return args.Get(0).(int64), args.Error(1)
}

// EndRun implements the RunStore interface.
func (m *MockRunStore) EndRun(runID int64, endedAt time.Time, rows int, runErr error) error {
	args := m.Called(runID, endedAt, rows, runErr)
	return args.Error(0)
}

// RecordRows implements the RunStore interface.
func (m *MockRunStore) RecordRows(runID int64, rows []schema.SegmentRowRecord) error {
	args := m.Called(runID, rows)
	return args.Error(0)
}

// ListRuns implements the RunStore interface.
func (m *MockRunStore) ListRuns(limit int) ([]schema.RunRecord, error) {
	args := m.Called(limit)
	records, _ := args.Get(0).([]schema.RunRecord)
	return records, args.Error(1)
}

// GetRows implements the RunStore interface.
func (m *MockRunStore) GetRows(runID int64) ([]schema.SegmentRowRecord, error) {
	args := m.Called(runID)
	records, _ := args.Get(0).([]schema.SegmentRowRecord)
	return records, args.Error(1)
}

// GetStatus implements the RunStore interface.
func (m *MockRunStore) GetStatus() (schema.RunStoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.RunStoreStatus), args.Error(1)
}

// Close implements the RunStore interface.
func (m *MockRunStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
