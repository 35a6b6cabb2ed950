package iocache

import (
	"context"
	"time"

	"github.com/huangsam/boardline/internal/contract"
	"github.com/huangsam/boardline/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetStateStore implements the StoreManager interface.
func (m *MockStoreManager) GetStateStore() contract.BoardStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.BoardStore)
	return store
}

// GetHistoryStore implements the StoreManager interface.
func (m *MockStoreManager) GetHistoryStore() contract.HistoryStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.HistoryStore)
	return store
}

// MockBoardStore is a mock implementation of BoardStore for testing.
type MockBoardStore struct {
	mock.Mock
}

var _ contract.BoardStore = &MockBoardStore{} // Compile-time check

// LoadHidden implements the BoardStore interface.
func (m *MockBoardStore) LoadHidden(ctx context.Context, boardID string) ([]string, error) {
	args := m.Called(ctx, boardID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

// SaveHidden implements the BoardStore interface.
func (m *MockBoardStore) SaveHidden(ctx context.Context, boardID string, ids []string) error {
	args := m.Called(ctx, boardID, ids)
	return args.Error(0)
}

// LoadDeltas implements the BoardStore interface.
func (m *MockBoardStore) LoadDeltas(ctx context.Context, boardID string) (schema.DeltaRecord, error) {
	args := m.Called(ctx, boardID)
	record, _ := args.Get(0).(schema.DeltaRecord)
	return record, args.Error(1)
}

// SaveDeltas implements the BoardStore interface.
func (m *MockBoardStore) SaveDeltas(ctx context.Context, boardID string, record schema.DeltaRecord) error {
	args := m.Called(ctx, boardID, record)
	return args.Error(0)
}

// MockKVStore is a mock implementation of KVStore for testing.
type MockKVStore struct {
	mock.Mock
}

var _ contract.KVStore = &MockKVStore{} // Compile-time check

// Get implements the KVStore interface.
func (m *MockKVStore) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the KVStore interface.
func (m *MockKVStore) Set(key string, data []byte, version int, ts int64) error {
	args := m.Called(key, data, version, ts)
	return args.Error(0)
}

// Delete implements the KVStore interface.
func (m *MockKVStore) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

// GetStatus implements the KVStore interface.
func (m *MockKVStore) GetStatus() (schema.StoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the KVStore interface.
func (m *MockKVStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockHistoryStore is a mock implementation of HistoryStore for testing.
type MockHistoryStore struct {
	mock.Mock
}

var _ contract.HistoryStore = &MockHistoryStore{} // Compile-time check

// BeginRun implements the HistoryStore interface.
func (m *MockHistoryStore) BeginRun(boardID string, startTime time.Time, configParams map[string]any) (int64, error) {
	args := m.Called(boardID, startTime, configParams)
	return args.Get(0).(int64), args.Error(1)
}

// EndRun implements the HistoryStore interface.
func (m *MockHistoryStore) EndRun(runID int64, endTime time.Time, totalItems int, window schema.TimeWindow) error {
	args := m.Called(runID, endTime, totalItems, window)
	return args.Error(0)
}

// RecordItemPosition implements the HistoryStore interface.
func (m *MockHistoryStore) RecordItemPosition(runID int64, record schema.ItemPositionRecord) error {
	args := m.Called(runID, record)
	return args.Error(0)
}

// GetStatus implements the HistoryStore interface.
func (m *MockHistoryStore) GetStatus() (schema.HistoryStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.HistoryStatus), args.Error(1)
}

// GetAllLayoutRuns implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllLayoutRuns() ([]schema.LayoutRunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.LayoutRunRecord)
	return runs, args.Error(1)
}

// GetAllItemPositions implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllItemPositions() ([]schema.ItemPositionRecord, error) {
	args := m.Called()
	positions, _ := args.Get(0).([]schema.ItemPositionRecord)
	return positions, args.Error(1)
}

// Close implements the HistoryStore interface.
func (m *MockHistoryStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
