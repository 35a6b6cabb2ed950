package boardfile

import (
	"context"

	"github.com/huangsam/boardline/internal/contract"
	"github.com/huangsam/boardline/schema"
	"github.com/stretchr/testify/mock"
)

// MockItemSource is a mock implementation of ItemSource for testing.
type MockItemSource struct {
	mock.Mock
}

var _ contract.ItemSource = &MockItemSource{} // Compile-time check

// BoardID implements the ItemSource interface.
func (m *MockItemSource) BoardID() string {
	args := m.Called()
	return args.String(0)
}

// LoadRecords implements the ItemSource interface.
func (m *MockItemSource) LoadRecords(ctx context.Context) ([]schema.ItemRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]schema.ItemRecord)
	return records, args.Error(1)
}

// MockDateWriter is a mock implementation of DateWriter for testing.
type MockDateWriter struct {
	mock.Mock
}

var _ contract.DateWriter = &MockDateWriter{} // Compile-time check

// UpdateDate implements the DateWriter interface.
func (m *MockDateWriter) UpdateDate(ctx context.Context, update schema.DateUpdate) error {
	args := m.Called(ctx, update)
	return args.Error(0)
}
