package store

import (
	"context"
	"time"

	"github.com/huangsam/tally/internal/contract"
	"github.com/huangsam/tally/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetQueue implements the StoreManager interface.
func (m *MockStoreManager) GetQueue() contract.ReportQueue {
	ret := m.Called()
	queue, _ := ret.Get(0).(contract.ReportQueue)
	return queue
}

// GetActivityStore implements the StoreManager interface.
func (m *MockStoreManager) GetActivityStore() contract.ActivityStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.ActivityStore)
	return store
}

// GetMeasureStore implements the StoreManager interface.
func (m *MockStoreManager) GetMeasureStore() contract.MeasureStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.MeasureStore)
	return store
}

// GetIssueStore implements the StoreManager interface.
func (m *MockStoreManager) GetIssueStore() contract.IssueStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.IssueStore)
	return store
}

// MockStore is a mock implementation of Store for testing.
type MockStore struct {
	mock.Mock
}

var _ contract.Store = &MockStore{} // Compile-time check

// Enqueue implements the ReportQueue interface.
func (m *MockStore) Enqueue(ctx context.Context, projectKey, payloadPath string, submittedAt time.Time) (int64, error) {
	args := m.Called(ctx, projectKey, payloadPath, submittedAt)
	return args.Get(0).(int64), args.Error(1)
}

// Book implements the ReportQueue interface.
func (m *MockStore) Book(ctx context.Context, workerID string, now time.Time, staleAfter time.Duration) (schema.QueueItem, error) {
	args := m.Called(ctx, workerID, now, staleAfter)
	return args.Get(0).(schema.QueueItem), args.Error(1)
}

// Heartbeat implements the ReportQueue interface.
func (m *MockStore) Heartbeat(ctx context.Context, id int64, workerID string, now time.Time) error {
	args := m.Called(ctx, id, workerID, now)
	return args.Error(0)
}

// Remove implements the ReportQueue interface.
func (m *MockStore) Remove(ctx context.Context, id int64, workerID string) error {
	args := m.Called(ctx, id, workerID)
	return args.Error(0)
}

// List implements the ReportQueue interface.
func (m *MockStore) List(ctx context.Context) ([]schema.QueueItem, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]schema.QueueItem)
	return items, args.Error(1)
}

// Clear implements the ReportQueue interface.
func (m *MockStore) Clear(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MarkExecuting implements the ActivityStore interface.
func (m *MockStore) MarkExecuting(ctx context.Context, reportID int64, at time.Time) error {
	args := m.Called(ctx, reportID, at)
	return args.Error(0)
}

// MarkFinished implements the ActivityStore interface.
func (m *MockStore) MarkFinished(ctx context.Context, reportID int64, status schema.ReportStatus, at time.Time, reason *string) error {
	args := m.Called(ctx, reportID, status, at, reason)
	return args.Error(0)
}

// GetActivity implements the ActivityStore interface.
func (m *MockStore) GetActivity(ctx context.Context, reportID int64) (schema.ReportActivity, error) {
	args := m.Called(ctx, reportID)
	return args.Get(0).(schema.ReportActivity), args.Error(1)
}

// ListActivities implements the ActivityStore interface.
func (m *MockStore) ListActivities(ctx context.Context, projectKey string, limit int) ([]schema.ReportActivity, error) {
	args := m.Called(ctx, projectKey, limit)
	activities, _ := args.Get(0).([]schema.ReportActivity)
	return activities, args.Error(1)
}

// SaveMeasures implements the MeasureStore interface.
func (m *MockStore) SaveMeasures(ctx context.Context, records []schema.MeasureRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

// ListMeasures implements the MeasureStore interface.
func (m *MockStore) ListMeasures(ctx context.Context, projectKey string, reportID int64) ([]schema.MeasureRecord, error) {
	args := m.Called(ctx, projectKey, reportID)
	records, _ := args.Get(0).([]schema.MeasureRecord)
	return records, args.Error(1)
}

// ListAllMeasures implements the MeasureStore interface.
func (m *MockStore) ListAllMeasures(ctx context.Context) ([]schema.MeasureRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]schema.MeasureRecord)
	return records, args.Error(1)
}

// ListOpenIssues implements the IssueStore interface.
func (m *MockStore) ListOpenIssues(ctx context.Context, projectKey, componentKey string) ([]schema.IssueRecord, error) {
	args := m.Called(ctx, projectKey, componentKey)
	records, _ := args.Get(0).([]schema.IssueRecord)
	return records, args.Error(1)
}

// SaveIssues implements the IssueStore interface.
func (m *MockStore) SaveIssues(ctx context.Context, records []schema.IssueRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

// GetFileSource implements the IssueStore interface.
func (m *MockStore) GetFileSource(ctx context.Context, projectKey, componentKey string) (schema.FileSourceRecord, bool, error) {
	args := m.Called(ctx, projectKey, componentKey)
	return args.Get(0).(schema.FileSourceRecord), args.Bool(1), args.Error(2)
}

// SaveFileSource implements the IssueStore interface.
func (m *MockStore) SaveFileSource(ctx context.Context, record schema.FileSourceRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// SaveReport implements the ReportWriter interface.
func (m *MockStore) SaveReport(ctx context.Context, output schema.ReportOutput) error {
	args := m.Called(ctx, output)
	return args.Error(0)
}

// GetStatus implements the Store interface.
func (m *MockStore) GetStatus(ctx context.Context) (schema.StoreStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the Store interface.
func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
