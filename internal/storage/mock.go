package storage

import (
	"context"
	"fmt"
	"sync"
)

// MockStore is an in-memory ImageStore for tests. It records uploads
// and deletes and can be configured to fail either operation.
type MockStore struct {
	mu sync.Mutex

	Uploads     []UploadResult
	Deleted     []string
	UploadErr   error
	DeleteErr   error
	uploadCount int
}

// Ensure MockStore implements ImageStore
var _ ImageStore = (*MockStore)(nil)

// NewMockStore creates an empty mock store
func NewMockStore() *MockStore {
	return &MockStore{}
}

// UploadImage records the upload and returns a deterministic fake URL
func (m *MockStore) UploadImage(ctx context.Context, data []byte, contentType, userID string) (*UploadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UploadErr != nil {
		return nil, m.UploadErr
	}

	m.uploadCount++
	key := fmt.Sprintf("posts/%s/mock-%d%s", userID, m.uploadCount, extensionForContentType(contentType))
	result := UploadResult{
		Key:    key,
		URL:    "https://cdn.test.local/" + key,
		Bucket: "mock-bucket",
		Region: "mock-region",
		Size:   int64(len(data)),
	}
	m.Uploads = append(m.Uploads, result)
	return &result, nil
}

// Reset clears recorded operations and configured errors
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Uploads = nil
	m.Deleted = nil
	m.UploadErr = nil
	m.DeleteErr = nil
	m.uploadCount = 0
}

// DeleteObject records the deleted key
func (m *MockStore) DeleteObject(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.DeleteErr != nil {
		return m.DeleteErr
	}

	m.Deleted = append(m.Deleted, key)
	return nil
}
