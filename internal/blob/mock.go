package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// MockObjectStore implements ObjectStore in memory for testing.
type MockObjectStore struct {
	mu      sync.Mutex
	objects map[string]ObjectInfo

	ListErr error
	PutErr  error

	// ListedPrefixes records every List call's prefix, in order.
	ListedPrefixes []string
}

var _ ObjectStore = (*MockObjectStore)(nil)

// NewMockObjectStore creates an empty mock.
func NewMockObjectStore() *MockObjectStore {
	return &MockObjectStore{objects: make(map[string]ObjectInfo)}
}

// SeedKeys adds objects with fixed size and modification time.
func (m *MockObjectStore) SeedKeys(keys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		m.objects[key] = ObjectInfo{
			Key:          key,
			Size:         1024,
			LastModified: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		}
	}
}

func (m *MockObjectStore) List(_ context.Context, prefix string, max int) ([]ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListedPrefixes = append(m.ListedPrefixes, prefix)
	if m.ListErr != nil {
		return nil, m.ListErr
	}

	keys := make([]string, 0, len(m.objects))
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	if len(keys) > max {
		keys = keys[:max]
	}
	out := make([]ObjectInfo, 0, len(keys))
	for _, key := range keys {
		out = append(out, m.objects[key])
	}
	return out, nil
}

func (m *MockObjectStore) Put(_ context.Context, key string, body io.Reader, _ string) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	var buf bytes.Buffer
	size, err := buf.ReadFrom(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = ObjectInfo{Key: key, Size: size, LastModified: time.Now()}
	return nil
}

func (m *MockObjectStore) PublicURL(key string) string {
	return fmt.Sprintf("https://mock-bucket.s3.us-east-1.amazonaws.com/%s", key)
}
