// Package storage provides object storage implementations for receipt files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	appexpense "github.com/Jay1425/ExpensoX/internal/application/expense"
)

// MemoryReceiptStorage keeps receipts in memory. Use it for local
// development and tests when no S3-compatible backend is configured.
type MemoryReceiptStorage struct {
	// BaseURL prefixes the fake download links.
	// Defaults to "https://storage.example.com" if not set
	BaseURL string

	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryReceiptStorage creates a new MemoryReceiptStorage
func NewMemoryReceiptStorage() *MemoryReceiptStorage {
	return &MemoryReceiptStorage{
		BaseURL: "https://storage.example.com",
		objects: make(map[string]memoryObject),
	}
}

var _ appexpense.ReceiptStorage = (*MemoryReceiptStorage)(nil)

// Upload reads the receipt into memory under the given key
func (s *MemoryReceiptStorage) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	if key == "" {
		return errors.New("storage key is required")
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read receipt: %w", err)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("receipt size mismatch: declared %d, read %d", size, len(data))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memoryObject{data: data, contentType: contentType}
	return nil
}

// PresignedURL returns a fake download link for a stored receipt
func (s *MemoryReceiptStorage) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.objects[key]; !ok {
		return "", fmt.Errorf("receipt %q not found", key)
	}

	expiresAt := time.Now().Add(expiry)
	return s.BaseURL + "/download/" + key + "?expires=" + expiresAt.Format(time.RFC3339), nil
}

// Get returns a stored receipt's bytes and content type.
// Tests use it to assert what Upload stored.
func (s *MemoryReceiptStorage) Get(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, "", false
	}
	return obj.data, obj.contentType, true
}

// Delete removes a stored receipt
func (s *MemoryReceiptStorage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Len reports how many receipts are stored
func (s *MemoryReceiptStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
