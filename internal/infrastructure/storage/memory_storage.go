package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/captech/portal/internal/application/export"
)

var _ export.ObjectStorage = (*MemoryObjectStorage)(nil)

type memoryObject struct {
	contentType string
	body        []byte
}

// MemoryObjectStorage keeps artifacts in process memory. It backs local
// development and tests where no S3 endpoint is available.
type MemoryObjectStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

// NewMemoryObjectStorage creates an empty in-memory storage
func NewMemoryObjectStorage() *MemoryObjectStorage {
	return &MemoryObjectStorage{objects: make(map[string]memoryObject)}
}

// Put stores a copy of the body under the given key
func (s *MemoryObjectStorage) Put(_ context.Context, key, contentType string, body []byte) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	buf := make([]byte, len(body))
	copy(buf, body)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memoryObject{contentType: contentType, body: buf}
	return nil
}

// Get returns the stored body and content type for a key
func (s *MemoryObjectStorage) Get(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, "", false
	}
	return obj.body, obj.contentType, true
}

// Len reports the number of stored objects
func (s *MemoryObjectStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
