package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemStore keeps objects in memory. Used by tests and by local runs that do
// not care about durability.
type MemStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (s *MemStore) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := bucket + "/" + key
	s.objects[id] = append([]byte(nil), data...)
	s.types[id] = contentType
	return nil
}

func (s *MemStore) PublicURL(ctx context.Context, bucket, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := bucket + "/" + key
	if _, ok := s.objects[id]; !ok {
		return "", ErrNotFound
	}
	return fmt.Sprintf("https://storage.local/%s", id), nil
}

func (s *MemStore) Remove(ctx context.Context, bucket, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := bucket + "/" + key
	if _, ok := s.objects[id]; !ok {
		return ErrNotFound
	}
	delete(s.objects, id)
	delete(s.types, id)
	return nil
}

// Object returns the stored bytes and content type for assertions in tests.
func (s *MemStore) Object(bucket, key string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := bucket + "/" + key
	data, ok := s.objects[id]
	return data, s.types[id], ok
}

// Len reports how many objects are currently stored.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

var _ ObjectStore = (*MemStore)(nil)
