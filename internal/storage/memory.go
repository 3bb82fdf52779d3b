package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps encoded values in a map. Values still pass through the
// codec so behaviour matches the SQL backends.
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string][]byte
	codec Codec
}

func NewMemoryStore(codec Codec) *MemoryStore {
	if codec == nil {
		codec = JSONCodec{}
	}
	return &MemoryStore{data: make(map[string][]byte), codec: codec}
}

func (s *MemoryStore) Save(ctx context.Context, key string, value any) error {
	b, err := s.codec.Encode(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	s.mu.Lock()
	s.data[key] = b
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, key string, dst any) error {
	s.mu.RLock()
	b, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	if err := s.codec.Decode(b, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// PutRaw stores bytes without encoding them.
func (s *MemoryStore) PutRaw(key string, raw []byte) {
	s.mu.Lock()
	s.data[key] = append([]byte(nil), raw...)
	s.mu.Unlock()
}

// Raw returns the stored bytes for key.
func (s *MemoryStore) Raw(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.data[key]
	return append([]byte(nil), b...), ok
}
