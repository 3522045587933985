package kvstore

import (
	"context"
	"sync"

	"github.com/chafidzadlan/anotherfile/internal/common"
)

// MemoryStore is an in-memory Store. GetErr/SetErr, when set, are returned on
// every call, which lets tests exercise the degrade-to-no-op policy of
// consumers.
type MemoryStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	GetErr error
	SetErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	v, ok := s.data[key]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetErr != nil {
		return s.SetErr
	}
	v := make([]byte, len(value))
	copy(v, value)
	s.data[key] = v
	return nil
}

// SetAll writes every pair, or nothing when SetErr is set.
func (s *MemoryStore) SetAll(ctx context.Context, pairs map[string][]byte) error {
	for key, value := range pairs {
		if err := s.Set(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}
