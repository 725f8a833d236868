package offload

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Store holds blob bytes by ID.
type Store interface {
	Put(ctx context.Context, id string, data []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
}

// MemoryStore is an in-process Store. Entries are optionally compressed, then
// optionally encrypted with the blob ID as additional data.
//
// MemoryStore is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
	sealer
}

// StoreOption configures how a store prepares entries.
type StoreOption func(*sealer)

// WithCompressor compresses entries before they are stored.
func WithCompressor(c Compressor) StoreOption {
	return func(s *sealer) {
		s.compressor = c
	}
}

// WithEncryptor encrypts entries before they are stored.
func WithEncryptor(e Encryptor) StoreOption {
	return func(s *sealer) {
		s.encryptor = e
	}
}

// sealer compresses, then encrypts, entries bound to their ID.
type sealer struct {
	compressor Compressor
	encryptor  Encryptor
}

func newSealer(opts []StoreOption) sealer {
	var s sealer
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]byte),
		sealer:  newSealer(opts),
	}
}

// Put stores data under id, replacing any previous entry.
func (s *MemoryStore) Put(ctx context.Context, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()

	entry, err := s.seal(id, data)
	if err != nil {
		emitStored(ctx, id, len(data), 0, time.Since(start), err)
		return err
	}

	s.mu.Lock()
	s.entries[id] = entry
	s.mu.Unlock()

	emitStored(ctx, id, len(data), len(entry), time.Since(start), nil)
	return nil
}

// Get returns the data stored under id.
func (s *MemoryStore) Get(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		err := fmt.Errorf("%w: %s", ErrNotFound, id)
		emitFetched(ctx, id, 0, time.Since(start), err)
		return nil, err
	}

	data, err := s.open(id, entry)
	emitFetched(ctx, id, len(data), time.Since(start), err)
	return data, err
}

// Delete removes the entry for id. Deleting a missing entry is a no-op.
func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *sealer) seal(id string, data []byte) ([]byte, error) {
	out := append([]byte(nil), data...)
	var err error
	if s.compressor != nil {
		if out, err = s.compressor.Compress(out); err != nil {
			return nil, err
		}
	}
	if s.encryptor != nil {
		if out, err = s.encryptor.Encrypt(out, []byte(id)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *sealer) open(id string, entry []byte) ([]byte, error) {
	out := entry
	var err error
	if s.encryptor != nil {
		if out, err = s.encryptor.Decrypt(out, []byte(id)); err != nil {
			return nil, err
		}
	}
	if s.compressor != nil {
		if out, err = s.compressor.Decompress(out); err != nil {
			return nil, err
		}
	}
	if s.encryptor == nil && s.compressor == nil {
		out = append([]byte(nil), out...)
	}
	return out, nil
}
