package storage

import (
	"context"
	"log/slog"
	"sync"

	"github.com/covault/covault/interfaces"
)

// MemoryBackend implements an in-process storage backend. It is used for
// tests and single-binary development mode; content does not survive a
// restart.
type MemoryBackend struct {
	mu      sync.RWMutex
	content map[interfaces.ContentType]map[interfaces.ContentID][]byte
	log     *slog.Logger
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend(log *slog.Logger) *MemoryBackend {
	return &MemoryBackend{
		content: map[interfaces.ContentType]map[interfaces.ContentID][]byte{
			interfaces.ConfigType: {},
			interfaces.SecretType: {},
		},
		log: log,
	}
}

// Fetch retrieves content by ID.
func (b *MemoryBackend) Fetch(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, ok := b.content[contentType][id]
	if !ok {
		return nil, interfaces.ErrContentNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Store writes content under its ID.
func (b *MemoryBackend) Store(ctx context.Context, id interfaces.ContentID, data []byte, contentType interfaces.ContentType) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	b.content[contentType][id] = stored
	return nil
}

// Delete removes content by ID.
func (b *MemoryBackend) Delete(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.content[contentType], id)
	return nil
}

// Available always reports true.
func (b *MemoryBackend) Available(ctx context.Context) bool {
	return true
}

// Name returns a unique identifier for this storage backend.
func (b *MemoryBackend) Name() string {
	return "memory"
}

// LocationURI returns the URI that identifies this storage backend.
func (b *MemoryBackend) LocationURI() string {
	return "mem://"
}
