package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/covault/covault/interfaces"
)

// MultiStorageBackend aggregates several backends for redundancy: writes
// go to every available backend, reads return the first hit.
type MultiStorageBackend struct {
	backends []interfaces.StorageBackend
	log      *slog.Logger
}

// NewMultiStorageBackend creates a multi-storage backend over the given
// backends.
func NewMultiStorageBackend(backends []interfaces.StorageBackend, log *slog.Logger) *MultiStorageBackend {
	if log == nil {
		log = slog.Default()
	}
	return &MultiStorageBackend{
		backends: backends,
		log:      log,
	}
}

// Fetch returns the content from the first backend that has it.
func (m *MultiStorageBackend) Fetch(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	start := time.Now()
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable", slog.String("backend", backend.Name()))
			continue
		}

		data, err := backend.Fetch(ctx, id, contentType)
		if err == nil {
			m.log.Debug("Fetched content",
				slog.String("backend", backend.Name()),
				slog.Duration("duration", time.Since(start)))
			return data, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
	}

	for _, err := range errs {
		if !errors.Is(err, interfaces.ErrContentNotFound) {
			return nil, fmt.Errorf("all backends failed: %w", errors.Join(errs...))
		}
	}
	return nil, interfaces.ErrContentNotFound
}

// Store writes the content to every available backend and succeeds if at
// least one write succeeds.
func (m *MultiStorageBackend) Store(ctx context.Context, id interfaces.ContentID, data []byte, contentType interfaces.ContentType) error {
	var errs []error
	stored := 0

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			continue
		}
		if err := backend.Store(ctx, id, data, contentType); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
			m.log.Warn("Failed to store to backend",
				slog.String("backend", backend.Name()),
				"err", err)
			continue
		}
		stored++
	}

	if stored == 0 {
		if len(errs) == 0 {
			return errors.New("no storage backend available")
		}
		return fmt.Errorf("failed to store to any backend: %w", errors.Join(errs...))
	}
	return nil
}

// Delete removes the content from every available backend.
func (m *MultiStorageBackend) Delete(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) error {
	var errs []error
	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			continue
		}
		if err := backend.Delete(ctx, id, contentType); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to delete from some backends: %w", errors.Join(errs...))
	}
	return nil
}

// Available reports true if any underlying backend is available.
func (m *MultiStorageBackend) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

// Name returns a unique identifier for this storage backend.
func (m *MultiStorageBackend) Name() string {
	return fmt.Sprintf("multi-%d", len(m.backends))
}

// LocationURI returns the URI that identifies this storage backend.
func (m *MultiStorageBackend) LocationURI() string {
	return "multi://"
}
