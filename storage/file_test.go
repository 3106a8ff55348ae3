package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covault/covault/interfaces"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestFileBackend_RoundTrip(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir(), testLogger())
	require.NoError(t, err, "Failed to create file backend")

	ctx := context.Background()
	id := interfaces.ComputeID("test-secret")
	data := []byte("encrypted blob bytes")

	_, err = backend.Fetch(ctx, id, interfaces.SecretType)
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound, "Fetching absent content should fail")

	require.NoError(t, backend.Store(ctx, id, data, interfaces.SecretType))

	fetched, err := backend.Fetch(ctx, id, interfaces.SecretType)
	require.NoError(t, err)
	assert.Equal(t, data, fetched)

	// Same ID in a different namespace is distinct content.
	_, err = backend.Fetch(ctx, id, interfaces.ConfigType)
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound, "Content types should be isolated namespaces")

	require.NoError(t, backend.Delete(ctx, id, interfaces.SecretType))
	_, err = backend.Fetch(ctx, id, interfaces.SecretType)
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound, "Deleted content should be gone")

	assert.NoError(t, backend.Delete(ctx, id, interfaces.SecretType), "Deleting absent content should not error")
}

func TestFileBackend_Overwrite(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir(), testLogger())
	require.NoError(t, err)

	ctx := context.Background()
	id := interfaces.ComputeID("rotated-secret")

	require.NoError(t, backend.Store(ctx, id, []byte("v1"), interfaces.SecretType))
	require.NoError(t, backend.Store(ctx, id, []byte("v2"), interfaces.SecretType))

	fetched, err := backend.Fetch(ctx, id, interfaces.SecretType)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), fetched, "Store should overwrite previous content")
}

func TestFileBackend_Permissions(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackend(dir, testLogger())
	require.NoError(t, err)

	ctx := context.Background()
	id := interfaces.ComputeID("perm-check")
	require.NoError(t, backend.Store(ctx, id, []byte("blob"), interfaces.SecretType))

	info, err := os.Stat(filepath.Join(dir, "secrets", id.String()))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "Stored files should be owner-only")

	dirInfo, err := os.Stat(filepath.Join(dir, "secrets"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm(), "Storage directories should be owner-only")
}

func TestFileBackend_Available(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackend(dir, testLogger())
	require.NoError(t, err)

	ctx := context.Background()
	assert.True(t, backend.Available(ctx))

	require.NoError(t, os.RemoveAll(dir))
	assert.False(t, backend.Available(ctx), "Backend should report unavailable after its directory is removed")
}

func TestMemoryBackend_RoundTrip(t *testing.T) {
	backend := NewMemoryBackend(testLogger())
	ctx := context.Background()
	id := interfaces.ComputeID("mem-secret")

	_, err := backend.Fetch(ctx, id, interfaces.SecretType)
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)

	data := []byte("payload")
	require.NoError(t, backend.Store(ctx, id, data, interfaces.SecretType))

	fetched, err := backend.Fetch(ctx, id, interfaces.SecretType)
	require.NoError(t, err)
	assert.Equal(t, data, fetched)

	// The backend keeps its own copies.
	fetched[0] = 'X'
	again, err := backend.Fetch(ctx, id, interfaces.SecretType)
	require.NoError(t, err)
	assert.Equal(t, data, again, "Mutating a fetched slice should not corrupt stored content")

	require.NoError(t, backend.Delete(ctx, id, interfaces.SecretType))
	_, err = backend.Fetch(ctx, id, interfaces.SecretType)
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)
}
