package secretshandler

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covault/covault/metrics"
	"github.com/covault/covault/seal"
	"github.com/covault/covault/secrets"
	"github.com/covault/covault/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestServer starts a secrets API over a fresh vault and returns the
// seal service so tests can drive seal state directly.
func newTestServer(t *testing.T) (*seal.Service, *httptest.Server, *Client) {
	t.Helper()

	svc := seal.New(seal.Config{AutoSealAfter: -1, Log: testLogger()})
	t.Cleanup(svc.Close)

	store := secrets.NewStore(svc, storage.NewMemoryBackend(testLogger()), testLogger())
	handler := NewHandler(store, metrics.New("covault_test"), testLogger())

	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return svc, server, NewClient(server.URL)
}

func unseal(t *testing.T, svc *seal.Service) {
	t.Helper()
	shares, err := svc.Initialize(3, 2)
	require.NoError(t, err, "Failed to initialize test vault")
	for _, share := range shares[:2] {
		_, err := svc.Unseal(share)
		require.NoError(t, err, "Failed to unseal test vault")
	}
}

func TestSecretsAPI_PutGetDelete(t *testing.T) {
	svc, _, client := newTestServer(t)
	unseal(t, svc)

	value := []byte("api-key-123456")
	require.NoError(t, client.Put("app/api-key", value), "Put should succeed while unsealed")

	got, err := client.Get("app/api-key")
	require.NoError(t, err)
	assert.Equal(t, value, got)

	_, err = client.Get("app/missing")
	assert.ErrorIs(t, err, ErrNotFound, "Absent secret should surface as not found")

	require.NoError(t, client.Delete("app/api-key"))
	_, err = client.Get("app/api-key")
	assert.ErrorIs(t, err, ErrNotFound, "Deleted secret should be gone")
}

func TestSecretsAPI_NamesWithSpecialCharacters(t *testing.T) {
	svc, _, client := newTestServer(t)
	unseal(t, svc)

	// Path-escaped names round trip through the URL.
	name := "prod/db password #1"
	require.NoError(t, client.Put(name, []byte("v")))

	got, err := client.Get(name)
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestSecretsAPI_SealedVault(t *testing.T) {
	svc, _, client := newTestServer(t)
	unseal(t, svc)

	require.NoError(t, client.Put("app/secret", []byte("value")))
	svc.Seal()

	err := client.Put("app/secret", []byte("value"))
	assert.ErrorIs(t, err, ErrVaultSealed, "Put against a sealed vault should fail with the sealed signal")

	_, err = client.Get("app/secret")
	assert.ErrorIs(t, err, ErrVaultSealed, "Get against a sealed vault should fail with the sealed signal")
}

func TestSecretsAPI_UninitializedVault(t *testing.T) {
	_, _, client := newTestServer(t)

	// Before initialization the vault is sealed; clients see the same
	// coarse signal.
	err := client.Put("app/secret", []byte("value"))
	assert.ErrorIs(t, err, ErrVaultSealed)
}

func TestSecretsAPI_SecretTooLarge(t *testing.T) {
	svc, server, _ := newTestServer(t)
	unseal(t, svc)

	oversized := bytes.Repeat([]byte{'x'}, 1<<20+1)
	req, err := http.NewRequest(http.MethodPut, server.URL+"/api/secrets/huge", bytes.NewReader(oversized))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode, "Values above the size limit should be rejected")

	// Exactly at the limit is accepted.
	atLimit := bytes.Repeat([]byte{'x'}, 1<<20)
	req, err = http.NewRequest(http.MethodPut, server.URL+"/api/secrets/huge", bytes.NewReader(atLimit))
	require.NoError(t, err)

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestSecretsAPI_EmptyValue(t *testing.T) {
	svc, _, client := newTestServer(t)
	unseal(t, svc)

	require.NoError(t, client.Put("app/empty", nil), "Empty secret values should be allowed")

	got, err := client.Get("app/empty")
	require.NoError(t, err)
	assert.Empty(t, got)
}
