// Package secrets implements the encrypted secret store: it obtains the
// master key from the seal service per operation, envelope-encrypts
// secret values, and persists only the framed ciphertext through a
// storage backend. A sealed vault makes every operation fail with the
// seal service's sealed error, which transports surface as a coarse
// "vault sealed" condition.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/covault/covault/cryptoutils"
	"github.com/covault/covault/interfaces"
)

// ErrSecretNotFound indicates no secret exists under the requested name.
var ErrSecretNotFound = errors.New("secret not found")

// Store reads and writes named secrets, encrypting them under the
// vault's master key. It holds no key material of its own.
type Store struct {
	keys    interfaces.MasterKeyProvider
	backend interfaces.StorageBackend
	log     *slog.Logger
}

// NewStore creates a secret store over the given key provider and
// storage backend.
func NewStore(keys interfaces.MasterKeyProvider, backend interfaces.StorageBackend, log *slog.Logger) *Store {
	return &Store{
		keys:    keys,
		backend: backend,
		log:     log,
	}
}

// Put encrypts value under the master key and stores the framed blob
// under the hash of name. Fails while the vault is sealed.
func (s *Store) Put(ctx context.Context, name string, value []byte) error {
	key, err := s.keys.MasterKey()
	if err != nil {
		return err
	}
	defer wipe(key)

	blob, err := cryptoutils.Encrypt(value, key)
	if err != nil {
		return fmt.Errorf("failed to encrypt secret: %w", err)
	}

	if err := s.backend.Store(ctx, interfaces.ComputeID(name), cryptoutils.EncodeBlob(blob), interfaces.SecretType); err != nil {
		return fmt.Errorf("failed to store secret: %w", err)
	}

	s.log.Info("Secret stored", slog.String("id", interfaces.ComputeID(name).String()[:8]))
	return nil
}

// Get fetches, decodes, and decrypts the secret stored under name.
// Fails while the vault is sealed; a blob that does not authenticate
// under the current master key fails with the envelope service's
// authentication error.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	key, err := s.keys.MasterKey()
	if err != nil {
		return nil, err
	}
	defer wipe(key)

	data, err := s.backend.Fetch(ctx, interfaces.ComputeID(name), interfaces.SecretType)
	if err != nil {
		if errors.Is(err, interfaces.ErrContentNotFound) {
			return nil, ErrSecretNotFound
		}
		return nil, fmt.Errorf("failed to fetch secret: %w", err)
	}

	blob, err := cryptoutils.DecodeBlob(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode secret blob: %w", err)
	}

	return cryptoutils.Decrypt(blob, key)
}

// Delete removes the secret stored under name. Deleting an absent
// secret is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := s.backend.Delete(ctx, interfaces.ComputeID(name), interfaces.SecretType); err != nil {
		return fmt.Errorf("failed to delete secret: %w", err)
	}
	return nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
