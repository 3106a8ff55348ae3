// Package interfaces defines the contracts shared between the seal
// subsystem, the secrets store, and the storage backends, so packages
// depend on these types rather than on each other.
package interfaces

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ContentID is a 32-byte SHA-256 hash addressing stored content. Named
// secrets map to the hash of their name, so backends never learn secret
// names in plaintext.
type ContentID [32]byte

// ComputeID calculates the content ID for a secret or config name.
func ComputeID(name string) ContentID {
	return ContentID(sha256.Sum256([]byte(name)))
}

// String returns the hex representation.
func (id ContentID) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns the raw 32-byte hash.
func (id ContentID) Bytes() []byte {
	return id[:]
}

// Equal compares two content IDs.
func (id ContentID) Equal(other ContentID) bool {
	return bytes.Equal(id[:], other[:])
}

// ContentType indicates the storage namespace.
type ContentType int

const (
	// ConfigType holds non-secret metadata such as the vault topology.
	ConfigType ContentType = iota
	// SecretType holds envelope-encrypted secret blobs.
	SecretType
)

// String returns the namespace name.
func (ct ContentType) String() string {
	switch ct {
	case ConfigType:
		return "configs"
	case SecretType:
		return "secrets"
	default:
		return "unknown"
	}
}

// StorageBackendLocation is a URI identifying a storage backend, e.g.
// file:///var/lib/covault or s3://bucket/prefix?region=us-east-1.
type StorageBackendLocation string

var (
	// ErrContentNotFound indicates the requested content does not exist
	// in the backend.
	ErrContentNotFound = errors.New("content not found")

	// ErrInvalidLocationURI indicates a malformed backend location URI.
	ErrInvalidLocationURI = errors.New("invalid storage location URI")
)

// StorageBackend stores and retrieves opaque byte content by ID. The
// content a backend sees is always either non-secret metadata or an
// envelope-encrypted blob; plaintext secret material never reaches a
// backend.
type StorageBackend interface {
	// Fetch retrieves content by ID. Returns ErrContentNotFound if the
	// content does not exist.
	Fetch(ctx context.Context, id ContentID, contentType ContentType) ([]byte, error)

	// Store writes content under the given ID, overwriting any previous
	// value.
	Store(ctx context.Context, id ContentID, data []byte, contentType ContentType) error

	// Delete removes content by ID. Deleting absent content is not an
	// error.
	Delete(ctx context.Context, id ContentID, contentType ContentType) error

	// Available reports whether the backend is currently reachable.
	Available(ctx context.Context) bool

	// Name returns a unique identifier for this backend.
	Name() string

	// LocationURI returns the URI this backend was created from.
	LocationURI() string
}

// MasterKeyProvider is the narrow surface the secrets store needs from
// the seal state machine.
type MasterKeyProvider interface {
	// MasterKey returns the master key while the vault is unsealed.
	MasterKey() ([]byte, error)
}
