// Package cryptoutils provides the envelope-encryption primitives for
// secrets at rest: authenticated encryption of arbitrary payloads under
// a 256-bit key, a fixed binary blob framing, passphrase key derivation,
// and key rotation.
//
// All functions are pure and safe for concurrent use.
package cryptoutils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	// KeySize is the required symmetric key length in bytes.
	KeySize = 32

	// NonceSize is the AES-GCM nonce length in bytes.
	NonceSize = 12

	// TagSize is the GCM authentication tag length in bytes.
	TagSize = 16

	// BlobVersion is the only framing version currently produced.
	BlobVersion = 1

	// blobHeaderLen is [version:1][nonce:12][tag:16].
	blobHeaderLen = 1 + NonceSize + TagSize
)

var (
	// ErrInvalidKeySize is returned when a key is not exactly KeySize
	// bytes.
	ErrInvalidKeySize = fmt.Errorf("key must be exactly %d bytes", KeySize)

	// ErrAuthenticationFailed is returned for any decryption failure:
	// wrong key, or tampered nonce, ciphertext or tag. The cause is
	// deliberately not distinguished further.
	ErrAuthenticationFailed = errors.New("decryption failed")

	// ErrTruncated is returned when an encoded blob is shorter than its
	// fixed header.
	ErrTruncated = errors.New("encrypted blob truncated")

	// ErrUnsupportedVersion is returned for blob framing versions this
	// build does not understand.
	ErrUnsupportedVersion = errors.New("unsupported blob version")
)

// EncryptedBlob is the authenticated ciphertext of a single payload.
// Ciphertext is always exactly as long as the plaintext.
type EncryptedBlob struct {
	Version    byte
	Nonce      []byte
	Tag        []byte
	Ciphertext []byte
}

// GenerateKey returns a fresh random 256-bit key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// Encrypt seals plaintext under key with AES-256-GCM. A fresh random
// nonce is drawn on every call; encrypting the same plaintext twice
// never reuses a nonce.
func Encrypt(plaintext, key []byte) (*EncryptedBlob, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// GCM returns ciphertext||tag; the blob keeps them separate.
	sealed := aead.Seal(nil, nonce, plaintext, nil)
	ctLen := len(sealed) - TagSize

	return &EncryptedBlob{
		Version:    BlobVersion,
		Nonce:      nonce,
		Tag:        sealed[ctLen:],
		Ciphertext: sealed[:ctLen],
	}, nil
}

// Decrypt opens a blob under key. Any verification failure surfaces as
// ErrAuthenticationFailed with no further detail.
func Decrypt(blob *EncryptedBlob, key []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	if blob.Version != BlobVersion {
		return nil, ErrUnsupportedVersion
	}
	if len(blob.Nonce) != NonceSize || len(blob.Tag) != TagSize {
		return nil, ErrAuthenticationFailed
	}

	sealed := make([]byte, 0, len(blob.Ciphertext)+TagSize)
	sealed = append(sealed, blob.Ciphertext...)
	sealed = append(sealed, blob.Tag...)

	plaintext, err := aead.Open(nil, blob.Nonce, sealed, nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

// Rotate re-encrypts a blob under newKey. The old key must decrypt the
// blob; failure propagates as ErrAuthenticationFailed. The result
// carries a fresh nonce and decrypts under newKey only.
func Rotate(blob *EncryptedBlob, oldKey, newKey []byte) (*EncryptedBlob, error) {
	plaintext, err := Decrypt(blob, oldKey)
	if err != nil {
		return nil, err
	}
	rotated, err := Encrypt(plaintext, newKey)
	wipe(plaintext)
	return rotated, err
}

// EncodeBlob serializes a blob into the fixed binary framing
// [version:1][nonce:12][tag:16][ciphertext:N].
func EncodeBlob(blob *EncryptedBlob) []byte {
	out := make([]byte, 0, blobHeaderLen+len(blob.Ciphertext))
	out = append(out, blob.Version)
	out = append(out, blob.Nonce...)
	out = append(out, blob.Tag...)
	out = append(out, blob.Ciphertext...)
	return out
}

// DecodeBlob parses the fixed binary framing. Inputs shorter than the
// header fail with ErrTruncated.
func DecodeBlob(data []byte) (*EncryptedBlob, error) {
	if len(data) < blobHeaderLen {
		return nil, ErrTruncated
	}
	return &EncryptedBlob{
		Version:    data[0],
		Nonce:      data[1 : 1+NonceSize],
		Tag:        data[1+NonceSize : blobHeaderLen],
		Ciphertext: data[blobHeaderLen:],
	}, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aead, nil
}

// wipe zeroes sensitive intermediate material.
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
