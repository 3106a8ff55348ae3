package cryptoutils

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

// DefaultIterations is the PBKDF2 iteration count used when callers do
// not specify one.
const DefaultIterations = 600_000

// DeriveKey derives a 256-bit key from a passphrase and salt using
// PBKDF2-SHA256. The same passphrase, salt and iteration count always
// yield the same key; different salts yield unlinkable keys. Pass
// iterations <= 0 to use DefaultIterations.
func DeriveKey(passphrase string, salt []byte, iterations int) []byte {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return pbkdf2.Key([]byte(passphrase), salt, iterations, KeySize, sha256.New)
}
