package cryptoutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Lowered iteration count keeps the derivation tests fast; determinism
// and unlinkability do not depend on the work factor.
const testIterations = 1000

func TestDeriveKey_Deterministic(t *testing.T) {
	salt := []byte("fixed-salt-0123")

	first := DeriveKey("correct horse battery staple", salt, testIterations)
	second := DeriveKey("correct horse battery staple", salt, testIterations)

	require.Len(t, first, KeySize, "Derived key should be usable as an encryption key")
	assert.Equal(t, first, second, "Same passphrase, salt and iterations should derive the same key")
}

func TestDeriveKey_Unlinkable(t *testing.T) {
	passphrase := "correct horse battery staple"

	a := DeriveKey(passphrase, []byte("salt-a"), testIterations)
	b := DeriveKey(passphrase, []byte("salt-b"), testIterations)
	assert.NotEqual(t, a, b, "Different salts should derive different keys")

	c := DeriveKey("other passphrase", []byte("salt-a"), testIterations)
	assert.NotEqual(t, a, c, "Different passphrases should derive different keys")

	d := DeriveKey(passphrase, []byte("salt-a"), testIterations+1)
	assert.NotEqual(t, a, d, "Different iteration counts should derive different keys")
}

func TestDeriveKey_UsableForEncryption(t *testing.T) {
	key := DeriveKey("operator passphrase", []byte("deployment-salt"), testIterations)

	blob, err := Encrypt([]byte("derived-key payload"), key)
	require.NoError(t, err)

	rederived := DeriveKey("operator passphrase", []byte("deployment-salt"), testIterations)
	recovered, err := Decrypt(blob, rederived)
	require.NoError(t, err, "A re-derived key should decrypt what the original encrypted")
	assert.Equal(t, []byte("derived-key payload"), recovered)
}
