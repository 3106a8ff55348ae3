package shamir

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// kSubsets returns all k-element subsets of shares.
func kSubsets(shares []Share, k int) [][]Share {
	var out [][]Share
	var recurse func(start int, picked []Share)
	recurse = func(start int, picked []Share) {
		if len(picked) == k {
			subset := make([]Share, k)
			copy(subset, picked)
			out = append(out, subset)
			return
		}
		for i := start; i < len(shares); i++ {
			recurse(i+1, append(picked, shares[i]))
		}
	}
	recurse(0, nil)
	return out
}

func TestSplitCombine_RoundTripAllSubsets(t *testing.T) {
	secret := make([]byte, 32)
	_, err := rand.Read(secret)
	require.NoError(t, err, "Failed to generate test secret")

	shares, err := Split(secret, 5, 3)
	require.NoError(t, err, "Split should succeed with valid parameters")
	require.Len(t, shares, 5, "Should generate 5 shares")

	for _, subset := range kSubsets(shares, 3) {
		recovered, err := Combine(subset)
		require.NoError(t, err, "Combine should succeed with any 3-subset")
		assert.Equal(t, secret, recovered, "Every 3-subset should recover the original secret")
	}

	// More shares than the threshold also works.
	recovered, err := Combine(shares)
	require.NoError(t, err)
	assert.Equal(t, secret, recovered, "All shares should recover the original secret")
}

func TestSplitCombine_FullByteRange(t *testing.T) {
	for name, secret := range map[string][]byte{
		"all-zero": bytes.Repeat([]byte{0x00}, 64),
		"all-ff":   bytes.Repeat([]byte{0xFF}, 64),
		"every-byte": func() []byte {
			b := make([]byte, 256)
			for i := range b {
				b[i] = byte(i)
			}
			return b
		}(),
	} {
		shares, err := Split(secret, 4, 2)
		require.NoError(t, err, "Split should handle %s secret", name)

		recovered, err := Combine(shares[:2])
		require.NoError(t, err)
		assert.Equal(t, secret, recovered, "Round trip should preserve %s secret exactly", name)
	}
}

func TestSplit_ParameterValidation(t *testing.T) {
	secret := []byte("supersecret")

	_, err := Split(secret, 5, 6)
	assert.ErrorIs(t, err, ErrInvalidThreshold, "Threshold above total shares should fail")

	_, err = Split(secret, 5, 0)
	assert.ErrorIs(t, err, ErrInvalidThreshold, "Zero threshold should fail")

	_, err = Split(secret, 252, 3)
	assert.ErrorIs(t, err, ErrTooManyShares, "More than 251 shares should fail")

	_, err = Split(nil, 5, 3)
	assert.Error(t, err, "Empty secret should fail")

	// The bounds themselves are fine.
	shares, err := Split(secret, 251, 251)
	require.NoError(t, err, "251 shares with threshold 251 should succeed")
	recovered, err := Combine(shares)
	require.NoError(t, err)
	assert.Equal(t, secret, recovered)

	shares, err = Split(secret, 1, 1)
	require.NoError(t, err, "Single-share scheme should succeed")
	recovered, err = Combine(shares)
	require.NoError(t, err)
	assert.Equal(t, secret, recovered)
}

func TestSplit_NonDeterministic(t *testing.T) {
	secret := []byte("the same secret every time")

	first, err := Split(secret, 3, 2)
	require.NoError(t, err)
	second, err := Split(secret, 3, 2)
	require.NoError(t, err)

	same := true
	for i := range first {
		if !bytes.Equal(first[i].Value, second[i].Value) {
			same = false
		}
	}
	assert.False(t, same, "Two splits of the same secret should produce different share values")

	// Both sets still reconstruct independently.
	for _, shares := range [][]Share{first, second} {
		recovered, err := Combine(shares[1:])
		require.NoError(t, err)
		assert.Equal(t, secret, recovered)
	}
}

func TestCombine_ThresholdEnforcement(t *testing.T) {
	secret := make([]byte, 16)
	_, err := rand.Read(secret)
	require.NoError(t, err)

	shares, err := Split(secret, 5, 3)
	require.NoError(t, err)

	for _, subset := range kSubsets(shares, 2) {
		_, err := Combine(subset)
		assert.ErrorIs(t, err, ErrInsufficientShares, "Any 2-subset should be below the threshold")
	}
}

func TestCombine_DuplicateIdsCountOnce(t *testing.T) {
	secret := []byte("duplicate handling")
	shares, err := Split(secret, 5, 3)
	require.NoError(t, err)

	// Three copies of one share plus one other: only 2 distinct ids.
	_, err = Combine([]Share{shares[0], shares[0], shares[0], shares[1]})
	assert.ErrorIs(t, err, ErrInsufficientShares, "Duplicate share ids should count once toward the threshold")

	// Duplicates alongside enough distinct shares are harmless.
	recovered, err := Combine([]Share{shares[0], shares[0], shares[1], shares[2]})
	require.NoError(t, err)
	assert.Equal(t, secret, recovered)
}

func TestCombine_InputValidation(t *testing.T) {
	_, err := Combine(nil)
	assert.ErrorIs(t, err, ErrNoShares, "Empty input should fail")

	secret := []byte("validation")
	shares, err := Split(secret, 4, 2)
	require.NoError(t, err)

	mismatched := shares[1]
	mismatched.Threshold = 3
	_, err = Combine([]Share{shares[0], mismatched})
	assert.ErrorIs(t, err, ErrThresholdMismatch, "Shares disagreeing on threshold should fail")

	truncated := shares[1]
	truncated.Value = truncated.Value[:4]
	_, err = Combine([]Share{shares[0], truncated})
	assert.ErrorIs(t, err, ErrShareLengthMismatch, "Shares of different lengths should fail")

	invalid := shares[1]
	invalid.Index = 0
	_, err = Combine([]Share{shares[0], invalid})
	assert.ErrorIs(t, err, ErrBadShare, "Share with index 0 should fail validation")
}

func TestCombine_MixedSplitsYieldGarbageSilently(t *testing.T) {
	secretA := []byte("first secret, 32 bytes long.....")
	secretB := []byte("second secret, 32 bytes long....")

	sharesA, err := Split(secretA, 3, 2)
	require.NoError(t, err)
	sharesB, err := Split(secretB, 3, 2)
	require.NoError(t, err)

	// Distinct ids from unrelated splits combine without error but
	// reconstruct neither secret.
	recovered, err := Combine([]Share{sharesA[0], sharesB[1]})
	require.NoError(t, err, "Combine cannot detect shares from unrelated splits")
	assert.NotEqual(t, secretA, recovered)
	assert.NotEqual(t, secretB, recovered)
}

func TestShare_Validate(t *testing.T) {
	valid := Share{Index: 1, Threshold: 2, TotalShares: 3, Value: []byte{1}}
	assert.NoError(t, valid.Validate())

	for name, s := range map[string]Share{
		"empty value":        {Index: 1, Threshold: 2, TotalShares: 3},
		"index too large":    {Index: 4, Threshold: 2, TotalShares: 3, Value: []byte{1}},
		"index zero":         {Index: 0, Threshold: 2, TotalShares: 3, Value: []byte{1}},
		"threshold too high": {Index: 1, Threshold: 4, TotalShares: 3, Value: []byte{1}},
		"too many shares":    {Index: 1, Threshold: 2, TotalShares: 300, Value: []byte{1}},
	} {
		assert.ErrorIs(t, s.Validate(), ErrBadShare, "Share with %s should fail validation", name)
	}
}
