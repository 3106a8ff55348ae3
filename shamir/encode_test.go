package shamir

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeShare_RoundTrip(t *testing.T) {
	shares, err := Split([]byte("token round trip secret"), 5, 3)
	require.NoError(t, err)

	for _, share := range shares {
		token, err := EncodeShare(share)
		require.NoError(t, err, "Encoding a valid share should succeed")
		assert.True(t, strings.HasPrefix(token, TokenPrefix), "Token should carry the share prefix")

		decoded, err := DecodeShare(token)
		require.NoError(t, err, "Decoding a well-formed token should succeed")
		assert.Equal(t, share, decoded, "Decoded share should match the original")
	}
}

func TestEncodeShare_RejectsInvalid(t *testing.T) {
	_, err := EncodeShare(Share{Index: 0, Threshold: 2, TotalShares: 3, Value: []byte{1}})
	assert.ErrorIs(t, err, ErrBadShare, "Encoding should refuse invalid shares")
}

func TestDecodeShare_Errors(t *testing.T) {
	for name, token := range map[string]string{
		"missing prefix": "AQIDBA",
		"wrong prefix":   "vault-share-AQIDBA",
		"bad base64":     TokenPrefix + "!!not-base64!!",
	} {
		_, err := DecodeShare(token)
		assert.ErrorIs(t, err, ErrBadTokenFormat, "Token with %s should fail as malformed", name)
	}

	// Structurally valid base64 but no value bytes after the header.
	_, err := DecodeShare(TokenPrefix + "AQID")
	assert.ErrorIs(t, err, ErrBadShare, "Token with an empty share value should fail validation")

	// Header fields that do not form a valid share: index 9 of 3 total.
	bad := base64.RawURLEncoding.EncodeToString([]byte{9, 2, 3, 0x42})
	_, err = DecodeShare(TokenPrefix + bad)
	assert.ErrorIs(t, err, ErrBadShare, "Token with an out-of-range index should fail validation")
}
