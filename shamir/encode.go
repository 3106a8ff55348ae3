package shamir

import (
	"encoding/base64"
	"errors"
	"strings"
)

// TokenPrefix tags encoded share tokens so they are recognizable when
// passed around over text channels.
const TokenPrefix = "covault-share-"

// Binary layout of the token payload before base64 encoding.
const shareHeaderLen = 3 // [index:1][threshold:1][total:1]

var (
	// ErrBadTokenFormat is returned when a token is missing the prefix
	// or its payload is not valid base64.
	ErrBadTokenFormat = errors.New("malformed share token")
)

// EncodeShare serializes a share into a printable token: the fixed
// prefix followed by unpadded URL-safe base64 of
// [index:1][threshold:1][total:1][value:N]. The token is safe to send
// over plain-text channels such as email or a printed card.
func EncodeShare(s Share) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	payload := make([]byte, shareHeaderLen+len(s.Value))
	payload[0] = byte(s.Index)
	payload[1] = byte(s.Threshold)
	payload[2] = byte(s.TotalShares)
	copy(payload[shareHeaderLen:], s.Value)
	return TokenPrefix + base64.RawURLEncoding.EncodeToString(payload), nil
}

// DecodeShare parses a token produced by EncodeShare. It returns
// ErrBadTokenFormat when the prefix or base64 payload is broken, and
// ErrBadShare when the decoded fields do not form a valid share.
func DecodeShare(token string) (Share, error) {
	rest, ok := strings.CutPrefix(token, TokenPrefix)
	if !ok {
		return Share{}, ErrBadTokenFormat
	}
	payload, err := base64.RawURLEncoding.DecodeString(rest)
	if err != nil {
		return Share{}, ErrBadTokenFormat
	}
	if len(payload) <= shareHeaderLen {
		return Share{}, ErrBadShare
	}
	s := Share{
		Index:       int(payload[0]),
		Threshold:   int(payload[1]),
		TotalShares: int(payload[2]),
		Value:       payload[shareHeaderLen:],
	}
	if err := s.Validate(); err != nil {
		return Share{}, err
	}
	return s, nil
}
