// Package shamir implements threshold secret sharing over GF(2^8).
//
// A secret is split into N shares such that any K of them reconstruct it,
// while K-1 or fewer reveal nothing about the secret beyond its length.
// Each byte of the secret is the constant term of an independent random
// polynomial of degree K-1; share i holds the polynomial evaluations at
// x=i. Shares carry their scheme parameters so Combine can reject
// incompatible sets.
//
// The package is pure and stateless: Split and Combine take no locks and
// are safe for concurrent use.
package shamir

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// MaxShares is the largest supported number of participants.
const MaxShares = 251

var (
	// ErrInvalidThreshold is returned when threshold is below 1 or
	// exceeds the total number of shares.
	ErrInvalidThreshold = errors.New("threshold cannot exceed total shares")

	// ErrTooManyShares is returned when more than MaxShares shares are
	// requested.
	ErrTooManyShares = fmt.Errorf("maximum %d shares", MaxShares)

	// ErrNoShares is returned by Combine on empty input.
	ErrNoShares = errors.New("no shares provided")

	// ErrThresholdMismatch is returned by Combine when the supplied
	// shares disagree on the scheme threshold.
	ErrThresholdMismatch = errors.New("shares disagree on threshold")

	// ErrInsufficientShares is returned by Combine when fewer distinct
	// shares than the declared threshold are supplied.
	ErrInsufficientShares = errors.New("not enough shares")

	// ErrShareLengthMismatch is returned by Combine when shares have
	// different value lengths and cannot come from one split.
	ErrShareLengthMismatch = errors.New("shares have mismatched lengths")

	// ErrBadShare is returned when a share fails the validity predicate.
	ErrBadShare = errors.New("malformed share")
)

// Share is one fragment of a split secret. Index is the x-coordinate the
// splitting polynomials were evaluated at; Value holds one byte per byte
// of the original secret. Shares are immutable once generated.
type Share struct {
	Index       int    `json:"index"`
	Threshold   int    `json:"threshold"`
	TotalShares int    `json:"total_shares"`
	Value       []byte `json:"value"`
}

// Validate reports whether the share is structurally valid: consistent
// scheme parameters, an index inside [1, TotalShares], and a non-empty
// value.
func (s Share) Validate() error {
	if s.Threshold < 1 || s.Threshold > s.TotalShares {
		return ErrBadShare
	}
	if s.TotalShares > MaxShares {
		return ErrBadShare
	}
	if s.Index < 1 || s.Index > s.TotalShares {
		return ErrBadShare
	}
	if len(s.Value) == 0 {
		return ErrBadShare
	}
	return nil
}

// Split splits secret into totalShares shares, any threshold of which
// reconstruct it. Polynomial coefficients are drawn fresh from
// crypto/rand on every call, so two splits of the same secret produce
// unrelated share sets.
func Split(secret []byte, totalShares, threshold int) ([]Share, error) {
	if len(secret) == 0 {
		return nil, errors.New("cannot split an empty secret")
	}
	if totalShares > MaxShares {
		return nil, ErrTooManyShares
	}
	if threshold < 1 || threshold > totalShares {
		return nil, ErrInvalidThreshold
	}

	shares := make([]Share, totalShares)
	for i := range shares {
		shares[i] = Share{
			Index:       i + 1,
			Threshold:   threshold,
			TotalShares: totalShares,
			Value:       make([]byte, len(secret)),
		}
	}

	coefficients := make([]byte, threshold)
	for pos, secretByte := range secret {
		// One independent polynomial per secret byte, constant term the
		// secret byte itself, higher coefficients uniformly random.
		coefficients[0] = secretByte
		if _, err := rand.Read(coefficients[1:]); err != nil {
			return nil, fmt.Errorf("failed to draw polynomial coefficients: %w", err)
		}
		for i := range shares {
			shares[i].Value[pos] = evalPolynomial(coefficients, byte(i+1))
		}
	}
	wipe(coefficients)

	return shares, nil
}

// Combine reconstructs a secret from shares. Shares with duplicate
// indices count once; the distinct shares must meet the threshold the
// shares themselves declare.
//
// Combine cannot detect shares that are validly shaped but originate
// from different splits: such input reconstructs deterministic garbage.
func Combine(shares []Share) ([]byte, error) {
	if len(shares) == 0 {
		return nil, ErrNoShares
	}

	threshold := shares[0].Threshold
	valueLen := len(shares[0].Value)
	distinct := make(map[int]Share, len(shares))
	for _, s := range shares {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if s.Threshold != threshold {
			return nil, ErrThresholdMismatch
		}
		if len(s.Value) != valueLen {
			return nil, ErrShareLengthMismatch
		}
		if _, seen := distinct[s.Index]; !seen {
			distinct[s.Index] = s
		}
	}

	if len(distinct) < threshold {
		return nil, ErrInsufficientShares
	}

	xs := make([]byte, 0, len(distinct))
	picked := make([]Share, 0, len(distinct))
	for idx, s := range distinct {
		xs = append(xs, byte(idx))
		picked = append(picked, s)
	}

	secret := make([]byte, valueLen)
	ys := make([]byte, len(picked))
	for pos := 0; pos < valueLen; pos++ {
		for i, s := range picked {
			ys[i] = s.Value[pos]
		}
		secret[pos] = interpolateAtZero(xs, ys)
	}

	return secret, nil
}

// wipe zeroes sensitive intermediate material.
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
