// Package seal implements the state machine that owns the master
// encryption key's lifecycle.
//
// A Service starts uninitialized. Initialize generates a fresh master
// key, splits it into shares with the shamir package, and hands the
// shares out exactly once; the key itself is immediately discarded and
// the vault remains sealed. Operators feed shares back through Unseal;
// when enough distinct shares accumulate the key is reconstructed and
// held only in memory until the next Seal, whether explicit or triggered
// by the inactivity auto-seal timer.
//
// The master key is never written to disk in any form. All mutating
// operations are serialized behind one mutex, and the auto-seal timer's
// firing takes that same mutex, so it cannot race a concurrent Seal or
// MasterKey call.
package seal

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/covault/covault/cryptoutils"
	"github.com/covault/covault/shamir"
)

// DefaultAutoSealAfter is the inactivity window after which an unsealed
// vault re-seals itself.
const DefaultAutoSealAfter = 15 * time.Minute

var (
	// ErrAlreadyInitialized is returned by Initialize on an initialized
	// vault.
	ErrAlreadyInitialized = errors.New("vault already initialized")

	// ErrNotInitialized is returned by Unseal before Initialize.
	ErrNotInitialized = errors.New("vault not initialized")

	// ErrSealed is returned by MasterKey while the vault is sealed.
	ErrSealed = errors.New("vault sealed")

	// ErrInvalidShare is returned by Unseal for shares that are
	// malformed or do not match the vault's scheme parameters.
	ErrInvalidShare = errors.New("invalid unseal share")
)

// Status is a read-only snapshot of the seal state. It never carries key
// or share material.
type Status struct {
	Initialized bool `json:"initialized"`
	Sealed      bool `json:"sealed"`
	Progress    int  `json:"progress"`
	Threshold   int  `json:"threshold"`
	TotalShares int  `json:"total_shares"`
}

// Config carries the service's construction parameters.
type Config struct {
	// AutoSealAfter is the inactivity window before an unsealed vault
	// re-seals. Zero means DefaultAutoSealAfter; negative disables
	// auto-seal.
	AutoSealAfter time.Duration

	// OnAutoSeal, when non-nil, is invoked after an inactivity-triggered
	// seal. It runs on the timer goroutine and must not call back into
	// the service.
	OnAutoSeal func()

	Log *slog.Logger
}

// Service owns the mutable seal state for one process. All exported
// methods are safe for concurrent use.
type Service struct {
	mu  sync.Mutex
	log *slog.Logger

	autoSealAfter time.Duration
	onAutoSeal    func()

	initialized bool
	sealed      bool
	threshold   int
	totalShares int

	// progress holds the shares submitted in the current unseal attempt,
	// keyed by share index so duplicate submissions are idempotent.
	progress map[int]shamir.Share

	// masterKey is non-nil iff sealed is false.
	masterKey []byte

	// timer is the pending auto-seal timer; epoch invalidates stale
	// firings after the timer has been rearmed or cancelled.
	timer *time.Timer
	epoch uint64
}

// New creates an uninitialized, sealed Service.
func New(cfg Config) *Service {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	window := cfg.AutoSealAfter
	if window == 0 {
		window = DefaultAutoSealAfter
	}
	return &Service{
		log:           log,
		autoSealAfter: window,
		onAutoSeal:    cfg.OnAutoSeal,
		sealed:        true,
		progress:      make(map[int]shamir.Share),
	}
}

// NewRecovered creates a Service that is already initialized with the
// given scheme parameters but holds no key. It is used after a process
// restart when the surrounding system persisted the vault topology: the
// vault comes back sealed and must be unsealed with the original shares.
func NewRecovered(cfg Config, totalShares, threshold int) (*Service, error) {
	if totalShares > shamir.MaxShares {
		return nil, shamir.ErrTooManyShares
	}
	if threshold < 1 || threshold > totalShares {
		return nil, shamir.ErrInvalidThreshold
	}
	s := New(cfg)
	s.initialized = true
	s.threshold = threshold
	s.totalShares = totalShares
	return s, nil
}

// Initialize generates a fresh master key, splits it into totalShares
// shares with the given threshold, and returns the shares. This is the
// only time shares ever leave the service; the generated key is wiped
// before returning and the vault stays sealed until unsealed.
func (s *Service) Initialize(totalShares, threshold int) ([]shamir.Share, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil, ErrAlreadyInitialized
	}

	masterKey, err := cryptoutils.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}
	defer wipeBytes(masterKey)

	shares, err := shamir.Split(masterKey, totalShares, threshold)
	if err != nil {
		return nil, err
	}

	s.initialized = true
	s.sealed = true
	s.threshold = threshold
	s.totalShares = totalShares
	s.progress = make(map[int]shamir.Share)

	s.log.Info("Vault initialized",
		slog.Int("threshold", threshold),
		slog.Int("totalShares", totalShares))

	return shares, nil
}

// Unseal submits one share toward reconstructing the master key.
// Submitting the same share index twice does not advance progress. When
// the distinct shares reach the threshold the key is reconstructed, the
// vault unseals, and progress resets. Unseal on an already unsealed
// vault is a no-op returning the current status.
func (s *Service) Unseal(share shamir.Share) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return s.statusLocked(), ErrNotInitialized
	}
	if !s.sealed {
		return s.statusLocked(), nil
	}

	if err := share.Validate(); err != nil {
		return s.statusLocked(), ErrInvalidShare
	}
	if share.Threshold != s.threshold || share.TotalShares != s.totalShares {
		return s.statusLocked(), ErrInvalidShare
	}

	if _, seen := s.progress[share.Index]; !seen {
		// Keep a private copy of the share value: progress is wiped after
		// reconstruction, and that must never touch the caller's bytes.
		stored := share
		stored.Value = make([]byte, len(share.Value))
		copy(stored.Value, share.Value)
		s.progress[share.Index] = stored
	}

	if len(s.progress) < s.threshold {
		s.log.Info("Unseal progress",
			slog.Int("progress", len(s.progress)),
			slog.Int("threshold", s.threshold))
		return s.statusLocked(), nil
	}

	shares := make([]shamir.Share, 0, len(s.progress))
	for _, sh := range s.progress {
		shares = append(shares, sh)
	}

	masterKey, err := shamir.Combine(shares)
	if err != nil {
		// Shares were individually validated, so interpolation failure
		// is an internal fault, not an operator mistake.
		for i := range s.progress {
			wipeBytes(s.progress[i].Value)
		}
		s.progress = make(map[int]shamir.Share)
		return s.statusLocked(), fmt.Errorf("failed to reconstruct master key: %w", err)
	}

	s.masterKey = masterKey
	s.sealed = false
	for i := range s.progress {
		wipeBytes(s.progress[i].Value)
	}
	s.progress = make(map[int]shamir.Share)
	s.armTimerLocked()

	s.log.Info("Vault unsealed")
	return s.statusLocked(), nil
}

// Seal drops the master key from memory and cancels the auto-seal
// timer. Sealing a sealed vault is a no-op.
func (s *Service) Seal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sealLocked("manual")
}

// MasterKey returns a copy of the master key and resets the auto-seal
// inactivity clock. It fails with ErrSealed while the vault is sealed.
func (s *Service) MasterKey() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealed {
		return nil, ErrSealed
	}

	// Reset the clock before the key leaves the lock, so an access can
	// never be outrun by the timer it should have postponed.
	s.armTimerLocked()

	key := make([]byte, len(s.masterKey))
	copy(key, s.masterKey)
	return key, nil
}

// Status returns a snapshot of the current seal state.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// Close seals the vault. It is intended for process shutdown paths so
// key material does not linger in memory longer than necessary.
func (s *Service) Close() {
	s.Seal()
}

func (s *Service) statusLocked() Status {
	return Status{
		Initialized: s.initialized,
		Sealed:      s.sealed,
		Progress:    len(s.progress),
		Threshold:   s.threshold,
		TotalShares: s.totalShares,
	}
}

// sealLocked performs the transition to sealed. Callers hold s.mu.
func (s *Service) sealLocked(reason string) {
	s.epoch++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	for i := range s.progress {
		wipeBytes(s.progress[i].Value)
	}
	s.progress = make(map[int]shamir.Share)
	if s.sealed {
		return
	}
	wipeBytes(s.masterKey)
	s.masterKey = nil
	s.sealed = true
	s.log.Info("Vault sealed", slog.String("reason", reason))
}

// armTimerLocked (re)starts the auto-seal countdown. Callers hold s.mu.
func (s *Service) armTimerLocked() {
	s.epoch++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.autoSealAfter < 0 {
		return
	}

	epoch := s.epoch
	s.timer = time.AfterFunc(s.autoSealAfter, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		// A stale epoch means the timer was rearmed or the vault sealed
		// after this firing was scheduled.
		if s.epoch != epoch || s.sealed {
			return
		}
		s.sealLocked("inactivity")
		if s.onAutoSeal != nil {
			s.onAutoSeal()
		}
	})
}

// wipeBytes zeroes sensitive material in place.
func wipeBytes(data []byte) {
	for i := range data {
		data[i] = 0
	}
}
