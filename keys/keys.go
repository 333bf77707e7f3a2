// Package keys manages the client's in-memory decryption key.
//
// The key is held in a memguard Enclave (encrypted at rest in memory) and is
// only decrypted into a LockedBuffer for the duration of an operation. A
// Service without a key is considered locked.
package keys

import (
	"context"
	"fmt"
	"sync"

	"github.com/awnumar/memguard"

	"github.com/jmcleod/ironlock/internal/util"
	"github.com/jmcleod/ironlock/storage"
)

const pinSaltLen = 16

var pinAAD = []byte("ironlock:pin_protected_key:v1")

// Option configures a Service.
type Option func(*Service)

// WithArgon2idParams sets the KDF parameters used to derive PIN keys.
func WithArgon2idParams(params util.Argon2idParams) Option {
	return func(s *Service) {
		s.params = params
	}
}

// Service holds the decryption key for an unlocked client.
type Service struct {
	mu         sync.RWMutex
	key        *memguard.Enclave
	generation uint64
	params     util.Argon2idParams
}

// NewService returns a Service with no key resident.
func NewService(opts ...Option) *Service {
	s := &Service{params: util.DefaultArgon2idParams()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetKey moves raw into a fresh enclave. raw is wiped.
func (s *Service) SetKey(raw []byte) error {
	if len(raw) != util.AESKeySize {
		util.WipeBytes(raw)
		return fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(raw), util.AESKeySize)
	}
	enclave := memguard.NewEnclave(raw)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = enclave
	s.generation++
	return nil
}

// GenerateKey replaces the resident key with a random one.
func (s *Service) GenerateKey() {
	enclave := memguard.NewEnclaveRandom(util.AESKeySize)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = enclave
	s.generation++
}

// HasKey reports whether a key is resident.
func (s *Service) HasKey(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key != nil, nil
}

// RotateKey re-seals the resident key material into a new enclave. The old
// enclave is dropped, so any copy taken before rotation no longer matches
// the service's generation. With no key resident it does nothing.
func (s *Service) RotateKey(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key == nil {
		return nil
	}
	buf, err := s.key.Open()
	if err != nil {
		return fmt.Errorf("opening key enclave: %w", err)
	}
	// Seal destroys buf.
	enclave, err := buf.Seal()
	if err != nil {
		return fmt.Errorf("sealing key enclave: %w", err)
	}
	s.key = enclave
	s.generation++
	return nil
}

// Lock drops the resident key.
func (s *Service) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = nil
}

// Generation increments every time the resident key is replaced or rotated.
func (s *Service) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// ProtectWithPin seals the resident key under a key derived from pin.
func (s *Service) ProtectWithPin(ctx context.Context, pin string) (*storage.Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if pin == "" {
		return nil, fmt.Errorf("%w: pin must not be empty", ErrInvalidPin)
	}

	s.mu.RLock()
	enclave := s.key
	s.mu.RUnlock()
	if enclave == nil {
		return nil, ErrNoKey
	}

	salt, err := util.RandomBytes(pinSaltLen)
	if err != nil {
		return nil, err
	}
	pinKey, err := util.DeriveArgon2idKey(util.Normalize(pin), salt, s.params)
	if err != nil {
		return nil, err
	}
	defer util.WipeBytes(pinKey)

	buf, err := enclave.Open()
	if err != nil {
		return nil, fmt.Errorf("opening key enclave: %w", err)
	}
	defer buf.Destroy()

	env, err := storage.SealRecord(pinKey, buf.Bytes(), pinAAD)
	if err != nil {
		return nil, err
	}
	env.Salt = salt
	return env, nil
}

// UnlockWithPin opens a PIN-protected envelope and makes its key resident.
func (s *Service) UnlockWithPin(ctx context.Context, env *storage.Envelope, pin string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if env == nil || len(env.Salt) == 0 {
		return fmt.Errorf("%w: no protected key", ErrInvalidPin)
	}
	pinKey, err := util.DeriveArgon2idKey(util.Normalize(pin), env.Salt, s.params)
	if err != nil {
		return err
	}
	defer util.WipeBytes(pinKey)

	raw, err := storage.OpenRecord(pinKey, env, pinAAD)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPin, err)
	}
	return s.SetKey(raw)
}
