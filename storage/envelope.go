package storage

import (
	"errors"
	"fmt"

	"github.com/jmcleod/ironlock/internal/util"
)

const (
	envelopeVer    = 1
	envelopeScheme = "aes256gcm"
	gcmNonceSize   = 12
)

// ErrMalformedEnvelope is returned when a stored envelope cannot be opened
// because its fields are inconsistent.
var ErrMalformedEnvelope = errors.New("storage: malformed envelope")

// Envelope is a sealed value. The PIN-protected key is stored as one.
type Envelope struct {
	Ver        int    `json:"ver"`
	Scheme     string `json:"scheme"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
	// Salt is set when the sealing key was derived from a low-entropy secret.
	Salt []byte `json:"salt,omitempty"`
}

// SealRecord encrypts plaintext under key, binding aad.
func SealRecord(key, plaintext, aad []byte) (*Envelope, error) {
	sealed, err := util.EncryptAESWithAAD(plaintext, key, aad)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		Ver:        envelopeVer,
		Scheme:     envelopeScheme,
		Nonce:      sealed[:gcmNonceSize],
		Ciphertext: sealed[gcmNonceSize:],
	}, nil
}

// OpenRecord decrypts env with key. aad must match the value used to seal it.
func OpenRecord(key []byte, env *Envelope, aad []byte) ([]byte, error) {
	switch {
	case env == nil:
		return nil, ErrMalformedEnvelope
	case env.Ver != envelopeVer:
		return nil, fmt.Errorf("unsupported envelope version: %d", env.Ver)
	case env.Scheme != envelopeScheme:
		return nil, fmt.Errorf("unsupported envelope scheme: %s", env.Scheme)
	case len(env.Nonce) != gcmNonceSize:
		return nil, fmt.Errorf("%w: nonce is %d bytes", ErrMalformedEnvelope, len(env.Nonce))
	}
	sealed := make([]byte, 0, len(env.Nonce)+len(env.Ciphertext))
	sealed = append(sealed, env.Nonce...)
	sealed = append(sealed, env.Ciphertext...)
	return util.DecryptAESWithAAD(sealed, key, aad)
}
