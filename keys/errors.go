package keys

import "errors"

var (
	// ErrNoKey indicates no decryption key is resident in memory.
	ErrNoKey = errors.New("no key held")
	// ErrInvalidKeySize indicates key material of the wrong length.
	ErrInvalidKeySize = errors.New("invalid key size")
	// ErrInvalidPin indicates the PIN could not open the protected key.
	ErrInvalidPin = errors.New("invalid pin")
)
