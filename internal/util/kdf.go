package util

import (
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/text/unicode/norm"
)

// Argon2idParams are the cost parameters for PIN key derivation.
type Argon2idParams struct {
	Time        uint32 `json:"time"`
	MemoryKiB   uint32 `json:"memory"`
	Parallelism uint8  `json:"parallelism"`
	KeyLen      uint32 `json:"key_len"`
}

func DefaultArgon2idParams() Argon2idParams {
	return Argon2idParams{
		Time:        1,
		MemoryKiB:   64 * 1024,
		Parallelism: 4,
		KeyLen:      AESKeySize,
	}
}

// DeriveArgon2idKey derives an AES-256 key from secret and salt.
func DeriveArgon2idKey(secret string, salt []byte, params Argon2idParams) ([]byte, error) {
	if params.KeyLen != AESKeySize {
		return nil, fmt.Errorf("argon2id key length must be %d bytes, got %d", AESKeySize, params.KeyLen)
	}
	if len(salt) == 0 {
		return nil, fmt.Errorf("argon2id salt is empty")
	}
	return argon2.IDKey([]byte(secret), salt, params.Time, params.MemoryKiB, params.Parallelism, params.KeyLen), nil
}

// Normalize returns the NFKD form of s so that visually identical PINs
// typed on different keyboards derive the same key.
func Normalize(s string) string {
	return norm.NFKD.String(s)
}
