package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testParams = Argon2idParams{Time: 1, MemoryKiB: 8 * 1024, Parallelism: 1, KeyLen: AESKeySize}

func TestAESRoundTrip(t *testing.T) {
	key, err := RandomBytes(AESKeySize)
	require.NoError(t, err)
	require.Len(t, key, AESKeySize)

	sealed, err := EncryptAESWithAAD([]byte("secret"), key, []byte("aad"))
	require.NoError(t, err)

	plain, err := DecryptAESWithAAD(sealed, key, []byte("aad"))
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), plain)

	_, err = DecryptAESWithAAD(sealed, key, []byte("other"))
	assert.Error(t, err, "mismatched AAD must fail")

	_, err = DecryptAESWithAAD(sealed[:4], key, []byte("aad"))
	assert.ErrorIs(t, err, errShortCiphertext)
}

func TestAESFreshNonce(t *testing.T) {
	key, err := RandomBytes(AESKeySize)
	require.NoError(t, err)
	a, err := EncryptAESWithAAD([]byte("x"), key, nil)
	require.NoError(t, err)
	b, err := EncryptAESWithAAD([]byte("x"), key, nil)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestAESRejectsBadKeySize(t *testing.T) {
	_, err := EncryptAESWithAAD([]byte("x"), make([]byte, 16), nil)
	assert.Error(t, err)
	_, err = DecryptAESWithAAD(make([]byte, 64), make([]byte, 16), nil)
	assert.Error(t, err)
}

func TestDeriveArgon2idKey(t *testing.T) {
	salt := []byte("0123456789abcdef")

	a, err := DeriveArgon2idKey("1234", salt, testParams)
	require.NoError(t, err)
	b, err := DeriveArgon2idKey("1234", salt, testParams)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, AESKeySize)

	c, err := DeriveArgon2idKey("1235", salt, testParams)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	_, err = DeriveArgon2idKey("1234", nil, testParams)
	assert.Error(t, err)

	bad := testParams
	bad.KeyLen = 16
	_, err = DeriveArgon2idKey("1234", salt, bad)
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	// Fullwidth digits decompose to ASCII under NFKD.
	assert.Equal(t, "1234", Normalize("１２３４"))
	assert.Equal(t, Normalize("\u00e9"), Normalize("e\u0301"))
}

func TestCopyAndWipeBytes(t *testing.T) {
	src := []byte{1, 2, 3}
	dst := CopyBytes(src)
	assert.Equal(t, src, dst)
	dst[0] = 9
	assert.Equal(t, byte(1), src[0])
	assert.Nil(t, CopyBytes(nil))

	WipeBytes(src)
	assert.Equal(t, []byte{0, 0, 0}, src)
}
