package storage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/ironlock/internal/util"
)

func TestEnvelope(t *testing.T) {
	key, err := util.RandomBytes(util.AESKeySize)
	require.NoError(t, err)
	aad := []byte("ironlock:test")

	env, err := SealRecord(key, []byte("resident key"), aad)
	require.NoError(t, err)
	assert.Equal(t, 1, env.Ver)
	assert.Equal(t, "aes256gcm", env.Scheme)
	assert.Len(t, env.Nonce, 12)

	plain, err := OpenRecord(key, env, aad)
	require.NoError(t, err)
	assert.Equal(t, []byte("resident key"), plain)

	t.Run("WrongAAD", func(t *testing.T) {
		_, err := OpenRecord(key, env, []byte("ironlock:other"))
		assert.Error(t, err)
	})

	t.Run("WrongKey", func(t *testing.T) {
		other, err := util.RandomBytes(util.AESKeySize)
		require.NoError(t, err)
		_, err = OpenRecord(other, env, aad)
		assert.Error(t, err)
	})

	t.Run("UnsupportedVersion", func(t *testing.T) {
		bad := *env
		bad.Ver = 2
		_, err := OpenRecord(key, &bad, aad)
		assert.ErrorContains(t, err, "unsupported envelope version")
	})

	t.Run("UnsupportedScheme", func(t *testing.T) {
		bad := *env
		bad.Scheme = "chacha20"
		_, err := OpenRecord(key, &bad, aad)
		assert.ErrorContains(t, err, "unsupported envelope scheme")
	})

	t.Run("TruncatedNonce", func(t *testing.T) {
		bad := *env
		bad.Nonce = bad.Nonce[:4]
		_, err := OpenRecord(key, &bad, aad)
		assert.ErrorIs(t, err, ErrMalformedEnvelope)
	})

	t.Run("Nil", func(t *testing.T) {
		_, err := OpenRecord(key, nil, aad)
		assert.ErrorIs(t, err, ErrMalformedEnvelope)
	})
}

func TestEnvelopeSaltSurvivesJSON(t *testing.T) {
	key, err := util.RandomBytes(util.AESKeySize)
	require.NoError(t, err)
	env, err := SealRecord(key, []byte("x"), nil)
	require.NoError(t, err)

	data, err := json.Marshal(env)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"salt"`, "salt is omitted when unset")

	env.Salt = []byte("0123456789abcdef")
	data, err = json.Marshal(env)
	require.NoError(t, err)
	var got Envelope
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, env.Salt, got.Salt)
}
