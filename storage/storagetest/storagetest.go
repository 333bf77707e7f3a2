// Package storagetest provides a conformance suite for storage.Store implementations.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/ironlock/storage"
)

// Run runs the common suite against any Store implementation.
func Run(t *testing.T, s storage.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("SaveAndGet", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, "k1", []byte("v1")))
		got, err := s.Get(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := s.Get(ctx, "no-such-key")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, "k2", []byte("first")))
		require.NoError(t, s.Save(ctx, "k2", []byte("second")))
		got, err := s.Get(ctx, "k2")
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), got)
	})

	t.Run("Remove", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, "k3", []byte("v3")))
		require.NoError(t, s.Remove(ctx, "k3"))
		_, err := s.Get(ctx, "k3")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("RemoveMissing", func(t *testing.T) {
		require.NoError(t, s.Remove(ctx, "never-existed"))
	})

	t.Run("Isolation", func(t *testing.T) {
		value := []byte("abc")
		require.NoError(t, s.Save(ctx, "k4", value))
		value[0] = 'X'
		got, err := s.Get(ctx, "k4")
		require.NoError(t, err)
		assert.Equal(t, byte('a'), got[0])

		got[1] = 'Y'
		again, err := s.Get(ctx, "k4")
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), again)
	})

	t.Run("EmptyKey", func(t *testing.T) {
		_, err := s.Get(ctx, "")
		assert.ErrorIs(t, err, storage.ErrEmptyKey)
		assert.ErrorIs(t, s.Save(ctx, "", []byte("x")), storage.ErrEmptyKey)
		assert.ErrorIs(t, s.Remove(ctx, ""), storage.ErrEmptyKey)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.Get(cctx, "k1")
		assert.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, s.Save(cctx, "k1", []byte("x")), context.Canceled)
	})

	t.Run("IntValues", func(t *testing.T) {
		_, ok, err := storage.GetInt(ctx, s, storage.KeyLockOption)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, storage.SaveInt(ctx, s, storage.KeyLockOption, -1))
		v, ok, err := storage.GetInt(ctx, s, storage.KeyLockOption)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(-1), v)
	})
}
