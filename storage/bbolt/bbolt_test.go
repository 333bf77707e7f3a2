package bbolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/jmcleod/ironlock/storage"
	"github.com/jmcleod/ironlock/storage/storagetest"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ironlock-test.db")
	s, err := NewStoreFromFile(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestBBoltStore(t *testing.T) {
	s, _ := newTestStore(t)
	storagetest.Run(t, s)
}

func TestBBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	s, err := NewStoreFromFile(path, nil)
	require.NoError(t, err)
	require.NoError(t, storage.SaveInt(ctx, s, storage.KeyLastActive, 1700000000000))
	require.NoError(t, s.Close())

	db, err := bbolt.Open(path, 0600, nil)
	require.NoError(t, err)
	s2, err := NewStore(db)
	require.NoError(t, err)
	defer s2.Close()

	v, ok, err := storage.GetInt(ctx, s2, storage.KeyLastActive)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1700000000000), v)
}
