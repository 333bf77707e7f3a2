// Package bbolt provides a BBolt-backed storage.Store.
package bbolt

import (
	"context"
	"fmt"

	"github.com/jmcleod/ironlock/internal/util"
	"github.com/jmcleod/ironlock/storage"
	"go.etcd.io/bbolt"
)

var defaultBucket = []byte("ironlock")

// Store implements storage.Store backed by a BBolt database.
// All keys live in a single bucket.
type Store struct {
	db     *bbolt.DB
	bucket []byte
}

var _ storage.Store = (*Store)(nil)

// NewStore returns a Store backed by the given BBolt database.
func NewStore(db *bbolt.DB) (*Store, error) {
	s := &Store{db: db, bucket: defaultBucket}
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating bucket: %w", err)
	}
	return s, nil
}

// NewStoreFromFile opens a BBolt database at the given path and returns a new Store.
func NewStoreFromFile(path string, options *bbolt.Options) (*Store, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	s, err := NewStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying BBolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if key == "" {
		return nil, storage.ErrEmptyKey
	}
	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(s.bucket).Get([]byte(key))
		if data == nil {
			return fmt.Errorf("%s: %w", key, storage.ErrNotFound)
		}
		// bbolt values are only valid for the life of the transaction.
		value = util.CopyBytes(data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *Store) Save(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return storage.ErrEmptyKey
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), value)
	})
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return storage.ErrEmptyKey
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		// Delete on a missing key is a no-op in bbolt.
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
}
