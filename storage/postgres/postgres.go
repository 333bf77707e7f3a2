// Package postgres implements storage.Store backed by PostgreSQL.
//
// Values live in a single table keyed by (namespace, key). The namespace
// lets several clients share one database without seeing each other's
// preferences; it defaults to DefaultNamespace.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jmcleod/ironlock/storage"
)

// DefaultNamespace is used when no namespace is given.
const DefaultNamespace = "default"

// Store implements storage.Store backed by PostgreSQL.
type Store struct {
	pool      *pgxpool.Pool
	namespace string
}

var _ storage.Store = (*Store)(nil)

// NewStore returns a Store using pool. An empty namespace selects
// DefaultNamespace.
func NewStore(pool *pgxpool.Pool, namespace string) *Store {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Store{pool: pool, namespace: namespace}
}

// NewStoreFromDSN connects to dsn, ensures the schema exists and returns a
// Store that owns the pool.
func NewStoreFromDSN(ctx context.Context, dsn, namespace string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return NewStore(pool, namespace), nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, storage.ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var value []byte
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM ironlock_values WHERE namespace = $1 AND key = $2`,
		s.namespace, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", key, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *Store) Save(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return storage.ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO ironlock_values (namespace, key, value, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (namespace, key)
		 DO UPDATE SET value = $3, updated_at = now()`,
		s.namespace, key, value)
	return err
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if key == "" {
		return storage.ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`DELETE FROM ironlock_values WHERE namespace = $1 AND key = $2`,
		s.namespace, key)
	return err
}
