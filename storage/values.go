package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// GetInt reads a JSON-encoded integer stored under key. The boolean result
// is false when nothing is stored; that case is not an error.
func GetInt(ctx context.Context, s Store, key string) (int64, bool, error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return 0, false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return v, true, nil
}

// SaveInt stores v under key as JSON.
func SaveInt(ctx context.Context, s Store, key string, v int64) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Save(ctx, key, data)
}

// GetEnvelope reads a JSON-encoded Envelope stored under key.
// A nil envelope with a nil error means nothing is stored.
func GetEnvelope(ctx context.Context, s Store, key string) (*Envelope, error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	return &env, nil
}

// SaveEnvelope stores env under key as JSON.
func SaveEnvelope(ctx context.Context, s Store, key string, env *Envelope) error {
	if env == nil {
		return fmt.Errorf("envelope must not be nil")
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return s.Save(ctx, key, data)
}
