// Package store provides the key/value storage shared by every endpoint.
// Values are opaque JSON blobs. Backends are interchangeable and selected once at startup.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Common errors for store operations.
var (
	// ErrNotFound indicates the key does not exist or has expired.
	ErrNotFound = errors.New("key not found")
	// ErrNotConfigured indicates the selected backend is missing its connection settings.
	ErrNotConfigured = errors.New("storage not configured")
	// ErrNoChange may be returned by an UpdateFunc to skip the write.
	ErrNoChange = errors.New("no change")
	// ErrConflict indicates an update kept losing to concurrent writers.
	ErrConflict = errors.New("concurrent update conflict")
)

// UpdateFunc receives the current value (nil when the key is missing) and returns
// the value to persist.
type UpdateFunc func(current []byte) ([]byte, error)

// Store is a key/value store for JSON documents.
type Store interface {
	// Get returns the value stored under key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A zero ttl means the key never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Take atomically reads and deletes key. Returns ErrNotFound if missing.
	Take(ctx context.Context, key string) ([]byte, error)

	// Update atomically applies fn to the value stored under key.
	// If fn returns ErrNoChange nothing is written and Update returns nil.
	// Any other error from fn is returned unchanged.
	Update(ctx context.Context, key string, fn UpdateFunc) error

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// GetJSON decodes the value stored under key into dst.
func GetJSON(ctx context.Context, s Store, key string, dst any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, data, ttl)
}

// UpdateJSON decodes the value under key into a T, lets fn mutate it and writes it back
// when fn reports a change. The returned T is the value fn last saw.
//
// fn may run more than once when the backend retries on contention.
func UpdateJSON[T any](ctx context.Context, s Store, key string, fn func(v *T) (bool, error)) (T, error) {
	var result T

	err := s.Update(ctx, key, func(current []byte) ([]byte, error) {
		var v T
		if len(current) > 0 {
			if err := json.Unmarshal(current, &v); err != nil {
				return nil, fmt.Errorf("decode %s: %w", key, err)
			}
		}

		changed, err := fn(&v)
		result = v
		if err != nil {
			return nil, err
		}
		if !changed {
			return nil, ErrNoChange
		}

		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		return data, nil
	})

	return result, err
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
