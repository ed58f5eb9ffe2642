package kvstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/go-counterparty-client/internal/errors"
)

// ErrNotFound is returned by Get when no entry exists for the key.
var ErrNotFound = errors.ErrNotFound

// Store is a durable mapping of (bucket, key) to an opaque value.
// Writes are last-write-wins; there are no transactions across keys.
type Store interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Set(ctx context.Context, bucket, key string, value []byte) error
	// Delete removes the key entirely. Deleting an absent key is not an error.
	Delete(ctx context.Context, bucket, key string) error
	// Keys lists the keys of a bucket in ascending order.
	Keys(ctx context.Context, bucket string) ([]string, error)
}

// GetJSON decodes the entry at bucket/key into v.
func GetJSON(ctx context.Context, s Store, bucket, key string, v any) error {
	raw, err := s.Get(ctx, bucket, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("[kvstore GetJSON] %s/%s: %w", bucket, key, err)
	}
	return nil
}

// SetJSON encodes v and stores it at bucket/key.
func SetJSON(ctx context.Context, s Store, bucket, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("[kvstore SetJSON] %s/%s: %w", bucket, key, err)
	}
	return s.Set(ctx, bucket, key, raw)
}

func validateKey(bucket, key string) error {
	if bucket == "" {
		return errors.Wrapf(errors.ErrInvalidKey, "bucket is required")
	}
	if key == "" {
		return errors.Wrapf(errors.ErrInvalidKey, "key is required")
	}
	return nil
}
