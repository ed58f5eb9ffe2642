// Package avatar remembers which gallery picture each user chose, keyed by username.
package avatar

import (
	"context"
	"errors"
	"fmt"

	"github.com/jrsteele09/go-counterparty-client/kvstore"
)

const bucket = "user-picture-id"

// Mapping is a durable username -> picture id mapping.
// A username without an entry has no picture; clearing a picture deletes the entry.
type Mapping struct {
	store kvstore.Store
}

func New(store kvstore.Store) (*Mapping, error) {
	if store == nil {
		return nil, errors.New("[avatar New] store is required")
	}
	return &Mapping{store: store}, nil
}

// Get returns the picture id stored for username. ok is false when none is stored.
func (m *Mapping) Get(ctx context.Context, username string) (id int, ok bool, err error) {
	if username == "" {
		return 0, false, nil
	}
	if err := kvstore.GetJSON(ctx, m.store, bucket, username, &id); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("[avatar Get] %w", err)
	}
	return id, true, nil
}

// Set stores id for username, or removes the entry when id is nil.
func (m *Mapping) Set(ctx context.Context, username string, id *int) error {
	if username == "" {
		return nil
	}
	if id == nil {
		if err := m.store.Delete(ctx, bucket, username); err != nil {
			return fmt.Errorf("[avatar Set] %w", err)
		}
		return nil
	}
	if err := kvstore.SetJSON(ctx, m.store, bucket, username, *id); err != nil {
		return fmt.Errorf("[avatar Set] %w", err)
	}
	return nil
}
