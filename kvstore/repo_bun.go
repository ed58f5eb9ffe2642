package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

var _ Store = (*BunStore)(nil)

// EntryModel is the Bun model for a key-value entry.
type EntryModel struct {
	bun.BaseModel `bun:"table:kv_entries"`

	Bucket    string    `bun:"bucket,pk"`
	EntryKey  string    `bun:"entry_key,pk"`
	Value     []byte    `bun:"value"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// BunStore persists entries in a sqlite database through Bun.
type BunStore struct {
	db *bun.DB
}

// Open opens (creating when needed) the sqlite database at path and ensures the schema.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*BunStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("[kvstore Open] failed to create data folder: %w", err)
		}
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, fmt.Errorf("[kvstore Open] failed to open %s: %w", path, err)
	}
	// sqlite allows one writer; a single connection also keeps ":memory:" databases alive
	sqldb.SetMaxOpenConns(1)

	store := NewBunStore(bun.NewDB(sqldb, sqlitedialect.New()))
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// NewBunStore wraps an existing Bun database. Call Migrate before first use.
func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{db: db}
}

// Migrate creates the entries table if it does not exist.
func (s *BunStore) Migrate(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*EntryModel)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("[kvstore Migrate] failed to create kv_entries: %w", err)
	}
	return nil
}

func (s *BunStore) Close() error {
	return s.db.Close()
}

func (s *BunStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := validateKey(bucket, key); err != nil {
		return nil, err
	}

	var model EntryModel
	err := s.db.NewSelect().
		Model(&model).
		Where("bucket = ? AND entry_key = ?", bucket, key).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("[kvstore Get] %s/%s: %w", bucket, key, err)
	}
	return model.Value, nil
}

func (s *BunStore) Set(ctx context.Context, bucket, key string, value []byte) error {
	if err := validateKey(bucket, key); err != nil {
		return err
	}

	model := &EntryModel{
		Bucket:    bucket,
		EntryKey:  key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.db.NewInsert().
		Model(model).
		On("CONFLICT (bucket, entry_key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("[kvstore Set] %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *BunStore) Delete(ctx context.Context, bucket, key string) error {
	if err := validateKey(bucket, key); err != nil {
		return err
	}

	_, err := s.db.NewDelete().
		Model((*EntryModel)(nil)).
		Where("bucket = ? AND entry_key = ?", bucket, key).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("[kvstore Delete] %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *BunStore) Keys(ctx context.Context, bucket string) ([]string, error) {
	keys := make([]string, 0)
	err := s.db.NewSelect().
		Model((*EntryModel)(nil)).
		Column("entry_key").
		Where("bucket = ?", bucket).
		Order("entry_key ASC").
		Scan(ctx, &keys)
	if err != nil {
		return nil, fmt.Errorf("[kvstore Keys] %s: %w", bucket, err)
	}
	return keys, nil
}
