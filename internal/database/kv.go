package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrKeyNotFound is returned by KVStore.Get for a key that was never set.
var ErrKeyNotFound = errors.New("key not found")

// KVStore is a durable string key-value store backed by the kv_store table.
type KVStore struct {
	db *sqlx.DB
}

func NewKVStore(db *sqlx.DB) *KVStore {
	return &KVStore{db: db}
}

func (s *KVStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, s.db.Rebind(`SELECT kv_value FROM kv_store WHERE kv_key = ?`), key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

// Set overwrites the value stored under key.
func (s *KVStore) Set(ctx context.Context, key, value string) error {
	query := s.db.Rebind(`
		INSERT INTO kv_store (kv_key, kv_value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (kv_key) DO UPDATE SET kv_value = excluded.kv_value, updated_at = excluded.updated_at
	`)
	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().Unix()); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
