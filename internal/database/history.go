package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"qrdine-backend/internal/models"
)

// HistoryKey is the kv_store key holding the served-order history.
const HistoryKey = "waiterHistory"

// HistoryStore keeps the whole served history as one JSON document.
type HistoryStore struct {
	kv  *KVStore
	key string
}

func NewHistoryStore(kv *KVStore) *HistoryStore {
	return &HistoryStore{kv: kv, key: HistoryKey}
}

// Load returns the stored history. A missing key yields an empty history.
func (h *HistoryStore) Load(ctx context.Context) ([]models.HistoryEntry, error) {
	raw, err := h.kv.Get(ctx, h.key)
	if errors.Is(err, ErrKeyNotFound) {
		return []models.HistoryEntry{}, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []models.HistoryEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return entries, nil
}

// Save overwrites the stored history with entries.
func (h *HistoryStore) Save(ctx context.Context, entries []models.HistoryEntry) error {
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	return h.kv.Set(ctx, h.key, string(raw))
}
