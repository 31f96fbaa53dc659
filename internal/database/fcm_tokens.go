package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// FCMTokenStore keeps the push tokens of waiter devices.
type FCMTokenStore struct {
	db *sqlx.DB
}

func NewFCMTokenStore(db *sqlx.DB) *FCMTokenStore {
	return &FCMTokenStore{db: db}
}

// Upsert registers token for waiterID. A token moving to another waiter
// (shared tablet) is reassigned.
func (s *FCMTokenStore) Upsert(ctx context.Context, waiterID, token, deviceType string) error {
	now := time.Now().Unix()
	query := s.db.Rebind(`
		INSERT INTO fcm_tokens (token, waiter_id, device_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (token) DO UPDATE SET
			waiter_id = excluded.waiter_id,
			device_type = excluded.device_type,
			updated_at = excluded.updated_at
	`)
	if _, err := s.db.ExecContext(ctx, query, token, waiterID, deviceType, now, now); err != nil {
		return fmt.Errorf("upsert fcm token: %w", err)
	}
	return nil
}

func (s *FCMTokenStore) Delete(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM fcm_tokens WHERE token = ?`), token); err != nil {
		return fmt.Errorf("delete fcm token: %w", err)
	}
	return nil
}

// Tokens returns every registered device token.
func (s *FCMTokenStore) Tokens(ctx context.Context) ([]string, error) {
	var tokens []string
	if err := s.db.SelectContext(ctx, &tokens, `SELECT token FROM fcm_tokens ORDER BY updated_at DESC`); err != nil {
		return nil, fmt.Errorf("list fcm tokens: %w", err)
	}
	return tokens, nil
}

func (s *FCMTokenStore) TokensForWaiter(ctx context.Context, waiterID string) ([]string, error) {
	var tokens []string
	query := s.db.Rebind(`SELECT token FROM fcm_tokens WHERE waiter_id = ? ORDER BY updated_at DESC`)
	if err := s.db.SelectContext(ctx, &tokens, query, waiterID); err != nil {
		return nil, fmt.Errorf("list fcm tokens: %w", err)
	}
	return tokens, nil
}
