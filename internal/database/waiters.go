package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"qrdine-backend/internal/models"
)

var (
	ErrWaiterNotFound = errors.New("waiter not found")
	ErrWaiterExists   = errors.New("waiter with this email already exists")
)

const waiterColumns = `id, email, password, name, phone, avatar, role, joined_at, created_at, updated_at`

func GetWaiterByEmail(ctx context.Context, db *sqlx.DB, email string) (*models.Waiter, error) {
	var w models.Waiter
	query := db.Rebind(`SELECT ` + waiterColumns + ` FROM waiters WHERE email = ?`)
	if err := db.GetContext(ctx, &w, query, strings.ToLower(strings.TrimSpace(email))); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWaiterNotFound
		}
		return nil, fmt.Errorf("get waiter by email: %w", err)
	}
	return &w, nil
}

func GetWaiterByID(ctx context.Context, db *sqlx.DB, id string) (*models.Waiter, error) {
	var w models.Waiter
	query := db.Rebind(`SELECT ` + waiterColumns + ` FROM waiters WHERE id = ?`)
	if err := db.GetContext(ctx, &w, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWaiterNotFound
		}
		return nil, fmt.Errorf("get waiter by id: %w", err)
	}
	return &w, nil
}

// CreateWaiter inserts w. Empty ids get a generated one and timestamps are
// filled in. w.Password must already be hashed.
func CreateWaiter(ctx context.Context, db *sqlx.DB, w *models.Waiter) error {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	if w.Role == "" {
		w.Role = "waiter"
	}
	w.Email = strings.ToLower(strings.TrimSpace(w.Email))
	now := time.Now().Unix()
	w.CreatedAt, w.UpdatedAt = now, now

	query := `
		INSERT INTO waiters (` + waiterColumns + `)
		VALUES (:id, :email, :password, :name, :phone, :avatar, :role, :joined_at, :created_at, :updated_at)
	`
	if _, err := db.NamedExecContext(ctx, query, w); err != nil {
		if IsUniqueViolation(err) {
			return ErrWaiterExists
		}
		return fmt.Errorf("create waiter: %w", err)
	}
	return nil
}

func CountWaiters(ctx context.Context, db *sqlx.DB) (int, error) {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM waiters`); err != nil {
		return 0, err
	}
	return count, nil
}

// ListWaiters returns every staff account ordered by name.
func ListWaiters(ctx context.Context, db *sqlx.DB) ([]models.Waiter, error) {
	waiters := []models.Waiter{}
	if err := db.SelectContext(ctx, &waiters, `SELECT `+waiterColumns+` FROM waiters ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list waiters: %w", err)
	}
	return waiters, nil
}
