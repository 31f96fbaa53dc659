package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"qrdine-backend/internal/models"
)

// SeedWaiters creates the demo accounts on an empty waiters table.
func SeedWaiters(ctx context.Context, db *sqlx.DB, logger *zap.Logger) error {
	count, err := CountWaiters(ctx, db)
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Info("✓ Waiters already seeded, skipping...")
		return nil
	}

	logger.Info("🌱 Seeding demo waiters...")

	waiterPassword, err := bcrypt.GenerateFromPassword([]byte("waiter123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	managerPassword, err := bcrypt.GenerateFromPassword([]byte("manager123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	waiters := []models.Waiter{
		{
			ID:       "W123",
			Email:    "amit@qrdine.app",
			Password: string(waiterPassword),
			Name:     "Amit Kumar",
			Phone:    "+91-9876543210",
			Avatar:   "🧑‍🍳",
			Role:     "waiter",
			JoinedAt: "2023-08-15",
		},
		{
			Email:    "manager@qrdine.app",
			Password: string(managerPassword),
			Name:     "Floor Manager",
			Avatar:   "🧑‍💼",
			Role:     "manager",
			JoinedAt: "2023-01-01",
		},
	}

	for i := range waiters {
		if err := CreateWaiter(ctx, db, &waiters[i]); err != nil {
			return err
		}
		logger.Info("  ✓ Created waiter", zap.String("email", waiters[i].Email), zap.String("role", waiters[i].Role))
	}
	return nil
}
