package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"qrdine-backend/internal/config"
	"qrdine-backend/internal/database"
	"qrdine-backend/internal/logging"
	"qrdine-backend/internal/models"
)

var opts struct {
	email    string
	name     string
	password string
	phone    string
	avatar   string
	role     string
	joined   string
}

var rootCmd = &cobra.Command{
	Use:   "add-waiter",
	Short: "Creates a waiter or manager account",
	Long:  `add-waiter inserts a staff account into the waiters table so the person can sign in to the dashboard.`,
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&opts.email, "email", "", "Login email (required)")
	rootCmd.Flags().StringVar(&opts.name, "name", "", "Display name (required)")
	rootCmd.Flags().StringVar(&opts.password, "password", "", "Plain-text password, stored hashed (required)")
	rootCmd.Flags().StringVar(&opts.phone, "phone", "", "Contact phone number")
	rootCmd.Flags().StringVar(&opts.avatar, "avatar", "🧑‍🍳", "Avatar emoji")
	rootCmd.Flags().StringVar(&opts.role, "role", "waiter", "Account role: waiter or manager")
	rootCmd.Flags().StringVar(&opts.joined, "joined", time.Now().Format("2006-01-02"), "Join date (YYYY-MM-DD)")

	for _, f := range []string{"email", "name", "password"} {
		_ = rootCmd.MarkFlagRequired(f)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	role := strings.ToLower(opts.role)
	if role != "waiter" && role != "manager" {
		return fmt.Errorf("invalid role %q: must be waiter or manager", opts.role)
	}
	if _, err := time.Parse("2006-01-02", opts.joined); err != nil {
		return fmt.Errorf("invalid join date %q: %w", opts.joined, err)
	}

	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, "console")
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	w := &models.Waiter{
		Email:    opts.email,
		Password: string(hash),
		Name:     opts.name,
		Phone:    opts.phone,
		Avatar:   opts.avatar,
		Role:     role,
		JoinedAt: opts.joined,
	}
	if err := database.CreateWaiter(cmd.Context(), db, w); err != nil {
		if errors.Is(err, database.ErrWaiterExists) {
			logger.Warn("⚠️  Account already exists, skipping", zap.String("email", w.Email))
			return nil
		}
		return err
	}

	logger.Info("✅ Created account",
		zap.String("id", w.ID),
		zap.String("email", w.Email),
		zap.String("role", w.Role))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
