package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is read from the environment. A .env file in the working
// directory is loaded first when present.
type Config struct {
	Port string

	DatabaseDriver string
	DatabaseURL    string

	JWTSecret string

	// Empty means the built-in demo batch.
	OrderSourceURL       string
	OrderRefreshInterval time.Duration

	MenuAPIURL      string
	MenuCacheTTL    time.Duration
	ScrollThreshold float64

	FirebaseCredentialsBase64 string
	FirebaseCredentialsFile   string

	RabbitMQURL string

	LogLevel  string
	LogFormat string

	CORSAllowedOrigins []string
}

// LoadDotEnv loads .env if present. It reports whether a file was found.
func LoadDotEnv() bool {
	return godotenv.Load() == nil
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	cfg := Config{
		Port:                      getenv("PORT", "8080"),
		DatabaseDriver:            getenv("DATABASE_DRIVER", "postgres"),
		DatabaseURL:               os.Getenv("DATABASE_URL"),
		JWTSecret:                 os.Getenv("APP_JWT_SECRET"),
		OrderSourceURL:            os.Getenv("ORDER_SOURCE_URL"),
		MenuAPIURL:                getenv("MENU_API_URL", "http://localhost:5000/api/menu/available"),
		FirebaseCredentialsBase64: os.Getenv("FIREBASE_CREDENTIALS_BASE64"),
		FirebaseCredentialsFile:   os.Getenv("FIREBASE_CREDENTIALS_FILE"),
		RabbitMQURL:               os.Getenv("RABBITMQ_URL"),
		LogLevel:                  getenv("LOG_LEVEL", "info"),
		LogFormat:                 os.Getenv("LOG_FORMAT"),
		CORSAllowedOrigins:        splitList(getenv("CORS_ALLOWED_ORIGINS", "*")),
	}

	var errs []error
	var err error

	if cfg.OrderRefreshInterval, err = duration("ORDER_REFRESH_INTERVAL", 30*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.MenuCacheTTL, err = duration("MENU_CACHE_TTL", 5*time.Minute); err != nil {
		errs = append(errs, err)
	}
	if cfg.ScrollThreshold, err = float("SCROLL_THRESHOLD", 60); err != nil {
		errs = append(errs, err)
	}

	if cfg.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL environment variable is required"))
	}
	if cfg.DatabaseDriver != "postgres" && cfg.DatabaseDriver != "sqlite" {
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", cfg.DatabaseDriver))
	}
	if cfg.OrderRefreshInterval <= 0 {
		errs = append(errs, errors.New("ORDER_REFRESH_INTERVAL must be positive"))
	}

	return cfg, errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func float(key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
