package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"qrdine-backend/internal/models"
)

type contextKey string

const WaiterContextKey contextKey = "waiter"

// TokenTTL is how long a login token stays valid. One long shift.
const TokenTTL = 12 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

type WaiterClaims struct {
	WaiterID string `json:"waiter_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type tokenClaims struct {
	WaiterClaims
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for w.
func IssueToken(secret string, w *models.Waiter, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret not configured")
	}
	claims := tokenClaims{
		WaiterClaims: WaiterClaims{
			WaiterID: w.ID,
			Email:    w.Email,
			Name:     w.Name,
			Role:     w.Role,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   w.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates tokenString and returns its waiter claims.
func ParseToken(secret, tokenString string) (WaiterClaims, error) {
	if secret == "" {
		return WaiterClaims{}, errors.New("jwt secret not configured")
	}
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return WaiterClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.WaiterID == "" {
		return WaiterClaims{}, ErrInvalidToken
	}
	return claims.WaiterClaims, nil
}

// Auth validates the bearer token and adds waiter claims to the context
func Auth(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("❌ No authorization header", zap.String("path", r.URL.Path))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Debug("❌ Invalid authorization header format", zap.Int("parts", len(parts)))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := ParseToken(secret, parts[1])
			if err != nil {
				logger.Debug("❌ Invalid token", zap.Error(err))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), WaiterContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole checks the authenticated waiter's role (must be used after Auth)
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetWaiterFromContext(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if claims.Role != role {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetWaiterFromContext extracts waiter claims from request context
func GetWaiterFromContext(r *http.Request) (WaiterClaims, bool) {
	claims, ok := r.Context().Value(WaiterContextKey).(WaiterClaims)
	return claims, ok
}

// WithWaiter returns ctx carrying claims. Used by tests and the websocket
// handler, which authenticates outside the middleware chain.
func WithWaiter(ctx context.Context, claims WaiterClaims) context.Context {
	return context.WithValue(ctx, WaiterContextKey, claims)
}
