package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"qrdine-backend/internal/database"
	"qrdine-backend/internal/middleware"
	"qrdine-backend/internal/models"
	"qrdine-backend/pkg/utils"
)

// HistoryCounter reports how many orders have been served.
type HistoryCounter interface {
	History() []models.HistoryEntry
}

func Login(db *sqlx.DB, jwtSecret string, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		logger.Info("🔐 Login attempt", zap.String("email", req.Email))

		waiter, err := database.GetWaiterByEmail(r.Context(), db, req.Email)
		if err != nil {
			if errors.Is(err, database.ErrWaiterNotFound) {
				logger.Info("❌ Waiter not found", zap.String("email", req.Email))
				utils.RespondError(w, http.StatusUnauthorized, "Invalid email or password")
				return
			}
			logger.Error("❌ Login lookup failed", zap.Error(err))
			utils.RespondError(w, http.StatusInternalServerError, "Login failed")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(waiter.Password), []byte(req.Password)); err != nil {
			logger.Info("❌ Invalid password", zap.String("email", req.Email))
			utils.RespondError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}

		token, err := middleware.IssueToken(jwtSecret, waiter, time.Now())
		if err != nil {
			logger.Error("❌ Failed to create token", zap.Error(err))
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create token")
			return
		}

		logger.Info("✅ Login successful", zap.String("email", waiter.Email), zap.String("role", waiter.Role))
		utils.Success(w, models.LoginResponse{
			Token:  token,
			Waiter: waiter.ToProfile(0),
		})
	}
}

// GetProfile returns the signed-in waiter with the number of orders served.
func GetProfile(db *sqlx.DB, history HistoryCounter, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetWaiterFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		waiter, err := database.GetWaiterByID(r.Context(), db, claims.WaiterID)
		if err != nil {
			if errors.Is(err, database.ErrWaiterNotFound) {
				utils.RespondError(w, http.StatusNotFound, "Waiter not found")
				return
			}
			logger.Error("❌ Profile lookup failed", zap.Error(err))
			utils.RespondError(w, http.StatusInternalServerError, "Failed to load profile")
			return
		}

		utils.Success(w, waiter.ToProfile(len(history.History())))
	}
}

// RegisterFCMToken stores the device token of the signed-in waiter.
func RegisterFCMToken(tokens *database.FCMTokenStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetWaiterFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req models.FCMTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
			utils.RespondError(w, http.StatusBadRequest, "token is required")
			return
		}
		switch req.DeviceType {
		case "ios", "android", "web":
		case "":
			req.DeviceType = "web"
		default:
			utils.RespondError(w, http.StatusBadRequest, "device_type must be ios, android or web")
			return
		}

		if err := tokens.Upsert(r.Context(), claims.WaiterID, req.Token, req.DeviceType); err != nil {
			logger.Error("❌ Failed to save FCM token", zap.Error(err))
			utils.RespondError(w, http.StatusInternalServerError, "Failed to save token")
			return
		}

		logger.Info("📱 FCM token registered", zap.String("waiter_id", claims.WaiterID), zap.String("device_type", req.DeviceType))
		utils.Success(w, map[string]string{"status": "registered"})
	}
}
