package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"qrdine-backend/internal/database"
	"qrdine-backend/internal/models"
	"qrdine-backend/pkg/utils"
)

type CreateStaffRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Avatar   string `json:"avatar"`
	Role     string `json:"role"` // "waiter" or "manager"
}

// FloorStaff is a staff account with its live dashboard state.
type FloorStaff struct {
	models.WaiterProfile
	Connected      bool  `json:"connected"`
	AssignedOrders []int `json:"assignedOrders"`
}

// PresenceChecker reports whether a waiter has an open dashboard socket.
type PresenceChecker interface {
	IsWaiterConnected(waiterID string) bool
}

// OrderLister exposes the active order set.
type OrderLister interface {
	Orders() []models.Order
	History() []models.HistoryEntry
}

// CreateStaff adds a waiter or manager account. Managers only.
func CreateStaff(db *sqlx.DB, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateStaffRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.Email == "" || req.Password == "" || req.Name == "" {
			utils.RespondError(w, http.StatusBadRequest, "Email, password and name are required")
			return
		}

		role := strings.ToLower(req.Role)
		if role == "" {
			role = "waiter"
		}
		if role != "waiter" && role != "manager" {
			utils.RespondError(w, http.StatusBadRequest, "Role must be 'waiter' or 'manager'")
			return
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.Error("❌ Failed to hash password", zap.Error(err))
			utils.RespondError(w, http.StatusInternalServerError, "Failed to hash password")
			return
		}

		waiter := &models.Waiter{
			Email:    req.Email,
			Password: string(hashed),
			Name:     req.Name,
			Phone:    req.Phone,
			Avatar:   req.Avatar,
			Role:     role,
			JoinedAt: time.Now().Format("2006-01-02"),
		}
		if err := database.CreateWaiter(r.Context(), db, waiter); err != nil {
			if errors.Is(err, database.ErrWaiterExists) {
				utils.RespondError(w, http.StatusConflict, "Waiter with this email already exists")
				return
			}
			logger.Error("❌ Failed to create waiter", zap.Error(err))
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create waiter")
			return
		}

		logger.Info("✅ Staff account created",
			zap.String("id", waiter.ID),
			zap.String("email", waiter.Email),
			zap.String("role", waiter.Role))
		utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
			"success": true,
			"data":    waiter.ToProfile(0),
		})
	}
}

// GetFloorStaff lists every account with whether it is connected and which
// active orders carry its name.
func GetFloorStaff(db *sqlx.DB, presence PresenceChecker, orders OrderLister, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		waiters, err := database.ListWaiters(r.Context(), db)
		if err != nil {
			logger.Error("❌ Failed to list waiters", zap.Error(err))
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch staff")
			return
		}

		assigned := make(map[string][]int)
		for _, o := range orders.Orders() {
			if o.Status == models.OrderStatusAssigned && o.AssignedTo != nil {
				assigned[*o.AssignedTo] = append(assigned[*o.AssignedTo], o.ID)
			}
		}
		served := make(map[string]int)
		for _, e := range orders.History() {
			served[e.Waiter]++
		}

		staff := make([]FloorStaff, 0, len(waiters))
		for i := range waiters {
			wt := &waiters[i]
			entry := FloorStaff{
				WaiterProfile:  wt.ToProfile(served[wt.Name]),
				AssignedOrders: assigned[wt.Name],
			}
			if entry.AssignedOrders == nil {
				entry.AssignedOrders = []int{}
			}
			if presence != nil {
				entry.Connected = presence.IsWaiterConnected(wt.ID)
			}
			staff = append(staff, entry)
		}

		logger.Debug("Floor staff listed", zap.Int("count", len(staff)))
		utils.Success(w, staff)
	}
}
