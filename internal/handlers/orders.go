package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"qrdine-backend/internal/middleware"
	"qrdine-backend/internal/models"
	"qrdine-backend/internal/services/dashboard"
	"qrdine-backend/pkg/utils"
)

// OrdersResponse is the payload of GET /api/orders
type OrdersResponse struct {
	Orders     []models.Order `json:"orders"`
	Assigned   []int          `json:"assigned"`
	Loading    bool           `json:"loading"`
	Refreshing bool           `json:"refreshing"`
}

// GetOrders lists active orders, optionally filtered with ?search=
func GetOrders(store *dashboard.Store, sched *dashboard.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.Success(w, OrdersResponse{
			Orders:     store.Search(r.URL.Query().Get("search")),
			Assigned:   store.AssignedIDs(),
			Loading:    sched.Loading(),
			Refreshing: sched.Refreshing(),
		})
	}
}

func AssignOrder(store *dashboard.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := orderIDParam(w, r)
		if !ok {
			return
		}

		var req models.AssignOrderRequest
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
		}

		order, err := store.Assign(r.Context(), orderID, assignee(r, req.Waiter))
		if err != nil {
			respondOrderError(w, err, logger)
			return
		}
		utils.Success(w, order)
	}
}

func ServeOrder(store *dashboard.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := orderIDParam(w, r)
		if !ok {
			return
		}

		var req models.AssignOrderRequest
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
		}

		entry, err := store.Serve(r.Context(), orderID, assignee(r, req.Waiter))
		if err != nil {
			respondOrderError(w, err, logger)
			return
		}
		utils.Success(w, entry)
	}
}

// RefreshOrders pulls from the kitchen immediately.
func RefreshOrders(sched *dashboard.Scheduler, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := sched.Refresh(r.Context())
		if err != nil {
			respondOrderError(w, err, logger)
			return
		}
		if result.NewOrderIDs == nil {
			result.NewOrderIDs = []int{}
		}
		utils.Success(w, result)
	}
}

func GetStats(store *dashboard.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.Success(w, store.Stats())
	}
}

// GetHistory returns served orders, most recent first.
func GetHistory(store *dashboard.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.Success(w, store.History())
	}
}

func orderIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid order id")
		return 0, false
	}
	return id, true
}

// assignee identifies the signed-in waiter. The name falls back to the
// request body, then to "Waiter".
func assignee(r *http.Request, fromBody string) dashboard.Assignee {
	var a dashboard.Assignee
	if claims, ok := middleware.GetWaiterFromContext(r); ok {
		a.ID, a.Name = claims.WaiterID, claims.Name
	}
	if a.Name == "" {
		a.Name = strings.TrimSpace(fromBody)
	}
	if a.Name == "" {
		a.Name = "Waiter"
	}
	return a
}

func respondOrderError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var fetchErr *dashboard.FetchError
	switch {
	case errors.Is(err, dashboard.ErrOrderNotFound):
		utils.RespondError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, dashboard.ErrInvalidTransition):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, dashboard.ErrRefreshInProgress):
		utils.RespondError(w, http.StatusConflict, "Refresh already in progress")
	case errors.As(err, &fetchErr):
		utils.RespondError(w, http.StatusBadGateway, "Failed to fetch orders")
	default:
		logger.Error("❌ Order operation failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
