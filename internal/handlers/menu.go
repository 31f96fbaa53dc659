package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"qrdine-backend/internal/models"
	"qrdine-backend/internal/services/menu"
	"qrdine-backend/pkg/utils"
)

// GetMenu returns the available menu grouped by category.
func GetMenu(catalog *menu.Catalog, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groups, err := catalog.Grouped(r.Context())
		if err != nil {
			logger.Warn("⚠️  Menu unavailable", zap.Error(err))
			utils.RespondError(w, http.StatusBadGateway, "Failed to fetch menu")
			return
		}
		if groups == nil {
			groups = []models.MenuCategory{}
		}
		utils.Success(w, groups)
	}
}

// ResolveActiveCategory answers which category header the menu view has
// scrolled to, for clients that do not keep a websocket open.
func ResolveActiveCategory(defaultThreshold float64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.ActiveCategoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		threshold := defaultThreshold
		if req.Threshold != nil {
			threshold = *req.Threshold
		}
		utils.Success(w, map[string]string{
			"category": menu.ActiveCategory(req.Sections, threshold),
		})
	}
}

func GetCart(carts *menu.CartBook) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		table, ok := tableParam(w, r)
		if !ok {
			return
		}
		utils.Success(w, carts.Get(table))
	}
}

// AddCartItem adds one of the named menu item to the table's cart.
func AddCartItem(catalog *menu.Catalog, carts *menu.CartBook, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		table, ok := tableParam(w, r)
		if !ok {
			return
		}
		var req models.CartItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
			utils.RespondError(w, http.StatusBadRequest, "name is required")
			return
		}

		item, found, err := catalog.Find(r.Context(), req.Name)
		if err != nil {
			logger.Warn("⚠️  Menu unavailable", zap.Error(err))
			utils.RespondError(w, http.StatusBadGateway, "Failed to fetch menu")
			return
		}
		if !found {
			utils.RespondError(w, http.StatusNotFound, "Menu item not found")
			return
		}

		cart, err := carts.Add(table, item)
		if err != nil {
			respondCartError(w, err)
			return
		}
		utils.Success(w, cart)
	}
}

func DecreaseCartItem(carts *menu.CartBook) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		table, ok := tableParam(w, r)
		if !ok {
			return
		}
		cart, err := carts.Decrease(table, chi.URLParam(r, "name"))
		if err != nil {
			respondCartError(w, err)
			return
		}
		utils.Success(w, cart)
	}
}

func RemoveCartItem(carts *menu.CartBook) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		table, ok := tableParam(w, r)
		if !ok {
			return
		}
		cart, err := carts.Remove(table, chi.URLParam(r, "name"))
		if err != nil {
			respondCartError(w, err)
			return
		}
		utils.Success(w, cart)
	}
}

func ClearCart(carts *menu.CartBook) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		table, ok := tableParam(w, r)
		if !ok {
			return
		}
		carts.Clear(table)
		utils.Success(w, carts.Get(table))
	}
}

func tableParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	table, err := strconv.Atoi(chi.URLParam(r, "table"))
	if err != nil || table <= 0 {
		utils.RespondError(w, http.StatusBadRequest, "Invalid table number")
		return 0, false
	}
	return table, true
}

func respondCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, menu.ErrItemUnavailable):
		utils.RespondError(w, http.StatusConflict, "Item is not available")
	case errors.Is(err, menu.ErrItemNotInCart):
		utils.RespondError(w, http.StatusNotFound, "Item is not in the cart")
	default:
		utils.RespondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
