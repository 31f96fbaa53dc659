package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"qrdine-backend/internal/database"
	"qrdine-backend/internal/models"
	"qrdine-backend/internal/services/dashboard"
	"qrdine-backend/internal/services/kitchen"
	"qrdine-backend/internal/services/menu"
)

const testSecret = "handler-secret"

type testEnv struct {
	router http.Handler
	store  *dashboard.Store
	sched  *dashboard.Scheduler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	db, err := database.Connect(database.DriverSQLite, ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db, logger))
	require.NoError(t, database.SeedWaiters(ctx, db, logger))

	menuSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"name":"Paneer Tikka","price":220,"category":"Starters"},
			{"name":"Kulfi","price":90,"category":"Desserts","isAvailable":false},
			{"name":"Masala Chai","price":30}
		]`))
	}))
	t.Cleanup(menuSrv.Close)

	store := dashboard.NewStore(database.NewHistoryStore(database.NewKVStore(db)), dashboard.StoreConfig{Logger: logger})
	sched := dashboard.NewScheduler(&kitchen.DemoSource{}, store, dashboard.SchedulerConfig{Logger: logger})
	_, err = sched.Refresh(ctx)
	require.NoError(t, err)

	router := NewRouter(Deps{
		DB:              db,
		Store:           store,
		Scheduler:       sched,
		Catalog:         menu.NewCatalog(menu.NewHTTPSource(menuSrv.URL, logger), time.Minute, logger),
		Carts:           menu.NewCartBook(),
		Tokens:          database.NewFCMTokenStore(db),
		JWTSecret:       testSecret,
		ScrollThreshold: menu.DefaultScrollThreshold,
		AllowedOrigins:  []string{"*"},
		Logger:          logger,
	})
	return &testEnv{router: router, store: store, sched: sched}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec.Code, env
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	code, env := e.do(t, http.MethodPost, "/api/auth/login", "", models.LoginRequest{Email: "amit@qrdine.app", Password: "waiter123"})
	require.Equal(t, http.StatusOK, code)
	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "Amit Kumar", resp.Waiter.Name)
	return resp.Token
}

func TestLogin_BadPassword(t *testing.T) {
	e := newTestEnv(t)
	code, env := e.do(t, http.MethodPost, "/api/auth/login", "", models.LoginRequest{Email: "amit@qrdine.app", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)
}

func TestOrders_RequireAuth(t *testing.T) {
	e := newTestEnv(t)
	code, _ := e.do(t, http.MethodGet, "/api/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestOrderLifecycle(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t)

	code, env := e.do(t, http.MethodGet, "/api/orders", token, nil)
	require.Equal(t, http.StatusOK, code)
	var list OrdersResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Orders, 3)
	assert.Equal(t, 201, list.Orders[0].ID)
	assert.False(t, list.Loading)

	code, env = e.do(t, http.MethodGet, "/api/orders?search=8", token, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Orders, 1)
	assert.Equal(t, 203, list.Orders[0].ID)

	code, env = e.do(t, http.MethodPost, "/api/orders/202/assign", token, nil)
	require.Equal(t, http.StatusOK, code)
	var order models.Order
	require.NoError(t, json.Unmarshal(env.Data, &order))
	require.NotNil(t, order.AssignedTo)
	assert.Equal(t, "Amit Kumar", *order.AssignedTo)

	code, _ = e.do(t, http.MethodPost, "/api/orders/202/assign", token, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, env = e.do(t, http.MethodPost, "/api/orders/202/serve", token, nil)
	require.Equal(t, http.StatusOK, code)
	var entry models.HistoryEntry
	require.NoError(t, json.Unmarshal(env.Data, &entry))
	assert.Equal(t, 7, entry.DeliveryTime)
	assert.Equal(t, "Amit Kumar", entry.Waiter)

	code, _ = e.do(t, http.MethodPost, "/api/orders/202/serve", token, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = e.do(t, http.MethodPost, "/api/orders/abc/serve", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = e.do(t, http.MethodGet, "/api/waiter/stats", token, nil)
	require.Equal(t, http.StatusOK, code)
	var stats models.DashboardStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, models.DashboardStats{TotalOrders: 2, AssignedOrders: 0, CompletedToday: 1, AvgDeliveryTime: 7}, stats)

	code, env = e.do(t, http.MethodGet, "/api/waiter/history", token, nil)
	require.Equal(t, http.StatusOK, code)
	var history []models.HistoryEntry
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 1)

	code, env = e.do(t, http.MethodGet, "/api/waiter/profile", token, nil)
	require.Equal(t, http.StatusOK, code)
	var profile models.WaiterProfile
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "W123", profile.ID)
	assert.Equal(t, 1, profile.OrdersServed)

	// The served order is dropped even though the demo kitchen still lists it.
	code, env = e.do(t, http.MethodPost, "/api/orders/refresh", token, nil)
	require.Equal(t, http.StatusOK, code)
	var result dashboard.ReconcileResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Empty(t, result.NewOrderIDs)
	assert.Equal(t, 2, result.Total)
}

func TestGetOrders_SearchIsPassedThrough(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t)

	var list OrdersResponse
	code, env := e.do(t, http.MethodGet, "/api/orders?search=2", token, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list.Orders, 3)

	code, env = e.do(t, http.MethodGet, "/api/orders?search=%202", token, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Empty(t, list.Orders)
}

func TestRegisterFCMToken(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t)

	code, _ := e.do(t, http.MethodPost, "/api/waiter/fcm-token", token, models.FCMTokenRequest{Token: "device-1", DeviceType: "android"})
	assert.Equal(t, http.StatusOK, code)

	code, _ = e.do(t, http.MethodPost, "/api/waiter/fcm-token", token, models.FCMTokenRequest{Token: "device-2", DeviceType: "pager"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestMenuAndCart(t *testing.T) {
	e := newTestEnv(t)

	code, env := e.do(t, http.MethodGet, "/api/menu", "", nil)
	require.Equal(t, http.StatusOK, code)
	var groups []models.MenuCategory
	require.NoError(t, json.Unmarshal(env.Data, &groups))
	assert.Equal(t, []string{"Starters", "Desserts", "Other"}, menu.Categories(groups))

	code, env = e.do(t, http.MethodPost, "/api/menu/active-category", "", models.ActiveCategoryRequest{
		Sections: []models.CategorySection{{Category: "Starters", TopOffset: -200}, {Category: "Desserts", TopOffset: 30}},
	})
	require.Equal(t, http.StatusOK, code)
	var active map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &active))
	assert.Equal(t, "Desserts", active["category"])

	code, _ = e.do(t, http.MethodPost, "/api/tables/4/cart/items", "", models.CartItemRequest{Name: "Paneer Tikka"})
	require.Equal(t, http.StatusOK, code)
	code, env = e.do(t, http.MethodPost, "/api/tables/4/cart/items", "", models.CartItemRequest{Name: "paneer tikka"})
	require.Equal(t, http.StatusOK, code)
	var cart models.CartResponse
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 2, cart.Lines[0].Qty)
	assert.InDelta(t, 440.0, cart.Total, 0.001)

	code, _ = e.do(t, http.MethodPost, "/api/tables/4/cart/items", "", models.CartItemRequest{Name: "Kulfi"})
	assert.Equal(t, http.StatusConflict, code)
	code, _ = e.do(t, http.MethodPost, "/api/tables/4/cart/items", "", models.CartItemRequest{Name: "Pizza"})
	assert.Equal(t, http.StatusNotFound, code)

	code, env = e.do(t, http.MethodPost, "/api/tables/4/cart/items/Paneer%20Tikka/decrease", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.Equal(t, 1, cart.Lines[0].Qty)

	code, env = e.do(t, http.MethodDelete, "/api/tables/4/cart/items/Paneer%20Tikka", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.Empty(t, cart.Lines)

	code, _ = e.do(t, http.MethodGet, "/api/tables/zero/cart", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	code, _ := e.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
}
