package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"qrdine-backend/internal/database"
	"qrdine-backend/internal/middleware"
	"qrdine-backend/internal/services/dashboard"
	"qrdine-backend/internal/services/menu"
	"qrdine-backend/internal/websocket"
	"qrdine-backend/pkg/utils"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	DB              *sqlx.DB
	Store           *dashboard.Store
	Scheduler       *dashboard.Scheduler
	Catalog         *menu.Catalog
	Carts           *menu.CartBook
	Tokens          *database.FCMTokenStore
	Hub             *websocket.Hub
	JWTSecret       string
	ScrollThreshold float64
	AllowedOrigins  []string
	Logger          *zap.Logger
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	var presence PresenceChecker
	if d.Hub != nil {
		presence = d.Hub
	}

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(d.Logger))
	r.Use(chimiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// WebSocket endpoint (authentication handled in handler via query param)
	if d.Hub != nil {
		r.Get("/ws", websocket.HandleWebSocket(d.Hub, d.JWTSecret, d.ScrollThreshold))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", Login(d.DB, d.JWTSecret, d.Logger))
		r.Post("/logs/diagnostic", ReceiveDiagnosticLog(d.Logger))

		// Customer menu (no auth required)
		r.Get("/menu", GetMenu(d.Catalog, d.Logger))
		r.Post("/menu/active-category", ResolveActiveCategory(d.ScrollThreshold))
		r.Route("/tables/{table}/cart", func(r chi.Router) {
			r.Get("/", GetCart(d.Carts))
			r.Delete("/", ClearCart(d.Carts))
			r.Post("/items", AddCartItem(d.Catalog, d.Carts, d.Logger))
			r.Post("/items/{name}/decrease", DecreaseCartItem(d.Carts))
			r.Delete("/items/{name}", RemoveCartItem(d.Carts))
		})

		// Waiter dashboard (requires authentication)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(d.JWTSecret, d.Logger))

			r.Get("/orders", GetOrders(d.Store, d.Scheduler))
			r.Post("/orders/refresh", RefreshOrders(d.Scheduler, d.Logger))
			r.Post("/orders/{id}/assign", AssignOrder(d.Store, d.Logger))
			r.Post("/orders/{id}/serve", ServeOrder(d.Store, d.Logger))

			r.Get("/waiter/stats", GetStats(d.Store))
			r.Get("/waiter/history", GetHistory(d.Store))
			r.Get("/waiter/profile", GetProfile(d.DB, d.Store, d.Logger))
			r.Post("/waiter/fcm-token", RegisterFCMToken(d.Tokens, d.Logger))
		})

		// Manager tools
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(d.JWTSecret, d.Logger))
			r.Use(middleware.RequireRole("manager"))

			r.Get("/manager/staff", GetFloorStaff(d.DB, presence, d.Store, d.Logger))
			r.Post("/manager/staff", CreateStaff(d.DB, d.Logger))

			r.Get("/manager/menu-cache", func(w http.ResponseWriter, r *http.Request) {
				utils.Success(w, d.Catalog.CacheStats())
			})
			r.Post("/manager/menu-cache/invalidate", func(w http.ResponseWriter, r *http.Request) {
				utils.Success(w, map[string]bool{"dropped": d.Catalog.Invalidate()})
			})
		})
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("📥 Request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimiddleware.GetReqID(r.Context())))
		})
	}
}
