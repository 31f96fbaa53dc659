package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"qrdine-backend/internal/config"
	"qrdine-backend/internal/database"
	"qrdine-backend/internal/handlers"
	"qrdine-backend/internal/logging"
	"qrdine-backend/internal/notify"
	"qrdine-backend/internal/services"
	"qrdine-backend/internal/services/dashboard"
	"qrdine-backend/internal/services/kitchen"
	"qrdine-backend/internal/services/menu"
	"qrdine-backend/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ FATAL ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	envLoaded := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("🚀 QR DINE BACKEND STARTING", zap.Bool("dotenv", envLoaded))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db, logger); err != nil {
		return err
	}
	if err := database.SeedWaiters(ctx, db, logger); err != nil {
		return fmt.Errorf("waiter seeding failed: %w", err)
	}

	hub := websocket.NewHub(logger)
	tokens := database.NewFCMTokenStore(db)

	sinks := notify.Multi{notify.LogSink{Logger: logger}, notify.NewHubSink(hub)}

	if fcm := initFCM(ctx, cfg, logger); fcm != nil {
		push := notify.NewPushSink(fcm, tokens, logger)
		defer push.Close()
		sinks = append(sinks, push)
	}

	if cfg.RabbitMQURL != "" {
		pub, err := notify.DialPublisher(cfg.RabbitMQURL)
		if err != nil {
			logger.Warn("⚠️  RabbitMQ unavailable, notification fanout disabled", zap.Error(err))
		} else {
			defer pub.Close()
			broker := notify.NewBrokerSink(pub, logger)
			defer broker.Close()
			sinks = append(sinks, broker)
			logger.Info("✅ RabbitMQ notification fanout enabled", zap.String("exchange", notify.NotificationsExchange))
		}
	}

	store := dashboard.NewStore(database.NewHistoryStore(database.NewKVStore(db)), dashboard.StoreConfig{
		Notifier: sinks,
		Logger:   logger,
	})
	if err := store.LoadHistory(ctx); err != nil {
		// Starting with an empty history is better than not starting.
		logger.Error("❌ Failed to load order history", zap.Error(err))
	}

	var source dashboard.OrderSource
	if cfg.OrderSourceURL != "" {
		source = kitchen.NewHTTPSource(cfg.OrderSourceURL, logger)
		logger.Info("🍳 Using kitchen order source", zap.String("url", cfg.OrderSourceURL))
	} else {
		source = kitchen.NewDemoSource()
		logger.Info("🍳 ORDER_SOURCE_URL not set, using demo orders")
	}

	scheduler := dashboard.NewScheduler(source, store, dashboard.SchedulerConfig{
		Interval: cfg.OrderRefreshInterval,
		Notifier: sinks,
		Audio:    notify.NewHubAudioCue(hub, ""),
		Logger:   logger,
	})

	catalog := menu.NewCatalog(menu.NewHTTPSource(cfg.MenuAPIURL, logger), cfg.MenuCacheTTL, logger)

	router := handlers.NewRouter(handlers.Deps{
		DB:              db,
		Store:           store,
		Scheduler:       scheduler,
		Catalog:         catalog,
		Carts:           menu.NewCartBook(),
		Tokens:          tokens,
		Hub:             hub,
		JWTSecret:       cfg.JWTSecret,
		ScrollThreshold: cfg.ScrollThreshold,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		Logger:          logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("🚀 Server listening", zap.String("addr", "http://localhost:"+cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("🛑 Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// initFCM returns nil when push notifications are not configured or the
// credentials are unusable.
func initFCM(ctx context.Context, cfg config.Config, logger *zap.Logger) *services.FCMService {
	if cfg.FirebaseCredentialsBase64 != "" {
		fcm, err := services.NewFCMServiceFromBase64(ctx, cfg.FirebaseCredentialsBase64)
		if err != nil {
			logger.Warn("⚠️  Failed to initialize FCM from base64 (push notifications disabled)", zap.Error(err))
			return nil
		}
		logger.Info("✅ Firebase Cloud Messaging initialized from base64 credentials")
		return fcm
	}

	if cfg.FirebaseCredentialsFile == "" {
		logger.Info("FIREBASE_CREDENTIALS_FILE not set, push notifications disabled")
		return nil
	}
	fcm, err := services.NewFCMService(ctx, cfg.FirebaseCredentialsFile)
	if err != nil {
		logger.Warn("⚠️  Failed to initialize FCM from file (push notifications disabled)", zap.Error(err))
		return nil
	}
	logger.Info("✅ Firebase Cloud Messaging initialized from file")
	return fcm
}
