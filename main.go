package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/toorbo1/telegram-community1-sub000/config"
	"github.com/toorbo1/telegram-community1-sub000/controllers"
	"github.com/toorbo1/telegram-community1-sub000/controllers/telegram"
	"github.com/toorbo1/telegram-community1-sub000/database"
	"github.com/toorbo1/telegram-community1-sub000/events"
	"github.com/toorbo1/telegram-community1-sub000/logging"
	"github.com/toorbo1/telegram-community1-sub000/middleware"
	"github.com/toorbo1/telegram-community1-sub000/routes"
	"github.com/toorbo1/telegram-community1-sub000/services"
	"github.com/toorbo1/telegram-community1-sub000/storage"
	"github.com/toorbo1/telegram-community1-sub000/utils"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	if err := logging.InitLogger(cfg.IsProduction()); err != nil {
		panic(err)
	}
	log := logging.Logger
	defer log.Sync() //nolint:errcheck

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}

	// Auto-migrate only in development or on SQLite to avoid accidental production schema changes
	if !cfg.IsProduction() || cfg.DBDriver == "sqlite" {
		log.Info("performing auto-migration", zap.String("driver", cfg.DBDriver))
		if err := database.Migrate(db); err != nil {
			log.Fatal("failed to migrate database", zap.Error(err))
		}
		if n, err := database.SeedTasks(db, cfg.MainAdminID); err != nil {
			log.Warn("seed tasks", zap.Error(err))
		} else if n > 0 {
			log.Info("seeded starter tasks", zap.Int("count", n))
		}
	} else {
		log.Info("running in production mode - skipping auto-migration")
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var rc redis.UniversalClient
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPass, DB: cfg.RedisDB})
		pingCtx, cancel := context.WithTimeout(rootCtx, 3*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Warn("redis unavailable, falling back to database blacklist and no event bus", zap.Error(err))
			_ = client.Close()
		} else {
			rc = client
			defer client.Close()
		}
	}

	var publisher events.Publisher = events.NopPublisher{}
	if rc != nil {
		publisher = events.NewRedisPublisher(rc, cfg.EventsChannel)
	}

	store, err := storage.New(rootCtx, cfg, log)
	if err != nil {
		log.Fatal("failed to init screenshot storage", zap.Error(err))
	}

	tokens := utils.NewTokenManager(cfg, db, rc)
	svc := services.New(db, cfg, log.Named("service"), services.WithEvents(publisher))

	var bot *telegram.Bot
	if cfg.BotToken != "" {
		bot, err = telegram.NewBot(cfg, svc, log)
		if err != nil {
			log.Error("telegram bot disabled", zap.Error(err))
		} else {
			svc.SetNotifier(bot)
			go bot.Start()
		}
	}

	tracker := middleware.NewSlowTracker(3*time.Second, 20, cfg.TrustedProxies)
	router, limiters := routes.InitRouter(routes.Deps{
		Config:  cfg,
		Service: svc,
		Tokens:  tokens,
		Store:   store,
		Tracker: tracker,
		Log:     log,
	})

	// Logging -> Security headers -> Request ID -> Max Body -> Timeout -> Recovery -> Suspicious Activity
	// Metrics are attached on the router so the route template is known.
	handler := middleware.RequestLog(log)(
		middleware.SecurityHeaders(cfg.IsProduction(), cfg.IsProduction())(
			middleware.RequestIDMiddleware(
				middleware.MaxBody(cfg.MaxBodyBytes)(
					middleware.Timeout(cfg.RequestTimeout)(
						middleware.Recovery(log)(
							tracker.Middleware(router),
						),
					),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	opsServer := &http.Server{
		Addr:              ":" + cfg.OpsPort,
		Handler:           controllers.NewOpsRouter(db, rc, cfg.IsProduction(), log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()
	go func() {
		log.Info("ops server starting", zap.String("port", cfg.OpsPort))
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("ops server error", zap.Error(err))
		}
	}()

	go housekeeping(rootCtx, log, limiters, tracker, tokens)

	<-rootCtx.Done()
	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if bot != nil {
		bot.Stop()
	}
	if err := opsServer.Shutdown(ctx); err != nil {
		log.Warn("ops server shutdown", zap.Error(err))
	}
	if err := server.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server exited")
}

// housekeeping sweeps rate limiter state and the revoked token table.
func housekeeping(ctx context.Context, log *zap.Logger, limiters *routes.Limiters, tracker *middleware.SlowTracker, tokens *utils.TokenManager) {
	sweep := time.NewTicker(5 * time.Minute)
	purge := time.NewTicker(time.Hour)
	defer sweep.Stop()
	defer purge.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sweep.C:
			limiters.Cleanup()
			tracker.Reset()
		case <-purge.C:
			if n, err := tokens.PurgeRevoked(ctx); err != nil {
				log.Warn("purge revoked tokens", zap.Error(err))
			} else if n > 0 {
				log.Info("purged revoked tokens", zap.Int64("count", n))
			}
		}
	}
}
