package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cleantrack/backend/internal/api"
	"cleantrack/backend/internal/api/handler"
	"cleantrack/backend/internal/auth"
	"cleantrack/backend/internal/complaint"
	"cleantrack/backend/internal/config"
	"cleantrack/backend/internal/feed"
	"cleantrack/backend/internal/localization"
	"cleantrack/backend/internal/media"
	"cleantrack/backend/internal/session"
	"cleantrack/backend/internal/storage"
	"cleantrack/backend/internal/telegram"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

const uploadSweepInterval = time.Hour

// dependencies are the backing stores picked by the configuration.
type dependencies struct {
	Store    storage.Storage
	Sessions session.Store
	Guard    storage.InFlightGuard
	Bus      *storage.EventBus
	Redis    *redis.Client
}

func setupDependencies(ctx context.Context, cfg *config.Config) dependencies {
	var deps dependencies

	// 1. Redis (optional)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
		rdb := redis.NewClient(opts)
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Fatalf("Failed to connect Redis: %v", err)
		}
		deps.Redis = rdb
		deps.Sessions = storage.NewRedisKV(rdb)
		deps.Guard = storage.NewRedisGuard(rdb)
		deps.Bus = storage.NewEventBus(rdb)
		log.Println("INFO: Redis connected; sessions, guards and events are shared.")
	} else {
		deps.Sessions = storage.NewMemoryKV()
		deps.Guard = storage.NewMemoryGuard()
		log.Println("WARNING: REDIS_URL not set; sessions and events stay in this process.")
	}

	// 2. Complaint and user storage
	switch cfg.StorageDriver {
	case "memory":
		deps.Store = storage.NewMemoryStore()
		log.Println("WARNING: Using the in-memory store; data is lost on restart.")
	case "postgres":
		db, err := storage.Connect(cfg.DatabaseURL, cfg.DBLogLevel)
		if err != nil {
			log.Fatalf("Failed to connect PostgreSQL: %v", err)
		}
		if err := storage.Migrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		deps.Store = storage.NewStorageService(db, deps.Redis)
		log.Println("INFO: Database connected, migrations complete.")
	default:
		log.Fatalf("Unknown STORAGE_DRIVER %q, expected postgres or memory", cfg.StorageDriver)
	}

	return deps
}

func seedDemoData(ctx context.Context, s storage.Storage) {
	hash, err := auth.HashPassword(storage.DemoPassword)
	if err != nil {
		log.Fatalf("Failed to hash demo password: %v", err)
	}
	if err := storage.SeedDemo(ctx, s, hash); err != nil {
		log.Fatalf("Failed to seed demo data: %v", err)
	}
	log.Printf("INFO: Demo data ready (password %q).", storage.DemoPassword)
}

func main() {
	log.Println("Starting CleanTrack Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Error loading .env file")
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Dependencies
	deps := setupDependencies(ctx, cfg)
	if cfg.SeedDemoData {
		seedDemoData(ctx, deps.Store)
	}

	localizer, err := localization.Default()
	if err != nil {
		log.Fatalf("Failed to load translations: %v", err)
	}
	uploads, err := media.NewStore(cfg.UploadDir, cfg.MaxUploadMB, deps.Sessions)
	if err != nil {
		log.Fatalf("Failed to prepare uploads: %v", err)
	}

	// 2. Live feed hub and notifiers
	hub := feed.NewManagerService(deps.Bus)
	publishers := complaint.MultiPublisher{hub}

	complaints := complaint.NewService(deps.Store, nil)
	complaints.Guard = deps.Guard
	complaints.Uploads = uploads
	complaints.AllowRejected = cfg.AllowRejectedStatus

	var bot *telegram.BotService
	if cfg.TelegramBotToken != "" {
		bot, err = telegram.NewBotService(cfg.TelegramBotToken, complaints, deps.Store, localizer, cfg.TelegramOfficialsID)
		if err != nil {
			log.Fatalf("Failed to start Telegram bot: %v", err)
		}
		notifier := telegram.NewNotifier(bot.Sender, deps.Store, localizer, cfg.TelegramOfficialsID)
		publishers = append(publishers, notifier)
		go notifier.Run(ctx)
		go bot.Run(ctx)
	} else {
		log.Println("WARNING: TELEGRAM_BOT_TOKEN not set; Telegram notifications are disabled.")
	}
	complaints.Publisher = publishers

	// 3. Background goroutines
	go hub.Run(ctx)
	go uploads.RunSweeper(ctx, deps.Store, uploadSweepInterval, config.UploadRetention)

	// 4. HTTP
	h := handler.NewHandler(deps.Store, complaints, session.NewManager(deps.Sessions, cfg.SessionTTL), hub, uploads, localizer, cfg.JWTSecret)
	router := api.NewRouter(h, api.Options{FrontendURL: cfg.FrontendURL})

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("INFO: API server listening on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("INFO: Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Graceful shutdown failed: %v", err)
	}
	<-hub.Done()
	if deps.Redis != nil {
		deps.Redis.Close()
	}
}
