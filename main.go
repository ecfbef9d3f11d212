package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/lodgekey/lodgekey/api"
	"github.com/lodgekey/lodgekey/cache"
	"github.com/lodgekey/lodgekey/config"
	"github.com/lodgekey/lodgekey/middleware"
	"github.com/lodgekey/lodgekey/models"
	"github.com/lodgekey/lodgekey/monitoring"
	"github.com/lodgekey/lodgekey/notifications"
	"github.com/lodgekey/lodgekey/providers"
	"github.com/lodgekey/lodgekey/services"
	"github.com/lodgekey/lodgekey/stores"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func printBanner() {
	fmt.Printf("%s%s", colorCyan, colorBold)
	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                                                              ║")
	fmt.Println("║  🔑 LodgeKey Access Code Sync                                ║")
	fmt.Println("║                                                              ║")
	fmt.Println("║  Booking events in, door codes out                           ║")
	fmt.Println("║                                                              ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Printf("%s", colorReset)
}

func printStep(step, message string) {
	fmt.Printf("%s[%s]%s %s%s%s\n", colorBlue, step, colorReset, colorBold, message, colorReset)
}

func printSuccess(message string) {
	fmt.Printf("%s✓%s %s\n", colorGreen, colorReset, message)
}

func printWarning(message string) {
	fmt.Printf("%s⚠%s %s\n", colorYellow, colorReset, message)
}

func printError(message string) {
	fmt.Printf("%s✗%s %s\n", colorRed, colorReset, message)
}

func main() {
	printBanner()
	fmt.Println()

	printStep("1/7", "Loading configuration...")
	cfg, err := config.LoadConfig()
	if err != nil {
		printError(fmt.Sprintf("Failed to load configuration: %v", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		printError(fmt.Sprintf("Configuration validation failed: %v", err))
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("Configuration loaded (%d properties mapped)", len(cfg.Provisioning.PropertyLocks)))

	printStep("2/7", "Connecting idempotency store...")
	var recordStore stores.RecordStore
	switch cfg.Idempotency.Backend {
	case "postgres":
		db, err := gorm.Open(postgres.Open(cfg.GetDatabaseURL()), &gorm.Config{})
		if err != nil {
			printWarning(fmt.Sprintf("Failed to connect to database: %v (continuing without store)", err))
			break
		}
		if err := db.AutoMigrate(&models.CodeRecord{}); err != nil {
			printWarning(fmt.Sprintf("Failed to migrate code_records: %v", err))
		}
		recordStore = stores.NewCodeRecordStore(db)
		printSuccess(fmt.Sprintf("Connected to PostgreSQL at %s:%d", cfg.Database.Host, cfg.Database.Port))
	case "redis":
		redisStore, err := cache.NewRedisRecordStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			printWarning(fmt.Sprintf("Failed to connect to Redis: %v (continuing without store)", err))
			break
		}
		defer redisStore.Close()
		recordStore = redisStore
		printSuccess(fmt.Sprintf("Connected to Redis at %s:%d", cfg.Redis.Host, cfg.Redis.Port))
	default:
		printWarning("Idempotency store disabled; every event will hit the lock service")
	}

	printStep("3/7", "Initializing lock provider...")
	provider := providers.NewSeamProvider(providers.SeamOptions{
		BaseURL:                cfg.Lock.BaseURL,
		APIKey:                 cfg.Lock.APIKey,
		PageLimit:              cfg.Lock.PageLimit,
		Timeout:                cfg.Lock.Timeout,
		DuplicateCodeIsSuccess: cfg.Provisioning.DuplicateCodeIsSuccess,
	})
	printSuccess(fmt.Sprintf("Lock provider ready (%s)", cfg.Lock.BaseURL))

	printStep("4/7", "Initializing notifications...")
	var notifier services.Notifier
	if cfg.Notifications.Enabled {
		notifier = notifications.NewManager(cfg.Notifications.Endpoints, cfg.Notifications.Secret, cfg.Notifications.Timeout)
		printSuccess(fmt.Sprintf("Notifications enabled (%d endpoints)", len(cfg.Notifications.Endpoints)))
	} else {
		printWarning("Notifications disabled")
	}

	printStep("5/7", "Initializing reconciler...")
	metrics := monitoring.NewMetrics()
	reconciler := services.NewReconciler(cfg, provider, recordStore, notifier, metrics)
	printSuccess("Reconciler initialized")

	printStep("6/7", "Setting up HTTP server...")
	webhookHandler := api.NewWebhookHandler(reconciler, cfg)
	healthHandler := api.NewHealthHandler(metrics, provider)
	authMiddleware := middleware.NewAuthMiddleware(cfg.Security.WebhookToken)

	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.RecoveryMiddleware)
	router.Use(middleware.RateLimitMiddleware)
	router.Use(authMiddleware.BearerMiddleware)

	router.HandleFunc("/health", healthHandler.HandleHealth).Methods("GET")
	router.HandleFunc("/webhooks/booking", webhookHandler.HandleBookingEvent).Methods("POST")
	router.HandleFunc("/cleanup/run", webhookHandler.HandleCleanup).Methods("POST")

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	printSuccess(fmt.Sprintf("Listening on :%s", cfg.Server.Port))

	printStep("7/7", "Starting...")
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			printError(fmt.Sprintf("Server error: %v", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println()
	printStep("shutdown", "Draining in-flight requests...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		printError(fmt.Sprintf("Forced shutdown: %v", err))
		os.Exit(1)
	}
	printSuccess("Shutdown complete")
}
