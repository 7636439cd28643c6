package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/pizzeria-app/config"
	"github.com/yeremiapane/pizzeria-app/database"
	"github.com/yeremiapane/pizzeria-app/kds"
	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/router"
	"github.com/yeremiapane/pizzeria-app/services"
	"github.com/yeremiapane/pizzeria-app/utils"
	"gorm.io/gorm"
)

func main() {
	utils.InitLogger()

	cfg, err := config.LoadConfig()
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid configuration: %v", err)
	}
	if err := utils.SetLogLevel(cfg.LogLevel); err != nil {
		utils.ErrorLogger.Fatalf("LOG_LEVEL: %v", err)
	}
	utils.SetJWTSecret(cfg.JWTSecret)
	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to migrate database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orderStore, ingredientStore := openStores(cfg, db)

	hub := kds.NewHub()
	defer hub.Close()

	ledger, err := services.NewLedger(ctx, ingredientStore)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load ingredients: %v", err)
	}
	catalog := services.NewCatalog(db, ledger)
	customers := services.NewCustomerDirectory(db)

	orders, err := services.NewOrderService(ctx, orderStore, ledger, catalog, customers, services.OrderOptions{
		Pricing:         cfg.PricingPolicy,
		RestockOnCancel: cfg.RestockOnCancel,
		Notifier:        hub,
	})
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load orders: %v", err)
	}

	monitor := services.NewStockMonitor(ledger, hub, cfg.LowStockThreshold, cfg.LowStockInterval)
	monitor.Start()
	defer monitor.Stop()

	r := router.SetupRouter(router.Dependencies{
		DB:                db,
		Orders:            orders,
		Ledger:            ledger,
		Catalog:           catalog,
		Customers:         customers,
		Hub:               hub,
		Pricing:           cfg.PricingPolicy,
		LowStockThreshold: cfg.LowStockThreshold,
		CORSOrigin:        cfg.CORSOrigin,
		RateLimitRPS:      cfg.RateLimitRPS,
		RateLimitBurst:    cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.InfoLogger.Infof("Listening on port %s (store=%s, pricing=%s)", cfg.Port, cfg.Store, cfg.PricingPolicy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Errorf("server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Errorf("graceful shutdown failed: %v", err)
	}
}

// openStores picks the order and ingredient gateways for STORE. The menu,
// customers and users always live in the relational database.
func openStores(cfg *config.Config, db *gorm.DB) (database.Collection[models.Order], database.Collection[models.Ingredient]) {
	switch cfg.Store {
	case config.StoreFile:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			utils.ErrorLogger.Fatalf("Failed to create data dir: %v", err)
		}
		return database.NewFileCollection[models.Order](cfg.DataDir, database.OrdersCollection),
			database.NewFileCollection[models.Ingredient](cfg.DataDir, database.IngredientsCollection)
	case config.StoreMemory:
		utils.InfoLogger.Warn("STORE=memory: orders and stock are lost on restart")
		return database.NewMemoryCollection[models.Order](database.OrdersCollection),
			database.NewMemoryCollection[models.Ingredient](database.IngredientsCollection)
	default:
		return database.NewGormCollection[models.Order](db, database.OrdersCollection),
			database.NewGormCollection[models.Ingredient](db, database.IngredientsCollection)
	}
}
