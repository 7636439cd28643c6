package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/utils"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	StoreGorm   = "gorm"
	StoreFile   = "file"
	StoreMemory = "memory"
)

type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	DBDriver string
	DBDSN    string
	Store    string
	DataDir  string

	JWTSecret  string
	CORSOrigin string

	RateLimitRPS   float64
	RateLimitBurst int

	RestockOnCancel   bool
	PricingPolicy     models.PricingPolicy
	LowStockThreshold int
	LowStockInterval  time.Duration
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Debug(".env file not found, using environment only")
	}

	cfg := &Config{
		Port:       getEnv("PORT", "8080"),
		GinMode:    getEnv("GIN_MODE", "debug"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBDSN:      getEnv("DB_DSN", "pizzeria.db"),
		Store:      strings.ToLower(getEnv("STORE", StoreGorm)),
		DataDir:    getEnv("DATA_DIR", "data"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		CORSOrigin: getEnv("CORS_ORIGIN", "*"),
	}

	var err error
	if cfg.RateLimitRPS, err = strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "20"), 64); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_RPS: %w", err)
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(getEnv("RATE_LIMIT_BURST", "40")); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_BURST: %w", err)
	}
	if cfg.RestockOnCancel, err = strconv.ParseBool(getEnv("RESTOCK_ON_CANCEL", "false")); err != nil {
		return nil, fmt.Errorf("RESTOCK_ON_CANCEL: %w", err)
	}
	if cfg.PricingPolicy, err = models.ParsePricingPolicy(getEnv("PRICING_POLICY", string(models.PricingBaseTimesSize))); err != nil {
		return nil, fmt.Errorf("PRICING_POLICY: %w", err)
	}
	if cfg.LowStockThreshold, err = strconv.Atoi(getEnv("LOW_STOCK_THRESHOLD", "5")); err != nil {
		return nil, fmt.Errorf("LOW_STOCK_THRESHOLD: %w", err)
	}
	if cfg.LowStockInterval, err = time.ParseDuration(getEnv("LOW_STOCK_INTERVAL", "30s")); err != nil {
		return nil, fmt.Errorf("LOW_STOCK_INTERVAL: %w", err)
	}

	switch cfg.Store {
	case StoreGorm, StoreFile, StoreMemory:
	default:
		return nil, fmt.Errorf("STORE must be one of gorm, file, memory (got %q)", cfg.Store)
	}

	return cfg, nil
}

// InitDB opens the configured database. SQLite is limited to one open
// connection so concurrent writers queue instead of failing with SQLITE_BUSY.
func InitDB(cfg *Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.DBDriver {
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(cfg.DBDSN), gormCfg)
	case "mysql":
		db, err = gorm.Open(mysql.Open(cfg.DBDSN), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.DBDriver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	utils.InfoLogger.WithField("driver", cfg.DBDriver).Info("database connected")
	return db, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
